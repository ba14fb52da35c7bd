package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"workchat/internal/app/db"
	"workchat/internal/app/identity"
	"workchat/internal/pkg/logx"
	"workchat/internal/pkg/randx"
)

// tokenInsertAttempts bounds the regenerate-on-collision loop for new
// session tokens. With 128 bits of entropy a collision is theoretical,
// but the primary key makes the guarantee explicit.
const tokenInsertAttempts = 3

// PostgresStore is the PostgreSQL backend of the identity store.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPostgresStore wraps an initialized connection pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{
		pool:   pool,
		logger: logx.Logger().With().Str("component", "PostgresStore").Logger(),
	}
}

// CreateSession upserts the user record and inserts a session row bound to
// a freshly minted token, in one transaction.
func (s *PostgresStore) CreateSession(ctx context.Context, user identity.Identity) (*Session, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin session transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Re-authentication refreshes the provider-supplied fields but never
	// clobbers a display-name override chosen by the user.
	err = tx.QueryRow(ctx, `
		INSERT INTO users (key, sub, email, name)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE
			SET sub = EXCLUDED.sub, email = EXCLUDED.email, name = EXCLUDED.name
		RETURNING display_name`,
		user.Key(), user.Subject, user.Email, user.Name,
	).Scan(&user.DisplayName)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user %s: %w", user.Key(), err)
	}

	sess := &Session{User: user}

	for attempt := 0; ; attempt++ {
		token, err := randx.SessionToken()
		if err != nil {
			return nil, err
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO sessions (token, user_key)
			VALUES ($1, $2)
			RETURNING created_at`,
			token, user.Key(),
		).Scan(&sess.CreatedAt)
		if err == nil {
			sess.Token = token
			break
		}

		if db.IsUniqueViolation(err) && attempt < tokenInsertAttempts-1 {
			s.logger.Warn().Int("attempt", attempt+1).Msg("Session token collision, regenerating.")
			continue
		}

		return nil, fmt.Errorf("failed to insert session: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit session transaction: %w", err)
	}

	return sess, nil
}

// Resolve returns the identity bound to token.
func (s *PostgresStore) Resolve(ctx context.Context, token string) (identity.Identity, error) {
	var user identity.Identity

	err := s.pool.QueryRow(ctx, `
		SELECT u.sub, u.email, u.name, u.display_name
		FROM sessions s
		JOIN users u ON u.key = s.user_key
		WHERE s.token = $1`,
		token,
	).Scan(&user.Subject, &user.Email, &user.Name, &user.DisplayName)

	if errors.Is(err, pgx.ErrNoRows) {
		return identity.Identity{}, ErrSessionNotFound
	}
	if err != nil {
		return identity.Identity{}, fmt.Errorf("failed to resolve session: %w", err)
	}

	return user, nil
}

// Rename updates the display name of the user bound to token in a single
// statement, so a rename racing a concurrent Resolve never loses updates.
func (s *PostgresStore) Rename(ctx context.Context, token string, displayName string) (identity.Identity, error) {
	var user identity.Identity

	err := s.pool.QueryRow(ctx, `
		UPDATE users
		SET display_name = $2
		FROM sessions
		WHERE sessions.token = $1 AND users.key = sessions.user_key
		RETURNING users.sub, users.email, users.name, users.display_name`,
		token, displayName,
	).Scan(&user.Subject, &user.Email, &user.Name, &user.DisplayName)

	if errors.Is(err, pgx.ErrNoRows) {
		return identity.Identity{}, ErrSessionNotFound
	}
	if err != nil {
		return identity.Identity{}, fmt.Errorf("failed to rename user: %w", err)
	}

	return user, nil
}

// DeleteSession removes the session row bound to token, if any.
func (s *PostgresStore) DeleteSession(ctx context.Context, token string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Rooms lists the room catalog sorted by room name.
func (s *PostgresStore) Rooms(ctx context.Context) ([]RoomInfo, error) {
	rows, err := s.pool.Query(ctx, `SELECT name, label, description FROM rooms ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	defer rows.Close()

	var infos []RoomInfo
	for rows.Next() {
		var info RoomInfo
		if err := rows.Scan(&info.Name, &info.Label, &info.Description); err != nil {
			return nil, fmt.Errorf("failed to scan room row: %w", err)
		}
		infos = append(infos, info)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate room rows: %w", err)
	}

	return infos, nil
}

// compile-time interface check
var _ Store = (*PostgresStore)(nil)
