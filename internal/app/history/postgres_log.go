package history

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"workchat/internal/pkg/logx"
)

// PostgresLog is the PostgreSQL backend of the history log. Row inserts are
// atomic, so concurrent appends to the same room never interleave, and the
// serial primary key preserves observed append order.
type PostgresLog struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPostgresLog wraps an initialized connection pool.
func NewPostgresLog(pool *pgxpool.Pool) *PostgresLog {
	return &PostgresLog{
		pool:   pool,
		logger: logx.Logger().With().Str("component", "PostgresLog").Logger(),
	}
}

// Append inserts one line into the messages table.
func (l *PostgresLog) Append(ctx context.Context, room string, line Line) error {
	_, err := l.pool.Exec(ctx, `
		INSERT INTO messages (room, ts, name, email, text)
		VALUES ($1, to_timestamp($2), $3, $4, $5)`,
		room, line.TS, line.Name, line.Email, line.Text,
	)
	if err != nil {
		return fmt.Errorf("failed to append history line for %s: %w", room, err)
	}

	return nil
}

// Tail returns the last n lines of the room in chronological order.
func (l *PostgresLog) Tail(ctx context.Context, room string, n int) ([]Line, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT extract(epoch FROM ts)::float8, name, email, text
		FROM messages
		WHERE room = $1
		ORDER BY id DESC
		LIMIT $2`,
		room, n,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query history for %s: %w", room, err)
	}
	defer rows.Close()

	var reversed []Line
	for rows.Next() {
		var line Line
		if err := rows.Scan(&line.TS, &line.Name, &line.Email, &line.Text); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		reversed = append(reversed, line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history rows: %w", err)
	}

	lines := make([]Line, 0, len(reversed))
	for i := len(reversed) - 1; i >= 0; i-- {
		lines = append(lines, reversed[i])
	}

	return lines, nil
}

// Rooms lists every room with at least one logged line.
func (l *PostgresLog) Rooms(ctx context.Context) ([]string, error) {
	rows, err := l.pool.Query(ctx, `SELECT DISTINCT room FROM messages ORDER BY room`)
	if err != nil {
		return nil, fmt.Errorf("failed to list history rooms: %w", err)
	}
	defer rows.Close()

	var rooms []string
	for rows.Next() {
		var room string
		if err := rows.Scan(&room); err != nil {
			return nil, fmt.Errorf("failed to scan room name: %w", err)
		}
		rooms = append(rooms, room)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate room names: %w", err)
	}

	return rooms, nil
}

// Export rebuilds the room's complete log in JSONL form.
func (l *PostgresLog) Export(ctx context.Context, room string) ([]byte, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT extract(epoch FROM ts)::float8, name, email, text
		FROM messages
		WHERE room = $1
		ORDER BY id`,
		room,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to export history for %s: %w", room, err)
	}
	defer rows.Close()

	var buf bytes.Buffer
	for rows.Next() {
		var line Line
		if err := rows.Scan(&line.TS, &line.Name, &line.Email, &line.Text); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}

		data, err := json.Marshal(line)
		if err != nil {
			return nil, fmt.Errorf("failed to encode history line: %w", err)
		}

		buf.Write(data)
		buf.WriteByte('\n')
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history rows: %w", err)
	}

	return buf.Bytes(), nil
}

// compile-time interface check
var _ Log = (*PostgresLog)(nil)
