package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"workchat/internal/app/identity"
	"workchat/internal/pkg/logx"
	"workchat/internal/pkg/randx"
)

const (
	sessionsFile = "sessions.json"
	usersFile    = "users.json"
	roomsFile    = "rooms.json"
)

// fileSession is the on-disk shape of one session record. created_at is
// kept as Unix seconds for compatibility with existing snapshot files.
type fileSession struct {
	User      identity.Identity `json:"user"`
	CreatedAt float64           `json:"created_at"`
}

// fileRoom is the on-disk shape of one room catalog entry, keyed by room name.
type fileRoom struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// FileStore is the JSON snapshot backend of the identity store. Every
// operation rereads the snapshot, mutates it, and rewrites it atomically
// under a store-wide mutex, so reads never observe partial writes.
type FileStore struct {
	dir    string
	mu     sync.Mutex
	logger zerolog.Logger
}

// NewFileStore opens (or initializes) the snapshot files under dir.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory %s: %w", dir, err)
	}

	s := &FileStore{
		dir:    dir,
		logger: logx.Logger().With().Str("component", "FileStore").Logger(),
	}

	seeds := []struct {
		name    string
		initial any
	}{
		{sessionsFile, map[string]fileSession{}},
		{usersFile, map[string]identity.Identity{}},
		{roomsFile, map[string]fileRoom{
			"default": {Name: "General", Description: "Sala principal"},
		}},
	}

	for _, seed := range seeds {
		path := filepath.Join(dir, seed.name)
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := s.writeFile(seed.name, seed.initial); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// CreateSession mints a token, records the session, and upserts the user
// record under its stable key.
func (s *FileStore) CreateSession(ctx context.Context, user identity.Identity) (*Session, error) {
	token, err := randx.SessionToken()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users := map[string]identity.Identity{}
	if err := s.readFile(usersFile, &users); err != nil {
		return nil, err
	}

	// Re-authentication keeps a previously chosen display name.
	if existing, ok := users[user.Key()]; ok && user.DisplayName == "" {
		user.DisplayName = existing.DisplayName
	}

	users[user.Key()] = user
	if err := s.writeFile(usersFile, users); err != nil {
		return nil, err
	}

	sessions := map[string]fileSession{}
	if err := s.readFile(sessionsFile, &sessions); err != nil {
		return nil, err
	}

	now := time.Now()
	sessions[token] = fileSession{
		User:      user,
		CreatedAt: float64(now.UnixMilli()) / 1000,
	}

	if err := s.writeFile(sessionsFile, sessions); err != nil {
		return nil, err
	}

	return &Session{Token: token, User: user, CreatedAt: now}, nil
}

// Resolve returns the identity bound to token.
func (s *FileStore) Resolve(ctx context.Context, token string) (identity.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := map[string]fileSession{}
	if err := s.readFile(sessionsFile, &sessions); err != nil {
		return identity.Identity{}, err
	}

	sess, ok := sessions[token]
	if !ok {
		return identity.Identity{}, ErrSessionNotFound
	}

	return sess.User, nil
}

// Rename updates the display name on the session and user records bound
// to token.
func (s *FileStore) Rename(ctx context.Context, token string, displayName string) (identity.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := map[string]fileSession{}
	if err := s.readFile(sessionsFile, &sessions); err != nil {
		return identity.Identity{}, err
	}

	sess, ok := sessions[token]
	if !ok {
		return identity.Identity{}, ErrSessionNotFound
	}

	sess.User.DisplayName = displayName
	sessions[token] = sess

	if err := s.writeFile(sessionsFile, sessions); err != nil {
		return identity.Identity{}, err
	}

	users := map[string]identity.Identity{}
	if err := s.readFile(usersFile, &users); err != nil {
		return identity.Identity{}, err
	}
	users[sess.User.Key()] = sess.User
	if err := s.writeFile(usersFile, users); err != nil {
		return identity.Identity{}, err
	}

	return sess.User, nil
}

// DeleteSession removes the session bound to token, if any.
func (s *FileStore) DeleteSession(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := map[string]fileSession{}
	if err := s.readFile(sessionsFile, &sessions); err != nil {
		return err
	}

	if _, ok := sessions[token]; !ok {
		return nil
	}

	delete(sessions, token)
	return s.writeFile(sessionsFile, sessions)
}

// Rooms lists the room catalog sorted by room name.
func (s *FileStore) Rooms(ctx context.Context) ([]RoomInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rooms := map[string]fileRoom{}
	if err := s.readFile(roomsFile, &rooms); err != nil {
		return nil, err
	}

	infos := make([]RoomInfo, 0, len(rooms))
	for name, meta := range rooms {
		infos = append(infos, RoomInfo{
			Name:        name,
			Label:       meta.Name,
			Description: meta.Description,
		})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })

	return infos, nil
}

// readFile decodes one snapshot file into dst. A missing or empty file
// leaves dst untouched.
func (s *FileStore) readFile(name string, dst any) error {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", name, err)
	}

	if len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}

	return nil
}

// writeFile rewrites one snapshot file atomically (write temp, rename).
func (s *FileStore) writeFile(name string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}

	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}

	return nil
}

// compile-time interface check
var _ Store = (*FileStore)(nil)
