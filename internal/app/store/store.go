/*
Package store implements the identity store: the durable mapping from opaque
session tokens to user identities, plus the room metadata catalog.

Two backends are provided: a JSON snapshot file store and a PostgreSQL store.
Both guarantee per-token atomicity between Resolve and Rename; no cross-token
transactional guarantees are made.
*/
package store

import (
	"context"
	"errors"
	"time"

	"workchat/internal/app/identity"
)

// ErrSessionNotFound is returned when a token resolves to no session.
var ErrSessionNotFound = errors.New("session not found")

// Session binds an opaque token to one authenticated identity.
// A session is created exactly once per successful authentication and
// destroyed only by explicit logout.
type Session struct {
	Token     string            `json:"token"`
	User      identity.Identity `json:"user"`
	CreatedAt time.Time         `json:"created_at"`
}

// RoomInfo is room metadata only. Any room name is joinable whether or not
// it appears in the catalog; rooms are auto-created on first join.
type RoomInfo struct {
	Name        string `json:"name"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// Store is the identity store consumed by both the front door and the
// chat core. The chat core is a pure reader except for Rename.
type Store interface {
	// CreateSession mints a new unique token bound to user and persists
	// the user record under its stable key.
	CreateSession(ctx context.Context, user identity.Identity) (*Session, error)

	// Resolve returns the identity bound to token, or ErrSessionNotFound.
	Resolve(ctx context.Context, token string) (identity.Identity, error)

	// Rename updates the display name of the identity bound to token and
	// returns the updated identity, or ErrSessionNotFound. Renaming never
	// rewrites already-persisted history lines.
	Rename(ctx context.Context, token string, displayName string) (identity.Identity, error)

	// DeleteSession destroys the session bound to token. Deleting an
	// unknown token is a no-op.
	DeleteSession(ctx context.Context, token string) error

	// Rooms lists the room metadata catalog.
	Rooms(ctx context.Context) ([]RoomInfo, error)
}
