/*
Package history implements the append-only per-room message log.

Each accepted message becomes one immutable Line. Lines are appended in
observed send order and replayed FIFO to newly joined connections. Two
backends are provided: JSONL files (one per room) and PostgreSQL.
*/
package history

import "context"

// Line is one persisted chat record, serialized as a single self-contained
// line. It is never edited or deleted once written; renaming an identity
// does not rewrite lines already appended.
type Line struct {
	// TS is the send time in Unix seconds.
	TS float64 `json:"ts"`

	// Name is the display name at the moment the message was accepted.
	Name string `json:"name"`

	// Email of the sender; empty for anonymous identities.
	Email string `json:"email,omitempty"`

	// Text is the message body.
	Text string `json:"text"`
}

// Log is the history log contract consumed by the chat core and the
// archive worker. Appends to the same room never interleave, and an
// appended line is immediately visible to Tail.
type Log interface {
	// Append adds one line to the room's log.
	Append(ctx context.Context, room string, line Line) error

	// Tail returns the last n lines of the room's log in original
	// chronological order; fewer if the log is shorter, empty if the
	// room has never had a message.
	Tail(ctx context.Context, room string, n int) ([]Line, error)

	// Rooms lists every room that has at least one logged line.
	Rooms(ctx context.Context) ([]string, error)

	// Export returns the room's complete log in JSONL form.
	Export(ctx context.Context, room string) ([]byte, error)
}
