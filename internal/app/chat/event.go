/*
Package chat contains the core of the relay: the room registry, the broadcast
engine, and the per-connection session loop.

This file defines the tagged event variants exchanged with clients and the
inbound payload parser. Anything that does not parse into a known shape is
discarded, never answered with an error frame.
*/
package chat

import (
	"encoding/json"
	"time"

	"workchat/internal/app/history"
	"workchat/internal/app/identity"
	"workchat/internal/pkg/randx"
)

// EventType tags an outbound event frame.
type EventType string

const (
	TypeJoin    EventType = "join"
	TypeLeave   EventType = "leave"
	TypeMessage EventType = "message"
	TypeHistory EventType = "history"
)

// JoinEvent announces a connection entering a room.
type JoinEvent struct {
	Type EventType       `json:"type"`
	User identity.Public `json:"user"`
	TS   float64         `json:"ts"`
}

// LeaveEvent announces a connection leaving a room.
type LeaveEvent struct {
	Type EventType       `json:"type"`
	User identity.Public `json:"user"`
	TS   float64         `json:"ts"`
}

// MessageEvent carries one chat message to every room member.
type MessageEvent struct {
	Type EventType       `json:"type"`
	ID   string          `json:"id"`
	User identity.Public `json:"user"`
	Text string          `json:"text"`
	TS   float64         `json:"ts"`
}

// HistoryEvent replays persisted lines to a newly joined connection.
// It is addressed to that connection alone, never broadcast.
type HistoryEvent struct {
	Type  EventType      `json:"type"`
	Lines []history.Line `json:"lines"`
}

// NewJoinEvent builds a join announcement for user.
func NewJoinEvent(user identity.Public) JoinEvent {
	return JoinEvent{Type: TypeJoin, User: user, TS: nowUnix()}
}

// NewLeaveEvent builds a leave announcement for user.
func NewLeaveEvent(user identity.Public) LeaveEvent {
	return LeaveEvent{Type: TypeLeave, User: user, TS: nowUnix()}
}

// NewMessageEvent builds a message event stamped with a fresh ID and ts.
func NewMessageEvent(user identity.Public, text string, ts float64) MessageEvent {
	return MessageEvent{
		Type: TypeMessage,
		ID:   randx.MessageID(),
		User: user,
		Text: text,
		TS:   ts,
	}
}

// NewHistoryEvent wraps replayed lines. A room with no history yields an
// event with an empty (not null) lines array.
func NewHistoryEvent(lines []history.Line) HistoryEvent {
	if lines == nil {
		lines = []history.Line{}
	}
	return HistoryEvent{Type: TypeHistory, Lines: lines}
}

// parseInbound extracts the message text from a raw client payload.
// ok is false when the payload is not JSON, has no text field, or the
// text is empty; such payloads are silently dropped by the caller.
func parseInbound(raw []byte) (text string, ok bool) {
	var in struct {
		Text string `json:"text"`
	}

	if err := json.Unmarshal(raw, &in); err != nil {
		return "", false
	}

	if in.Text == "" {
		return "", false
	}

	return in.Text, true
}

// nowUnix returns the current time as Unix seconds with millisecond
// precision, the ts representation used on the wire and in history lines.
func nowUnix() float64 {
	return float64(time.Now().UnixMilli()) / 1000
}
