/*
Package chat contains the core of the relay.

This file defines the Client, one per connected websocket. It runs the
connection session: resolve identity, register, announce the join, replay
history, then pump inbound messages until the transport closes. Cleanup
(unregister plus leave announcement) runs on every exit path, exactly once.
*/
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"workchat/internal/app/history"
	"workchat/internal/app/identity"
	"workchat/internal/app/store"
	"workchat/internal/pkg/logx"
)

const (
	// timeout for writing one frame to the websocket connection.
	writeWait = 10 * time.Second

	// maximum time to wait for a Pong before declaring the peer gone.
	pongWait = 60 * time.Second

	// frequency at which the server sends Ping frames.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of an inbound frame.
	maxMessageSize = 8192

	// capacity of the per-connection outbound queue. A member whose
	// queue is full when a broadcast arrives counts as failed.
	sendQueueSize = 256

	// HistoryReplayLimit caps how many persisted lines are replayed to a
	// newly joined connection.
	HistoryReplayLimit = 100

	// dependencyCallTimeout bounds every call into the identity store and
	// history log; both are external and possibly slow.
	dependencyCallTimeout = 5 * time.Second
)

var (
	errSendQueueFull = errors.New("client send queue full")
	errClientClosed  = errors.New("client closed")
)

// Client represents one live connection and its session state.
type Client struct {
	svc  *Service
	conn *websocket.Conn

	// room and token are fixed at connect time from the join request.
	room  string
	token string

	// userMu guards user, the identity last known for this connection.
	// It is written only by the session goroutine but read by concurrent
	// broadcasts.
	userMu sync.RWMutex
	user   identity.Identity

	send chan []byte
	done chan struct{}

	closeOnce    sync.Once
	teardownOnce sync.Once

	logger zerolog.Logger
}

// NewClient wraps an upgraded websocket connection into a session for room.
// token may be empty; the identity is resolved when Run starts.
func NewClient(svc *Service, conn *websocket.Conn, room string, token string) *Client {
	return &Client{
		svc:    svc,
		conn:   conn,
		room:   room,
		token:  token,
		send:   make(chan []byte, sendQueueSize),
		done:   make(chan struct{}),
		logger: logx.Logger().With().Str("room", room).Logger(),
	}
}

// User returns the identity last known for this connection.
func (c *Client) User() identity.Identity {
	c.userMu.RLock()
	defer c.userMu.RUnlock()
	return c.user
}

func (c *Client) setUser(user identity.Identity) {
	c.userMu.Lock()
	c.user = user
	c.userMu.Unlock()
}

// Run executes the connection session and blocks until the connection
// closes. WritePump must already be running in its own goroutine.
func (c *Client) Run(ctx context.Context) {
	defer c.teardown()

	c.join(ctx)
	c.readLoop(ctx)
}

// join moves the session into its active state: resolve identity, register
// with the room, announce the join, and replay recent history to this
// connection alone.
func (c *Client) join(ctx context.Context) {
	user := c.svc.resolveIdentity(ctx, c.token)
	c.setUser(user)
	c.logger = c.logger.With().Str("user", user.Display()).Logger()

	c.svc.registry.Join(c.room, c)
	c.svc.broadcaster.Broadcast(c.room, NewJoinEvent(user.Public()))

	callCtx, cancel := context.WithTimeout(ctx, dependencyCallTimeout)
	lines, err := c.svc.history.Tail(callCtx, c.room, HistoryReplayLimit)
	cancel()

	if err != nil {
		c.logger.Warn().Err(err).Msg("Failed to read history for replay.")
		lines = nil
	}

	c.deliverEvent(NewHistoryEvent(lines))

	c.logger.Info().Msg("Client joined room.")
}

// readLoop pumps inbound frames until the transport closes or errors.
// A malformed frame never ends the session; only transport failure does.
func (c *Client) readLoop(ctx context.Context) {
	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading message (client close/going away)")
			}
			return
		}

		c.handleInbound(ctx, raw)
	}
}

// handleInbound processes one raw client payload: parse, refresh identity,
// persist, broadcast. Persistence failure is non-fatal; the message still
// broadcasts so the room stays live even when the log does not.
func (c *Client) handleInbound(ctx context.Context, raw []byte) {
	text, ok := parseInbound(raw)
	if !ok {
		c.logger.Debug().Msg("Discarding malformed or empty inbound payload.")
		return
	}

	user := c.refreshIdentity(ctx)
	ts := nowUnix()

	line := history.Line{
		TS:    ts,
		Name:  user.Display(),
		Email: user.Email,
		Text:  text,
	}

	callCtx, cancel := context.WithTimeout(ctx, dependencyCallTimeout)
	err := c.svc.history.Append(callCtx, c.room, line)
	cancel()

	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to persist history line; broadcasting anyway.")
	}

	c.svc.broadcaster.Broadcast(c.room, NewMessageEvent(user.Public(), text, ts))
}

// refreshIdentity re-resolves the session token so renames made after join
// show up on subsequent messages. Resolution misses fall back to the
// identity last known for this connection.
func (c *Client) refreshIdentity(ctx context.Context) identity.Identity {
	if c.token == "" {
		return c.User()
	}

	callCtx, cancel := context.WithTimeout(ctx, dependencyCallTimeout)
	user, err := c.svc.store.Resolve(callCtx, c.token)
	cancel()

	if err != nil {
		if !errors.Is(err, store.ErrSessionNotFound) {
			c.logger.Warn().Err(err).Msg("Identity re-resolution failed, keeping last known identity.")
		}
		return c.User()
	}

	c.setUser(user)
	return user
}

// Deliver queues one pre-serialized payload for this connection. It never
// blocks: a closed connection or a full queue reports failure immediately
// and the caller decides whether to prune.
func (c *Client) Deliver(payload []byte) error {
	select {
	case <-c.done:
		return errClientClosed
	default:
	}

	select {
	case c.send <- payload:
		return nil
	case <-c.done:
		return errClientClosed
	default:
		return errSendQueueFull
	}
}

// deliverEvent serializes event and queues it for this connection alone.
func (c *Client) deliverEvent(event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		c.logger.Error().Err(err).Msg("Error marshaling event for client")
		return
	}

	if err := c.Deliver(payload); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to queue event for client")
	}
}

// Close releases the connection's send path. Safe to call repeatedly and
// from any goroutine.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// teardown is the single CLOSED transition: unregister, release the send
// path, announce the leave with the last known identity, and close the
// transport. It runs exactly once on every exit path, including panics
// inside the session, which are logged and treated like a transport close.
func (c *Client) teardown() {
	if r := recover(); r != nil {
		c.logger.Error().Interface("panic", r).Msg("Recovered from panic in connection session.")
	}

	c.teardownOnce.Do(func() {
		c.svc.registry.Leave(c)
		c.Close()

		c.svc.broadcaster.Broadcast(c.room, NewLeaveEvent(c.User().Public()))

		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Client connection close error")
		}

		c.logger.Info().Msg("Client left room.")
	})
}

// WritePump owns all writes to the websocket connection: queued payloads,
// periodic pings, and the final close frame. It exits when the send path
// is released or a write fails, closing the connection either way so the
// read side unwinds too.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Client connection close error in WritePump")
		}
	}()

	for {
		select {
		case payload := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error().Err(err).Msg("Failed to set write deadline")
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.logger.Warn().Err(err).Msg("Error writing message")
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
				c.logger.Debug().Err(err).Msg("Error writing close message")
			}
			return

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
				return
			}

			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Warn().Err(err).Msg("Error writing ping")
				return
			}
		}
	}
}
