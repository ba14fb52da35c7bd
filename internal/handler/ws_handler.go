/*
Package handler provides the HTTP handler function for WebSocket connection
upgrading and initialization.

This file contains the HandleWebSocket function, which is responsible for
rate limiting, reading the room and session token parameters, upgrading the
HTTP connection to WebSocket, and running the client session.
*/
package handler

import (
	"net"
	"net/http"

	"github.com/gorilla/websocket"

	"workchat/internal/app/chat"
	"workchat/internal/pkg/errs"
	"workchat/internal/pkg/limiter"
	"workchat/internal/pkg/logx"
	"workchat/internal/pkg/resp"
)

// DefaultRoom is joined when the connect URL names no room.
const DefaultRoom = "default"

// HandleWebSocket creates an HTTP HandlerFunc to process WebSocket
// connection requests. A missing room parameter falls back to the default
// room and a missing or stale session token yields an anonymous identity,
// so the upgrade itself only fails on rate limiting or handshake errors.
func HandleWebSocket(upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		if ip == "" {
			ip = "unknown_ip"
		}

		if !rateLimiter.GetLimiter(ip).Allow() {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", ip)
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		query := r.URL.Query()

		room := query.Get("room")
		if room == "" {
			room = DefaultRoom
		}

		token := query.Get("session_token")

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		client := chat.NewClient(deps.Chat, conn, room, token)

		go client.WritePump()

		logx.Info("WebSocket connection established", "room", room, "ip", ip)

		client.Run(r.Context())
	}
}
