/*
Package handler provides the HTTP handlers and routing setup for both server
surfaces.

This file defines the two routers: ChatRouter serves the WebSocket endpoint
on its own port, and FrontDoorRouter serves the OAuth flow, the session API,
and the static client. Both apply logging, CORS, and IP-based rate limiting
before delegating to specific handlers.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"workchat/internal/pkg/limiter"
	"workchat/internal/pkg/logx"
	"workchat/internal/pkg/resp"
)

const (
	ConnectRate  = 0.5
	ConnectBurst = 10
	AuthRate     = 0.2
	AuthBurst    = 5
)

// ChatRouter sets up the routing table for the WebSocket port. It carries
// a single endpoint plus a health check; all chat traffic rides the
// upgraded connection.
func ChatRouter(deps *AppDeps) http.Handler {
	connectLimiter := limiter.NewIPRateLimiter(rate.Limit(ConnectRate), ConnectBurst)

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	var wsUpgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.Environment == "development" {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		data := map[string]string{
			"status":  "ok",
			"service": "WorkChat Relay",
		}
		resp.RespondSuccess(w, r, data)
	})

	r.Get("/ws", HandleWebSocket(wsUpgrader, connectLimiter, deps))

	return r
}

// FrontDoorRouter sets up the routing table for the HTTP port: the OAuth
// login flow, the session API, the room catalog, and the static client.
func FrontDoorRouter(deps *AppDeps) http.Handler {
	authLimiter := limiter.NewIPRateLimiter(rate.Limit(AuthRate), AuthBurst)

	r := chi.NewRouter()

	corsAllowedOrigins := []string{}
	if deps.Config.Environment == "development" {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		data := map[string]string{
			"status":  "ok",
			"service": "WorkChat Front Door",
		}
		resp.RespondSuccess(w, r, data)
	})

	rateLimitedLogin := authLimiter.Middleware(HandleLogin(deps))
	r.Get("/login", http.HandlerFunc(rateLimitedLogin.ServeHTTP))
	r.Get("/oauth2callback", HandleOAuthCallback(deps))

	r.Get("/session", HandleGetSession(deps))
	r.Get("/logout", HandleLogout(deps))
	r.Post("/setname", HandleSetName(deps))

	r.Get("/rooms", HandleListRooms(deps))

	fileServer := http.FileServer(http.Dir(deps.Config.StaticDir))
	r.Handle("/*", fileServer)

	return r
}
