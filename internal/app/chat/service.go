/*
Package chat contains the core of the relay.

This file defines the Service, which owns the registry and broadcaster and
holds the external collaborators (identity store, history log) every
connection session needs. One Service is constructed at process start and
threaded through the handlers; there is no ambient global state.
*/
package chat

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"workchat/internal/app/history"
	"workchat/internal/app/identity"
	"workchat/internal/app/store"
	"workchat/internal/pkg/logx"
)

// Service wires the chat core together.
type Service struct {
	registry    *Registry
	broadcaster *Broadcaster
	store       store.Store
	history     history.Log
	logger      zerolog.Logger
}

// NewService builds the chat core on top of the given identity store and
// history log.
func NewService(st store.Store, hist history.Log) *Service {
	registry := NewRegistry()

	return &Service{
		registry:    registry,
		broadcaster: NewBroadcaster(registry),
		store:       st,
		history:     hist,
		logger:      logx.Logger().With().Str("component", "ChatService").Logger(),
	}
}

// resolveIdentity maps a session token onto an identity. An absent or
// unresolvable token yields a freshly minted anonymous identity; that is
// never surfaced to the client as an error.
func (s *Service) resolveIdentity(ctx context.Context, token string) identity.Identity {
	if token == "" {
		return identity.Anonymous()
	}

	callCtx, cancel := context.WithTimeout(ctx, dependencyCallTimeout)
	user, err := s.store.Resolve(callCtx, token)
	cancel()

	if err != nil {
		if !errors.Is(err, store.ErrSessionNotFound) {
			s.logger.Warn().Err(err).Msg("Identity resolution failed, continuing anonymously.")
		}
		return identity.Anonymous()
	}

	return user
}
