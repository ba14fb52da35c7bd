/*
Package chat contains the core of the relay.

This file defines the Broadcaster, which fans one event out to every member
of a room. Delivery is best-effort: members that cannot accept the payload
are pruned from the registry in one batched pass, and one slow or dead
member never stalls delivery to the rest.
*/
package chat

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"workchat/internal/pkg/logx"
)

// Broadcaster delivers events to room members via their send queues.
type Broadcaster struct {
	registry *Registry
	logger   zerolog.Logger
}

// NewBroadcaster creates a Broadcaster pruning failed members from registry.
func NewBroadcaster(registry *Registry) *Broadcaster {
	return &Broadcaster{
		registry: registry,
		logger:   logx.Logger().With().Str("component", "Broadcaster").Logger(),
	}
}

// Broadcast serializes event once and attempts delivery to every current
// member of room, so all recipients of one call see identical bytes.
// Members are snapshotted before any send; sends run concurrently and each
// is bounded by the member's queue capacity and write deadline. Members
// whose delivery fails are removed from the registry and closed afterwards,
// exactly once even when concurrent broadcasts detect the same failure.
func (b *Broadcaster) Broadcast(room string, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		b.logger.Error().Err(err).Str("room", room).Msg("Error marshaling event for broadcast.")
		return
	}

	members := b.registry.Members(room)
	if len(members) == 0 {
		return
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed []*Client
	)

	for _, member := range members {
		wg.Add(1)
		go func(member *Client) {
			defer wg.Done()

			if err := member.Deliver(payload); err != nil {
				mu.Lock()
				failed = append(failed, member)
				mu.Unlock()
			}
		}(member)
	}

	wg.Wait()

	for _, member := range failed {
		b.logger.Warn().
			Str("room", room).
			Str("user", member.User().Display()).
			Msg("Dropping room member that failed delivery.")

		b.registry.Leave(member)
		member.Close()
	}
}
