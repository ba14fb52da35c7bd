/*
Package archive copies room history logs to long-term object storage.

A background worker periodically exports every room's log from the history
backend and uploads it under a date-stamped key. The worker shares nothing
with the chat core beyond the history log's read-only surface; upload
failures are logged and retried on the next tick.
*/
package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"workchat/internal/pkg/logx"
)

// Exporter is the slice of the history log the archiver reads.
type Exporter interface {
	Rooms(ctx context.Context) ([]string, error)
	Export(ctx context.Context, room string) ([]byte, error)
}

// Uploader persists one exported room log under the given key.
type Uploader interface {
	Upload(ctx context.Context, key string, body []byte) error
}

// Archiver runs the periodic export/upload loop.
type Archiver struct {
	source   Exporter
	uploader Uploader
	interval time.Duration
	logger   zerolog.Logger
}

// New builds an Archiver reading from source and writing through uploader
// every interval.
func New(source Exporter, uploader Uploader, interval time.Duration) *Archiver {
	return &Archiver{
		source:   source,
		uploader: uploader,
		interval: interval,
		logger:   logx.Logger().With().Str("component", "Archiver").Logger(),
	}
}

// Run blocks, archiving on every tick until ctx is cancelled.
func (a *Archiver) Run(ctx context.Context) {
	a.logger.Info().Dur("interval", a.interval).Msg("History archiver started.")

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info().Msg("History archiver stopped.")
			return

		case <-ticker.C:
			a.archiveAll(ctx)
		}
	}
}

// archiveAll exports and uploads every room's log. One room's failure does
// not stop the pass for the rest.
func (a *Archiver) archiveAll(ctx context.Context) {
	rooms, err := a.source.Rooms(ctx)
	if err != nil {
		a.logger.Error().Err(err).Msg("Failed to list rooms for archival.")
		return
	}

	date := time.Now().UTC().Format("2006-01-02")

	for _, room := range rooms {
		data, err := a.source.Export(ctx, room)
		if err != nil {
			a.logger.Error().Err(err).Str("room", room).Msg("Failed to export room history.")
			continue
		}

		if len(data) == 0 {
			continue
		}

		key := fmt.Sprintf("archive/%s/%s.log", room, date)

		if err := a.uploader.Upload(ctx, key, data); err != nil {
			a.logger.Error().Err(err).Str("room", room).Str("key", key).Msg("Failed to upload room archive.")
			continue
		}

		a.logger.Info().Str("room", room).Str("key", key).Int("bytes", len(data)).Msg("Room archive uploaded.")
	}
}
