package proposal

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// RefreshWorker periodically rebuilds every proposal snapshot from the
// providers. An immediate run on start seeds an empty database.
type RefreshWorker struct {
	service *Service

	interval time.Duration
}

func NewRefreshWorker(service *Service, interval time.Duration) *RefreshWorker {
	return &RefreshWorker{service: service, interval: interval}
}

func (w *RefreshWorker) Start(ctx context.Context) error {
	if err := w.service.RebuildAll(ctx); err != nil {
		log.Error().Err(err).Msg("rebuild proposals")
	}

	for {
		select {
		case <-time.After(w.interval):
			start := time.Now()
			if err := w.service.RebuildAll(ctx); err != nil {
				log.Error().Err(err).Msg("rebuild proposals")

				continue
			}

			log.Info().Dur("duration", time.Since(start)).Msg("proposals rebuilt")
		case <-ctx.Done():
			return nil
		}
	}
}
