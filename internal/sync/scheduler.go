package sync

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ksred/flex-sync/internal/flex"
)

// Scheduler re-syncs trade history in the background: it wakes on a
// fixed check interval and runs a sync whenever the last successful one
// is older than the sync interval.
type Scheduler struct {
	service       *Service
	checkInterval time.Duration
	syncInterval  time.Duration
}

func NewScheduler(service *Service) *Scheduler {
	return &Scheduler{
		service:       service,
		checkInterval: 30 * time.Minute,
		syncInterval:  24 * time.Hour,
	}
}

// Start begins the scheduler loop
func (p *Scheduler) Start(ctx context.Context) {
	logger := log.With().Str("component", "sync_scheduler").Logger()
	logger.Info().
		Dur("check_interval", p.checkInterval).
		Dur("sync_interval", p.syncInterval).
		Msg("starting sync scheduler")

	ticker := time.NewTicker(p.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("shutting down sync scheduler")
			return
		case <-ticker.C:
			if err := p.syncIfDue(ctx); err != nil {
				logger.Error().Err(err).Msg("scheduled sync failed")
			}
		}
	}
}

func (p *Scheduler) syncIfDue(ctx context.Context) error {
	logger := log.With().Str("component", "sync_scheduler").Logger()

	last, err := p.service.db.GetLastCompletedSync()
	if err != nil {
		return err
	}

	if last != nil {
		age := time.Since(last.FinishedAt)
		if age < p.syncInterval {
			logger.Debug().
				Dur("age", age).
				Time("next_sync", last.FinishedAt.Add(p.syncInterval)).
				Msg("last sync still fresh")
			return nil
		}
	}

	result, err := p.service.Sync(ctx, "", 0)
	if err != nil {
		// Still generating is expected from time to time; the next check
		// will pick it up
		var exhausted *flex.RetriesExhaustedError
		if errors.As(err, &exhausted) {
			logger.Info().Msg("statement still generating, will retry on next check")
			return nil
		}
		return err
	}

	logger.Info().
		Str("sync_id", result.SyncID).
		Int("trades_stored", result.TradesStored).
		Msg("scheduled sync completed")
	return nil
}
