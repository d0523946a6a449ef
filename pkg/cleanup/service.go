// Package cleanup provides periodic queue housekeeping.
package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/engagic/core/pkg/config"
	"github.com/engagic/core/pkg/store"
)

// Service periodically recovers stale processing jobs, resetting any row
// whose worker died mid-job back to pending so it can be picked up again.
// All operations are idempotent and safe to run from multiple replicas.
type Service struct {
	config *config.QueueConfig
	store  *store.Store

	cancel context.CancelFunc
	done   chan struct{}
}

// NewService creates a new cleanup service.
func NewService(cfg *config.QueueConfig, st *store.Store) *Service {
	return &Service{config: cfg, store: st}
}

// Start launches the background recovery loop.
func (s *Service) Start(ctx context.Context) {
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go s.run(ctx)

	slog.Info("cleanup service started",
		"stale_threshold", s.config.StaleThreshold,
		"interval", s.config.StaleRecoveryInterval)
}

// Stop signals the recovery loop to exit and waits for it to finish.
func (s *Service) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	slog.Info("cleanup service stopped")
}

func (s *Service) run(ctx context.Context) {
	defer close(s.done)

	s.recoverStale(ctx)

	ticker := time.NewTicker(s.config.StaleRecoveryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.recoverStale(ctx)
		}
	}
}

func (s *Service) recoverStale(ctx context.Context) {
	count, err := s.store.Queue.RecoverStale(ctx, s.store.DB(), s.config.StaleThreshold)
	if err != nil {
		slog.Error("recover stale jobs failed", "error", err)
		return
	}
	if count > 0 {
		slog.Info("recovered stale jobs", "count", count)
	}
}

// ResetDeadLetter manually requeues a single dead-letter job, for operator
// use when a job failed for a now-fixed reason (e.g. a vendor outage).
func (s *Service) ResetDeadLetter(ctx context.Context, jobID int64) error {
	return s.store.Queue.ResetDeadLetter(ctx, s.store.DB(), jobID)
}
