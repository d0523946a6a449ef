package fetcher

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/engagic/core/pkg/models"
	"github.com/engagic/core/pkg/store"
	"github.com/engagic/core/pkg/vendoradapter"
)

// Syncer performs the per-city sync steps: acquire a rate token, invoke
// the adapter, and persist every returned meeting through the store in
// its own transaction.
type Syncer struct {
	store        *store.Store
	registry     *vendoradapter.Registry
	limiters     *vendoradapter.RateLimiters
	opts         vendoradapter.FetchOptions
	basePriority int
}

// NewSyncer builds a standalone Syncer, useful for one-off or test-driven
// syncs outside the Scheduler's tick loop.
func NewSyncer(st *store.Store, registry *vendoradapter.Registry, limiters *vendoradapter.RateLimiters) *Syncer {
	return &Syncer{
		store:        st,
		registry:     registry,
		limiters:     limiters,
		opts:         vendoradapter.DefaultFetchOptions(),
		basePriority: DefaultBasePriority,
	}
}

// SyncCity fetches and stores every meeting for one city.
func (s *Syncer) SyncCity(ctx context.Context, city models.City) error {
	adapter, ok := s.registry.ForCity(city.Vendor, city.Banana)
	if !ok {
		return fmt.Errorf("no adapter registered for city %s (vendor %s)", city.Banana, city.Vendor)
	}

	if err := s.limiters.Wait(ctx, city.Vendor); err != nil {
		return fmt.Errorf("rate limit wait for %s: %w", city.Banana, err)
	}

	results, err := adapter.FetchMeetings(ctx, city.Slug, city.Banana, s.opts)
	if err != nil {
		return fmt.Errorf("fetch meetings for %s: %w", city.Banana, err)
	}

	var errs []error
	for _, result := range results {
		for i := range result.Items {
			result.Items[i].Procedural = result.Items[i].Procedural || vendoradapter.IsProcedural(result.Items[i].Title)
		}

		syncResult, err := s.store.StoreMeetingFromSync(ctx, result.Meeting, result.Items, s.basePriority)
		if err != nil {
			errs = append(errs, fmt.Errorf("store meeting %s: %w", result.Meeting.ID, err))
			continue
		}
		slog.Info("fetcher: synced meeting",
			"banana", city.Banana, "meeting_id", result.Meeting.ID, "method", result.Method,
			"items", len(result.Items), "new_matters", syncResult.Tracked.NewMatters,
			"revisited_matters", syncResult.Tracked.RevisitedMatters, "enqueued", syncResult.Enqueued)
	}

	if len(errs) > 0 {
		return fmt.Errorf("sync city %s: %d/%d meetings failed to store: %w", city.Banana, len(errs), len(results), errs[0])
	}
	return nil
}
