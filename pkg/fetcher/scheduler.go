// Package fetcher implements the sync scheduler: a per-city loop that
// acquires a vendor rate-limit token, invokes the city's adapter, and
// persists whatever it returns through the store.
package fetcher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/engagic/core/pkg/models"
	"github.com/engagic/core/pkg/store"
	"github.com/engagic/core/pkg/vendoradapter"
	"golang.org/x/sync/errgroup"
)

// DefaultInterval is how often each city is resynced.
const DefaultInterval = 72 * time.Hour

// DefaultConcurrency bounds how many cities sync at once.
const DefaultConcurrency = 8

// DefaultBasePriority is the priority ceiling a freshly enqueued processing
// job starts from before the days-until-meeting adjustment.
const DefaultBasePriority = 100

// Scheduler orchestrates per-city syncs on an interval, bounded by a
// concurrent pool. It owns the tick loop and lifecycle; Syncer (below) owns
// a single city's work.
type Scheduler struct {
	store    *store.Store
	registry *vendoradapter.Registry
	limiters *vendoradapter.RateLimiters

	// Opts, Interval, Concurrency, and BasePriority carry the documented
	// defaults; a caller may override any of them on the returned value
	// before calling Start.
	Opts         vendoradapter.FetchOptions
	Interval     time.Duration
	Concurrency  int
	BasePriority int

	stopCh       chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
	lastSyncedAt map[string]time.Time
	lastSyncedMu sync.Mutex
}

// NewScheduler builds a Scheduler with the documented defaults; override
// fields on the returned value before calling Start if needed.
func NewScheduler(st *store.Store, registry *vendoradapter.Registry, limiters *vendoradapter.RateLimiters) *Scheduler {
	return &Scheduler{
		store:        st,
		registry:     registry,
		limiters:     limiters,
		Opts:         vendoradapter.DefaultFetchOptions(),
		Interval:     DefaultInterval,
		Concurrency:  DefaultConcurrency,
		BasePriority: DefaultBasePriority,
		stopCh:       make(chan struct{}),
		lastSyncedAt: make(map[string]time.Time),
	}
}

// Start runs the scheduler's tick loop until ctx is cancelled or Stop is
// called. It performs one sync pass immediately, then on every tick.
func (s *Scheduler) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runLoop(ctx)
	}()
}

// Stop signals the tick loop to exit and waits for the in-flight pass to
// finish.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.wg.Wait()
}

func (s *Scheduler) runLoop(ctx context.Context) {
	s.runPass(ctx)

	ticker := time.NewTicker(tickInterval(s.Interval))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.runPass(ctx)
		}
	}
}

// tickInterval determines how often the scheduler checks which cities are
// due; it is much finer-grained than the per-city sync interval itself so a
// city becomes eligible promptly once its interval elapses.
func tickInterval(syncInterval time.Duration) time.Duration {
	if syncInterval < time.Hour {
		return syncInterval
	}
	return time.Hour
}

// runPass lists active cities, filters to those due for sync, and syncs the
// due ones concurrently bounded by s.Concurrency.
func (s *Scheduler) runPass(ctx context.Context) {
	cities, err := s.store.Cities.ListActive(ctx, s.store.DB())
	if err != nil {
		slog.Error("fetcher: list active cities failed", "error", err)
		return
	}

	due := s.dueCities(cities)
	if len(due) == 0 {
		return
	}
	slog.Info("fetcher: starting sync pass", "due_cities", len(due), "total_active", len(cities))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.Concurrency)

	syncer := &Syncer{store: s.store, registry: s.registry, limiters: s.limiters, opts: s.Opts, basePriority: s.BasePriority}

	for _, city := range due {
		city := city
		g.Go(func() error {
			if err := syncer.SyncCity(gctx, city); err != nil {
				slog.Error("fetcher: city sync failed", "banana", city.Banana, "error", err)
				// A single city's failure never aborts the pass for the rest.
				return nil
			}
			s.markSynced(city.Banana)
			return nil
		})
	}
	_ = g.Wait()
}

func (s *Scheduler) dueCities(cities []models.City) []models.City {
	s.lastSyncedMu.Lock()
	defer s.lastSyncedMu.Unlock()

	var due []models.City
	now := time.Now()
	for _, c := range cities {
		last, ok := s.lastSyncedAt[c.Banana]
		if !ok || now.Sub(last) >= s.Interval {
			due = append(due, c)
		}
	}
	return due
}

func (s *Scheduler) markSynced(banana string) {
	s.lastSyncedMu.Lock()
	defer s.lastSyncedMu.Unlock()
	s.lastSyncedAt[banana] = time.Now()
}
