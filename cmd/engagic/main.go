// engagic orchestrates vendor syncs and LLM summarization for local
// government meeting agendas: it seeds the city roster, runs the fetcher
// on an interval, and drains the processor queue.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/engagic/core/pkg/cleanup"
	"github.com/engagic/core/pkg/config"
	"github.com/engagic/core/pkg/database"
	"github.com/engagic/core/pkg/extractor"
	"github.com/engagic/core/pkg/fetcher"
	"github.com/engagic/core/pkg/llmclient"
	"github.com/engagic/core/pkg/processor"
	"github.com/engagic/core/pkg/store"
	"github.com/engagic/core/pkg/vendoradapter"
	"github.com/engagic/core/pkg/vendoradapter/custom"
	"github.com/engagic/core/pkg/vendorconfig"
	flag "github.com/spf13/pflag"
)

func main() {
	envFile := flag.String("env-file", getEnv("ENV_FILE", "./.env"), "path to a .env file to load at startup")
	rosterPath := flag.String("config", getEnv("CITY_ROSTER", "./cities.yaml"), "path to the city roster YAML file")
	workers := flag.Int("workers", 0, "override N_WORK processor worker count (0 = use config)")
	once := flag.Bool("once", false, "run a single fetch+process pass and exit instead of running continuously")
	flag.Parse()

	if err := config.LoadDotEnv(*envFile); err != nil {
		slog.Error("failed to load .env file", "path", *envFile, "error", err)
		os.Exit(1)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	setupLogging(cfg.LogFormat)

	store.RetryLimit = cfg.Queue.RetryLimit

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbCfg, err := database.LoadConfigFromEnv()
	if err != nil {
		slog.Error("failed to load database configuration", "error", err)
		os.Exit(1)
	}
	dbClient, err := database.NewClient(ctx, dbCfg)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			slog.Error("error closing database client", "error", err)
		}
	}()
	slog.Info("connected to database, schema up to date")

	st := store.New(dbClient.DB())

	if err := seedRoster(ctx, st, *rosterPath); err != nil {
		slog.Error("failed to seed city roster", "path", *rosterPath, "error", err)
		os.Exit(1)
	}

	limiters := vendoradapter.NewRateLimiters(cfg.Fetch.VendorRPS)
	registry := newRegistry(limiters)

	if n, err := st.Queue.RecoverStale(ctx, st.DB(), cfg.Queue.StaleThreshold); err != nil {
		slog.Error("failed to recover stale jobs at startup", "error", err)
	} else if n > 0 {
		slog.Info("recovered stale jobs at startup", "count", n)
	}

	extractorCache := extractor.NewCache(256, time.Hour)
	ex := extractor.New(extractorCache)

	batchTimeout, err := time.ParseDuration(cfg.LLM.BatchTimeout)
	if err != nil {
		slog.Error("invalid LLM_BATCH_TIMEOUT", "value", cfg.LLM.BatchTimeout, "error", err)
		os.Exit(1)
	}
	llm := llmclient.NewHTTPClient(cfg.LLM.APIKey, llmclient.WithHTTPClient(&http.Client{Timeout: batchTimeout}))

	scheduler := fetcher.NewScheduler(st, registry, limiters)
	scheduler.Interval = cfg.Fetch.SyncInterval
	scheduler.Opts.Lookback = cfg.Fetch.Lookback
	scheduler.Opts.Horizon = cfg.Fetch.Horizon
	scheduler.Concurrency = cfg.Queue.NSync

	proc := processor.New(st, ex, llm)
	pool := processor.NewPool(proc).WithPollInterval(cfg.Queue.PollInterval)
	if *workers > 0 {
		pool.WithWorkerCount(*workers)
	} else {
		pool.WithWorkerCount(cfg.Queue.NWork)
	}

	housekeeper := cleanup.NewService(cfg.Queue, st)

	if *once {
		runOnce(ctx, scheduler, proc)
		return
	}

	scheduler.Start(ctx)
	pool.Start(ctx)
	housekeeper.Start(ctx)
	slog.Info("engagic started", "n_work", cfg.Queue.NWork, "sync_interval", cfg.Fetch.SyncInterval)

	<-ctx.Done()
	slog.Info("shutdown signal received, draining workers")

	stopped := make(chan struct{})
	go func() {
		scheduler.Stop()
		pool.Stop()
		housekeeper.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		slog.Info("engagic stopped")
	case <-time.After(cfg.Queue.GracefulShutdownTimeout):
		slog.Warn("graceful shutdown timed out, exiting anyway")
	}
}

func runOnce(ctx context.Context, scheduler *fetcher.Scheduler, proc *processor.Processor) {
	slog.Info("running single fetch+process pass")
	scheduler.Start(ctx)
	scheduler.Stop()

	for {
		processed, err := proc.ProcessNext(ctx)
		if err != nil {
			slog.Error("job failed", "error", err)
			continue
		}
		if !processed {
			return
		}
	}
}

func seedRoster(ctx context.Context, st *store.Store, path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		slog.Warn("no city roster file found, skipping seed", "path", path)
		return nil
	}
	roster, err := vendorconfig.Load(path)
	if err != nil {
		return err
	}
	n, err := vendorconfig.Apply(ctx, st, roster)
	if err != nil {
		return err
	}
	slog.Info("applied city roster", "cities", n, "path", path)
	return nil
}

func newRegistry(limiters *vendoradapter.RateLimiters) *vendoradapter.Registry {
	r := vendoradapter.NewRegistry(
		vendoradapter.NewLegistarAdapter(limiters),
		vendoradapter.NewGranicusAdapter(limiters),
		vendoradapter.NewPrimeGovAdapter(limiters),
		vendoradapter.NewCivicClerkAdapter(limiters),
		vendoradapter.NewNovusAgendaAdapter(limiters),
		vendoradapter.NewCivicPlusAdapter(limiters),
	)
	r.RegisterCustom("berkeleyCA", custom.NewBerkeleyAdapter(limiters))
	r.RegisterCustom("chicagoIL", custom.NewChicagoAdapter(limiters))
	r.RegisterCustom("menloparkCA", custom.NewMenloParkAdapter(limiters))
	return r
}

func setupLogging(format string) {
	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
