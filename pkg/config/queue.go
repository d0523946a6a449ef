package config

import (
	"fmt"
	"strconv"
	"time"
)

// QueueConfig contains priority-queue and worker-pool configuration. These
// values control how the Fetcher's sync pool and the Processor's worker
// pool are sized, and how a job's overall execution is bounded.
type QueueConfig struct {
	// NSync is the size of the Fetcher's bounded concurrent city-sync pool.
	NSync int `yaml:"n_sync"`

	// NWork is the number of Processor worker goroutines draining the
	// queue.
	NWork int `yaml:"n_work"`

	// PollInterval is how long an idle worker waits before polling the
	// queue again.
	PollInterval time.Duration `yaml:"poll_interval"`

	// RetryLimit is the number of transient failures tolerated before a
	// job moves to the dead-letter tier.
	RetryLimit int `yaml:"retry_limit"`

	// JobTimeout is the configured per-meeting processing cap. It is only
	// defaulted here: nothing reads it, and ProcessNext runs each job under
	// the worker's context with no per-job deadline.
	JobTimeout time.Duration `yaml:"job_timeout"`

	// GracefulShutdownTimeout is the max time to wait for in-flight jobs
	// to complete during shutdown.
	GracefulShutdownTimeout time.Duration `yaml:"graceful_shutdown_timeout"`

	// StaleThreshold is how long a job may sit in "processing", counted
	// from its started_at, before RecoverStale resets it back to pending.
	StaleThreshold time.Duration `yaml:"stale_threshold"`

	// StaleRecoveryInterval is how often the stale-recovery sweep runs.
	StaleRecoveryInterval time.Duration `yaml:"stale_recovery_interval"`
}

// DefaultQueueConfig returns the built-in queue defaults.
func DefaultQueueConfig() *QueueConfig {
	return &QueueConfig{
		NSync:                   8,
		NWork:                   8,
		PollInterval:            5 * time.Second,
		RetryLimit:              3,
		JobTimeout:              30 * time.Minute,
		GracefulShutdownTimeout: 60 * time.Second,
		StaleThreshold:          10 * time.Minute,
		StaleRecoveryInterval:   5 * time.Minute,
	}
}

// LoadQueueConfigFromEnv overlays environment variables onto the defaults.
func LoadQueueConfigFromEnv() (*QueueConfig, error) {
	cfg := DefaultQueueConfig()

	if v, err := envInt("N_SYNC", cfg.NSync); err != nil {
		return nil, err
	} else {
		cfg.NSync = v
	}
	if v, err := envInt("N_WORK", cfg.NWork); err != nil {
		return nil, err
	} else {
		cfg.NWork = v
	}
	if v, err := envInt("RETRY_LIMIT", cfg.RetryLimit); err != nil {
		return nil, err
	} else {
		cfg.RetryLimit = v
	}
	if v, err := envDuration("STALE_THRESHOLD", cfg.StaleThreshold); err != nil {
		return nil, err
	} else {
		cfg.StaleThreshold = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *QueueConfig) Validate() error {
	if c.NSync < 1 {
		return NewLoadError("N_SYNC", fmt.Errorf("%w: must be at least 1", ErrInvalidValue))
	}
	if c.NWork < 1 {
		return NewLoadError("N_WORK", fmt.Errorf("%w: must be at least 1", ErrInvalidValue))
	}
	if c.RetryLimit < 0 {
		return NewLoadError("RETRY_LIMIT", fmt.Errorf("%w: cannot be negative", ErrInvalidValue))
	}
	return nil
}

func envInt(key string, def int) (int, error) {
	raw := getEnvOrDefault(key, strconv.Itoa(def))
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, NewLoadError(key, fmt.Errorf("%w: %v", ErrInvalidValue, err))
	}
	return v, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	raw := getEnvOrDefault(key, def.String())
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, NewLoadError(key, fmt.Errorf("%w: %v", ErrInvalidValue, err))
	}
	return v, nil
}
