package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/engagic/core/pkg/models"
)

// FetchConfig controls the Fetcher's sync cadence, date window, and
// per-vendor rate limits.
type FetchConfig struct {
	// SyncInterval is how often each city is resynced.
	SyncInterval time.Duration `yaml:"sync_interval"`

	// Lookback/Horizon bound which meeting dates an adapter returns.
	Lookback time.Duration `yaml:"lookback"`
	Horizon  time.Duration `yaml:"horizon"`

	// VendorRPS overrides the documented per-vendor rate-limit defaults.
	// Vendors absent from this map use vendoradapter.DefaultVendorRPS.
	VendorRPS map[models.Vendor]float64 `yaml:"vendor_rps"`

	// RateLimitBurst is loaded and validated, but it is not passed to the
	// vendor limiters: NewRateLimiters gives each vendor a burst equal to
	// its whole-number rate (at least 1) and the fallback limiter a burst
	// of 3.
	RateLimitBurst int `yaml:"rate_limit_burst"`
}

// DefaultFetchConfig returns the built-in fetch defaults.
func DefaultFetchConfig() *FetchConfig {
	return &FetchConfig{
		SyncInterval:   72 * time.Hour,
		Lookback:       7 * 24 * time.Hour,
		Horizon:        14 * 24 * time.Hour,
		VendorRPS:      map[models.Vendor]float64{},
		RateLimitBurst: 3,
	}
}

// LoadFetchConfigFromEnv overlays environment variables onto the defaults.
// Per-vendor RPS overrides are read individually, e.g. VENDOR_RPS_LEGISTAR.
func LoadFetchConfigFromEnv() (*FetchConfig, error) {
	cfg := DefaultFetchConfig()

	syncHours, err := envInt("SYNC_INTERVAL_HOURS", int(cfg.SyncInterval.Hours()))
	if err != nil {
		return nil, err
	}
	cfg.SyncInterval = time.Duration(syncHours) * time.Hour

	lookbackDays, err := envInt("LOOKBACK_DAYS", int(cfg.Lookback.Hours()/24))
	if err != nil {
		return nil, err
	}
	cfg.Lookback = time.Duration(lookbackDays) * 24 * time.Hour

	horizonDays, err := envInt("HORIZON_DAYS", int(cfg.Horizon.Hours()/24))
	if err != nil {
		return nil, err
	}
	cfg.Horizon = time.Duration(horizonDays) * 24 * time.Hour

	burst, err := envInt("RATE_LIMIT_BURST", cfg.RateLimitBurst)
	if err != nil {
		return nil, err
	}
	cfg.RateLimitBurst = burst

	for _, v := range []models.Vendor{
		models.VendorLegistar, models.VendorGranicus, models.VendorPrimeGov,
		models.VendorCivicClerk, models.VendorNovusAgenda, models.VendorCivicPlus,
	} {
		envKey := "VENDOR_RPS_" + vendorEnvSuffix(v)
		raw := getEnvOrDefault(envKey, "")
		if raw == "" {
			continue
		}
		rps, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, NewLoadError(envKey, fmt.Errorf("%w: %v", ErrInvalidValue, err))
		}
		cfg.VendorRPS[v] = rps
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *FetchConfig) Validate() error {
	if c.SyncInterval <= 0 {
		return NewLoadError("SYNC_INTERVAL_HOURS", fmt.Errorf("%w: must be positive", ErrInvalidValue))
	}
	if c.RateLimitBurst < 1 {
		return NewLoadError("RATE_LIMIT_BURST", fmt.Errorf("%w: must be at least 1", ErrInvalidValue))
	}
	return nil
}

func vendorEnvSuffix(v models.Vendor) string {
	switch v {
	case models.VendorLegistar:
		return "LEGISTAR"
	case models.VendorGranicus:
		return "GRANICUS"
	case models.VendorPrimeGov:
		return "PRIMEGOV"
	case models.VendorCivicClerk:
		return "CIVICCLERK"
	case models.VendorNovusAgenda:
		return "NOVUSAGENDA"
	case models.VendorCivicPlus:
		return "CIVICPLUS"
	default:
		return "OTHER"
	}
}
