// Package config loads engagic's environment-driven configuration,
// following the teacher's LoadXFromEnv + typed-default + Validate
// convention used throughout pkg/database and the original pkg/config.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config aggregates every configuration surface engagic reads at startup.
// Database configuration is loaded separately via
// database.LoadConfigFromEnv, which already follows this same convention.
type Config struct {
	LLM   LLMConfig
	Queue *QueueConfig
	Fetch *FetchConfig

	// AdminToken authenticates operator-only actions (manual DLQ reset,
	// roster reload). Mandatory; there is no default.
	AdminToken string

	// LogFormat selects the slog handler: "text" (default) or "json".
	LogFormat string
}

// LLMConfig holds the summarization provider's credentials and defaults.
type LLMConfig struct {
	// APIKey authenticates against the LLM provider. Mandatory.
	APIKey string

	// BatchTimeout bounds a single batch submission call.
	BatchTimeout string
}

// LoadDotEnv optionally loads a .env file into the process environment,
// mirroring the teacher's main.go startup. A missing file is not an error;
// only a malformed one is.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}

// LoadFromEnv reads every configuration surface from the environment,
// failing fast on a missing mandatory value or a malformed optional one.
func LoadFromEnv() (*Config, error) {
	apiKey := os.Getenv("LLM_API_KEY")
	if apiKey == "" {
		return nil, NewLoadError("LLM_API_KEY", ErrMissingRequiredEnv)
	}

	adminToken := os.Getenv("ADMIN_TOKEN")
	if adminToken == "" {
		return nil, NewLoadError("ADMIN_TOKEN", ErrMissingRequiredEnv)
	}

	queueCfg, err := LoadQueueConfigFromEnv()
	if err != nil {
		return nil, err
	}
	fetchCfg, err := LoadFetchConfigFromEnv()
	if err != nil {
		return nil, err
	}

	return &Config{
		LLM:        LLMConfig{APIKey: apiKey, BatchTimeout: getEnvOrDefault("LLM_BATCH_TIMEOUT", "10m")},
		Queue:      queueCfg,
		Fetch:      fetchCfg,
		AdminToken: adminToken,
		LogFormat:  getEnvOrDefault("LOG_FORMAT", "text"),
	}, nil
}

// Validate re-checks every sub-config; LoadFromEnv already validates each
// as it loads, so this is primarily useful after manual construction (e.g.
// in tests).
func (c *Config) Validate() error {
	if c.AdminToken == "" {
		return NewLoadError("ADMIN_TOKEN", ErrMissingRequiredEnv)
	}
	if c.LLM.APIKey == "" {
		return NewLoadError("LLM_API_KEY", ErrMissingRequiredEnv)
	}
	if c.Queue != nil {
		if err := c.Queue.Validate(); err != nil {
			return err
		}
	}
	if c.Fetch != nil {
		if err := c.Fetch.Validate(); err != nil {
			return err
		}
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return NewLoadError("LOG_FORMAT", fmt.Errorf("%w: must be \"text\" or \"json\"", ErrInvalidValue))
	}
	return nil
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
