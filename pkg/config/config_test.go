package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv_MissingLLMAPIKeyFails(t *testing.T) {
	t.Setenv("ADMIN_TOKEN", "x")
	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingRequiredEnv)
}

func TestLoadFromEnv_MissingAdminTokenFails(t *testing.T) {
	t.Setenv("LLM_API_KEY", "x")
	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingRequiredEnv)
}

func TestLoadFromEnv_DefaultsAppliedWhenMandatoryPresent(t *testing.T) {
	t.Setenv("LLM_API_KEY", "x")
	t.Setenv("ADMIN_TOKEN", "y")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Queue.NSync)
	assert.Equal(t, 8, cfg.Queue.NWork)
	assert.Equal(t, 3, cfg.Queue.RetryLimit)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestQueueConfig_ValidateRejectsZeroWorkers(t *testing.T) {
	cfg := DefaultQueueConfig()
	cfg.NWork = 0
	assert.Error(t, cfg.Validate())
}

func TestFetchConfig_ValidateRejectsNonPositiveInterval(t *testing.T) {
	cfg := DefaultFetchConfig()
	cfg.SyncInterval = 0
	assert.Error(t, cfg.Validate())
}
