package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "localhost:6379", cfg.RedisAddress)
	assert.Equal(t, "100", cfg.LocalCacheSize)
	assert.True(t, cfg.RateLimitEnabled)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAIModel)
	assert.Equal(t, "imagen-3.0-generate-002", cfg.ImageModel)
	assert.Equal(t, "0.7", cfg.SimilarityThreshold)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("RATE_LIMIT_ENABLED", "false")
	t.Setenv("GENERATION_TIMEOUT", "90s")
	t.Setenv("SIMILARITY_THRESHOLD", "0.85")

	cfg := Load()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "9090", cfg.Port)
	assert.False(t, cfg.RateLimitEnabled)
	assert.Equal(t, 90*time.Second, cfg.GenerationTimeoutDuration())
	assert.Equal(t, 0.85, cfg.SimilarityThresholdValue())
}

func TestValidate(t *testing.T) {
	valid := func() *Config { return Load() }

	t.Run("defaults are valid", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("bad port", func(t *testing.T) {
		cfg := valid()
		cfg.Port = "not-a-port"
		assert.Error(t, cfg.Validate())

		cfg.Port = "70000"
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad redis db", func(t *testing.T) {
		cfg := valid()
		cfg.RedisDB = "16"
		assert.Error(t, cfg.Validate())
	})

	t.Run("redis settings ignored without address", func(t *testing.T) {
		cfg := valid()
		cfg.RedisAddress = ""
		cfg.RedisDB = "junk"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("bad durations", func(t *testing.T) {
		for _, mutate := range []func(*Config){
			func(c *Config) { c.HealthCheckInterval = "soon" },
			func(c *Config) { c.RateLimitWindow = "whenever" },
			func(c *Config) { c.GenerationTimeout = "later" },
			func(c *Config) { c.RetryCooldown = "eventually" },
			func(c *Config) { c.JinaTimeout = "fast" },
		} {
			cfg := valid()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		}
	})

	t.Run("rate limit window skipped when disabled", func(t *testing.T) {
		cfg := valid()
		cfg.RateLimitEnabled = false
		cfg.RateLimitWindow = "junk"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("threshold bounds", func(t *testing.T) {
		cfg := valid()
		cfg.SimilarityThreshold = "0"
		assert.Error(t, cfg.Validate())

		cfg.SimilarityThreshold = "1.5"
		assert.Error(t, cfg.Validate())

		cfg.SimilarityThreshold = "1"
		assert.NoError(t, cfg.Validate())
	})
}

func TestDurationHelpers(t *testing.T) {
	cfg := Load()
	assert.Equal(t, 30*time.Second, cfg.HealthCheckIntervalDuration())
	assert.Equal(t, time.Minute, cfg.RateLimitWindowDuration())
	assert.Equal(t, 60*time.Second, cfg.GenerationTimeoutDuration())
	assert.Equal(t, 30*time.Second, cfg.RetryCooldownDuration())
	assert.Equal(t, 100, cfg.RateLimitQuota())
	assert.Equal(t, 100, cfg.LocalCacheCapacity())
}
