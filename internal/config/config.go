// Package config provides configuration management for the news enrichment service.
// It handles loading configuration from environment variables with sensible defaults
// and validates the configuration to ensure the application starts safely.
//
// Environment Variables:
//
// Application Settings:
//   - PORT: Server port (default: 8080)
//   - LOG_LEVEL: Logging level (default: info)
//   - IMAGE_DIR: Directory for generated article images (default: ./web/images)
//
// Redis Configuration:
//   - REDIS_ADDRESS: Redis server address (default: localhost:6379)
//   - REDIS_PASSWORD: Redis password
//   - REDIS_DB: Redis database number 0-15 (default: 0)
//   - REDIS_POOL_SIZE: Redis connection pool size (default: 10)
//
// Cache Configuration:
//   - LOCAL_CACHE_SIZE: Capacity of the in-process fallback cache (default: 100)
//   - HEALTH_CHECK_INTERVAL: Backing store health probe interval (default: 30s)
//
// Rate Limiting:
//   - RATE_LIMIT_ENABLED: Enable rate limiting (default: true)
//   - RATE_LIMIT_DEFAULT: Request quota per window (default: 100)
//   - RATE_LIMIT_WINDOW: Rate limit time window (default: 60s)
//
// Background Generation:
//   - GENERATION_TIMEOUT: Wall-clock budget per generation task (default: 60s)
//   - RETRY_COOLDOWN: Delay before a failed generation may be retried (default: 30s)
//
// External Generators:
//   - JINA_API_KEY: Jina Reader API key for content extraction
//   - JINA_TIMEOUT: Jina request timeout (default: 30s)
//   - OPENAI_API_KEY: OpenAI API key for summaries
//   - OPENAI_MODEL: Summary model (default: gpt-4o-mini)
//   - GEMINI_API_KEY: Google API key for image generation
//   - IMAGE_MODEL: Image model (default: imagen-3.0-generate-002)
//
// Duplicate Detection:
//   - SIMILARITY_THRESHOLD: Cluster join threshold 0..1 (default: 0.7)
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration values for the news enrichment service.
// All fields correspond to environment variables that can be set to
// override the default values. Load the configuration with Load() and
// validate it with Validate() before use.
type Config struct {
	// Application settings
	Port     string // Server port number
	LogLevel string // Logging level (debug, info, warn, error)
	ImageDir string // Directory generated images are written to

	// Redis configuration for the durable cache tier
	RedisAddress  string // Redis server address (host:port)
	RedisPassword string // Redis authentication password
	RedisDB       string // Redis database number (0-15)
	RedisPoolSize string // Redis connection pool size

	// Cache configuration
	LocalCacheSize      string // Fallback LRU capacity
	HealthCheckInterval string // Backing store health probe interval

	// Rate limiting configuration
	RateLimitEnabled bool   // Whether rate limiting is enabled
	RateLimitDefault string // Request quota per window
	RateLimitWindow  string // Rate limiting time window (e.g., "60s", "1m")

	// Background generation configuration
	GenerationTimeout string // Per-task wall-clock budget
	RetryCooldown     string // Delay before a failed key may retry

	// External generator configuration
	JinaAPIKey   string // Jina Reader API key
	JinaTimeout  string // Jina request timeout
	OpenAIAPIKey string // OpenAI API key for summaries
	OpenAIModel  string // Summary model name
	GeminiAPIKey string // Google API key for image generation
	ImageModel   string // Image generation model name

	// Duplicate detection configuration
	SimilarityThreshold string // Cluster join threshold (0..1)
}

// Load creates a new Config instance with values loaded from environment variables.
// If an environment variable is not set, the corresponding default value is used.
//
// This function does not validate the configuration - call Validate() on the
// returned Config to ensure all values are properly set and valid.
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		ImageDir: getEnv("IMAGE_DIR", "./web/images"),

		RedisAddress:  getEnv("REDIS_ADDRESS", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnv("REDIS_DB", "0"),
		RedisPoolSize: getEnv("REDIS_POOL_SIZE", "10"),

		LocalCacheSize:      getEnv("LOCAL_CACHE_SIZE", "100"),
		HealthCheckInterval: getEnv("HEALTH_CHECK_INTERVAL", "30s"),

		RateLimitEnabled: getBoolEnv("RATE_LIMIT_ENABLED", true),
		RateLimitDefault: getEnv("RATE_LIMIT_DEFAULT", "100"),
		RateLimitWindow:  getEnv("RATE_LIMIT_WINDOW", "60s"),

		GenerationTimeout: getEnv("GENERATION_TIMEOUT", "60s"),
		RetryCooldown:     getEnv("RETRY_COOLDOWN", "30s"),

		JinaAPIKey:   getEnv("JINA_API_KEY", ""),
		JinaTimeout:  getEnv("JINA_TIMEOUT", "30s"),
		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		ImageModel:   getEnv("IMAGE_MODEL", "imagen-3.0-generate-002"),

		SimilarityThreshold: getEnv("SIMILARITY_THRESHOLD", "0.7"),
	}
}

// getEnv retrieves an environment variable value or returns a default value if not set.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getBoolEnv retrieves a boolean environment variable value or returns a default value.
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// Validate performs validation on the configuration to ensure all values
// are present and well-formed. Call after Load() and before use.
func (c *Config) Validate() error {
	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be a valid port number between 1 and 65535")
	}

	if c.RedisAddress != "" {
		if db, err := strconv.Atoi(c.RedisDB); err != nil || db < 0 || db > 15 {
			return fmt.Errorf("REDIS_DB must be a number between 0 and 15")
		}
		if poolSize, err := strconv.Atoi(c.RedisPoolSize); err != nil || poolSize < 1 {
			return fmt.Errorf("REDIS_POOL_SIZE must be a positive number")
		}
	}

	if size, err := strconv.Atoi(c.LocalCacheSize); err != nil || size < 1 {
		return fmt.Errorf("LOCAL_CACHE_SIZE must be a positive number")
	}
	if _, err := time.ParseDuration(c.HealthCheckInterval); err != nil {
		return fmt.Errorf("HEALTH_CHECK_INTERVAL must be a valid duration (e.g., '30s')")
	}

	if c.RateLimitEnabled {
		if limit, err := strconv.Atoi(c.RateLimitDefault); err != nil || limit < 1 {
			return fmt.Errorf("RATE_LIMIT_DEFAULT must be a positive number")
		}
		if _, err := time.ParseDuration(c.RateLimitWindow); err != nil {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be a valid duration (e.g., '60s', '1m')")
		}
	}

	if _, err := time.ParseDuration(c.GenerationTimeout); err != nil {
		return fmt.Errorf("GENERATION_TIMEOUT must be a valid duration (e.g., '60s')")
	}
	if _, err := time.ParseDuration(c.RetryCooldown); err != nil {
		return fmt.Errorf("RETRY_COOLDOWN must be a valid duration (e.g., '30s')")
	}
	if _, err := time.ParseDuration(c.JinaTimeout); err != nil {
		return fmt.Errorf("JINA_TIMEOUT must be a valid duration (e.g., '30s')")
	}

	if threshold, err := strconv.ParseFloat(c.SimilarityThreshold, 64); err != nil || threshold <= 0 || threshold > 1 {
		return fmt.Errorf("SIMILARITY_THRESHOLD must be a number in (0, 1]")
	}

	return nil
}

// Duration helpers; Validate() guarantees these parse.

// HealthCheckIntervalDuration returns the parsed health probe interval.
func (c *Config) HealthCheckIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.HealthCheckInterval)
	return d
}

// RateLimitWindowDuration returns the parsed rate limit window.
func (c *Config) RateLimitWindowDuration() time.Duration {
	d, _ := time.ParseDuration(c.RateLimitWindow)
	return d
}

// GenerationTimeoutDuration returns the parsed generation budget.
func (c *Config) GenerationTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.GenerationTimeout)
	return d
}

// RetryCooldownDuration returns the parsed failure cooldown.
func (c *Config) RetryCooldownDuration() time.Duration {
	d, _ := time.ParseDuration(c.RetryCooldown)
	return d
}

// JinaTimeoutDuration returns the parsed extraction timeout.
func (c *Config) JinaTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.JinaTimeout)
	return d
}

// RateLimitQuota returns the parsed request quota per window.
func (c *Config) RateLimitQuota() int {
	n, _ := strconv.Atoi(c.RateLimitDefault)
	return n
}

// LocalCacheCapacity returns the parsed fallback cache capacity.
func (c *Config) LocalCacheCapacity() int {
	n, _ := strconv.Atoi(c.LocalCacheSize)
	return n
}

// SimilarityThresholdValue returns the parsed cluster join threshold.
func (c *Config) SimilarityThresholdValue() float64 {
	f, _ := strconv.ParseFloat(c.SimilarityThreshold, 64)
	return f
}
