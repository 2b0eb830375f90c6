package config

import (
	"fmt"
	"time"

	"github.com/RishiKendai/shingle/internal/configs/env"
	"github.com/RishiKendai/shingle/internal/plagiarism"
)

// Config holds all configuration for the application
type Config struct {
	// MongoDB (optional; empty URI disables report persistence)
	MongoURI    string
	MongoDBName string

	// Redis
	RedisHost               string
	RedisPassword           string
	RedisDB                 int
	RedisStreamKey          string
	RedisConsumerGroup      string
	RedisDeadLetterKey      string
	StreamRetentionDuration time.Duration
	StreamEnabled           bool

	// JWT
	JWTSecret string
	JWTIssuer string

	// Rate Limiting
	RateLimitRPS float64

	// Concurrency
	MaxConcurrentCompute int

	// Computation
	ComputationTimeout time.Duration
	MaxTextBytes       int
	MaxBatchPairs      int
	ShingleSize        int
	OffsetMode         plagiarism.OffsetMode

	// Result cache
	CacheSize int
	CacheTTL  time.Duration

	// Logging
	LogLevel string

	// Server
	ServerPort  string
	MetricsPort string
}

func Load() (*Config, error) {
	cfg := &Config{}

	// MongoDB
	cfg.MongoURI = env.GetEnv("MONGO_URI", "")
	cfg.MongoDBName = env.GetEnv("MONGO_DB_NAME", "shingle")

	// Redis
	cfg.RedisHost = env.GetEnv("REDIS_HOST", "localhost:6379")
	cfg.RedisPassword = env.GetEnv("REDIS_PASSWORD", "")
	cfg.RedisDB = env.GetEnvInt("REDIS_DB", 0)
	cfg.RedisStreamKey = env.GetEnv("REDIS_STREAM_KEY", "comparison:stream")
	cfg.RedisConsumerGroup = env.GetEnv("REDIS_CONSUMER_GROUP", "comparison:group")
	cfg.RedisDeadLetterKey = env.GetEnv("REDIS_DEAD_LETTER_KEY", "comparison:dlq")
	retentionHours := env.GetEnvInt("STREAM_RETENTION_HOURS", 24)
	cfg.StreamRetentionDuration = time.Duration(retentionHours) * time.Hour
	cfg.StreamEnabled = env.GetEnvBool("STREAM_ENABLED", true)

	// JWT
	cfg.JWTSecret = env.GetEnv("JWT_SECRET", "")
	cfg.JWTIssuer = env.GetEnv("JWT_ISSUER", "shingle")

	// Rate Limiting
	cfg.RateLimitRPS = env.GetEnvFloat("RATE_LIMIT_RPS", 10.0)

	// Concurrency
	cfg.MaxConcurrentCompute = env.GetEnvInt("MAX_CONCURRENT_COMPUTE", 0)

	// Computation
	timeoutSeconds := env.GetEnvInt("COMPUTATION_TIMEOUT_SECONDS", 30)
	cfg.ComputationTimeout = time.Duration(timeoutSeconds) * time.Second
	cfg.MaxTextBytes = env.GetEnvInt("MAX_TEXT_BYTES", 1<<20)
	cfg.MaxBatchPairs = env.GetEnvInt("MAX_BATCH_PAIRS", 50)
	cfg.ShingleSize = env.GetEnvInt("SHINGLE_SIZE", plagiarism.DefaultShingleSize)
	cfg.OffsetMode = plagiarism.ParseOffsetMode(env.GetEnv("OFFSET_MODE", string(plagiarism.OffsetExact)))

	// Result cache
	cfg.CacheSize = env.GetEnvInt("CACHE_SIZE", 256)
	cacheMinutes := env.GetEnvInt("CACHE_TTL_MINUTES", 10)
	cfg.CacheTTL = time.Duration(cacheMinutes) * time.Minute

	// Logging
	cfg.LogLevel = env.GetEnv("LOG_LEVEL", "info")

	// Server
	cfg.ServerPort = env.GetEnv("SERVER_PORT", "8080")
	cfg.MetricsPort = env.GetEnv("METRICS_PORT", "2112")

	return cfg, nil
}

// AsyncEnabled reports whether async comparisons can be accepted. Results
// are only retrievable from the report store, so the stream needs MongoDB.
func (c *Config) AsyncEnabled() bool {
	return c.StreamEnabled && c.MongoURI != ""
}

func (c *Config) Validate() error {
	if c.MongoURI != "" && c.MongoDBName == "" {
		return fmt.Errorf("MONGO_DB_NAME is required when MONGO_URI is set")
	}
	if c.RedisHost == "" {
		return fmt.Errorf("REDIS_HOST is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.RateLimitRPS <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be greater than 0")
	}
	if c.MaxConcurrentCompute < 0 {
		return fmt.Errorf("MAX_CONCURRENT_COMPUTE must not be negative")
	}
	if c.ComputationTimeout <= 0 {
		return fmt.Errorf("COMPUTATION_TIMEOUT_SECONDS must be greater than 0")
	}
	if c.MaxTextBytes <= 0 {
		return fmt.Errorf("MAX_TEXT_BYTES must be greater than 0")
	}
	if c.MaxBatchPairs <= 0 {
		return fmt.Errorf("MAX_BATCH_PAIRS must be greater than 0")
	}
	if c.ShingleSize <= 0 {
		return fmt.Errorf("SHINGLE_SIZE must be greater than 0")
	}
	if c.CacheSize <= 0 {
		return fmt.Errorf("CACHE_SIZE must be greater than 0")
	}
	if c.StreamRetentionDuration <= 0 {
		return fmt.Errorf("STREAM_RETENTION_HOURS must be greater than 0")
	}
	return nil
}
