package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the sparkmetrics server.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Cache    CacheConfig
	Worker   WorkerConfig
	Ingest   IngestConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

type CacheConfig struct {
	TTL time.Duration
}

// WorkerConfig controls the periodic sweep and the job-end trigger path.
type WorkerConfig struct {
	SweepInterval time.Duration
	BatchSize     int
	TriggerBuffer int
}

type IngestConfig struct {
	RateLimitPerMin int
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("SPARKMETRICS_PORT", 8080),
			Env:  envString("SPARKMETRICS_ENV", "development"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Cache: CacheConfig{
			TTL: envDurationSecs("CACHE_TTL_SECONDS", time.Hour),
		},
		Worker: WorkerConfig{
			SweepInterval: envDurationSecs("PROCESS_INTERVAL_SECONDS", 60*time.Second),
			BatchSize:     envInt("PROCESS_BATCH_SIZE", 50),
			TriggerBuffer: envInt("PROCESS_TRIGGER_BUFFER", 256),
		},
		Ingest: IngestConfig{
			RateLimitPerMin: envInt("INGEST_RATE_LIMIT_PER_MIN", 600),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.Worker.BatchSize <= 0 {
		return fmt.Errorf("PROCESS_BATCH_SIZE must be positive, got %d", c.Worker.BatchSize)
	}
	if c.Worker.SweepInterval <= 0 {
		return fmt.Errorf("PROCESS_INTERVAL_SECONDS must be positive, got %s", c.Worker.SweepInterval)
	}

	if c.Cache.TTL <= 0 {
		return fmt.Errorf("CACHE_TTL_SECONDS must be positive, got %s", c.Cache.TTL)
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func envDurationSecs(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}
