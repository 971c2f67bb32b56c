package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	StorageBadger   = "badger"
	StoragePostgres = "postgres"
)

type Config struct {
	AppEnv        string
	HTTPAddr      string
	RedisAddr     string
	RedisPassword string

	StorageDriver string
	BadgerPath    string
	DatabaseURL   string

	JWTSecret string

	FetchTimeout      time.Duration
	FetchRatePerHost  float64
	FetchMaxBodyBytes int64
	FetchUserAgent    string

	SourceTimeout           time.Duration
	AggregateCacheTTL       time.Duration
	AggregateMaxConcurrency int

	JobTimeout        time.Duration
	RunLockTTL        time.Duration
	WorkerConcurrency int
	ScraperOwnerID    string
}

// defaultScraperOwner is the synthetic account that owns scraped listings.
var defaultScraperOwner = uuid.NewSHA1(uuid.NameSpaceURL, []byte("nextstep:scraper")).String()

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getenvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getenvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

// Load reads the configuration from the environment.
func Load() Config {
	return Config{
		AppEnv:        getenv("APP_ENV", "development"),
		HTTPAddr:      getenv("HTTP_ADDR", ":8081"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		StorageDriver: getenv("STORAGE_DRIVER", StorageBadger),
		BadgerPath:    getenv("BADGER_PATH", "./data/badger"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		FetchTimeout:      getenvDuration("FETCH_TIMEOUT", 15*time.Second),
		FetchRatePerHost:  getenvFloat("FETCH_RATE_PER_HOST", 2),
		FetchMaxBodyBytes: int64(getenvInt("FETCH_MAX_BODY_BYTES", 5<<20)),
		FetchUserAgent:    os.Getenv("FETCH_USER_AGENT"),

		SourceTimeout:           getenvDuration("SOURCE_TIMEOUT", 20*time.Second),
		AggregateCacheTTL:       getenvDuration("AGGREGATE_CACHE_TTL", 0),
		AggregateMaxConcurrency: getenvInt("AGGREGATE_MAX_CONCURRENCY", 0),

		JobTimeout:        getenvDuration("JOB_TIMEOUT", 5*time.Minute),
		RunLockTTL:        getenvDuration("RUN_LOCK_TTL", 10*time.Minute),
		WorkerConcurrency: getenvInt("WORKER_CONCURRENCY", 10),
		ScraperOwnerID:    getenv("SCRAPER_OWNER_ID", defaultScraperOwner),
	}
}

// Validate rejects settings the service cannot start with.
func (c Config) Validate() error {
	switch c.StorageDriver {
	case StorageBadger:
		if c.BadgerPath == "" {
			return fmt.Errorf("BADGER_PATH is required when STORAGE_DRIVER=%s", StorageBadger)
		}
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORAGE_DRIVER=%s", StoragePostgres)
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q (want %s or %s)", c.StorageDriver, StorageBadger, StoragePostgres)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("FETCH_TIMEOUT must be positive")
	}
	if c.SourceTimeout <= 0 {
		return fmt.Errorf("SOURCE_TIMEOUT must be positive")
	}
	if c.JobTimeout <= 0 {
		return fmt.Errorf("JOB_TIMEOUT must be positive")
	}
	if c.WorkerConcurrency < 1 {
		return fmt.Errorf("WORKER_CONCURRENCY must be at least 1, got %d", c.WorkerConcurrency)
	}
	if _, err := uuid.Parse(c.ScraperOwnerID); err != nil {
		return fmt.Errorf("SCRAPER_OWNER_ID must be a UUID: %w", err)
	}
	return nil
}

// UseQueue reports whether jobs are dispatched through Redis-backed asynq.
func (c Config) UseQueue() bool { return c.RedisAddr != "" }
