package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"APP_ENV", "HTTP_ADDR", "REDIS_ADDR", "STORAGE_DRIVER", "FETCH_TIMEOUT", "SCRAPER_OWNER_ID"} {
		t.Setenv(k, "")
	}

	cfg := Load()

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, ":8081", cfg.HTTPAddr)
	assert.Equal(t, StorageBadger, cfg.StorageDriver)
	assert.Equal(t, 15*time.Second, cfg.FetchTimeout)
	assert.False(t, cfg.UseQueue())
	require.NoError(t, cfg.Validate())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("SOURCE_TIMEOUT", "3s")
	t.Setenv("WORKER_CONCURRENCY", "4")
	t.Setenv("FETCH_RATE_PER_HOST", "0.5")

	cfg := Load()

	assert.True(t, cfg.UseQueue())
	assert.Equal(t, 3*time.Second, cfg.SourceTimeout)
	assert.Equal(t, 4, cfg.WorkerConcurrency)
	assert.InDelta(t, 0.5, cfg.FetchRatePerHost, 0.0001)
}

func TestLoad_BadValuesFallBack(t *testing.T) {
	t.Setenv("JOB_TIMEOUT", "soon")
	t.Setenv("WORKER_CONCURRENCY", "many")

	cfg := Load()

	assert.Equal(t, 5*time.Minute, cfg.JobTimeout)
	assert.Equal(t, 10, cfg.WorkerConcurrency)
}

func TestValidate(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "")
	base := Load()

	cfg := base
	cfg.StorageDriver = StoragePostgres
	cfg.DatabaseURL = ""
	assert.ErrorContains(t, cfg.Validate(), "DATABASE_URL")

	cfg = base
	cfg.StorageDriver = "sqlite"
	assert.ErrorContains(t, cfg.Validate(), "unknown STORAGE_DRIVER")

	cfg = base
	cfg.ScraperOwnerID = "not-a-uuid"
	assert.ErrorContains(t, cfg.Validate(), "SCRAPER_OWNER_ID")

	cfg = base
	cfg.WorkerConcurrency = 0
	assert.Error(t, cfg.Validate())
}
