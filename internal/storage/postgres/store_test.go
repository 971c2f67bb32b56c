package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nextstep/internal/apperr"
	"nextstep/internal/logger"
	"nextstep/internal/models"
)

// Integration tests; they need a disposable database in TEST_DATABASE_URL.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	s, err := Open(ctx, dsn, logger.Discard("PostgresStore"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(ctx))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPostgresRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	src := &models.Source{
		ID:               uuid.NewString(),
		Name:             "pg-" + uuid.NewString()[:8],
		BaseURL:          "https://careers.test",
		ProviderType:     models.ProviderAPI,
		Enabled:          true,
		FrequencyMinutes: 60,
		APIConfig:        &models.APIConfig{Endpoint: "https://api.test/jobs", ExtraParams: map[string]any{"tag": []any{"go"}}},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	require.NoError(t, s.CreateSource(ctx, src))

	got, err := s.GetSourceByName(ctx, src.Name)
	require.NoError(t, err)
	assert.Equal(t, src.ID, got.ID)
	require.NotNil(t, got.APIConfig)
	assert.Equal(t, "https://api.test/jobs", got.APIConfig.Endpoint)

	job := &models.Job{ID: uuid.NewString(), SourceID: src.ID, Status: models.JobQueued, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.CreateJob(ctx, job))

	job.Status = models.JobCompleted
	job.InsertedCount = 2
	require.NoError(t, s.UpdateJob(ctx, job))

	for _, msg := range []string{"a", "b"} {
		require.NoError(t, s.AppendLog(ctx, &models.JobLog{JobID: job.ID, Level: models.LogInfo, Message: msg, Timestamp: now}))
	}
	logs, err := s.ListLogs(ctx, job.ID)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "a", logs[0].Message)
	assert.Less(t, logs[0].Seq, logs[1].Seq)

	items := []*models.Internship{
		{ID: uuid.NewString(), Title: "PG Intern", Location: "Remote", Mode: models.ModeRemote, Type: models.TypeInternship,
			Status: models.InternshipOpen, Source: models.OriginScraped, SourceID: src.ID, JobID: job.ID, PostedAt: now, CreatedAt: now},
		{ID: uuid.NewString(), Title: "PG Intern 2", Location: "Remote", Mode: models.ModeRemote, Type: models.TypeInternship,
			Status: models.InternshipOpen, Source: models.OriginScraped, SourceID: src.ID, JobID: job.ID, PostedAt: now, CreatedAt: now},
	}
	require.NoError(t, s.InsertInternships(ctx, items))

	n, err := s.CountInternshipsByJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	found, total, err := s.SearchInternships(ctx, models.InternshipQuery{Q: "pg intern", Page: 1, Limit: 1})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, total, 2)
	assert.Len(t, found, 1)
}

func TestPostgresNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetSource(context.Background(), uuid.NewString())

	var nf *apperr.NotFoundError
	assert.True(t, errors.As(err, &nf))
}

func TestPostgresSourceLastRunHasSingleWriter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	src := &models.Source{
		ID:           uuid.NewString(),
		Name:         "pg-" + uuid.NewString()[:8],
		BaseURL:      "https://careers.test",
		ProviderType: models.ProviderHTML,
		Enabled:      true,
		Selectors:    map[string]string{"item": ".job", "title": "h2"},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, s.CreateSource(ctx, src))

	stale, err := s.GetSource(ctx, src.ID)
	require.NoError(t, err)

	ranAt := now.Add(time.Minute)
	require.NoError(t, s.MarkSourceRun(ctx, src.ID, ranAt))

	stale.Enabled = false
	stale.UpdatedAt = now.Add(2 * time.Minute)
	require.NoError(t, s.UpdateSource(ctx, stale))
	require.NotNil(t, stale.LastRunAt)
	assert.True(t, ranAt.Equal(*stale.LastRunAt))

	got, err := s.GetSource(ctx, src.ID)
	require.NoError(t, err)
	assert.False(t, got.Enabled)
	require.NotNil(t, got.LastRunAt)
	assert.True(t, ranAt.Equal(*got.LastRunAt))

	err = s.UpdateSource(ctx, &models.Source{ID: uuid.NewString(), Name: "pg-missing", ProviderType: models.ProviderHTML})
	var nf *apperr.NotFoundError
	assert.True(t, errors.As(err, &nf))
}
