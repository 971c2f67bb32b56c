package badger

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nextstep/internal/apperr"
	"nextstep/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSources(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	older := &models.Source{ID: "s-1", Name: "Older", Enabled: true, CreatedAt: base,
		Selectors: map[string]string{"item": ".job", "title": "h2"}}
	newer := &models.Source{ID: "s-2", Name: "Newer", Enabled: false, CreatedAt: base.Add(time.Hour),
		APIConfig: &models.APIConfig{Endpoint: "https://api.test", ExtraParams: map[string]any{"q": "go"}}}
	require.NoError(t, s.CreateSource(ctx, older))
	require.NoError(t, s.CreateSource(ctx, newer))

	all, err := s.ListSources(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "s-2", all[0].ID)
	assert.Equal(t, "go", all[0].APIConfig.ExtraParams["q"])

	enabled, err := s.ListEnabledSources(ctx)
	require.NoError(t, err)
	require.Len(t, enabled, 1)
	assert.Equal(t, ".job", enabled[0].Selectors["item"])

	byName, err := s.GetSourceByName(ctx, "Newer")
	require.NoError(t, err)
	assert.Equal(t, "s-2", byName.ID)

	ranAt := base.Add(2 * time.Hour)
	require.NoError(t, s.MarkSourceRun(ctx, "s-1", ranAt))
	got, err := s.GetSource(ctx, "s-1")
	require.NoError(t, err)
	require.NotNil(t, got.LastRunAt)
	assert.True(t, ranAt.Equal(*got.LastRunAt))
}

func TestSourceLastRunHasSingleWriter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.CreateSource(ctx, &models.Source{ID: "s-1", Name: "Acme", Enabled: true, CreatedAt: base}))

	// An admin loads the source before a run finishes.
	stale, err := s.GetSource(ctx, "s-1")
	require.NoError(t, err)
	require.Nil(t, stale.LastRunAt)

	ranAt := base.Add(time.Hour)
	require.NoError(t, s.MarkSourceRun(ctx, "s-1", ranAt))

	stale.Name = "Acme Corp"
	stale.Enabled = false
	require.NoError(t, s.UpdateSource(ctx, stale))
	require.NotNil(t, stale.LastRunAt)
	assert.True(t, ranAt.Equal(*stale.LastRunAt))

	got, err := s.GetSource(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", got.Name)
	assert.False(t, got.Enabled)
	require.NotNil(t, got.LastRunAt)
	assert.True(t, ranAt.Equal(*got.LastRunAt))

	// A later run leaves the admin's edits in place.
	require.NoError(t, s.MarkSourceRun(ctx, "s-1", ranAt.Add(time.Hour)))
	got, err = s.GetSource(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", got.Name)
	assert.False(t, got.Enabled)
	assert.True(t, ranAt.Add(time.Hour).Equal(*got.LastRunAt))
}

func TestNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var nf *apperr.NotFoundError

	_, err := s.GetSource(ctx, "missing")
	assert.True(t, errors.As(err, &nf))

	_, err = s.GetSourceByName(ctx, "missing")
	assert.True(t, errors.As(err, &nf))

	_, err = s.GetJob(ctx, "missing")
	assert.True(t, errors.As(err, &nf))

	err = s.UpdateJob(ctx, &models.Job{ID: "missing"})
	assert.True(t, errors.As(err, &nf))

	err = s.UpdateSource(ctx, &models.Source{ID: "missing"})
	assert.True(t, errors.As(err, &nf))

	err = s.MarkSourceRun(ctx, "missing", time.Now())
	assert.True(t, errors.As(err, &nf))
}

func TestJobsNewestFirstWithLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Now().UTC()

	for i := 0; i < 25; i++ {
		require.NoError(t, s.CreateJob(ctx, &models.Job{
			ID:        fmt.Sprintf("j-%02d", i),
			SourceID:  "s-1",
			Status:    models.JobQueued,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}
	require.NoError(t, s.CreateJob(ctx, &models.Job{ID: "other", SourceID: "s-2", CreatedAt: base}))

	jobs, err := s.ListJobsBySource(ctx, "s-1", 20)
	require.NoError(t, err)
	require.Len(t, jobs, 20)
	assert.Equal(t, "j-24", jobs[0].ID)
	assert.Equal(t, "j-05", jobs[19].ID)
}

func TestLogsAscendingWithTies(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ts := time.Now().UTC()

	for _, msg := range []string{"first", "second", "third"} {
		require.NoError(t, s.AppendLog(ctx, &models.JobLog{
			JobID: "j-1", Level: models.LogInfo, Message: msg, Timestamp: ts,
			Meta: map[string]any{"count": 2},
		}))
	}
	require.NoError(t, s.AppendLog(ctx, &models.JobLog{JobID: "j-2", Level: models.LogInfo, Message: "elsewhere"}))

	logs, err := s.ListLogs(ctx, "j-1")
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, "first", logs[0].Message)
	assert.Equal(t, "second", logs[1].Message)
	assert.Equal(t, "third", logs[2].Message)
	assert.EqualValues(t, 2, logs[0].Meta["count"])
	assert.NotEmpty(t, logs[0].ID)
}

func TestSearchInternships(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Now().UTC()

	items := []*models.Internship{
		{ID: "i-1", Title: "React Intern", Location: "Remote", Mode: models.ModeRemote, Type: models.TypeInternship, Status: models.InternshipOpen, CreatedAt: base},
		{ID: "i-2", Title: "Backend Intern", Description: "React and Go", Location: "Pune", Mode: models.ModeOnsite, Type: models.TypeInternship, Status: models.InternshipOpen, CreatedAt: base.Add(time.Minute)},
		{ID: "i-3", Title: "React Lead", Location: "Remote", Mode: models.ModeRemote, Type: models.TypeFulltime, Status: models.InternshipClosed, CreatedAt: base.Add(2 * time.Minute)},
		{ID: "i-4", Title: "Designer", Location: "Remote", Mode: models.ModeRemote, Type: models.TypeInternship, Status: models.InternshipOpen, JobID: "job-9", CreatedAt: base.Add(3 * time.Minute)},
	}
	require.NoError(t, s.InsertInternships(ctx, items))

	got, total, err := s.SearchInternships(ctx, models.InternshipQuery{Q: "react", Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, got, 2)
	assert.Equal(t, "i-2", got[0].ID)

	got, total, err = s.SearchInternships(ctx, models.InternshipQuery{Mode: "remote", Page: 2, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, got, 1)
	assert.Equal(t, "i-1", got[0].ID)

	got, _, err = s.SearchInternships(ctx, models.InternshipQuery{Page: 5, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, got)

	n, err := s.CountInternshipsByJob(ctx, "job-9")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPing(t *testing.T) {
	s, err := OpenInMemory()
	require.NoError(t, err)
	require.NoError(t, s.Ping(context.Background()))
	require.NoError(t, s.Close())
	assert.Error(t, s.Ping(context.Background()))
}
