package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nextstep/internal/config"
	"nextstep/internal/models"
	"nextstep/internal/storage/badger"
)

const (
	testSourceID = "7b0e5f1a-3c2d-4e6f-8a9b-0c1d2e3f4a5b"
	testJobID    = "0d9c4f4e-2a41-4c3b-9a55-6f1c2b4e8d7b"
)

func fakeAdminAPI(t *testing.T, polls *int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/admin/scraping/sources/{id}/run", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"success":false,"error":"missing bearer token"}`))
			return
		}
		if r.PathValue("id") != testSourceID {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"success":false,"error":"source not found: ` + r.PathValue("id") + `"}`))
			return
		}
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": "Scrape job queued",
			"job":     models.Job{ID: testJobID, SourceID: testSourceID, Status: models.JobQueued},
		})
	})
	mux.HandleFunc("GET /api/admin/scraping/jobs/{jobId}", func(w http.ResponseWriter, _ *http.Request) {
		status := models.JobRunning
		if atomic.AddInt32(polls, 1) >= 3 {
			status = models.JobCompleted
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"job": models.Job{ID: testJobID, SourceID: testSourceID, Status: status, InsertedCount: 4},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestAdminClient_RunAndWait(t *testing.T) {
	var polls int32
	srv := fakeAdminAPI(t, &polls)

	client, err := newAdminClient(srv.URL+"/", "cli-secret")
	require.NoError(t, err)
	assert.NotEmpty(t, client.token)

	ctx := context.Background()
	j, err := client.RunSource(ctx, testSourceID)
	require.NoError(t, err)
	assert.Equal(t, testJobID, j.ID)
	assert.Equal(t, models.JobQueued, j.Status)

	done, err := client.WaitForJob(ctx, j.ID, 10*time.Millisecond, 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, models.JobCompleted, done.Status)
	assert.Equal(t, 4, done.InsertedCount)
	assert.Equal(t, int32(3), atomic.LoadInt32(&polls))
}

func TestAdminClient_ReportsAPIErrors(t *testing.T) {
	var polls int32
	srv := fakeAdminAPI(t, &polls)

	client, err := newAdminClient(srv.URL, "cli-secret")
	require.NoError(t, err)
	_, err = client.RunSource(context.Background(), "3f1d1a2b-0000-4000-8000-000000000000")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
	assert.Contains(t, err.Error(), "source not found")

	anonymous, err := newAdminClient(srv.URL, "")
	require.NoError(t, err)
	_, err = anonymous.RunSource(context.Background(), testSourceID)
	assert.ErrorContains(t, err, "status 401")
}

func TestAdminClient_WaitTimesOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"job": models.Job{ID: testJobID, Status: models.JobRunning}})
	}))
	defer srv.Close()

	client, err := newAdminClient(srv.URL, "")
	require.NoError(t, err)
	_, err = client.WaitForJob(context.Background(), testJobID, 10*time.Millisecond, 50*time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestOpenStore_LockedBadgerDirectory(t *testing.T) {
	dir := t.TempDir()
	held, err := badger.Open(badger.Options{Path: dir}, nil)
	require.NoError(t, err)
	defer held.Close()

	cfg := config.Config{StorageDriver: config.StorageBadger, BadgerPath: dir}
	_, err = openStore(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--server")
	assert.Contains(t, err.Error(), "STORAGE_DRIVER=postgres")
}
