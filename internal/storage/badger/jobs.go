package badger

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"nextstep/internal/models"
)

// logSequence orders log entries written within the same clock tick.
var logSequence uint64

func (s *Store) CreateJob(ctx context.Context, job *models.Job) error {
	if err := s.db.Insert(job.ID, job); err != nil {
		return fmt.Errorf("failed to insert job: %w", err)
	}
	return nil
}

func (s *Store) UpdateJob(ctx context.Context, job *models.Job) error {
	if err := s.db.Update(job.ID, job); err != nil {
		return notFound(err, "job", job.ID)
	}
	return nil
}

func (s *Store) GetJob(ctx context.Context, id string) (*models.Job, error) {
	var job models.Job
	if err := s.db.Get(id, &job); err != nil {
		return nil, notFound(err, "job", id)
	}
	return &job, nil
}

func (s *Store) ListJobsBySource(ctx context.Context, sourceID string, limit int) ([]*models.Job, error) {
	var found []models.Job
	if err := s.db.Find(&found, badgerhold.Where("SourceID").Eq(sourceID)); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	out := make([]*models.Job, len(found))
	for i := range found {
		out[i] = &found[i]
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) AppendLog(ctx context.Context, entry *models.JobLog) error {
	entry.Seq = atomic.AddUint64(&logSequence, 1)
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	key := fmt.Sprintf("%s_%d_%d", entry.JobID, entry.Timestamp.UnixNano(), entry.Seq)
	if entry.ID == "" {
		entry.ID = key
	}
	if err := s.db.Insert(key, entry); err != nil {
		return fmt.Errorf("failed to append log: %w", err)
	}
	return nil
}

func (s *Store) ListLogs(ctx context.Context, jobID string) ([]*models.JobLog, error) {
	var found []models.JobLog
	if err := s.db.Find(&found, badgerhold.Where("JobID").Eq(jobID)); err != nil {
		return nil, fmt.Errorf("failed to get logs: %w", err)
	}

	out := make([]*models.JobLog, len(found))
	for i := range found {
		out[i] = &found[i]
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Seq < out[j].Seq
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}
