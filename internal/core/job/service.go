package job

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"nextstep/internal/apperr"
	"nextstep/internal/logger"
	"nextstep/internal/models"
	"nextstep/internal/storage"
)

// JobService owns job records and their logs. Every transition is persisted,
// logged and published.
type JobService struct {
	jobs storage.JobStore
	logs storage.LogStore
	pub  Publisher
	log  *logger.Logger
	now  func() time.Time
}

// NewJobService builds the service; pub may be nil.
func NewJobService(jobs storage.JobStore, logs storage.LogStore, pub Publisher) *JobService {
	return &JobService{
		jobs: jobs,
		logs: logs,
		pub:  pub,
		log:  logger.New("JobService"),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func parseJobID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperr.Validation("jobId", "invalid job id %q", id)
	}
	return nil
}

// Create stores a queued job for sourceID.
func (s *JobService) Create(ctx context.Context, sourceID string) (*models.Job, error) {
	now := s.now()
	j := &models.Job{
		ID:        uuid.NewString(),
		SourceID:  sourceID,
		Status:    models.JobQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.jobs.CreateJob(ctx, j); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	s.publish(ctx, j)
	return j, nil
}

func (s *JobService) Get(ctx context.Context, id string) (*models.Job, error) {
	if err := parseJobID(id); err != nil {
		return nil, err
	}
	return s.jobs.GetJob(ctx, id)
}

func (s *JobService) ListBySource(ctx context.Context, sourceID string) ([]*models.Job, error) {
	return s.jobs.ListJobsBySource(ctx, sourceID, RecentJobsLimit)
}

// Logs returns the job's log entries in order; the job must exist.
func (s *JobService) Logs(ctx context.Context, jobID string) ([]*models.JobLog, error) {
	if _, err := s.Get(ctx, jobID); err != nil {
		return nil, err
	}
	return s.logs.ListLogs(ctx, jobID)
}

// Log appends an entry to the job's log and mirrors it to the process log.
func (s *JobService) Log(ctx context.Context, j *models.Job, level models.LogLevel, msg string, meta map[string]any) {
	entry := &models.JobLog{
		JobID:     j.ID,
		Level:     level,
		Message:   msg,
		Meta:      meta,
		Timestamp: s.now(),
	}
	if err := s.logs.AppendLog(ctx, entry); err != nil {
		s.log.LogError("Failed to append job log", err)
	}

	event := s.log.Info()
	switch level {
	case models.LogWarning:
		event = s.log.Warn()
	case models.LogError:
		event = s.log.Error()
	}
	event = event.Str("job_id", j.ID).Str("source_id", j.SourceID)
	for k, v := range meta {
		event = event.Interface(k, v)
	}
	event.Msg(msg)
}

func (s *JobService) MarkRunning(ctx context.Context, j *models.Job) error {
	if j.Status != models.JobQueued {
		return fmt.Errorf("job %s cannot start from status %s", j.ID, j.Status)
	}
	next := *j
	now := s.now()
	next.Status = models.JobRunning
	next.StartedAt = &now
	return s.commit(ctx, j, &next)
}

func (s *JobService) MarkCompleted(ctx context.Context, j *models.Job, inserted int) error {
	if j.Status.Terminal() {
		return fmt.Errorf("job %s is already %s", j.ID, j.Status)
	}
	next := *j
	now := s.now()
	next.Status = models.JobCompleted
	next.FinishedAt = &now
	next.InsertedCount = inserted
	return s.commit(ctx, j, &next)
}

func (s *JobService) MarkFailed(ctx context.Context, j *models.Job, cause error) error {
	if j.Status.Terminal() {
		return fmt.Errorf("job %s is already %s", j.ID, j.Status)
	}
	next := *j
	now := s.now()
	next.Status = models.JobFailed
	next.FinishedAt = &now
	next.ErrorMessage = cause.Error()
	return s.commit(ctx, j, &next)
}

// commit stores next and only then applies it to j.
func (s *JobService) commit(ctx context.Context, j, next *models.Job) error {
	if err := s.save(ctx, next); err != nil {
		return err
	}
	*j = *next
	return nil
}

func (s *JobService) save(ctx context.Context, j *models.Job) error {
	j.UpdatedAt = s.now()
	if err := s.jobs.UpdateJob(ctx, j); err != nil {
		return fmt.Errorf("update job %s: %w", j.ID, err)
	}
	s.publish(ctx, j)
	return nil
}

func (s *JobService) publish(ctx context.Context, j *models.Job) {
	if s.pub == nil {
		return
	}
	b, err := json.Marshal(StatusEvent{JobID: j.ID, Status: j.Status})
	if err != nil {
		return
	}
	if err := s.pub.Publish(ctx, channel(j.ID), string(b)); err != nil {
		s.log.LogWarnf("Failed to publish status for job %s: %v", j.ID, err)
	}
}

func channel(id string) string { return "job:" + id }
