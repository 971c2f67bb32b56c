package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"nextstep/internal/apperr"
	"nextstep/internal/models"
)

const jobColumns = `id, source_id, status, started_at, finished_at, error_message, inserted_count, created_at, updated_at`

func (s *Store) CreateJob(ctx context.Context, job *models.Job) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO scraping_jobs (`+jobColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		job.ID, job.SourceID, string(job.Status), job.StartedAt, job.FinishedAt,
		job.ErrorMessage, job.InsertedCount, job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

func (s *Store) UpdateJob(ctx context.Context, job *models.Job) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE scraping_jobs
		 SET status = $2, started_at = $3, finished_at = $4, error_message = $5, inserted_count = $6, updated_at = $7
		 WHERE id = $1`,
		job.ID, string(job.Status), job.StartedAt, job.FinishedAt, job.ErrorMessage, job.InsertedCount, job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("job", job.ID)
	}
	return nil
}

func (s *Store) GetJob(ctx context.Context, id string) (*models.Job, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM scraping_jobs WHERE id = $1`, id)
	job, err := scanJob(row)
	if err != nil {
		return nil, notFound(err, "job", id)
	}
	return job, nil
}

func (s *Store) ListJobsBySource(ctx context.Context, sourceID string, limit int) ([]*models.Job, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+jobColumns+` FROM scraping_jobs WHERE source_id = $1 ORDER BY created_at DESC LIMIT $2`,
		sourceID, limit)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Job, 0)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

func scanJob(row pgx.Row) (*models.Job, error) {
	var job models.Job
	var status string
	if err := row.Scan(&job.ID, &job.SourceID, &status, &job.StartedAt, &job.FinishedAt,
		&job.ErrorMessage, &job.InsertedCount, &job.CreatedAt, &job.UpdatedAt); err != nil {
		return nil, err
	}
	job.Status = models.JobStatus(status)
	return &job, nil
}

func (s *Store) AppendLog(ctx context.Context, entry *models.JobLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	var meta []byte
	if len(entry.Meta) > 0 {
		var err error
		if meta, err = json.Marshal(entry.Meta); err != nil {
			return fmt.Errorf("encode log meta: %w", err)
		}
	}
	var seq int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO scraping_logs (id, job_id, level, message, meta, timestamp)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING seq`,
		entry.ID, entry.JobID, string(entry.Level), entry.Message, meta, entry.Timestamp,
	).Scan(&seq)
	if err != nil {
		return fmt.Errorf("append log: %w", err)
	}
	entry.Seq = uint64(seq)
	return nil
}

func (s *Store) ListLogs(ctx context.Context, jobID string) ([]*models.JobLog, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, job_id, seq, level, message, meta, timestamp
		 FROM scraping_logs WHERE job_id = $1 ORDER BY timestamp ASC, seq ASC`, jobID)
	if err != nil {
		return nil, fmt.Errorf("query logs: %w", err)
	}
	defer rows.Close()

	out := make([]*models.JobLog, 0)
	for rows.Next() {
		var (
			entry models.JobLog
			seq   int64
			level string
			meta  []byte
		)
		if err := rows.Scan(&entry.ID, &entry.JobID, &seq, &level, &entry.Message, &meta, &entry.Timestamp); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		entry.Seq = uint64(seq)
		entry.Level = models.LogLevel(level)
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &entry.Meta); err != nil {
				return nil, fmt.Errorf("decode log meta: %w", err)
			}
		}
		out = append(out, &entry)
	}
	return out, rows.Err()
}
