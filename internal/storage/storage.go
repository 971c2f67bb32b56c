// Package storage declares the persistence contracts of the ingestion
// subsystem. Drivers live in the badger and postgres subpackages and report
// missing records as *apperr.NotFoundError.
package storage

import (
	"context"
	"time"

	"nextstep/internal/models"
)

type SourceStore interface {
	CreateSource(ctx context.Context, src *models.Source) error
	UpdateSource(ctx context.Context, src *models.Source) error
	GetSource(ctx context.Context, id string) (*models.Source, error)
	// GetSourceByName returns a NotFoundError when no source has that name.
	GetSourceByName(ctx context.Context, name string) (*models.Source, error)
	// ListSources returns every source, newest first.
	ListSources(ctx context.Context) ([]*models.Source, error)
	ListEnabledSources(ctx context.Context) ([]*models.Source, error)
	MarkSourceRun(ctx context.Context, id string, at time.Time) error
}

type JobStore interface {
	CreateJob(ctx context.Context, job *models.Job) error
	UpdateJob(ctx context.Context, job *models.Job) error
	GetJob(ctx context.Context, id string) (*models.Job, error)
	// ListJobsBySource returns at most limit jobs, most recent first.
	ListJobsBySource(ctx context.Context, sourceID string, limit int) ([]*models.Job, error)
}

type LogStore interface {
	// AppendLog assigns Seq and persists the entry.
	AppendLog(ctx context.Context, entry *models.JobLog) error
	// ListLogs returns a job's logs by timestamp ascending, ties broken by Seq.
	ListLogs(ctx context.Context, jobID string) ([]*models.JobLog, error)
}

type InternshipStore interface {
	// InsertInternships writes all records in one transaction.
	InsertInternships(ctx context.Context, items []*models.Internship) error
	// SearchInternships returns one page of open internships, newest first,
	// together with the number of matches before paging.
	SearchInternships(ctx context.Context, q models.InternshipQuery) ([]*models.Internship, int, error)
	CountInternshipsByJob(ctx context.Context, jobID string) (int, error)
}

// Store is implemented by every driver.
type Store interface {
	SourceStore
	JobStore
	LogStore
	InternshipStore

	Ping(ctx context.Context) error
	Close() error
}
