package models

import "time"

// JobStatus tracks a scrape job through queued -> running -> completed|failed.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Terminal reports whether no further transitions are allowed.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// Job is one execution attempt against a Source.
type Job struct {
	ID            string     `json:"id"`
	SourceID      string     `json:"sourceId"`
	Status        JobStatus  `json:"status"`
	StartedAt     *time.Time `json:"startedAt,omitempty"`
	FinishedAt    *time.Time `json:"finishedAt,omitempty"`
	ErrorMessage  string     `json:"errorMessage,omitempty"`
	InsertedCount int        `json:"insertedCount"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// LogLevel is the severity of a job log entry.
type LogLevel string

const (
	LogInfo    LogLevel = "info"
	LogWarning LogLevel = "warning"
	LogError   LogLevel = "error"
)

// JobLog is an append-only event recorded while a job runs.
type JobLog struct {
	ID        string         `json:"id"`
	JobID     string         `json:"jobId"`
	Level     LogLevel       `json:"level"`
	Message   string         `json:"message"`
	Meta      map[string]any `json:"meta,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Seq       uint64         `json:"seq"`
}
