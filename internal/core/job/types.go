package job

import (
	"context"
	"time"

	"nextstep/internal/core/listing"
	"nextstep/internal/models"
)

// RecentJobsLimit bounds the per-source job history returned to admins.
const RecentJobsLimit = 20

// Dispatcher hands a queued job to whatever executes it.
type Dispatcher interface {
	Dispatch(ctx context.Context, jobID string) error
}

// Locker serializes runs against the same source.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, ok bool, err error)
}

// Publisher broadcasts job status changes; redis.Service implements it.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload interface{}) error
}

// ListingFetcher is satisfied by extract.Service.
type ListingFetcher interface {
	Fetch(ctx context.Context, src *models.Source) ([]listing.Listing, error)
}

// StatusEvent is published on the job's channel after every transition.
type StatusEvent struct {
	JobID  string           `json:"job_id"`
	Status models.JobStatus `json:"status"`
}

type jobResponse struct {
	Message string      `json:"message,omitempty"`
	Job     *models.Job `json:"job"`
}

type jobsResponse struct {
	Jobs []*models.Job `json:"jobs"`
}

type logsResponse struct {
	Logs []*models.JobLog `json:"logs"`
}
