package job

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"nextstep/internal/apperr"
	"nextstep/internal/core/listing"
	"nextstep/internal/logger"
	"nextstep/internal/models"
	"nextstep/internal/platform/tasks"
	"nextstep/internal/storage"
)

// ErrRunInProgress is recorded when another run holds the source's lock.
var ErrRunInProgress = errors.New("another scrape run for this source is in progress")

// Scraped listings are stored with these defaults and wait for review.
const (
	scrapedDurationMonths = 3
	scrapedMode           = models.ModeRemote
	scrapedType           = models.TypeInternship
)

type RunnerOptions struct {
	OwnerID    string
	JobTimeout time.Duration
	LockTTL    time.Duration
}

// Runner triggers scrape jobs and executes them to a terminal state.
type Runner struct {
	jobs        *JobService
	sources     storage.SourceStore
	internships storage.InternshipStore
	fetcher     ListingFetcher
	locker      Locker
	dispatcher  Dispatcher
	opts        RunnerOptions
	log         *logger.Logger
	now         func() time.Time
}

func NewRunner(jobs *JobService, sources storage.SourceStore, internships storage.InternshipStore,
	fetcher ListingFetcher, locker Locker, opts RunnerOptions) *Runner {
	if locker == nil {
		locker = NewLocalLocker()
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 10 * time.Minute
	}
	return &Runner{
		jobs:        jobs,
		sources:     sources,
		internships: internships,
		fetcher:     fetcher,
		locker:      locker,
		opts:        opts,
		log:         logger.New("JobRunner"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// UseDispatcher sets how triggered jobs are executed. It must be called
// before Trigger.
func (r *Runner) UseDispatcher(d Dispatcher) { r.dispatcher = d }

// Trigger records a queued job for the source and dispatches it. The job is
// persisted before dispatch, so it is visible even if execution never starts.
func (r *Runner) Trigger(ctx context.Context, sourceID string) (*models.Job, error) {
	if _, err := uuid.Parse(sourceID); err != nil {
		return nil, apperr.Validation("id", "invalid source id %q", sourceID)
	}
	src, err := r.sources.GetSource(ctx, sourceID)
	if err != nil {
		return nil, err
	}

	j, err := r.jobs.Create(ctx, src.ID)
	if err != nil {
		return nil, err
	}
	r.jobs.Log(ctx, j, models.LogInfo, "Scrape job queued", map[string]any{"sourceId": src.ID})

	if r.dispatcher == nil {
		err = errors.New("no dispatcher configured")
	} else {
		err = r.dispatcher.Dispatch(ctx, j.ID)
	}
	if err != nil {
		failed := *j
		cause := fmt.Errorf("dispatch job: %w", err)
		if markErr := r.jobs.MarkFailed(ctx, &failed, cause); markErr != nil {
			r.log.LogError("Failed to mark undispatched job as failed", markErr)
		}
		r.jobs.Log(ctx, &failed, models.LogError, "Scrape job failed", map[string]any{"error": cause.Error(), "sourceId": src.ID})
		return nil, cause
	}
	return j, nil
}

// Run executes a queued job. Failures of the scrape itself are recorded on
// the job; the returned error is reserved for problems recording state.
func (r *Runner) Run(ctx context.Context, jobID string) error {
	j, err := r.jobs.Get(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load job %s: %w", jobID, err)
	}
	if j.Status != models.JobQueued {
		r.log.LogWarnf("Skipping job %s: status is %s", j.ID, j.Status)
		return nil
	}

	if r.opts.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.JobTimeout)
		defer cancel()
	}
	// state must be recorded even after the run's deadline passes
	recordCtx := context.WithoutCancel(ctx)

	src, err := r.sources.GetSource(ctx, j.SourceID)
	if err != nil {
		return r.fail(recordCtx, j, err)
	}

	if err := r.jobs.MarkRunning(recordCtx, j); err != nil {
		return err
	}
	r.jobs.Log(recordCtx, j, models.LogInfo, "Started scraping for source: "+src.Name, map[string]any{"sourceId": src.ID})

	inserted, err := r.execute(ctx, j, src)
	if err != nil {
		return r.fail(recordCtx, j, err)
	}

	if err := r.jobs.MarkCompleted(recordCtx, j, inserted); err != nil {
		if failErr := r.fail(recordCtx, j, fmt.Errorf("record completion: %w", err)); failErr != nil {
			r.log.LogError("Failed to mark job as failed after completion error", failErr)
		}
		return err
	}
	r.jobs.Log(recordCtx, j, models.LogInfo, "Scrape job completed", map[string]any{"count": inserted})
	return nil
}

func (r *Runner) execute(ctx context.Context, j *models.Job, src *models.Source) (int, error) {
	release, ok, err := r.locker.TryLock(ctx, lockKey(src.ID), r.opts.LockTTL)
	if err != nil {
		return 0, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return 0, ErrRunInProgress
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			r.log.LogWarnf("Failed to release run lock for source %s: %v", src.ID, err)
		}
	}()

	found, err := r.fetcher.Fetch(ctx, src)
	if err != nil {
		return 0, err
	}

	items := make([]*models.Internship, 0, len(found))
	now := r.now()
	for _, l := range found {
		items = append(items, r.toInternship(l, src, j, now))
	}
	if err := r.internships.InsertInternships(ctx, items); err != nil {
		return 0, fmt.Errorf("insert internships: %w", err)
	}
	r.jobs.Log(context.WithoutCancel(ctx), j, models.LogInfo, fmt.Sprintf("Inserted %d internships from %s", len(items), src.Name), map[string]any{"count": len(items)})

	if err := r.sources.MarkSourceRun(ctx, src.ID, now); err != nil {
		return len(items), fmt.Errorf("update source last run: %w", err)
	}
	return len(items), nil
}

func (r *Runner) toInternship(l listing.Listing, src *models.Source, j *models.Job, now time.Time) *models.Internship {
	return &models.Internship{
		ID:               uuid.NewString(),
		Title:            l.Title,
		Description:      l.Description,
		Location:         l.Location,
		Mode:             scrapedMode,
		Type:             scrapedType,
		DurationInMonths: scrapedDurationMonths,
		Skills:           []string{},
		CreatedBy:        r.opts.OwnerID,
		Source:           models.OriginScraped,
		SourceID:         src.ID,
		JobID:            j.ID,
		CompanyName:      l.CompanyName,
		ExternalApplyURL: l.ApplyURL,
		PostedAt:         now,
		Status:           models.InternshipOpen,
		NeedsReview:      true,
		CreatedAt:        now,
	}
}

func (r *Runner) fail(ctx context.Context, j *models.Job, cause error) error {
	if err := r.jobs.MarkFailed(ctx, j, cause); err != nil {
		return err
	}
	r.jobs.Log(ctx, j, models.LogError, "Scrape job failed", map[string]any{"error": cause.Error(), "sourceId": j.SourceID})
	return nil
}

// HandleRunTask is the asynq handler for scrape:run tasks.
func (r *Runner) HandleRunTask(ctx context.Context, t *asynq.Task) error {
	p, err := tasks.ParseRunPayload(t)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	return r.Run(ctx, p.JobID)
}

func lockKey(sourceID string) string { return "scrape:lock:" + sourceID }
