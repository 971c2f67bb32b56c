package job

import (
	"context"
	"fmt"
	"sync"

	"github.com/hibiken/asynq"

	"nextstep/internal/logger"
	"nextstep/internal/platform/tasks"
)

// Enqueuer is satisfied by tasks.Client.
type Enqueuer interface {
	Enqueue(task *asynq.Task, queue string, maxRetries int) error
}

// QueueDispatcher hands jobs to the asynq worker. Runs are never retried: a
// failed job stays failed and a new trigger creates a new job.
type QueueDispatcher struct {
	client Enqueuer
}

func NewQueueDispatcher(client Enqueuer) *QueueDispatcher {
	return &QueueDispatcher{client: client}
}

func (d *QueueDispatcher) Dispatch(ctx context.Context, jobID string) error {
	task, err := tasks.NewRunTask(jobID)
	if err != nil {
		return err
	}
	if err := d.client.Enqueue(task, tasks.QueueScraping, 0); err != nil {
		return fmt.Errorf("enqueue %s: %w", tasks.TaskTypeScrapeRun, err)
	}
	return nil
}

// InlineDispatcher runs jobs on goroutines in this process.
type InlineDispatcher struct {
	run func(ctx context.Context, jobID string) error
	wg  sync.WaitGroup
	log *logger.Logger
}

func NewInlineDispatcher(run func(ctx context.Context, jobID string) error) *InlineDispatcher {
	return &InlineDispatcher{run: run, log: logger.New("InlineDispatcher")}
}

// Dispatch starts the run detached from the caller's context.
func (d *InlineDispatcher) Dispatch(ctx context.Context, jobID string) error {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.run(context.Background(), jobID); err != nil {
			d.log.LogErrorf("Job %s: %v", jobID, err)
		}
	}()
	return nil
}

// Wait blocks until every dispatched run has returned.
func (d *InlineDispatcher) Wait() { d.wg.Wait() }
