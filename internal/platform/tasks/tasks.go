package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"nextstep/internal/platform/redis"
)

const (
	TaskTypeScrapeRun = "scrape:run"
	QueueScraping     = "scraping"
)

// RunPayload identifies the job a scrape:run task executes.
type RunPayload struct {
	JobID string `json:"job_id"`
}

func NewRunTask(jobID string) (*asynq.Task, error) {
	b, err := json.Marshal(RunPayload{JobID: jobID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeScrapeRun, b), nil
}

// ParseRunPayload decodes a scrape:run payload; it fails on an empty job id.
func ParseRunPayload(task *asynq.Task) (RunPayload, error) {
	var p RunPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return p, fmt.Errorf("decode %s payload: %w", task.Type(), err)
	}
	if p.JobID == "" {
		return p, fmt.Errorf("%s payload has no job_id", task.Type())
	}
	return p, nil
}

type Client struct{ c *asynq.Client }

func New(r *redis.Service) *Client { return &Client{c: asynq.NewClient(r.AsynqRedisOpt())} }

func (t *Client) Enqueue(task *asynq.Task, queue string, maxRetries int) error {
	_, err := t.c.Enqueue(task, asynq.Queue(queue), asynq.MaxRetry(maxRetries))
	return err
}

func (t *Client) Close() error { return t.c.Close() }
