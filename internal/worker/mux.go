package worker

import (
	"context"
	"time"

	"github.com/hibiken/asynq"

	"nextstep/internal/logger"
	"nextstep/internal/platform/redis"
	"nextstep/internal/platform/tasks"
)

type Mux struct {
	mux *asynq.ServeMux
	log *logger.Logger
}

func NewMux() *Mux {
	m := &Mux{mux: asynq.NewServeMux(), log: logger.New("Worker")}
	m.mux.Use(m.logTask)
	return m
}

func (m *Mux) HandleFunc(t string, h func(ctx context.Context, task *asynq.Task) error) {
	m.mux.HandleFunc(t, h)
}

func (m *Mux) Mux() *asynq.ServeMux { return m.mux }

func (m *Mux) logTask(next asynq.Handler) asynq.Handler {
	return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
		start := time.Now()
		err := next.ProcessTask(ctx, t)
		if err != nil {
			m.log.Error().Str("task", t.Type()).Dur("took", time.Since(start)).Err(err).Msg("Task failed")
			return err
		}
		m.log.LogDebugf("Task %s processed in %v", t.Type(), time.Since(start))
		return nil
	})
}

// NewServer builds the asynq server consuming the scraping queue.
func NewServer(r *redis.Service, concurrency int) *asynq.Server {
	return asynq.NewServer(r.AsynqRedisOpt(), asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{tasks.QueueScraping: 1},
	})
}
