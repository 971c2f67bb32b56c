package job

import (
	"github.com/gofiber/fiber/v2"

	"nextstep/internal/apperr"
	"nextstep/internal/core/source"
	"nextstep/internal/storage"
)

type Handler struct {
	jobs    *JobService
	runner  *Runner
	sources storage.SourceStore
}

func NewJobHandler(jobs *JobService, runner *Runner, sources storage.SourceStore) *Handler {
	return &Handler{jobs: jobs, runner: runner, sources: sources}
}

// HandleRun queues a scrape of the source and answers before it executes.
func (h *Handler) HandleRun(c *fiber.Ctx) error {
	j, err := h.runner.Trigger(c.Context(), c.Params("id"))
	if err != nil {
		return apperr.Write(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(jobResponse{Message: "Scrape job queued", Job: j})
}

func (h *Handler) HandleListForSource(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := source.ParseID(id); err != nil {
		return apperr.Write(c, err)
	}
	if _, err := h.sources.GetSource(c.Context(), id); err != nil {
		return apperr.Write(c, err)
	}
	list, err := h.jobs.ListBySource(c.Context(), id)
	if err != nil {
		return apperr.Write(c, err)
	}
	return c.JSON(jobsResponse{Jobs: list})
}

func (h *Handler) HandleGet(c *fiber.Ctx) error {
	j, err := h.jobs.Get(c.Context(), c.Params("jobId"))
	if err != nil {
		return apperr.Write(c, err)
	}
	return c.JSON(jobResponse{Job: j})
}

func (h *Handler) HandleLogs(c *fiber.Ctx) error {
	logs, err := h.jobs.Logs(c.Context(), c.Params("jobId"))
	if err != nil {
		return apperr.Write(c, err)
	}
	return c.JSON(logsResponse{Logs: logs})
}
