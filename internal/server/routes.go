package server

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"nextstep/internal/core/aggregate"
	"nextstep/internal/core/extract"
	"nextstep/internal/core/job"
	"nextstep/internal/core/source"
	"nextstep/internal/health"
	"nextstep/internal/platform/redis"
	"nextstep/internal/server/middleware"
	"nextstep/internal/storage"
)

type Dependencies struct {
	Store     storage.Store
	Sources   *source.Service
	Extract   *extract.Service
	Jobs      *job.JobService
	Runner    *job.Runner
	Aggregate *aggregate.Service
	// Redis is optional.
	Redis *redis.Service

	JWTSecret      string
	PreviewTimeout time.Duration
}

func RegisterRoutes(app *fiber.App, d Dependencies) *health.HealthHandler {
	checks := map[string]health.Checker{"storage": d.Store.Ping}
	if d.Redis != nil {
		checks["redis"] = d.Redis.HealthCheck
	}
	healthHandler := health.NewHealthHandler(checks)
	app.Get("/api/health", health.HealthLimiter(), healthHandler.HandleHealth)

	api := app.Group("/api")

	aggregateHandler := aggregate.NewAggregateHandler(d.Aggregate)
	api.Get("/internships/aggregated/list", aggregateHandler.HandleList)

	admin := api.Group("/admin/scraping", middleware.RequireAdmin(d.JWTSecret))

	sourceHandler := source.NewSourceHandler(d.Sources, d.Extract, d.PreviewTimeout)
	admin.Post("/sources", sourceHandler.HandleCreate)
	admin.Get("/sources", sourceHandler.HandleList)
	admin.Get("/sources/:id", sourceHandler.HandleGet)
	admin.Put("/sources/:id", sourceHandler.HandleUpdate)
	admin.Get("/sources/:id/live-preview", sourceHandler.HandleLivePreview)

	jobHandler := job.NewJobHandler(d.Jobs, d.Runner, d.Store)
	admin.Get("/sources/:id/jobs", jobHandler.HandleListForSource)
	admin.Post("/sources/:id/run", jobHandler.HandleRun)
	admin.Get("/jobs/:jobId", jobHandler.HandleGet)
	admin.Get("/jobs/:jobId/logs", jobHandler.HandleLogs)

	return healthHandler
}
