package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"nextstep/internal/config"
	"nextstep/internal/core/job"
	"nextstep/internal/logger"
	"nextstep/internal/platform/tasks"
	"nextstep/internal/server"
	"nextstep/internal/worker"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the scrape worker",
	RunE:  runServe,
}

var servePreviewTimeout time.Duration

func init() {
	serveCmd.Flags().DurationVar(&servePreviewTimeout, "preview-timeout", 30*time.Second, "Upper bound for a live preview request")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	logr := logger.New("main")
	logr.LogInfof("Starting at %s (env=%s, storage=%s)", cfg.HTTPAddr, cfg.AppEnv, cfg.StorageDriver)

	svc, err := buildServices(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	// With Redis, runs go through the asynq worker; otherwise they run on
	// goroutines inside this process.
	var (
		asynqServer *asynq.Server
		inline      *job.InlineDispatcher
	)
	if svc.redis != nil {
		taskClient := tasks.New(svc.redis)
		defer taskClient.Close()
		svc.runner.UseDispatcher(job.NewQueueDispatcher(taskClient))

		mux := worker.NewMux()
		mux.HandleFunc(tasks.TaskTypeScrapeRun, svc.runner.HandleRunTask)
		asynqServer = worker.NewServer(svc.redis, cfg.WorkerConcurrency)
		if err := asynqServer.Start(mux.Mux()); err != nil {
			return fmt.Errorf("start worker: %w", err)
		}
	} else {
		logr.LogWarnf("REDIS_ADDR not set; scrape jobs run in-process")
		inline = job.NewInlineDispatcher(svc.runner.Run)
		svc.runner.UseDispatcher(inline)
	}

	app := fiber.New(fiber.Config{
		AppName: "NextStep Ingestion",
		JSONEncoder: func(v interface{}) ([]byte, error) {
			var buf bytes.Buffer
			encoder := json.NewEncoder(&buf)
			encoder.SetEscapeHTML(false)
			if err := encoder.Encode(v); err != nil {
				return nil, err
			}
			return buf.Bytes(), nil
		},
	})
	app.Use(recover.New())

	if cfg.JWTSecret == "" {
		logr.LogWarnf("JWT_SECRET not set; admin routes are unauthenticated")
	}
	healthHandler := server.RegisterRoutes(app, server.Dependencies{
		Store:          svc.store,
		Sources:        svc.sources,
		Extract:        svc.extract,
		Jobs:           svc.jobs,
		Runner:         svc.runner,
		Aggregate:      svc.aggregate,
		Redis:          svc.redis,
		JWTSecret:      cfg.JWTSecret,
		PreviewTimeout: servePreviewTimeout,
	})
	healthHandler.SetReady()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		logr.LogInfo("Shutting down...")
		if asynqServer != nil {
			asynqServer.Shutdown()
		}
		_ = app.ShutdownWithTimeout(5 * time.Second)
	}()

	if err := app.Listen(cfg.HTTPAddr); err != nil {
		return fmt.Errorf("server listen: %w", err)
	}
	if inline != nil {
		inline.Wait()
	}
	return nil
}

