package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"nextstep/internal/config"
	"nextstep/internal/core/job"
	"nextstep/internal/platform/tasks"
)

var triggerCmd = &cobra.Command{
	Use:   "trigger",
	Short: "Start a scrape job for one source",
	Long: "Creates a queued scrape job for the source. With --server the job is queued through a running API server, " +
		"which is the way to go while serve holds the embedded store. Otherwise the store is opened directly; with --wait, " +
		"or when no Redis is configured, the job runs in this process. The final job record is printed.",
	RunE: runTrigger,
}

var (
	triggerSourceID     string
	triggerWait         bool
	triggerServer       string
	triggerPollInterval time.Duration
	triggerWaitTimeout  time.Duration
)

func init() {
	triggerCmd.Flags().StringVarP(&triggerSourceID, "source", "s", "", "Source ID to scrape (required)")
	triggerCmd.Flags().BoolVarP(&triggerWait, "wait", "w", false, "Wait for the job to finish")
	triggerCmd.Flags().StringVar(&triggerServer, "server", os.Getenv("NEXTSTEP_SERVER_URL"), "Base URL of a running API server, e.g. http://localhost:8081")
	triggerCmd.Flags().DurationVar(&triggerPollInterval, "poll-interval", 2*time.Second, "Job status poll interval with --server --wait")
	triggerCmd.Flags().DurationVar(&triggerWaitTimeout, "wait-timeout", 15*time.Minute, "Give up waiting after this long with --server --wait")

	if err := triggerCmd.MarkFlagRequired("source"); err != nil {
		panic(fmt.Sprintf("failed to mark source flag as required: %v", err))
	}

	rootCmd.AddCommand(triggerCmd)
}

func runTrigger(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg := config.Load()

	if triggerServer != "" {
		client, err := newAdminClient(triggerServer, cfg.JWTSecret)
		if err != nil {
			return err
		}
		j, err := client.RunSource(ctx, triggerSourceID)
		if err != nil {
			return err
		}
		if triggerWait {
			if j, err = client.WaitForJob(ctx, j.ID, triggerPollInterval, triggerWaitTimeout); err != nil {
				return err
			}
		}
		return printJSON(j)
	}

	svc, err := buildServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	var inline *job.InlineDispatcher
	if triggerWait || svc.redis == nil {
		inline = job.NewInlineDispatcher(svc.runner.Run)
		svc.runner.UseDispatcher(inline)
	} else {
		taskClient := tasks.New(svc.redis)
		defer taskClient.Close()
		svc.runner.UseDispatcher(job.NewQueueDispatcher(taskClient))
	}

	j, err := svc.runner.Trigger(ctx, triggerSourceID)
	if err != nil {
		return err
	}

	if inline != nil {
		inline.Wait()
		if j, err = svc.jobs.Get(ctx, j.ID); err != nil {
			return err
		}
	}
	return printJSON(j)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
