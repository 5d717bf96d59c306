package main

import (
	"context"
	"os"
	"slices"

	"github.com/dukex/caseflow/pkg/cmd"
	"github.com/dukex/caseflow/pkg/intake"
	"github.com/dukex/caseflow/pkg/log"
	"github.com/dukex/caseflow/pkg/scheduler"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	cli "github.com/urfave/cli/v3"
)

func main() {
	_ = godotenv.Load()

	command := &cli.Command{
		Name:                  "caseflow-worker",
		Usage:                 "Run workflows for events received on the bus",
		EnableShellCompletion: true,
		Flags: slices.Concat(cmd.CommonFlags(), []cli.Flag{
			&cli.StringFlag{
				Name:    "worker-id",
				Aliases: []string{"id"},
				Usage:   "Custom worker ID (auto-generated if not provided)",
				Sources: cli.EnvVars("WORKER_ID"),
			},
			&cli.StringFlag{
				Name:    "intake-queue",
				Usage:   "Redis list to read triggering events from (requires --redis-url)",
				Value:   intake.DefaultQueue,
				Sources: cli.EnvVars("INTAKE_QUEUE"),
			},
			&cli.StringFlag{
				Name:    "poll-schedule",
				Usage:   "Cron schedule of the deferred step and reminder poller",
				Value:   scheduler.DefaultSpec,
				Sources: cli.EnvVars("POLL_SCHEDULE"),
			},
		}),
		Action: func(ctx context.Context, command *cli.Command) error {
			cfg := cmd.ConfigFromCommand(command)
			log.Setup(cfg.LogLevel, cfg.LogFormat)

			workerID := command.String("worker-id")
			if workerID == "" {
				workerID = "worker-" + uuid.New().String()[:8]
			}

			logger := log.WithModule("caseflow-worker").With("worker_id", workerID)

			logger.InfoContext(ctx, "Initializing caseflow worker")

			engine, err := cmd.NewEngine(ctx, logger, "caseflow-worker", cfg)
			if err != nil {
				return err
			}
			defer engine.Close(ctx)

			worker := NewWorker(logger, engine,
				WithIntakeQueue(command.String("intake-queue")),
				WithPollSchedule(command.String("poll-schedule")),
			)

			return worker.Run(ctx)
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		log.WithModule("caseflow-worker").Error("caseflow worker stopped", "error", err)
		os.Exit(1)
	}
}
