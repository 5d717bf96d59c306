package main

import (
	"context"
	"os"
	"slices"

	"github.com/dukex/caseflow/pkg/cmd"
	"github.com/dukex/caseflow/pkg/log"
	"github.com/joho/godotenv"
	cli "github.com/urfave/cli/v3"
)

const defaultPort = 9091

func main() {
	_ = godotenv.Load()

	command := &cli.Command{
		Name:                  "caseflow-api",
		Usage:                 "Manage and run case workflows over HTTP",
		EnableShellCompletion: true,
		Flags: slices.Concat(cmd.CommonFlags(), []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
		}),
		Action: func(ctx context.Context, command *cli.Command) error {
			cfg := cmd.ConfigFromCommand(command)
			log.Setup(cfg.LogLevel, cfg.LogFormat)

			logger := log.WithModule("caseflow-api")

			logger.InfoContext(ctx, "Initializing caseflow API")

			engine, err := cmd.NewEngine(ctx, logger, "caseflow-api", cfg)
			if err != nil {
				return err
			}
			defer engine.Close(ctx)

			return NewAPI(logger, engine).Start(ctx, command.Int("port"))
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		log.WithModule("caseflow-api").Error("caseflow API stopped", "error", err)
		os.Exit(1)
	}
}
