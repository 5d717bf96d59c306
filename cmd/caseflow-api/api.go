// Package main provides the caseflow API server.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dukex/caseflow/pkg/cmd"
	"github.com/dukex/caseflow/pkg/models"
	"github.com/dukex/caseflow/pkg/services"
	"github.com/dukex/caseflow/pkg/web"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

const shutdownTimeout = 10 * time.Second

type API struct {
	logger *slog.Logger
	engine *cmd.Engine
}

func NewAPI(logger *slog.Logger, engine *cmd.Engine) *API {
	return &API{logger: logger, engine: engine}
}

func (a *API) App() *fiber.App {
	workflowService := services.NewWorkflow(a.engine.Repository, a.engine.Runner)
	handlers := web.NewAPIHandlers(workflowService, models.NewValidator(), a.engine.Bus)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker(healthcheck.Config{
		Probe: func(c fiber.Ctx) bool {
			return a.engine.Persistence.HealthCheck(c.Context()) == nil
		},
	}))

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("caseflow API")
	})

	web.RegisterRoutes(app, handlers, a.engine.Registry)

	return app
}

// Start serves until ctx is done or the process receives SIGINT/SIGTERM.
func (a *API) Start(ctx context.Context, port int) error {
	app := a.App()

	errCh := make(chan error, 1)

	go func() {
		errCh <- app.Listen(":"+strconv.Itoa(port), fiber.ListenConfig{DisableStartupMessage: true})
	}()

	a.logger.InfoContext(ctx, "caseflow API listening", "port", port)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-signals:
	case <-ctx.Done():
	}

	a.logger.InfoContext(ctx, "Shutting down caseflow API")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return app.ShutdownWithContext(shutdownCtx)
}
