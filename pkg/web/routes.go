package web

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes mounts the API. gatherer may be nil to leave /metrics out.
func RegisterRoutes(app *fiber.App, handlers *APIHandlers, gatherer prometheus.Gatherer) {
	app.Get("/health", handlers.HealthCheck)

	if gatherer != nil {
		app.Get("/metrics", MetricsHandler(gatherer))
	}

	w := app.Group("/workflows", RequireTenant)
	w.Get("/", handlers.GetWorkflows)
	w.Post("/", handlers.CreateWorkflow)
	w.Get("/:id", handlers.GetWorkflow)
	w.Patch("/:id", handlers.UpdateWorkflow)
	w.Delete("/:id", handlers.DeleteWorkflow)
	w.Post("/:id/execute", handlers.ExecuteWorkflow)
	w.Get("/:id/runs", handlers.GetWorkflowRuns)

	app.Post("/events", RequireTenant, handlers.PostEvent)

	app.Use(func(c fiber.Ctx) error {
		return notFound(c, "route not found")
	})
}

// MetricsHandler exposes gatherer in the Prometheus text format.
func MetricsHandler(gatherer prometheus.Gatherer) fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
}
