// Package main provides the caseflow worker, which runs workflows for events
// received on the bus or the Redis intake list.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukex/caseflow/pkg/cmd"
	"github.com/dukex/caseflow/pkg/events"
	"github.com/dukex/caseflow/pkg/intake"
	"github.com/dukex/caseflow/pkg/integrations/notify"
	"github.com/dukex/caseflow/pkg/models"
	"github.com/dukex/caseflow/pkg/scheduler"
	"github.com/dukex/caseflow/pkg/services"
)

const stopTimeout = 10 * time.Second

type Worker struct {
	logger       *slog.Logger
	engine       *cmd.Engine
	service      *services.Workflow
	intakeQueue  string
	pollSchedule string

	consumer *intake.Consumer
	poller   *scheduler.Poller
}

type Option func(*Worker)

func WithIntakeQueue(queue string) Option {
	return func(w *Worker) {
		w.intakeQueue = queue
	}
}

func WithPollSchedule(spec string) Option {
	return func(w *Worker) {
		w.pollSchedule = spec
	}
}

func NewWorker(logger *slog.Logger, engine *cmd.Engine, opts ...Option) *Worker {
	w := &Worker{
		logger:  logger.With("module", "worker"),
		engine:  engine,
		service: services.NewWorkflow(engine.Repository, engine.Runner),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Start subscribes to the bus and starts the optional Redis consumers.
func (w *Worker) Start(ctx context.Context) error {
	bus := w.engine.Bus

	if err := bus.Handle(events.EventReceivedType, w.handleEventReceived); err != nil {
		return fmt.Errorf("failed to register event handler: %w", err)
	}

	if err := bus.Handle(events.NotificationRequestedType, notify.NewDelivery(w.logger).Handle); err != nil {
		return fmt.Errorf("failed to register notification handler: %w", err)
	}

	if err := bus.Subscribe(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to event bus: %w", err)
	}

	if w.engine.Redis != nil && w.intakeQueue != "" {
		consumer, err := intake.NewConsumer(w.engine.Redis, w.intakeQueue, w.handleEvent, w.logger)
		if err != nil {
			return err
		}

		consumer.Start(ctx)
		w.consumer = consumer
	}

	if poller := w.engine.NewPoller(w.pollSchedule); poller != nil {
		if err := poller.Start(ctx); err != nil {
			return err
		}

		w.poller = poller
	}

	w.logger.InfoContext(ctx, "Worker started",
		"intake", w.consumer != nil,
		"poller", w.poller != nil,
	)

	return nil
}

func (w *Worker) Stop(ctx context.Context) {
	w.logger.InfoContext(ctx, "Shutting down worker")

	if w.consumer != nil {
		w.consumer.Stop(ctx)
	}

	if w.poller != nil {
		if err := w.poller.Stop(ctx); err != nil {
			w.logger.ErrorContext(ctx, "Failed to stop poller", "error", err)
		}
	}
}

// Run starts the worker and blocks until SIGINT/SIGTERM or ctx is done.
func (w *Worker) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := w.Start(ctx); err != nil {
		return err
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-signals:
	case <-ctx.Done():
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), stopTimeout)
	defer stopCancel()

	w.Stop(stopCtx)

	return nil
}

func (w *Worker) handleEventReceived(ctx context.Context, event any) error {
	received, ok := event.(*events.EventReceived)
	if !ok {
		return fmt.Errorf("unexpected event %T", event)
	}

	if err := received.Validate(); err != nil {
		// redelivering an invalid event cannot succeed
		w.logger.WarnContext(ctx, "Dropping invalid event", "event_id", received.ID, "error", err)

		return nil
	}

	return w.handleEvent(ctx, received.TriggeringEvent())
}

func (w *Worker) handleEvent(ctx context.Context, event models.TriggeringEvent) error {
	results, err := w.service.HandleEvent(ctx, event)
	if err != nil {
		if services.IsValidationError(err) {
			w.logger.WarnContext(ctx, "Dropping invalid event", "event_kind", event.Kind, "error", err)

			return nil
		}

		return err
	}

	failed := 0

	for _, result := range results {
		if !result.Success {
			failed++
		}
	}

	w.logger.InfoContext(ctx, "Event handled",
		"tenant_id", event.TenantID,
		"event_kind", event.Kind,
		"runs", len(results),
		"failed_runs", failed,
	)

	return nil
}
