package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/caseflow/pkg/actions"
	"github.com/dukex/caseflow/pkg/eventbus"
	"github.com/dukex/caseflow/pkg/integrations/notify"
	"github.com/dukex/caseflow/pkg/integrations/redisqueue"
	"github.com/dukex/caseflow/pkg/metrics"
	"github.com/dukex/caseflow/pkg/otelhelper"
	"github.com/dukex/caseflow/pkg/persistence"
	"github.com/dukex/caseflow/pkg/scheduler"
	"github.com/dukex/caseflow/pkg/workflow"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	redis "github.com/redis/go-redis/v9"
)

// Engine holds everything needed to run workflows in one process.
type Engine struct {
	Persistence persistence.Persistence
	Bus         eventbus.EventBus
	Redis       *redis.Client
	Queue       *redisqueue.Queue
	Deferrer    *scheduler.RedisDeferrer
	Dispatcher  *actions.Dispatcher
	Repository  *workflow.Repository
	Runner      *workflow.Runner
	Registry    *prometheus.Registry

	logger   *slog.Logger
	shutdown otelhelper.ShutdownFunc
}

// NewEngine connects storage, the bus and, when configured, Redis, then
// builds the runner. Close releases what was opened, also after a failure.
func NewEngine(ctx context.Context, logger *slog.Logger, serviceName string, cfg Config) (engine *Engine, err error) {
	e := &Engine{logger: logger, Registry: prometheus.NewRegistry()}

	defer func() {
		if err != nil {
			e.Close(ctx)
		}
	}()

	e.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	e.Persistence, err = NewPersistence(ctx, logger, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	e.Bus, err = NewEventBus(logger, cfg.EventBus, serviceName, cfg.KafkaBrokers)
	if err != nil {
		return nil, err
	}

	if cfg.RedisURL != "" {
		e.Redis, err = redisqueue.Connect(ctx, logger, cfg.RedisURL)
		if err != nil {
			return nil, err
		}

		e.Queue = redisqueue.NewQueue(e.Redis, logger)
		e.Deferrer = scheduler.NewRedisDeferrer(e.Redis, logger)
	}

	tracer := otelhelper.NoopTracer()

	if cfg.Tracing {
		tracer, e.shutdown, err = otelhelper.NewTracer(ctx, serviceName)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize tracer: %w", err)
		}
	}

	e.Dispatcher = actions.NewDispatcher(logger, NewCollaborators(logger, e.Persistence, e.Bus, e.Queue),
		actions.WithTimeout(cfg.ActionTimeout),
	)

	var executorOpts []workflow.ExecutorOption
	if e.Deferrer != nil {
		executorOpts = append(executorOpts, workflow.WithDeferrer(e.Deferrer))
	}

	runnerOpts := []workflow.RunnerOption{
		workflow.WithObserver(metrics.New(e.Registry)),
		workflow.WithRunPublisher(eventbus.NewRunPublisher(e.Bus)),
		workflow.WithTracer(tracer),
	}
	if cfg.RunHistory {
		runnerOpts = append(runnerOpts, workflow.WithRunHistory())
	}

	e.Repository = workflow.NewRepository(e.Persistence)
	e.Runner = workflow.NewRunner(logger, e.Repository, workflow.NewExecutor(logger, e.Dispatcher, executorOpts...), runnerOpts...)

	return e, nil
}

// NewPoller builds the deferred-step and reminder poller, or nil without Redis.
func (e *Engine) NewPoller(spec string) *scheduler.Poller {
	if e.Redis == nil {
		return nil
	}

	return scheduler.NewPoller(e.logger, e.Dispatcher,
		scheduler.WithDeferredSteps(e.Deferrer),
		scheduler.WithReminders(e.Queue, notify.NewNotifier(e.Bus)),
		scheduler.WithRunRecording(e.Repository, eventbus.NewRunPublisher(e.Bus)),
		scheduler.WithSpec(spec),
	)
}

func (e *Engine) Close(ctx context.Context) {
	if e.shutdown != nil {
		if err := e.shutdown(ctx); err != nil {
			e.logger.ErrorContext(ctx, "Failed to shutdown tracer", "error", err)
		}
	}

	if e.Redis != nil {
		if err := e.Redis.Close(); err != nil {
			e.logger.ErrorContext(ctx, "Failed to close redis", "error", err)
		}
	}

	if e.Bus != nil {
		if err := e.Bus.Close(); err != nil {
			e.logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
		}
	}

	if e.Persistence != nil {
		if err := e.Persistence.Close(ctx); err != nil {
			e.logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
		}
	}
}
