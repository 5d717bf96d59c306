package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/caseflow/pkg/models"
	"github.com/dukex/caseflow/pkg/otelhelper"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// RunPublisher announces finished runs.
type RunPublisher interface {
	PublishRunCompleted(ctx context.Context, run *models.RunResult) error
}

// RunObserver records run metrics.
type RunObserver interface {
	RunStarted()
	ObserveRun(run *models.RunResult)
	ObserveEvent(kind models.EventKind)
}

// Runner executes whole workflows step by step.
type Runner struct {
	logger     *slog.Logger
	repository *Repository
	executor   *Executor
	publisher  RunPublisher
	observer   RunObserver
	tracer     trace.Tracer
	saveRuns   bool
	now        func() time.Time
	newID      func() string
}

type RunnerOption func(*Runner)

// WithRunHistory stores every run result through the repository.
func WithRunHistory() RunnerOption {
	return func(r *Runner) {
		r.saveRuns = true
	}
}

func WithRunPublisher(publisher RunPublisher) RunnerOption {
	return func(r *Runner) {
		r.publisher = publisher
	}
}

func WithObserver(observer RunObserver) RunnerOption {
	return func(r *Runner) {
		r.observer = observer
	}
}

func WithTracer(tracer trace.Tracer) RunnerOption {
	return func(r *Runner) {
		r.tracer = tracer
	}
}

func WithRunnerClock(now func() time.Time) RunnerOption {
	return func(r *Runner) {
		r.now = now
	}
}

func NewRunner(logger *slog.Logger, repository *Repository, executor *Executor, opts ...RunnerOption) *Runner {
	r := &Runner{
		logger:     logger.With("module", "workflow_runner"),
		repository: repository,
		executor:   executor,
		tracer:     otelhelper.NoopTracer(),
		now:        time.Now,
		newID:      newID,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Execute runs the workflow identified by workflowID for tenantID. The only
// error returned is a load failure, in which case nothing ran. Step failures
// are reported in the result.
func (r *Runner) Execute(ctx context.Context, workflowID string, payload map[string]any, tenantID string) (*models.RunResult, error) {
	logger := r.logger.With("workflow_id", workflowID, "tenant_id", tenantID)

	workflow, err := r.repository.Load(ctx, workflowID, tenantID)
	if err != nil {
		logger.WarnContext(ctx, "Workflow not loaded", "error", err)

		return nil, err
	}

	return r.run(ctx, logger, workflow, payload, tenantID), nil
}

// HandleEvent runs every active workflow of the event's tenant whose trigger
// is the event kind, one after another.
func (r *Runner) HandleEvent(ctx context.Context, event models.TriggeringEvent) ([]*models.RunResult, error) {
	logger := r.logger.With("tenant_id", event.TenantID, "event_kind", event.Kind)

	if r.observer != nil {
		r.observer.ObserveEvent(event.Kind)
	}

	ctx, span := otelhelper.StartSpan(ctx, r.tracer, "workflow.handle_event",
		attribute.String(otelhelper.TenantIDKey, event.TenantID),
		attribute.String(otelhelper.EventKindKey, string(event.Kind)),
	)
	defer span.End()

	workflows, err := r.repository.Triggered(ctx, event.TenantID, event.Kind)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to find workflows for %s: %w", event.Kind, err)
	}

	logger.InfoContext(ctx, "Routing event", "workflows", len(workflows))

	results := make([]*models.RunResult, 0, len(workflows))

	for _, workflow := range workflows {
		results = append(results, r.run(ctx, logger.With("workflow_id", workflow.ID), workflow, event.Payload, event.TenantID))
	}

	return results, nil
}

func (r *Runner) run(
	ctx context.Context,
	logger *slog.Logger,
	workflow *models.Workflow,
	payload map[string]any,
	tenantID string,
) *models.RunResult {
	result := &models.RunResult{
		ID:            r.newID(),
		WorkflowID:    workflow.ID,
		TenantID:      tenantID,
		ExecutedSteps: make([]models.StepOutcome, 0, len(workflow.Steps)),
		Errors:        make([]string, 0),
		StartedAt:     r.now().UTC(),
	}

	logger = logger.With("run_id", result.ID)

	ctx, span := otelhelper.StartSpan(ctx, r.tracer, "workflow.execute",
		attribute.String(otelhelper.WorkflowIDKey, workflow.ID),
		attribute.String(otelhelper.TenantIDKey, tenantID),
		attribute.String(otelhelper.RunIDKey, result.ID),
	)
	defer span.End()

	if r.observer != nil {
		r.observer.RunStarted()
	}

	logger.InfoContext(ctx, "Starting workflow run", "steps", len(workflow.Steps))

	for _, step := range workflow.Steps {
		outcome := r.runStep(ctx, workflow, step, payload, tenantID)

		result.ExecutedSteps = append(result.ExecutedSteps, outcome)

		if outcome.Result == models.StepResultFailed {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", outcome.StepID, outcome.Message))
		}
	}

	result.Success = len(result.Errors) == 0
	result.FinishedAt = r.now().UTC()

	if err := r.repository.IncrementStats(ctx, workflow.ID, result.FinishedAt); err != nil {
		logger.ErrorContext(ctx, "Failed to update workflow statistics", "error", err)
	}

	r.finish(ctx, logger, result)

	if !result.Success {
		span.SetAttributes(attribute.Int("caseflow.run.failed_steps", len(result.Errors)))
	}

	logger.InfoContext(ctx, "Completed workflow run", "success", result.Success, "failed_steps", len(result.Errors))

	return result
}

func (r *Runner) runStep(
	ctx context.Context,
	workflow *models.Workflow,
	step *models.Step,
	payload map[string]any,
	tenantID string,
) models.StepOutcome {
	if step == nil {
		return r.executor.RunStep(ctx, workflow, step, payload, tenantID)
	}

	ctx, span := otelhelper.StartSpan(ctx, r.tracer, "workflow.step",
		attribute.String(otelhelper.StepIDKey, step.ID),
		attribute.String(otelhelper.ActionKey, string(step.Action)),
	)
	defer span.End()

	outcome := r.executor.RunStep(ctx, workflow, step, payload, tenantID)

	span.SetAttributes(attribute.String(otelhelper.StepResultKey, string(outcome.Result)))

	if outcome.Result == models.StepResultFailed {
		otelhelper.SetError(span, errors.New(outcome.Message))
	}

	return outcome
}

// finish hands the result to the optional sinks. Their failures never
// change the result.
func (r *Runner) finish(ctx context.Context, logger *slog.Logger, result *models.RunResult) {
	if r.observer != nil {
		r.observer.ObserveRun(result)
	}

	if r.saveRuns {
		if err := r.repository.SaveRun(ctx, result); err != nil {
			logger.ErrorContext(ctx, "Failed to save run", "error", err)
		}
	}

	if r.publisher != nil {
		if err := r.publisher.PublishRunCompleted(ctx, result); err != nil {
			logger.ErrorContext(ctx, "Failed to publish run completion", "error", err)
		}
	}
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return id.String()
}
