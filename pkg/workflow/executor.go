// Package workflow runs workflows: it evaluates each step's conditions,
// applies delays and dispatches the step actions.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/caseflow/pkg/actions"
	"github.com/dukex/caseflow/pkg/conditions"
	"github.com/dukex/caseflow/pkg/models"
)

const (
	conditionsNotMet = "conditions not met"
	missingStep      = "step definition is missing"
)

// Dispatcher performs the action of one step.
type Dispatcher interface {
	Dispatch(ctx context.Context, req actions.Request) error
}

// DeferredStep is a step dispatch postponed by its delay.
type DeferredStep struct {
	ID         string         `json:"id"`
	WorkflowID string         `json:"workflow_id"`
	TenantID   string         `json:"tenant_id"`
	Step       *models.Step   `json:"step"`
	Payload    map[string]any `json:"payload"`
	DueAt      time.Time      `json:"due_at"`
}

// Request rebuilds the dispatch request of a deferred step.
func (d DeferredStep) Request() actions.Request {
	return actions.Request{
		WorkflowID: d.WorkflowID,
		TenantID:   d.TenantID,
		Step:       d.Step,
		Payload:    d.Payload,
	}
}

// Deferrer stores a delayed dispatch until it is due.
type Deferrer interface {
	Defer(ctx context.Context, step DeferredStep) error
}

type Executor struct {
	logger     *slog.Logger
	dispatcher Dispatcher
	deferrer   Deferrer
	now        func() time.Time
	newID      func() string
}

type ExecutorOption func(*Executor)

// WithDeferrer enforces step delays by handing delayed steps to deferrer.
func WithDeferrer(deferrer Deferrer) ExecutorOption {
	return func(e *Executor) {
		e.deferrer = deferrer
	}
}

func WithExecutorClock(now func() time.Time) ExecutorOption {
	return func(e *Executor) {
		e.now = now
	}
}

func NewExecutor(logger *slog.Logger, dispatcher Dispatcher, opts ...ExecutorOption) *Executor {
	e := &Executor{
		logger:     logger.With("module", "step_executor"),
		dispatcher: dispatcher,
		now:        time.Now,
		newID:      newID,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// RunStep executes one step and reports its outcome. It never returns an
// error: every failure, including a panic, becomes a failed outcome.
func (e *Executor) RunStep(
	ctx context.Context,
	workflow *models.Workflow,
	step *models.Step,
	payload map[string]any,
	tenantID string,
) (outcome models.StepOutcome) {
	if step == nil {
		e.logger.ErrorContext(ctx, "Workflow has an empty step", "workflow_id", workflow.ID, "tenant_id", tenantID)

		return models.StepOutcome{Result: models.StepResultFailed, Message: missingStep}
	}

	logger := e.logger.With(
		"workflow_id", workflow.ID,
		"tenant_id", tenantID,
		"step_id", step.ID,
		"action", step.Action,
	)

	outcome = models.StepOutcome{StepID: step.ID, Action: step.Action}

	defer func() {
		if r := recover(); r != nil {
			logger.ErrorContext(ctx, "Step panicked", "panic", r)

			outcome.Result = models.StepResultFailed
			outcome.Message = fmt.Sprintf("step panicked: %v", r)
			outcome.ScheduledFor = nil
		}
	}()

	ok, anomaly := conditions.EvaluateAll(step.Conditions, payload)
	if anomaly != nil {
		logger.WarnContext(ctx, "Condition resolved by default rule", "anomaly", anomaly)
	}

	if !ok {
		logger.InfoContext(ctx, "Step skipped, conditions not met")

		outcome.Result = models.StepResultSkipped
		outcome.Message = conditionsNotMet

		return outcome
	}

	req := actions.Request{
		WorkflowID: workflow.ID,
		TenantID:   tenantID,
		Step:       step,
		Payload:    payload,
	}

	var note string

	if delay := step.Delay.Duration(); delay > 0 {
		if e.deferrer != nil {
			return e.deferStep(ctx, logger, req, delay, outcome)
		}

		// Without a deferrer the delay is not enforced: the step is
		// dispatched now and the outcome says so.
		note = fmt.Sprintf("delay of %d %s not enforced", step.Delay.Amount, step.Delay.Unit)
		logger.InfoContext(ctx, "No deferrer configured, dispatching delayed step now", "delay", delay)
	}

	if err := e.dispatcher.Dispatch(ctx, req); err != nil {
		logger.ErrorContext(ctx, "Step failed", "error", err)

		outcome.Result = models.StepResultFailed
		outcome.Message = err.Error()

		return outcome
	}

	outcome.Result = models.StepResultSuccess
	outcome.Message = note

	return outcome
}

func (e *Executor) deferStep(
	ctx context.Context,
	logger *slog.Logger,
	req actions.Request,
	delay time.Duration,
	outcome models.StepOutcome,
) models.StepOutcome {
	due := e.now().UTC().Add(delay)

	err := e.deferrer.Defer(ctx, DeferredStep{
		ID:         e.newID(),
		WorkflowID: req.WorkflowID,
		TenantID:   req.TenantID,
		Step:       req.Step,
		Payload:    req.Payload,
		DueAt:      due,
	})
	if err != nil {
		logger.ErrorContext(ctx, "Failed to defer step", "error", err)

		outcome.Result = models.StepResultFailed
		outcome.Message = fmt.Sprintf("failed to defer step: %v", err)

		return outcome
	}

	logger.InfoContext(ctx, "Step deferred", "due_at", due)

	outcome.Result = models.StepResultSuccess
	outcome.ScheduledFor = &due

	return outcome
}
