package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dukex/caseflow/pkg/actions"
	"github.com/dukex/caseflow/pkg/integrations/redisqueue"
	"github.com/dukex/caseflow/pkg/models"
	"github.com/dukex/caseflow/pkg/workflow"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

const (
	DefaultSpec      = "@every 15s"
	DefaultBatchSize = 100
)

type DeferredSource interface {
	Due(ctx context.Context, now time.Time, limit int64) ([]workflow.DeferredStep, error)
}

// RunSaver stores the follow-up run of a deferred step.
type RunSaver interface {
	SaveRun(ctx context.Context, run *models.RunResult) error
}

type ReminderSource interface {
	DueReminders(ctx context.Context, now time.Time, limit int64) ([]redisqueue.Reminder, error)
}

// Poller periodically dispatches due deferred steps and delivers due
// reminders.
type Poller struct {
	logger     *slog.Logger
	dispatcher workflow.Dispatcher
	steps      DeferredSource
	reminders  ReminderSource
	notifier   actions.Notifier
	runs       RunSaver
	publisher  workflow.RunPublisher
	spec       string
	batchSize  int64
	now        func() time.Time

	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
}

type Option func(*Poller)

func WithDeferredSteps(source DeferredSource) Option {
	return func(p *Poller) {
		p.steps = source
	}
}

func WithReminders(source ReminderSource, notifier actions.Notifier) Option {
	return func(p *Poller) {
		p.reminders = source
		p.notifier = notifier
	}
}

// WithRunRecording records every deferred dispatch as a one-step run, so a
// step that fails long after its workflow run reported success stays visible.
// Either argument may be nil.
func WithRunRecording(runs RunSaver, publisher workflow.RunPublisher) Option {
	return func(p *Poller) {
		p.runs = runs
		p.publisher = publisher
	}
}

// WithSpec sets the cron schedule of the poller, e.g. "@every 30s".
func WithSpec(spec string) Option {
	return func(p *Poller) {
		if spec != "" {
			p.spec = spec
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *Poller) {
		p.now = now
	}
}

func NewPoller(logger *slog.Logger, dispatcher workflow.Dispatcher, opts ...Option) *Poller {
	p := &Poller{
		logger:     logger.With("module", "deferred_poller"),
		dispatcher: dispatcher,
		spec:       DefaultSpec,
		batchSize:  DefaultBatchSize,
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

func (p *Poller) Start(ctx context.Context) error {
	if _, err := cron.ParseStandard(p.spec); err != nil {
		return fmt.Errorf("invalid poller schedule %q: %w", p.spec, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.ctx, p.cancel = context.WithCancel(ctx)

	p.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	if _, err := p.cron.AddFunc(p.spec, func() { p.Poll(p.ctx) }); err != nil {
		return fmt.Errorf("failed to schedule poller: %w", err)
	}

	p.cron.Start()
	p.logger.InfoContext(ctx, "Deferred poller started", "schedule", p.spec)

	return nil
}

// Poll runs one polling pass.
func (p *Poller) Poll(ctx context.Context) {
	now := p.now().UTC()

	if p.steps != nil {
		p.dispatchDueSteps(ctx, now)
	}

	if p.reminders != nil && p.notifier != nil {
		p.deliverDueReminders(ctx, now)
	}
}

func (p *Poller) dispatchDueSteps(ctx context.Context, now time.Time) {
	steps, err := p.steps.Due(ctx, now, p.batchSize)
	if err != nil {
		p.logger.ErrorContext(ctx, "Failed to claim deferred steps", "error", err)
	}

	for _, step := range steps {
		logger := p.logger.With(
			"deferred_id", step.ID,
			"workflow_id", step.WorkflowID,
			"tenant_id", step.TenantID,
			"step_id", step.Step.ID,
		)

		startedAt := p.now().UTC()
		err := p.dispatcher.Dispatch(ctx, step.Request())

		if err != nil {
			logger.ErrorContext(ctx, "Deferred step failed", "error", err)
		} else {
			logger.InfoContext(ctx, "Deferred step dispatched", "due_at", step.DueAt)
		}

		p.record(ctx, logger, step, startedAt, err)
	}
}

func (p *Poller) record(ctx context.Context, logger *slog.Logger, step workflow.DeferredStep, startedAt time.Time, dispatchErr error) {
	if p.runs == nil && p.publisher == nil {
		return
	}

	outcome := models.StepOutcome{
		StepID: step.Step.ID,
		Action: step.Step.Action,
		Result: models.StepResultSuccess,
	}

	run := &models.RunResult{
		ID:         runID(),
		WorkflowID: step.WorkflowID,
		TenantID:   step.TenantID,
		Success:    dispatchErr == nil,
		Errors:     make([]string, 0),
		StartedAt:  startedAt,
		FinishedAt: p.now().UTC(),
	}

	if dispatchErr != nil {
		outcome.Result = models.StepResultFailed
		outcome.Message = dispatchErr.Error()
		run.Errors = append(run.Errors, fmt.Sprintf("%s: %s", outcome.StepID, outcome.Message))
	}

	run.ExecutedSteps = []models.StepOutcome{outcome}

	if p.runs != nil {
		if err := p.runs.SaveRun(ctx, run); err != nil {
			logger.ErrorContext(ctx, "Failed to save deferred run", "error", err)
		}
	}

	if p.publisher != nil {
		if err := p.publisher.PublishRunCompleted(ctx, run); err != nil {
			logger.ErrorContext(ctx, "Failed to publish deferred run", "error", err)
		}
	}
}

func runID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return id.String()
}

func (p *Poller) deliverDueReminders(ctx context.Context, now time.Time) {
	reminders, err := p.reminders.DueReminders(ctx, now, p.batchSize)
	if err != nil {
		p.logger.ErrorContext(ctx, "Failed to claim reminders", "error", err)
	}

	for _, reminder := range reminders {
		config := map[string]any{
			"reminder_id": reminder.ID,
			"message":     reminder.Message,
			"recipient":   reminder.Recipient,
		}

		err := p.notifier.SendNotification(ctx, actions.Channel(reminder.Channel), reminder.TenantID, config)
		if err != nil {
			p.logger.ErrorContext(ctx, "Failed to deliver reminder", "reminder_id", reminder.ID, "error", err)
		}
	}
}

func (p *Poller) Stop(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		p.cancel()
	}

	if p.cron == nil {
		return nil
	}

	select {
	case <-p.cron.Stop().Done():
	case <-ctx.Done():
		return ctx.Err()
	}

	p.logger.InfoContext(ctx, "Deferred poller stopped")

	return nil
}
