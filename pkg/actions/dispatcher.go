package actions

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/caseflow/pkg/models"
	"github.com/dukex/caseflow/pkg/template"
)

// DefaultTimeout bounds every collaborator call made by the dispatcher.
const DefaultTimeout = 30 * time.Second

// Request carries one step dispatch.
type Request struct {
	WorkflowID string
	TenantID   string
	Step       *models.Step
	Payload    map[string]any
}

type handlerFunc func(ctx context.Context, req Request, config map[string]any) error

// Dispatcher maps action kinds to the collaborator calls that implement them.
type Dispatcher struct {
	logger        *slog.Logger
	collaborators Collaborators
	handlers      map[models.ActionKind]handlerFunc
	timeout       time.Duration
	now           func() time.Time
}

type Option func(*Dispatcher)

// WithTimeout overrides DefaultTimeout. Non-positive values are ignored.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		d.now = now
	}
}

func NewDispatcher(logger *slog.Logger, collaborators Collaborators, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		logger:        logger.With("module", "action_dispatcher"),
		collaborators: collaborators,
		timeout:       DefaultTimeout,
		now:           time.Now,
	}

	d.handlers = map[models.ActionKind]handlerFunc{
		models.ActionSendEmail:        d.sendEmail,
		models.ActionSendSMS:          d.sendSMS,
		models.ActionCreateTask:       d.createTask,
		models.ActionUpdateStatus:     d.updateStatus,
		models.ActionAssignUser:       d.assignUser,
		models.ActionCreateDocument:   d.createDocument,
		models.ActionScheduleReminder: d.scheduleReminder,
		models.ActionNotifyTeam:       d.notifyTeam,
		models.ActionRunAIAnalysis:    d.runAIAnalysis,
		models.ActionWebhook:          d.webhook,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Supports reports whether kind has a handler.
func (d *Dispatcher) Supports(kind models.ActionKind) bool {
	_, ok := d.handlers[kind]

	return ok
}

// Dispatch performs the step's action. Unknown action kinds are logged and
// ignored. Collaborator failures are returned as *ActionError.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) error {
	logger := d.logger.With(
		"workflow_id", req.WorkflowID,
		"tenant_id", req.TenantID,
		"step_id", req.Step.ID,
		"action", req.Step.Action,
	)

	handler, ok := d.handlers[req.Step.Action]
	if !ok {
		logger.WarnContext(ctx, "Unknown action kind, nothing to dispatch")

		return nil
	}

	config, err := template.RenderConfig(req.Step.Config, req.Payload)
	if err != nil {
		return d.actionError(req, fmt.Errorf("%w: %w", ErrInvalidConfig, err))
	}

	logger.DebugContext(ctx, "Dispatching action")

	err = handler(ctx, req, config)
	if err != nil {
		return d.actionError(req, err)
	}

	logger.InfoContext(ctx, "Action dispatched")

	return nil
}

func (d *Dispatcher) actionError(req Request, err error) *ActionError {
	return &ActionError{StepID: req.Step.ID, Action: req.Step.Action, Err: err}
}

// call runs fn under the dispatcher timeout. A collaborator that does not
// return once its context is done is abandoned.
func (d *Dispatcher) call(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	done := make(chan error, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("collaborator panicked: %v", r)
			}
		}()

		done <- fn(ctx)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("collaborator call abandoned: %w", ctx.Err())
	}
}
