package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dukex/caseflow/pkg/actions"
	"github.com/dukex/caseflow/pkg/models"
	"github.com/dukex/caseflow/pkg/persistence"
	"github.com/dukex/caseflow/pkg/workflow"
	"github.com/go-playground/validator/v10"
)

var (
	// ErrWorkflowNotFound is returned when a workflow is not found.
	ErrWorkflowNotFound = persistence.ErrWorkflowNotFound
)

type Workflow struct {
	repository *workflow.Repository
	runner     *workflow.Runner
	validate   *validator.Validate
}

// NewWorkflow creates a new workflow service.
func NewWorkflow(repository *workflow.Repository, runner *workflow.Runner) *Workflow {
	return &Workflow{
		repository: repository,
		runner:     runner,
		validate:   models.NewValidator(),
	}
}

// HealthCheck checks the health of the persistence layer.
func (w *Workflow) HealthCheck(ctx context.Context) (string, bool) {
	return w.repository.HealthCheck(ctx)
}

func (w *Workflow) List(ctx context.Context, tenantID string) ([]*models.Workflow, error) {
	if tenantID == "" {
		return nil, ErrTenantRequired
	}

	workflows, err := w.repository.FetchAll(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	return workflows, nil
}

func (w *Workflow) FetchByID(ctx context.Context, tenantID, id string) (*models.Workflow, error) {
	return w.repository.Load(ctx, id, tenantID)
}

// Create stores a new workflow owned by tenantID.
func (w *Workflow) Create(ctx context.Context, tenantID string, wf *models.Workflow) (*models.Workflow, error) {
	if wf == nil {
		return nil, ErrWorkflowNil
	}

	if tenantID == "" {
		return nil, ErrTenantRequired
	}

	wf.TenantID = tenantID

	if err := w.validateWorkflow("Create", wf); err != nil {
		return nil, err
	}

	created, err := w.repository.Create(ctx, wf)
	if err != nil {
		return nil, fmt.Errorf("failed to create workflow: %w", err)
	}

	return created, nil
}

// UpdateWorkflowRequest carries a partial update; nil fields keep their value.
type UpdateWorkflowRequest struct {
	Name        *string           `json:"name"`
	Description *string           `json:"description"`
	Trigger     *models.EventKind `json:"trigger"`
	Active      *bool             `json:"active"`
	Steps       []*models.Step    `json:"steps"`
}

func (w *Workflow) Update(ctx context.Context, tenantID, id string, req UpdateWorkflowRequest) (*models.Workflow, error) {
	existing, err := w.repository.Load(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}

	updated := *existing

	if req.Name != nil {
		updated.Name = *req.Name
	}

	if req.Description != nil {
		updated.Description = *req.Description
	}

	if req.Trigger != nil {
		updated.Trigger = *req.Trigger
	}

	if req.Active != nil {
		updated.Active = *req.Active
	}

	if req.Steps != nil {
		updated.Steps = req.Steps
	}

	if err := w.validateWorkflow("Update", &updated); err != nil {
		return nil, err
	}

	return w.repository.Update(ctx, id, tenantID, &updated)
}

func (w *Workflow) Delete(ctx context.Context, tenantID, id string) error {
	return w.repository.Delete(ctx, id, tenantID)
}

// Execute runs the workflow synchronously. A run with failed steps is not
// an error.
func (w *Workflow) Execute(ctx context.Context, tenantID, id string, payload map[string]any) (*models.RunResult, error) {
	return w.runner.Execute(ctx, id, payload, tenantID)
}

func (w *Workflow) Runs(ctx context.Context, tenantID, id string, limit int) ([]*models.RunResult, error) {
	if limit <= 0 {
		limit = persistence.DefaultRunsLimit
	}

	return w.repository.Runs(ctx, id, tenantID, limit)
}

// HandleEvent routes event to the tenant's matching workflows.
func (w *Workflow) HandleEvent(ctx context.Context, event models.TriggeringEvent) ([]*models.RunResult, error) {
	if err := w.validate.Struct(event); err != nil {
		return nil, NewValidationError("HandleEvent", "invalid_event", err.Error(), ErrInvalidRequest)
	}

	return w.runner.HandleEvent(ctx, event)
}

func (w *Workflow) validateWorkflow(op string, wf *models.Workflow) error {
	if err := w.validate.Struct(wf); err != nil {
		return NewValidationError(op, "invalid_workflow", err.Error(), ErrInvalidRequest)
	}

	seen := make(map[string]bool, len(wf.Steps))

	for _, step := range wf.Steps {
		if step == nil {
			return NewValidationError(op, "invalid_step", "step cannot be null", ErrInvalidRequest)
		}

		if seen[step.ID] {
			return NewValidationError(op, "duplicate_step_id", "duplicate step id "+step.ID, ErrDuplicateStepID)
		}

		seen[step.ID] = true

		if err := actions.ValidateConfig(step.Action, step.Config); err != nil {
			return NewValidationError(op, "invalid_step_config",
				fmt.Sprintf("step %s: %v", step.ID, err), errors.Join(ErrInvalidStepConfig, err))
		}
	}

	return nil
}
