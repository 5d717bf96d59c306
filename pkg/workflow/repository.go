package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/dukex/caseflow/pkg/models"
	"github.com/dukex/caseflow/pkg/persistence"
	"github.com/google/uuid"
)

// Repository is the tenant-aware view over persistence used by the runner
// and the services.
type Repository struct {
	persistence persistence.Persistence
	now         func() time.Time
}

func NewRepository(persistence persistence.Persistence) *Repository {
	return &Repository{
		persistence: persistence,
		now:         time.Now,
	}
}

func (r *Repository) HealthCheck(ctx context.Context) (string, bool) {
	if r.persistence == nil {
		return "Persistence layer not initialized", false
	}

	if err := r.persistence.HealthCheck(ctx); err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

func (r *Repository) FetchAll(ctx context.Context, tenantID string) ([]*models.Workflow, error) {
	workflows, err := r.persistence.Workflows(ctx, tenantID)
	if err != nil {
		return make([]*models.Workflow, 0), err
	}

	return workflows, nil
}

// Load returns the workflow only when tenantID owns it. A workflow of
// another tenant is reported as not found.
func (r *Repository) Load(ctx context.Context, id, tenantID string) (*models.Workflow, error) {
	workflow, err := r.persistence.WorkflowByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !workflow.OwnedBy(tenantID) {
		return nil, persistence.NewWorkflowError("Load", id, persistence.ErrWorkflowNotFound)
	}

	return workflow, nil
}

// Triggered returns the tenant's active workflows listening to kind.
func (r *Repository) Triggered(ctx context.Context, tenantID string, kind models.EventKind) ([]*models.Workflow, error) {
	return r.persistence.WorkflowsByTrigger(ctx, tenantID, kind)
}

func (r *Repository) Create(ctx context.Context, workflow *models.Workflow) (*models.Workflow, error) {
	if workflow.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("failed to generate workflow id: %w", err)
		}

		workflow.ID = id.String()
	}

	now := r.now().UTC()
	workflow.CreatedAt = now
	workflow.UpdatedAt = now
	workflow.TimesTriggered = 0
	workflow.LastTriggeredAt = nil

	if err := r.persistence.SaveWorkflow(ctx, workflow); err != nil {
		return nil, err
	}

	return workflow, nil
}

// Update replaces the definition of an owned workflow. Identity, ownership,
// creation time and execution statistics are kept from the stored copy.
func (r *Repository) Update(ctx context.Context, id, tenantID string, workflow *models.Workflow) (*models.Workflow, error) {
	existing, err := r.Load(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}

	workflow.ID = existing.ID
	workflow.TenantID = existing.TenantID
	workflow.CreatedAt = existing.CreatedAt
	workflow.TimesTriggered = existing.TimesTriggered
	workflow.LastTriggeredAt = existing.LastTriggeredAt
	workflow.UpdatedAt = r.now().UTC()

	if err := r.persistence.SaveWorkflow(ctx, workflow); err != nil {
		return nil, err
	}

	return workflow, nil
}

func (r *Repository) Delete(ctx context.Context, id, tenantID string) error {
	if _, err := r.Load(ctx, id, tenantID); err != nil {
		return err
	}

	return r.persistence.DeleteWorkflow(ctx, id)
}

func (r *Repository) Runs(ctx context.Context, id, tenantID string, limit int) ([]*models.RunResult, error) {
	if _, err := r.Load(ctx, id, tenantID); err != nil {
		return nil, err
	}

	return r.persistence.RunsByWorkflow(ctx, id, limit)
}

func (r *Repository) IncrementStats(ctx context.Context, id string, at time.Time) error {
	return r.persistence.IncrementWorkflowStats(ctx, id, at)
}

func (r *Repository) SaveRun(ctx context.Context, run *models.RunResult) error {
	return r.persistence.SaveRun(ctx, run)
}
