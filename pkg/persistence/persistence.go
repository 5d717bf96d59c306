// Package persistence provides data storage abstraction layer for workflows, runs and the
// records workflows create.
package persistence

import (
	"context"
	"time"

	"github.com/dukex/caseflow/pkg/actions"
	"github.com/dukex/caseflow/pkg/models"
)

type Persistence interface {
	// Workflows returns every workflow owned by tenantID.
	Workflows(ctx context.Context, tenantID string) ([]*models.Workflow, error)
	// WorkflowByID returns ErrWorkflowNotFound when no workflow has the id.
	WorkflowByID(ctx context.Context, id string) (*models.Workflow, error)
	// WorkflowsByTrigger returns the tenant's active workflows triggered by kind.
	WorkflowsByTrigger(ctx context.Context, tenantID string, kind models.EventKind) ([]*models.Workflow, error)
	// SaveWorkflow inserts or updates a workflow. The stored execution
	// statistics of an existing workflow are never overwritten.
	SaveWorkflow(ctx context.Context, workflow *models.Workflow) error
	DeleteWorkflow(ctx context.Context, id string) error
	// IncrementWorkflowStats atomically adds one to times_triggered and sets
	// last_triggered_at.
	IncrementWorkflowStats(ctx context.Context, id string, at time.Time) error

	SaveRun(ctx context.Context, run *models.RunResult) error
	// RunsByWorkflow returns the most recent runs first.
	RunsByWorkflow(ctx context.Context, workflowID string, limit int) ([]*models.RunResult, error)

	Records() RecordStore

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// RecordStore keeps the tasks, entity statuses, assignments and documents
// created by workflow actions.
type RecordStore interface {
	actions.TaskStore
	actions.EntityStore
	actions.Assigner
	actions.DocumentStore

	Tasks(ctx context.Context, tenantID string) ([]*Task, error)
	// EntityStatus returns ErrEntityNotFound when the entity has no status.
	EntityStatus(ctx context.Context, tenantID, entityType, entityID string) (string, error)
}

type Task struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`
	actions.TaskFields
	CreatedAt time.Time `json:"created_at"`
}

type Document struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`
	actions.DocumentFields
	CreatedAt time.Time `json:"created_at"`
}

type Assignment struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`
	actions.AssignmentFields
	CreatedAt time.Time `json:"created_at"`
}

type EntityStatus struct {
	TenantID   string    `json:"tenant_id"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Status     string    `json:"status"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// DefaultRunsLimit is used by RunsByWorkflow when limit is not positive.
const DefaultRunsLimit = 20
