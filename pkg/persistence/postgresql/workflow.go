package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/caseflow/pkg/models"
	"github.com/dukex/caseflow/pkg/persistence"
	"github.com/google/uuid"
)

const workflowColumns = `
	id
  , tenant_id
  , name
  , description
  , trigger_event
  , active
  , steps
  , times_triggered
  , last_triggered_at
  , created_at
  , updated_at
`

// WorkflowRepository handles workflow-related database operations.
type WorkflowRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(db *sql.DB, logger *slog.Logger) *WorkflowRepository {
	return &WorkflowRepository{db: db, logger: logger}
}

func (r *WorkflowRepository) Workflows(ctx context.Context, tenantID string) ([]*models.Workflow, error) {
	query := `SELECT ` + workflowColumns + `
		FROM workflows
		WHERE tenant_id = $1 AND deleted_at IS NULL
		ORDER BY created_at
	`

	return r.query(ctx, query, tenantID)
}

func (r *WorkflowRepository) WorkflowsByTrigger(ctx context.Context, tenantID string, kind models.EventKind) ([]*models.Workflow, error) {
	query := `SELECT ` + workflowColumns + `
		FROM workflows
		WHERE tenant_id = $1 AND trigger_event = $2 AND active AND deleted_at IS NULL
		ORDER BY created_at
	`

	return r.query(ctx, query, tenantID, string(kind))
}

func (r *WorkflowRepository) query(ctx context.Context, query string, args ...any) ([]*models.Workflow, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflows: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	workflows := make([]*models.Workflow, 0)

	for rows.Next() {
		workflow, err := scanWorkflow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow: %w", err)
		}

		workflows = append(workflows, workflow)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating workflows: %w", err)
	}

	return workflows, nil
}

func (r *WorkflowRepository) WorkflowByID(ctx context.Context, id string) (*models.Workflow, error) {
	query := `SELECT ` + workflowColumns + `
		FROM workflows
		WHERE id = $1 AND deleted_at IS NULL
	`

	workflow, err := scanWorkflow(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewWorkflowError("WorkflowByID", id, persistence.ErrWorkflowNotFound)
		}

		return nil, persistence.NewWorkflowError("WorkflowByID", id, err)
	}

	return workflow, nil
}

// SaveWorkflow upserts a workflow. On update the stored counters and
// creation time win over the ones carried by workflow.
func (r *WorkflowRepository) SaveWorkflow(ctx context.Context, workflow *models.Workflow) error {
	now := time.Now().UTC()

	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	if workflow.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate workflow ID: %w", err)
		}

		workflow.ID = id.String()
	}

	stepsJSON, err := json.Marshal(workflow.Steps)
	if err != nil {
		return persistence.NewWorkflowError("SaveWorkflow", workflow.ID, fmt.Errorf("failed to marshal steps: %w", err))
	}

	query := `
		INSERT INTO workflows (id, tenant_id, name, description, trigger_event, active, steps, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			tenant_id = EXCLUDED.tenant_id,
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			trigger_event = EXCLUDED.trigger_event,
			active = EXCLUDED.active,
			steps = EXCLUDED.steps,
			updated_at = EXCLUDED.updated_at,
			deleted_at = NULL
		RETURNING times_triggered, last_triggered_at, created_at
	`

	var lastTriggeredAt sql.NullTime

	err = r.db.QueryRowContext(ctx, query,
		workflow.ID,
		workflow.TenantID,
		workflow.Name,
		workflow.Description,
		string(workflow.Trigger),
		workflow.Active,
		stepsJSON,
		workflow.CreatedAt,
		workflow.UpdatedAt,
	).Scan(&workflow.TimesTriggered, &lastTriggeredAt, &workflow.CreatedAt)
	if err != nil {
		return persistence.NewWorkflowError("SaveWorkflow", workflow.ID, err)
	}

	workflow.LastTriggeredAt = nil
	if lastTriggeredAt.Valid {
		t := lastTriggeredAt.Time.UTC()
		workflow.LastTriggeredAt = &t
	}

	return nil
}

// DeleteWorkflow soft deletes a workflow by setting deleted_at timestamp.
func (r *WorkflowRepository) DeleteWorkflow(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE workflows SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return persistence.NewWorkflowError("DeleteWorkflow", id, err)
	}

	return nil
}

// IncrementWorkflowStats relies on a single UPDATE so concurrent runs never
// lose an increment.
func (r *WorkflowRepository) IncrementWorkflowStats(ctx context.Context, id string, at time.Time) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE workflows
		SET times_triggered = times_triggered + 1, last_triggered_at = $2
		WHERE id = $1 AND deleted_at IS NULL
	`, id, at.UTC())
	if err != nil {
		return persistence.NewWorkflowError("IncrementWorkflowStats", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewWorkflowError("IncrementWorkflowStats", id, err)
	}

	if rowsAffected == 0 {
		return persistence.NewWorkflowError("IncrementWorkflowStats", id, persistence.ErrWorkflowNotFound)
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanWorkflow(row scanner) (*models.Workflow, error) {
	var (
		workflow        models.Workflow
		trigger         string
		stepsJSON       []byte
		lastTriggeredAt sql.NullTime
	)

	err := row.Scan(
		&workflow.ID,
		&workflow.TenantID,
		&workflow.Name,
		&workflow.Description,
		&trigger,
		&workflow.Active,
		&stepsJSON,
		&workflow.TimesTriggered,
		&lastTriggeredAt,
		&workflow.CreatedAt,
		&workflow.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	workflow.Trigger = models.EventKind(trigger)

	if lastTriggeredAt.Valid {
		t := lastTriggeredAt.Time.UTC()
		workflow.LastTriggeredAt = &t
	}

	err = json.Unmarshal(stepsJSON, &workflow.Steps)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal steps: %w", err)
	}

	return &workflow, nil
}
