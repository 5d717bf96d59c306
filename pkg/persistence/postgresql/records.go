package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/caseflow/pkg/actions"
	"github.com/dukex/caseflow/pkg/persistence"
	"github.com/google/uuid"
)

// RecordRepository stores the records created by workflow actions.
type RecordRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewRecordRepository(db *sql.DB, logger *slog.Logger) *RecordRepository {
	return &RecordRepository{db: db, logger: logger}
}

func (r *RecordRepository) CreateTask(ctx context.Context, tenantID string, task actions.TaskFields) (string, error) {
	id := uuid.Must(uuid.NewV7()).String()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tasks (id, tenant_id, workflow_id, title, description, priority, assignee_id, entity_id, due_date, automated, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		id,
		tenantID,
		task.WorkflowID,
		task.Title,
		task.Description,
		task.Priority,
		task.AssigneeID,
		task.EntityID,
		task.DueDate,
		task.Automated,
		time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create task: %w", err)
	}

	return id, nil
}

func (r *RecordRepository) Tasks(ctx context.Context, tenantID string) ([]*persistence.Task, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, tenant_id, workflow_id, title, description, priority, assignee_id, entity_id, due_date, automated, created_at
		FROM tasks
		WHERE tenant_id = $1
		ORDER BY created_at
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	tasks := make([]*persistence.Task, 0)

	for rows.Next() {
		var (
			task    persistence.Task
			dueDate sql.NullTime
		)

		err := rows.Scan(
			&task.ID,
			&task.TenantID,
			&task.WorkflowID,
			&task.Title,
			&task.Description,
			&task.Priority,
			&task.AssigneeID,
			&task.EntityID,
			&dueDate,
			&task.Automated,
			&task.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}

		if dueDate.Valid {
			due := dueDate.Time.UTC()
			task.DueDate = &due
		}

		tasks = append(tasks, &task)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}

	return tasks, nil
}

func (r *RecordRepository) UpdateEntityStatus(ctx context.Context, tenantID, entityType, entityID, status string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO entity_statuses (tenant_id, entity_type, entity_id, status, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (tenant_id, entity_type, entity_id) DO UPDATE SET
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at
	`, tenantID, entityType, entityID, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update %s %s status: %w", entityType, entityID, err)
	}

	return nil
}

func (r *RecordRepository) EntityStatus(ctx context.Context, tenantID, entityType, entityID string) (string, error) {
	var status string

	err := r.db.QueryRowContext(ctx, `
		SELECT status FROM entity_statuses
		WHERE tenant_id = $1 AND entity_type = $2 AND entity_id = $3
	`, tenantID, entityType, entityID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s %s", persistence.ErrEntityNotFound, entityType, entityID)
	}

	if err != nil {
		return "", fmt.Errorf("failed to query %s %s status: %w", entityType, entityID, err)
	}

	return status, nil
}

func (r *RecordRepository) AssignUser(ctx context.Context, tenantID string, assignment actions.AssignmentFields) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO assignments (id, tenant_id, entity_type, entity_id, user_id, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		uuid.Must(uuid.NewV7()).String(),
		tenantID,
		assignment.EntityType,
		assignment.EntityID,
		assignment.UserID,
		assignment.Role,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to assign user %s: %w", assignment.UserID, err)
	}

	return nil
}

func (r *RecordRepository) CreateDocument(ctx context.Context, tenantID string, document actions.DocumentFields) (string, error) {
	data := document.Data
	if data == nil {
		data = map[string]any{}
	}

	dataJSON, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to marshal document data: %w", err)
	}

	id := uuid.Must(uuid.NewV7()).String()

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO documents (id, tenant_id, workflow_id, name, template, entity_id, data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		id,
		tenantID,
		document.WorkflowID,
		document.Name,
		document.Template,
		document.EntityID,
		dataJSON,
		time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create document: %w", err)
	}

	return id, nil
}
