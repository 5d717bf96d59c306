package file

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/dukex/caseflow/pkg/actions"
	"github.com/dukex/caseflow/pkg/persistence"
	"github.com/google/uuid"
)

// RecordRepository stores action records under records/<tenant id>/.
type RecordRepository struct {
	dir string
	mu  sync.Mutex
}

func NewRecordRepository(root string) *RecordRepository {
	return &RecordRepository{dir: filepath.Join(root, "records")}
}

func (r *RecordRepository) tenantDir(tenantID string, parts ...string) (string, error) {
	if err := checkID(tenantID); err != nil {
		return "", err
	}

	for _, part := range parts {
		if err := checkID(part); err != nil {
			return "", err
		}
	}

	return filepath.Join(append([]string{r.dir, tenantID}, parts...)...), nil
}

func (r *RecordRepository) CreateTask(_ context.Context, tenantID string, fields actions.TaskFields) (string, error) {
	dir, err := r.tenantDir(tenantID, "tasks")
	if err != nil {
		return "", err
	}

	task := persistence.Task{
		ID:         uuid.Must(uuid.NewV7()).String(),
		TenantID:   tenantID,
		TaskFields: fields,
		CreatedAt:  time.Now().UTC(),
	}

	err = writeJSON(dir, task.ID, task)
	if err != nil {
		return "", fmt.Errorf("failed to create task: %w", err)
	}

	return task.ID, nil
}

// Tasks returns the tenant's tasks in creation order.
func (r *RecordRepository) Tasks(_ context.Context, tenantID string) ([]*persistence.Task, error) {
	dir, err := r.tenantDir(tenantID, "tasks")
	if err != nil {
		return nil, err
	}

	ids, err := listIDs(dir)
	if err != nil {
		return nil, err
	}

	tasks := make([]*persistence.Task, 0, len(ids))

	for _, id := range ids {
		var task persistence.Task

		found, err := readJSON(dir, id, &task)
		if err != nil {
			return nil, err
		}

		if found {
			tasks = append(tasks, &task)
		}
	}

	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})

	return tasks, nil
}

func (r *RecordRepository) UpdateEntityStatus(_ context.Context, tenantID, entityType, entityID, status string) error {
	dir, err := r.tenantDir(tenantID, "entities", entityType)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return writeJSON(dir, entityID, persistence.EntityStatus{
		TenantID:   tenantID,
		EntityType: entityType,
		EntityID:   entityID,
		Status:     status,
		UpdatedAt:  time.Now().UTC(),
	})
}

func (r *RecordRepository) EntityStatus(_ context.Context, tenantID, entityType, entityID string) (string, error) {
	dir, err := r.tenantDir(tenantID, "entities", entityType)
	if err != nil {
		return "", err
	}

	var status persistence.EntityStatus

	found, err := readJSON(dir, entityID, &status)
	if err != nil {
		return "", err
	}

	if !found {
		return "", fmt.Errorf("%w: %s %s", persistence.ErrEntityNotFound, entityType, entityID)
	}

	return status.Status, nil
}

func (r *RecordRepository) AssignUser(_ context.Context, tenantID string, fields actions.AssignmentFields) error {
	dir, err := r.tenantDir(tenantID, "assignments")
	if err != nil {
		return err
	}

	assignment := persistence.Assignment{
		ID:               uuid.Must(uuid.NewV7()).String(),
		TenantID:         tenantID,
		AssignmentFields: fields,
		CreatedAt:        time.Now().UTC(),
	}

	return writeJSON(dir, assignment.ID, assignment)
}

func (r *RecordRepository) CreateDocument(_ context.Context, tenantID string, fields actions.DocumentFields) (string, error) {
	dir, err := r.tenantDir(tenantID, "documents")
	if err != nil {
		return "", err
	}

	document := persistence.Document{
		ID:             uuid.Must(uuid.NewV7()).String(),
		TenantID:       tenantID,
		DocumentFields: fields,
		CreatedAt:      time.Now().UTC(),
	}

	err = writeJSON(dir, document.ID, document)
	if err != nil {
		return "", fmt.Errorf("failed to create document: %w", err)
	}

	return document.ID, nil
}
