package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/dukex/caseflow/pkg/models"
	"github.com/dukex/caseflow/pkg/persistence"
)

// WorkflowRepository handles workflow-related file operations. Writes are
// serialized so read-modify-write updates of the counters are atomic within
// the process.
type WorkflowRepository struct {
	dir string
	mu  sync.Mutex
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(root string) *WorkflowRepository {
	return &WorkflowRepository{dir: filepath.Join(root, "workflows")}
}

// Workflows returns the tenant's workflows ordered by creation time.
func (wr *WorkflowRepository) Workflows(ctx context.Context, tenantID string) ([]*models.Workflow, error) {
	all, err := wr.all(ctx)
	if err != nil {
		return nil, err
	}

	workflows := make([]*models.Workflow, 0, len(all))

	for _, workflow := range all {
		if workflow.OwnedBy(tenantID) {
			workflows = append(workflows, workflow)
		}
	}

	return workflows, nil
}

func (wr *WorkflowRepository) WorkflowsByTrigger(ctx context.Context, tenantID string, kind models.EventKind) ([]*models.Workflow, error) {
	owned, err := wr.Workflows(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	matched := make([]*models.Workflow, 0)

	for _, workflow := range owned {
		if workflow.Active && workflow.Trigger == kind {
			matched = append(matched, workflow)
		}
	}

	return matched, nil
}

func (wr *WorkflowRepository) all(ctx context.Context) ([]*models.Workflow, error) {
	ids, err := listIDs(wr.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow files: %w", err)
	}

	workflows := make([]*models.Workflow, 0, len(ids))

	for _, id := range ids {
		workflow, err := wr.WorkflowByID(ctx, id)
		if persistence.IsWorkflowNotFound(err) {
			// deleted while listing
			continue
		}

		if err != nil {
			return nil, err
		}

		workflows = append(workflows, workflow)
	}

	sort.Slice(workflows, func(i, j int) bool {
		return workflows[i].CreatedAt.Before(workflows[j].CreatedAt)
	})

	return workflows, nil
}

// WorkflowByID retrieves a workflow by its ID from the file system.
func (wr *WorkflowRepository) WorkflowByID(_ context.Context, id string) (*models.Workflow, error) {
	var workflow models.Workflow

	found, err := readJSON(wr.dir, id, &workflow)
	if err != nil {
		return nil, persistence.NewWorkflowError("WorkflowByID", id, err)
	}

	if !found {
		return nil, persistence.NewWorkflowError("WorkflowByID", id, persistence.ErrWorkflowNotFound)
	}

	return &workflow, nil
}

// SaveWorkflow saves a workflow to the file system, keeping the stored
// counters of an existing workflow.
func (wr *WorkflowRepository) SaveWorkflow(ctx context.Context, workflow *models.Workflow) error {
	wr.mu.Lock()
	defer wr.mu.Unlock()

	existing, err := wr.WorkflowByID(ctx, workflow.ID)
	if err != nil && !persistence.IsWorkflowNotFound(err) {
		return err
	}

	now := time.Now().UTC()

	if existing != nil {
		workflow.TimesTriggered = existing.TimesTriggered
		workflow.LastTriggeredAt = existing.LastTriggeredAt
		workflow.CreatedAt = existing.CreatedAt
	}

	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	err = writeJSON(wr.dir, workflow.ID, workflow)
	if err != nil {
		return persistence.NewWorkflowError("SaveWorkflow", workflow.ID, err)
	}

	return nil
}

// DeleteWorkflow removes a workflow by its ID. Deleting a missing workflow is not an error.
func (wr *WorkflowRepository) DeleteWorkflow(_ context.Context, id string) error {
	if err := checkID(id); err != nil {
		return persistence.NewWorkflowError("DeleteWorkflow", id, err)
	}

	wr.mu.Lock()
	defer wr.mu.Unlock()

	err := os.Remove(filepath.Join(wr.dir, id+".json"))
	if err != nil && !os.IsNotExist(err) {
		return persistence.NewWorkflowError("DeleteWorkflow", id, err)
	}

	return nil
}

func (wr *WorkflowRepository) IncrementWorkflowStats(ctx context.Context, id string, at time.Time) error {
	wr.mu.Lock()
	defer wr.mu.Unlock()

	workflow, err := wr.WorkflowByID(ctx, id)
	if err != nil {
		return err
	}

	triggeredAt := at.UTC()
	workflow.TimesTriggered++
	workflow.LastTriggeredAt = &triggeredAt

	err = writeJSON(wr.dir, id, workflow)
	if err != nil {
		return persistence.NewWorkflowError("IncrementWorkflowStats", id, err)
	}

	return nil
}
