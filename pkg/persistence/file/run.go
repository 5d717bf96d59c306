package file

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/dukex/caseflow/pkg/models"
	"github.com/dukex/caseflow/pkg/persistence"
)

// RunRepository stores run results under runs/<workflow id>/<run id>.json.
type RunRepository struct {
	dir string
}

func NewRunRepository(root string) *RunRepository {
	return &RunRepository{dir: filepath.Join(root, "runs")}
}

func (rr *RunRepository) SaveRun(_ context.Context, run *models.RunResult) error {
	if err := checkID(run.WorkflowID); err != nil {
		return err
	}

	err := writeJSON(filepath.Join(rr.dir, run.WorkflowID), run.ID, run)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}

	return nil
}

func (rr *RunRepository) RunsByWorkflow(_ context.Context, workflowID string, limit int) ([]*models.RunResult, error) {
	if err := checkID(workflowID); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = persistence.DefaultRunsLimit
	}

	dir := filepath.Join(rr.dir, workflowID)

	ids, err := listIDs(dir)
	if err != nil {
		return nil, err
	}

	runs := make([]*models.RunResult, 0, len(ids))

	for _, id := range ids {
		var run models.RunResult

		found, err := readJSON(dir, id, &run)
		if err != nil {
			return nil, err
		}

		if found {
			runs = append(runs, &run)
		}
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})

	if len(runs) > limit {
		runs = runs[:limit]
	}

	return runs, nil
}
