package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dukex/caseflow/pkg/models"
	"github.com/dukex/caseflow/pkg/persistence"
)

// RunRepository stores workflow run results.
type RunRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewRunRepository(db *sql.DB, logger *slog.Logger) *RunRepository {
	return &RunRepository{db: db, logger: logger}
}

func (r *RunRepository) SaveRun(ctx context.Context, run *models.RunResult) error {
	stepsJSON, err := json.Marshal(run.ExecutedSteps)
	if err != nil {
		return fmt.Errorf("failed to marshal executed steps: %w", err)
	}

	errorsJSON, err := json.Marshal(run.Errors)
	if err != nil {
		return fmt.Errorf("failed to marshal run errors: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO workflow_runs (id, workflow_id, tenant_id, success, executed_steps, errors, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		run.ID,
		run.WorkflowID,
		run.TenantID,
		run.Success,
		stepsJSON,
		errorsJSON,
		run.StartedAt,
		run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}

	return nil
}

func (r *RunRepository) RunsByWorkflow(ctx context.Context, workflowID string, limit int) ([]*models.RunResult, error) {
	if limit <= 0 {
		limit = persistence.DefaultRunsLimit
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, workflow_id, tenant_id, success, executed_steps, errors, started_at, finished_at
		FROM workflow_runs
		WHERE workflow_id = $1
		ORDER BY started_at DESC
		LIMIT $2
	`, workflowID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	runs := make([]*models.RunResult, 0)

	for rows.Next() {
		var (
			run        models.RunResult
			stepsJSON  []byte
			errorsJSON []byte
		)

		err := rows.Scan(&run.ID, &run.WorkflowID, &run.TenantID, &run.Success, &stepsJSON, &errorsJSON, &run.StartedAt, &run.FinishedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		err = json.Unmarshal(stepsJSON, &run.ExecutedSteps)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal executed steps: %w", err)
		}

		err = json.Unmarshal(errorsJSON, &run.Errors)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal run errors: %w", err)
		}

		runs = append(runs, &run)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}
