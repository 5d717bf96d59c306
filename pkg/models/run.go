package models

import "time"

// StepResult is the outcome class of one step within a run.
type StepResult string

const (
	StepResultSuccess StepResult = "success"
	StepResultFailed  StepResult = "failed"
	StepResultSkipped StepResult = "skipped"
)

// StepOutcome records what happened to one step during a run.
type StepOutcome struct {
	StepID       string     `json:"step_id"`
	Action       ActionKind `json:"action"`
	Result       StepResult `json:"result"`
	Message      string     `json:"message,omitempty"`
	ScheduledFor *time.Time `json:"scheduled_for,omitempty"`
}

// RunResult is the immutable record of one workflow execution.
type RunResult struct {
	ID            string        `json:"id"`
	WorkflowID    string        `json:"workflow_id"`
	TenantID      string        `json:"tenant_id"`
	Success       bool          `json:"success"`
	ExecutedSteps []StepOutcome `json:"executed_steps"`
	Errors        []string      `json:"errors"`
	StartedAt     time.Time     `json:"started_at"`
	FinishedAt    time.Time     `json:"finished_at"`
}

// Failed returns the outcomes whose result is failed.
func (r *RunResult) Failed() []StepOutcome {
	failed := make([]StepOutcome, 0)

	for _, outcome := range r.ExecutedSteps {
		if outcome.Result == StepResultFailed {
			failed = append(failed, outcome)
		}
	}

	return failed
}
