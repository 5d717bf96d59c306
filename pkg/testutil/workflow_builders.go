// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"io"
	"log/slog"

	"github.com/dukex/caseflow/pkg/models"
	"github.com/google/uuid"
)

// CreateTestWorkflow creates an active new_case workflow with default values that can be overridden.
func CreateTestWorkflow(tenantID string, overrides ...func(*models.Workflow)) *models.Workflow {
	workflow := &models.Workflow{
		ID:       uuid.New().String(),
		TenantID: tenantID,
		Name:     "Test Workflow",
		Trigger:  models.EventNewCase,
		Active:   true,
		Steps:    []*models.Step{},
	}

	for _, override := range overrides {
		override(workflow)
	}

	return workflow
}

// WithSteps replaces the workflow steps.
func WithSteps(steps ...*models.Step) func(*models.Workflow) {
	return func(w *models.Workflow) {
		w.Steps = steps
	}
}

// WithTrigger sets the event kind that triggers the workflow.
func WithTrigger(kind models.EventKind) func(*models.Workflow) {
	return func(w *models.Workflow) {
		w.Trigger = kind
	}
}

// Inactive marks the workflow inactive.
func Inactive() func(*models.Workflow) {
	return func(w *models.Workflow) {
		w.Active = false
	}
}

// CreateTestStep creates a step with default values that can be overridden.
func CreateTestStep(id string, action models.ActionKind, overrides ...func(*models.Step)) *models.Step {
	step := &models.Step{
		ID:     id,
		Action: action,
		Config: map[string]any{},
	}

	for _, override := range overrides {
		override(step)
	}

	return step
}

// WithConfig sets the step configuration.
func WithConfig(config map[string]any) func(*models.Step) {
	return func(s *models.Step) {
		s.Config = config
	}
}

// WithCondition appends a condition to the step.
func WithCondition(field string, operator models.Operator, value any) func(*models.Step) {
	return func(s *models.Step) {
		s.Conditions = append(s.Conditions, models.Condition{Field: field, Operator: operator, Value: value})
	}
}

// WithDelay sets the step delay.
func WithDelay(amount int, unit models.DelayUnit) func(*models.Step) {
	return func(s *models.Step) {
		s.Delay = &models.Delay{Amount: amount, Unit: unit}
	}
}

// DiscardLogger returns a logger that drops every record.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
