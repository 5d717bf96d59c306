package web

import (
	"time"

	"github.com/dukex/caseflow/pkg/models"
)

// CreateWorkflowRequest represents the request body for creating a new workflow.
type CreateWorkflowRequest struct {
	Name        string           `json:"name"        validate:"required,min=3"`
	Description string           `json:"description"`
	Trigger     models.EventKind `json:"trigger"     validate:"required"`
	Active      bool             `json:"active"`
	Steps       []*models.Step   `json:"steps"`
}

// UpdateWorkflowRequest represents the request body for updating an existing workflow.
// All fields are optional to support partial updates.
type UpdateWorkflowRequest struct {
	Name        *string           `json:"name,omitempty"        validate:"omitempty,min=3"`
	Description *string           `json:"description,omitempty"`
	Trigger     *models.EventKind `json:"trigger,omitempty"`
	Active      *bool             `json:"active,omitempty"`
	Steps       []*models.Step    `json:"steps,omitempty"`
}

// ExecuteWorkflowRequest carries the payload a manual run is executed with.
type ExecuteWorkflowRequest struct {
	Payload map[string]any `json:"payload"`
}

// EventRequest represents a domain event posted for the calling tenant.
type EventRequest struct {
	Kind       models.EventKind `json:"kind"        validate:"required"`
	Payload    map[string]any   `json:"payload"`
	OccurredAt *time.Time       `json:"occurred_at,omitempty"`
}

// EventResponse lists the runs an event started.
type EventResponse struct {
	Kind    models.EventKind    `json:"kind"`
	Results []*models.RunResult `json:"results"`
}
