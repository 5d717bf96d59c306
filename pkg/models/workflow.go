// Package models defines the domain types of the workflow automation engine.
package models

import "time"

// Workflow is a tenant-owned, ordered list of steps that runs when its
// trigger event is received.
type Workflow struct {
	ID              string     `json:"id"`
	TenantID        string     `json:"tenant_id"                   validate:"required"`
	Name            string     `json:"name"                        validate:"required,min=3"`
	Description     string     `json:"description"`
	Trigger         EventKind  `json:"trigger"                     validate:"required,event_kind"`
	Active          bool       `json:"active"`
	Steps           []*Step    `json:"steps"                       validate:"dive"`
	TimesTriggered  int64      `json:"times_triggered"`
	LastTriggeredAt *time.Time `json:"last_triggered_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// OwnedBy reports whether the workflow belongs to tenantID.
func (w *Workflow) OwnedBy(tenantID string) bool {
	return tenantID != "" && w.TenantID == tenantID
}

// Step is one configured action inside a workflow.
type Step struct {
	ID         string         `json:"id"                   validate:"required"`
	Action     ActionKind     `json:"action"               validate:"required"`
	Config     map[string]any `json:"config,omitempty"`
	Conditions []Condition    `json:"conditions,omitempty" validate:"dive"`
	Delay      *Delay         `json:"delay,omitempty"`
}

// DelayUnit is the unit of a step delay.
type DelayUnit string

const (
	DelayUnitMinutes DelayUnit = "minutes"
	DelayUnitHours   DelayUnit = "hours"
	DelayUnitDays    DelayUnit = "days"
)

// Delay postpones the dispatch of a step's action.
type Delay struct {
	Amount int       `json:"amount" validate:"min=0"`
	Unit   DelayUnit `json:"unit"   validate:"required,oneof=minutes hours days"`
}

// Duration converts the delay into a time.Duration. Unknown units yield zero.
func (d *Delay) Duration() time.Duration {
	if d == nil || d.Amount <= 0 {
		return 0
	}

	amount := time.Duration(d.Amount)

	switch d.Unit {
	case DelayUnitMinutes:
		return amount * time.Minute
	case DelayUnitHours:
		return amount * time.Hour
	case DelayUnitDays:
		return amount * 24 * time.Hour
	default:
		return 0
	}
}
