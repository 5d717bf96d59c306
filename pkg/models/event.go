package models

import (
	"slices"
	"time"
)

// EventKind names a domain event that can trigger workflows.
type EventKind string

const (
	EventNewClient            EventKind = "new_client"
	EventNewCase              EventKind = "new_case"
	EventCaseStatusChange     EventKind = "case_status_change"
	EventDocumentUploaded     EventKind = "document_uploaded"
	EventFormSubmitted        EventKind = "form_submitted"
	EventDeadlineApproaching  EventKind = "deadline_approaching"
	EventPaymentReceived      EventKind = "payment_received"
	EventAppointmentScheduled EventKind = "appointment_scheduled"
	EventMessageReceived      EventKind = "message_received"
)

// EventKinds lists every supported trigger event.
var EventKinds = []EventKind{
	EventNewClient,
	EventNewCase,
	EventCaseStatusChange,
	EventDocumentUploaded,
	EventFormSubmitted,
	EventDeadlineApproaching,
	EventPaymentReceived,
	EventAppointmentScheduled,
	EventMessageReceived,
}

func (k EventKind) IsValid() bool {
	return slices.Contains(EventKinds, k)
}

// TriggeringEvent is an occurrence of a domain event for one tenant. It is
// passed through the engine and never stored by it.
type TriggeringEvent struct {
	Kind       EventKind      `json:"kind"        validate:"required,event_kind"`
	TenantID   string         `json:"tenant_id"   validate:"required"`
	Payload    map[string]any `json:"payload"`
	OccurredAt time.Time      `json:"occurred_at"`
}
