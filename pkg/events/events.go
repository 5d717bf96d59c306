// Package events defines the messages exchanged over the event bus.
package events

import (
	"errors"
	"time"

	"github.com/dukex/caseflow/pkg/models"
	"github.com/google/uuid"
)

type EventType string

const Topic = "caseflow.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// EventReceivedType carries a domain event to be routed to workflows.
	EventReceivedType EventType = "event.received"
	// WorkflowRunCompletedType is published after every workflow run.
	WorkflowRunCompletedType EventType = "workflow.run.completed"
	// NotificationRequestedType asks the notification sender to deliver a message.
	NotificationRequestedType EventType = "notification.requested"
)

var (
	ErrMissingTenant = errors.New("tenant_id is required")
	ErrInvalidKind   = errors.New("unknown event kind")
)

type BaseEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	TenantID  string    `json:"tenant_id"`
}

func newBaseEvent(eventType EventType, tenantID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		TenantID:  tenantID,
	}
}

type EventReceived struct {
	BaseEvent

	Kind       models.EventKind `json:"kind"`
	Payload    map[string]any   `json:"payload"`
	OccurredAt time.Time        `json:"occurred_at"`
}

func NewEventReceived(event models.TriggeringEvent) *EventReceived {
	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	return &EventReceived{
		BaseEvent:  newBaseEvent(EventReceivedType, event.TenantID),
		Kind:       event.Kind,
		Payload:    event.Payload,
		OccurredAt: occurredAt,
	}
}

func (e EventReceived) GetType() EventType {
	return EventReceivedType
}

func (e EventReceived) Validate() error {
	if e.TenantID == "" {
		return ErrMissingTenant
	}

	if !e.Kind.IsValid() {
		return ErrInvalidKind
	}

	return nil
}

func (e EventReceived) TriggeringEvent() models.TriggeringEvent {
	return models.TriggeringEvent{
		Kind:       e.Kind,
		TenantID:   e.TenantID,
		Payload:    e.Payload,
		OccurredAt: e.OccurredAt,
	}
}

type WorkflowRunCompleted struct {
	BaseEvent

	Run *models.RunResult `json:"run"`
}

func NewWorkflowRunCompleted(run *models.RunResult) *WorkflowRunCompleted {
	return &WorkflowRunCompleted{
		BaseEvent: newBaseEvent(WorkflowRunCompletedType, run.TenantID),
		Run:       run,
	}
}

func (e WorkflowRunCompleted) GetType() EventType {
	return WorkflowRunCompletedType
}

// NotificationChannel extends the direct channels with team broadcasts.
type NotificationChannel string

const (
	NotificationEmail NotificationChannel = "email"
	NotificationSMS   NotificationChannel = "sms"
	NotificationTeam  NotificationChannel = "team"
)

type NotificationRequested struct {
	BaseEvent

	Channel NotificationChannel `json:"channel"`
	Config  map[string]any      `json:"config"`
}

func NewNotificationRequested(tenantID string, channel NotificationChannel, config map[string]any) *NotificationRequested {
	return &NotificationRequested{
		BaseEvent: newBaseEvent(NotificationRequestedType, tenantID),
		Channel:   channel,
		Config:    config,
	}
}

func (e NotificationRequested) GetType() EventType {
	return NotificationRequestedType
}
