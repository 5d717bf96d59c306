// Package actions dispatches workflow step actions to the collaborators that
// perform them.
package actions

import (
	"context"
	"time"
)

// Channel is a direct notification channel.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// TaskFields describes a task created by a workflow.
type TaskFields struct {
	WorkflowID  string     `json:"workflow_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Priority    string     `json:"priority"`
	AssigneeID  string     `json:"assignee_id,omitempty"`
	EntityID    string     `json:"entity_id,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Automated   bool       `json:"automated"`
}

// AssignmentFields assigns a user to a case, client or other entity.
type AssignmentFields struct {
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	UserID     string `json:"user_id"`
	Role       string `json:"role,omitempty"`
}

// DocumentFields describes a document generated by a workflow.
type DocumentFields struct {
	WorkflowID string         `json:"workflow_id"`
	Name       string         `json:"name"`
	Template   string         `json:"template,omitempty"`
	EntityID   string         `json:"entity_id,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
}

// ReminderFields describes a reminder to deliver later.
type ReminderFields struct {
	Message   string    `json:"message"`
	Recipient string    `json:"recipient,omitempty"`
	Channel   string    `json:"channel,omitempty"`
	RemindAt  time.Time `json:"remind_at"`
}

// JobFields describes an asynchronous AI analysis job.
type JobFields struct {
	Type       string         `json:"type"`
	EntityType string         `json:"entity_type,omitempty"`
	EntityID   string         `json:"entity_id,omitempty"`
	Input      map[string]any `json:"input"`
}

// WebhookRequest is an outbound HTTP call made by the webhook action.
type WebhookRequest struct {
	URL     string            `json:"url"`
	Method  string            `json:"method"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    map[string]any    `json:"body"`
}

type Notifier interface {
	SendNotification(ctx context.Context, channel Channel, tenantID string, config map[string]any) error
	NotifyTeam(ctx context.Context, tenantID string, config map[string]any) error
}

type TaskStore interface {
	CreateTask(ctx context.Context, tenantID string, task TaskFields) (string, error)
}

type EntityStore interface {
	UpdateEntityStatus(ctx context.Context, tenantID, entityType, entityID, status string) error
}

type Assigner interface {
	AssignUser(ctx context.Context, tenantID string, assignment AssignmentFields) error
}

type DocumentStore interface {
	CreateDocument(ctx context.Context, tenantID string, document DocumentFields) (string, error)
}

type ReminderScheduler interface {
	ScheduleReminder(ctx context.Context, tenantID string, reminder ReminderFields) error
}

type JobQueue interface {
	EnqueueAnalysisJob(ctx context.Context, tenantID string, job JobFields) (string, error)
}

type WebhookSender interface {
	Send(ctx context.Context, request WebhookRequest) error
}

// Collaborators groups the external services actions are delegated to. A
// nil collaborator makes the matching actions fail.
type Collaborators struct {
	Notifier  Notifier
	Tasks     TaskStore
	Entities  EntityStore
	Assigner  Assigner
	Documents DocumentStore
	Reminders ReminderScheduler
	Jobs      JobQueue
	Webhooks  WebhookSender
}
