package actions

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dukex/caseflow/pkg/conditions"
)

// entityFields are the payload keys searched for an entity identifier when
// the step config does not name one.
var entityFields = []string{"caseId", "clientId", "documentId", "entityId"}

func (d *Dispatcher) sendEmail(ctx context.Context, req Request, config map[string]any) error {
	return d.notify(ctx, ChannelEmail, req, config)
}

func (d *Dispatcher) sendSMS(ctx context.Context, req Request, config map[string]any) error {
	return d.notify(ctx, ChannelSMS, req, config)
}

func (d *Dispatcher) notify(ctx context.Context, channel Channel, req Request, config map[string]any) error {
	notifier := d.collaborators.Notifier
	if notifier == nil {
		return ErrCollaboratorMissing
	}

	return d.call(ctx, func(ctx context.Context) error {
		return notifier.SendNotification(ctx, channel, req.TenantID, config)
	})
}

func (d *Dispatcher) notifyTeam(ctx context.Context, req Request, config map[string]any) error {
	notifier := d.collaborators.Notifier
	if notifier == nil {
		return ErrCollaboratorMissing
	}

	return d.call(ctx, func(ctx context.Context) error {
		return notifier.NotifyTeam(ctx, req.TenantID, config)
	})
}

func (d *Dispatcher) createTask(ctx context.Context, req Request, config map[string]any) error {
	tasks := d.collaborators.Tasks
	if tasks == nil {
		return ErrCollaboratorMissing
	}

	task := TaskFields{
		WorkflowID:  req.WorkflowID,
		Title:       stringValue(config, "title"),
		Description: stringValue(config, "description"),
		Priority:    stringValue(config, "priority"),
		AssigneeID:  stringValue(config, "assignee"),
		EntityID:    entityID(req.Payload, config),
		Automated:   true,
	}

	if task.Title == "" {
		task.Title = "Automated task"
	}

	if task.Priority == "" {
		task.Priority = "medium"
	}

	due, err := d.dueDate(config)
	if err != nil {
		return err
	}

	task.DueDate = due

	return d.call(ctx, func(ctx context.Context) error {
		id, err := tasks.CreateTask(ctx, req.TenantID, task)
		if err != nil {
			return err
		}

		d.logger.DebugContext(ctx, "Task created", "task_id", id, "step_id", req.Step.ID)

		return nil
	})
}

func (d *Dispatcher) dueDate(config map[string]any) (*time.Time, error) {
	if days, ok := intValue(config, "due_in_days"); ok {
		due := d.now().UTC().AddDate(0, 0, days)

		return &due, nil
	}

	return timeValue(config, "due_date")
}

func (d *Dispatcher) updateStatus(ctx context.Context, req Request, config map[string]any) error {
	entities := d.collaborators.Entities
	if entities == nil {
		return ErrCollaboratorMissing
	}

	id := fieldValue(req.Payload, stringOr(config, "entity_field", "caseId"))
	if id == "" {
		d.logger.InfoContext(ctx, "No entity identifier in payload, status left unchanged", "step_id", req.Step.ID)

		return nil
	}

	status := stringValue(config, "status")
	if status == "" {
		status = stringValue(config, "new_status")
	}

	if status == "" {
		return fmt.Errorf("%w: status is required", ErrInvalidConfig)
	}

	entityType := stringOr(config, "entity_type", "case")

	return d.call(ctx, func(ctx context.Context) error {
		return entities.UpdateEntityStatus(ctx, req.TenantID, entityType, id, status)
	})
}

func (d *Dispatcher) assignUser(ctx context.Context, req Request, config map[string]any) error {
	assigner := d.collaborators.Assigner
	if assigner == nil {
		return ErrCollaboratorMissing
	}

	assignment := AssignmentFields{
		EntityType: stringOr(config, "entity_type", "case"),
		EntityID:   entityID(req.Payload, config),
		UserID:     stringValue(config, "user_id"),
		Role:       stringValue(config, "role"),
	}

	if assignment.UserID == "" {
		return fmt.Errorf("%w: user_id is required", ErrInvalidConfig)
	}

	if assignment.EntityID == "" {
		return fmt.Errorf("%w: no entity identifier in payload", ErrInvalidConfig)
	}

	return d.call(ctx, func(ctx context.Context) error {
		return assigner.AssignUser(ctx, req.TenantID, assignment)
	})
}

func (d *Dispatcher) createDocument(ctx context.Context, req Request, config map[string]any) error {
	documents := d.collaborators.Documents
	if documents == nil {
		return ErrCollaboratorMissing
	}

	document := DocumentFields{
		WorkflowID: req.WorkflowID,
		Name:       stringOr(config, "name", "Generated document"),
		Template:   stringValue(config, "template"),
		EntityID:   entityID(req.Payload, config),
		Data:       req.Payload,
	}

	return d.call(ctx, func(ctx context.Context) error {
		id, err := documents.CreateDocument(ctx, req.TenantID, document)
		if err != nil {
			return err
		}

		d.logger.DebugContext(ctx, "Document created", "document_id", id, "step_id", req.Step.ID)

		return nil
	})
}

func (d *Dispatcher) scheduleReminder(ctx context.Context, req Request, config map[string]any) error {
	reminders := d.collaborators.Reminders
	if reminders == nil {
		return ErrCollaboratorMissing
	}

	reminder := ReminderFields{
		Message:   stringValue(config, "message"),
		Recipient: stringValue(config, "recipient"),
		Channel:   stringOr(config, "channel", string(ChannelEmail)),
		RemindAt:  d.now().UTC(),
	}

	if minutes, ok := intValue(config, "remind_in_minutes"); ok {
		reminder.RemindAt = reminder.RemindAt.Add(time.Duration(minutes) * time.Minute)
	} else {
		at, err := timeValue(config, "remind_at")
		if err != nil {
			return err
		}

		if at != nil {
			reminder.RemindAt = *at
		}
	}

	return d.call(ctx, func(ctx context.Context) error {
		return reminders.ScheduleReminder(ctx, req.TenantID, reminder)
	})
}

func (d *Dispatcher) runAIAnalysis(ctx context.Context, req Request, config map[string]any) error {
	jobs := d.collaborators.Jobs
	if jobs == nil {
		return ErrCollaboratorMissing
	}

	job := JobFields{
		Type:       stringOr(config, "analysis_type", "document"),
		EntityType: stringValue(config, "entity_type"),
		EntityID:   entityID(req.Payload, config),
		Input:      req.Payload,
	}

	return d.call(ctx, func(ctx context.Context) error {
		id, err := jobs.EnqueueAnalysisJob(ctx, req.TenantID, job)
		if err != nil {
			return err
		}

		d.logger.DebugContext(ctx, "Analysis job enqueued", "job_id", id, "step_id", req.Step.ID)

		return nil
	})
}

func (d *Dispatcher) webhook(ctx context.Context, req Request, config map[string]any) error {
	sender := d.collaborators.Webhooks
	if sender == nil {
		return ErrCollaboratorMissing
	}

	url := stringValue(config, "url")
	if url == "" {
		return fmt.Errorf("%w: url is required", ErrInvalidConfig)
	}

	request := WebhookRequest{
		URL:     url,
		Method:  strings.ToUpper(stringOr(config, "method", http.MethodPost)),
		Headers: stringMap(config, "headers"),
		Body: map[string]any{
			"tenant_id":   req.TenantID,
			"workflow_id": req.WorkflowID,
			"step_id":     req.Step.ID,
			"data":        req.Payload,
		},
	}

	return d.call(ctx, func(ctx context.Context) error {
		return sender.Send(ctx, request)
	})
}

func fieldValue(payload map[string]any, field string) string {
	value, _ := conditions.Lookup(payload, field)

	return toString(value)
}

// entityID returns the identifier named by config "entity_field", or the
// first of the well-known identifier keys present in payload.
func entityID(payload map[string]any, config map[string]any) string {
	if field := stringValue(config, "entity_field"); field != "" {
		return fieldValue(payload, field)
	}

	for _, field := range entityFields {
		if value, ok := conditions.Lookup(payload, field); ok {
			if id := toString(value); id != "" {
				return id
			}
		}
	}

	return ""
}
