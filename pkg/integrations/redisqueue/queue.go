package redisqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/caseflow/pkg/actions"
	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

const (
	DefaultJobsKey      = "caseflow:jobs:analysis"
	DefaultRemindersKey = "caseflow:reminders"
)

// Job is an analysis job as stored on the jobs list.
type Job struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`
	actions.JobFields
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// Reminder is a reminder waiting in the reminders set.
type Reminder struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`
	actions.ReminderFields
}

// Queue implements the job queue and reminder scheduler collaborators.
type Queue struct {
	client    redis.UniversalClient
	logger    *slog.Logger
	jobsKey   string
	reminders *DueSet
	now       func() time.Time
}

func NewQueue(client redis.UniversalClient, logger *slog.Logger) *Queue {
	return &Queue{
		client:    client,
		logger:    logger.With("module", "redis_queue"),
		jobsKey:   DefaultJobsKey,
		reminders: NewDueSet(client, DefaultRemindersKey),
		now:       time.Now,
	}
}

func (q *Queue) EnqueueAnalysisJob(ctx context.Context, tenantID string, fields actions.JobFields) (string, error) {
	job := Job{
		ID:         uuid.Must(uuid.NewV7()).String(),
		TenantID:   tenantID,
		JobFields:  fields,
		EnqueuedAt: q.now().UTC(),
	}

	data, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("failed to encode analysis job: %w", err)
	}

	if err := q.client.RPush(ctx, q.jobsKey, data).Err(); err != nil {
		return "", fmt.Errorf("failed to enqueue analysis job: %w", err)
	}

	q.logger.DebugContext(ctx, "Analysis job enqueued", "job_id", job.ID, "tenant_id", tenantID, "type", job.Type)

	return job.ID, nil
}

func (q *Queue) ScheduleReminder(ctx context.Context, tenantID string, fields actions.ReminderFields) error {
	reminder := Reminder{
		ID:             uuid.Must(uuid.NewV7()).String(),
		TenantID:       tenantID,
		ReminderFields: fields,
	}

	return q.reminders.Add(ctx, reminder, fields.RemindAt)
}

// DueReminders claims the reminders due at now. Members that no longer
// decode are dropped with a log entry.
func (q *Queue) DueReminders(ctx context.Context, now time.Time, limit int64) ([]Reminder, error) {
	members, err := q.reminders.Claim(ctx, now, limit)

	reminders := make([]Reminder, 0, len(members))

	for _, member := range members {
		var reminder Reminder
		if decodeErr := json.Unmarshal(member, &reminder); decodeErr != nil {
			q.logger.ErrorContext(ctx, "Dropping undecodable reminder", "error", decodeErr)

			continue
		}

		reminders = append(reminders, reminder)
	}

	return reminders, err
}
