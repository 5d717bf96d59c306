package mocks

import (
	"context"

	"github.com/dukex/caseflow/pkg/actions"
	"github.com/stretchr/testify/mock"
)

// MockNotifier is a mock implementation of actions.Notifier interface.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendNotification(ctx context.Context, channel actions.Channel, tenantID string, config map[string]any) error {
	args := m.Called(ctx, channel, tenantID, config)

	return args.Error(0)
}

func (m *MockNotifier) NotifyTeam(ctx context.Context, tenantID string, config map[string]any) error {
	args := m.Called(ctx, tenantID, config)

	return args.Error(0)
}

// MockTaskStore is a mock implementation of actions.TaskStore interface.
type MockTaskStore struct {
	mock.Mock
}

func (m *MockTaskStore) CreateTask(ctx context.Context, tenantID string, task actions.TaskFields) (string, error) {
	args := m.Called(ctx, tenantID, task)

	return args.String(0), args.Error(1)
}

// MockEntityStore is a mock implementation of actions.EntityStore interface.
type MockEntityStore struct {
	mock.Mock
}

func (m *MockEntityStore) UpdateEntityStatus(ctx context.Context, tenantID, entityType, entityID, status string) error {
	args := m.Called(ctx, tenantID, entityType, entityID, status)

	return args.Error(0)
}

// MockAssigner is a mock implementation of actions.Assigner interface.
type MockAssigner struct {
	mock.Mock
}

func (m *MockAssigner) AssignUser(ctx context.Context, tenantID string, assignment actions.AssignmentFields) error {
	args := m.Called(ctx, tenantID, assignment)

	return args.Error(0)
}

// MockDocumentStore is a mock implementation of actions.DocumentStore interface.
type MockDocumentStore struct {
	mock.Mock
}

func (m *MockDocumentStore) CreateDocument(ctx context.Context, tenantID string, document actions.DocumentFields) (string, error) {
	args := m.Called(ctx, tenantID, document)

	return args.String(0), args.Error(1)
}

// MockReminderScheduler is a mock implementation of actions.ReminderScheduler interface.
type MockReminderScheduler struct {
	mock.Mock
}

func (m *MockReminderScheduler) ScheduleReminder(ctx context.Context, tenantID string, reminder actions.ReminderFields) error {
	args := m.Called(ctx, tenantID, reminder)

	return args.Error(0)
}

// MockJobQueue is a mock implementation of actions.JobQueue interface.
type MockJobQueue struct {
	mock.Mock
}

func (m *MockJobQueue) EnqueueAnalysisJob(ctx context.Context, tenantID string, job actions.JobFields) (string, error) {
	args := m.Called(ctx, tenantID, job)

	return args.String(0), args.Error(1)
}

// MockWebhookSender is a mock implementation of actions.WebhookSender interface.
type MockWebhookSender struct {
	mock.Mock
}

func (m *MockWebhookSender) Send(ctx context.Context, request actions.WebhookRequest) error {
	args := m.Called(ctx, request)

	return args.Error(0)
}
