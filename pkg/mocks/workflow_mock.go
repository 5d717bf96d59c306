package mocks

import (
	"context"

	"github.com/dukex/caseflow/pkg/actions"
	"github.com/dukex/caseflow/pkg/models"
	"github.com/dukex/caseflow/pkg/workflow"
	"github.com/stretchr/testify/mock"
)

// MockDispatcher is a mock implementation of workflow.Dispatcher interface.
type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Dispatch(ctx context.Context, req actions.Request) error {
	args := m.Called(ctx, req)

	return args.Error(0)
}

// MockDeferrer is a mock implementation of workflow.Deferrer interface.
type MockDeferrer struct {
	mock.Mock
}

func (m *MockDeferrer) Defer(ctx context.Context, step workflow.DeferredStep) error {
	args := m.Called(ctx, step)

	return args.Error(0)
}

// MockRunPublisher is a mock implementation of workflow.RunPublisher interface.
type MockRunPublisher struct {
	mock.Mock
}

func (m *MockRunPublisher) PublishRunCompleted(ctx context.Context, run *models.RunResult) error {
	args := m.Called(ctx, run)

	return args.Error(0)
}
