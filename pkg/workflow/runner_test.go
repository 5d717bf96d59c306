package workflow_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dukex/caseflow/pkg/actions"
	"github.com/dukex/caseflow/pkg/mocks"
	"github.com/dukex/caseflow/pkg/models"
	"github.com/dukex/caseflow/pkg/persistence"
	"github.com/dukex/caseflow/pkg/persistence/file"
	"github.com/dukex/caseflow/pkg/testutil"
	"github.com/dukex/caseflow/pkg/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store      *file.Persistence
	repository *workflow.Repository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := file.NewPersistence(t.TempDir())

	return &fixture{store: store, repository: workflow.NewRepository(store)}
}

func (f *fixture) save(t *testing.T, wf *models.Workflow) *models.Workflow {
	t.Helper()

	created, err := f.repository.Create(t.Context(), wf)
	require.NoError(t, err)

	return created
}

func (f *fixture) runner(dispatcher workflow.Dispatcher, opts ...workflow.RunnerOption) *workflow.Runner {
	executor := workflow.NewExecutor(testutil.DiscardLogger(), dispatcher)

	return workflow.NewRunner(testutil.DiscardLogger(), f.repository, executor, opts...)
}

func TestRunner_CreatesTask(t *testing.T) {
	f := newFixture(t)
	dispatcher := actions.NewDispatcher(testutil.DiscardLogger(), actions.Collaborators{Tasks: f.store.Records()})

	wf := f.save(t, testutil.CreateTestWorkflow("tenant-a", testutil.WithSteps(
		testutil.CreateTestStep("intake-task", models.ActionCreateTask, testutil.WithConfig(map[string]any{
			"title":    "Review intake for {{.clientName}}",
			"priority": "high",
		})),
	)))

	result, err := f.runner(dispatcher, workflow.WithRunnerClock(clock)).
		Execute(t.Context(), wf.ID, map[string]any{"caseId": "case-7", "clientName": "Ana Souza"}, "tenant-a")
	require.NoError(t, err)

	assert.NotEmpty(t, result.ID)
	assert.Equal(t, wf.ID, result.WorkflowID)
	assert.Equal(t, "tenant-a", result.TenantID)
	assert.True(t, result.Success)
	assert.Empty(t, result.Errors)
	assert.Equal(t, fixedNow, result.StartedAt)
	assert.Equal(t, fixedNow, result.FinishedAt)
	require.Len(t, result.ExecutedSteps, 1)
	assert.Equal(t, models.StepOutcome{StepID: "intake-task", Action: models.ActionCreateTask, Result: models.StepResultSuccess}, result.ExecutedSteps[0])

	tasks, err := f.store.Records().Tasks(t.Context(), "tenant-a")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Review intake for Ana Souza", tasks[0].Title)
	assert.Equal(t, "high", tasks[0].Priority)
	assert.Equal(t, "case-7", tasks[0].EntityID)
	assert.Equal(t, wf.ID, tasks[0].WorkflowID)
	assert.True(t, tasks[0].Automated)

	stored, err := f.store.WorkflowByID(t.Context(), wf.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.TimesTriggered)
	require.NotNil(t, stored.LastTriggeredAt)
	assert.True(t, fixedNow.Equal(*stored.LastTriggeredAt))
}

func TestRunner_SkippedStep(t *testing.T) {
	f := newFixture(t)
	dispatcher := &mocks.MockDispatcher{}

	wf := f.save(t, testutil.CreateTestWorkflow("tenant-a", testutil.WithSteps(
		testutil.CreateTestStep("vip-task", models.ActionCreateTask,
			testutil.WithCondition("amount", models.OperatorGreaterThan, 1000)),
	)))

	result, err := f.runner(dispatcher).Execute(t.Context(), wf.ID, map[string]any{"amount": float64(500)}, "tenant-a")
	require.NoError(t, err)

	assert.True(t, result.Success)
	require.Len(t, result.ExecutedSteps, 1)
	assert.Equal(t, models.StepResultSkipped, result.ExecutedSteps[0].Result)
	assert.Equal(t, "conditions not met", result.ExecutedSteps[0].Message)
	dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
}

func TestRunner_FailedStepDoesNotStopRun(t *testing.T) {
	f := newFixture(t)
	steps := []*models.Step{
		testutil.CreateTestStep("notify", models.ActionWebhook),
		testutil.CreateTestStep("task", models.ActionCreateTask),
	}

	dispatcher := &mocks.MockDispatcher{}
	dispatcher.On("Dispatch", mock.Anything, mock.MatchedBy(func(req actions.Request) bool {
		return req.Step.ID == "notify"
	})).Return(errors.New("webhook returned 502")).Once()
	dispatcher.On("Dispatch", mock.Anything, mock.MatchedBy(func(req actions.Request) bool {
		return req.Step.ID == "task"
	})).Return(nil).Once()

	wf := f.save(t, testutil.CreateTestWorkflow("tenant-a", testutil.WithSteps(steps...)))

	result, err := f.runner(dispatcher).Execute(t.Context(), wf.ID, nil, "tenant-a")
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, []string{"notify: webhook returned 502"}, result.Errors)
	require.Len(t, result.ExecutedSteps, 2)
	assert.Equal(t, models.StepResultFailed, result.ExecutedSteps[0].Result)
	assert.Equal(t, models.StepResultSuccess, result.ExecutedSteps[1].Result)
	assert.Len(t, result.Failed(), 1)
	dispatcher.AssertExpectations(t)
}

func TestRunner_NilStepFailsWithoutStoppingRun(t *testing.T) {
	f := newFixture(t)

	dispatcher := &mocks.MockDispatcher{}
	dispatcher.On("Dispatch", mock.Anything, mock.Anything).Return(nil).Once()

	wf := f.save(t, testutil.CreateTestWorkflow("tenant-a", testutil.WithSteps(
		nil,
		testutil.CreateTestStep("task", models.ActionCreateTask),
	)))

	result, err := f.runner(dispatcher).Execute(t.Context(), wf.ID, nil, "tenant-a")
	require.NoError(t, err)

	assert.False(t, result.Success)
	require.Len(t, result.ExecutedSteps, 2)
	assert.Equal(t, models.StepResultFailed, result.ExecutedSteps[0].Result)
	assert.Equal(t, "step definition is missing", result.ExecutedSteps[0].Message)
	assert.Equal(t, models.StepResultSuccess, result.ExecutedSteps[1].Result)
	dispatcher.AssertExpectations(t)
}

func TestRunner_EmptyWorkflow(t *testing.T) {
	f := newFixture(t)
	wf := f.save(t, testutil.CreateTestWorkflow("tenant-a"))

	result, err := f.runner(&mocks.MockDispatcher{}).Execute(t.Context(), wf.ID, nil, "tenant-a")
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Empty(t, result.ExecutedSteps)

	stored, err := f.store.WorkflowByID(t.Context(), wf.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.TimesTriggered)
}

func TestRunner_ConcurrentExecutesCountEveryRun(t *testing.T) {
	f := newFixture(t)
	dispatcher := &mocks.MockDispatcher{}
	dispatcher.On("Dispatch", mock.Anything, mock.Anything).Return(nil)

	wf := f.save(t, testutil.CreateTestWorkflow("tenant-a", testutil.WithSteps(
		testutil.CreateTestStep("task", models.ActionCreateTask),
	)))
	runner := f.runner(dispatcher)

	var wg sync.WaitGroup

	for range 2 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := runner.Execute(t.Context(), wf.ID, nil, "tenant-a")
			assert.NoError(t, err)
		}()
	}

	wg.Wait()

	stored, err := f.store.WorkflowByID(t.Context(), wf.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stored.TimesTriggered)
}

func TestRunner_NotFound(t *testing.T) {
	f := newFixture(t)
	dispatcher := &mocks.MockDispatcher{}

	wf := f.save(t, testutil.CreateTestWorkflow("tenant-a", testutil.WithSteps(
		testutil.CreateTestStep("task", models.ActionCreateTask),
	)))

	tests := []struct {
		name       string
		workflowID string
		tenantID   string
	}{
		{"unknown workflow", "does-not-exist", "tenant-a"},
		{"other tenant", wf.ID, "tenant-b"},
		{"empty tenant", wf.ID, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := f.runner(dispatcher).Execute(t.Context(), tt.workflowID, nil, tt.tenantID)

			assert.Nil(t, result)
			assert.True(t, persistence.IsWorkflowNotFound(err))
		})
	}

	dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)

	stored, err := f.store.WorkflowByID(t.Context(), wf.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.TimesTriggered)
	assert.Nil(t, stored.LastTriggeredAt)
}

func TestRunner_StatsFailureIsNotReturned(t *testing.T) {
	store := &mocks.MockPersistence{}
	wf := testutil.CreateTestWorkflow("tenant-a")

	store.On("WorkflowByID", mock.Anything, wf.ID).Return(wf, nil)
	store.On("IncrementWorkflowStats", mock.Anything, wf.ID, mock.Anything).Return(errors.New("disk full"))

	executor := workflow.NewExecutor(testutil.DiscardLogger(), &mocks.MockDispatcher{})
	runner := workflow.NewRunner(testutil.DiscardLogger(), workflow.NewRepository(store), executor)

	result, err := runner.Execute(t.Context(), wf.ID, nil, "tenant-a")
	require.NoError(t, err)
	assert.True(t, result.Success)
	store.AssertExpectations(t)
}

func TestRunner_HistoryAndPublishing(t *testing.T) {
	f := newFixture(t)
	dispatcher := &mocks.MockDispatcher{}
	dispatcher.On("Dispatch", mock.Anything, mock.Anything).Return(nil)

	publisher := &mocks.MockRunPublisher{}
	publisher.On("PublishRunCompleted", mock.Anything, mock.AnythingOfType("*models.RunResult")).
		Return(errors.New("broker down")).Once()

	wf := f.save(t, testutil.CreateTestWorkflow("tenant-a", testutil.WithSteps(
		testutil.CreateTestStep("task", models.ActionCreateTask),
	)))

	result, err := f.runner(dispatcher, workflow.WithRunHistory(), workflow.WithRunPublisher(publisher)).
		Execute(t.Context(), wf.ID, nil, "tenant-a")
	require.NoError(t, err)
	assert.True(t, result.Success)

	runs, err := f.repository.Runs(t.Context(), wf.ID, "tenant-a", 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, result.ID, runs[0].ID)
	publisher.AssertExpectations(t)
}

func TestRunner_TimeoutFailsStep(t *testing.T) {
	f := newFixture(t)
	release := make(chan time.Time)
	t.Cleanup(func() { close(release) })

	tasks := &mocks.MockTaskStore{}
	tasks.On("CreateTask", mock.Anything, "tenant-a", mock.Anything).WaitUntil(release).Return("task-1", nil)

	dispatcher := actions.NewDispatcher(testutil.DiscardLogger(), actions.Collaborators{Tasks: tasks},
		actions.WithTimeout(20*time.Millisecond))

	wf := f.save(t, testutil.CreateTestWorkflow("tenant-a", testutil.WithSteps(
		testutil.CreateTestStep("slow-task", models.ActionCreateTask),
	)))

	result, err := f.runner(dispatcher).Execute(t.Context(), wf.ID, nil, "tenant-a")
	require.NoError(t, err)

	assert.False(t, result.Success)
	require.Len(t, result.ExecutedSteps, 1)
	assert.Equal(t, models.StepResultFailed, result.ExecutedSteps[0].Result)
	assert.Contains(t, result.ExecutedSteps[0].Message, "deadline exceeded")
}

func TestRunner_DeferredStepIsScheduled(t *testing.T) {
	f := newFixture(t)
	deferrer := &mocks.MockDeferrer{}
	deferrer.On("Defer", mock.Anything, mock.Anything).Return(nil).Once()

	wf := f.save(t, testutil.CreateTestWorkflow("tenant-a", testutil.WithSteps(
		testutil.CreateTestStep("reminder", models.ActionSendEmail, testutil.WithDelay(1, models.DelayUnitDays)),
	)))

	executor := workflow.NewExecutor(testutil.DiscardLogger(), &mocks.MockDispatcher{},
		workflow.WithDeferrer(deferrer), workflow.WithExecutorClock(clock))
	runner := workflow.NewRunner(testutil.DiscardLogger(), f.repository, executor)

	result, err := runner.Execute(t.Context(), wf.ID, nil, "tenant-a")
	require.NoError(t, err)

	assert.True(t, result.Success)
	require.Len(t, result.ExecutedSteps, 1)
	require.NotNil(t, result.ExecutedSteps[0].ScheduledFor)
	assert.True(t, fixedNow.Add(24*time.Hour).Equal(*result.ExecutedSteps[0].ScheduledFor))
}

func TestRunner_HandleEvent(t *testing.T) {
	f := newFixture(t)
	dispatcher := &mocks.MockDispatcher{}
	dispatcher.On("Dispatch", mock.Anything, mock.Anything).Return(nil)

	matching := f.save(t, testutil.CreateTestWorkflow("tenant-a", testutil.WithTrigger(models.EventPaymentReceived)))
	f.save(t, testutil.CreateTestWorkflow("tenant-a", testutil.WithTrigger(models.EventNewCase)))
	f.save(t, testutil.CreateTestWorkflow("tenant-a", testutil.WithTrigger(models.EventPaymentReceived), testutil.Inactive()))
	f.save(t, testutil.CreateTestWorkflow("tenant-b", testutil.WithTrigger(models.EventPaymentReceived)))

	results, err := f.runner(dispatcher).HandleEvent(t.Context(), models.TriggeringEvent{
		Kind:     models.EventPaymentReceived,
		TenantID: "tenant-a",
		Payload:  map[string]any{"amount": float64(250)},
	})
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, matching.ID, results[0].WorkflowID)
	assert.Equal(t, "tenant-a", results[0].TenantID)
}
