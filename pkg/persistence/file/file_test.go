package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dukex/caseflow/pkg/actions"
	"github.com/dukex/caseflow/pkg/models"
	"github.com/dukex/caseflow/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testWorkflow(id, tenantID string) *models.Workflow {
	return &models.Workflow{
		ID:       id,
		TenantID: tenantID,
		Name:     "Intake follow-up",
		Trigger:  models.EventNewClient,
		Active:   true,
		Steps: []*models.Step{
			{
				ID:     "step-1",
				Action: models.ActionCreateTask,
				Config: map[string]any{"title": "Call {{.name}}"},
			},
		},
	}
}

func TestNewPersistence(t *testing.T) {
	fp := NewPersistence("/tmp/test")
	assert.Equal(t, "/tmp/test", fp.root)

	fp = NewPersistence("file:///tmp/test")
	assert.Equal(t, "/tmp/test", fp.root)
}

func TestPersistence_HealthCheck(t *testing.T) {
	require.NoError(t, NewPersistence(t.TempDir()).HealthCheck(t.Context()))
	assert.ErrorIs(t, NewPersistence(filepath.Join(t.TempDir(), "missing")).HealthCheck(t.Context()), os.ErrNotExist)
}

func TestPersistence_SaveAndLoadWorkflow(t *testing.T) {
	testDir := t.TempDir()
	fp := NewPersistence(testDir)

	workflow := testWorkflow("wf-1", "tenant-a")
	require.NoError(t, fp.SaveWorkflow(t.Context(), workflow))

	_, err := os.Stat(filepath.Join(testDir, "workflows", "wf-1.json"))
	require.NoError(t, err)

	loaded, err := fp.WorkflowByID(t.Context(), "wf-1")
	require.NoError(t, err)
	assert.Equal(t, "tenant-a", loaded.TenantID)
	assert.Equal(t, models.ActionCreateTask, loaded.Steps[0].Action)
	assert.False(t, loaded.CreatedAt.IsZero())
	assert.Equal(t, loaded.CreatedAt, loaded.UpdatedAt)
}

func TestPersistence_WorkflowByID_NotFound(t *testing.T) {
	fp := NewPersistence(t.TempDir())

	_, err := fp.WorkflowByID(t.Context(), "missing")
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestPersistence_RejectsPathTraversal(t *testing.T) {
	fp := NewPersistence(t.TempDir())

	_, err := fp.WorkflowByID(t.Context(), "../etc/passwd")
	assert.ErrorIs(t, err, persistence.ErrInvalidID)

	err = fp.SaveWorkflow(t.Context(), testWorkflow("a/b", "tenant-a"))
	assert.ErrorIs(t, err, persistence.ErrInvalidID)
}

func TestPersistence_WorkflowsAreTenantScoped(t *testing.T) {
	fp := NewPersistence(t.TempDir())

	require.NoError(t, fp.SaveWorkflow(t.Context(), testWorkflow("wf-a1", "tenant-a")))
	require.NoError(t, fp.SaveWorkflow(t.Context(), testWorkflow("wf-a2", "tenant-a")))
	require.NoError(t, fp.SaveWorkflow(t.Context(), testWorkflow("wf-b1", "tenant-b")))

	workflows, err := fp.Workflows(t.Context(), "tenant-a")
	require.NoError(t, err)
	require.Len(t, workflows, 2)

	for _, workflow := range workflows {
		assert.Equal(t, "tenant-a", workflow.TenantID)
	}

	none, err := fp.Workflows(t.Context(), "tenant-c")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPersistence_Workflows_NoDirectory(t *testing.T) {
	fp := NewPersistence(filepath.Join(t.TempDir(), "fresh"))

	workflows, err := fp.Workflows(t.Context(), "tenant-a")
	require.NoError(t, err)
	assert.Empty(t, workflows)
}

func TestPersistence_WorkflowsByTrigger(t *testing.T) {
	fp := NewPersistence(t.TempDir())

	matching := testWorkflow("wf-1", "tenant-a")
	inactive := testWorkflow("wf-2", "tenant-a")
	inactive.Active = false
	otherKind := testWorkflow("wf-3", "tenant-a")
	otherKind.Trigger = models.EventPaymentReceived
	otherTenant := testWorkflow("wf-4", "tenant-b")

	for _, w := range []*models.Workflow{matching, inactive, otherKind, otherTenant} {
		require.NoError(t, fp.SaveWorkflow(t.Context(), w))
	}

	workflows, err := fp.WorkflowsByTrigger(t.Context(), "tenant-a", models.EventNewClient)
	require.NoError(t, err)
	require.Len(t, workflows, 1)
	assert.Equal(t, "wf-1", workflows[0].ID)
}

func TestPersistence_DeleteWorkflow(t *testing.T) {
	fp := NewPersistence(t.TempDir())

	require.NoError(t, fp.SaveWorkflow(t.Context(), testWorkflow("wf-1", "tenant-a")))
	require.NoError(t, fp.DeleteWorkflow(t.Context(), "wf-1"))

	_, err := fp.WorkflowByID(t.Context(), "wf-1")
	assert.True(t, persistence.IsWorkflowNotFound(err))

	assert.NoError(t, fp.DeleteWorkflow(t.Context(), "wf-1"))
}

func TestPersistence_IncrementWorkflowStats(t *testing.T) {
	fp := NewPersistence(t.TempDir())
	require.NoError(t, fp.SaveWorkflow(t.Context(), testWorkflow("wf-1", "tenant-a")))

	at := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, fp.IncrementWorkflowStats(t.Context(), "wf-1", at))

	loaded, err := fp.WorkflowByID(t.Context(), "wf-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), loaded.TimesTriggered)
	require.NotNil(t, loaded.LastTriggeredAt)
	assert.True(t, at.Equal(*loaded.LastTriggeredAt))

	err = fp.IncrementWorkflowStats(t.Context(), "missing", at)
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestPersistence_IncrementWorkflowStats_Concurrent(t *testing.T) {
	fp := NewPersistence(t.TempDir())
	require.NoError(t, fp.SaveWorkflow(t.Context(), testWorkflow("wf-1", "tenant-a")))

	const n = 20

	var wg sync.WaitGroup
	for range n {
		wg.Add(1)

		go func() {
			defer wg.Done()
			assert.NoError(t, fp.IncrementWorkflowStats(t.Context(), "wf-1", time.Now()))
		}()
	}

	wg.Wait()

	loaded, err := fp.WorkflowByID(t.Context(), "wf-1")
	require.NoError(t, err)
	assert.Equal(t, int64(n), loaded.TimesTriggered)
}

func TestPersistence_SaveWorkflowKeepsStats(t *testing.T) {
	fp := NewPersistence(t.TempDir())
	require.NoError(t, fp.SaveWorkflow(t.Context(), testWorkflow("wf-1", "tenant-a")))
	require.NoError(t, fp.IncrementWorkflowStats(t.Context(), "wf-1", time.Now()))

	stale := testWorkflow("wf-1", "tenant-a")
	stale.Name = "Renamed"
	require.NoError(t, fp.SaveWorkflow(t.Context(), stale))

	loaded, err := fp.WorkflowByID(t.Context(), "wf-1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", loaded.Name)
	assert.Equal(t, int64(1), loaded.TimesTriggered)
}

func TestPersistence_Runs(t *testing.T) {
	fp := NewPersistence(t.TempDir())
	base := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"run-1", "run-2", "run-3"} {
		require.NoError(t, fp.SaveRun(t.Context(), &models.RunResult{
			ID:         id,
			WorkflowID: "wf-1",
			TenantID:   "tenant-a",
			Success:    true,
			StartedAt:  base.Add(time.Duration(i) * time.Minute),
		}))
	}

	runs, err := fp.RunsByWorkflow(t.Context(), "wf-1", 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-3", runs[0].ID)
	assert.Equal(t, "run-2", runs[1].ID)

	none, err := fp.RunsByWorkflow(t.Context(), "wf-2", 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRecordRepository(t *testing.T) {
	records := NewPersistence(t.TempDir()).Records()

	id, err := records.CreateTask(t.Context(), "tenant-a", actions.TaskFields{Title: "Review", Priority: "high", Automated: true})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	tasks, err := records.Tasks(t.Context(), "tenant-a")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, id, tasks[0].ID)
	assert.Equal(t, "Review", tasks[0].Title)

	otherTenant, err := records.Tasks(t.Context(), "tenant-b")
	require.NoError(t, err)
	assert.Empty(t, otherTenant)

	require.NoError(t, records.UpdateEntityStatus(t.Context(), "tenant-a", "case", "case-1", "open"))
	require.NoError(t, records.UpdateEntityStatus(t.Context(), "tenant-a", "case", "case-1", "closed"))

	status, err := records.EntityStatus(t.Context(), "tenant-a", "case", "case-1")
	require.NoError(t, err)
	assert.Equal(t, "closed", status)

	_, err = records.EntityStatus(t.Context(), "tenant-b", "case", "case-1")
	assert.True(t, persistence.IsEntityNotFound(err))

	require.NoError(t, records.AssignUser(t.Context(), "tenant-a", actions.AssignmentFields{EntityType: "case", EntityID: "case-1", UserID: "u-1"}))

	docID, err := records.CreateDocument(t.Context(), "tenant-a", actions.DocumentFields{Name: "Engagement letter"})
	require.NoError(t, err)
	assert.NotEmpty(t, docID)
}
