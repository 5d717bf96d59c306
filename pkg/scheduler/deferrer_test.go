//go:build integration

package scheduler_test

import (
	"testing"
	"time"

	"github.com/dukex/caseflow/pkg/models"
	"github.com/dukex/caseflow/pkg/scheduler"
	"github.com/dukex/caseflow/pkg/testutil"
	"github.com/dukex/caseflow/pkg/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisDeferrer_RoundTrip(t *testing.T) {
	deferrer := scheduler.NewRedisDeferrer(testutil.StartRedis(t), testutil.DiscardLogger())
	step := testutil.CreateTestStep("follow-up", models.ActionSendEmail,
		testutil.WithConfig(map[string]any{"subject": "Welcome"}),
		testutil.WithDelay(2, models.DelayUnitHours))

	require.NoError(t, deferrer.Defer(t.Context(), workflow.DeferredStep{
		ID:         "d1",
		WorkflowID: "wf-1",
		TenantID:   "tenant-a",
		Step:       step,
		Payload:    map[string]any{"caseId": "c1"},
		DueAt:      now.Add(2 * time.Hour),
	}))

	early, err := deferrer.Due(t.Context(), now, 10)
	require.NoError(t, err)
	assert.Empty(t, early)

	due, err := deferrer.Due(t.Context(), now.Add(3*time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "d1", due[0].ID)
	assert.Equal(t, "tenant-a", due[0].TenantID)
	assert.Equal(t, "follow-up", due[0].Step.ID)
	assert.Equal(t, "Welcome", due[0].Step.Config["subject"])
	assert.Equal(t, "c1", due[0].Payload["caseId"])
}
