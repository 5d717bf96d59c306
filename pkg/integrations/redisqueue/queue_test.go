//go:build integration

package redisqueue_test

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/dukex/caseflow/pkg/actions"
	"github.com/dukex/caseflow/pkg/integrations/redisqueue"
	"github.com/dukex/caseflow/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_EnqueueAnalysisJob(t *testing.T) {
	client := testutil.StartRedis(t)
	queue := redisqueue.NewQueue(client, testutil.DiscardLogger())

	id, err := queue.EnqueueAnalysisJob(t.Context(), "tenant-a", actions.JobFields{
		Type:     "document",
		EntityID: "doc-9",
		Input:    map[string]any{"documentId": "doc-9"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	raw, err := client.LPop(t.Context(), redisqueue.DefaultJobsKey).Result()
	require.NoError(t, err)

	var job redisqueue.Job
	require.NoError(t, json.Unmarshal([]byte(raw), &job))
	assert.Equal(t, id, job.ID)
	assert.Equal(t, "tenant-a", job.TenantID)
	assert.Equal(t, "document", job.Type)
	assert.Equal(t, "doc-9", job.Input["documentId"])
}

func TestQueue_DueReminders(t *testing.T) {
	client := testutil.StartRedis(t)
	queue := redisqueue.NewQueue(client, testutil.DiscardLogger())
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	require.NoError(t, queue.ScheduleReminder(t.Context(), "tenant-a", actions.ReminderFields{
		Message:  "Hearing tomorrow",
		Channel:  "email",
		RemindAt: now.Add(-time.Minute),
	}))
	require.NoError(t, queue.ScheduleReminder(t.Context(), "tenant-a", actions.ReminderFields{
		Message:  "Filing deadline",
		Channel:  "sms",
		RemindAt: now.Add(time.Hour),
	}))

	due, err := queue.DueReminders(t.Context(), now, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "Hearing tomorrow", due[0].Message)
	assert.Equal(t, "tenant-a", due[0].TenantID)

	again, err := queue.DueReminders(t.Context(), now, 10)
	require.NoError(t, err)
	assert.Empty(t, again)

	later, err := queue.DueReminders(t.Context(), now.Add(2*time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, later, 1)
	assert.Equal(t, "Filing deadline", later[0].Message)
}

func TestDueSet_ClaimIsExclusive(t *testing.T) {
	client := testutil.StartRedis(t)
	set := redisqueue.NewDueSet(client, "caseflow:test:due")
	now := time.Now()

	for i := range 50 {
		require.NoError(t, set.Add(t.Context(), map[string]int{"n": i}, now.Add(-time.Second)))
	}

	var (
		mu      sync.Mutex
		claimed int
		wg      sync.WaitGroup
	)

	for range 5 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			members, err := set.Claim(t.Context(), now, 100)
			assert.NoError(t, err)

			mu.Lock()
			claimed += len(members)
			mu.Unlock()
		}()
	}

	wg.Wait()

	assert.Equal(t, 50, claimed)

	remaining, err := set.Len(t.Context())
	require.NoError(t, err)
	assert.Zero(t, remaining)
}
