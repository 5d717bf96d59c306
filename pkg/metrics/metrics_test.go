package metrics

import (
	"testing"
	"time"

	"github.com/dukex/caseflow/pkg/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_ObserveRun(t *testing.T) {
	m := New(prometheus.NewRegistry())
	started := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	m.RunStarted()
	m.RunStarted()
	assert.InDelta(t, 2, testutil.ToFloat64(m.activeRuns), 0)

	m.ObserveRun(&models.RunResult{
		Success:    false,
		StartedAt:  started,
		FinishedAt: started.Add(time.Second),
		ExecutedSteps: []models.StepOutcome{
			{StepID: "s1", Action: models.ActionCreateTask, Result: models.StepResultSuccess},
			{StepID: "s2", Action: models.ActionWebhook, Result: models.StepResultFailed},
		},
	})

	assert.InDelta(t, 1, testutil.ToFloat64(m.activeRuns), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.runsTotal.WithLabelValues("failed")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(m.runsTotal.WithLabelValues("success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.stepsTotal.WithLabelValues("create_task", "success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.stepsTotal.WithLabelValues("webhook", "failed")), 0)
}

func TestMetrics_ObserveEvent(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveEvent(models.EventNewCase)
	m.ObserveEvent(models.EventNewCase)

	assert.InDelta(t, 2, testutil.ToFloat64(m.eventsTotal.WithLabelValues("new_case")), 0)
}
