// Package metrics exposes Prometheus collectors for workflow runs.
package metrics

import (
	"github.com/dukex/caseflow/pkg/models"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "caseflow"

type Metrics struct {
	runsTotal   *prometheus.CounterVec
	stepsTotal  *prometheus.CounterVec
	eventsTotal *prometheus.CounterVec
	runDuration prometheus.Histogram
	activeRuns  prometheus.Gauge
}

// New creates the collectors and registers them on registerer.
func New(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "workflow_runs_total",
				Help:      "Total number of workflow runs by result",
			},
			[]string{"result"},
		),
		stepsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "workflow_steps_total",
				Help:      "Total number of executed steps by action and result",
			},
			[]string{"action", "result"},
		),
		eventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_received_total",
				Help:      "Total number of triggering events received by kind",
			},
			[]string{"kind"},
		),
		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "workflow_run_duration_seconds",
				Help:      "Duration of workflow runs",
				Buckets:   prometheus.DefBuckets,
			},
		),
		activeRuns: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "workflow_active_runs",
				Help:      "Number of workflow runs in progress",
			},
		),
	}

	registerer.MustRegister(m.runsTotal, m.stepsTotal, m.eventsTotal, m.runDuration, m.activeRuns)

	return m
}

func (m *Metrics) RunStarted() {
	m.activeRuns.Inc()
}

// ObserveRun records a finished run and each of its step outcomes.
func (m *Metrics) ObserveRun(run *models.RunResult) {
	m.activeRuns.Dec()

	result := "success"
	if !run.Success {
		result = "failed"
	}

	m.runsTotal.WithLabelValues(result).Inc()
	m.runDuration.Observe(run.FinishedAt.Sub(run.StartedAt).Seconds())

	for _, outcome := range run.ExecutedSteps {
		m.stepsTotal.WithLabelValues(string(outcome.Action), string(outcome.Result)).Inc()
	}
}

func (m *Metrics) ObserveEvent(kind models.EventKind) {
	m.eventsTotal.WithLabelValues(string(kind)).Inc()
}
