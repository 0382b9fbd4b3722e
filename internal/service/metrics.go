package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the counters and gauges the services update.
type Metrics struct {
	TaskOperations  *prometheus.CounterVec
	TasksReset      prometheus.Counter
	ResetRuns       *prometheus.CounterVec
	PersistFailures *prometheus.CounterVec
	WeekCompletion  prometheus.Gauge
	OverallProgress prometheus.Gauge
}

// NewMetrics registers the metrics on reg. Pass prometheus.NewRegistry()
// in tests to keep registrations isolated.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		TaskOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "twelveweek_task_operations_total",
				Help: "Task operations by kind and result",
			},
			[]string{"operation", "result"}, // create/update/delete/toggle/undo, ok/noop/rejected/error
		),
		TasksReset: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "twelveweek_tasks_reset_total",
				Help: "Completions revoked by the reset job",
			},
		),
		ResetRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "twelveweek_reset_runs_total",
				Help: "Reset job runs by result",
			},
			[]string{"result"},
		),
		PersistFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "twelveweek_persist_failures_total",
				Help: "Failed transactions by operation",
			},
			[]string{"operation"},
		),
		WeekCompletion: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "twelveweek_current_week_completion_percent",
				Help: "Weighted completion of the current week",
			},
		),
		OverallProgress: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "twelveweek_overall_progress_percent",
				Help: "Mean of the cached weekly percentages",
			},
		),
	}
}

func (m *Metrics) op(operation, result string) {
	if m == nil {
		return
	}
	m.TaskOperations.WithLabelValues(operation, result).Inc()
}

func (m *Metrics) persistFailed(operation string) {
	if m == nil {
		return
	}
	m.PersistFailures.WithLabelValues(operation).Inc()
}

func (m *Metrics) observePlans(week *float64, overall float64) {
	if m == nil {
		return
	}
	if week != nil {
		m.WeekCompletion.Set(*week)
	}
	m.OverallProgress.Set(overall)
}
