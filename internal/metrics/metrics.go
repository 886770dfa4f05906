// Package metrics provides Prometheus metrics for the taskline service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	TransitionsTotal   *prometheus.CounterVec
	TimerOpsTotal      *prometheus.CounterVec
	ReviewsTotal       prometheus.Counter
	NotificationsTotal *prometheus.CounterVec
	OperationDuration  *prometheus.HistogramVec
	TimersRunning      prometheus.Gauge
	ErrorsTotal        *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates and registers all metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		TransitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskline_transitions_total",
				Help: "Total status transitions by from and to state.",
			},
			[]string{"from", "to"},
		),
		TimerOpsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskline_timer_ops_total",
				Help: "Total timer operations by kind and result.",
			},
			[]string{"op", "result"},
		),
		ReviewsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "taskline_reviews_total",
				Help: "Total completed task reviews.",
			},
		),
		NotificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskline_notifications_total",
				Help: "Total notification deliveries by type and result.",
			},
			[]string{"type", "result"},
		),
		OperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "taskline_operation_duration_seconds",
				Help:    "Core operation duration by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		TimersRunning: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "taskline_timers_running",
				Help: "Number of currently running task timers.",
			},
		),
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskline_errors_total",
				Help: "Total errors by module and type.",
			},
			[]string{"module", "type"},
		),
		registry: reg,
	}

	reg.MustRegister(m.TransitionsTotal)
	reg.MustRegister(m.TimerOpsTotal)
	reg.MustRegister(m.ReviewsTotal)
	reg.MustRegister(m.NotificationsTotal)
	reg.MustRegister(m.OperationDuration)
	reg.MustRegister(m.TimersRunning)
	reg.MustRegister(m.ErrorsTotal)

	return m
}

// Handler returns an http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordTransition increments the transition counter.
func (m *Metrics) RecordTransition(from, to string) {
	m.TransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordTimerOp increments the timer operation counter.
func (m *Metrics) RecordTimerOp(op, result string) {
	m.TimerOpsTotal.WithLabelValues(op, result).Inc()
}

// RecordNotification increments the notification counter.
func (m *Metrics) RecordNotification(notifType, result string) {
	m.NotificationsTotal.WithLabelValues(notifType, result).Inc()
}

// RecordError increments the error counter.
func (m *Metrics) RecordError(module, errType string) {
	m.ErrorsTotal.WithLabelValues(module, errType).Inc()
}

// ObserveDuration records operation duration.
func (m *Metrics) ObserveDuration(operation string, seconds float64) {
	m.OperationDuration.WithLabelValues(operation).Observe(seconds)
}
