// Package telemetry exposes Prometheus counters for backend calls and task
// polling sessions.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so several instances can coexist in tests.
type Metrics struct {
	registry *prometheus.Registry

	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	Unauthorized    prometheus.Counter
	Submissions     *prometheus.CounterVec
	Polls           prometheus.Counter
	Sessions        *prometheus.CounterVec
	ActiveSessions  prometheus.Gauge
	HealthUp        prometheus.Gauge
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "twix_http_requests_total",
			Help: "Backend requests by method and status code",
		}, []string{"method", "code"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "twix_http_request_duration_seconds",
			Help:    "Backend request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		Unauthorized: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "twix_unauthorized_total",
			Help: "Responses that cleared the stored API key",
		}),
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "twix_job_submissions_total",
			Help: "Job submissions by kind and result",
		}, []string{"kind", "result"}),
		Polls: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "twix_task_polls_total",
			Help: "Task status queries issued",
		}),
		Sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "twix_task_sessions_total",
			Help: "Polling sessions by terminal state",
		}, []string{"outcome"}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "twix_task_sessions_active",
			Help: "Polling sessions currently in flight",
		}),
		HealthUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "twix_backend_up",
			Help: "1 when the last health probe reached the backend",
		}),
	}
	m.registry.MustRegister(
		m.Requests,
		m.RequestDuration,
		m.Unauthorized,
		m.Submissions,
		m.Polls,
		m.Sessions,
		m.ActiveSessions,
		m.HealthUp,
	)
	return m
}

// Handler exposes the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry for gathering in tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRequest records one completed backend request. code 0 means the
// request never produced a response.
func (m *Metrics) ObserveRequest(method string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if code > 0 {
		label = strconv.Itoa(code)
	}
	m.Requests.WithLabelValues(method, label).Inc()
	m.RequestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
	if code == http.StatusUnauthorized {
		m.Unauthorized.Inc()
	}
}

// ObserveSubmission records the result of a job submission.
func (m *Metrics) ObserveSubmission(kind string, err error) {
	if m == nil {
		return
	}
	result := "accepted"
	if err != nil {
		result = "rejected"
	}
	m.Submissions.WithLabelValues(kind, result).Inc()
}

// SessionStarted implements the monitor observer hook.
func (m *Metrics) SessionStarted(string) {
	if m == nil {
		return
	}
	m.ActiveSessions.Inc()
}

// Polled implements the monitor observer hook.
func (m *Metrics) Polled(string, int) {
	if m == nil {
		return
	}
	m.Polls.Inc()
}

// SessionEnded implements the monitor observer hook.
func (m *Metrics) SessionEnded(_ string, outcome string) {
	if m == nil {
		return
	}
	m.ActiveSessions.Dec()
	m.Sessions.WithLabelValues(outcome).Inc()
}

// SetBackendUp records the last health probe result.
func (m *Metrics) SetBackendUp(up bool) {
	if m == nil {
		return
	}
	if up {
		m.HealthUp.Set(1)
		return
	}
	m.HealthUp.Set(0)
}
