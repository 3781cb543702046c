package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SweeperMetrics records outcomes for the periodic expiry jobs.
type SweeperMetrics struct {
	duration *prometheus.HistogramVec
	expired  *prometheus.CounterVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
}

// NewSweeperMetrics registers the sweeper metrics on the provided registerer.
func NewSweeperMetrics(reg prometheus.Registerer) *SweeperMetrics {
	if reg == nil {
		return &SweeperMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sweep_duration_seconds",
		Help:    "Duration of expiry sweep jobs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	expired := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sweep_rows_expired_total",
		Help: "Rows transitioned to expired by sweep jobs.",
	}, []string{"job"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sweep_success_total",
		Help: "Successful sweep job executions.",
	}, []string{"job"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sweep_failure_total",
		Help: "Failed sweep job executions.",
	}, []string{"job"})
	reg.MustRegister(duration, expired, success, failure)
	return &SweeperMetrics{
		duration: duration,
		expired:  expired,
		success:  success,
		failure:  failure,
	}
}

// ObserveDuration records the duration for the named job.
func (s *SweeperMetrics) ObserveDuration(job string, duration time.Duration) {
	if s == nil || s.duration == nil {
		return
	}
	s.duration.WithLabelValues(normalizeLabel(job)).Observe(duration.Seconds())
}

// AddExpired records how many rows a job expired on one run.
func (s *SweeperMetrics) AddExpired(job string, rows int64) {
	if s == nil || s.expired == nil {
		return
	}
	s.expired.WithLabelValues(normalizeLabel(job)).Add(float64(rows))
}

// IncSuccess increments the success counter for the named job.
func (s *SweeperMetrics) IncSuccess(job string) {
	if s == nil || s.success == nil {
		return
	}
	s.success.WithLabelValues(normalizeLabel(job)).Inc()
}

// IncFailure increments the failure counter for the named job.
func (s *SweeperMetrics) IncFailure(job string) {
	if s == nil || s.failure == nil {
		return
	}
	s.failure.WithLabelValues(normalizeLabel(job)).Inc()
}

func normalizeLabel(job string) string {
	if job == "" {
		return "unknown"
	}
	return job
}
