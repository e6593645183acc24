// Package metrics provides Prometheus exporters for application metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the staff directory service.
var (
	// Backend client.
	BackendRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backend_request_duration_seconds",
			Help:    "Latency of calls to the employee backend API",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~5s
		},
		[]string{"method", "endpoint", "status"},
	)

	// Reconciliation.
	SaveAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "save_attempts_total",
			Help: "Write attempts per update verb during a record save",
		},
		[]string{"screen", "verb", "outcome"},
	)

	SaveOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "save_outcomes_total",
			Help: "Terminal state of record save operations",
		},
		[]string{"screen", "state"},
	)

	// Directory.
	DirectoryLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "directory_loads_total",
			Help: "Directory loads from the backend",
		},
		[]string{"status"},
	)

	DirectoryEmployees = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "directory_employees",
			Help: "Employees returned by the last directory load, managers excluded",
		},
	)

	ExpiryDemotionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "expiry_demotions_total",
			Help: "Partially available records demoted to occupied after their window passed",
		},
	)

	ExpirySyncTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "expiry_sync_total",
			Help: "Best-effort backend updates persisting an expiry demotion",
		},
		[]string{"status"},
	)

	// Sessions.
	LoginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logins_total",
			Help: "Login attempts by outcome",
		},
		[]string{"status"},
	)

	// Scheduler metrics.
	SchedulerJobsRunTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduler_jobs_run_total",
			Help: "Total scheduler job executions",
		},
		[]string{"job", "status"},
	)

	SchedulerLastRunTimestamp = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "scheduler_last_run_timestamp",
			Help: "Unix timestamp of last scheduler run",
		},
		[]string{"job"},
	)

	SchedulerJobDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scheduler_job_duration_seconds",
			Help:    "Time taken to execute a scheduler job",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~51s
		},
		[]string{"job"},
	)
)

// ObserveBackendRequest observes the latency of one backend call.
func ObserveBackendRequest(method, endpoint, status string, seconds float64) {
	BackendRequestDurationSeconds.WithLabelValues(method, endpoint, status).Observe(seconds)
}

// RecordSaveAttempt records one verb attempt of a save.
func RecordSaveAttempt(screen, verb, outcome string) {
	SaveAttemptsTotal.WithLabelValues(screen, verb, outcome).Inc()
}

// RecordSaveOutcome records the terminal state of a save.
func RecordSaveOutcome(screen, state string) {
	SaveOutcomesTotal.WithLabelValues(screen, state).Inc()
}

// RecordDirectoryLoad records a directory load and, on success, its size.
func RecordDirectoryLoad(status string, employees int) {
	DirectoryLoadsTotal.WithLabelValues(status).Inc()
	if status == "success" {
		DirectoryEmployees.Set(float64(employees))
	}
}

// RecordExpiryDemotions adds n demoted records.
func RecordExpiryDemotions(n int) {
	ExpiryDemotionsTotal.Add(float64(n))
}

// RecordExpirySync records the outcome of one best-effort demotion update.
func RecordExpirySync(status string) {
	ExpirySyncTotal.WithLabelValues(status).Inc()
}

// RecordLogin records a login attempt.
func RecordLogin(status string) {
	LoginsTotal.WithLabelValues(status).Inc()
}

// RecordSchedulerJobRun records a scheduler job execution.
func RecordSchedulerJobRun(job, status string) {
	SchedulerJobsRunTotal.WithLabelValues(job, status).Inc()
}

// SetSchedulerLastRun sets the timestamp of the last scheduler run.
func SetSchedulerLastRun(job string) {
	SchedulerLastRunTimestamp.WithLabelValues(job).SetToCurrentTime()
}

// ObserveSchedulerJobDuration observes the duration of a scheduler job.
func ObserveSchedulerJobDuration(job string, seconds float64) {
	SchedulerJobDurationSeconds.WithLabelValues(job).Observe(seconds)
}
