package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var HttpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "http_requests_total",
	Help: "Total number of requests labelled by route and status",
}, []string{"path", "status"})

var jobsRunning = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "extraction_jobs_running",
	Help: "Number of extraction tool subprocesses currently running",
})

var renderCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "render_cache_lookups_total",
	Help: "Render cache lookups labelled by outcome (hit, miss, error)",
}, []string{"outcome"})

var schedulerTicks = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "scheduler_ticks_total",
	Help: "Scheduler ticks labelled by the action taken",
}, []string{"action"})

var staleLocksReclaimed = promauto.NewCounter(prometheus.CounterOpts{
	Name: "stale_locks_reclaimed_total",
	Help: "Lock files removed because their heartbeat expired",
})

type HttpStatusRecorder struct {
	http.ResponseWriter
	Status int
}

func (r *HttpStatusRecorder) WriteHeader(code int) {
	r.Status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps streaming responses (zip downloads) working through the recorder.
func (r *HttpStatusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func IncrementJobsRunning() {
	jobsRunning.Inc()
}

func DecrementJobsRunning() {
	jobsRunning.Dec()
}

func RecordCacheLookup(outcome string) {
	renderCacheLookups.WithLabelValues(outcome).Inc()
}

func RecordSchedulerTick(action string) {
	schedulerTicks.WithLabelValues(action).Inc()
}

func IncrementStaleLocksReclaimed() {
	staleLocksReclaimed.Inc()
}

var jobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "extraction_job_duration_seconds",
	Help:    "Wall time of extraction tool runs.",
	Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 900, 1800, 3600},
}, []string{"outcome"})

var dependencyLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "dependency_latency_seconds",
	Help:    "Latency of rendering and external service calls.",
	Buckets: []float64{.05, .1, .25, .5, 1, 2, 5, 10},
}, []string{"service"})

func CaptureExecutionMetrics(label string, timeElapsed time.Duration) {
	dependencyLatency.WithLabelValues(label).Observe(timeElapsed.Seconds())
}

func CaptureJobMetrics(label string, timeElapsed time.Duration) {
	jobDuration.WithLabelValues(label).Observe(timeElapsed.Seconds())
}
