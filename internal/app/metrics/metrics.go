package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"audio2json/internal/app/model"
)

const namespace = "a2j"

// Recorder collects per-run counters on a private registry, so runs and
// tests never share state through the global default registry.
type Recorder struct {
	registry *prometheus.Registry
	files    *prometheus.CounterVec
	failures *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewRecorder creates a new metrics recorder
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_total",
			Help:      "Audio files processed, by outcome.",
		}, []string{"outcome"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failures_total",
			Help:      "Per-file failures, by pipeline stage.",
		}, []string{"stage"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "file_duration_seconds",
			Help:      "Wall time spent on one audio file, upload to write.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
	}
	r.registry.MustRegister(r.files, r.failures, r.duration)

	for _, outcome := range []model.Outcome{model.OutcomeSuccess, model.OutcomeSkipped, model.OutcomeFailed} {
		r.files.WithLabelValues(string(outcome))
	}

	return r
}

// RecordSuccess records a file written successfully
func (r *Recorder) RecordSuccess(elapsed time.Duration) {
	r.files.WithLabelValues(string(model.OutcomeSuccess)).Inc()
	r.duration.Observe(elapsed.Seconds())
}

// RecordSkipped records a file that was not attempted
func (r *Recorder) RecordSkipped() {
	r.files.WithLabelValues(string(model.OutcomeSkipped)).Inc()
}

// RecordFailure records a file that failed at stage
func (r *Recorder) RecordFailure(stage model.Stage, elapsed time.Duration) {
	r.files.WithLabelValues(string(model.OutcomeFailed)).Inc()
	r.failures.WithLabelValues(string(stage)).Inc()
	r.duration.Observe(elapsed.Seconds())
}

// Registry exposes the underlying registry, e.g. for tests or an HTTP handler.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile writes the metrics in text exposition format for the node
// exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
