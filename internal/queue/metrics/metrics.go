package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the job queue.
type Metrics struct {
	Enqueued     *prometheus.CounterVec
	Processed    *prometheus.CounterVec
	DeadLettered *prometheus.CounterVec
	Duration     *prometheus.HistogramVec
}

// New registers the queue metrics against the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Enqueued: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "notarius_queue_jobs_enqueued_total",
			Help: "Jobs accepted into a named queue",
		}, []string{"queue", "job"}),
		Processed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "notarius_queue_jobs_processed_total",
			Help: "Job executions by outcome (completed, retried, dead-letter)",
		}, []string{"queue", "job", "outcome"}),
		DeadLettered: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "notarius_queue_jobs_dead_lettered_total",
			Help: "Jobs routed to the dead-letter store",
		}, []string{"queue", "job"}),
		Duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "notarius_queue_handler_duration_seconds",
			Help:    "Handler execution time",
			Buckets: prometheus.DefBuckets,
		}, []string{"queue", "job"}),
	}
}

func (m *Metrics) IncEnqueued(queue, job string) {
	m.Enqueued.WithLabelValues(queue, job).Inc()
}

func (m *Metrics) IncProcessed(queue, job, outcome string) {
	m.Processed.WithLabelValues(queue, job, outcome).Inc()
}

func (m *Metrics) IncDeadLettered(queue, job string) {
	m.DeadLettered.WithLabelValues(queue, job).Inc()
}

func (m *Metrics) ObserveDuration(queue, job string, seconds float64) {
	m.Duration.WithLabelValues(queue, job).Observe(seconds)
}
