package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the pipeline's prometheus collectors. Every drop and
// transport-failure path increments a counter here so nothing fails
// silently.
type Metrics struct {
	SubmissionsReceived  prometheus.Counter
	SubmissionsInvalid   prometheus.Counter
	SubmissionsProcessed prometheus.Counter

	EventsExtracted prometheus.Counter
	EventsDropped   prometheus.Counter
	EventsPublished prometheus.Counter
	PublishErrors   prometheus.Counter

	QueueErrors *prometheus.CounterVec

	ProcessingDuration prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SubmissionsReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "preprocessor_submissions_received_total",
			Help: "Messages leased from the submissions queue.",
		}),
		SubmissionsInvalid: factory.NewCounter(prometheus.CounterOpts{
			Name: "preprocessor_submissions_invalid_total",
			Help: "Messages dropped for failing envelope decoding or structural validation.",
		}),
		SubmissionsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "preprocessor_submissions_processed_total",
			Help: "Structurally valid submissions run through the full pipeline.",
		}),
		EventsExtracted: factory.NewCounter(prometheus.CounterOpts{
			Name: "preprocessor_events_extracted_total",
			Help: "Events decomposed out of valid submissions.",
		}),
		EventsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "preprocessor_events_dropped_total",
			Help: "Extracted events dropped by per-event validation.",
		}),
		EventsPublished: factory.NewCounter(prometheus.CounterOpts{
			Name: "preprocessor_events_published_total",
			Help: "Events accepted by the output stream.",
		}),
		PublishErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "preprocessor_publish_errors_total",
			Help: "Per-record publish failures on the output stream.",
		}),
		QueueErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "preprocessor_queue_errors_total",
			Help: "Queue transport failures by operation.",
		}, []string{"operation"}),
		ProcessingDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "preprocessor_message_processing_seconds",
			Help:    "Wall time to process one queue message end to end.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
