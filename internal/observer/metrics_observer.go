package observer

import (
	"context"

	"github.com/anime-shed/gradient-fade/internal/metrics"
)

// MetricsObserver feeds pipeline events into prometheus collectors
type MetricsObserver struct {
	metrics *metrics.Metrics
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver(m *metrics.Metrics) Observer {
	return &MetricsObserver{metrics: m}
}

// OnEvent handles pipeline events by updating counters
func (o *MetricsObserver) OnEvent(ctx context.Context, event PipelineEvent) {
	switch event.EventType {
	case InputAccepted:
		o.metrics.InputsAccepted.WithLabelValues(event.Channel).Inc()
	case InputCleared:
		o.metrics.InputsCleared.Inc()
	case PasteIgnored:
		o.metrics.PastesIgnored.Inc()
	case SubmissionStarted:
		o.metrics.SubmissionsInFlight.Inc()
	case SubmissionCompleted:
		o.metrics.SubmissionsInFlight.Dec()
		o.metrics.Submissions.WithLabelValues("success").Inc()
		o.metrics.SubmissionDuration.Observe(event.Duration.Seconds())
		o.metrics.LiveResults.Inc()
	case SubmissionFailed:
		o.metrics.SubmissionsInFlight.Dec()
		o.metrics.Submissions.WithLabelValues("failure").Inc()
		o.metrics.SubmissionDuration.Observe(event.Duration.Seconds())
	case ResultReleased:
		o.metrics.ResultsReleased.Inc()
		o.metrics.LiveResults.Dec()
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}
