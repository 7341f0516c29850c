// Package metrics holds the prometheus collectors of the pipeline and the
// preview server on a private registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	InputsAccepted      *prometheus.CounterVec
	InputsCleared       prometheus.Counter
	PastesIgnored       prometheus.Counter
	Submissions         *prometheus.CounterVec
	SubmissionDuration  prometheus.Histogram
	SubmissionsInFlight prometheus.Gauge
	LiveResults         prometheus.Gauge
	ResultsReleased     prometheus.Counter

	RequestTotal    *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,
		InputsAccepted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gradient_inputs_accepted_total",
			Help: "Images accepted as the current input, by channel.",
		}, []string{"channel"}),
		InputsCleared: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gradient_inputs_cleared_total",
			Help: "Explicit clears of the current input.",
		}),
		PastesIgnored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gradient_pastes_ignored_total",
			Help: "Paste events no channel accepted.",
		}),
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gradient_submissions_total",
			Help: "Finished submissions to the processing endpoint.",
		}, []string{"outcome"}),
		SubmissionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "gradient_submission_duration_seconds",
			Help:    "Round trip time of submissions.",
			Buckets: prometheus.DefBuckets,
		}),
		SubmissionsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gradient_submissions_in_flight",
			Help: "Submissions currently waiting on the processing endpoint.",
		}),
		LiveResults: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gradient_live_result_handles",
			Help: "Result handles allocated and not yet released.",
		}),
		ResultsReleased: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gradient_result_handles_released_total",
			Help: "Result handles released.",
		}),
		RequestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gradient_http_requests_total",
			Help: "Total HTTP requests handled by the preview server.",
		}, []string{"method", "route", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gradient_http_request_duration_seconds",
			Help:    "Preview server request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	registry.MustRegister(
		m.InputsAccepted,
		m.InputsCleared,
		m.PastesIgnored,
		m.Submissions,
		m.SubmissionDuration,
		m.SubmissionsInFlight,
		m.LiveResults,
		m.ResultsReleased,
		m.RequestTotal,
		m.RequestDuration,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
