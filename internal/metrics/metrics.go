// Package metrics exposes the core node's counters to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SamplesTotal counts samples handed to the core, by sample type.
	SamplesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swim_samples_total",
		Help: "Samples received by the core by type",
	}, []string{"type"})

	// SamplesDroppedTotal counts inputs dropped because the core queue was full.
	SamplesDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "swim_inputs_dropped_total",
		Help: "Inputs dropped on a full core queue",
	})

	// StrokesTotal counts individual strokes across all sessions.
	StrokesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "swim_strokes_total",
		Help: "Strokes detected",
	})

	// DeviationEventsTotal counts published course deviation changes.
	DeviationEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swim_deviation_events_total",
		Help: "Course deviation events by state",
	}, []string{"deviated"})

	// RateRequestsTotal counts sampling-rate requests by class.
	RateRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swim_sampling_rate_requests_total",
		Help: "Sampling rate class requests",
	}, []string{"rate"})

	// SessionActive is 1 while a session is recording.
	SessionActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "swim_session_active",
		Help: "1 while a swim session is recording",
	})
)

// ObserveSample records one received sample.
func ObserveSample(sampleType string) {
	SamplesTotal.WithLabelValues(sampleType).Inc()
}

// IncDropped records one dropped input.
func IncDropped() {
	SamplesDroppedTotal.Inc()
}

// ObserveStroke records one counted stroke. A count of zero is the cycle
// reset and is not a stroke.
func ObserveStroke(count int) {
	if count > 0 {
		StrokesTotal.Inc()
	}
}

// ObserveDeviation records one deviation change.
func ObserveDeviation(deviated bool) {
	label := "false"
	if deviated {
		label = "true"
	}
	DeviationEventsTotal.WithLabelValues(label).Inc()
}

// ObserveRate records one sampling-rate request.
func ObserveRate(rate string) {
	RateRequestsTotal.WithLabelValues(rate).Inc()
}

// SetSessionActive mirrors the recording flag.
func SetSessionActive(active bool) {
	if active {
		SessionActive.Set(1)
		return
	}
	SessionActive.Set(0)
}
