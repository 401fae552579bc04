package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "parcel_tracker"

// TrackingMetrics groups the Prometheus collectors for carrier resolution.
// A nil *TrackingMetrics is valid and records nothing.
type TrackingMetrics struct {
	Resolutions *prometheus.CounterVec
	Attempts    *prometheus.CounterVec
	Duration    *prometheus.HistogramVec
}

// NewTrackingMetrics registers and returns the resolution collectors.
// Registering twice against the same registerer reuses the existing collectors.
func NewTrackingMetrics(reg prometheus.Registerer) *TrackingMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &TrackingMetrics{
		Resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tracking_resolutions_total",
			Help:      "Tracking resolutions by outcome.",
		}, []string{"outcome"}),
		Attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tracking_provider_attempts_total",
			Help:      "Fetch attempts against tracking providers by outcome.",
		}, []string{"provider", "outcome"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tracking_resolution_duration_seconds",
			Help:      "Wall time of a whole tracking resolution.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
		}, []string{"outcome"}),
	}
	m.Resolutions = registerCounter(reg, m.Resolutions)
	m.Attempts = registerCounter(reg, m.Attempts)
	m.Duration = registerHistogram(reg, m.Duration)
	return m
}

// ObserveResolution records one finished resolution.
func (m *TrackingMetrics) ObserveResolution(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Resolutions.WithLabelValues(outcome).Inc()
	m.Duration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// ObserveAttempt records one fetch attempt against a provider.
func (m *TrackingMetrics) ObserveAttempt(provider, outcome string) {
	if m == nil {
		return
	}
	m.Attempts.WithLabelValues(provider, outcome).Inc()
}

func registerCounter(reg prometheus.Registerer, c *prometheus.CounterVec) *prometheus.CounterVec {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing
			}
		}
		panic(fmt.Errorf("register counter: %w", err))
	}
	return c
}

func registerHistogram(reg prometheus.Registerer, h *prometheus.HistogramVec) *prometheus.HistogramVec {
	if err := reg.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing
			}
		}
		panic(fmt.Errorf("register histogram: %w", err))
	}
	return h
}
