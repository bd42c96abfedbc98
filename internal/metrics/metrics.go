// Package metrics registers the service's prometheus collectors.
package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	jobsProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generation_jobs_processed_total",
			Help: "Generation jobs reaching a terminal state, labeled by status and mode.",
		},
		[]string{"status", "mode"},
	)

	providerCallSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "image_provider_call_seconds",
			Help:    "Latency of external image-provider calls.",
			Buckets: []float64{1, 2, 5, 10, 20, 40, 80, 120},
		},
		[]string{"provider", "success"},
	)

	presignSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "storage_presign_seconds",
			Help:    "Latency of signed URL generation.",
			Buckets: prometheus.DefBuckets,
		},
	)

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "HTTP requests currently being served.",
		},
	)

	rateLimitDenials = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_denials_total",
			Help: "Generation requests denied by a usage-counter tier.",
		},
		[]string{"tier"},
	)
)

// MustRegister registers collectors with the default registry (idempotent).
func MustRegister() {
	once.Do(func() {
		prometheus.MustRegister(
			jobsProcessedTotal,
			providerCallSeconds,
			presignSeconds,
			httpInFlight,
			rateLimitDenials,
		)
	})
}

func IncJobProcessed(status, mode string) {
	jobsProcessedTotal.WithLabelValues(status, mode).Inc()
}

func ObserveProviderCall(provider string, success bool, seconds float64) {
	providerCallSeconds.WithLabelValues(provider, strconv.FormatBool(success)).Observe(seconds)
}

func ObservePresign(seconds float64) {
	presignSeconds.Observe(seconds)
}

func IncHTTPInFlight() { httpInFlight.Inc() }
func DecHTTPInFlight() { httpInFlight.Dec() }

func IncRateLimitDenial(tier string) {
	rateLimitDenials.WithLabelValues(tier).Inc()
}
