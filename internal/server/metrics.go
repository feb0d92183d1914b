// Package server contains HTTP handlers for the pid generator service.
// This file implements Prometheus metrics exposure endpoints.
package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	initializeCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pid_initialize_total",
			Help: "Total number of Initialize calls, by kind and result.",
		},
		[]string{"kind", "result"}, // result: success, already_initialized, error
	)

	generateCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pid_generate_total",
			Help: "Total number of Generate calls, by kind and result.",
		},
		[]string{"kind", "result"}, // result: success, not_initialized, duplicate, error
	)

	seedValue = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pid_seed_value",
			Help: "Current seed value for a kind, as of the last successful Initialize or Generate.",
		},
		[]string{"kind"},
	)
)

// metricsHandler exposes Prometheus metrics through the main HTTP server.
func (h *Handler) metricsHandler(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// NewMetricsHandler creates a standalone HTTP handler for Prometheus
// metrics, used to run a metrics server on its own address.
func NewMetricsHandler() http.Handler {
	return promhttp.Handler()
}

func incrementInitialize(kind, result string) {
	initializeCount.WithLabelValues(kind, result).Inc()
}

func incrementGenerate(kind, result string) {
	generateCount.WithLabelValues(kind, result).Inc()
}

func setSeedValue(kind string, seed uint64) {
	seedValue.WithLabelValues(kind).Set(float64(seed))
}
