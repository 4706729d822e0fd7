// Package metrics exposes the pipeline's Prometheus collectors, served
// at /metrics on the dashboard server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Cycle metrics
	CyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "deskhand_cycles_total",
			Help: "Total number of completed scheduler cycles",
		},
	)

	CycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "deskhand_cycle_duration_seconds",
			Help:    "Time taken by one full scheduler cycle in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	CycleErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "deskhand_cycle_errors_total",
			Help: "Total number of per-artifact errors caught during cycles",
		},
	)

	// Pipeline metrics
	ArtifactsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deskhand_artifacts_processed_total",
			Help: "Total artifacts processed by pipeline stage",
		},
		[]string{"stage"},
	)

	EmailsSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "deskhand_emails_sent_total",
			Help: "Total number of replies sent",
		},
	)

	FolderItems = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "deskhand_folder_items",
			Help: "Current number of artifacts per vault folder",
		},
		[]string{"folder"},
	)

	// HTTP metrics
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deskhand_http_requests_total",
			Help: "Total dashboard HTTP requests by method, path, and status",
		},
		[]string{"method", "path", "status"},
	)
)

func init() {
	prometheus.MustRegister(CyclesTotal)
	prometheus.MustRegister(CycleDuration)
	prometheus.MustRegister(CycleErrors)
	prometheus.MustRegister(ArtifactsProcessed)
	prometheus.MustRegister(EmailsSent)
	prometheus.MustRegister(FolderItems)
	prometheus.MustRegister(HTTPRequestsTotal)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
