// Package searchmetrics exposes the Prometheus counters the HTTP layer
// updates, grounded on the promauto registration style used for
// running/archiveSize/archiveFiles/requestTotal in
// cmd/searcher/search/search.go.
package searchmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Running tracks the number of in-flight /search requests.
	Running = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "searcher_service_running",
		Help: "Number of running search requests.",
	})

	// RequestTotal counts completed /search requests by outcome status code.
	RequestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "searcher_service_request_total",
		Help: "Number of returned search requests.",
	}, []string{"code"})

	// RequestDuration observes wall-clock time from the start of a /search
	// request until FindOrchestrator.Find returns.
	RequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "searcher_service_request_duration_seconds",
		Help:    "Observes the duration of a completed search.",
		Buckets: prometheus.DefBuckets,
	})

	// FilesScanned observes how many filename candidates a search walked.
	FilesScanned = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "searcher_service_files_scanned",
		Help:    "Observes the number of files considered by a search.",
		Buckets: []float64{100, 1000, 10000, 50000, 100000},
	})

	// CacheHits counts searches served from the directory cache.
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "searcher_service_cache_hits_total",
		Help: "Number of searches served from the directory cache instead of a live walk.",
	})
)
