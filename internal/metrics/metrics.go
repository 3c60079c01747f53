// Package metrics declares the prometheus collectors of the service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "globle_http_requests_total",
		Help: "Total number of HTTP requests by route and status",
	}, []string{"route", "status"})
	RequestDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "globle_http_request_duration_ms",
		Help:    "HTTP request duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000, 5000},
	}, []string{"route"})
	MeshBuildsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "globle_mesh_builds_total",
		Help: "Total number of meshes built by kind",
	}, []string{"kind"})
	MeshBuildDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "globle_mesh_build_duration_ms",
		Help:    "Mesh build duration in milliseconds",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 50, 100, 500},
	}, []string{"kind"})
	MeshCacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "globle_mesh_cache_hits_total",
		Help: "Total mesh cache hits",
	})
	MeshCacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "globle_mesh_cache_misses_total",
		Help: "Total mesh cache misses",
	})
	SkippedRingsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "globle_skipped_rings_total",
		Help: "Total rings skipped during mesh generation by kind",
	}, []string{"kind"})
	FeaturesLoaded = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "globle_features_loaded",
		Help: "Number of country features loaded",
	})
	FeaturesSkipped = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "globle_features_skipped",
		Help: "Number of country features skipped at load",
	})
	GuessesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "globle_guesses_total",
		Help: "Total guesses by outcome",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(RequestDurationMs)
	prometheus.MustRegister(MeshBuildsTotal)
	prometheus.MustRegister(MeshBuildDurationMs)
	prometheus.MustRegister(MeshCacheHitsTotal)
	prometheus.MustRegister(MeshCacheMissesTotal)
	prometheus.MustRegister(SkippedRingsTotal)
	prometheus.MustRegister(FeaturesLoaded)
	prometheus.MustRegister(FeaturesSkipped)
	prometheus.MustRegister(GuessesTotal)
}

// Handler returns the prometheus scrape handler.
func Handler() http.Handler { return promhttp.Handler() }
