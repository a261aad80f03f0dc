package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PagesFetched = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "creatorscore_pages_fetched_total",
		Help: "Listing pages fetched, by window",
	}, []string{"window"})
	APIRetries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "creatorscore_api_retries_total",
		Help: "Upstream retry attempts, by endpoint",
	}, []string{"endpoint"})
	Evaluations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "creatorscore_evaluations_total",
		Help: "Content-quality evaluations, by outcome status",
	}, []string{"status"})
	RunDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "creatorscore_run_duration_seconds",
		Help:    "Scoring run duration in seconds",
		Buckets: prometheus.DefBuckets,
	})
	EvalDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "creatorscore_eval_duration_seconds",
		Help:    "Per-item evaluation duration in seconds",
		Buckets: prometheus.DefBuckets,
	})
	CacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "creatorscore_cache_hits_total",
		Help: "Composite scores served from the cache",
	})
)

func init() {
	prometheus.MustRegister(PagesFetched, APIRetries, Evaluations, RunDuration, EvalDuration, CacheHits)
}

// StartServer starts a metrics HTTP server on addr (e.g. ":9090").
// Empty addr disables the listener.
func StartServer(addr string) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	go func() { _ = http.ListenAndServe(addr, mux) }()
}

// ObserveRunDuration records a scoring run duration.
func ObserveRunDuration(start time.Time) {
	RunDuration.Observe(time.Since(start).Seconds())
}

// IncAPIRetry increments the retry counter for an endpoint.
func IncAPIRetry(endpoint string) { APIRetries.WithLabelValues(endpoint).Inc() }
