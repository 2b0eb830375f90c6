package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder holds the service's Prometheus collectors. A nil *Recorder is
// valid and records nothing.
type Recorder struct {
	comparisons        *prometheus.CounterVec
	comparisonDuration prometheus.Histogram
	similarity         prometheus.Histogram
	cacheRequests      *prometheus.CounterVec
	httpRequests       *prometheus.CounterVec
}

var (
	defaultRecorder     *Recorder
	defaultRecorderOnce sync.Once
)

// InitPrometheus registers the collectors on the default registry.
func InitPrometheus() *Recorder {
	defaultRecorderOnce.Do(func() {
		defaultRecorder = New(prometheus.DefaultRegisterer)
	})
	return defaultRecorder
}

// New builds a recorder on reg. Tests pass a fresh prometheus.NewRegistry().
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Recorder{
		comparisons: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shingle",
			Name:      "comparisons_total",
			Help:      "Total number of document comparisons by source",
		}, []string{"source"}),
		comparisonDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "shingle",
			Name:      "comparison_duration_seconds",
			Help:      "Time spent comparing one document pair",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
		similarity: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "shingle",
			Name:      "similarity_percent",
			Help:      "Distribution of similarity scores",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		}),
		cacheRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shingle",
			Name:      "cache_requests_total",
			Help:      "Result cache lookups by layer and outcome",
		}, []string{"layer", "result"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shingle",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
	}
}

// ObserveComparison records one engine run.
func (r *Recorder) ObserveComparison(source string, elapsed time.Duration, similarity float64) {
	if r == nil {
		return
	}
	r.comparisons.WithLabelValues(source).Inc()
	r.comparisonDuration.Observe(elapsed.Seconds())
	r.similarity.Observe(similarity)
}

// CacheRequest records a cache lookup; result is "hit" or "miss".
func (r *Recorder) CacheRequest(layer, result string) {
	if r == nil {
		return
	}
	r.cacheRequests.WithLabelValues(layer, result).Inc()
}

// HTTPRequest records a served request.
func (r *Recorder) HTTPRequest(method, route string, status int) {
	if r == nil {
		return
	}
	r.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}
