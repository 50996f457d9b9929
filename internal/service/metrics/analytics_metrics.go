package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Analytics tracks per-kind computation latency and cache effectiveness.
type Analytics struct {
	latency *prometheus.HistogramVec
	cache   *prometheus.CounterVec
	errors  *prometheus.CounterVec
}

func NewAnalytics(reg prometheus.Registerer) *Analytics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Analytics{
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "carbondesk",
			Subsystem: "analytics",
			Name:      "compute_seconds",
			Help:      "Time spent computing an analytics result",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		cache: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carbondesk",
			Subsystem: "analytics",
			Name:      "cache_lookups_total",
			Help:      "Analytics cache lookups by result",
		}, []string{"kind", "result"}),
		errors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carbondesk",
			Subsystem: "analytics",
			Name:      "errors_total",
			Help:      "Analytics failures by kind and error class",
		}, []string{"kind", "class"}),
	}
}

func (a *Analytics) ObserveCompute(kind string, seconds float64) {
	if a != nil {
		a.latency.WithLabelValues(kind).Observe(seconds)
	}
}

func (a *Analytics) CacheLookup(kind string, hit bool) {
	if a == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	a.cache.WithLabelValues(kind, result).Inc()
}

// Error counts a failure; class is "business" or "infrastructure".
func (a *Analytics) Error(kind, class string) {
	if a != nil {
		a.errors.WithLabelValues(kind, class).Inc()
	}
}
