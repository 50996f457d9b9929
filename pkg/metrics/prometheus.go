package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"CarbonDesk/internal/domain/models"
)

// Recorder implements the domain Metrics port on Prometheus.
type Recorder struct {
	samplesIngested *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	lastPrice       *prometheus.GaugeVec
	latency         *prometheus.HistogramVec
	orders          *prometheus.CounterVec
}

// New registers collectors on reg; nil means the default registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		samplesIngested: f.NewCounterVec(prometheus.CounterOpts{
			Name: "carbondesk_samples_ingested_total",
			Help: "Samples accepted into the time-series store",
		}, []string{"source", "asset_id"}),
		errorsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "carbondesk_errors_total",
			Help: "Errors by kind",
		}, []string{"kind"}),
		lastPrice: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "carbondesk_last_price",
			Help: "Latest ingested price per asset",
		}, []string{"asset_id"}),
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "carbondesk_operation_duration_seconds",
			Help:    "Duration of core operations",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		orders: f.NewCounterVec(prometheus.CounterOpts{
			Name: "carbondesk_orders_total",
			Help: "Order executions by outcome",
		}, []string{"asset_id", "status"}),
	}
}

func (r *Recorder) RecordSampleIngested(source, assetID string) {
	r.samplesIngested.WithLabelValues(source, assetID).Inc()
}

func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

func (r *Recorder) RecordLastPrice(assetID string, price float64) {
	r.lastPrice.WithLabelValues(assetID).Set(price)
}

// RecordLatency observes op duration in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

func (r *Recorder) RecordOrder(assetID string, status models.OrderStatus) {
	r.orders.WithLabelValues(assetID, string(status)).Inc()
}

// Nop satisfies the Metrics port without recording anything.
type Nop struct{}

func (Nop) RecordSampleIngested(string, string)         {}
func (Nop) RecordError(string)                          {}
func (Nop) RecordLastPrice(string, float64)             {}
func (Nop) RecordLatency(string, float64)               {}
func (Nop) RecordOrder(string, models.OrderStatus)      {}
