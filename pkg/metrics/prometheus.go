package metrics

import (
	"LiqPull/internal/domain/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	fetches      *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	cache        *prometheus.CounterVec
	publishes    *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	signal       prometheus.Gauge
	netLiquidity prometheus.Gauge
	anomalies    prometheus.Gauge
	indicators   prometheus.Gauge
	critical     prometheus.Gauge
}

// New creates a recorder registered with the default Prometheus registry.
func New() *Recorder {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates a recorder registered with reg.
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		fetches: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "liqpull_series_fetch_total",
				Help: "Series fetch attempts by outcome",
			},
			[]string{"series_id", "outcome"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "liqpull_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		cache: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "liqpull_result_cache_total",
				Help: "Result cache lookups by result",
			},
			[]string{"result"},
		),
		publishes: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "liqpull_snapshot_publish_total",
				Help: "Snapshot deliveries to sinks by outcome",
			},
			[]string{"sink", "outcome"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "liqpull_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 30, 60},
			},
			[]string{"operation"},
		),
		signal: f.NewGauge(prometheus.GaugeOpts{
			Name: "liqpull_signal",
			Help: "Composite liquidity signal: 1 bullish, 0 neutral, -1 bearish",
		}),
		netLiquidity: f.NewGauge(prometheus.GaugeOpts{
			Name: "liqpull_net_liquidity_billions",
			Help: "Net liquidity proxy in billions USD",
		}),
		anomalies: f.NewGauge(prometheus.GaugeOpts{
			Name: "liqpull_anomalies",
			Help: "Anomalous indicators and derived metrics in the last snapshot",
		}),
		indicators: f.NewGauge(prometheus.GaugeOpts{
			Name: "liqpull_indicators",
			Help: "Indicators present in the last snapshot",
		}),
		critical: f.NewGauge(prometheus.GaugeOpts{
			Name: "liqpull_critical_alert",
			Help: "1 when net liquidity is below the critical floor",
		}),
	}
}

// RecordFetch records one series fetch outcome (ok, error, insufficient, panic).
func (r *Recorder) RecordFetch(seriesID, outcome string) {
	r.fetches.WithLabelValues(seriesID, outcome).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordCache records a result cache hit or miss.
func (r *Recorder) RecordCache(result string) {
	r.cache.WithLabelValues(result).Inc()
}

// RecordPublish records a snapshot sink delivery.
func (r *Recorder) RecordPublish(sink, outcome string) {
	r.publishes.WithLabelValues(sink, outcome).Inc()
}

// RecordSnapshot exports the headline figures of a fresh snapshot.
func (r *Recorder) RecordSnapshot(res *models.AggregateResult) {
	if res == nil {
		return
	}
	switch res.Summary.OverallSignal {
	case models.SignalBullish:
		r.signal.Set(1)
	case models.SignalBearish:
		r.signal.Set(-1)
	default:
		r.signal.Set(0)
	}
	if m, ok := res.DerivedMetric("net_liquidity"); ok {
		r.netLiquidity.Set(m.Value)
	}
	r.anomalies.Set(float64(len(res.Anomalies) + len(res.AnomalousMetrics)))
	r.indicators.Set(float64(res.Summary.TotalIndicators))
	if res.Summary.CriticalAlert {
		r.critical.Set(1)
	} else {
		r.critical.Set(0)
	}
}
