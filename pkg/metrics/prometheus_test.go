package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"LiqPull/internal/domain/models"
)

func TestRecorderSnapshotGauges(t *testing.T) {
	r := NewWithRegisterer(prometheus.NewRegistry())

	r.RecordSnapshot(&models.AggregateResult{
		DerivedMetrics:   []models.DerivedMetric{{ID: "net_liquidity", Value: 2500}},
		Anomalies:        []models.Indicator{{SeriesID: "WALCL"}},
		AnomalousMetrics: []models.DerivedMetric{{ID: "net_liquidity"}},
		Summary: models.Summary{
			TotalIndicators: 12,
			OverallSignal:   models.SignalBearish,
			CriticalAlert:   true,
		},
	})

	assert.Equal(t, -1.0, testutil.ToFloat64(r.signal))
	assert.Equal(t, 2500.0, testutil.ToFloat64(r.netLiquidity))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.anomalies))
	assert.Equal(t, 12.0, testutil.ToFloat64(r.indicators))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.critical))
}

func TestRecorderCounters(t *testing.T) {
	r := NewWithRegisterer(prometheus.NewRegistry())

	r.RecordFetch("M2SL", "ok")
	r.RecordFetch("M2SL", "ok")
	r.RecordFetch("WALCL", "error")
	r.RecordCache("hit")
	r.RecordPublish("kafka", "error")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.fetches.WithLabelValues("M2SL", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.fetches.WithLabelValues("WALCL", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.cache.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.publishes.WithLabelValues("kafka", "error")))
}
