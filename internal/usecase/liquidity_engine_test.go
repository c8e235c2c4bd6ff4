package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LiqPull/internal/domain/models"
	cachesvc "LiqPull/internal/service/cache"
	"LiqPull/internal/services/analytics"
	"LiqPull/internal/services/catalog"
	"LiqPull/pkg/config"
	applogger "LiqPull/pkg/logger"
)

var (
	latestDate  = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	yearAgoDate = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
)

// raw provider values: latest, one year earlier
var baseline = map[string][2]float64{
	catalog.SeriesM2:           {21000, 20000},
	catalog.SeriesM1:           {18000, 18000},
	catalog.SeriesRRP:          {100, 500},
	catalog.SeriesTGA:          {800000, 750000},
	catalog.SeriesFedAssets:    {6700000, 7500000},
	catalog.SeriesReserves:     {3300000, 3400000},
	catalog.SeriesCurrency:     {2300, 2250},
	catalog.SeriesMonetaryBase: {5600, 5500},
	catalog.SeriesM2Velocity:   {1.4, 1.38},
	catalog.SeriesM1Velocity:   {1.6, 1.6},
	catalog.SeriesFedFunds:     {4.33, 5.33},
	catalog.SeriesFedTreasury:  {4200000, 4600000},
	catalog.SeriesFedMBS:       {2200000, 2400000},
}

type fakeSeries struct {
	mu     sync.Mutex
	calls  map[string]int
	fail   map[string]error
	panics map[string]bool
	block  bool
}

func newFakeSeries() *fakeSeries {
	return &fakeSeries{calls: map[string]int{}, fail: map[string]error{}, panics: map[string]bool{}}
}

func (f *fakeSeries) FetchObservations(ctx context.Context, def models.SeriesDefinition) ([]models.RawObservation, error) {
	f.mu.Lock()
	f.calls[def.ID]++
	err, panics, block := f.fail[def.ID], f.panics[def.ID], f.block
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if panics {
		panic("decoder exploded")
	}
	if err != nil {
		return nil, err
	}
	v := baseline[def.ID]
	return []models.RawObservation{
		{Date: latestDate, Value: v[0]},
		{Date: yearAgoDate, Value: v[1]},
	}, nil
}

func (f *fakeSeries) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

type fakePrice struct {
	price float64
	err   error
}

func (f fakePrice) SpotPrice(context.Context) (models.SpotPrice, error) {
	if f.err != nil {
		return models.SpotPrice{}, f.err
	}
	return models.SpotPrice{AssetID: "bitcoin", Price: f.price, Change24hPercent: 1.5}, nil
}

type fakePublisher struct {
	got atomic.Int32
	err error
}

func (p *fakePublisher) Name() string { return "fake" }

func (p *fakePublisher) PublishSnapshot(context.Context, *models.AggregateResult) error {
	p.got.Add(1)
	return p.err
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func testAnalytics() Analytics {
	th := config.DefaultThresholds()
	return Analytics{
		Derived:   analytics.NewDerivedCalculator(th),
		Overlay:   analytics.NewOverlayBuilder(th),
		Anomalies: analytics.NewAnomalyDetector(),
		Signals:   analytics.NewSignalAggregator(th),
	}
}

func newTestEngine(src *fakeSeries, opts ...EngineOption) (*LiquidityEngine, *cachesvc.MemoryResultCache) {
	cache := cachesvc.NewMemoryResultCache()
	return NewLiquidityEngine(src, cache, testAnalytics(), applogger.NewNop(), opts...), cache
}

func TestComputeFullCycle(t *testing.T) {
	src := newFakeSeries()
	e, _ := newTestEngine(src, WithPriceSource(fakePrice{price: 90000}))

	res, err := e.ComputeLiquiditySnapshot(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Indicators, len(catalog.All()))
	assert.Equal(t, len(catalog.All()), res.Summary.TotalIndicators)
	for i, def := range catalog.All() {
		assert.Equal(t, def.ID, res.Indicators[i].SeriesID)
	}

	netLiq, ok := res.DerivedMetric(analytics.MetricNetLiquidity)
	require.True(t, ok)
	assert.InDelta(t, 5800, netLiq.Value, 1e-6)
	_, ok = res.DerivedMetric(analytics.MetricMultiplier)
	assert.True(t, ok)
	_, ok = res.DerivedMetric(analytics.MetricReserveRatio)
	assert.True(t, ok)

	require.NotNil(t, res.Overlay)
	assert.False(t, res.Overlay.Elevated)

	// M2 expanding, RRP draining, net liquidity high vs Fed BS tightening
	assert.Equal(t, models.SignalBullish, res.Summary.OverallSignal)
	assert.Len(t, res.Summary.SignalReasons, 4)
	assert.False(t, res.Summary.CriticalAlert)
	assert.Equal(t, len(res.Anomalies), res.Summary.AnomalyCount)
	for _, ind := range res.Anomalies {
		assert.True(t, ind.IsAnomaly)
	}
}

func TestComputeOrdersByCategoryThenCatalog(t *testing.T) {
	defs := catalog.All()
	reversed := make([]models.SeriesDefinition, len(defs))
	for i, d := range defs {
		reversed[len(defs)-1-i] = d
	}

	e, _ := newTestEngine(newFakeSeries(), WithCatalog(reversed))
	res, err := e.Refresh(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Indicators, len(defs))
	for i, def := range defs {
		assert.Equal(t, def.ID, res.Indicators[i].SeriesID)
	}
}

func TestComputePartialFailure(t *testing.T) {
	src := newFakeSeries()
	src.fail[catalog.SeriesFedAssets] = errors.New("upstream 500")

	e, _ := newTestEngine(src)
	res, err := e.ComputeLiquiditySnapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, len(catalog.All())-1, res.Summary.TotalIndicators)
	_, ok := res.Indicator(catalog.SeriesFedAssets)
	assert.False(t, ok)
	_, ok = res.DerivedMetric(analytics.MetricNetLiquidity)
	assert.False(t, ok, "net liquidity needs the Fed balance sheet")
	_, ok = res.DerivedMetric(analytics.MetricReserveRatio)
	assert.False(t, ok)
	_, ok = res.DerivedMetric(analytics.MetricMultiplier)
	assert.True(t, ok)
}

func TestComputeTotalFailureNotCached(t *testing.T) {
	src := newFakeSeries()
	for id := range baseline {
		src.fail[id] = errors.New("timeout")
	}

	e, cache := newTestEngine(src)
	res, err := e.ComputeLiquiditySnapshot(context.Background())
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrNoIndicators)

	_, _, ok := cache.Get(context.Background())
	assert.False(t, ok)
}

func TestComputeServesFreshCache(t *testing.T) {
	src := newFakeSeries()
	clk := &clock{t: latestDate.Add(48 * time.Hour)}
	e, _ := newTestEngine(src, WithClock(clk.Now))
	n := len(catalog.All())

	first, err := e.ComputeLiquiditySnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, n, src.totalCalls())

	clk.Advance(9 * time.Minute)
	second, err := e.ComputeLiquiditySnapshot(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, n, src.totalCalls())

	clk.Advance(2 * time.Minute)
	third, err := e.ComputeLiquiditySnapshot(context.Background())
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Equal(t, 2*n, src.totalCalls())
	assert.Equal(t, clk.Now(), third.Summary.LastUpdated)
}

func TestRefreshBypassesCache(t *testing.T) {
	src := newFakeSeries()
	e, _ := newTestEngine(src)

	_, err := e.ComputeLiquiditySnapshot(context.Background())
	require.NoError(t, err)
	_, err = e.Refresh(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2*len(catalog.All()), src.totalCalls())
}

func TestComputeContainsTaskPanic(t *testing.T) {
	src := newFakeSeries()
	src.panics[catalog.SeriesM1] = true

	e, _ := newTestEngine(src)
	res, err := e.ComputeLiquiditySnapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, len(catalog.All())-1, res.Summary.TotalIndicators)
	_, ok := res.Indicator(catalog.SeriesM1)
	assert.False(t, ok)
}

func TestComputeOverlayUnavailable(t *testing.T) {
	e, _ := newTestEngine(newFakeSeries(), WithPriceSource(fakePrice{err: errors.New("429")}))

	res, err := e.ComputeLiquiditySnapshot(context.Background())
	require.NoError(t, err)
	assert.Nil(t, res.Overlay)
	assert.Equal(t, len(catalog.All()), res.Summary.TotalIndicators)
}

func TestComputeCallerAbandonment(t *testing.T) {
	src := newFakeSeries()
	src.block = true
	e, cache := newTestEngine(src)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	res, err := e.ComputeLiquiditySnapshot(ctx)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	_, _, ok := cache.Get(context.Background())
	assert.False(t, ok)
}

func TestRefreshPublishesSnapshot(t *testing.T) {
	ok := &fakePublisher{}
	failing := &fakePublisher{err: errors.New("broker down")}
	e, _ := newTestEngine(newFakeSeries(), WithPublishers(ok, nil, failing))

	res, err := e.Refresh(context.Background())
	require.NoError(t, err)
	require.NotNil(t, res)

	e.Wait()
	assert.Equal(t, int32(1), ok.got.Load())
	assert.Equal(t, int32(1), failing.got.Load())
}
