package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"LiqPull/internal/domain/models"
	domrepo "LiqPull/internal/domain/repository"
	domsvc "LiqPull/internal/domain/service"
	"LiqPull/internal/services/align"
	"LiqPull/internal/services/analytics"
	"LiqPull/internal/services/catalog"
	applogger "LiqPull/pkg/logger"
)

// ErrNoIndicators is returned when every series of a cycle failed.
var ErrNoIndicators = errors.New("no liquidity indicators available")

const (
	defaultFreshness      = 10 * time.Minute
	defaultCycleTimeout   = 45 * time.Second
	defaultPublishTimeout = 15 * time.Second
)

// Fetch outcomes reported to metrics.
const (
	outcomeOK           = "ok"
	outcomeError        = "error"
	outcomeInsufficient = "insufficient"
	outcomePanic        = "panic"
)

// Analytics bundles the pure stages run after the fan-out joins.
type Analytics struct {
	Derived   domsvc.DerivedCalculator
	Overlay   domsvc.OverlayBuilder
	Anomalies domsvc.AnomalyDetector
	Signals   domsvc.SignalAggregator
}

// LiquidityEngine orchestrates one refresh cycle: fetch every catalog series
// concurrently, align and normalize, derive metrics, overlay the reference
// asset and vote a signal. Results are cached for the freshness window.
type LiquidityEngine struct {
	series     domrepo.SeriesSource
	prices     domrepo.PriceSource
	cache      domrepo.ResultCache
	analytics  Analytics
	publishers []domrepo.SnapshotPublisher
	metrics    domrepo.Metrics
	l          *applogger.Logger

	defs           []models.SeriesDefinition
	freshness      time.Duration
	cycleTimeout   time.Duration
	publishTimeout time.Duration
	now            func() time.Time

	publishing sync.WaitGroup
}

// EngineOption configures a LiquidityEngine.
type EngineOption func(*LiquidityEngine)

// WithPriceSource enables the reference asset overlay.
func WithPriceSource(p domrepo.PriceSource) EngineOption {
	return func(e *LiquidityEngine) { e.prices = p }
}

// WithPublishers registers sinks that receive every freshly computed result.
func WithPublishers(pubs ...domrepo.SnapshotPublisher) EngineOption {
	return func(e *LiquidityEngine) {
		for _, p := range pubs {
			if p != nil {
				e.publishers = append(e.publishers, p)
			}
		}
	}
}

func WithMetrics(m domrepo.Metrics) EngineOption {
	return func(e *LiquidityEngine) { e.metrics = m }
}

// WithFreshness sets how long a cached result is served.
func WithFreshness(d time.Duration) EngineOption {
	return func(e *LiquidityEngine) {
		if d > 0 {
			e.freshness = d
		}
	}
}

// WithCycleTimeout bounds one full fan-out.
func WithCycleTimeout(d time.Duration) EngineOption {
	return func(e *LiquidityEngine) {
		if d > 0 {
			e.cycleTimeout = d
		}
	}
}

func WithPublishTimeout(d time.Duration) EngineOption {
	return func(e *LiquidityEngine) {
		if d > 0 {
			e.publishTimeout = d
		}
	}
}

// WithCatalog replaces the tracked series list.
func WithCatalog(defs []models.SeriesDefinition) EngineOption {
	return func(e *LiquidityEngine) { e.defs = defs }
}

// WithClock injects the time source used for freshness and timestamps.
func WithClock(now func() time.Time) EngineOption {
	return func(e *LiquidityEngine) {
		if now != nil {
			e.now = now
		}
	}
}

func NewLiquidityEngine(series domrepo.SeriesSource, cache domrepo.ResultCache, an Analytics, l *applogger.Logger, opts ...EngineOption) *LiquidityEngine {
	e := &LiquidityEngine{
		series:         series,
		cache:          cache,
		analytics:      an,
		metrics:        nopMetrics{},
		l:              l,
		defs:           catalog.All(),
		freshness:      defaultFreshness,
		cycleTimeout:   defaultCycleTimeout,
		publishTimeout: defaultPublishTimeout,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ComputeLiquiditySnapshot returns the cached result while it is fresh and
// otherwise runs a new cycle.
func (e *LiquidityEngine) ComputeLiquiditySnapshot(ctx context.Context) (*models.AggregateResult, error) {
	if res, at, ok := e.cache.Get(ctx); ok && e.now().Sub(at) < e.freshness {
		e.metrics.RecordCache("hit")
		return res, nil
	}
	e.metrics.RecordCache("miss")
	return e.Refresh(ctx)
}

// Refresh runs a cycle regardless of the cache and stores the result.
func (e *LiquidityEngine) Refresh(ctx context.Context) (*models.AggregateResult, error) {
	start := time.Now()
	defer func() { e.metrics.RecordLatency("refresh", time.Since(start).Seconds()) }()

	res, err := e.compute(ctx)
	if err != nil {
		e.metrics.RecordError(errorKind(err))
		return nil, err
	}

	e.cache.Set(ctx, res, res.Summary.LastUpdated)
	e.metrics.RecordSnapshot(res)
	e.publish(res)

	fields := []applogger.Field{
		applogger.Int("indicators", len(res.Indicators)),
		applogger.Int("derived", len(res.DerivedMetrics)),
		applogger.Int("anomalies", res.Summary.AnomalyCount),
		applogger.String("signal", string(res.Summary.OverallSignal)),
		applogger.Bool("critical", res.Summary.CriticalAlert),
		applogger.Duration("took", time.Since(start)),
	}
	if nl, ok := res.DerivedMetric(analytics.MetricNetLiquidity); ok {
		fields = append(fields, applogger.Float64("net_liquidity", nl.Value))
	}
	e.l.Info("liquidity snapshot computed", fields...)
	return res, nil
}

// Wait blocks until background snapshot deliveries have finished.
func (e *LiquidityEngine) Wait() {
	e.publishing.Wait()
}

type fanOut struct {
	indicators []*models.Indicator
	quote      *models.SpotPrice
}

func (e *LiquidityEngine) compute(ctx context.Context) (*models.AggregateResult, error) {
	cctx, cancel := context.WithTimeout(ctx, e.cycleTimeout)

	out := &fanOut{indicators: make([]*models.Indicator, len(e.defs))}
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer cancel()
		e.gather(cctx, out)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		// tasks still write into out; it is dropped with this call
		return nil, ctx.Err()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return e.assemble(out)
}

// gather runs one task per series plus the overlay quote. Tasks never fail
// the group; each writes only its own slot.
func (e *LiquidityEngine) gather(ctx context.Context, out *fanOut) {
	var g errgroup.Group
	for i, def := range e.defs {
		i, def := i, def
		g.Go(func() error {
			out.indicators[i] = e.fetchIndicator(ctx, def)
			return nil
		})
	}
	if e.prices != nil {
		g.Go(func() error {
			out.quote = e.fetchQuote(ctx)
			return nil
		})
	}
	_ = g.Wait()
}

func (e *LiquidityEngine) fetchIndicator(ctx context.Context, def models.SeriesDefinition) (ind *models.Indicator) {
	defer func() {
		if r := recover(); r != nil {
			e.metrics.RecordFetch(def.ID, outcomePanic)
			e.l.Error("series task panicked",
				applogger.String("series_id", def.ID),
				applogger.Any("panic", r),
			)
			ind = nil
		}
	}()

	obs, err := e.series.FetchObservations(ctx, def)
	if err != nil {
		e.metrics.RecordFetch(def.ID, outcomeError)
		e.l.Warn("series fetch failed",
			applogger.String("series_id", def.ID),
			applogger.Error(err),
		)
		return nil
	}

	aligned, err := align.Align(obs, def.Frequency)
	if err != nil {
		e.metrics.RecordFetch(def.ID, outcomeInsufficient)
		e.l.Info("series excluded: data quality",
			applogger.String("series_id", def.ID),
			applogger.Int("observations", len(obs)),
			applogger.Error(err),
		)
		return nil
	}

	e.metrics.RecordFetch(def.ID, outcomeOK)
	built := analytics.BuildIndicator(def, aligned)
	return &built
}

func (e *LiquidityEngine) fetchQuote(ctx context.Context) (q *models.SpotPrice) {
	defer func() {
		if r := recover(); r != nil {
			e.l.Error("overlay task panicked", applogger.Any("panic", r))
			q = nil
		}
	}()

	quote, err := e.prices.SpotPrice(ctx)
	if err != nil {
		e.metrics.RecordError("overlay")
		e.l.Warn("reference price unavailable", applogger.Error(err))
		return nil
	}
	return &quote
}

func (e *LiquidityEngine) assemble(out *fanOut) (*models.AggregateResult, error) {
	indicators := make([]models.Indicator, 0, len(out.indicators))
	for _, ind := range out.indicators {
		if ind != nil {
			indicators = append(indicators, *ind)
		}
	}
	if len(indicators) == 0 {
		return nil, ErrNoIndicators
	}
	sortIndicators(indicators)

	derived := e.analytics.Derived.Calculate(indicators)
	if derived == nil {
		derived = []models.DerivedMetric{}
	}
	overlay := e.analytics.Overlay.Build(indicators, out.quote)
	anomalies, anomalousMetrics := e.analytics.Anomalies.Collect(indicators, derived)
	verdict := e.analytics.Signals.Aggregate(indicators, derived, overlay)

	reasons := verdict.Reasons
	if reasons == nil {
		reasons = []string{}
	}
	return &models.AggregateResult{
		Indicators:       indicators,
		DerivedMetrics:   derived,
		Overlay:          overlay,
		Anomalies:        anomalies,
		AnomalousMetrics: anomalousMetrics,
		Summary: models.Summary{
			TotalIndicators:      len(indicators),
			AnomalyCount:         len(anomalies),
			OverallSignal:        verdict.Signal,
			SignalReasons:        reasons,
			CriticalAlert:        verdict.CriticalAlert,
			CriticalAlertMessage: verdict.CriticalAlertMessage,
			LastUpdated:          e.now().UTC(),
		},
	}, nil
}

// sortIndicators orders by category, then by catalog position.
func sortIndicators(inds []models.Indicator) {
	sort.SliceStable(inds, func(i, j int) bool {
		ri, rj := inds[i].Category.Rank(), inds[j].Category.Rank()
		if ri != rj {
			return ri < rj
		}
		return catalog.Position(inds[i].SeriesID) < catalog.Position(inds[j].SeriesID)
	})
}

func (e *LiquidityEngine) publish(res *models.AggregateResult) {
	if len(e.publishers) == 0 {
		return
	}
	e.publishing.Add(1)
	go func() {
		defer e.publishing.Done()
		ctx, cancel := context.WithTimeout(context.Background(), e.publishTimeout)
		defer cancel()
		for _, p := range e.publishers {
			if err := safePublish(ctx, p, res); err != nil {
				e.metrics.RecordPublish(p.Name(), outcomeError)
				e.l.Warn("snapshot publish failed",
					applogger.String("sink", p.Name()),
					applogger.Error(err),
				)
				continue
			}
			e.metrics.RecordPublish(p.Name(), outcomeOK)
		}
	}()
}

func safePublish(ctx context.Context, p domrepo.SnapshotPublisher, res *models.AggregateResult) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("publisher panic: %v", r)
		}
	}()
	return p.PublishSnapshot(ctx, res)
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrNoIndicators):
		return "no_indicators"
	case errors.Is(err, context.DeadlineExceeded):
		return "deadline"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "refresh"
	}
}

type nopMetrics struct{}

func (nopMetrics) RecordFetch(string, string) {}
func (nopMetrics) RecordError(string) {}
func (nopMetrics) RecordLatency(string, float64) {}
func (nopMetrics) RecordCache(string) {}
func (nopMetrics) RecordPublish(string, string) {}
func (nopMetrics) RecordSnapshot(*models.AggregateResult) {}
