package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LiqPull/internal/domain/models"
	"LiqPull/internal/usecase"
	xlogger "LiqPull/pkg/logger"
)

type fakeEngine struct {
	res       *models.AggregateResult
	err       error
	refreshes int
}

func (f *fakeEngine) ComputeLiquiditySnapshot(context.Context) (*models.AggregateResult, error) {
	return f.res, f.err
}

func (f *fakeEngine) Refresh(context.Context) (*models.AggregateResult, error) {
	f.refreshes++
	return f.res, f.err
}

type fakeHistory struct {
	gotID    string
	gotLimit int
}

func (f *fakeHistory) History(_ context.Context, id string, limit int) ([]models.HistoryPoint, error) {
	f.gotID, f.gotLimit = id, limit
	return []models.HistoryPoint{{ID: id, Kind: models.HistoryIndicator, Value: 21000}}, nil
}

func sampleResult() *models.AggregateResult {
	return &models.AggregateResult{
		Indicators: []models.Indicator{
			{SeriesID: "M2SL", Category: models.CategoryCore, IsAnomaly: true},
			{SeriesID: "M1SL", Category: models.CategoryCore},
			{SeriesID: "FEDFUNDS", Category: models.CategoryPolicy},
		},
		DerivedMetrics: []models.DerivedMetric{{ID: "net_liquidity", Value: 5800}},
		Summary: models.Summary{
			TotalIndicators: 3,
			OverallSignal:   models.SignalBullish,
			LastUpdated:     time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		},
	}
}

func newServer(h *LiquidityEchoHandler) *echo.Echo {
	e := echo.New()
	h.RegisterRoutes(e)
	return e
}

type envelope struct {
	Status int             `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func do(t *testing.T, e *echo.Echo, method, target string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func TestSnapshotEndpoint(t *testing.T) {
	e := newServer(NewLiquidityEchoHandler(xlogger.NewNop(), &fakeEngine{res: sampleResult()}, nil))

	rec, env := do(t, e, http.MethodGet, "/api/liquidity")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "public, max-age=60", rec.Header().Get(echo.HeaderCacheControl))

	var res models.AggregateResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, models.SignalBullish, res.Summary.OverallSignal)
	assert.Len(t, res.Indicators, 3)
}

func TestIndicatorsFilter(t *testing.T) {
	e := newServer(NewLiquidityEchoHandler(xlogger.NewNop(), &fakeEngine{res: sampleResult()}, nil))

	_, env := do(t, e, http.MethodGet, "/api/liquidity/indicators?category=core&anomalies=true")
	var out IndicatorsResponse
	require.NoError(t, json.Unmarshal(env.Data, &out))
	require.Equal(t, 1, out.Total)
	assert.Equal(t, "M2SL", out.Indicators[0].SeriesID)
	assert.Equal(t, "2025-03-01T12:00:00Z", out.LastUpdated)

	_, env = do(t, e, http.MethodGet, "/api/liquidity/indicators?category=policy")
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.Equal(t, 1, out.Total)
}

func TestIndicatorsRejectsUnknownCategory(t *testing.T) {
	e := newServer(NewLiquidityEchoHandler(xlogger.NewNop(), &fakeEngine{res: sampleResult()}, nil))

	rec, _ := do(t, e, http.MethodGet, "/api/liquidity/indicators?category=crypto")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDerivedEndpoint(t *testing.T) {
	e := newServer(NewLiquidityEchoHandler(xlogger.NewNop(), &fakeEngine{res: sampleResult()}, nil))

	_, env := do(t, e, http.MethodGet, "/api/liquidity/derived")
	var out DerivedResponse
	require.NoError(t, json.Unmarshal(env.Data, &out))
	require.Len(t, out.DerivedMetrics, 1)
	assert.Nil(t, out.Overlay)
}

func TestTotalFailureIsServiceUnavailable(t *testing.T) {
	e := newServer(NewLiquidityEchoHandler(xlogger.NewNop(), &fakeEngine{err: usecase.ErrNoIndicators}, nil))

	rec, env := do(t, e, http.MethodGet, "/api/liquidity")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, http.StatusServiceUnavailable, env.Status)
}

func TestRefreshIsRateLimited(t *testing.T) {
	eng := &fakeEngine{res: sampleResult()}
	e := newServer(NewLiquidityEchoHandler(xlogger.NewNop(), eng, nil))

	for i := 0; i < refreshBurst; i++ {
		rec, _ := do(t, e, http.MethodPost, "/api/liquidity/refresh")
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	rec, _ := do(t, e, http.MethodPost, "/api/liquidity/refresh")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "30", rec.Header().Get("Retry-After"))
	assert.Equal(t, refreshBurst, eng.refreshes)
}

func TestHistoryEndpoint(t *testing.T) {
	h := NewLiquidityEchoHandler(xlogger.NewNop(), &fakeEngine{res: sampleResult()}, nil)
	e := newServer(h)

	rec, _ := do(t, e, http.MethodGet, "/api/liquidity/history?id=M2SL")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	hist := &fakeHistory{}
	h.SetHistory(hist)

	rec, _ = do(t, e, http.MethodGet, "/api/liquidity/history")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env := do(t, e, http.MethodGet, "/api/liquidity/history?id=M2SL&limit=5")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "M2SL", hist.gotID)
	assert.Equal(t, 5, hist.gotLimit)

	var list struct {
		Rows  []models.HistoryPoint `json:"rows"`
		Total int64                 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, int64(1), list.Total)

	_, _ = do(t, e, http.MethodGet, "/api/liquidity/history?id=M2SL")
	assert.Equal(t, 100, hist.gotLimit)
}

func TestHealthz(t *testing.T) {
	e := newServer(NewLiquidityEchoHandler(xlogger.NewNop(), &fakeEngine{}, nil))

	rec, _ := do(t, e, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
}
