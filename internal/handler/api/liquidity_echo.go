package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"LiqPull/internal/domain/models"
	domrepo "LiqPull/internal/domain/repository"
	"LiqPull/internal/service/ratelimit"
	"LiqPull/internal/usecase"
	xhttp "LiqPull/pkg/http"
	xlogger "LiqPull/pkg/logger"

	"github.com/labstack/echo/v4"
)

// SnapshotService is the engine surface used by the HTTP layer.
type SnapshotService interface {
	ComputeLiquiditySnapshot(ctx context.Context) (*models.AggregateResult, error)
	Refresh(ctx context.Context) (*models.AggregateResult, error)
}

// Manual refreshes hit the provider for every series, so they are rationed per client.
const (
	refreshBurst     = 2
	refreshPerSecond = 1.0 / 30
)

// LiquidityEchoHandler serves liquidity snapshots over Echo.
type LiquidityEchoHandler struct {
	logger  *xlogger.Logger
	engine  SnapshotService
	history domrepo.HistoryReader
	rl      *ratelimit.Limiter
}

func NewLiquidityEchoHandler(logger *xlogger.Logger, engine SnapshotService, rl *ratelimit.Limiter) *LiquidityEchoHandler {
	if rl == nil {
		rl = ratelimit.New()
	}
	return &LiquidityEchoHandler{logger: logger, engine: engine, rl: rl}
}

// SetHistory enables the history endpoint.
func (h *LiquidityEchoHandler) SetHistory(r domrepo.HistoryReader) { h.history = r }

func (h *LiquidityEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	g := e.Group("/api/liquidity")
	g.GET("", h.Snapshot)
	g.GET("/indicators", h.Indicators)
	g.GET("/derived", h.Derived)
	g.GET("/history", h.History)
	g.POST("/refresh", h.Refresh)
}

func (h *LiquidityEchoHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

func (h *LiquidityEchoHandler) Snapshot(c echo.Context) error {
	res, err := h.engine.ComputeLiquiditySnapshot(c.Request().Context())
	if err != nil {
		return h.fail(c, "snapshot", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=60")
	return xhttp.SuccessResponse(c, res)
}

// IndicatorsResponse is the filtered indicator list.
type IndicatorsResponse struct {
	Indicators  []models.Indicator `json:"indicators"`
	Total       int                `json:"total"`
	LastUpdated string             `json:"lastUpdated"`
}

func (h *LiquidityEchoHandler) Indicators(c echo.Context) error {
	req := &models.IndicatorsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.engine.ComputeLiquiditySnapshot(c.Request().Context())
	if err != nil {
		return h.fail(c, "indicators", err)
	}

	out := make([]models.Indicator, 0, len(res.Indicators))
	for _, ind := range res.Indicators {
		if req.Category != "" && string(ind.Category) != req.Category {
			continue
		}
		if req.Anomalies && !ind.IsAnomaly {
			continue
		}
		out = append(out, ind)
	}
	return xhttp.SuccessResponse(c, IndicatorsResponse{
		Indicators:  out,
		Total:       len(out),
		LastUpdated: res.Summary.LastUpdated.Format(time.RFC3339),
	})
}

// DerivedResponse carries composite metrics and the reference overlay.
type DerivedResponse struct {
	DerivedMetrics   []models.DerivedMetric   `json:"derivedMetrics"`
	AnomalousMetrics []models.DerivedMetric   `json:"anomalousMetrics"`
	Overlay          *models.ReferenceOverlay `json:"overlay,omitempty"`
	Summary          models.Summary           `json:"summary"`
}

func (h *LiquidityEchoHandler) Derived(c echo.Context) error {
	res, err := h.engine.ComputeLiquiditySnapshot(c.Request().Context())
	if err != nil {
		return h.fail(c, "derived", err)
	}
	return xhttp.SuccessResponse(c, DerivedResponse{
		DerivedMetrics:   res.DerivedMetrics,
		AnomalousMetrics: res.AnomalousMetrics,
		Overlay:          res.Overlay,
		Summary:          res.Summary,
	})
}

func (h *LiquidityEchoHandler) Refresh(c echo.Context) error {
	req := &models.RefreshRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	remote := c.RealIP()
	if !h.rl.Allow(remote+":refresh", refreshBurst, refreshPerSecond) {
		h.logger.Warn("liquidity.refresh rate_limited", xlogger.String("remote", remote))
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("refresh rate limit exceeded").
			WithRetryAfter(time.Duration(float64(time.Second) / refreshPerSecond)))
	}

	h.logger.Info("liquidity.refresh requested",
		xlogger.String("remote", remote),
		xlogger.String("reason", req.Reason),
	)
	res, err := h.engine.Refresh(c.Request().Context())
	if err != nil {
		return h.fail(c, "refresh", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *LiquidityEchoHandler) History(c echo.Context) error {
	if h.history == nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("history store is disabled"))
	}
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	points, err := h.history.History(c.Request().Context(), req.ID, req.Limit)
	if err != nil {
		return h.fail(c, "history", err)
	}
	return xhttp.ListResponse(c, points, int64(len(points)))
}

func (h *LiquidityEchoHandler) fail(c echo.Context, op string, err error) error {
	appErr := toAppError(err)
	if appErr.Status >= http.StatusInternalServerError {
		h.logger.Error("liquidity usecase error",
			xlogger.String("op", op),
			xlogger.Error(err),
		)
	}
	return xhttp.AppErrorResponse(c, appErr)
}

func toAppError(err error) *xhttp.AppError {
	var appErr *xhttp.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, usecase.ErrNoIndicators):
		return xhttp.ServiceUnavailableError("liquidity data is temporarily unavailable").WithError(err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return xhttp.ServiceUnavailableError("liquidity refresh timed out").WithError(err)
	default:
		return xhttp.InternalError("liquidity snapshot failed").WithError(err)
	}
}
