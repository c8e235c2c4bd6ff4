package service

import (
	"LiqPull/internal/domain/models"
)

// DerivedCalculator combines normalized indicators into derived metrics.
type DerivedCalculator interface {
	Calculate(indicators []models.Indicator) []models.DerivedMetric
}

// AnomalyDetector decides which indicators and derived metrics are anomalous.
type AnomalyDetector interface {
	IndicatorAnomalous(ind models.Indicator) bool
	Collect(indicators []models.Indicator, metrics []models.DerivedMetric) ([]models.Indicator, []models.DerivedMetric)
}

// SignalAggregator folds a cycle's readings into one composite signal.
type SignalAggregator interface {
	Aggregate(indicators []models.Indicator, metrics []models.DerivedMetric, overlay *models.ReferenceOverlay) models.Verdict
}

// OverlayBuilder relates broad money to a reference asset quote. A nil quote
// or missing M2 yields no overlay.
type OverlayBuilder interface {
	Build(indicators []models.Indicator, quote *models.SpotPrice) *models.ReferenceOverlay
}
