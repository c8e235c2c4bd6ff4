package analytics

import (
	"LiqPull/internal/domain/models"
	domsvc "LiqPull/internal/domain/service"
)

// AnomalyDetector flags indicators whose YoY change exceeds their series threshold.
// Derived metrics carry their own flag computed from floor or band rules.
type AnomalyDetector struct{}

func NewAnomalyDetector() *AnomalyDetector { return &AnomalyDetector{} }

func (d *AnomalyDetector) IndicatorAnomalous(ind models.Indicator) bool {
	return exceeds(ind.YoYChangePercent, ind.AnomalyThreshold)
}

// Collect returns the anomalous subsets in input order. Inputs are not modified.
func (d *AnomalyDetector) Collect(indicators []models.Indicator, metrics []models.DerivedMetric) ([]models.Indicator, []models.DerivedMetric) {
	inds := make([]models.Indicator, 0)
	for _, ind := range indicators {
		if d.IndicatorAnomalous(ind) {
			inds = append(inds, ind)
		}
	}
	ms := make([]models.DerivedMetric, 0)
	for _, m := range metrics {
		if m.IsAnomaly {
			ms = append(ms, m)
		}
	}
	return inds, ms
}

var _ domsvc.AnomalyDetector = (*AnomalyDetector)(nil)
