package analytics

import (
	"fmt"

	"LiqPull/internal/domain/models"
	domsvc "LiqPull/internal/domain/service"
	"LiqPull/internal/services/catalog"
	"LiqPull/internal/services/normalize"
	"LiqPull/pkg/config"
)

// Derived metric identifiers.
const (
	MetricNetLiquidity = "net_liquidity"
	MetricMultiplier   = "debasement_ratio"
	MetricReserveRatio = "reserve_ratio"
)

// DerivedCalculator builds composite metrics from normalized indicators.
type DerivedCalculator struct {
	th config.Thresholds
}

func NewDerivedCalculator(th config.Thresholds) *DerivedCalculator {
	return &DerivedCalculator{th: th}
}

// Calculate returns every metric whose constituents are all present.
// A zero denominator omits that metric only.
func (c *DerivedCalculator) Calculate(indicators []models.Indicator) []models.DerivedMetric {
	byID := indexIndicators(indicators)
	out := make([]models.DerivedMetric, 0, 3)

	fedBS, okFed := byID[catalog.SeriesFedAssets]
	tga, okTGA := byID[catalog.SeriesTGA]
	rrp, okRRP := byID[catalog.SeriesRRP]
	if okFed && okTGA && okRRP {
		v := fedBS.Value - tga.Value - rrp.Value
		out = append(out, models.DerivedMetric{
			ID:               MetricNetLiquidity,
			Name:             "Net Liquidity Proxy",
			ShortName:        "Net Liq",
			Value:            v,
			DisplayValue:     normalize.FormatBillions(v),
			Description:      fmt.Sprintf("Fed BS - TGA - RRP. Effective reserves measure. Low levels (<%s) precede risk-off moves.", normalize.FormatBillions(c.th.NetLiquidityFloor)),
			IsAnomaly:        v < c.th.NetLiquidityFloor,
			AnomalyThreshold: c.th.NetLiquidityFloor,
			Formula:          "Fed Total Assets - TGA - RRP",
		})
	}

	m2, okM2 := byID[catalog.SeriesM2]
	m0, okM0 := byID[catalog.SeriesMonetaryBase]
	if okM2 && okM0 && m0.Value != 0 {
		v := m2.Value / m0.Value
		out = append(out, models.DerivedMetric{
			ID:               MetricMultiplier,
			Name:             "Money Multiplier (Debasement Ratio)",
			ShortName:        "M2/M0",
			Value:            v,
			DisplayValue:     normalize.FormatMultiple(v),
			Description:      fmt.Sprintf("M2 / M0. Rising multiplier shows credit amplification. High values (>%.1fx) signal excess leverage.", c.th.MultiplierHigh),
			IsAnomaly:        v < c.th.MultiplierLow || v > c.th.MultiplierHigh,
			AnomalyThreshold: c.th.MultiplierHigh,
			Formula:          "M2 Money Stock / Monetary Base",
		})
	}

	reserves, okRes := byID[catalog.SeriesReserves]
	if okRes && okFed && fedBS.Value != 0 {
		v := reserves.Value / fedBS.Value * 100
		out = append(out, models.DerivedMetric{
			ID:               MetricReserveRatio,
			Name:             "Reserve to Fed Assets Ratio",
			ShortName:        "Rsv/Fed",
			Value:            v,
			DisplayValue:     fmt.Sprintf("%.1f%%", v),
			Description:      fmt.Sprintf("Bank reserves as %% of Fed BS. Drops below %.0f%% signal tightening stress.", c.th.ReserveRatioLow),
			IsAnomaly:        v < c.th.ReserveRatioLow || v > c.th.ReserveRatioHigh,
			AnomalyThreshold: c.th.ReserveRatioLow,
			Formula:          "Bank Reserves / Fed Total Assets",
		})
	}

	return out
}

func indexIndicators(indicators []models.Indicator) map[string]models.Indicator {
	m := make(map[string]models.Indicator, len(indicators))
	for _, ind := range indicators {
		m[ind.SeriesID] = ind
	}
	return m
}

var _ domsvc.DerivedCalculator = (*DerivedCalculator)(nil)
