// Package analytics turns aligned series readings into indicators, derived
// metrics, a reference overlay and one composite liquidity signal.
package analytics

import (
	"math"

	"LiqPull/internal/domain/models"
	"LiqPull/internal/services/normalize"
)

// BuildIndicator normalizes an aligned reading into a display-ready indicator.
// The comparator values are non-zero, the aligner rejects zero comparators.
func BuildIndicator(def models.SeriesDefinition, a models.AlignedObservation) models.Indicator {
	value := normalize.ToCanonical(a.Latest.Value, def.RawUnit)
	prev := normalize.ToCanonical(a.YoY.Value, def.RawUnit)
	change := value - prev
	pct := change / prev * 100

	ind := models.Indicator{
		SeriesID:         def.ID,
		Name:             def.Name,
		ShortName:        def.ShortName,
		Value:            value,
		DisplayValue:     normalize.Format(value, def.RawUnit),
		PreviousValue:    prev,
		YoYChange:        change,
		YoYChangePercent: pct,
		Date:             a.Latest.Date,
		Frequency:        def.Frequency,
		Unit:             normalize.UnitLabel(def.RawUnit),
		RawUnit:          def.RawUnit,
		Description:      def.Description,
		IsAnomaly:        exceeds(pct, def.AnomalyThreshold),
		AnomalyThreshold: def.AnomalyThreshold,
		Category:         def.Category,
	}

	if a.Period != nil {
		p := normalize.ToCanonical(a.Period.Value, def.RawUnit)
		if p != 0 {
			mom := value - p
			momPct := mom / p * 100
			ind.MoMChange = &mom
			ind.MoMChangePercent = &momPct
		}
	}

	if def.Peak != nil {
		peak := normalize.ToCanonical(def.Peak.Value, def.Peak.Unit)
		if peak != 0 {
			ind.Peak = &models.PeakSummary{
				Value:           peak,
				DisplayValue:    normalize.Format(peak, def.Peak.Unit),
				Date:            def.Peak.Date,
				PercentFromPeak: (value - peak) / peak * 100,
			}
		}
	}
	return ind
}

func exceeds(changePercent, threshold float64) bool {
	return math.Abs(changePercent) > threshold
}
