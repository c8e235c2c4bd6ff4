package analytics

import (
	"fmt"

	"LiqPull/internal/domain/models"
	domsvc "LiqPull/internal/domain/service"
	"LiqPull/internal/services/catalog"
	"LiqPull/internal/services/normalize"
	"LiqPull/pkg/config"
)

// OverlayBuilder relates broad money to the reference asset price.
type OverlayBuilder struct {
	average  float64
	elevated float64
}

func NewOverlayBuilder(th config.Thresholds) *OverlayBuilder {
	return &OverlayBuilder{average: th.OverlayAverage, elevated: th.OverlayElevated}
}

// Build returns nil when M2 is absent or the price is unusable.
func (b *OverlayBuilder) Build(indicators []models.Indicator, quote *models.SpotPrice) *models.ReferenceOverlay {
	if quote == nil || quote.Price <= 0 || b.average <= 0 {
		return nil
	}
	m2, ok := indexIndicators(indicators)[catalog.SeriesM2]
	if !ok {
		return nil
	}

	ratio := m2.Value * 1e9 / quote.Price
	multiple := ratio / b.average
	return &models.ReferenceOverlay{
		AssetID:           quote.AssetID,
		Price:             quote.Price,
		PriceDisplay:      normalize.FormatUSD(quote.Price),
		Change24hPercent:  quote.Change24hPercent,
		Ratio:             ratio,
		RatioDisplay:      fmt.Sprintf("%.0f", ratio),
		HistoricalAverage: b.average,
		Multiple:          multiple,
		Elevated:          multiple > b.elevated,
		Message:           overlayMessage(multiple),
	}
}

func overlayMessage(multiple float64) string {
	switch {
	case multiple > 1.5:
		return fmt.Sprintf("M2/BTC ratio %s historical average: BTC deeply undervalued relative to money supply", normalize.FormatMultiple(multiple))
	case multiple > 1.2:
		return fmt.Sprintf("M2/BTC ratio elevated at %s historical average: BTC undervalued relative to money supply", normalize.FormatMultiple(multiple))
	case multiple < 0.8:
		return fmt.Sprintf("M2/BTC ratio %s historical average: BTC priced rich relative to money supply", normalize.FormatMultiple(multiple))
	default:
		return "M2/BTC ratio within normal range"
	}
}

var _ domsvc.OverlayBuilder = (*OverlayBuilder)(nil)
