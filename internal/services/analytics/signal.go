package analytics

import (
	"fmt"
	"math"

	"LiqPull/internal/domain/models"
	domsvc "LiqPull/internal/domain/service"
	"LiqPull/internal/services/catalog"
	"LiqPull/internal/services/normalize"
	"LiqPull/pkg/config"
)

type reasonKind int

const (
	kindExpanding reasonKind = iota
	kindDraining
	kindHigh
	kindElevated
	kindContracting
	kindTightening
	kindDangerouslyLow
)

func (k reasonKind) bullish() bool {
	switch k {
	case kindExpanding, kindDraining, kindHigh, kindElevated:
		return true
	}
	return false
}

type reason struct {
	kind reasonKind
	text string
}

// SignalAggregator evaluates the rule list in a fixed order and votes.
type SignalAggregator struct {
	th config.Thresholds
}

func NewSignalAggregator(th config.Thresholds) *SignalAggregator {
	return &SignalAggregator{th: th}
}

func (a *SignalAggregator) Aggregate(indicators []models.Indicator, metrics []models.DerivedMetric, overlay *models.ReferenceOverlay) models.Verdict {
	byID := indexIndicators(indicators)
	m2, hasM2 := byID[catalog.SeriesM2]
	fed, hasFed := byID[catalog.SeriesFedAssets]
	rrp, hasRRP := byID[catalog.SeriesRRP]

	var netLiq *models.DerivedMetric
	for i := range metrics {
		if metrics[i].ID == MetricNetLiquidity {
			netLiq = &metrics[i]
			break
		}
	}

	var reasons []reason
	add := func(k reasonKind, format string, args ...interface{}) {
		reasons = append(reasons, reason{kind: k, text: fmt.Sprintf(format, args...)})
	}

	if hasM2 && m2.YoYChangePercent > a.th.M2Expanding {
		add(kindExpanding, "M2 expanding +%.1f%% YoY", m2.YoYChangePercent)
	}
	if hasFed && fed.YoYChangePercent > a.th.FedBSExpanding {
		add(kindExpanding, "Fed BS expanding +%.1f%% YoY", fed.YoYChangePercent)
	}
	if hasRRP && rrp.YoYChangePercent < a.th.RRPDraining {
		add(kindDraining, "RRP draining %.0f%% (liquidity release)", rrp.YoYChangePercent)
	}
	if netLiq != nil && netLiq.Value > a.th.NetLiquidityHigh {
		add(kindHigh, "Net Liquidity high at %s", netLiq.DisplayValue)
	}
	if overlay != nil && overlay.Elevated {
		add(kindElevated, "M2/BTC ratio elevated at %s historical average", normalize.FormatMultiple(overlay.Multiple))
	}
	if hasM2 && m2.YoYChangePercent < a.th.M2Contracting {
		add(kindContracting, "M2 contracting %.1f%% YoY", m2.YoYChangePercent)
	}
	if hasFed && fed.YoYChangePercent < a.th.FedBSContracting {
		add(kindTightening, "Fed BS contracting %.1f%% YoY (QT tightening)", fed.YoYChangePercent)
	}
	// a critical alert always carries the dangerously low reason
	if netLiq != nil && netLiq.Value < math.Max(a.th.NetLiquidityLow, a.th.NetLiquidityCritical) {
		add(kindDangerouslyLow, "Net Liquidity dangerously low at %s", netLiq.DisplayValue)
	}

	v := models.Verdict{Signal: models.SignalNeutral, Reasons: make([]string, 0, len(reasons))}
	for _, r := range reasons {
		v.Reasons = append(v.Reasons, r.text)
		if r.kind.bullish() {
			v.BullishCount++
		} else {
			v.BearishCount++
		}
	}
	switch {
	case v.BullishCount > v.BearishCount:
		v.Signal = models.SignalBullish
	case v.BearishCount > v.BullishCount:
		v.Signal = models.SignalBearish
	}

	if netLiq != nil && netLiq.Value < a.th.NetLiquidityCritical {
		v.CriticalAlert = true
		v.CriticalAlertMessage = fmt.Sprintf("Net Liquidity at %s is below the %s critical floor: accumulation opportunity",
			netLiq.DisplayValue, normalize.FormatBillions(a.th.NetLiquidityCritical))
	}
	return v
}

var _ domsvc.SignalAggregator = (*SignalAggregator)(nil)
