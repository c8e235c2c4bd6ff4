package catalog

import (
	"time"

	"LiqPull/internal/domain/models"
)

// FRED series identifiers referenced by derived metrics and signal rules.
const (
	SeriesM2           = "M2SL"
	SeriesM1           = "M1SL"
	SeriesRRP          = "RRPONTSYD"
	SeriesTGA          = "WTREGEN"
	SeriesFedAssets    = "WALCL"
	SeriesReserves     = "WRESBAL"
	SeriesCurrency     = "CURRCIR"
	SeriesMonetaryBase = "BOGMBASE"
	SeriesM2Velocity   = "M2V"
	SeriesM1Velocity   = "M1V"
	SeriesFedFunds     = "FEDFUNDS"
	SeriesFedTreasury  = "TREAST"
	SeriesFedMBS       = "WSHOMCB"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Core series are listed in display order.
var series = []models.SeriesDefinition{
	{
		ID:               SeriesM2,
		Name:             "M2 Money Stock",
		ShortName:        "M2",
		Frequency:        models.Monthly,
		RawUnit:          models.Billions,
		Description:      "Broad money supply (cash + deposits + near-monies). YoY spikes >10% often precede inflation or asset bubbles.",
		AnomalyThreshold: 5,
		Category:         models.CategoryCore,
		Peak:             &models.Peak{Value: 21722.6, Unit: models.Billions, Date: day(2022, time.April, 1)},
	},
	{
		ID:               SeriesM1,
		Name:             "M1 Money Stock",
		ShortName:        "M1",
		Frequency:        models.Monthly,
		RawUnit:          models.Billions,
		Description:      "Narrowest measure (cash + checking). Watch for velocity traps or sudden contractions signaling credit crunches.",
		AnomalyThreshold: 5,
		Category:         models.CategoryCore,
	},
	{
		ID:               SeriesRRP,
		Name:             "Overnight Reverse Repo (RRP)",
		ShortName:        "RRP",
		Frequency:        models.Daily,
		RawUnit:          models.Billions,
		Description:      "Fed's parking lot for excess cash. Jumps >$2T indicate liquidity hoarding, sterilizing money supply growth.",
		AnomalyThreshold: 10,
		Category:         models.CategoryCore,
		Peak:             &models.Peak{Value: 2553.716, Unit: models.Billions, Date: day(2022, time.December, 30)},
	},
	{
		ID:               SeriesTGA,
		Name:             "Treasury General Account (TGA)",
		ShortName:        "TGA",
		Frequency:        models.Weekly,
		RawUnit:          models.Millions,
		Description:      "Government's checking account at the Fed. Drawdowns inject reserves, builds drain them; key for QT/QE pivots.",
		AnomalyThreshold: 15,
		Category:         models.CategoryCore,
	},
	{
		ID:               SeriesFedAssets,
		Name:             "Fed Total Assets (Balance Sheet)",
		ShortName:        "Fed BS",
		Frequency:        models.Weekly,
		RawUnit:          models.Millions,
		Description:      "Fed's full firepower. Expansions >$1T/quarter signal monetization, correlating with M2 surges and risk-on rallies.",
		AnomalyThreshold: 5,
		Category:         models.CategoryCore,
		Peak:             &models.Peak{Value: 8965487, Unit: models.Millions, Date: day(2022, time.April, 13)},
	},
	{
		ID:               SeriesReserves,
		Name:             "Bank Reserve Balances",
		ShortName:        "Reserves",
		Frequency:        models.Weekly,
		RawUnit:          models.Millions,
		Description:      "Bank reserves held at the Fed. Floods here (>$3T) mute rate signals, but rapid drains can spike interbank rates.",
		AnomalyThreshold: 10,
		Category:         models.CategoryCore,
		Peak:             &models.Peak{Value: 4276.2, Unit: models.Billions, Date: day(2021, time.December, 15)},
	},
	{
		ID:               SeriesCurrency,
		Name:             "Currency in Circulation",
		ShortName:        "Currency",
		Frequency:        models.Monthly,
		RawUnit:          models.Billions,
		Description:      "Physical dollars abroad or hoarded. Steady climbs amid digital shifts signal de-dollarization fears.",
		AnomalyThreshold: 5,
		Category:         models.CategoryCore,
	},
	{
		ID:               SeriesMonetaryBase,
		Name:             "Monetary Base",
		ShortName:        "M0",
		Frequency:        models.Monthly,
		RawUnit:          models.Billions,
		Description:      "High-powered money (reserves + currency). Divergences from M2 highlight multiplier breakdowns.",
		AnomalyThreshold: 5,
		Category:         models.CategoryCore,
		Peak:             &models.Peak{Value: 6413.1, Unit: models.Billions, Date: day(2021, time.December, 1)},
	},
	{
		ID:               SeriesM2Velocity,
		Name:             "Velocity of M2 Money Stock",
		ShortName:        "M2 Velocity",
		Frequency:        models.Quarterly,
		RawUnit:          models.Index,
		Description:      "Money circulation speed. Plunges signal hoarding or trapped liquidity, amplifying debasement risks without growth.",
		AnomalyThreshold: 5,
		Category:         models.CategoryVelocity,
	},
	{
		ID:               SeriesM1Velocity,
		Name:             "Velocity of M1 Money Stock",
		ShortName:        "M1 Velocity",
		Frequency:        models.Quarterly,
		RawUnit:          models.Index,
		Description:      "Transaction money velocity. Divergences from M2V highlight credit freezes or digital payment shifts.",
		AnomalyThreshold: 5,
		Category:         models.CategoryVelocity,
	},
	{
		ID:               SeriesFedFunds,
		Name:             "Effective Federal Funds Rate",
		ShortName:        "Fed Funds",
		Frequency:        models.Monthly,
		RawUnit:          models.Percent,
		Description:      "Policy barometer. Spikes correlate with reserve crunches; overlay with Reserves for irregularity alerts.",
		AnomalyThreshold: 20,
		Category:         models.CategoryPolicy,
	},
	{
		ID:               SeriesFedTreasury,
		Name:             "Treasury Securities Held by Fed",
		ShortName:        "Fed Treasuries",
		Frequency:        models.Weekly,
		RawUnit:          models.Millions,
		Description:      "Balance sheet breakdown. Surges indicate QE monetization, inflating the base irregularly. Track vs Fed BS for asset mix.",
		AnomalyThreshold: 5,
		Category:         models.CategoryFedHoldings,
	},
	{
		ID:               SeriesFedMBS,
		Name:             "Mortgage-Backed Securities Held by Fed",
		ShortName:        "Fed MBS",
		Frequency:        models.Weekly,
		RawUnit:          models.Millions,
		Description:      "QE relic. Runoffs drain liquidity subtly. Anomalies presage housing and credit distortions.",
		AnomalyThreshold: 5,
		Category:         models.CategoryFedHoldings,
	},
}

// All returns a copy of the catalog in display order.
func All() []models.SeriesDefinition {
	out := make([]models.SeriesDefinition, len(series))
	copy(out, series)
	return out
}

// ByID looks up a definition by series identifier.
func ByID(id string) (models.SeriesDefinition, bool) {
	for _, s := range series {
		if s.ID == id {
			return s, true
		}
	}
	return models.SeriesDefinition{}, false
}

// Position returns the display position of a series, or len(catalog) if unknown.
func Position(id string) int {
	for i, s := range series {
		if s.ID == id {
			return i
		}
	}
	return len(series)
}
