package models

import "time"

// Signal is the composite liquidity direction.
type Signal string

const (
	SignalBullish Signal = "bullish"
	SignalBearish Signal = "bearish"
	SignalNeutral Signal = "neutral"
)

// PeakSummary compares the current value to the series' historical peak.
type PeakSummary struct {
	Value           float64   `json:"value"`
	DisplayValue    string    `json:"displayValue"`
	Date            time.Time `json:"date"`
	PercentFromPeak float64   `json:"percentFromPeak"`
}

// Indicator is a normalized, display-ready series reading for one refresh cycle.
type Indicator struct {
	SeriesID         string       `json:"seriesId"`
	Name             string       `json:"name"`
	ShortName        string       `json:"shortName"`
	Value            float64      `json:"value"`
	DisplayValue     string       `json:"displayValue"`
	PreviousValue    float64      `json:"previousValue"`
	YoYChange        float64      `json:"yoyChange"`
	YoYChangePercent float64      `json:"yoyChangePercent"`
	MoMChange        *float64     `json:"momChange,omitempty"`
	MoMChangePercent *float64     `json:"momChangePercent,omitempty"`
	Date             time.Time    `json:"date"`
	Frequency        Frequency    `json:"frequency"`
	Unit             string       `json:"unit"`
	RawUnit          RawUnit      `json:"rawUnit"`
	Description      string       `json:"description"`
	IsAnomaly        bool         `json:"isAnomaly"`
	AnomalyThreshold float64      `json:"anomalyThreshold"`
	Category         Category     `json:"category"`
	Peak             *PeakSummary `json:"peak,omitempty"`
}

// DerivedMetric combines several indicators into one figure.
type DerivedMetric struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	ShortName        string  `json:"shortName"`
	Value            float64 `json:"value"`
	DisplayValue     string  `json:"displayValue"`
	Description      string  `json:"description"`
	IsAnomaly        bool    `json:"isAnomaly"`
	AnomalyThreshold float64 `json:"anomalyThreshold"`
	Formula          string  `json:"formula"`
}

// ReferenceOverlay relates broad money to a reference asset price.
type ReferenceOverlay struct {
	AssetID           string  `json:"assetId"`
	Price             float64 `json:"price"`
	PriceDisplay      string  `json:"priceDisplay"`
	Change24hPercent  float64 `json:"change24hPercent"`
	Ratio             float64 `json:"ratio"`
	RatioDisplay      string  `json:"ratioDisplay"`
	HistoricalAverage float64 `json:"historicalAverage"`
	Multiple          float64 `json:"multiple"`
	Elevated          bool    `json:"elevated"`
	Message           string  `json:"message"`
}

// Verdict is the outcome of signal aggregation.
type Verdict struct {
	Signal               Signal
	Reasons              []string
	BullishCount         int
	BearishCount         int
	CriticalAlert        bool
	CriticalAlertMessage string
}

// Summary is the headline of an aggregate result.
type Summary struct {
	TotalIndicators      int       `json:"totalIndicators"`
	AnomalyCount         int       `json:"anomalyCount"`
	OverallSignal        Signal    `json:"overallSignal"`
	SignalReasons        []string  `json:"signalReasons"`
	CriticalAlert        bool      `json:"criticalAlert"`
	CriticalAlertMessage string    `json:"criticalAlertMessage,omitempty"`
	LastUpdated          time.Time `json:"lastUpdated"`
}

// AggregateResult is the unit cached and returned by the engine.
type AggregateResult struct {
	Indicators       []Indicator       `json:"indicators"`
	DerivedMetrics   []DerivedMetric   `json:"derivedMetrics"`
	Overlay          *ReferenceOverlay `json:"overlay,omitempty"`
	Anomalies        []Indicator       `json:"anomalies"`
	AnomalousMetrics []DerivedMetric   `json:"anomalousMetrics"`
	Summary          Summary           `json:"summary"`
}

// Indicator returns the indicator with the given series ID.
func (r *AggregateResult) Indicator(seriesID string) (Indicator, bool) {
	for _, ind := range r.Indicators {
		if ind.SeriesID == seriesID {
			return ind, true
		}
	}
	return Indicator{}, false
}

// DerivedMetric returns the derived metric with the given ID.
func (r *AggregateResult) DerivedMetric(id string) (DerivedMetric, bool) {
	for _, m := range r.DerivedMetrics {
		if m.ID == id {
			return m, true
		}
	}
	return DerivedMetric{}, false
}
