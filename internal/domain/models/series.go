package models

import "time"

// Frequency is the sampling frequency of a tracked series.
type Frequency string

const (
	Daily     Frequency = "Daily"
	Weekly    Frequency = "Weekly"
	Monthly   Frequency = "Monthly"
	Quarterly Frequency = "Quarterly"
)

// ObservationLimit returns how many points are requested from the provider
// for the frequency. The window comfortably covers one year plus tolerance.
func (f Frequency) ObservationLimit() int {
	switch f {
	case Daily:
		return 400
	case Weekly:
		return 80
	case Monthly:
		return 24
	case Quarterly:
		return 12
	default:
		return 100
	}
}

// RawUnit is the unit a provider reports a series in.
type RawUnit string

const (
	Millions RawUnit = "millions"
	Billions RawUnit = "billions"
	Percent  RawUnit = "percent"
	Index    RawUnit = "index"
)

// Category groups series for display ordering.
type Category string

const (
	CategoryCore        Category = "core"
	CategoryVelocity    Category = "velocity"
	CategoryPolicy      Category = "policy"
	CategoryFedHoldings Category = "fed_holdings"
)

// Rank orders categories: core, velocity, policy, fed holdings.
func (c Category) Rank() int {
	switch c {
	case CategoryCore:
		return 0
	case CategoryVelocity:
		return 1
	case CategoryPolicy:
		return 2
	case CategoryFedHoldings:
		return 3
	default:
		return 4
	}
}

// Peak is a historical reference high for a series, in its own unit.
type Peak struct {
	Value float64
	Unit  RawUnit
	Date  time.Time
}

// SeriesDefinition describes one tracked series. Owned by the catalog.
type SeriesDefinition struct {
	ID               string
	Name             string
	ShortName        string
	Frequency        Frequency
	RawUnit          RawUnit
	Description      string
	AnomalyThreshold float64 // percent
	Category         Category
	Peak             *Peak
}

// RawObservation is one provider data point. Missing marks a sentinel value.
type RawObservation struct {
	Date    time.Time
	Value   float64
	Missing bool
}

// Point is a dated value.
type Point struct {
	Date  time.Time
	Value float64
}

// AlignedObservation is the latest point plus its comparators.
type AlignedObservation struct {
	Latest Point
	YoY    Point
	Period *Point // month-over-month comparator, optional
}

// SpotPrice is a reference asset quote.
type SpotPrice struct {
	AssetID          string
	Price            float64
	Change24hPercent float64
	FetchedAt        time.Time
}
