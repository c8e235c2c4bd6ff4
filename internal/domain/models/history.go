package models

import "time"

// HistoryKind distinguishes stored indicator rows from derived metric rows.
type HistoryKind string

const (
	HistoryIndicator HistoryKind = "indicator"
	HistoryDerived   HistoryKind = "derived"
)

// HistoryPoint is one persisted reading from a past refresh cycle.
type HistoryPoint struct {
	ComputedAt       time.Time   `json:"computedAt"`
	Kind             HistoryKind `json:"kind"`
	ID               string      `json:"id"`
	Value            float64     `json:"value"`
	YoYChangePercent float64     `json:"yoyChangePercent"`
	ObservationDate  time.Time   `json:"observationDate"`
	IsAnomaly        bool        `json:"isAnomaly"`
	Signal           Signal      `json:"signal"`
}
