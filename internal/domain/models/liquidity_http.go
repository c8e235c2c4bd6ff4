package models

// Requests for liquidity HTTP endpoints. Defined in domain for consistency and reuse.

type IndicatorsRequest struct {
	Category  string `query:"category" json:"category" validate:"omitempty,oneof=core velocity policy fed_holdings"`
	Anomalies bool   `query:"anomalies" json:"anomalies"`
}

type RefreshRequest struct {
	Reason string `query:"reason" json:"reason" default:"manual" validate:"max=64"`
}

type HistoryRequest struct {
	ID    string `query:"id" json:"id" validate:"required,max=32"`
	Limit int    `query:"limit" json:"limit" default:"100" validate:"gte=1,lte=1000"`
}
