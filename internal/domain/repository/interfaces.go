package repository

import (
	"context"
	"time"

	"LiqPull/internal/domain/models"
)

// SeriesSource fetches raw observations for one series from a statistical provider.
// Implementations return observations newest first with missing values removed.
type SeriesSource interface {
	FetchObservations(ctx context.Context, def models.SeriesDefinition) ([]models.RawObservation, error)
}

// PriceSource fetches the current reference asset quote.
type PriceSource interface {
	SpotPrice(ctx context.Context) (models.SpotPrice, error)
}

// ResultCache holds the last aggregate result together with its computation time.
type ResultCache interface {
	Get(ctx context.Context) (*models.AggregateResult, time.Time, bool)
	Set(ctx context.Context, res *models.AggregateResult, at time.Time)
}

// SnapshotPublisher receives every freshly computed aggregate result.
type SnapshotPublisher interface {
	Name() string
	PublishSnapshot(ctx context.Context, res *models.AggregateResult) error
}

// Metrics records engine-level observability signals.
type Metrics interface {
	RecordFetch(seriesID, outcome string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
	RecordCache(result string)
	RecordPublish(sink, outcome string)
	RecordSnapshot(res *models.AggregateResult)
}

// HistoryReader serves persisted readings of past refresh cycles.
type HistoryReader interface {
	History(ctx context.Context, id string, limit int) ([]models.HistoryPoint, error)
}
