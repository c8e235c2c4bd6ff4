package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"LiqPull/internal/domain/models"
	domrepo "LiqPull/internal/domain/repository"
	applogger "LiqPull/pkg/logger"
)

const historyTable = "liquidity_indicator_history"

// HistorySchema returns the idempotent DDL for the history table.
func HistorySchema() []string {
	return []string{`
        CREATE TABLE IF NOT EXISTS ` + historyTable + ` (
            computed_at        DateTime64(3, 'UTC'),
            kind               LowCardinality(String),
            id                 String,
            value              Float64,
            yoy_change_percent Float64,
            observation_date   Date,
            is_anomaly         UInt8,
            signal             LowCardinality(String)
        ) ENGINE = MergeTree
        ORDER BY (id, computed_at)
    `}
}

// CHIndicatorHistory appends every snapshot's readings to ClickHouse and
// serves them back per series.
type CHIndicatorHistory struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHIndicatorHistory(db *sql.DB, l *applogger.Logger) *CHIndicatorHistory {
	return &CHIndicatorHistory{db: db, l: l}
}

func (s *CHIndicatorHistory) Name() string { return "clickhouse" }

// PublishSnapshot inserts one row per indicator and derived metric.
func (s *CHIndicatorHistory) PublishSnapshot(ctx context.Context, res *models.AggregateResult) error {
	rows := historyRows(res)
	if len(rows) == 0 {
		return nil
	}

	values := make([]string, 0, len(rows))
	args := make([]interface{}, 0, len(rows)*8)
	for _, r := range rows {
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?)")
		anomaly := uint8(0)
		if r.IsAnomaly {
			anomaly = 1
		}
		args = append(args,
			r.ComputedAt,
			string(r.Kind),
			r.ID,
			r.Value,
			r.YoYChangePercent,
			r.ObservationDate,
			anomaly,
			string(r.Signal),
		)
	}
	q := fmt.Sprintf("INSERT INTO %s (computed_at, kind, id, value, yoy_change_percent, observation_date, is_anomaly, signal) VALUES %s",
		historyTable, strings.Join(values, ","))
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		s.l.Error("clickhouse history insert error", applogger.Int("rows", len(rows)), applogger.Error(err))
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

// History returns the newest stored readings for one series or metric.
func (s *CHIndicatorHistory) History(ctx context.Context, id string, limit int) ([]models.HistoryPoint, error) {
	start := time.Now()
	const q = `
        SELECT computed_at, kind, id, value, yoy_change_percent, observation_date, is_anomaly, signal
        FROM ` + historyTable + `
        WHERE id = ?
        ORDER BY computed_at DESC
        LIMIT ?
    `
	rows, err := s.db.QueryContext(ctx, q, id, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	out := make([]models.HistoryPoint, 0, limit)
	for rows.Next() {
		var (
			p       models.HistoryPoint
			kind    string
			signal  string
			anomaly uint8
		)
		if err := rows.Scan(&p.ComputedAt, &kind, &p.ID, &p.Value, &p.YoYChangePercent, &p.ObservationDate, &anomaly, &signal); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		p.Kind = models.HistoryKind(kind)
		p.Signal = models.Signal(signal)
		p.IsAnomaly = anomaly == 1
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}

	s.l.Debug("clickhouse history query",
		applogger.String("id", id),
		applogger.Int("rows", len(out)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return out, nil
}

func historyRows(res *models.AggregateResult) []models.HistoryPoint {
	if res == nil {
		return nil
	}
	at := res.Summary.LastUpdated
	sig := res.Summary.OverallSignal
	out := make([]models.HistoryPoint, 0, len(res.Indicators)+len(res.DerivedMetrics))
	for _, ind := range res.Indicators {
		out = append(out, models.HistoryPoint{
			ComputedAt:       at,
			Kind:             models.HistoryIndicator,
			ID:               ind.SeriesID,
			Value:            ind.Value,
			YoYChangePercent: ind.YoYChangePercent,
			ObservationDate:  ind.Date,
			IsAnomaly:        ind.IsAnomaly,
			Signal:           sig,
		})
	}
	for _, m := range res.DerivedMetrics {
		out = append(out, models.HistoryPoint{
			ComputedAt:      at,
			Kind:            models.HistoryDerived,
			ID:              m.ID,
			Value:           m.Value,
			ObservationDate: at,
			IsAnomaly:       m.IsAnomaly,
			Signal:          sig,
		})
	}
	return out
}

var _ domrepo.SnapshotPublisher = (*CHIndicatorHistory)(nil)
var _ domrepo.HistoryReader = (*CHIndicatorHistory)(nil)
