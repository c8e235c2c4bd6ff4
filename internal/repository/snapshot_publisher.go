package repository

import (
	"context"
	"time"

	"LiqPull/internal/domain/models"
	domrepo "LiqPull/internal/domain/repository"
	pkgkafka "LiqPull/pkg/kafka"
)

const snapshotSchemaVersion = "1"

// snapshotEvent is the message published for every fresh aggregate result.
type snapshotEvent struct {
	ComputedAt           time.Time                `json:"computedAt"`
	Signal               models.Signal            `json:"signal"`
	Reasons              []string                 `json:"reasons"`
	CriticalAlert        bool                     `json:"criticalAlert"`
	CriticalAlertMessage string                   `json:"criticalAlertMessage,omitempty"`
	Indicators           map[string]float64       `json:"indicators"`
	YoYChangePercent     map[string]float64       `json:"yoyChangePercent"`
	DerivedMetrics       map[string]float64       `json:"derivedMetrics"`
	Anomalies            []string                 `json:"anomalies"`
	Overlay              *models.ReferenceOverlay `json:"overlay,omitempty"`
}

func newSnapshotEvent(res *models.AggregateResult) snapshotEvent {
	ev := snapshotEvent{
		ComputedAt:           res.Summary.LastUpdated,
		Signal:               res.Summary.OverallSignal,
		Reasons:              res.Summary.SignalReasons,
		CriticalAlert:        res.Summary.CriticalAlert,
		CriticalAlertMessage: res.Summary.CriticalAlertMessage,
		Indicators:           make(map[string]float64, len(res.Indicators)),
		YoYChangePercent:     make(map[string]float64, len(res.Indicators)),
		DerivedMetrics:       make(map[string]float64, len(res.DerivedMetrics)),
		Anomalies:            make([]string, 0, len(res.Anomalies)+len(res.AnomalousMetrics)),
		Overlay:              res.Overlay,
	}
	for _, ind := range res.Indicators {
		ev.Indicators[ind.SeriesID] = ind.Value
		ev.YoYChangePercent[ind.SeriesID] = ind.YoYChangePercent
	}
	for _, m := range res.DerivedMetrics {
		ev.DerivedMetrics[m.ID] = m.Value
	}
	for _, a := range res.Anomalies {
		ev.Anomalies = append(ev.Anomalies, a.SeriesID)
	}
	for _, m := range res.AnomalousMetrics {
		ev.Anomalies = append(ev.Anomalies, m.ID)
	}
	return ev
}

// KafkaSnapshotPublisher emits each computed snapshot to a Kafka topic.
type KafkaSnapshotPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaSnapshotPublisher(producer *pkgkafka.Producer, topic string) *KafkaSnapshotPublisher {
	return &KafkaSnapshotPublisher{producer: producer, topic: topic}
}

func (p *KafkaSnapshotPublisher) Name() string { return "kafka" }

func (p *KafkaSnapshotPublisher) PublishSnapshot(ctx context.Context, res *models.AggregateResult) error {
	if res == nil {
		return nil
	}
	return p.producer.Publish(ctx, p.topic, []byte("liquidity"), newSnapshotEvent(res),
		pkgkafka.Header{Key: "schema_version", Value: snapshotSchemaVersion},
		pkgkafka.Header{Key: "signal", Value: string(res.Summary.OverallSignal)},
	)
}

func (p *KafkaSnapshotPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

var _ domrepo.SnapshotPublisher = (*KafkaSnapshotPublisher)(nil)
