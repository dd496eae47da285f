package repository

import (
	"context"

	"FxCloud/internal/domain/models"
	domrepo "FxCloud/internal/domain/repository"
	pkgkafka "FxCloud/pkg/kafka"
)

// KafkaBarPublisher relays bars to the bars topic keyed by symbol, so one
// symbol's bars stay ordered within a partition.
type KafkaBarPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaBarPublisher creates a bar publisher.
func NewKafkaBarPublisher(producer *pkgkafka.Producer, topic string) *KafkaBarPublisher {
	return &KafkaBarPublisher{producer: producer, topic: topic}
}

func (p *KafkaBarPublisher) PublishBars(ctx context.Context, bars []models.BarEvent) error {
	if len(bars) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(bars))
	for i, ev := range bars {
		msgs[i] = pkgkafka.Message{
			Key:     []byte(ev.Symbol),
			Value:   models.NewBarRecord(ev),
			Headers: map[string]string{"timeframe": ev.Timeframe},
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

// Close is a no-op; the producer is shared with the signal publisher and
// closed by the app.
func (p *KafkaBarPublisher) Close() error { return nil }

// KafkaSignalPublisher emits latest-bar verdicts to the signals topic.
type KafkaSignalPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaSignalPublisher creates a signal publisher.
func NewKafkaSignalPublisher(producer *pkgkafka.Producer, topic string) *KafkaSignalPublisher {
	return &KafkaSignalPublisher{producer: producer, topic: topic}
}

func (p *KafkaSignalPublisher) PublishSignal(ctx context.Context, rec models.SignalRecord) error {
	return p.producer.Publish(ctx, p.topic, []byte(rec.Symbol), rec)
}

var (
	_ domrepo.BarPublisher    = (*KafkaBarPublisher)(nil)
	_ domrepo.SignalPublisher = (*KafkaSignalPublisher)(nil)
)
