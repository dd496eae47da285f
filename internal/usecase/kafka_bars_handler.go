package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"FxCloud/internal/domain/models"
	domrepo "FxCloud/internal/domain/repository"
	pkgkafka "FxCloud/pkg/kafka"
)

// KafkaBarsHandler consumes relayed bars and writes them to storage.
type KafkaBarsHandler struct {
	topic   string
	sink    domrepo.BarSink
	metrics domrepo.Metrics
}

func NewKafkaBarsHandler(topic string, sink domrepo.BarSink, metrics domrepo.Metrics) *KafkaBarsHandler {
	return &KafkaBarsHandler{topic: topic, sink: sink, metrics: metrics}
}

func (h *KafkaBarsHandler) Topic() string { return h.topic }

// Handle accepts one BarRecord per message.
func (h *KafkaBarsHandler) Handle(ctx context.Context, b []byte) error {
	var rec models.BarRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return fmt.Errorf("decode bar: %w", err)
	}
	if rec.Symbol == "" || rec.Time.IsZero() {
		h.metrics.RecordError("consumer_invalid")
		return fmt.Errorf("decode bar: symbol and time are required")
	}
	ev := rec.Event()

	// bar close to consume, approx
	h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(ev.Bar.Time).Seconds())

	start := time.Now()
	err := h.sink.StoreBars(ctx, []models.BarEvent{ev})
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordBarsIngested(BackendClickHouse, ev.Symbol, 1)
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaBarsHandler)(nil)
