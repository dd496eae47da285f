package usecase

import (
	"context"
	"fmt"
	"time"

	"FxCloud/internal/domain/models"
	drepo "FxCloud/internal/domain/repository"
)

const (
	BackendKafka      = "kafka"
	BackendClickHouse = "clickhouse"
)

// BarProcessor routes ingested bars to the configured backend.
type BarProcessor struct {
	pub     drepo.BarPublisher
	sink    drepo.BarSink
	metrics drepo.Metrics
	backend string
}

// NewBarProcessor creates a new BarProcessor instance.
func NewBarProcessor(pub drepo.BarPublisher, sink drepo.BarSink, metrics drepo.Metrics, backend string) *BarProcessor {
	return &BarProcessor{
		pub:     pub,
		sink:    sink,
		metrics: metrics,
		backend: backend,
	}
}

// ProcessBatch writes bars to Kafka or ClickHouse.
func (p *BarProcessor) ProcessBatch(ctx context.Context, bars []models.BarEvent) error {
	if len(bars) == 0 {
		return nil
	}

	start := time.Now()
	var err error

	switch p.backend {
	case BackendKafka:
		if p.pub == nil {
			err = fmt.Errorf("kafka backend selected but no publisher configured")
			break
		}
		err = p.pub.PublishBars(ctx, bars)
	case BackendClickHouse:
		if p.sink == nil {
			err = fmt.Errorf("clickhouse backend selected but no sink configured")
			break
		}
		err = p.sink.StoreBars(ctx, bars)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process_batch")
		return fmt.Errorf("process batch: %w", err)
	}

	perSymbol := make(map[string]int)
	for _, b := range bars {
		perSymbol[b.Symbol]++
	}
	for sym, n := range perSymbol {
		p.metrics.RecordBarsIngested(p.backend, sym, n)
	}
	p.metrics.RecordLatency("process_batch", time.Since(start).Seconds())
	return nil
}

// Close closes underlying resources if available.
func (p *BarProcessor) Close() {
	if p.pub != nil {
		_ = p.pub.Close()
	}
	if p.sink != nil {
		_ = p.sink.Close()
	}
}
