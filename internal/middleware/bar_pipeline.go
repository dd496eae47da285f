package middleware

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"FxCloud/internal/domain/models"
	domrepo "FxCloud/internal/domain/repository"
	applogger "FxCloud/pkg/logger"
)

// BatchProc is the downstream the pipeline flushes into.
type BatchProc interface {
	ProcessBatch(ctx context.Context, bars []models.BarEvent) error
}

// BarPipeline sits between the bridge stream and the ingestion backend. It
// validates bars, drops replays of bars already accepted, batches them and
// keeps failed batches for the next flush.
type BarPipeline struct {
	proc       BatchProc
	metrics    domrepo.Metrics
	log        *applogger.Logger
	batchSize  int
	flushEvery time.Duration
	bufSize    int

	in      chan models.BarEvent
	stopCh  chan struct{}
	doneCh  chan struct{}
	mu      sync.Mutex
	started bool

	seenMu   sync.Mutex
	lastSeen map[string]time.Time // symbol|timeframe -> newest queued bar
}

type PipelineOption func(*BarPipeline)

// WithBatch sets the flush size and interval.
func WithBatch(size int, every time.Duration) PipelineOption {
	return func(p *BarPipeline) {
		if size > 0 {
			p.batchSize = size
		}
		if every > 0 {
			p.flushEvery = every
		}
	}
}

// WithBufferSize caps how many bars are held while downstream is failing.
func WithBufferSize(n int) PipelineOption {
	return func(p *BarPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithPipelineLogger sets the logger.
func WithPipelineLogger(l *applogger.Logger) PipelineOption {
	return func(p *BarPipeline) {
		if l != nil {
			p.log = l
		}
	}
}

// NewBarPipeline creates a new pipeline.
func NewBarPipeline(proc BatchProc, metrics domrepo.Metrics, opts ...PipelineOption) *BarPipeline {
	p := &BarPipeline{
		proc:       proc,
		metrics:    metrics,
		log:        applogger.Nop(),
		batchSize:  100,
		flushEvery: time.Second,
		bufSize:    5000,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
		lastSeen:   make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.in = make(chan models.BarEvent, p.bufSize)
	return p
}

// Start launches the batching loop.
func (p *BarPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go p.run(ctx)
}

// Stop flushes what is pending and stops the loop.
func (p *BarPipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
	<-p.doneCh
}

// Process validates ev and queues it. Replayed bars are dropped without error.
func (p *BarPipeline) Process(_ context.Context, ev models.BarEvent) error {
	if err := ValidateBar(ev); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	key := ev.Symbol + "|" + ev.Timeframe
	p.seenMu.Lock()
	defer p.seenMu.Unlock()
	if last, ok := p.lastSeen[key]; ok && !ev.Bar.Time.After(last) {
		p.metrics.RecordError("pipeline_replay")
		return nil
	}

	// lastSeen moves only once the bar is queued so a bar dropped on a full
	// buffer is accepted when redelivered.
	select {
	case p.in <- ev:
		p.lastSeen[key] = ev.Bar.Time
		return nil
	default:
		p.metrics.RecordError("pipeline_buffer_full")
		return fmt.Errorf("pipeline buffer full, dropped %s %s", ev.Symbol, ev.Bar.Time.Format(time.RFC3339))
	}
}

func (p *BarPipeline) run(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.flushEvery)
	defer ticker.Stop()

	var pending []models.BarEvent
	// After a failed flush only the ticker retries.
	retrying := false
	for {
		select {
		case <-p.stopCh:
		drain:
			for {
				select {
				case ev := <-p.in:
					pending = append(pending, ev)
				default:
					break drain
				}
			}
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			pending = p.flush(flushCtx, pending)
			cancel()
			if len(pending) > 0 {
				p.log.Warn("pipeline stopped with unflushed bars", applogger.Int("bars", len(pending)))
			}
			return
		case ev := <-p.in:
			pending = append(pending, ev)
			if !retrying && len(pending) >= p.batchSize {
				pending = p.flush(ctx, pending)
				retrying = len(pending) > 0
			}
		case <-ticker.C:
			pending = p.flush(ctx, pending)
			retrying = len(pending) > 0
		}
	}
}

// flush sends pending downstream and returns what is left to retry.
func (p *BarPipeline) flush(ctx context.Context, pending []models.BarEvent) []models.BarEvent {
	if len(pending) == 0 {
		return pending
	}
	start := time.Now()
	if err := p.proc.ProcessBatch(ctx, pending); err != nil {
		p.metrics.RecordError("pipeline_flush")
		p.log.Warn("pipeline flush failed", applogger.Int("bars", len(pending)), applogger.Error(err))
		if over := len(pending) - p.bufSize; over > 0 {
			p.metrics.RecordError("pipeline_buffer_drop")
			pending = pending[over:]
		}
		return pending
	}
	p.metrics.RecordLatency("pipeline_flush", time.Since(start).Seconds())
	return pending[:0]
}

// ValidateBar rejects bars that cannot be stored.
func ValidateBar(ev models.BarEvent) error {
	b := ev.Bar
	switch {
	case ev.Symbol == "":
		return fmt.Errorf("bar: symbol empty")
	case b.Time.IsZero():
		return fmt.Errorf("bar %s: time missing", ev.Symbol)
	}
	for _, v := range []float64{b.Open, b.High, b.Low, b.Close} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return fmt.Errorf("bar %s %s: invalid price %v", ev.Symbol, b.Time.Format(time.RFC3339), v)
		}
	}
	if b.High < b.Low || b.High < math.Max(b.Open, b.Close) || b.Low > math.Min(b.Open, b.Close) {
		return fmt.Errorf("bar %s %s: inconsistent OHLC", ev.Symbol, b.Time.Format(time.RFC3339))
	}
	if b.TickVolume < 0 {
		return fmt.Errorf("bar %s: negative tick volume", ev.Symbol)
	}
	return nil
}
