package usecase

import (
	"context"
	"sync/atomic"
	"time"

	"FxCloud/internal/domain/models"
	drepo "FxCloud/internal/domain/repository"
	mid "FxCloud/internal/middleware"
	applogger "FxCloud/pkg/logger"
)

// BarCollector reads closed bars from the terminal bridge and feeds them to
// the pipeline.
type BarCollector struct {
	stream  drepo.BarStream
	pipe    *mid.BarPipeline
	metrics drepo.Metrics
	log     *applogger.Logger
	done    chan struct{}
	running atomic.Bool
}

// NewBarCollector creates a new BarCollector instance.
func NewBarCollector(stream drepo.BarStream, pipe *mid.BarPipeline, metrics drepo.Metrics, log *applogger.Logger) *BarCollector {
	if log == nil {
		log = applogger.Nop()
	}
	return &BarCollector{stream: stream, pipe: pipe, metrics: metrics, log: log, done: make(chan struct{})}
}

// IsConnected reports whether the bridge stream is up.
func (c *BarCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

// Start connects to the bridge and consumes it until ctx is cancelled.
func (c *BarCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	c.pipe.Start(ctx)
	barCh, errCh := c.stream.Read(ctx)
	c.running.Store(true)
	go c.consume(ctx, barCh, errCh)
	return nil
}

func (c *BarCollector) consume(ctx context.Context, barCh <-chan models.BarEvent, errCh <-chan error) {
	defer close(c.done)
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			c.metrics.RecordError("stream")
			c.log.Warn("bridge stream error, reconnecting", applogger.Error(err))
			barCh, errCh = c.reconnect(ctx)
			if barCh == nil {
				return
			}
		case ev, ok := <-barCh:
			if !ok {
				c.log.Warn("bridge stream closed, reconnecting")
				barCh, errCh = c.reconnect(ctx)
				if barCh == nil {
					return
				}
				continue
			}
			if err := c.pipe.Process(ctx, ev); err != nil {
				c.log.Warn("bar rejected",
					applogger.String("symbol", ev.Symbol),
					applogger.String("timeframe", ev.Timeframe),
					applogger.Error(err))
				continue
			}
			c.metrics.RecordLastClose(ev.Symbol, ev.Bar.Close)
		}
	}
}

// reconnect retries until the stream is back or ctx ends; nil channels mean
// the collector should exit.
func (c *BarCollector) reconnect(ctx context.Context) (<-chan models.BarEvent, <-chan error) {
	for {
		if err := c.stream.Reconnect(ctx); err != nil {
			if ctx.Err() != nil {
				return nil, nil
			}
			c.metrics.RecordError("reconnect")
			c.log.Error("bridge reconnect failed", applogger.Error(err))
			select {
			case <-ctx.Done():
				return nil, nil
			case <-time.After(time.Second):
			}
			continue
		}
		return c.stream.Read(ctx)
	}
}

// Shutdown stops the pipeline and closes the stream.
func (c *BarCollector) Shutdown(ctx context.Context) error {
	err := c.stream.Close()
	if c.running.Load() {
		select {
		case <-c.done:
		case <-ctx.Done():
		}
	}
	c.pipe.Stop()
	return err
}
