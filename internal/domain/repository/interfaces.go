package repository

import (
	"context"
	"time"

	"FxCloud/internal/domain/models"
)

// QuoteSource serves historical bars, oldest first.
type QuoteSource interface {
	// LatestBars returns up to count most recent bars.
	LatestBars(ctx context.Context, symbol string, tf Timeframe, count int) ([]models.Bar, error)
	// BarsRange returns bars with from <= time <= to.
	BarsRange(ctx context.Context, symbol string, tf Timeframe, from, to time.Time) ([]models.Bar, error)
	// BarsUntil returns the count bars ending at until, oldest first.
	BarsUntil(ctx context.Context, symbol string, tf Timeframe, until time.Time, count int) ([]models.Bar, error)
	Symbols(ctx context.Context) ([]string, error)
	Health(ctx context.Context) error
}

// BarSink persists incoming bars.
type BarSink interface {
	StoreBars(ctx context.Context, bars []models.BarEvent) error
	Close() error
}

// BarPublisher relays incoming bars to a message bus.
type BarPublisher interface {
	PublishBars(ctx context.Context, bars []models.BarEvent) error
	Close() error
}

// SignalPublisher emits the latest verdict computed for a symbol.
type SignalPublisher interface {
	PublishSignal(ctx context.Context, rec models.SignalRecord) error
}

// BarStream is a live feed of closed bars from the trading terminal bridge.
type BarStream interface {
	Connect(ctx context.Context) error
	Read(ctx context.Context) (<-chan models.BarEvent, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

type Metrics interface {
	RecordBarsIngested(backend, symbol string, n int)
	RecordError(kind string)
	RecordLastClose(symbol string, price float64)
	RecordLatency(op string, seconds float64)
	RecordSignal(symbol string, signal models.SignalType)
}
