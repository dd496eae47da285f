package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FxCloud/internal/domain/models"
	mid "FxCloud/internal/middleware"
)

func barEvent(symbol string, hour int) models.BarEvent {
	return models.BarEvent{
		Symbol:    symbol,
		Timeframe: "H1",
		Bar: models.Bar{
			Time:  baseTime.Add(time.Duration(hour) * time.Hour),
			Open:  1.10,
			High:  1.12,
			Low:   1.09,
			Close: 1.11,
		},
	}
}

func TestBarProcessorRoutesByBackend(t *testing.T) {
	bars := []models.BarEvent{barEvent("EURUSD", 0), barEvent("EURUSD", 1), barEvent("GBPUSD", 0)}

	t.Run("kafka", func(t *testing.T) {
		pub, sink, m := &fakeBarPublisher{}, &fakeSink{}, newFakeMetrics()
		p := NewBarProcessor(pub, sink, m, BackendKafka)
		require.NoError(t, p.ProcessBatch(context.Background(), bars))
		assert.Len(t, pub.published, 3)
		assert.Zero(t, sink.count())
		assert.Equal(t, 2, m.ingested["kafka/EURUSD"])
		assert.Equal(t, 1, m.ingested["kafka/GBPUSD"])
	})

	t.Run("clickhouse", func(t *testing.T) {
		pub, sink, m := &fakeBarPublisher{}, &fakeSink{}, newFakeMetrics()
		p := NewBarProcessor(pub, sink, m, BackendClickHouse)
		require.NoError(t, p.ProcessBatch(context.Background(), bars))
		assert.Empty(t, pub.published)
		assert.Equal(t, 3, sink.count())
	})

	t.Run("unknown", func(t *testing.T) {
		m := newFakeMetrics()
		p := NewBarProcessor(nil, nil, m, "s3")
		assert.Error(t, p.ProcessBatch(context.Background(), bars))
		assert.Equal(t, 1, m.errorCount("process_batch"))
	})

	t.Run("missing sink", func(t *testing.T) {
		p := NewBarProcessor(nil, nil, newFakeMetrics(), BackendClickHouse)
		assert.Error(t, p.ProcessBatch(context.Background(), bars))
	})

	t.Run("sink error", func(t *testing.T) {
		p := NewBarProcessor(nil, &fakeSink{err: errors.New("insert failed")}, newFakeMetrics(), BackendClickHouse)
		assert.ErrorContains(t, p.ProcessBatch(context.Background(), bars), "insert failed")
	})

	t.Run("empty batch", func(t *testing.T) {
		p := NewBarProcessor(nil, nil, newFakeMetrics(), "s3")
		assert.NoError(t, p.ProcessBatch(context.Background(), nil))
	})
}

func TestBarProcessorClose(t *testing.T) {
	pub, sink := &fakeBarPublisher{}, &fakeSink{}
	NewBarProcessor(pub, sink, newFakeMetrics(), BackendKafka).Close()
	assert.True(t, pub.closed)
	assert.True(t, sink.closed)
}

func TestKafkaBarsHandler(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		stored  int
		wantErr bool
	}{
		{
			name:    "valid",
			payload: `{"symbol":"EURUSD","timeframe":"H1","time":"2024-03-04T10:00:00Z","open":1.1,"high":1.2,"low":1.0,"close":1.15,"tick_volume":42,"spread":3}`,
			stored:  1,
		},
		{name: "not json", payload: `{"symbol":`, wantErr: true},
		{name: "no symbol", payload: `{"time":"2024-03-04T10:00:00Z","close":1.1}`, wantErr: true},
		{name: "no time", payload: `{"symbol":"EURUSD","close":1.1}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &fakeSink{}
			h := NewKafkaBarsHandler("fxcloud.bars", sink, newFakeMetrics())
			assert.Equal(t, "fxcloud.bars", h.Topic())

			err := h.Handle(context.Background(), []byte(tt.payload))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			require.Equal(t, tt.stored, sink.count())
			if tt.stored > 0 {
				ev := sink.stored[0]
				assert.Equal(t, "EURUSD", ev.Symbol)
				assert.Equal(t, int64(42), ev.Bar.TickVolume)
				require.NotNil(t, ev.Bar.Spread)
				assert.Equal(t, int64(3), *ev.Bar.Spread)
				assert.Nil(t, ev.Bar.RealVolume)
			}
		})
	}
}

func TestKafkaBarsHandlerStoreError(t *testing.T) {
	m := newFakeMetrics()
	h := NewKafkaBarsHandler("fxcloud.bars", &fakeSink{err: errors.New("down")}, m)
	err := h.Handle(context.Background(), []byte(`{"symbol":"EURUSD","time":"2024-03-04T10:00:00Z","open":1,"high":1,"low":1,"close":1}`))
	assert.Error(t, err)
	assert.Equal(t, 1, m.errorCount("consumer_store"))
}

func TestBarCollectorFeedsPipeline(t *testing.T) {
	stream := &fakeStream{}
	sink := &fakeSink{}
	m := newFakeMetrics()
	proc := NewBarProcessor(nil, sink, m, BackendClickHouse)
	pipe := mid.NewBarPipeline(proc, m, mid.WithBatch(1, 10*time.Millisecond))
	c := NewBarCollector(stream, pipe, m, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, c.Start(ctx))
	assert.True(t, c.IsConnected())

	barCh, _ := stream.channels()
	barCh <- barEvent("EURUSD", 0)
	barCh <- barEvent("EURUSD", 1)

	assert.Eventually(t, func() bool { return sink.count() == 2 }, time.Second, 5*time.Millisecond)
	m.mu.Lock()
	assert.InDelta(t, 1.11, m.closes["EURUSD"], 1e-12)
	m.mu.Unlock()

	sctx, scancel := context.WithTimeout(context.Background(), time.Second)
	defer scancel()
	cancel()
	require.NoError(t, c.Shutdown(sctx))
	assert.False(t, c.IsConnected())
}

func TestBarCollectorReconnectsOnError(t *testing.T) {
	stream := &fakeStream{}
	sink := &fakeSink{}
	m := newFakeMetrics()
	pipe := mid.NewBarPipeline(NewBarProcessor(nil, sink, m, BackendClickHouse), m, mid.WithBatch(1, 10*time.Millisecond))
	c := NewBarCollector(stream, pipe, m, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, c.Start(ctx))

	firstBars, errCh := stream.channels()
	errCh <- errors.New("read: connection reset")
	assert.Eventually(t, func() bool {
		bars, _ := stream.channels()
		return stream.reconnectCount() == 1 && bars != firstBars
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, m.errorCount("stream"))

	// bars on the new channel still flow
	barCh, _ := stream.channels()
	barCh <- barEvent("EURUSD", 0)
	assert.Eventually(t, func() bool { return sink.count() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	sctx, scancel := context.WithTimeout(context.Background(), time.Second)
	defer scancel()
	require.NoError(t, c.Shutdown(sctx))
}
