package usecase

import (
	"context"
	"sync"
	"time"

	"FxCloud/internal/domain/models"
	domrepo "FxCloud/internal/domain/repository"
)

type sourceCall struct {
	method string
	tf     domrepo.Timeframe
	from   time.Time
	to     time.Time
	count  int
}

type fakeSource struct {
	mu           sync.Mutex
	bars         []models.Bar
	err          error
	symbols      []string
	symbolsCalls int
	healthErr    error
	calls        []sourceCall
}

func (s *fakeSource) record(c sourceCall) ([]models.Bar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, c)
	return s.bars, s.err
}

func (s *fakeSource) LatestBars(_ context.Context, _ string, tf domrepo.Timeframe, count int) ([]models.Bar, error) {
	return s.record(sourceCall{method: "latest", tf: tf, count: count})
}

func (s *fakeSource) BarsRange(_ context.Context, _ string, tf domrepo.Timeframe, from, to time.Time) ([]models.Bar, error) {
	return s.record(sourceCall{method: "range", tf: tf, from: from, to: to})
}

func (s *fakeSource) BarsUntil(_ context.Context, _ string, tf domrepo.Timeframe, until time.Time, count int) ([]models.Bar, error) {
	return s.record(sourceCall{method: "until", tf: tf, to: until, count: count})
}

func (s *fakeSource) Symbols(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.symbolsCalls++
	return s.symbols, s.err
}

func (s *fakeSource) Health(context.Context) error { return s.healthErr }

func (s *fakeSource) lastCall() sourceCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[len(s.calls)-1]
}

type fakeMetrics struct {
	mu       sync.Mutex
	ingested map[string]int
	errors   map[string]int
	signals  map[string]models.SignalType
	closes   map[string]float64
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{
		ingested: map[string]int{},
		errors:   map[string]int{},
		signals:  map[string]models.SignalType{},
		closes:   map[string]float64{},
	}
}

func (m *fakeMetrics) RecordBarsIngested(backend, symbol string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ingested[backend+"/"+symbol] += n
}

func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind]++
}

func (m *fakeMetrics) RecordLastClose(symbol string, price float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closes[symbol] = price
}

func (m *fakeMetrics) RecordLatency(string, float64) {}

func (m *fakeMetrics) RecordSignal(symbol string, signal models.SignalType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signals[symbol] = signal
}

func (m *fakeMetrics) errorCount(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[kind]
}

type fakeSink struct {
	mu     sync.Mutex
	err    error
	stored []models.BarEvent
	closed bool
}

func (s *fakeSink) StoreBars(_ context.Context, bars []models.BarEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.stored = append(s.stored, bars...)
	return nil
}

func (s *fakeSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.stored)
}

type fakeBarPublisher struct {
	published []models.BarEvent
	closed    bool
}

func (p *fakeBarPublisher) PublishBars(_ context.Context, bars []models.BarEvent) error {
	p.published = append(p.published, bars...)
	return nil
}

func (p *fakeBarPublisher) Close() error {
	p.closed = true
	return nil
}

type fakeSignalPublisher struct {
	mu      sync.Mutex
	err     error
	records []models.SignalRecord
}

func (p *fakeSignalPublisher) PublishSignal(_ context.Context, rec models.SignalRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.records = append(p.records, rec)
	return p.err
}

type fakeStream struct {
	mu         sync.Mutex
	connected  bool
	reconnects int
	barCh      chan models.BarEvent
	errCh      chan error
}

func (s *fakeStream) Connect(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = true
	return nil
}

func (s *fakeStream) Read(context.Context) (<-chan models.BarEvent, <-chan error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.barCh = make(chan models.BarEvent, 16)
	s.errCh = make(chan error, 1)
	return s.barCh, s.errCh
}

func (s *fakeStream) Reconnect(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reconnects++
	return nil
}

func (s *fakeStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	return nil
}

func (s *fakeStream) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *fakeStream) channels() (chan models.BarEvent, chan error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.barCh, s.errCh
}

func (s *fakeStream) reconnectCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reconnects
}

var baseTime = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

// hourlyBars builds consecutive H1 bars around the given closes.
func hourlyBars(closes []float64) []models.Bar {
	bars := make([]models.Bar, len(closes))
	for i, c := range closes {
		bars[i] = models.Bar{
			Time:  baseTime.Add(time.Duration(i) * time.Hour),
			Open:  c,
			High:  c + 0.001,
			Low:   c - 0.001,
			Close: c,
		}
	}
	return bars
}

func rising(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1.0 + float64(i)*0.001
	}
	return out
}
