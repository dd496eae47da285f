package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FxCloud/internal/domain/models"
	domrepo "FxCloud/internal/domain/repository"
	"FxCloud/internal/service/ratelimit"
	"FxCloud/internal/services/ichimoku"
	"FxCloud/internal/usecase"
)

type stubSource struct {
	bars      []models.Bar
	symbols   []string
	err       error
	healthErr error
	lastTF    domrepo.Timeframe
	lastCount int
}

func (s *stubSource) LatestBars(_ context.Context, _ string, tf domrepo.Timeframe, count int) ([]models.Bar, error) {
	s.lastTF = tf
	s.lastCount = count
	if count < len(s.bars) {
		return s.bars[len(s.bars)-count:], s.err
	}
	return s.bars, s.err
}

func (s *stubSource) BarsRange(_ context.Context, _ string, tf domrepo.Timeframe, _, _ time.Time) ([]models.Bar, error) {
	s.lastTF = tf
	return s.bars, s.err
}

func (s *stubSource) BarsUntil(_ context.Context, _ string, tf domrepo.Timeframe, _ time.Time, _ int) ([]models.Bar, error) {
	s.lastTF = tf
	return s.bars, s.err
}

func (s *stubSource) Symbols(context.Context) ([]string, error) { return s.symbols, s.err }
func (s *stubSource) Health(context.Context) error              { return s.healthErr }

type stubMetrics struct{}

func (stubMetrics) RecordBarsIngested(string, string, int) {}
func (stubMetrics) RecordError(string)                     {}
func (stubMetrics) RecordLastClose(string, float64)        {}
func (stubMetrics) RecordLatency(string, float64)          {}
func (stubMetrics) RecordSignal(string, models.SignalType) {}

func risingBars(n int) []models.Bar {
	t0 := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	bars := make([]models.Bar, n)
	for i := range bars {
		c := 1.0 + float64(i)*0.001
		bars[i] = models.Bar{
			Time: t0.Add(time.Duration(i) * time.Hour),
			Open: c, High: c + 0.001, Low: c - 0.001, Close: c,
			TickVolume: 100,
		}
	}
	return bars
}

func newTestServer(t *testing.T, src *stubSource, rl *ratelimit.Limiter) *echo.Echo {
	t.Helper()
	calc, err := ichimoku.NewCalculator(ichimoku.DefaultParams())
	require.NoError(t, err)
	quotes := usecase.NewQuotesUseCase(src, nil, 0, nil)
	h := NewQuotesEchoHandler(nil, quotes, usecase.NewIchimokuUseCase(quotes, calc, stubMetrics{}), rl)

	e := echo.New()
	h.RegisterRoutes(e)
	return e
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func get(t *testing.T, e *echo.Echo, target string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	assert.Equal(t, rec.Code, env.Status)
	return rec, env
}

func TestHealth(t *testing.T) {
	e := newTestServer(t, &stubSource{}, nil)
	rec, env := get(t, e, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy","source_connected":true}`, string(env.Data))

	e = newTestServer(t, &stubSource{healthErr: errors.New("down")}, nil)
	_, env = get(t, e, "/health")
	assert.JSONEq(t, `{"status":"healthy","source_connected":false}`, string(env.Data))
}

func TestQuotes(t *testing.T) {
	spread := int64(3)
	bars := risingBars(2)
	bars[0].Spread = &spread
	src := &stubSource{bars: bars}
	e := newTestServer(t, src, nil)

	rec, env := get(t, e, "/quotes?symbol=EURUSD&timeframe=m15&count=2")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, domrepo.TFM15, src.lastTF)

	var got QuotesResponse
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "EURUSD", got.Symbol)
	assert.Equal(t, "M15", got.Timeframe)
	assert.Equal(t, 2, got.Count)
	require.Len(t, got.Data, 2)
	assert.Equal(t, "2024-03-04 00:00:00", got.Data[0].Time)
	assert.Equal(t, "2024-03-04 01:00:00", got.Data[1].Time)
	require.NotNil(t, got.Data[0].Spread)
	assert.Equal(t, int64(3), *got.Data[0].Spread)
	assert.Nil(t, got.Data[1].Spread)
	assert.Contains(t, rec.Body.String(), `"real_volume":null`)
}

func TestQuotesErrors(t *testing.T) {
	tests := []struct {
		name   string
		src    *stubSource
		target string
		status int
	}{
		{"missing symbol", &stubSource{}, "/quotes", http.StatusBadRequest},
		{"bad count", &stubSource{}, "/quotes?symbol=EURUSD&count=-5", http.StatusBadRequest},
		{"bad date", &stubSource{}, "/quotes?symbol=EURUSD&start_date=2024-13-01", http.StatusBadRequest},
		{"no data", &stubSource{}, "/quotes?symbol=EURUSD", http.StatusNotFound},
		{"source error", &stubSource{err: errors.New("boom")}, "/quotes?symbol=EURUSD", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestServer(t, tt.src, nil)
			rec, _ := get(t, e, tt.target)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestSymbols(t *testing.T) {
	e := newTestServer(t, &stubSource{symbols: []string{"EURUSD", "USDJPY"}}, nil)
	rec, env := get(t, e, "/symbols")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"symbols":["EURUSD","USDJPY"]}`, string(env.Data))
}

func TestIchimoku(t *testing.T) {
	src := &stubSource{bars: risingBars(80)}
	e := newTestServer(t, src, nil)

	rec, env := get(t, e, "/ichimoku?symbol=EURUSD&count=10")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, domrepo.TFH1, src.lastTF)

	var got IchimokuResponse
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "H1", got.Timeframe)
	assert.Equal(t, 80, got.TotalCandles)
	require.Len(t, got.Data, 80)

	first := got.Data[0]
	require.NotNil(t, first.Ichimoku)
	assert.Nil(t, first.Ichimoku.TenkanSen)
	assert.Nil(t, first.Ichimoku.CloudStatus)
	require.NotNil(t, first.Signal)
	assert.Equal(t, "neutral", first.Signal.Signal)
	assert.Equal(t, "Insufficient data: missing tenkan_sen", first.Signal.Reason)
	assert.Empty(t, first.Signal.ConditionsMet)

	last := got.Data[79]
	require.NotNil(t, last.Ichimoku.CloudStatus)
	assert.Equal(t, "above", *last.Ichimoku.CloudStatus)
	assert.Nil(t, last.Ichimoku.ChikouSpan)

	require.NotNil(t, got.LatestSignal)
	assert.Equal(t, "Insufficient data: missing chikou_span", got.LatestSignal.Reason)
	assert.Contains(t, rec.Body.String(), `"conditions_met":{}`)
}

func TestIchimokuNegativeCountWidened(t *testing.T) {
	src := &stubSource{bars: risingBars(80)}
	e := newTestServer(t, src, nil)

	rec, _ := get(t, e, "/ichimoku?symbol=EURUSD&count=-5")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 200, src.lastCount)
}

func TestIchimokuNoData(t *testing.T) {
	e := newTestServer(t, &stubSource{}, nil)
	rec, _ := get(t, e, "/ichimoku?symbol=EURUSD")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIchimokuRateLimited(t *testing.T) {
	e := newTestServer(t, &stubSource{bars: risingBars(60)}, ratelimit.New(0.001, 1))

	rec, _ := get(t, e, "/ichimoku?symbol=EURUSD")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = get(t, e, "/ichimoku?symbol=EURUSD")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}
