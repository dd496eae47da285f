package usecase

import (
	"context"
	"errors"
	"time"

	"FxCloud/internal/domain/models"
	domrepo "FxCloud/internal/domain/repository"
	"FxCloud/internal/services/ichimoku"
	xhttp "FxCloud/pkg/http"
	applogger "FxCloud/pkg/logger"
)

// IchimokuUseCase runs the Ichimoku engine over hourly bars.
type IchimokuUseCase struct {
	quotes       *QuotesUseCase
	calc         *ichimoku.Calculator
	metrics      domrepo.Metrics
	pub          domrepo.SignalPublisher
	minCount     int
	defaultCount int
	publishTO    time.Duration
	log          *applogger.Logger
}

type IchimokuOption func(*IchimokuUseCase)

// WithCountBounds sets the smallest accepted count and its replacement.
func WithCountBounds(minCount, defaultCount int) IchimokuOption {
	return func(uc *IchimokuUseCase) {
		if minCount > 0 {
			uc.minCount = minCount
		}
		if defaultCount > 0 {
			uc.defaultCount = defaultCount
		}
	}
}

// WithSignalPublisher emits every latest verdict to pub.
func WithSignalPublisher(pub domrepo.SignalPublisher) IchimokuOption {
	return func(uc *IchimokuUseCase) { uc.pub = pub }
}

func WithIchimokuLogger(l *applogger.Logger) IchimokuOption {
	return func(uc *IchimokuUseCase) {
		if l != nil {
			uc.log = l
		}
	}
}

func NewIchimokuUseCase(quotes *QuotesUseCase, calc *ichimoku.Calculator, metrics domrepo.Metrics, opts ...IchimokuOption) *IchimokuUseCase {
	uc := &IchimokuUseCase{
		quotes:       quotes,
		calc:         calc,
		metrics:      metrics,
		minCount:     calc.Params().SenkouBPeriod,
		defaultCount: 200,
		publishTO:    2 * time.Second,
		log:          applogger.Nop(),
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

type IchimokuParams struct {
	Symbol    string
	Count     int
	StartDate string
	EndDate   string
}

type IchimokuResult struct {
	Symbol    string
	Timeframe domrepo.Timeframe
	Analysis  *models.IchimokuAnalysis
}

// GetIchimoku loads H1 bars and returns them with indicators and verdicts.
// A count below the minimum is replaced by the default count.
func (uc *IchimokuUseCase) GetIchimoku(ctx context.Context, p IchimokuParams) (*IchimokuResult, error) {
	count := p.Count
	if count < uc.minCount {
		uc.log.Warn("count too low for ichimoku, using default",
			applogger.String("symbol", p.Symbol),
			applogger.Int("requested", count),
			applogger.Int("count", uc.defaultCount))
		count = uc.defaultCount
	}

	res, err := uc.quotes.GetQuotes(ctx, QuotesParams{
		Symbol:    p.Symbol,
		Timeframe: domrepo.TFH1,
		Count:     count,
		StartDate: p.StartDate,
		EndDate:   p.EndDate,
	})
	if err != nil {
		return nil, err
	}

	start := time.Now()
	analysis, err := uc.calc.Analyze(res.Bars)
	if err != nil {
		uc.metrics.RecordError("ichimoku_input")
		if errors.Is(err, ichimoku.ErrMalformedInput) {
			return nil, xhttp.UnprocessableError("bar data cannot be analysed").WithError(err)
		}
		return nil, xhttp.InternalError("ichimoku calculation failed").WithError(err)
	}
	uc.metrics.RecordLatency("ichimoku_compute", time.Since(start).Seconds())

	if analysis.Latest != nil {
		uc.metrics.RecordSignal(p.Symbol, analysis.Latest.Signal)
		uc.publish(ctx, p.Symbol, analysis)
	}

	return &IchimokuResult{Symbol: p.Symbol, Timeframe: domrepo.TFH1, Analysis: analysis}, nil
}

// publish is best effort; failures are logged and counted only.
func (uc *IchimokuUseCase) publish(ctx context.Context, symbol string, a *models.IchimokuAnalysis) {
	if uc.pub == nil || len(a.Points) == 0 {
		return
	}
	last := a.Points[len(a.Points)-1]

	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uc.publishTO)
	defer cancel()
	rec := models.SignalRecord{
		Symbol:     symbol,
		Timeframe:  domrepo.TFH1.String(),
		Time:       last.Bar.Time.UTC(),
		Close:      last.Bar.Close,
		Signal:     a.Latest.Signal,
		Reason:     a.Latest.Reason,
		Conditions: a.Latest.Conditions,
		EmittedAt:  time.Now().UTC(),
	}
	if err := uc.pub.PublishSignal(pctx, rec); err != nil {
		uc.metrics.RecordError("signal_publish")
		uc.log.Warn("publish signal failed", applogger.String("symbol", symbol), applogger.Error(err))
	}
}
