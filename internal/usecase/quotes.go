package usecase

import (
	"context"
	"time"

	"FxCloud/internal/domain/models"
	domrepo "FxCloud/internal/domain/repository"
	icache "FxCloud/internal/service/cache"
	xhttp "FxCloud/pkg/http"
	applogger "FxCloud/pkg/logger"
	"FxCloud/pkg/util"
)

const (
	symbolsCacheKey   = "symbols"
	defaultSymbolsTTL = 5 * time.Minute
)

// QuotesUseCase serves raw bars and the symbol list.
type QuotesUseCase struct {
	source     domrepo.QuoteSource
	cache      icache.BytesCache
	symbolsTTL time.Duration
	log        *applogger.Logger
}

func NewQuotesUseCase(source domrepo.QuoteSource, cache icache.BytesCache, symbolsTTL time.Duration, log *applogger.Logger) *QuotesUseCase {
	if symbolsTTL <= 0 {
		symbolsTTL = defaultSymbolsTTL
	}
	if log == nil {
		log = applogger.Nop()
	}
	return &QuotesUseCase{source: source, cache: cache, symbolsTTL: symbolsTTL, log: log}
}

type QuotesParams struct {
	Symbol    string
	Timeframe domrepo.Timeframe
	Count     int
	StartDate string
	EndDate   string
}

type QuotesResult struct {
	Symbol    string
	Timeframe domrepo.Timeframe
	Bars      []models.Bar
}

// GetQuotes picks the query by which dates are set: both dates select the
// range [start, end], a start date alone selects Count bars from start, and
// otherwise the latest Count bars are returned. An end date without a start
// date is ignored.
func (uc *QuotesUseCase) GetQuotes(ctx context.Context, p QuotesParams) (*QuotesResult, error) {
	bars, err := uc.fetch(ctx, p)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, xhttp.NotFoundError("no quotes data available")
	}
	return &QuotesResult{Symbol: p.Symbol, Timeframe: p.Timeframe, Bars: bars}, nil
}

func (uc *QuotesUseCase) fetch(ctx context.Context, p QuotesParams) ([]models.Bar, error) {
	if p.Symbol == "" {
		return nil, xhttp.BadRequestError("symbol parameter is required")
	}
	if p.Count <= 0 {
		return nil, xhttp.BadRequestError("count must be positive")
	}

	var (
		bars []models.Bar
		err  error
	)
	switch {
	case p.StartDate != "" && p.EndDate != "":
		from, to, derr := parseRange(p.StartDate, p.EndDate)
		if derr != nil {
			return nil, derr
		}
		bars, err = uc.source.BarsRange(ctx, p.Symbol, p.Timeframe, from, to)
	case p.StartDate != "":
		until, derr := util.ParseDay(p.StartDate)
		if derr != nil {
			return nil, xhttp.BadRequestErrorf("invalid start_date %q, expected YYYY-MM-DD", p.StartDate)
		}
		// count bars up to start_date, like the terminal's copy-from call
		bars, err = uc.source.BarsUntil(ctx, p.Symbol, p.Timeframe, until, p.Count)
	default:
		bars, err = uc.source.LatestBars(ctx, p.Symbol, p.Timeframe, p.Count)
	}
	if err != nil {
		uc.log.Error("quote source query failed",
			applogger.String("symbol", p.Symbol),
			applogger.String("timeframe", p.Timeframe.String()),
			applogger.Error(err))
		return nil, xhttp.InternalError("failed to retrieve quotes data").WithError(err)
	}
	return bars, nil
}

func parseRange(start, end string) (time.Time, time.Time, error) {
	from, err := util.ParseDay(start)
	if err != nil {
		return time.Time{}, time.Time{}, xhttp.BadRequestErrorf("invalid start_date %q, expected YYYY-MM-DD", start)
	}
	to, err := util.ParseDay(end)
	if err != nil {
		return time.Time{}, time.Time{}, xhttp.BadRequestErrorf("invalid end_date %q, expected YYYY-MM-DD", end)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, xhttp.BadRequestError("end_date must not be before start_date")
	}
	return from, to, nil
}

// Symbols returns the tradable symbols, cached for the configured TTL.
func (uc *QuotesUseCase) Symbols(ctx context.Context) ([]string, error) {
	load := func(ctx context.Context) ([]string, error) {
		return uc.source.Symbols(ctx)
	}

	var (
		symbols []string
		err     error
	)
	if uc.cache != nil {
		symbols, err = icache.GetOrLoadJSON(ctx, uc.cache, symbolsCacheKey, uc.symbolsTTL, load, func(cerr error) {
			uc.log.Warn("symbols cache unavailable", applogger.Error(cerr))
		})
	} else {
		symbols, err = load(ctx)
	}
	if err != nil {
		uc.log.Error("symbols query failed", applogger.Error(err))
		return nil, xhttp.InternalError("failed to retrieve symbols").WithError(err)
	}
	if symbols == nil {
		symbols = []string{}
	}
	return symbols, nil
}

// SourceConnected reports whether the quote source answers.
func (uc *QuotesUseCase) SourceConnected(ctx context.Context) bool {
	if err := uc.source.Health(ctx); err != nil {
		uc.log.Warn("quote source unhealthy", applogger.Error(err))
		return false
	}
	return true
}
