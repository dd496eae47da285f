package api

import (
	"net/http"
	"time"

	models "FxCloud/internal/domain/models"
	domrepo "FxCloud/internal/domain/repository"
	"FxCloud/internal/service/ratelimit"
	"FxCloud/internal/usecase"
	xhttp "FxCloud/pkg/http"
	xlogger "FxCloud/pkg/logger"

	"github.com/labstack/echo/v4"
)

// QuotesEchoHandler serves quotes, symbols and the Ichimoku overlay.
type QuotesEchoHandler struct {
	logger   *xlogger.Logger
	quotes   *usecase.QuotesUseCase
	ichimoku *usecase.IchimokuUseCase
	rl       *ratelimit.Limiter
}

func NewQuotesEchoHandler(logger *xlogger.Logger, quotes *usecase.QuotesUseCase, ichimoku *usecase.IchimokuUseCase, rl *ratelimit.Limiter) *QuotesEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &QuotesEchoHandler{logger: logger, quotes: quotes, ichimoku: ichimoku, rl: rl}
}

func (h *QuotesEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
	e.GET("/quotes", h.Quotes)
	e.GET("/symbols", h.Symbols)
	e.GET("/ichimoku", h.Ichimoku)
}

func (h *QuotesEchoHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, HealthResponse{
		Status:          "healthy",
		SourceConnected: h.quotes.SourceConnected(c.Request().Context()),
	})
}

func (h *QuotesEchoHandler) Quotes(c echo.Context) error {
	req := &models.QuotesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	tf := domrepo.NormalizeTimeframe(req.Timeframe)

	res, err := h.quotes.GetQuotes(c.Request().Context(), usecase.QuotesParams{
		Symbol:    req.Symbol,
		Timeframe: tf,
		Count:     req.Count,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	})
	if err != nil {
		h.logger.Error("quotes usecase error", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	bars := toBarResponses(res.Bars)
	return xhttp.SuccessResponse(c, QuotesResponse{
		Symbol:    res.Symbol,
		Timeframe: res.Timeframe.String(),
		Count:     len(bars),
		Data:      bars,
	})
}

func (h *QuotesEchoHandler) Symbols(c echo.Context) error {
	symbols, err := h.quotes.Symbols(c.Request().Context())
	if err != nil {
		h.logger.Error("symbols usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=300")
	return xhttp.SuccessResponse(c, SymbolsResponse{Symbols: symbols})
}

func (h *QuotesEchoHandler) Ichimoku(c echo.Context) error {
	if h.rl != nil && !h.rl.Allow(c.RealIP()+":ichimoku") {
		h.logger.Warn("ichimoku rate limited", xlogger.String("remote", c.RealIP()))
		c.Response().Header().Set("Retry-After", "1")
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("rate limited"))
	}

	req := &models.IchimokuRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	start := time.Now()
	res, err := h.ichimoku.GetIchimoku(c.Request().Context(), usecase.IchimokuParams{
		Symbol:    req.Symbol,
		Count:     req.Count,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	})
	if err != nil {
		h.logger.Error("ichimoku usecase error", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	h.logger.Debug("ichimoku served",
		xlogger.String("symbol", res.Symbol),
		xlogger.Int("candles", len(res.Analysis.Points)),
		xlogger.Duration("duration", time.Since(start)))

	return xhttp.DataResponse(c, http.StatusOK, toIchimokuResponse(res.Symbol, res.Timeframe.String(), res.Analysis))
}
