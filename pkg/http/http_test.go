package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Symbol string `query:"symbol" validate:"required"`
	Count  int    `query:"count" default:"100" validate:"gte=1,lte=500"`
	Day    string `query:"day" validate:"omitempty,datetime=2006-01-02"`
}

func newContext(target string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestReadAndValidateRequest(t *testing.T) {
	c, _ := newContext("/x?symbol=EURUSD")
	req := &sampleRequest{}
	require.Nil(t, ReadAndValidateRequest(c, req))
	assert.Equal(t, "EURUSD", req.Symbol)
	assert.Equal(t, 100, req.Count)
}

func TestReadAndValidateRequestErrors(t *testing.T) {
	tests := []struct {
		name   string
		target string
		field  string
		code   string
	}{
		{"missing symbol", "/x", "symbol", "ERR_REQUIRED"},
		{"count too high", "/x?symbol=A&count=501", "count", "ERR_LTE"},
		{"bad day", "/x?symbol=A&day=2024/01/01", "day", "ERR_DATETIME"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newContext(tt.target)
			verr := ReadAndValidateRequest(c, &sampleRequest{})
			errs, ok := verr.([]ValidationError)
			require.True(t, ok, "got %T", verr)
			require.Len(t, errs, 1)
			assert.Equal(t, tt.field, errs[0].Field)
			assert.Equal(t, tt.code, errs[0].Code)
			assert.NotEmpty(t, errs[0].Message)
		})
	}
}

func TestReadAndValidateRequestBindError(t *testing.T) {
	c, _ := newContext("/x?symbol=A&count=abc")
	verr := ReadAndValidateRequest(c, &sampleRequest{})
	errs, ok := verr.([]ValidationError)
	require.True(t, ok)
	assert.Equal(t, "ERR_UNKNOWN", errs[0].Code)
}

func TestAppErrorResponse(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"bad request", BadRequestError("nope"), http.StatusBadRequest},
		{"not found", NotFoundErrorf("no %s", "bars"), http.StatusNotFound},
		{"unprocessable", UnprocessableError("bad bars"), http.StatusUnprocessableEntity},
		{"rate limited", TooManyRequestsError("slow down"), http.StatusTooManyRequests},
		{"wrapped", fmt.Errorf("usecase: %w", InternalError("db down")), http.StatusInternalServerError},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newContext("/x")
			require.NoError(t, AppErrorResponse(c, tt.err))
			assert.Equal(t, tt.status, rec.Code)

			var body APIResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.status, body.Status)
			assert.Equal(t, http.StatusText(tt.status), body.Message)
		})
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := errors.New("conn refused")
	err := InternalError("failed").WithError(cause).WithParam("retry", true)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed: conn refused", err.Error())
	assert.Equal(t, true, err.Params["retry"])
}

type pingHandler struct{}

func (pingHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ping", func(c echo.Context) error { return SuccessResponse(c, "pong") })
	e.GET("/panic", func(echo.Context) error { panic("kaboom") })
}

func TestNewServerRoutes(t *testing.T) {
	s := NewServer([]Handler{pingHandler{}, nil},
		WithPort(0),
		WithCORS(true, "https://app.example"),
		WithMetrics(true, "/metrics"),
	)
	e := s.Echo()

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(echo.HeaderOrigin, "https://app.example")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":200,"message":"OK","data":"pong"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
	assert.Equal(t, "https://app.example", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "fxcloud_http_requests_total")
}
