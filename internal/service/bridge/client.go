// Package bridge streams closed bars from a trading terminal bridge over a
// WebSocket connection.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"FxCloud/internal/domain/models"
	drepo "FxCloud/internal/domain/repository"
	applogger "FxCloud/pkg/logger"
	"FxCloud/pkg/util"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
)

// Client implements a BarStream backed by the bridge WebSocket.
type Client struct {
	url            string
	token          string
	symbols        []string
	timeframes     []string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	log            *applogger.Logger

	mu        sync.Mutex // guards conn writes and state
	conn      *websocket.Conn
	connected bool
}

// Option configures Client.
type Option func(*Client)

// WithToken sends token as a bearer credential on connect.
func WithToken(token string) Option { return func(c *Client) { c.token = token } }

// WithTimeframes sets the timeframes to subscribe to.
func WithTimeframes(tfs []string) Option { return func(c *Client) { c.timeframes = tfs } }

// WithReconnectDelay sets the pause before reconnecting.
func WithReconnectDelay(d time.Duration) Option { return func(c *Client) { c.reconnectDelay = d } }

// WithPingInterval sets the keepalive period.
func WithPingInterval(d time.Duration) Option { return func(c *Client) { c.pingInterval = d } }

// WithLogger sets the logger.
func WithLogger(l *applogger.Logger) Option { return func(c *Client) { c.log = l } }

// New creates a bridge BarStream for the given symbols.
func New(url string, symbols []string, opts ...Option) *Client {
	c := &Client{
		url:            url,
		symbols:        symbols,
		timeframes:     []string{string(drepo.TFH1)},
		reconnectDelay: 5 * time.Second,
		pingInterval:   30 * time.Second,
		log:            applogger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ drepo.BarStream = (*Client)(nil)

// Connect dials the bridge and subscribes to the configured symbols.
func (c *Client) Connect(ctx context.Context) error {
	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, header)
	if err != nil {
		return fmt.Errorf("bridge connect: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	err = conn.WriteJSON(subscribeMessage{Type: "subscribe", Symbols: c.symbols, Timeframes: c.timeframes})
	c.mu.Unlock()
	if err != nil {
		_ = c.Close()
		return fmt.Errorf("bridge subscribe: %w", err)
	}

	c.log.Info("bridge connected",
		applogger.String("url", c.url),
		applogger.Strings("symbols", c.symbols),
		applogger.Strings("timeframes", c.timeframes),
	)
	return nil
}

type subscribeMessage struct {
	Type       string   `json:"type"`
	Symbols    []string `json:"symbols"`
	Timeframes []string `json:"timeframes"`
}

type wireBar struct {
	Symbol     string          `json:"symbol"`
	Timeframe  string          `json:"timeframe"`
	Time       json.RawMessage `json:"time"`
	Open       decimal.Decimal `json:"open"`
	High       decimal.Decimal `json:"high"`
	Low        decimal.Decimal `json:"low"`
	Close      decimal.Decimal `json:"close"`
	TickVolume int64           `json:"tick_volume"`
	Spread     *int64          `json:"spread"`
	RealVolume *int64          `json:"real_volume"`
}

type wireFrame struct {
	Type string    `json:"type"`
	Data []wireBar `json:"data"`
}

// decodeFrame turns one bridge frame into bar events. Frames of other types
// yield no events. A bar with an unreadable time or symbol fails the frame.
func decodeFrame(b []byte) ([]models.BarEvent, error) {
	var f wireFrame
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	if f.Type != "bar" {
		return nil, nil
	}

	out := make([]models.BarEvent, 0, len(f.Data))
	for i, w := range f.Data {
		if w.Symbol == "" {
			return nil, fmt.Errorf("bar %d: missing symbol", i)
		}
		ts, err := parseWireTime(w.Time)
		if err != nil {
			return nil, fmt.Errorf("bar %d (%s): %w", i, w.Symbol, err)
		}
		tf := drepo.NormalizeTimeframe(w.Timeframe)
		out = append(out, models.BarEvent{
			Symbol:    strings.ToUpper(w.Symbol),
			Timeframe: tf.String(),
			Bar: models.Bar{
				Time:       util.AlignToBar(ts, tf.Duration()),
				Open:       w.Open.InexactFloat64(),
				High:       w.High.InexactFloat64(),
				Low:        w.Low.InexactFloat64(),
				Close:      w.Close.InexactFloat64(),
				TickVolume: w.TickVolume,
				Spread:     w.Spread,
				RealVolume: w.RealVolume,
			},
		})
	}
	return out, nil
}

// parseWireTime accepts unix seconds as a number or any util.ParseTime string.
func parseWireTime(raw json.RawMessage) (time.Time, error) {
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil && n > 0 {
		return time.Unix(n, 0).UTC(), nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if t, ok := util.ParseTime(s); ok {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %s", string(raw))
}

// Read streams bar events until ctx is done or the connection fails. The
// error channel receives at most one error.
func (c *Client) Read(ctx context.Context) (<-chan models.BarEvent, <-chan error) {
	bars := make(chan models.BarEvent, 1024)
	errs := make(chan error, 1)

	go c.pingLoop(ctx)

	go func() {
		defer close(bars)
		defer close(errs)
		for {
			if ctx.Err() != nil {
				return
			}
			c.mu.Lock()
			conn := c.conn
			c.mu.Unlock()
			if conn == nil {
				errs <- fmt.Errorf("bridge not connected")
				return
			}

			_, b, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() == nil {
					errs <- fmt.Errorf("bridge read: %w", err)
				}
				return
			}
			events, err := decodeFrame(b)
			if err != nil {
				c.log.Warn("bridge: dropping frame", applogger.Error(err))
				continue
			}
			for _, ev := range events {
				select {
				case bars <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return bars, errs
}

func (c *Client) pingLoop(ctx context.Context) {
	if c.pingInterval <= 0 {
		return
	}
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			if c.conn != nil {
				_ = c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
			}
			c.mu.Unlock()
		}
	}
}

// Reconnect closes the connection, waits reconnectDelay and connects again.
func (c *Client) Reconnect(ctx context.Context) error {
	_ = c.Close()
	select {
	case <-time.After(c.reconnectDelay):
	case <-ctx.Done():
		return ctx.Err()
	}
	return c.Connect(ctx)
}

// Close closes the WS connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// IsConnected indicates status.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}
