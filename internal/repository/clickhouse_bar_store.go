package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"FxCloud/internal/domain/models"
	domrepo "FxCloud/internal/domain/repository"
	pkgch "FxCloud/pkg/clickhouse"
	applogger "FxCloud/pkg/logger"
)

const (
	barColumns      = "time, open, high, low, close, tick_volume, spread, real_volume"
	insertChunkSize = 2000
)

// CHBarStore reads and writes terminal bars in ClickHouse. The table is a
// ReplacingMergeTree, so reads use FINAL to hide not yet merged duplicates.
type CHBarStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

// NewCHBarStore creates a bar store on database db of the client.
func NewCHBarStore(ch *pkgch.Client, db string) *CHBarStore {
	return &CHBarStore{db: ch.DB(), table: db + "." + pkgch.BarsTable, l: applogger.Nop()}
}

// SetLogger injects a structured logger.
func (s *CHBarStore) SetLogger(l *applogger.Logger) {
	if l != nil {
		s.l = l
	}
}

func (s *CHBarStore) LatestBars(ctx context.Context, symbol string, tf domrepo.Timeframe, count int) ([]models.Bar, error) {
	q := fmt.Sprintf(`
        SELECT %s
        FROM %s FINAL
        WHERE symbol = ? AND timeframe = ?
        ORDER BY time DESC
        LIMIT ?`, barColumns, s.table)
	bars, err := s.query(ctx, "latest_bars", q, symbol, string(tf), count)
	if err != nil {
		return nil, err
	}
	reverseBars(bars)
	return bars, nil
}

func (s *CHBarStore) BarsRange(ctx context.Context, symbol string, tf domrepo.Timeframe, from, to time.Time) ([]models.Bar, error) {
	q := fmt.Sprintf(`
        SELECT %s
        FROM %s FINAL
        WHERE symbol = ? AND timeframe = ? AND time >= ? AND time <= ?
        ORDER BY time ASC`, barColumns, s.table)
	return s.query(ctx, "bars_range", q, symbol, string(tf), from.UTC(), to.UTC())
}

func (s *CHBarStore) BarsUntil(ctx context.Context, symbol string, tf domrepo.Timeframe, until time.Time, count int) ([]models.Bar, error) {
	bars, err := s.query(ctx, "bars_until", barsUntilQuery(s.table), symbol, string(tf), until.UTC(), count)
	if err != nil {
		return nil, err
	}
	reverseBars(bars)
	return bars, nil
}

// barsUntilQuery walks back from the bound and is reversed by the caller.
func barsUntilQuery(table string) string {
	return fmt.Sprintf(`
        SELECT %s
        FROM %s FINAL
        WHERE symbol = ? AND timeframe = ? AND time <= ?
        ORDER BY time DESC
        LIMIT ?`, barColumns, table)
}

func (s *CHBarStore) Symbols(ctx context.Context) ([]string, error) {
	q := fmt.Sprintf("SELECT DISTINCT symbol FROM %s ORDER BY symbol", s.table)
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		s.l.Error("clickhouse symbols query error", applogger.Error(err))
		return nil, fmt.Errorf("get symbols: %w", err)
	}
	defer rows.Close()

	out := make([]string, 0, 32)
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		out = append(out, sym)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (s *CHBarStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// StoreBars inserts bars in multi-row chunks.
func (s *CHBarStore) StoreBars(ctx context.Context, bars []models.BarEvent) error {
	for start := 0; start < len(bars); start += insertChunkSize {
		end := start + insertChunkSize
		if end > len(bars) {
			end = len(bars)
		}
		q, args := buildInsert(s.table, bars[start:end])
		if q == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			s.l.Error("clickhouse insert bars error", applogger.Int("rows", end-start), applogger.Error(err))
			return fmt.Errorf("insert bars: %w", err)
		}
	}
	return nil
}

// Close is a no-op; the connection pool belongs to the client.
func (s *CHBarStore) Close() error { return nil }

func (s *CHBarStore) query(ctx context.Context, op, q string, args ...interface{}) ([]models.Bar, error) {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		s.l.Error("clickhouse query error", applogger.String("op", op), applogger.Any("args", args), applogger.Error(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	out := make([]models.Bar, 0, 256)
	for rows.Next() {
		var (
			b          models.Bar
			spread     sql.NullInt64
			realVolume sql.NullInt64
		)
		if err := rows.Scan(&b.Time, &b.Open, &b.High, &b.Low, &b.Close, &b.TickVolume, &spread, &realVolume); err != nil {
			return nil, fmt.Errorf("%s scan: %w", op, err)
		}
		b.Time = b.Time.UTC()
		b.Spread = nullableInt(spread)
		b.RealVolume = nullableInt(realVolume)
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s rows: %w", op, err)
	}
	s.l.Debug("clickhouse query ok",
		applogger.String("op", op),
		applogger.Int("rows", len(out)),
		applogger.Duration("duration", time.Since(start)))
	return out, nil
}

// buildInsert renders one multi-row INSERT; bars without symbol or time are
// skipped and an empty query means nothing to write.
func buildInsert(table string, bars []models.BarEvent) (string, []interface{}) {
	values := make([]string, 0, len(bars))
	args := make([]interface{}, 0, len(bars)*10)
	for _, ev := range bars {
		if ev.Symbol == "" || ev.Bar.Time.IsZero() {
			continue
		}
		b := ev.Bar
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			ev.Symbol,
			ev.Timeframe,
			b.Time.UTC(),
			b.Open,
			b.High,
			b.Low,
			b.Close,
			b.TickVolume,
			b.Spread,
			b.RealVolume,
		)
	}
	if len(values) == 0 {
		return "", nil
	}
	q := fmt.Sprintf("INSERT INTO %s (symbol, timeframe, %s) VALUES %s", table, barColumns, strings.Join(values, ","))
	return q, args
}

func reverseBars(bars []models.Bar) {
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}
}

func nullableInt(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

var (
	_ domrepo.QuoteSource = (*CHBarStore)(nil)
	_ domrepo.BarSink     = (*CHBarStore)(nil)
)
