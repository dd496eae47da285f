package clickhouse

import "fmt"

// BarsTable is the table holding terminal bars.
const BarsTable = "bars"

// BarSchema returns the DDL for the bar store in database db. Rows are
// deduplicated on (symbol, timeframe, time) keeping the latest insert, so a
// bar re-sent by the bridge after a reconnect replaces the earlier copy.
func BarSchema(db string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", db),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
    symbol      LowCardinality(String),
    timeframe   LowCardinality(String),
    time        DateTime64(3, 'UTC'),
    open        Float64,
    high        Float64,
    low         Float64,
    close       Float64,
    tick_volume Int64,
    spread      Nullable(Int64),
    real_volume Nullable(Int64),
    inserted_at DateTime64(3, 'UTC') DEFAULT now64(3)
) ENGINE = ReplacingMergeTree(inserted_at)
PARTITION BY toYYYYMM(time)
ORDER BY (symbol, timeframe, time)`, db, BarsTable),
	}
}
