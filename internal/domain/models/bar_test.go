package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBarRecordJSON(t *testing.T) {
	spread := int64(12)
	ev := BarEvent{
		Symbol:    "EURUSD",
		Timeframe: "H1",
		Bar: Bar{
			Time:       time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC),
			Open:       1.0841,
			High:       1.0852,
			Low:        1.0839,
			Close:      1.0849,
			TickVolume: 1532,
			Spread:     &spread,
		},
	}

	b, err := json.Marshal(NewBarRecord(ev))
	require.NoError(t, err)
	assert.JSONEq(t, `{"symbol":"EURUSD","timeframe":"H1","time":"2024-03-04T10:00:00Z",
		"open":1.0841,"high":1.0852,"low":1.0839,"close":1.0849,"tick_volume":1532,"spread":12}`, string(b))

	var rec BarRecord
	require.NoError(t, json.Unmarshal(b, &rec))
	assert.Equal(t, ev, rec.Event())
}
