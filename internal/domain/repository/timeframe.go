package repository

import (
	"strings"
	"time"
)

// Timeframe is a MetaTrader bar period.
type Timeframe string

const (
	TFM1  Timeframe = "M1"
	TFM2  Timeframe = "M2"
	TFM3  Timeframe = "M3"
	TFM4  Timeframe = "M4"
	TFM5  Timeframe = "M5"
	TFM6  Timeframe = "M6"
	TFM10 Timeframe = "M10"
	TFM12 Timeframe = "M12"
	TFM15 Timeframe = "M15"
	TFM20 Timeframe = "M20"
	TFM30 Timeframe = "M30"
	TFH1  Timeframe = "H1"
	TFH2  Timeframe = "H2"
	TFH3  Timeframe = "H3"
	TFH4  Timeframe = "H4"
	TFH6  Timeframe = "H6"
	TFH8  Timeframe = "H8"
	TFH12 Timeframe = "H12"
	TFD1  Timeframe = "D1"
	TFW1  Timeframe = "W1"
	TFMN1 Timeframe = "MN1"
)

var timeframeDurations = map[Timeframe]time.Duration{
	TFM1:  time.Minute,
	TFM2:  2 * time.Minute,
	TFM3:  3 * time.Minute,
	TFM4:  4 * time.Minute,
	TFM5:  5 * time.Minute,
	TFM6:  6 * time.Minute,
	TFM10: 10 * time.Minute,
	TFM12: 12 * time.Minute,
	TFM15: 15 * time.Minute,
	TFM20: 20 * time.Minute,
	TFM30: 30 * time.Minute,
	TFH1:  time.Hour,
	TFH2:  2 * time.Hour,
	TFH3:  3 * time.Hour,
	TFH4:  4 * time.Hour,
	TFH6:  6 * time.Hour,
	TFH8:  8 * time.Hour,
	TFH12: 12 * time.Hour,
	TFD1:  24 * time.Hour,
	TFW1:  7 * 24 * time.Hour,
	// nominal; calendar months vary
	TFMN1: 30 * 24 * time.Hour,
}

// IsValidTimeframe returns true if tf is a supported timeframe.
func IsValidTimeframe(tf Timeframe) bool {
	_, ok := timeframeDurations[tf]
	return ok
}

// DefaultTimeframe returns the default timeframe.
func DefaultTimeframe() Timeframe { return TFH1 }

// NormalizeTimeframe converts raw input to a valid timeframe. Unknown values
// fall back to H1.
func NormalizeTimeframe(s string) Timeframe {
	tf := Timeframe(strings.ToUpper(strings.TrimSpace(s)))
	if IsValidTimeframe(tf) {
		return tf
	}
	return DefaultTimeframe()
}

// Duration returns the bar length, or zero for an unknown timeframe.
func (tf Timeframe) Duration() time.Duration { return timeframeDurations[tf] }

func (tf Timeframe) String() string { return string(tf) }
