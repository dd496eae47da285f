package models

import "time"

// CloudStatus describes where the close sits relative to the Kumo.
type CloudStatus string

const (
	CloudAbove   CloudStatus = "above"
	CloudBelow   CloudStatus = "below"
	CloudInside  CloudStatus = "inside"
	CloudUnknown CloudStatus = "unknown"
)

// SignalType is the verdict of the Ichimoku classifier.
type SignalType string

const (
	SignalBuy     SignalType = "buy"
	SignalSell    SignalType = "sell"
	SignalNeutral SignalType = "neutral"
)

// IchimokuSet holds the five Ichimoku lines of one bar. A nil line means the
// bar does not have enough history (or future bars, for Chikou) to compute it.
type IchimokuSet struct {
	TenkanSen   *float64
	KijunSen    *float64
	SenkouSpanA *float64
	SenkouSpanB *float64
	ChikouSpan  *float64
	CloudStatus CloudStatus
}

// SignalVerdict is the classification of a single bar together with the
// predicates that were evaluated to reach it.
type SignalVerdict struct {
	Signal     SignalType
	Reason     string
	Conditions map[string]bool
}

// IchimokuPoint is a bar enriched with its indicator set and verdict.
type IchimokuPoint struct {
	Bar      Bar
	Ichimoku *IchimokuSet
	Signal   *SignalVerdict
}

// IchimokuAnalysis is the engine output for a whole bar sequence.
// Latest is the verdict of the final point, nil for an empty sequence.
type IchimokuAnalysis struct {
	Points []IchimokuPoint
	Latest *SignalVerdict
}

// SignalRecord is the JSON form of a latest-bar verdict on the message bus.
type SignalRecord struct {
	Symbol     string          `json:"symbol"`
	Timeframe  string          `json:"timeframe"`
	Time       time.Time       `json:"time"`
	Close      float64         `json:"close"`
	Signal     SignalType      `json:"signal"`
	Reason     string          `json:"reason"`
	Conditions map[string]bool `json:"conditions_met"`
	EmittedAt  time.Time       `json:"emitted_at"`
}
