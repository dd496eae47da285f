package models

import "time"

// Bar is one OHLC price bar of a currency pair. Broker metadata (tick volume,
// spread, real volume) is carried through untouched.
type Bar struct {
	Time       time.Time
	Open       float64
	High       float64
	Low        float64
	Close      float64
	TickVolume int64
	Spread     *int64
	RealVolume *int64
}

// BarEvent is a bar as delivered by the terminal bridge, tagged with its
// symbol and timeframe.
type BarEvent struct {
	Symbol    string
	Timeframe string
	Bar       Bar
}

// BarRecord is the JSON form of a BarEvent on the message bus.
type BarRecord struct {
	Symbol     string    `json:"symbol"`
	Timeframe  string    `json:"timeframe"`
	Time       time.Time `json:"time"`
	Open       float64   `json:"open"`
	High       float64   `json:"high"`
	Low        float64   `json:"low"`
	Close      float64   `json:"close"`
	TickVolume int64     `json:"tick_volume"`
	Spread     *int64    `json:"spread,omitempty"`
	RealVolume *int64    `json:"real_volume,omitempty"`
}

// NewBarRecord flattens ev for publishing.
func NewBarRecord(ev BarEvent) BarRecord {
	return BarRecord{
		Symbol:     ev.Symbol,
		Timeframe:  ev.Timeframe,
		Time:       ev.Bar.Time.UTC(),
		Open:       ev.Bar.Open,
		High:       ev.Bar.High,
		Low:        ev.Bar.Low,
		Close:      ev.Bar.Close,
		TickVolume: ev.Bar.TickVolume,
		Spread:     ev.Bar.Spread,
		RealVolume: ev.Bar.RealVolume,
	}
}

// Event converts the record back into a BarEvent.
func (r BarRecord) Event() BarEvent {
	return BarEvent{
		Symbol:    r.Symbol,
		Timeframe: r.Timeframe,
		Bar: Bar{
			Time:       r.Time.UTC(),
			Open:       r.Open,
			High:       r.High,
			Low:        r.Low,
			Close:      r.Close,
			TickVolume: r.TickVolume,
			Spread:     r.Spread,
			RealVolume: r.RealVolume,
		},
	}
}
