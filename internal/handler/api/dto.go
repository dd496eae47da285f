package api

import (
	"FxCloud/internal/domain/models"
	"FxCloud/pkg/util"
)

// Wire shapes of the quotes API. Absent values are JSON null.

type HealthResponse struct {
	Status          string `json:"status"`
	SourceConnected bool   `json:"source_connected"`
}

type BarResponse struct {
	Time       string  `json:"time"`
	Open       float64 `json:"open"`
	High       float64 `json:"high"`
	Low        float64 `json:"low"`
	Close      float64 `json:"close"`
	TickVolume int64   `json:"tick_volume"`
	Spread     *int64  `json:"spread"`
	RealVolume *int64  `json:"real_volume"`
}

type QuotesResponse struct {
	Symbol    string        `json:"symbol"`
	Timeframe string        `json:"timeframe"`
	Count     int           `json:"count"`
	Data      []BarResponse `json:"data"`
}

type SymbolsResponse struct {
	Symbols []string `json:"symbols"`
}

type IchimokuLinesResponse struct {
	TenkanSen   *float64 `json:"tenkan_sen"`
	KijunSen    *float64 `json:"kijun_sen"`
	SenkouSpanA *float64 `json:"senkou_span_a"`
	SenkouSpanB *float64 `json:"senkou_span_b"`
	ChikouSpan  *float64 `json:"chikou_span"`
	// nil when the cloud is not formed yet
	CloudStatus *string `json:"cloud_status"`
}

type SignalResponse struct {
	Signal        string          `json:"signal"`
	Reason        string          `json:"reason"`
	ConditionsMet map[string]bool `json:"conditions_met"`
}

type IchimokuCandleResponse struct {
	Time     string                 `json:"time"`
	Open     float64                `json:"open"`
	High     float64                `json:"high"`
	Low      float64                `json:"low"`
	Close    float64                `json:"close"`
	Ichimoku *IchimokuLinesResponse `json:"ichimoku"`
	Signal   *SignalResponse        `json:"signal"`
}

type IchimokuResponse struct {
	Symbol       string                   `json:"symbol"`
	Timeframe    string                   `json:"timeframe"`
	TotalCandles int                      `json:"total_candles"`
	LatestSignal *SignalResponse          `json:"latest_signal"`
	Data         []IchimokuCandleResponse `json:"data"`
}

func toBarResponses(bars []models.Bar) []BarResponse {
	out := make([]BarResponse, len(bars))
	for i, b := range bars {
		out[i] = BarResponse{
			Time:       b.Time.UTC().Format(util.TimeLayout),
			Open:       b.Open,
			High:       b.High,
			Low:        b.Low,
			Close:      b.Close,
			TickVolume: b.TickVolume,
			Spread:     b.Spread,
			RealVolume: b.RealVolume,
		}
	}
	return out
}

func toSignalResponse(v *models.SignalVerdict) *SignalResponse {
	if v == nil {
		return nil
	}
	cond := v.Conditions
	if cond == nil {
		cond = map[string]bool{}
	}
	return &SignalResponse{Signal: string(v.Signal), Reason: v.Reason, ConditionsMet: cond}
}

func toLinesResponse(s *models.IchimokuSet) *IchimokuLinesResponse {
	if s == nil {
		return nil
	}
	out := &IchimokuLinesResponse{
		TenkanSen:   s.TenkanSen,
		KijunSen:    s.KijunSen,
		SenkouSpanA: s.SenkouSpanA,
		SenkouSpanB: s.SenkouSpanB,
		ChikouSpan:  s.ChikouSpan,
	}
	if s.CloudStatus != "" && s.CloudStatus != models.CloudUnknown {
		cs := string(s.CloudStatus)
		out.CloudStatus = &cs
	}
	return out
}

func toIchimokuResponse(symbol, timeframe string, a *models.IchimokuAnalysis) IchimokuResponse {
	data := make([]IchimokuCandleResponse, len(a.Points))
	for i, p := range a.Points {
		data[i] = IchimokuCandleResponse{
			Time:     p.Bar.Time.UTC().Format(util.TimeLayout),
			Open:     p.Bar.Open,
			High:     p.Bar.High,
			Low:      p.Bar.Low,
			Close:    p.Bar.Close,
			Ichimoku: toLinesResponse(p.Ichimoku),
			Signal:   toSignalResponse(p.Signal),
		}
	}
	return IchimokuResponse{
		Symbol:       symbol,
		Timeframe:    timeframe,
		TotalCandles: len(data),
		LatestSignal: toSignalResponse(a.Latest),
		Data:         data,
	}
}
