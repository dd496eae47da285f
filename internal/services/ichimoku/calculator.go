// Package ichimoku computes the Ichimoku Kinko Hyo lines over an ordered bar
// sequence and classifies every bar into a buy, sell or neutral verdict.
//
// Span alignment: the Senkou spans shown at bar i are the values computed at
// bar i-Displacement, and the Chikou span shown at bar i is the close of bar
// i+Displacement. Cloud status at bar i compares close[i] with the spans shown
// at bar i, so no value is ever computed from bars after its source window.
package ichimoku

import (
	"errors"
	"fmt"
	"math"

	"FxCloud/internal/domain/models"
)

// ErrMalformedInput is returned when bars are out of order or carry unusable
// prices. The whole batch is rejected.
var ErrMalformedInput = errors.New("malformed input")

// Calculator computes Ichimoku lines. It is stateless between calls and safe
// for concurrent use.
type Calculator struct {
	p Params
}

// NewCalculator creates a Calculator for the given windows.
func NewCalculator(p Params) (*Calculator, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("ichimoku params: %w", err)
	}
	return &Calculator{p: p}, nil
}

// Params returns the windows the calculator was built with.
func (c *Calculator) Params() Params { return c.p }

// Compute attaches an IchimokuSet to every bar. Length and order are kept.
// Lines without enough history are nil; a short series is not an error.
func (c *Calculator) Compute(bars []models.Bar) ([]models.IchimokuPoint, error) {
	if err := validateBars(bars); err != nil {
		return nil, err
	}

	n := len(bars)
	highs := make([]float64, n)
	lows := make([]float64, n)
	for i, b := range bars {
		highs[i] = b.High
		lows[i] = b.Low
	}

	tenkan := midpoints(highs, lows, c.p.TenkanPeriod)
	kijun := midpoints(highs, lows, c.p.KijunPeriod)
	senkouB := midpoints(highs, lows, c.p.SenkouBPeriod)

	d := c.p.Displacement
	points := make([]models.IchimokuPoint, n)
	for i, b := range bars {
		set := &models.IchimokuSet{
			TenkanSen: tenkan[i],
			KijunSen:  kijun[i],
		}
		if src := i - d; src >= 0 {
			set.SenkouSpanA = mean(tenkan[src], kijun[src])
			set.SenkouSpanB = senkouB[src]
		}
		if j := i + d; j < n {
			v := bars[j].Close
			set.ChikouSpan = &v
		}
		set.CloudStatus = cloudStatus(b.Close, set.SenkouSpanA, set.SenkouSpanB)

		points[i] = models.IchimokuPoint{Bar: b, Ichimoku: set}
	}
	return points, nil
}

// Analyze computes the lines, classifies every bar and exposes the verdict of
// the final bar as Latest.
func (c *Calculator) Analyze(bars []models.Bar) (*models.IchimokuAnalysis, error) {
	points, err := c.Compute(bars)
	if err != nil {
		return nil, err
	}
	for i := range points {
		v := Classify(points[i].Bar, points[i].Ichimoku)
		points[i].Signal = &v
	}

	res := &models.IchimokuAnalysis{Points: points}
	if len(points) > 0 {
		res.Latest = points[len(points)-1].Signal
	}
	return res, nil
}

func cloudStatus(price float64, spanA, spanB *float64) models.CloudStatus {
	if spanA == nil || spanB == nil {
		return models.CloudUnknown
	}
	top := math.Max(*spanA, *spanB)
	bottom := math.Min(*spanA, *spanB)
	switch {
	case price > top:
		return models.CloudAbove
	case price < bottom:
		return models.CloudBelow
	default:
		return models.CloudInside
	}
}

func mean(a, b *float64) *float64 {
	if a == nil || b == nil {
		return nil
	}
	m := (*a + *b) / 2
	return &m
}

func validateBars(bars []models.Bar) error {
	for i, b := range bars {
		if b.Time.IsZero() {
			return fmt.Errorf("%w: bar %d has no timestamp", ErrMalformedInput, i)
		}
		for _, f := range []struct {
			name string
			v    float64
		}{{"open", b.Open}, {"high", b.High}, {"low", b.Low}, {"close", b.Close}} {
			if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
				return fmt.Errorf("%w: bar %d has invalid %s", ErrMalformedInput, i, f.name)
			}
		}
		if i > 0 && !b.Time.After(bars[i-1].Time) {
			return fmt.Errorf("%w: bar %d at %s is not after bar %d at %s",
				ErrMalformedInput, i, b.Time.Format("2006-01-02 15:04:05"), i-1, bars[i-1].Time.Format("2006-01-02 15:04:05"))
		}
	}
	return nil
}
