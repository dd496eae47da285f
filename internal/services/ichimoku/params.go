package ichimoku

import "fmt"

// Params holds the Ichimoku window lengths. The engine never reads them from
// package state; every Calculator carries its own copy.
type Params struct {
	TenkanPeriod  int
	KijunPeriod   int
	SenkouBPeriod int
	Displacement  int
}

// DefaultParams returns the classic 9/26/52 settings with a 26 bar displacement.
func DefaultParams() Params {
	return Params{
		TenkanPeriod:  9,
		KijunPeriod:   26,
		SenkouBPeriod: 52,
		Displacement:  26,
	}
}

// Validate checks that all windows are usable.
func (p Params) Validate() error {
	if p.TenkanPeriod <= 0 {
		return fmt.Errorf("tenkan period must be positive, got %d", p.TenkanPeriod)
	}
	if p.KijunPeriod <= 0 {
		return fmt.Errorf("kijun period must be positive, got %d", p.KijunPeriod)
	}
	if p.SenkouBPeriod <= 0 {
		return fmt.Errorf("senkou b period must be positive, got %d", p.SenkouBPeriod)
	}
	if p.Displacement < 0 {
		return fmt.Errorf("displacement must not be negative, got %d", p.Displacement)
	}
	return nil
}

// MinBars is the number of bars needed for the last bar to carry both spans.
func (p Params) MinBars() int {
	longest := p.SenkouBPeriod
	if p.KijunPeriod > longest {
		longest = p.KijunPeriod
	}
	if p.TenkanPeriod > longest {
		longest = p.TenkanPeriod
	}
	return longest + p.Displacement
}
