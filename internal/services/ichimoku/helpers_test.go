package ichimoku

import (
	"time"

	"FxCloud/internal/domain/models"
)

var baseTime = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

// hourlyBars builds H1 bars around the given closes with a fixed half range.
func hourlyBars(closes []float64, halfRange float64) []models.Bar {
	bars := make([]models.Bar, len(closes))
	for i, c := range closes {
		bars[i] = models.Bar{
			Time:  baseTime.Add(time.Duration(i) * time.Hour),
			Open:  c,
			High:  c + halfRange,
			Low:   c - halfRange,
			Close: c,
		}
	}
	return bars
}

func linear(n int, from, to float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = from + (to-from)*float64(i)/float64(n-1)
	}
	return out
}

// pullbackSeries rises, spikes, pulls back to a plateau and then breaks out.
// Bar 90 sits above the cloud with Kijun above Tenkan and a higher close 26
// bars later.
func pullbackSeries() []float64 {
	closes := make([]float64, 120)
	for i := range closes {
		switch {
		case i <= 70:
			closes[i] = 1.0000 + 0.001*float64(i)
		case i <= 80:
			closes[i] = 1.1000
		case i <= 100:
			closes[i] = 1.0800
		default:
			closes[i] = 1.1200
		}
	}
	return closes
}

func mirror(closes []float64, axis float64) []float64 {
	out := make([]float64, len(closes))
	for i, c := range closes {
		out[i] = axis - c
	}
	return out
}
