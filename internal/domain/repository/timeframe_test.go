package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTimeframe(t *testing.T) {
	tests := []struct {
		in   string
		want Timeframe
	}{
		{"H1", TFH1},
		{"h4", TFH4},
		{" m15 ", TFM15},
		{"MN1", TFMN1},
		{"", TFH1},
		{"H5", TFH1},
		{"1m", TFH1},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeTimeframe(tc.in))
		})
	}
}

func TestTimeframeDuration(t *testing.T) {
	assert.Equal(t, time.Hour, TFH1.Duration())
	assert.Equal(t, 15*time.Minute, TFM15.Duration())
	assert.Equal(t, 7*24*time.Hour, TFW1.Duration())
	assert.Zero(t, Timeframe("X9").Duration())
}
