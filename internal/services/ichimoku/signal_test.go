package ichimoku

import (
	"math"
	"testing"

	"FxCloud/internal/domain/models"

	"github.com/stretchr/testify/assert"
)

func f(v float64) *float64 { return &v }

func fullSet(tenkan, kijun, spanA, spanB, chikou, close float64) *models.IchimokuSet {
	set := &models.IchimokuSet{
		TenkanSen:   f(tenkan),
		KijunSen:    f(kijun),
		SenkouSpanA: f(spanA),
		SenkouSpanB: f(spanB),
		ChikouSpan:  f(chikou),
	}
	set.CloudStatus = cloudStatus(close, set.SenkouSpanA, set.SenkouSpanB)
	return set
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		close  float64
		set    *models.IchimokuSet
		want   models.SignalType
		reason string
	}{
		{
			name:   "all bullish",
			close:  1.10,
			set:    fullSet(1.08, 1.09, 1.05, 1.04, 1.12, 1.10),
			want:   models.SignalBuy,
			reason: ReasonBuy,
		},
		{
			name:   "all bearish",
			close:  1.00,
			set:    fullSet(1.03, 1.02, 1.05, 1.06, 0.98, 1.00),
			want:   models.SignalSell,
			reason: ReasonSell,
		},
		{
			name:   "above cloud but tenkan leads",
			close:  1.10,
			set:    fullSet(1.09, 1.08, 1.05, 1.04, 1.12, 1.10),
			want:   models.SignalNeutral,
			reason: ReasonNeutral,
		},
		{
			name:   "inside cloud",
			close:  1.05,
			set:    fullSet(1.03, 1.04, 1.06, 1.02, 1.12, 1.05),
			want:   models.SignalNeutral,
			reason: ReasonNeutral,
		},
		{
			name:   "kijun equals tenkan",
			close:  1.10,
			set:    fullSet(1.08, 1.08, 1.05, 1.04, 1.12, 1.10),
			want:   models.SignalNeutral,
			reason: ReasonNeutral,
		},
		{
			name:   "chikou equals close",
			close:  1.10,
			set:    fullSet(1.08, 1.09, 1.05, 1.04, 1.10, 1.10),
			want:   models.SignalNeutral,
			reason: ReasonNeutral,
		},
		{
			name:   "close on cloud edge",
			close:  1.05,
			set:    fullSet(1.08, 1.09, 1.05, 1.04, 1.12, 1.05),
			want:   models.SignalNeutral,
			reason: ReasonNeutral,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(models.Bar{Close: tc.close}, tc.set)
			assert.Equal(t, tc.want, got.Signal)
			assert.Equal(t, tc.reason, got.Reason)
			assert.Len(t, got.Conditions, 6)
		})
	}
}

func TestClassifyConditionsAreReported(t *testing.T) {
	got := Classify(models.Bar{Close: 1.10}, fullSet(1.09, 1.08, 1.05, 1.04, 1.12, 1.10))

	assert.Equal(t, map[string]bool{
		CondPriceAboveCloud:  true,
		CondPriceBelowCloud:  false,
		CondKijunAboveTenkan: false,
		CondKijunBelowTenkan: true,
		CondChikouAbovePrice: true,
		CondChikouBelowPrice: false,
	}, got.Conditions)
}

func TestClassifyInsufficientData(t *testing.T) {
	complete := func() *models.IchimokuSet { return fullSet(1.08, 1.09, 1.05, 1.04, 1.12, 1.10) }

	tests := []struct {
		name  string
		close float64
		set   func() *models.IchimokuSet
		field string
	}{
		{"nil set", 1.10, func() *models.IchimokuSet { return nil }, "ichimoku"},
		{"nan close", math.NaN(), complete, "close"},
		{"tenkan", 1.10, func() *models.IchimokuSet { s := complete(); s.TenkanSen = nil; return s }, "tenkan_sen"},
		{"kijun", 1.10, func() *models.IchimokuSet { s := complete(); s.KijunSen = nil; return s }, "kijun_sen"},
		{"chikou", 1.10, func() *models.IchimokuSet { s := complete(); s.ChikouSpan = nil; return s }, "chikou_span"},
		{"span a", 1.10, func() *models.IchimokuSet { s := complete(); s.SenkouSpanA = nil; return s }, "senkou_span_a"},
		{"span b", 1.10, func() *models.IchimokuSet { s := complete(); s.SenkouSpanB = nil; return s }, "senkou_span_b"},
		{"cloud status", 1.10, func() *models.IchimokuSet { s := complete(); s.CloudStatus = models.CloudUnknown; return s }, "cloud_status"},
		{"first missing wins", 1.10, func() *models.IchimokuSet {
			s := complete()
			s.SenkouSpanB = nil
			s.KijunSen = nil
			return s
		}, "kijun_sen"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(models.Bar{Close: tc.close}, tc.set())
			assert.Equal(t, models.SignalNeutral, got.Signal)
			assert.Equal(t, "Insufficient data: missing "+tc.field, got.Reason)
			assert.NotNil(t, got.Conditions)
			assert.Empty(t, got.Conditions)
		})
	}
}
