package ichimoku

import (
	"fmt"
	"math"

	"FxCloud/internal/domain/models"
)

// Condition names reported in SignalVerdict.Conditions.
const (
	CondPriceAboveCloud  = "price_above_cloud"
	CondPriceBelowCloud  = "price_below_cloud"
	CondKijunAboveTenkan = "kijun_above_tenkan"
	CondKijunBelowTenkan = "kijun_below_tenkan"
	CondChikouAbovePrice = "chikou_above_price"
	CondChikouBelowPrice = "chikou_below_price"
)

// Reason texts. Downstream consumers match on these, keep them stable.
const (
	ReasonBuy     = "Price above cloud, Kijun above Tenkan, Chikou above price"
	ReasonSell    = "Price below cloud, Kijun below Tenkan, Chikou below price"
	ReasonNeutral = "Ichimoku conditions not fully met"

	reasonInsufficient = "Insufficient data: missing %s"
)

// Classify turns one bar and its indicator set into a verdict. It looks at
// nothing but its arguments. Any missing input yields a neutral verdict with
// an empty condition map.
//
// Chikou is compared with the bar's own close: the Chikou shown at bar i is
// close[i+Displacement], so the predicate asks whether price a displacement
// later closed above or below this bar.
func Classify(bar models.Bar, set *models.IchimokuSet) models.SignalVerdict {
	if field := missingInput(bar, set); field != "" {
		return models.SignalVerdict{
			Signal:     models.SignalNeutral,
			Reason:     fmt.Sprintf(reasonInsufficient, field),
			Conditions: map[string]bool{},
		}
	}

	price := bar.Close
	tenkan, kijun, chikou := *set.TenkanSen, *set.KijunSen, *set.ChikouSpan

	conds := map[string]bool{
		CondPriceAboveCloud:  set.CloudStatus == models.CloudAbove,
		CondPriceBelowCloud:  set.CloudStatus == models.CloudBelow,
		CondKijunAboveTenkan: kijun > tenkan,
		CondKijunBelowTenkan: kijun < tenkan,
		CondChikouAbovePrice: chikou > price,
		CondChikouBelowPrice: chikou < price,
	}

	switch {
	case conds[CondPriceAboveCloud] && conds[CondKijunAboveTenkan] && conds[CondChikouAbovePrice]:
		return models.SignalVerdict{Signal: models.SignalBuy, Reason: ReasonBuy, Conditions: conds}
	case conds[CondPriceBelowCloud] && conds[CondKijunBelowTenkan] && conds[CondChikouBelowPrice]:
		return models.SignalVerdict{Signal: models.SignalSell, Reason: ReasonSell, Conditions: conds}
	default:
		return models.SignalVerdict{Signal: models.SignalNeutral, Reason: ReasonNeutral, Conditions: conds}
	}
}

// missingInput names the first input Classify cannot work without, or "".
func missingInput(bar models.Bar, set *models.IchimokuSet) string {
	if math.IsNaN(bar.Close) {
		return "close"
	}
	if set == nil {
		return "ichimoku"
	}
	switch {
	case set.TenkanSen == nil:
		return "tenkan_sen"
	case set.KijunSen == nil:
		return "kijun_sen"
	case set.ChikouSpan == nil:
		return "chikou_span"
	case set.SenkouSpanA == nil:
		return "senkou_span_a"
	case set.SenkouSpanB == nil:
		return "senkou_span_b"
	case set.CloudStatus == "" || set.CloudStatus == models.CloudUnknown:
		return "cloud_status"
	}
	return ""
}
