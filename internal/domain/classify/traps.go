package classify

import "sort"

// Trap signal names. Flags are evaluated independently; their presence does
// not change pool membership, they ride along for downstream filtering.
const (
	TrapVolumeNoFollowThrough = "volume_no_follow_through"
	TrapHighOpenFade          = "high_open_fade"
	TrapInflowPriceDivergence = "inflow_price_divergence"
)

// trapSignals evaluates each configured trap flag against the metrics that
// are present. Missing groups simply cannot trip their flags.
func (c *Classifier) trapSignals(m Metrics) []string {
	var traps []string

	if t := m.Technical; t != nil {
		if t.VolumeRatio >= c.cfg.Traps.VolumeRatioHigh && t.PctChg < c.cfg.Traps.FollowThroughMin {
			traps = append(traps, TrapVolumeNoFollowThrough)
		}
		if t.Open > 0 && t.Close < t.Open*(1-c.cfg.Traps.FadeFraction) {
			traps = append(traps, TrapHighOpenFade)
		}
	}
	if m.Technical != nil && m.Flow != nil {
		// Price falling while main capital nets in: somebody is absorbing
		// exits, or the inflow print is stale.
		if m.Flow.MainNetInflowYuan > 0 && m.Technical.PctChg < 0 {
			traps = append(traps, TrapInflowPriceDivergence)
		}
	}

	sort.Strings(traps)
	return traps
}

// Capital type labels for the dominant capital behind a move.
const (
	CapitalInstitutional = "institutional"
	CapitalHotMoney      = "hot_money"
	CapitalRetail        = "retail"
	CapitalMixed         = "mixed"
	CapitalUnknown       = "unknown"
)

// capitalType classifies the dominant order-size bucket of positive flow.
func capitalType(f *FlowMetrics) string {
	if f == nil {
		return CapitalUnknown
	}
	super := positive(f.SuperLargeYuan)
	large := positive(f.LargeYuan)
	small := positive(f.MediumYuan) + positive(f.SmallYuan)
	total := super + large + small
	if total <= 0 {
		return CapitalUnknown
	}
	switch {
	case super/total > 0.5:
		return CapitalInstitutional
	case large/total > 0.5:
		return CapitalHotMoney
	case small/total > 0.5:
		return CapitalRetail
	default:
		return CapitalMixed
	}
}

func positive(v float64) float64 {
	if v > 0 {
		return v
	}
	return 0
}
