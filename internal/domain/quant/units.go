// Package quant holds small pure helpers with explicit unit contracts.
// Every monetary argument names its denomination; conversions happen here
// and nowhere else.
package quant

import (
	"fmt"
	"math"
)

// FlowRatio returns main_net_inflow / amount, both in yuan. Amount must be
// positive; a zero or negative denominator is a data error, not a zero ratio.
func FlowRatio(mainNetInflowYuan, amountYuan float64) (float64, error) {
	if amountYuan <= 0 {
		return 0, fmt.Errorf("flow ratio: amount must be positive yuan, got %.2f", amountYuan)
	}
	return mainNetInflowYuan / amountYuan, nil
}

// MainInflowYuanToScore maps a yuan-denominated main net inflow onto a
// [0,100] sub-score centered at 50. yuanPerPoint is the configured divisor:
// how many yuan of net inflow move the score by one point.
func MainInflowYuanToScore(inflowYuan, yuanPerPoint float64) float64 {
	if yuanPerPoint <= 0 {
		yuanPerPoint = 1
	}
	return Clamp(50+inflowYuan/yuanPerPoint, 0, 100)
}

// YuanFromWan converts wan (10,000 yuan) to yuan.
func YuanFromWan(wan float64) float64 {
	return wan * 1e4
}

// FractionFromPercent converts a percent value (3.5) to a fraction (0.035).
func FractionFromPercent(pct float64) float64 {
	return pct / 100
}

// Clamp bounds v into [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
