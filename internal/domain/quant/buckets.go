package quant

import (
	"fmt"
	"sort"
)

// AuctionBucket labels for pre-open auction change distributions. Changes
// are fractions, never percents.
const (
	BucketHighOpen   = "high_open"   // > +3%
	BucketStrongOpen = "strong_open" // (+1%, +3%]
	BucketFlatOpen   = "flat_open"   // [-1%, +1%]
	BucketWeakOpen   = "weak_open"   // [-3%, -1%)
	BucketLowOpen    = "low_open"    // < -3%
)

const (
	highOpenFraction = 0.03
	flatOpenFraction = 0.01
)

// AuctionChangeBucket assigns a fractional auction change to its named
// bucket. 0.035 is a high open; -0.04 is a low open.
func AuctionChangeBucket(changeFraction float64) string {
	switch {
	case changeFraction > highOpenFraction:
		return BucketHighOpen
	case changeFraction > flatOpenFraction:
		return BucketStrongOpen
	case changeFraction >= -flatOpenFraction:
		return BucketFlatOpen
	case changeFraction >= -highOpenFraction:
		return BucketWeakOpen
	default:
		return BucketLowOpen
	}
}

// Percentile returns the p-th percentile (0..100) of values using linear
// interpolation. The input slice is not mutated.
func Percentile(values []float64, p float64) (float64, error) {
	if len(values) == 0 {
		return 0, fmt.Errorf("percentile of empty distribution")
	}
	if p < 0 || p > 100 {
		return 0, fmt.Errorf("percentile %v outside [0,100]", p)
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if len(sorted) == 1 {
		return sorted[0], nil
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(rank)
	frac := rank - float64(lo)
	if lo+1 >= len(sorted) {
		return sorted[len(sorted)-1], nil
	}
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo]), nil
}

// PercentileRank returns where v sits inside the distribution as [0,100].
func PercentileRank(values []float64, v float64) (float64, error) {
	if len(values) == 0 {
		return 0, fmt.Errorf("percentile rank of empty distribution")
	}
	below := 0
	for _, x := range values {
		if x <= v {
			below++
		}
	}
	return 100 * float64(below) / float64(len(values)), nil
}
