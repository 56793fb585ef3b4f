package quant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlowRatio_ExactScenario(t *testing.T) {
	// 50M yuan inflow against 500M yuan turnover is exactly 0.10.
	ratio, err := FlowRatio(50_000_000, 500_000_000)
	require.NoError(t, err)
	assert.Equal(t, 0.10, ratio)
}

func TestFlowRatio_RejectsNonPositiveAmount(t *testing.T) {
	_, err := FlowRatio(1_000_000, 0)
	require.Error(t, err)
	_, err = FlowRatio(1_000_000, -5)
	require.Error(t, err)
}

func TestMainInflowYuanToScore(t *testing.T) {
	// One point per million yuan, centered at 50.
	assert.Equal(t, 50.0, MainInflowYuanToScore(0, 1_000_000))
	assert.Equal(t, 60.0, MainInflowYuanToScore(10_000_000, 1_000_000))
	assert.Equal(t, 40.0, MainInflowYuanToScore(-10_000_000, 1_000_000))
	assert.Equal(t, 100.0, MainInflowYuanToScore(1e9, 1_000_000))
	assert.Equal(t, 0.0, MainInflowYuanToScore(-1e9, 1_000_000))
}

func TestUnitConversions(t *testing.T) {
	assert.Equal(t, 500_000_000.0, YuanFromWan(50_000))
	assert.InDelta(t, 0.035, FractionFromPercent(3.5), 1e-12)
}

func TestAuctionChangeBucket(t *testing.T) {
	cases := []struct {
		change float64
		want   string
	}{
		{0.035, BucketHighOpen},
		{-0.04, BucketLowOpen},
		{0.02, BucketStrongOpen},
		{-0.02, BucketWeakOpen},
		{0.005, BucketFlatOpen},
		{-0.01, BucketFlatOpen},
		{0.03, BucketStrongOpen}, // boundary belongs to the inner band
		{-0.03, BucketWeakOpen},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, AuctionChangeBucket(tc.change), "change=%v", tc.change)
	}
}

func TestPercentile(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}

	p50, err := Percentile(values, 50)
	require.NoError(t, err)
	assert.Equal(t, 3.0, p50)

	p0, err := Percentile(values, 0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, p0)

	p100, err := Percentile(values, 100)
	require.NoError(t, err)
	assert.Equal(t, 5.0, p100)

	// Input must not be reordered.
	assert.Equal(t, []float64{1, 2, 3, 4, 5}, values)

	_, err = Percentile(nil, 50)
	require.Error(t, err)
	_, err = Percentile(values, 101)
	require.Error(t, err)
}

func TestPercentileRank(t *testing.T) {
	values := []float64{1, 2, 3, 4}
	rank, err := PercentileRank(values, 2)
	require.NoError(t, err)
	assert.Equal(t, 50.0, rank)
}

func TestTradingDaysBetween(t *testing.T) {
	// 20260112 is a Monday.
	days, err := TradingDaysBetween("20260112", "20260116")
	require.NoError(t, err)
	assert.Equal(t, 4, days)

	// Weekend in the middle is skipped: Friday to Monday is one day.
	days, err = TradingDaysBetween("20260116", "20260119")
	require.NoError(t, err)
	assert.Equal(t, 1, days)

	days, err = TradingDaysBetween("20260112", "20260112")
	require.NoError(t, err)
	assert.Equal(t, 0, days)
}

func TestTradingDaysBetween_RejectsNegativeRange(t *testing.T) {
	_, err := TradingDaysBetween("20260116", "20260112")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "precedes")
}

func TestTradingDaysBetween_RejectsMalformedDates(t *testing.T) {
	_, err := TradingDaysBetween("2026-01-12", "20260116")
	require.Error(t, err)
	_, err = TradingDaysBetween("20260112", "tomorrow")
	require.Error(t, err)
}
