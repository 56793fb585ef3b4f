package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Stuuu223/myquanttool/internal/config"
	"github.com/Stuuu223/myquanttool/internal/domain/snapshot"
)

func newTestClassifier(t *testing.T) *Classifier {
	t.Helper()
	return New(config.Default())
}

func fullMetrics() Metrics {
	return Metrics{
		Code: "603607.SH",
		Technical: &TechnicalMetrics{
			Close:       25.5,
			Open:        25.0,
			High:        26.0,
			Low:         24.8,
			PctChg:      0.02,
			AmountYuan:  500_000_000,
			VolumeRatio: 1.5,
		},
		Flow: &FlowMetrics{
			MainNetInflowYuan: 50_000_000,
			SuperLargeYuan:    40_000_000,
			LargeYuan:         5_000_000,
			MediumYuan:        3_000_000,
			SmallYuan:         2_000_000,
		},
		Sentiment: &SentimentMetrics{MarketHeat: 70, SectorStrength: 60},
	}
}

func TestClassify_Deterministic(t *testing.T) {
	c := newTestClassifier(t)
	m := fullMetrics()

	first := c.Classify(m)
	second := c.Classify(m)

	assert.Equal(t, first.Pool, second.Pool)
	assert.Equal(t, first.RiskScore, second.RiskScore)
	assert.Equal(t, first.AttackScore, second.AttackScore)
	assert.Equal(t, first.TrapSignals, second.TrapSignals)
	assert.Equal(t, first.CapitalType, second.CapitalType)
}

func TestClassify_StrongInflowIsOpportunity(t *testing.T) {
	c := newTestClassifier(t)
	out := c.Classify(fullMetrics())

	assert.Equal(t, snapshot.PoolOpportunity, out.Pool)
	assert.Equal(t, snapshot.QualityOK, out.DataQuality)
	assert.Less(t, out.RiskScore, config.Default().Thresholds.OpportunityMax)
	assert.Equal(t, CapitalInstitutional, out.CapitalType)
}

func TestClassify_HeavyOutflowIsBlacklisted(t *testing.T) {
	c := newTestClassifier(t)
	m := fullMetrics()
	m.Technical.PctChg = -0.095
	m.Technical.High = 27.0
	m.Technical.Close = 23.0
	m.Flow.MainNetInflowYuan = -80_000_000
	m.Sentiment = &SentimentMetrics{MarketHeat: 10, SectorStrength: 10}

	out := c.Classify(m)
	assert.Equal(t, snapshot.PoolBlacklist, out.Pool)
	assert.GreaterOrEqual(t, out.RiskScore, config.Default().Thresholds.BlacklistMin)
}

func TestPool_BoundaryTiesGoToRiskierPool(t *testing.T) {
	c := newTestClassifier(t)
	th := config.Default().Thresholds

	assert.Equal(t, snapshot.PoolWatchlist, c.pool(th.OpportunityMax),
		"score exactly at opportunity_max belongs to the watchlist")
	assert.Equal(t, snapshot.PoolBlacklist, c.pool(th.BlacklistMin),
		"score exactly at blacklist_min belongs to the blacklist")
	assert.Equal(t, snapshot.PoolOpportunity, c.pool(th.OpportunityMax-0.001))
	assert.Equal(t, snapshot.PoolWatchlist, c.pool(th.BlacklistMin-0.001))
}

func TestClassify_MissingFlowDegradesToWatchlist(t *testing.T) {
	c := newTestClassifier(t)
	m := fullMetrics()
	m.Flow = nil

	out := c.Classify(m)
	assert.Equal(t, snapshot.PoolWatchlist, out.Pool, "degraded records route to watchlist regardless of score")
	assert.Equal(t, snapshot.QualityDegraded, out.DataQuality)
	assert.Contains(t, out.MissingGroups, "fund_flow")
	assert.NotContains(t, out.SubScores, "fund_flow", "missing groups are never zero-filled")
}

func TestClassify_MissingTechnicalDegradesToWatchlist(t *testing.T) {
	c := newTestClassifier(t)
	m := fullMetrics()
	m.Technical = nil

	out := c.Classify(m)
	assert.Equal(t, snapshot.PoolWatchlist, out.Pool)
	assert.Equal(t, snapshot.QualityDegraded, out.DataQuality)
	assert.Contains(t, out.MissingGroups, "technical")
}

func TestClassify_MissingSentimentAloneIsTolerated(t *testing.T) {
	c := newTestClassifier(t)
	m := fullMetrics()
	m.Sentiment = nil

	out := c.Classify(m)
	assert.Equal(t, snapshot.QualityOK, out.DataQuality)
	assert.Contains(t, out.MissingGroups, "market_sentiment")
	assert.NotEqual(t, "", out.Pool)
}

func TestClassify_WeightsRenormalizeOverPresentGroups(t *testing.T) {
	c := newTestClassifier(t)
	m := fullMetrics()
	m.Sentiment = nil

	out := c.Classify(m)
	// Risk must still be a blend, not the raw sum with a missing term.
	assert.GreaterOrEqual(t, out.RiskScore, 0.0)
	assert.LessOrEqual(t, out.RiskScore, 100.0)
}

func TestTrapSignals(t *testing.T) {
	c := newTestClassifier(t)

	t.Run("volume spike without follow-through", func(t *testing.T) {
		m := fullMetrics()
		m.Technical.VolumeRatio = 4.0
		m.Technical.PctChg = 0.002
		out := c.Classify(m)
		assert.Contains(t, out.TrapSignals, TrapVolumeNoFollowThrough)
	})

	t.Run("high open fade", func(t *testing.T) {
		m := fullMetrics()
		m.Technical.Open = 26.0
		m.Technical.Close = 24.0
		out := c.Classify(m)
		assert.Contains(t, out.TrapSignals, TrapHighOpenFade)
	})

	t.Run("inflow against falling price", func(t *testing.T) {
		m := fullMetrics()
		m.Technical.PctChg = -0.02
		m.Flow.MainNetInflowYuan = 10_000_000
		out := c.Classify(m)
		assert.Contains(t, out.TrapSignals, TrapInflowPriceDivergence)
	})

	t.Run("clean record trips nothing", func(t *testing.T) {
		out := c.Classify(fullMetrics())
		assert.Empty(t, out.TrapSignals)
	})
}

func TestCapitalType(t *testing.T) {
	cases := []struct {
		name string
		flow *FlowMetrics
		want string
	}{
		{"nil flow", nil, CapitalUnknown},
		{"super-large dominant", &FlowMetrics{SuperLargeYuan: 60, LargeYuan: 20, SmallYuan: 20}, CapitalInstitutional},
		{"large dominant", &FlowMetrics{SuperLargeYuan: 10, LargeYuan: 70, MediumYuan: 20}, CapitalHotMoney},
		{"retail dominant", &FlowMetrics{MediumYuan: 40, SmallYuan: 30, LargeYuan: 20}, CapitalRetail},
		{"no dominant bucket", &FlowMetrics{SuperLargeYuan: 34, LargeYuan: 33, SmallYuan: 33}, CapitalMixed},
		{"all outflow", &FlowMetrics{SuperLargeYuan: -10, LargeYuan: -5}, CapitalUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, capitalType(tc.flow))
		})
	}
}

func TestClassify_ScoresStayInRange(t *testing.T) {
	c := newTestClassifier(t)
	extremes := []Metrics{
		fullMetrics(),
		{Code: "X", Technical: &TechnicalMetrics{PctChg: 0.20, High: 100, Close: 50, Open: 99}, Flow: &FlowMetrics{MainNetInflowYuan: -1e12}},
		{Code: "Y", Technical: &TechnicalMetrics{PctChg: -0.20}, Flow: &FlowMetrics{MainNetInflowYuan: 1e12}},
	}
	for _, m := range extremes {
		out := c.Classify(m)
		require.GreaterOrEqual(t, out.RiskScore, 0.0)
		require.LessOrEqual(t, out.RiskScore, 100.0)
		require.GreaterOrEqual(t, out.AttackScore, 0.0)
		require.LessOrEqual(t, out.AttackScore, 100.0)
	}
}
