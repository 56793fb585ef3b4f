// Package classify maps raw per-instrument metrics to exactly one of the
// three pools plus derived scores. Classification is pure: identical input
// metrics always produce identical output, with no hidden state, randomness
// or I/O. Every scaling constant comes from configuration so there is one
// place where, e.g., yuan-inflow-to-score conversion is defined.
package classify

import (
	"sort"

	"github.com/Stuuu223/myquanttool/internal/config"
	"github.com/Stuuu223/myquanttool/internal/domain/quant"
	"github.com/Stuuu223/myquanttool/internal/domain/snapshot"
)

// Metrics is the normalized per-instrument input shape. Nil groups mean
// the corresponding provider had no data; they are never zero-filled.
type Metrics struct {
	Code      string
	Name      string
	Technical *TechnicalMetrics
	Flow      *FlowMetrics
	Sentiment *SentimentMetrics
}

// TechnicalMetrics is session price action. PctChg is a fraction; Amount is
// yuan.
type TechnicalMetrics struct {
	Close       float64
	Open        float64
	High        float64
	Low         float64
	PctChg      float64
	AmountYuan  float64
	VolumeRatio float64
}

// FlowMetrics is capital flow, all yuan-denominated.
type FlowMetrics struct {
	MainNetInflowYuan float64
	SuperLargeYuan    float64
	LargeYuan         float64
	MediumYuan        float64
	SmallYuan         float64
}

// SentimentMetrics is market/sector sentiment evidence, each on [0,100].
type SentimentMetrics struct {
	MarketHeat     float64
	SectorStrength float64
}

// Outcome is the classification result for one instrument.
type Outcome struct {
	Pool snapshot.Pool

	// RiskScore is on [0,100], lower = safer / more attractive.
	RiskScore   float64
	AttackScore float64
	TrapSignals []string
	CapitalType string

	// SubScores records the per-category [0,100] sub-scores that fed the
	// risk formula; absent categories are omitted.
	SubScores map[string]float64

	DataQuality   string
	MissingGroups []string
}

// Classifier is a configured, deterministic pool classifier.
type Classifier struct {
	cfg config.ClassifierConfig
}

// New creates a classifier from validated configuration.
func New(cfg config.ClassifierConfig) *Classifier {
	return &Classifier{cfg: cfg}
}

// Classify assigns m to a pool and computes its derived scores.
//
// Missing metric groups degrade rather than corrupt: the instrument is
// marked data_quality=degraded and routed to the watchlist regardless of
// score, and the risk formula renormalizes over the groups present.
func (c *Classifier) Classify(m Metrics) Outcome {
	sub := map[string]float64{}
	weights := map[string]float64{}
	var missing []string

	if m.Technical != nil {
		sub["technical"] = c.technicalRisk(m.Technical)
		weights["technical"] = c.cfg.Weights.Technical
	} else {
		missing = append(missing, "technical")
	}
	if m.Flow != nil {
		sub["fund_flow"] = c.flowRisk(m.Flow)
		weights["fund_flow"] = c.cfg.Weights.FundFlow
	} else {
		missing = append(missing, "fund_flow")
	}
	if m.Sentiment != nil {
		sub["market_sentiment"] = c.sentimentRisk(m.Sentiment)
		weights["market_sentiment"] = c.cfg.Weights.Sentiment
	} else {
		missing = append(missing, "market_sentiment")
	}
	sort.Strings(missing)

	risk := combine(sub, weights)

	out := Outcome{
		RiskScore:   risk,
		AttackScore: c.attackScore(m),
		TrapSignals: c.trapSignals(m),
		CapitalType: capitalType(m.Flow),
		SubScores:   sub,
	}

	// Technical and fund-flow evidence are required for a trusted score;
	// sentiment alone degrading is tolerated.
	if m.Technical == nil || m.Flow == nil {
		out.DataQuality = snapshot.QualityDegraded
		out.MissingGroups = missing
		out.Pool = snapshot.PoolWatchlist
		return out
	}
	out.DataQuality = snapshot.QualityOK
	out.MissingGroups = missing
	out.Pool = c.pool(risk)
	return out
}

// pool routes a risk score to its pool. Scores exactly at a boundary go to
// the riskier pool.
func (c *Classifier) pool(risk float64) snapshot.Pool {
	switch {
	case risk >= c.cfg.Thresholds.BlacklistMin:
		return snapshot.PoolBlacklist
	case risk >= c.cfg.Thresholds.OpportunityMax:
		return snapshot.PoolWatchlist
	default:
		return snapshot.PoolOpportunity
	}
}

// technicalRisk scores price-action risk on [0,100]. Chasing an extended
// move is the dominant term; intraday fades add to it.
func (c *Classifier) technicalRisk(t *TechnicalMetrics) float64 {
	// Extension: a ±10% move maps to the full 70-point extension band.
	extension := quant.Clamp(absFraction(t.PctChg)/0.10, 0, 1) * 70

	// Fade: close giving back ground from the high.
	fade := 0.0
	if t.High > 0 && t.High > t.Close {
		fade = quant.Clamp((t.High-t.Close)/t.High/0.05, 0, 1) * 30
	}
	return quant.Clamp(extension+fade, 0, 100)
}

// flowRisk inverts the inflow sub-score: strong yuan-denominated main net
// inflow is low risk.
func (c *Classifier) flowRisk(f *FlowMetrics) float64 {
	inflowScore := quant.MainInflowYuanToScore(f.MainNetInflowYuan, c.cfg.Flow.YuanPerPoint)
	return 100 - inflowScore
}

// sentimentRisk inverts blended sentiment evidence.
func (c *Classifier) sentimentRisk(s *SentimentMetrics) float64 {
	blend := quant.Clamp(0.6*s.MarketHeat+0.4*s.SectorStrength, 0, 100)
	return 100 - blend
}

// attackScore measures offensive quality on [0,100]: inflow strength plus
// momentum, independent of the risk axis.
func (c *Classifier) attackScore(m Metrics) float64 {
	score := 0.0
	n := 0.0
	if m.Flow != nil {
		score += quant.MainInflowYuanToScore(m.Flow.MainNetInflowYuan, c.cfg.Flow.YuanPerPoint)
		n++
	}
	if m.Technical != nil {
		score += quant.Clamp(50+m.Technical.PctChg/0.10*50, 0, 100)
		n++
	}
	if n == 0 {
		return 0
	}
	return quant.Clamp(score/n, 0, 100)
}

// combine renormalizes the configured weights over the present categories
// and blends their risk sub-scores.
func combine(sub, weights map[string]float64) float64 {
	totalWeight := 0.0
	for name := range sub {
		totalWeight += weights[name]
	}
	if totalWeight == 0 {
		return 0
	}
	risk := 0.0
	for name, s := range sub {
		risk += s * weights[name] / totalWeight
	}
	return quant.Clamp(risk, 0, 100)
}

func absFraction(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
