package pipeline

import (
	"github.com/Stuuu223/myquanttool/internal/domain/classify"
	"github.com/Stuuu223/myquanttool/internal/domain/snapshot"
)

// evidenceAggregator accumulates per-category coverage and mean sub-scores
// across a scan. Each cell is computed independently; the snapshot merely
// collects them.
type evidenceAggregator struct {
	total int

	techPresent, flowPresent, sentPresent int
	techScore, flowScore, sentScore       float64

	flowFetchFailed, sentFetchFailed bool
}

func newEvidenceAggregator(total int, flowFailed, sentFailed bool) *evidenceAggregator {
	return &evidenceAggregator{total: total, flowFetchFailed: flowFailed, sentFetchFailed: sentFailed}
}

func (a *evidenceAggregator) observe(m classify.Metrics, outcome classify.Outcome) {
	if m.Technical != nil {
		a.techPresent++
		a.techScore += outcome.SubScores["technical"]
	}
	if m.Flow != nil {
		a.flowPresent++
		a.flowScore += outcome.SubScores["fund_flow"]
	}
	if m.Sentiment != nil {
		a.sentPresent++
		a.sentScore += outcome.SubScores["market_sentiment"]
	}
}

func (a *evidenceAggregator) matrix() snapshot.EvidenceMatrix {
	return snapshot.EvidenceMatrix{
		Technical:       a.cell(a.techPresent, a.techScore, false),
		FundFlow:        a.cell(a.flowPresent, a.flowScore, a.flowFetchFailed),
		MarketSentiment: a.cell(a.sentPresent, a.sentScore, a.sentFetchFailed),
	}
}

func (a *evidenceAggregator) cell(present int, scoreSum float64, fetchFailed bool) snapshot.EvidenceCell {
	if a.total == 0 {
		return snapshot.EvidenceCell{}
	}
	cell := snapshot.EvidenceCell{
		Quality:   float64(present) / float64(a.total),
		ErrorRate: float64(a.total-present) / float64(a.total),
	}
	if fetchFailed {
		cell.ErrorRate = 1
	}
	if present > 0 {
		cell.Score = scoreSum / float64(present)
	}
	return cell
}
