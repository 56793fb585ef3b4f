package providers

import (
	"context"

	"github.com/Stuuu223/myquanttool/internal/domain/classify"
	"github.com/Stuuu223/myquanttool/internal/store"
)

// Fixture is a deterministic in-memory provider for offline scans and
// tests. It serves exactly what it was loaded with.
type Fixture struct {
	Technical map[string]*classify.TechnicalMetrics
	Flow      map[string]*classify.FlowMetrics
	Sentiment *classify.SentimentMetrics
	Auction   []store.AuctionRow
}

func (f *Fixture) FetchTechnical(ctx context.Context, tradeDate string, codes []string) (map[string]*classify.TechnicalMetrics, error) {
	out := make(map[string]*classify.TechnicalMetrics)
	for _, c := range codes {
		if m, ok := f.Technical[c]; ok {
			out[c] = m
		}
	}
	return out, nil
}

func (f *Fixture) FetchFlow(ctx context.Context, tradeDate string, codes []string) (map[string]*classify.FlowMetrics, error) {
	out := make(map[string]*classify.FlowMetrics)
	for _, c := range codes {
		if m, ok := f.Flow[c]; ok {
			out[c] = m
		}
	}
	return out, nil
}

func (f *Fixture) FetchSentiment(ctx context.Context, tradeDate string) (*classify.SentimentMetrics, error) {
	return f.Sentiment, nil
}

func (f *Fixture) FetchAuction(ctx context.Context, tradeDate string) ([]store.AuctionRow, error) {
	return f.Auction, nil
}
