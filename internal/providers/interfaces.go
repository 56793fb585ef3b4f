// Package providers holds the external-collaborator interfaces the scan
// pipeline consumes, plus vendor adapters. Wire formats stay inside the
// adapters; the core only ever sees the normalized metric shapes. Retry,
// rate limiting and circuit breaking live here, never in the core.
package providers

import (
	"context"

	"github.com/Stuuu223/myquanttool/internal/domain/classify"
	"github.com/Stuuu223/myquanttool/internal/store"
)

// MarketDataProvider returns per-instrument price action and pre-open
// auction samples for a trading date.
type MarketDataProvider interface {
	FetchTechnical(ctx context.Context, tradeDate string, codes []string) (map[string]*classify.TechnicalMetrics, error)
	FetchAuction(ctx context.Context, tradeDate string) ([]store.AuctionRow, error)
}

// FlowProvider returns per-instrument capital-flow metrics, yuan-denominated.
type FlowProvider interface {
	FetchFlow(ctx context.Context, tradeDate string, codes []string) (map[string]*classify.FlowMetrics, error)
}

// SentimentProvider returns market-wide sentiment evidence.
type SentimentProvider interface {
	FetchSentiment(ctx context.Context, tradeDate string) (*classify.SentimentMetrics, error)
}

// CommentaryProvider produces human-readable commentary for a finished
// scan. It is presentation only and plays no part in classification.
type CommentaryProvider interface {
	Commentary(ctx context.Context, prompt string) (string, error)
}
