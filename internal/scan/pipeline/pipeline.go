// Package pipeline orchestrates one market scan: fetch normalized metrics
// from the providers, classify every instrument, assemble the snapshot and
// write it through the store. The pipeline is the system's only writer.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Stuuu223/myquanttool/internal/domain/classify"
	"github.com/Stuuu223/myquanttool/internal/domain/snapshot"
	"github.com/Stuuu223/myquanttool/internal/metrics"
	"github.com/Stuuu223/myquanttool/internal/providers"
	"github.com/Stuuu223/myquanttool/internal/store"
)

// Scanner runs scans against a universe of instrument codes.
type Scanner struct {
	store      store.SnapshotStore
	market     providers.MarketDataProvider
	flow       providers.FlowProvider
	sentiment  providers.SentimentProvider
	commentary providers.CommentaryProvider
	classifier *classify.Classifier
	metrics    *metrics.Registry
	now        func() time.Time
}

// Options configures optional collaborators.
type Options struct {
	Commentary providers.CommentaryProvider
	Metrics    *metrics.Registry
	Now        func() time.Time
}

// NewScanner wires a scanner. Commentary and metrics are optional.
func NewScanner(st store.SnapshotStore, market providers.MarketDataProvider, flow providers.FlowProvider, sentiment providers.SentimentProvider, classifier *classify.Classifier, opts Options) *Scanner {
	s := &Scanner{
		store:      st,
		market:     market,
		flow:       flow,
		sentiment:  sentiment,
		commentary: opts.Commentary,
		classifier: classifier,
		metrics:    opts.Metrics,
		now:        opts.Now,
	}
	if s.commentary == nil {
		s.commentary = providers.NoCommentary{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Run executes one scan and returns the written snapshot. A validation or
// conflict failure from the store aborts the scan with nothing persisted.
func (s *Scanner) Run(ctx context.Context, tradeDate string, mode snapshot.Mode, universe []string) (*snapshot.MarketSnapshot, error) {
	scanID := uuid.NewString()
	started := s.now()
	logger := log.With().Str("scan_id", scanID).Str("trade_date", tradeDate).Str("mode", string(mode)).Logger()
	logger.Info().Int("universe", len(universe)).Msg("scan started")

	technical, techErr := s.market.FetchTechnical(ctx, tradeDate, universe)
	if techErr != nil {
		return nil, fmt.Errorf("fetch technical metrics: %w", techErr)
	}
	// Flow and sentiment failures degrade instead of aborting: classify
	// still runs and marks the affected records.
	flows, flowErr := s.flow.FetchFlow(ctx, tradeDate, universe)
	if flowErr != nil {
		logger.Warn().Err(flowErr).Msg("flow provider failed, classifying degraded")
		flows = map[string]*classify.FlowMetrics{}
	}
	sentiment, sentErr := s.sentiment.FetchSentiment(ctx, tradeDate)
	if sentErr != nil {
		logger.Warn().Err(sentErr).Msg("sentiment provider failed, classifying without it")
		sentiment = nil
	}

	snap := &snapshot.MarketSnapshot{
		SchemaVersion: snapshot.SchemaVersion,
		TradeDate:     tradeDate,
		ScanTime:      started.Format("2006-01-02 15:04:05"),
		Mode:          mode,
	}

	agg := newEvidenceAggregator(len(universe), flowErr != nil, sentErr != nil)
	for _, code := range universe {
		m := classify.Metrics{
			Code:      code,
			Technical: technical[code],
			Flow:      flows[code],
			Sentiment: sentiment,
		}
		outcome := s.classifier.Classify(m)
		agg.observe(m, outcome)

		rec := buildRecord(m, outcome)
		switch outcome.Pool {
		case snapshot.PoolOpportunity:
			snap.Results.Opportunities = append(snap.Results.Opportunities, rec)
		case snapshot.PoolBlacklist:
			snap.Results.Blacklist = append(snap.Results.Blacklist, rec)
		default:
			snap.Results.Watchlist = append(snap.Results.Watchlist, rec)
		}
		if s.metrics != nil {
			s.metrics.InstrumentsScanned.Inc()
			if outcome.DataQuality == snapshot.QualityDegraded {
				s.metrics.DegradedRecords.Inc()
			}
		}
	}

	sortPool(snap.Results.Opportunities)
	sortPool(snap.Results.Watchlist)
	sortPool(snap.Results.Blacklist)
	snap.Results.EvidenceMatrix = agg.matrix()
	snap.ComputeSummary()

	if text, err := s.commentary.Commentary(ctx, commentaryPrompt(snap)); err != nil {
		logger.Warn().Err(err).Msg("commentary provider failed, snapshot ships without prose")
	} else {
		snap.Commentary = text
	}

	if err := s.store.WriteSnapshot(ctx, snap); err != nil {
		if s.metrics != nil {
			s.metrics.SnapshotWrites.WithLabelValues("error").Inc()
			if store.IsConflict(err) {
				s.metrics.WriteConflicts.Inc()
			}
		}
		return nil, err
	}

	elapsed := s.now().Sub(started)
	if s.metrics != nil {
		s.metrics.SnapshotWrites.WithLabelValues("ok").Inc()
		s.metrics.ScanDuration.WithLabelValues(string(mode)).Observe(elapsed.Seconds())
		s.metrics.PoolSize.WithLabelValues(string(snapshot.PoolOpportunity)).Set(float64(snap.Summary.Opportunities))
		s.metrics.PoolSize.WithLabelValues(string(snapshot.PoolWatchlist)).Set(float64(snap.Summary.Watchlist))
		s.metrics.PoolSize.WithLabelValues(string(snapshot.PoolBlacklist)).Set(float64(snap.Summary.Blacklist))
	}

	logger.Info().
		Dur("elapsed", elapsed).
		Int("opportunities", snap.Summary.Opportunities).
		Int("watchlist", snap.Summary.Watchlist).
		Int("blacklist", snap.Summary.Blacklist).
		Msg("scan complete")
	return snap, nil
}

// buildRecord assembles the persisted record from the raw metrics and the
// classification outcome.
func buildRecord(m classify.Metrics, outcome classify.Outcome) snapshot.InstrumentRecord {
	rec := snapshot.InstrumentRecord{
		Code:          m.Code,
		Code6Digit:    code6(m.Code),
		Name:          m.Name,
		RiskScore:     outcome.RiskScore,
		AttackScore:   outcome.AttackScore,
		TrapSignals:   outcome.TrapSignals,
		CapitalType:   outcome.CapitalType,
		DataQuality:   outcome.DataQuality,
		MissingGroups: outcome.MissingGroups,
	}
	if t := m.Technical; t != nil {
		rec.Price = snapshot.PriceData{
			Close:      t.Close,
			PctChg:     t.PctChg,
			AmountYuan: t.AmountYuan,
			Open:       t.Open,
			High:       t.High,
			Low:        t.Low,
		}
	}
	if f := m.Flow; f != nil {
		rec.Flow = snapshot.FlowData{
			MainNetInflowYuan: f.MainNetInflowYuan,
			SuperLargeYuan:    f.SuperLargeYuan,
			LargeYuan:         f.LargeYuan,
			MediumYuan:        f.MediumYuan,
			SmallYuan:         f.SmallYuan,
		}
	}
	return rec
}

// sortPool orders a pool for ranking: safest first, attack score breaking
// ties, code last for determinism.
func sortPool(pool []snapshot.InstrumentRecord) {
	sort.SliceStable(pool, func(i, j int) bool {
		if pool[i].RiskScore != pool[j].RiskScore {
			return pool[i].RiskScore < pool[j].RiskScore
		}
		if pool[i].AttackScore != pool[j].AttackScore {
			return pool[i].AttackScore > pool[j].AttackScore
		}
		return pool[i].Code < pool[j].Code
	})
}

func code6(code string) string {
	for i := range code {
		if code[i] == '.' {
			return code[:i]
		}
	}
	return code
}

func commentaryPrompt(snap *snapshot.MarketSnapshot) string {
	return fmt.Sprintf(
		"Market scan for %s (%s): %d opportunities, %d on watch, %d blacklisted.",
		snap.TradeDate, snap.Mode,
		snap.Summary.Opportunities, snap.Summary.Watchlist, snap.Summary.Blacklist,
	)
}
