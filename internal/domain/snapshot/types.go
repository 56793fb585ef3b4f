// Package snapshot defines the point-in-time market scan record that every
// downstream tool (analysis, backtest, dashboards) consumes. Snapshots are
// immutable once written; the scanning process is the sole writer.
package snapshot

import (
	"fmt"
	"strings"
)

// SchemaVersion is the current snapshot document version. Documents without
// a schema_version field are treated as legacy v1 and migrated at read time.
const SchemaVersion = 2

// Mode identifies the scan context a snapshot was produced in.
type Mode string

const (
	ModePremarket Mode = "premarket"
	ModeIntraday  Mode = "intraday"
	ModeRebuild   Mode = "rebuild"
)

// Pool names the three mutually exclusive classification pools.
type Pool string

const (
	PoolOpportunity Pool = "opportunity"
	PoolWatchlist   Pool = "watchlist"
	PoolBlacklist   Pool = "blacklist"
)

// DataQuality markers attached to an InstrumentRecord.
const (
	QualityOK       = "ok"
	QualityDegraded = "degraded"
)

// MarketSnapshot is one scan event: a summary, an evidence matrix and three
// ordered pools of instrument records.
type MarketSnapshot struct {
	SchemaVersion int     `json:"schema_version"`
	TradeDate     string  `json:"trade_date"`          // YYYYMMDD
	ScanTime      string  `json:"scan_time,omitempty"` // "YYYY-MM-DD HH:MM:SS", absent on some historical snapshots
	Mode          Mode    `json:"mode"`
	Summary       Summary `json:"summary"`
	Results       Results `json:"results"`
	Commentary    string  `json:"commentary,omitempty"`
}

// Summary holds pool counts. Each count must equal the length of the
// corresponding pool sequence.
type Summary struct {
	Opportunities int `json:"opportunities"`
	Watchlist     int `json:"watchlist"`
	Blacklist     int `json:"blacklist"`
}

// Results groups the evidence matrix with the three pools.
type Results struct {
	EvidenceMatrix EvidenceMatrix     `json:"evidence_matrix"`
	Opportunities  []InstrumentRecord `json:"opportunities"`
	Watchlist      []InstrumentRecord `json:"watchlist"`
	Blacklist      []InstrumentRecord `json:"blacklist"`
}

// EvidenceMatrix aggregates per-signal-category quality. Each cell is
// computed independently by the scan pipeline and merely collected here.
type EvidenceMatrix struct {
	Technical       EvidenceCell `json:"technical"`
	FundFlow        EvidenceCell `json:"fund_flow"`
	MarketSentiment EvidenceCell `json:"market_sentiment"`
}

// EvidenceCell is one category's quality/error-rate/score triplet.
type EvidenceCell struct {
	Quality   float64 `json:"quality"`    // coverage fraction [0,1]
	ErrorRate float64 `json:"error_rate"` // fetch/parse error fraction [0,1]
	Score     float64 `json:"score"`      // mean category sub-score [0,100]
}

// InstrumentRecord is one instrument's classified state within a snapshot.
type InstrumentRecord struct {
	Code       string `json:"code"`        // exchange-qualified, e.g. "603607.SH"
	Code6Digit string `json:"code_6digit"` // bare numeric form, e.g. "603607"
	Name       string `json:"name,omitempty"`

	Price PriceData `json:"price_data"`
	Flow  FlowData  `json:"flow_data"`

	// RiskScore convention is fixed once, here: lower = safer / more
	// attractive. The opportunity pool is the low band.
	RiskScore   float64  `json:"risk_score"`
	AttackScore float64  `json:"attack_score"`
	TrapSignals []string `json:"trap_signals,omitempty"`
	CapitalType string   `json:"capital_type,omitempty"`

	// Scenario tags ship only in schema v2+ documents.
	ScenarioType       string   `json:"scenario_type,omitempty"`
	ScenarioConfidence float64  `json:"scenario_confidence,omitempty"`
	ScenarioReasons    []string `json:"scenario_reasons,omitempty"`

	DataQuality   string   `json:"data_quality,omitempty"`
	MissingGroups []string `json:"missing_groups,omitempty"`
}

// PriceData carries session price action. AmountYuan is denominated in yuan,
// never thousand-yuan; PctChg is a fraction, never a percent.
type PriceData struct {
	Close      float64 `json:"close"`
	PctChg     float64 `json:"pct_chg"`
	AmountYuan float64 `json:"amount"`
	Open       float64 `json:"open"`
	High       float64 `json:"high"`
	Low        float64 `json:"low"`
}

// FlowData carries capital-flow metrics, all denominated in yuan. The
// order-size buckets are zero when the flow provider does not decompose.
type FlowData struct {
	MainNetInflowYuan float64 `json:"main_net_inflow"`
	SuperLargeYuan    float64 `json:"super_large,omitempty"`
	LargeYuan         float64 `json:"large,omitempty"`
	MediumYuan        float64 `json:"medium,omitempty"`
	SmallYuan         float64 `json:"small,omitempty"`
}

// Key identifies a snapshot for storage: one scan writes one key exactly once.
type Key struct {
	TradeDate string `json:"trade_date"`
	ScanTime  string `json:"scan_time"` // compact HHMMSS, "000000" when absent
	Mode      Mode   `json:"mode"`
}

// Key derives the storage key. Historical snapshots without a scan_time
// normalize to "000000" so a date's snapshots still sort deterministically.
func (s *MarketSnapshot) Key() Key {
	return Key{
		TradeDate: s.TradeDate,
		ScanTime:  compactScanTime(s.ScanTime),
		Mode:      s.Mode,
	}
}

// String renders the key in its on-disk form, e.g. "20260115_093000_premarket".
func (k Key) String() string {
	return fmt.Sprintf("%s_%s_%s", k.TradeDate, k.ScanTime, k.Mode)
}

// ParseKey parses the on-disk key form back into its parts.
func ParseKey(s string) (Key, error) {
	parts := strings.SplitN(s, "_", 3)
	if len(parts) != 3 || len(parts[0]) != 8 || len(parts[1]) != 6 {
		return Key{}, fmt.Errorf("malformed snapshot key %q", s)
	}
	return Key{TradeDate: parts[0], ScanTime: parts[1], Mode: Mode(parts[2])}, nil
}

// compactScanTime reduces "YYYY-MM-DD HH:MM:SS" to "HHMMSS". Absent or
// unparseable scan times collapse to "000000".
func compactScanTime(scanTime string) string {
	if len(scanTime) != 19 {
		return "000000"
	}
	hhmmss := strings.ReplaceAll(scanTime[11:], ":", "")
	if len(hhmmss) != 6 {
		return "000000"
	}
	return hhmmss
}

// Pools returns the three pools in canonical order with their names.
func (r *Results) Pools() map[Pool][]InstrumentRecord {
	return map[Pool][]InstrumentRecord{
		PoolOpportunity: r.Opportunities,
		PoolWatchlist:   r.Watchlist,
		PoolBlacklist:   r.Blacklist,
	}
}

// ComputeSummary recounts the pools. Writers call this before persisting so
// the summary can never drift from the pool sequences.
func (s *MarketSnapshot) ComputeSummary() {
	s.Summary = Summary{
		Opportunities: len(s.Results.Opportunities),
		Watchlist:     len(s.Results.Watchlist),
		Blacklist:     len(s.Results.Blacklist),
	}
}
