package snapshot

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidationError reports a malformed or internally inconsistent record.
// Writes that trip it are fatal and must not partially persist.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "snapshot validation: " + e.Reason
}

func validationErrorf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// MaxAbsFraction bounds pct_chg and auction_change values. A-share daily
// moves cap at ±20% (ChiNext/STAR); anything beyond ±0.25 means a percent
// value leaked in where a fraction belongs.
const MaxAbsFraction = 0.25

var (
	tradeDateRe = regexp.MustCompile(`^\d{8}$`)
	scanTimeRe  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}$`)
)

// Validate checks every snapshot invariant: well-formed identity fields,
// summary counts matching pool lengths, no code in more than one pool, and
// per-record consistency.
func (s *MarketSnapshot) Validate() error {
	if !tradeDateRe.MatchString(s.TradeDate) {
		return validationErrorf("trade_date %q is not YYYYMMDD", s.TradeDate)
	}
	switch s.Mode {
	case ModePremarket, ModeIntraday, ModeRebuild:
	default:
		return validationErrorf("unknown mode %q", s.Mode)
	}
	if s.ScanTime != "" && !scanTimeRe.MatchString(s.ScanTime) {
		return validationErrorf("scan_time %q is not YYYY-MM-DD HH:MM:SS", s.ScanTime)
	}

	if got, want := len(s.Results.Opportunities), s.Summary.Opportunities; got != want {
		return validationErrorf("summary.opportunities=%d but pool holds %d", want, got)
	}
	if got, want := len(s.Results.Watchlist), s.Summary.Watchlist; got != want {
		return validationErrorf("summary.watchlist=%d but pool holds %d", want, got)
	}
	if got, want := len(s.Results.Blacklist), s.Summary.Blacklist; got != want {
		return validationErrorf("summary.blacklist=%d but pool holds %d", want, got)
	}

	seen := make(map[string]Pool)
	for pool, records := range s.Results.Pools() {
		for i := range records {
			rec := &records[i]
			if err := rec.Validate(); err != nil {
				return err
			}
			if prev, dup := seen[rec.Code]; dup {
				return validationErrorf("code %s appears in both %s and %s pools", rec.Code, prev, pool)
			}
			seen[rec.Code] = pool
		}
	}
	return nil
}

// Validate checks a single instrument record's internal consistency.
func (r *InstrumentRecord) Validate() error {
	if r.Code == "" {
		return validationErrorf("instrument record with empty code")
	}
	if r.Code6Digit == "" {
		return validationErrorf("%s: empty code_6digit", r.Code)
	}
	if derived := strings.SplitN(r.Code, ".", 2)[0]; derived != r.Code6Digit {
		return validationErrorf("%s: code_6digit %q does not derive from code", r.Code, r.Code6Digit)
	}
	if pc := r.Price.PctChg; pc < -MaxAbsFraction || pc > MaxAbsFraction {
		return validationErrorf("%s: pct_chg %.4f outside fractional range, looks like a percent", r.Code, pc)
	}
	if r.Price.AmountYuan < 0 {
		return validationErrorf("%s: negative amount %.2f", r.Code, r.Price.AmountYuan)
	}
	if r.DataQuality != "" && r.DataQuality != QualityOK && r.DataQuality != QualityDegraded {
		return validationErrorf("%s: unknown data_quality %q", r.Code, r.DataQuality)
	}
	return nil
}

// ValidFraction reports whether v is inside the sane fractional range for a
// daily change. Store backends use it to reject percent-vs-fraction mixups
// in relational rows too.
func ValidFraction(v float64) bool {
	return v >= -MaxAbsFraction && v <= MaxAbsFraction
}
