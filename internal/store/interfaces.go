// Package store defines the persistence contracts of the snapshot core and
// the error taxonomy shared by their backends. The scanning process is the
// sole writer; every other consumer is read-only over immutable records.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/Stuuu223/myquanttool/internal/domain/snapshot"
	"github.com/Stuuu223/myquanttool/internal/domain/trade"
)

// ConflictError reports a write to an already-written snapshot key outside
// rebuild mode. Keys are write-once.
type ConflictError struct {
	Key string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("snapshot key %s already written", e.Key)
}

// NotFoundError reports a read of a nonexistent snapshot or date.
type NotFoundError struct {
	Key string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no snapshot for %s", e.Key)
}

// IsConflict reports whether err wraps a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// IsNotFound reports whether err wraps a NotFoundError.
func IsNotFound(err error) bool {
	var ne *NotFoundError
	return errors.As(err, &ne)
}

// IsValidation reports whether err wraps a snapshot ValidationError.
func IsValidation(err error) bool {
	var ve *snapshot.ValidationError
	return errors.As(err, &ve)
}

// DateRange bounds a snapshot listing, both ends inclusive, YYYYMMDD.
type DateRange struct {
	From string
	To   string
}

// SnapshotStore persists MarketSnapshot documents append-only.
type SnapshotStore interface {
	// WriteSnapshot validates and durably persists snap under its key.
	// It fails with a ValidationError on inconsistent records, and with a
	// ConflictError when the key exists and snap.Mode != rebuild. Rebuild
	// writes supersede the prior record for reads without deleting it.
	WriteSnapshot(ctx context.Context, snap *snapshot.MarketSnapshot) error

	// ReadSnapshot returns the snapshot for the date. Empty scanTime
	// selects the date's latest; empty mode matches any mode. Fails with
	// NotFoundError when nothing matches.
	ReadSnapshot(ctx context.Context, tradeDate, scanTime string, mode snapshot.Mode) (*snapshot.MarketSnapshot, error)

	// ListSnapshots returns the keys in the range ordered by trade_date
	// then scan_time. The result is a finite slice and re-iterable.
	ListSnapshots(ctx context.Context, dr DateRange) ([]snapshot.Key, error)
}

// AuctionRow is one pre-open auction sample for one instrument.
// AuctionChange is a fraction, never a percent.
type AuctionRow struct {
	Date          string  `json:"date" db:"date"`                   // YYYYMMDD
	AuctionTime   string  `json:"auction_time" db:"auction_time"`   // HH:MM:SS
	Code          string  `json:"code" db:"code"`
	AuctionPrice  float64 `json:"auction_price" db:"auction_price"` // yuan
	AuctionVolume int64   `json:"auction_volume" db:"auction_volume"`
	AuctionChange float64 `json:"auction_change" db:"auction_change"`
	VolumeRatio   float64 `json:"volume_ratio" db:"volume_ratio"`
}

// AuctionRepo persists auction samples, one row per instrument per sample.
type AuctionRepo interface {
	// InsertBatch appends rows atomically, validating fraction ranges.
	InsertBatch(ctx context.Context, rows []AuctionRow) error

	// Query returns a date's rows ordered by auction_time; a non-empty
	// code filters to one instrument.
	Query(ctx context.Context, date, code string) ([]AuctionRow, error)
}

// TradesRepo persists backtest trade output.
type TradesRepo interface {
	Insert(ctx context.Context, t *trade.Trade) error
	ListByCode(ctx context.Context, code string, limit int) ([]trade.Trade, error)
	ListRange(ctx context.Context, dr DateRange) ([]trade.Trade, error)
}
