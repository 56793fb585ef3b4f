package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Stuuu223/myquanttool/internal/domain/snapshot"
	"github.com/Stuuu223/myquanttool/internal/store"
)

// auctionRepo implements store.AuctionRepo for PostgreSQL.
type auctionRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewAuctionRepo creates a PostgreSQL auction repository.
func NewAuctionRepo(db *sqlx.DB, timeout time.Duration) store.AuctionRepo {
	return &auctionRepo{db: db, timeout: timeout}
}

// InsertBatch appends auction rows atomically. Fraction-range validation
// happens here, before anything touches the database: a percent value in
// auction_change fails the whole batch.
func (r *auctionRepo) InsertBatch(ctx context.Context, rows []store.AuctionRow) error {
	if len(rows) == 0 {
		return nil
	}
	for _, row := range rows {
		if !snapshot.ValidFraction(row.AuctionChange) {
			return &snapshot.ValidationError{
				Reason: fmt.Sprintf("%s@%s: auction_change %.4f outside fractional range, looks like a percent",
					row.Code, row.AuctionTime, row.AuctionChange),
			}
		}
		if row.AuctionVolume < 0 {
			return &snapshot.ValidationError{
				Reason: fmt.Sprintf("%s@%s: negative auction_volume %d", row.Code, row.AuctionTime, row.AuctionVolume),
			}
		}
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO auction_snapshots (date, auction_time, code, auction_price, auction_volume, auction_change, volume_ratio)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx,
			row.Date, row.AuctionTime, row.Code,
			row.AuctionPrice, row.AuctionVolume, row.AuctionChange, row.VolumeRatio); err != nil {
			if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
				return &store.ConflictError{Key: fmt.Sprintf("%s_%s_%s", row.Date, row.AuctionTime, row.Code)}
			}
			return fmt.Errorf("failed to insert auction row: %w", err)
		}
	}
	return tx.Commit()
}

// Query returns a date's rows ordered by auction_time.
func (r *auctionRepo) Query(ctx context.Context, date, code string) ([]store.AuctionRow, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT date, auction_time, code, auction_price, auction_volume, auction_change, volume_ratio
		FROM auction_snapshots
		WHERE date = $1`
	args := []interface{}{date}
	if code != "" {
		query += ` AND code = $2`
		args = append(args, code)
	}
	query += ` ORDER BY auction_time, code`

	var rows []store.AuctionRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query auction rows: %w", err)
	}
	return rows, nil
}
