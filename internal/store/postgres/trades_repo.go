package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Stuuu223/myquanttool/internal/domain/snapshot"
	"github.com/Stuuu223/myquanttool/internal/domain/trade"
	"github.com/Stuuu223/myquanttool/internal/store"
)

// tradesRepo implements store.TradesRepo for PostgreSQL.
type tradesRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewTradesRepo creates a PostgreSQL backtest trades repository.
func NewTradesRepo(db *sqlx.DB, timeout time.Duration) store.TradesRepo {
	return &tradesRepo{db: db, timeout: timeout}
}

// Insert adds a backtest trade. The holding-days invariant is re-checked at
// the persistence boundary; a negative value can never reach a row.
func (r *tradesRepo) Insert(ctx context.Context, t *trade.Trade) error {
	for _, sell := range t.SellRecords {
		if sell.HoldingDays < 0 {
			return &snapshot.ValidationError{
				Reason: fmt.Sprintf("%s: sell %s holds negative holding_days %d", t.Code, sell.Date, sell.HoldingDays),
			}
		}
	}

	buyJSON, err := json.Marshal(t.BuySnapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal buy snapshot: %w", err)
	}
	sellJSON, err := json.Marshal(t.SellRecords)
	if err != nil {
		return fmt.Errorf("failed to marshal sell records: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO backtest_trades (code, buy_date, buy_price, buy_snapshot, sell_records)
		VALUES ($1, $2, $3, $4, $5)`

	if _, err := r.db.ExecContext(ctx, query, t.Code, t.BuyDate, t.BuyPrice, buyJSON, sellJSON); err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return &store.ConflictError{Key: fmt.Sprintf("%s_%s", t.Code, t.BuyDate)}
		}
		return fmt.Errorf("failed to insert trade: %w", err)
	}
	return nil
}

// ListByCode retrieves trades for one instrument, newest first.
func (r *tradesRepo) ListByCode(ctx context.Context, code string, limit int) ([]trade.Trade, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT code, buy_date, buy_price, buy_snapshot, sell_records
		FROM backtest_trades
		WHERE code = $1
		ORDER BY buy_date DESC
		LIMIT $2`

	rows, err := r.db.QueryxContext(ctx, query, code, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades by code: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// ListRange retrieves trades bought within the date range, oldest first.
func (r *tradesRepo) ListRange(ctx context.Context, dr store.DateRange) ([]trade.Trade, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT code, buy_date, buy_price, buy_snapshot, sell_records
		FROM backtest_trades
		WHERE buy_date >= $1 AND buy_date <= $2
		ORDER BY buy_date, code`

	rows, err := r.db.QueryxContext(ctx, query, dr.From, dr.To)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades by range: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

func scanTrades(rows *sqlx.Rows) ([]trade.Trade, error) {
	var trades []trade.Trade
	for rows.Next() {
		var t trade.Trade
		var buyJSON, sellJSON []byte
		if err := rows.Scan(&t.Code, &t.BuyDate, &t.BuyPrice, &buyJSON, &sellJSON); err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		if err := json.Unmarshal(buyJSON, &t.BuySnapshot); err != nil {
			return nil, fmt.Errorf("failed to unmarshal buy snapshot: %w", err)
		}
		if err := json.Unmarshal(sellJSON, &t.SellRecords); err != nil {
			return nil, fmt.Errorf("failed to unmarshal sell records: %w", err)
		}
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return trades, nil
}
