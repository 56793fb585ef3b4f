// Package postgres implements the relational repositories (auction samples,
// backtest trades) over sqlx/lib/pq.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const schema = `
CREATE TABLE IF NOT EXISTS auction_snapshots (
	id             BIGSERIAL PRIMARY KEY,
	date           CHAR(8)       NOT NULL,
	auction_time   CHAR(8)       NOT NULL,
	code           VARCHAR(12)   NOT NULL,
	auction_price  NUMERIC(12,3) NOT NULL,
	auction_volume BIGINT        NOT NULL,
	auction_change NUMERIC(8,5)  NOT NULL,
	volume_ratio   NUMERIC(10,3) NOT NULL,
	created_at     TIMESTAMPTZ   NOT NULL DEFAULT now(),
	UNIQUE (date, auction_time, code)
);
CREATE INDEX IF NOT EXISTS idx_auction_date_code ON auction_snapshots (date, code, auction_time);

CREATE TABLE IF NOT EXISTS backtest_trades (
	id           BIGSERIAL PRIMARY KEY,
	code         VARCHAR(12)   NOT NULL,
	buy_date     CHAR(8)       NOT NULL,
	buy_price    NUMERIC(12,3) NOT NULL,
	buy_snapshot JSONB         NOT NULL,
	sell_records JSONB         NOT NULL,
	created_at   TIMESTAMPTZ   NOT NULL DEFAULT now(),
	UNIQUE (code, buy_date)
);
CREATE INDEX IF NOT EXISTS idx_trades_buy_date ON backtest_trades (buy_date);
`

// Connect opens and pings a postgres connection pool.
func Connect(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the auction and trades tables if missing.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
