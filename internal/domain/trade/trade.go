// Package trade models backtest output records. Invariants are enforced at
// construction: a sell record can never hold a negative holding-days value.
package trade

import (
	"github.com/Stuuu223/myquanttool/internal/domain/quant"
	"github.com/Stuuu223/myquanttool/internal/domain/snapshot"
)

// Trade is one backtested position: the buy-time instrument state plus the
// ordered sells that closed it out.
type Trade struct {
	Code        string                    `json:"code" db:"code"`
	BuyDate     string                    `json:"buy_date" db:"buy_date"` // YYYYMMDD
	BuyPrice    float64                   `json:"buy_price" db:"buy_price"`
	BuySnapshot snapshot.InstrumentRecord `json:"buy_snapshot"`
	SellRecords []SellRecord              `json:"sell_records"`
}

// SellRecord is one (possibly partial) exit.
type SellRecord struct {
	Date        string  `json:"date"`    // YYYYMMDD
	Price       float64 `json:"price"`   // yuan
	PnlPct      float64 `json:"pnl_pct"` // fraction
	HoldingDays int     `json:"holding_days"`
}

// New validates the buy side and returns an open trade.
func New(buyDate string, buy snapshot.InstrumentRecord, buyPrice float64) (*Trade, error) {
	if err := buy.Validate(); err != nil {
		return nil, err
	}
	if _, err := quant.TradingDaysBetween(buyDate, buyDate); err != nil {
		return nil, &snapshot.ValidationError{Reason: "trade buy_date: " + err.Error()}
	}
	if buyPrice <= 0 {
		return nil, &snapshot.ValidationError{Reason: "trade buy_price must be positive yuan"}
	}
	return &Trade{
		Code:        buy.Code,
		BuyDate:     buyDate,
		BuyPrice:    buyPrice,
		BuySnapshot: buy,
	}, nil
}

// AddSell appends an exit. Holding days are computed here, in trading days,
// and a sell date before the buy date fails immediately with a
// ValidationError rather than being stored as a negative.
func (t *Trade) AddSell(sellDate string, price float64) (SellRecord, error) {
	days, err := quant.TradingDaysBetween(t.BuyDate, sellDate)
	if err != nil {
		return SellRecord{}, &snapshot.ValidationError{Reason: "sell record: " + err.Error()}
	}
	if price <= 0 {
		return SellRecord{}, &snapshot.ValidationError{Reason: "sell price must be positive yuan"}
	}
	rec := SellRecord{
		Date:        sellDate,
		Price:       price,
		PnlPct:      (price - t.BuyPrice) / t.BuyPrice,
		HoldingDays: days,
	}
	t.SellRecords = append(t.SellRecords, rec)
	return rec, nil
}

// Closed reports whether the trade has at least one exit.
func (t *Trade) Closed() bool {
	return len(t.SellRecords) > 0
}
