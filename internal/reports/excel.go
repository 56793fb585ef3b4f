// Package reports renders snapshots and backtest output into spreadsheets
// for human review.
package reports

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/Stuuu223/myquanttool/internal/domain/quant"
	"github.com/Stuuu223/myquanttool/internal/domain/snapshot"
	"github.com/Stuuu223/myquanttool/internal/domain/trade"
)

// TradesWorkbook builds a workbook with one row per sell record.
func TradesWorkbook(trades []trade.Trade) (*excelize.File, error) {
	f := excelize.NewFile()
	const sheet = "Trades"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Code", "Buy Date", "Buy Price", "Sell Date", "Sell Price", "PnL %", "Holding Days", "Risk Score At Buy"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}

	row := 2
	for _, t := range trades {
		for _, sell := range t.SellRecords {
			values := []interface{}{
				t.Code, t.BuyDate, t.BuyPrice,
				sell.Date, sell.Price, sell.PnlPct * 100, sell.HoldingDays,
				t.BuySnapshot.RiskScore,
			}
			for col, v := range values {
				cell, _ := excelize.CoordinatesToCellName(col+1, row)
				if err := f.SetCellValue(sheet, cell, v); err != nil {
					return nil, fmt.Errorf("write trade row: %w", err)
				}
			}
			row++
		}
	}
	return f, nil
}

// PoolWorkbook builds a workbook listing one snapshot pool, ranked as the
// snapshot orders it.
func PoolWorkbook(snap *snapshot.MarketSnapshot, pool snapshot.Pool) (*excelize.File, error) {
	records, ok := snap.Results.Pools()[pool]
	if !ok {
		return nil, fmt.Errorf("unknown pool %q", pool)
	}

	f := excelize.NewFile()
	sheet := string(pool)
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Code", "Name", "Close", "Pct Chg %", "Main Inflow (wan)", "Flow Ratio", "Risk Score", "Attack Score", "Capital", "Traps", "Data Quality"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}

	for i, rec := range records {
		flowRatio := 0.0
		if rec.Price.AmountYuan > 0 {
			flowRatio, _ = quant.FlowRatio(rec.Flow.MainNetInflowYuan, rec.Price.AmountYuan)
		}
		values := []interface{}{
			rec.Code, rec.Name, rec.Price.Close, rec.Price.PctChg * 100,
			rec.Flow.MainNetInflowYuan / 1e4, flowRatio,
			rec.RiskScore, rec.AttackScore, rec.CapitalType,
			joinTraps(rec.TrapSignals), rec.DataQuality,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, fmt.Errorf("write pool row: %w", err)
			}
		}
	}
	return f, nil
}

func joinTraps(traps []string) string {
	out := ""
	for i, t := range traps {
		if i > 0 {
			out += ", "
		}
		out += t
	}
	return out
}
