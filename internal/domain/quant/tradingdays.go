package quant

import (
	"fmt"
	"time"
)

const dateLayout = "20060102"

// TradingDaysBetween counts trading days (weekdays, exchange holidays not
// modeled) from buyDate to sellDate, both YYYYMMDD. A sell date earlier
// than its buy date is an error here, at the point of construction, not a
// negative number to be discovered by a later audit.
func TradingDaysBetween(buyDate, sellDate string) (int, error) {
	buy, err := time.Parse(dateLayout, buyDate)
	if err != nil {
		return 0, fmt.Errorf("buy date %q: %w", buyDate, err)
	}
	sell, err := time.Parse(dateLayout, sellDate)
	if err != nil {
		return 0, fmt.Errorf("sell date %q: %w", sellDate, err)
	}
	if sell.Before(buy) {
		return 0, fmt.Errorf("sell date %s precedes buy date %s", sellDate, buyDate)
	}

	days := 0
	for d := buy; d.Before(sell); d = d.AddDate(0, 0, 1) {
		switch d.Weekday() {
		case time.Saturday, time.Sunday:
		default:
			days++
		}
	}
	return days, nil
}
