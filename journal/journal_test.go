package journal

import (
	"time"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var ts = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

func sampleTrade(id string, at time.Time) TradeRecord {
	return TradeRecord{
		TradeID:    id,
		OrderID:    "O-" + id,
		Symbol:     "BTCUSDT",
		Side:       "SELL",
		Quantity:   d("0.12345678"),
		Price:      d("50123.45"),
		Value:      d("6188.0676"),
		RealizedPL: d("-12.5"),
		StrategyID: "ema-cross",
		Time:       at,
		Reason:     "take profit",
	}
}

var _ Journal = Nop{}
var _ Journal = (*CSVJournal)(nil)
var _ Journal = (*SQLiteJournal)(nil)
