package journal

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeRecord is one fill. A SELL that closes several positions is still one
// record; RealizedPL is the sum across them.
type TradeRecord struct {
	TradeID    string
	OrderID    string
	Symbol     string
	Side       string
	Quantity   decimal.Decimal
	Price      decimal.Decimal
	Value      decimal.Decimal
	RealizedPL decimal.Decimal
	StrategyID string
	Time       time.Time
	Reason     string
}

type EquitySnapshot struct {
	Time          time.Time
	Balance       decimal.Decimal
	Equity        decimal.Decimal
	RealizedPnL   decimal.Decimal
	UnrealizedPnL decimal.Decimal
	OpenPositions int
}

type Journal interface {
	RecordTrade(TradeRecord) error
	RecordEquity(EquitySnapshot) error
	Close() error
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordTrade(TradeRecord) error     { return nil }
func (Nop) RecordEquity(EquitySnapshot) error { return nil }
func (Nop) Close() error                      { return nil }
