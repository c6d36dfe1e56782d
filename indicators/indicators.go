// Package indicators provides streaming volatility measures for risk levels.
package indicators

import "github.com/shopspring/decimal"

// Candle is one OHLC bar. A single price tick is a candle with all four
// fields equal.
type Candle struct {
	Open  decimal.Decimal
	High  decimal.Decimal
	Low   decimal.Decimal
	Close decimal.Decimal
}

// Tick turns a last-trade price into a flat candle.
func Tick(price decimal.Decimal) Candle {
	return Candle{Open: price, High: price, Low: price, Close: price}
}

// Indicator computes a single streaming value from candles.
type Indicator interface {
	// Name returns a stable identifier like "ATR(14)".
	Name() string

	// Warmup returns how many updates are needed before Ready() can be true.
	Warmup() int

	Update(c Candle)
	Ready() bool
	Value() decimal.Decimal
	Reset()
}
