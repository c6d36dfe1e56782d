package indicators

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

const atrPlaces = 8

// ATRFunc calculates the Average True Range of candles for the given period.
// Returns an error if there aren't enough candles for the period.
func ATRFunc(candles []Candle, period int) (decimal.Decimal, error) {
	if period <= 0 {
		return decimal.Zero, fmt.Errorf("period must be positive, got %d", period)
	}
	if len(candles) < period+1 {
		return decimal.Zero, fmt.Errorf("not enough candles: need %d, got %d", period+1, len(candles))
	}

	a := NewATR(period)
	for _, c := range candles {
		a.Update(c)
	}
	return a.Value(), nil
}

// ATR is a streaming Average True Range using Wilder's smoothing.
type ATR struct {
	period      int
	atr         decimal.Decimal
	count       int
	warmupSum   decimal.Decimal
	prevClose   decimal.Decimal
	hasPrevious bool
}

var _ Indicator = (*ATR)(nil)

func NewATR(period int) *ATR {
	return &ATR{period: period}
}

func (a *ATR) Name() string {
	return fmt.Sprintf("ATR(%d)", a.period)
}

// Warmup is period+1: the first candle only seeds the previous close.
func (a *ATR) Warmup() int {
	return a.period + 1
}

func (a *ATR) Reset() {
	*a = ATR{period: a.period}
}

func (a *ATR) Update(c Candle) {
	if !a.hasPrevious {
		a.prevClose = c.Close
		a.hasPrevious = true
		return
	}

	tr := trueRange(c, a.prevClose)
	n := decimal.NewFromInt(int64(a.period))

	if a.count < a.period {
		a.warmupSum = a.warmupSum.Add(tr)
		a.count++
		if a.count == a.period {
			a.atr = a.warmupSum.Div(n)
		}
	} else {
		a.atr = a.atr.Mul(n.Sub(decimal.NewFromInt(1))).Add(tr).Div(n)
	}
	a.prevClose = c.Close
}

func (a *ATR) Ready() bool {
	return a.period > 0 && a.count >= a.period
}

func (a *ATR) Value() decimal.Decimal {
	if !a.Ready() {
		return decimal.Zero
	}
	return a.atr.Round(atrPlaces)
}

func trueRange(c Candle, prevClose decimal.Decimal) decimal.Decimal {
	highLow := c.High.Sub(c.Low)
	highClose := c.High.Sub(prevClose).Abs()
	lowClose := c.Low.Sub(prevClose).Abs()
	return decimal.Max(highLow, highClose, lowClose)
}

// Tracker keeps one ATR per symbol, fed from price snapshots.
type Tracker struct {
	mu     sync.Mutex
	period int
	atrs   map[string]*ATR
}

func NewTracker(period int) *Tracker {
	return &Tracker{period: period, atrs: make(map[string]*ATR)}
}

// Update feeds each price as a tick and returns the ATR of every symbol in
// prices that has warmed up.
func (t *Tracker) Update(prices map[string]decimal.Decimal) map[string]decimal.Decimal {
	t.mu.Lock()
	defer t.mu.Unlock()

	ready := make(map[string]decimal.Decimal)
	for symbol, price := range prices {
		a, ok := t.atrs[symbol]
		if !ok {
			a = NewATR(t.period)
			t.atrs[symbol] = a
		}
		a.Update(Tick(price))
		if a.Ready() {
			ready[symbol] = a.Value()
		}
	}
	return ready
}

// Value returns the current ATR of symbol, zero until it has warmed up.
func (t *Tracker) Value(symbol string) decimal.Decimal {
	t.mu.Lock()
	defer t.mu.Unlock()
	if a, ok := t.atrs[symbol]; ok {
		return a.Value()
	}
	return decimal.Zero
}
