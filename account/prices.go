package account

import (
	"sync"

	"github.com/shopspring/decimal"
)

// PriceStore keeps the last traded price per symbol.
type PriceStore struct {
	mu     sync.RWMutex
	prices map[string]decimal.Decimal
}

func NewPriceStore() *PriceStore {
	return &PriceStore{prices: make(map[string]decimal.Decimal)}
}

func (ps *PriceStore) Set(symbol string, price decimal.Decimal) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.prices[symbol] = price
}

// SetAll stores every positive price in prices.
func (ps *PriceStore) SetAll(prices map[string]decimal.Decimal) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	for symbol, price := range prices {
		if price.IsPositive() {
			ps.prices[symbol] = price
		}
	}
}

func (ps *PriceStore) Get(symbol string) (decimal.Decimal, bool) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	p, ok := ps.prices[symbol]
	return p, ok
}
