package account

import (
	"sync"
	"testing"
	"time"

	"github.com/rustyeddy/papertrader/journal"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, d(want).Equal(got), "want %s got %s", want, got)
}

type testJournal struct {
	mu     sync.Mutex
	trades []journal.TradeRecord
	equity []journal.EquitySnapshot
	closed bool
}

func (j *testJournal) RecordTrade(rec journal.TradeRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.trades = append(j.trades, rec)
	return nil
}

func (j *testJournal) RecordEquity(rec journal.EquitySnapshot) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.equity = append(j.equity, rec)
	return nil
}

func (j *testJournal) Close() error {
	j.closed = true
	return nil
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(dur time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(dur)
}

type testListener struct {
	mu     sync.Mutex
	closed map[string]string
}

func (l *testListener) OnTradeClosed(positionID, reason string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed == nil {
		l.closed = make(map[string]string)
	}
	l.closed[positionID] = reason
}

func newAccount(t *testing.T, balance string) (*PaperAccount, *testJournal, *testClock) {
	t.Helper()
	j := &testJournal{}
	a := NewPaper(PaperConfig{
		ID:             "paper-1",
		QuoteAsset:     "USDT",
		InitialBalance: d(balance),
		Journal:        j,
	})
	clock := &testClock{now: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
	a.SetClock(clock.Now)
	return a, j, clock
}

func buy(t *testing.T, a *PaperAccount, symbol, qty, price string) Order {
	t.Helper()
	o := a.ExecuteOrder(MarketOrder(symbol, Buy, d(qty), d(price)))
	require.Equal(t, StatusFilled, o.Status, o.RejectReason)
	return o
}

func sell(t *testing.T, a *PaperAccount, symbol, qty, price string) Order {
	t.Helper()
	o := a.ExecuteOrder(MarketOrder(symbol, Sell, d(qty), d(price)))
	require.Equal(t, StatusFilled, o.Status, o.RejectReason)
	return o
}
