package position

import (
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager() *Manager {
	m := NewManager()
	now := t0
	m.SetClock(func() time.Time {
		now = now.Add(time.Second)
		return now
	})
	return m
}

func TestManagerOpenAndCloseMovesToHistory(t *testing.T) {
	t.Parallel()

	m := newManager()
	p, err := m.OpenPosition("BTCUSDT", Long, d("50000"), d("1"))
	require.NoError(t, err)
	assert.Len(t, m.OpenPositions(), 1)
	assert.Empty(t, m.PositionHistory())

	pnl, err := m.ClosePosition(p.ID(), d("49000"), d("0.5"))
	require.NoError(t, err)
	assertDec(t, "-500", pnl)
	assert.Len(t, m.OpenPositions(), 1)

	_, err = m.ClosePosition(p.ID(), d("52000"), d("0.5"))
	require.NoError(t, err)
	assert.Empty(t, m.OpenPositions())
	assert.Empty(t, m.OpenPositionsBySymbol("BTCUSDT"))

	hist := m.PositionHistory()
	require.Len(t, hist, 1)
	assert.Equal(t, p.ID(), hist[0].ID)
	assertDec(t, "500", hist[0].RealizedPnL)
	assert.False(t, hist[0].ExitTime.IsZero())

	snap, ok := m.Get(p.ID())
	require.True(t, ok)
	assert.False(t, snap.IsOpen)
	assert.Len(t, m.AllPositions(), 1)
}

func TestManagerOpenRejectsInvalid(t *testing.T) {
	t.Parallel()

	m := newManager()
	_, err := m.OpenPosition("BTCUSDT", Long, d("0"), d("1"))
	assert.ErrorIs(t, err, ErrInvalidPosition)
	assert.Empty(t, m.AllPositions())
}

func TestManagerCloseErrors(t *testing.T) {
	t.Parallel()

	m := newManager()
	_, err := m.ClosePosition("missing", d("1"), d("1"))
	assert.ErrorIs(t, err, ErrPositionNotFound)

	p, err := m.OpenPosition("ETHUSDT", Short, d("2000"), d("1"))
	require.NoError(t, err)

	_, err = m.ClosePosition(p.ID(), d("1900"), d("1.5"))
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = m.ClosePosition(p.ID(), d("1900"), d("1"))
	require.NoError(t, err)

	_, err = m.ClosePosition(p.ID(), d("1900"), d("1"))
	assert.ErrorIs(t, err, ErrPositionClosed)
	assert.Len(t, m.PositionHistory(), 1)
}

func TestManagerOpenPositionsBySymbolIsFIFO(t *testing.T) {
	t.Parallel()

	m := newManager()
	var ids []string
	for _, price := range []string{"100", "101", "102"} {
		p, err := m.OpenPosition("SOLUSDT", Long, d(price), d("1"))
		require.NoError(t, err)
		ids = append(ids, p.ID())
	}
	_, err := m.OpenPosition("ETHUSDT", Long, d("2000"), d("1"))
	require.NoError(t, err)

	got := m.OpenPositionsBySymbol("SOLUSDT")
	require.Len(t, got, 3)
	for i := range ids {
		assert.Equal(t, ids[i], got[i].ID)
	}
	assert.True(t, got[0].EntryTime.Before(got[1].EntryTime))

	_, err = m.ClosePosition(ids[1], d("105"), d("1"))
	require.NoError(t, err)

	got = m.OpenPositionsBySymbol("SOLUSDT")
	require.Len(t, got, 2)
	assert.Equal(t, ids[0], got[0].ID)
	assert.Equal(t, ids[2], got[1].ID)
	assert.Len(t, m.OpenPositions(), 3)
	assert.Empty(t, m.OpenPositionsBySymbol("DOGEUSDT"))
}

func TestManagerSnapshotsAreCopies(t *testing.T) {
	t.Parallel()

	m := newManager()
	p, err := m.OpenPosition("BTCUSDT", Long, d("100"), d("1"))
	require.NoError(t, err)

	snap := m.OpenPositions()[0]
	snap.Quantity = d("999")

	again, ok := m.Get(p.ID())
	require.True(t, ok)
	assertDec(t, "1", again.Quantity)

	_, ok = m.Get("missing")
	assert.False(t, ok)
}

func TestManagerSummary(t *testing.T) {
	t.Parallel()

	m := newManager()
	win, err := m.OpenPosition("BTCUSDT", Long, d("100"), d("1"))
	require.NoError(t, err)
	loss, err := m.OpenPosition("ETHUSDT", Short, d("100"), d("2"))
	require.NoError(t, err)
	flat, err := m.OpenPosition("SOLUSDT", Long, d("10"), d("1"))
	require.NoError(t, err)
	_, err = m.OpenPosition("BTCUSDT", Long, d("100"), d("3"))
	require.NoError(t, err)

	_, err = m.ClosePosition(win.ID(), d("110"), d("1"))
	require.NoError(t, err)
	_, err = m.ClosePosition(loss.ID(), d("105"), d("2"))
	require.NoError(t, err)
	_, err = m.ClosePosition(flat.ID(), d("10"), d("1"))
	require.NoError(t, err)

	m.UpdatePrices(map[string]decimal.Decimal{"BTCUSDT": d("102")})

	s := m.Summary()
	assert.Equal(t, 1, s.OpenPositions)
	assert.Equal(t, 3, s.ClosedPositions)
	assert.Equal(t, 1, s.WinningPositions)
	assert.Equal(t, 1, s.LosingPositions)
	assertDec(t, "0", s.TotalRealizedPnL)
	assertDec(t, "6", s.TotalUnrealizedPnL)
	assertDec(t, "6", s.TotalPnL)
}

func TestManagerUpdatePricesOnlyTouchesQuotedSymbols(t *testing.T) {
	t.Parallel()

	m := newManager()
	btc, err := m.OpenPosition("BTCUSDT", Long, d("100"), d("1"))
	require.NoError(t, err)
	eth, err := m.OpenPosition("ETHUSDT", Long, d("100"), d("1"))
	require.NoError(t, err)

	triggers := m.UpdatePrices(map[string]decimal.Decimal{
		"BTCUSDT":  d("120"),
		"DOGEUSDT": d("1"),
	})
	assert.Empty(t, triggers)
	assertDec(t, "20", btc.UnrealizedPnL())
	assert.True(t, eth.UnrealizedPnL().IsZero())

	assert.Empty(t, m.UpdatePrices(nil))
}

func TestManagerUpdatePricesReportsTriggers(t *testing.T) {
	t.Parallel()

	m := newManager()
	stopped, err := m.OpenPosition("BTCUSDT", Long, d("50000"), d("1"))
	require.NoError(t, err)
	require.NoError(t, stopped.SetStopLoss(StopLoss{Price: d("49000")}))

	target, err := m.OpenPosition("BTCUSDT", Short, d("51000"), d("1"))
	require.NoError(t, err)
	require.NoError(t, target.SetTakeProfit(TakeProfit{Price: d("48500")}))

	quiet, err := m.OpenPosition("ETHUSDT", Long, d("3000"), d("1"))
	require.NoError(t, err)
	require.NoError(t, quiet.SetStopLoss(StopLoss{Price: d("2900")}))

	triggers := m.UpdatePrices(map[string]decimal.Decimal{
		"BTCUSDT": d("48000"),
		"ETHUSDT": d("3100"),
	})
	require.Len(t, triggers, 2)

	assert.Equal(t, stopped.ID(), triggers[0].PositionID)
	assert.Equal(t, TriggerStopLoss, triggers[0].Kind)
	assertDec(t, "49000", triggers[0].Level)
	assertDec(t, "48000", triggers[0].Price)

	assert.Equal(t, target.ID(), triggers[1].PositionID)
	assert.Equal(t, TriggerTakeProfit, triggers[1].Kind)
	assert.Equal(t, Short, triggers[1].Side)

	// Advisory only.
	assert.Len(t, m.OpenPositions(), 3)
	assertDec(t, "-2000", stopped.UnrealizedPnL())
	assertDec(t, "3000", target.UnrealizedPnL())
}

func TestManagerReset(t *testing.T) {
	t.Parallel()

	m := newManager()
	p, err := m.OpenPosition("BTCUSDT", Long, d("100"), d("1"))
	require.NoError(t, err)
	_, err = m.ClosePosition(p.ID(), d("101"), d("1"))
	require.NoError(t, err)
	_, err = m.OpenPosition("BTCUSDT", Long, d("100"), d("1"))
	require.NoError(t, err)

	m.Reset()
	assert.Empty(t, m.AllPositions())
	assert.Empty(t, m.OpenPositions())
	assert.Empty(t, m.PositionHistory())
	assert.Equal(t, Summary{}.OpenPositions, m.Summary().OpenPositions)

	_, ok := m.Get(p.ID())
	assert.False(t, ok)
}

func TestManagerConcurrentClosesConserveQuantity(t *testing.T) {
	t.Parallel()

	m := newManager()
	p, err := m.OpenPosition("BTCUSDT", Long, d("100"), d("10"))
	require.NoError(t, err)
	require.NoError(t, p.SetStopLoss(StopLoss{Type: StopTrailing, TrailingDistance: d("5")}))

	slice := d("0.1")
	var wg sync.WaitGroup
	var mu sync.Mutex
	closed := decimal.Zero
	for i := 0; i < 120; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := m.ClosePosition(p.ID(), d("110"), slice); err == nil {
				mu.Lock()
				closed = closed.Add(slice)
				mu.Unlock()
			}
		}()
		go func(i int) {
			defer wg.Done()
			m.UpdatePrices(map[string]decimal.Decimal{"BTCUSDT": decimal.NewFromInt(int64(100 + i%7))})
		}(i)
	}
	wg.Wait()

	assertDec(t, "10", closed)
	assert.False(t, p.IsOpen())
	assert.True(t, p.Quantity().IsZero())
	assertDec(t, "100", p.RealizedPnL())
	assert.Len(t, m.PositionHistory(), 1)
}

func TestManagerClosePositionsIsAllOrNothing(t *testing.T) {
	t.Parallel()

	m := newManager()
	a, err := m.OpenPosition("BTCUSDT", Long, d("100"), d("1"))
	require.NoError(t, err)
	b, err := m.OpenPosition("BTCUSDT", Long, d("100"), d("2"))
	require.NoError(t, err)

	tests := []struct {
		name    string
		lots    []CloseLot
		price   string
		wantErr error
	}{
		{name: "second lot too large", lots: []CloseLot{{a.ID(), d("1")}, {b.ID(), d("3")}}, price: "110", wantErr: ErrInvalidQuantity},
		{name: "same position twice", lots: []CloseLot{{b.ID(), d("1.5")}, {b.ID(), d("1")}}, price: "110", wantErr: ErrInvalidQuantity},
		{name: "unknown position", lots: []CloseLot{{a.ID(), d("1")}, {"missing", d("1")}}, price: "110", wantErr: ErrPositionNotFound},
		{name: "zero quantity", lots: []CloseLot{{a.ID(), d("0")}}, price: "110", wantErr: ErrInvalidQuantity},
		{name: "bad price", lots: []CloseLot{{a.ID(), d("1")}}, price: "0", wantErr: ErrInvalidPosition},
	}
	for _, tt := range tests {
		_, err := m.ClosePositions(tt.lots, d(tt.price))
		assert.ErrorIs(t, err, tt.wantErr, tt.name)
		assertDec(t, "1", a.Quantity())
		assertDec(t, "2", b.Quantity())
		assert.Len(t, m.OpenPositions(), 2, tt.name)
	}

	pnls, err := m.ClosePositions([]CloseLot{{a.ID(), d("1")}, {b.ID(), d("0.5")}}, d("110"))
	require.NoError(t, err)
	require.Len(t, pnls, 2)
	assertDec(t, "10", pnls[0])
	assertDec(t, "5", pnls[1])
	assert.False(t, a.IsOpen())
	assertDec(t, "1.5", b.Quantity())
	assert.Len(t, m.PositionHistory(), 1)

	_, err = m.ClosePositions([]CloseLot{{b.ID(), d("1")}, {a.ID(), d("1")}}, d("120"))
	assert.ErrorIs(t, err, ErrPositionClosed)
	assertDec(t, "1.5", b.Quantity())
}
