package account

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rustyeddy/papertrader/id"
	"github.com/rustyeddy/papertrader/journal"
	"github.com/rustyeddy/papertrader/position"
	"github.com/shopspring/decimal"
)

// PaperConfig configures a PaperAccount. Zero values fall back to a fresh
// uuid, USDT, DefaultQuoteAssets and a Nop journal.
type PaperConfig struct {
	ID                 string
	QuoteAsset         string
	QuoteAssets        []string
	InitialBalance     decimal.Decimal
	AutoCloseOnTrigger bool
	Journal            journal.Journal
}

// PaperAccount fills MARKET orders immediately at the requested price
// against a virtual balance sheet.
type PaperAccount struct {
	id          string
	quoteAsset  string
	quoteAssets []string
	initial     decimal.Decimal

	enabled   atomic.Bool
	autoClose atomic.Bool
	prices    *PriceStore
	positions *position.Manager

	// mu serialises executions. Balances move together with the positions
	// they pay for.
	mu                sync.Mutex
	balances          map[string]decimal.Decimal
	orders            map[string]Order
	orderIDs          []string
	trades            []journal.TradeRecord
	stats             stats
	dailyStartBalance decimal.Decimal
	currentDay        time.Time
	now               func() time.Time
	journal           journal.Journal
	listener          TradeClosedListener
}

var _ TradingAccount = (*PaperAccount)(nil)

func NewPaper(cfg PaperConfig) *PaperAccount {
	if cfg.ID == "" {
		cfg.ID = id.NewAccount()
	}
	if cfg.QuoteAsset == "" {
		cfg.QuoteAsset = "USDT"
	}
	if len(cfg.QuoteAssets) == 0 {
		cfg.QuoteAssets = DefaultQuoteAssets
	}
	if cfg.Journal == nil {
		cfg.Journal = journal.Nop{}
	}

	a := &PaperAccount{
		id:          cfg.ID,
		quoteAsset:  cfg.QuoteAsset,
		quoteAssets: append([]string(nil), cfg.QuoteAssets...),
		initial:     cfg.InitialBalance,
		prices:      NewPriceStore(),
		positions:   position.NewManager(),
		now:         time.Now,
		journal:     cfg.Journal,
	}
	a.enabled.Store(true)
	a.autoClose.Store(cfg.AutoCloseOnTrigger)
	a.resetLocked()
	return a
}

func (a *PaperAccount) resetLocked() {
	a.balances = map[string]decimal.Decimal{a.quoteAsset: a.initial}
	a.orders = make(map[string]Order)
	a.orderIDs = nil
	a.trades = nil
	a.stats = stats{}
	a.positions.Reset()
	a.dailyStartBalance = a.initial
	a.currentDay = a.now()
}

func (a *PaperAccount) ID() string         { return a.id }
func (a *PaperAccount) Type() AccountType  { return PaperTrading }
func (a *PaperAccount) QuoteAsset() string { return a.quoteAsset }

// SetClock replaces the time source for fills, positions and the daily
// P&L rollover.
func (a *PaperAccount) SetClock(now func() time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.now = now
	a.currentDay = now()
	a.positions.SetClock(now)
}

// SetTradeClosedListener sets an optional listener for positions closed by
// AutoCloseOnTrigger. It is called after the account lock is released.
func (a *PaperAccount) SetTradeClosedListener(l TradeClosedListener) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listener = l
}

func (a *PaperAccount) SetAutoCloseOnTrigger(on bool) { a.autoClose.Store(on) }
func (a *PaperAccount) AutoCloseOnTrigger() bool      { return a.autoClose.Load() }

func (a *PaperAccount) IsEnabled() bool         { return a.enabled.Load() }
func (a *PaperAccount) SetEnabled(enabled bool) { a.enabled.Store(enabled) }

// Reset restores the quote balance to the initial balance and forgets
// every order, trade and position. Other assets are dropped.
func (a *PaperAccount) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.resetLocked()
}

// Deposit credits amount of asset.
func (a *PaperAccount) Deposit(asset string, amount decimal.Decimal) error {
	if asset == "" || !amount.IsPositive() {
		return fmt.Errorf("deposit %s %s: %w", amount, asset, ErrInvalidAmount)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.balances[asset] = a.balances[asset].Add(amount)
	return nil
}

// Balance is the quote asset balance.
func (a *PaperAccount) Balance() decimal.Decimal {
	return a.AssetBalance(a.quoteAsset)
}

// AvailableBalance equals Balance; paper fills never hold funds.
func (a *PaperAccount) AvailableBalance() decimal.Decimal {
	return a.Balance()
}

func (a *PaperAccount) AssetBalance(asset string) decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.balances[asset]
}

func (a *PaperAccount) AllBalances() map[string]decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[string]decimal.Decimal, len(a.balances))
	for k, v := range a.balances {
		out[k] = v
	}
	return out
}

// TotalExposure is the market value of all open positions, using the last
// price seen for each symbol and the entry price before any.
func (a *PaperAccount) TotalExposure() decimal.Decimal {
	total := decimal.Zero
	for _, p := range a.positions.OpenPositions() {
		mark, ok := a.prices.Get(p.Symbol)
		if !ok {
			mark = p.EntryPrice
		}
		total = total.Add(mark.Mul(p.Quantity))
	}
	return total.Round(position.PnLPlaces)
}

// DailyPnL is the change in Balance since the first read of the current
// calendar day.
func (a *PaperAccount) DailyPnL() decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	balance := a.balances[a.quoteAsset]
	if !sameDay(a.currentDay, now) {
		a.dailyStartBalance = balance
		a.currentDay = now
	}
	return balance.Sub(a.dailyStartBalance)
}

// TotalPnL is realized plus unrealized P&L across every position.
func (a *PaperAccount) TotalPnL() decimal.Decimal {
	return a.positions.Summary().TotalPnL
}

func (a *PaperAccount) AccountStats() AccountStats {
	summary := a.positions.Summary()

	a.mu.Lock()
	defer a.mu.Unlock()

	out := a.stats.summary()
	out.Balance = a.balances[a.quoteAsset]
	out.TotalPnL = summary.TotalPnL
	out.OpenPositions = summary.OpenPositions
	return out
}

func (a *PaperAccount) Order(orderID string) (Order, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	o, ok := a.orders[orderID]
	if !ok {
		return Order{}, fmt.Errorf("order %q: %w", orderID, ErrOrderNotFound)
	}
	return o, nil
}

func (a *PaperAccount) filterOrders(keep func(Order) bool) []Order {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Order, 0, len(a.orderIDs))
	for _, oid := range a.orderIDs {
		if o := a.orders[oid]; keep(o) {
			out = append(out, o)
		}
	}
	return out
}

// AllOrders lists stored orders in submission order.
func (a *PaperAccount) AllOrders() []Order {
	return a.filterOrders(func(Order) bool { return true })
}

func (a *PaperAccount) OpenOrders() []Order {
	return a.filterOrders(Order.IsOpen)
}

func (a *PaperAccount) FilledOrders() []Order {
	return a.filterOrders(func(o Order) bool { return o.Status == StatusFilled })
}

// CancelOrder cancels a stored order that has not been filled. Paper fills
// are immediate, so this normally reports false.
func (a *PaperAccount) CancelOrder(orderID string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	o, ok := a.orders[orderID]
	if !ok {
		return false, fmt.Errorf("cancel order %q: %w", orderID, ErrOrderNotFound)
	}
	if !o.IsOpen() {
		return false, nil
	}
	o.Status = StatusCancelled
	a.orders[orderID] = o
	return true, nil
}

// TradeHistory returns every fill in order.
func (a *PaperAccount) TradeHistory() []journal.TradeRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]journal.TradeRecord(nil), a.trades...)
}

func (a *PaperAccount) LastPrice(symbol string) (decimal.Decimal, bool) {
	return a.prices.Get(symbol)
}

func (a *PaperAccount) OpenPositions() []position.Snapshot {
	return a.positions.OpenPositions()
}

func (a *PaperAccount) OpenPositionsBySymbol(symbol string) []position.Snapshot {
	return a.positions.OpenPositionsBySymbol(symbol)
}

func (a *PaperAccount) Position(positionID string) (position.Snapshot, error) {
	p, ok := a.positions.Get(positionID)
	if !ok {
		return position.Snapshot{}, fmt.Errorf("position %q: %w", positionID, position.ErrPositionNotFound)
	}
	return p, nil
}

func (a *PaperAccount) PositionHistory() []position.Snapshot {
	return a.positions.PositionHistory()
}

func (a *PaperAccount) PositionManager() *position.Manager {
	return a.positions
}
