package account

import (
	"fmt"

	"github.com/rustyeddy/papertrader/id"
	"github.com/rustyeddy/papertrader/journal"
	"github.com/rustyeddy/papertrader/logger"
	"github.com/rustyeddy/papertrader/position"
	"github.com/shopspring/decimal"
)

const (
	reasonMarket = "MARKET"
	reasonManual = "MANUAL_CLOSE"
)

// ExecuteOrder fills a MARKET order at its price or rejects it. Rejections
// are reported on the returned order, never as errors, and leave the
// account untouched.
func (a *PaperAccount) ExecuteOrder(o Order) (out Order) {
	defer func() {
		if r := recover(); r != nil {
			out = reject(o, fmt.Sprintf("internal error: %v", r))
		}
	}()

	a.mu.Lock()
	defer a.mu.Unlock()

	if o.ID == "" {
		o.ID = id.New()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = a.now()
	}

	if !a.enabled.Load() {
		return reject(o, ErrAccountDisabled.Error())
	}
	if _, dup := a.orders[o.ID]; dup {
		return reject(o, ErrDuplicateOrderID.Error())
	}
	if reason := o.validate(); reason != "" {
		return reject(o, reason)
	}

	var err error
	switch o.Side {
	case Buy:
		err = a.buyLocked(&o)
	case Sell:
		err = a.sellLocked(&o, "", reasonMarket)
	}
	if err != nil {
		return reject(o, err.Error())
	}
	return o
}

func reject(o Order, reason string) Order {
	o.Status = StatusRejected
	o.RejectReason = reason
	o.ExecutedQuantity = decimal.Zero
	o.ExecutedPrice = decimal.Zero
	o.PositionIDs = nil
	logger.Warnf("order %s rejected: %s %s %s @ %s: %s", o.ID, o.Side, o.Quantity, o.Symbol, o.Price, reason)
	return o
}

func (a *PaperAccount) split(symbol string) (base, quote string) {
	return SplitSymbol(symbol, a.quoteAssets, a.quoteAsset)
}

func (a *PaperAccount) buyLocked(o *Order) error {
	base, quote := a.split(o.Symbol)
	value := o.Price.Mul(o.Quantity)

	if have := a.balances[quote]; have.LessThan(value) {
		return fmt.Errorf("%w: %s %s, need %s", ErrInsufficientBalance, have, quote, value)
	}

	p, err := a.positions.OpenPosition(o.Symbol, position.Long, o.Price, o.Quantity)
	if err != nil {
		return err
	}
	if o.SuggestedStopLoss.Valid {
		if err := p.SetStopLoss(position.StopLoss{Price: o.SuggestedStopLoss.Decimal}); err != nil {
			logger.Warnf("order %s: stop loss not attached: %v", o.ID, err)
		}
	}
	if o.SuggestedTakeProfit.Valid {
		if err := p.SetTakeProfit(position.TakeProfit{Price: o.SuggestedTakeProfit.Decimal}); err != nil {
			logger.Warnf("order %s: take profit not attached: %v", o.ID, err)
		}
	}
	p.SetStrategyID(o.StrategyID)

	a.balances[quote] = a.balances[quote].Sub(value)
	a.balances[base] = a.balances[base].Add(o.Quantity)

	o.PositionIDs = []string{p.ID()}
	a.fillLocked(o, value, decimal.Zero, reasonMarket)
	return nil
}

// planCloses picks which long positions a sell of qty reduces. With a
// positionID only that position is used; otherwise the oldest go first.
// Quantity not covered by positions sells deposited inventory.
func (a *PaperAccount) planCloses(symbol, positionID string, qty decimal.Decimal) []position.CloseLot {
	var open []position.Snapshot
	if positionID != "" {
		if p, ok := a.positions.Get(positionID); ok && p.IsOpen {
			open = append(open, p)
		}
	} else {
		open = a.positions.OpenPositionsBySymbol(symbol)
	}

	var lots []position.CloseLot
	remaining := qty
	for _, p := range open {
		if !remaining.IsPositive() {
			break
		}
		if p.Side != position.Long {
			continue
		}
		take := decimal.Min(remaining, p.Quantity)
		lots = append(lots, position.CloseLot{PositionID: p.ID, Quantity: take})
		remaining = remaining.Sub(take)
	}
	return lots
}

func (a *PaperAccount) sellLocked(o *Order, positionID, reason string) error {
	base, quote := a.split(o.Symbol)
	value := o.Price.Mul(o.Quantity)

	if have := a.balances[base]; have.LessThan(o.Quantity) {
		return fmt.Errorf("%w: %s %s, need %s", ErrInsufficientBalance, have, base, o.Quantity)
	}

	lots := a.planCloses(o.Symbol, positionID, o.Quantity)
	realized := decimal.Zero
	if len(lots) > 0 {
		pnls, err := a.positions.ClosePositions(lots, o.Price)
		if err != nil {
			return err
		}
		for i, lot := range lots {
			realized = realized.Add(pnls[i])
			o.PositionIDs = append(o.PositionIDs, lot.PositionID)
		}
	}

	a.balances[base] = a.balances[base].Sub(o.Quantity)
	a.balances[quote] = a.balances[quote].Add(value)

	a.fillLocked(o, value, realized, reason)
	return nil
}

func (a *PaperAccount) fillLocked(o *Order, value, realized decimal.Decimal, reason string) {
	now := a.now()
	o.Status = StatusFilled
	o.ExecutedQuantity = o.Quantity
	o.ExecutedPrice = o.Price
	o.ExecutedAt = now
	o.RejectReason = ""

	a.orders[o.ID] = *o
	a.orderIDs = append(a.orderIDs, o.ID)
	a.stats.record(realized, o.Side == Sell, now)

	rec := journal.TradeRecord{
		TradeID:    id.New(),
		OrderID:    o.ID,
		Symbol:     o.Symbol,
		Side:       string(o.Side),
		Quantity:   o.Quantity,
		Price:      o.Price,
		Value:      value,
		RealizedPL: realized,
		StrategyID: o.StrategyID,
		Time:       now,
		Reason:     reason,
	}
	a.trades = append(a.trades, rec)
	if err := guardJournal(func() error { return a.journal.RecordTrade(rec) }); err != nil {
		logger.Warnf("journal trade %s: %v", rec.TradeID, err)
	}

	logger.L().Info("order filled",
		"account", a.id,
		"order", o.ID,
		"side", o.Side,
		"symbol", o.Symbol,
		"quantity", o.Quantity.String(),
		"price", o.Price.String(),
		"realized", realized.String(),
	)
}

// ClosePosition sells the whole remaining quantity of one long position at
// the last known price, outside FIFO order.
func (a *PaperAccount) ClosePosition(positionID, reason string) (Order, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.closePositionLocked(positionID, reason)
}

func (a *PaperAccount) closePositionLocked(positionID, reason string) (Order, error) {
	if reason == "" {
		reason = reasonManual
	}
	if !a.enabled.Load() {
		return Order{}, fmt.Errorf("close position %q: %w", positionID, ErrAccountDisabled)
	}

	p, ok := a.positions.Get(positionID)
	if !ok {
		return Order{}, fmt.Errorf("close position %q: %w", positionID, position.ErrPositionNotFound)
	}
	if !p.IsOpen {
		return Order{}, fmt.Errorf("close position %q: %w", positionID, position.ErrPositionClosed)
	}
	if p.Side != position.Long {
		return Order{}, fmt.Errorf("close position %q: %w", positionID, ErrUnsupportedSide)
	}
	price, ok := a.prices.Get(p.Symbol)
	if !ok {
		return Order{}, fmt.Errorf("close position %q: %w %s", positionID, ErrNoPrice, p.Symbol)
	}

	o := MarketOrder(p.Symbol, Sell, p.Quantity, price)
	o.ID = id.New()
	o.CreatedAt = a.now()
	o.StrategyID = p.StrategyID
	if err := a.sellLocked(&o, positionID, reason); err != nil {
		return reject(o, err.Error()), fmt.Errorf("close position %q: %w", positionID, err)
	}
	return o, nil
}

type closedPosition struct {
	positionID string
	reason     string
}

// UpdateCurrentPrices marks every open position to the new prices and moves
// adaptive stops. With AutoCloseOnTrigger set, positions whose stop or
// target was crossed are sold at that price.
func (a *PaperAccount) UpdateCurrentPrices(prices map[string]decimal.Decimal) {
	valid := make(map[string]decimal.Decimal, len(prices))
	for symbol, price := range prices {
		if price.IsPositive() {
			valid[symbol] = price
		}
	}
	a.prices.SetAll(valid)

	triggers := a.positions.UpdatePrices(valid)
	for _, t := range triggers {
		logger.Debugf("%s %s %s hit at %s (level %s)", t.Kind, t.Side, t.Symbol, t.Price, t.Level)
	}

	a.mu.Lock()
	var closed []closedPosition
	if a.autoClose.Load() {
		for _, t := range triggers {
			o, err := a.closePositionLocked(t.PositionID, string(t.Kind))
			if err != nil {
				logger.Warnf("auto close %s: %v", t.PositionID, err)
				continue
			}
			logger.Infof("auto closed position %s on %s: sold %s %s @ %s", t.PositionID, t.Kind, o.Quantity, o.Symbol, o.Price)
			closed = append(closed, closedPosition{positionID: t.PositionID, reason: string(t.Kind)})
		}
	}
	a.recordEquityLocked()
	listener := a.listener
	a.mu.Unlock()

	if listener != nil {
		for _, c := range closed {
			listener.OnTradeClosed(c.positionID, c.reason)
		}
	}
}

// recordEquityLocked journals the quote balance plus the market value of
// open positions.
func (a *PaperAccount) recordEquityLocked() {
	summary := a.positions.Summary()
	balance := a.balances[a.quoteAsset]
	snap := journal.EquitySnapshot{
		Time:          a.now(),
		Balance:       balance,
		Equity:        balance.Add(a.TotalExposure()),
		RealizedPnL:   summary.TotalRealizedPnL,
		UnrealizedPnL: summary.TotalUnrealizedPnL,
		OpenPositions: summary.OpenPositions,
	}
	if err := guardJournal(func() error { return a.journal.RecordEquity(snap) }); err != nil {
		logger.Warnf("journal equity: %v", err)
	}
}

// guardJournal runs a journal write after the books have changed, so a
// failing journal is logged and never turns a fill into a rejection.
func guardJournal(write func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("journal panic: %v", r)
		}
	}()
	return write()
}
