package position

import (
	"fmt"
	"sync"
	"time"

	"github.com/rustyeddy/papertrader/id"
	"github.com/shopspring/decimal"
)

// Money amounts round to PnLPlaces, percentages and ratios to PctPlaces.
const (
	PnLPlaces = 8
	PctPlaces = 4
)

var hundred = decimal.NewFromInt(100)

// Position is a directional exposure to one symbol. All methods are safe for
// concurrent use; a price update and a close on the same position never
// interleave.
type Position struct {
	mu sync.Mutex

	id               string
	symbol           string
	side             Side
	entryPrice       decimal.Decimal
	originalQuantity decimal.Decimal
	entryTime        time.Time

	quantity      decimal.Decimal
	exitTime      time.Time
	exitPrice     decimal.Decimal
	realizedPnL   decimal.Decimal
	unrealizedPnL decimal.Decimal
	open          bool

	stopLoss              decimal.NullDecimal
	takeProfit            decimal.NullDecimal
	stopLossType          StopLossType
	takeProfitType        TakeProfitType
	trailingStopDistance  decimal.Decimal
	breakevenTriggerPrice decimal.Decimal
	breakevenActivated    bool
	originalStopLoss      decimal.NullDecimal
	atrMultiplier         decimal.Decimal
	atrValue              decimal.Decimal

	strategyID string
}

// New builds an open position. Entry price and quantity must be positive.
func New(symbol string, side Side, entryPrice, quantity decimal.Decimal, at time.Time) (*Position, error) {
	if symbol == "" {
		return nil, fmt.Errorf("%w: empty symbol", ErrInvalidPosition)
	}
	if !side.Valid() {
		return nil, fmt.Errorf("%w: side %q", ErrInvalidPosition, side)
	}
	if !entryPrice.IsPositive() {
		return nil, fmt.Errorf("%w: entry price %s", ErrInvalidPosition, entryPrice)
	}
	if !quantity.IsPositive() {
		return nil, fmt.Errorf("%w: quantity %s", ErrInvalidPosition, quantity)
	}

	return &Position{
		id:               id.New(),
		symbol:           symbol,
		side:             side,
		entryPrice:       entryPrice,
		originalQuantity: quantity,
		entryTime:        at,
		quantity:         quantity,
		open:             true,
		stopLossType:     StopFixed,
		takeProfitType:   TakeProfitFixed,
	}, nil
}

func (p *Position) ID() string     { return p.id }
func (p *Position) Symbol() string { return p.symbol }
func (p *Position) Side() Side     { return p.side }

func (p *Position) EntryPrice() decimal.Decimal { return p.entryPrice }

func (p *Position) IsOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open
}

func (p *Position) Quantity() decimal.Decimal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.quantity
}

func (p *Position) RealizedPnL() decimal.Decimal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.realizedPnL
}

func (p *Position) UnrealizedPnL() decimal.Decimal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.unrealizedPnL
}

func (p *Position) StrategyID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.strategyID
}

func (p *Position) SetStrategyID(strategyID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.strategyID = strategyID
}

// priceDiffLocked is the per-unit profit of moving from entry to price.
func (p *Position) priceDiffLocked(price decimal.Decimal) decimal.Decimal {
	if p.side == Long {
		return price.Sub(p.entryPrice)
	}
	return p.entryPrice.Sub(price)
}

// UpdateUnrealizedPnL marks the remaining quantity to price. Closed
// positions are left untouched.
func (p *Position) UpdateUnrealizedPnL(price decimal.Decimal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.markLocked(price)
}

func (p *Position) markLocked(price decimal.Decimal) {
	if !p.open {
		return
	}
	p.unrealizedPnL = p.priceDiffLocked(price).Mul(p.quantity).Round(PnLPlaces)
}

// Close realizes qty at price and returns the P&L of this slice. Closing
// more than the remaining quantity is rejected, not clamped.
func (p *Position) Close(price, qty decimal.Decimal, at time.Time) (decimal.Decimal, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.open {
		return decimal.Zero, fmt.Errorf("close %s: %w", p.id, ErrPositionClosed)
	}
	if !qty.IsPositive() || qty.GreaterThan(p.quantity) {
		return decimal.Zero, fmt.Errorf("close %s: %w: %s of %s", p.id, ErrInvalidQuantity, qty, p.quantity)
	}
	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("close %s: %w: price %s", p.id, ErrInvalidPosition, price)
	}

	pnl := p.priceDiffLocked(price).Mul(qty).Round(PnLPlaces)
	p.realizedPnL = p.realizedPnL.Add(pnl)
	p.quantity = p.quantity.Sub(qty)

	if !p.quantity.IsPositive() {
		p.quantity = decimal.Zero
		p.open = false
		p.exitTime = at
		p.exitPrice = price
		p.unrealizedPnL = decimal.Zero
	} else {
		p.markLocked(price)
	}
	return pnl, nil
}

func (p *Position) TotalPnL() decimal.Decimal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.realizedPnL.Add(p.unrealizedPnL)
}

// quantityBasisLocked is the size P&L percentages are measured against.
//
// Compatibility shim: records restored without an original quantity derive
// it back from realized P&L and the exit price. Do not reuse elsewhere.
func (p *Position) quantityBasisLocked() decimal.Decimal {
	if p.originalQuantity.IsPositive() {
		return p.originalQuantity
	}
	if !p.open && p.exitPrice.IsPositive() {
		diff := p.priceDiffLocked(p.exitPrice)
		if !diff.IsZero() {
			return p.realizedPnL.Div(diff).Abs()
		}
	}
	return p.quantity
}

func (p *Position) entryValueLocked() decimal.Decimal {
	return p.entryPrice.Mul(p.quantityBasisLocked())
}

// EntryValue is entry price times the original size.
func (p *Position) EntryValue() decimal.Decimal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.entryValueLocked().Round(PnLPlaces)
}

// PnLPercentage is total P&L as a percentage of entry value, 4 places.
func (p *Position) PnLPercentage() decimal.Decimal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pnlPercentageLocked()
}

func (p *Position) pnlPercentageLocked() decimal.Decimal {
	entryValue := p.entryValueLocked()
	if entryValue.IsZero() {
		return decimal.Zero
	}
	total := p.realizedPnL.Add(p.unrealizedPnL)
	return total.Div(entryValue).Mul(hundred).Round(PctPlaces)
}

// Snapshot is a point-in-time copy of a position, safe to hand to readers.
type Snapshot struct {
	ID                    string              `json:"id"`
	Symbol                string              `json:"symbol"`
	Side                  Side                `json:"side"`
	EntryPrice            decimal.Decimal     `json:"entry_price"`
	OriginalQuantity      decimal.Decimal     `json:"original_quantity"`
	Quantity              decimal.Decimal     `json:"quantity"`
	EntryTime             time.Time           `json:"entry_time"`
	ExitTime              time.Time           `json:"exit_time,omitzero"`
	ExitPrice             decimal.Decimal     `json:"exit_price"`
	RealizedPnL           decimal.Decimal     `json:"realized_pnl"`
	UnrealizedPnL         decimal.Decimal     `json:"unrealized_pnl"`
	TotalPnL              decimal.Decimal     `json:"total_pnl"`
	PnLPercentage         decimal.Decimal     `json:"pnl_percentage"`
	EntryValue            decimal.Decimal     `json:"entry_value"`
	IsOpen                bool                `json:"is_open"`
	StopLoss              decimal.NullDecimal `json:"stop_loss"`
	TakeProfit            decimal.NullDecimal `json:"take_profit"`
	StopLossType          StopLossType        `json:"stop_loss_type"`
	TakeProfitType        TakeProfitType      `json:"take_profit_type"`
	TrailingStopDistance  decimal.Decimal     `json:"trailing_stop_distance"`
	BreakevenTriggerPrice decimal.Decimal     `json:"breakeven_trigger_price"`
	BreakevenActivated    bool                `json:"breakeven_activated"`
	OriginalStopLoss      decimal.NullDecimal `json:"original_stop_loss"`
	ATRMultiplier         decimal.Decimal     `json:"atr_multiplier"`
	ATRValue              decimal.Decimal     `json:"atr_value"`
	StrategyID            string              `json:"strategy_id,omitempty"`
}

func (p *Position) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	return Snapshot{
		ID:                    p.id,
		Symbol:                p.symbol,
		Side:                  p.side,
		EntryPrice:            p.entryPrice,
		OriginalQuantity:      p.originalQuantity,
		Quantity:              p.quantity,
		EntryTime:             p.entryTime,
		ExitTime:              p.exitTime,
		ExitPrice:             p.exitPrice,
		RealizedPnL:           p.realizedPnL,
		UnrealizedPnL:         p.unrealizedPnL,
		TotalPnL:              p.realizedPnL.Add(p.unrealizedPnL),
		PnLPercentage:         p.pnlPercentageLocked(),
		EntryValue:            p.entryValueLocked().Round(PnLPlaces),
		IsOpen:                p.open,
		StopLoss:              p.stopLoss,
		TakeProfit:            p.takeProfit,
		StopLossType:          p.stopLossType,
		TakeProfitType:        p.takeProfitType,
		TrailingStopDistance:  p.trailingStopDistance,
		BreakevenTriggerPrice: p.breakevenTriggerPrice,
		BreakevenActivated:    p.breakevenActivated,
		OriginalStopLoss:      p.originalStopLoss,
		ATRMultiplier:         p.atrMultiplier,
		ATRValue:              p.atrValue,
		StrategyID:            p.strategyID,
	}
}
