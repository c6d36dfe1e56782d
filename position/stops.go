package position

import (
	"fmt"

	"github.com/rustyeddy/papertrader/risk"
	"github.com/shopspring/decimal"
)

// breakevenBuffer is the 0.1% offset BREAKEVEN_PLUS adds past entry.
var breakevenBuffer = decimal.RequireFromString("0.001")

// StopLoss configures the stop of a position. Which parameter is required
// depends on Type.
type StopLoss struct {
	Price            decimal.Decimal
	Type             StopLossType
	TrailingDistance decimal.Decimal
	ATRMultiplier    decimal.Decimal
	BreakevenTrigger decimal.Decimal
}

// TakeProfit configures the target of a position. PERCENTAGE and
// RATIO_BASED derive Price from Percent or Ratio when Price is zero.
type TakeProfit struct {
	Price         decimal.Decimal
	Type          TakeProfitType
	ATRMultiplier decimal.Decimal
	Percent       decimal.Decimal
	Ratio         decimal.Decimal
}

// Trigger reports that a price crossed a risk level of an open position.
type Trigger struct {
	PositionID string
	Symbol     string
	Side       Side
	Kind       TriggerKind
	Price      decimal.Decimal
	Level      decimal.Decimal
}

func (p *Position) StopLoss() decimal.NullDecimal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopLoss
}

func (p *Position) TakeProfit() decimal.NullDecimal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.takeProfit
}

func (p *Position) BreakevenActivated() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.breakevenActivated
}

// SetATRValue stores the latest volatility reading used by ATR_BASED levels.
func (p *Position) SetATRValue(atr decimal.Decimal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.atrValue = atr
}

// atrDistanceLocked is atrValue * atrMultiplier, or zero when either is unset.
func (p *Position) atrDistanceLocked() decimal.Decimal {
	if !p.atrValue.IsPositive() || !p.atrMultiplier.IsPositive() {
		return decimal.Zero
	}
	return p.atrValue.Mul(p.atrMultiplier)
}

// towardLoss moves price by distance against the position.
func (p *Position) towardLoss(price, distance decimal.Decimal) decimal.Decimal {
	if p.side == Long {
		return price.Sub(distance)
	}
	return price.Add(distance)
}

// towardProfit moves price by distance in the position's favour.
func (p *Position) towardProfit(price, distance decimal.Decimal) decimal.Decimal {
	if p.side == Long {
		return price.Add(distance)
	}
	return price.Sub(distance)
}

func validLevel(v decimal.Decimal) decimal.NullDecimal {
	return decimal.NewNullDecimal(v.Round(PnLPlaces))
}

// SetStopLoss installs a stop and snapshots it as the original stop.
func (p *Position) SetStopLoss(sl StopLoss) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.open {
		return fmt.Errorf("set stop loss %s: %w", p.id, ErrPositionClosed)
	}
	if sl.Type == "" {
		sl.Type = StopFixed
	}
	if sl.Price.IsNegative() {
		return fmt.Errorf("%w: negative stop %s", ErrInvalidRiskConfig, sl.Price)
	}

	level := decimal.NullDecimal{}
	if sl.Price.IsPositive() {
		level = validLevel(sl.Price)
	}

	switch sl.Type {
	case StopFixed:
		if !level.Valid {
			return fmt.Errorf("%w: FIXED stop needs a price", ErrInvalidRiskConfig)
		}

	case StopTrailing:
		if !sl.TrailingDistance.IsPositive() {
			return fmt.Errorf("%w: TRAILING stop needs a positive distance", ErrInvalidRiskConfig)
		}
		if !level.Valid {
			level = validLevel(p.towardLoss(p.entryPrice, sl.TrailingDistance))
		}
		p.trailingStopDistance = sl.TrailingDistance

	case StopATR:
		if !sl.ATRMultiplier.IsPositive() {
			return fmt.Errorf("%w: ATR_BASED stop needs a positive multiplier", ErrInvalidRiskConfig)
		}
		p.atrMultiplier = sl.ATRMultiplier
		if dist := p.atrDistanceLocked(); !level.Valid && dist.IsPositive() {
			level = validLevel(p.towardLoss(p.entryPrice, dist))
		}

	case StopBreakeven, StopBreakevenPlus:
		if !level.Valid {
			return fmt.Errorf("%w: %s stop needs an initial price", ErrInvalidRiskConfig, sl.Type)
		}
		trigger := sl.BreakevenTrigger
		favourable := (p.side == Long && trigger.GreaterThan(p.entryPrice)) ||
			(p.side == Short && trigger.IsPositive() && trigger.LessThan(p.entryPrice))
		if !favourable {
			return fmt.Errorf("%w: breakeven trigger %s is not beyond entry %s", ErrInvalidRiskConfig, trigger, p.entryPrice)
		}
		p.breakevenTriggerPrice = trigger

	default:
		return fmt.Errorf("%w: unknown stop type %q", ErrInvalidRiskConfig, sl.Type)
	}

	p.stopLossType = sl.Type
	p.stopLoss = level
	p.originalStopLoss = level
	return nil
}

// SetTakeProfit installs a target.
func (p *Position) SetTakeProfit(tp TakeProfit) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.open {
		return fmt.Errorf("set take profit %s: %w", p.id, ErrPositionClosed)
	}
	if tp.Type == "" {
		tp.Type = TakeProfitFixed
	}
	if tp.Price.IsNegative() {
		return fmt.Errorf("%w: negative target %s", ErrInvalidRiskConfig, tp.Price)
	}

	level := decimal.NullDecimal{}
	if tp.Price.IsPositive() {
		level = validLevel(tp.Price)
	}
	long := p.side == Long

	switch tp.Type {
	case TakeProfitFixed:
		if !level.Valid {
			return fmt.Errorf("%w: FIXED target needs a price", ErrInvalidRiskConfig)
		}

	case TakeProfitPercentage:
		if !level.Valid {
			if !tp.Percent.IsPositive() {
				return fmt.Errorf("%w: PERCENTAGE target needs a price or percent", ErrInvalidRiskConfig)
			}
			level = validLevel(risk.TargetFromPercent(p.entryPrice, tp.Percent, long))
		}

	case TakeProfitRatio:
		if !level.Valid {
			if !tp.Ratio.IsPositive() || !p.stopLoss.Valid {
				return fmt.Errorf("%w: RATIO_BASED target needs a price, or a ratio and a stop", ErrInvalidRiskConfig)
			}
			level = validLevel(risk.TargetFromRatio(p.entryPrice, p.stopLoss.Decimal, tp.Ratio, long))
		}

	case TakeProfitATR:
		if !tp.ATRMultiplier.IsPositive() {
			return fmt.Errorf("%w: ATR_BASED target needs a positive multiplier", ErrInvalidRiskConfig)
		}
		p.atrMultiplier = tp.ATRMultiplier
		if dist := p.atrDistanceLocked(); !level.Valid && dist.IsPositive() {
			level = validLevel(p.towardProfit(p.entryPrice, dist))
		}

	default:
		return fmt.Errorf("%w: unknown take profit type %q", ErrInvalidRiskConfig, tp.Type)
	}

	p.takeProfitType = tp.Type
	p.takeProfit = level
	return nil
}

func (p *Position) IsStopLossHit(price decimal.Decimal) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopLossHitLocked(price)
}

func (p *Position) IsTakeProfitHit(price decimal.Decimal) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.takeProfitHitLocked(price)
}

func (p *Position) stopLossHitLocked(price decimal.Decimal) bool {
	if !p.stopLoss.Valid {
		return false
	}
	if p.side == Long {
		return price.LessThanOrEqual(p.stopLoss.Decimal)
	}
	return price.GreaterThanOrEqual(p.stopLoss.Decimal)
}

func (p *Position) takeProfitHitLocked(price decimal.Decimal) bool {
	if !p.takeProfit.Valid {
		return false
	}
	if p.side == Long {
		return price.GreaterThanOrEqual(p.takeProfit.Decimal)
	}
	return price.LessThanOrEqual(p.takeProfit.Decimal)
}

// UpdateStopLossAndTakeProfit moves adaptive levels for one price tick.
func (p *Position) UpdateStopLossAndTakeProfit(price decimal.Decimal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.adjustLevelsLocked(price)
}

func (p *Position) adjustLevelsLocked(price decimal.Decimal) {
	if !p.open {
		return
	}

	switch p.stopLossType {
	case StopTrailing:
		if !p.trailingStopDistance.IsPositive() {
			break
		}
		candidate := p.towardLoss(price, p.trailingStopDistance).Round(PnLPlaces)
		// Trailing stops only ratchet toward profit.
		tighter := !p.stopLoss.Valid ||
			(p.side == Long && candidate.GreaterThan(p.stopLoss.Decimal)) ||
			(p.side == Short && candidate.LessThan(p.stopLoss.Decimal))
		if tighter {
			p.stopLoss = decimal.NewNullDecimal(candidate)
		}

	case StopATR:
		if dist := p.atrDistanceLocked(); dist.IsPositive() {
			p.stopLoss = validLevel(p.towardLoss(price, dist))
		}

	case StopBreakeven, StopBreakevenPlus:
		if p.breakevenActivated || !p.breakevenTriggerPrice.IsPositive() {
			break
		}
		crossed := (p.side == Long && price.GreaterThanOrEqual(p.breakevenTriggerPrice)) ||
			(p.side == Short && price.LessThanOrEqual(p.breakevenTriggerPrice))
		if !crossed {
			break
		}
		level := p.entryPrice
		if p.stopLossType == StopBreakevenPlus {
			level = p.towardProfit(p.entryPrice, p.entryPrice.Mul(breakevenBuffer))
		}
		p.stopLoss = validLevel(level)
		p.breakevenActivated = true
	}

	if p.takeProfitType == TakeProfitATR {
		if dist := p.atrDistanceLocked(); dist.IsPositive() {
			p.takeProfit = validLevel(p.towardProfit(price, dist))
		}
	}
}

// applyTick marks the position to price, checks the levels in force when the
// tick arrived, then lets adaptive levels follow the price.
func (p *Position) applyTick(price decimal.Decimal) *Trigger {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.open {
		return nil
	}
	p.markLocked(price)

	var trig *Trigger
	switch {
	case p.stopLossHitLocked(price):
		trig = &Trigger{Kind: TriggerStopLoss, Level: p.stopLoss.Decimal}
	case p.takeProfitHitLocked(price):
		trig = &Trigger{Kind: TriggerTakeProfit, Level: p.takeProfit.Decimal}
	}
	if trig != nil {
		trig.PositionID = p.id
		trig.Symbol = p.symbol
		trig.Side = p.side
		trig.Price = price
	}

	p.adjustLevelsLocked(price)
	return trig
}
