package account

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderSide string

const (
	Buy  OrderSide = "BUY"
	Sell OrderSide = "SELL"
)

type OrderType string

const (
	Market OrderType = "MARKET"
	Limit  OrderType = "LIMIT"
	Stop   OrderType = "STOP"
)

type OrderStatus string

const (
	StatusNew             OrderStatus = "NEW"
	StatusPending         OrderStatus = "PENDING"
	StatusFilled          OrderStatus = "FILLED"
	StatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	StatusCancelled       OrderStatus = "CANCELLED"
	StatusRejected        OrderStatus = "REJECTED"
)

// Order is both the request a caller submits and the result it gets back.
// Execution fields are filled in by the account.
type Order struct {
	ID                  string              `json:"id"`
	Symbol              string              `json:"symbol"`
	Type                OrderType           `json:"type"`
	Side                OrderSide           `json:"side"`
	Quantity            decimal.Decimal     `json:"quantity"`
	Price               decimal.Decimal     `json:"price"`
	Status              OrderStatus         `json:"status"`
	SuggestedStopLoss   decimal.NullDecimal `json:"suggested_stop_loss"`
	SuggestedTakeProfit decimal.NullDecimal `json:"suggested_take_profit"`
	StrategyID          string              `json:"strategy_id,omitempty"`
	CreatedAt           time.Time           `json:"created_at"`

	ExecutedQuantity decimal.Decimal `json:"executed_quantity"`
	ExecutedPrice    decimal.Decimal `json:"executed_price"`
	ExecutedAt       time.Time       `json:"executed_at,omitzero"`
	RejectReason     string          `json:"reject_reason,omitempty"`
	PositionIDs      []string        `json:"position_ids,omitempty"`
}

// MarketOrder builds a MARKET order request.
func MarketOrder(symbol string, side OrderSide, quantity, price decimal.Decimal) Order {
	return Order{
		Symbol:   symbol,
		Type:     Market,
		Side:     side,
		Quantity: quantity,
		Price:    price,
		Status:   StatusNew,
	}
}

// IsOpen reports whether the order can still be cancelled.
func (o Order) IsOpen() bool {
	switch o.Status {
	case StatusNew, StatusPending, StatusPartiallyFilled:
		return true
	}
	return false
}

// validate returns a rejection reason, or "" for a well-formed order.
func (o Order) validate() string {
	switch {
	case o.Symbol == "":
		return "missing symbol"
	case o.Side != Buy && o.Side != Sell:
		return "missing or unknown side"
	case o.Type != Market:
		return "unsupported order type " + string(o.Type)
	case !o.Quantity.IsPositive():
		return "quantity must be positive"
	case !o.Price.IsPositive():
		return "price must be positive"
	case o.SuggestedStopLoss.Valid && !o.SuggestedStopLoss.Decimal.IsPositive():
		return "suggested stop loss must be positive"
	case o.SuggestedTakeProfit.Valid && !o.SuggestedTakeProfit.Decimal.IsPositive():
		return "suggested take profit must be positive"
	}
	return ""
}
