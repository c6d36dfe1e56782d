package account

import "errors"

var (
	ErrOrderNotFound       = errors.New("order not found")
	ErrDuplicateOrderID    = errors.New("duplicate order id")
	ErrAccountNotFound     = errors.New("account not found")
	ErrAccountExists       = errors.New("account already registered")
	ErrActiveAccount       = errors.New("cannot remove the active account")
	ErrNoActiveAccount     = errors.New("no active account")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrAccountDisabled     = errors.New("account disabled")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrNoPrice             = errors.New("no price for symbol")
	ErrUnsupportedSide     = errors.New("paper account only closes long positions")
)
