package position

import "errors"

var (
	ErrPositionNotFound  = errors.New("position not found")
	ErrPositionClosed    = errors.New("position already closed")
	ErrInvalidQuantity   = errors.New("invalid close quantity")
	ErrInvalidPosition   = errors.New("invalid position parameters")
	ErrInvalidRiskConfig = errors.New("invalid risk configuration")
)
