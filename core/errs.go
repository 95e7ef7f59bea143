package core

import "errors"

var (
	ErrPositionExists    = errors.New("position already exists for symbol")
	ErrNoPosition        = errors.New("no open position for symbol")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrInsufficientFunds = errors.New("insufficient capital for order")
)
