package core

import (
	"math"
	"time"
)

// Position is an open exposure managed by the risk manager.
// TrailingStop, HighestPrice and LowestPrice are NaN until applicable:
// the trailing stop arms on the first favorable move, HighestPrice is
// tracked for LONG positions only and LowestPrice for SHORT only.
type Position struct {
	Symbol       string
	Side         PositionSide
	Quantity     float64
	EntryPrice   float64
	EntryTime    time.Time
	StopLoss     float64
	TakeProfit   float64
	TrailingStop float64
	HighestPrice float64
	LowestPrice  float64
}

// TrailingArmed reports whether the trailing stop has been set
func (p Position) TrailingArmed() bool {
	return !math.IsNaN(p.TrailingStop)
}

// ExitSide returns the order side that flattens the position
func (p Position) ExitSide() SideType {
	if p.Side == PositionSideLong {
		return SideTypeSell
	}
	return SideTypeBuy
}

// Cost returns the capital consumed when the position was opened
func (p Position) Cost() float64 {
	return p.Quantity * p.EntryPrice
}

// ProfitLoss returns the realized result of closing at exitPrice
func (p Position) ProfitLoss(exitPrice float64) float64 {
	if p.Side == PositionSideLong {
		return (exitPrice - p.EntryPrice) * p.Quantity
	}
	return (p.EntryPrice - exitPrice) * p.Quantity
}

// ClosedTrade is an append-only record produced when a position closes
type ClosedTrade struct {
	Symbol     string
	Side       PositionSide
	Quantity   float64
	EntryPrice float64
	ExitPrice  float64
	EntryTime  time.Time
	ExitTime   time.Time
	ProfitLoss float64
	Reason     string
}
