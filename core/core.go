package core

import (
	"context"
)

// SideType represents the direction of an order (BUY or SELL)
type SideType string

// PositionSide represents the direction of an open exposure (LONG or SHORT)
type PositionSide string

// Order side constants
const (
	SideTypeBuy  SideType = "BUY"
	SideTypeSell SideType = "SELL"
)

// Position direction constants
const (
	PositionSideLong  PositionSide = "LONG"
	PositionSideShort PositionSide = "SHORT"
)

// Execution mode reported by the engine status snapshot
const (
	ModeLive       = "LIVE"
	ModeSimulation = "SIMULATION"
)

// Exit reasons recorded on closed trades
const (
	ExitReasonStopLoss     = "STOP_LOSS"
	ExitReasonTrailingStop = "TRAILING_STOP"
	ExitReasonTakeProfit   = "TAKE_PROFIT"
	ExitReasonEngineStop   = "ENGINE_STOP"
	ExitReasonExternal     = "EXTERNAL"
)

// Reasons returned by the risk manager when trading is denied
const (
	BlockReasonDailyLoss = "DAILY_LOSS_LIMIT"
	BlockReasonMaxTrades = "MAX_DAILY_TRADES"
	BlockReasonNoCapital = "INSUFFICIENT_CAPITAL"
)

// Statuses recorded on persisted trade rows
const (
	TradeStatusExecuted       = "EXECUTED"
	TradeStatusExternalClosed = "EXTERNAL_CLOSED"
)

// EntrySide maps a non-zero verdict to the order side that opens the exposure.
func EntrySide(verdict int) SideType {
	if verdict > 0 {
		return SideTypeBuy
	}
	return SideTypeSell
}

// Direction maps an order side to the position direction it opens.
func (s SideType) Direction() PositionSide {
	if s == SideTypeBuy {
		return PositionSideLong
	}
	return PositionSideShort
}

// Feeder supplies OHLCV windows and quotes for symbols.
type Feeder interface {
	Candles(ctx context.Context, symbol, timeframe string, limit int) (*Window, error)
	LastQuote(ctx context.Context, symbol string) (float64, error)
}

// Broker submits orders for execution. Implementations must not assume the
// caller mutates any portfolio state before the call returns successfully.
type Broker interface {
	SubmitOrder(ctx context.Context, side SideType, symbol string, quantity, price float64) error
}

type Exchange interface {
	Broker
	Feeder
}

// Notifier receives engine events for delivery to an external channel.
type Notifier interface {
	Notify(text string)
	OnSignal(signal SignalEvent)
	OnError(err error)
}

type NotifierWithStart interface {
	Notifier
	Start()
}
