package core

import (
	"fmt"
	"time"
)

// Actions recorded on signal events
const (
	ActionTradeExecuted     = "TRADE_EXECUTED"
	ActionExecutionFailed   = "EXECUTION_FAILED"
	ActionHold              = "HOLD"
	ActionAlreadyInPosition = "ALREADY_IN_POSITION"
)

// SignalEvent is an immutable record of one scan decision for one symbol
type SignalEvent struct {
	Time              time.Time      `json:"timestamp"`
	Symbol            string         `json:"symbol"`
	Verdict           int            `json:"signal"`
	Label             string         `json:"signal_label"`
	Price             float64        `json:"current_price"`
	Votes             map[string]int `json:"strategy_votes"`
	Confidence        float64        `json:"confidence"`
	SuggestedQuantity float64        `json:"suggested_quantity"`
	StopLoss          float64        `json:"stop_loss"`
	TakeProfit        float64        `json:"take_profit"`
	Action            string         `json:"action_taken"`
}

// VerdictLabel names a verdict: BUY for +1, SELL for -1, HOLD for 0
func VerdictLabel(verdict int) string {
	switch {
	case verdict > 0:
		return "BUY"
	case verdict < 0:
		return "SELL"
	default:
		return "HOLD"
	}
}

// ActionBlocked formats the action recorded when the risk manager denies an entry
func ActionBlocked(reason string) string {
	return fmt.Sprintf("BLOCKED (%s)", reason)
}

// ActionPositionClosed formats the action recorded when an exit rule closes a position
func ActionPositionClosed(reason string, pnl float64) string {
	return fmt.Sprintf("POSITION_CLOSED (%s), PnL=%.2f", reason, pnl)
}
