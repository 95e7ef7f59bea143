package engine

import "time"

// Status is a point-in-time snapshot of the engine and its book
type Status struct {
	Running          bool      `json:"running"`
	Mode             string    `json:"mode"`
	MarketOpen       bool      `json:"market_open"`
	Symbols          []string  `json:"symbols"`
	ActiveStrategies []string  `json:"active_strategies"`
	ScanCount        int64     `json:"scan_count"`
	LastScan         time.Time `json:"last_scan"`
	OpenPositions    int       `json:"open_positions"`
	CurrentCapital   float64   `json:"current_capital"`
	DailyPnL         float64   `json:"daily_pnl"`
	DailyTrades      int       `json:"daily_trades"`
	SignalCount      int       `json:"signal_count"`
}
