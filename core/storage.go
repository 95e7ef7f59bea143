package core

import (
	"context"
	"time"
)

// TradeFilter defines a function type for filtering trade records
type TradeFilter func(trade TradeRecord) bool

// TradeStorage persists trade records and strategy configuration.
// A failing implementation never aborts a scan tick; callers log and continue.
type TradeStorage interface {
	// CreateTrade stores a new trade record
	CreateTrade(ctx context.Context, trade *TradeRecord) error

	// Trades retrieves trade records matching all provided filters
	Trades(ctx context.Context, filters ...TradeFilter) ([]*TradeRecord, error)

	// SeedStrategies inserts the given strategy names as active
	// configurations when no configuration exists yet
	SeedStrategies(ctx context.Context, names []string) error

	// ActiveStrategyNames returns the names of all active strategy configurations
	ActiveStrategyNames(ctx context.Context) ([]string, error)
}

func WithSymbol(symbol string) TradeFilter {
	return func(trade TradeRecord) bool {
		return trade.Symbol == symbol
	}
}

func WithStatus(status string) TradeFilter {
	return func(trade TradeRecord) bool {
		return trade.Status == status
	}
}

func WithSide(side SideType) TradeFilter {
	return func(trade TradeRecord) bool {
		return trade.Side == side
	}
}

func WithCreatedAtAfterOrEqual(t time.Time) TradeFilter {
	return func(trade TradeRecord) bool {
		return !trade.CreatedAt.Before(t)
	}
}
