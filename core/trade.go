package core

import (
	"time"
)

// TradeRecord is the persisted form of an executed order
type TradeRecord struct {
	ID         int64     `db:"id" json:"id" gorm:"primaryKey,autoIncrement"`
	UserID     int64     `db:"user_id" json:"user_id"`
	Symbol     string    `db:"symbol" json:"symbol"`
	Side       SideType  `db:"side" json:"side"`
	Quantity   float64   `db:"quantity" json:"quantity"`
	Price      float64   `db:"price" json:"price"`
	Status     string    `db:"status" json:"status"`
	Strategy   string    `db:"strategy" json:"strategy"`
	ProfitLoss float64   `db:"profit_loss" json:"profit_loss"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// StrategyConfig is a persisted row naming a strategy and whether it is active
type StrategyConfig struct {
	ID        int64     `db:"id" json:"id" gorm:"primaryKey,autoIncrement"`
	Name      string    `db:"name" json:"name"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
