// Package storage persists trade records and strategy configuration. The
// BuntDB backend is the default; the GORM backend serves callers that bring
// their own SQL dialector.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/tidwall/buntdb"

	"github.com/raykavin/niftybot/core"
)

const (
	tradePrefix    = "trade:"
	strategyPrefix = "strategy:"

	// tradeIndex orders trades by creation time, strategyIndex by insertion id
	tradeIndex    = "trades"
	strategyIndex = "strategies"
)

// BuntStorage implements core.TradeStorage using BuntDB
type BuntStorage struct {
	lastTradeID    int64
	lastStrategyID int64
	db             *buntdb.DB
}

// BuntConfig holds configuration options for BuntDB
type BuntConfig struct {
	// SyncPolicy determines how often data is synchronized to disk
	SyncPolicy buntdb.SyncPolicy
}

// DefaultBuntConfig returns the default configuration for BuntDB
func DefaultBuntConfig() BuntConfig {
	return BuntConfig{SyncPolicy: buntdb.Never}
}

// NewFromMemory creates an in-memory storage with default configuration
func NewFromMemory() (*BuntStorage, error) {
	return NewBuntStorage(":memory:", DefaultBuntConfig())
}

// NewFromFile creates a file-based storage with default configuration
func NewFromFile(file string) (*BuntStorage, error) {
	return NewBuntStorage(file, DefaultBuntConfig())
}

// NewBuntStorage opens (or creates) the database at sourceFile and prepares
// the trade and strategy indexes. Reopened files resume id assignment after
// the highest persisted id.
func NewBuntStorage(sourceFile string, config BuntConfig) (*BuntStorage, error) {
	db, err := buntdb.Open(sourceFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open buntdb: %w", err)
	}

	if err := db.SetConfig(buntdb.Config{
		SyncPolicy: config.SyncPolicy,
	}); err != nil {
		return nil, fmt.Errorf("failed to configure buntdb: %w", err)
	}

	if err := db.CreateIndex(tradeIndex, tradePrefix+"*", buntdb.IndexJSON("created_at")); err != nil {
		return nil, fmt.Errorf("failed to create trade index: %w", err)
	}
	if err := db.CreateIndex(strategyIndex, strategyPrefix+"*", buntdb.IndexJSON("id")); err != nil {
		return nil, fmt.Errorf("failed to create strategy index: %w", err)
	}

	b := &BuntStorage{db: db}
	if err := b.recoverLastIDs(); err != nil {
		return nil, fmt.Errorf("failed to scan existing keys: %w", err)
	}
	return b, nil
}

// recoverLastIDs resumes the id counters from whatever the file already holds
func (b *BuntStorage) recoverLastIDs() error {
	return b.db.View(func(tx *buntdb.Tx) error {
		err := tx.AscendKeys(tradePrefix+"*", func(key, _ string) bool {
			if id := keyID(key); id > b.lastTradeID {
				b.lastTradeID = id
			}
			return true
		})
		if err != nil {
			return err
		}

		return tx.AscendKeys(strategyPrefix+"*", func(key, _ string) bool {
			if id := keyID(key); id > b.lastStrategyID {
				b.lastStrategyID = id
			}
			return true
		})
	})
}

func keyID(key string) int64 {
	_, raw, ok := strings.Cut(key, ":")
	if !ok {
		return 0
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

func (b *BuntStorage) nextTradeID() int64 {
	return atomic.AddInt64(&b.lastTradeID, 1)
}

func (b *BuntStorage) nextStrategyID() int64 {
	return atomic.AddInt64(&b.lastStrategyID, 1)
}

// CreateTrade stores a new trade record, assigning its id when unset
func (b *BuntStorage) CreateTrade(_ context.Context, trade *core.TradeRecord) error {
	// Use a context-aware version if BuntDB adds context support in future
	return b.db.Update(func(tx *buntdb.Tx) error {
		if trade.ID == 0 {
			trade.ID = b.nextTradeID()
		}

		content, err := json.Marshal(trade)
		if err != nil {
			return fmt.Errorf("failed to marshal trade: %w", err)
		}

		key := tradePrefix + strconv.FormatInt(trade.ID, 10)
		if _, _, err := tx.Set(key, string(content), nil); err != nil {
			return fmt.Errorf("failed to store trade: %w", err)
		}
		return nil
	})
}

// Trades retrieves trade records matching all provided filters, oldest first
func (b *BuntStorage) Trades(_ context.Context, filters ...core.TradeFilter) ([]*core.TradeRecord, error) {
	trades := make([]*core.TradeRecord, 0)

	err := b.db.View(func(tx *buntdb.Tx) error {
		err := tx.Ascend(tradeIndex, func(key, value string) bool {
			var trade core.TradeRecord
			if err := json.Unmarshal([]byte(value), &trade); err != nil {
				log.Printf("Failed to unmarshal trade %s: %v", key, err)
				return true // Continue iteration
			}

			for _, filter := range filters {
				if !filter(trade) {
					return true
				}
			}

			trades = append(trades, &trade)
			return true
		})
		if err != nil {
			return fmt.Errorf("failed to iterate over trades: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}

	return trades, nil
}

// SeedStrategies inserts the given names as active configurations. It is a
// no-op when any strategy row already exists, so user toggles survive
// restarts.
func (b *BuntStorage) SeedStrategies(_ context.Context, names []string) error {
	return b.db.Update(func(tx *buntdb.Tx) error {
		seeded := false
		err := tx.AscendKeys(strategyPrefix+"*", func(string, string) bool {
			seeded = true
			return false
		})
		if err != nil {
			return fmt.Errorf("failed to check existing strategies: %w", err)
		}
		if seeded {
			return nil
		}

		now := time.Now()
		for _, name := range names {
			config := core.StrategyConfig{
				ID:        b.nextStrategyID(),
				Name:      name,
				Active:    true,
				CreatedAt: now,
			}

			content, err := json.Marshal(config)
			if err != nil {
				return fmt.Errorf("failed to marshal strategy %s: %w", name, err)
			}

			key := strategyPrefix + strconv.FormatInt(config.ID, 10)
			if _, _, err := tx.Set(key, string(content), nil); err != nil {
				return fmt.Errorf("failed to store strategy %s: %w", name, err)
			}
		}
		return nil
	})
}

// StrategyConfigs returns every stored strategy row in insertion order
func (b *BuntStorage) StrategyConfigs(_ context.Context) ([]*core.StrategyConfig, error) {
	configs := make([]*core.StrategyConfig, 0)

	err := b.db.View(func(tx *buntdb.Tx) error {
		return tx.Ascend(strategyIndex, func(key, value string) bool {
			var config core.StrategyConfig
			if err := json.Unmarshal([]byte(value), &config); err != nil {
				log.Printf("Failed to unmarshal strategy %s: %v", key, err)
				return true
			}
			configs = append(configs, &config)
			return true
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query strategies: %w", err)
	}

	return configs, nil
}

// ActiveStrategyNames returns the names of all active strategy configurations
func (b *BuntStorage) ActiveStrategyNames(ctx context.Context) ([]string, error) {
	configs, err := b.StrategyConfigs(ctx)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(configs))
	for _, config := range configs {
		if config.Active {
			names = append(names, config.Name)
		}
	}
	return names, nil
}

// SetStrategyActive flips the active flag on the named strategy
func (b *BuntStorage) SetStrategyActive(_ context.Context, name string, active bool) error {
	return b.db.Update(func(tx *buntdb.Tx) error {
		// Writes are unsafe during iteration, so locate first and set after.
		var key string
		var config core.StrategyConfig
		found := false

		err := tx.Ascend(strategyIndex, func(k, value string) bool {
			var candidate core.StrategyConfig
			if err := json.Unmarshal([]byte(value), &candidate); err != nil {
				log.Printf("Failed to unmarshal strategy %s: %v", k, err)
				return true
			}
			if candidate.Name == name {
				key, config, found = k, candidate, true
				return false
			}
			return true
		})
		if err != nil {
			return fmt.Errorf("failed to look up strategy %s: %w", name, err)
		}
		if !found {
			return fmt.Errorf("strategy %q not found", name)
		}

		config.Active = active
		content, err := json.Marshal(config)
		if err != nil {
			return fmt.Errorf("failed to marshal strategy %s: %w", name, err)
		}

		if _, _, err := tx.Set(key, string(content), nil); err != nil {
			return fmt.Errorf("failed to update strategy %s: %w", name, err)
		}
		return nil
	})
}

// Close closes the database connection
func (b *BuntStorage) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}
