package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
	"gorm.io/gorm"

	"github.com/raykavin/niftybot/core"
)

// SQLStorage implements core.TradeStorage on a SQL database via GORM. The
// caller supplies the dialector, so any GORM-supported database works.
type SQLStorage struct {
	db *gorm.DB
}

// Config holds the configuration for SQL database connections
type Config struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// DefaultConfig returns a default configuration for SQL connections
func DefaultConfig() Config {
	return Config{
		MaxIdleConns:    5,
		MaxOpenConns:    10,
		ConnMaxLifetime: time.Hour,
	}
}

// NewSQL opens the database behind dialect and migrates the trade and
// strategy tables.
func NewSQL(dialect gorm.Dialector, config Config, opts ...gorm.Option) (*SQLStorage, error) {
	db, err := gorm.Open(dialect, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(config.ConnMaxLifetime)

	if err = db.AutoMigrate(&core.TradeRecord{}, &core.StrategyConfig{}); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLStorage{db: db}, nil
}

// CreateTrade stores a new trade record
func (s *SQLStorage) CreateTrade(ctx context.Context, trade *core.TradeRecord) error {
	tx := s.db.WithContext(ctx)
	if result := tx.Create(trade); result.Error != nil {
		return fmt.Errorf("failed to create trade: %w", result.Error)
	}
	return nil
}

// Trades retrieves trade records matching all provided filters, oldest first.
// Filters are arbitrary predicates, so they run in memory over the fetched
// rows rather than in SQL.
func (s *SQLStorage) Trades(ctx context.Context, filters ...core.TradeFilter) ([]*core.TradeRecord, error) {
	tx := s.db.WithContext(ctx)

	var trades []*core.TradeRecord
	result := tx.Order("created_at").Find(&trades)
	if result.Error != nil && !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to fetch trades: %w", result.Error)
	}

	if len(filters) > 0 {
		trades = lo.Filter(trades, func(trade *core.TradeRecord, _ int) bool {
			for _, filter := range filters {
				if !filter(*trade) {
					return false
				}
			}
			return true
		})
	}

	return trades, nil
}

// SeedStrategies inserts the given names as active configurations. It is a
// no-op when any strategy row already exists, so user toggles survive
// restarts.
func (s *SQLStorage) SeedStrategies(ctx context.Context, names []string) error {
	tx := s.db.WithContext(ctx)

	var count int64
	if result := tx.Model(&core.StrategyConfig{}).Count(&count); result.Error != nil {
		return fmt.Errorf("failed to count strategies: %w", result.Error)
	}
	if count > 0 {
		return nil
	}

	now := time.Now()
	configs := lo.Map(names, func(name string, _ int) core.StrategyConfig {
		return core.StrategyConfig{Name: name, Active: true, CreatedAt: now}
	})

	if result := tx.Create(&configs); result.Error != nil {
		return fmt.Errorf("failed to seed strategies: %w", result.Error)
	}
	return nil
}

// StrategyConfigs returns every stored strategy row in insertion order
func (s *SQLStorage) StrategyConfigs(ctx context.Context) ([]*core.StrategyConfig, error) {
	tx := s.db.WithContext(ctx)

	var configs []*core.StrategyConfig
	result := tx.Order("id").Find(&configs)
	if result.Error != nil && !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to fetch strategies: %w", result.Error)
	}
	return configs, nil
}

// ActiveStrategyNames returns the names of all active strategy configurations
func (s *SQLStorage) ActiveStrategyNames(ctx context.Context) ([]string, error) {
	tx := s.db.WithContext(ctx)

	var names []string
	result := tx.Model(&core.StrategyConfig{}).
		Where("active = ?", true).
		Order("id").
		Pluck("name", &names)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to fetch active strategies: %w", result.Error)
	}
	return names, nil
}

// SetStrategyActive flips the active flag on the named strategy
func (s *SQLStorage) SetStrategyActive(ctx context.Context, name string, active bool) error {
	tx := s.db.WithContext(ctx)

	result := tx.Model(&core.StrategyConfig{}).
		Where("name = ?", name).
		Update("active", active)
	if result.Error != nil {
		return fmt.Errorf("failed to update strategy %s: %w", name, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("strategy %q not found", name)
	}
	return nil
}

// WithTransaction executes the given function within a database transaction
func (s *SQLStorage) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(fn)
}

// Close closes the database connection
func (s *SQLStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.Close()
}
