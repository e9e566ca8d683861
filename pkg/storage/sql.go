package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/raykavin/orbrun/pkg/gate"
	"github.com/raykavin/orbrun/pkg/simulator"
	"github.com/samber/lo"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// SQLStorage keeps records in a SQL database via GORM
type SQLStorage struct {
	db *gorm.DB
}

// FromSQL creates a storage on any GORM dialect
func FromSQL(dialect gorm.Dialector, opts ...gorm.Option) (*SQLStorage, error) {
	db, err := gorm.Open(dialect, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&TradeRecord{}, &DecisionRecord{}); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return &SQLStorage{db: db}, nil
}

// FromSQLite opens or creates a SQLite file
func FromSQLite(path string) (*SQLStorage, error) {
	return FromSQL(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}

// SaveTrade inserts trade or replaces the row with the same ID
func (s *SQLStorage) SaveTrade(trade simulator.Trade) error {
	record := newTradeRecord(trade)
	result := s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&record)
	if result.Error != nil {
		return fmt.Errorf("failed to store trade: %w", result.Error)
	}
	return nil
}

// SaveDecision appends a gate decision
func (s *SQLStorage) SaveDecision(day time.Time, decision gate.Decision) error {
	record := newDecisionRecord(day, decision)
	if result := s.db.Create(&record); result.Error != nil {
		return fmt.Errorf("failed to store decision: %w", result.Error)
	}
	return nil
}

// Trades returns stored trades ordered by day
func (s *SQLStorage) Trades(filters ...TradeFilter) ([]simulator.Trade, error) {
	return s.TradesWithQuery(func(db *gorm.DB) *gorm.DB { return db }, filters...)
}

// TradesWithQuery narrows the rows with a GORM query before filters apply
func (s *SQLStorage) TradesWithQuery(query func(*gorm.DB) *gorm.DB, filters ...TradeFilter) ([]simulator.Trade, error) {
	var records []TradeRecord
	result := query(s.db).Order("day, id").Find(&records)
	if result.Error != nil && !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to fetch trades: %w", result.Error)
	}

	trades := make([]simulator.Trade, 0, len(records))
	for _, record := range records {
		trade, err := record.Trade()
		if err != nil {
			return nil, fmt.Errorf("trade %s: %w", record.ID, err)
		}
		trades = append(trades, trade)
	}

	return lo.Filter(trades, func(t simulator.Trade, _ int) bool {
		return matchTrade(t, filters)
	}), nil
}

// Decisions returns stored decisions ordered by day
func (s *SQLStorage) Decisions(filters ...DecisionFilter) ([]DecisionEntry, error) {
	var records []DecisionRecord
	result := s.db.Order("day, id").Find(&records)
	if result.Error != nil && !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to fetch decisions: %w", result.Error)
	}

	entries := make([]DecisionEntry, 0, len(records))
	for _, record := range records {
		entry, err := record.Entry()
		if err != nil {
			return nil, fmt.Errorf("decision %d: %w", record.ID, err)
		}
		if matchDecision(entry, filters) {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// WithTransaction executes fn within a database transaction
func (s *SQLStorage) WithTransaction(fn func(tx *gorm.DB) error) error {
	return s.db.Transaction(fn)
}

// Close closes the database connection
func (s *SQLStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.Close()
}

var (
	_ Storage = (*SQLStorage)(nil)
	_ Storage = (*BuntStorage)(nil)
)
