package storage

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/raykavin/orbrun/pkg/gate"
	"github.com/raykavin/orbrun/pkg/simulator"
	"github.com/tidwall/buntdb"
)

const (
	tradeIndex    = "trade_day"
	decisionIndex = "decision_day"
)

// BuntStorage keeps records as JSON documents in BuntDB
type BuntStorage struct {
	lastID int64
	db     *buntdb.DB
}

// FromMemory creates an in-memory storage
func FromMemory() (*BuntStorage, error) {
	return NewBuntStorage(":memory:")
}

// FromFile creates a file-based storage
func FromFile(file string) (*BuntStorage, error) {
	return NewBuntStorage(file)
}

// NewBuntStorage opens sourceFile and creates the day indexes
func NewBuntStorage(sourceFile string) (*BuntStorage, error) {
	db, err := buntdb.Open(sourceFile)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open buntdb")
	}

	for name, pattern := range map[string]string{tradeIndex: "trade:*", decisionIndex: "decision:*"} {
		if err := db.CreateIndex(name, pattern, buntdb.IndexJSON("Day")); err != nil {
			db.Close()
			return nil, errors.Wrap(err, "failed to create index")
		}
	}

	storage := &BuntStorage{db: db}
	err = db.View(func(tx *buntdb.Tx) error {
		n, err := tx.Len()
		storage.lastID = int64(n)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return storage, nil
}

func (b *BuntStorage) nextID() int64 {
	return atomic.AddInt64(&b.lastID, 1)
}

// SaveTrade stores trade under its ID, replacing an earlier version
func (b *BuntStorage) SaveTrade(trade simulator.Trade) error {
	content, err := json.Marshal(trade)
	if err != nil {
		return errors.Wrap(err, "failed to marshal trade")
	}

	return b.db.Update(func(tx *buntdb.Tx) error {
		if _, _, err := tx.Set("trade:"+trade.ID, string(content), nil); err != nil {
			return errors.Wrap(err, "failed to store trade")
		}
		return nil
	})
}

// SaveDecision appends a gate decision
func (b *BuntStorage) SaveDecision(day time.Time, decision gate.Decision) error {
	content, err := json.Marshal(DecisionEntry{Day: day, Decision: decision})
	if err != nil {
		return errors.Wrap(err, "failed to marshal decision")
	}

	return b.db.Update(func(tx *buntdb.Tx) error {
		key := fmt.Sprintf("decision:%s:%08d", day.Format("20060102"), b.nextID())
		if _, _, err := tx.Set(key, string(content), nil); err != nil {
			return errors.Wrap(err, "failed to store decision")
		}
		return nil
	})
}

// Trades returns stored trades ordered by day
func (b *BuntStorage) Trades(filters ...TradeFilter) ([]simulator.Trade, error) {
	trades := make([]simulator.Trade, 0)
	err := b.ascend(tradeIndex, func(value string) error {
		var trade simulator.Trade
		if err := json.Unmarshal([]byte(value), &trade); err != nil {
			return errors.Wrap(err, "failed to unmarshal trade")
		}
		if matchTrade(trade, filters) {
			trades = append(trades, trade)
		}
		return nil
	})
	return trades, err
}

// Decisions returns stored decisions ordered by day
func (b *BuntStorage) Decisions(filters ...DecisionFilter) ([]DecisionEntry, error) {
	entries := make([]DecisionEntry, 0)
	err := b.ascend(decisionIndex, func(value string) error {
		var entry DecisionEntry
		if err := json.Unmarshal([]byte(value), &entry); err != nil {
			return errors.Wrap(err, "failed to unmarshal decision")
		}
		if matchDecision(entry, filters) {
			entries = append(entries, entry)
		}
		return nil
	})
	return entries, err
}

func (b *BuntStorage) ascend(index string, fn func(value string) error) error {
	return b.db.View(func(tx *buntdb.Tx) error {
		var iterErr error
		err := tx.Ascend(index, func(_, value string) bool {
			iterErr = fn(value)
			return iterErr == nil
		})
		if err != nil {
			return errors.Wrapf(err, "failed to iterate over %s", index)
		}
		return iterErr
	})
}

// Close closes the database
func (b *BuntStorage) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}
