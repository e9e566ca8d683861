// Package storage persists simulated trades and gate decisions
package storage

import (
	"time"

	"github.com/raykavin/orbrun/pkg/backtest"
	"github.com/raykavin/orbrun/pkg/core"
	"github.com/raykavin/orbrun/pkg/gate"
	"github.com/raykavin/orbrun/pkg/simulator"
)

// Storage records the output of a run and reads it back
type Storage interface {
	backtest.Recorder
	Trades(filters ...TradeFilter) ([]simulator.Trade, error)
	Decisions(filters ...DecisionFilter) ([]DecisionEntry, error)
	Close() error
}

// DecisionEntry is a gate decision together with its trading day
type DecisionEntry struct {
	Day      time.Time
	Decision gate.Decision
}

// TradeFilter selects trades when reading
type TradeFilter func(simulator.Trade) bool

// DecisionFilter selects decisions when reading
type DecisionFilter func(DecisionEntry) bool

// WithOutcome keeps trades with the given outcome
func WithOutcome(outcome simulator.Outcome) TradeFilter {
	return func(t simulator.Trade) bool { return t.Outcome == outcome }
}

// WithSetup keeps trades of the given setup
func WithSetup(setup core.SetupType) TradeFilter {
	return func(t simulator.Trade) bool { return t.Setup == setup }
}

// WithTradeReason keeps trades admitted for the given reason
func WithTradeReason(reason gate.Reason) TradeFilter {
	return func(t simulator.Trade) bool { return t.Context.Reason == reason }
}

// TradesBetween keeps trades whose day lies in [from, to]
func TradesBetween(from, to time.Time) TradeFilter {
	return func(t simulator.Trade) bool { return !t.Day.Before(from) && !t.Day.After(to) }
}

// WithReason keeps decisions with the given reason
func WithReason(reason gate.Reason) DecisionFilter {
	return func(e DecisionEntry) bool { return e.Decision.Reason == reason }
}

// OnlyBlocked keeps rejected signals
func OnlyBlocked() DecisionFilter {
	return func(e DecisionEntry) bool { return !e.Decision.Admitted }
}

func matchTrade(t simulator.Trade, filters []TradeFilter) bool {
	for _, filter := range filters {
		if !filter(t) {
			return false
		}
	}
	return true
}

func matchDecision(e DecisionEntry, filters []DecisionFilter) bool {
	for _, filter := range filters {
		if !filter(e) {
			return false
		}
	}
	return true
}
