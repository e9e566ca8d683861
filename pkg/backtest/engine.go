// Package backtest runs the opening range breakout pipeline over every
// trading day in chronological order.
package backtest

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/StudioSol/set"
	"github.com/raykavin/orbrun/pkg/core"
	"github.com/raykavin/orbrun/pkg/gate"
	"github.com/raykavin/orbrun/pkg/logger"
	"github.com/raykavin/orbrun/pkg/marketctx"
	"github.com/raykavin/orbrun/pkg/orb"
	"github.com/raykavin/orbrun/pkg/simulator"
	"github.com/schollz/progressbar/v3"
)

const dayLayout = "2006-01-02"

// Recorder persists trades and gate decisions as they are produced
type Recorder interface {
	SaveTrade(trade simulator.Trade) error
	SaveDecision(day time.Time, decision gate.Decision) error
}

// Engine processes days sequentially. Equity is carried from one day to
// the next, so day order matters.
type Engine struct {
	settings   Settings
	data       core.MarketData
	analyzer   *marketctx.Analyzer
	classifier orb.Classifier
	simulator  *simulator.Simulator

	log      logger.Logger
	recorder Recorder
	progress bool
}

// New validates settings and data and prepares an engine
func New(settings Settings, data core.MarketData, options ...Option) (*Engine, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	intraday := data.Get(core.M15)
	if intraday.Len() == 0 {
		return nil, core.NewDataIntegrityError(core.M15, time.Time{}, "no intraday candles")
	}
	if err := intraday.ValidateOrder(); err != nil {
		return nil, err
	}
	for _, s := range data.Higher() {
		if err := s.Validate(); err != nil {
			return nil, err
		}
	}

	settings.Simulator.Session = settings.Session

	e := &Engine{
		settings: settings,
		data:     data,
		log:      logger.Nop(),
	}
	for _, option := range options {
		option(e)
	}

	if e.analyzer == nil {
		e.analyzer = marketctx.NewAnalyzer(settings.Context, data.Higher()...)
	}
	e.classifier = orb.Classifier{
		Session:          settings.Session,
		EnableFakeouts:   settings.EnableFakeouts,
		Trend:            e.analyzer,
		ReversalStrength: settings.Context.MinVoteStrength,
	}
	e.simulator = simulator.New(settings.Simulator, intraday)

	return e, nil
}

// Settings returns the run configuration
func (e *Engine) Settings() Settings { return e.settings }

// Run processes every day. Data faults on a day are recorded and the day
// is excluded. The context is checked between days.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	days, candles := e.tradingDays()

	result := &Result{
		Symbol:         e.data.Symbol,
		Policy:         e.settings.Policy,
		EnableFakeouts: e.settings.EnableFakeouts,
		InitialEquity:  e.settings.InitialEquity,
		FinalEquity:    e.settings.InitialEquity,
		Equity:         []EquityPoint{{Time: days[0], Equity: e.settings.InitialEquity}},
	}

	var bar *progressbar.ProgressBar
	if e.progress {
		bar = progressbar.Default(int64(len(days)))
	}

	book := &ledger{equity: e.settings.InitialEquity}
	for _, day := range days {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		run := &dayRun{
			engine:  e,
			day:     day,
			candles: candles[day.Format(dayLayout)],
			equity:  book.equity,
			report:  DayReport{Day: day},
		}

		log := e.log.WithField("day", day.Format(dayLayout))
		if err := run.run(); err != nil {
			log.WithError(err).Warn("day excluded")
			result.Faults = append(result.Faults, fmt.Errorf("%s: %w", day.Format(dayLayout), err))
		}

		if err := e.fold(result, run, book); err != nil {
			return result, err
		}

		log.WithField("state", run.report.State).Debug(run.report.Note)

		if bar != nil {
			if err := bar.Add(1); err != nil {
				e.log.Warnf("update progressbar fail: %v", err)
			}
		}
	}

	result.FinalEquity = book.equity
	e.log.WithFields(map[string]any{
		"days":   len(days),
		"trades": len(result.Trades),
		"equity": fmt.Sprintf("%.2f", book.equity),
	}).Info("backtest finished")

	return result, nil
}

// ledger is the engine owned equity. Resolved trades wait in open until
// the day they exit is folded, so sizing never sees unrealized profit.
type ledger struct {
	equity float64
	open   []simulator.Trade
}

// settle credits, in exit order, every open trade that exited on or before day
func (l *ledger) settle(result *Result, day time.Time) {
	var due, pending []simulator.Trade
	for _, t := range l.open {
		if core.DayOf(t.ExitTime).After(day) {
			pending = append(pending, t)
			continue
		}
		due = append(due, t)
	}
	l.open = pending

	sort.SliceStable(due, func(i, j int) bool { return due[i].ExitTime.Before(due[j].ExitTime) })
	for _, t := range due {
		l.equity += t.PnL
		result.Equity = append(result.Equity, EquityPoint{Time: t.ExitTime, Equity: l.equity})
	}
}

// fold appends the day's outputs and settles the trades exiting that day.
// It runs after the day, so the next day sizes from the settled equity.
func (e *Engine) fold(result *Result, run *dayRun, book *ledger) error {
	result.Days = append(result.Days, run.report)

	if run.decision != nil {
		result.Decisions = append(result.Decisions, *run.decision)
		if e.recorder != nil {
			if err := e.recorder.SaveDecision(run.day, *run.decision); err != nil {
				return fmt.Errorf("record decision: %w", err)
			}
		}
	}

	if run.trade != nil {
		trade := *run.trade
		result.Trades = append(result.Trades, trade)
		if e.recorder != nil {
			if err := e.recorder.SaveTrade(trade); err != nil {
				return fmt.Errorf("record trade: %w", err)
			}
		}
		if trade.Resolved() {
			book.open = append(book.open, trade)
		}
	}

	book.settle(result, run.day)
	return nil
}

// tradingDays groups intraday candles by UTC date. New has checked the
// series order, so first seen order is chronological.
func (e *Engine) tradingDays() ([]time.Time, map[string][]core.Candle) {
	keys := set.NewLinkedHashSetString()
	byDay := make(map[string][]core.Candle)

	for _, c := range e.data.Get(core.M15).Candles {
		key := c.Day().Format(dayLayout)
		keys.Add(key)
		byDay[key] = append(byDay[key], c)
	}

	var days []time.Time
	for key := range keys.Iter() {
		day, err := time.Parse(dayLayout, key)
		if err != nil {
			continue
		}
		days = append(days, day)
	}
	return days, byDay
}
