package backtest

import (
	"fmt"
	"time"

	"github.com/raykavin/orbrun/pkg/core"
	"github.com/raykavin/orbrun/pkg/gate"
	"github.com/raykavin/orbrun/pkg/marketctx"
	"github.com/raykavin/orbrun/pkg/orb"
	"github.com/raykavin/orbrun/pkg/simulator"
)

// DayState is where the processing of a day stopped
type DayState int

const (
	StateNoRange DayState = iota
	StateRangeFormed
	StateAwaitingBreakout
	StateSignalFound
	StateGated
	// StateRejected is an admitted signal the simulator could not size
	StateRejected
	StateResolved
	StateFault
)

var stateNames = map[DayState]string{
	StateNoRange:          "no_range",
	StateRangeFormed:      "range_formed",
	StateAwaitingBreakout: "awaiting_breakout",
	StateSignalFound:      "signal_found",
	StateGated:            "gated",
	StateRejected:         "rejected",
	StateResolved:         "resolved",
	StateFault:            "fault",
}

func (s DayState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("DayState(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler
func (s DayState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// DayReport summarises one trading day
type DayReport struct {
	Day      time.Time
	State    DayState
	Range    *orb.OpeningRange
	Signal   *orb.Signal
	Decision *gate.Decision
	TradeID  string
	Note     string
}

// dayRun carries the inputs and outputs of one day through the phases
type dayRun struct {
	engine   *Engine
	day      time.Time
	candles  []core.Candle
	equity   float64
	report   DayReport
	decision *gate.Decision
	trade    *simulator.Trade
}

// phase is a step of the per day state machine. next returns nil once
// the day is finished.
type phase interface {
	state() DayState
	next(r *dayRun) (phase, error)
}

type noRange struct{}

func (noRange) state() DayState { return StateNoRange }

func (noRange) next(r *dayRun) (phase, error) {
	session := r.engine.settings.Session

	rng, ok, err := orb.DetectRange(r.day, r.candles, session)
	if err != nil {
		return nil, err
	}

	day := core.TimeframeSeries{Timeframe: core.M15, Candles: r.candles}
	if err := day.Validate(); err != nil {
		return nil, err
	}

	if !ok {
		return nil, nil
	}
	r.report.Range = &rng
	return rangeFormed{rng: rng}, nil
}

type rangeFormed struct {
	rng orb.OpeningRange
}

func (rangeFormed) state() DayState { return StateRangeFormed }

func (p rangeFormed) next(r *dayRun) (phase, error) {
	s := r.engine.settings
	switch {
	case s.MinRangePoints > 0 && p.rng.Size < s.MinRangePoints:
		r.report.Note = fmt.Sprintf("range %.2f below minimum %.2f", p.rng.Size, s.MinRangePoints)
		return nil, nil
	case s.MaxRangePoints > 0 && p.rng.Size > s.MaxRangePoints:
		r.report.Note = fmt.Sprintf("range %.2f above maximum %.2f", p.rng.Size, s.MaxRangePoints)
		return nil, nil
	}
	return awaitingBreakout(p), nil
}

type awaitingBreakout struct {
	rng orb.OpeningRange
}

func (awaitingBreakout) state() DayState { return StateAwaitingBreakout }

func (p awaitingBreakout) next(r *dayRun) (phase, error) {
	signal, ok := r.engine.classifier.Classify(p.rng, r.candles)
	if !ok {
		return nil, nil
	}
	r.report.Signal = &signal
	return signalFound{rng: p.rng, signal: signal}, nil
}

type signalFound struct {
	rng    orb.OpeningRange
	signal orb.Signal
}

func (signalFound) state() DayState { return StateSignalFound }

func (p signalFound) next(r *dayRun) (phase, error) {
	e := r.engine
	snap := e.analyzer.Snapshot(r.day, e.settings.Session.OpenAt(r.day))
	decision := gate.Admit(p.signal, snap, p.rng, e.settings.Policy, e.settings.Thresholds)

	r.decision = &decision
	r.report.Decision = &decision
	if !snap.Available {
		r.report.Note = snap.Reason
	}
	return gated{rng: p.rng, signal: p.signal, decision: decision, snap: snap}, nil
}

type gated struct {
	rng      orb.OpeningRange
	signal   orb.Signal
	decision gate.Decision
	snap     marketctx.Snapshot
}

func (gated) state() DayState { return StateGated }

func (p gated) next(r *dayRun) (phase, error) {
	if !p.decision.Admitted {
		return nil, nil
	}

	ctx := simulator.NewContext(p.decision, p.snap, p.rng.Size)
	trade, err := r.engine.simulator.Simulate(p.signal, p.rng, ctx, r.equity)
	if err != nil {
		r.report.Note = err.Error()
		return rejected{}, nil
	}

	r.trade = &trade
	r.report.TradeID = trade.ID
	return resolved{trade: trade}, nil
}

type rejected struct{}

func (rejected) state() DayState { return StateRejected }

func (rejected) next(*dayRun) (phase, error) { return nil, nil }

type resolved struct {
	trade simulator.Trade
}

func (resolved) state() DayState { return StateResolved }

func (resolved) next(*dayRun) (phase, error) { return nil, nil }

// run drives the phases until one finishes the day
func (r *dayRun) run() error {
	var p phase = noRange{}
	for {
		nxt, err := p.next(r)
		if err != nil {
			r.report.State = StateFault
			r.report.Note = err.Error()
			return err
		}
		if nxt == nil {
			r.report.State = p.state()
			return nil
		}
		p = nxt
	}
}
