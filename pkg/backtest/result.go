package backtest

import (
	"time"

	"github.com/raykavin/orbrun/pkg/gate"
	"github.com/raykavin/orbrun/pkg/simulator"
)

// EquityPoint is the account value after a resolved trade
type EquityPoint struct {
	Time   time.Time
	Equity float64
}

// Result is the append only output of a run
type Result struct {
	Symbol         string
	Policy         gate.Policy
	EnableFakeouts bool

	InitialEquity float64
	FinalEquity   float64

	Trades    []simulator.Trade
	Decisions []gate.Decision
	Days      []DayReport
	Equity    []EquityPoint
	Faults    []error
}

// Label names the run for comparisons
func (r *Result) Label() string {
	if r.EnableFakeouts {
		return r.Policy.String() + "+fakeouts"
	}
	return r.Policy.String()
}

// Blocked returns the decisions that rejected a signal
func (r *Result) Blocked() []gate.Decision {
	var out []gate.Decision
	for _, d := range r.Decisions {
		if !d.Admitted {
			out = append(out, d)
		}
	}
	return out
}

// DaysIn counts days that finished in state
func (r *Result) DaysIn(state DayState) int {
	n := 0
	for _, d := range r.Days {
		if d.State == state {
			n++
		}
	}
	return n
}
