package metric

import (
	"testing"
	"time"

	"github.com/raykavin/orbrun/pkg/backtest"
	"github.com/raykavin/orbrun/pkg/core"
	"github.com/raykavin/orbrun/pkg/gate"
	"github.com/raykavin/orbrun/pkg/simulator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day0 = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

func trade(day int, outcome simulator.Outcome, setup core.SetupType, pnlPoints, pnl float64) simulator.Trade {
	return simulator.Trade{
		Day:        day0.AddDate(0, 0, day),
		Setup:      setup,
		Outcome:    outcome,
		RiskPoints: 10,
		PnLPoints:  pnlPoints,
		PnL:        pnl,
	}
}

func sampleResult() *backtest.Result {
	trades := []simulator.Trade{
		trade(0, simulator.Win, core.Breakout, 20, 200),
		trade(1, simulator.Loss, core.Breakout, -10, -100),
		trade(2, simulator.Win, core.Fakeout, 10, 100),
		trade(3, simulator.Unresolved, core.Breakout, 0, 0),
		trade(4, simulator.Loss, core.Breakout, -10, -100),
	}

	equity := []backtest.EquityPoint{
		{Time: day0, Equity: 10200},
		{Time: day0.AddDate(0, 0, 1), Equity: 10100},
		{Time: day0.AddDate(0, 0, 2), Equity: 10200},
		{Time: day0.AddDate(0, 0, 4), Equity: 10100},
	}

	decisions := []gate.Decision{
		{Admitted: true, Reason: gate.ReasonAligned},
		{Admitted: true, Reason: gate.ReasonAligned},
		{Admitted: true, Reason: gate.ReasonSoftMixed1H},
		{Admitted: false, Reason: gate.ReasonSoftMixedUnconfirmed},
		{Admitted: true, Reason: gate.ReasonContextUnavailable},
		{Admitted: true, Reason: gate.ReasonAligned},
	}

	return &backtest.Result{
		Symbol:         "GER40",
		Policy:         gate.Soft,
		EnableFakeouts: true,
		InitialEquity:  10000,
		FinalEquity:    10100,
		Trades:         trades,
		Decisions:      decisions,
		Equity:         equity,
	}
}

func TestSummaryCounts(t *testing.T) {
	s := Summarize(sampleResult())

	assert.Equal(t, "soft+fakeouts", s.Label)
	assert.Len(t, s.Win(), 2)
	assert.Len(t, s.Lose(), 2)
	assert.Equal(t, 1, s.Unresolved())
	assert.Equal(t, 4, s.Resolved())
	assert.Equal(t, 1, s.SetupCount(core.Fakeout))
	assert.Equal(t, 4, s.SetupCount(core.Breakout))
	assert.Equal(t, 1, s.Blocked())
}

func TestSummaryRatios(t *testing.T) {
	s := Summarize(sampleResult())

	assert.InDelta(t, 100, s.Profit(), 1e-9)
	assert.InDelta(t, 1, s.ReturnPercent(), 1e-9)
	// unresolved trades do not dilute the win rate
	assert.InDelta(t, 50, s.WinPercentage(), 1e-9)
	assert.InDelta(t, 1.5, s.Payoff(), 1e-9)
	assert.InDelta(t, 1.5, s.ProfitFactor(), 1e-9)
	assert.Equal(t, []float64{2, -1, 1, -1}, s.RMultiples())
	assert.InDelta(t, 0.25, s.Expectancy(), 1e-9)
	assert.Greater(t, s.SQN(), 0.0)
}

func TestSummaryEmpty(t *testing.T) {
	s := Summarize(&backtest.Result{InitialEquity: 1000, FinalEquity: 1000})

	assert.Zero(t, s.WinPercentage())
	assert.Zero(t, s.Payoff())
	assert.Zero(t, s.ProfitFactor())
	assert.Zero(t, s.SQN())
	assert.Zero(t, s.Expectancy())
	assert.Equal(t, Drawdown{}, s.MaxDrawdown())
	assert.Empty(t, s.ReasonCounts())
}

func TestMaxDrawdown(t *testing.T) {
	dd := Summarize(sampleResult()).MaxDrawdown()

	assert.InDelta(t, 100, dd.Value, 1e-9)
	assert.InDelta(t, 100.0/10200*100, dd.Percent, 1e-9)
	assert.Equal(t, day0, dd.Peak)
	assert.Equal(t, day0.AddDate(0, 0, 1), dd.Trough)
}

func TestReasonCounts(t *testing.T) {
	counts := Summarize(sampleResult()).ReasonCounts()

	require.Len(t, counts, 4)
	assert.Equal(t, ReasonCount{gate.ReasonAligned, 3}, counts[0])
	assert.Equal(t, ReasonCount{gate.ReasonContextUnavailable, 1}, counts[1])
	assert.Equal(t, ReasonCount{gate.ReasonSoftMixed1H, 1}, counts[2])
	assert.Equal(t, ReasonCount{gate.ReasonSoftMixedUnconfirmed, 1}, counts[3])
}

func TestMedian(t *testing.T) {
	assert.Zero(t, Median(nil))
	assert.InDelta(t, 2, Median([]float64{3, 1, 2}), 1e-9)
	assert.InDelta(t, 2.5, Median([]float64{4, 1, 3, 2}), 1e-9)
}

func TestBootstrap(t *testing.T) {
	constant := []float64{1, 1, 1, 1}
	interval := Bootstrap(constant, average, 50, 0.95)
	assert.InDelta(t, 1, interval.Mean, 1e-9)
	assert.InDelta(t, 1, interval.Lower, 1e-9)
	assert.InDelta(t, 1, interval.Upper, 1e-9)

	assert.Equal(t, BootstrapInterval{}, Bootstrap(nil, average, 10, 0.95))

	values := []float64{2, -1, 1, -1, 2, -1, 1, 1}
	interval = Bootstrap(values, average, 500, 0.9)
	assert.LessOrEqual(t, interval.Lower, interval.Upper)
	assert.True(t, interval.Contains(interval.Mean))
	assert.GreaterOrEqual(t, interval.Lower, -1.0)
	assert.LessOrEqual(t, interval.Upper, 2.0)

	ci := Summarize(sampleResult()).ExpectancyInterval(200, 0.95)
	assert.GreaterOrEqual(t, ci.Lower, -1.0)
	assert.LessOrEqual(t, ci.Upper, 2.0)
}

func TestMeasures(t *testing.T) {
	values := []float64{2, -1, 1, -1}
	assert.InDelta(t, 0.25, Mean(values), 1e-9)
	assert.InDelta(t, 1.5, Payoff(values), 1e-9)
	assert.InDelta(t, 1.5, ProfitFactor(values), 1e-9)
	assert.Zero(t, Payoff([]float64{1, 2}))
	assert.Zero(t, ProfitFactor([]float64{1, 2}))
}
