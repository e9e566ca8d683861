package backtest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/raykavin/orbrun/pkg/core"
	"github.com/raykavin/orbrun/pkg/gate"
	"github.com/raykavin/orbrun/pkg/simulator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var monday = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

// ohlc is open, high, low, close
type ohlc [4]float64

var (
	rangeBar  = ohlc{97, 100, 95, 98}
	insideBar = ohlc{98, 99, 96, 97}
	buyBar    = ohlc{98, 101.5, 97.5, 101}
	targetBar = ohlc{101, 110.5, 100, 110}
)

// session builds consecutive 15m candles starting at 07:00 on day
func session(day time.Time, bars ...ohlc) []core.Candle {
	out := make([]core.Candle, 0, len(bars))
	for i, b := range bars {
		out = append(out, core.Candle{
			Time: day.Add(7*time.Hour + time.Duration(i)*15*time.Minute),
			Open: b[0], High: b[1], Low: b[2], Close: b[3],
		})
	}
	return out
}

func intraday(days ...[]core.Candle) core.MarketData {
	s := &core.TimeframeSeries{Timeframe: core.M15}
	for _, d := range days {
		s.Candles = append(s.Candles, d...)
	}
	return core.NewMarketData("GER40", s)
}

func falling(tf core.Timeframe, end time.Time, n int) *core.TimeframeSeries {
	s := &core.TimeframeSeries{Timeframe: tf}
	price := 2000.0
	for i := 0; i < n; i++ {
		next := price - 10
		s.Candles = append(s.Candles, core.Candle{
			Time:  end.Add(-time.Duration(n-i) * tf.Duration()),
			Open:  price,
			High:  price + 1,
			Low:   next - 1,
			Close: next,
		})
		price = next
	}
	return s
}

type memoryRecorder struct {
	trades    []simulator.Trade
	decisions []gate.Decision
	fail      error
}

func (m *memoryRecorder) SaveTrade(trade simulator.Trade) error {
	m.trades = append(m.trades, trade)
	return m.fail
}

func (m *memoryRecorder) SaveDecision(_ time.Time, decision gate.Decision) error {
	m.decisions = append(m.decisions, decision)
	return nil
}

func run(t *testing.T, settings Settings, data core.MarketData, options ...Option) *Result {
	t.Helper()
	engine, err := New(settings, data, options...)
	require.NoError(t, err)

	result, err := engine.Run(context.Background())
	require.NoError(t, err)
	return result
}

func TestEngine_SingleEntryPerDay(t *testing.T) {
	var days [][]core.Candle
	for i := 0; i < 5; i++ {
		day := monday.AddDate(0, 0, i)
		days = append(days, session(day, rangeBar, insideBar, buyBar, buyBar, ohlc{101, 102, 100, 101.5}, buyBar))
	}

	result := run(t, DefaultSettings(), intraday(days...))

	assert.Len(t, result.Days, 5)
	assert.Len(t, result.Trades, 5)
	assert.Len(t, result.Decisions, 5)

	seen := map[time.Time]bool{}
	for _, trade := range result.Trades {
		assert.False(t, seen[trade.Day], "second trade on %s", trade.Day)
		seen[trade.Day] = true
	}
	for _, d := range result.Decisions {
		assert.Equal(t, gate.ReasonContextUnavailable, d.Reason)
	}
}

func TestEngine_EquityCarriesToNextDay(t *testing.T) {
	data := intraday(
		session(monday, rangeBar, insideBar, buyBar, targetBar),
		session(monday.AddDate(0, 0, 1), rangeBar, insideBar, buyBar, targetBar),
	)

	result := run(t, DefaultSettings(), data)
	require.Len(t, result.Trades, 2)

	first, second := result.Trades[0], result.Trades[1]
	assert.Equal(t, simulator.Win, first.Outcome)
	assert.Equal(t, 100.0, first.RiskAmount)
	assert.Equal(t, 11.11, first.Size)
	assert.Equal(t, 99.99, first.PnL)

	assert.InDelta(t, 100.9999, second.RiskAmount, 1e-9)
	assert.Equal(t, 11.22, second.Size)

	assert.InDelta(t, 10000+99.99+second.PnL, result.FinalEquity, 1e-9)
	require.Len(t, result.Equity, 3)
	assert.Equal(t, 10000.0, result.Equity[0].Equity)
	assert.InDelta(t, 10099.99, result.Equity[1].Equity, 1e-9)
}

func TestEngine_OvernightTradeCreditedOnExitDay(t *testing.T) {
	tuesday := monday.AddDate(0, 0, 1)
	data := intraday(
		session(monday, rangeBar, insideBar, buyBar, insideBar, insideBar),
		session(tuesday, rangeBar, insideBar, buyBar, targetBar),
	)

	settings := DefaultSettings()
	settings.Simulator.HoldOvernight = true
	result := run(t, settings, data)
	require.Len(t, result.Trades, 2)

	held, next := result.Trades[0], result.Trades[1]
	assert.Equal(t, monday, held.Day)
	assert.Equal(t, simulator.Win, held.Outcome)
	assert.Equal(t, tuesday.Add(7*time.Hour+45*time.Minute), held.ExitTime)

	// the held trade was still open when tuesday sized its entry
	assert.Equal(t, 100.0, next.RiskAmount)
	assert.Equal(t, 11.11, next.Size)

	require.Len(t, result.Equity, 3)
	assert.Equal(t, held.ExitTime, result.Equity[1].Time)
	assert.InDelta(t, 10099.99, result.Equity[1].Equity, 1e-9)
	assert.InDelta(t, 10000+held.PnL+next.PnL, result.FinalEquity, 1e-9)
}

func TestEngine_RejectedTrade(t *testing.T) {
	settings := DefaultSettings()
	settings.Simulator.Sizing = simulator.SizingFixed
	settings.Simulator.RiskValue = 0.001

	result := run(t, settings, intraday(session(monday, rangeBar, insideBar, buyBar, targetBar)))

	require.Len(t, result.Decisions, 1)
	assert.True(t, result.Decisions[0].Admitted)
	assert.Empty(t, result.Trades)
	assert.Equal(t, StateRejected, result.Days[0].State)
	assert.Contains(t, result.Days[0].Note, "position rounds to zero")
	assert.Equal(t, 1, result.DaysIn(StateRejected))
	assert.Equal(t, 10000.0, result.FinalEquity)
}

func TestEngine_NoBreakoutDay(t *testing.T) {
	data := intraday(session(monday, rangeBar, insideBar, insideBar, ohlc{97, 100, 95.5, 99}))

	result := run(t, DefaultSettings(), data)
	assert.Empty(t, result.Trades)
	assert.Empty(t, result.Decisions)
	require.Len(t, result.Days, 1)
	assert.Equal(t, StateAwaitingBreakout, result.Days[0].State)
}

func TestEngine_DayWithoutRangeCandle(t *testing.T) {
	candles := session(monday, rangeBar, insideBar, buyBar)[1:]

	result := run(t, DefaultSettings(), intraday(candles))
	require.Len(t, result.Days, 1)
	assert.Equal(t, StateNoRange, result.Days[0].State)
	assert.Empty(t, result.Faults)
}

func TestEngine_FaultyDayIsExcluded(t *testing.T) {
	broken := session(monday, rangeBar, insideBar, buyBar, targetBar)
	broken = append(broken[:1], append([]core.Candle{broken[0]}, broken[1:]...)...)

	data := intraday(broken, session(monday.AddDate(0, 0, 1), rangeBar, insideBar, buyBar, targetBar))
	result := run(t, DefaultSettings(), data)

	require.Len(t, result.Faults, 1)
	assert.True(t, errors.Is(result.Faults[0], core.ErrDataIntegrity))
	assert.Equal(t, StateFault, result.Days[0].State)
	assert.Contains(t, result.Days[0].Note, "range candles")

	require.Len(t, result.Trades, 1)
	assert.Equal(t, monday.AddDate(0, 0, 1), result.Trades[0].Day)
}

func TestEngine_ContextGating(t *testing.T) {
	data := intraday(session(monday, rangeBar, insideBar, buyBar, targetBar))
	cutoff := monday.Add(7 * time.Hour)
	data.Series[core.D1] = falling(core.D1, monday, 20)
	data.Series[core.H4] = falling(core.H4, cutoff.Add(-3*time.Hour), 12)
	data.Series[core.H1] = falling(core.H1, cutoff, 24)

	strict := DefaultSettings()
	strict.Policy = gate.Strict
	result := run(t, strict, data)

	require.Len(t, result.Decisions, 1)
	assert.False(t, result.Decisions[0].Admitted)
	assert.Equal(t, gate.ReasonStrictMismatch, result.Decisions[0].Reason)
	assert.Equal(t, core.Bearish, result.Decisions[0].Alignment)
	assert.Empty(t, result.Trades)
	assert.Equal(t, StateGated, result.Days[0].State)

	soft := run(t, DefaultSettings(), data)
	require.Len(t, soft.Decisions, 1)
	assert.Equal(t, gate.ReasonSoftConflictUnconfirmed, soft.Decisions[0].Reason)
	assert.Len(t, soft.Blocked(), 1)
}

func TestEngine_RangeFilter(t *testing.T) {
	settings := DefaultSettings()
	settings.MinRangePoints = 10

	result := run(t, settings, intraday(session(monday, rangeBar, insideBar, buyBar, targetBar)))
	assert.Empty(t, result.Trades)
	assert.Equal(t, StateRangeFormed, result.Days[0].State)
	assert.Contains(t, result.Days[0].Note, "below minimum")
}

func TestEngine_Recorder(t *testing.T) {
	rec := &memoryRecorder{}
	data := intraday(session(monday, rangeBar, insideBar, buyBar, targetBar))

	result := run(t, DefaultSettings(), data, WithRecorder(rec))
	assert.Equal(t, result.Trades, rec.trades)
	assert.Equal(t, result.Decisions, rec.decisions)

	rec = &memoryRecorder{fail: errors.New("disk full")}
	engine, err := New(DefaultSettings(), data, WithRecorder(rec))
	require.NoError(t, err)
	_, err = engine.Run(context.Background())
	assert.ErrorContains(t, err, "disk full")
}

func TestEngine_Deterministic(t *testing.T) {
	data := intraday(
		session(monday, rangeBar, insideBar, buyBar, ohlc{101, 111, 91, 100}),
		session(monday.AddDate(0, 0, 1), rangeBar, insideBar, buyBar, targetBar),
	)

	first := run(t, DefaultSettings(), data)
	second := run(t, DefaultSettings(), data)
	assert.Equal(t, first, second)

	require.Len(t, first.Trades, 2)
	assert.Equal(t, simulator.ResolutionTieStopFirst, first.Trades[0].Resolution)
}

func TestEngine_Cancelled(t *testing.T) {
	engine, err := New(DefaultSettings(), intraday(session(monday, rangeBar)))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = engine.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew_InvalidSettings(t *testing.T) {
	data := intraday(session(monday, rangeBar))

	tests := map[string]func(*Settings){
		"risk reward":    func(s *Settings) { s.Simulator.RiskReward = 0 },
		"negative stop":  func(s *Settings) { s.Simulator.StopBuffer = -1 },
		"percent":        func(s *Settings) { s.Simulator.RiskValue = 2 },
		"strength":       func(s *Settings) { s.Thresholds.Min1HStrength = 120 },
		"range bounds":   func(s *Settings) { s.MinRangePoints, s.MaxRangePoints = 50, 10 },
		"session":        func(s *Settings) { s.Session.Close = s.Session.Open },
		"missing trends": func(s *Settings) { delete(s.Context.Trend, core.H4) },
	}

	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			settings := DefaultSettings()
			mutate(&settings)

			_, err := New(settings, data)
			assert.ErrorIs(t, err, core.ErrConfiguration)
		})
	}

	_, err := New(DefaultSettings(), core.NewMarketData("GER40"))
	assert.ErrorIs(t, err, core.ErrDataIntegrity)
}

func TestNew_DaysOutOfOrder(t *testing.T) {
	data := intraday(
		session(monday.AddDate(0, 0, 1), rangeBar, insideBar, buyBar, targetBar),
		session(monday, rangeBar, insideBar, buyBar, targetBar),
	)

	_, err := New(DefaultSettings(), data)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrDataIntegrity)
	assert.Contains(t, err.Error(), "timestamp before")
}
