package marketctx

import (
	"testing"
	"time"

	"github.com/raykavin/orbrun/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

// trending builds n candles of tf ending right before end, closing price
// changing by step on every bar.
func trending(tf core.Timeframe, end time.Time, n int, start, step float64) *core.TimeframeSeries {
	s := &core.TimeframeSeries{Timeframe: tf}
	first := end.Add(-time.Duration(n) * tf.Duration())
	price := start
	for i := 0; i < n; i++ {
		next := price + step
		s.Candles = append(s.Candles, core.Candle{
			Time:  first.Add(time.Duration(i) * tf.Duration()),
			Open:  price,
			High:  max(price, next) + 1,
			Low:   min(price, next) - 1,
			Close: next,
		})
		price = next
	}
	return s
}

func TestReadTrend(t *testing.T) {
	spec := DefaultParams().Trend[core.D1]

	rising := trending(core.D1, day, 10, 1000, 10)
	trend := readTrend(core.D1, rising.Candles, spec)
	assert.True(t, trend.Available)
	assert.Equal(t, core.Bullish, trend.Direction)
	assert.Equal(t, 90.0, trend.Strength)

	falling := trending(core.D1, day, 15, 1000, -10)
	trend = readTrend(core.D1, falling.Candles, spec)
	assert.Equal(t, core.Bearish, trend.Direction)
	assert.Equal(t, 100.0, trend.Strength)

	flat := trending(core.D1, day, 10, 1000, 0.01)
	trend = readTrend(core.D1, flat.Candles, spec)
	assert.Equal(t, core.Mixed, trend.Direction)
	assert.Zero(t, trend.Strength)

	short := trending(core.D1, day, 4, 1000, 10)
	assert.False(t, readTrend(core.D1, short.Candles, spec).Available)
}

func TestReadTrend_ShortHistoryUsesFirstAndLast(t *testing.T) {
	spec := DefaultParams().Trend[core.H1]
	s := trending(core.H1, day, 4, 1000, 5)

	trend := readTrend(core.H1, s.Candles, spec)
	require.True(t, trend.Available)
	assert.Equal(t, core.Bullish, trend.Direction)
	assert.InDelta(t, 15.0/1005.0, trend.Change, 1e-9)
}

func TestStrength_Monotonic(t *testing.T) {
	prev := -1.0
	for run := 1; run <= 14; run++ {
		closes := core.Series[float64]{100, 90}
		for i := 0; i < run; i++ {
			closes = append(closes, closes.Last(0)+1)
		}
		got := strength(closes, core.Bullish)
		assert.GreaterOrEqual(t, got, prev)
		assert.LessOrEqual(t, got, float64(MaxStrength))
		prev = got
	}
}

func TestAnalyzer_TrendAtIgnoresUnclosedCandles(t *testing.T) {
	cutoff := day.Add(7 * time.Hour)
	h1 := trending(core.H1, cutoff, 10, 1000, 2)

	a := NewAnalyzer(DefaultParams(), h1)
	before := a.TrendAt(core.H1, cutoff)

	// a bar opened at the cutoff must not change the reading
	h1.Candles = append(h1.Candles, core.Candle{
		Time: cutoff, Open: 1020, High: 1200, Low: 900, Close: 900,
	})
	after := a.TrendAt(core.H1, cutoff)
	assert.Equal(t, before, after)

	// nor does a 4h bar still in progress at the cutoff
	h4 := trending(core.H4, day.Add(8*time.Hour), 10, 1000, 2)
	a = NewAnalyzer(DefaultParams(), h4)
	trend := a.TrendAt(core.H4, cutoff)
	for _, c := range h4.ClosedBy(cutoff) {
		assert.False(t, c.CloseTime(core.H4).After(cutoff))
	}
	assert.Equal(t, 7, trend.Samples)
}

func TestAlign(t *testing.T) {
	params := DefaultParams()
	reading := func(d core.Direction, s float64) TrendContext {
		return TrendContext{Direction: d, Strength: s, Available: true}
	}

	tests := []struct {
		name      string
		daily, h4 TrendContext
		h1        TrendContext
		expected  core.Direction
	}{
		{"all bullish", reading(core.Bullish, 50), reading(core.Bullish, 30), reading(core.Bullish, 20), core.Bullish},
		{"all bearish", reading(core.Bearish, 50), reading(core.Bearish, 30), reading(core.Bearish, 20), core.Bearish},
		{"two bullish", reading(core.Bullish, 50), reading(core.Bullish, 30), reading(core.Mixed, 0), core.WeakBullish},
		{"two bearish one bullish", reading(core.Bearish, 50), reading(core.Bullish, 30), reading(core.Bearish, 20), core.WeakBearish},
		{"weak vote ignored", reading(core.Bullish, 50), reading(core.Bullish, 30), reading(core.Bullish, 0), core.WeakBullish},
		{"split", reading(core.Bullish, 50), reading(core.Bearish, 30), reading(core.Mixed, 0), core.Mixed},
		{"nothing", reading(core.Mixed, 0), reading(core.Mixed, 0), reading(core.Mixed, 0), core.Mixed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := align(map[core.Timeframe]TrendContext{
				core.D1: tt.daily,
				core.H4: tt.h4,
				core.H1: tt.h1,
			}, params)
			assert.Equal(t, tt.expected, result.Direction)
		})
	}
}

func TestDetectPools(t *testing.T) {
	spec := DefaultParams().Liquidity
	candle := func(i int, high, low float64) core.Candle {
		return core.Candle{Time: day.AddDate(0, 0, i), Open: low + 1, High: high, Low: low, Close: low + 2}
	}

	candles := []core.Candle{
		candle(0, 110, 90),
		candle(1, 120, 95),
		candle(2, 115, 85),
		candle(3, 120.05, 92),
		candle(4, 112, 88),
	}

	pools := detectPools(candles, spec)

	var swingHighs, equalHighs, swingLows []float64
	for _, p := range pools {
		switch p.Kind {
		case SwingHigh:
			swingHighs = append(swingHighs, p.Price)
		case EqualHighs:
			equalHighs = append(equalHighs, p.Price)
			assert.Equal(t, 2, p.Touches)
		case SwingLow:
			swingLows = append(swingLows, p.Price)
		}
	}

	assert.Equal(t, []float64{120, 120.05}, swingHighs)
	assert.Equal(t, []float64{120}, equalHighs)
	assert.Equal(t, []float64{85}, swingLows)
}

func TestSnapshot_NearestBeyond(t *testing.T) {
	snap := Snapshot{Pools: []LiquidityPool{
		{Price: 110, Kind: SwingHigh},
		{Price: 104, Kind: EqualHighs},
		{Price: 99, Kind: SwingHigh},
		{Price: 90, Kind: SwingLow},
		{Price: 102, Kind: SwingLow},
	}}

	pool, distance, ok := snap.NearestBeyond(core.Buy, 100, 95, 101)
	require.True(t, ok)
	assert.Equal(t, 104.0, pool.Price)
	assert.InDelta(t, 4.0/101.0, distance, 1e-12)

	pool, distance, ok = snap.NearestBeyond(core.Sell, 100, 95, 94)
	require.True(t, ok)
	assert.Equal(t, 90.0, pool.Price)
	assert.InDelta(t, 5.0/94.0, distance, 1e-12)

	_, _, ok = Snapshot{}.NearestBeyond(core.Buy, 100, 95, 101)
	assert.False(t, ok)
}

func TestAnalyzer_Snapshot(t *testing.T) {
	cutoff := day.Add(7 * time.Hour)
	daily := trending(core.D1, day, 20, 1000, 10)
	h4 := trending(core.H4, cutoff.Add(-3*time.Hour), 12, 1000, 5)
	h1 := trending(core.H1, cutoff, 24, 1000, 1)

	a := NewAnalyzer(DefaultParams(), daily, h4, h1)
	snap := a.Snapshot(day, cutoff)
	require.True(t, snap.Available)
	assert.Equal(t, core.Bullish, snap.Alignment.Direction)
	assert.Equal(t, 3, snap.Alignment.BullVotes)
	assert.Greater(t, snap.Alignment.Score, 0.0)

	missing := NewAnalyzer(DefaultParams(), daily, h1).Snapshot(day, cutoff)
	assert.False(t, missing.Available)
	assert.Contains(t, missing.Reason, "4h")
}

func TestAnalyzer_PoolsCached(t *testing.T) {
	daily := &core.TimeframeSeries{Timeframe: core.D1}
	for i, high := range []float64{110, 120, 115, 119, 112} {
		daily.Candles = append(daily.Candles, core.Candle{
			Time: day.AddDate(0, 0, i-5), Open: 100, High: high, Low: 95, Close: 101,
		})
	}
	a := NewAnalyzer(DefaultParams(), daily)

	first := a.Pools(day.Add(7 * time.Hour))
	require.NotEmpty(t, first)

	daily.Candles = nil
	assert.Equal(t, first, a.Pools(day))
	assert.Empty(t, a.Pools(day.AddDate(0, 0, 1)))
}
