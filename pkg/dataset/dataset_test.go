package dataset

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/raykavin/orbrun/pkg/backtest"
	"github.com/raykavin/orbrun/pkg/core"
	"github.com/raykavin/orbrun/pkg/gate"
	"github.com/raykavin/orbrun/pkg/marketctx"
	"github.com/raykavin/orbrun/pkg/simulator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var monday = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

func session(day time.Time, bars ...[4]float64) []core.Candle {
	out := make([]core.Candle, 0, len(bars))
	for i, b := range bars {
		out = append(out, core.Candle{
			Time: day.Add(7*time.Hour + time.Duration(i)*15*time.Minute),
			Open: b[0], High: b[1], Low: b[2], Close: b[3],
		})
	}
	return out
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

func winningDay() core.MarketData {
	m15 := &core.TimeframeSeries{
		Timeframe: core.M15,
		Candles: session(monday,
			[4]float64{97, 100, 95, 98},
			[4]float64{98, 99, 96, 97},
			[4]float64{98, 101.5, 97.5, 101},
			[4]float64{101, 110.5, 100, 110},
		),
	}
	return core.NewMarketData("GER40", m15)
}

func build(t *testing.T, settings backtest.Settings, data core.MarketData) []Record {
	t.Helper()
	analyzer := marketctx.NewAnalyzer(settings.Context, data.Higher()...)
	engine, err := backtest.New(settings, data, backtest.WithAnalyzer(analyzer))
	require.NoError(t, err)

	result, err := engine.Run(context.Background())
	require.NoError(t, err)

	return NewBuilder(analyzer, data.Get(core.D1), settings.Session).Build(result)
}

func TestBuild_AdmittedTrade(t *testing.T) {
	records := build(t, backtest.DefaultSettings(), winningDay())
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, monday, r.Day)
	assert.Equal(t, core.Buy, r.Side)
	assert.True(t, r.Admitted)
	assert.Equal(t, gate.ReasonContextUnavailable.String(), r.Reason)
	assert.Equal(t, "win", r.Label)
	assert.Greater(t, r.R, 0.0)
	assert.Greater(t, r.PnL, 0.0)
	assert.Equal(t, 5.0, r.RangeSize)
	assert.Equal(t, 7, r.EntryHour)
	assert.Zero(t, r.ATRPct)
}

func TestBuild_BlockedSignal(t *testing.T) {
	data := winningDay()
	cutoff := monday.Add(7 * time.Hour)
	data.Series[core.D1] = falling(core.D1, monday, 20)
	data.Series[core.H4] = falling(core.H4, cutoff.Add(-3*time.Hour), 12)
	data.Series[core.H1] = falling(core.H1, cutoff, 24)

	settings := backtest.DefaultSettings()
	settings.Policy = gate.Strict

	records := build(t, settings, data)
	require.Len(t, records, 1)

	r := records[0]
	assert.False(t, r.Admitted)
	assert.Equal(t, LabelBlocked, r.Label)
	assert.Equal(t, "strict_mismatch", r.Reason)
	assert.Equal(t, core.Bearish, r.Alignment)
	assert.Greater(t, r.DailyStrength, 0.0)
	assert.Zero(t, r.PnL)

	// 20 daily candles with a 12 point range around ~1800
	assert.InDelta(t, 12.0/1800.0, r.ATRPct, 0.002)
}

func TestBuild_RejectedTrade(t *testing.T) {
	settings := backtest.DefaultSettings()
	settings.Simulator.Sizing = simulator.SizingFixed
	settings.Simulator.RiskValue = 0.001

	records := build(t, settings, winningDay())
	require.Len(t, records, 1)

	r := records[0]
	assert.True(t, r.Admitted)
	assert.Equal(t, LabelRejected, r.Label)
	assert.Zero(t, r.PnL)
}

func TestWrite(t *testing.T) {
	records := build(t, backtest.DefaultSettings(), winningDay())

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, records))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, header, rows[0])
	assert.Equal(t, "2024-03-04", rows[1][0])
	assert.Equal(t, "win", rows[1][16])
}

func TestSave(t *testing.T) {
	path := t.TempDir() + "/dataset.csv"
	require.NoError(t, Save(path, nil))
}
