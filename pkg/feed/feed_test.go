package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/raykavin/orbrun/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSVForexcom(t *testing.T) {
	content := `time,open,high,low,close,Up Marker,Down Marker,Plot
2024-01-02T07:15:00Z,16710.5,16730,16700,16725,NaN,1,3.5
2024-01-02T07:00:00Z,16700,16720,16690,16710.5,1,,NaN
`
	candles, err := ReadCSV(strings.NewReader(content))
	require.NoError(t, err)
	require.Len(t, candles, 2)

	first := candles[0]
	assert.Equal(t, time.Date(2024, 1, 2, 7, 0, 0, 0, time.UTC), first.Time)
	assert.InDelta(t, 16700, first.Open, 1e-9)
	assert.InDelta(t, 16720, first.High, 1e-9)
	assert.InDelta(t, 16690, first.Low, 1e-9)
	assert.InDelta(t, 16710.5, first.Close, 1e-9)
	assert.True(t, first.UpMarker)
	assert.False(t, first.DownMarker)
	assert.Nil(t, first.Metadata)

	second := candles[1]
	assert.False(t, second.UpMarker)
	assert.True(t, second.DownMarker)
	assert.InDelta(t, 3.5, second.Metadata["Plot"], 1e-9)
}

func TestReadCSVUnixHeaderless(t *testing.T) {
	content := "1704178800,100,110,95,105,12\n1704179700,105,108,101,102,7\n"
	candles, err := ReadCSV(strings.NewReader(content))
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.Equal(t, time.Unix(1704178800, 0).UTC(), candles[0].Time)
	assert.InDelta(t, 110, candles[0].High, 1e-9)
	assert.InDelta(t, 95, candles[0].Low, 1e-9)
	assert.InDelta(t, 7, candles[1].Volume, 1e-9)
}

func TestReadCSVErrors(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, err = ReadCSV(strings.NewReader("time,open,high,close\n2024-01-02,1,2,1\n"))
	assert.ErrorIs(t, err, ErrMissingColumn)

	_, err = ReadCSV(strings.NewReader("time,open,high,low,close\nyesterday,1,2,0.5,1\n"))
	assert.ErrorContains(t, err, "row 2")

	_, err = ReadCSV(strings.NewReader("time,open,high,low,close\n2024-01-02,1,x,0.5,1\n"))
	assert.ErrorContains(t, err, "high")
}

func TestWriteCSVRoundTrip(t *testing.T) {
	candles := quarterHours(time.Date(2024, 1, 2, 7, 0, 0, 0, time.UTC), 3, 100)

	var sb strings.Builder
	require.NoError(t, WriteCSV(&sb, candles, 2))

	read, err := ReadCSV(strings.NewReader(sb.String()))
	require.NoError(t, err)
	assert.Equal(t, candles, read)
}

func TestResampleHourly(t *testing.T) {
	// 06:30 to 08:15, the 06:00 bucket starts mid hour and 08:00 is incomplete
	candles := quarterHours(time.Date(2024, 1, 2, 6, 30, 0, 0, time.UTC), 8, 100)

	hourly, err := Resample(candles, core.M15, core.H1)
	require.NoError(t, err)
	require.Len(t, hourly, 2)

	assert.Equal(t, time.Date(2024, 1, 2, 6, 0, 0, 0, time.UTC), hourly[0].Time)
	assert.InDelta(t, candles[0].Open, hourly[0].Open, 1e-9)
	assert.InDelta(t, candles[1].Close, hourly[0].Close, 1e-9)

	h7 := hourly[1]
	assert.Equal(t, time.Date(2024, 1, 2, 7, 0, 0, 0, time.UTC), h7.Time)
	assert.InDelta(t, candles[2].Open, h7.Open, 1e-9)
	assert.InDelta(t, candles[5].Close, h7.Close, 1e-9)
	assert.InDelta(t, candles[5].High, h7.High, 1e-9)
	assert.InDelta(t, candles[2].Low, h7.Low, 1e-9)
	assert.InDelta(t, 4, h7.Volume, 1e-9)
}

func TestResampleDailyAcrossGap(t *testing.T) {
	day1 := quarterHours(time.Date(2024, 1, 2, 22, 0, 0, 0, time.UTC), 8, 100)
	day2 := quarterHours(time.Date(2024, 1, 3, 7, 0, 0, 0, time.UTC), 4, 120)

	daily, err := Resample(append(day1, day2...), core.M15, core.D1)
	require.NoError(t, err)
	require.Len(t, daily, 1)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), daily[0].Time)

	_, err = Resample(day1, core.H4, core.H1)
	assert.Error(t, err)
}

func TestLoadResamplesMissing(t *testing.T) {
	dir := t.TempDir()
	m15 := filepath.Join(dir, "m15.csv")
	writeFile(t, m15, quarterHours(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), 96*2, 100))

	data, err := Load(Source{
		Symbol: "GER40",
		Files: map[core.Timeframe]string{
			core.M15: m15,
			core.H1:  filepath.Join(dir, "missing_1h.csv"),
		},
		ResampleMissing: true,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, 192, data.Get(core.M15).Len())
	assert.Equal(t, 48, data.Get(core.H1).Len())
	assert.Equal(t, 12, data.Get(core.H4).Len())
	assert.Equal(t, 2, data.Get(core.D1).Len())

	data, err = Load(Source{Symbol: "GER40", Files: map[core.Timeframe]string{core.M15: m15}}, nil)
	require.NoError(t, err)
	assert.Nil(t, data.Get(core.H1))
	assert.Len(t, data.Higher(), 0)
}

func TestLoadRejectsBadData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "m15.csv")
	content := "time,open,high,low,close\n2024-01-02T07:00:00Z,100,90,95,98\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	_, err := Load(Source{Symbol: "GER40", Files: map[core.Timeframe]string{core.M15: path}}, nil)
	assert.ErrorIs(t, err, core.ErrDataIntegrity)

	_, err = Load(Source{Symbol: "GER40"}, nil)
	assert.ErrorIs(t, err, core.ErrConfiguration)
}

func TestDownloaderFromCSVFeed(t *testing.T) {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	series, err := core.NewTimeframeSeries(core.M15, quarterHours(start, 96*12, 100))
	require.NoError(t, err)
	source := NewCSVFeed(core.NewMarketData("GER40", series))

	out := filepath.Join(t.TempDir(), "data", "GER40_15m.csv")
	n, err := NewDownloader(source, nil, false).Download(context.Background(), "GER40", core.M15, out,
		WithInterval(start, start.Add(10*24*time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, 96*10+1, n)

	loaded, err := LoadCSV(out, core.M15)
	require.NoError(t, err)
	assert.Equal(t, n, loaded.Len())
	assert.Equal(t, start, loaded.Candles[0].Time)

	_, err = source.CandlesByPeriod(context.Background(), "NAS100", core.M15, start, start)
	assert.Error(t, err)
}

func TestBinanceCandlesByPeriod(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprint(w, `{"code":-1003,"msg":"too many requests"}`)
			return
		}
		assert.Equal(t, "/api/v3/klines", r.URL.Path)
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		assert.Equal(t, "15m", r.URL.Query().Get("interval"))
		fmt.Fprint(w, `[[1704178800000,"42000.1","42100.0","41950.5","42050.0","12.5",1704179699999,"0",10,"0","0","0"],
			[1704179700000,"42050.0","42080.0","42000.0","42010.0","3.25",1704180599999,"0",5,"0","0","0"]]`)
	}))
	defer server.Close()

	b := NewBinance(WithBaseURL(server.URL), WithRetries(2))
	start := time.UnixMilli(1704178800000)
	candles, err := b.CandlesByPeriod(context.Background(), "BTCUSDT", core.M15, start, start.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))

	assert.Equal(t, time.Date(2024, 1, 2, 7, 0, 0, 0, time.UTC), candles[0].Time)
	assert.InDelta(t, 42100, candles[0].High, 1e-9)
	assert.InDelta(t, 41950.5, candles[0].Low, 1e-9)
	assert.InDelta(t, 3.25, candles[1].Volume, 1e-9)
}

func quarterHours(start time.Time, n int, base float64) []core.Candle {
	candles := make([]core.Candle, n)
	for i := range candles {
		open := base + float64(i%7)
		candles[i] = core.Candle{
			Time:   start.Add(time.Duration(i) * 15 * time.Minute),
			Open:   open,
			High:   open + 3,
			Low:    open - 2,
			Close:  open + 1,
			Volume: 1,
		}
	}
	return candles
}

func writeFile(t *testing.T, path string, candles []core.Candle) {
	t.Helper()
	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()
	require.NoError(t, WriteCSV(file, candles, 2))
}
