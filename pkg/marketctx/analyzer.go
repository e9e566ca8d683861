package marketctx

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/raykavin/orbrun/pkg/core"
	"github.com/samber/lo"
)

// Snapshot is the context available at a day's session open
type Snapshot struct {
	Day       time.Time
	Cutoff    time.Time
	Available bool
	// Reason explains why the snapshot is unavailable
	Reason    string
	Alignment AlignmentResult
	Pools     []LiquidityPool
}

// NearestBeyond finds the closest pool past the breakout side of the range.
// Buys look at high pools above rangeHigh, sells at low pools below rangeLow.
// Distance is relative to price.
func (s Snapshot) NearestBeyond(side core.Side, rangeHigh, rangeLow, price float64) (LiquidityPool, float64, bool) {
	var (
		best     LiquidityPool
		distance = math.Inf(1)
		found    bool
	)

	for _, pool := range s.Pools {
		var gap float64
		switch {
		case side == core.Buy && pool.Kind.AboveMarket() && pool.Price > rangeHigh:
			gap = pool.Price - rangeHigh
		case side == core.Sell && !pool.Kind.AboveMarket() && pool.Price < rangeLow:
			gap = rangeLow - pool.Price
		default:
			continue
		}

		if d := gap / price; d < distance {
			best, distance, found = pool, d, true
		}
	}

	if !found {
		return LiquidityPool{}, 0, false
	}
	return best, distance, true
}

// Analyzer reads trend and liquidity from higher timeframe series. Every
// reading only uses candles that closed at or before the requested cutoff.
type Analyzer struct {
	series map[core.Timeframe]*core.TimeframeSeries
	params Params

	mu    sync.Mutex
	pools map[time.Time][]LiquidityPool
}

// NewAnalyzer builds an Analyzer over the given series
func NewAnalyzer(params Params, series ...*core.TimeframeSeries) *Analyzer {
	a := &Analyzer{
		series: make(map[core.Timeframe]*core.TimeframeSeries, len(series)),
		params: params,
		pools:  make(map[time.Time][]LiquidityPool),
	}
	for _, s := range series {
		if s != nil {
			a.series[s.Timeframe] = s
		}
	}
	return a
}

// TrendAt reads the trend of tf from candles completed by cutoff
func (a *Analyzer) TrendAt(tf core.Timeframe, cutoff time.Time) TrendContext {
	spec, ok := a.params.Trend[tf]
	series := a.series[tf]
	if !ok || series == nil {
		return TrendContext{Timeframe: tf}
	}

	candles := series.ClosedBy(cutoff)
	if spec.Window > 0 {
		from := cutoff.Add(-spec.Window)
		candles = lo.Filter(candles, func(c core.Candle, _ int) bool {
			return !c.Time.Before(from)
		})
	}
	if spec.Lookback > 0 && len(candles) > spec.Lookback {
		candles = candles[len(candles)-spec.Lookback:]
	}

	return readTrend(tf, candles, spec)
}

// Alignment reads every context timeframe at cutoff and combines them
func (a *Analyzer) Alignment(cutoff time.Time) AlignmentResult {
	trends := make(map[core.Timeframe]TrendContext, len(ContextTimeframes))
	for _, tf := range ContextTimeframes {
		trends[tf] = a.TrendAt(tf, cutoff)
	}
	return align(trends, a.params)
}

// Pools returns the liquidity pools known before day. Results are cached.
func (a *Analyzer) Pools(day time.Time) []LiquidityPool {
	day = core.DayOf(day)

	a.mu.Lock()
	defer a.mu.Unlock()

	if pools, ok := a.pools[day]; ok {
		return pools
	}

	var pools []LiquidityPool
	if daily := a.series[core.D1]; daily != nil {
		history := daily.ClosedBy(day)
		if n := a.params.Liquidity.Lookback + 2; len(history) > n {
			history = history[len(history)-n:]
		}
		pools = detectPools(history, a.params.Liquidity)
	}

	a.pools[day] = pools
	return pools
}

// Snapshot captures the full context for day as seen at cutoff
func (a *Analyzer) Snapshot(day, cutoff time.Time) Snapshot {
	snap := Snapshot{
		Day:       core.DayOf(day),
		Cutoff:    cutoff,
		Alignment: a.Alignment(cutoff),
		Pools:     a.Pools(day),
		Available: true,
	}

	for _, tf := range ContextTimeframes {
		if trend := snap.Alignment.Trend(tf); !trend.Available {
			snap.Available = false
			snap.Reason = fmt.Sprintf("insufficient %s history (%d candles)", tf, trend.Samples)
			break
		}
	}
	return snap
}
