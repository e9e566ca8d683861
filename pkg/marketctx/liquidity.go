package marketctx

import (
	"fmt"
	"math"

	"github.com/raykavin/orbrun/pkg/core"
)

// PoolKind identifies how a liquidity level was found
type PoolKind int

const (
	SwingHigh PoolKind = iota
	SwingLow
	EqualHighs
	EqualLows
)

func (k PoolKind) String() string {
	switch k {
	case SwingHigh:
		return "swing_high"
	case SwingLow:
		return "swing_low"
	case EqualHighs:
		return "equal_highs"
	case EqualLows:
		return "equal_lows"
	}
	return fmt.Sprintf("PoolKind(%d)", int(k))
}

// AboveMarket reports whether the pool sits on highs, where buy stops rest
func (k PoolKind) AboveMarket() bool {
	return k == SwingHigh || k == EqualHighs
}

// LiquidityPool is a daily price level where resting orders are expected
type LiquidityPool struct {
	Price   float64
	Kind    PoolKind
	Touches int
}

// detectPools finds swing points and equal levels on daily candles
func detectPools(candles []core.Candle, spec LiquiditySpec) []LiquidityPool {
	window := max(spec.SwingWindow, 1)
	if len(candles) < 2*window+1 {
		return nil
	}

	highs := core.Highs(candles)
	lows := core.Lows(candles)

	var swingHighs, swingLows []LiquidityPool
	for i := window; i < len(candles)-window; i++ {
		if isExtreme(highs, i, window, 1) {
			swingHighs = append(swingHighs, LiquidityPool{Price: highs[i], Kind: SwingHigh, Touches: 1})
		}
		if isExtreme(lows, i, window, -1) {
			swingLows = append(swingLows, LiquidityPool{Price: lows[i], Kind: SwingLow, Touches: 1})
		}
	}

	var pools []LiquidityPool
	pools = append(pools, keepLast(swingHighs, spec.Keep)...)
	pools = append(pools, keepLast(swingLows, spec.Keep)...)
	pools = append(pools, equalLevels(highs, spec.EqualTolerance, EqualHighs)...)
	pools = append(pools, equalLevels(lows, spec.EqualTolerance, EqualLows)...)
	return pools
}

// isExtreme reports whether values[i] is strictly beyond every neighbour
// within window. sign is 1 for maxima and -1 for minima.
func isExtreme(values core.Series[float64], i, window int, sign float64) bool {
	for j := i - window; j <= i+window; j++ {
		if j == i {
			continue
		}
		if (values[i]-values[j])*sign <= 0 {
			return false
		}
	}
	return true
}

func keepLast(pools []LiquidityPool, n int) []LiquidityPool {
	if n > 0 && len(pools) > n {
		return pools[len(pools)-n:]
	}
	return pools
}

// equalLevels groups prices lying within tolerance of each other. A level
// needs at least two touches and is reported once.
func equalLevels(prices core.Series[float64], tolerance float64, kind PoolKind) []LiquidityPool {
	var levels []LiquidityPool
	for i, level := range prices {
		touches := 1
		for j, other := range prices {
			if i != j && math.Abs(other-level)/level <= tolerance {
				touches++
			}
		}
		if touches < 2 {
			continue
		}

		known := false
		for _, existing := range levels {
			if math.Abs(level-existing.Price)/existing.Price <= tolerance {
				known = true
				break
			}
		}
		if !known {
			levels = append(levels, LiquidityPool{Price: level, Kind: kind, Touches: touches})
		}
	}
	return levels
}
