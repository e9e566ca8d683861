// Package metric derives performance statistics from backtest results
package metric

import (
	"math"
	"sort"
	"time"

	"github.com/raykavin/orbrun/pkg/backtest"
	"github.com/raykavin/orbrun/pkg/core"
	"github.com/raykavin/orbrun/pkg/gate"
	"github.com/raykavin/orbrun/pkg/simulator"
	"github.com/samber/lo"
)

// Summary collects statistics about one run
type Summary struct {
	Label         string
	Symbol        string
	InitialEquity float64
	FinalEquity   float64

	Trades    []simulator.Trade
	Decisions []gate.Decision
	Equity    []backtest.EquityPoint
	Faults    int
}

// Summarize builds the summary of a run
func Summarize(r *backtest.Result) Summary {
	return Summary{
		Label:         r.Label(),
		Symbol:        r.Symbol,
		InitialEquity: r.InitialEquity,
		FinalEquity:   r.FinalEquity,
		Trades:        r.Trades,
		Decisions:     r.Decisions,
		Equity:        r.Equity,
		Faults:        len(r.Faults),
	}
}

func (s Summary) byOutcome(outcome simulator.Outcome) []simulator.Trade {
	return lo.Filter(s.Trades, func(t simulator.Trade, _ int) bool { return t.Outcome == outcome })
}

// Win returns the P&L of winning trades
func (s Summary) Win() []float64 {
	return lo.Map(s.byOutcome(simulator.Win), func(t simulator.Trade, _ int) float64 { return t.PnL })
}

// Lose returns the P&L of losing trades
func (s Summary) Lose() []float64 {
	return lo.Map(s.byOutcome(simulator.Loss), func(t simulator.Trade, _ int) float64 { return t.PnL })
}

// Unresolved counts trades that hit neither level
func (s Summary) Unresolved() int { return len(s.byOutcome(simulator.Unresolved)) }

// Resolved counts trades that hit stop or target
func (s Summary) Resolved() int { return len(s.Win()) + len(s.Lose()) }

// SetupCount counts trades of one setup type
func (s Summary) SetupCount(setup core.SetupType) int {
	return lo.CountBy(s.Trades, func(t simulator.Trade) bool { return t.Setup == setup })
}

// Profit is the sum of realised P&L
func (s Summary) Profit() float64 {
	return sumSlice(s.Win()) + sumSlice(s.Lose())
}

// ReturnPercent is the change of equity relative to the start
func (s Summary) ReturnPercent() float64 {
	if s.InitialEquity == 0 {
		return 0
	}
	return (s.FinalEquity - s.InitialEquity) / s.InitialEquity * 100
}

// WinPercentage is the share of resolved trades that won. Unresolved trades
// are left out.
func (s Summary) WinPercentage() float64 {
	resolved := s.Resolved()
	if resolved == 0 {
		return 0
	}
	return float64(len(s.Win())) / float64(resolved) * 100
}

// Payoff calculates the ratio of average win to average loss
func (s Summary) Payoff() float64 {
	wins, losses := s.Win(), s.Lose()
	if len(wins) == 0 || len(losses) == 0 {
		return 0
	}
	avgLoss := average(losses)
	if avgLoss == 0 {
		return 0
	}
	return average(wins) / math.Abs(avgLoss)
}

// ProfitFactor calculates the ratio of gross profits to gross losses
func (s Summary) ProfitFactor() float64 {
	grossLoss := sumSlice(s.Lose())
	if grossLoss == 0 {
		return 0
	}
	return sumSlice(s.Win()) / math.Abs(grossLoss)
}

// RMultiples returns the result of every resolved trade in units of risk
func (s Summary) RMultiples() []float64 {
	return lo.FilterMap(s.Trades, func(t simulator.Trade, _ int) (float64, bool) {
		return t.RMultiple(), t.Resolved()
	})
}

// Expectancy is the average R multiple of resolved trades
func (s Summary) Expectancy() float64 {
	return average(s.RMultiples())
}

// SQN (System Quality Number) = sqrt(n) * mean / stddev of the R multiples
func (s Summary) SQN() float64 {
	return sqn(s.RMultiples())
}

func sqn(values []float64) float64 {
	n := float64(len(values))
	if n == 0 {
		return 0
	}
	mean := average(values)

	variance := 0.0
	for _, v := range values {
		variance += math.Pow(v-mean, 2)
	}
	stdDev := math.Sqrt(variance / n)
	if stdDev == 0 {
		return 0
	}
	return math.Sqrt(n) * (mean / stdDev)
}

// Drawdown is the deepest fall of the equity curve from a previous peak
type Drawdown struct {
	Value   float64
	Percent float64
	Peak    time.Time
	Trough  time.Time
}

// MaxDrawdown walks the equity curve starting from the initial equity
func (s Summary) MaxDrawdown() Drawdown {
	var dd Drawdown
	peak := s.InitialEquity
	var peakTime time.Time

	for _, point := range s.Equity {
		if point.Equity > peak {
			peak, peakTime = point.Equity, point.Time
			continue
		}
		if fall := peak - point.Equity; fall > dd.Value {
			dd = Drawdown{Value: fall, Peak: peakTime, Trough: point.Time}
			if peak > 0 {
				dd.Percent = fall / peak * 100
			}
		}
	}
	return dd
}

// ReasonCount is the number of decisions that carried a reason
type ReasonCount struct {
	Reason gate.Reason
	Count  int
}

// ReasonCounts returns non zero gate reasons in declaration order
func (s Summary) ReasonCounts() []ReasonCount {
	counts := lo.CountValuesBy(s.Decisions, func(d gate.Decision) gate.Reason { return d.Reason })

	out := make([]ReasonCount, 0, len(counts))
	for _, reason := range gate.Reasons {
		if n := counts[reason]; n > 0 {
			out = append(out, ReasonCount{Reason: reason, Count: n})
		}
	}
	return out
}

// Blocked counts signals the gate rejected
func (s Summary) Blocked() int {
	return lo.CountBy(s.Decisions, func(d gate.Decision) bool { return !d.Admitted })
}

// Median returns the middle value of values
func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func sumSlice(values []float64) float64 {
	return lo.Sum(values)
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return sumSlice(values) / float64(len(values))
}
