// Package dataset turns backtest days into labeled feature rows for offline
// classifier training
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/raykavin/orbrun/pkg/backtest"
	"github.com/raykavin/orbrun/pkg/core"
	"github.com/raykavin/orbrun/pkg/indicator"
	"github.com/raykavin/orbrun/pkg/marketctx"
	"github.com/raykavin/orbrun/pkg/orb"
	"github.com/raykavin/orbrun/pkg/simulator"
	"github.com/samber/lo"
)

// Labels of signals that carry no trade outcome
const (
	LabelBlocked  = "blocked"
	LabelRejected = "rejected"
)

// DefaultATRPeriod is the daily ATR length used for volatility features
const DefaultATRPeriod = 14

// Record is one signal with its context features and outcome
type Record struct {
	Day   time.Time
	Side  core.Side
	Setup core.SetupType

	Alignment      core.Direction
	AlignmentScore float64
	DailyStrength  float64
	H4Strength     float64
	H1Strength     float64

	HasLiquidity         bool
	LiquidityDistancePct float64
	RangeSize            float64
	RangePct             float64
	ATRPct               float64
	EntryHour            int

	Admitted bool
	Reason   string
	Label    string
	R        float64
	PnL      float64
}

// Builder derives records from a run
type Builder struct {
	analyzer  *marketctx.Analyzer
	daily     *core.TimeframeSeries
	session   orb.Session
	atrPeriod int
}

// NewBuilder reads context from analyzer and volatility from daily candles
func NewBuilder(analyzer *marketctx.Analyzer, daily *core.TimeframeSeries, session orb.Session) *Builder {
	return &Builder{
		analyzer:  analyzer,
		daily:     daily,
		session:   session,
		atrPeriod: DefaultATRPeriod,
	}
}

// WithATRPeriod overrides the ATR length
func (b *Builder) WithATRPeriod(period int) *Builder {
	b.atrPeriod = period
	return b
}

// Build returns one record per day that produced a gate decision
func (b *Builder) Build(result *backtest.Result) []Record {
	trades := lo.KeyBy(result.Trades, func(t simulator.Trade) string { return t.ID })

	records := make([]Record, 0, len(result.Decisions))
	for _, day := range result.Days {
		if day.Decision == nil || day.Range == nil {
			continue
		}
		d := day.Decision
		signal := d.Signal

		alignment := b.analyzer.Alignment(b.session.OpenAt(day.Day))
		record := Record{
			Day:                  day.Day,
			Side:                 signal.Side,
			Setup:                signal.Setup,
			Alignment:            alignment.Direction,
			AlignmentScore:       alignment.Score,
			DailyStrength:        alignment.Trend(core.D1).Strength,
			H4Strength:           alignment.Trend(core.H4).Strength,
			H1Strength:           alignment.Trend(core.H1).Strength,
			HasLiquidity:         d.HasLiquidity,
			LiquidityDistancePct: d.LiquidityDistancePct,
			RangeSize:            day.Range.Size,
			RangePct:             d.RangePct,
			ATRPct:               b.atrPct(day.Day),
			EntryHour:            signal.EntryTime().Hour(),
			Admitted:             d.Admitted,
			Reason:               d.Reason.String(),
			Label:                LabelBlocked,
		}

		if trade, ok := trades[day.TradeID]; ok && day.TradeID != "" {
			record.Label = trade.Outcome.String()
			record.R = trade.RMultiple()
			record.PnL = trade.PnL
		} else if day.State == backtest.StateRejected {
			record.Label = LabelRejected
		}
		records = append(records, record)
	}
	return records
}

// atrPct is the last daily ATR before day relative to the last close
func (b *Builder) atrPct(day time.Time) float64 {
	if b.daily == nil || b.atrPeriod < 1 {
		return 0
	}
	history := b.daily.ClosedBy(day)
	if len(history) <= b.atrPeriod {
		return 0
	}

	atr := indicator.ATR(
		core.Highs(history).Values(),
		core.Lows(history).Values(),
		core.Closes(history).Values(),
		b.atrPeriod,
	)
	last := history[len(history)-1].Close
	if last == 0 {
		return 0
	}
	return atr[len(atr)-1] / last
}

var header = []string{
	"day", "side", "setup", "alignment", "alignment_score", "daily_strength", "h4_strength",
	"h1_strength", "has_liquidity", "liquidity_distance_pct", "range_size", "range_pct",
	"atr_pct", "entry_hour", "admitted", "reason", "label", "r_multiple", "pnl",
}

// Write stores records as CSV
func Write(w io.Writer, records []Record) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return err
	}

	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
	for _, r := range records {
		row := []string{
			r.Day.Format("2006-01-02"),
			r.Side.String(),
			r.Setup.String(),
			r.Alignment.String(),
			f(r.AlignmentScore),
			f(r.DailyStrength),
			f(r.H4Strength),
			f(r.H1Strength),
			strconv.FormatBool(r.HasLiquidity),
			f(r.LiquidityDistancePct),
			f(r.RangeSize),
			f(r.RangePct),
			f(r.ATRPct),
			strconv.Itoa(r.EntryHour),
			strconv.FormatBool(r.Admitted),
			r.Reason,
			r.Label,
			f(r.R),
			f(r.PnL),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write %s: %w", r.Day.Format("2006-01-02"), err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// Save writes records to path
func Save(path string, records []Record) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return Write(file, records)
}
