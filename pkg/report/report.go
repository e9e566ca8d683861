// Package report renders backtest summaries for the console
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/olekukonko/tablewriter"
	"github.com/raykavin/orbrun/pkg/backtest"
	"github.com/raykavin/orbrun/pkg/core"
	"github.com/raykavin/orbrun/pkg/metric"
	"github.com/raykavin/orbrun/pkg/simulator"
)

const (
	histogramBins   = 15
	bootstrapRounds = 10000
)

var dayStates = []backtest.DayState{
	backtest.StateNoRange,
	backtest.StateRangeFormed,
	backtest.StateAwaitingBreakout,
	backtest.StateGated,
	backtest.StateRejected,
	backtest.StateResolved,
	backtest.StateFault,
}

// Write prints the full report of one run
func Write(w io.Writer, result *backtest.Result) error {
	summary := metric.Summarize(result)

	fmt.Fprintf(w, "------ %s %s -------\n", result.Symbol, summary.Label)
	Summary(w, summary)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "------ DAYS -------")
	Days(w, result)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "------ GATE -------")
	Reasons(w, summary)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "------ R MULTIPLES -------")
	if err := Histogram(w, summary); err != nil {
		return err
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "------ CONFIDENCE INTERVAL (95%) -------")
	Confidence(w, summary, bootstrapRounds)
	return nil
}

// Summary prints one row per run with a total footer when several are given
func Summary(w io.Writer, summaries ...metric.Summary) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Run", "Trades", "Win", "Loss", "Open", "% Win", "Payoff",
		"Pr Fact.", "Exp. R", "SQN", "Max DD", "Profit", "Return"})
	table.SetFooterAlignment(tablewriter.ALIGN_RIGHT)

	for _, s := range summaries {
		table.Append([]string{
			s.Label,
			strconv.Itoa(len(s.Trades)),
			strconv.Itoa(len(s.Win())),
			strconv.Itoa(len(s.Lose())),
			strconv.Itoa(s.Unresolved()),
			fmt.Sprintf("%.1f %%", s.WinPercentage()),
			fmt.Sprintf("%.3f", s.Payoff()),
			fmt.Sprintf("%.3f", s.ProfitFactor()),
			fmt.Sprintf("%.3f", s.Expectancy()),
			fmt.Sprintf("%.1f", s.SQN()),
			fmt.Sprintf("%.1f %%", s.MaxDrawdown().Percent),
			fmt.Sprintf("%.2f", s.Profit()),
			fmt.Sprintf("%.2f %%", s.ReturnPercent()),
		})
	}
	table.Render()
}

// Days prints how many days ended in each state
func Days(w io.Writer, result *backtest.Result) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"State", "Days"})
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})

	for _, state := range dayStates {
		table.Append([]string{state.String(), strconv.Itoa(result.DaysIn(state))})
	}
	table.SetFooter([]string{"TOTAL", strconv.Itoa(len(result.Days))})
	table.Render()
}

// Reasons prints the gate decisions grouped by reason
func Reasons(w io.Writer, summary metric.Summary) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Reason", "Decision", "Signals"})
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})

	for _, rc := range summary.ReasonCounts() {
		decision := "admit"
		if rc.Reason.Blocking() {
			decision = "block"
		}
		table.Append([]string{rc.Reason.String(), decision, strconv.Itoa(rc.Count)})
	}
	table.Render()
}

// Histogram plots the distribution of R multiples
func Histogram(w io.Writer, summary metric.Summary) error {
	values := summary.RMultiples()
	if len(values) == 0 {
		_, err := fmt.Fprintln(w, "no resolved trades")
		return err
	}
	hist := histogram.Hist(histogramBins, values)
	return histogram.Fprint(w, hist, histogram.Linear(10))
}

// Confidence prints bootstrap intervals of the trade results
func Confidence(w io.Writer, summary metric.Summary, rounds int) {
	values := summary.RMultiples()
	expectancy := metric.Bootstrap(values, metric.Mean, rounds, 0.95)
	payoff := metric.Bootstrap(values, metric.Payoff, rounds, 0.95)
	profitFactor := metric.Bootstrap(values, metric.ProfitFactor, rounds, 0.95)

	fmt.Fprintf(w, "EXPECTANCY:  %.2fR (%.2fR ~ %.2fR)\n", expectancy.Mean, expectancy.Lower, expectancy.Upper)
	fmt.Fprintf(w, "PAYOFF:      %.2f (%.2f ~ %.2f)\n", payoff.Mean, payoff.Lower, payoff.Upper)
	fmt.Fprintf(w, "PROF.FACTOR: %.2f (%.2f ~ %.2f)\n", profitFactor.Mean, profitFactor.Lower, profitFactor.Upper)
}

// Compare prints runs of the same data side by side
func Compare(w io.Writer, results ...*backtest.Result) {
	summaries := make([]metric.Summary, 0, len(results))
	for _, r := range results {
		summaries = append(summaries, metric.Summarize(r))
	}
	Summary(w, summaries...)
	fmt.Fprintln(w)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Run", "Signals", "Blocked", "Breakouts", "Fakeouts", "Faults"})
	for _, s := range summaries {
		table.Append([]string{
			s.Label,
			strconv.Itoa(len(s.Decisions)),
			strconv.Itoa(s.Blocked()),
			strconv.Itoa(s.SetupCount(core.Breakout)),
			strconv.Itoa(s.SetupCount(core.Fakeout)),
			strconv.Itoa(s.Faults),
		})
	}
	table.Render()
}

// Trades lists every simulated trade with prices printed to precision decimals
func Trades(w io.Writer, trades []simulator.Trade, precision int) {
	price := func(v float64) string { return strconv.FormatFloat(v, 'f', precision, 64) }

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Day", "Side", "Setup", "Entry", "Stop", "Target", "Size",
		"Outcome", "Exit", "PnL", "R", "Reason"})

	for _, t := range trades {
		table.Append([]string{
			t.Day.Format("2006-01-02"),
			t.Side.String(),
			t.Setup.String(),
			price(t.EntryPrice),
			price(t.Stop),
			price(t.Target),
			fmt.Sprintf("%.2f", t.Size),
			t.Outcome.String(),
			exitTime(t),
			fmt.Sprintf("%.2f", t.PnL),
			fmt.Sprintf("%.2f", t.RMultiple()),
			t.Context.Reason.String(),
		})
	}
	table.Render()
}

func exitTime(t simulator.Trade) string {
	if t.ExitTime.IsZero() {
		return "-"
	}
	return t.ExitTime.Format("15:04")
}
