package main

import (
	"fmt"

	"github.com/raykavin/orbrun"
	"github.com/raykavin/orbrun/pkg/dataset"
	"github.com/raykavin/orbrun/pkg/optimizer"
	"github.com/raykavin/orbrun/pkg/report"
	"github.com/spf13/cobra"
)

// Backtest command flags
var (
	datasetFile string
	store       bool
	showTrades  bool
	progress    bool

	// Optimize command flags
	resultsFile string
	parallelism int
	iterations  int
	top         int
	target      string
	minimize    bool
)

func buildBacktestCmd() *cobra.Command {
	backtestCmd := &cobra.Command{
		Use:   "backtest",
		Short: "Run the configured strategy over historical data",
		RunE:  runBacktest,
	}

	backtestCmd.Flags().StringVar(&datasetFile, "dataset", "", "Write labeled signal features to this CSV")
	backtestCmd.Flags().BoolVar(&store, "store", false, "Record trades and decisions in the configured storage")
	backtestCmd.Flags().BoolVar(&showTrades, "trades", false, "Print every trade")
	backtestCmd.Flags().BoolVar(&progress, "progress", false, "Show a progress bar")

	return backtestCmd
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	data, err := orbrun.Load(cfg, log)
	if err != nil {
		return err
	}

	options := []orbrun.Option{orbrun.WithLogger(log)}
	if progress {
		options = append(options, orbrun.WithProgress())
	}
	if store {
		storage, err := orbrun.OpenStorage(cfg.Storage)
		if err != nil {
			return err
		}
		defer storage.Close()
		options = append(options, orbrun.WithStorage(storage))
	}

	bt, err := orbrun.New(cfg, data, options...)
	if err != nil {
		return err
	}

	result, err := bt.Run(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if err := report.Write(out, result); err != nil {
		return err
	}
	if showTrades {
		fmt.Fprintln(out)
		report.Trades(out, result.Trades, bt.Settings().Simulator.Instrument.Precision())
	}

	if datasetFile != "" {
		records := bt.Dataset(result)
		if err := dataset.Save(datasetFile, records); err != nil {
			return err
		}
		log.Infof("Wrote %d dataset records to %s", len(records), datasetFile)
	}
	return nil
}

func buildCompareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compare",
		Short: "Compare strict, soft and soft with fakeouts on the same data",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}

			data, err := orbrun.Load(cfg, log)
			if err != nil {
				return err
			}

			bt, err := orbrun.New(cfg, data, orbrun.WithLogger(log))
			if err != nil {
				return err
			}

			results, err := bt.Compare(cmd.Context())
			if err != nil {
				return err
			}

			report.Compare(cmd.OutOrStdout(), results...)
			return nil
		},
	}
}

func buildOptimizeCmd() *cobra.Command {
	optimizeCmd := &cobra.Command{
		Use:   "optimize",
		Short: "Grid search over the gate thresholds",
		RunE:  runOptimize,
	}

	optimizeCmd.Flags().StringVarP(&resultsFile, "output", "o", "", "Write every result to this CSV")
	optimizeCmd.Flags().IntVarP(&parallelism, "parallel", "p", 4, "Concurrent backtests")
	optimizeCmd.Flags().IntVar(&iterations, "max", 1000, "Maximum parameter combinations")
	optimizeCmd.Flags().IntVar(&top, "top", 10, "Results printed")
	optimizeCmd.Flags().StringVar(&target, "metric", string(optimizer.MetricProfit), "Metric to rank by")
	optimizeCmd.Flags().BoolVar(&minimize, "minimize", false, "Rank by the lowest metric value")

	return optimizeCmd
}

func runOptimize(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	data, err := orbrun.Load(cfg, log)
	if err != nil {
		return err
	}

	bt, err := orbrun.New(cfg, data, orbrun.WithLogger(log))
	if err != nil {
		return err
	}

	search := optimizer.NewConfig().
		WithParameters(optimizer.DefaultParameters()...).
		WithMaxIterations(iterations).
		WithParallelism(parallelism).
		WithLogger(log).
		WithTargetMetric(optimizer.MetricName(target), !minimize)

	results, err := bt.Optimize(cmd.Context(), search)
	if err != nil {
		return err
	}

	if resultsFile != "" {
		if err := optimizer.SaveResultsToCSV(results, resultsFile); err != nil {
			return err
		}
		log.Infof("Saved %d results to %s", len(results), resultsFile)
	}

	if top > 0 && len(results) > top {
		results = results[:top]
	}
	return optimizer.WriteResults(cmd.OutOrStdout(), results)
}
