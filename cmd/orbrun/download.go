package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/raykavin/orbrun"
	"github.com/raykavin/orbrun/pkg/core"
	"github.com/raykavin/orbrun/pkg/feed"
	"github.com/spf13/cobra"
)

// Download command flags
var (
	symbol    string
	days      int
	startDate string
	endDate   string
	outputDir string
	baseURL   string
	tickSize  float64
)

func buildDownloadCmd() *cobra.Command {
	downloadCmd := &cobra.Command{
		Use:   "download",
		Short: "Download 15m, 1h, 4h and 1d klines from Binance",
		RunE:  runDownload,
	}

	downloadCmd.Flags().StringVarP(&symbol, "symbol", "s", "", "Trading pair (e.g. BTCUSDT)")
	downloadCmd.Flags().IntVarP(&days, "days", "d", 0, "Number of days to download (default 30 days)")
	downloadCmd.Flags().StringVar(&startDate, "start", "", "Start date (e.g. 2024-01-01)")
	downloadCmd.Flags().StringVar(&endDate, "end", "", "End date (e.g. 2024-06-30)")
	downloadCmd.Flags().StringVarP(&outputDir, "output", "o", ".", "Directory for the CSV files")
	downloadCmd.Flags().StringVar(&baseURL, "base-url", "", "Alternative Binance API endpoint")
	downloadCmd.Flags().Float64Var(&tickSize, "tick-size", 0.01, "Price increment, sets the decimals written")

	downloadCmd.MarkFlagRequired("symbol")

	return downloadCmd
}

func runDownload(cmd *cobra.Command, args []string) error {
	options, err := buildDownloadOptions()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return err
	}

	binanceOptions := []feed.BinanceOption{
		feed.WithCredentials(os.Getenv("BINANCE_API_KEY"), os.Getenv("BINANCE_SECRET_KEY")),
	}
	if baseURL != "" {
		binanceOptions = append(binanceOptions, feed.WithBaseURL(baseURL))
	}

	downloader := feed.NewDownloader(feed.NewBinance(binanceOptions...), orbrun.DefaultLog, true)
	for _, tf := range core.Timeframes {
		path := filepath.Join(outputDir, fmt.Sprintf("%s_%s.csv", symbol, tf))
		n, err := downloader.Download(cmd.Context(), symbol, tf, path, options...)
		if err != nil {
			return fmt.Errorf("%s: %w", tf, err)
		}
		orbrun.DefaultLog.Infof("Saved %d %s candles to %s", n, tf, path)
	}
	return nil
}

func buildDownloadOptions() ([]feed.Option, error) {
	options := []feed.Option{
		feed.WithPrecision(core.Instrument{Symbol: symbol, TickSize: tickSize}.Precision()),
	}

	if days > 0 {
		options = append(options, feed.WithDays(days))
	}

	if startDate != "" || endDate != "" {
		if startDate == "" || endDate == "" {
			return nil, fmt.Errorf("START and END dates must be provided together")
		}

		start, err := time.Parse(dateLayout, startDate)
		if err != nil {
			return nil, fmt.Errorf("invalid start date format: %w", err)
		}

		end, err := time.Parse(dateLayout, endDate)
		if err != nil {
			return nil, fmt.Errorf("invalid end date format: %w", err)
		}

		options = append(options, feed.WithInterval(start, end))
	}

	return options, nil
}
