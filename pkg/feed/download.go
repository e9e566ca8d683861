package feed

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/raykavin/orbrun/pkg/core"
	"github.com/raykavin/orbrun/pkg/logger"
	"github.com/schollz/progressbar/v3"
)

const batchSize = 500

// Downloader stores candles from a feeder as CSV files
type Downloader struct {
	feeder   core.Feeder
	log      logger.Logger
	progress bool
}

// NewDownloader creates a downloader reading from feeder
func NewDownloader(feeder core.Feeder, log logger.Logger, progress bool) Downloader {
	if log == nil {
		log = logger.Nop()
	}
	return Downloader{feeder: feeder, log: log, progress: progress}
}

// Parameters defines the time range for data download
type Parameters struct {
	Start     time.Time
	End       time.Time
	Precision int
}

// Option configures a download
type Option func(*Parameters)

// WithInterval sets specific start and end times for the download
func WithInterval(start, end time.Time) Option {
	return func(parameters *Parameters) {
		parameters.Start = start
		parameters.End = end
	}
}

// WithDays sets the download period to a number of days up to now
func WithDays(days int) Option {
	return func(parameters *Parameters) {
		parameters.Start = time.Now().AddDate(0, 0, -days)
		parameters.End = time.Now()
	}
}

// WithPrecision sets the number of decimals written for prices
func WithPrecision(precision int) Option {
	return func(parameters *Parameters) {
		parameters.Precision = precision
	}
}

func initializeParameters() *Parameters {
	now := time.Now()
	return &Parameters{
		Start:     now.AddDate(0, -1, 0),
		End:       now,
		Precision: 2,
	}
}

// normalizeTimeParameters moves start to midnight UTC and caps end at now
func normalizeTimeParameters(parameters *Parameters) {
	parameters.Start = core.DayOf(parameters.Start)
	if now := time.Now(); parameters.End.After(now) {
		parameters.End = now
	}
}

// Download writes the candles of symbol and tf to outputPath. It returns the
// number of candles written.
func (d Downloader) Download(ctx context.Context, symbol string, tf core.Timeframe, outputPath string, options ...Option) (int, error) {
	parameters := initializeParameters()
	for _, option := range options {
		option(parameters)
	}
	normalizeTimeParameters(parameters)

	interval := tf.Duration()
	candleCount := int(parameters.End.Sub(parameters.Start)/interval) + 1

	d.log.Infof("Downloading %d candles of %s for %s", candleCount, tf, symbol)

	var candles []core.Candle
	var bar *progressbar.ProgressBar
	if d.progress {
		bar = progressbar.Default(int64(candleCount))
	}

	missing := 0
	for batchStart := parameters.Start; batchStart.Before(parameters.End); batchStart = batchStart.Add(interval * batchSize) {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		batchEnd := calculateBatchEnd(batchStart, interval, parameters.End)
		batch, err := d.feeder.CandlesByPeriod(ctx, symbol, tf, batchStart, batchEnd)
		if err != nil {
			return 0, err
		}
		candles = append(candles, batch...)

		if !batchEnd.Equal(parameters.End) && len(batch) < batchSize {
			missing += batchSize - len(batch)
		}
		if bar != nil {
			if err := bar.Add(len(batch)); err != nil {
				d.log.Warnf("Failed to update progress bar: %s", err)
			}
		}
	}
	if bar != nil {
		if err := bar.Close(); err != nil {
			d.log.Warnf("Failed to close progress bar: %s", err)
		}
	}

	if missing > 0 {
		d.log.Warnf("%d missing candles", missing)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return 0, err
	}
	file, err := os.Create(outputPath)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	if err := WriteCSV(file, candles, parameters.Precision); err != nil {
		return 0, err
	}
	d.log.WithField("file", outputPath).Infof("Saved %d %s candles", len(candles), tf)
	return len(candles), nil
}

// calculateBatchEnd stops one second before the next batch starts
func calculateBatchEnd(batchStart time.Time, interval time.Duration, totalEnd time.Time) time.Time {
	potentialEnd := batchStart.Add(interval * batchSize)
	if potentialEnd.Before(totalEnd) {
		return potentialEnd.Add(-1 * time.Second)
	}
	return totalEnd
}
