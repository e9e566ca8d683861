package feed

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/jpillora/backoff"
	"github.com/raykavin/orbrun/pkg/core"
)

// Binance downloads klines from the public spot API
type Binance struct {
	client  *binance.Client
	backoff *backoff.Backoff
	retries int
}

// BinanceOption configures a Binance feed
type BinanceOption func(*Binance)

// WithCredentials sets API credentials, only needed for higher rate limits
func WithCredentials(key, secret string) BinanceOption {
	return func(b *Binance) {
		b.client = binance.NewClient(key, secret)
	}
}

// WithBaseURL points the client at another REST endpoint
func WithBaseURL(url string) BinanceOption {
	return func(b *Binance) {
		b.client.BaseURL = url
	}
}

// WithRetries sets how many times a failed request is retried
func WithRetries(retries int) BinanceOption {
	return func(b *Binance) {
		b.retries = retries
	}
}

// NewBinance creates a kline feed
func NewBinance(options ...BinanceOption) *Binance {
	b := &Binance{
		client:  binance.NewClient("", ""),
		backoff: setupBackoffRetry(),
		retries: 3,
	}
	for _, option := range options {
		option(b)
	}
	return b
}

func setupBackoffRetry() *backoff.Backoff {
	return &backoff.Backoff{
		Min:    100 * time.Millisecond,
		Max:    5 * time.Second,
		Factor: 2,
	}
}

// CandlesByPeriod fetches klines opening within [start, end]
func (b *Binance) CandlesByPeriod(ctx context.Context, symbol string, tf core.Timeframe,
	start, end time.Time) ([]core.Candle, error) {

	var (
		data []*binance.Kline
		err  error
	)

	b.backoff.Reset()
	for attempt := 0; ; attempt++ {
		data, err = b.client.NewKlinesService().
			Symbol(symbol).
			Interval(tf.String()).
			StartTime(start.UnixMilli()).
			EndTime(end.UnixMilli()).
			Limit(batchSize).
			Do(ctx)
		if err == nil || attempt >= b.retries {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(b.backoff.Duration()):
		}
	}
	if err != nil {
		return nil, fmt.Errorf("klines %s %s: %w", symbol, tf, err)
	}

	candles := make([]core.Candle, 0, len(data))
	for _, d := range data {
		candle, err := convertKlineToCandle(*d)
		if err != nil {
			return nil, err
		}
		candles = append(candles, candle)
	}
	return candles, nil
}

func convertKlineToCandle(k binance.Kline) (core.Candle, error) {
	candle := core.Candle{Time: time.UnixMilli(k.OpenTime).UTC()}

	for _, field := range []struct {
		raw    string
		target *float64
	}{
		{k.Open, &candle.Open},
		{k.High, &candle.High},
		{k.Low, &candle.Low},
		{k.Close, &candle.Close},
		{k.Volume, &candle.Volume},
	} {
		value, err := strconv.ParseFloat(field.raw, 64)
		if err != nil {
			return core.Candle{}, fmt.Errorf("kline %d: %w", k.OpenTime, err)
		}
		*field.target = value
	}
	return candle, nil
}
