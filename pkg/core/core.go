package core

import (
	"context"
	"time"
)

// Feeder provides historical candles for a symbol and timeframe
type Feeder interface {
	CandlesByPeriod(ctx context.Context, symbol string, tf Timeframe, start, end time.Time) ([]Candle, error)
}
