package orbrun

import (
	"github.com/raykavin/orbrun/pkg/logger"
	"github.com/raykavin/orbrun/pkg/storage"
)

// Option is a functional option for configuring a Backtest
type Option func(*Backtest)

// WithStorage records trades and decisions of Run into storage. Comparison
// and optimization runs are never recorded.
func WithStorage(storage storage.Storage) Option {
	return func(b *Backtest) {
		b.storage = storage
	}
}

// WithLogger sets the logger, by default DefaultLog is used
func WithLogger(log logger.Logger) Option {
	return func(b *Backtest) {
		b.log = log
	}
}

// WithProgress shows a progress bar while running
func WithProgress() Option {
	return func(b *Backtest) {
		b.progress = true
	}
}
