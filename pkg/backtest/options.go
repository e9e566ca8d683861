package backtest

import (
	"github.com/raykavin/orbrun/pkg/logger"
	"github.com/raykavin/orbrun/pkg/marketctx"
)

// Option is a functional option for configuring an Engine
type Option func(*Engine)

// WithLogger sets the logger, by default nothing is logged
func WithLogger(log logger.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// WithRecorder persists every trade and decision while running
func WithRecorder(recorder Recorder) Option {
	return func(e *Engine) {
		e.recorder = recorder
	}
}

// WithProgress shows a progress bar over the trading days
func WithProgress() Option {
	return func(e *Engine) {
		e.progress = true
	}
}

// WithAnalyzer shares a context analyzer between runs over the same data
func WithAnalyzer(analyzer *marketctx.Analyzer) Option {
	return func(e *Engine) {
		e.analyzer = analyzer
	}
}
