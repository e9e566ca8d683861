package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInstrument_Precision(t *testing.T) {
	tests := map[string]struct {
		tick float64
		want int
	}{
		"index points": {tick: 0.1, want: 1},
		"crypto cents": {tick: 0.01, want: 2},
		"whole ticks":  {tick: 1, want: 0},
		"unset":        {tick: 0, want: 2},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, Instrument{TickSize: tc.tick}.Precision())
		})
	}
}

func TestCandle_Range(t *testing.T) {
	assert.Equal(t, 5.0, Candle{High: 100, Low: 95}.Range())
}
