package indicator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAverageShift(t *testing.T) {
	recent, prior, ok := AverageShift([]float64{1, 2, 3, 4, 5, 6}, 3)
	assert.True(t, ok)
	assert.InDelta(t, 5.0, recent, 1e-9)
	assert.InDelta(t, 2.0, prior, 1e-9)

	recent, prior, ok = AverageShift([]float64{10, 10, 10, 1, 2, 3, 4, 5, 6, 7, 8}, 5)
	assert.True(t, ok)
	assert.InDelta(t, 6.0, recent, 1e-9)
	assert.InDelta(t, 5.2, prior, 1e-9)

	_, _, ok = AverageShift([]float64{1, 2, 3, 4, 5}, 3)
	assert.False(t, ok)
}

func TestATR(t *testing.T) {
	high := []float64{11, 12, 13, 14, 15}
	low := []float64{9, 10, 11, 12, 13}
	closes := []float64{10, 11, 12, 13, 14}

	atr := ATR(high, low, closes, 3)
	assert.Len(t, atr, 5)
	assert.InDelta(t, 2.0, atr[4], 1e-9)
}
