package zerolog

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/raykavin/orbrun/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{Level: "debug", JSON: true, Output: &buf})
	require.NoError(t, err)

	log.WithField("day", "2024-03-04").WithError(errors.New("boom")).Info("day skipped")

	out := buf.String()
	assert.Contains(t, out, `"day":"2024-03-04"`)
	assert.Contains(t, out, `"error":"boom"`)
	assert.Contains(t, out, `"message":"day skipped"`)
	assert.Equal(t, logger.DebugLevel, log.GetLevel())
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(Options{Level: "loud"})
	assert.Error(t, err)
}

func TestLevelConversion(t *testing.T) {
	for _, lvl := range []logger.Level{logger.TraceLevel, logger.DebugLevel, logger.InfoLevel, logger.WarnLevel, logger.ErrorLevel} {
		assert.Equal(t, lvl, toLevel(toZerologLevel(lvl)))
	}
}

func TestFormatCaller(t *testing.T) {
	assert.Equal(t, "", formatCaller(""))
	assert.Contains(t, formatCaller("/tmp/engine.go:42"), "engine.go")
}

func TestNew_PlainConsole(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{Level: "info", DateTimeLayout: "15:04", Output: &buf})
	require.NoError(t, err)

	log.Debug("hidden")
	log.Warnf("range %d points", 12)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[WAR]")
	assert.Contains(t, out, "> range 12 points")
	assert.NotContains(t, out, "\x1b[")
}

func TestConsole_Message(t *testing.T) {
	c := console{}
	assert.Equal(t, ">", c.message(""))
	assert.Len(t, c.message(strings.Repeat("x", 200)), 2+messageWidth)
	assert.Equal(t, "[UNK]", c.level("verbose"))
}
