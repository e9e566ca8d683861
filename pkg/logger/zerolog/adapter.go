package zerolog

import (
	"fmt"

	"github.com/raykavin/orbrun/pkg/logger"
	"github.com/rs/zerolog"
)

// ZerologAdapter exposes a zerolog.Logger through logger.Logger
type ZerologAdapter struct {
	*zerolog.Logger
}

var _ logger.Logger = (*ZerologAdapter)(nil)

// NewAdapter wraps l
func NewAdapter(l *zerolog.Logger) *ZerologAdapter {
	return &ZerologAdapter{l}
}

// levels pairs every logger.Level with its zerolog counterpart
var levels = []struct {
	own logger.Level
	zl  zerolog.Level
}{
	{logger.Disabled, zerolog.Disabled},
	{logger.NoLevel, zerolog.NoLevel},
	{logger.TraceLevel, zerolog.TraceLevel},
	{logger.DebugLevel, zerolog.DebugLevel},
	{logger.InfoLevel, zerolog.InfoLevel},
	{logger.WarnLevel, zerolog.WarnLevel},
	{logger.ErrorLevel, zerolog.ErrorLevel},
	{logger.FatalLevel, zerolog.FatalLevel},
	{logger.PanicLevel, zerolog.PanicLevel},
}

func toLevel(level zerolog.Level) logger.Level {
	for _, l := range levels {
		if l.zl == level {
			return l.own
		}
	}
	return logger.NoLevel
}

func toZerologLevel(level logger.Level) zerolog.Level {
	for _, l := range levels {
		if l.own == level {
			return l.zl
		}
	}
	return zerolog.NoLevel
}

// GetLevel returns the effective level, the global one wins when stricter
func (z *ZerologAdapter) GetLevel() logger.Level {
	return toLevel(max(z.Logger.GetLevel(), zerolog.GlobalLevel()))
}

// SetLevel changes the global level shared by every adapter
func (z *ZerologAdapter) SetLevel(level logger.Level) {
	zerolog.SetGlobalLevel(toZerologLevel(level))
}

func (z *ZerologAdapter) with(ctx zerolog.Context) logger.Logger {
	l := ctx.Logger()
	return &ZerologAdapter{&l}
}

func (z *ZerologAdapter) WithError(err error) logger.Logger {
	return z.with(z.With().Err(err))
}

func (z *ZerologAdapter) WithField(key string, value any) logger.Logger {
	return z.with(z.With().Interface(key, value))
}

func (z *ZerologAdapter) WithFields(fields map[string]any) logger.Logger {
	return z.with(z.With().Fields(fields))
}

func (z *ZerologAdapter) Trace(args ...any) { z.Logger.Trace().Msg(fmt.Sprint(args...)) }
func (z *ZerologAdapter) Debug(args ...any) { z.Logger.Debug().Msg(fmt.Sprint(args...)) }
func (z *ZerologAdapter) Info(args ...any)  { z.Logger.Info().Msg(fmt.Sprint(args...)) }
func (z *ZerologAdapter) Warn(args ...any)  { z.Logger.Warn().Msg(fmt.Sprint(args...)) }
func (z *ZerologAdapter) Error(args ...any) { z.Logger.Error().Msg(fmt.Sprint(args...)) }
func (z *ZerologAdapter) Fatal(args ...any) { z.Logger.Fatal().Msg(fmt.Sprint(args...)) }

func (z *ZerologAdapter) Tracef(format string, args ...any) { z.Logger.Trace().Msgf(format, args...) }
func (z *ZerologAdapter) Debugf(format string, args ...any) { z.Logger.Debug().Msgf(format, args...) }
func (z *ZerologAdapter) Infof(format string, args ...any)  { z.Logger.Info().Msgf(format, args...) }
func (z *ZerologAdapter) Warnf(format string, args ...any)  { z.Logger.Warn().Msgf(format, args...) }
func (z *ZerologAdapter) Errorf(format string, args ...any) { z.Logger.Error().Msgf(format, args...) }
func (z *ZerologAdapter) Fatalf(format string, args ...any) { z.Logger.Fatal().Msgf(format, args...) }
