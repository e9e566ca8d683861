package zerolog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/goterm/term"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

const (
	messageWidth = 80
	fileWidth    = 18
	lineWidth    = 4
)

// Options controls the console output
type Options struct {
	Level          string
	DateTimeLayout string
	Colored        bool
	JSON           bool
	// Output defaults to stdout
	Output io.Writer
}

// New builds a zerolog backed logger.Logger. Errors created with
// github.com/pkg/errors are logged with their stack.
func New(opts Options) (*ZerologAdapter, error) {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	level, err := zerolog.ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	zerolog.SetGlobalLevel(level)

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	if opts.JSON {
		l := zerolog.New(out).With().Timestamp().Stack().Logger()
		return NewAdapter(&l), nil
	}

	f := console{colored: opts.Colored, layout: opts.DateTimeLayout}
	writer := zerolog.ConsoleWriter{
		Out:             out,
		NoColor:         !opts.Colored,
		TimeFormat:      opts.DateTimeLayout,
		FormatLevel:     f.level,
		FormatMessage:   f.message,
		FormatCaller:    f.caller,
		FormatTimestamp: f.timestamp,
	}

	l := zerolog.New(writer).With().Timestamp().CallerWithSkipFrameCount(3).Logger()
	return NewAdapter(&l), nil
}

type paint func(format string, args ...any) string

// levelTags maps zerolog level names to their console tag and colour
var levelTags = map[string]struct {
	tag   string
	color paint
}{
	zerolog.LevelTraceValue: {"[TRC]", term.Cyanf},
	zerolog.LevelDebugValue: {"[DBG]", term.Cyanf},
	zerolog.LevelInfoValue:  {"[INF]", term.Greenf},
	zerolog.LevelWarnValue:  {"[WAR]", term.Yellowf},
	zerolog.LevelErrorValue: {"[ERR]", term.Redf},
	zerolog.LevelFatalValue: {"[FTL]", term.Redf},
	zerolog.LevelPanicValue: {"[PAN]", term.Redf},
}

// console renders the fields of a ConsoleWriter line
type console struct {
	colored bool
	layout  string
}

func (c console) paint(color paint, format string, args ...any) string {
	if !c.colored {
		return fmt.Sprintf(format, args...)
	}
	return color(format, args...)
}

func (c console) level(i any) string {
	name, _ := i.(string)
	if t, ok := levelTags[name]; ok {
		return c.paint(t.color, "%s", t.tag)
	}
	return c.paint(term.Whitef, "[UNK]")
}

// message pads or cuts the text to a fixed width so fields line up
func (c console) message(i any) string {
	msg, _ := i.(string)
	if msg == "" {
		return ">"
	}
	if len(msg) > messageWidth {
		msg = msg[:messageWidth]
	}
	return c.paint(term.Whitef, "> %-*s", messageWidth, msg)
}

func (c console) caller(i any) string {
	s := formatCaller(i)
	if s == "" {
		return ""
	}
	return c.paint(term.Yellowf, "[%s]", s)
}

func (c console) timestamp(i any) string {
	raw, ok := i.(string)
	if !ok {
		return c.paint(term.Cyanf, "[%v]", i)
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil && c.layout != "" {
		raw = ts.In(time.Local).Format(c.layout)
	}
	return c.paint(term.Cyanf, "[%s]", raw)
}

// formatCaller shortens a file:line caller to a fixed width base name
func formatCaller(i any) string {
	path, _ := i.(string)
	if path == "" {
		return ""
	}

	file, line, ok := strings.Cut(filepath.Base(path), ":")
	if !ok {
		return file
	}
	if len(file) > fileWidth {
		file = file[:fileWidth]
	}
	if len(line) > lineWidth {
		line = line[len(line)-lineWidth:]
	}
	return fmt.Sprintf("%-*s:%*s", fileWidth, file, lineWidth, line)
}
