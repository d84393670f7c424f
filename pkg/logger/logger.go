package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/angelmondragon/pantrypal-backend/pkg/env"
	"github.com/rs/zerolog"
)

// Options configures the structured logger.
type Options struct {
	ServiceName string
	// Level is a zerolog level name such as "debug" or "warn". Empty means info.
	Level string
	// WarnStack attaches a stack trace to warn entries. Errors always carry one.
	WarnStack bool
	Output    io.Writer
}

// Logger writes JSON entries through zerolog. Request-scoped fields travel in
// the context, so handlers only pass ctx around.
type Logger struct {
	base      zerolog.Logger
	warnStack bool
}

func New(opts Options) *Logger {
	level := ParseLevel(opts.Level)

	zerolog.TimeFieldFormat = time.RFC3339Nano

	base := zerolog.New(writerFor(opts.Output)).
		Level(level).
		With().
		Timestamp().
		Str("service", opts.ServiceName).
		Logger()

	return &Logger{base: base, warnStack: opts.WarnStack}
}

// Nop returns a logger that discards every entry.
func Nop() *Logger {
	return &Logger{base: zerolog.Nop()}
}

// writerFor switches to zerolog's console writer when LOG_FORMAT=console.
func writerFor(out io.Writer) io.Writer {
	if out == nil {
		out = os.Stdout
	}
	if strings.EqualFold(env.Get("LOG_FORMAT", "json"), "console") {
		return zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}
	return out
}

// ParseLevel maps a config value to a zerolog level. Unknown or empty values
// mean info.
func ParseLevel(value string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(value)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
