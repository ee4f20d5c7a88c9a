package logger

import (
	"io"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const consoleTimeFormat = "15:04:05.000"

// New builds the process logger. Console output is used for development
// environments, JSON for everything else. Explicit writers always receive
// JSON.
func New(env, level string, writers ...io.Writer) (*zerolog.Logger, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.DurationFieldUnit = time.Millisecond

	l := zerolog.New(output(env, writers)).With().Timestamp().Logger().Level(lvl)
	return &l, nil
}

// Component returns a child of base tagged with the component name. A zero
// base yields a disabled logger.
func Component(base zerolog.Logger, name string) zerolog.Logger {
	if reflect.ValueOf(base).IsZero() {
		return zerolog.Nop()
	}
	return base.With().Str("component", name).Logger()
}

func output(env string, writers []io.Writer) io.Writer {
	if len(writers) > 0 {
		return io.MultiWriter(writers...)
	}
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "development", "dev", "local":
		return zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: consoleTimeFormat}
	default:
		return os.Stdout
	}
}

func parseLevel(level string) (zerolog.Level, error) {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "" {
		return zerolog.InfoLevel, nil
	}
	return zerolog.ParseLevel(level)
}
