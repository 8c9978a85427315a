// Package logging builds the zerolog loggers used by the command line tools.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// EnvLogLevel overrides the configured level when set.
const EnvLogLevel = "DS1307CTL_LOG_LEVEL"

type Config struct {
	Level   string
	NoColor bool
	Out     io.Writer
}

// New returns a console logger. Unknown levels fall back to info.
func New(cfg Config) zerolog.Logger {
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Level = v
	}
	if cfg.Out == nil {
		cfg.Out = os.Stderr
	}
	out := zerolog.ConsoleWriter{
		Out:        cfg.Out,
		NoColor:    cfg.NoColor,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(out).Level(ParseLevel(cfg.Level)).With().Timestamp().Logger()
}

// ParseLevel maps a level name to a zerolog level.
func ParseLevel(raw string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off", "none":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
