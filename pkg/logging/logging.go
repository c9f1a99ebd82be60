// Package logging configures zerolog for the data engine and carries loggers
// through contexts.
//
// Engine code never holds a logger; it asks the context:
//
//	logging.FromContext(ctx).Info().
//	    Str("kind", "SchemaType").
//	    Str("qualified_name", "db1.orders").
//	    Msg("Created object")
package logging

import (
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/agentstation/dataengine/pkg/constants"
)

// Output formats.
const (
	FormatAuto    = "auto"
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Config describes how a logger writes.
type Config struct {
	// Level is trace, debug, info, warn, error or off. Unknown values mean info.
	Level string

	// Format is auto, json or console. Auto picks console on a terminal.
	Format string

	// Output is stderr, stdout, discard or a file path opened for append.
	Output string

	// AddCaller adds file:line to every entry.
	AddCaller bool

	// Fields are attached to every entry.
	Fields map[string]string
}

var defaultLogger atomic.Pointer[zerolog.Logger]

func init() {
	SetDefault(New(&Config{
		Level:  os.Getenv(constants.EnvPrefix + "_LOG_LEVEL"),
		Format: FormatAuto,
	}))
}

// New builds a logger from cfg. A nil cfg gives an info level logger on
// stderr.
func New(cfg *Config) zerolog.Logger {
	if cfg == nil {
		cfg = &Config{}
	}
	level := ParseLevel(cfg.Level)

	ctx := zerolog.New(writer(cfg)).Level(level).With().Timestamp()
	if cfg.AddCaller {
		ctx = ctx.Caller()
	}
	for k, v := range cfg.Fields {
		ctx = ctx.Str(k, v)
	}
	return ctx.Logger()
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(s string) zerolog.Level {
	switch s = strings.ToLower(strings.TrimSpace(s)); s {
	case "":
		return zerolog.InfoLevel
	case "warning":
		return zerolog.WarnLevel
	case "off", "none":
		return zerolog.Disabled
	}
	level, err := zerolog.ParseLevel(s)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

// Default returns the process-wide logger used when a context carries none.
func Default() *zerolog.Logger {
	return defaultLogger.Load()
}

// SetDefault replaces the process-wide logger, including zerolog's global
// log.Logger.
func SetDefault(logger zerolog.Logger) {
	defaultLogger.Store(&logger)
	log.Logger = logger
}

func writer(cfg *Config) io.Writer {
	var out io.Writer
	terminal := false
	switch strings.ToLower(cfg.Output) {
	case "", "stderr":
		out = os.Stderr
		terminal = isatty.IsTerminal(os.Stderr.Fd())
	case "stdout":
		out = os.Stdout
		terminal = isatty.IsTerminal(os.Stdout.Fd())
	case "discard", "none":
		return io.Discard
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, constants.FilePermissions)
		if err != nil {
			out = os.Stderr
			break
		}
		out = f
	}

	format := strings.ToLower(cfg.Format)
	if format == "" || format == FormatAuto {
		format = FormatJSON
		if terminal {
			format = FormatConsole
		}
	}
	if format != FormatConsole {
		return out
	}
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.TimeOnly,
		NoColor:    os.Getenv("NO_COLOR") != "" || !terminal,
	}
}
