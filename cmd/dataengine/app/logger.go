package app

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/agentstation/dataengine/pkg/logging"
)

// NewLogger builds the CLI logger. An explicit log level beats -q, which
// beats -v; with none of them the level is info.
func NewLogger(config *Config) zerolog.Logger {
	level := logLevel(config, os.Stderr)
	return logging.New(&logging.Config{
		Level:     level,
		Format:    config.LogFormat,
		Output:    config.LogOutput,
		AddCaller: level == "debug" || level == "trace",
	})
}

// logLevel resolves the configured level, writing any warning to warn.
func logLevel(config *Config, warn io.Writer) string {
	if config.LogLevel != "" {
		level := logging.ParseLevel(config.LogLevel)
		if level.String() != config.LogLevel {
			fmt.Fprintf(warn, "Warning: invalid log level %q, using %q\n", config.LogLevel, level.String())
		}
		return level.String()
	}
	switch {
	case config.Quiet && config.Verbose:
		fmt.Fprintln(warn, "Warning: both --verbose and --quiet specified, using --quiet")
		return "warn"
	case config.Quiet:
		return "warn"
	case config.Verbose:
		return "debug"
	default:
		return "info"
	}
}
