// Package logging configures zerolog for the Canvas client and its tools and
// names the context fields every package logs with.
//
// Levels:
//
//	debug  page fetches, run summaries, cache hits and revalidation
//	info   304 responses, page limits, server lifecycle
//	warn   retries, throttling, unparsable Link headers, cache errors
//	error  requests failed after retries, circuit breaker trips
package logging

import (
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Context field names.
const (
	FieldComponent = "component"
	FieldService   = "service"
	FieldRunID     = "run_id"
	FieldPage      = "page"
	FieldMethod    = "method"
	FieldURL       = "url"
	FieldActingAs  = "as_user_id"
	FieldStatus    = "status"
	FieldClass     = "error_class"
)

// LogLevel is a level name as read from configuration.
type LogLevel string

const (
	LevelDebug    LogLevel = "debug"
	LevelInfo     LogLevel = "info"
	LevelWarn     LogLevel = "warn"
	LevelError    LogLevel = "error"
	LevelDisabled LogLevel = "disabled"
)

// Config holds logger configuration.
type Config struct {
	Level LogLevel

	// Pretty selects the console writer instead of JSON lines.
	Pretty bool

	// Output defaults to os.Stderr.
	Output io.Writer

	// Service, when set, is stamped on every line.
	Service string
}

// DefaultConfig returns info-level JSON logging to stderr.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Output: os.Stderr,
	}
}

// ConfigFromEnv reads LOG_LEVEL and LOG_FORMAT ("json" or "console") through
// getenv. LOG_PRETTY is still honored as a boolean for console output.
func ConfigFromEnv(service string, getenv func(string) string) Config {
	cfg := DefaultConfig()
	cfg.Service = service

	if level := getenv("LOG_LEVEL"); level != "" {
		cfg.Level = LogLevel(strings.ToLower(strings.TrimSpace(level)))
	}

	switch strings.ToLower(getenv("LOG_FORMAT")) {
	case "console", "pretty", "text":
		cfg.Pretty = true
	case "json":
		cfg.Pretty = false
	default:
		if pretty, err := strconv.ParseBool(getenv("LOG_PRETTY")); err == nil {
			cfg.Pretty = pretty
		}
	}
	return cfg
}

// Setup configures the global zerolog logger and returns it. Loggers created
// with NewLogger afterwards inherit its output.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(ParseLevel(string(cfg.Level)))

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out}
	}

	ctx := zerolog.New(out).With().Timestamp()
	if cfg.Service != "" {
		ctx = ctx.Str(FieldService, cfg.Service)
	}
	logger := ctx.Logger()
	log.Logger = logger

	return logger
}

// ParseLevel converts a level name to a zerolog.Level. Unknown names map to
// info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
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

// NewLogger creates a logger for one package of the client.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str(FieldComponent, component).Logger()
}

// ForRun tags logger with a pagination run.
func ForRun(logger zerolog.Logger, runID string) zerolog.Logger {
	return logger.With().Str(FieldRunID, runID).Logger()
}

// ForRequest tags logger with one Canvas request. The acting-as field is only
// added when an identity is set.
func ForRequest(logger zerolog.Logger, method, url, actingAs string) zerolog.Logger {
	ctx := logger.With().Str(FieldMethod, method).Str(FieldURL, url)
	if actingAs != "" {
		ctx = ctx.Str(FieldActingAs, actingAs)
	}
	return ctx.Logger()
}
