package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/nerrad567/homenet/internal/infrastructure/config"
)

const serviceName = "homenet"

// Logger is a slog.Logger carrying the service and version attributes.
// Loggers derived with With or Component share the parent's level, so
// SetLevel on any of them affects all.
type Logger struct {
	*slog.Logger
	level *slog.LevelVar
}

// New builds the process logger from cfg.
//
// Every entry carries service=homenet and the build version. The level is
// held in a LevelVar shared by every logger derived with With or
// Component, so SetLevel on any of them changes it process-wide.
//
// Parameters:
//   - cfg: Level (debug|info|warn|error, default info), format (json|text)
//     and output ("stderr", anything else is stdout)
//   - version: Build version stamped on each entry
//
// Returns:
//   - *Logger: Ready to use; never nil
func New(cfg config.LoggingConfig, version string) *Logger {
	out := io.Writer(os.Stdout)
	if strings.EqualFold(cfg.Output, "stderr") {
		out = os.Stderr
	}
	return NewWithWriter(cfg, version, out)
}

// NewWithWriter is New with an explicit destination; cfg.Output is ignored.
// Format "text" selects the text handler, anything else JSON.
func NewWithWriter(cfg config.LoggingConfig, version string, out io.Writer) *Logger {
	level := new(slog.LevelVar)
	level.Set(parseLevel(cfg.Level))
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler = slog.NewJSONHandler(out, opts)
	if strings.EqualFold(cfg.Format, "text") {
		h = slog.NewTextHandler(out, opts)
	}
	h = h.WithAttrs([]slog.Attr{
		slog.String("service", serviceName),
		slog.String("version", version),
	})

	return &Logger{Logger: slog.New(h), level: level}
}

// parseLevel maps debug, info, warn (or warning) and error to slog levels.
// Anything else is info.
func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// With returns a child logger with extra attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...), level: l.level}
}

// Component returns a child logger tagged with component=name.
func (l *Logger) Component(name string) *Logger {
	return l.With("component", name)
}

// Level returns the current minimum level as a lower-case name.
func (l *Logger) Level() string {
	return strings.ToLower(l.level.Level().String())
}

// SetLevel changes the minimum level of this logger and every logger
// sharing its level.
func (l *Logger) SetLevel(name string) error {
	switch strings.ToLower(name) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log level %q", name)
	}
	l.level.Set(parseLevel(name))
	return nil
}

// Default is the bootstrap logger used before the config is loaded:
// JSON to stdout at info.
func Default() *Logger {
	return New(config.LoggingConfig{Level: "info", Format: "json", Output: "stdout"}, "dev")
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return NewWithWriter(config.LoggingConfig{Level: "error"}, "test", io.Discard)
}
