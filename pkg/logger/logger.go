// Package logger provides structured logging built on log/slog.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger wraps slog.Logger with additional functionality.
type Logger struct {
	*slog.Logger
}

// Config holds logger configuration.
type Config struct {
	Level  string
	Format string
	Output io.Writer
}

// DefaultConfig returns the default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: "text",
		Output: os.Stderr,
	}
}

// New creates a new Logger instance.
func New(cfg Config) *Logger {
	level := parseLevel(cfg.Level)

	opts := &slog.HandlerOptions{
		Level:       level,
		AddSource:   level == slog.LevelDebug,
		ReplaceAttr: sanitizeAttr,
	}

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	default:
		handler = slog.NewTextHandler(output, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewDefault creates a new Logger with default configuration.
func NewDefault() *Logger {
	return New(DefaultConfig())
}

// NewNop creates a logger that discards everything. Used in tests.
func NewNop() *Logger {
	return New(Config{Level: "error", Output: io.Discard})
}

// With returns a Logger that includes the given attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// sensitiveKeys contains keys that should be masked in logs. Repo
// checkouts may be authenticated, so credentials can reach log call
// sites through config structs.
var sensitiveKeys = map[string]bool{
	"password":     true,
	"secret":       true,
	"token":        true,
	"github_token": true,
	"api_key":      true,
	"ssh_key":      true,
	"credential":   true,
}

// sanitizeAttr masks sensitive values in log attributes.
func sanitizeAttr(_ []string, a slog.Attr) slog.Attr {
	key := strings.ToLower(a.Key)

	if sensitiveKeys[key] {
		return slog.String(a.Key, "[REDACTED]")
	}
	for sensitive := range sensitiveKeys {
		if strings.Contains(key, sensitive) {
			return slog.String(a.Key, "[REDACTED]")
		}
	}

	return a
}

// parseLevel converts a string level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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
