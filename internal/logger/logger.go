// Package logger builds the structured logger and carries it through
// contexts.
package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/gajana-dev/gajana/internal/config"
)

type contextKey struct{}

// New creates a logger writing to stderr as configured. Format "json"
// emits one JSON object per line; anything else is human-readable console
// output.
func New(cfg config.LogConfig) (zerolog.Logger, error) {
	var w io.Writer = os.Stderr
	if cfg.Format != "json" {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}
	return build(w, cfg.Level)
}

// NewWithWriter creates a JSON logger writing to w at level.
func NewWithWriter(w io.Writer, level string) (zerolog.Logger, error) {
	return build(w, level)
}

func build(w io.Writer, level string) (zerolog.Logger, error) {
	lvl := zerolog.InfoLevel
	if level != "" {
		var err error
		lvl, err = zerolog.ParseLevel(level)
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("log level %q: %w", level, err)
		}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

// WithContext adds the logger to the context.
func WithContext(ctx context.Context, log zerolog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, log)
}

// FromContext retrieves the logger from the context. Without one it
// returns a disabled logger, so library code never writes unasked.
// Like zerolog.Ctx it returns a pointer so event methods chain directly.
func FromContext(ctx context.Context) *zerolog.Logger {
	if log, ok := ctx.Value(contextKey{}).(zerolog.Logger); ok {
		return &log
	}
	nop := zerolog.Nop()
	return &nop
}
