package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	once   sync.Once
	global = zerolog.New(os.Stdout).With().Timestamp().Logger()
)

// Init configures the process-wide logger. Only the first call has effect.
func Init(level, format string) {
	once.Do(func() {
		var out io.Writer = os.Stdout
		if strings.EqualFold(format, "console") {
			out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		}
		parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
		if err != nil || parsed == zerolog.NoLevel {
			parsed = zerolog.InfoLevel
		}
		zerolog.TimeFieldFormat = time.RFC3339
		global = zerolog.New(out).Level(parsed).With().Timestamp().Logger()
		log.Logger = global
	})
}

func Logger() *zerolog.Logger {
	return &global
}

// WithFields returns a context carrying a child logger with the given fields.
func WithFields(ctx context.Context, fields map[string]any) context.Context {
	l := FromContext(ctx).With().Fields(fields).Logger()
	return l.WithContext(ctx)
}

// FromContext returns the logger stored in ctx, or the global logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	l := zerolog.Ctx(ctx)
	if l.GetLevel() == zerolog.Disabled {
		return &global
	}
	return l
}
