package logger_i

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/akolanti/extractview/internal/config"
)

// Logger binds a component name and attributes. The slog handler is looked
// up on every call, so package-level loggers created before Init still
// follow the configured level and format.
type Logger struct {
	section string
	args    []any
}

type Options struct {
	Level  string
	JSON   bool
	Output io.Writer
}

func Init(opts Options) {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	handlerOptions := &slog.HandlerOptions{
		Level: parseLevel(opts.Level),
	}

	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(out, handlerOptions)
	} else {
		handler = slog.NewTextHandler(out, handlerOptions)
	}
	slog.SetDefault(slog.New(handler))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "info":
		return slog.LevelInfo
	default:
		if config.IS_PROD {
			return config.LOG_LEVEL_PROD
		}
		return slog.LevelDebug
	}
}

func NewLogger(section string) *Logger {
	return &Logger{section: section}
}

func (l *Logger) inner() *slog.Logger {
	return slog.Default().With("component", l.section).With(l.args...)
}

// FromContext returns a component logger carrying the request trace id, if any.
func FromContext(ctx context.Context, section string) *Logger {
	l := NewLogger(section)
	if ctx == nil {
		return l
	}
	if trace, ok := ctx.Value(config.TRACE_ID_KEY).(string); ok && trace != "" {
		return l.With("traceId", trace)
	}
	return l
}

func (l *Logger) Info(msg string, args ...any) {
	l.log(slog.LevelInfo, msg, args...)
}

func (l *Logger) Error(msg string, args ...any) {
	l.log(slog.LevelError, msg, args...)
}

func (l *Logger) Warn(msg string, args ...any) {
	l.log(slog.LevelWarn, msg, args...)
}

func (l *Logger) Debug(msg string, args ...any) {
	l.log(slog.LevelDebug, msg, args...)
}

func (l *Logger) log(level slog.Level, msg string, args ...any) {
	base := slog.Default()
	if !base.Enabled(context.Background(), level) {
		return
	}
	l.inner().Log(context.Background(), level, msg, args...)
}

func (l *Logger) With(args ...any) *Logger {
	merged := make([]any, 0, len(l.args)+len(args))
	merged = append(merged, l.args...)
	merged = append(merged, args...)
	return &Logger{section: l.section, args: merged}
}
