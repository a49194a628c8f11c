package logger_i

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/akolanti/RegGuru/internal/config"
)

// Logger resolves slog.Default at call time, so loggers created in package
// vars pick up the handler installed later by Init.
type Logger struct {
	attrs []any
}

func Init() {
	InitTo(os.Stdout)
}

// InitTo installs the default handler writing to w. The MCP stdio server logs to stderr.
func InitTo(w io.Writer) {
	settings := config.Get()
	options := &slog.HandlerOptions{
		Level: parseLevel(settings.LogLevel),
	}

	var handler slog.Handler
	if settings.Prod {
		if options.Level.Level() < config.LOG_LEVEL_PROD {
			options.Level = config.LOG_LEVEL_PROD
		}
		handler = slog.NewJSONHandler(w, options)
	} else {
		handler = slog.NewTextHandler(w, options)
	}
	slog.SetDefault(slog.New(handler))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}

func NewLogger(section string) *Logger {
	return &Logger{
		attrs: []any{"component", section},
	}
}

func (l *Logger) inner() *slog.Logger {
	return slog.Default().With(l.attrs...)
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
	attrs := make([]any, 0, len(l.attrs)+len(args))
	attrs = append(attrs, l.attrs...)
	return &Logger{
		attrs: append(attrs, args...),
	}
}

// WithTrace attaches the trace id carried by ctx, if any.
func (l *Logger) WithTrace(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}
	if trace, ok := ctx.Value(config.TRACE_ID_KEY).(string); ok && trace != "" {
		return l.With("traceId", trace)
	}
	return l
}
