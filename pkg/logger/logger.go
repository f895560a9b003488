// Package logger configures the process-wide slog logger. Records pass
// through a redaction handler (broker credentials never reach the sink) and a
// trace-context handler before the JSON/text sink.
package logger

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"
)

type Config struct {
	Level  string `env:"LOG_LEVEL" env-default:"INFO"`
	Format string `env:"LOG_FORMAT" env-default:"JSON"` // JSON or TEXT
}

var (
	defaultLogger *slog.Logger
	once          sync.Once
)

// Init builds the process logger from cfg, installs it as slog's default, and
// returns it. The first Init wins for L(); later calls still return a fresh
// logger built from their own cfg.
func Init(cfg Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Value = slog.StringValue(a.Value.Time().Format(time.RFC3339))
			}
			return a
		},
	}

	var sink slog.Handler
	if cfg.Format == "TEXT" {
		sink = slog.NewTextHandler(os.Stdout, opts)
	} else {
		sink = slog.NewJSONHandler(os.Stdout, opts)
	}

	l := slog.New(NewTraceHandler(NewRedactHandler(sink)))
	slog.SetDefault(l)

	once.Do(func() { defaultLogger = l })
	return l
}

// L returns the logger installed by Init, or slog's default if Init has not
// run. Components should prefer an injected *slog.Logger and fall back to L.
func L() *slog.Logger {
	if defaultLogger == nil {
		return slog.Default()
	}
	return defaultLogger
}

func parseLevel(level string) slog.Level {
	switch level {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// TraceHandler annotates records with trace_id/span_id from the OpenTelemetry
// span in the record's context, so broker lifecycle logs correlate with the
// spans the instrumented connector emits.
type TraceHandler struct {
	next slog.Handler
}

func NewTraceHandler(next slog.Handler) *TraceHandler {
	return &TraceHandler{next: next}
}

func (h *TraceHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *TraceHandler) Handle(ctx context.Context, r slog.Record) error {
	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return h.next.Handle(ctx, r)
}

func (h *TraceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TraceHandler{next: h.next.WithAttrs(attrs)}
}

func (h *TraceHandler) WithGroup(name string) slog.Handler {
	return &TraceHandler{next: h.next.WithGroup(name)}
}
