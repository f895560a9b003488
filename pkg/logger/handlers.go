package logger

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
)

// amqpURLUserinfo matches the user:password@ segment of an amqp/amqps dial
// URL. Connector dial URLs carry broker credentials inline; any record that
// includes one (connect failures do, via the wrapped driver error) must not
// reach the sink intact.
var amqpURLUserinfo = regexp.MustCompile(`(amqps?://)[^@/\s]+@`)

// credentialKeys are attribute-key substrings whose string values are always
// replaced wholesale.
var credentialKeys = []string{
	"password", "secret", "token", "authorization", "credential",
}

// RedactHandler scrubs broker credentials from log records before they reach
// the underlying handler: attributes with credential-shaped keys are replaced
// with a marker, and amqp:// URL userinfo is stripped from every string value,
// from the text of error values, and from the message itself.
type RedactHandler struct {
	next slog.Handler
}

func NewRedactHandler(next slog.Handler) *RedactHandler {
	return &RedactHandler{next: next}
}

func (h *RedactHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *RedactHandler) Handle(ctx context.Context, r slog.Record) error {
	attrs := make([]slog.Attr, 0, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, redactAttr(a))
		return true
	})

	clean := slog.NewRecord(r.Time, r.Level, redactString(r.Message), r.PC)
	clean.AddAttrs(attrs...)
	return h.next.Handle(ctx, clean)
}

func redactAttr(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindGroup:
		group := a.Value.Group()
		clean := make([]slog.Attr, len(group))
		for i, sub := range group {
			clean[i] = redactAttr(sub)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(clean...)}

	case slog.KindString:
		key := strings.ToLower(a.Key)
		for _, k := range credentialKeys {
			if strings.Contains(key, k) {
				return slog.String(a.Key, "[REDACTED]")
			}
		}
		return slog.String(a.Key, redactString(a.Value.String()))

	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok {
			return slog.String(a.Key, redactString(err.Error()))
		}
		return a

	default:
		return a
	}
}

func redactString(s string) string {
	return amqpURLUserinfo.ReplaceAllString(s, "${1}[REDACTED]@")
}

func (h *RedactHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &RedactHandler{next: h.next.WithAttrs(attrs)}
}

func (h *RedactHandler) WithGroup(name string) slog.Handler {
	return &RedactHandler{next: h.next.WithGroup(name)}
}
