package logging

import (
	"context"
	"log/slog"
)

// RedactingHandler masks credentials in attribute values before passing
// records to the wrapped handler. Attributes whose key names a credential
// are masked whole; string values are scanned for key-shaped tokens.
type RedactingHandler struct {
	next     slog.Handler
	redactor *Redactor
}

// NewRedactingHandler wraps next.
func NewRedactingHandler(next slog.Handler, redactor *Redactor) *RedactingHandler {
	return &RedactingHandler{next: next, redactor: redactor}
}

// Enabled implements slog.Handler.
func (h *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *RedactingHandler) Handle(ctx context.Context, record slog.Record) error {
	out := slog.NewRecord(record.Time, record.Level, h.redactor.RedactString(record.Message), record.PC)

	for _, attr := range contextAttrs(ctx) {
		out.AddAttrs(attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		out.AddAttrs(h.redact(attr))
		return true
	})

	return h.next.Handle(ctx, out)
}

// WithAttrs implements slog.Handler.
func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, attr := range attrs {
		redacted[i] = h.redact(attr)
	}
	return &RedactingHandler{next: h.next.WithAttrs(redacted), redactor: h.redactor}
}

// WithGroup implements slog.Handler.
func (h *RedactingHandler) WithGroup(name string) slog.Handler {
	return &RedactingHandler{next: h.next.WithGroup(name), redactor: h.redactor}
}

func (h *RedactingHandler) redact(attr slog.Attr) slog.Attr {
	value := attr.Value.Resolve()

	switch value.Kind() {
	case slog.KindGroup:
		group := value.Group()
		redacted := make([]any, len(group))
		for i, a := range group {
			redacted[i] = h.redact(a)
		}
		return slog.Group(attr.Key, redacted...)

	case slog.KindString:
		if IsSensitiveKey(attr.Key) {
			return slog.String(attr.Key, RedactAPIKey(value.String()))
		}
		return slog.String(attr.Key, h.redactor.RedactString(value.String()))

	case slog.KindAny:
		if err, ok := value.Any().(error); ok {
			return slog.String(attr.Key, h.redactor.RedactString(err.Error()))
		}
		if IsSensitiveKey(attr.Key) {
			return slog.String(attr.Key, "***")
		}
		return attr

	default:
		return attr
	}
}
