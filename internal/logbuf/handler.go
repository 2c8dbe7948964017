package logbuf

import (
	"context"
	"log/slog"
)

// Handler is an slog.Handler that captures entries into a Buffer and
// delegates to an inner handler.
type Handler struct {
	inner slog.Handler
	buf   *Buffer
	attrs []slog.Attr
}

// NewHandler creates a handler that writes to both buf and inner.
func NewHandler(inner slog.Handler, buf *Buffer) *Handler {
	return &Handler{inner: inner, buf: buf}
}

// Enabled always returns true so the buffer captures every level; the inner
// handler's own filter still applies to its output.
func (h *Handler) Enabled(_ context.Context, _ slog.Level) bool {
	return true
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	attrs := make(map[string]any)
	for _, a := range h.attrs {
		attrs[a.Key] = resolveAttrValue(a.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = resolveAttrValue(a.Value)
		return true
	})

	var attrsMap map[string]any
	if len(attrs) > 0 {
		attrsMap = attrs
	}

	h.buf.Write(Entry{
		Time:    r.Time,
		Level:   r.Level.String(),
		Message: r.Message,
		Attrs:   attrsMap,
	})

	if h.inner.Enabled(ctx, r.Level) {
		return h.inner.Handle(ctx, r)
	}
	return nil
}

// resolveAttrValue converts slog values to JSON-safe types. Errors become
// strings so they don't serialize to {}.
func resolveAttrValue(v slog.Value) any {
	v = v.Resolve()
	raw := v.Any()
	if err, ok := raw.(error); ok {
		return err.Error()
	}
	return raw
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{
		inner: h.inner.WithAttrs(attrs),
		buf:   h.buf,
		attrs: append(h.attrs[:len(h.attrs):len(h.attrs)], attrs...),
	}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	// Group nesting is flattened; the status tool only renders messages.
	return &Handler{
		inner: h.inner.WithGroup(name),
		buf:   h.buf,
		attrs: h.attrs,
	}
}
