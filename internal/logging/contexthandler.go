package logging

import (
	"context"
	"log/slog"
)

// ContextProvider supplies the attributes that change as a run progresses —
// the run ID and the current frame — so call sites don't have to thread them
// through every log call.
type ContextProvider func() []slog.Attr

// ContextHandler decorates an inner handler, stamping each record with the
// provider's attributes at handle time rather than at logger construction.
type ContextHandler struct {
	inner    slog.Handler
	provider ContextProvider
}

// NewContextHandler wraps inner with the given provider.
func NewContextHandler(inner slog.Handler, provider ContextProvider) *ContextHandler {
	return &ContextHandler{inner: inner, provider: provider}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle stamps the record and passes it on. The record is cloned first so
// the caller's copy stays untouched.
func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.provider == nil {
		return h.inner.Handle(ctx, r)
	}
	stamped := r.Clone()
	stamped.AddAttrs(h.provider()...)
	return h.inner.Handle(ctx, stamped)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{inner: h.inner.WithAttrs(attrs), provider: h.provider}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &ContextHandler{inner: h.inner.WithGroup(name), provider: h.provider}
}
