package logctx

import (
	"context"
	"log/slog"
)

// OperationHandler decorates an slog.Handler, stamping the
// context-carried operation name onto each record. Records logged
// without an operation in their context pass through untouched.
type OperationHandler struct {
	inner slog.Handler
}

// NewOperationHandler wraps h. Panics if h is nil.
func NewOperationHandler(h slog.Handler) *OperationHandler {
	if h == nil {
		panic("logctx: NewOperationHandler called with nil handler")
	}

	return &OperationHandler{inner: h}
}

// Enabled delegates to the inner handler.
func (h *OperationHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle adds the operation attribute when the context carries one,
// then delegates.
func (h *OperationHandler) Handle(ctx context.Context, r slog.Record) error {
	if op, ok := OperationFromContext(ctx); ok {
		r.AddAttrs(slog.String("operation", op))
	}

	return h.inner.Handle(ctx, r)
}

// WithAttrs returns a new OperationHandler whose inner handler carries
// the given attributes.
func (h *OperationHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &OperationHandler{inner: h.inner.WithAttrs(attrs)}
}

// WithGroup returns a new OperationHandler whose inner handler opens
// the given group.
func (h *OperationHandler) WithGroup(name string) slog.Handler {
	return &OperationHandler{inner: h.inner.WithGroup(name)}
}
