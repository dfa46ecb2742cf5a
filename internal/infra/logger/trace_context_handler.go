package logger

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// TraceContextHandler decorates records with the active span identifiers
// and the engine's request-scoped values (retrieval id, topic, pipeline
// stage) so stdout lines correlate with exported traces and with the
// selection request that produced them.
type TraceContextHandler struct {
	inner slog.Handler
}

// NewTraceContextHandler wraps the given handler.
func NewTraceContextHandler(inner slog.Handler) *TraceContextHandler {
	return &TraceContextHandler{inner: inner}
}

func (h *TraceContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *TraceContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		sc := span.SpanContext()
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	if id, ok := ctx.Value(RetrievalIDKey).(string); ok && id != "" {
		r.AddAttrs(slog.String("retrieval_id", id))
	}
	if topic, ok := ctx.Value(TopicKey).(string); ok && topic != "" {
		r.AddAttrs(slog.String("topic", topic))
	}
	if stage, ok := ctx.Value(StageKey).(string); ok && stage != "" {
		r.AddAttrs(slog.String("stage", stage))
	}
	return h.inner.Handle(ctx, r)
}

func (h *TraceContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TraceContextHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *TraceContextHandler) WithGroup(name string) slog.Handler {
	return &TraceContextHandler{inner: h.inner.WithGroup(name)}
}
