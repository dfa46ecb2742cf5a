package logger

import (
	"context"
	"log/slog"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/log/global"
)

// Logger is the process-wide root logger, set by New/NewWithOTel.
var Logger *slog.Logger

// New creates the stdout-only JSON logger.
func New() *slog.Logger {
	return NewWithOTel(false)
}

// NewWithOTel builds the engine's root logger: JSON lines on stdout
// annotated with span and retrieval context, optionally fanned out to
// the OTLP collector. Pipeline stages log per-stage events at debug, so
// the default info floor keeps selection requests to a handful of lines.
func NewWithOTel(enableOTel bool) *slog.Logger {
	level := parseLevel(os.Getenv("LOG_LEVEL"))

	stdout := NewTraceContextHandler(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	var handler slog.Handler = stdout
	if enableOTel {
		collector := otelslog.NewHandler(
			"evidence-engine",
			otelslog.WithLoggerProvider(global.GetLoggerProvider()),
		)
		handler = &fanoutHandler{handlers: []slog.Handler{stdout, collector}}
	}

	Logger = slog.New(handler).With(slog.String("service", "evidence-engine"))
	Logger.Info("logger_initialized",
		slog.String("level", level.String()),
		slog.Bool("otel_export", enableOTel))
	return Logger
}

// fanoutHandler duplicates every record to stdout and the collector so
// local logs survive collector outages.
type fanoutHandler struct {
	handlers []slog.Handler
}

func (h *fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *fanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, r.Level) {
			_ = handler.Handle(ctx, r)
		}
	}
	return nil
}

func (h *fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		next[i] = handler.WithAttrs(attrs)
	}
	return &fanoutHandler{handlers: next}
}

func (h *fanoutHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		next[i] = handler.WithGroup(name)
	}
	return &fanoutHandler{handlers: next}
}
