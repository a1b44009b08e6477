// Package logging builds the slog loggers used across the module.
//
// Records are stamped with the service name and version, the retry episode
// of the call that logged them, and the OpenTelemetry trace and span ids
// when the context carries a span.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"go.opentelemetry.io/otel/trace"

	"github.com/MrEthical07/goSession/retry"
)

type contextHandler struct {
	handler slog.Handler
	service string
	version string
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.service != "" {
		r.AddAttrs(slog.String("service", h.service))
	}
	if h.version != "" {
		r.AddAttrs(slog.String("version", h.version))
	}

	if id := retry.EpisodeID(ctx); id != "" {
		r.AddAttrs(slog.String("episode_id", id))
	}

	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.HasTraceID() {
		r.AddAttrs(slog.String("trace_id", spanCtx.TraceID().String()))
	}
	if spanCtx.HasSpanID() {
		r.AddAttrs(slog.String("span_id", spanCtx.SpanID().String()))
	}

	return h.handler.Handle(ctx, r)
}

func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{handler: h.handler.WithAttrs(attrs), service: h.service, version: h.version}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{handler: h.handler.WithGroup(name), service: h.service, version: h.version}
}

// Wrap decorates an existing handler.
func Wrap(h slog.Handler, service, version string) slog.Handler {
	return &contextHandler{handler: h, service: service, version: version}
}

// Setup creates a logger writing to w (os.Stderr when nil).
//
// format is "json", "text" or "console"; console output is colored by tint
// unless noColor is set. Unknown formats fall back to json.
func Setup(service, version, format string, level slog.Level, noColor bool, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}

	var base slog.Handler
	switch strings.ToLower(format) {
	case "console":
		base = tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
			NoColor:    noColor,
		})
	case "text":
		base = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	default:
		base = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	}

	return slog.New(Wrap(base, service, version))
}

// ParseLevel maps debug, info, warn and error to slog levels; anything else
// is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
