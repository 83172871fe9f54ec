// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package logging sets up the process-wide slog logger. Every record is
// stamped with the gatehouse service identity, and when a span is
// active on the context the trace correlation IDs ride along so store
// and workflow logs can be joined to a trace.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

// serviceHandler decorates a slog.Handler with the service identity and
// trace correlation attributes.
type serviceHandler struct {
	inner   slog.Handler
	service string
	version string
}

func (h *serviceHandler) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(
		slog.String("service", h.service),
		slog.String("version", h.version),
	)

	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.HasTraceID() {
		r.AddAttrs(slog.String("trace_id", spanCtx.TraceID().String()))
	}
	if spanCtx.HasSpanID() {
		r.AddAttrs(slog.String("span_id", spanCtx.SpanID().String()))
	}

	//nolint:wrapcheck // Handler interface requires unwrapped error passthrough
	return h.inner.Handle(ctx, r)
}

func (h *serviceHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *serviceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &serviceHandler{
		inner:   h.inner.WithAttrs(attrs),
		service: h.service,
		version: h.version,
	}
}

func (h *serviceHandler) WithGroup(name string) slog.Handler {
	return &serviceHandler{
		inner:   h.inner.WithGroup(name),
		service: h.service,
		version: h.version,
	}
}

// parseLevel maps the configured log.level string onto a slog level.
// Unknown or empty values fall back to info.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Setup creates the configured logger.
// format is "json" or "text" (defaults to json); level is "debug",
// "info", "warn" or "error" (defaults to info). If w is nil, records go
// to os.Stderr.
func Setup(service, version, format, level string, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}

	var base slog.Handler
	if format == "text" {
		base = slog.NewTextHandler(w, opts)
	} else {
		base = slog.NewJSONHandler(w, opts)
	}

	return slog.New(&serviceHandler{
		inner:   base,
		service: service,
		version: version,
	})
}

// SetDefault sets up and installs the default logger.
func SetDefault(service, version, format, level string) {
	slog.SetDefault(Setup(service, version, format, level, nil))
}
