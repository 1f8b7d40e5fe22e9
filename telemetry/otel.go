package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/package-register/note-summarizer/logger"
)

const instrumentationName = "github.com/package-register/note-summarizer"

// otelTracer records spans through an OpenTelemetry TracerProvider.
type otelTracer struct {
	tracer   trace.Tracer
	shutdown func(context.Context) error
}

type otelSpan struct {
	span trace.Span
}

// NewOTel wraps tp (the global provider when nil). shutdown may be nil.
func NewOTel(tp trace.TracerProvider, shutdown func(context.Context) error) Tracer {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &otelTracer{
		tracer:   tp.Tracer(instrumentationName),
		shutdown: shutdown,
	}
}

// NewLogging returns a tracer whose finished spans are written to the
// application log at debug level.
func NewLogging() Tracer {
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(logProcessor{}),
	)
	return NewOTel(tp, tp.Shutdown)
}

func (t *otelTracer) StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, Span) {
	cfg := &SpanConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	attrs := make([]attribute.KeyValue, 0, len(cfg.Attributes))
	for k, v := range cfg.Attributes {
		attrs = append(attrs, toKeyValue(k, v))
	}

	ctx, span := t.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	return ctx, &otelSpan{span: span}
}

func (t *otelTracer) Shutdown(ctx context.Context) error {
	if t.shutdown != nil {
		return t.shutdown(ctx)
	}
	return nil
}

func (t *otelTracer) IsEnabled() bool {
	return true
}

func (s *otelSpan) SetAttributes(attrs ...Attribute) {
	kvs := make([]attribute.KeyValue, 0, len(attrs))
	for _, a := range attrs {
		kvs = append(kvs, toKeyValue(a.Key, a.Value))
	}
	s.span.SetAttributes(kvs...)
}

func (s *otelSpan) SetStatus(status Status, description string) {
	switch status {
	case StatusOK:
		s.span.SetStatus(codes.Ok, description)
	case StatusError:
		s.span.SetStatus(codes.Error, description)
	}
}

func (s *otelSpan) RecordError(err error) {
	if err != nil {
		s.span.RecordError(err)
	}
}

func (s *otelSpan) End() {
	s.span.End()
}

func toKeyValue(key string, v any) attribute.KeyValue {
	switch val := v.(type) {
	case string:
		return attribute.String(key, val)
	case bool:
		return attribute.Bool(key, val)
	case int:
		return attribute.Int(key, val)
	case int64:
		return attribute.Int64(key, val)
	case float64:
		return attribute.Float64(key, val)
	default:
		return attribute.String(key, fmt.Sprintf("%v", val))
	}
}

// logProcessor is a SpanProcessor that logs ended spans.
type logProcessor struct{}

func (logProcessor) OnStart(context.Context, sdktrace.ReadWriteSpan) {}

func (logProcessor) OnEnd(s sdktrace.ReadOnlySpan) {
	kv := []any{
		"span", s.Name(),
		"duration", s.EndTime().Sub(s.StartTime()),
		"status", s.Status().Code.String(),
	}
	for _, a := range s.Attributes() {
		kv = append(kv, string(a.Key), a.Value.Emit())
	}
	logger.With("trace").Debug("Span ended", kv...)
}

func (logProcessor) Shutdown(context.Context) error   { return nil }
func (logProcessor) ForceFlush(context.Context) error { return nil }
