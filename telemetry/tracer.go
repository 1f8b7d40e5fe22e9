// Package telemetry traces summary requests. Spans go to a no-op tracer
// unless Init installs an OpenTelemetry one.
package telemetry

import (
	"context"
	"maps"
)

// Attribute keys used on summarizer spans.
const (
	KeyNote        = "note.id"
	KeyReferences  = "note.references"
	KeyUnresolved  = "note.unresolved"
	KeyOutcome     = "summary.outcome"
	KeyModel       = "llm.model"
	KeyMaxTokens   = "llm.max_tokens"
	KeyPromptBytes = "llm.prompt_bytes"
	KeyTermination = "stream.termination"
	KeyDeltas      = "stream.deltas"
	KeyMalformed   = "stream.malformed"
)

// Tracer starts spans on a tracing backend.
type Tracer interface {
	StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, Span)
	Shutdown(ctx context.Context) error
	IsEnabled() bool
}

// Span is one traced unit of work.
type Span interface {
	SetAttributes(attrs ...Attribute)
	SetStatus(status Status, description string)
	RecordError(err error)
	End()
}

// SpanOption configures a new span.
type SpanOption func(*SpanConfig)

type SpanConfig struct {
	Attributes map[string]any
}

// Attribute is a span key/value pair.
type Attribute struct {
	Key   string
	Value any
}

// Status is the outcome recorded on a span.
type Status int

const (
	StatusUnset Status = iota
	StatusOK
	StatusError
)

// WithAttributes adds attributes at span start.
func WithAttributes(attrs map[string]any) SpanOption {
	return func(cfg *SpanConfig) {
		if cfg.Attributes == nil {
			cfg.Attributes = make(map[string]any, len(attrs))
		}
		maps.Copy(cfg.Attributes, attrs)
	}
}

func Attr(key string, value any) Attribute {
	return Attribute{Key: key, Value: value}
}

func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int(key string, value int) Attribute {
	return Attribute{Key: key, Value: value}
}

// Finish ends span. A non-nil err is recorded and marks the span failed.
func Finish(span Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(StatusError, err.Error())
	} else {
		span.SetStatus(StatusOK, "")
	}
	span.End()
}
