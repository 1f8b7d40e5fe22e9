package telemetry

import "context"

// noop is both the tracer and the span in effect until Init installs a
// recording tracer.
type noop struct{}

// Noop returns a tracer that records nothing.
func Noop() Tracer {
	return noop{}
}

func (noop) StartSpan(ctx context.Context, _ string, _ ...SpanOption) (context.Context, Span) {
	return ctx, noop{}
}

func (noop) Shutdown(context.Context) error { return nil }
func (noop) IsEnabled() bool { return false }

func (noop) SetAttributes(...Attribute) {}
func (noop) SetStatus(Status, string) {}
func (noop) RecordError(error) {}
func (noop) End() {}
