package telemetry

import (
	"context"
	"sync/atomic"
)

type holder struct {
	tracer Tracer
}

var current atomic.Pointer[holder]

func init() {
	current.Store(&holder{tracer: Noop()})
}

// Init installs the process-wide tracer. nil restores the no-op tracer.
func Init(tracer Tracer) {
	if tracer == nil {
		tracer = Noop()
	}
	current.Store(&holder{tracer: tracer})
}

// Get returns the process-wide tracer.
func Get() Tracer {
	return current.Load().tracer
}

func StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, Span) {
	return Get().StartSpan(ctx, name, opts...)
}

func Shutdown(ctx context.Context) error {
	return Get().Shutdown(ctx)
}

func IsEnabled() bool {
	return Get().IsEnabled()
}

// BuildAttributes turns key/value string pairs into span attributes. A
// trailing key without a value is recorded with an empty value.
func BuildAttributes(pairs ...string) map[string]any {
	result := make(map[string]any, (len(pairs)+1)/2)
	for i := 0; i < len(pairs); i += 2 {
		var value string
		if i+1 < len(pairs) {
			value = pairs[i+1]
		}
		result[pairs[i]] = value
	}
	return result
}
