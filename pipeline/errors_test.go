package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorCode
	}{
		{nil, ""},
		{ErrNoActiveDocument, ErrCodeNoActiveDocument},
		{fmt.Errorf("resolve: %w", ErrNoReferences), ErrCodeNoReferences},
		{fmt.Errorf("stream: %w", ErrCredential), ErrCodeCredential},
		{fmt.Errorf("stream: %w: 500", ErrUpstream), ErrCodeUpstream},
		{fmt.Errorf("send: %w", context.DeadlineExceeded), ErrCodeTimeout},
		{fmt.Errorf("%w: dial tcp", ErrTransport), ErrCodeTransport},
		{errors.New("dial tcp: connection refused"), ErrCodeTransport},
		{SummaryError{Code: ErrCodeUpstream, Err: errors.New("x")}, ErrCodeUpstream},
		{errors.New("something odd"), ErrCodeUnknown},
	}
	for _, tt := range tests {
		if got := ClassifyError(tt.err); got != tt.want {
			t.Fatalf("ClassifyError(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(nil); got != "Summary written." {
		t.Fatalf("unexpected success message %q", got)
	}
	if got := UserMessage(ErrNoActiveDocument); got != "No note open." {
		t.Fatalf("unexpected message %q", got)
	}
	if got := UserMessage(ErrNoReferences); got != "No referenced notes found." {
		t.Fatalf("unexpected message %q", got)
	}
	if got := UserMessage(errors.New("boom")); got != "Summary failed." {
		t.Fatalf("unexpected fallback message %q", got)
	}
}

func TestSummaryError_Unwrap(t *testing.T) {
	err := fmt.Errorf("outer: %w", SummaryError{Code: ErrCodeTransport, Err: ErrTransport})
	if !errors.Is(err, ErrTransport) {
		t.Fatal("expected wrapped sentinel to be reachable")
	}
	if (SummaryError{Code: ErrCodeTimeout}).Error() != "timeout" {
		t.Fatal("expected code as message without inner error")
	}
}
