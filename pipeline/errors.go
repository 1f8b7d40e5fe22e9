package pipeline

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrNoActiveDocument means no note is open or selected.
	ErrNoActiveDocument = errors.New("no active document")
	// ErrNoReferences means the note contains no bracket links at all.
	ErrNoReferences = errors.New("no references found")
	// ErrTransport means the generation request could not be sent.
	ErrTransport = errors.New("transport failure")
	// ErrCredential means the service rejected the access credential.
	ErrCredential = errors.New("credential rejected")
	// ErrUpstream means the service answered with a non-success status.
	ErrUpstream = errors.New("upstream error")
)

// ErrorCode represents a standardized error classification.
type ErrorCode string

const (
	ErrCodeNoActiveDocument ErrorCode = "no_active_document"
	ErrCodeNoReferences     ErrorCode = "no_references"
	ErrCodeCredential       ErrorCode = "credential"
	ErrCodeUpstream         ErrorCode = "upstream"
	ErrCodeTransport        ErrorCode = "transport"
	ErrCodeTimeout          ErrorCode = "timeout"
	ErrCodeUnknown          ErrorCode = "unknown"
)

// SummaryError allows callers to attach a specific error code.
type SummaryError struct {
	Code ErrorCode
	Err  error
}

func (e SummaryError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Code)
}

func (e SummaryError) Unwrap() error {
	return e.Err
}

// ClassifyError maps an error to a standardized ErrorCode.
func ClassifyError(err error) ErrorCode {
	if err == nil {
		return ""
	}

	var sumErr SummaryError
	if errors.As(err, &sumErr) && sumErr.Code != "" {
		return sumErr.Code
	}

	switch {
	case errors.Is(err, ErrNoActiveDocument):
		return ErrCodeNoActiveDocument
	case errors.Is(err, ErrNoReferences):
		return ErrCodeNoReferences
	case errors.Is(err, ErrCredential):
		return ErrCodeCredential
	case errors.Is(err, ErrUpstream):
		return ErrCodeUpstream
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		return ErrCodeTimeout
	case errors.Is(err, ErrTransport):
		return ErrCodeTransport
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "timed out"):
		return ErrCodeTimeout
	case strings.Contains(msg, "connection refused") || strings.Contains(msg, "no such host"):
		return ErrCodeTransport
	default:
		return ErrCodeUnknown
	}
}

// UserMessage turns an error into the short completion text shown to users.
func UserMessage(err error) string {
	switch ClassifyError(err) {
	case "":
		return "Summary written."
	case ErrCodeNoActiveDocument:
		return "No note open."
	case ErrCodeNoReferences:
		return "No referenced notes found."
	case ErrCodeCredential:
		return "Summary failed: the API key was rejected."
	case ErrCodeTimeout:
		return "Summary failed: the request timed out."
	case ErrCodeUpstream:
		return "Summary failed: the generation service returned an error."
	case ErrCodeTransport:
		return "Summary failed: could not reach the generation service."
	default:
		return "Summary failed."
	}
}
