package stream

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/package-register/note-summarizer/config"
	"github.com/package-register/note-summarizer/pipeline"
)

func newTestClient(t *testing.T, do Doer) *Client {
	t.Helper()
	c, err := New(Options{
		Endpoint:  "https://example.test/v1/chat/completions",
		APIKey:    "sk-test",
		Model:     "gpt-test",
		MaxTokens: 123,
	}, WithDoer(do))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func respond(status int, body io.Reader) *http.Response {
	rc := io.NopCloser(body)
	if body == nil {
		rc = nil
	}
	return &http.Response{StatusCode: status, Body: rc, Header: make(http.Header)}
}

func TestClient_Stream_RequestShape(t *testing.T) {
	var gotReq *http.Request
	var gotBody map[string]any
	do := func(req *http.Request) (*http.Response, error) {
		gotReq = req
		raw, _ := io.ReadAll(req.Body)
		if err := json.Unmarshal(raw, &gotBody); err != nil {
			t.Fatalf("request body is not JSON: %v", err)
		}
		return respond(http.StatusOK, strings.NewReader(delta("Sum")+delta("mary")+"data: [DONE]\n")), nil
	}
	sink := &recordingSink{}

	out, err := newTestClient(t, do).Stream(context.Background(), "the prompt", sink)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Text != "Summary" || out.Termination != TerminatedBySentinel || out.Tokens != 2 {
		t.Fatalf("unexpected completion %+v", out)
	}

	if gotReq.Method != http.MethodPost || gotReq.URL.String() != "https://example.test/v1/chat/completions" {
		t.Fatalf("unexpected request line %s %s", gotReq.Method, gotReq.URL)
	}
	if got := gotReq.Header.Get("Authorization"); got != "Bearer sk-test" {
		t.Fatalf("unexpected auth header %q", got)
	}
	if got := gotReq.Header.Get("Content-Type"); got != "application/json" {
		t.Fatalf("unexpected content type %q", got)
	}

	want := map[string]any{
		"model":             "gpt-test",
		"temperature":       0.7,
		"max_tokens":        float64(123),
		"top_p":             float64(1),
		"frequency_penalty": float64(0),
		"presence_penalty":  float64(0),
		"stream":            true,
	}
	for k, v := range want {
		if gotBody[k] != v {
			t.Fatalf("body field %s = %v, want %v", k, gotBody[k], v)
		}
	}
	msgs, _ := gotBody["messages"].([]any)
	if len(msgs) != 1 {
		t.Fatalf("expected a single message, got %v", gotBody["messages"])
	}
	msg := msgs[0].(map[string]any)
	if msg["role"] != "system" || msg["content"] != "the prompt" {
		t.Fatalf("unexpected message %v", msg)
	}
}

func TestClient_Stream_TransportFailure(t *testing.T) {
	do := func(*http.Request) (*http.Response, error) {
		return nil, errors.New("dial tcp: connection refused")
	}
	sink := &recordingSink{}

	_, err := newTestClient(t, do).Stream(context.Background(), "p", sink)
	if !errors.Is(err, pipeline.ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
	if len(sink.appends) != 0 {
		t.Fatalf("sink should be untouched, got %q", sink.appends)
	}
}

func TestClient_Stream_StatusErrors(t *testing.T) {
	tests := []struct {
		status int
		body   string
		want   error
		msg    string
	}{
		{http.StatusUnauthorized, `{"error":{"message":"Incorrect API key provided"}}`, pipeline.ErrCredential, "Incorrect API key provided"},
		{http.StatusInternalServerError, "bad gateway", pipeline.ErrUpstream, "bad gateway"},
		{http.StatusTooManyRequests, "", pipeline.ErrUpstream, "upstream 429"},
	}
	for _, tt := range tests {
		do := func(*http.Request) (*http.Response, error) {
			return respond(tt.status, strings.NewReader(tt.body)), nil
		}
		_, err := newTestClient(t, do).Stream(context.Background(), "p", &recordingSink{})
		if !errors.Is(err, tt.want) {
			t.Fatalf("status %d: expected %v, got %v", tt.status, tt.want, err)
		}
		if !strings.Contains(err.Error(), tt.msg) {
			t.Fatalf("status %d: expected message %q in %q", tt.status, tt.msg, err.Error())
		}
		var ue upstreamError
		if !errors.As(err, &ue) || ue.StatusCode() != tt.status {
			t.Fatalf("status %d: expected upstreamError, got %T", tt.status, err)
		}
	}
}

func TestClient_Stream_AbsentBodyIsNotFatal(t *testing.T) {
	for _, body := range []io.ReadCloser{nil, http.NoBody} {
		do := func(*http.Request) (*http.Response, error) {
			return &http.Response{StatusCode: http.StatusOK, Body: body}, nil
		}
		out, err := newTestClient(t, do).Stream(context.Background(), "p", &recordingSink{})
		if err != nil {
			t.Fatalf("absent body must not fail the request: %v", err)
		}
		if out.Text != "" || out.Termination != TerminatedByUnreadable {
			t.Fatalf("unexpected completion %+v", out)
		}
	}
}

func TestClient_Stream_EmptyBody(t *testing.T) {
	do := func(*http.Request) (*http.Response, error) {
		return respond(http.StatusOK, strings.NewReader("")), nil
	}
	out, err := newTestClient(t, do).Stream(context.Background(), "p", &recordingSink{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Termination != TerminatedByTransport || out.Text != "" {
		t.Fatalf("unexpected completion %+v", out)
	}
}

func TestNew_RequiresKey(t *testing.T) {
	_, err := New(Options{APIKey: "  "})
	if !errors.Is(err, pipeline.ErrCredential) {
		t.Fatalf("expected ErrCredential, got %v", err)
	}
}

func TestOptionsFromSettings(t *testing.T) {
	s := config.Default()
	s.APIKey = "sk-x"
	c, err := New(OptionsFromSettings(s))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Model() != config.DefaultModel || c.maxTokens != config.DefaultMaxTokens || c.url != config.DefaultEndpoint {
		t.Fatalf("settings not applied: %+v", c)
	}
}
