// Package stream talks to an OpenAI-compatible chat completions endpoint and
// relays the streamed answer to a sink as it arrives.
package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/package-register/note-summarizer/config"
	"github.com/package-register/note-summarizer/logger"
	"github.com/package-register/note-summarizer/pipeline"
	"github.com/package-register/note-summarizer/telemetry"
)

// Sampling parameters sent with every request.
const (
	Temperature      = 0.7
	TopP             = 1.0
	FrequencyPenalty = 0.0
	PresencePenalty  = 0.0
)

// Options is the minimum a Client needs.
type Options struct {
	Endpoint  string
	APIKey    string
	Model     string
	MaxTokens int
	// Timeout bounds the wait for response headers; the body may stream longer.
	Timeout time.Duration
}

// OptionsFromSettings maps user settings onto client options.
func OptionsFromSettings(s config.Settings) Options {
	return Options{
		Endpoint:  s.Endpoint,
		APIKey:    s.APIKey,
		Model:     s.Model,
		MaxTokens: s.MaxTokens,
		Timeout:   s.Timeout,
	}
}

// Doer sends an HTTP request. *http.Client satisfies it through its Do method.
type Doer func(*http.Request) (*http.Response, error)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithDoer replaces the HTTP transport, mainly for tests.
func WithDoer(do Doer) ClientOption {
	return func(c *Client) {
		c.do = do
	}
}

// Client issues streamed generation requests.
type Client struct {
	url       string
	apiKey    string
	model     string
	maxTokens int
	do        Doer
}

// New validates opts and builds a client.
func New(opts Options, clientOpts ...ClientOption) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("stream: %w: missing api key", pipeline.ErrCredential)
	}
	if opts.Endpoint == "" {
		opts.Endpoint = config.DefaultEndpoint
	}
	if opts.Model == "" {
		opts.Model = config.DefaultModel
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = config.DefaultMaxTokens
	}
	if opts.Timeout <= 0 {
		opts.Timeout = config.DefaultTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = opts.Timeout
	hc := &http.Client{Transport: transport}

	c := &Client{
		url:       opts.Endpoint,
		apiKey:    opts.APIKey,
		model:     opts.Model,
		maxTokens: opts.MaxTokens,
		do:        hc.Do,
	}
	for _, opt := range clientOpts {
		opt(c)
	}
	return c, nil
}

// Model returns the model identifier sent with requests.
func (c *Client) Model() string {
	return c.model
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages         []chatMessage `json:"messages"`
	Model            string        `json:"model"`
	Temperature      float64       `json:"temperature"`
	MaxTokens        int           `json:"max_tokens"`
	TopP             float64       `json:"top_p"`
	FrequencyPenalty float64       `json:"frequency_penalty"`
	PresencePenalty  float64       `json:"presence_penalty"`
	Stream           bool          `json:"stream"`
}

// upstreamError carries a non-success HTTP status from the service.
type upstreamError struct {
	status int
	msg    string
}

func (e upstreamError) Error() string {
	return fmt.Sprintf("upstream %d: %s", e.status, e.msg)
}

func (e upstreamError) Unwrap() error {
	if e.status == http.StatusUnauthorized || e.status == http.StatusForbidden {
		return pipeline.ErrCredential
	}
	return pipeline.ErrUpstream
}

// StatusCode returns the HTTP status the service answered with.
func (e upstreamError) StatusCode() int { return e.status }

// Stream sends prompt as a single system message and relays the streamed
// answer to sink. The returned error is non-nil only when the request could
// not be sent or was refused; once streaming starts, the text received so far
// is always returned.
func (c *Client) Stream(ctx context.Context, prompt string, sink pipeline.Sink) (out Completion, err error) {
	log := logger.With("stream")
	ctx, span := telemetry.StartSpan(ctx, "stream.completion", telemetry.WithAttributes(map[string]any{
		telemetry.KeyModel:       c.model,
		telemetry.KeyMaxTokens:   c.maxTokens,
		telemetry.KeyPromptBytes: len(prompt),
	}))
	defer func() {
		if err == nil {
			span.SetAttributes(
				telemetry.String(telemetry.KeyTermination, out.Termination.String()),
				telemetry.Int(telemetry.KeyDeltas, out.Tokens),
				telemetry.Int(telemetry.KeyMalformed, out.Malformed),
			)
		}
		telemetry.Finish(span, err)
	}()

	resp, err := c.send(ctx, prompt)
	if err != nil {
		return Completion{}, err
	}
	if resp.Body == nil || resp.Body == http.NoBody {
		log.Warn("Response has no body")
		return Completion{Termination: TerminatedByUnreadable}, nil
	}
	defer resp.Body.Close()

	start := time.Now()
	out = Parse(ctx, resp.Body, sink)
	log.Debug("Stream finished",
		"termination", out.Termination,
		"deltas", out.Tokens,
		"malformed", out.Malformed,
		"elapsed", time.Since(start))
	return out, nil
}

func (c *Client) send(ctx context.Context, prompt string) (*http.Response, error) {
	body, err := json.Marshal(chatRequest{
		Messages:         []chatMessage{{Role: "system", Content: prompt}},
		Model:            c.model,
		Temperature:      Temperature,
		MaxTokens:        c.maxTokens,
		TopP:             TopP,
		FrequencyPenalty: FrequencyPenalty,
		PresencePenalty:  PresencePenalty,
		Stream:           true,
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: new request: %w", pipeline.ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", pipeline.ErrTransport, err)
	}

	if resp.StatusCode/100 != 2 {
		var msg string
		if resp.Body != nil {
			msg = errorMessage(resp.Body)
			resp.Body.Close()
		}
		return nil, upstreamError{status: resp.StatusCode, msg: msg}
	}
	return resp, nil
}

// errorMessage reads a short description from an error response body.
func errorMessage(r io.Reader) string {
	slurp, _ := io.ReadAll(io.LimitReader(r, 4<<10))
	var wrapped struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(slurp, &wrapped) == nil && wrapped.Error.Message != "" {
		return wrapped.Error.Message
	}
	return strings.TrimSpace(string(slurp))
}
