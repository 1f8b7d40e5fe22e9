package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/package-register/note-summarizer/logger"
	"github.com/package-register/note-summarizer/pipeline"
)

const (
	dataPrefix   = "data: "
	doneSentinel = "[DONE]"

	readSize = 4 << 10
)

// Termination tells why the read loop stopped.
type Termination int

const (
	// TerminatedByTransport means the body reported end of stream.
	TerminatedByTransport Termination = iota
	// TerminatedBySentinel means a "data: [DONE]" line was seen.
	TerminatedBySentinel
	// TerminatedByUnreadable means the body failed mid-stream or was absent.
	TerminatedByUnreadable
)

func (t Termination) String() string {
	switch t {
	case TerminatedBySentinel:
		return "sentinel"
	case TerminatedByUnreadable:
		return "unreadable"
	default:
		return "transport"
	}
}

// Usage is the token accounting some services append to a stream.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Completion is the outcome of one streamed request. Text holds every
// content delta received, whatever the termination.
type Completion struct {
	Text         string
	Termination  Termination
	Tokens       int // content deltas forwarded to the sink
	Malformed    int // data lines that failed to decode
	Model        string
	FinishReason string
	Usage        *Usage
}

// event is one decoded data payload.
type event struct {
	Model   string `json:"model"`
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Usage *Usage `json:"usage"`
}

// Parse drives the read loop over r, forwarding each content delta to sink
// as soon as its event is complete, even before the trailing newline
// arrives. Lines may arrive split across any number of reads; only the
// current partial line is buffered. Blank lines and lines
// without the "data: " marker are ignored, and undecodable payloads are
// logged and skipped. Parse never fails: the text accumulated so far is
// returned when the stream ends, breaks, or ctx is done.
func Parse(ctx context.Context, r io.Reader, sink pipeline.Sink) Completion {
	p := parser{sink: sink, log: logger.With("stream")}
	return p.run(ctx, r)
}

type parser struct {
	sink pipeline.Sink
	log  logger.Logger
	text strings.Builder
	out  Completion
}

func (p *parser) run(ctx context.Context, r io.Reader) Completion {
	buf := make([]byte, readSize)
	var pending []byte
	for {
		if err := ctx.Err(); err != nil {
			p.log.Warn("Stream canceled", "error", err, "received", p.text.Len())
			p.out.Termination = TerminatedByUnreadable
			break
		}

		n, err := r.Read(buf)
		if n > 0 {
			var done bool
			pending, done = p.consume(append(pending, buf[:n]...))
			if done {
				p.out.Termination = TerminatedBySentinel
				break
			}
		}
		if err != nil {
			if len(pending) > 0 && p.handleLine(string(pending)) {
				p.out.Termination = TerminatedBySentinel
			} else if errors.Is(err, io.EOF) {
				p.out.Termination = TerminatedByTransport
			} else {
				p.log.Warn("Stream unreadable", "error", err, "received", p.text.Len())
				p.out.Termination = TerminatedByUnreadable
			}
			break
		}
	}

	p.out.Text = p.text.String()
	return p.out
}

// consume handles every complete line in data and returns the unfinished
// tail. A tail that is already a whole event, or the sentinel, is handled
// at once rather than waiting for its newline.
func (p *parser) consume(data []byte) ([]byte, bool) {
	for {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			break
		}
		line := string(data[:i])
		data = data[i+1:]
		if p.handleLine(line) {
			return nil, true
		}
	}
	if len(data) > 0 && completeTail(data) {
		return nil, p.handleLine(string(data))
	}
	return data, false
}

// completeTail reports whether an unterminated line needs no more input:
// the sentinel, or a data line holding a whole JSON object.
func completeTail(tail []byte) bool {
	payload, ok := strings.CutPrefix(strings.TrimRight(string(tail), "\r"), dataPrefix)
	if !ok {
		return false
	}
	payload = strings.TrimSpace(payload)
	if payload == doneSentinel {
		return true
	}
	return strings.HasPrefix(payload, "{") && json.Valid([]byte(payload))
}

// handleLine processes one physical line and reports whether it was the
// terminal sentinel.
func (p *parser) handleLine(line string) bool {
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" {
		return false
	}

	payload, ok := strings.CutPrefix(line, dataPrefix)
	if !ok {
		p.log.Debug("Ignoring non-data line", "line", line)
		return false
	}
	if strings.TrimSpace(payload) == doneSentinel {
		return true
	}

	var ev event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		p.out.Malformed++
		p.log.Warn("Could not decode stream message", "line", line, "error", err)
		return false
	}
	if ev.Model != "" {
		p.out.Model = ev.Model
	}
	if ev.Usage != nil {
		p.out.Usage = ev.Usage
	}
	if len(ev.Choices) == 0 {
		if ev.Usage == nil {
			p.out.Malformed++
			p.log.Warn("Stream message without choices", "line", line)
		}
		return false
	}

	choice := ev.Choices[0]
	if choice.FinishReason != nil {
		p.out.FinishReason = *choice.FinishReason
	}
	if tok := choice.Delta.Content; tok != "" {
		p.sink.AppendText(tok)
		p.text.WriteString(tok)
		p.out.Tokens++
	}
	return false
}
