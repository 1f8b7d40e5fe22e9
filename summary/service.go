// Package summary runs one summarize request end to end: it reads the
// active note, gathers the notes it links to, builds the prompt and streams
// the generated summary into a sink.
package summary

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/package-register/note-summarizer/logger"
	"github.com/package-register/note-summarizer/pipeline"
	"github.com/package-register/note-summarizer/prompt"
	"github.com/package-register/note-summarizer/resolver"
	"github.com/package-register/note-summarizer/storage"
	"github.com/package-register/note-summarizer/stream"
	"github.com/package-register/note-summarizer/telemetry"
	"github.com/package-register/note-summarizer/token"
)

// Notes is the document surface the service works against.
type Notes interface {
	pipeline.DocumentStore
	Open(ctx context.Context, id string) (pipeline.Document, error)
}

// Completer streams a completion for a prompt into a sink.
type Completer interface {
	Stream(ctx context.Context, prompt string, sink pipeline.Sink) (stream.Completion, error)
	Model() string
}

// Recorder persists finished runs.
type Recorder interface {
	Record(ctx context.Context, run *storage.Run) error
}

// Outcome describes a finished request.
type Outcome struct {
	NoteID     string
	Message    string
	Code       pipeline.ErrorCode
	Prompt     prompt.Prompt
	References int
	Unresolved int
	Completion stream.Completion
	Usage      token.TokenUsage
	Elapsed    time.Duration
}

// Text returns the generated summary.
func (o Outcome) Text() string {
	return o.Completion.Text
}

// Option configures a Service.
type Option func(*Service)

// WithMonitor records token usage of every completed request.
func WithMonitor(m *token.Monitor) Option {
	return func(s *Service) { s.monitor = m }
}

// WithHistory stores every request that got past the active-note check.
func WithHistory(r Recorder) Option {
	return func(s *Service) { s.history = r }
}

// Service wires the pipeline stages together.
type Service struct {
	notes     Notes
	resolver  *resolver.Resolver
	assembler *prompt.Assembler
	client    Completer
	sink      pipeline.Sink
	monitor   *token.Monitor
	history   Recorder
}

// New creates a Service. defaultQuery is used when a note's frontmatter
// carries no prompt of its own.
func New(notes Notes, client Completer, sink pipeline.Sink, defaultQuery string, opts ...Option) *Service {
	s := &Service{
		notes:     notes,
		resolver:  resolver.NewFromStore(notes),
		assembler: prompt.NewAssembler(defaultQuery),
		client:    client,
		sink:      sink,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HasOpenNote reports whether a summarize request can run for docID.
func (s *Service) HasOpenNote(docID string) bool {
	return strings.TrimSpace(docID) != ""
}

// Generate summarizes the notes linked from docID. The returned Outcome
// always carries a short message for the user. A note without links is not
// an error: the sink is told so and the error is nil.
func (s *Service) Generate(ctx context.Context, docID string) (Outcome, error) {
	log := logger.With("summary")
	start := time.Now()
	out := Outcome{NoteID: docID}

	ctx, span := telemetry.StartSpan(ctx, "summary.generate",
		telemetry.WithAttributes(telemetry.BuildAttributes(telemetry.KeyNote, docID)))

	err := s.generate(ctx, docID, &out)
	out.Elapsed = time.Since(start)
	out.Code = pipeline.ClassifyError(err)
	out.Message = pipeline.UserMessage(err)

	span.SetAttributes(
		telemetry.Int(telemetry.KeyReferences, out.References),
		telemetry.Int(telemetry.KeyUnresolved, out.Unresolved),
		telemetry.String(telemetry.KeyOutcome, string(out.Code)),
	)

	if s.HasOpenNote(docID) {
		s.record(ctx, out)
	}

	switch out.Code {
	case "":
		log.Info("Summary written", "note", docID, "chars", len(out.Text()), "elapsed", out.Elapsed)
		err = nil
	case pipeline.ErrCodeNoReferences:
		log.Info("Note has no links", "note", docID)
		err = nil
	default:
		log.Error("Summary failed", "note", docID, "code", out.Code, "error", err)
	}
	telemetry.Finish(span, err)
	return out, err
}

// refresher is implemented by stores that cache their file listing.
type refresher interface {
	Refresh()
}

func (s *Service) generate(ctx context.Context, docID string, out *Outcome) error {
	s.sink.Open()
	defer s.sink.Close()

	if !s.HasOpenNote(docID) {
		return pipeline.ErrNoActiveDocument
	}
	if r, ok := s.notes.(refresher); ok {
		r.Refresh()
	}

	doc, err := s.notes.Open(ctx, docID)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %w", pipeline.ErrNoActiveDocument, err)
		}
		return err
	}

	fm, set, err := s.resolver.ResolveDocument(ctx, doc)
	out.References = set.Len()
	out.Unresolved = set.Unresolved()
	if err != nil {
		if errors.Is(err, pipeline.ErrNoReferences) {
			s.sink.AppendText(pipeline.UserMessage(err))
		}
		return err
	}

	out.Prompt = s.assembler.Build(fm, set)
	completion, err := s.client.Stream(ctx, out.Prompt.Text, s.sink)
	out.Completion = completion
	if err != nil {
		return err
	}
	if completion.Text == "" {
		logger.With("summary").Warn("Empty completion", "note", docID, "termination", completion.Termination)
	}

	out.Usage = s.recordUsage(*out)
	return nil
}

// recordUsage feeds the token monitor, estimating counts the service did not
// report.
func (s *Service) recordUsage(out Outcome) token.TokenUsage {
	usage := token.TokenUsage{Model: s.client.Model()}
	if u := out.Completion.Usage; u != nil {
		usage.PromptTokens = u.PromptTokens
		usage.CompletionTokens = u.CompletionTokens
		usage.TotalTokens = u.TotalTokens
	} else {
		usage.PromptTokens = token.Estimate(out.Prompt.Text)
		usage.CompletionTokens = token.Estimate(out.Completion.Text)
		usage.Estimated = true
	}
	if s.monitor == nil {
		return usage
	}

	usage = s.monitor.RecordUsage(usage)
	logger.With("summary").Debug("Token usage", "request", usage.TotalTokens, "stats", s.monitor.GetStats())
	if s.monitor.IsCritical() {
		logger.With("summary").Warn("Completion used nearly all of max_tokens; the summary may be cut short",
			"completion_tokens", usage.CompletionTokens)
	}
	return usage
}

func (s *Service) record(ctx context.Context, out Outcome) {
	if s.history == nil {
		return
	}
	run := &storage.Run{
		NoteID:           out.NoteID,
		Model:            s.client.Model(),
		References:       out.References,
		Unresolved:       out.Unresolved,
		PromptTokens:     out.Usage.PromptTokens,
		CompletionDeltas: out.Completion.Tokens,
		Malformed:        out.Completion.Malformed,
		Code:             out.Code,
		Message:          out.Message,
		Elapsed:          out.Elapsed,
		Summary:          out.Completion.Text,
	}
	if out.Completion.Text != "" || out.Code == "" {
		run.Termination = out.Completion.Termination.String()
	}
	if err := s.history.Record(context.WithoutCancel(ctx), run); err != nil {
		logger.With("summary").Warn("Could not record run", "note", out.NoteID, "error", err)
	}
}
