// Package sink provides destinations for streamed summary text.
package sink

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/package-register/note-summarizer/pipeline"
)

// Terminal prints the summary to a writer, framed by a styled header and
// footer.
type Terminal struct {
	mu     sync.Mutex
	w      io.Writer
	title  string
	header lipgloss.Style
	footer lipgloss.Style
	wrote  bool
}

// NewTerminal returns a Terminal writing to w. The title is shown in the
// header; an empty title prints "Summary".
func NewTerminal(w io.Writer, title string) *Terminal {
	r := lipgloss.NewRenderer(w)
	if title == "" {
		title = "Summary"
	}
	return &Terminal{
		w:      w,
		title:  title,
		header: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED")),
		footer: r.NewStyle().Faint(true),
	}
}

func (t *Terminal) Open() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.wrote = false
	fmt.Fprintln(t.w, t.header.Render(t.title))
}

func (t *Terminal) AppendText(text string) {
	if text == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.wrote = true
	io.WriteString(t.w, text)
}

func (t *Terminal) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.wrote {
		fmt.Fprintln(t.w)
	}
	fmt.Fprintln(t.w, t.footer.Render(strings.Repeat("─", 4)))
}

// Buffer keeps everything appended in memory.
type Buffer struct {
	mu      sync.RWMutex
	appends []string
	opened  bool
	closed  bool
}

func (b *Buffer) Open() {
	b.mu.Lock()
	b.opened = true
	b.closed = false
	b.mu.Unlock()
}

func (b *Buffer) AppendText(text string) {
	b.mu.Lock()
	b.appends = append(b.appends, text)
	b.mu.Unlock()
}

func (b *Buffer) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
}

// Appends returns a copy of every appended chunk, in order.
func (b *Buffer) Appends() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]string, len(b.appends))
	copy(out, b.appends)
	return out
}

// String returns the concatenated text.
func (b *Buffer) String() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return strings.Join(b.appends, "")
}

// Closed reports whether the buffer was opened and then closed.
func (b *Buffer) Closed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.opened && b.closed
}

// Multi forwards every call to each sink in order.
type Multi []pipeline.Sink

func (m Multi) Open() {
	for _, s := range m {
		s.Open()
	}
}

func (m Multi) AppendText(text string) {
	for _, s := range m {
		s.AppendText(text)
	}
}

func (m Multi) Close() {
	for _, s := range m {
		s.Close()
	}
}

var (
	_ pipeline.Sink = (*Terminal)(nil)
	_ pipeline.Sink = (*Buffer)(nil)
	_ pipeline.Sink = Multi(nil)
)
