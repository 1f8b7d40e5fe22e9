// Package links finds wiki-style [[bracket]] references in note text.
package links

import "strings"

const (
	openDelim  = "[["
	closeDelim = "]]"
)

// Span is one bracket reference found in a text.
// Start and End are byte offsets into the whole text covering the delimiters.
type Span struct {
	Line   int
	Start  int
	End    int
	Target string
}

// Scan walks text once and returns every [[...]] pair in line order, then
// left to right. Pairs are matched non-greedily and never cross a line break;
// an opener without a closer on the same line yields nothing.
func Scan(text string) []Span {
	var spans []Span
	line := 0
	lineStart := 0
	for lineStart <= len(text) {
		lineEnd := strings.IndexByte(text[lineStart:], '\n')
		if lineEnd < 0 {
			lineEnd = len(text)
		} else {
			lineEnd += lineStart
		}
		spans = scanLine(spans, text[lineStart:lineEnd], line, lineStart)
		lineStart = lineEnd + 1
		line++
	}
	return spans
}

func scanLine(spans []Span, s string, line, offset int) []Span {
	pos := 0
	for {
		i := strings.Index(s[pos:], openDelim)
		if i < 0 {
			return spans
		}
		start := pos + i
		j := strings.Index(s[start+len(openDelim):], closeDelim)
		if j < 0 {
			return spans
		}
		inner := start + len(openDelim)
		end := inner + j + len(closeDelim)
		spans = append(spans, Span{
			Line:   line,
			Start:  offset + start,
			End:    offset + end,
			Target: s[inner : inner+j],
		})
		pos = end
	}
}

// Extract returns the enclosed targets of a single line.
func Extract(line string) []string {
	spans := scanLine(nil, line, 0, 0)
	out := make([]string, len(spans))
	for i, sp := range spans {
		out[i] = sp.Target
	}
	return out
}

// Targets returns the enclosed targets of a whole text in scan order.
func Targets(text string) []string {
	spans := Scan(text)
	out := make([]string, len(spans))
	for i, sp := range spans {
		out[i] = sp.Target
	}
	return out
}

// Normalize reduces a raw target to the link path used for lookup by
// dropping an alias ("note|shown text") and a subpath ("note#heading",
// "note#^block"). Surrounding whitespace is trimmed.
func Normalize(target string) string {
	if i := strings.IndexByte(target, '|'); i >= 0 {
		target = target[:i]
	}
	if i := strings.IndexByte(target, '#'); i >= 0 {
		target = target[:i]
	}
	return strings.TrimSpace(target)
}
