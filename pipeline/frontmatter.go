package pipeline

import (
	"sort"
	"strings"
)

const frontmatterDelimiter = "---"

// Frontmatter holds the key/value block at the head of a note.
// Keys are lower-cased, values trimmed. Absent keys are simply missing.
type Frontmatter map[string]string

// Get returns the value for key (case-insensitive) and whether it was present.
func (f Frontmatter) Get(key string) (string, bool) {
	v, ok := f[strings.ToLower(key)]
	return v, ok
}

// String renders the mapping as a canonical delimited block with sorted keys.
// An empty mapping renders as the empty string.
func (f Frontmatter) String() string {
	if len(f) == 0 {
		return ""
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(frontmatterDelimiter + "\n")
	for _, k := range keys {
		sb.WriteString(k)
		sb.WriteString(": ")
		sb.WriteString(f[k])
		sb.WriteString("\n")
	}
	sb.WriteString(frontmatterDelimiter + "\n")
	return sb.String()
}

// ParseFrontmatter extracts the leading frontmatter block of text.
// Text that does not open with a "---" line yields an empty mapping.
func ParseFrontmatter(text string) Frontmatter {
	fm, _ := SplitFrontmatter(text)
	return fm
}

// SplitFrontmatter parses the leading block and returns the remaining body.
//
// The block must start on the first line and is closed by the next line that
// consists solely of "---". Inner lines split on the first colon; a line
// without a colon becomes a key with an empty value. An unclosed block is not
// frontmatter and the whole text is returned as body.
func SplitFrontmatter(text string) (Frontmatter, string) {
	fm := Frontmatter{}

	first, rest, ok := cutLine(text)
	if !ok || first != frontmatterDelimiter {
		return fm, text
	}

	var inner []string
	closed := false
	for rest != "" {
		var line string
		line, rest, _ = cutLine(rest)
		if line == frontmatterDelimiter {
			closed = true
			break
		}
		inner = append(inner, line)
	}
	if !closed {
		return Frontmatter{}, text
	}

	for _, line := range inner {
		if strings.TrimSpace(line) == "" {
			continue
		}
		key, value, _ := strings.Cut(line, ":")
		fm[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(value)
	}
	return fm, rest
}

// cutLine splits off the first line of s without its terminator (LF or CRLF).
// ok is false only when s is empty.
func cutLine(s string) (line, rest string, ok bool) {
	if s == "" {
		return "", "", false
	}
	line, rest, found := strings.Cut(s, "\n")
	if !found {
		rest = ""
	}
	return strings.TrimSuffix(line, "\r"), rest, true
}
