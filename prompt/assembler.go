// Package prompt builds the single prompt string sent to the generation service.
package prompt

import (
	"strings"

	"github.com/package-register/note-summarizer/pipeline"
)

// Separator follows every referenced document in the prompt.
const Separator = "----"

// QueryKey is the frontmatter key that overrides the default instruction.
const QueryKey = "prompt"

// Prompt is an assembled request prompt.
type Prompt struct {
	Text      string
	Query     string
	Documents int
}

// Assemble writes each body followed by Separator, then the query with no
// separator before it. No size limit is applied.
func Assemble(bodies []string, query string) string {
	n := len(query)
	for _, b := range bodies {
		n += len(b) + len(Separator)
	}

	var sb strings.Builder
	sb.Grow(n)
	for _, b := range bodies {
		sb.WriteString(b)
		sb.WriteString(Separator)
	}
	sb.WriteString(query)
	return sb.String()
}

// QueryInstruction returns the frontmatter "prompt" value when it is set and
// non-blank, otherwise fallback.
func QueryInstruction(fm pipeline.Frontmatter, fallback string) string {
	if v, ok := fm.Get(QueryKey); ok && strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}

// Assembler binds the configured default instruction.
type Assembler struct {
	defaultQuery string
}

// NewAssembler creates an Assembler using defaultQuery when a note carries
// no override.
func NewAssembler(defaultQuery string) *Assembler {
	return &Assembler{defaultQuery: defaultQuery}
}

// Build assembles the prompt for a note's frontmatter and referenced documents.
func (a *Assembler) Build(fm pipeline.Frontmatter, set pipeline.ReferencedDocumentSet) Prompt {
	query := QueryInstruction(fm, a.defaultQuery)
	return Prompt{
		Text:      Assemble(set.Bodies, query),
		Query:     query,
		Documents: set.Len(),
	}
}
