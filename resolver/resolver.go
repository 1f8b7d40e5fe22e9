// Package resolver turns the bracket links of a note into the ordered list
// of referenced note bodies.
package resolver

import (
	"context"
	"fmt"

	"github.com/package-register/note-summarizer/links"
	"github.com/package-register/note-summarizer/logger"
	"github.com/package-register/note-summarizer/pipeline"
)

// Resolver gathers referenced documents through the lookup and read
// capabilities of a document store.
type Resolver struct {
	lookup pipeline.LinkResolver
	reader pipeline.DocumentReader
}

// New creates a Resolver.
func New(lookup pipeline.LinkResolver, reader pipeline.DocumentReader) *Resolver {
	return &Resolver{lookup: lookup, reader: reader}
}

// NewFromStore creates a Resolver backed by a single store.
func NewFromStore(store pipeline.DocumentStore) *Resolver {
	return New(store, store)
}

// Resolve scans body (the note text without frontmatter) and returns one
// slot per bracket link, in the order the links appear. Links that match no
// document, or whose document cannot be read, keep their slot with an empty
// body. A body without any link yields pipeline.ErrNoReferences.
func (r *Resolver) Resolve(ctx context.Context, docID, body string) (pipeline.ReferencedDocumentSet, error) {
	log := logger.With("resolver")
	var set pipeline.ReferencedDocumentSet

	for _, span := range links.Scan(body) {
		if err := ctx.Err(); err != nil {
			return pipeline.ReferencedDocumentSet{}, err
		}

		ref := pipeline.Reference{Target: span.Target, Line: span.Line}
		h, ok := r.lookup.Resolve(ctx, links.Normalize(span.Target), docID)
		if !ok {
			log.Warn("Unresolved link", "note", docID, "target", span.Target, "line", span.Line+1)
			set.Add(ref, "")
			continue
		}

		content, err := r.reader.Read(ctx, h)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return pipeline.ReferencedDocumentSet{}, ctxErr
			}
			log.Warn("Referenced note unreadable", "note", docID, "target", h.ID, "error", err)
			set.Add(ref, "")
			continue
		}

		ref.Resolved = true
		ref.ID = h.ID
		set.Add(ref, content)
		log.Debug("Resolved link", "target", span.Target, "id", h.ID, "bytes", len(content))
	}

	if set.Len() == 0 {
		return set, fmt.Errorf("%s: %w", docID, pipeline.ErrNoReferences)
	}
	return set, nil
}

// ResolveDocument splits the frontmatter off doc and resolves its body.
func (r *Resolver) ResolveDocument(ctx context.Context, doc pipeline.Document) (pipeline.Frontmatter, pipeline.ReferencedDocumentSet, error) {
	fm, body := pipeline.SplitFrontmatter(doc.Content)
	set, err := r.Resolve(ctx, doc.ID, body)
	return fm, set, err
}
