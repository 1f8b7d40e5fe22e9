package pipeline

// Reference records how a single bracket link was resolved.
type Reference struct {
	Target   string // raw text between the brackets
	Line     int    // zero-based line in the scanned body
	Resolved bool
	ID       string // resolved document ID, empty when unresolved
}

// ReferencedDocumentSet is the ordered list of document bodies gathered from a
// note's links. Bodies[i] belongs to Refs[i]; unresolved links keep their slot
// with an empty body.
type ReferencedDocumentSet struct {
	Bodies []string
	Refs   []Reference
}

// Len returns the number of reference slots.
func (s ReferencedDocumentSet) Len() int {
	return len(s.Bodies)
}

// Unresolved counts the slots whose link did not match any document.
func (s ReferencedDocumentSet) Unresolved() int {
	n := 0
	for _, r := range s.Refs {
		if !r.Resolved {
			n++
		}
	}
	return n
}

// Add appends one slot.
func (s *ReferencedDocumentSet) Add(ref Reference, body string) {
	s.Refs = append(s.Refs, ref)
	s.Bodies = append(s.Bodies, body)
}
