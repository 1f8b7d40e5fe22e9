package prompt

import (
	"testing"

	"github.com/package-register/note-summarizer/pipeline"
)

func TestAssemble(t *testing.T) {
	tests := []struct {
		name   string
		bodies []string
		query  string
		want   string
	}{
		{"two bodies", []string{"a", "b"}, "q", "a----b----q"},
		{"no bodies", nil, "q", "q"},
		{"empty slot kept", []string{"", "b"}, "q", "----b----q"},
		{"empty query", []string{"a"}, "", "a----"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Assemble(tt.bodies, tt.query); got != tt.want {
				t.Fatalf("Assemble(%q, %q) = %q, want %q", tt.bodies, tt.query, got, tt.want)
			}
		})
	}
}

func TestAssemble_Deterministic(t *testing.T) {
	bodies := []string{"first note", "second note"}
	if Assemble(bodies, "q") != Assemble(bodies, "q") {
		t.Fatal("expected identical output for identical input")
	}
	if Assemble(bodies, "q") != bodies[0]+Separator+bodies[1]+Separator+"q" {
		t.Fatal("unexpected layout")
	}
}

func TestQueryInstruction(t *testing.T) {
	if got := QueryInstruction(pipeline.Frontmatter{"prompt": "Hello"}, "default"); got != "Hello" {
		t.Fatalf("expected override, got %q", got)
	}
	if got := QueryInstruction(pipeline.Frontmatter{}, "default"); got != "default" {
		t.Fatalf("expected default, got %q", got)
	}
	if got := QueryInstruction(pipeline.Frontmatter{"prompt": "  "}, "default"); got != "default" {
		t.Fatalf("blank override should fall back, got %q", got)
	}
	if got := QueryInstruction(nil, "default"); got != "default" {
		t.Fatalf("nil frontmatter should fall back, got %q", got)
	}
}

func TestAssembler_Build(t *testing.T) {
	a := NewAssembler("Summarize.")

	var set pipeline.ReferencedDocumentSet
	set.Add(pipeline.Reference{Target: "A", Resolved: true}, "alpha")
	set.Add(pipeline.Reference{Target: "B"}, "")

	p := a.Build(pipeline.ParseFrontmatter("---\nprompt: Hello\n---\n"), set)
	if p.Text != "alpha--------Hello" {
		t.Fatalf("unexpected prompt %q", p.Text)
	}
	if p.Query != "Hello" || p.Documents != 2 {
		t.Fatalf("unexpected prompt metadata %+v", p)
	}

	p = a.Build(nil, set)
	if p.Query != "Summarize." {
		t.Fatalf("expected default query, got %q", p.Query)
	}
}
