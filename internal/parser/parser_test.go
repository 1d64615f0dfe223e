package parser

import (
	"errors"
	"testing"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/models"
)

func TestRegistry_ResolveByKind(t *testing.T) {
	r := DefaultRegistry()
	p := r.Resolve(models.Org(), "* Heading")
	if p.Kind() != models.Org() {
		t.Errorf("resolved %v, want org", p.Kind())
	}
}

func TestRegistry_ResolveCodeFamily(t *testing.T) {
	r := DefaultRegistry()
	p := r.Resolve(models.Code("python"), "```python\nx\n```")
	if _, ok := p.(CodeParser); !ok {
		t.Errorf("resolved %T, want CodeParser", p)
	}
}

func TestRegistry_ResolveByProbe(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(LaTeXParser{}); err != nil {
		t.Fatal(err)
	}
	// Unknown declared kind, but the probe recognizes math delimiters.
	p := r.Resolve(models.Custom("unknown"), "$$x^2$$")
	if _, ok := p.(LaTeXParser); !ok {
		t.Errorf("resolved %T, want LaTeXParser", p)
	}
}

func TestRegistry_FallbackIdentity(t *testing.T) {
	r := NewRegistry()
	raw := "~~~ nothing recognizable ~~~"
	p := r.Resolve(models.Custom("mystery"), raw)
	node, meta, err := p.Parse(raw, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(meta.Properties) != 0 || meta.HeadingLevel != 0 {
		t.Errorf("identity metadata not empty: %+v", meta)
	}
	if got := p.Render(node, meta); got != raw {
		t.Errorf("render = %q, want %q", got, raw)
	}
}

func TestRegistry_DuplicateRejected(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(MarkdownParser{}); err != nil {
		t.Fatal(err)
	}
	err := r.Register(MarkdownParser{})
	if !errors.Is(err, apperr.ErrParserRegistered) {
		t.Errorf("err = %v, want ErrParserRegistered", err)
	}
}

func TestMarkdown_Heading(t *testing.T) {
	node, meta, err := MarkdownParser{}.Parse("## Section Title\n", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meta.HeadingLevel != 2 {
		t.Errorf("heading level = %d, want 2", meta.HeadingLevel)
	}
	if node.Kind != models.NodeHeading || node.Text != "Section Title" {
		t.Errorf("node = %+v", node)
	}
}

func TestMarkdown_HeadingWithAnchor(t *testing.T) {
	_, meta, err := MarkdownParser{}.Parse("# Intro {#intro}\n", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meta.ID != "intro" {
		t.Errorf("id = %q, want %q", meta.ID, "intro")
	}
}

func TestMarkdown_MultiLineBlockIsNotHeading(t *testing.T) {
	raw := "# Title\n\nSome text\n"
	node, meta, err := MarkdownParser{}.Parse(raw, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meta.HeadingLevel != 0 {
		t.Errorf("heading level = %d, want 0 for multi-line block", meta.HeadingLevel)
	}
	if node.Kind != models.NodeParagraph {
		t.Errorf("node kind = %v, want paragraph", node.Kind)
	}
}

func TestMarkdown_TagsAndLinks(t *testing.T) {
	raw := "See [[Note A]] and [[Note B|alias]] about #golang and #parsing\n"
	_, meta, err := MarkdownParser{}.Parse(raw, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tags, _ := meta.Property("tags"); tags != "golang,parsing" {
		t.Errorf("tags = %q", tags)
	}
	if links, _ := meta.Property("links"); links != "Note A,Note B" {
		t.Errorf("links = %q", links)
	}
}

func TestMarkdown_RoundTrip(t *testing.T) {
	for _, raw := range []string{
		"# Title\n",
		"plain paragraph\nover two lines\n",
		"---\n",
		"#  odd   spacing heading\n",
	} {
		node, meta, err := MarkdownParser{}.Parse(raw, 1)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if got := (MarkdownParser{}).Render(node, meta); got != raw {
			t.Errorf("render(parse(%q)) = %q", raw, got)
		}
	}
}

func TestMarkdown_NormalizedRender(t *testing.T) {
	node := models.Heading(3, "Built by hand")
	got := MarkdownParser{}.Render(node, models.BlockMetadata{})
	if got != "### Built by hand" {
		t.Errorf("render = %q", got)
	}
}

func TestOrg_TodoHeadline(t *testing.T) {
	node, meta, err := OrgParser{}.Parse("** TODO Write the report\n", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meta.HeadingLevel != 2 {
		t.Errorf("level = %d, want 2", meta.HeadingLevel)
	}
	if meta.TodoState != "TODO" {
		t.Errorf("todo = %q, want TODO", meta.TodoState)
	}
	if node.Text != "Write the report" {
		t.Errorf("title = %q", node.Text)
	}
}

func TestOrg_PropertiesDrawer(t *testing.T) {
	raw := "* Meeting\n:PROPERTIES:\n:ID: abc-123\n:LOCATION: Room 4\n:END:\n"
	_, meta, err := OrgParser{}.Parse(raw, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meta.ID != "abc-123" {
		t.Errorf("id = %q", meta.ID)
	}
	if loc, ok := meta.Property("LOCATION"); !ok || loc != "Room 4" {
		t.Errorf("location = %q, ok = %v", loc, ok)
	}
}

func TestOrg_SrcBlock(t *testing.T) {
	raw := "#+BEGIN_SRC rust\nfn main() {}\n#+END_SRC\n"
	node, _, err := OrgParser{}.Parse(raw, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if node.Kind != models.NodeCodeBlock || node.Language != "rust" {
		t.Errorf("node = %+v", node)
	}
	if node.Text != "fn main() {}" {
		t.Errorf("content = %q", node.Text)
	}
	if got := (OrgParser{}).Render(node, models.BlockMetadata{}); got != raw {
		t.Errorf("render = %q, want %q", got, raw)
	}
}

func TestOrg_NormalizedTodoRender(t *testing.T) {
	node := models.Heading(1, "Task")
	meta := models.BlockMetadata{HeadingLevel: 1, TodoState: "DONE"}
	if got := (OrgParser{}).Render(node, meta); got != "* DONE Task" {
		t.Errorf("render = %q", got)
	}
}

func TestLaTeX_DollarBlock(t *testing.T) {
	raw := "$$\nE = mc^2\n$$\n"
	node, _, err := LaTeXParser{}.Parse(raw, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if node.Kind != models.NodeMathBlock || node.Text != "E = mc^2" {
		t.Errorf("node = %+v", node)
	}
	if got := (LaTeXParser{}).Render(node, models.BlockMetadata{}); got != raw {
		t.Errorf("render = %q, want %q", got, raw)
	}
}

func TestLaTeX_BracketBlock(t *testing.T) {
	node, _, err := LaTeXParser{}.Parse(`\[x^2 + y^2 = z^2\]`, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if node.Text != "x^2 + y^2 = z^2" {
		t.Errorf("content = %q", node.Text)
	}
}

func TestLaTeX_CanHandle(t *testing.T) {
	p := LaTeXParser{}
	if !p.CanHandle("$$math$$") || !p.CanHandle(`\[math\]`) {
		t.Error("should handle math delimiters")
	}
	if p.CanHandle("regular text") {
		t.Error("should not handle plain text")
	}
}

func TestCode_FenceLanguage(t *testing.T) {
	raw := "```go\nfmt.Println(1)\n```\n"
	node, _, err := CodeParser{}.Parse(raw, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if node.Language != "go" || node.Text != "fmt.Println(1)" {
		t.Errorf("node = %+v", node)
	}
	if got := (CodeParser{}).Render(node, models.BlockMetadata{}); got != raw {
		t.Errorf("render = %q, want %q", got, raw)
	}
}

func TestCode_UnterminatedFence(t *testing.T) {
	raw := "```sh\necho hi\n"
	node, _, err := CodeParser{}.Parse(raw, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if node.Language != "sh" || node.Text != "echo hi" {
		t.Errorf("node = %+v", node)
	}
}
