package models

// Note is a standard single-syntax document: an ordered AST with no
// per-block syntax tracking.
type Note struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Blocks []*Node `json:"blocks"`
}

// HybridNote is an ordered sequence of typed blocks forming one document.
// It owns its blocks exclusively; blocks are never shared across notes.
//
// Invariant: block line ranges, read in sequence order, are contiguous and
// strictly increasing with no gaps or overlaps, covering the document.
type HybridNote struct {
	ID     string         `json:"id"`
	Title  string         `json:"title"`
	Blocks []*HybridBlock `json:"blocks"`
}

// NewHybridNote creates an empty hybrid note.
func NewHybridNote(id, title string) *HybridNote {
	return &HybridNote{ID: id, Title: title}
}

// AddBlock appends a block to the note.
func (n *HybridNote) AddBlock(b *HybridBlock) {
	n.Blocks = append(n.Blocks, b)
}

// BlockCount returns the number of blocks in the note.
func (n *HybridNote) BlockCount() int { return len(n.Blocks) }

// BlockAt returns the block at index, or nil when out of range.
func (n *HybridNote) BlockAt(index int) *HybridBlock {
	if index < 0 || index >= len(n.Blocks) {
		return nil
	}
	return n.Blocks[index]
}

// FindHeadings returns the indices of all heading blocks.
func (n *HybridNote) FindHeadings() []int {
	return n.findWhere(func(b *HybridBlock) bool { return b.IsHeading() })
}

// FindHeadingsAtLevel returns the indices of headings at exactly level.
func (n *HybridNote) FindHeadingsAtLevel(level int) []int {
	return n.findWhere(func(b *HybridBlock) bool { return b.Metadata.HeadingLevel == level })
}

// FindTodos returns the indices of blocks carrying any workflow keyword.
func (n *HybridNote) FindTodos() []int {
	return n.findWhere(func(b *HybridBlock) bool { return b.Metadata.TodoState != "" })
}

func (n *HybridNote) findWhere(pred func(*HybridBlock) bool) []int {
	var out []int
	for i, b := range n.Blocks {
		if pred(b) {
			out = append(out, i)
		}
	}
	return out
}

// documentKind discriminates the Document sum type.
type documentKind int

const (
	documentStandard documentKind = iota
	documentHybrid
)

// Document is exactly one of: a standard single-syntax note, or a hybrid
// note. There is no implicit conversion between the two; callers switch on
// the accessors and handle both cases.
type Document struct {
	kind     documentKind
	standard *Note
	hybrid   *HybridNote
}

// NewStandardDocument wraps a single-syntax note as a document.
func NewStandardDocument(note *Note) *Document {
	return &Document{kind: documentStandard, standard: note}
}

// NewHybridDocument creates a document backed by an empty hybrid note.
func NewHybridDocument(id, title string) *Document {
	return &Document{kind: documentHybrid, hybrid: NewHybridNote(id, title)}
}

// WrapHybrid wraps an existing hybrid note as a document.
func WrapHybrid(note *HybridNote) *Document {
	return &Document{kind: documentHybrid, hybrid: note}
}

// IsHybrid reports whether the document holds a hybrid note.
func (d *Document) IsHybrid() bool { return d.kind == documentHybrid }

// AsNote returns the standard note, or nil for hybrid documents.
func (d *Document) AsNote() *Note {
	if d.kind != documentStandard {
		return nil
	}
	return d.standard
}

// AsHybrid returns the hybrid note, or nil for standard documents.
func (d *Document) AsHybrid() *HybridNote {
	if d.kind != documentHybrid {
		return nil
	}
	return d.hybrid
}
