package models

// Property is one key/value pair in a block's ordered property list.
type Property struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// BlockMetadata is structural information a parser derived from a block's
// raw text. It is purely descriptive: the raw text stays authoritative and
// metadata may go stale when the block is dirty.
type BlockMetadata struct {
	// HeadingLevel is 1..6 for heading blocks, 0 otherwise.
	HeadingLevel int `json:"heading_level,omitempty"`
	// ID is an optional stable identifier for referencing the block.
	ID string `json:"id,omitempty"`
	// TodoState is an Org-style workflow keyword ("TODO", "DONE", ...).
	TodoState string `json:"todo_state,omitempty"`
	// Properties preserves key/value pairs in source order.
	Properties []Property `json:"properties,omitempty"`
}

// Property returns the first value recorded for key, and whether it exists.
func (m *BlockMetadata) Property(key string) (string, bool) {
	for _, p := range m.Properties {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// AddProperty appends a key/value pair, preserving insertion order.
func (m *BlockMetadata) AddProperty(key, value string) {
	m.Properties = append(m.Properties, Property{Key: key, Value: value})
}

// HybridBlock is one parsed, typed unit of a hybrid document.
//
// RawText is the byte-for-byte source of truth: concatenating the raw text
// of a note's blocks in order reconstructs the document exactly. AST and
// Metadata are derived and may lag behind RawText; Dirty marks that state.
type HybridBlock struct {
	Syntax   SyntaxKind    `json:"syntax"`
	RawText  string        `json:"raw_text"`
	AST      *Node         `json:"ast,omitempty"`
	Metadata BlockMetadata `json:"metadata"`
	// StartLine and EndLine are 1-indexed, inclusive positions in the
	// containing document.
	StartLine int  `json:"start_line"`
	EndLine   int  `json:"end_line"`
	Dirty     bool `json:"dirty,omitempty"`
	// ParseErr holds the last parser rejection for this block, if any.
	// A block with a parse error keeps its raw text and line range; only
	// its structural queries are unavailable.
	ParseErr error `json:"-"`
}

// NewHybridBlock creates a clean block spanning [startLine, endLine].
func NewHybridBlock(syntax SyntaxKind, rawText string, ast *Node, startLine, endLine int) *HybridBlock {
	return &HybridBlock{
		Syntax:    syntax,
		RawText:   rawText,
		AST:       ast,
		StartLine: startLine,
		EndLine:   endLine,
	}
}

// LineCount returns the number of lines the block spans.
func (b *HybridBlock) LineCount() int { return b.EndLine - b.StartLine + 1 }

// IsHeading reports whether the block's metadata marks it as a heading.
func (b *HybridBlock) IsHeading() bool { return b.Metadata.HeadingLevel > 0 }

// HeadingLevel returns the heading level, 0 when the block is not a heading.
func (b *HybridBlock) HeadingLevel() int { return b.Metadata.HeadingLevel }

// TodoState returns the workflow keyword, "" when absent.
func (b *HybridBlock) TodoState() string { return b.Metadata.TodoState }

// IsTodo reports whether the block is an open TODO item.
func (b *HybridBlock) IsTodo() bool { return b.Metadata.TodoState == "TODO" }

// IsDone reports whether the block is a completed item.
func (b *HybridBlock) IsDone() bool { return b.Metadata.TodoState == "DONE" }

// IsSyntax reports whether the block has exactly the given syntax kind.
func (b *HybridBlock) IsSyntax(kind SyntaxKind) bool { return b.Syntax == kind }

// ShiftLines moves the block's line range by delta (negative shifts up).
func (b *HybridBlock) ShiftLines(delta int) {
	b.StartLine += delta
	b.EndLine += delta
}
