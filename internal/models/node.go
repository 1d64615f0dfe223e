package models

// NodeKind discriminates the parsed shape of a block.
type NodeKind string

const (
	NodeParagraph      NodeKind = "paragraph"
	NodeHeading        NodeKind = "heading"
	NodeCodeBlock      NodeKind = "code_block"
	NodeMathBlock      NodeKind = "math_block"
	NodeHorizontalRule NodeKind = "horizontal_rule"
	// NodeVerbatim is produced by the identity parser: content stored as-is.
	NodeVerbatim NodeKind = "verbatim"
)

// Node is the parsed representation of a single block. The core layers
// (detector, manager) carry it opaquely; only the parser that produced a
// node interprets or re-derives it.
//
// Source holds the exact raw text the node was parsed from. Parsers return
// it verbatim from Render, which is what gives byte-for-byte round trips.
// Nodes built programmatically (Source == "") render in each parser's
// normalized form instead.
type Node struct {
	Kind     NodeKind `json:"kind"`
	Level    int      `json:"level,omitempty"`    // headings: 1..6
	Language string   `json:"language,omitempty"` // code blocks
	Text     string   `json:"text,omitempty"`     // body / heading title / math content
	Source   string   `json:"-"`
}

// Paragraph builds a paragraph node.
func Paragraph(text string) *Node {
	return &Node{Kind: NodeParagraph, Text: text}
}

// Heading builds a heading node of the given level.
func Heading(level int, text string) *Node {
	return &Node{Kind: NodeHeading, Level: level, Text: text}
}

// CodeBlock builds a code block node.
func CodeBlock(language, content string) *Node {
	return &Node{Kind: NodeCodeBlock, Language: language, Text: content}
}

// MathBlock builds a display-math node.
func MathBlock(content string) *Node {
	return &Node{Kind: NodeMathBlock, Text: content}
}

// HorizontalRule builds a thematic break node.
func HorizontalRule() *Node {
	return &Node{Kind: NodeHorizontalRule}
}

// Verbatim builds a passthrough node holding content as-is.
func Verbatim(content string) *Node {
	return &Node{Kind: NodeVerbatim, Text: content, Source: content}
}

// IsHeading reports whether the node is a heading.
func (n *Node) IsHeading() bool { return n != nil && n.Kind == NodeHeading }
