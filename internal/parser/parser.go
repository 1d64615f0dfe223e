// Package parser defines the per-syntax parsing capability and the registry
// that resolves which parser owns a block. Every registered parser turns raw
// block text into an AST plus metadata and renders it back; the registry
// guarantees a parser is always found, falling back to an identity parser
// that replays raw text unchanged.
package parser

import (
	"fmt"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/models"
)

// Parser is the uniform contract implemented once per syntax.
//
// Round-trip contract: for any raw text accepted by Parse, Render on the
// result reproduces the text byte-for-byte (builtins keep the source in
// Node.Source). Only programmatically built nodes render in a parser's
// normalized form, documented per parser.
//
// Parsers are stateless and safe to call concurrently across blocks.
type Parser interface {
	// Kind is the parser's declared syntax identity.
	Kind() models.SyntaxKind
	// CanHandle is a cheap structural probe used only when no parser is
	// registered for a segment's declared kind.
	CanHandle(text string) bool
	// Parse derives AST and metadata from raw block text. lineOffset is
	// the block's 1-indexed first line in the document, for diagnostics.
	Parse(raw string, lineOffset int) (*models.Node, models.BlockMetadata, error)
	// Render serializes a node back to text.
	Render(node *models.Node, meta models.BlockMetadata) string
}

// ParseError is a parser's rejection of a block's content. It does not
// abort document-level operations: the owning block keeps its raw text and
// records the error.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("syntax error at line %d: %s", e.Line, e.Message)
}

// Registry resolves segments to parsers. Resolution order for a segment of
// declared kind K: exact kind match, then K's base family (so Code("python")
// finds the generic code parser), then the first registered parser whose
// CanHandle probe accepts the text, then the identity fallback. Resolve
// never fails: unknown syntax is not an error.
type Registry struct {
	byKind   map[models.SyntaxKind]Parser
	ordered  []Parser
	fallback Parser
}

// NewRegistry creates an empty registry with the identity fallback in place.
func NewRegistry() *Registry {
	return &Registry{
		byKind:   make(map[models.SyntaxKind]Parser),
		fallback: IdentityParser{},
	}
}

// DefaultRegistry returns a registry with all builtin parsers registered:
// markdown, org, latex, and the generic code parser.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, p := range []Parser{MarkdownParser{}, OrgParser{}, LaTeXParser{}, CodeParser{}} {
		// Builtins have distinct kinds; registration cannot conflict.
		_ = r.Register(p)
	}
	return r
}

// Register adds a parser. Registering a second parser for an already
// claimed syntax kind returns apperr.ErrParserRegistered.
func (r *Registry) Register(p Parser) error {
	kind := p.Kind()
	if _, dup := r.byKind[kind]; dup {
		return fmt.Errorf("%w: %s", apperr.ErrParserRegistered, kind)
	}
	r.byKind[kind] = p
	r.ordered = append(r.ordered, p)
	return nil
}

// Resolve returns the parser owning a segment of the given kind and text.
// The result is never nil.
func (r *Registry) Resolve(kind models.SyntaxKind, raw string) Parser {
	if p, ok := r.byKind[kind]; ok {
		return p
	}
	if p, ok := r.byKind[kind.Family()]; ok {
		return p
	}
	for _, p := range r.ordered {
		if p.CanHandle(raw) {
			return p
		}
	}
	return r.fallback
}

// Kinds lists registered syntax kinds in registration order.
func (r *Registry) Kinds() []models.SyntaxKind {
	out := make([]models.SyntaxKind, len(r.ordered))
	for i, p := range r.ordered {
		out[i] = p.Kind()
	}
	return out
}

// IdentityParser is the fallback of last resort: it stores raw text
// verbatim with empty metadata and renders it unchanged, guaranteeing any
// content can become a block.
type IdentityParser struct{}

// Kind returns the identity parser's custom kind.
func (IdentityParser) Kind() models.SyntaxKind { return models.Custom("identity") }

// CanHandle accepts everything.
func (IdentityParser) CanHandle(string) bool { return true }

// Parse stores the text as a verbatim node.
func (IdentityParser) Parse(raw string, _ int) (*models.Node, models.BlockMetadata, error) {
	return models.Verbatim(raw), models.BlockMetadata{}, nil
}

// Render replays the stored text unchanged.
func (IdentityParser) Render(node *models.Node, _ models.BlockMetadata) string {
	if node == nil {
		return ""
	}
	if node.Source != "" {
		return node.Source
	}
	return node.Text
}
