// Package models defines the domain types for Ansuz: syntax kinds, block
// ASTs, hybrid blocks and the documents that own them.
package models

import "fmt"

// syntaxTag is the closed set of base syntax families.
type syntaxTag string

const (
	tagMarkdown syntaxTag = "markdown"
	tagOrg      syntaxTag = "org"
	tagLaTeX    syntaxTag = "latex"
	tagCode     syntaxTag = "code"
	tagCustom   syntaxTag = "custom"
)

// SyntaxKind identifies the markup dialect of a block. Code and Custom
// carry a payload (language and name respectively) that participates in
// equality, so SyntaxKind values compare by full value and can be used
// as map keys.
type SyntaxKind struct {
	tag     syntaxTag
	payload string
}

// Markdown returns the Markdown syntax kind.
func Markdown() SyntaxKind { return SyntaxKind{tag: tagMarkdown} }

// Org returns the Org-mode syntax kind.
func Org() SyntaxKind { return SyntaxKind{tag: tagOrg} }

// LaTeX returns the LaTeX/math syntax kind.
func LaTeX() SyntaxKind { return SyntaxKind{tag: tagLaTeX} }

// Code returns the fenced-code syntax kind for the given language.
// The language may be empty for an untagged fence.
func Code(language string) SyntaxKind { return SyntaxKind{tag: tagCode, payload: language} }

// Custom returns a syntax kind for an externally registered dialect.
func Custom(name string) SyntaxKind { return SyntaxKind{tag: tagCustom, payload: name} }

// IsMarkdown reports whether k is the Markdown kind.
func (k SyntaxKind) IsMarkdown() bool { return k.tag == tagMarkdown }

// IsOrg reports whether k is the Org-mode kind.
func (k SyntaxKind) IsOrg() bool { return k.tag == tagOrg }

// IsLaTeX reports whether k is the LaTeX kind.
func (k SyntaxKind) IsLaTeX() bool { return k.tag == tagLaTeX }

// IsCode reports whether k is a Code kind (any language).
func (k SyntaxKind) IsCode() bool { return k.tag == tagCode }

// IsCustom reports whether k is a Custom kind (any name).
func (k SyntaxKind) IsCustom() bool { return k.tag == tagCustom }

// Language returns the code-fence language, or "" for non-Code kinds.
func (k SyntaxKind) Language() string {
	if k.tag == tagCode {
		return k.payload
	}
	return ""
}

// CustomName returns the custom dialect name, or "" for non-Custom kinds.
func (k SyntaxKind) CustomName() string {
	if k.tag == tagCustom {
		return k.payload
	}
	return ""
}

// Family returns the base family of k ignoring any payload. Two Code kinds
// with different languages share a family; this is what registry fallback
// matching uses when an exact kind lookup misses.
func (k SyntaxKind) Family() SyntaxKind { return SyntaxKind{tag: k.tag} }

// String returns a human-readable identifier, e.g. "code(python)".
func (k SyntaxKind) String() string {
	if k.payload == "" {
		return string(k.tag)
	}
	return fmt.Sprintf("%s(%s)", k.tag, k.payload)
}
