package parser

import (
	"strings"

	"github.com/starford/ansuz/internal/models"
)

// LaTeXParser handles display-math blocks delimited by $$...$$ or \[...\].
// The math content passes through untouched.
//
// Normalization (programmatic nodes only): math renders as "$$content$$".
type LaTeXParser struct{}

// Kind returns the LaTeX syntax kind.
func (LaTeXParser) Kind() models.SyntaxKind { return models.LaTeX() }

// CanHandle accepts text containing math delimiters.
func (LaTeXParser) CanHandle(text string) bool {
	return strings.Contains(text, "$$") || strings.Contains(text, `\[`) || strings.Contains(text, `\]`)
}

// Parse extracts the math content between the delimiters.
func (LaTeXParser) Parse(raw string, _ int) (*models.Node, models.BlockMetadata, error) {
	content := raw
	switch {
	case strings.Contains(raw, "$$"):
		content = strings.ReplaceAll(raw, "$$", "")
	case strings.Contains(raw, `\[`) || strings.Contains(raw, `\]`):
		content = strings.ReplaceAll(strings.ReplaceAll(raw, `\[`, ""), `\]`, "")
	}
	node := models.MathBlock(strings.TrimSpace(content))
	node.Source = raw
	return node, models.BlockMetadata{}, nil
}

// Render reproduces the parsed source exactly; nodes without source render
// as "$$content$$".
func (LaTeXParser) Render(node *models.Node, _ models.BlockMetadata) string {
	if node == nil {
		return ""
	}
	if node.Source != "" {
		return node.Source
	}
	return "$$" + node.Text + "$$"
}
