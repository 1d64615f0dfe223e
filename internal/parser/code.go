package parser

import (
	"strings"

	"github.com/starford/ansuz/internal/models"
)

// CodeParser handles fenced code blocks. It registers under the base Code
// kind; segments tagged Code("python") etc. resolve to it through the
// registry's family lookup.
//
// Normalization (programmatic nodes only): "```lang\ncontent\n```".
type CodeParser struct{}

// Kind returns the base fenced-code syntax kind.
func (CodeParser) Kind() models.SyntaxKind { return models.Code("") }

// CanHandle accepts text opening with a fence.
func (CodeParser) CanHandle(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), "```")
}

// Parse extracts the fence language and inner content. Text without a
// leading fence is treated as bare code with no language.
func (CodeParser) Parse(raw string, _ int) (*models.Node, models.BlockMetadata, error) {
	lines := contentLines(raw)
	lang := ""
	body := lines

	if len(lines) > 0 && strings.HasPrefix(strings.TrimSpace(lines[0]), "```") {
		rest := strings.TrimPrefix(strings.TrimSpace(lines[0]), "```")
		if fields := strings.Fields(rest); len(fields) > 0 {
			lang = fields[0]
		}
		body = lines[1:]
		if len(body) > 0 && strings.TrimSpace(body[len(body)-1]) == "```" {
			body = body[:len(body)-1]
		}
	}

	node := models.CodeBlock(lang, strings.Join(body, "\n"))
	node.Source = raw
	return node, models.BlockMetadata{}, nil
}

// Render reproduces the parsed source exactly; nodes without source render
// as a normalized fence.
func (CodeParser) Render(node *models.Node, _ models.BlockMetadata) string {
	if node == nil {
		return ""
	}
	if node.Source != "" {
		return node.Source
	}
	return "```" + node.Language + "\n" + node.Text + "\n```"
}
