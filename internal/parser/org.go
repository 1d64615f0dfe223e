package parser

import (
	"strings"

	"github.com/starford/ansuz/internal/models"
)

// orgTodoKeywords are the workflow states recognized on Org headlines.
var orgTodoKeywords = []string{"TODO", "DONE", "WAITING", "CANCELLED"}

// OrgParser handles Org-mode blocks: star headlines with workflow keywords,
// #+BEGIN_SRC source blocks, :PROPERTIES: drawers, and plain Org prose.
//
// Normalization (programmatic nodes only): headlines render as "*... title"
// with the workflow keyword prefixed, source blocks as
// "#+BEGIN_SRC lang\n...\n#+END_SRC".
type OrgParser struct{}

// Kind returns the Org-mode syntax kind.
func (OrgParser) Kind() models.SyntaxKind { return models.Org() }

// CanHandle accepts text opening with Org markers.
func (OrgParser) CanHandle(text string) bool {
	t := strings.TrimLeft(text, " \t")
	return strings.HasPrefix(t, "*") ||
		strings.HasPrefix(t, "#+BEGIN_") ||
		strings.HasPrefix(t, "#+TITLE:") ||
		strings.HasPrefix(t, "#+AUTHOR:")
}

// Parse derives the block node and metadata from raw Org text.
func (p OrgParser) Parse(raw string, lineOffset int) (*models.Node, models.BlockMetadata, error) {
	var meta models.BlockMetadata
	lines := contentLines(raw)

	if len(lines) == 0 {
		node := models.Paragraph(raw)
		node.Source = raw
		return node, meta, nil
	}

	first := strings.TrimLeft(lines[0], " \t")

	if level, title, ok := orgHeadline(first); ok {
		meta.HeadingLevel = level
		for _, kw := range orgTodoKeywords {
			if strings.HasPrefix(title, kw+" ") || title == kw {
				meta.TodoState = kw
				title = strings.TrimSpace(strings.TrimPrefix(title, kw))
				break
			}
		}
		parseDrawer(lines[1:], &meta)
		node := models.Heading(level, title)
		node.Source = raw
		return node, meta, nil
	}

	if strings.HasPrefix(strings.ToUpper(first), "#+BEGIN_SRC") {
		lang := strings.TrimSpace(first[len("#+BEGIN_SRC"):])
		body := lines[1:]
		if len(body) > 0 && strings.HasPrefix(strings.ToUpper(strings.TrimLeft(body[len(body)-1], " \t")), "#+END_SRC") {
			body = body[:len(body)-1]
		}
		node := models.CodeBlock(lang, strings.Join(body, "\n"))
		node.Source = raw
		return node, meta, nil
	}

	parseDrawer(lines, &meta)
	node := models.Paragraph(raw)
	node.Source = raw
	return node, meta, nil
}

// Render reproduces the parsed source exactly; nodes without source render
// in normalized Org form.
func (OrgParser) Render(node *models.Node, meta models.BlockMetadata) string {
	if node == nil {
		return ""
	}
	if node.Source != "" {
		return node.Source
	}
	switch node.Kind {
	case models.NodeHeading:
		prefix := strings.Repeat("*", node.Level) + " "
		if meta.TodoState != "" {
			prefix += meta.TodoState + " "
		}
		return prefix + node.Text
	case models.NodeCodeBlock:
		open := "#+BEGIN_SRC"
		if node.Language != "" {
			open += " " + node.Language
		}
		return open + "\n" + node.Text + "\n#+END_SRC"
	default:
		return node.Text
	}
}

// orgHeadline parses "*... title" headlines, up to 6 stars deep.
func orgHeadline(line string) (level int, title string, ok bool) {
	n := 0
	for n < len(line) && line[n] == '*' {
		n++
	}
	if n == 0 || n > 6 || n == len(line) || line[n] != ' ' {
		return 0, "", false
	}
	return n, strings.TrimSpace(line[n:]), true
}

// parseDrawer reads a :PROPERTIES: drawer into metadata. The :ID: property
// additionally becomes the block ID. Lines outside a drawer are ignored.
func parseDrawer(lines []string, meta *models.BlockMetadata) {
	inDrawer := false
	for _, line := range lines {
		t := strings.TrimSpace(line)
		switch {
		case strings.EqualFold(t, ":PROPERTIES:"):
			inDrawer = true
		case strings.EqualFold(t, ":END:"):
			return
		case inDrawer && strings.HasPrefix(t, ":"):
			rest := t[1:]
			i := strings.Index(rest, ":")
			if i <= 0 {
				continue
			}
			key := rest[:i]
			value := strings.TrimSpace(rest[i+1:])
			meta.AddProperty(key, value)
			if strings.EqualFold(key, "ID") && meta.ID == "" {
				meta.ID = value
			}
		}
	}
}
