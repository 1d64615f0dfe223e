package parser

import (
	"regexp"
	"strings"

	"github.com/starford/ansuz/internal/models"
)

var (
	wikilinkRe  = regexp.MustCompile(`\[\[(.*?)\]\]`)
	tagRe       = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)
	headingIDRe = regexp.MustCompile(`\s*\{#([A-Za-z0-9_-]+)\}\s*$`)
)

// MarkdownParser handles prose blocks: ATX headings, horizontal rules, and
// paragraphs. It lifts inline #tags and [[wikilinks]] into block properties
// ("tags" and "links", comma-joined) and reads a trailing {#id} anchor on
// headings into the block ID.
//
// Normalization (programmatic nodes only): headings render as
// "#... title", rules as "---", paragraphs as their text.
type MarkdownParser struct{}

// Kind returns the Markdown syntax kind.
func (MarkdownParser) Kind() models.SyntaxKind { return models.Markdown() }

// CanHandle accepts non-empty prose that carries no special-block markers.
func (MarkdownParser) CanHandle(text string) bool {
	t := strings.TrimSpace(text)
	return t != "" && !strings.HasPrefix(t, "#+BEGIN_") && !strings.Contains(t, "$$")
}

// Parse derives the block node and metadata from raw Markdown.
func (p MarkdownParser) Parse(raw string, _ int) (*models.Node, models.BlockMetadata, error) {
	var meta models.BlockMetadata

	if tags := extractTags(raw); len(tags) > 0 {
		meta.AddProperty("tags", strings.Join(tags, ","))
	}
	if links := extractWikilinks(raw); len(links) > 0 {
		meta.AddProperty("links", strings.Join(links, ","))
	}

	var node *models.Node
	switch lines := contentLines(raw); {
	case len(lines) == 1 && headingLevel(lines[0]) > 0:
		level := headingLevel(lines[0])
		title := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(lines[0]), "#"))
		if m := headingIDRe.FindStringSubmatch(title); m != nil {
			meta.ID = m[1]
			title = strings.TrimSpace(headingIDRe.ReplaceAllString(title, ""))
		}
		meta.HeadingLevel = level
		node = models.Heading(level, title)

	case len(lines) == 1 && isHorizontalRule(lines[0]):
		node = models.HorizontalRule()

	default:
		node = models.Paragraph(raw)
	}

	node.Source = raw
	return node, meta, nil
}

// Render reproduces the parsed source exactly; nodes without source render
// in normalized form.
func (MarkdownParser) Render(node *models.Node, meta models.BlockMetadata) string {
	if node == nil {
		return ""
	}
	if node.Source != "" {
		return node.Source
	}
	switch node.Kind {
	case models.NodeHeading:
		title := node.Text
		if meta.ID != "" {
			title += " {#" + meta.ID + "}"
		}
		return strings.Repeat("#", node.Level) + " " + title
	case models.NodeHorizontalRule:
		return "---"
	default:
		return node.Text
	}
}

// contentLines returns terminator-stripped lines, dropping trailing blanks
// so a heading followed by its separator blank line still counts as a
// single-line block.
func contentLines(raw string) []string {
	lines := strings.Split(strings.TrimSuffix(raw, "\n"), "\n")
	for i := range lines {
		lines[i] = strings.TrimSuffix(lines[i], "\r")
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// headingLevel returns the ATX level of a line, or 0 when it is not a
// heading. Levels above 6 are plain text.
func headingLevel(line string) int {
	t := strings.TrimSpace(line)
	n := 0
	for n < len(t) && t[n] == '#' {
		n++
	}
	if n == 0 || n > 6 || n == len(t) || t[n] != ' ' {
		return 0
	}
	return n
}

// isHorizontalRule matches ---, *** and ___ thematic breaks.
func isHorizontalRule(line string) bool {
	t := strings.TrimSpace(line)
	if len(t) < 3 {
		return false
	}
	mark := t[0]
	if mark != '-' && mark != '*' && mark != '_' {
		return false
	}
	for i := 0; i < len(t); i++ {
		if t[i] != mark && t[i] != ' ' {
			return false
		}
	}
	return true
}

// extractWikilinks returns deduplicated [[wikilink]] targets, resolving
// [[target|alias]] to the target.
func extractWikilinks(text string) []string {
	matches := wikilinkRe.FindAllStringSubmatch(text, -1)
	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		target := m[1]
		if i := strings.Index(target, "|"); i >= 0 {
			target = target[:i]
		}
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}
		if _, dup := seen[target]; dup {
			continue
		}
		seen[target] = struct{}{}
		out = append(out, target)
	}
	return out
}

// extractTags collects deduplicated inline #tags.
func extractTags(text string) []string {
	matches := tagRe.FindAllStringSubmatch(text, -1)
	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		if _, dup := seen[m[1]]; dup {
			continue
		}
		seen[m[1]] = struct{}{}
		out = append(out, m[1])
	}
	return out
}
