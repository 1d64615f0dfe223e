// Package detector partitions raw document text into contiguous, typed
// segments by scanning for block markers. It never parses block internals
// and never fails: any input, including empty text and unterminated
// markers, produces a gap-free segment sequence covering every line.
package detector

import (
	"fmt"
	"strings"

	"github.com/starford/ansuz/internal/models"
)

// RawSegment is one contiguous span of document lines tagged with a syntax
// kind. Line numbers are 1-indexed and inclusive. RawText preserves the
// original line terminators, so concatenating a scan's segments in order
// reproduces the input byte-for-byte.
type RawSegment struct {
	Syntax    models.SyntaxKind
	StartLine int
	EndLine   int
	RawText   string
}

// LineCount returns the number of lines the segment spans.
func (s RawSegment) LineCount() int { return s.EndLine - s.StartLine + 1 }

// Notice reports a non-fatal recovery during scanning, currently only the
// closing of an unterminated special block at end of document.
type Notice struct {
	// SegmentIndex is the index of the affected segment in the scan result.
	SegmentIndex int
	// Line is the 1-indexed line where the unterminated block opened.
	Line    int
	Message string
}

// scan states. A marker seen while outside stateDefault is literal content
// of the open block; nesting is not supported.
type state int

const (
	stateDefault state = iota
	stateInOrgBlock
	stateInCodeFence
	stateInLatex
)

// Detector scans document text for block boundaries. It is stateless
// between calls and safe to share.
type Detector struct {
	proseKind models.SyntaxKind
}

// Option configures a Detector.
type Option func(*Detector)

// WithProseKind sets the syntax kind assigned to prose segments, those
// lines outside any special block. Defaults to Markdown; Org vault files
// use it to tag their prose as Org.
func WithProseKind(kind models.SyntaxKind) Option {
	return func(d *Detector) { d.proseKind = kind }
}

// New creates a block detector.
func New(opts ...Option) *Detector {
	d := &Detector{proseKind: models.Markdown()}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Scan splits text into ordered, non-overlapping segments covering lines
// 1..n exactly once. Empty input yields no segments. Unterminated special
// blocks extend to end of document and are reported as notices.
func (d *Detector) Scan(text string) ([]RawSegment, []Notice) {
	lines := splitLines(text)
	if len(lines) == 0 {
		return nil, nil
	}

	var (
		segments []RawSegment
		notices  []Notice

		st       = stateDefault
		buf      []string
		bufStart int // 1-indexed first line of buf

		openKind   models.SyntaxKind
		orgEnd     string // expected #+END_<NAME>, uppercased name
		latexClose string // "$$" or `\]`
	)

	flush := func(kind models.SyntaxKind, endLine int) {
		if len(buf) == 0 {
			return
		}
		segments = append(segments, RawSegment{
			Syntax:    kind,
			StartLine: bufStart,
			EndLine:   endLine,
			RawText:   strings.Join(buf, ""),
		})
		buf = buf[:0:0]
	}

	open := func(raw string, lineNo int, kind models.SyntaxKind, next state) {
		flush(d.proseKind, lineNo-1)
		buf = append(buf, raw)
		bufStart = lineNo
		openKind = kind
		st = next
	}

	for i, raw := range lines {
		lineNo := i + 1
		content := lineContent(raw)

		switch st {
		case stateDefault:
			switch {
			case isOrgBegin(content):
				open(raw, lineNo, models.Org(), stateInOrgBlock)
				orgEnd = "#+END_" + orgBlockName(content)

			case isFenceOpen(content):
				open(raw, lineNo, models.Code(fenceLanguage(content)), stateInCodeFence)

			case strings.Count(content, "$$") >= 2:
				// $$...$$ opened and closed on the same line.
				flush(d.proseKind, lineNo-1)
				segments = append(segments, RawSegment{
					Syntax:    models.LaTeX(),
					StartLine: lineNo,
					EndLine:   lineNo,
					RawText:   raw,
				})

			case strings.Contains(content, "$$"):
				open(raw, lineNo, models.LaTeX(), stateInLatex)
				latexClose = "$$"

			case strings.TrimSpace(content) == `\[`:
				open(raw, lineNo, models.LaTeX(), stateInLatex)
				latexClose = `\]`

			default:
				// Prose, including blank lines: prose segments run
				// until the next special-block opener or end of input.
				if len(buf) == 0 {
					bufStart = lineNo
				}
				buf = append(buf, raw)
			}

		case stateInOrgBlock:
			buf = append(buf, raw)
			if hasCasePrefix(strings.TrimLeft(content, " \t"), orgEnd) {
				flush(models.Org(), lineNo)
				st = stateDefault
			}

		case stateInCodeFence:
			buf = append(buf, raw)
			if strings.TrimSpace(content) == "```" {
				flush(openKind, lineNo)
				st = stateDefault
			}

		case stateInLatex:
			buf = append(buf, raw)
			closed := false
			switch latexClose {
			case "$$":
				closed = strings.Contains(content, "$$")
			case `\]`:
				closed = strings.TrimSpace(content) == `\]`
			}
			if closed {
				flush(models.LaTeX(), lineNo)
				st = stateDefault
			}
		}
	}

	// End of document: whatever is open flushes as a final segment, so no
	// line is ever lost. Non-default states produce a recovery notice.
	if len(buf) > 0 {
		kind := d.proseKind
		if st != stateDefault {
			kind = openKind
			notices = append(notices, Notice{
				SegmentIndex: len(segments),
				Line:         bufStart,
				Message:      fmt.Sprintf("unterminated %s block closed at end of document", kind),
			})
		}
		flush(kind, len(lines))
	}

	return segments, notices
}

// CountLines returns the number of lines in text, counting a trailing
// fragment without a terminator as a line. Empty text has zero lines.
func CountLines(text string) int {
	return len(splitLines(text))
}

// splitLines splits text into lines preserving their terminators. The last
// line may lack a terminator. Empty input yields no lines.
func splitLines(text string) []string {
	var lines []string
	for text != "" {
		i := strings.IndexByte(text, '\n')
		if i < 0 {
			lines = append(lines, text)
			break
		}
		lines = append(lines, text[:i+1])
		text = text[i+1:]
	}
	return lines
}

// lineContent strips the trailing terminator from a raw line.
func lineContent(raw string) string {
	raw = strings.TrimSuffix(raw, "\n")
	return strings.TrimSuffix(raw, "\r")
}

// hasCasePrefix reports whether s starts with prefix, case-insensitively.
func hasCasePrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// isOrgBegin matches `#+BEGIN_<name>` (case-insensitive) with a non-empty
// name token.
func isOrgBegin(content string) bool {
	return orgBlockName(content) != ""
}

// orgBlockName extracts the uppercased block name from a begin marker,
// or "" when the line is not one.
func orgBlockName(content string) string {
	t := strings.TrimLeft(content, " \t")
	if !hasCasePrefix(t, "#+BEGIN_") {
		return ""
	}
	fields := strings.Fields(t[len("#+BEGIN_"):])
	if len(fields) == 0 {
		return ""
	}
	return strings.ToUpper(fields[0])
}

// isFenceOpen matches a ``` fence with an optional language tag.
func isFenceOpen(content string) bool {
	return strings.HasPrefix(strings.TrimSpace(content), "```")
}

// fenceLanguage returns the language tag on a fence line, or "".
func fenceLanguage(content string) string {
	rest := strings.TrimPrefix(strings.TrimSpace(content), "```")
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
