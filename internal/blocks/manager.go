// Package blocks implements the incremental block manager: it orchestrates
// the detector and the parser registry over one hybrid note, tracks which
// blocks are stale, and keeps line ranges contiguous under edits.
package blocks

import (
	"fmt"
	"strings"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/detector"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/parser"
)

// Manager owns an ordered block sequence and exposes full-document parsing
// plus O(1)-per-edit incremental operations. It is not safe for concurrent
// use; callers serialize access per document.
type Manager struct {
	det     *detector.Detector
	reg     *parser.Registry
	note    *models.HybridNote
	notices []detector.Notice
}

// New creates a manager over the given note using an explicit detector and
// registry.
func New(note *models.HybridNote, det *detector.Detector, reg *parser.Registry) *Manager {
	return &Manager{det: det, reg: reg, note: note}
}

// NewDefault creates a manager over a fresh note with the builtin parsers.
func NewDefault(id, title string) *Manager {
	return New(models.NewHybridNote(id, title), detector.New(), parser.DefaultRegistry())
}

// NewForPath creates a manager whose prose kind follows the file
// extension: .org files tag prose as Org, everything else as Markdown.
func NewForPath(path, title string) *Manager {
	det := detector.New()
	if strings.HasSuffix(path, ".org") {
		det = detector.New(detector.WithProseKind(models.Org()))
	}
	return New(models.NewHybridNote(path, title), det, parser.DefaultRegistry())
}

// Note returns the managed note.
func (m *Manager) Note() *models.HybridNote { return m.note }

// Blocks returns the ordered block sequence.
func (m *Manager) Blocks() []*models.HybridBlock { return m.note.Blocks }

// BlockCount returns the number of blocks.
func (m *Manager) BlockCount() int { return len(m.note.Blocks) }

// Notices returns the detector recovery notices from the last full parse.
func (m *Manager) Notices() []detector.Notice { return m.notices }

// ParseDocument detects, resolves, and parses the whole document, then
// replaces the note's block sequence atomically. It cannot fail: unknown
// syntax falls back to the identity parser, per-block parser rejections are
// recorded on the affected blocks, and unterminated markers surface as
// notices, never errors.
func (m *Manager) ParseDocument(text string) {
	segments, notices := m.det.Scan(text)

	fresh := make([]*models.HybridBlock, 0, len(segments))
	for _, seg := range segments {
		fresh = append(fresh, m.buildBlock(seg.Syntax, seg.RawText, seg.StartLine, seg.EndLine))
	}

	m.note.Blocks = fresh
	m.notices = notices
}

// buildBlock resolves a parser for the segment and parses it. A parser
// rejection leaves the AST absent with the error recorded; the block is
// still created so raw text is never lost.
func (m *Manager) buildBlock(kind models.SyntaxKind, raw string, startLine, endLine int) *models.HybridBlock {
	p := m.reg.Resolve(kind, raw)
	block := models.NewHybridBlock(kind, raw, nil, startLine, endLine)
	node, meta, err := p.Parse(raw, startLine)
	if err != nil {
		block.ParseErr = err
		return block
	}
	block.AST = node
	block.Metadata = meta
	return block
}

// ReparseBlock re-runs only the indexed block's parser over its current raw
// text and clears the dirty flag. A parser rejection is recorded on the
// block (AST absent, raw text and line range untouched) and does not fail
// the call; only a bad index does.
func (m *Manager) ReparseBlock(index int) error {
	b, err := m.blockAt(index)
	if err != nil {
		return err
	}

	p := m.reg.Resolve(b.Syntax, b.RawText)
	node, meta, perr := p.Parse(b.RawText, b.StartLine)
	if perr != nil {
		b.AST = nil
		b.ParseErr = perr
	} else {
		b.AST = node
		b.Metadata = meta
		b.ParseErr = nil
	}
	b.Dirty = false
	return nil
}

// ReparseDirty reparses every dirty block.
func (m *Manager) ReparseDirty() {
	for i, b := range m.note.Blocks {
		if b.Dirty {
			_ = m.ReparseBlock(i)
		}
	}
}

// MarkDirty flags a block as stale without touching its derived state.
func (m *Manager) MarkDirty(index int) error {
	b, err := m.blockAt(index)
	if err != nil {
		return err
	}
	b.Dirty = true
	return nil
}

// UpdateBlockText replaces a block's raw text, marks it dirty, and shifts
// the line ranges of all subsequent blocks by the line-count delta. The
// AST is not reparsed; callers resynchronize via ReparseBlock.
func (m *Manager) UpdateBlockText(index int, text string) error {
	b, err := m.blockAt(index)
	if err != nil {
		return err
	}
	if text == "" {
		return fmt.Errorf("blocks: update %d: raw text must not be empty (use RemoveBlock): %w", index, apperr.ErrInvalidInput)
	}

	delta := detector.CountLines(text) - b.LineCount()
	b.RawText = text
	b.EndLine += delta
	b.Dirty = true
	m.shiftFrom(index+1, delta)
	return nil
}

// InsertBlock inserts a new block at index (index == BlockCount appends),
// parses it immediately, and shifts subsequent blocks down by the inserted
// line count. A parser rejection is recorded on the new block; the insert
// itself only fails on a bad index or empty text, in which case the
// document is untouched.
func (m *Manager) InsertBlock(index int, kind models.SyntaxKind, raw string) error {
	if index < 0 || index > len(m.note.Blocks) {
		return fmt.Errorf("blocks: insert at %d of %d: %w", index, len(m.note.Blocks), apperr.ErrIndexOutOfRange)
	}
	if raw == "" {
		return fmt.Errorf("blocks: insert at %d: raw text must not be empty: %w", index, apperr.ErrInvalidInput)
	}

	startLine := 1
	if index > 0 {
		startLine = m.note.Blocks[index-1].EndLine + 1
	}
	lineCount := detector.CountLines(raw)
	block := m.buildBlock(kind, raw, startLine, startLine+lineCount-1)

	m.note.Blocks = append(m.note.Blocks, nil)
	copy(m.note.Blocks[index+1:], m.note.Blocks[index:])
	m.note.Blocks[index] = block
	m.shiftFrom(index+1, lineCount)
	return nil
}

// RemoveBlock removes the indexed block, shifting subsequent blocks up by
// its line count, and returns it.
func (m *Manager) RemoveBlock(index int) (*models.HybridBlock, error) {
	b, err := m.blockAt(index)
	if err != nil {
		return nil, err
	}

	m.note.Blocks = append(m.note.Blocks[:index], m.note.Blocks[index+1:]...)
	m.shiftFrom(index, -b.LineCount())
	return b, nil
}

// RedetectBlock re-runs the detector over one block's raw span alone and
// replaces the block with the resulting segments. This is the explicit
// escape hatch for structural edits (a changed opening marker, a fence
// split in two): ReparseBlock never moves block boundaries on its own.
// Total line coverage is unchanged, so no other block shifts.
func (m *Manager) RedetectBlock(index int) error {
	b, err := m.blockAt(index)
	if err != nil {
		return err
	}

	segments, notices := m.det.Scan(b.RawText)
	offset := b.StartLine - 1

	fresh := make([]*models.HybridBlock, 0, len(segments))
	for _, seg := range segments {
		fresh = append(fresh, m.buildBlock(seg.Syntax, seg.RawText, seg.StartLine+offset, seg.EndLine+offset))
	}

	replaced := make([]*models.HybridBlock, 0, len(m.note.Blocks)-1+len(fresh))
	replaced = append(replaced, m.note.Blocks[:index]...)
	replaced = append(replaced, fresh...)
	replaced = append(replaced, m.note.Blocks[index+1:]...)
	m.note.Blocks = replaced

	for _, n := range notices {
		n.SegmentIndex += index
		n.Line += offset
		m.notices = append(m.notices, n)
	}
	return nil
}

// RenderBlock serializes one block. Clean parsed blocks go through their
// parser's Render; dirty or failed blocks fall back to the authoritative
// raw text, so rendering is total.
func (m *Manager) RenderBlock(index int) (string, error) {
	b, err := m.blockAt(index)
	if err != nil {
		return "", err
	}
	if b.Dirty || b.AST == nil {
		return b.RawText, nil
	}
	return m.reg.Resolve(b.Syntax, b.RawText).Render(b.AST, b.Metadata), nil
}

// RenderDocument reassembles the whole document by concatenating block
// renderings in sequence order. No separators are added: each block's text
// already carries its terminators, so adjacency is lossless.
func (m *Manager) RenderDocument() string {
	var out strings.Builder
	for i := range m.note.Blocks {
		rendered, _ := m.RenderBlock(i)
		out.WriteString(rendered)
	}
	return out.String()
}

// FindHeadings returns the indices of heading blocks. Like all queries it
// never reparses, so dirty blocks answer with stale metadata.
func (m *Manager) FindHeadings() []int { return m.note.FindHeadings() }

// FindHeadingsAtLevel returns indices of headings at exactly level.
func (m *Manager) FindHeadingsAtLevel(level int) []int { return m.note.FindHeadingsAtLevel(level) }

// FindTodoItems returns indices of blocks carrying a workflow keyword.
func (m *Manager) FindTodoItems() []int { return m.note.FindTodos() }

// FindWhere returns indices of blocks whose metadata satisfies pred.
func (m *Manager) FindWhere(pred func(models.BlockMetadata) bool) []int {
	var out []int
	for i, b := range m.note.Blocks {
		if pred(b.Metadata) {
			out = append(out, i)
		}
	}
	return out
}

// DirtyBlocks returns the indices of blocks marked dirty.
func (m *Manager) DirtyBlocks() []int {
	var out []int
	for i, b := range m.note.Blocks {
		if b.Dirty {
			out = append(out, i)
		}
	}
	return out
}

// FailedBlocks returns the indices of blocks whose last parse was rejected.
func (m *Manager) FailedBlocks() []int {
	var out []int
	for i, b := range m.note.Blocks {
		if b.ParseErr != nil {
			out = append(out, i)
		}
	}
	return out
}

func (m *Manager) blockAt(index int) (*models.HybridBlock, error) {
	if index < 0 || index >= len(m.note.Blocks) {
		return nil, fmt.Errorf("blocks: index %d of %d: %w", index, len(m.note.Blocks), apperr.ErrIndexOutOfRange)
	}
	return m.note.Blocks[index], nil
}

func (m *Manager) shiftFrom(index, delta int) {
	if delta == 0 {
		return
	}
	for _, b := range m.note.Blocks[index:] {
		b.ShiftLines(delta)
	}
}
