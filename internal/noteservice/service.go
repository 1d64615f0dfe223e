// Package noteservice coordinates storage, block parsing, and the index:
// document CRUD with optimistic concurrency plus block-level edits that
// round-trip through the incremental manager.
package noteservice

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/blocks"
	"github.com/starford/ansuz/internal/checksum"
	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/storage"
)

// BlockView is the wire representation of one parsed block.
type BlockView struct {
	Index     int               `json:"index"`
	Syntax    string            `json:"syntax"`
	StartLine int               `json:"start_line"`
	EndLine   int               `json:"end_line"`
	Dirty     bool              `json:"dirty"`
	Heading   int               `json:"heading_level,omitempty"`
	TodoState string            `json:"todo_state,omitempty"`
	ID        string            `json:"id,omitempty"`
	Props     map[string]string `json:"properties,omitempty"`
	RawText   string            `json:"raw_text"`
	ParseErr  string            `json:"parse_error,omitempty"`
}

// NoteDetail is the full representation of a document.
type NoteDetail struct {
	Path      string      `json:"path"`
	Title     string      `json:"title"`
	Content   string      `json:"content"`
	Checksum  string      `json:"checksum"`
	Tags      []string    `json:"tags"`
	Blocks    []BlockView `json:"blocks"`
	Backlinks []string    `json:"backlinks"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// NoteListItem is a lightweight item in a list response.
type NoteListItem struct {
	Path      string    `json:"path"`
	Title     string    `json:"title"`
	Checksum  string    `json:"checksum"`
	Tags      []string  `json:"tags"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BlockEventFunc receives block-level edit notifications.
type BlockEventFunc func(path, op string, index int)

// Service coordinates storage and index operations.
type Service struct {
	store       storage.Provider
	db          *index.DB
	onBlockEdit BlockEventFunc
}

// NewService creates a new note service.
func NewService(store storage.Provider, db *index.DB) *Service {
	return &Service{store: store, db: db}
}

// OnBlockEdit registers a hook called after each successful block edit.
func (s *Service) OnBlockEdit(fn BlockEventFunc) { s.onBlockEdit = fn }

// GetNote reads a document from storage, parses its blocks, and enriches
// the result with backlinks.
func (s *Service) GetNote(_ context.Context, path string) (*NoteDetail, error) {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return s.buildNoteDetail(path, data)
}

// CreateNote writes a new document and indexes it.
func (s *Service) CreateNote(_ context.Context, path string, content []byte) (*NoteDetail, error) {
	if _, err := s.store.Read(path); err == nil {
		return nil, apperr.ErrAlreadyExists
	}
	if err := s.store.Write(path, content); err != nil {
		return nil, err
	}
	if err := index.IndexDocument(s.db, path, content); err != nil {
		return nil, err
	}
	return s.buildNoteDetail(path, content)
}

// UpdateNote writes updated content with optimistic concurrency.
func (s *Service) UpdateNote(_ context.Context, path string, content []byte, ifMatch string) (*NoteDetail, error) {
	existing, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	if ifMatch != "" && ifMatch != checksum.Sum(existing) {
		return nil, apperr.ErrConflict
	}
	if err := s.store.Write(path, content); err != nil {
		return nil, err
	}
	if err := index.IndexDocument(s.db, path, content); err != nil {
		return nil, err
	}
	return s.buildNoteDetail(path, content)
}

// DeleteNote removes a document from storage and index.
func (s *Service) DeleteNote(_ context.Context, path string) error {
	if err := s.store.Delete(path); err != nil {
		return err
	}
	return s.db.DeleteNote(path)
}

// ListNotes returns paginated documents with optional tag filter.
func (s *Service) ListNotes(_ context.Context, limit, offset int, tag, sort string) ([]NoteListItem, int, error) {
	rows, total, err := s.db.ListNotes(limit, offset, tag, sort)
	if err != nil {
		return nil, 0, err
	}
	items := make([]NoteListItem, len(rows))
	for i, r := range rows {
		items[i] = NoteListItem{
			Path:      r.Path,
			Title:     r.Title,
			Checksum:  r.Checksum,
			Tags:      nonNilSlice(r.Tags),
			UpdatedAt: r.UpdatedAt,
		}
	}
	return items, total, nil
}

// BlockEdit names one block-level mutation applied by EditBlock.
type BlockEdit struct {
	// Op is one of "update", "insert", "remove", "reparse", "redetect".
	Op string `json:"op"`
	// Index is the target block position.
	Index int `json:"index"`
	// Text is the replacement or inserted raw text (update, insert).
	Text string `json:"text,omitempty"`
	// Syntax declares the inserted block's kind (insert); empty means
	// markdown.
	Syntax string `json:"syntax,omitempty"`
}

// EditBlock applies one block-level edit to a stored document and writes
// the re-rendered document back, honoring the If-Match checksum. The
// returned detail reflects the post-edit state.
func (s *Service) EditBlock(ctx context.Context, path string, edit BlockEdit, ifMatch string) (*NoteDetail, error) {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	if ifMatch != "" && ifMatch != checksum.Sum(data) {
		return nil, apperr.ErrConflict
	}

	m := blocks.NewForPath(path, "")
	m.ParseDocument(string(data))

	switch edit.Op {
	case "update":
		err = m.UpdateBlockText(edit.Index, edit.Text)
	case "insert":
		err = m.InsertBlock(edit.Index, syntaxKind(edit.Syntax), edit.Text)
	case "remove":
		_, err = m.RemoveBlock(edit.Index)
	case "reparse":
		err = m.ReparseBlock(edit.Index)
	case "redetect":
		err = m.RedetectBlock(edit.Index)
	default:
		return nil, apperr.ErrInvalidInput
	}
	if err != nil {
		return nil, err
	}

	rendered := []byte(m.RenderDocument())
	if err := s.store.Write(path, rendered); err != nil {
		return nil, err
	}
	if err := index.IndexDocument(s.db, path, rendered); err != nil {
		return nil, err
	}
	if s.onBlockEdit != nil {
		s.onBlockEdit(path, edit.Op, edit.Index)
	}
	return s.buildNoteDetail(path, rendered)
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	return s.db.Search(query, limit)
}

// Outline returns the heading structure of one document, or of the vault.
func (s *Service) Outline(_ context.Context, path string) ([]index.OutlineEntry, error) {
	return s.db.Outline(path)
}

// Todos returns workflow items, optionally filtered by path and state.
func (s *Service) Todos(_ context.Context, path, state string) ([]index.TodoEntry, error) {
	return s.db.Todos(path, state)
}

// Graph returns all nodes and links for graph visualization.
func (s *Service) Graph(_ context.Context) ([]index.GraphNode, []index.GraphLink, error) {
	return s.db.Graph()
}

// Backlinks returns all document paths that link to the given target.
func (s *Service) Backlinks(_ context.Context, target string) ([]string, error) {
	return s.db.Backlinks(target)
}

// buildNoteDetail constructs a NoteDetail from raw data without re-reading
// the file.
func (s *Service) buildNoteDetail(path string, data []byte) (*NoteDetail, error) {
	m := blocks.NewForPath(path, "")
	m.ParseDocument(string(data))

	bl, err := s.db.Backlinks(path)
	if err != nil {
		return nil, err
	}

	detail := &NoteDetail{
		Path:      path,
		Content:   string(data),
		Checksum:  checksum.Sum(data),
		Tags:      []string{},
		Blocks:    blockViews(m),
		Backlinks: nonNilSlice(bl),
		UpdatedAt: time.Now(),
	}
	if row, err := s.db.GetNote(path); err == nil && row != nil {
		detail.Title = row.Title
		detail.Tags = nonNilSlice(row.Tags)
	}
	return detail, nil
}

// blockViews flattens the manager's block sequence for responses.
func blockViews(m *blocks.Manager) []BlockView {
	views := make([]BlockView, 0, m.BlockCount())
	for i, b := range m.Blocks() {
		v := BlockView{
			Index:     i,
			Syntax:    b.Syntax.String(),
			StartLine: b.StartLine,
			EndLine:   b.EndLine,
			Dirty:     b.Dirty,
			Heading:   b.HeadingLevel(),
			TodoState: b.TodoState(),
			ID:        b.Metadata.ID,
			RawText:   b.RawText,
		}
		if len(b.Metadata.Properties) > 0 {
			v.Props = make(map[string]string, len(b.Metadata.Properties))
			for _, p := range b.Metadata.Properties {
				v.Props[p.Key] = p.Value
			}
		}
		if b.ParseErr != nil {
			v.ParseErr = b.ParseErr.Error()
		}
		views = append(views, v)
	}
	return views
}

// syntaxKind maps a wire syntax name to a kind; unknown names become
// custom kinds so they resolve through the registry's fallback chain.
func syntaxKind(name string) models.SyntaxKind {
	switch name {
	case "", "markdown":
		return models.Markdown()
	case "org":
		return models.Org()
	case "latex":
		return models.LaTeX()
	case "code":
		return models.Code("")
	default:
		return models.Custom(name)
	}
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
