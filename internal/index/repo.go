package index

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// NoteRow represents a row in the notes table.
type NoteRow struct {
	Path      string
	Title     string
	Checksum  string
	Tags      []string
	UpdatedAt time.Time
}

// BlockRow represents one parsed block of a note.
type BlockRow struct {
	Index        int    `json:"index"`
	Syntax       string `json:"syntax"`
	Title        string `json:"title,omitempty"`
	HeadingLevel int    `json:"heading_level,omitempty"`
	TodoState    string `json:"todo_state,omitempty"`
	StartLine    int    `json:"start_line"`
	EndLine      int    `json:"end_line"`
	Body         string `json:"-"`
}

// OutlineEntry is one heading in a note's outline.
type OutlineEntry struct {
	Path       string `json:"path"`
	BlockIndex int    `json:"block_index"`
	Level      int    `json:"level"`
	Title      string `json:"title"`
	Line       int    `json:"line"`
}

// TodoEntry is one workflow item across the vault.
type TodoEntry struct {
	Path       string `json:"path"`
	BlockIndex int    `json:"block_index"`
	State      string `json:"state"`
	Title      string `json:"title"`
	Line       int    `json:"line"`
}

// SearchResult represents one search hit.
type SearchResult struct {
	Path    string `json:"path"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// GraphNode is a node in the link graph.
type GraphNode struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
}

// GraphLink is an edge in the link graph.
type GraphLink struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// UpsertNote replaces a note, its block rows, its FTS entry, and its
// outgoing links within one transaction.
func (db *DB) UpsertNote(n NoteRow, blocks []BlockRow, links []string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	tagsJSON, _ := json.Marshal(n.Tags)

	var body strings.Builder
	for _, b := range blocks {
		body.WriteString(b.Body)
	}

	_, err = tx.Exec(`
		INSERT INTO notes (path, title, checksum, tags, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title      = excluded.title,
			checksum   = excluded.checksum,
			tags       = excluded.tags,
			body       = excluded.body,
			updated_at = excluded.updated_at
	`, n.Path, n.Title, n.Checksum, string(tagsJSON), body.String(), n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert note: %w", err)
	}

	// Replace block rows: delete old then bulk insert.
	_, _ = tx.Exec(`DELETE FROM blocks WHERE path = ?`, n.Path)
	if len(blocks) > 0 {
		stmt, err := tx.Prepare(`
			INSERT INTO blocks (path, block_index, syntax, title, heading_level, todo_state, start_line, end_line, body)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("index: prepare block insert: %w", err)
		}
		defer stmt.Close()
		for _, b := range blocks {
			if _, err := stmt.Exec(n.Path, b.Index, b.Syntax, b.Title, b.HeadingLevel, b.TodoState, b.StartLine, b.EndLine, b.Body); err != nil {
				return fmt.Errorf("index: insert block: %w", err)
			}
		}
	}

	// FTS upsert (no-op when FTS5 tag is absent).
	if err := ftsUpsert(tx, n.Path, n.Title, body.String(), n.Tags); err != nil {
		return err
	}

	// Replace links.
	_, _ = tx.Exec(`DELETE FROM links WHERE source = ?`, n.Path)
	if len(links) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO links (source, target, type) VALUES (?, ?, 'inline')`)
		if err != nil {
			return fmt.Errorf("index: prepare link insert: %w", err)
		}
		defer stmt.Close()
		for _, target := range links {
			if _, err := stmt.Exec(n.Path, target); err != nil {
				return fmt.Errorf("index: insert link: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteNote removes a note, its blocks, its FTS entry, and outgoing links.
func (db *DB) DeleteNote(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	_, _ = tx.Exec(`DELETE FROM blocks WHERE path = ?`, path)
	_, _ = tx.Exec(`DELETE FROM links WHERE source = ?`, path)
	_, _ = tx.Exec(`DELETE FROM notes WHERE path = ?`, path)

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a note, or empty string if
// not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM notes WHERE path = ?`, path).Scan(&cs)
	if err != nil {
		return "", nil // not found is fine
	}
	return cs, nil
}

// GetNote returns a note row, or nil when the path is not indexed.
func (db *DB) GetNote(path string) (*NoteRow, error) {
	var n NoteRow
	var tagsJSON string
	err := db.conn.QueryRow(`SELECT path, title, checksum, tags, updated_at FROM notes WHERE path = ?`, path).
		Scan(&n.Path, &n.Title, &n.Checksum, &tagsJSON, &n.UpdatedAt)
	if err != nil {
		return nil, nil //nolint:nilnil // absence is not an error here
	}
	_ = json.Unmarshal([]byte(tagsJSON), &n.Tags)
	return &n, nil
}

// ListNotes returns paginated notes with optional tag filter.
func (db *DB) ListNotes(limit, offset int, tag, sort string) ([]NoteRow, int, error) {
	if limit <= 0 {
		limit = 50
	}
	orderBy := "updated_at DESC"
	switch sort {
	case "title":
		orderBy = "title COLLATE NOCASE ASC"
	case "path":
		orderBy = "path ASC"
	}

	where := ""
	args := []any{}
	if tag != "" {
		where = `WHERE tags LIKE ?`
		args = append(args, `%"`+tag+`"%`)
	}

	var total int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM notes `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count notes: %w", err)
	}

	query := fmt.Sprintf(`SELECT path, title, checksum, tags, updated_at FROM notes %s ORDER BY %s LIMIT ? OFFSET ?`, where, orderBy)
	rows, err := db.conn.Query(query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list notes: %w", err)
	}
	defer rows.Close()

	var out []NoteRow
	for rows.Next() {
		var n NoteRow
		var tagsJSON string
		if err := rows.Scan(&n.Path, &n.Title, &n.Checksum, &tagsJSON, &n.UpdatedAt); err != nil {
			return nil, 0, err
		}
		_ = json.Unmarshal([]byte(tagsJSON), &n.Tags)
		out = append(out, n)
	}
	return out, total, rows.Err()
}

// Blocks returns the indexed block rows of a note in sequence order.
func (db *DB) Blocks(path string) ([]BlockRow, error) {
	rows, err := db.conn.Query(`
		SELECT block_index, syntax, title, heading_level, todo_state, start_line, end_line, body
		FROM blocks WHERE path = ? ORDER BY block_index
	`, path)
	if err != nil {
		return nil, fmt.Errorf("index: blocks: %w", err)
	}
	defer rows.Close()

	var out []BlockRow
	for rows.Next() {
		var b BlockRow
		if err := rows.Scan(&b.Index, &b.Syntax, &b.Title, &b.HeadingLevel, &b.TodoState, &b.StartLine, &b.EndLine, &b.Body); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Outline returns the heading blocks of a note, or of the whole vault when
// path is empty.
func (db *DB) Outline(path string) ([]OutlineEntry, error) {
	query := `
		SELECT path, block_index, heading_level, title, start_line
		FROM blocks WHERE heading_level > 0`
	args := []any{}
	if path != "" {
		query += ` AND path = ?`
		args = append(args, path)
	}
	query += ` ORDER BY path, block_index`

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("index: outline: %w", err)
	}
	defer rows.Close()

	var out []OutlineEntry
	for rows.Next() {
		var e OutlineEntry
		if err := rows.Scan(&e.Path, &e.BlockIndex, &e.Level, &e.Title, &e.Line); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Todos returns workflow items, optionally filtered by path and state.
func (db *DB) Todos(path, state string) ([]TodoEntry, error) {
	query := `
		SELECT path, block_index, todo_state, title, start_line
		FROM blocks WHERE todo_state != ''`
	args := []any{}
	if path != "" {
		query += ` AND path = ?`
		args = append(args, path)
	}
	if state != "" {
		query += ` AND todo_state = ?`
		args = append(args, state)
	}
	query += ` ORDER BY path, block_index`

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("index: todos: %w", err)
	}
	defer rows.Close()

	var out []TodoEntry
	for rows.Next() {
		var e TodoEntry
		if err := rows.Scan(&e.Path, &e.BlockIndex, &e.State, &e.Title, &e.Line); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Backlinks returns all note paths that link to the given target.
func (db *DB) Backlinks(target string) ([]string, error) {
	rows, err := db.conn.Query(`SELECT source FROM links WHERE target = ?`, target)
	if err != nil {
		return nil, fmt.Errorf("index: backlinks: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Graph returns all notes as nodes and all links as edges.
func (db *DB) Graph() ([]GraphNode, []GraphLink, error) {
	nodeRows, err := db.conn.Query(`SELECT path, title FROM notes ORDER BY path`)
	if err != nil {
		return nil, nil, fmt.Errorf("index: graph nodes: %w", err)
	}
	defer nodeRows.Close()

	var nodes []GraphNode
	for nodeRows.Next() {
		var n GraphNode
		if err := nodeRows.Scan(&n.ID, &n.Title); err != nil {
			return nil, nil, err
		}
		nodes = append(nodes, n)
	}
	if err := nodeRows.Err(); err != nil {
		return nil, nil, err
	}

	linkRows, err := db.conn.Query(`SELECT source, target FROM links ORDER BY source, target`)
	if err != nil {
		return nil, nil, fmt.Errorf("index: graph links: %w", err)
	}
	defer linkRows.Close()

	var links []GraphLink
	for linkRows.Next() {
		var l GraphLink
		if err := linkRows.Scan(&l.Source, &l.Target); err != nil {
			return nil, nil, err
		}
		links = append(links, l)
	}
	return nodes, links, linkRows.Err()
}

// AllPaths returns every indexed note path.
func (db *DB) AllPaths() (map[string]struct{}, error) {
	rows, err := db.conn.Query(`SELECT path FROM notes`)
	if err != nil {
		return nil, fmt.Errorf("index: all paths: %w", err)
	}
	defer rows.Close()
	out := make(map[string]struct{})
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out[p] = struct{}{}
	}
	return out, rows.Err()
}

// AllChecksums returns a path → checksum map for every indexed note.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM notes`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}
