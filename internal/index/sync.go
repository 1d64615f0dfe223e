package index

import (
	"log/slog"
	"strings"
	"time"

	"github.com/starford/ansuz/internal/blocks"
	"github.com/starford/ansuz/internal/checksum"
	"github.com/starford/ansuz/internal/storage"
)

// Sync walks the vault and brings the index up to date:
//   - new/changed files are parsed and upserted
//   - files removed from disk are deleted from the index
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := IndexDocument(db, m.Path, data); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", m.Path))
		}
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteNote(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// IndexDocument parses data through the block detector and upserts the
// resulting note, block, and link rows.
func IndexDocument(db *DB, path string, data []byte) error {
	m := blocks.NewForPath(path, "")
	m.ParseDocument(string(data))

	row := NoteRow{
		Path:      path,
		Checksum:  checksum.Sum(data),
		UpdatedAt: time.Now().UTC(),
	}

	var (
		blockRows []BlockRow
		links     []string
		tagSeen   = map[string]struct{}{}
		linkSeen  = map[string]struct{}{}
	)
	for i, b := range m.Blocks() {
		br := BlockRow{
			Index:        i,
			Syntax:       b.Syntax.String(),
			HeadingLevel: b.HeadingLevel(),
			TodoState:    b.TodoState(),
			StartLine:    b.StartLine,
			EndLine:      b.EndLine,
			Body:         b.RawText,
		}
		if b.IsHeading() && b.AST != nil {
			br.Title = b.AST.Text
			if row.Title == "" {
				row.Title = br.Title
			}
		}
		if v, ok := b.Metadata.Property("tags"); ok {
			for _, tag := range strings.Split(v, ",") {
				if _, dup := tagSeen[tag]; dup || tag == "" {
					continue
				}
				tagSeen[tag] = struct{}{}
				row.Tags = append(row.Tags, tag)
			}
		}
		if v, ok := b.Metadata.Property("links"); ok {
			for _, target := range strings.Split(v, ",") {
				if _, dup := linkSeen[target]; dup || target == "" {
					continue
				}
				linkSeen[target] = struct{}{}
				links = append(links, target)
			}
		}
		blockRows = append(blockRows, br)
	}

	if row.Title == "" && m.BlockCount() > 0 {
		// Headings absorbed into a prose block still carry the document
		// title; sniff the first line.
		row.Title = sniffTitle(m.Blocks()[0].RawText)
	}
	if row.Title == "" {
		row.Title = titleFromPath(path)
	}
	return db.UpsertNote(row, blockRows, links)
}

// sniffTitle extracts a title from a leading ATX heading or Org headline,
// dropping a trailing {#id} anchor.
func sniffTitle(raw string) string {
	line := raw
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))

	marker := byte(0)
	if len(line) > 0 && (line[0] == '#' || line[0] == '*') {
		marker = line[0]
	}
	if marker == 0 {
		return ""
	}
	n := 0
	for n < len(line) && line[n] == marker {
		n++
	}
	if n > 6 || n == len(line) || line[n] != ' ' {
		return ""
	}
	title := strings.TrimSpace(line[n:])
	if i := strings.Index(title, "{#"); i >= 0 {
		title = strings.TrimSpace(title[:i])
	}
	return title
}

// titleFromPath falls back to the file name without its extension.
func titleFromPath(path string) string {
	base := path
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	return base
}
