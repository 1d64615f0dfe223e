package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestFS(t *testing.T) (*FS, string) {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return fs, dir
}

func TestWriteReadDelete(t *testing.T) {
	fs, _ := newTestFS(t)
	if err := fs.Write("notes/a.md", []byte("# A\n")); err != nil {
		t.Fatal(err)
	}
	data, err := fs.Read("notes/a.md")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "# A\n" {
		t.Errorf("data = %q", data)
	}
	if err := fs.Delete("notes/a.md"); err != nil {
		t.Fatal(err)
	}
	if _, err := fs.Read("notes/a.md"); err == nil {
		t.Error("expected read error after delete")
	}
}

func TestList_DocumentExtensions(t *testing.T) {
	fs, dir := newTestFS(t)
	for _, p := range []string{"a.md", "b.org", "c.tex", "ignore.txt"} {
		if err := os.WriteFile(filepath.Join(dir, p), []byte("x\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	infos, err := fs.List("")
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 3 {
		t.Errorf("listed %d files, want 3 (md, org, tex)", len(infos))
	}
	for _, info := range infos {
		if info.Checksum == "" {
			t.Errorf("missing checksum for %s", info.Path)
		}
	}
}

func TestSafePath_RejectsTraversal(t *testing.T) {
	fs, _ := newTestFS(t)
	if _, err := fs.Read("../outside.md"); err == nil {
		t.Error("expected traversal rejection")
	}
	if err := fs.Write("/abs/path.md", []byte("x")); err == nil {
		t.Error("expected absolute path rejection")
	}
}

func TestMove(t *testing.T) {
	fs, _ := newTestFS(t)
	if err := fs.Write("a.org", []byte("* A\n")); err != nil {
		t.Fatal(err)
	}
	if err := fs.Move("a.org", "sub/b.org"); err != nil {
		t.Fatal(err)
	}
	if _, err := fs.Read("a.org"); err == nil {
		t.Error("old path should be gone")
	}
	data, err := fs.Read("sub/b.org")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "* A\n" {
		t.Errorf("data = %q", data)
	}
}
