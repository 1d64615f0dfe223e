package noteservice

import (
	"context"
	"errors"
	"testing"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/testutil"
)

func testService(t *testing.T) *Service {
	t.Helper()
	_, store := testutil.TestVault(t)
	db := testutil.TestDB(t)
	return NewService(store, db)
}

func TestCreateGetDelete(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	detail, err := svc.CreateNote(ctx, "note.md", []byte("# Title\n\nbody text\n"))
	if err != nil {
		t.Fatalf("CreateNote: %v", err)
	}
	if detail.Title != "Title" {
		t.Errorf("title = %q", detail.Title)
	}
	if len(detail.Blocks) != 1 {
		t.Errorf("blocks = %d, want 1 prose block", len(detail.Blocks))
	}

	if _, err := svc.CreateNote(ctx, "note.md", []byte("again")); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("duplicate create err = %v", err)
	}

	got, err := svc.GetNote(ctx, "note.md")
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if got.Content != "# Title\n\nbody text\n" {
		t.Errorf("content = %q", got.Content)
	}

	if err := svc.DeleteNote(ctx, "note.md"); err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}
	if _, err := svc.GetNote(ctx, "note.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("get after delete err = %v", err)
	}
}

func TestUpdateChecksumConflict(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	created, err := svc.CreateNote(ctx, "c.md", []byte("v1\n"))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.UpdateNote(ctx, "c.md", []byte("v2\n"), created.Checksum); err != nil {
		t.Fatalf("update with fresh checksum: %v", err)
	}
	if _, err := svc.UpdateNote(ctx, "c.md", []byte("v3\n"), created.Checksum); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("stale checksum err = %v", err)
	}
	if _, err := svc.UpdateNote(ctx, "missing.md", []byte("x"), ""); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing path err = %v", err)
	}
}

func TestEditBlock_RoundTrip(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	content := "before\n$$a+b$$\nafter\n"
	if _, err := svc.CreateNote(ctx, "math.md", []byte(content)); err != nil {
		t.Fatal(err)
	}

	detail, err := svc.EditBlock(ctx, "math.md",
		BlockEdit{Op: "update", Index: 1, Text: "$$a-b$$\n"}, "")
	if err != nil {
		t.Fatalf("EditBlock: %v", err)
	}
	if detail.Content != "before\n$$a-b$$\nafter\n" {
		t.Errorf("content = %q", detail.Content)
	}

	// Remove the math block; surrounding prose must be untouched.
	detail, err = svc.EditBlock(ctx, "math.md", BlockEdit{Op: "remove", Index: 1}, "")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if detail.Content != "before\nafter\n" {
		t.Errorf("content after remove = %q", detail.Content)
	}
}

func TestEditBlock_InsertWithSyntax(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	if _, err := svc.CreateNote(ctx, "i.md", []byte("prose\n")); err != nil {
		t.Fatal(err)
	}

	detail, err := svc.EditBlock(ctx, "i.md",
		BlockEdit{Op: "insert", Index: 1, Syntax: "code", Text: "```go\nx := 1\n```\n"}, "")
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if detail.Content != "prose\n```go\nx := 1\n```\n" {
		t.Errorf("content = %q", detail.Content)
	}
	if len(detail.Blocks) != 2 {
		t.Fatalf("blocks = %d, want 2", len(detail.Blocks))
	}
	if detail.Blocks[1].Syntax != "code(go)" {
		t.Errorf("inserted block syntax = %q, want code(go)", detail.Blocks[1].Syntax)
	}
}

func TestEditBlock_Errors(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	if _, err := svc.CreateNote(ctx, "e.md", []byte("x\n")); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.EditBlock(ctx, "e.md", BlockEdit{Op: "remove", Index: 9}, ""); !errors.Is(err, apperr.ErrIndexOutOfRange) {
		t.Errorf("out of range err = %v", err)
	}
	if _, err := svc.EditBlock(ctx, "e.md", BlockEdit{Op: "frobnicate", Index: 0}, ""); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("unknown op err = %v", err)
	}
	if _, err := svc.EditBlock(ctx, "e.md", BlockEdit{Op: "update", Index: 0, Text: "y\n"}, "wrong"); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("bad checksum err = %v", err)
	}
	if _, err := svc.EditBlock(ctx, "missing.md", BlockEdit{Op: "update", Index: 0, Text: "y\n"}, ""); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing path err = %v", err)
	}
}

func TestEditBlock_EventHook(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	if _, err := svc.CreateNote(ctx, "h.md", []byte("x\n")); err != nil {
		t.Fatal(err)
	}

	var gotPath, gotOp string
	var gotIndex int
	svc.OnBlockEdit(func(path, op string, index int) {
		gotPath, gotOp, gotIndex = path, op, index
	})

	if _, err := svc.EditBlock(ctx, "h.md", BlockEdit{Op: "update", Index: 0, Text: "y\n"}, ""); err != nil {
		t.Fatal(err)
	}
	if gotPath != "h.md" || gotOp != "update" || gotIndex != 0 {
		t.Errorf("hook got (%q, %q, %d)", gotPath, gotOp, gotIndex)
	}
}
