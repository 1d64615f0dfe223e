package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/noteservice"
	"github.com/starford/ansuz/internal/storage"
)

// testEnv sets up a temp vault, SQLite DB, service, and router for testing.
// An empty authToken means disabled mode.
func testEnv(t *testing.T, authToken string) (*noteservice.Service, http.Handler) {
	t.Helper()

	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}

	dbFile, err := os.CreateTemp("", "ansuz-api-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	svc := noteservice.NewService(store, db)
	router := NewRouter(svc, authToken != "", authToken, nil)
	return svc, router
}

func doJSON(t *testing.T, router http.Handler, method, target string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		rdr = bytes.NewReader(raw)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, rdr)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateAndGetNote(t *testing.T) {
	_, router := testEnv(t, "")

	w := doJSON(t, router, http.MethodPost, "/notes",
		map[string]string{"path": "hello.md", "content": "# Hello\nWorld\n"}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodGet, "/notes/hello.md", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	var note NoteDetail
	_ = json.Unmarshal(w.Body.Bytes(), &note)
	if note.Path != "hello.md" {
		t.Errorf("path = %q", note.Path)
	}
	if note.Title != "Hello" {
		t.Errorf("title = %q, want Hello", note.Title)
	}
	if len(note.Blocks) == 0 {
		t.Error("expected parsed blocks in detail response")
	}
}

func TestCreateDuplicate(t *testing.T) {
	_, router := testEnv(t, "")

	body := map[string]string{"path": "dup.md", "content": "a"}
	if w := doJSON(t, router, http.MethodPost, "/notes", body, nil); w.Code != http.StatusCreated {
		t.Fatalf("first create = %d", w.Code)
	}
	if w := doJSON(t, router, http.MethodPost, "/notes", body, nil); w.Code != http.StatusConflict {
		t.Errorf("duplicate create = %d, want 409", w.Code)
	}
}

func TestUpdateWithOptimisticLocking(t *testing.T) {
	_, router := testEnv(t, "")

	w := doJSON(t, router, http.MethodPost, "/notes",
		map[string]string{"path": "lock.md", "content": "v1"}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d", w.Code)
	}
	var created NoteDetail
	_ = json.Unmarshal(w.Body.Bytes(), &created)

	update := map[string]string{"content": "v2"}
	w = doJSON(t, router, http.MethodPut, "/notes/lock.md", update,
		map[string]string{"If-Match": created.Checksum})
	if w.Code != http.StatusOK {
		t.Fatalf("update with correct checksum = %d, body = %s", w.Code, w.Body.String())
	}

	// Same checksum is stale now.
	w = doJSON(t, router, http.MethodPut, "/notes/lock.md", update,
		map[string]string{"If-Match": created.Checksum})
	if w.Code != http.StatusConflict {
		t.Errorf("update with stale checksum = %d, want 409", w.Code)
	}
}

func TestDeleteNote(t *testing.T) {
	_, router := testEnv(t, "")

	doJSON(t, router, http.MethodPost, "/notes",
		map[string]string{"path": "gone.md", "content": "bye"}, nil)

	if w := doJSON(t, router, http.MethodDelete, "/notes/gone.md", nil, nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete = %d", w.Code)
	}
	if w := doJSON(t, router, http.MethodGet, "/notes/gone.md", nil, nil); w.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", w.Code)
	}
}

func TestEditBlock_UpdateAndRender(t *testing.T) {
	_, router := testEnv(t, "")

	content := "intro\n```go\nx := 1\n```\noutro\n"
	w := doJSON(t, router, http.MethodPost, "/notes",
		map[string]string{"path": "code.md", "content": content}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d", w.Code)
	}

	w = doJSON(t, router, http.MethodPost, "/blocks/code.md",
		map[string]any{"op": "update", "index": 1, "text": "```go\nx := 2\n```\n"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("edit = %d, body = %s", w.Code, w.Body.String())
	}
	var note NoteDetail
	_ = json.Unmarshal(w.Body.Bytes(), &note)
	if note.Content != "intro\n```go\nx := 2\n```\noutro\n" {
		t.Errorf("content = %q", note.Content)
	}
	if len(note.Blocks) != 3 {
		t.Fatalf("blocks = %d, want 3", len(note.Blocks))
	}
	if note.Blocks[1].Dirty {
		t.Error("updated block should be written back clean")
	}
}

func TestEditBlock_IndexOutOfRange(t *testing.T) {
	_, router := testEnv(t, "")

	doJSON(t, router, http.MethodPost, "/notes",
		map[string]string{"path": "small.md", "content": "only\n"}, nil)

	w := doJSON(t, router, http.MethodPost, "/blocks/small.md",
		map[string]any{"op": "remove", "index": 5}, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("out-of-range edit = %d, want 400", w.Code)
	}
}

func TestEditBlock_UnknownOp(t *testing.T) {
	_, router := testEnv(t, "")

	doJSON(t, router, http.MethodPost, "/notes",
		map[string]string{"path": "op.md", "content": "x\n"}, nil)

	w := doJSON(t, router, http.MethodPost, "/blocks/op.md",
		map[string]any{"op": "transmogrify", "index": 0}, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown op = %d, want 400", w.Code)
	}
}

func TestOutlineAndTodos(t *testing.T) {
	_, router := testEnv(t, "")

	doJSON(t, router, http.MethodPost, "/notes",
		map[string]string{"path": "tasks.org", "content": "* TODO Write tests\n"}, nil)

	w := doJSON(t, router, http.MethodGet, "/todos?state=TODO", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("todos = %d", w.Code)
	}
	var todoResp struct {
		Todos []index.TodoEntry `json:"todos"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &todoResp)
	if len(todoResp.Todos) != 1 || todoResp.Todos[0].Title != "Write tests" {
		t.Errorf("todos = %+v", todoResp.Todos)
	}

	w = doJSON(t, router, http.MethodGet, "/outline?path=tasks.org", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("outline = %d", w.Code)
	}
	var outResp struct {
		Outline []index.OutlineEntry `json:"outline"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &outResp)
	if len(outResp.Outline) != 1 || outResp.Outline[0].Level != 1 {
		t.Errorf("outline = %+v", outResp.Outline)
	}
}

func TestSearchEndpoint(t *testing.T) {
	_, router := testEnv(t, "")

	doJSON(t, router, http.MethodPost, "/notes",
		map[string]string{"path": "s.md", "content": "xylophone lessons\n"}, nil)

	w := doJSON(t, router, http.MethodGet, "/search?q=xylophone", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("search = %d", w.Code)
	}
	var resp struct {
		Results []index.SearchResult `json:"results"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Results) != 1 || resp.Results[0].Path != "s.md" {
		t.Errorf("results = %+v", resp.Results)
	}

	if w := doJSON(t, router, http.MethodGet, "/search", nil, nil); w.Code != http.StatusBadRequest {
		t.Errorf("missing q = %d, want 400", w.Code)
	}
}

func TestGraphEndpoint(t *testing.T) {
	_, router := testEnv(t, "")

	doJSON(t, router, http.MethodPost, "/notes",
		map[string]string{"path": "a.md", "content": "links to [[b.md]]\n"}, nil)

	w := doJSON(t, router, http.MethodGet, "/graph", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("graph = %d", w.Code)
	}
	var resp GraphResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Links) != 1 || resp.Links[0].Target != "b.md" {
		t.Errorf("links = %+v", resp.Links)
	}
}

func TestAuthMiddleware(t *testing.T) {
	_, router := testEnv(t, "sekrit")

	if w := doJSON(t, router, http.MethodGet, "/notes", nil, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("no token = %d, want 401", w.Code)
	}
	if w := doJSON(t, router, http.MethodGet, "/notes", nil,
		map[string]string{"Authorization": "Bearer wrong"}); w.Code != http.StatusUnauthorized {
		t.Errorf("bad token = %d, want 401", w.Code)
	}
	if w := doJSON(t, router, http.MethodGet, "/notes", nil,
		map[string]string{"Authorization": "Bearer sekrit"}); w.Code != http.StatusOK {
		t.Errorf("good token = %d, want 200", w.Code)
	}
}
