package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/foliolabs/folio/internal/engine"
	"github.com/foliolabs/folio/internal/home"
	"github.com/foliolabs/folio/internal/index"
	"github.com/foliolabs/folio/internal/ingest"
	"github.com/foliolabs/folio/internal/jobs"
	"github.com/foliolabs/folio/internal/model"
	"github.com/foliolabs/folio/internal/pipeline"
	"github.com/foliolabs/folio/internal/repo"
	"github.com/foliolabs/folio/internal/server/endpoints"
	"github.com/foliolabs/folio/internal/storage"
	"github.com/foliolabs/folio/internal/svcctx"
)

type testServer struct {
	handler  http.Handler
	services *svcctx.Services
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h, err := home.New(t.TempDir())
	if err != nil {
		t.Fatalf("home.New: %v", err)
	}
	if err := h.EnsureExists(); err != nil {
		t.Fatalf("EnsureExists: %v", err)
	}

	idx, err := index.NewBleve(h.IndexPath())
	if err != nil {
		t.Fatalf("NewBleve: %v", err)
	}
	t.Cleanup(func() { idx.Close() })

	rp := repo.NewMemory()
	store := storage.New(h)
	eng := engine.NewText()

	pl := &pipeline.Pipeline{Repo: rp, Store: store, Engine: eng, Index: idx, Logger: logger}
	runner := jobs.NewRunner(pl, rp, logger)
	ing := &ingest.Service{Repo: rp, Store: store, Index: idx, Engine: eng, Logger: logger}

	services := &svcctx.Services{
		Repo:   rp,
		Store:  store,
		Index:  idx,
		Engine: eng,
		Runner: runner,
		Ingest: ing,
		Logger: logger,
		Home:   h,
	}

	srv, err := New(Config{Port: "0", Services: services, Logger: logger})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(runner.Shutdown)

	return &testServer{handler: srv.Handler(), services: services}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		buf = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, buf)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

// submitAndWait registers a text file and blocks until its parse job ends.
func submitAndWait(t *testing.T, ts *testServer, content, title string) endpoints.SubmitResponse {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	rec := ts.do(t, http.MethodPost, "/documents", endpoints.SubmitRequest{Path: path, Title: title})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("submit status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody[endpoints.SubmitResponse](t, rec)
	ts.services.Runner.Wait(resp.JobID)
	return resp
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decodeBody[endpoints.HealthResponse](t, rec)
	if resp.Status != "ok" {
		t.Errorf("status = %q, want ok", resp.Status)
	}
}

func TestSubmitRunsJobToCompletion(t *testing.T) {
	ts := newTestServer(t)
	sub := submitAndWait(t, ts, "First paragraph about whales.\nSecond paragraph about ships.\n", "Moby")

	rec := ts.do(t, http.MethodGet, "/jobs/"+sub.JobID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get job status = %d", rec.Code)
	}
	job := decodeBody[model.ParseJob](t, rec)
	if job.State != model.JobStateCompleted {
		t.Fatalf("job state = %s, want completed (error: %s)", job.State, job.ErrorMessage)
	}
	if job.Phase != model.PhaseIndexing {
		t.Errorf("job phase = %s, want indexing", job.Phase)
	}

	rec = ts.do(t, http.MethodGet, "/documents/"+sub.BookID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get book status = %d", rec.Code)
	}
	book := decodeBody[model.Book](t, rec)
	if book.Status != model.BookStatusParsed {
		t.Errorf("book status = %s, want parsed", book.Status)
	}
	if book.Title != "Moby" {
		t.Errorf("title = %q", book.Title)
	}
}

func TestSubmitValidation(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/documents", map[string]any{"bogus": true})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown field: status = %d, want 400", rec.Code)
	}

	rec = ts.do(t, http.MethodPost, "/documents", endpoints.SubmitRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty path: status = %d, want 400", rec.Code)
	}

	rec = ts.do(t, http.MethodPost, "/documents", endpoints.SubmitRequest{Path: filepath.Join(t.TempDir(), "missing.txt")})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing file: status = %d, want 400", rec.Code)
	}
}

func TestSubmitDuplicateConflicts(t *testing.T) {
	ts := newTestServer(t)

	path := filepath.Join(t.TempDir(), "dup.txt")
	if err := os.WriteFile(path, []byte("Same bytes.\n"), 0o644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	req := endpoints.SubmitRequest{Path: path, Title: "Dup"}

	rec := ts.do(t, http.MethodPost, "/documents", req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("first submit status = %d", rec.Code)
	}
	first := decodeBody[endpoints.SubmitResponse](t, rec)
	ts.services.Runner.Wait(first.JobID)

	rec = ts.do(t, http.MethodPost, "/documents", req)
	if rec.Code != http.StatusConflict {
		t.Errorf("second submit status = %d, want 409", rec.Code)
	}
}

func TestListDocuments(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/documents", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := decodeBody[[]model.Book](t, rec); len(got) != 0 {
		t.Errorf("expected empty list, got %d", len(got))
	}

	submitAndWait(t, ts, "Some text.\n", "One")

	rec = ts.do(t, http.MethodGet, "/documents", nil)
	books := decodeBody[[]model.Book](t, rec)
	if len(books) != 1 {
		t.Fatalf("books = %d, want 1", len(books))
	}
}

func TestGetDocumentNotFound(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/documents/nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestParsedPage(t *testing.T) {
	ts := newTestServer(t)
	sub := submitAndWait(t, ts, "Alpha paragraph.\nBeta paragraph.\nGamma paragraph.\n", "Pages")

	rec := ts.do(t, http.MethodGet, "/documents/"+sub.BookID+"/pages/1/parsed", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	page := decodeBody[endpoints.ParsedPageResponse](t, rec)
	if page.Page != 1 {
		t.Errorf("page = %d", page.Page)
	}
	if len(page.Blocks) != 3 {
		t.Fatalf("blocks = %d, want 3", len(page.Blocks))
	}
	for i, blk := range page.Blocks {
		if blk.ReadingOrder != i {
			t.Errorf("block %d reading order = %d", i, blk.ReadingOrder)
		}
	}
	if page.Blocks[0].Text != "Alpha paragraph." {
		t.Errorf("first block text = %q", page.Blocks[0].Text)
	}

	rec = ts.do(t, http.MethodGet, "/documents/"+sub.BookID+"/pages/abc/parsed", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("non-integer page: status = %d, want 400", rec.Code)
	}

	rec = ts.do(t, http.MethodGet, "/documents/"+sub.BookID+"/pages/99/parsed", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown page: status = %d, want 404", rec.Code)
	}
}

func TestDocumentSearch(t *testing.T) {
	ts := newTestServer(t)
	sub := submitAndWait(t, ts, "The whale surfaced at dawn.\nThe ship turned south.\n", "Search")

	rec := ts.do(t, http.MethodGet, "/documents/"+sub.BookID+"/search?query=whale", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody[endpoints.SearchResponse](t, rec)
	if len(resp.Hits) != 1 {
		t.Fatalf("hits = %d, want 1", len(resp.Hits))
	}
	if resp.Hits[0].PageNumber != 1 {
		t.Errorf("page number = %d, want 1", resp.Hits[0].PageNumber)
	}

	rec = ts.do(t, http.MethodGet, "/documents/"+sub.BookID+"/search?query=", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty query: status = %d, want 400", rec.Code)
	}

	rec = ts.do(t, http.MethodGet, "/documents/"+sub.BookID+"/search?query=whale&limit=zero", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad limit: status = %d, want 400", rec.Code)
	}

	rec = ts.do(t, http.MethodGet, "/documents/nope/search?query=whale", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown book: status = %d, want 404", rec.Code)
	}
}

func TestJobControlErrors(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/jobs/nope/pause", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("pause unknown: status = %d, want 404", rec.Code)
	}

	rec = ts.do(t, http.MethodGet, "/jobs/nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get unknown: status = %d, want 404", rec.Code)
	}

	sub := submitAndWait(t, ts, "Done already.\n", "Done")

	rec = ts.do(t, http.MethodPost, "/jobs/"+sub.JobID+"/pause", nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("pause completed: status = %d, want 409", rec.Code)
	}

	rec = ts.do(t, http.MethodPost, "/jobs/"+sub.JobID+"/resume", nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("resume completed: status = %d, want 409", rec.Code)
	}
}

func TestJobCancelPurgesBook(t *testing.T) {
	ts := newTestServer(t)
	sub := submitAndWait(t, ts, "Soon to be gone.\n", "Gone")

	rec := ts.do(t, http.MethodPost, "/jobs/"+sub.JobID+"/cancel", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody[endpoints.JobActionResponse](t, rec)
	if resp.BookID != sub.BookID {
		t.Errorf("book id = %q, want %q", resp.BookID, sub.BookID)
	}

	rec = ts.do(t, http.MethodGet, "/documents/"+sub.BookID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("book after cancel: status = %d, want 404", rec.Code)
	}

	rec = ts.do(t, http.MethodGet, "/jobs/"+sub.JobID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("job after cancel: status = %d", rec.Code)
	}
	job := decodeBody[model.ParseJob](t, rec)
	if job.State != model.JobStateFailed {
		t.Errorf("job state = %s, want failed", job.State)
	}
}
