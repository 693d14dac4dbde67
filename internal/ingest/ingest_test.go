package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/foliolabs/folio/internal/engine"
	"github.com/foliolabs/folio/internal/home"
	"github.com/foliolabs/folio/internal/index"
	"github.com/foliolabs/folio/internal/model"
	"github.com/foliolabs/folio/internal/repo"
	"github.com/foliolabs/folio/internal/storage"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	h, err := home.New(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create home: %v", err)
	}
	return &Service{
		Repo:   repo.NewMemory(),
		Store:  storage.New(h),
		Index:  index.Noop{},
		Engine: engine.NewText(),
	}
}

func writeSource(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write source: %v", err)
	}
	return path
}

func TestSubmitRegistersBookAndJob(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	src := writeSource(t, "moby-dick.txt", "Call me Ishmael.")

	book, job, err := svc.Submit(ctx, Submission{Path: src, Title: "Moby Dick", Author: "Melville"})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if book.Status != model.BookStatusUploaded {
		t.Errorf("expected uploaded status, got %s", book.Status)
	}
	if book.FileMD5 == "" {
		t.Error("expected file checksum to be recorded")
	}
	if book.ParseVersion != "text-1" {
		t.Errorf("expected engine version recorded, got %s", book.ParseVersion)
	}
	if book.Language != "en" || book.Source != "local" {
		t.Errorf("defaults not applied: language=%s source=%s", book.Language, book.Source)
	}

	if job.BookID != book.ID {
		t.Errorf("job references book %s, want %s", job.BookID, book.ID)
	}
	if job.State != model.JobStateQueued || job.Phase != model.PhasePrecheck {
		t.Errorf("job not queued at precheck: %s/%s", job.State, job.Phase)
	}
	if job.CurrentPage != 0 {
		t.Errorf("expected checkpoint 0, got %d", job.CurrentPage)
	}

	// The original is copied into the store; the registration path is no
	// longer load-bearing.
	if _, err := os.Stat(book.OriginalFilePath); err != nil {
		t.Errorf("stored original missing: %v", err)
	}
	if book.OriginalFilePath == src {
		t.Error("book should reference the stored copy, not the registration path")
	}

	got, err := svc.Repo.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("job not persisted: %v", err)
	}
	if got.State != model.JobStateQueued {
		t.Errorf("persisted job state %s", got.State)
	}
}

func TestSubmitTitleDefaultsToFileName(t *testing.T) {
	svc := newTestService(t)
	src := writeSource(t, "walden.txt", "I went to the woods.")

	book, _, err := svc.Submit(context.Background(), Submission{Path: src})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if book.Title != "walden" {
		t.Errorf("expected title from file name, got %q", book.Title)
	}
}

func TestSubmitRejectsDuplicate(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	src := writeSource(t, "book.txt", "same content")

	if _, _, err := svc.Submit(ctx, Submission{Path: src, Title: "Book"}); err != nil {
		t.Fatalf("first Submit failed: %v", err)
	}
	_, _, err := svc.Submit(ctx, Submission{Path: src, Title: "Book"})
	if !errors.Is(err, ErrBookExists) {
		t.Errorf("expected ErrBookExists, got %v", err)
	}
}

func TestSubmitSameTitleDifferentContent(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	b1, _, err := svc.Submit(ctx, Submission{Path: writeSource(t, "a.txt", "first edition"), Title: "Book"})
	if err != nil {
		t.Fatalf("first Submit failed: %v", err)
	}
	b2, _, err := svc.Submit(ctx, Submission{Path: writeSource(t, "b.txt", "second edition"), Title: "Book"})
	if err != nil {
		t.Fatalf("second Submit failed: %v", err)
	}
	if b1.ID == b2.ID {
		t.Error("different content under the same title must produce distinct book ids")
	}
}

func TestSubmitMissingFile(t *testing.T) {
	svc := newTestService(t)
	if _, _, err := svc.Submit(context.Background(), Submission{Path: "/no/such/file.txt"}); err == nil {
		t.Error("expected error for missing source file")
	}
}

func TestCancelPurgesBookKeepsJob(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	src := writeSource(t, "book.txt", "cancel me")

	book, job, err := svc.Submit(ctx, Submission{Path: src, Title: "Book"})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if err := svc.Cancel(ctx, job.ID); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}

	// The job record survives as the audit trail.
	got, err := svc.Repo.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("job record should survive cancellation: %v", err)
	}
	if got.State != model.JobStateFailed {
		t.Errorf("expected FAILED, got %s", got.State)
	}
	if got.ErrorMessage != "cancelled by user" {
		t.Errorf("unexpected error message %q", got.ErrorMessage)
	}

	// The book and its artifacts are gone.
	if _, err := svc.Repo.GetBook(ctx, book.ID); !errors.Is(err, repo.ErrNotFound) {
		t.Errorf("expected book to be deleted, got %v", err)
	}
	if _, err := svc.Store.FindOriginal(book.ID); !errors.Is(err, storage.ErrOriginalNotFound) {
		t.Errorf("expected stored artifacts to be deleted, got %v", err)
	}
}

func TestCancelUnknownJob(t *testing.T) {
	svc := newTestService(t)
	if err := svc.Cancel(context.Background(), "no-such-job"); !errors.Is(err, repo.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
