package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/foliolabs/folio/internal/home"
	"github.com/foliolabs/folio/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	h, err := home.New(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create home dir: %v", err)
	}
	return New(h)
}

func TestSaveAndFindOriginal(t *testing.T) {
	s := newTestStore(t)

	src := filepath.Join(t.TempDir(), "book.pdf")
	if err := os.WriteFile(src, []byte("%PDF-1.4 test"), 0o644); err != nil {
		t.Fatalf("failed to write source: %v", err)
	}

	stored, err := s.SaveOriginal("bk1", src)
	if err != nil {
		t.Fatalf("SaveOriginal failed: %v", err)
	}
	if filepath.Base(stored) != "original.pdf" {
		t.Errorf("expected original.pdf, got %s", filepath.Base(stored))
	}

	data, err := os.ReadFile(stored)
	if err != nil {
		t.Fatalf("failed to read stored original: %v", err)
	}
	if string(data) != "%PDF-1.4 test" {
		t.Errorf("stored content mismatch: %q", data)
	}

	found, err := s.FindOriginal("bk1")
	if err != nil {
		t.Fatalf("FindOriginal failed: %v", err)
	}
	if found != stored {
		t.Errorf("FindOriginal returned %s, expected %s", found, stored)
	}
}

func TestFindOriginalMissing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.FindOriginal("no-such-book")
	if !errors.Is(err, ErrOriginalNotFound) {
		t.Errorf("expected ErrOriginalNotFound, got %v", err)
	}
}

func TestWriteAssetImage(t *testing.T) {
	s := newTestStore(t)

	path, err := s.WriteAssetImage("bk1", "bk1-asset-img1", []byte{0x89, 0x50, 0x4e, 0x47})
	if err != nil {
		t.Fatalf("WriteAssetImage failed: %v", err)
	}
	if path != s.AssetPath("bk1", "bk1-asset-img1") {
		t.Errorf("unexpected asset path %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read asset: %v", err)
	}
	if len(data) != 4 {
		t.Errorf("expected 4 bytes, got %d", len(data))
	}
}

func TestWriteEngineOutput(t *testing.T) {
	s := newTestStore(t)

	doc := &model.ParsedDocument{
		EngineVersion: "test-1.0",
		Pages:         []model.ParsedPage{{PageNumber: 1, Width: 612, Height: 792}},
	}
	path, err := s.WriteEngineOutput("bk1", doc)
	if err != nil {
		t.Fatalf("WriteEngineOutput failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read engine output: %v", err)
	}
	if len(data) == 0 {
		t.Error("engine output is empty")
	}
}

func TestDeleteBook(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.WriteAssetImage("bk1", "bk1-asset-a", []byte("x")); err != nil {
		t.Fatalf("WriteAssetImage failed: %v", err)
	}
	if err := s.DeleteBook("bk1"); err != nil {
		t.Fatalf("DeleteBook failed: %v", err)
	}
	if _, err := s.FindOriginal("bk1"); !errors.Is(err, ErrOriginalNotFound) {
		t.Errorf("expected ErrOriginalNotFound after delete, got %v", err)
	}

	// Deleting a book that has no artifacts is not an error.
	if err := s.DeleteBook("never-existed"); err != nil {
		t.Errorf("DeleteBook on missing book failed: %v", err)
	}
}
