package home

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNew(t *testing.T) {
	t.Run("with explicit path", func(t *testing.T) {
		dir, err := New("/tmp/test-folio")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if dir.Path() != "/tmp/test-folio" {
			t.Errorf("expected path /tmp/test-folio, got %s", dir.Path())
		}
	})

	t.Run("with empty path uses default", func(t *testing.T) {
		dir, err := New("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		home, _ := os.UserHomeDir()
		expected := filepath.Join(home, DefaultDirName)
		if dir.Path() != expected {
			t.Errorf("expected path %s, got %s", expected, dir.Path())
		}
	})
}

func TestDir_Paths(t *testing.T) {
	dir, _ := New("/tmp/test-folio")

	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"BooksPath", dir.BooksPath(), "/tmp/test-folio/books"},
		{"IndexPath", dir.IndexPath(), "/tmp/test-folio/index.bleve"},
		{"DatabasePath", dir.DatabasePath(), "/tmp/test-folio/folio.db"},
		{"ConfigPath", dir.ConfigPath(), "/tmp/test-folio/config.yaml"},
		{"BookDir", dir.BookDir("bk"), "/tmp/test-folio/books/bk"},
		{"BookPagesDir", dir.BookPagesDir("bk"), "/tmp/test-folio/books/bk/pages"},
		{"BookAssetsDir", dir.BookAssetsDir("bk"), "/tmp/test-folio/books/bk/assets"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, tt.got)
			}
		})
	}
}

func TestDir_EnsureExists(t *testing.T) {
	tmpDir := t.TempDir()
	folioDir := filepath.Join(tmpDir, "folio-test")

	dir, err := New(folioDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if dir.Exists() {
		t.Fatal("directory should not exist yet")
	}
	if err := dir.EnsureExists(); err != nil {
		t.Fatalf("EnsureExists: %v", err)
	}
	if !dir.Exists() {
		t.Error("directory should exist")
	}
	if _, err := os.Stat(dir.BooksPath()); err != nil {
		t.Errorf("books directory missing: %v", err)
	}
}
