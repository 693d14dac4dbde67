package home

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default name for the folio home directory.
	DefaultDirName = ".folio"

	// BooksDirName is the subdirectory for book artifacts.
	BooksDirName = "books"

	// IndexDirName is the subdirectory holding the search index.
	IndexDirName = "index.bleve"

	// DatabaseFileName is the SQLite database file name.
	DatabaseFileName = "folio.db"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"
)

// Dir represents the folio home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.folio).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// BooksPath returns the path to the books directory.
func (d *Dir) BooksPath() string {
	return filepath.Join(d.path, BooksDirName)
}

// IndexPath returns the path to the search index directory.
func (d *Dir) IndexPath() string {
	return filepath.Join(d.path, IndexDirName)
}

// DatabasePath returns the path to the SQLite database file.
func (d *Dir) DatabasePath() string {
	return filepath.Join(d.path, DatabaseFileName)
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// EnsureExists creates the home directory and subdirectories if they don't exist.
func (d *Dir) EnsureExists() error {
	if err := os.MkdirAll(d.BooksPath(), 0o755); err != nil {
		return fmt.Errorf("failed to create books directory: %w", err)
	}
	return nil
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}

// BookDir returns the artifact directory for a book.
func (d *Dir) BookDir(bookID string) string {
	return filepath.Join(d.BooksPath(), bookID)
}

// BookPagesDir returns the rendered-pages directory for a book.
func (d *Dir) BookPagesDir(bookID string) string {
	return filepath.Join(d.BookDir(bookID), "pages")
}

// BookAssetsDir returns the extracted-assets directory for a book.
func (d *Dir) BookAssetsDir(bookID string) string {
	return filepath.Join(d.BookDir(bookID), "assets")
}
