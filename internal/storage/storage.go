// Package storage manages the filesystem layout for original source files,
// rendered page images, and extracted asset images. It is pure side-effecting
// I/O with no business logic.
package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/foliolabs/folio/internal/home"
	"github.com/foliolabs/folio/internal/model"
)

// ErrOriginalNotFound is returned when a book has no stored original file.
var ErrOriginalNotFound = fmt.Errorf("original file not found")

// Store manages book artifacts under the home directory:
//
//	<home>/books/<bookID>/original.<ext>
//	<home>/books/<bookID>/pages/<n>.png
//	<home>/books/<bookID>/assets/<assetID>.png
//	<home>/books/<bookID>/engine_output.json
type Store struct {
	home *home.Dir
}

// New creates a Store over the given home directory.
func New(h *home.Dir) *Store {
	return &Store{home: h}
}

// EnsureLayout creates the artifact directories for a book.
func (s *Store) EnsureLayout(bookID string) error {
	for _, dir := range []string{
		s.home.BookPagesDir(bookID),
		s.home.BookAssetsDir(bookID),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// OriginalPath returns the path where a book's original file is stored.
// The extension is preserved from the source file.
func (s *Store) OriginalPath(bookID, ext string) string {
	if ext == "" {
		ext = ".pdf"
	}
	return filepath.Join(s.home.BookDir(bookID), "original"+ext)
}

// AssetPath returns the path for an extracted asset image.
func (s *Store) AssetPath(bookID, assetID string) string {
	return filepath.Join(s.home.BookAssetsDir(bookID), assetID+".png")
}

// EngineOutputPath returns the path for the persisted engine output.
func (s *Store) EngineOutputPath(bookID string) string {
	return filepath.Join(s.home.BookDir(bookID), "engine_output.json")
}

// SaveOriginal copies the source file into the book's artifact directory
// and returns the stored path.
func (s *Store) SaveOriginal(bookID, sourcePath string) (string, error) {
	if err := s.EnsureLayout(bookID); err != nil {
		return "", err
	}

	src, err := os.Open(sourcePath)
	if err != nil {
		return "", fmt.Errorf("failed to open source file: %w", err)
	}
	defer src.Close()

	target := s.OriginalPath(bookID, filepath.Ext(sourcePath))
	dst, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", target, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to copy original: %w", err)
	}
	return target, nil
}

// FindOriginal returns the stored original path for the book, or
// ErrOriginalNotFound if none exists.
func (s *Store) FindOriginal(bookID string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(s.home.BookDir(bookID), "original.*"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", ErrOriginalNotFound
	}
	return matches[0], nil
}

// WriteAssetImage writes inline asset bytes and returns the stored path.
func (s *Store) WriteAssetImage(bookID, assetID string, data []byte) (string, error) {
	if err := s.EnsureLayout(bookID); err != nil {
		return "", err
	}
	target := s.AssetPath(bookID, assetID)
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write asset image: %w", err)
	}
	return target, nil
}

// WriteEngineOutput persists the engine's parsed document as JSON so a parse
// can be inspected or replayed without re-running the engine.
func (s *Store) WriteEngineOutput(bookID string, doc *model.ParsedDocument) (string, error) {
	if err := s.EnsureLayout(bookID); err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal engine output: %w", err)
	}
	target := s.EngineOutputPath(bookID)
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write engine output: %w", err)
	}
	return target, nil
}

// DeleteBook removes every stored artifact for the book.
func (s *Store) DeleteBook(bookID string) error {
	return os.RemoveAll(s.home.BookDir(bookID))
}
