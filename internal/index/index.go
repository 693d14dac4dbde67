// Package index maps a book's text blocks into a queryable full-text index.
package index

import (
	"context"

	"github.com/foliolabs/folio/internal/model"
)

// Hit is one ranked search result.
type Hit struct {
	BlockID      string `json:"block_id"`
	BookID       string `json:"book_id"`
	PageID       string `json:"page_id"`
	ReadingOrder int    `json:"reading_order"`
	Text         string `json:"text"`
}

// Index is the search-index contract. IndexBook must delete any prior
// entries for the book before adding new ones so re-indexing is idempotent.
type Index interface {
	IndexBook(ctx context.Context, bookID string, blocks []model.Block) error
	DeleteBook(ctx context.Context, bookID string) error
	Search(ctx context.Context, query string, limit int) ([]Hit, error)
	// SearchBook restricts matches to a single book.
	SearchBook(ctx context.Context, bookID, query string, limit int) ([]Hit, error)
	Close() error
}

// Noop is an Index that indexes nothing and finds nothing. It keeps the
// pipeline wired when search is disabled.
type Noop struct{}

var _ Index = Noop{}

func (Noop) IndexBook(context.Context, string, []model.Block) error { return nil }
func (Noop) DeleteBook(context.Context, string) error               { return nil }
func (Noop) Search(context.Context, string, int) ([]Hit, error)     { return nil, nil }
func (Noop) SearchBook(context.Context, string, string, int) ([]Hit, error) {
	return nil, nil
}
func (Noop) Close() error { return nil }
