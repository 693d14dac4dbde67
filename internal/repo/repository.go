// Package repo defines the persistence contract for books, parse jobs, and
// parsed content, plus an in-memory reference implementation and a durable
// SQLite implementation.
//
// Every save/upsert operation is insert-or-replace by primary key, never
// insert-or-fail: calling any of them repeatedly with the same derived
// identifiers is safe and leaves exactly one record with the latest values.
package repo

import (
	"context"
	"errors"

	"github.com/foliolabs/folio/internal/model"
)

// ErrNotFound is returned when a book, job, or page lookup misses.
var ErrNotFound = errors.New("not found")

// Repository is the persistence boundary for the ingestion pipeline.
type Repository interface {
	// Book operations
	GetBook(ctx context.Context, bookID string) (*model.Book, error)
	SaveBook(ctx context.Context, book *model.Book) error
	UpdateBookStatus(ctx context.Context, bookID string, status model.BookStatus, pageCount *int) error
	ListBooks(ctx context.Context) ([]model.Book, error)

	// Parse job operations
	GetJob(ctx context.Context, jobID string) (*model.ParseJob, error)
	SaveJob(ctx context.Context, job *model.ParseJob) error
	// UpdateJob applies a partial update; only non-nil fields change.
	UpdateJob(ctx context.Context, jobID string, upd model.JobUpdate) error

	// Content ingestion
	UpsertPages(ctx context.Context, pages []model.Page) error
	UpsertSections(ctx context.Context, sections []model.Section) error
	UpsertBlocks(ctx context.Context, blocks []model.Block) error
	UpsertAssets(ctx context.Context, assets []model.Asset) error

	// Content retrieval
	GetPage(ctx context.Context, bookID string, pageNumber int) (*model.Page, error)
	// ListBlocksForBook returns all blocks for a book ordered by page number
	// then reading order.
	ListBlocksForBook(ctx context.Context, bookID string) ([]model.Block, error)
	// ListBlocksForPage returns the blocks on one page in reading order.
	// Returns ErrNotFound if the page is unknown.
	ListBlocksForPage(ctx context.Context, bookID string, pageNumber int) ([]model.Block, error)

	// DeleteBookContent removes the book record and all of its pages,
	// sections, blocks, and assets. Job records survive as the audit trail.
	DeleteBookContent(ctx context.Context, bookID string) error

	Close() error
}
