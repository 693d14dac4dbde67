// Package ingest handles document submission and cancellation: registering a
// source file as a book, queueing its parse job, and tearing a book down
// again.
package ingest

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/foliolabs/folio/internal/engine"
	"github.com/foliolabs/folio/internal/index"
	"github.com/foliolabs/folio/internal/model"
	"github.com/foliolabs/folio/internal/repo"
	"github.com/foliolabs/folio/internal/storage"
)

// ErrBookExists is returned when a submission derives a book id that is
// already registered. Identity is title plus file checksum, so resubmitting
// the same file under the same title is rejected rather than duplicated.
var ErrBookExists = errors.New("book already exists")

// Service wires submission and cancellation against the shared stores.
type Service struct {
	Repo   repo.Repository
	Store  *storage.Store
	Index  index.Index
	Engine engine.Engine
	Logger *slog.Logger
}

// Submission describes a document registered by path.
type Submission struct {
	Path     string
	Title    string // defaults to the file name without extension
	Author   string
	Language string // defaults to "en"
	Source   string // defaults to "local"
}

// Submit registers the file as a book and queues a parse job for it.
// The original file is copied into the artifact store so later runs do not
// depend on the registration path surviving.
func (s *Service) Submit(ctx context.Context, sub Submission) (*model.Book, *model.ParseJob, error) {
	fileMD5, err := checksumFile(sub.Path)
	if err != nil {
		return nil, nil, err
	}

	title := strings.TrimSpace(sub.Title)
	if title == "" {
		base := filepath.Base(sub.Path)
		title = strings.TrimSuffix(base, filepath.Ext(base))
	}
	language := sub.Language
	if language == "" {
		language = "en"
	}
	source := sub.Source
	if source == "" {
		source = "local"
	}

	bookID := model.BookID(title, fileMD5)
	if _, err := s.Repo.GetBook(ctx, bookID); err == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrBookExists, bookID)
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, nil, err
	}

	storedPath, err := s.Store.SaveOriginal(bookID, sub.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to store original: %w", err)
	}

	book := &model.Book{
		ID:               bookID,
		FileMD5:          fileMD5,
		Title:            title,
		Author:           sub.Author,
		Source:           source,
		OriginalFilePath: storedPath,
		Language:         language,
		ParseVersion:     s.Engine.Version(),
		Status:           model.BookStatusUploaded,
	}
	if err := s.Repo.SaveBook(ctx, book); err != nil {
		return nil, nil, fmt.Errorf("failed to save book: %w", err)
	}

	job := &model.ParseJob{
		ID:     uuid.New().String(),
		BookID: bookID,
		State:  model.JobStateQueued,
		Phase:  model.PhasePrecheck,
	}
	if err := s.Repo.SaveJob(ctx, job); err != nil {
		return nil, nil, fmt.Errorf("failed to save job: %w", err)
	}

	s.logger().Info("document submitted", "book_id", bookID, "job_id", job.ID, "title", title)
	return book, job, nil
}

// Cancel terminates the job and purges the book's stored content, index
// entries, and repository records. Job records are kept as the audit trail
// for what happened.
func (s *Service) Cancel(ctx context.Context, jobID string) error {
	job, err := s.Repo.GetJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to load job %s: %w", jobID, err)
	}
	book, err := s.Repo.GetBook(ctx, job.BookID)
	if err != nil {
		return fmt.Errorf("failed to load book %s: %w", job.BookID, err)
	}

	msg := "cancelled by user"
	failed := model.JobStateFailed
	if err := s.Repo.UpdateJob(ctx, jobID, model.JobUpdate{State: &failed, ErrorMessage: &msg}); err != nil {
		return fmt.Errorf("failed to mark job cancelled: %w", err)
	}
	if err := s.Repo.UpdateBookStatus(ctx, book.ID, model.BookStatusFailed, nil); err != nil {
		return fmt.Errorf("failed to mark book failed: %w", err)
	}

	if err := s.Store.DeleteBook(book.ID); err != nil {
		return fmt.Errorf("failed to delete stored artifacts: %w", err)
	}
	if err := s.Index.DeleteBook(ctx, book.ID); err != nil {
		return fmt.Errorf("failed to delete index entries: %w", err)
	}
	if err := s.Repo.DeleteBookContent(ctx, book.ID); err != nil {
		return fmt.Errorf("failed to delete book records: %w", err)
	}

	s.logger().Info("job cancelled", "job_id", jobID, "book_id", book.ID)
	return nil
}

func (s *Service) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func checksumFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open source file: %w", err)
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to checksum source file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
