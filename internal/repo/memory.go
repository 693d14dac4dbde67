package repo

import (
	"context"
	"sync"
	"time"

	"github.com/foliolabs/folio/internal/model"
)

// Memory is an in-memory Repository for unit tests and local runs. It copies
// records on both read and write so callers can never mutate shared state.
type Memory struct {
	mu       sync.RWMutex
	books    map[string]model.Book
	jobs     map[string]model.ParseJob
	pages    map[string]model.Page
	sections map[string]model.Section
	blocks   map[string]model.Block
	assets   map[string]model.Asset
}

var _ Repository = (*Memory)(nil)

// NewMemory creates an empty in-memory repository.
func NewMemory() *Memory {
	return &Memory{
		books:    make(map[string]model.Book),
		jobs:     make(map[string]model.ParseJob),
		pages:    make(map[string]model.Page),
		sections: make(map[string]model.Section),
		blocks:   make(map[string]model.Block),
		assets:   make(map[string]model.Asset),
	}
}

func (m *Memory) GetBook(_ context.Context, bookID string) (*model.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	book, ok := m.books[bookID]
	if !ok {
		return nil, ErrNotFound
	}
	b := copyBook(book)
	return &b, nil
}

func (m *Memory) SaveBook(_ context.Context, book *model.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.books[book.ID] = copyBook(*book)
	return nil
}

func (m *Memory) UpdateBookStatus(_ context.Context, bookID string, status model.BookStatus, pageCount *int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	book, ok := m.books[bookID]
	if !ok {
		return ErrNotFound
	}
	book.Status = status
	if pageCount != nil {
		n := *pageCount
		book.PageCount = &n
	}
	book.UpdatedAt = time.Now().UTC()
	m.books[bookID] = book
	return nil
}

func (m *Memory) ListBooks(_ context.Context) ([]model.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	books := make([]model.Book, 0, len(m.books))
	for _, b := range m.books {
		books = append(books, copyBook(b))
	}
	return books, nil
}

func (m *Memory) GetJob(_ context.Context, jobID string) (*model.ParseJob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return nil, ErrNotFound
	}
	j := copyJob(job)
	return &j, nil
}

func (m *Memory) SaveJob(_ context.Context, job *model.ParseJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.ID] = copyJob(*job)
	return nil
}

func (m *Memory) UpdateJob(_ context.Context, jobID string, upd model.JobUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return ErrNotFound
	}
	if upd.State != nil {
		job.State = *upd.State
	}
	if upd.Phase != nil {
		job.Phase = *upd.Phase
	}
	if upd.CurrentPage != nil {
		job.CurrentPage = *upd.CurrentPage
	}
	if upd.TotalPages != nil {
		n := *upd.TotalPages
		job.TotalPages = &n
	}
	if upd.ErrorMessage != nil {
		job.ErrorMessage = *upd.ErrorMessage
	}
	if upd.StartedAt != nil {
		ts := *upd.StartedAt
		job.StartedAt = &ts
	}
	job.UpdatedAt = time.Now().UTC()
	m.jobs[jobID] = job
	return nil
}

func (m *Memory) UpsertPages(_ context.Context, pages []model.Page) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range pages {
		m.pages[p.ID] = p
	}
	return nil
}

func (m *Memory) UpsertSections(_ context.Context, sections []model.Section) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range sections {
		m.sections[s.ID] = s
	}
	return nil
}

func (m *Memory) UpsertBlocks(_ context.Context, blocks []model.Block) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range blocks {
		m.blocks[b.ID] = b
	}
	return nil
}

func (m *Memory) UpsertAssets(_ context.Context, assets []model.Asset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range assets {
		m.assets[a.ID] = a
	}
	return nil
}

func (m *Memory) GetPage(_ context.Context, bookID string, pageNumber int) (*model.Page, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	page, ok := m.pages[model.PageID(bookID, pageNumber)]
	if !ok {
		return nil, ErrNotFound
	}
	p := page
	return &p, nil
}

func (m *Memory) ListBlocksForBook(_ context.Context, bookID string) ([]model.Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var blocks []model.Block
	for _, b := range m.blocks {
		if b.BookID == bookID {
			blocks = append(blocks, b)
		}
	}
	model.SortBlocks(blocks)
	return blocks, nil
}

func (m *Memory) ListBlocksForPage(_ context.Context, bookID string, pageNumber int) ([]model.Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	pageID := model.PageID(bookID, pageNumber)
	if _, ok := m.pages[pageID]; !ok {
		return nil, ErrNotFound
	}
	var blocks []model.Block
	for _, b := range m.blocks {
		if b.PageID == pageID {
			blocks = append(blocks, b)
		}
	}
	model.SortBlocks(blocks)
	return blocks, nil
}

func (m *Memory) DeleteBookContent(_ context.Context, bookID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.books, bookID)
	for id, p := range m.pages {
		if p.BookID == bookID {
			delete(m.pages, id)
		}
	}
	for id, s := range m.sections {
		if s.BookID == bookID {
			delete(m.sections, id)
		}
	}
	for id, b := range m.blocks {
		if b.BookID == bookID {
			delete(m.blocks, id)
		}
	}
	for id, a := range m.assets {
		if a.BookID == bookID {
			delete(m.assets, id)
		}
	}
	return nil
}

func (m *Memory) Close() error { return nil }

// copyBook and copyJob duplicate pointer fields so stored records and
// returned records never share memory.
func copyBook(b model.Book) model.Book {
	if b.PageCount != nil {
		n := *b.PageCount
		b.PageCount = &n
	}
	return b
}

func copyJob(j model.ParseJob) model.ParseJob {
	if j.TotalPages != nil {
		n := *j.TotalPages
		j.TotalPages = &n
	}
	if j.StartedAt != nil {
		t := *j.StartedAt
		j.StartedAt = &t
	}
	return j
}
