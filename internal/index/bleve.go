package index

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/foliolabs/folio/internal/model"
)

// Bleve is a filesystem-backed full-text index over block text.
// Documents are keyed by block id, so re-indexing the same parsed content
// overwrites rather than duplicates.
type Bleve struct {
	idx bleve.Index
}

var _ Index = (*Bleve)(nil)

// blockDoc is the indexed shape of a block.
type blockDoc struct {
	BookID       string  `json:"book_id"`
	PageID       string  `json:"page_id"`
	ReadingOrder float64 `json:"reading_order"`
	Text         string  `json:"text"`
}

// NewBleve opens the index at dir, creating it if absent.
func NewBleve(dir string) (*Bleve, error) {
	idx, err := bleve.Open(dir)
	if err == nil {
		return &Bleve{idx: idx}, nil
	}
	if err != bleve.ErrorIndexPathDoesNotExist {
		return nil, fmt.Errorf("failed to open index at %s: %w", dir, err)
	}
	// bleve creates the leaf directory itself; the parent must exist.
	if mkErr := os.MkdirAll(filepath.Dir(dir), 0o755); mkErr != nil {
		return nil, fmt.Errorf("failed to create index parent directory: %w", mkErr)
	}
	idx, err = bleve.New(dir, buildMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create index at %s: %w", dir, err)
	}
	return &Bleve{idx: idx}, nil
}

func buildMapping() mapping.IndexMapping {
	keywordField := bleve.NewTextFieldMapping()
	keywordField.Analyzer = keyword.Name
	keywordField.Store = true

	textField := bleve.NewTextFieldMapping()
	textField.Store = true

	numField := bleve.NewNumericFieldMapping()
	numField.Store = true

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("book_id", keywordField)
	doc.AddFieldMappingsAt("page_id", keywordField)
	doc.AddFieldMappingsAt("reading_order", numField)
	doc.AddFieldMappingsAt("text", textField)

	m := bleve.NewIndexMapping()
	m.DefaultMapping = doc
	return m
}

// IndexBook removes any prior entries for the book and indexes the given
// blocks in their place.
func (b *Bleve) IndexBook(ctx context.Context, bookID string, blocks []model.Block) error {
	if err := b.DeleteBook(ctx, bookID); err != nil {
		return err
	}

	batch := b.idx.NewBatch()
	for _, blk := range blocks {
		doc := blockDoc{
			BookID:       blk.BookID,
			PageID:       blk.PageID,
			ReadingOrder: float64(blk.ReadingOrder),
			Text:         blk.Text,
		}
		if err := batch.Index(blk.ID, doc); err != nil {
			return fmt.Errorf("failed to add block %s to batch: %w", blk.ID, err)
		}
	}
	if err := b.idx.Batch(batch); err != nil {
		return fmt.Errorf("failed to index book %s: %w", bookID, err)
	}
	return nil
}

// DeleteBook removes every indexed entry for the book.
func (b *Bleve) DeleteBook(ctx context.Context, bookID string) error {
	for {
		q := bleve.NewTermQuery(bookID)
		q.SetField("book_id")
		req := bleve.NewSearchRequest(q)
		req.Size = 500

		res, err := b.idx.SearchInContext(ctx, req)
		if err != nil {
			return fmt.Errorf("failed to find entries for book %s: %w", bookID, err)
		}
		if len(res.Hits) == 0 {
			return nil
		}
		batch := b.idx.NewBatch()
		for _, hit := range res.Hits {
			batch.Delete(hit.ID)
		}
		if err := b.idx.Batch(batch); err != nil {
			return fmt.Errorf("failed to delete entries for book %s: %w", bookID, err)
		}
	}
}

// Search runs a ranked match query over block text.
func (b *Bleve) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 10
	}
	q := bleve.NewMatchQuery(query)
	q.SetField("text")
	req := bleve.NewSearchRequest(q)
	req.Size = limit
	req.Fields = []string{"book_id", "page_id", "reading_order", "text"}

	res, err := b.idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	return hitsFromResult(res), nil
}

func hitsFromResult(res *bleve.SearchResult) []Hit {
	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hit := Hit{BlockID: h.ID}
		if v, ok := h.Fields["book_id"].(string); ok {
			hit.BookID = v
		}
		if v, ok := h.Fields["page_id"].(string); ok {
			hit.PageID = v
		}
		if v, ok := h.Fields["reading_order"].(float64); ok {
			hit.ReadingOrder = int(v)
		}
		if v, ok := h.Fields["text"].(string); ok {
			hit.Text = v
		}
		hits = append(hits, hit)
	}
	return hits
}

// SearchBook runs a ranked match query over block text within one book.
func (b *Bleve) SearchBook(ctx context.Context, bookID, query string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 10
	}
	bookQ := bleve.NewTermQuery(bookID)
	bookQ.SetField("book_id")
	textQ := bleve.NewMatchQuery(query)
	textQ.SetField("text")
	req := bleve.NewSearchRequest(bleve.NewConjunctionQuery(bookQ, textQ))
	req.Size = limit
	req.Fields = []string{"book_id", "page_id", "reading_order", "text"}

	res, err := b.idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	return hitsFromResult(res), nil
}

func (b *Bleve) Close() error {
	return b.idx.Close()
}
