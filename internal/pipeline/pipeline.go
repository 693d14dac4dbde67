// Package pipeline drives a parse job through precheck -> parse ->
// db_ingestion -> indexing. The pipeline is stateless between runs: job and
// book state live in the repository, artifacts in the store, so a job can be
// resumed by a fresh pipeline on any process.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/foliolabs/folio/internal/engine"
	"github.com/foliolabs/folio/internal/index"
	"github.com/foliolabs/folio/internal/model"
	"github.com/foliolabs/folio/internal/repo"
	"github.com/foliolabs/folio/internal/storage"
)

// DefaultBatchSize is the number of pages ingested per durable flush when no
// batch size is configured.
const DefaultBatchSize = 50

// Pipeline executes parse jobs.
type Pipeline struct {
	Repo   repo.Repository
	Store  *storage.Store
	Engine engine.Engine
	Index  index.Index
	Logger *slog.Logger

	// BatchSize is the page-batch flush threshold; <= 0 uses DefaultBatchSize.
	BatchSize int
	// PersistEngineOutput writes the raw engine result next to the book
	// artifacts after a successful parse.
	PersistEngineOutput bool
}

func (p *Pipeline) batchSize() int {
	if p.BatchSize <= 0 {
		return DefaultBatchSize
	}
	return p.BatchSize
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

// Run executes the job until it completes, fails, or is paused. A paused run
// returns nil; the job stays PAUSED with its checkpoint intact and a later
// run resumes from there. Any error marks the job FAILED and the book failed
// before it is returned.
func (p *Pipeline) Run(ctx context.Context, jobID string) (err error) {
	job, err := p.Repo.GetJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to load job %s: %w", jobID, err)
	}
	book, err := p.Repo.GetBook(ctx, job.BookID)
	if err != nil {
		return fmt.Errorf("failed to load book %s for job %s: %w", job.BookID, jobID, err)
	}

	log := p.logger().With("job_id", jobID, "book_id", book.ID)

	// Every failure past this point must land in the job record so callers
	// polling the job observe the terminal state and message.
	defer func() {
		if err == nil {
			return
		}
		msg := err.Error()
		failUpd := model.JobUpdate{State: jobState(model.JobStateFailed), ErrorMessage: &msg}
		if uerr := p.Repo.UpdateJob(ctx, jobID, failUpd); uerr != nil {
			log.Error("failed to record job failure", "error", uerr)
		}
		if uerr := p.Repo.UpdateBookStatus(ctx, book.ID, model.BookStatusFailed, nil); uerr != nil {
			log.Error("failed to record book failure", "error", uerr)
		}
		log.Error("parse job failed", "error", err)
	}()

	now := time.Now().UTC()
	upd := model.JobUpdate{
		State:     jobState(model.JobStateRunning),
		Phase:     jobPhase(model.PhasePrecheck),
		StartedAt: &now,
	}
	if err = p.Repo.UpdateJob(ctx, jobID, upd); err != nil {
		return fmt.Errorf("failed to mark job running: %w", err)
	}
	if err = p.Repo.UpdateBookStatus(ctx, book.ID, model.BookStatusParsing, nil); err != nil {
		return fmt.Errorf("failed to mark book parsing: %w", err)
	}

	sourcePath, err := p.locateSource(book)
	if err != nil {
		return err
	}

	if count := p.Engine.CountPages(ctx, sourcePath); count > 0 {
		if err = p.Repo.UpdateBookStatus(ctx, book.ID, model.BookStatusParsing, &count); err != nil {
			return fmt.Errorf("failed to record page count: %w", err)
		}
		if err = p.Repo.UpdateJob(ctx, jobID, model.JobUpdate{TotalPages: &count}); err != nil {
			return fmt.Errorf("failed to record total pages: %w", err)
		}
	}

	if err = p.Repo.UpdateJob(ctx, jobID, model.JobUpdate{Phase: jobPhase(model.PhaseParse)}); err != nil {
		return err
	}
	log.Info("parsing source", "engine", p.Engine.Version(), "path", sourcePath)
	doc, err := p.Engine.Parse(ctx, sourcePath)
	if err != nil {
		return fmt.Errorf("engine parse failed: %w", err)
	}

	if p.PersistEngineOutput {
		if _, err = p.Store.WriteEngineOutput(book.ID, doc); err != nil {
			return err
		}
	}

	if err = p.Repo.UpdateJob(ctx, jobID, model.JobUpdate{Phase: jobPhase(model.PhaseDBIngestion)}); err != nil {
		return err
	}
	paused, err := p.ingest(ctx, jobID, book.ID, doc, job.CurrentPage)
	if err != nil {
		return err
	}
	if paused {
		// The checkpoint is durable; a resume picks up from it. The job
		// stays PAUSED and must not advance to indexing.
		if err = p.Repo.UpdateBookStatus(ctx, book.ID, model.BookStatusPaused, nil); err != nil {
			return err
		}
		log.Info("parse job paused")
		return nil
	}

	if err = p.Repo.UpdateJob(ctx, jobID, model.JobUpdate{Phase: jobPhase(model.PhaseIndexing)}); err != nil {
		return err
	}
	// Index from durable rows, not the in-memory document, so a resumed job
	// indexes pages ingested by earlier runs too.
	blocks, err := p.Repo.ListBlocksForBook(ctx, book.ID)
	if err != nil {
		return fmt.Errorf("failed to list blocks for indexing: %w", err)
	}
	if err = p.Index.IndexBook(ctx, book.ID, blocks); err != nil {
		return fmt.Errorf("failed to index book: %w", err)
	}

	if err = p.Repo.UpdateJob(ctx, jobID, model.JobUpdate{State: jobState(model.JobStateCompleted)}); err != nil {
		return err
	}
	if err = p.Repo.UpdateBookStatus(ctx, book.ID, model.BookStatusParsed, nil); err != nil {
		return err
	}
	log.Info("parse job completed", "blocks", len(blocks))
	return nil
}

// locateSource prefers the stored original over the registration path.
func (p *Pipeline) locateSource(book *model.Book) (string, error) {
	if stored, err := p.Store.FindOriginal(book.ID); err == nil {
		return stored, nil
	}
	if _, err := os.Stat(book.OriginalFilePath); err != nil {
		return "", fmt.Errorf("source file not found at %s: %w", book.OriginalFilePath, err)
	}
	return book.OriginalFilePath, nil
}

// ingest writes the parsed document in page batches, checkpointing after
// every durable flush. Pages at or below resumeFromPage are skipped, which is
// what makes re-running an interrupted job idempotent. Returns true when the
// job was paused at a batch boundary.
func (p *Pipeline) ingest(ctx context.Context, jobID, bookID string, doc *model.ParsedDocument, resumeFromPage int) (bool, error) {
	pages := make([]model.ParsedPage, len(doc.Pages))
	copy(pages, doc.Pages)
	sort.Slice(pages, func(i, j int) bool { return pages[i].PageNumber < pages[j].PageNumber })

	sections := make([]model.ParsedSection, len(doc.Sections))
	copy(sections, doc.Sections)
	sort.Slice(sections, func(i, j int) bool { return sections[i].OrderIndex < sections[j].OrderIndex })

	// Sections are book-level and blocks reference them, so they are
	// upserted once up front. Re-upserting on resume is harmless.
	sectionIDMap := make(map[string]string)
	sectionRecords := mapSections(bookID, sections, sectionIDMap)
	if len(sectionRecords) > 0 {
		if err := p.Repo.UpsertSections(ctx, sectionRecords); err != nil {
			return false, fmt.Errorf("failed to upsert sections: %w", err)
		}
	}

	blocksByPage := make(map[int][]model.ParsedBlock)
	for _, blk := range doc.Blocks {
		blocksByPage[blk.PageNumber] = append(blocksByPage[blk.PageNumber], blk)
	}
	assetsByPage := make(map[int][]model.ParsedAsset)
	for _, a := range doc.Assets {
		assetsByPage[a.PageNumber] = append(assetsByPage[a.PageNumber], a)
	}

	var (
		batchPages  []model.Page
		batchBlocks []model.Block
		batchAssets []model.Asset
	)

	flush := func(lastPage int) (bool, error) {
		if err := p.Repo.UpsertPages(ctx, batchPages); err != nil {
			return false, fmt.Errorf("failed to upsert pages: %w", err)
		}
		if err := p.Repo.UpsertBlocks(ctx, batchBlocks); err != nil {
			return false, fmt.Errorf("failed to upsert blocks: %w", err)
		}
		if err := p.Repo.UpsertAssets(ctx, batchAssets); err != nil {
			return false, fmt.Errorf("failed to upsert assets: %w", err)
		}
		if err := p.Repo.UpdateJob(ctx, jobID, model.JobUpdate{CurrentPage: &lastPage}); err != nil {
			return false, fmt.Errorf("failed to advance checkpoint: %w", err)
		}
		batchPages, batchBlocks, batchAssets = nil, nil, nil
		return p.shouldPause(ctx, jobID)
	}

	for _, page := range pages {
		if page.PageNumber <= resumeFromPage {
			continue
		}
		pageID := model.PageID(bookID, page.PageNumber)
		batchPages = append(batchPages, model.Page{
			ID:          pageID,
			BookID:      bookID,
			PageNumber:  page.PageNumber,
			Width:       page.Width,
			Height:      page.Height,
			ParseStatus: "parsed",
		})

		blockRecords, assetOwnerMap := mapBlocks(bookID, pageID, blocksByPage[page.PageNumber], sectionIDMap)
		batchBlocks = append(batchBlocks, blockRecords...)

		assetRecords, err := p.mapAssets(bookID, pageID, assetsByPage[page.PageNumber], assetOwnerMap)
		if err != nil {
			return false, err
		}
		batchAssets = append(batchAssets, assetRecords...)

		if len(batchPages) >= p.batchSize() {
			paused, err := flush(page.PageNumber)
			if err != nil || paused {
				return paused, err
			}
		}
	}

	if len(batchPages) > 0 {
		lastPage := batchPages[len(batchPages)-1].PageNumber
		paused, err := flush(lastPage)
		if err != nil || paused {
			return paused, err
		}
	}
	return false, nil
}

// shouldPause polls the authoritative job state. Pause requests take effect
// only here, at durable batch boundaries.
func (p *Pipeline) shouldPause(ctx context.Context, jobID string) (bool, error) {
	job, err := p.Repo.GetJob(ctx, jobID)
	if err != nil {
		return false, fmt.Errorf("failed to poll job state: %w", err)
	}
	return job.State == model.JobStatePaused, nil
}

func jobState(s model.JobState) *model.JobState  { return &s }
func jobPhase(ph model.JobPhase) *model.JobPhase { return &ph }
