package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/foliolabs/folio/internal/model"
)

// Bun is the durable Repository backed by SQLite via the bun ORM.
type Bun struct {
	db *bun.DB
}

var _ Repository = (*Bun)(nil)

// bookRow etc. are the bun table mappings. They are kept separate from the
// model types so the model package stays free of persistence tags.
type bookRow struct {
	bun.BaseModel `bun:"table:books,alias:b"`

	ID               string    `bun:",pk"`
	FileMD5          string    `bun:"file_md5"`
	Title            string    `bun:",notnull"`
	Author           string    `bun:",nullzero"`
	Source           string    `bun:",nullzero"`
	OriginalFilePath string    `bun:",nullzero"`
	Language         string    `bun:",nullzero"`
	ParseVersion     string    `bun:",nullzero"`
	Status           string    `bun:",notnull"`
	PageCount        *int      `bun:",nullzero"`
	CreatedAt        time.Time `bun:",nullzero"`
	UpdatedAt        time.Time `bun:",nullzero"`
}

type jobRow struct {
	bun.BaseModel `bun:"table:parse_jobs,alias:j"`

	ID           string     `bun:",pk"`
	BookID       string     `bun:",notnull"`
	State        string     `bun:",notnull"`
	Phase        string     `bun:",notnull"`
	CurrentPage  int        `bun:",nullzero,default:0"`
	TotalPages   *int       `bun:",nullzero"`
	ErrorMessage string     `bun:",nullzero"`
	StartedAt    *time.Time `bun:",nullzero"`
	UpdatedAt    time.Time  `bun:",nullzero"`
}

type pageRow struct {
	bun.BaseModel `bun:"table:pages,alias:p"`

	ID                 string    `bun:",pk"`
	BookID             string    `bun:",notnull"`
	PageNumber         int       `bun:",notnull"`
	Width              float64   `bun:",nullzero"`
	Height             float64   `bun:",nullzero"`
	RenderImagePath    string    `bun:",nullzero"`
	ThumbnailImagePath string    `bun:",nullzero"`
	ParseStatus        string    `bun:",nullzero"`
	CreatedAt          time.Time `bun:",nullzero"`
	UpdatedAt          time.Time `bun:",nullzero"`
}

type sectionRow struct {
	bun.BaseModel `bun:"table:sections,alias:s"`

	ID              string    `bun:",pk"`
	BookID          string    `bun:",notnull"`
	ParentSectionID string    `bun:",nullzero"`
	Level           int       `bun:",nullzero"`
	TitleText       string    `bun:",nullzero"`
	StartPageNumber int       `bun:",nullzero"`
	EndPageNumber   int       `bun:",nullzero"`
	OrderIndex      int       `bun:",nullzero,default:0"`
	CreatedAt       time.Time `bun:",nullzero"`
	UpdatedAt       time.Time `bun:",nullzero"`
}

type blockRow struct {
	bun.BaseModel `bun:"table:blocks,alias:blk"`

	ID           string    `bun:",pk"`
	BookID       string    `bun:",notnull"`
	PageID       string    `bun:",notnull"`
	SectionID    string    `bun:",nullzero"`
	BlockType    string    `bun:",nullzero"`
	Text         string    `bun:",nullzero"`
	Markup       string    `bun:",nullzero"`
	BboxX        float64   `bun:"bbox_x,nullzero"`
	BboxY        float64   `bun:"bbox_y,nullzero"`
	BboxW        float64   `bun:"bbox_w,nullzero"`
	BboxH        float64   `bun:"bbox_h,nullzero"`
	ReadingOrder int       `bun:",nullzero,default:0"`
	AssetID      string    `bun:",nullzero"`
	SourceID     string    `bun:",nullzero"`
	CreatedAt    time.Time `bun:",nullzero"`
	UpdatedAt    time.Time `bun:",nullzero"`
}

type assetRow struct {
	bun.BaseModel `bun:"table:assets,alias:a"`

	ID        string    `bun:",pk"`
	BookID    string    `bun:",notnull"`
	PageID    string    `bun:",notnull"`
	AssetType string    `bun:",nullzero"`
	FilePath  string    `bun:",nullzero"`
	BboxX     float64   `bun:"bbox_x,nullzero"`
	BboxY     float64   `bun:"bbox_y,nullzero"`
	BboxW     float64   `bun:"bbox_w,nullzero"`
	BboxH     float64   `bun:"bbox_h,nullzero"`
	BlockID   string    `bun:",nullzero"`
	CreatedAt time.Time `bun:",nullzero"`
	UpdatedAt time.Time `bun:",nullzero"`
}

// NewBun opens (or creates) a SQLite database at dsn and ensures the schema
// exists. Pass "file::memory:?cache=shared" for an in-memory database.
func NewBun(dsn string) (*Bun, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	// WAL improves concurrent reader behavior while a job is writing batches.
	if _, err := sqldb.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())

	ctx := context.Background()
	for _, m := range []any{
		(*bookRow)(nil),
		(*jobRow)(nil),
		(*pageRow)(nil),
		(*sectionRow)(nil),
		(*blockRow)(nil),
		(*assetRow)(nil),
	} {
		if _, err := db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create table for %T: %w", m, err)
		}
	}

	return &Bun{db: db}, nil
}

// withBusyRetry retries a write that failed because SQLite held a lock.
// Everything else fails immediately.
func withBusyRetry(ctx context.Context, fn func() error) error {
	return retry.Do(fn,
		retry.Context(ctx),
		retry.Attempts(4),
		retry.Delay(25*time.Millisecond),
		retry.RetryIf(func(err error) bool {
			msg := err.Error()
			return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
		}),
		retry.LastErrorOnly(true),
	)
}

func (r *Bun) GetBook(ctx context.Context, bookID string) (*model.Book, error) {
	row := new(bookRow)
	if err := r.db.NewSelect().Model(row).Where("id = ?", bookID).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return bookFromRow(row), nil
}

func (r *Bun) SaveBook(ctx context.Context, book *model.Book) error {
	row := rowFromBook(book)
	return withBusyRetry(ctx, func() error {
		_, err := r.db.NewInsert().Model(row).
			On("CONFLICT (id) DO UPDATE").
			Set("file_md5 = EXCLUDED.file_md5").
			Set("title = EXCLUDED.title").
			Set("author = EXCLUDED.author").
			Set("source = EXCLUDED.source").
			Set("original_file_path = EXCLUDED.original_file_path").
			Set("language = EXCLUDED.language").
			Set("parse_version = EXCLUDED.parse_version").
			Set("status = EXCLUDED.status").
			Set("page_count = EXCLUDED.page_count").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		return err
	})
}

func (r *Bun) UpdateBookStatus(ctx context.Context, bookID string, status model.BookStatus, pageCount *int) error {
	q := r.db.NewUpdate().Model((*bookRow)(nil)).
		Set("status = ?", string(status)).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", bookID)
	if pageCount != nil {
		q = q.Set("page_count = ?", *pageCount)
	}
	return withBusyRetry(ctx, func() error {
		res, err := q.Exec(ctx)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *Bun) ListBooks(ctx context.Context) ([]model.Book, error) {
	var rows []bookRow
	if err := r.db.NewSelect().Model(&rows).Order("created_at ASC").Scan(ctx); err != nil {
		return nil, err
	}
	books := make([]model.Book, 0, len(rows))
	for i := range rows {
		books = append(books, *bookFromRow(&rows[i]))
	}
	return books, nil
}

func (r *Bun) GetJob(ctx context.Context, jobID string) (*model.ParseJob, error) {
	row := new(jobRow)
	if err := r.db.NewSelect().Model(row).Where("id = ?", jobID).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return jobFromRow(row), nil
}

func (r *Bun) SaveJob(ctx context.Context, job *model.ParseJob) error {
	row := rowFromJob(job)
	return withBusyRetry(ctx, func() error {
		_, err := r.db.NewInsert().Model(row).
			On("CONFLICT (id) DO UPDATE").
			Set("book_id = EXCLUDED.book_id").
			Set("state = EXCLUDED.state").
			Set("phase = EXCLUDED.phase").
			Set("current_page = EXCLUDED.current_page").
			Set("total_pages = EXCLUDED.total_pages").
			Set("error_message = EXCLUDED.error_message").
			Set("started_at = EXCLUDED.started_at").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		return err
	})
}

func (r *Bun) UpdateJob(ctx context.Context, jobID string, upd model.JobUpdate) error {
	q := r.db.NewUpdate().Model((*jobRow)(nil)).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", jobID)
	if upd.State != nil {
		q = q.Set("state = ?", string(*upd.State))
	}
	if upd.Phase != nil {
		q = q.Set("phase = ?", string(*upd.Phase))
	}
	if upd.CurrentPage != nil {
		q = q.Set("current_page = ?", *upd.CurrentPage)
	}
	if upd.TotalPages != nil {
		q = q.Set("total_pages = ?", *upd.TotalPages)
	}
	if upd.ErrorMessage != nil {
		q = q.Set("error_message = ?", *upd.ErrorMessage)
	}
	if upd.StartedAt != nil {
		q = q.Set("started_at = ?", *upd.StartedAt)
	}
	return withBusyRetry(ctx, func() error {
		res, err := q.Exec(ctx)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *Bun) UpsertPages(ctx context.Context, pages []model.Page) error {
	if len(pages) == 0 {
		return nil
	}
	rows := make([]pageRow, 0, len(pages))
	for i := range pages {
		rows = append(rows, *rowFromPage(&pages[i]))
	}
	return withBusyRetry(ctx, func() error {
		_, err := r.db.NewInsert().Model(&rows).
			On("CONFLICT (id) DO UPDATE").
			Set("width = EXCLUDED.width").
			Set("height = EXCLUDED.height").
			Set("render_image_path = EXCLUDED.render_image_path").
			Set("thumbnail_image_path = EXCLUDED.thumbnail_image_path").
			Set("parse_status = EXCLUDED.parse_status").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		return err
	})
}

func (r *Bun) UpsertSections(ctx context.Context, sections []model.Section) error {
	if len(sections) == 0 {
		return nil
	}
	rows := make([]sectionRow, 0, len(sections))
	for i := range sections {
		rows = append(rows, *rowFromSection(&sections[i]))
	}
	return withBusyRetry(ctx, func() error {
		_, err := r.db.NewInsert().Model(&rows).
			On("CONFLICT (id) DO UPDATE").
			Set("parent_section_id = EXCLUDED.parent_section_id").
			Set("level = EXCLUDED.level").
			Set("title_text = EXCLUDED.title_text").
			Set("start_page_number = EXCLUDED.start_page_number").
			Set("end_page_number = EXCLUDED.end_page_number").
			Set("order_index = EXCLUDED.order_index").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		return err
	})
}

func (r *Bun) UpsertBlocks(ctx context.Context, blocks []model.Block) error {
	if len(blocks) == 0 {
		return nil
	}
	rows := make([]blockRow, 0, len(blocks))
	for i := range blocks {
		rows = append(rows, *rowFromBlock(&blocks[i]))
	}
	return withBusyRetry(ctx, func() error {
		_, err := r.db.NewInsert().Model(&rows).
			On("CONFLICT (id) DO UPDATE").
			Set("page_id = EXCLUDED.page_id").
			Set("section_id = EXCLUDED.section_id").
			Set("block_type = EXCLUDED.block_type").
			Set("text = EXCLUDED.text").
			Set("markup = EXCLUDED.markup").
			Set("bbox_x = EXCLUDED.bbox_x").
			Set("bbox_y = EXCLUDED.bbox_y").
			Set("bbox_w = EXCLUDED.bbox_w").
			Set("bbox_h = EXCLUDED.bbox_h").
			Set("reading_order = EXCLUDED.reading_order").
			Set("asset_id = EXCLUDED.asset_id").
			Set("source_id = EXCLUDED.source_id").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		return err
	})
}

func (r *Bun) UpsertAssets(ctx context.Context, assets []model.Asset) error {
	if len(assets) == 0 {
		return nil
	}
	rows := make([]assetRow, 0, len(assets))
	for i := range assets {
		rows = append(rows, *rowFromAsset(&assets[i]))
	}
	return withBusyRetry(ctx, func() error {
		_, err := r.db.NewInsert().Model(&rows).
			On("CONFLICT (id) DO UPDATE").
			Set("page_id = EXCLUDED.page_id").
			Set("asset_type = EXCLUDED.asset_type").
			Set("file_path = EXCLUDED.file_path").
			Set("bbox_x = EXCLUDED.bbox_x").
			Set("bbox_y = EXCLUDED.bbox_y").
			Set("bbox_w = EXCLUDED.bbox_w").
			Set("bbox_h = EXCLUDED.bbox_h").
			Set("block_id = EXCLUDED.block_id").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		return err
	})
}

func (r *Bun) GetPage(ctx context.Context, bookID string, pageNumber int) (*model.Page, error) {
	row := new(pageRow)
	if err := r.db.NewSelect().Model(row).Where("id = ?", model.PageID(bookID, pageNumber)).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return pageFromRow(row), nil
}

func (r *Bun) ListBlocksForBook(ctx context.Context, bookID string) ([]model.Block, error) {
	var rows []blockRow
	if err := r.db.NewSelect().Model(&rows).Where("book_id = ?", bookID).Scan(ctx); err != nil {
		return nil, err
	}
	blocks := make([]model.Block, 0, len(rows))
	for i := range rows {
		blocks = append(blocks, *blockFromRow(&rows[i]))
	}
	// Page ids sort lexically ("-p10" < "-p2"), so ordering happens in Go.
	model.SortBlocks(blocks)
	return blocks, nil
}

func (r *Bun) ListBlocksForPage(ctx context.Context, bookID string, pageNumber int) ([]model.Block, error) {
	pageID := model.PageID(bookID, pageNumber)
	exists, err := r.db.NewSelect().Model((*pageRow)(nil)).Where("id = ?", pageID).Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}
	var rows []blockRow
	if err := r.db.NewSelect().Model(&rows).Where("page_id = ?", pageID).Order("reading_order ASC").Scan(ctx); err != nil {
		return nil, err
	}
	blocks := make([]model.Block, 0, len(rows))
	for i := range rows {
		blocks = append(blocks, *blockFromRow(&rows[i]))
	}
	return blocks, nil
}

func (r *Bun) DeleteBookContent(ctx context.Context, bookID string) error {
	return withBusyRetry(ctx, func() error {
		return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			for _, m := range []any{
				(*assetRow)(nil),
				(*blockRow)(nil),
				(*sectionRow)(nil),
				(*pageRow)(nil),
			} {
				if _, err := tx.NewDelete().Model(m).Where("book_id = ?", bookID).Exec(ctx); err != nil {
					return err
				}
			}
			_, err := tx.NewDelete().Model((*bookRow)(nil)).Where("id = ?", bookID).Exec(ctx)
			return err
		})
	})
}

func (r *Bun) Close() error {
	return r.db.Close()
}
