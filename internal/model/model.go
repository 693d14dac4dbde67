// Package model provides the data model shared across the ingestion pipeline,
// repository, and search index. It has no dependencies on other folio packages
// to avoid import cycles.
package model

import "time"

// BookStatus tracks a book's parse lifecycle.
type BookStatus string

const (
	BookStatusUploaded     BookStatus = "uploaded"
	BookStatusParsing      BookStatus = "parsing"
	BookStatusPaused       BookStatus = "paused"
	BookStatusParsed       BookStatus = "parsed"
	BookStatusFailed       BookStatus = "failed"
	BookStatusNeedsReparse BookStatus = "needs_reparse"
)

// JobState is the authoritative state of a parse job.
// QUEUED -> RUNNING -> {COMPLETED | FAILED}, with PAUSED reachable from
// RUNNING as an externally requested interrupt. COMPLETED and FAILED are
// terminal; retrying requires a fresh job with a new id.
type JobState string

const (
	JobStateQueued    JobState = "queued"
	JobStateRunning   JobState = "running"
	JobStatePaused    JobState = "paused"
	JobStateCompleted JobState = "completed"
	JobStateFailed    JobState = "failed"
)

// Terminal reports whether the state is final.
func (s JobState) Terminal() bool {
	return s == JobStateCompleted || s == JobStateFailed
}

// JobPhase is the pipeline's current major stage within a RUNNING job.
// Phases are traversed strictly in order. Phase is observability state;
// only the current-page checkpoint gates resumption.
type JobPhase string

const (
	PhasePrecheck    JobPhase = "precheck"
	PhaseParse       JobPhase = "parse"
	PhaseDBIngestion JobPhase = "db_ingestion"
	PhaseIndexing    JobPhase = "indexing"
)

// BBox is a bounding box in page coordinates.
type BBox struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Book is the identity record for a source document.
type Book struct {
	ID               string     `json:"id"`
	FileMD5          string     `json:"file_md5"`
	Title            string     `json:"title"`
	Author           string     `json:"author,omitempty"`
	Source           string     `json:"source"`
	OriginalFilePath string     `json:"original_file_path"`
	Language         string     `json:"language"`
	ParseVersion     string     `json:"parse_version"`
	Status           BookStatus `json:"status"`
	PageCount        *int       `json:"page_count,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// ParseJob is one execution attempt of the ingestion pipeline for a book.
type ParseJob struct {
	ID           string     `json:"id"`
	BookID       string     `json:"book_id"`
	State        JobState   `json:"state"`
	Phase        JobPhase   `json:"phase"`
	CurrentPage  int        `json:"current_page"`
	TotalPages   *int       `json:"total_pages,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// JobUpdate is a partial update for a parse job. Only non-nil fields change.
type JobUpdate struct {
	State        *JobState
	Phase        *JobPhase
	CurrentPage  *int
	TotalPages   *int
	ErrorMessage *string
	StartedAt    *time.Time
}

// Page is one page of a book. Created in ingestion batches in increasing
// page-number order; only rendered-asset paths change after creation.
type Page struct {
	ID                 string    `json:"id"`
	BookID             string    `json:"book_id"`
	PageNumber         int       `json:"page_number"`
	Width              float64   `json:"width"`
	Height             float64   `json:"height"`
	RenderImagePath    string    `json:"render_image_path,omitempty"`
	ThumbnailImagePath string    `json:"thumbnail_image_path,omitempty"`
	ParseStatus        string    `json:"parse_status"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Section is a hierarchical heading/outline node. Sections for a book are
// upserted once, before any page batch, because blocks reference them.
type Section struct {
	ID              string    `json:"id"`
	BookID          string    `json:"book_id"`
	ParentSectionID string    `json:"parent_section_id,omitempty"`
	Level           int       `json:"level"`
	TitleText       string    `json:"title_text"`
	StartPageNumber int       `json:"start_page_number"`
	EndPageNumber   int       `json:"end_page_number"`
	OrderIndex      int       `json:"order_index"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Block is the atomic unit of parsed content on one page. Reading order is
// unique and monotonic within a page and defines render/search order.
type Block struct {
	ID           string    `json:"id"`
	BookID       string    `json:"book_id"`
	PageID       string    `json:"page_id"`
	SectionID    string    `json:"section_id,omitempty"`
	BlockType    string    `json:"block_type"`
	Text         string    `json:"text"`
	Markup       string    `json:"markup,omitempty"`
	BBox         BBox      `json:"bbox"`
	ReadingOrder int       `json:"reading_order"`
	AssetID      string    `json:"asset_id,omitempty"`
	SourceID     string    `json:"source_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Asset is an embedded figure/table image. BlockID is set when a block
// references the asset.
type Asset struct {
	ID        string    `json:"id"`
	BookID    string    `json:"book_id"`
	PageID    string    `json:"page_id"`
	AssetType string    `json:"asset_type"`
	FilePath  string    `json:"file_path"`
	BBox      BBox      `json:"bbox"`
	BlockID   string    `json:"block_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
