package model

// ParsedDocument is the in-memory result produced by a parsing engine.
// It is mapped into persistence records by the ingestion pipeline and is
// never stored directly.
type ParsedDocument struct {
	Pages         []ParsedPage    `json:"pages"`
	Sections      []ParsedSection `json:"sections"`
	Blocks        []ParsedBlock   `json:"blocks"`
	Assets        []ParsedAsset   `json:"assets"`
	EngineVersion string          `json:"engine_version"`
	Metadata      map[string]any  `json:"metadata,omitempty"`
}

// ParsedPage is a page as reported by the engine.
type ParsedPage struct {
	PageNumber int     `json:"page_number"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
}

// ParsedSection is an outline node as reported by the engine. IDs are
// source-local; the pipeline derives stable record ids from them.
type ParsedSection struct {
	ID              string `json:"id"`
	ParentID        string `json:"parent_id,omitempty"`
	Level           int    `json:"level"`
	TitleText       string `json:"title_text"`
	StartPageNumber int    `json:"start_page_number"`
	EndPageNumber   int    `json:"end_page_number"`
	OrderIndex      int    `json:"order_index"`
}

// ParsedBlock is a content block as reported by the engine. SectionPath lists
// source-local section ids from innermost to outermost; the pipeline resolves
// the first one that maps to a stored section.
type ParsedBlock struct {
	ID           string   `json:"id"`
	PageNumber   int      `json:"page_number"`
	BlockType    string   `json:"block_type"`
	Text         string   `json:"text"`
	Markup       string   `json:"markup,omitempty"`
	BBox         BBox     `json:"bbox"`
	ReadingOrder int      `json:"reading_order"`
	SectionPath  []string `json:"section_path,omitempty"`
	AssetID      string   `json:"asset_id,omitempty"`
	SourceID     string   `json:"source_id,omitempty"`
}

// ParsedAsset is an embedded image as reported by the engine. ImageBytes is
// set when the engine produced inline bytes; otherwise ImagePath points at a
// pre-existing file recorded as-is.
type ParsedAsset struct {
	ID         string `json:"id"`
	PageNumber int    `json:"page_number"`
	AssetType  string `json:"asset_type"`
	BBox       BBox   `json:"bbox"`
	ImageBytes []byte `json:"image_bytes,omitempty"`
	ImagePath  string `json:"image_path,omitempty"`
}
