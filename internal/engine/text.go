package engine

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/foliolabs/folio/internal/model"
)

// Text treats each newline-delimited paragraph in a plain-text file as a
// block on a single synthetic page. It keeps the pipeline testable end to end
// without real documents or an external engine.
type Text struct{}

// NewText creates the text engine.
func NewText() *Text {
	return &Text{}
}

func (e *Text) Version() string { return "text-1" }

func (e *Text) Parse(ctx context.Context, path string) (*model.ParsedDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read source file: %w", err)
	}

	var blocks []model.ParsedBlock
	yCursor := 50.0
	idx := 0
	for _, line := range strings.Split(string(data), "\n") {
		paragraph := strings.TrimSpace(line)
		if paragraph == "" {
			continue
		}
		blockID := fmt.Sprintf("blk-%d", idx)
		blocks = append(blocks, model.ParsedBlock{
			ID:           blockID,
			PageNumber:   1,
			BlockType:    "paragraph",
			Text:         paragraph,
			BBox:         model.BBox{X: 50, Y: yCursor, W: 512, H: 40},
			ReadingOrder: idx,
			SourceID:     blockID,
		})
		yCursor += 45
		idx++
	}

	return &model.ParsedDocument{
		Pages:         []model.ParsedPage{{PageNumber: 1, Width: 612, Height: 792}},
		Blocks:        blocks,
		EngineVersion: e.Version(),
		Metadata:      map[string]any{"source": "text"},
	}, nil
}

// CountPages always reports the single synthetic page.
func (e *Text) CountPages(ctx context.Context, path string) int {
	return 1
}
