package endpoints

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/foliolabs/folio/internal/api"
	"github.com/foliolabs/folio/internal/model"
	"github.com/foliolabs/folio/internal/repo"
	"github.com/foliolabs/folio/internal/svcctx"
)

// ParsedBlockView is one block in a parsed-page response. BBox is flattened
// to [x, y, w, h] for rendering clients.
type ParsedBlockView struct {
	ID           string     `json:"id"`
	BlockType    string     `json:"block_type"`
	ReadingOrder int        `json:"reading_order"`
	Text         string     `json:"text"`
	BBox         [4]float64 `json:"bbox"`
	SectionID    string     `json:"section_id,omitempty"`
	AssetID      string     `json:"asset_id,omitempty"`
}

// ParsedPageResponse is the parsed content of one page in reading order.
type ParsedPageResponse struct {
	Page   int               `json:"page"`
	Width  float64           `json:"width"`
	Height float64           `json:"height"`
	Blocks []ParsedBlockView `json:"blocks"`
}

// PageParsedEndpoint handles GET /documents/{id}/pages/{page}/parsed.
type PageParsedEndpoint struct{}

func (e *PageParsedEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/documents/{id}/pages/{page}/parsed", e.handler
}

func (e *PageParsedEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	bookID := r.PathValue("id")
	pageNumber, err := strconv.Atoi(r.PathValue("page"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "page must be an integer")
		return
	}

	rp := svcctx.RepoFrom(r.Context())
	page, err := rp.GetPage(r.Context(), bookID, pageNumber)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("page not found: %s page %d", bookID, pageNumber))
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	blocks, err := rp.ListBlocksForPage(r.Context(), bookID, pageNumber)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := ParsedPageResponse{
		Page:   pageNumber,
		Width:  page.Width,
		Height: page.Height,
		Blocks: make([]ParsedBlockView, 0, len(blocks)),
	}
	for _, blk := range blocks {
		resp.Blocks = append(resp.Blocks, blockView(blk))
	}
	writeJSON(w, http.StatusOK, resp)
}

func blockView(blk model.Block) ParsedBlockView {
	return ParsedBlockView{
		ID:           blk.ID,
		BlockType:    blk.BlockType,
		ReadingOrder: blk.ReadingOrder,
		Text:         blk.Text,
		BBox:         [4]float64{blk.BBox.X, blk.BBox.Y, blk.BBox.W, blk.BBox.H},
		SectionID:    blk.SectionID,
		AssetID:      blk.AssetID,
	}
}

func (e *PageParsedEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "page <book-id> <page-number>",
		Short: "Get the parsed blocks for one page",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp ParsedPageResponse
			path := fmt.Sprintf("/documents/%s/pages/%s/parsed", args[0], args[1])
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
