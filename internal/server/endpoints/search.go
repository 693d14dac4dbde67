package endpoints

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/foliolabs/folio/internal/api"
	"github.com/foliolabs/folio/internal/model"
	"github.com/foliolabs/folio/internal/repo"
	"github.com/foliolabs/folio/internal/svcctx"
)

// SearchHit is one ranked match within a document.
type SearchHit struct {
	BlockID      string `json:"block_id"`
	PageID       string `json:"page_id"`
	PageNumber   int    `json:"page_number"`
	ReadingOrder int    `json:"reading_order"`
	Text         string `json:"text"`
}

// SearchResponse wraps the hits for a document search.
type SearchResponse struct {
	Hits []SearchHit `json:"hits"`
}

// DocumentSearchEndpoint handles GET /documents/{id}/search.
type DocumentSearchEndpoint struct{}

func (e *DocumentSearchEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/documents/{id}/search", e.handler
}

func (e *DocumentSearchEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	bookID := r.PathValue("id")
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "query must not be empty")
		return
	}
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	if _, err := svcctx.RepoFrom(r.Context()).GetBook(r.Context(), bookID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("book not found: %s", bookID))
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	hits, err := svcctx.IndexFrom(r.Context()).SearchBook(r.Context(), bookID, query, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := SearchResponse{Hits: make([]SearchHit, 0, len(hits))}
	for _, h := range hits {
		resp.Hits = append(resp.Hits, SearchHit{
			BlockID:      h.BlockID,
			PageID:       h.PageID,
			PageNumber:   model.PageNumberFromID(h.PageID),
			ReadingOrder: h.ReadingOrder,
			Text:         h.Text,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (e *DocumentSearchEndpoint) Command(getServerURL func() string) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search <book-id> <query>",
		Short: "Full-text search within a document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp SearchResponse
			path := fmt.Sprintf("/documents/%s/search?query=%s&limit=%d",
				args[0], url.QueryEscape(args[1]), limit)
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of hits")
	return cmd
}
