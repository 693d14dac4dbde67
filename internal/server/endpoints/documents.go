package endpoints

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/foliolabs/folio/internal/api"
	"github.com/foliolabs/folio/internal/ingest"
	"github.com/foliolabs/folio/internal/model"
	"github.com/foliolabs/folio/internal/repo"
	"github.com/foliolabs/folio/internal/svcctx"
)

// SubmitRequest registers a document by filesystem path. The server copies
// the file into its artifact store; upload streaming is not supported.
type SubmitRequest struct {
	Path     string `json:"path"`
	Title    string `json:"title,omitempty"`
	Author   string `json:"author,omitempty"`
	Language string `json:"language,omitempty"`
}

// SubmitResponse identifies the registered book and its queued parse job.
type SubmitResponse struct {
	BookID string `json:"book_id"`
	JobID  string `json:"job_id"`
}

// DocumentsSubmitEndpoint handles POST /documents.
type DocumentsSubmitEndpoint struct{}

func (e *DocumentsSubmitEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/documents", e.handler
}

func (e *DocumentsSubmitEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}

	svc := svcctx.IngestFrom(r.Context())
	book, job, err := svc.Submit(r.Context(), ingest.Submission{
		Path:     req.Path,
		Title:    req.Title,
		Author:   req.Author,
		Language: req.Language,
	})
	if err != nil {
		if errors.Is(err, ingest.ErrBookExists) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// The job runs in the background; poll GET /jobs/{id} for progress.
	if err := svcctx.RunnerFrom(r.Context()).Dispatch(r.Context(), job.ID); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, SubmitResponse{BookID: book.ID, JobID: job.ID})
}

func (e *DocumentsSubmitEndpoint) Command(getServerURL func() string) *cobra.Command {
	var title, author, language string
	cmd := &cobra.Command{
		Use:   "submit <path>",
		Short: "Register a document and queue its parse job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp SubmitResponse
			req := SubmitRequest{Path: args[0], Title: title, Author: author, Language: language}
			if err := client.Post(cmd.Context(), "/documents", req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "document title (defaults to file name)")
	cmd.Flags().StringVar(&author, "author", "", "document author")
	cmd.Flags().StringVar(&language, "language", "", "document language (defaults to en)")
	return cmd
}

// DocumentsListEndpoint handles GET /documents.
type DocumentsListEndpoint struct{}

func (e *DocumentsListEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/documents", e.handler
}

func (e *DocumentsListEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	books, err := svcctx.RepoFrom(r.Context()).ListBooks(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if books == nil {
		books = []model.Book{}
	}
	writeJSON(w, http.StatusOK, books)
}

func (e *DocumentsListEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var books []model.Book
			if err := client.Get(cmd.Context(), "/documents", &books); err != nil {
				return err
			}
			return api.Output(books)
		},
	}
}

// DocumentsGetEndpoint handles GET /documents/{id}.
type DocumentsGetEndpoint struct{}

func (e *DocumentsGetEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/documents/{id}", e.handler
}

func (e *DocumentsGetEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	book, err := svcctx.RepoFrom(r.Context()).GetBook(r.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("book not found: %s", id))
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, book)
}

func (e *DocumentsGetEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "get <book-id>",
		Short: "Get a registered document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var book model.Book
			if err := client.Get(cmd.Context(), "/documents/"+args[0], &book); err != nil {
				return err
			}
			return api.Output(book)
		},
	}
}
