package endpoints

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/foliolabs/folio/internal/api"
	"github.com/foliolabs/folio/internal/jobs"
	"github.com/foliolabs/folio/internal/model"
	"github.com/foliolabs/folio/internal/repo"
	"github.com/foliolabs/folio/internal/svcctx"
)

// JobActionResponse acknowledges a state-changing job request.
type JobActionResponse struct {
	Status string `json:"status"`
	JobID  string `json:"job_id"`
	BookID string `json:"book_id,omitempty"`
}

// JobsGetEndpoint handles GET /jobs/{id}.
type JobsGetEndpoint struct{}

func (e *JobsGetEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/jobs/{id}", e.handler
}

func (e *JobsGetEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	job, err := svcctx.RepoFrom(r.Context()).GetJob(r.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("job not found: %s", id))
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (e *JobsGetEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "get <job-id>",
		Short: "Inspect a parse job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var job model.ParseJob
			if err := client.Get(cmd.Context(), "/jobs/"+args[0], &job); err != nil {
				return err
			}
			return api.Output(job)
		},
	}
}

// JobPauseEndpoint handles POST /jobs/{id}/pause.
type JobPauseEndpoint struct{}

func (e *JobPauseEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/jobs/{id}/pause", e.handler
}

func (e *JobPauseEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := svcctx.RunnerFrom(r.Context()).Pause(r.Context(), id); err != nil {
		writeJobActionError(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, JobActionResponse{Status: "pause requested", JobID: id})
}

func (e *JobPauseEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "pause <job-id>",
		Short: "Pause a parse job at the next batch boundary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp JobActionResponse
			if err := client.Post(cmd.Context(), "/jobs/"+args[0]+"/pause", nil, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// JobResumeEndpoint handles POST /jobs/{id}/resume.
type JobResumeEndpoint struct{}

func (e *JobResumeEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/jobs/{id}/resume", e.handler
}

func (e *JobResumeEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := svcctx.RunnerFrom(r.Context()).Resume(r.Context(), id); err != nil {
		writeJobActionError(w, id, err)
		return
	}
	writeJSON(w, http.StatusAccepted, JobActionResponse{Status: "resumed", JobID: id})
}

func (e *JobResumeEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "resume <job-id>",
		Short: "Resume a paused parse job from its checkpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp JobActionResponse
			if err := client.Post(cmd.Context(), "/jobs/"+args[0]+"/resume", nil, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// JobCancelEndpoint handles POST /jobs/{id}/cancel.
type JobCancelEndpoint struct{}

func (e *JobCancelEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/jobs/{id}/cancel", e.handler
}

func (e *JobCancelEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	job, err := svcctx.RepoFrom(r.Context()).GetJob(r.Context(), id)
	if err != nil {
		writeJobActionError(w, id, err)
		return
	}
	if err := svcctx.IngestFrom(r.Context()).Cancel(r.Context(), id); err != nil {
		writeJobActionError(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, JobActionResponse{Status: "cancelled", JobID: id, BookID: job.BookID})
}

func (e *JobCancelEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <job-id>",
		Short: "Cancel a parse job and purge the book's content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp JobActionResponse
			if err := client.Post(cmd.Context(), "/jobs/"+args[0]+"/cancel", nil, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// writeJobActionError maps job-control errors onto HTTP statuses.
func writeJobActionError(w http.ResponseWriter, jobID string, err error) {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		writeError(w, http.StatusNotFound, fmt.Sprintf("job not found: %s", jobID))
	case errors.Is(err, jobs.ErrNotPausable), errors.Is(err, jobs.ErrNotPaused), errors.Is(err, jobs.ErrJobInFlight):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
