// Package jobs runs parse jobs on background goroutines and exposes the
// pause/resume controls. The in-process runner stands in for an external job
// queue: dispatch-once semantics are best effort here, the state machine in
// the repository stays authoritative.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/foliolabs/folio/internal/model"
	"github.com/foliolabs/folio/internal/pipeline"
	"github.com/foliolabs/folio/internal/repo"
)

// ErrJobInFlight is returned when dispatching a job that is already running
// in this process.
var ErrJobInFlight = errors.New("job already in flight")

// ErrNotPausable is returned when pausing a job that is not QUEUED or RUNNING.
var ErrNotPausable = errors.New("job cannot be paused")

// ErrNotPaused is returned when resuming a job that is not PAUSED.
var ErrNotPaused = errors.New("job is not paused")

// Runner dispatches parse jobs onto goroutines.
type Runner struct {
	Pipeline *pipeline.Pipeline
	Repo     repo.Repository
	Logger   *slog.Logger

	mu       sync.Mutex
	inflight map[string]chan struct{}
	wg       sync.WaitGroup
}

// NewRunner creates a runner over the given pipeline.
func NewRunner(pl *pipeline.Pipeline, r repo.Repository, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		Pipeline: pl,
		Repo:     r,
		Logger:   logger,
		inflight: make(map[string]chan struct{}),
	}
}

// Dispatch starts the job on a background goroutine. A job id that is
// already in flight in this process is rejected; terminal jobs are rejected
// too, since retrying requires a fresh job.
func (r *Runner) Dispatch(ctx context.Context, jobID string) error {
	job, err := r.Repo.GetJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to load job %s: %w", jobID, err)
	}
	if job.State.Terminal() {
		return fmt.Errorf("job %s is %s; submit a new job to retry", jobID, job.State)
	}

	r.mu.Lock()
	if _, ok := r.inflight[jobID]; ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrJobInFlight, jobID)
	}
	done := make(chan struct{})
	r.inflight[jobID] = done
	r.mu.Unlock()

	// The run outlives the dispatch request.
	runCtx := context.WithoutCancel(ctx)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			r.mu.Lock()
			delete(r.inflight, jobID)
			r.mu.Unlock()
			close(done)
		}()
		if err := r.Pipeline.Run(runCtx, jobID); err != nil {
			r.Logger.Error("job run failed", "job_id", jobID, "error", err)
		}
	}()
	return nil
}

// Pause requests a pause. QUEUED jobs pause immediately; RUNNING jobs stop at
// the next durable batch boundary when the pipeline polls the state.
func (r *Runner) Pause(ctx context.Context, jobID string) error {
	job, err := r.Repo.GetJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to load job %s: %w", jobID, err)
	}
	if job.State != model.JobStateQueued && job.State != model.JobStateRunning {
		return fmt.Errorf("%w: job %s is %s", ErrNotPausable, jobID, job.State)
	}
	paused := model.JobStatePaused
	return r.Repo.UpdateJob(ctx, jobID, model.JobUpdate{State: &paused})
}

// Resume re-dispatches a PAUSED job; the pipeline picks up from the job's
// page checkpoint.
func (r *Runner) Resume(ctx context.Context, jobID string) error {
	job, err := r.Repo.GetJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to load job %s: %w", jobID, err)
	}
	if job.State != model.JobStatePaused {
		return fmt.Errorf("%w: job %s is %s", ErrNotPaused, jobID, job.State)
	}
	return r.Dispatch(ctx, jobID)
}

// Wait blocks until the job is no longer in flight in this process. Returns
// immediately for jobs this runner is not executing.
func (r *Runner) Wait(jobID string) {
	r.mu.Lock()
	done, ok := r.inflight[jobID]
	r.mu.Unlock()
	if !ok {
		return
	}
	<-done
}

// Shutdown waits for all in-flight jobs to finish or pause.
func (r *Runner) Shutdown() {
	r.wg.Wait()
}
