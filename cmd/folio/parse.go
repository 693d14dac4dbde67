package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/foliolabs/folio/internal/api"
	"github.com/foliolabs/folio/internal/model"
)

var parseCmd = &cobra.Command{
	Use:   "parse <job-id>",
	Short: "Run a queued or paused parse job in the foreground",
	Long: `Run a parse job to completion without a server. A paused job resumes
from its page checkpoint; pages committed before the pause are not
re-ingested.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		jobID := args[0]

		services, cleanup, err := buildServices()
		if err != nil {
			return err
		}
		defer cleanup()

		job, err := services.Repo.GetJob(ctx, jobID)
		if err != nil {
			return err
		}
		if job.State.Terminal() {
			return fmt.Errorf("job %s already finished in state %s", jobID, job.State)
		}

		// A paused job goes through Resume so the runner re-validates the
		// transition; anything else dispatches directly.
		if job.State == model.JobStatePaused {
			err = services.Runner.Resume(ctx, jobID)
		} else {
			err = services.Runner.Dispatch(ctx, jobID)
		}
		if err != nil {
			return err
		}
		services.Runner.Wait(jobID)

		job, err = services.Repo.GetJob(ctx, jobID)
		if err != nil {
			return err
		}
		if job.ErrorMessage != "" {
			return fmt.Errorf("parse failed: %s", job.ErrorMessage)
		}
		return api.Output(job)
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)
}
