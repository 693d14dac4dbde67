package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/foliolabs/folio/internal/api"
	"github.com/foliolabs/folio/internal/ingest"
)

var (
	ingestTitle    string
	ingestAuthor   string
	ingestLanguage string
	ingestNoParse  bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <path>",
	Short: "Register a document and parse it in the foreground",
	Long: `Register a document and run its parse job to completion without a
server. The document is copied into the home directory, parsed, committed
to the database, and indexed.

Use --no-parse to register the document and leave the job queued for a
later "folio parse" or a running server.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		services, cleanup, err := buildServices()
		if err != nil {
			return err
		}
		defer cleanup()

		book, job, err := services.Ingest.Submit(ctx, ingest.Submission{
			Path:     args[0],
			Title:    ingestTitle,
			Author:   ingestAuthor,
			Language: ingestLanguage,
		})
		if err != nil {
			return err
		}

		if !ingestNoParse {
			if err := services.Runner.Dispatch(ctx, job.ID); err != nil {
				return err
			}
			services.Runner.Wait(job.ID)
			job, err = services.Repo.GetJob(ctx, job.ID)
			if err != nil {
				return err
			}
			if job.ErrorMessage != "" {
				return fmt.Errorf("parse failed: %s", job.ErrorMessage)
			}
		}

		return api.Output(map[string]any{
			"book_id": book.ID,
			"job_id":  job.ID,
			"state":   job.State,
		})
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestTitle, "title", "", "document title (defaults to file name)")
	ingestCmd.Flags().StringVar(&ingestAuthor, "author", "", "document author")
	ingestCmd.Flags().StringVar(&ingestLanguage, "language", "", "document language (defaults to en)")
	ingestCmd.Flags().BoolVar(&ingestNoParse, "no-parse", false, "register only, leave the job queued")

	rootCmd.AddCommand(ingestCmd)
}
