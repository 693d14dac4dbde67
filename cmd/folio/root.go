package main

import (
	"github.com/spf13/cobra"

	"github.com/foliolabs/folio/internal/api"
	"github.com/foliolabs/folio/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "folio",
	Short: "Document ingestion service with resumable parsing and full-text search",
	Long: `Folio registers documents, parses them into pages, sections, and blocks,
and builds a full-text index over the result.

Parsing runs as a checkpointed job: progress is flushed in page batches,
so a job can be paused at any batch boundary and resumed later without
re-ingesting pages it already committed.

The pipeline phases:
  - precheck     - locate the source and count pages
  - parse        - run the parsing engine over the document
  - db_ingestion - commit pages, sections, blocks, and assets in batches
  - indexing     - build the full-text index from committed blocks`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.folio/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "folio home directory (default: ~/.folio)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}
