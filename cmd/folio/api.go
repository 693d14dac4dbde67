package main

import (
	"github.com/spf13/cobra"

	"github.com/foliolabs/folio/internal/server/endpoints"
)

var serverURL string

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Commands that call the running server",
	Long: `API commands call the running Folio server via HTTP.

These commands require a running server (folio serve).
Use --server to specify a custom server URL.

Examples:
  folio api health                        # Check server health
  folio api documents list                # List registered documents
  folio api documents submit book.pdf     # Submit a document for parsing
  folio api jobs get <id>                 # Inspect a parse job`,
}

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "Document management commands",
}

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Parse job management commands",
}

// getServerURL returns the server URL at runtime (after flag parsing).
func getServerURL() string {
	return serverURL
}

func init() {
	// Add --server flag to api command (persistent so all subcommands inherit it)
	apiCmd.PersistentFlags().StringVar(
		&serverURL, "server", "http://localhost:8765", "Server URL",
	)

	// Health at top level of api
	apiCmd.AddCommand((&endpoints.HealthEndpoint{}).Command(getServerURL))

	// Documents as subcommand group
	documentsCmd.AddCommand((&endpoints.DocumentsSubmitEndpoint{}).Command(getServerURL))
	documentsCmd.AddCommand((&endpoints.DocumentsListEndpoint{}).Command(getServerURL))
	documentsCmd.AddCommand((&endpoints.DocumentsGetEndpoint{}).Command(getServerURL))
	documentsCmd.AddCommand((&endpoints.PageParsedEndpoint{}).Command(getServerURL))
	documentsCmd.AddCommand((&endpoints.DocumentSearchEndpoint{}).Command(getServerURL))

	// Jobs as subcommand group
	jobsCmd.AddCommand((&endpoints.JobsGetEndpoint{}).Command(getServerURL))
	jobsCmd.AddCommand((&endpoints.JobPauseEndpoint{}).Command(getServerURL))
	jobsCmd.AddCommand((&endpoints.JobResumeEndpoint{}).Command(getServerURL))
	jobsCmd.AddCommand((&endpoints.JobCancelEndpoint{}).Command(getServerURL))

	apiCmd.AddCommand(documentsCmd)
	apiCmd.AddCommand(jobsCmd)
	rootCmd.AddCommand(apiCmd)
}
