package main

import (
	"github.com/spf13/cobra"

	"github.com/foliolabs/folio/internal/api"
	"github.com/foliolabs/folio/internal/index"
)

var (
	searchBook  string
	searchLimit int
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text search over indexed documents",
	Long: `Search the local full-text index. By default all documents are
searched; restrict to one document with --book.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		services, cleanup, err := buildServices()
		if err != nil {
			return err
		}
		defer cleanup()

		var hits []index.Hit
		if searchBook != "" {
			hits, err = services.Index.SearchBook(ctx, searchBook, args[0], searchLimit)
		} else {
			hits, err = services.Index.Search(ctx, args[0], searchLimit)
		}
		if err != nil {
			return err
		}
		return api.Output(hits)
	},
}

func init() {
	searchCmd.Flags().StringVar(&searchBook, "book", "", "restrict matches to one book id")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 20, "maximum number of hits")

	rootCmd.AddCommand(searchCmd)
}
