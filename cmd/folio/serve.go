package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/foliolabs/folio/internal/server"
)

var (
	serveHost string
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Folio server",
	Long: `Start the Folio HTTP server.

Submitted documents are parsed in the background; poll /jobs/{id} for
progress, or pause and resume jobs while the server runs.

Examples:
  folio serve                    # Start on the configured port (default 8765)
  folio serve --port 3000        # Start on a custom port
  folio serve --host 0.0.0.0     # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		services, cleanup, err := buildServices()
		if err != nil {
			return err
		}
		defer cleanup()

		cfg := services.Config.Get()
		host := serveHost
		if host == "" {
			host = cfg.Server.Host
		}
		port := servePort
		if port == "" {
			port = strconv.Itoa(cfg.Server.Port)
		}

		// Pick up config edits without a restart.
		services.Config.WatchConfig()

		srv, err := server.New(server.Config{
			Host:     host,
			Port:     port,
			Services: services,
			Logger:   services.Logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (default from config)")
	serveCmd.Flags().StringVar(&servePort, "port", "", "Port to listen on (default from config)")

	rootCmd.AddCommand(serveCmd)
}
