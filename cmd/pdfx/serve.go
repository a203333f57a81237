package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/pdfx/internal/server"
)

var (
	serveHost string
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the pdfx server",
	Long: `Start the pdfx HTTP server.

The server provides:
  - POST /extract        - Extract fields from an uploaded PDF
  - POST /extract-batch  - Extract fields from PDFs on the server's disk, serially
  - /health, /status     - Liveness and provider status
  - /api/cache, /api/metrics, /api/llmcalls - Cache and usage inspection
  - /swagger             - API documentation

Host and port default to the server section of the config file.
The config file is watched; LLM settings changes apply without a restart.

Examples:
  pdfx serve                    # Start on 0.0.0.0:8000
  pdfx serve --port 3000        # Start on custom port
  pdfx serve --host 127.0.0.1   # Bind to loopback only`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger(os.Stdout)

		mgr, err := loadConfig()
		if err != nil {
			return err
		}

		srv, err := server.New(server.Config{
			Host:          serveHost,
			Port:          servePort,
			ConfigManager: mgr,
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (default from config: 0.0.0.0)")
	serveCmd.Flags().StringVar(&servePort, "port", "", "Port to listen on (default from config: 8000)")

	rootCmd.AddCommand(serveCmd)
}
