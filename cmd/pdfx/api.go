package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/pdfx/internal/server/endpoints"
)

var serverURL string

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Commands that call the running server",
	Long: `API commands call the running pdfx server via HTTP.

These commands require a running server (pdfx serve).
Use --server to specify a custom server URL.

Examples:
  pdfx api health                                   # Check server health
  pdfx api extract invoice.pdf --schema-file s.json # Extract on the server
  pdfx api cache stats                              # Cache hit/miss counters
  pdfx api llmcalls list --label invoice            # Recent LLM calls`,
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Result cache commands",
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Metrics and cost tracking commands",
}

var llmcallsCmd = &cobra.Command{
	Use:   "llmcalls",
	Short: "LLM call history commands",
}

// getServerURL returns the server URL at runtime (after flag parsing).
func getServerURL() string {
	return serverURL
}

func init() {
	// Add --server flag to api command (persistent so all subcommands inherit it)
	apiCmd.PersistentFlags().StringVar(
		&serverURL, "server", "http://localhost:8000", "Server URL",
	)

	// Health and extraction at top level of api
	apiCmd.AddCommand((&endpoints.HealthEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.StatusEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.ExtractEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.ExtractBatchEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.SwaggerEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.SwaggerUIEndpoint{}).Command(getServerURL))

	// Cache as subcommand group
	cacheCmd.AddCommand((&endpoints.CacheStatsEndpoint{}).Command(getServerURL))
	cacheCmd.AddCommand((&endpoints.CacheClearEndpoint{}).Command(getServerURL))

	// Metrics as subcommand group
	metricsCmd.AddCommand((&endpoints.MetricsSummaryEndpoint{}).Command(getServerURL))
	metricsCmd.AddCommand((&endpoints.ListMetricsEndpoint{}).Command(getServerURL))
	metricsCmd.AddCommand((&endpoints.DetailedMetricsEndpoint{}).Command(getServerURL))
	metricsCmd.AddCommand((&endpoints.ResetMetricsEndpoint{}).Command(getServerURL))

	// LLM calls as subcommand group
	llmcallsCmd.AddCommand((&endpoints.ListLLMCallsEndpoint{}).Command(getServerURL))
	llmcallsCmd.AddCommand((&endpoints.GetLLMCallEndpoint{}).Command(getServerURL))
	llmcallsCmd.AddCommand((&endpoints.LLMCallCountsEndpoint{}).Command(getServerURL))

	apiCmd.AddCommand(cacheCmd)
	apiCmd.AddCommand(metricsCmd)
	apiCmd.AddCommand(llmcallsCmd)
	rootCmd.AddCommand(apiCmd)
}
