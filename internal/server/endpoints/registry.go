package endpoints

import (
	"github.com/jackzampolin/pdfx/internal/api"
)

// Config holds dependencies needed by some endpoints.
type Config struct {
	// MaxUploadBytes bounds request bodies for /extract and /extract-batch.
	MaxUploadBytes int64
}

// All returns all endpoint instances.
func All(cfg Config) []api.Endpoint {
	return []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},
		&StatusEndpoint{},

		// Extraction endpoints
		&ExtractEndpoint{MaxUploadBytes: cfg.MaxUploadBytes},
		&ExtractBatchEndpoint{MaxBodyBytes: cfg.MaxUploadBytes},

		// Cache endpoints
		&CacheStatsEndpoint{},
		&CacheClearEndpoint{},

		// Metrics endpoints
		&MetricsSummaryEndpoint{},
		&ListMetricsEndpoint{},
		&DetailedMetricsEndpoint{},
		&ResetMetricsEndpoint{},

		// LLM call history endpoints
		&ListLLMCallsEndpoint{},
		&LLMCallCountsEndpoint{},
		&GetLLMCallEndpoint{},

		// Swagger endpoints
		&SwaggerEndpoint{},
		&SwaggerUIEndpoint{},

		// Static frontend (must be last - catches all unmatched GET requests)
		&StaticEndpoint{},
	}
}
