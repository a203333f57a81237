// Package metrics provides cost and usage tracking for extraction requests
// and the LLM calls they make.
package metrics

import (
	"time"

	"github.com/jackzampolin/pdfx/internal/providers"
)

// Metric represents a single recorded LLM call with its attribution.
// Metrics are append-only and held in memory.
type Metric struct {
	// Attribution
	Label    string `json:"label,omitempty"`
	CacheKey string `json:"cache_key,omitempty"`

	// Provider info
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`

	// Cost and tokens
	CostUSD          float64 `json:"cost_usd,omitempty"`
	PromptTokens     int     `json:"prompt_tokens,omitempty"`
	CompletionTokens int     `json:"completion_tokens,omitempty"`
	TotalTokens      int     `json:"total_tokens,omitempty"`

	ExecutionSeconds float64 `json:"execution_seconds,omitempty"`

	// Status
	Success   bool   `json:"success"`
	ErrorType string `json:"error_type,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// RecordOpts provides context for a metric recording.
type RecordOpts struct {
	Label    string
	CacheKey string
}

// FromChatResult builds a Metric from a provider result.
func FromChatResult(opts RecordOpts, result *providers.ChatResult) Metric {
	return Metric{
		Label:            opts.Label,
		CacheKey:         opts.CacheKey,
		Provider:         result.Provider,
		Model:            result.ModelUsed,
		CostUSD:          result.CostUSD,
		PromptTokens:     result.PromptTokens,
		CompletionTokens: result.CompletionTokens,
		TotalTokens:      result.TotalTokens,
		ExecutionSeconds: result.ExecutionTime.Seconds(),
		Success:          result.Success,
		ErrorType:        result.ErrorType,
		CreatedAt:        time.Now(),
	}
}
