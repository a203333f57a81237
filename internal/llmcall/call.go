// Package llmcall provides LLM call recording and querying for traceability.
// Every LLM API call is recorded with its label, response, and usage.
package llmcall

import (
	"time"

	"github.com/jackzampolin/pdfx/internal/providers"
)

// Call represents a recorded LLM API call.
type Call struct {
	ID string `json:"id"`

	// Timing
	Timestamp time.Time `json:"timestamp"`
	LatencyMs int       `json:"latency_ms"`

	// Context references
	Label    string `json:"label,omitempty"`
	CacheKey string `json:"cache_key,omitempty"`

	// Model info
	Provider string `json:"provider"`
	Model    string `json:"model"`

	// Token usage
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	CostUSD      float64 `json:"cost_usd"`

	Response string `json:"response"`

	// Status
	Success   bool   `json:"success"`
	ErrorType string `json:"error_type,omitempty"`
	Error     string `json:"error,omitempty"`
}

// RecordOptions provides context for recording an LLM call.
type RecordOptions struct {
	Label    string
	CacheKey string
}

// FromChatResult creates a Call from a ChatResult.
// Returns nil if result is nil.
func FromChatResult(result *providers.ChatResult, opts RecordOptions) *Call {
	if result == nil {
		return nil
	}

	call := &Call{
		ID:           result.RequestID,
		Timestamp:    time.Now(),
		LatencyMs:    int(result.ExecutionTime.Milliseconds()),
		Label:        opts.Label,
		CacheKey:     opts.CacheKey,
		Provider:     result.Provider,
		Model:        result.ModelUsed,
		InputTokens:  result.PromptTokens,
		OutputTokens: result.CompletionTokens,
		CostUSD:      result.CostUSD,
		Response:     result.Content,
		Success:      result.Success,
	}

	if !result.Success {
		call.ErrorType = result.ErrorType
		call.Error = result.ErrorMessage
	}

	return call
}
