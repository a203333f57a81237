// Package fields turns document text into schema field values with one
// LLM call.
package fields

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackzampolin/pdfx/internal/llmcall"
	"github.com/jackzampolin/pdfx/internal/metrics"
	"github.com/jackzampolin/pdfx/internal/providers"
	"github.com/jackzampolin/pdfx/internal/schema"
)

// Failure kinds reported by Extract, in addition to the provider error types.
const (
	KindNoClient = "no_client"
)

// DefaultTimeout bounds a single LLM call when no timeout is configured.
const DefaultTimeout = 60 * time.Second

// Failure says why an Outcome carries no data.
type Failure struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Outcome is the result of one extraction call. On failure Values has
// every field absent, Cost is zero and Failure is set.
type Outcome struct {
	Values       schema.Values
	Cost         float64
	Model        string
	InputTokens  int
	OutputTokens int
	RequestID    string
	Failure      *Failure
}

// ClientSource resolves the LLM client at call time so config reloads take
// effect without rebuilding the extractor.
type ClientSource interface {
	GetLLM(name string) (providers.LLMClient, error)
}

// Config configures an Extractor. Either Client or Source must be set.
type Config struct {
	Client   providers.LLMClient
	Source   ClientSource
	Provider string // name looked up in Source

	Model      string        // per-request model override; empty uses the client default
	Timeout    time.Duration // per call; zero means DefaultTimeout
	Structured bool          // request a json_schema response format instead of json_object

	Calls   *llmcall.Store
	Metrics *metrics.Recorder
	Logger  *slog.Logger
}

// Extractor builds the prompt, calls the LLM and normalizes its answer.
type Extractor struct {
	cfg    Config
	logger *slog.Logger
}

// New creates an Extractor.
func New(cfg Config) *Extractor {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{cfg: cfg, logger: logger}
}

// Extract asks the model for the schema's fields in text. It never returns
// an error: every failure degrades to all-absent values with zero cost.
func (e *Extractor) Extract(ctx context.Context, text string, s schema.Schema, label string) Outcome {
	return e.ExtractKeyed(ctx, text, s, label, "")
}

// ExtractKeyed is Extract with a cache key attached to the call records.
func (e *Extractor) ExtractKeyed(ctx context.Context, text string, s schema.Schema, label, cacheKey string) Outcome {
	client, err := e.client()
	if err != nil {
		e.logger.Error("no LLM client available", "provider", e.cfg.Provider, "error", err)
		return failed(s, KindNoClient, err.Error())
	}

	req := &providers.ChatRequest{
		Messages: []providers.Message{
			{Role: "system", Content: SystemPrompt()},
			{Role: "user", Content: UserPrompt(text, s, label)},
		},
		Model:          e.cfg.Model,
		ResponseFormat: &providers.ResponseFormat{Type: "json_object"},
	}
	if e.cfg.Structured {
		req.ResponseFormat = &providers.ResponseFormat{
			Type:       "json_schema",
			JSONSchema: s.OutputJSONSchema(),
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	result, err := client.Chat(callCtx, req)
	if result == nil {
		result = &providers.ChatResult{Provider: client.Name(), ModelUsed: e.cfg.Model}
		if err != nil {
			result.ErrorType = providers.ErrorTypeTransport
			result.ErrorMessage = err.Error()
		}
	}
	var (
		values    schema.Values
		flattened bool
	)
	if err == nil && result.Success {
		var nerr error
		values, flattened, nerr = normalize(s, result.ParsedJSON)
		if nerr != nil {
			result.Success = false
			result.ErrorType = providers.ErrorTypeMalformedJSON
			result.ErrorMessage = nerr.Error()
		}
	}

	e.record(result, label, cacheKey)

	if err != nil || !result.Success {
		kind := result.ErrorType
		if kind == "" {
			kind = providers.ErrorTypeTransport
		}
		msg := result.ErrorMessage
		if msg == "" && err != nil {
			msg = err.Error()
		}
		e.logger.Warn("llm extraction failed",
			"label", label,
			"kind", kind,
			"error", msg,
			"latency_ms", result.ExecutionTime.Milliseconds())
		out := failed(s, kind, msg)
		out.Model = result.ModelUsed
		out.RequestID = result.RequestID
		return out
	}

	if flattened {
		if verr := providers.ValidateStructuredJSON(s.OutputJSONSchema(), result.ParsedJSON); verr != nil {
			e.logger.Warn("llm output does not match field schema", "label", label, "error", verr)
		}
	}

	e.logger.Debug("llm extraction complete",
		"label", label,
		"model", result.ModelUsed,
		"input_tokens", result.PromptTokens,
		"output_tokens", result.CompletionTokens,
		"cost_usd", result.CostUSD,
		"found", values.Found(),
		"fields", s.Len())

	return Outcome{
		Values:       values,
		Cost:         result.CostUSD,
		Model:        result.ModelUsed,
		InputTokens:  result.PromptTokens,
		OutputTokens: result.CompletionTokens,
		RequestID:    result.RequestID,
	}
}

func (e *Extractor) client() (providers.LLMClient, error) {
	if e.cfg.Client != nil {
		return e.cfg.Client, nil
	}
	if e.cfg.Source == nil {
		return nil, errors.New("no LLM client configured")
	}
	return e.cfg.Source.GetLLM(e.cfg.Provider)
}

func (e *Extractor) record(result *providers.ChatResult, label, cacheKey string) {
	if e.cfg.Calls != nil {
		e.cfg.Calls.Record(llmcall.FromChatResult(result, llmcall.RecordOptions{Label: label, CacheKey: cacheKey}))
	}
	e.cfg.Metrics.RecordLLMCall(metrics.RecordOpts{Label: label, CacheKey: cacheKey}, result)
}

func failed(s schema.Schema, kind, msg string) Outcome {
	return Outcome{
		Values:  schema.Absent(s),
		Failure: &Failure{Kind: kind, Message: msg},
	}
}
