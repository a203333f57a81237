package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	OpenAIName           = "openai"
	openAIDefaultTimeout = 60 * time.Second
)

// OpenAIConfig holds configuration for the OpenAI chat client.
type OpenAIConfig struct {
	APIKey     string
	Model      string        // default gpt-5-mini
	Pricing    Pricing       // Optional override of the model's published rates
	Timeout    time.Duration // HTTP timeout
	BaseURL    string        // Optional (tests, compatible gateways)
	HTTPClient *http.Client  // Optional (tests)
}

// OpenAIClient implements LLMClient using the official OpenAI SDK.
// It never retries; a failed call is reported once.
type OpenAIClient struct {
	apiKey  string
	model   string
	baseURL string
	pricing Pricing // override; zero means the model's published rates
	timeout time.Duration
	client  openai.Client
}

// NewOpenAIClient creates a new OpenAI chat client.
func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = openAIDefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIClient{
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		baseURL: cfg.BaseURL,
		pricing: cfg.Pricing,
		timeout: cfg.Timeout,
		client:  openai.NewClient(opts...),
	}
}

// Name returns the provider identifier.
func (c *OpenAIClient) Name() string {
	return OpenAIName
}

// Model returns the configured default model.
func (c *OpenAIClient) Model() string {
	return c.model
}

// Pricing returns the rates used for cost estimates.
func (c *OpenAIClient) Pricing() Pricing {
	return PricingFor(c.model, c.pricing)
}

// Chat sends a chat completion request and returns usage, cost and, when a
// response format is set, the parsed JSON body.
func (c *OpenAIClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	start := time.Now()

	model := req.Model
	if model == "" {
		model = c.model
	}
	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}

	result := &ChatResult{
		Provider:  OpenAIName,
		ModelUsed: model,
		RequestID: requestID,
	}
	fail := func(errType string, err error) (*ChatResult, error) {
		result.Success = false
		result.ErrorType = errType
		result.ErrorMessage = err.Error()
		result.ExecutionTime = time.Since(start)
		return result, err
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: toOpenAIMessages(req.Messages),
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxTokens))
	}
	if rf := req.ResponseFormat; rf != nil {
		switch rf.Type {
		case "json_schema":
			params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
				OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
					JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
						Name:   "extraction",
						Schema: any(rf.JSONSchema),
					},
				},
			}
		default:
			params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
				OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
			}
		}
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return fail(classifyError(ctx, err), mapOpenAIError(err))
	}

	result.PromptTokens = int(completion.Usage.PromptTokens)
	result.CompletionTokens = int(completion.Usage.CompletionTokens)
	result.TotalTokens = int(completion.Usage.TotalTokens)
	result.CostUSD = PricingFor(model, c.pricing).Cost(result.PromptTokens, result.CompletionTokens)
	if completion.Model != "" {
		result.ModelUsed = completion.Model
	}

	if len(completion.Choices) == 0 {
		return fail(ErrorTypeEmptyResponse, errors.New("completion returned no choices"))
	}
	result.Content = completion.Choices[0].Message.Content
	if strings.TrimSpace(result.Content) == "" {
		return fail(ErrorTypeEmptyResponse, errors.New("completion returned empty content"))
	}

	if req.ResponseFormat != nil {
		parsed, err := parseStructuredJSON(result.Content)
		if err != nil {
			return fail(ErrorTypeMalformedJSON, err)
		}
		result.ParsedJSON = parsed
	}

	result.Success = true
	result.ExecutionTime = time.Since(start)
	return result, nil
}

func toOpenAIMessages(msgs []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case "system":
			out = append(out, openai.SystemMessage(m.Content))
		case "assistant":
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

func classifyError(ctx context.Context, err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return ErrorTypeTimeout
	case errors.Is(err, context.Canceled):
		return ErrorTypeCancelled
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrorTypeTimeout
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return ErrorTypeAPI
	}
	return ErrorTypeTransport
}

func mapOpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return fmt.Errorf("OpenAI error (status %d): %s", apiErr.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("OpenAI error (status %d)", apiErr.StatusCode)
	}
	return err
}

// Verify interface
var _ LLMClient = (*OpenAIClient)(nil)
