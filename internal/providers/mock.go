package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"
)

const MockClientName = "mock"

// MockClient is an LLMClient for testing and offline runs.
type MockClient struct {
	Latency      time.Duration
	ShouldFail   bool
	FailErrType  string // ErrorType reported when ShouldFail; defaults to api_error
	FailAfter    int    // Fail after N requests (0 = never)
	ResponseText string
	ResponseJSON json.RawMessage

	// Token counts reported per call. Zero means estimate from text length.
	PromptTokens     int
	CompletionTokens int

	// Pricing used for CostUSD. Zero means the default model's rates.
	Pricing Pricing
	Model   string

	requestCount atomic.Int64
	lastRequest  atomic.Pointer[ChatRequest]
}

// NewMockClient creates a new mock client with sensible defaults.
func NewMockClient() *MockClient {
	return &MockClient{
		ResponseText: "{}",
		Model:        DefaultModel,
	}
}

// Name returns the client identifier.
func (c *MockClient) Name() string {
	return MockClientName
}

// Chat returns the configured response.
func (c *MockClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	start := time.Now()
	count := c.requestCount.Add(1)
	c.lastRequest.Store(req)

	model := req.Model
	if model == "" {
		model = c.Model
	}
	requestID := req.RequestID
	if requestID == "" {
		requestID = fmt.Sprintf("mock-%d", count)
	}

	result := &ChatResult{
		RequestID: requestID,
		Provider:  MockClientName,
		ModelUsed: model,
	}
	fail := func(errType string, err error) (*ChatResult, error) {
		result.Success = false
		result.ErrorType = errType
		result.ErrorMessage = err.Error()
		result.ExecutionTime = time.Since(start)
		return result, err
	}

	if c.Latency > 0 {
		select {
		case <-time.After(c.Latency):
		case <-ctx.Done():
			errType := ErrorTypeCancelled
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				errType = ErrorTypeTimeout
			}
			return fail(errType, ctx.Err())
		}
	}

	if c.ShouldFail {
		errType := c.FailErrType
		if errType == "" {
			errType = ErrorTypeAPI
		}
		return fail(errType, errors.New("mock client configured to fail"))
	}
	if c.FailAfter > 0 && int(count) > c.FailAfter {
		return fail(ErrorTypeAPI, fmt.Errorf("mock client failed after %d requests", c.FailAfter))
	}

	content := c.ResponseText
	if len(c.ResponseJSON) > 0 {
		content = string(c.ResponseJSON)
	}
	result.Content = content

	result.PromptTokens = c.PromptTokens
	if result.PromptTokens == 0 {
		for _, m := range req.Messages {
			result.PromptTokens += len(m.Content) / 4
		}
	}
	result.CompletionTokens = c.CompletionTokens
	if result.CompletionTokens == 0 {
		result.CompletionTokens = len(content) / 4
	}
	result.TotalTokens = result.PromptTokens + result.CompletionTokens
	result.CostUSD = PricingFor(model, c.Pricing).Cost(result.PromptTokens, result.CompletionTokens)

	if req.ResponseFormat != nil {
		parsed, err := parseStructuredJSON(content)
		if err != nil {
			return fail(ErrorTypeMalformedJSON, err)
		}
		result.ParsedJSON = parsed
	}

	result.Success = true
	result.ExecutionTime = time.Since(start)
	return result, nil
}

// RequestCount returns the number of requests made.
func (c *MockClient) RequestCount() int64 {
	return c.requestCount.Load()
}

// LastRequest returns the most recent request, or nil.
func (c *MockClient) LastRequest() *ChatRequest {
	return c.lastRequest.Load()
}

// Reset resets the request counter.
func (c *MockClient) Reset() {
	c.requestCount.Store(0)
	c.lastRequest.Store(nil)
}

// Verify interface
var _ LLMClient = (*MockClient)(nil)
