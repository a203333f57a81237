package providers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// chatServer returns a fake chat completions endpoint that answers with
// content and the given usage.
func chatServer(t *testing.T, status int, content string, promptTokens, completionTokens int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		var req map[string]any
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("request body is not JSON: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"upstream broke","type":"server_error"}}`))
			return
		}
		resp := map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": time.Now().Unix(),
			"model":   "gpt-5-mini",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
			"usage": map[string]any{
				"prompt_tokens":     promptTokens,
				"completion_tokens": completionTokens,
				"total_tokens":      promptTokens + completionTokens,
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func jsonRequest() *ChatRequest {
	return &ChatRequest{
		Messages:       []Message{{Role: "system", Content: "extract"}, {Role: "user", Content: "text"}},
		ResponseFormat: &ResponseFormat{Type: "json_object"},
	}
}

func TestOpenAIClient_Chat(t *testing.T) {
	srv := chatServer(t, http.StatusOK, `{"invoice_number":"1234","total":"56.78"}`, 100, 20)
	client := NewOpenAIClient(OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL})

	result, err := client.Chat(context.Background(), jsonRequest())
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if !result.Success {
		t.Fatalf("Success = false: %s", result.ErrorMessage)
	}
	if result.PromptTokens != 100 || result.CompletionTokens != 20 || result.TotalTokens != 120 {
		t.Errorf("tokens = %d/%d/%d, want 100/20/120", result.PromptTokens, result.CompletionTokens, result.TotalTokens)
	}
	if math.Abs(result.CostUSD-0.0000135) > 1e-12 {
		t.Errorf("CostUSD = %v, want 0.0000135", result.CostUSD)
	}
	if string(result.ParsedJSON) != `{"invoice_number":"1234","total":"56.78"}` {
		t.Errorf("ParsedJSON = %s", result.ParsedJSON)
	}
	if result.RequestID == "" {
		t.Error("RequestID should be generated")
	}
}

func TestOpenAIClient_ChatFailures(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		content  string
		wantType string
	}{
		{name: "malformed json", status: http.StatusOK, content: "not json at all", wantType: ErrorTypeMalformedJSON},
		{name: "empty content", status: http.StatusOK, content: "", wantType: ErrorTypeEmptyResponse},
		{name: "server error", status: http.StatusInternalServerError, wantType: ErrorTypeAPI},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := chatServer(t, tt.status, tt.content, 10, 5)
			client := NewOpenAIClient(OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL})

			result, err := client.Chat(context.Background(), jsonRequest())
			if err == nil {
				t.Fatal("expected error")
			}
			if result == nil || result.Success {
				t.Fatal("expected unsuccessful result")
			}
			if result.ErrorType != tt.wantType {
				t.Errorf("ErrorType = %q, want %q", result.ErrorType, tt.wantType)
			}
		})
	}
}

func TestOpenAIClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	client := NewOpenAIClient(OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	result, err := client.Chat(ctx, jsonRequest())
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if result.ErrorType != ErrorTypeTimeout {
		t.Errorf("ErrorType = %q, want %q (err=%v)", result.ErrorType, ErrorTypeTimeout, err)
	}
}

func TestMockClient(t *testing.T) {
	t.Run("configured tokens drive cost", func(t *testing.T) {
		m := NewMockClient()
		m.ResponseJSON = json.RawMessage(`{"a":"b"}`)
		m.PromptTokens, m.CompletionTokens = 100, 20

		result, err := m.Chat(context.Background(), jsonRequest())
		if err != nil {
			t.Fatalf("Chat() error = %v", err)
		}
		if math.Abs(result.CostUSD-0.0000135) > 1e-12 {
			t.Errorf("CostUSD = %v", result.CostUSD)
		}
		if m.RequestCount() != 1 {
			t.Errorf("RequestCount() = %d", m.RequestCount())
		}
	})

	t.Run("should fail", func(t *testing.T) {
		m := NewMockClient()
		m.ShouldFail = true
		result, err := m.Chat(context.Background(), jsonRequest())
		if err == nil || result.ErrorType != ErrorTypeAPI {
			t.Errorf("got err=%v type=%q", err, result.ErrorType)
		}
	})

	t.Run("latency honours deadline", func(t *testing.T) {
		m := NewMockClient()
		m.Latency = time.Second
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		result, err := m.Chat(ctx, jsonRequest())
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("err = %v, want deadline exceeded", err)
		}
		if result.ErrorType != ErrorTypeTimeout {
			t.Errorf("ErrorType = %q", result.ErrorType)
		}
	})
}
