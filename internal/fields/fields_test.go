package fields

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/jackzampolin/pdfx/internal/llmcall"
	"github.com/jackzampolin/pdfx/internal/metrics"
	"github.com/jackzampolin/pdfx/internal/providers"
	"github.com/jackzampolin/pdfx/internal/schema"
)

func invoiceSchema(t *testing.T) schema.Schema {
	t.Helper()
	s, err := schema.Parse([]byte(`{"invoice_number":"Invoice number","total":"Total amount"}`))
	if err != nil {
		t.Fatalf("schema.Parse() error = %v", err)
	}
	return s
}

func TestUserPrompt(t *testing.T) {
	s := invoiceSchema(t)

	t.Run("with label", func(t *testing.T) {
		got := UserPrompt("Invoice #1234", s, "invoice")
		want := "Extract the following fields from this text. Return JSON only.\n" +
			"Document type (label): invoice\n" +
			"\n\nFields to extract:\n" +
			"\"invoice_number\": Invoice number\n" +
			"\"total\": Total amount\n" +
			"\nText:\nInvoice #1234"
		if got != want {
			t.Errorf("UserPrompt() =\n%q\nwant\n%q", got, want)
		}
	})

	t.Run("without label", func(t *testing.T) {
		got := UserPrompt("body", s, "")
		if !strings.HasPrefix(got, "Extract the following fields from this text. Return JSON only.\n\nFields to extract:\n") {
			t.Errorf("unexpected prefix: %q", got)
		}
		if strings.Contains(got, "Document type") {
			t.Error("label line should be omitted")
		}
	})

	t.Run("text is not escaped or truncated", func(t *testing.T) {
		text := strings.Repeat("<a & b>", 10000)
		if got := UserPrompt(text, s, ""); !strings.HasSuffix(got, text) {
			t.Error("text should be appended verbatim")
		}
	})

	if !strings.Contains(SystemPrompt(), "return null for that field") {
		t.Errorf("SystemPrompt() = %q", SystemPrompt())
	}
}

func TestNormalize(t *testing.T) {
	s, _ := schema.New(
		schema.Field{Name: "a", Description: "a"},
		schema.Field{Name: "b", Description: "b"},
		schema.Field{Name: "c", Description: "c"},
	)

	tests := []struct {
		name      string
		parsed    string
		want      map[string]*string
		flattened bool
		wantErr   bool
	}{
		{
			name:   "strings and missing",
			parsed: `{"a":"x","b":""}`,
			want:   map[string]*string{"a": schema.String("x"), "b": schema.String(""), "c": nil},
		},
		{
			name:   "null and invented fields",
			parsed: `{"a":null,"zzz":"dropped"}`,
			want:   map[string]*string{"a": nil, "b": nil, "c": nil},
		},
		{
			name:   "numbers and booleans keep JSON text",
			parsed: `{"a":56.78,"b":true,"c":12345678901234567890}`,
			want:   map[string]*string{"a": schema.String("56.78"), "b": schema.String("true"), "c": schema.String("12345678901234567890")},
		},
		{
			name:      "nested values are flattened",
			parsed:    `{"a":{"x": 1},"b":[1, 2]}`,
			want:      map[string]*string{"a": schema.String(`{"x":1}`), "b": schema.String(`[1,2]`), "c": nil},
			flattened: true,
		},
		{name: "array top level", parsed: `["a"]`, wantErr: true},
		{name: "string top level", parsed: `"a"`, wantErr: true},
		{name: "empty", parsed: ``, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, flattened, err := normalize(s, json.RawMessage(tt.parsed))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("normalize() error = %v", err)
			}
			if flattened != tt.flattened {
				t.Errorf("flattened = %v, want %v", flattened, tt.flattened)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d fields, want %d", len(got), len(tt.want))
			}
			for k, want := range tt.want {
				p, ok := got[k]
				if !ok {
					t.Errorf("field %q missing", k)
					continue
				}
				if (p == nil) != (want == nil) || (p != nil && *p != *want) {
					t.Errorf("field %q = %v, want %v", k, deref(p), deref(want))
				}
			}
		})
	}
}

func deref(p *string) string {
	if p == nil {
		return "<absent>"
	}
	return *p
}

func TestExtractor_Success(t *testing.T) {
	mock := providers.NewMockClient()
	mock.ResponseJSON = json.RawMessage(`{"invoice_number":"1234","total":"56.78","extra":"x"}`)
	mock.PromptTokens, mock.CompletionTokens = 100, 20

	calls := llmcall.NewStore(10)
	rec := metrics.NewRecorder(10)
	ex := New(Config{Client: mock, Calls: calls, Metrics: rec})

	out := ex.Extract(context.Background(), "Invoice #1234, Total: $56.78", invoiceSchema(t), "invoice")
	if out.Failure != nil {
		t.Fatalf("unexpected failure: %+v", out.Failure)
	}
	if math.Abs(out.Cost-0.0000135) > 1e-12 {
		t.Errorf("Cost = %v, want 0.0000135", out.Cost)
	}
	if v, _ := out.Values.Get("invoice_number"); v != "1234" {
		t.Errorf("invoice_number = %q", v)
	}
	if _, ok := out.Values["extra"]; ok {
		t.Error("invented field should be dropped")
	}
	if out.InputTokens != 100 || out.OutputTokens != 20 {
		t.Errorf("tokens = %d/%d", out.InputTokens, out.OutputTokens)
	}

	req := mock.LastRequest()
	if req == nil || req.ResponseFormat == nil || req.ResponseFormat.Type != "json_object" {
		t.Fatalf("request = %+v", req)
	}
	if !strings.Contains(req.Messages[1].Content, "Document type (label): invoice") {
		t.Error("label hint missing from prompt")
	}

	if got := calls.List(llmcall.QueryFilter{}); len(got) != 1 || got[0].Label != "invoice" || !got[0].Success {
		t.Errorf("recorded calls = %+v", got)
	}
	if s := rec.Summary(); s.LLMCalls != 1 || s.LLMFailures != 0 {
		t.Errorf("metrics = %+v", s)
	}
}

func TestExtractor_Failures(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(m *providers.MockClient)
		timeout  time.Duration
		wantKind string
	}{
		{
			name:     "provider error",
			setup:    func(m *providers.MockClient) { m.ShouldFail = true },
			wantKind: providers.ErrorTypeAPI,
		},
		{
			name:     "malformed json",
			setup:    func(m *providers.MockClient) { m.ResponseText = "sorry, I cannot help" },
			wantKind: providers.ErrorTypeMalformedJSON,
		},
		{
			name:     "non-object json",
			setup:    func(m *providers.MockClient) { m.ResponseJSON = json.RawMessage(`["1234"]`) },
			wantKind: providers.ErrorTypeMalformedJSON,
		},
		{
			name:     "timeout",
			setup:    func(m *providers.MockClient) { m.Latency = time.Second },
			timeout:  20 * time.Millisecond,
			wantKind: providers.ErrorTypeTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := providers.NewMockClient()
			mock.PromptTokens, mock.CompletionTokens = 100, 20
			tt.setup(mock)

			rec := metrics.NewRecorder(10)
			ex := New(Config{Client: mock, Timeout: tt.timeout, Metrics: rec})
			s := invoiceSchema(t)

			out := ex.Extract(context.Background(), "text", s, "")
			if out.Failure == nil {
				t.Fatal("expected failure")
			}
			if out.Failure.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q (%s)", out.Failure.Kind, tt.wantKind, out.Failure.Message)
			}
			if out.Cost != 0 {
				t.Errorf("Cost = %v, want 0", out.Cost)
			}
			if len(out.Values) != s.Len() || out.Values.Found() != 0 {
				t.Errorf("Values = %v, want all absent", out.Values)
			}
			if got := rec.Summary().LLMFailures; got != 1 {
				t.Errorf("LLMFailures = %d, want 1", got)
			}
		})
	}
}

func TestExtractor_NoClient(t *testing.T) {
	ex := New(Config{Source: providers.NewRegistry(), Provider: "missing"})
	out := ex.Extract(context.Background(), "text", invoiceSchema(t), "")
	if out.Failure == nil || out.Failure.Kind != KindNoClient {
		t.Fatalf("Failure = %+v", out.Failure)
	}
}

func TestExtractor_SourceAndStructured(t *testing.T) {
	mock := providers.NewMockClient()
	mock.ResponseJSON = json.RawMessage(`{"invoice_number":{"n":"1234"}}`)

	reg := providers.NewRegistry()
	reg.SetLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	reg.RegisterLLM("default", mock)

	var logs bytes.Buffer
	ex := New(Config{
		Source:     reg,
		Provider:   "default",
		Structured: true,
		Logger:     slog.New(slog.NewTextHandler(&logs, nil)),
	})

	out := ex.Extract(context.Background(), "text", invoiceSchema(t), "")
	if out.Failure != nil {
		t.Fatalf("unexpected failure: %+v", out.Failure)
	}
	if v, _ := out.Values.Get("invoice_number"); v != `{"n":"1234"}` {
		t.Errorf("invoice_number = %q", v)
	}
	if req := mock.LastRequest(); req.ResponseFormat.Type != "json_schema" || len(req.ResponseFormat.JSONSchema) == 0 {
		t.Errorf("ResponseFormat = %+v", req.ResponseFormat)
	}
	if !strings.Contains(logs.String(), "does not match field schema") {
		t.Errorf("expected schema mismatch warning, logs: %s", logs.String())
	}
}
