package svcctx

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackzampolin/pdfx/internal/config"
	"github.com/jackzampolin/pdfx/internal/testutil"
)

func newManager(t *testing.T, content string) *config.Manager {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	mgr, err := config.NewManager(path)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	return mgr
}

func TestBuild(t *testing.T) {
	mgr := newManager(t, `
llm:
  provider: mock
  history_size: 5
cache:
  max_entries: 3
`)
	svcs, err := Build(mgr, testutil.Logger(t))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if !svcs.Registry.HasLLM(config.DefaultProviderName) {
		t.Errorf("registry = %v, want %q", svcs.Registry.ListLLM(), config.DefaultProviderName)
	}
	if svcs.Extraction == nil || svcs.Batch == nil || svcs.Metrics == nil || svcs.LLMCallStore == nil {
		t.Fatalf("services not wired: %+v", svcs)
	}
	if got := svcs.Extraction.Cache().Stats().MaxEntries; got != 3 {
		t.Errorf("cache MaxEntries = %d, want 3", got)
	}

	ctx := WithServices(context.Background(), svcs)
	if ExtractionFrom(ctx) != svcs.Extraction || BatchFrom(ctx) != svcs.Batch {
		t.Error("extractors returned wrong services")
	}
	if CacheFrom(ctx) != svcs.Extraction.Cache() {
		t.Error("CacheFrom should return the extraction cache")
	}
	if RegistryFrom(ctx) != svcs.Registry || MetricsFrom(ctx) != svcs.Metrics ||
		LLMCallStoreFrom(ctx) != svcs.LLMCallStore || ConfigFrom(ctx) != mgr {
		t.Error("extractors returned wrong services")
	}
}

func TestBuild_NoProvider(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	svcs, err := Build(newManager(t, "llm:\n  provider: openai\n"), testutil.Logger(t))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if svcs.Registry.HasLLM(config.DefaultProviderName) {
		t.Error("openai without an api key should not be registered")
	}
}

func TestBuild_NilManager(t *testing.T) {
	if _, err := Build(nil, nil); err == nil {
		t.Error("expected error")
	}
}

func TestFromEmptyContext(t *testing.T) {
	ctx := context.Background()
	if ServicesFrom(ctx) != nil || ExtractionFrom(ctx) != nil || CacheFrom(ctx) != nil ||
		BatchFrom(ctx) != nil || RegistryFrom(ctx) != nil || MetricsFrom(ctx) != nil ||
		LLMCallStoreFrom(ctx) != nil || ConfigFrom(ctx) != nil {
		t.Error("empty context should yield nil services")
	}
	if LoggerFrom(ctx) == nil {
		t.Error("LoggerFrom should fall back to the default logger")
	}
}
