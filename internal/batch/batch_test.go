package batch

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackzampolin/pdfx/internal/extraction"
	"github.com/jackzampolin/pdfx/internal/schema"
	"github.com/jackzampolin/pdfx/internal/testutil"
)

// recordingExtractor returns a fixed cost and records call order and
// overlap.
type recordingExtractor struct {
	mu      sync.Mutex
	docs    []string
	active  atomic.Int32
	overlap atomic.Bool
	delay   time.Duration
	panicOn string
}

func (e *recordingExtractor) Extract(_ context.Context, doc []byte, s schema.Schema, _ string) extraction.Result {
	if e.active.Add(1) > 1 {
		e.overlap.Store(true)
	}
	defer e.active.Add(-1)

	if string(doc) == e.panicOn {
		panic("boom")
	}
	time.Sleep(e.delay)

	e.mu.Lock()
	e.docs = append(e.docs, string(doc))
	e.mu.Unlock()

	v := schema.Absent(s)
	for _, n := range s.Names() {
		v[n] = schema.String(string(doc))
	}
	return extraction.Result{ExtractedData: schema.NewRecord(s, v), Cost: 0.5, ProcessingTime: 0.01}
}

func TestParseItems(t *testing.T) {
	t.Run("not an array", func(t *testing.T) {
		for _, in := range []string{`{"requests":[]}`, ``, `"x"`} {
			if _, err := ParseItems([]byte(in)); !errors.Is(err, ErrNotArray) {
				t.Errorf("ParseItems(%q) error = %v, want ErrNotArray", in, err)
			}
		}
	})

	t.Run("malformed items keep their slot", func(t *testing.T) {
		items, err := ParseItems([]byte(`[
			{"label":"a","extraction_schema":{"x":"y"},"pdf_path":"a.pdf"},
			{"label":"b","extraction_schema":"not-an-object","pdf_path":"b.pdf"},
			42,
			{"label":"d","pdf_path":"d.pdf"},
			{"label":"e","extraction_schema":{"x":"y"}}
		]`))
		if err != nil {
			t.Fatalf("ParseItems() error = %v", err)
		}
		if len(items) != 5 {
			t.Fatalf("got %d items, want 5", len(items))
		}
		if err := items[0].Validate(); err != nil {
			t.Errorf("item 0 Validate() = %v", err)
		}
		for i := 1; i < 5; i++ {
			if err := items[i].Validate(); err == nil {
				t.Errorf("item %d should be invalid", i)
			}
		}
		if !strings.Contains(items[4].Validate().Error(), "pdf_path") {
			t.Errorf("item 4 error should name pdf_path: %v", items[4].Validate())
		}
	})
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteFile(t, dir, "batch.json", []byte(`[{"label":"inv","extraction_schema":{"a":"b"},"pdf_path":"x.pdf"}]`))

	items, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if len(items) != 1 || items[0].Label != "inv" || items[0].Schema.Len() != 1 {
		t.Errorf("items = %+v", items)
	}

	if _, err := LoadFile(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestRunner_MissingItemIsolated(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "one.pdf", []byte("one"))
	testutil.WriteFile(t, dir, "three.pdf", []byte("three"))

	s, _ := schema.New(schema.Field{Name: "f", Description: "d"})
	items := []Item{
		{Label: "first", Schema: s, PDFPath: "one.pdf"},
		{Label: "second", Schema: s, PDFPath: "missing.pdf"},
		{Schema: s, PDFPath: "three.pdf"},
	}

	ext := &recordingExtractor{delay: 5 * time.Millisecond}
	var progress []int
	runner := NewRunner(ext, Config{
		BaseDir: dir,
		Logger:  testutil.Logger(t),
		OnItem:  func(i, n int, _ ItemResult) { progress = append(progress, i) },
	})

	report := runner.Run(context.Background(), items)

	if len(report.Results) != 3 {
		t.Fatalf("got %d results, want 3", len(report.Results))
	}
	if got := strings.Join(ext.docs, ","); got != "one,three" {
		t.Errorf("processing order = %s", got)
	}
	if ext.overlap.Load() {
		t.Error("items overlapped")
	}

	second := report.Results[1]
	if second.OK() || !strings.Contains(second.Error, "PDF not found") {
		t.Errorf("second = %+v", second)
	}
	if second.Cost != 0 || second.ProcessingTime != 0 || second.CacheHit {
		t.Errorf("failed item should have zero cost/time: %+v", second)
	}
	if v, ok := second.ExtractedData.Lookup("f"); !ok || v != nil {
		t.Errorf("failed item data = %v, want f absent", second.ExtractedData)
	}

	if report.Results[2].Label != "unknown" {
		t.Errorf("unlabelled item label = %q", report.Results[2].Label)
	}
	if report.TotalCost != 1.0 {
		t.Errorf("TotalCost = %v, want 1.0", report.TotalCost)
	}
	want := Summary{TotalDocuments: 3, Successful: 2, Failed: 1}
	if report.Summary != want {
		t.Errorf("Summary = %+v, want %+v", report.Summary, want)
	}
	if len(progress) != 3 || progress[2] != 3 {
		t.Errorf("progress = %v", progress)
	}
	if report.TotalTime <= 0 {
		t.Error("TotalTime should be positive")
	}
}

func TestRunner_PathResolution(t *testing.T) {
	base := t.TempDir()
	other := t.TempDir()
	testutil.WriteFile(t, base, "a.pdf", []byte("base"))
	abs := testutil.WriteFile(t, other, "b.pdf", []byte("abs"))

	s, _ := schema.New(schema.Field{Name: "f", Description: "d"})
	ext := &recordingExtractor{}
	runner := NewRunner(ext, Config{BaseDir: base, Logger: testutil.Logger(t)})

	report := runner.Run(context.Background(), []Item{
		{Schema: s, PDFPath: "a.pdf"},
		{Schema: s, PDFPath: abs},
		{Schema: s, PDFPath: filepath.Join(other, "nope.pdf")},
	})

	if !report.Results[0].OK() || !report.Results[1].OK() {
		t.Fatalf("results = %+v", report.Results)
	}
	if report.Results[2].OK() {
		t.Error("missing absolute path should fail")
	}
	if got := strings.Join(ext.docs, ","); got != "base,abs" {
		t.Errorf("docs = %s", got)
	}
}

func TestRunner_PanicIsolated(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "bad.pdf", []byte("bad"))
	testutil.WriteFile(t, dir, "good.pdf", []byte("good"))

	s, _ := schema.New(schema.Field{Name: "f", Description: "d"})
	runner := NewRunner(&recordingExtractor{panicOn: "bad"}, Config{BaseDir: dir, Logger: testutil.Logger(t)})
	report := runner.Run(context.Background(), []Item{
		{Schema: s, PDFPath: "bad.pdf"},
		{Schema: s, PDFPath: "good.pdf"},
	})

	if report.Results[0].OK() || !strings.Contains(report.Results[0].Error, "internal error") {
		t.Errorf("panicking item = %+v", report.Results[0])
	}
	if !report.Results[1].OK() {
		t.Errorf("next item should still run: %+v", report.Results[1])
	}
}

func TestRunner_Cancelled(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "a.pdf", []byte("a"))
	s, _ := schema.New(schema.Field{Name: "f", Description: "d"})

	ctx, cancel := context.WithCancel(context.Background())
	runner := NewRunner(&recordingExtractor{}, Config{
		BaseDir: dir,
		Logger:  testutil.Logger(t),
		OnItem: func(i, _ int, _ ItemResult) {
			if i == 1 {
				cancel()
			}
		},
	})

	report := runner.Run(ctx, []Item{
		{Schema: s, PDFPath: "a.pdf"},
		{Schema: s, PDFPath: "a.pdf"},
		{Schema: s, PDFPath: "a.pdf"},
	})
	if len(report.Results) != 3 {
		t.Fatalf("got %d results", len(report.Results))
	}
	if !report.Results[0].OK() {
		t.Error("first item should complete")
	}
	for _, r := range report.Results[1:] {
		if !strings.HasPrefix(r.Error, "cancelled") {
			t.Errorf("remaining item error = %q", r.Error)
		}
	}
}
