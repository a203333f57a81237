package extraction

import (
	"context"
	"encoding/json"
	"math"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackzampolin/pdfx/internal/cache"
	"github.com/jackzampolin/pdfx/internal/fields"
	"github.com/jackzampolin/pdfx/internal/metrics"
	"github.com/jackzampolin/pdfx/internal/pdftext"
	"github.com/jackzampolin/pdfx/internal/providers"
	"github.com/jackzampolin/pdfx/internal/schema"
	"github.com/jackzampolin/pdfx/internal/testutil"
)

// fakeText returns a fixed text for any document, or ErrNoText when text
// is empty.
type fakeText struct {
	text  string
	calls atomic.Int32
}

func (f *fakeText) Extract(_ context.Context, _ []byte) (pdftext.Page, error) {
	f.calls.Add(1)
	if f.text == "" {
		return pdftext.Page{}, pdftext.ErrNoText
	}
	return pdftext.Page{Text: f.text, PageCount: 1}, nil
}

// slowFields records peak concurrency across calls.
type slowFields struct {
	delay   time.Duration
	current atomic.Int32
	peak    atomic.Int32
}

func (f *slowFields) ExtractKeyed(_ context.Context, _ string, s schema.Schema, _, _ string) fields.Outcome {
	n := f.current.Add(1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(f.delay)
	f.current.Add(-1)
	return fields.Outcome{Values: schema.Absent(s)}
}

func invoiceSchema(t *testing.T, raw string) schema.Schema {
	t.Helper()
	s, err := schema.Parse([]byte(raw))
	if err != nil {
		t.Fatalf("schema.Parse() error = %v", err)
	}
	return s
}

const invoiceJSON = `{"invoice_number":"The invoice number","total":"The total amount"}`

func newMock() *providers.MockClient {
	m := providers.NewMockClient()
	m.ResponseJSON = json.RawMessage(`{"invoice_number":"1234","total":"56.78"}`)
	m.PromptTokens, m.CompletionTokens = 100, 20
	return m
}

func newService(t *testing.T, text TextExtractor, client providers.LLMClient, mutate ...func(*Config)) *Service {
	t.Helper()
	logger := testutil.Logger(t)
	cfg := Config{
		Cache:   cache.NewUnbounded(),
		Text:    text,
		Fields:  fields.New(fields.Config{Client: client, Logger: logger}),
		Metrics: metrics.NewRecorder(0),
		Logger:  logger,
	}
	for _, m := range mutate {
		m(&cfg)
	}
	svc, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return svc
}

func assertSameValues(t *testing.T, a, b schema.Record) {
	t.Helper()
	if !reflect.DeepEqual(a.Names(), b.Names()) {
		t.Fatalf("field order differs: %v vs %v", a.Names(), b.Names())
	}
	for _, k := range a.Names() {
		av, aok := a.Get(k)
		bv, bok := b.Get(k)
		if aok != bok || av != bv {
			t.Errorf("field %q: %q/%v vs %q/%v", k, av, aok, bv, bok)
		}
	}
}

func TestExtract_EndToEnd(t *testing.T) {
	doc := testutil.PDF("Invoice #1234, Total: $56.78")
	mock := newMock()
	svc := newService(t, pdftext.New(testutil.Logger(t)), mock)
	s := invoiceSchema(t, invoiceJSON)

	first := svc.Extract(context.Background(), doc, s, "invoice")
	if first.CacheHit {
		t.Error("first call should miss")
	}
	if first.Failure != nil {
		t.Fatalf("unexpected failure: %+v", first.Failure)
	}
	if math.Abs(first.Cost-0.0000135) > 1e-12 {
		t.Errorf("Cost = %v, want 0.0000135", first.Cost)
	}
	if v, _ := first.ExtractedData.Get("invoice_number"); v != "1234" {
		t.Errorf("invoice_number = %q", v)
	}
	if v, _ := first.ExtractedData.Get("total"); v != "56.78" {
		t.Errorf("total = %q", v)
	}
	if first.ProcessingTime <= 0 {
		t.Error("ProcessingTime should be positive")
	}

	second := svc.Extract(context.Background(), doc, s, "invoice")
	if !second.CacheHit {
		t.Error("second call should hit")
	}
	if second.Cost != first.Cost {
		t.Errorf("cached cost = %v, want %v", second.Cost, first.Cost)
	}
	assertSameValues(t, first.ExtractedData, second.ExtractedData)
	if mock.RequestCount() != 1 {
		t.Errorf("LLM called %d times, want 1", mock.RequestCount())
	}
}

func TestExtract_SchemaOrderHits(t *testing.T) {
	mock := newMock()
	svc := newService(t, &fakeText{text: "Invoice #1234"}, mock)
	doc := []byte("document")

	svc.Extract(context.Background(), doc, invoiceSchema(t, invoiceJSON), "")
	reordered := invoiceSchema(t, `{"total":"The total amount","invoice_number":"The invoice number"}`)
	if r := svc.Extract(context.Background(), doc, reordered, ""); !r.CacheHit {
		t.Error("reordered schema should hit the cache")
	}
}

func TestExtract_ByteChangeMisses(t *testing.T) {
	mock := newMock()
	svc := newService(t, &fakeText{text: "Invoice #1234"}, mock)
	s := invoiceSchema(t, invoiceJSON)

	svc.Extract(context.Background(), []byte("document-a"), s, "")
	if r := svc.Extract(context.Background(), []byte("document-b"), s, ""); r.CacheHit {
		t.Error("changed document should miss")
	}
	if mock.RequestCount() != 2 {
		t.Errorf("LLM called %d times, want 2", mock.RequestCount())
	}
}

func TestExtract_NoTextNotCached(t *testing.T) {
	mock := newMock()
	text := &fakeText{}
	svc := newService(t, text, mock)
	s := invoiceSchema(t, invoiceJSON)

	for i := 0; i < 2; i++ {
		r := svc.Extract(context.Background(), []byte("scanned"), s, "")
		if r.CacheHit {
			t.Errorf("call %d: no-text result must not be cached", i)
		}
		if r.Cost != 0 || r.ExtractedData.Found() != 0 || r.ExtractedData.Len() != 2 {
			t.Errorf("call %d: result = %+v", i, r)
		}
		if r.Failure == nil || r.Failure.Kind != KindNoText {
			t.Errorf("call %d: Failure = %+v", i, r.Failure)
		}
	}
	if text.calls.Load() != 2 {
		t.Errorf("text extraction ran %d times, want 2", text.calls.Load())
	}
	if mock.RequestCount() != 0 {
		t.Error("LLM should not be called without text")
	}
	if svc.Cache().Size() != 0 {
		t.Errorf("cache size = %d, want 0", svc.Cache().Size())
	}
}

func TestExtract_LLMFailureCached(t *testing.T) {
	mock := newMock()
	mock.ShouldFail = true
	svc := newService(t, &fakeText{text: "Invoice"}, mock)
	s := invoiceSchema(t, invoiceJSON)

	first := svc.Extract(context.Background(), []byte("doc"), s, "")
	if first.Cost != 0 || first.ExtractedData.Found() != 0 || first.CacheHit {
		t.Errorf("first = %+v", first)
	}
	if first.Failure == nil || first.Failure.Kind != providers.ErrorTypeAPI {
		t.Errorf("Failure = %+v", first.Failure)
	}

	second := svc.Extract(context.Background(), []byte("doc"), s, "")
	if !second.CacheHit {
		t.Error("failure should replay from cache")
	}
	if second.Failure == nil {
		t.Error("replayed failure should keep its tag")
	}
	if mock.RequestCount() != 1 {
		t.Errorf("LLM called %d times, want 1", mock.RequestCount())
	}
}

func TestExtract_SkipFailures(t *testing.T) {
	mock := newMock()
	mock.ShouldFail = true
	svc := newService(t, &fakeText{text: "Invoice"}, mock, func(c *Config) { c.SkipFailures = true })
	s := invoiceSchema(t, invoiceJSON)

	svc.Extract(context.Background(), []byte("doc"), s, "")
	if r := svc.Extract(context.Background(), []byte("doc"), s, ""); r.CacheHit {
		t.Error("failure should not be cached when SkipFailures is set")
	}
	if mock.RequestCount() != 2 {
		t.Errorf("LLM called %d times, want 2", mock.RequestCount())
	}
}

func TestExtract_ConcurrentDedupe(t *testing.T) {
	mock := newMock()
	mock.Latency = 100 * time.Millisecond
	svc := newService(t, &fakeText{text: "Invoice #1234"}, mock, func(c *Config) { c.MaxInFlight = 4 })
	s := invoiceSchema(t, invoiceJSON)

	const n = 10
	results := make([]Result, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = svc.Extract(context.Background(), []byte("same-doc"), s, "")
		}(i)
	}
	wg.Wait()

	if mock.RequestCount() != 1 {
		t.Errorf("LLM called %d times, want 1", mock.RequestCount())
	}
	misses := 0
	for _, r := range results {
		if !r.CacheHit {
			misses++
		}
		assertSameValues(t, results[0].ExtractedData, r.ExtractedData)
	}
	if misses != 1 {
		t.Errorf("%d results reported a miss, want 1", misses)
	}
}

func TestExtract_MaxInFlight(t *testing.T) {
	slow := &slowFields{delay: 30 * time.Millisecond}
	svc, err := New(Config{
		Cache:  cache.NewUnbounded(),
		Text:   &fakeText{text: "x"},
		Fields: slow,
		Logger: testutil.Logger(t),
	})
	if err != nil {
		t.Fatal(err)
	}
	s := invoiceSchema(t, invoiceJSON)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			svc.Extract(context.Background(), []byte{byte(i)}, s, "")
		}(i)
	}
	wg.Wait()

	if p := slow.peak.Load(); p != 1 {
		t.Errorf("peak concurrency = %d, want 1", p)
	}
}

func TestExtract_Timeout(t *testing.T) {
	mock := newMock()
	mock.Latency = time.Second
	logger := testutil.Logger(t)
	svc, err := New(Config{
		Cache:  cache.NewUnbounded(),
		Text:   &fakeText{text: "Invoice"},
		Fields: fields.New(fields.Config{Client: mock, Timeout: 20 * time.Millisecond, Logger: logger}),
		Logger: logger,
	})
	if err != nil {
		t.Fatal(err)
	}

	r := svc.Extract(context.Background(), []byte("doc"), invoiceSchema(t, invoiceJSON), "")
	if r.Failure == nil || r.Failure.Kind != providers.ErrorTypeTimeout {
		t.Fatalf("Failure = %+v", r.Failure)
	}
	if r.Cost != 0 || r.ExtractedData.Found() != 0 {
		t.Errorf("result = %+v", r)
	}
}

func TestExtract_CancelledNotCached(t *testing.T) {
	mock := newMock()
	mock.Latency = time.Second
	svc := newService(t, &fakeText{text: "Invoice"}, mock)
	s := invoiceSchema(t, invoiceJSON)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	r := svc.Extract(ctx, []byte("doc"), s, "")
	if r.Failure == nil || r.Failure.Kind != KindCancelled {
		t.Fatalf("Failure = %+v", r.Failure)
	}
	if svc.Cache().Size() != 0 {
		t.Error("cancelled extraction must not be cached")
	}
}

func TestExtract_Metrics(t *testing.T) {
	mock := newMock()
	rec := metrics.NewRecorder(0)
	svc := newService(t, &fakeText{text: "Invoice"}, mock, func(c *Config) { c.Metrics = rec })
	s := invoiceSchema(t, invoiceJSON)

	svc.Extract(context.Background(), []byte("doc"), s, "")
	svc.Extract(context.Background(), []byte("doc"), s, "")

	sum := rec.Summary()
	if sum.Requests != 2 || sum.CacheHits != 1 || sum.CacheMisses != 1 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestNew_RequiresDependencies(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("expected error without cache")
	}
	if _, err := New(Config{Cache: cache.NewUnbounded()}); err == nil {
		t.Error("expected error without text extractor")
	}
	if _, err := New(Config{Cache: cache.NewUnbounded(), Text: &fakeText{}}); err == nil {
		t.Error("expected error without field extractor")
	}
}

// cancelFirst blocks its first call until the caller's context ends, then
// answers every later call.
type cancelFirst struct {
	started chan struct{}
	calls   atomic.Int32
}

func (f *cancelFirst) ExtractKeyed(ctx context.Context, _ string, s schema.Schema, _, _ string) fields.Outcome {
	if f.calls.Add(1) == 1 {
		close(f.started)
		<-ctx.Done()
		return fields.Outcome{
			Values:  schema.Absent(s),
			Failure: &fields.Failure{Kind: providers.ErrorTypeCancelled, Message: ctx.Err().Error()},
		}
	}
	return fields.Outcome{Values: schema.Values{"invoice_number": schema.String("1234"), "total": schema.String("56.78")}, Cost: 0.01}
}

func TestExtract_CancelledCallerDoesNotFailOthers(t *testing.T) {
	llm := &cancelFirst{started: make(chan struct{})}
	svc, err := New(Config{
		Cache:       cache.NewUnbounded(),
		Text:        &fakeText{text: "Invoice #1234"},
		Fields:      llm,
		Logger:      testutil.Logger(t),
		MaxInFlight: 2,
	})
	if err != nil {
		t.Fatal(err)
	}
	s := invoiceSchema(t, invoiceJSON)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	first := make(chan Result, 1)
	go func() { first <- svc.Extract(ctx, []byte("doc"), s, "first") }()
	<-llm.started

	second := make(chan Result, 1)
	go func() { second <- svc.Extract(context.Background(), []byte("doc"), s, "second") }()
	time.Sleep(50 * time.Millisecond) // let the second caller join the shared run
	cancel()

	if r := <-first; r.Failure == nil || r.Failure.Kind != KindCancelled {
		t.Errorf("cancelled caller Failure = %+v, want cancelled", r.Failure)
	}

	select {
	case r := <-second:
		if r.Failure != nil {
			t.Fatalf("live caller Failure = %+v, want none", r.Failure)
		}
		if v, _ := r.ExtractedData.Get("invoice_number"); v != "1234" || r.ExtractedData.Found() != 2 {
			t.Errorf("live caller data = %v", r.ExtractedData.Values())
		}
	case <-time.After(5 * time.Second):
		t.Fatal("live caller did not finish")
	}

	if llm.calls.Load() != 2 {
		t.Errorf("LLM called %d times, want 2", llm.calls.Load())
	}
	if r := svc.Extract(context.Background(), []byte("doc"), s, ""); !r.CacheHit || r.Failure != nil {
		t.Errorf("retried result should be cached: %+v", r)
	}
}

func TestExtract_DataFollowsRequestSchemaOrder(t *testing.T) {
	svc := newService(t, &fakeText{text: "Invoice #1234, Total: $56.78"}, newMock())
	forward := invoiceSchema(t, invoiceJSON)
	reversed := invoiceSchema(t, `{"total":"The total amount","invoice_number":"The invoice number"}`)

	miss := svc.Extract(context.Background(), []byte("doc"), forward, "")
	hit := svc.Extract(context.Background(), []byte("doc"), reversed, "")
	if !hit.CacheHit {
		t.Fatal("reordered schema should share the cache entry")
	}

	if got := miss.ExtractedData.Names(); !reflect.DeepEqual(got, []string{"invoice_number", "total"}) {
		t.Errorf("miss order = %v", got)
	}
	if got := hit.ExtractedData.Names(); !reflect.DeepEqual(got, []string{"total", "invoice_number"}) {
		t.Errorf("hit order = %v", got)
	}
	data, err := json.Marshal(hit)
	if err != nil {
		t.Fatal(err)
	}
	want := `"extracted_data":{"total":"56.78","invoice_number":"1234"}`
	if !strings.Contains(string(data), want) {
		t.Errorf("Marshal() = %s, want it to contain %s", data, want)
	}
}
