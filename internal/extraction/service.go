// Package extraction runs the cache → text → LLM → cache pipeline for one
// document and schema.
package extraction

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jackzampolin/pdfx/internal/cache"
	"github.com/jackzampolin/pdfx/internal/fields"
	"github.com/jackzampolin/pdfx/internal/metrics"
	"github.com/jackzampolin/pdfx/internal/pdftext"
	"github.com/jackzampolin/pdfx/internal/providers"
	"github.com/jackzampolin/pdfx/internal/schema"
)

// Failure kinds added by the orchestrator.
const (
	KindNoText    = "no_text"
	KindCancelled = providers.ErrorTypeCancelled
)

// Result is the envelope returned for every extraction.
type Result struct {
	ExtractedData  schema.Record  `json:"extracted_data"`
	Cost           float64        `json:"cost"`
	ProcessingTime float64        `json:"processing_time"` // seconds
	CacheHit       bool           `json:"cache_hit"`
	Failure        *cache.Failure `json:"failure,omitempty"`
}

// TextExtractor reads the text of a document's first page.
type TextExtractor interface {
	Extract(ctx context.Context, doc []byte) (pdftext.Page, error)
}

// FieldExtractor asks an LLM for schema fields.
type FieldExtractor interface {
	ExtractKeyed(ctx context.Context, text string, s schema.Schema, label, cacheKey string) fields.Outcome
}

// Config holds the service's dependencies.
type Config struct {
	Cache   *cache.Cache
	Text    TextExtractor
	Fields  FieldExtractor
	Metrics *metrics.Recorder
	Logger  *slog.Logger

	// MaxInFlight bounds concurrent miss pipelines. Zero means 1.
	MaxInFlight int

	// SkipFailures stops LLM failures from being cached.
	SkipFailures bool
}

// Service is the extraction orchestrator. It is safe for concurrent use;
// identical (document, schema) requests in flight at the same time share
// one pipeline run.
type Service struct {
	cache        *cache.Cache
	text         TextExtractor
	fields       FieldExtractor
	metrics      *metrics.Recorder
	logger       *slog.Logger
	skipFailures bool

	group singleflight.Group
	sem   chan struct{}
}

// New creates a Service.
func New(cfg Config) (*Service, error) {
	if cfg.Cache == nil {
		return nil, errors.New("extraction: cache is required")
	}
	if cfg.Text == nil {
		return nil, errors.New("extraction: text extractor is required")
	}
	if cfg.Fields == nil {
		return nil, errors.New("extraction: field extractor is required")
	}
	if cfg.MaxInFlight <= 0 {
		cfg.MaxInFlight = 1
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cache:        cfg.Cache,
		text:         cfg.Text,
		fields:       cfg.Fields,
		metrics:      cfg.Metrics,
		logger:       logger,
		skipFailures: cfg.SkipFailures,
		sem:          make(chan struct{}, cfg.MaxInFlight),
	}, nil
}

// Cache returns the service's cache.
func (s *Service) Cache() *cache.Cache {
	return s.cache
}

// run is the outcome of one pipeline execution, shared between callers
// that asked for the same key concurrently.
type run struct {
	result Result
	entry  cache.Entry
	stored bool
	hit    bool
}

// Extract returns field values for doc under sch. It never fails: text and
// LLM failures degrade to all-absent values with zero cost, tagged with a
// Failure.
func (s *Service) Extract(ctx context.Context, doc []byte, sch schema.Schema, label string) Result {
	start := time.Now()
	key := cache.KeyFor(doc, sch)
	log := s.logger.With("cache_key", shortKey(key), "label", label)

	for {
		if entry, ok := s.cache.Get(key); ok {
			log.Debug("cache hit")
			return s.hitResult(sch, entry, start)
		}

		leader := false
		v, _, _ := s.group.Do(string(key), func() (any, error) {
			leader = true
			return s.pipeline(ctx, log, key, doc, sch, label, start), nil
		})
		r := v.(run)

		switch {
		case r.hit:
			return s.hitResult(sch, r.entry, start)
		case leader:
			s.metrics.RecordExtraction(outcomeOf(r.result), time.Since(start))
			return r.result
		case r.stored:
			// Another caller ran the pipeline and cached the result.
			return s.hitResult(sch, r.entry, start)
		case cancelled(r.result) && ctx.Err() == nil:
			// The caller that ran the pipeline went away; ours has not.
			log.Debug("shared extraction cancelled, retrying")
			continue
		default:
			res := r.result
			res.ExtractedData = schema.NewRecord(sch, res.ExtractedData.Values())
			res.ProcessingTime = time.Since(start).Seconds()
			s.metrics.RecordExtraction(outcomeOf(res), time.Since(start))
			return res
		}
	}
}

func (s *Service) pipeline(ctx context.Context, log *slog.Logger, key cache.Key, doc []byte, sch schema.Schema, label string, start time.Time) run {
	select {
	case s.sem <- struct{}{}:
		defer func() { <-s.sem }()
	case <-ctx.Done():
		log.Warn("extraction cancelled while waiting", "error", ctx.Err())
		return run{result: failedResult(sch, KindCancelled, ctx.Err().Error(), start)}
	}

	// A pipeline for this key may have finished while we waited.
	if entry, ok := s.cache.Get(key); ok {
		return run{entry: entry, hit: true}
	}

	page, err := s.text.Extract(ctx, doc)
	if err != nil {
		log.Warn("no text extracted", "error", err, "bytes", len(doc))
		return run{result: failedResult(sch, KindNoText, err.Error(), start)}
	}

	out := s.fields.ExtractKeyed(ctx, page.Text, sch, label, string(key))
	elapsed := time.Since(start)

	entry := cache.Entry{
		Data:           out.Values,
		Cost:           out.Cost,
		Model:          out.Model,
		InputTokens:    out.InputTokens,
		OutputTokens:   out.OutputTokens,
		ProcessingTime: elapsed,
	}
	if out.Failure != nil {
		entry.Failure = &cache.Failure{Kind: out.Failure.Kind, Message: out.Failure.Message}
	}

	stored := s.shouldStore(out.Failure)
	if stored {
		s.cache.Put(key, entry)
	}

	log.Info("extraction complete",
		"model", out.Model,
		"cost_usd", out.Cost,
		"found", out.Values.Found(),
		"fields", sch.Len(),
		"stored", stored,
		"elapsed_ms", elapsed.Milliseconds())

	return run{
		result: Result{
			ExtractedData:  schema.NewRecord(sch, out.Values),
			Cost:           out.Cost,
			ProcessingTime: elapsed.Seconds(),
			Failure:        entry.Failure,
		},
		entry:  entry,
		stored: stored,
	}
}

func (s *Service) shouldStore(f *fields.Failure) bool {
	if f == nil {
		return true
	}
	if f.Kind == providers.ErrorTypeCancelled || f.Kind == fields.KindNoClient {
		return false
	}
	return !s.skipFailures
}

func (s *Service) hitResult(sch schema.Schema, entry cache.Entry, start time.Time) Result {
	elapsed := time.Since(start)
	s.metrics.RecordExtraction(metrics.OutcomeCacheHit, elapsed)
	return Result{
		ExtractedData:  schema.NewRecord(sch, entry.Data),
		Cost:           entry.Cost,
		ProcessingTime: elapsed.Seconds(),
		CacheHit:       true,
		Failure:        entry.Failure,
	}
}

func failedResult(sch schema.Schema, kind, msg string, start time.Time) Result {
	return Result{
		ExtractedData:  schema.NewRecord(sch, nil),
		ProcessingTime: time.Since(start).Seconds(),
		Failure:        &cache.Failure{Kind: kind, Message: msg},
	}
}

func cancelled(r Result) bool {
	return r.Failure != nil && r.Failure.Kind == KindCancelled
}

func outcomeOf(r Result) metrics.Outcome {
	if r.Failure != nil && r.Failure.Kind == KindNoText {
		return metrics.OutcomeNoText
	}
	return metrics.OutcomeLLM
}

func shortKey(k cache.Key) string {
	if len(k) > 12 {
		return string(k[:12])
	}
	return string(k)
}
