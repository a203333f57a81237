package metrics

import (
	"sync"
	"time"

	"github.com/jackzampolin/pdfx/internal/providers"
)

// Outcome classifies how an extraction request was served.
type Outcome string

const (
	OutcomeCacheHit Outcome = "cache_hit"
	OutcomeLLM      Outcome = "llm"
	OutcomeNoText   Outcome = "no_text"
)

const defaultHistory = 1000

// Recorder accumulates request counters and a bounded history of LLM call
// metrics. A nil *Recorder is valid and records nothing.
type Recorder struct {
	mu        sync.Mutex
	startedAt time.Time
	limit     int

	requests  int
	hits      int
	misses    int
	noText    int
	extractS  float64
	llmCalls  int
	llmFailed int
	inTokens  int
	outTokens int
	costUSD   float64

	history []Metric
}

// NewRecorder creates a recorder keeping at most limit LLM metrics for
// percentile and breakdown queries. Totals are never trimmed.
func NewRecorder(limit int) *Recorder {
	if limit <= 0 {
		limit = defaultHistory
	}
	return &Recorder{startedAt: time.Now(), limit: limit}
}

// RecordExtraction counts one extraction request.
func (r *Recorder) RecordExtraction(outcome Outcome, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.requests++
	r.extractS += elapsed.Seconds()
	switch outcome {
	case OutcomeCacheHit:
		r.hits++
	case OutcomeNoText:
		r.misses++
		r.noText++
	default:
		r.misses++
	}
}

// Record stores a single LLM metric.
func (r *Recorder) Record(m Metric) {
	if r == nil {
		return
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.llmCalls++
	if !m.Success {
		r.llmFailed++
	}
	r.inTokens += m.PromptTokens
	r.outTokens += m.CompletionTokens
	r.costUSD += m.CostUSD

	r.history = append(r.history, m)
	if over := len(r.history) - r.limit; over > 0 {
		r.history = append(r.history[:0:0], r.history[over:]...)
	}
}

// RecordLLMCall records metrics from an LLM chat result.
func (r *Recorder) RecordLLMCall(opts RecordOpts, result *providers.ChatResult) {
	if r == nil || result == nil {
		return
	}
	r.Record(FromChatResult(opts, result))
}

// Reset clears all counters and history.
func (r *Recorder) Reset() {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.startedAt = time.Now()
	r.requests, r.hits, r.misses, r.noText = 0, 0, 0, 0
	r.llmCalls, r.llmFailed, r.inTokens, r.outTokens = 0, 0, 0, 0
	r.extractS, r.costUSD = 0, 0
	r.history = nil
}
