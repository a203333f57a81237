package metrics

import (
	"sort"
	"time"
)

// Summary is a point-in-time snapshot of the recorder.
type Summary struct {
	StartedAt     time.Time `json:"started_at"`
	UptimeSeconds float64   `json:"uptime_seconds"`

	Requests    int     `json:"requests"`
	CacheHits   int     `json:"cache_hits"`
	CacheMisses int     `json:"cache_misses"`
	NoText      int     `json:"no_text"`
	HitRate     float64 `json:"hit_rate"`

	AvgProcessingSeconds float64 `json:"avg_processing_seconds"`

	LLMCalls        int     `json:"llm_calls"`
	LLMFailures     int     `json:"llm_failures"`
	InputTokens     int     `json:"input_tokens"`
	OutputTokens    int     `json:"output_tokens"`
	TotalCostUSD    float64 `json:"total_cost_usd"`
	AvgCostPerCall  float64 `json:"avg_cost_per_call"`
	AvgInputTokens  float64 `json:"avg_input_tokens"`
	AvgOutputTokens float64 `json:"avg_output_tokens"`

	Latency     *DetailedStats     `json:"latency,omitempty"`
	CostByModel map[string]float64 `json:"cost_by_model,omitempty"`
	CostByLabel map[string]float64 `json:"cost_by_label,omitempty"`
}

// Summary returns a snapshot of counters, averages and breakdowns.
func (r *Recorder) Summary() Summary {
	if r == nil {
		return Summary{}
	}

	r.mu.Lock()
	s := Summary{
		StartedAt:     r.startedAt,
		UptimeSeconds: time.Since(r.startedAt).Seconds(),
		Requests:      r.requests,
		CacheHits:     r.hits,
		CacheMisses:   r.misses,
		NoText:        r.noText,
		LLMCalls:      r.llmCalls,
		LLMFailures:   r.llmFailed,
		InputTokens:   r.inTokens,
		OutputTokens:  r.outTokens,
		TotalCostUSD:  r.costUSD,
	}
	if r.requests > 0 {
		s.HitRate = float64(r.hits) / float64(r.requests)
		s.AvgProcessingSeconds = r.extractS / float64(r.requests)
	}
	r.mu.Unlock()

	if s.LLMCalls > 0 {
		n := float64(s.LLMCalls)
		s.AvgCostPerCall = s.TotalCostUSD / n
		s.AvgInputTokens = float64(s.InputTokens) / n
		s.AvgOutputTokens = float64(s.OutputTokens) / n
		s.Latency = r.DetailedStats(Filter{})
		s.CostByModel = r.CostByModel(Filter{})
		s.CostByLabel = r.CostByLabel(Filter{})
	}
	return s
}

// DetailedStats provides latency percentiles and token totals over the
// retained history.
type DetailedStats struct {
	Count        int `json:"count"`
	SuccessCount int `json:"success_count"`
	ErrorCount   int `json:"error_count"`

	TotalCostUSD float64 `json:"total_cost_usd"`

	// Latency percentiles (seconds)
	LatencyP50 float64 `json:"latency_p50"`
	LatencyP95 float64 `json:"latency_p95"`
	LatencyP99 float64 `json:"latency_p99"`
	LatencyAvg float64 `json:"latency_avg"`
	LatencyMin float64 `json:"latency_min"`
	LatencyMax float64 `json:"latency_max"`

	TotalPromptTokens     int `json:"total_prompt_tokens"`
	TotalCompletionTokens int `json:"total_completion_tokens"`
}

// DetailedStats returns statistics for retained metrics matching the filter.
func (r *Recorder) DetailedStats(f Filter) *DetailedStats {
	metrics := r.List(f, 0)
	stats := &DetailedStats{Count: len(metrics)}
	if len(metrics) == 0 {
		return stats
	}

	latencies := make([]float64, 0, len(metrics))
	for _, m := range metrics {
		stats.TotalCostUSD += m.CostUSD
		if m.Success {
			stats.SuccessCount++
		} else {
			stats.ErrorCount++
		}
		stats.TotalPromptTokens += m.PromptTokens
		stats.TotalCompletionTokens += m.CompletionTokens
		if m.ExecutionSeconds > 0 {
			latencies = append(latencies, m.ExecutionSeconds)
		}
	}

	if len(latencies) > 0 {
		sort.Float64s(latencies)
		stats.LatencyMin = latencies[0]
		stats.LatencyMax = latencies[len(latencies)-1]
		var sum float64
		for _, l := range latencies {
			sum += l
		}
		stats.LatencyAvg = sum / float64(len(latencies))
		stats.LatencyP50 = percentile(latencies, 50)
		stats.LatencyP95 = percentile(latencies, 95)
		stats.LatencyP99 = percentile(latencies, 99)
	}

	return stats
}

// percentile calculates the p-th percentile from a sorted slice of values.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}

	idx := (p / 100.0) * float64(len(sorted)-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	weight := idx - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}
