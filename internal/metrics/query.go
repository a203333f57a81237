package metrics

import "time"

// Filter specifies query filters over the LLM metric history.
type Filter struct {
	Label    string
	Provider string
	Model    string
	After    time.Time
	Before   time.Time
	Success  *bool // nil = any, true = success only, false = errors only
}

func (f Filter) matches(m Metric) bool {
	if f.Label != "" && m.Label != f.Label {
		return false
	}
	if f.Provider != "" && m.Provider != f.Provider {
		return false
	}
	if f.Model != "" && m.Model != f.Model {
		return false
	}
	if !f.After.IsZero() && !m.CreatedAt.After(f.After) {
		return false
	}
	if !f.Before.IsZero() && !m.CreatedAt.Before(f.Before) {
		return false
	}
	if f.Success != nil && m.Success != *f.Success {
		return false
	}
	return true
}

// List returns metrics matching the filter, newest first.
// A limit of 0 returns all matches.
func (r *Recorder) List(f Filter, limit int) []Metric {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Metric
	for i := len(r.history) - 1; i >= 0; i-- {
		if !f.matches(r.history[i]) {
			continue
		}
		out = append(out, r.history[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}
