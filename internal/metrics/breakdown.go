package metrics

// CostByModel returns cost breakdown by model.
func (r *Recorder) CostByModel(f Filter) map[string]float64 {
	breakdown := make(map[string]float64)
	for _, m := range r.List(f, 0) {
		breakdown[m.Model] += m.CostUSD
	}
	return breakdown
}

// CostByLabel returns cost breakdown by document label. Unlabelled calls
// are grouped under "unlabelled".
func (r *Recorder) CostByLabel(f Filter) map[string]float64 {
	breakdown := make(map[string]float64)
	for _, m := range r.List(f, 0) {
		label := m.Label
		if label == "" {
			label = "unlabelled"
		}
		breakdown[label] += m.CostUSD
	}
	return breakdown
}

// ErrorsByType counts failed calls by error type.
func (r *Recorder) ErrorsByType(f Filter) map[string]int {
	failed := false
	f.Success = &failed
	counts := make(map[string]int)
	for _, m := range r.List(f, 0) {
		counts[m.ErrorType]++
	}
	return counts
}
