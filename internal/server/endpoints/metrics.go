package endpoints

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/pdfx/internal/api"
	"github.com/jackzampolin/pdfx/internal/metrics"
	"github.com/jackzampolin/pdfx/internal/svcctx"
)

// MetricsListResponse contains recent LLM call metrics.
type MetricsListResponse struct {
	Metrics []metrics.Metric `json:"metrics"`
	Total   int              `json:"total"`
}

// MetricsDetailedResponse contains latency percentiles and breakdowns for
// a filtered slice of the history.
type MetricsDetailedResponse struct {
	Stats        *metrics.DetailedStats `json:"stats"`
	CostByModel  map[string]float64     `json:"cost_by_model"`
	CostByLabel  map[string]float64     `json:"cost_by_label"`
	ErrorsByType map[string]int         `json:"errors_by_type"`
}

func metricsFilter(r *http.Request) (metrics.Filter, int, error) {
	hq, err := parseHistoryQuery(r.URL.Query())
	if err != nil {
		return metrics.Filter{}, 0, err
	}
	f := metrics.Filter{
		Label:    hq.Label,
		Provider: hq.Provider,
		Model:    hq.Model,
		Success:  hq.Success,
	}
	if hq.After != nil {
		f.After = *hq.After
	}
	if hq.Before != nil {
		f.Before = *hq.Before
	}
	return f, hq.Limit, nil
}

// MetricsSummaryEndpoint handles GET /api/metrics/summary.
type MetricsSummaryEndpoint struct{}

func (e *MetricsSummaryEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/metrics/summary", e.handler
}

func (e *MetricsSummaryEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Metrics summary
//	@Description	Request, cache and LLM counters since start, with cost totals
//	@Tags			metrics
//	@Produce		json
//	@Success		200	{object}	metrics.Summary
//	@Router			/api/metrics/summary [get]
func (e *MetricsSummaryEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	rec := svcctx.MetricsFrom(r.Context())
	if rec == nil {
		writeError(w, http.StatusServiceUnavailable, "metrics not initialized")
		return
	}
	writeJSON(w, http.StatusOK, rec.Summary())
}

func (e *MetricsSummaryEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Get metrics summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var s metrics.Summary
			if err := client.Get(cmd.Context(), "/api/metrics/summary", &s); err != nil {
				return err
			}
			if api.GetOutputFormat() == api.OutputFormatJSON {
				return api.Output(s)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Metrics Summary\n")
			fmt.Fprintf(out, "===============\n")
			fmt.Fprintf(out, "  Uptime:      %s\n", time.Duration(s.UptimeSeconds*float64(time.Second)).Round(time.Second))
			fmt.Fprintf(out, "  Requests:    %d\n", s.Requests)
			fmt.Fprintf(out, "  Cache hits:  %d (%.1f%%)\n", s.CacheHits, s.HitRate*100)
			fmt.Fprintf(out, "  No text:     %d\n", s.NoText)
			fmt.Fprintln(out)
			fmt.Fprintf(out, "  LLM calls:   %d (%d failed)\n", s.LLMCalls, s.LLMFailures)
			fmt.Fprintf(out, "  Total cost:  $%.6f\n", s.TotalCostUSD)
			fmt.Fprintf(out, "  Avg cost:    $%.6f\n", s.AvgCostPerCall)
			fmt.Fprintf(out, "  Tokens:      %d in / %d out\n", s.InputTokens, s.OutputTokens)
			fmt.Fprintf(out, "  Avg time:    %.3fs\n", s.AvgProcessingSeconds)
			return nil
		},
	}
}

// ListMetricsEndpoint handles GET /api/metrics.
type ListMetricsEndpoint struct{}

func (e *ListMetricsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/metrics", e.handler
}

func (e *ListMetricsEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary	List LLM call metrics
//	@Tags		metrics
//	@Produce	json
//	@Param		label		query		string	false	"Filter by document label"
//	@Param		provider	query		string	false	"Filter by provider"
//	@Param		model		query		string	false	"Filter by model"
//	@Param		success		query		bool	false	"Filter by success status"
//	@Param		after		query		string	false	"RFC3339 lower bound"
//	@Param		before		query		string	false	"RFC3339 upper bound"
//	@Param		limit		query		int		false	"Max results (default 100)"
//	@Success	200			{object}	MetricsListResponse
//	@Failure	400			{object}	ErrorResponse
//	@Router		/api/metrics [get]
func (e *ListMetricsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	rec := svcctx.MetricsFrom(r.Context())
	if rec == nil {
		writeError(w, http.StatusServiceUnavailable, "metrics not initialized")
		return
	}
	f, limit, err := metricsFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	list := rec.List(f, limit)
	if list == nil {
		list = []metrics.Metric{}
	}
	writeJSON(w, http.StatusOK, MetricsListResponse{Metrics: list, Total: len(list)})
}

func (e *ListMetricsEndpoint) Command(getServerURL func() string) *cobra.Command {
	var label, provider, model string
	var limit int
	var successOnly, failedOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent LLM call metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			path := withQuery("/api/metrics", queryParams(label, provider, model, successOnly, failedOnly, limit))
			var resp MetricsListResponse
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&label, "label", "", "Filter by document label")
	cmd.Flags().StringVar(&provider, "provider", "", "Filter by provider")
	cmd.Flags().StringVar(&model, "model", "", "Filter by model")
	cmd.Flags().BoolVar(&successOnly, "success", false, "Only show successful calls")
	cmd.Flags().BoolVar(&failedOnly, "failed", false, "Only show failed calls")
	cmd.Flags().IntVar(&limit, "limit", 100, "Max results")
	return cmd
}

// DetailedMetricsEndpoint handles GET /api/metrics/detailed.
type DetailedMetricsEndpoint struct{}

func (e *DetailedMetricsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/metrics/detailed", e.handler
}

func (e *DetailedMetricsEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary	Detailed LLM metrics
//	@Description	Latency percentiles, cost breakdowns and error counts over the retained history
//	@Tags		metrics
//	@Produce	json
//	@Param		label		query		string	false	"Filter by document label"
//	@Param		model		query		string	false	"Filter by model"
//	@Success	200			{object}	MetricsDetailedResponse
//	@Failure	400			{object}	ErrorResponse
//	@Router		/api/metrics/detailed [get]
func (e *DetailedMetricsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	rec := svcctx.MetricsFrom(r.Context())
	if rec == nil {
		writeError(w, http.StatusServiceUnavailable, "metrics not initialized")
		return
	}
	f, _, err := metricsFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, MetricsDetailedResponse{
		Stats:        rec.DetailedStats(f),
		CostByModel:  rec.CostByModel(f),
		CostByLabel:  rec.CostByLabel(f),
		ErrorsByType: rec.ErrorsByType(f),
	})
}

func (e *DetailedMetricsEndpoint) Command(getServerURL func() string) *cobra.Command {
	var label, model string
	cmd := &cobra.Command{
		Use:   "detailed",
		Short: "Latency percentiles and cost breakdowns",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			path := withQuery("/api/metrics/detailed", queryParams(label, "", model, false, false, 0))
			var resp MetricsDetailedResponse
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&label, "label", "", "Filter by document label")
	cmd.Flags().StringVar(&model, "model", "", "Filter by model")
	return cmd
}

// ResetMetricsEndpoint handles DELETE /api/metrics.
type ResetMetricsEndpoint struct{}

func (e *ResetMetricsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "DELETE", "/api/metrics", e.handler
}

func (e *ResetMetricsEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary	Reset metrics
//	@Tags		metrics
//	@Success	204
//	@Router		/api/metrics [delete]
func (e *ResetMetricsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	rec := svcctx.MetricsFrom(r.Context())
	if rec == nil {
		writeError(w, http.StatusServiceUnavailable, "metrics not initialized")
		return
	}
	rec.Reset()
	w.WriteHeader(http.StatusNoContent)
}

func (e *ResetMetricsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Reset server metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			if err := client.Delete(cmd.Context(), "/api/metrics", nil); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Metrics reset")
			return nil
		},
	}
}
