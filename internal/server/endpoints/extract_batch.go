package endpoints

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/pdfx/internal/api"
	"github.com/jackzampolin/pdfx/internal/batch"
	"github.com/jackzampolin/pdfx/internal/extraction"
	"github.com/jackzampolin/pdfx/internal/svcctx"
)

// BatchItemResponse is one batch result: the extraction envelope plus the
// item's label and, for items that could not run, an error.
type BatchItemResponse struct {
	extraction.Result
	Label string `json:"label,omitempty"`
	Error string `json:"error,omitempty"`
}

// BatchResponse is the response for POST /extract-batch.
type BatchResponse struct {
	Results             []BatchItemResponse `json:"results"`
	TotalCost           float64             `json:"total_cost"`
	TotalProcessingTime float64             `json:"total_processing_time"`
}

// ExtractBatchEndpoint handles POST /extract-batch.
type ExtractBatchEndpoint struct {
	MaxBodyBytes int64
}

var _ api.Endpoint = (*ExtractBatchEndpoint)(nil)

func (e *ExtractBatchEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/extract-batch", e.handler
}

func (e *ExtractBatchEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Extract fields from PDFs on disk
//	@Description	Runs each request in order, one at a time. Body is {"requests": [...]} or a bare array.
//	@Description	Items that fail return all-null fields with an error instead of failing the call.
//	@Tags			extraction
//	@Accept			json
//	@Produce		json
//	@Param			request	body		object	true	"{requests: [{label, extraction_schema, pdf_path}]}"
//	@Success		200		{object}	BatchResponse
//	@Failure		400		{object}	ErrorResponse
//	@Router			/extract-batch [post]
func (e *ExtractBatchEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	limit := e.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxUploadBytes
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to read body: %v", err))
		return
	}

	items, err := parseBatchBody(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	runner := svcctx.BatchFrom(r.Context())
	if runner == nil {
		writeError(w, http.StatusServiceUnavailable, "batch runner not initialized")
		return
	}

	report := runner.Run(r.Context(), items)
	writeJSON(w, http.StatusOK, toBatchResponse(report))
}

// parseBatchBody accepts {"requests": [...]} or a bare JSON array.
func parseBatchBody(body []byte) ([]batch.Item, error) {
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '{' {
		var req struct {
			Requests json.RawMessage `json:"requests"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			return nil, fmt.Errorf("invalid request body: %w", err)
		}
		if len(req.Requests) == 0 {
			return nil, fmt.Errorf("requests is required")
		}
		body = req.Requests
	}
	return batch.ParseItems(body)
}

func toBatchResponse(report batch.Report) BatchResponse {
	resp := BatchResponse{
		Results:             make([]BatchItemResponse, len(report.Results)),
		TotalCost:           report.TotalCost,
		TotalProcessingTime: report.TotalSeconds(),
	}
	for i, r := range report.Results {
		resp.Results[i] = BatchItemResponse{Result: r.Result, Label: r.Label, Error: r.Error}
	}
	return resp
}

func (e *ExtractBatchEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "batch <requests.json>",
		Short: "Run a batch of extractions on the server",
		Long: `Sends a JSON array of {label, extraction_schema, pdf_path} requests.
Paths are resolved on the server, relative to its batch base directory.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			if _, err := batch.ParseItems(data); err != nil {
				return err
			}

			client := api.NewClient(getServerURL())
			var resp BatchResponse
			body := map[string]json.RawMessage{"requests": data}
			if err := client.Post(cmd.Context(), "/extract-batch", body, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
