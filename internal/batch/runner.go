package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jackzampolin/pdfx/internal/extraction"
	"github.com/jackzampolin/pdfx/internal/schema"
)

// DefaultBaseDir is where relative pdf paths are looked up first.
const DefaultBaseDir = "files"

// Extractor is the single-document pipeline the runner drives.
type Extractor interface {
	Extract(ctx context.Context, doc []byte, s schema.Schema, label string) extraction.Result
}

// ItemResult is the outcome for one item. Error is set when the item never
// reached the pipeline; its data is then all absent with zero cost.
type ItemResult struct {
	Label   string `json:"label"`
	PDFPath string `json:"pdf_path"`
	extraction.Result
	Error string `json:"error,omitempty"`
}

// OK reports whether the item ran through the pipeline.
func (r ItemResult) OK() bool {
	return r.Error == ""
}

// Summary counts item outcomes.
type Summary struct {
	TotalDocuments int `json:"total_documents"`
	Successful     int `json:"successful"`
	Failed         int `json:"failed"`
	CacheHits      int `json:"cache_hits"`
}

// Report is the outcome of a batch, results in input order.
type Report struct {
	Results   []ItemResult  `json:"results"`
	TotalCost float64       `json:"total_cost"`
	TotalTime time.Duration `json:"-"`
	Summary   Summary       `json:"summary"`
}

// TotalSeconds returns the batch wall time in seconds.
func (r Report) TotalSeconds() float64 {
	return r.TotalTime.Seconds()
}

// Config configures a Runner.
type Config struct {
	BaseDir string
	Logger  *slog.Logger

	// OnItem is called after each item completes, before the next starts.
	OnItem func(index, total int, r ItemResult)
}

// Runner processes items one at a time, in order. Item N+1 starts only
// after item N's pipeline has returned.
type Runner struct {
	svc     Extractor
	baseDir string
	onItem  func(int, int, ItemResult)
	logger  *slog.Logger
}

// NewRunner creates a Runner.
func NewRunner(svc Extractor, cfg Config) *Runner {
	if cfg.BaseDir == "" {
		cfg.BaseDir = DefaultBaseDir
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		svc:     svc,
		baseDir: cfg.BaseDir,
		onItem:  cfg.OnItem,
		logger:  logger,
	}
}

// Run processes items serially. It always returns one result per item.
// After ctx is cancelled, remaining items are reported as cancelled.
func (r *Runner) Run(ctx context.Context, items []Item) Report {
	start := time.Now()
	report := Report{Results: make([]ItemResult, 0, len(items))}

	for i, it := range items {
		var res ItemResult
		if err := ctx.Err(); err != nil {
			res = errorResult(it, fmt.Errorf("cancelled: %w", err))
		} else {
			res = r.runItem(ctx, it)
		}

		report.Results = append(report.Results, res)
		report.TotalCost += res.Cost
		if res.OK() {
			report.Summary.Successful++
			if res.CacheHit {
				report.Summary.CacheHits++
			}
		} else {
			report.Summary.Failed++
		}

		if r.onItem != nil {
			r.onItem(i+1, len(items), res)
		}
	}

	report.Summary.TotalDocuments = len(items)
	report.TotalTime = time.Since(start)

	r.logger.Info("batch complete",
		"documents", len(items),
		"successful", report.Summary.Successful,
		"failed", report.Summary.Failed,
		"cache_hits", report.Summary.CacheHits,
		"cost_usd", report.TotalCost,
		"elapsed_ms", report.TotalTime.Milliseconds())

	return report
}

func (r *Runner) runItem(ctx context.Context, it Item) (res ItemResult) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("batch item panicked", "pdf_path", it.PDFPath, "panic", p)
			res = errorResult(it, fmt.Errorf("internal error: %v", p))
		}
	}()

	if err := it.Validate(); err != nil {
		r.logger.Warn("invalid batch item", "pdf_path", it.PDFPath, "error", err)
		return errorResult(it, err)
	}

	path, err := r.resolve(it.PDFPath)
	if err != nil {
		r.logger.Warn("batch item not found", "pdf_path", it.PDFPath, "error", err)
		return errorResult(it, err)
	}
	doc, err := os.ReadFile(path)
	if err != nil {
		return errorResult(it, fmt.Errorf("read %s: %w", path, err))
	}
	r.logger.Debug("batch item loaded", "path", path, "size", humanize.Bytes(uint64(len(doc))))

	return ItemResult{
		Label:   displayLabel(it.Label),
		PDFPath: it.PDFPath,
		Result:  r.svc.Extract(ctx, doc, it.Schema, it.Label),
	}
}

// resolve finds the file for a request path: absolute paths as given,
// relative paths under the base dir first, then from the working directory.
func (r *Runner) resolve(p string) (string, error) {
	if filepath.IsAbs(p) {
		if exists(p) {
			return p, nil
		}
		return "", fmt.Errorf("PDF not found: %s", p)
	}
	candidate := filepath.Join(r.baseDir, p)
	if exists(candidate) {
		return candidate, nil
	}
	if exists(p) {
		return p, nil
	}
	return "", fmt.Errorf("PDF not found: %s", candidate)
}

func exists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

func errorResult(it Item, err error) ItemResult {
	return ItemResult{
		Label:   displayLabel(it.Label),
		PDFPath: it.PDFPath,
		Result: extraction.Result{
			ExtractedData: schema.NewRecord(it.Schema, nil),
		},
		Error: err.Error(),
	}
}

func displayLabel(label string) string {
	if label == "" {
		return "unknown"
	}
	return label
}
