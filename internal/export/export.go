// Package export writes batch reports as JSON, YAML or XLSX.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jackzampolin/pdfx/internal/batch"
	"github.com/jackzampolin/pdfx/internal/cache"
	"github.com/jackzampolin/pdfx/internal/schema"
)

// Document is the serialized form of a batch report.
type Document struct {
	Results []Row   `json:"results" yaml:"results"`
	Summary Summary `json:"summary" yaml:"summary"`
}

// Row is one item. Successful rows carry cost, timing and cache state;
// failed rows carry an error instead.
type Row struct {
	Label          string         `json:"label" yaml:"label"`
	PDFPath        string         `json:"pdf_path" yaml:"pdf_path"`
	ExtractedData  schema.Record  `json:"extracted_data" yaml:"extracted_data"`
	Cost           *float64       `json:"cost,omitempty" yaml:"cost,omitempty"`
	ProcessingTime *float64       `json:"processing_time,omitempty" yaml:"processing_time,omitempty"`
	CacheHit       *bool          `json:"cache_hit,omitempty" yaml:"cache_hit,omitempty"`
	Failure        *cache.Failure `json:"failure,omitempty" yaml:"failure,omitempty"`
	Error          string         `json:"error,omitempty" yaml:"error,omitempty"`
}

// Summary counts item outcomes.
type Summary struct {
	TotalDocuments int `json:"total_documents" yaml:"total_documents"`
	Successful     int `json:"successful" yaml:"successful"`
	Failed         int `json:"failed" yaml:"failed"`
}

// NewDocument converts a report to its output form.
func NewDocument(report batch.Report) Document {
	doc := Document{
		Results: make([]Row, 0, len(report.Results)),
		Summary: Summary{
			TotalDocuments: report.Summary.TotalDocuments,
			Successful:     report.Summary.Successful,
			Failed:         report.Summary.Failed,
		},
	}
	for _, r := range report.Results {
		row := Row{
			Label:         r.Label,
			PDFPath:       r.PDFPath,
			ExtractedData: r.ExtractedData,
		}
		if r.OK() {
			cost, elapsed, hit := r.Cost, r.ProcessingTime, r.CacheHit
			row.Cost = &cost
			row.ProcessingTime = &elapsed
			row.CacheHit = &hit
			row.Failure = r.Failure
		} else {
			row.Error = r.Error
		}
		doc.Results = append(doc.Results, row)
	}
	return doc
}

// WriteJSON writes the report as indented JSON.
func WriteJSON(w io.Writer, report batch.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(NewDocument(report))
}

// WriteYAML writes the report as YAML.
func WriteYAML(w io.Writer, report batch.Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(NewDocument(report)); err != nil {
		return err
	}
	return enc.Close()
}

// WriteFile writes the report to path, choosing the format from the
// extension: .xlsx, .yaml/.yml, otherwise JSON.
func WriteFile(path string, report batch.Report) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		data, err := WriteXLSX(report)
		if err != nil {
			return err
		}
		return os.WriteFile(path, data, 0o644)
	case ".yaml", ".yml":
		return writeWith(path, report, WriteYAML)
	default:
		return writeWith(path, report, WriteJSON)
	}
}

func writeWith(path string, report batch.Report, write func(io.Writer, batch.Report) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := write(f, report); err != nil {
		f.Close()
		return fmt.Errorf("write output: %w", err)
	}
	return f.Close()
}
