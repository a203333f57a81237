package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/jackzampolin/pdfx/internal/batch"
)

const (
	resultsSheet = "Results"
	summarySheet = "Summary"
)

var fixedHeaders = []string{
	"Label",
	"PDF Path",
	"Cost (USD)",
	"Processing Time (s)",
	"Cache Hit",
	"Error",
}

// WriteXLSX returns an XLSX workbook with one row per item and one column
// per extracted field, plus a summary sheet.
func WriteXLSX(report batch.Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", resultsSheet); err != nil {
		return nil, err
	}

	fieldNames := fieldColumns(report)
	headers := append(append([]string{}, fixedHeaders...), fieldNames...)
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(resultsSheet, cell, h)
	}

	for idx, r := range report.Results {
		row := idx + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(resultsSheet, cell, v)
		}

		write(1, r.Label)
		write(2, r.PDFPath)
		if r.OK() {
			write(3, r.Cost)
			write(4, r.ProcessingTime)
			write(5, r.CacheHit)
		} else {
			write(6, r.Error)
		}
		for i, name := range fieldNames {
			if v, ok := r.ExtractedData.Get(name); ok {
				write(len(fixedHeaders)+i+1, v)
			}
		}
	}

	_ = f.SetColWidth(resultsSheet, "A", "A", 18) // label
	_ = f.SetColWidth(resultsSheet, "B", "B", 40) // path
	_ = f.SetColWidth(resultsSheet, "C", "E", 14)
	_ = f.SetColWidth(resultsSheet, "F", "F", 40) // error

	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, err
	}
	summary := [][2]any{
		{"Total documents", report.Summary.TotalDocuments},
		{"Successful", report.Summary.Successful},
		{"Failed", report.Summary.Failed},
		{"Cache hits", report.Summary.CacheHits},
		{"Total cost (USD)", report.TotalCost},
		{"Total time (s)", report.TotalSeconds()},
	}
	for i, kv := range summary {
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", i+1), kv[0])
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", i+1), kv[1])
	}
	_ = f.SetColWidth(summarySheet, "A", "A", 20)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

// fieldColumns returns the union of field names across results, in the
// order first seen. Each result contributes its fields in schema order.
func fieldColumns(report batch.Report) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range report.Results {
		for _, name := range r.ExtractedData.Names() {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out
}
