package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/pdfx/internal/batch"
	"github.com/jackzampolin/pdfx/internal/export"
	"github.com/jackzampolin/pdfx/internal/svcctx"
)

var (
	batchJSON    string
	batchBaseDir string
	batchOutput  string
)

var rule = strings.Repeat("-", 60)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Extract fields from a list of PDFs, one at a time",
	Long: `Reads a JSON array of requests and runs them serially in-process:

  [{"label": "invoice", "extraction_schema": {...}, "pdf_path": "a.pdf"}, ...]

Relative pdf paths are looked up under --base-dir first, then the working
directory. A request that fails is reported with all-null fields and does
not stop the batch. Identical documents later in the batch are cache hits.

With --output the report is written to a file; the extension picks the
format (.json, .yaml or .xlsx). Otherwise it is printed as JSON.

Examples:
  pdfx batch --json requests.json
  pdfx batch --json requests.json --base-dir ./pdfs --output results.xlsx`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		items, err := batch.LoadFile(batchJSON)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return errors.New("batch file contains no requests")
		}

		mgr, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(os.Stderr)
		svcs, err := svcctx.Build(mgr, logger)
		if err != nil {
			return err
		}

		baseDir := batchBaseDir
		if baseDir == "" {
			baseDir = mgr.Get().Batch.BaseDir
		}

		out := cmd.OutOrStdout()
		runner := batch.NewRunner(svcs.Extraction, batch.Config{
			BaseDir: baseDir,
			Logger:  logger.With("component", "batch"),
			OnItem: func(i, n int, r batch.ItemResult) {
				if !r.OK() {
					fmt.Fprintf(out, "[%d/%d] ERROR: %s\n", i, n, r.Error)
					return
				}
				source := "LLM"
				if r.CacheHit {
					source = "CACHE"
				}
				fmt.Fprintf(out, "[%d/%d] %s - %.3fs - $%.6f - %s\n",
					i, n, r.Label, r.ProcessingTime, r.Cost, source)
			},
		})

		fmt.Fprintf(out, "Processing %d documents SERIALLY...\n", len(items))
		fmt.Fprintln(out, rule)

		report := runner.Run(cmd.Context(), items)

		total := report.Summary.TotalDocuments
		fmt.Fprintln(out, rule)
		fmt.Fprintf(out, "Total: %d documents\n", total)
		fmt.Fprintf(out, "Total time: %.3fs\n", report.TotalSeconds())
		fmt.Fprintf(out, "Total cost: $%.6f\n", report.TotalCost)
		fmt.Fprintf(out, "Average time per document: %.3fs\n", report.TotalSeconds()/float64(total))
		fmt.Fprintf(out, "Average cost per document: $%.6f\n", report.TotalCost/float64(total))

		if batchOutput != "" {
			if err := export.WriteFile(batchOutput, report); err != nil {
				return err
			}
			fmt.Fprintf(out, "\nResults saved to: %s\n", batchOutput)
			return nil
		}

		fmt.Fprintln(out, "\nResults:")
		return export.WriteJSON(out, report)
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchJSON, "json", "", "Path to the JSON file of requests")
	batchCmd.Flags().StringVar(&batchBaseDir, "base-dir", "", "Directory relative pdf paths are resolved against (default from config: files)")
	batchCmd.Flags().StringVar(&batchOutput, "output", "", "Write results to this file (.json, .yaml or .xlsx)")
	batchCmd.MarkFlagRequired("json")

	rootCmd.AddCommand(batchCmd)
}
