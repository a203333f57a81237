package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/pdfx/internal/api"
	"github.com/jackzampolin/pdfx/internal/schema"
	"github.com/jackzampolin/pdfx/internal/server/endpoints"
	"github.com/jackzampolin/pdfx/internal/svcctx"
)

var (
	extractLabel      string
	extractSchema     string
	extractSchemaFile string
)

var extractCmd = &cobra.Command{
	Use:   "extract <file.pdf>",
	Short: "Extract fields from a PDF without a server",
	Long: `Runs one extraction in-process and prints the result envelope.

The cache lives for the duration of the command, so this is mostly useful
for trying out a schema against a document.

Examples:
  pdfx extract invoice.pdf --schema '{"total":"The invoice total"}'
  pdfx extract invoice.pdf --schema-file invoice.json --label invoice -o json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := endpoints.ReadSchemaFlag(extractSchema, extractSchemaFile)
		if err != nil {
			return err
		}
		sch, err := schema.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid extraction schema: %w", err)
		}
		doc, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read pdf: %w", err)
		}

		mgr, err := loadConfig()
		if err != nil {
			return err
		}
		svcs, err := svcctx.Build(mgr, newLogger(os.Stderr))
		if err != nil {
			return err
		}

		result := svcs.Extraction.Extract(cmd.Context(), doc, sch, extractLabel)
		return api.Output(result)
	},
}

func init() {
	extractCmd.Flags().StringVar(&extractLabel, "label", "", "Document type hint")
	extractCmd.Flags().StringVar(&extractSchema, "schema", "", "Extraction schema as a JSON object")
	extractCmd.Flags().StringVar(&extractSchemaFile, "schema-file", "", "Path to a JSON file holding the extraction schema")

	rootCmd.AddCommand(extractCmd)
}
