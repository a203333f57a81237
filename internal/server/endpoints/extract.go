package endpoints

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/cobra"

	"github.com/jackzampolin/pdfx/internal/api"
	"github.com/jackzampolin/pdfx/internal/extraction"
	"github.com/jackzampolin/pdfx/internal/schema"
	"github.com/jackzampolin/pdfx/internal/svcctx"
)

// DefaultMaxUploadBytes bounds POST /extract bodies when no limit is configured.
const DefaultMaxUploadBytes int64 = 32 << 20

// ExtractResponse is the result envelope for one document.
type ExtractResponse = extraction.Result

// extractForm holds the non-file multipart fields.
type extractForm struct {
	Label  string `json:"label"`
	Schema string `json:"extraction_schema"`
}

func (f extractForm) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Schema, validation.Required),
	)
}

// ExtractEndpoint handles POST /extract.
type ExtractEndpoint struct {
	MaxUploadBytes int64
}

var _ api.Endpoint = (*ExtractEndpoint)(nil)

func (e *ExtractEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/extract", e.handler
}

func (e *ExtractEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Extract fields from a PDF
//	@Description	Extracts the fields named in extraction_schema from the first page of the uploaded PDF.
//	@Description	Identical (document, schema) pairs are answered from the cache.
//	@Tags			extraction
//	@Accept			mpfd
//	@Produce		json
//	@Param			label				formData	string	false	"Document type hint"
//	@Param			extraction_schema	formData	string	true	"JSON object of field name to description"
//	@Param			pdf					formData	file	true	"PDF document"
//	@Success		200					{object}	ExtractResponse
//	@Failure		400					{object}	ErrorResponse
//	@Failure		413					{object}	ErrorResponse
//	@Failure		500					{object}	ErrorResponse
//	@Router			/extract [post]
func (e *ExtractEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	limit := e.MaxUploadBytes
	if limit <= 0 {
		limit = DefaultMaxUploadBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds %s", humanize.IBytes(uint64(limit))))
			return
		}
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse form: %v", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	form := extractForm{
		Label:  r.FormValue("label"),
		Schema: r.FormValue("extraction_schema"),
	}
	if err := form.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sch, err := schema.Parse([]byte(form.Schema))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON in extraction_schema: "+err.Error())
		return
	}

	file, header, err := r.FormFile("pdf")
	if err != nil {
		writeError(w, http.StatusBadRequest, "pdf file is required")
		return
	}
	defer file.Close()

	svc := svcctx.ExtractionFrom(r.Context())
	logger := svcctx.LoggerFrom(r.Context())

	result, err := func() (res extraction.Result, err error) {
		defer func() {
			if p := recover(); p != nil {
				err = fmt.Errorf("internal error: %v", p)
			}
		}()
		doc, err := io.ReadAll(file)
		if err != nil {
			return res, fmt.Errorf("failed to read pdf: %w", err)
		}
		logger.Debug("extract request",
			"label", form.Label,
			"filename", header.Filename,
			"size", humanize.Bytes(uint64(len(doc))),
			"fields", sch.Len())
		return svc.Extract(r.Context(), doc, sch, form.Label), nil
	}()
	if err != nil {
		logger.Error("extraction failed", "error", err, "filename", header.Filename)
		writeError(w, http.StatusInternalServerError, "Extraction failed: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (e *ExtractEndpoint) Command(getServerURL func() string) *cobra.Command {
	var label, schemaJSON, schemaFile string

	cmd := &cobra.Command{
		Use:   "extract <file.pdf>",
		Short: "Extract fields from a PDF on the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := ReadSchemaFlag(schemaJSON, schemaFile)
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open pdf: %w", err)
			}
			defer f.Close()

			client := api.NewClient(getServerURL())
			var resp ExtractResponse
			err = client.PostMultipart(cmd.Context(), "/extract",
				map[string]string{"label": label, "extraction_schema": string(raw)},
				api.FilePart{Field: "pdf", Filename: filepath.Base(args[0]), Content: f},
				&resp)
			if err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&label, "label", "", "Document type hint")
	cmd.Flags().StringVar(&schemaJSON, "schema", "", "Extraction schema as a JSON object")
	cmd.Flags().StringVar(&schemaFile, "schema-file", "", "Path to a JSON file holding the extraction schema")
	return cmd
}

// ReadSchemaFlag returns the schema JSON given inline or from a file.
// Exactly one of the two must be set.
func ReadSchemaFlag(inline, path string) ([]byte, error) {
	switch {
	case inline != "" && path != "":
		return nil, errors.New("use either --schema or --schema-file, not both")
	case inline != "":
		return []byte(inline), nil
	case path != "":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read schema file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("--schema or --schema-file is required")
	}
}
