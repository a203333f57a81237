// Package pdftext extracts plain text from the first page of a PDF.
package pdftext

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/ledongthuc/pdf"
	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
)

var (
	// ErrUnreadable means the bytes could not be decoded as a PDF.
	ErrUnreadable = errors.New("document is not a readable PDF")

	// ErrNoPages means the PDF has zero pages.
	ErrNoPages = errors.New("document has no pages")

	// ErrNoText means the first page has no extractable text.
	ErrNoText = errors.New("first page has no text")
)

var disableConfigDir sync.Once

// Page is the text of the first page and the document's page count.
type Page struct {
	Text      string
	PageCount int
}

// Extractor reads first-page text from PDF bytes.
type Extractor struct {
	logger *slog.Logger
}

// New creates an Extractor.
func New(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	// pdfcpu otherwise writes a config dir under the user's home.
	disableConfigDir.Do(pdfapi.DisableConfigDir)
	return &Extractor{logger: logger}
}

// Extract returns the trimmed text of page one. Pages after the first are
// ignored. The error wraps ErrUnreadable, ErrNoPages or ErrNoText.
func (e *Extractor) Extract(ctx context.Context, doc []byte) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}
	if len(doc) == 0 {
		return Page{}, fmt.Errorf("%w: empty input", ErrUnreadable)
	}

	count, err := pageCount(doc)
	if err != nil {
		return Page{}, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	if count == 0 {
		return Page{}, ErrNoPages
	}

	text, err := firstPageText(doc)
	if err != nil {
		return Page{PageCount: count}, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Page{PageCount: count}, ErrNoText
	}

	return Page{Text: text, PageCount: count}, nil
}

// FirstPageText returns the first page's text, or false when there is none
// for any reason. The reason is logged.
func (e *Extractor) FirstPageText(ctx context.Context, doc []byte) (string, bool) {
	page, err := e.Extract(ctx, doc)
	if err != nil {
		e.logger.Warn("no text extracted from document", "error", err, "size", len(doc))
		return "", false
	}
	if page.PageCount > 1 {
		e.logger.Debug("ignoring pages after the first", "page_count", page.PageCount)
	}
	return page.Text, true
}

func pageCount(doc []byte) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdfcpu panic: %v", r)
		}
	}()
	return pdfapi.PageCount(bytes.NewReader(doc), nil)
}

func firstPageText(doc []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(doc), int64(len(doc)))
	if err != nil {
		return "", err
	}
	if r.NumPage() < 1 {
		return "", ErrNoPages
	}

	p := r.Page(1)
	if p.V.IsNull() {
		return "", fmt.Errorf("page 1 missing")
	}
	return p.GetPlainText(nil)
}
