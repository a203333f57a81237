// Package batch runs a list of extraction requests strictly one after
// another.
package batch

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/jackzampolin/pdfx/internal/schema"
)

// ErrNotArray is returned when a batch document is not a JSON array.
var ErrNotArray = errors.New("batch must be a JSON array of requests")

// Item is one batch request.
type Item struct {
	Label   string        `json:"label,omitempty"`
	Schema  schema.Schema `json:"extraction_schema"`
	PDFPath string        `json:"pdf_path"`

	// decodeErr is set when the item could not be decoded. The item still
	// takes its slot in the batch and reports this error.
	decodeErr error
}

// Validate checks that the item can be run.
func (it Item) Validate() error {
	if it.decodeErr != nil {
		return it.decodeErr
	}
	return validation.ValidateStruct(&it,
		validation.Field(&it.PDFPath, validation.Required),
		validation.Field(&it.Schema, validation.By(func(v any) error {
			if s, ok := v.(schema.Schema); ok && s.Len() == 0 {
				return schema.ErrEmpty
			}
			return nil
		})),
	)
}

// ParseItems decodes a JSON array of items. Each element is decoded on its
// own so a malformed element only fails itself. The error is non-nil only
// when data is not a JSON array.
func ParseItems(data []byte) ([]Item, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		return nil, ErrNotArray
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotArray, err)
	}

	items := make([]Item, len(raws))
	for i, raw := range raws {
		items[i] = decodeItem(raw)
	}
	return items, nil
}

func decodeItem(raw json.RawMessage) Item {
	var wire struct {
		Label   *string         `json:"label"`
		Schema  json.RawMessage `json:"extraction_schema"`
		PDFPath string          `json:"pdf_path"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return Item{decodeErr: fmt.Errorf("invalid request: %w", err)}
	}

	it := Item{PDFPath: wire.PDFPath}
	if wire.Label != nil {
		it.Label = *wire.Label
	}
	if len(wire.Schema) == 0 || bytes.Equal(bytes.TrimSpace(wire.Schema), []byte("null")) {
		it.decodeErr = errors.New("extraction_schema is required")
		return it
	}
	s, err := schema.Parse(wire.Schema)
	if err != nil {
		it.decodeErr = fmt.Errorf("invalid extraction_schema: %w", err)
		return it
	}
	it.Schema = s
	return it
}

// LoadFile reads and parses a batch file.
func LoadFile(path string) ([]Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read batch file: %w", err)
	}
	items, err := ParseItems(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return items, nil
}
