package fields

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackzampolin/pdfx/internal/schema"
)

var errNotObject = errors.New("response is not a JSON object")

// normalize maps a parsed model response onto the schema. Every schema
// field is present in the result; fields the model invented are dropped.
// Strings are kept as-is, numbers and booleans become their JSON text, and
// nested objects or arrays become compact JSON text. The second return
// value reports whether any nested value was flattened.
func normalize(s schema.Schema, parsed json.RawMessage) (schema.Values, bool, error) {
	trimmed := bytes.TrimSpace(parsed)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false, errNotObject
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return nil, false, fmt.Errorf("decode response object: %w", err)
	}

	values := schema.Absent(s)
	flattened := false
	for _, name := range s.Names() {
		raw, ok := obj[name]
		if !ok {
			continue
		}
		raw = bytes.TrimSpace(raw)
		switch {
		case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
			// absent
		case raw[0] == '"':
			var str string
			if err := json.Unmarshal(raw, &str); err != nil {
				return nil, false, fmt.Errorf("decode field %q: %w", name, err)
			}
			values[name] = schema.String(str)
		case raw[0] == '{' || raw[0] == '[':
			var buf bytes.Buffer
			if err := json.Compact(&buf, raw); err != nil {
				return nil, false, fmt.Errorf("compact field %q: %w", name, err)
			}
			values[name] = schema.String(buf.String())
			flattened = true
		default:
			values[name] = schema.String(string(raw))
		}
	}
	return values, flattened, nil
}
