// Package schema defines the caller-supplied extraction schema and the
// field values extracted against it.
package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
)

var (
	// ErrEmpty is returned when a schema has no fields.
	ErrEmpty = errors.New("extraction schema has no fields")

	// ErrNotObject is returned when the schema JSON is not an object.
	ErrNotObject = errors.New("extraction schema must be a JSON object")

	// ErrDuplicateField is returned when a field name appears twice.
	ErrDuplicateField = errors.New("duplicate field in extraction schema")
)

// Field is a single named field and the description used to prompt for it.
type Field struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Schema is an ordered mapping of field name to description.
// The zero value is an empty schema.
type Schema struct {
	fields []Field
	index  map[string]int
}

// New builds a schema from fields in the given order.
func New(fields ...Field) (Schema, error) {
	s := Schema{
		fields: make([]Field, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for _, f := range fields {
		if _, ok := s.index[f.Name]; ok {
			return Schema{}, fmt.Errorf("%w: %q", ErrDuplicateField, f.Name)
		}
		s.index[f.Name] = len(s.fields)
		s.fields = append(s.fields, f)
	}
	return s, nil
}

// FromMap builds a schema from a map. Fields are ordered lexicographically
// since Go maps carry no order.
func FromMap(m map[string]string) Schema {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]Field, 0, len(names))
	for _, name := range names {
		fields = append(fields, Field{Name: name, Description: m[name]})
	}
	s, _ := New(fields...) // map keys are unique
	return s
}

// Parse decodes a JSON object of field name to description, keeping the
// order the fields appear in.
func Parse(data []byte) (Schema, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return Schema{}, fmt.Errorf("invalid extraction schema JSON: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return Schema{}, ErrNotObject
	}

	var fields []Field
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return Schema{}, fmt.Errorf("invalid extraction schema JSON: %w", err)
		}
		name := keyTok.(string)

		var desc any
		if err := dec.Decode(&desc); err != nil {
			return Schema{}, fmt.Errorf("invalid extraction schema JSON: %w", err)
		}
		text, ok := desc.(string)
		if !ok {
			return Schema{}, fmt.Errorf("field %q: description must be a string", name)
		}
		fields = append(fields, Field{Name: name, Description: text})
	}

	if _, err := dec.Token(); err != nil {
		return Schema{}, fmt.Errorf("invalid extraction schema JSON: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return Schema{}, fmt.Errorf("invalid extraction schema JSON: trailing data")
	}

	if len(fields) == 0 {
		return Schema{}, ErrEmpty
	}
	return New(fields...)
}

// Fields returns a copy of the fields in order.
func (s Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Names returns the field names in order.
func (s Schema) Names() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return names
}

// Len returns the number of fields.
func (s Schema) Len() int {
	return len(s.fields)
}

// Has reports whether the schema contains the named field.
func (s Schema) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Description returns the description for a field.
func (s Schema) Description(name string) (string, bool) {
	i, ok := s.index[name]
	if !ok {
		return "", false
	}
	return s.fields[i].Description, true
}

// Canonical returns the schema serialized as a JSON object with keys sorted
// lexicographically. Field order does not affect the result.
func (s Schema) Canonical() []byte {
	m := make(map[string]string, len(s.fields))
	for _, f := range s.fields {
		m[f.Name] = f.Description
	}
	// encoding/json sorts map keys.
	data, _ := json.Marshal(m)
	return data
}

// MarshalJSON encodes the schema as an object in field order.
func (s Schema) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range s.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(f.Description)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object, keeping field order.
func (s *Schema) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// OutputJSONSchema returns a JSON Schema describing the flat object an LLM
// should return for this schema. Values are scalars or null.
func (s Schema) OutputJSONSchema() json.RawMessage {
	props := make(map[string]any, len(s.fields))
	for _, f := range s.fields {
		props[f.Name] = map[string]any{
			"type":        []string{"string", "number", "boolean", "null"},
			"description": f.Description,
		}
	}
	doc := map[string]any{
		"type":       "object",
		"properties": props,
	}
	data, _ := json.Marshal(doc)
	return data
}
