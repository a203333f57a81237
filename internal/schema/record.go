package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"
)

// Record is a set of extracted values that keeps its field order when
// encoded. Records built from a schema list its fields in schema order;
// every schema field is present, absent ones as null.
// The zero value is an empty record.
type Record struct {
	names  []string
	values Values
}

// NewRecord orders v by s. Values for names outside the schema follow the
// schema fields, sorted by name.
func NewRecord(s Schema, v Values) Record {
	names := s.Names()
	var extra []string
	for name := range v {
		if !s.Has(name) {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	names = append(names, extra...)

	values := make(Values, len(names))
	for _, name := range names {
		if p := v[name]; p != nil {
			values[name] = String(*p)
		} else {
			values[name] = nil
		}
	}
	return Record{names: names, values: values}
}

// Names returns the field names in order.
func (r Record) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Len returns the number of fields, found or not.
func (r Record) Len() int {
	return len(r.names)
}

// Get returns the value for a field and whether it was found.
func (r Record) Get(name string) (string, bool) {
	return r.values.Get(name)
}

// Lookup reports whether the field is in the record and returns its value,
// nil when absent.
func (r Record) Lookup(name string) (*string, bool) {
	p, ok := r.values[name]
	return p, ok
}

// Found returns the number of fields holding a value.
func (r Record) Found() int {
	return r.values.Found()
}

// Values returns a copy of the record as an unordered map.
func (r Record) Values() Values {
	if r.values == nil {
		return Values{}
	}
	return r.values.Clone()
}

// MarshalJSON encodes the record as an object in field order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	out := []byte{'{'}
	for i, name := range r.names {
		if i > 0 {
			out = append(out, ',')
		}
		buf.Reset()
		if err := enc.Encode(name); err != nil {
			return nil, err
		}
		out = append(out, bytes.TrimSpace(buf.Bytes())...)
		out = append(out, ':')

		p := r.values[name]
		if p == nil {
			out = append(out, "null"...)
			continue
		}
		buf.Reset()
		if err := enc.Encode(*p); err != nil {
			return nil, err
		}
		out = append(out, bytes.TrimSpace(buf.Bytes())...)
	}
	return append(out, '}'), nil
}

// UnmarshalJSON decodes an object of string or null values, keeping the
// order the fields appear in.
func (r *Record) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*r = Record{}
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("extracted data must be a JSON object")
	}

	rec := Record{values: make(Values)}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		name := keyTok.(string)

		var v *string
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("field %q: %w", name, err)
		}
		if _, dup := rec.values[name]; !dup {
			rec.names = append(rec.names, name)
		}
		rec.values[name] = v
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return fmt.Errorf("extracted data: trailing data")
	}
	*r = rec
	return nil
}

// MarshalYAML encodes the record as a mapping in field order.
func (r Record) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, name := range r.names {
		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: name}
		val := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
		if p := r.values[name]; p != nil {
			val = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: *p}
		}
		node.Content = append(node.Content, key, val)
	}
	return node, nil
}
