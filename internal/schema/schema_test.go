package schema

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantNames []string
		wantErr   error
	}{
		{
			name:      "keeps field order",
			input:     `{"total":"Invoice total","invoice_number":"Invoice id"}`,
			wantNames: []string{"total", "invoice_number"},
		},
		{
			name:    "empty object",
			input:   `{}`,
			wantErr: ErrEmpty,
		},
		{
			name:    "array is not an object",
			input:   `["a","b"]`,
			wantErr: ErrNotObject,
		},
		{
			name:    "duplicate field",
			input:   `{"a":"x","a":"y"}`,
			wantErr: ErrDuplicateField,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Parse([]byte(tt.input))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Parse() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			got := s.Names()
			if len(got) != len(tt.wantNames) {
				t.Fatalf("Names() = %v, want %v", got, tt.wantNames)
			}
			for i := range got {
				if got[i] != tt.wantNames[i] {
					t.Errorf("Names()[%d] = %q, want %q", i, got[i], tt.wantNames[i])
				}
			}
		})
	}
}

func TestParse_RejectsMalformed(t *testing.T) {
	for _, input := range []string{`{"a":`, `not json`, `{"a":1}`, `{"a":"x"} {}`, ``} {
		if _, err := Parse([]byte(input)); err == nil {
			t.Errorf("Parse(%q) expected error", input)
		}
	}
}

func TestCanonical_IgnoresOrder(t *testing.T) {
	a, err := Parse([]byte(`{"invoice_number":"id","total":"sum"}`))
	if err != nil {
		t.Fatal(err)
	}
	b, err := Parse([]byte(`{"total":"sum","invoice_number":"id"}`))
	if err != nil {
		t.Fatal(err)
	}

	if string(a.Canonical()) != string(b.Canonical()) {
		t.Errorf("Canonical() differs: %s vs %s", a.Canonical(), b.Canonical())
	}
	if want := `{"invoice_number":"id","total":"sum"}`; string(a.Canonical()) != want {
		t.Errorf("Canonical() = %s, want %s", a.Canonical(), want)
	}
}

func TestSchema_JSONRoundTripKeepsOrder(t *testing.T) {
	in := `{"z":"last letter","a":"first letter"}`
	var s Schema
	if err := json.Unmarshal([]byte(in), &s); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	out, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(out) != in {
		t.Errorf("Marshal() = %s, want %s", out, in)
	}
}

func TestFromMap(t *testing.T) {
	s := FromMap(map[string]string{"b": "2", "a": "1"})
	if got := s.Names(); got[0] != "a" || got[1] != "b" {
		t.Errorf("Names() = %v, want [a b]", got)
	}
	if d, ok := s.Description("b"); !ok || d != "2" {
		t.Errorf("Description(b) = %q, %v", d, ok)
	}
}

func TestValues(t *testing.T) {
	s := FromMap(map[string]string{"a": "x", "b": "y"})

	t.Run("absent has every field as null", func(t *testing.T) {
		v := Absent(s)
		if len(v) != 2 {
			t.Fatalf("len = %d, want 2", len(v))
		}
		data, _ := json.Marshal(v)
		if string(data) != `{"a":null,"b":null}` {
			t.Errorf("Marshal = %s", data)
		}
	})

	t.Run("clone is independent", func(t *testing.T) {
		v := Values{"a": String("1"), "b": nil}
		c := v.Clone()
		*c["a"] = "changed"
		if got, _ := v.Get("a"); got != "1" {
			t.Errorf("original mutated: %q", got)
		}
		if v.Found() != 1 {
			t.Errorf("Found() = %d, want 1", v.Found())
		}
	})

	t.Run("empty string is not absent", func(t *testing.T) {
		v := Values{"a": String("")}
		if _, ok := v.Get("a"); !ok {
			t.Error("empty string should be present")
		}
	})
}

func TestOutputJSONSchema(t *testing.T) {
	s := FromMap(map[string]string{"total": "sum"})
	var doc map[string]any
	if err := json.Unmarshal(s.OutputJSONSchema(), &doc); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	props, _ := doc["properties"].(map[string]any)
	if _, ok := props["total"]; !ok {
		t.Errorf("expected property total, got %v", props)
	}
}
