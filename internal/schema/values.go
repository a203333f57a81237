package schema

// Values maps field names to extracted values. A nil pointer marks a field
// that was not found and encodes as JSON null.
type Values map[string]*string

// Absent returns values with every field of s set to absent.
func Absent(s Schema) Values {
	v := make(Values, s.Len())
	for _, f := range s.fields {
		v[f.Name] = nil
	}
	return v
}

// String returns a pointer to a copy of v.
func String(v string) *string {
	return &v
}

// Get returns the value for a field and whether it is present.
func (v Values) Get(name string) (string, bool) {
	p, ok := v[name]
	if !ok || p == nil {
		return "", false
	}
	return *p, true
}

// Found returns the number of fields holding a value.
func (v Values) Found() int {
	n := 0
	for _, p := range v {
		if p != nil {
			n++
		}
	}
	return n
}

// Clone returns a deep copy so callers cannot mutate shared entries.
func (v Values) Clone() Values {
	if v == nil {
		return nil
	}
	out := make(Values, len(v))
	for k, p := range v {
		if p != nil {
			out[k] = String(*p)
		} else {
			out[k] = nil
		}
	}
	return out
}
