package schema

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestRecord_FollowsSchemaOrder(t *testing.T) {
	s, err := Parse([]byte(`{"zeta":"last letter","alpha":"first letter","mid":"middle"}`))
	if err != nil {
		t.Fatal(err)
	}
	r := NewRecord(s, Values{"alpha": String("a"), "zeta": String("z<&>"), "extra": String("x")})

	if got, want := r.Names(), []string{"zeta", "alpha", "mid", "extra"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
	if r.Len() != 4 || r.Found() != 3 {
		t.Errorf("Len() = %d, Found() = %d", r.Len(), r.Found())
	}
	if p, ok := r.Lookup("mid"); !ok || p != nil {
		t.Errorf("Lookup(mid) = %v, %v, want present and absent", p, ok)
	}

	t.Run("json", func(t *testing.T) {
		data, err := json.Marshal(r)
		if err != nil {
			t.Fatalf("Marshal() error = %v", err)
		}
		want := `{"zeta":"z<&>","alpha":"a","mid":null,"extra":"x"}`
		if string(data) != want {
			t.Errorf("Marshal() = %s, want %s", data, want)
		}

		var back Record
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		if !reflect.DeepEqual(back.Names(), r.Names()) || !reflect.DeepEqual(back.Values(), r.Values()) {
			t.Errorf("round trip = %v %v", back.Names(), back.Values())
		}
	})

	t.Run("yaml", func(t *testing.T) {
		data, err := yaml.Marshal(r)
		if err != nil {
			t.Fatalf("Marshal() error = %v", err)
		}
		out := string(data)
		z, a, m := strings.Index(out, "zeta:"), strings.Index(out, "alpha:"), strings.Index(out, "mid:")
		if z < 0 || !(z < a && a < m) {
			t.Errorf("yaml order wrong:\n%s", out)
		}
		if !strings.Contains(out, "mid: null") {
			t.Errorf("absent field not null:\n%s", out)
		}
	})
}

func TestRecord_Zero(t *testing.T) {
	var r Record
	data, err := json.Marshal(r)
	if err != nil || string(data) != "{}" {
		t.Errorf("Marshal(zero) = %s, %v", data, err)
	}
	if r.Values() == nil {
		t.Error("Values() of zero record should be an empty map")
	}

	if err := json.Unmarshal([]byte(`{"a":1}`), &r); err == nil {
		t.Error("non-string value should be rejected")
	}
}

func TestRecord_DoesNotAlias(t *testing.T) {
	v := Values{"a": String("one")}
	r := NewRecord(FromMap(map[string]string{"a": "A"}), v)
	*v["a"] = "changed"
	if got, _ := r.Get("a"); got != "one" {
		t.Errorf("record shares storage with input: %q", got)
	}
}
