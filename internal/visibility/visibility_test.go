package visibility

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestClassifyLiterals(t *testing.T) {
	tests := []struct {
		name string
		in   Descriptor
		want Kind
	}{
		{"public literal", Tag("public"), Public},
		{"private literal", Tag("private"), Private},
		{"shared with both lists", SharedWith([]string{"alice"}, []string{"team"}), Shared},
		{"shared with empty users", SharedWith([]string{}, []string{"team"}), Shared},
		{"shared with empty groups", SharedWith([]string{"alice"}, []string{}), Shared},
		{"shared with both empty", SharedWith(nil, nil), Shared},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Classify(tc.in)
			if err != nil {
				t.Fatalf("Classify returned error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("Classify = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestClassifyUnrecognizedForms(t *testing.T) {
	for _, d := range []Descriptor{
		Tag("friends-only"),
		Tag(""),
		{},
	} {
		if _, err := Classify(d); !errors.Is(err, ErrUnclassifiable) {
			t.Fatalf("Classify(%+v) error = %v, want ErrUnclassifiable", d, err)
		}
	}
}

func TestDescriptorJSONRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Kind
	}{
		{"literal public", `"public"`, Public},
		{"literal private", `"private"`, Private},
		{"shared object", `{"users":["alice"],"groups":["team"]}`, Shared},
		{"shared object empty users", `{"users":[],"groups":["team"]}`, Shared},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var d Descriptor
			if err := json.Unmarshal([]byte(tc.raw), &d); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			got, err := Classify(d)
			if err != nil {
				t.Fatalf("Classify returned error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("Classify = %q, want %q", got, tc.want)
			}

			out, err := json.Marshal(d)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			var again Descriptor
			if err := json.Unmarshal(out, &again); err != nil {
				t.Fatalf("re-unmarshal: %v", err)
			}
			k2, err := Classify(again)
			if err != nil || k2 != tc.want {
				t.Fatalf("round trip classified as %q (err %v), want %q", k2, err, tc.want)
			}
		})
	}
}

func TestDescriptorJSONPartialObjectIsUnclassifiable(t *testing.T) {
	for _, raw := range []string{
		`{"users":["alice"]}`,
		`{"groups":["team"]}`,
		`{}`,
		`{"users":null,"groups":["team"]}`,
	} {
		var d Descriptor
		if err := json.Unmarshal([]byte(raw), &d); err != nil {
			t.Fatalf("unmarshal %s: %v", raw, err)
		}
		if _, err := Classify(d); !errors.Is(err, ErrUnclassifiable) {
			t.Fatalf("Classify of %s error = %v, want ErrUnclassifiable", raw, err)
		}
	}
}
