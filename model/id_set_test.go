package model

import (
	"reflect"
	"testing"
)

func TestIDSet_AddKeepsOrderAndSkipsDuplicates(t *testing.T) {
	set := NewIDSet("a", "b", "a", "")
	if !reflect.DeepEqual(set.Strings(), []string{"a", "b"}) {
		t.Fatalf("unexpected set %v", set)
	}

	set, added := set.Add("b")
	if added {
		t.Error("expected duplicate add to report false")
	}
	set, added = set.Add("c")
	if !added || set.Len() != 3 {
		t.Errorf("expected c to be added, got %v", set)
	}
}

func TestIDSet_UnionReportsNewIDs(t *testing.T) {
	set, added := NewIDSet("a").Union([]string{"a", "b", "c", "b"})
	if !reflect.DeepEqual(added, []string{"b", "c"}) {
		t.Errorf("expected [b c] added, got %v", added)
	}
	if !reflect.DeepEqual(set.Strings(), []string{"a", "b", "c"}) {
		t.Errorf("unexpected union %v", set)
	}
}

func TestIDSet_Without(t *testing.T) {
	set := NewIDSet("a", "b", "c")
	out := set.Without(func(id string) bool { return id == "b" })
	if !reflect.DeepEqual(out.Strings(), []string{"a", "c"}) {
		t.Errorf("unexpected result %v", out)
	}
	if set.Len() != 3 {
		t.Error("Without must not modify the receiver")
	}
}

func TestIDSet_ValueAndScan(t *testing.T) {
	var empty IDSet
	v, err := empty.Value()
	if err != nil || v != "[]" {
		t.Fatalf("expected [] for nil set, got %v (%v)", v, err)
	}

	v, err = NewIDSet("x", "y").Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}

	tests := []struct {
		name  string
		input interface{}
		want  []string
	}{
		{"string column", v, []string{"x", "y"}},
		{"bytes column", []byte(`["p","p","q"]`), []string{"p", "q"}},
		{"null column", nil, []string{}},
		{"empty column", "", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got IDSet
			if err := got.Scan(tt.input); err != nil {
				t.Fatalf("scan: %v", err)
			}
			if !reflect.DeepEqual(got.Strings(), tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}

	var bad IDSet
	if err := bad.Scan(42); err == nil {
		t.Error("expected error for unsupported column type")
	}
	if err := bad.Scan("{oops"); err == nil {
		t.Error("expected error for malformed JSON")
	}
}
