package qweb

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestScopeMapSpawnInheritsVars(t *testing.T) {
	root := NewScopeMap(nil)
	root.SetVars(map[string]any{"a": 1, "b": 2})

	child := root.Spawn(map[string]any{"b": 20, "c": 3})

	want := map[string]any{"a": 1, "b": 20, "c": 3}
	if diff := cmp.Diff(want, child.Vars()); diff != "" {
		t.Errorf("child vars mismatch (-want +got):\n%s", diff)
	}

	// the parent's own vars are untouched by the child's overrides.
	if diff := cmp.Diff(map[string]any{"a": 1, "b": 2}, root.Vars()); diff != "" {
		t.Errorf("parent var mutated by child spawn (-want +got):\n%s", diff)
	}
}

func TestScopeMapSetVarsReplacesWholesale(t *testing.T) {
	s := NewScopeMap(nil)
	s.SetVars(map[string]any{"a": 1})
	s.SetVars(map[string]any{"b": 2})

	if diff := cmp.Diff(map[string]any{"b": 2}, s.Vars()); diff != "" {
		t.Errorf("SetVars should replace, not merge (-want +got):\n%s", diff)
	}
}

func TestScopeMapSetVarsNilYieldsEmptyMap(t *testing.T) {
	s := NewScopeMap(nil)
	s.SetVars(nil)
	if s.Vars() == nil {
		t.Fatal("SetVars(nil) should leave a non-nil empty map")
	}
	if diff := cmp.Diff(map[string]any{}, s.Vars()); diff != "" {
		t.Errorf("got unexpected vars (-want +got):\n%s", diff)
	}
}
