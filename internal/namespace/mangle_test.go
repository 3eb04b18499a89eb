package namespace

import (
	"testing"

	"github.com/glyphlang/glyphc/internal/types"
)

func TestNameToSymbolRoundTripsThroughDemangle(t *testing.T) {
	cases := []struct {
		name string
		path []string
	}{
		{"main", nil},
		{"helper", []string{"math"}},
		{"dash-name", []string{"a", "b"}},
	}
	for _, c := range cases {
		mangled := NameToSymbol(c.name, c.path)
		name, path, ok := Demangle(mangled)
		if !ok {
			t.Fatalf("Demangle(%q) failed", mangled)
		}
		if name != c.name {
			t.Errorf("name = %q, want %q", name, c.name)
		}
		if len(path) != len(c.path) {
			t.Fatalf("path = %v, want %v", path, c.path)
		}
		for i := range path {
			if path[i] != c.path[i] {
				t.Errorf("path[%d] = %q, want %q", i, path[i], c.path[i])
			}
		}
	}
}

func TestNameToSymbolIsInjectiveOverNamesInSameNamespace(t *testing.T) {
	names := []string{"a", "ab", "abc", "a-b", "a$41"}
	seen := map[string]string{}
	for _, n := range names {
		m := NameToSymbol(n, nil)
		if other, ok := seen[m]; ok {
			t.Fatalf("names %q and %q mangled to the same symbol %q", n, other, m)
		}
		seen[m] = n
	}
}

func TestFunctionNameToSymbolExternCEscapesDash(t *testing.T) {
	got := FunctionNameToSymbol("my-func", LinkageExternC, nil, nil)
	want := "my_2D_func"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFunctionNameToSymbolAppendsParamCodes(t *testing.T) {
	reg := types.NewRegistry()
	params := []*types.Type{reg.Basic(types.Int), reg.Pointer(reg.Basic(types.Char))}
	got := FunctionNameToSymbol("f", LinkageIntern, nil, params)
	want := NameToSymbol("f", nil) + "i" + "Pc"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
