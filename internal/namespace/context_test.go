package namespace

import (
	"testing"

	"github.com/glyphlang/glyphc/internal/types"
)

func TestContextLookupVariableWalksActiveStackInnermostFirst(t *testing.T) {
	reg := types.NewRegistry()
	root := NewRoot()
	root.AddVariable(zeroSpan(), "x", &Variable{Name: "x", Type: reg.Basic(types.Int)})

	ctx := NewContext(root)
	inner := ctx.ActivateAnonymousNamespace()
	inner.AddVariable(zeroSpan(), "x", &Variable{Name: "x", Type: reg.Basic(types.Float)})

	v, found, ok := ctx.LookupVariable("x")
	if !ok {
		t.Fatal("expected to find x")
	}
	if found != inner {
		t.Error("expected the innermost binding of x to shadow the outer one")
	}
	if v.Type.Kind != types.Float {
		t.Errorf("type = %v, want Float", v.Type.Kind)
	}
}

func TestContextDeactivateNamespaceUnshadows(t *testing.T) {
	reg := types.NewRegistry()
	root := NewRoot()
	root.AddVariable(zeroSpan(), "x", &Variable{Name: "x", Type: reg.Basic(types.Int)})

	ctx := NewContext(root)
	ctx.ActivateAnonymousNamespace()
	ctx.DeactivateNamespace()

	_, found, ok := ctx.LookupVariable("x")
	if !ok || found != root {
		t.Error("expected lookup to fall back to root after deactivating the inner namespace")
	}
}

func TestContextUseNamespaceAddsFallbackLookup(t *testing.T) {
	reg := types.NewRegistry()
	root := NewRoot()
	lib := root.Child("lib")
	lib.AddVariable(zeroSpan(), "pi", &Variable{Name: "pi", Type: reg.Basic(types.Float)})

	ctx := NewContext(root)
	if _, _, ok := ctx.LookupVariable("pi"); ok {
		t.Fatal("pi should not be visible before using its namespace")
	}
	ctx.UseNamespace(lib)
	if _, _, ok := ctx.LookupVariable("pi"); !ok {
		t.Fatal("pi should be visible once its namespace is used")
	}
	ctx.UnuseNamespace()
	if _, _, ok := ctx.LookupVariable("pi"); ok {
		t.Error("pi should no longer be visible after unuse")
	}
}

func TestContextSaveRestoreRollsBackSpeculativeNamespaces(t *testing.T) {
	root := NewRoot()
	ctx := NewContext(root)

	sp := ctx.Save()
	ctx.ActivateAnonymousNamespace()
	ctx.ActivateAnonymousNamespace()
	if len(ctx.active) != 3 {
		t.Fatalf("active depth = %d, want 3", len(ctx.active))
	}

	ctx.Restore(sp)
	if ctx.Current() != root {
		t.Error("expected Restore to pop back to the namespace recorded at the save point")
	}
}
