package namespace

import (
	"testing"

	"github.com/glyphlang/glyphc/internal/errors"
	"github.com/glyphlang/glyphc/internal/node"
	"github.com/glyphlang/glyphc/internal/types"
)

func zeroSpan() node.Span { return node.Span{} }

func fnType(reg *types.Registry, ret *types.Type, params ...*types.Type) *types.Type {
	return reg.Function(ret, params)
}

func TestAddVariableRejectsDuplicateName(t *testing.T) {
	reg := types.NewRegistry()
	ns := NewRoot()

	if err := ns.AddVariable(zeroSpan(), "x", &Variable{Name: "x", Type: reg.Basic(types.Int)}); err != nil {
		t.Fatalf("first AddVariable failed: %v", err)
	}
	err := ns.AddVariable(zeroSpan(), "x", &Variable{Name: "x", Type: reg.Basic(types.Int)})
	if err == nil {
		t.Fatal("expected RedefinitionOfVariable error, got nil")
	}
	if err.Kind != errors.KindRedefinitionOfVariable {
		t.Errorf("Kind = %v, want KindRedefinitionOfVariable", err.Kind)
	}
}

func TestAddVariableAssignsIncreasingIndex(t *testing.T) {
	reg := types.NewRegistry()
	ns := NewRoot()
	ns.AddVariable(zeroSpan(), "a", &Variable{Name: "a", Type: reg.Basic(types.Int)})
	ns.AddVariable(zeroSpan(), "b", &Variable{Name: "b", Type: reg.Basic(types.Int)})

	a, _ := ns.LookupVariable("a")
	b, _ := ns.LookupVariable("b")
	if a.Index != 1 || b.Index != 2 {
		t.Errorf("indices = %d,%d, want 1,2", a.Index, b.Index)
	}
}

func TestAddFunctionReplacesDeclarationWithDefinition(t *testing.T) {
	reg := types.NewRegistry()
	ns := NewRoot()
	sig := fnType(reg, reg.Basic(types.Int), reg.Basic(types.Int))

	decl := &Function{Name: "f", Type: sig, IsDeclaration: true}
	if err := ns.AddFunction(zeroSpan(), "f", decl); err != nil {
		t.Fatalf("declaring f failed: %v", err)
	}

	def := &Function{Name: "f", Type: sig, IsDeclaration: false}
	if err := ns.AddFunction(zeroSpan(), "f", def); err != nil {
		t.Fatalf("defining f failed: %v", err)
	}

	got, _ := ns.GetFunction("f", nil, nil)
	if got.IsDeclaration {
		t.Error("expected the declaration to have been replaced by the definition")
	}
}

func TestAddFunctionRejectsIdenticalSignatureRedeclaration(t *testing.T) {
	reg := types.NewRegistry()
	ns := NewRoot()
	sig := fnType(reg, reg.Basic(types.Int), reg.Basic(types.Int))

	ns.AddFunction(zeroSpan(), "f", &Function{Name: "f", Type: sig})
	err := ns.AddFunction(zeroSpan(), "f", &Function{Name: "f", Type: sig})
	if err == nil {
		t.Fatal("expected Redeclaration error for a second non-declaration with the same signature")
	}
}

func TestAddFunctionRejectsMacroFunctionParamClash(t *testing.T) {
	reg := types.NewRegistry()
	ns := NewRoot()
	dnodePtr := reg.Pointer(reg.StructRef("DNode", nil))
	ctxPtr := reg.Pointer(reg.StructRef("MContext", nil))

	macroSig := fnType(reg, dnodePtr, ctxPtr, dnodePtr)
	fnSig := fnType(reg, reg.Basic(types.Void), dnodePtr)

	ns.AddFunction(zeroSpan(), "m", &Function{Name: "m", Type: macroSig, IsMacro: true})
	err := ns.AddFunction(zeroSpan(), "m", &Function{Name: "m", Type: fnSig, IsMacro: false})
	if err == nil {
		t.Fatal("expected FunctionHasSameParamsAsMacro error")
	}
	if err.Kind != errors.KindFunctionHasSameParamsAsMacro {
		t.Errorf("Kind = %v, want KindFunctionHasSameParamsAsMacro", err.Kind)
	}
}

func TestGetFunctionPrefersExactDefinitionOverVarargs(t *testing.T) {
	reg := types.NewRegistry()
	ns := NewRoot()
	intT := reg.Basic(types.Int)
	varargsSig := fnType(reg, reg.Basic(types.Void), intT, reg.Basic(types.VarArgs))
	exactSig := fnType(reg, reg.Basic(types.Void), intT, intT)

	ns.AddFunction(zeroSpan(), "log", &Function{Name: "log", Type: varargsSig})
	ns.AddFunction(zeroSpan(), "log", &Function{Name: "log", Type: exactSig})

	f, _ := ns.GetFunction("log", []*types.Type{intT, intT}, nil)
	if f == nil || len(f.Type.Params) != 2 {
		t.Fatalf("expected the exact 2-arg overload, got %+v", f)
	}
}

func TestGetFunctionFallsBackToVarargs(t *testing.T) {
	reg := types.NewRegistry()
	ns := NewRoot()
	intT := reg.Basic(types.Int)
	varargsSig := fnType(reg, reg.Basic(types.Void), intT, reg.Basic(types.VarArgs))
	ns.AddFunction(zeroSpan(), "log", &Function{Name: "log", Type: varargsSig})

	f, _ := ns.GetFunction("log", []*types.Type{intT, intT, intT}, nil)
	if f == nil {
		t.Fatal("expected the varargs overload to match 3 int arguments")
	}
}

func TestGetFunctionReportsClosestMatchWhenNoneMatches(t *testing.T) {
	reg := types.NewRegistry()
	ns := NewRoot()
	intT, floatT := reg.Basic(types.Int), reg.Basic(types.Float)
	sig := fnType(reg, reg.Basic(types.Void), intT, intT)
	ns.AddFunction(zeroSpan(), "f", &Function{Name: "f", Type: sig})

	f, closest := ns.GetFunction("f", []*types.Type{intT, floatT}, nil)
	if f != nil {
		t.Fatal("expected no exact match")
	}
	if closest == nil || closest.PrefixLen != 1 {
		t.Errorf("closest = %+v, want PrefixLen 1", closest)
	}
}

func TestGetFunctionWithDNodeFallbackDiscoversMacro(t *testing.T) {
	reg := types.NewRegistry()
	ns := NewRoot()
	intT := reg.Basic(types.Int)
	dnodePtr := reg.Pointer(reg.StructRef("DNode", nil))
	ctxPtr := reg.Pointer(reg.StructRef("MContext", nil))
	macroSig := fnType(reg, dnodePtr, ctxPtr, dnodePtr)
	ns.AddFunction(zeroSpan(), "id", &Function{Name: "id", Type: macroSig, IsMacro: true})

	f, _ := ns.GetFunctionWithDNodeFallback("id", []*types.Type{intT}, nil, dnodePtr)
	if f == nil || !f.IsMacro {
		t.Fatal("expected the DNode-fallback retry to discover the macro overload")
	}
}

func TestMergeSkipsInternLinkageAndImportsExtern(t *testing.T) {
	reg := types.NewRegistry()
	src := NewRoot()
	dst := NewRoot()
	sig := fnType(reg, reg.Basic(types.Void))
	src.AddFunction(zeroSpan(), "priv", &Function{Name: "priv", Type: sig, Linkage: LinkageIntern})
	src.AddFunction(zeroSpan(), "pub", &Function{Name: "pub", Type: sig, Linkage: LinkageExtern})

	if err := dst.Merge(src); err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if f, _ := dst.GetFunction("priv", nil, nil); f != nil {
		t.Error("intern-linked function should not have been merged")
	}
	if f, _ := dst.GetFunction("pub", nil, nil); f == nil {
		t.Error("extern-linked function should have been merged")
	}
}

func TestGetVarsBeforeAndAfterIndexWalksParents(t *testing.T) {
	reg := types.NewRegistry()
	root := NewRoot()
	root.AddVariable(zeroSpan(), "a", &Variable{Name: "a", Type: reg.Basic(types.Int)})
	root.AddVariable(zeroSpan(), "b", &Variable{Name: "b", Type: reg.Basic(types.Int)})
	child := root.Child("inner")
	child.AddVariable(zeroSpan(), "c", &Variable{Name: "c", Type: reg.Basic(types.Int)})

	var before []*Variable
	child.GetVarsBeforeIndex(1, &before)
	if len(before) != 2 { // a (index 1 in root) and c (index 1 in child)
		t.Errorf("len(before) = %d, want 2", len(before))
	}

	var after []*Variable
	child.GetVarsAfterIndex(2, &after)
	if len(after) != 1 { // only b (index 2 in root); a and c are index 1
		t.Errorf("len(after) = %d, want 1", len(after))
	}
}
