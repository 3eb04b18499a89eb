package types

import "testing"

func TestBasicReturnsCanonicalInstance(t *testing.T) {
	r := NewRegistry()
	if r.Basic(Int) != r.Basic(Int) {
		t.Fatal("Basic(Int) should return the same pointer every time")
	}
}

func TestPointerIdentity(t *testing.T) {
	r := NewRegistry()
	i := r.Basic(Int)
	if r.Pointer(i) != r.Pointer(i) {
		t.Fatal("registry.Pointer(T) should == registry.Pointer(T) by identity")
	}
}

func TestArrayAndBitfieldIdentity(t *testing.T) {
	r := NewRegistry()
	i := r.Basic(Int)
	if r.Array(i, 4) != r.Array(i, 4) {
		t.Error("equal array descriptions should intern to the same pointer")
	}
	if r.Array(i, 4) == r.Array(i, 5) {
		t.Error("different lengths must not collide")
	}
	if r.Bitfield(i, 3) != r.Bitfield(i, 3) {
		t.Error("equal bitfield descriptions should intern to the same pointer")
	}
}

func TestStructRefIdentityIsPathSensitive(t *testing.T) {
	r := NewRegistry()
	a := r.StructRef("Point", []string{"geo"})
	b := r.StructRef("Point", []string{"geo"})
	c := r.StructRef("Point", []string{"other"})
	if a != b {
		t.Error("same name+path must intern to same pointer")
	}
	if a == c {
		t.Error("different namespace paths must not collide")
	}
}

func TestFunctionTypeIdentity(t *testing.T) {
	r := NewRegistry()
	i := r.Basic(Int)
	f1 := r.Function(i, []*Type{i, i})
	f2 := r.Function(i, []*Type{i, i})
	if f1 != f2 {
		t.Error("equal function signatures should intern to the same pointer")
	}
}

func TestConstOfIsIdempotentAndDistinct(t *testing.T) {
	r := NewRegistry()
	i := r.Basic(Int)
	ci := r.ConstOf(i)
	if ci == i {
		t.Error("const-qualified type must be distinct from the unqualified type")
	}
	if r.ConstOf(ci) != ci {
		t.Error("ConstOf on an already-const type must be a no-op returning the same pointer")
	}
	if !ci.Equals(ci) {
		t.Error("ci should equal itself")
	}
	if ci.Equals(i) {
		t.Error("const and non-const types must not be structurally equal")
	}
}

func TestCanBePassedFromRelaxesConstOneWayOnly(t *testing.T) {
	r := NewRegistry()
	i := r.Basic(Int)
	ci := r.ConstOf(i)

	if !CanBePassedFrom(i, ci) {
		t.Error("passing a const source to a non-const target should be accepted")
	}
	if CanBePassedFrom(ci, i) {
		t.Error("passing a non-const source to a const target must still require an exact match in the other direction per policy: only target-non-const/source-const is relaxed")
	}
}

func TestIntegerAndFloatingPredicates(t *testing.T) {
	r := NewRegistry()
	if !r.Basic(Int).IsInteger() {
		t.Error("Int should be IsInteger")
	}
	if !r.Basic(Int).IsSignedInteger() {
		t.Error("Int should be IsSignedInteger")
	}
	if r.Basic(UInt).IsSignedInteger() {
		t.Error("UInt should not be IsSignedInteger")
	}
	if !r.Basic(Double).IsFloating() {
		t.Error("Double should be IsFloating")
	}
	if r.Basic(Double).IsInteger() {
		t.Error("Double should not be IsInteger")
	}
}

func TestRequiredArgCountAndVariadic(t *testing.T) {
	r := NewRegistry()
	i := r.Basic(Int)
	va := r.Basic(VarArgs)
	fn := r.Function(i, []*Type{i, i, va})
	if got := fn.RequiredArgCount(); got != 2 {
		t.Errorf("RequiredArgCount() = %d, want 2", got)
	}
	if !fn.IsVariadic() {
		t.Error("expected IsVariadic() true")
	}

	fixed := r.Function(i, []*Type{i, i})
	if got := fixed.RequiredArgCount(); got != 2 {
		t.Errorf("RequiredArgCount() = %d, want 2", got)
	}
	if fixed.IsVariadic() {
		t.Error("expected IsVariadic() false")
	}
}
