package lifetime

import (
	"testing"

	"github.com/glyphlang/glyphc/internal/errors"
	"github.com/glyphlang/glyphc/internal/ir"
	"github.com/glyphlang/glyphc/internal/ir/irtest"
	"github.com/glyphlang/glyphc/internal/namespace"
	"github.com/glyphlang/glyphc/internal/node"
	"github.com/glyphlang/glyphc/internal/types"
)

func zeroSpan() node.Span { return node.Span{} }

func TestClassifyFunction(t *testing.T) {
	cases := []struct {
		name         string
		wantSetf     bool
		wantDestruct bool
	}{
		{"setf-copy", true, false},
		{"setf-assign", true, false},
		{"destroy", false, true},
		{"plain", false, false},
	}
	for _, c := range cases {
		setf, destroy := ClassifyFunction(c.name)
		if setf != c.wantSetf || destroy != c.wantDestruct {
			t.Errorf("ClassifyFunction(%q) = (%v,%v), want (%v,%v)", c.name, setf, destroy, c.wantSetf, c.wantDestruct)
		}
	}
}

func TestCloseScopeCallsOneDestructorPerVariable(t *testing.T) {
	reg := types.NewRegistry()
	root := namespace.NewRoot()
	ctx := namespace.NewContext(root)
	b := irtest.New()
	m := New(ctx, b)

	intT := reg.Basic(types.Int)
	destroyFn := &namespace.Function{
		Name: "destroy", Type: reg.Function(reg.Basic(types.Void), []*types.Type{reg.Pointer(intT)}),
		IsDestructor: true,
	}
	destroyFn.Handle = b.CreateFunction("destroy", reg.Basic(types.Void), []*types.Type{reg.Pointer(intT)})
	if err := root.AddFunction(zeroSpan(), "destroy", destroyFn); err != nil {
		t.Fatalf("AddFunction(destroy): %v", err)
	}

	fn := b.CreateFunction("f", reg.Basic(types.Void), nil)
	blk := b.CreateBlock(fn, "entry")
	b.SetInsertPoint(blk)

	for _, name := range []string{"a", "b"} {
		alloca := b.Alloca(intT, name)
		root.AddVariable(zeroSpan(), name, &namespace.Variable{Name: name, Type: intT, Storage: alloca})
	}

	before := b.InstructionCount(blk)
	m.CloseScope(reg, root, blk)
	after := b.InstructionCount(blk)
	if after-before != 2 {
		t.Fatalf("expected 2 destructor calls emitted, got %d new instructions", after-before)
	}
}

func TestGotoCrossingDeclarationFails(t *testing.T) {
	// Mirrors spec S6: goto before a declaration, with a label after it in
	// the same namespace, must fail GotoWillCrossDeclaration.
	reg := types.NewRegistry()
	root := namespace.NewRoot()
	ctx := namespace.NewContext(root)
	b := irtest.New()
	m := New(ctx, b)

	fn := &namespace.Function{Name: "g", Type: reg.Function(reg.Basic(types.Int), nil)}
	fn.Handle = b.CreateFunction("g", reg.Basic(types.Int), nil)
	entry := b.CreateBlock(fn.Handle, "entry")
	b.SetInsertPoint(entry)

	if err := m.RecordGoto(fn, root, "done", entry, zeroSpan(), reg); err != nil {
		t.Fatalf("RecordGoto (deferred) returned error: %v", err)
	}

	intT := reg.Basic(types.Int)
	alloca := b.Alloca(intT, "k")
	root.AddVariable(zeroSpan(), "k", &namespace.Variable{Name: "k", Type: intT, Storage: alloca})

	labelBlk := b.CreateBlock(fn.Handle, "done")
	err := m.ResolveLabel(fn, root, "done", labelBlk, reg)
	if err == nil {
		t.Fatal("expected GotoWillCrossDeclaration, got nil")
	}
	if err.Kind != errors.KindGotoWillCrossDeclaration {
		t.Errorf("Kind = %v, want KindGotoWillCrossDeclaration", err.Kind)
	}
}

func TestGotoWithoutCrossingResolvesCleanly(t *testing.T) {
	reg := types.NewRegistry()
	root := namespace.NewRoot()
	ctx := namespace.NewContext(root)
	b := irtest.New()
	m := New(ctx, b)

	fn := &namespace.Function{Name: "g", Type: reg.Function(reg.Basic(types.Int), nil)}
	fn.Handle = b.CreateFunction("g", reg.Basic(types.Int), nil)
	entry := b.CreateBlock(fn.Handle, "entry")
	b.SetInsertPoint(entry)

	if err := m.RecordGoto(fn, root, "done", entry, zeroSpan(), reg); err != nil {
		t.Fatalf("RecordGoto returned error: %v", err)
	}
	labelBlk := b.CreateBlock(fn.Handle, "done")
	if err := m.ResolveLabel(fn, root, "done", labelBlk, reg); err != nil {
		t.Fatalf("ResolveLabel returned error: %v", err)
	}
	if len(fn.DeferredGotos) != 0 {
		t.Errorf("expected the deferred goto to be resolved, got %d remaining", len(fn.DeferredGotos))
	}
}

var _ ir.Builder = (*irtest.Builder)(nil)
