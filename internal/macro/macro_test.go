package macro

import (
	"testing"

	"github.com/glyphlang/glyphc/internal/eval"
	"github.com/glyphlang/glyphc/internal/ir/irtest"
	"github.com/glyphlang/glyphc/internal/namespace"
	"github.com/glyphlang/glyphc/internal/node"
	"github.com/glyphlang/glyphc/internal/session"
)

func sym(text string) *node.Node { return node.NewToken(node.TokenSymbol, text, span(1)) }
func list(children ...*node.Node) *node.Node { return node.NewList(children, span(1)) }

func newEvaluator() *eval.Evaluator {
	sess := session.New(irtest.New())
	return eval.New(sess)
}

func TestDeclareRegistersMacroWithImplicitContextParam(t *testing.T) {
	e := newEvaluator()
	New(e) // wire callbacks, exercising the declareLocal path indirectly too

	rest := []*node.Node{
		sym("intern"),
		list(sym("n")),
		sym("n"),
	}
	if err := Declare(e, "id", rest, span(1)); err != nil {
		t.Fatalf("Declare failed: %v", err)
	}

	fn, _ := e.Sess.Ctx.GetFunction("id", nil, boolPtrFor(true))
	if fn == nil {
		t.Fatal("expected macro 'id' to be registered")
	}
	if !fn.IsMacro {
		t.Error("expected IsMacro true")
	}
	if len(fn.RealParams()) != 1 {
		t.Fatalf("len(RealParams()) = %d, want 1", len(fn.RealParams()))
	}
	if fn.RealParams()[0] != e.Sess.DNodePointerType {
		t.Error("untyped macro parameter should resolve to pointer-to-DNode")
	}
	if fn.Linkage != namespace.LinkageIntern {
		t.Errorf("Linkage = %v, want LinkageIntern", fn.Linkage)
	}
}

func TestDeclareVoidParamListHasNoUserParams(t *testing.T) {
	e := newEvaluator()
	rest := []*node.Node{sym("intern"), list(sym("void"))}
	if err := Declare(e, "noop", rest, span(1)); err != nil {
		t.Fatalf("Declare failed: %v", err)
	}
	fn, _ := e.Sess.Ctx.GetFunction("noop", nil, boolPtrFor(true))
	if fn == nil {
		t.Fatal("expected macro 'noop' to be registered")
	}
	if len(fn.RealParams()) != 0 {
		t.Errorf("len(RealParams()) = %d, want 0", len(fn.RealParams()))
	}
}

func TestDeclareVariadicMarksTypeVariadic(t *testing.T) {
	e := newEvaluator()
	rest := []*node.Node{sym("intern"), list(sym("head"), sym("...")), sym("head")}
	if err := Declare(e, "variadic-id", rest, span(1)); err != nil {
		t.Fatalf("Declare failed: %v", err)
	}
	fn, _ := e.Sess.Ctx.GetFunction("variadic-id", nil, boolPtrFor(true))
	if fn == nil {
		t.Fatal("expected macro 'variadic-id' to be registered")
	}
	if !fn.Type.IsVariadic() {
		t.Error("expected the macro's type to be variadic")
	}
}

func TestDeclareRejectsUnknownLinkage(t *testing.T) {
	e := newEvaluator()
	rest := []*node.Node{sym("bogus"), list(), sym("n")}
	if err := Declare(e, "bad", rest, span(1)); err == nil {
		t.Fatal("expected an error for an unrecognized linkage keyword")
	}
}

func TestDeclareRejectsTooFewChildren(t *testing.T) {
	e := newEvaluator()
	rest := []*node.Node{sym("intern")}
	if err := Declare(e, "bad", rest, span(1)); err == nil {
		t.Fatal("expected an error for a missing parameter list")
	}
}

func boolPtrFor(b bool) *bool { return &b }
