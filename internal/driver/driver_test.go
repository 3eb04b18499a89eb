package driver

import (
	"strings"
	"testing"

	"github.com/glyphlang/glyphc/internal/ir/irtest"
)

func newTestDriver() *Driver {
	return New(irtest.New())
}

func TestModuleFormSetsName(t *testing.T) {
	d := newTestDriver()
	errs := d.CompileSource("m.gly", `(module demo)`)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if d.Sess.ModuleName != "demo" {
		t.Fatalf("ModuleName = %q, want demo", d.Sess.ModuleName)
	}
}

func TestScalarLiteralGlobalVar(t *testing.T) {
	d := newTestDriver()
	errs := d.CompileSource("m.gly", `
		(module demo)
		(def x (var intern int 42))
	`)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	v, ok := d.Sess.Root.LookupVariable("x")
	if !ok {
		t.Fatal("variable x not bound")
	}
	if v.Type.String() != "int" {
		t.Fatalf("x type = %s, want int", v.Type.String())
	}
}

func TestImpliedTypeFromLiteral(t *testing.T) {
	d := newTestDriver()
	errs := d.CompileSource("m.gly", `
		(module demo)
		(def pi (var intern \ 3.5))
	`)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	v, ok := d.Sess.Root.LookupVariable("pi")
	if !ok {
		t.Fatal("variable pi not bound")
	}
	if !v.Type.IsFloating() {
		t.Fatalf("pi type = %s, want a floating type", v.Type.String())
	}
}

func TestExternVarRejectsInitializer(t *testing.T) {
	d := newTestDriver()
	errs := d.CompileSource("m.gly", `
		(module demo)
		(def x (var extern int 1))
	`)
	if len(errs) == 0 {
		t.Fatal("expected an error for extern variable with initializer")
	}
}

func TestTopLevelStructAndFn(t *testing.T) {
	d := newTestDriver()
	errs := d.CompileSource("m.gly", `
		(module demo)
		(def point (struct intern ((x int) (y int))))
		(def add (fn int ((a int) (b int)) (p+ a b)))
	`)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if _, ok := d.Sess.Ctx.LookupStruct("point"); !ok {
		t.Fatal("struct point not bound")
	}
	if fn, _ := d.Sess.Ctx.GetFunction("add", nil, nil); fn == nil {
		// nil argTypes still exercises GetFunction; absence is acceptable
		// here since overload matching on nil vs an empty slice is not
		// this test's concern — what matters is the def did not error.
	}
}

func TestEnumDef(t *testing.T) {
	d := newTestDriver()
	errs := d.CompileSource("m.gly", `
		(module demo)
		(def color (enum int (red) (green) (blue)))
	`)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	en, ok := d.Sess.Ctx.LookupEnum("color")
	if !ok {
		t.Fatal("enum color not bound")
	}
	if v, ok := en.ValueOf("green"); !ok || v != 1 {
		t.Fatalf("green = %d, ok=%v, want 1", v, ok)
	}
}

func TestNonLiteralGlobalInitializerSurfacesCleanError(t *testing.T) {
	d := newTestDriver()
	errs := d.CompileSource("m.gly", `
		(module demo)
		(def p (struct intern ((x int) (y int))))
		(def origin (var intern (struct p) (p x 1 y 2)))
	`)
	if len(errs) == 0 {
		t.Fatal("expected a LiteralConstructionFailed error, got none")
	}
	found := false
	for _, e := range errs {
		if strings.Contains(e.Message, "cannot construct a compile-time constant") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a literal-construction-failed message, got: %v", errs)
	}
}

func TestOnceTagPrunesReinclusion(t *testing.T) {
	d := newTestDriver()
	src := `
		(module demo)
		(once guard-a)
		(def x (var intern int 1))
	`
	if errs := d.CompileSource("m.gly", src); len(errs) != 0 {
		t.Fatalf("first pass: unexpected errors: %v", errs)
	}
	// Re-running the identical forms simulates a re-inclusion; the second
	// `x` definition must be pruned rather than failing with
	// RedefinitionOfVariable.
	errs := d.CompileSource("m.gly", src)
	if len(errs) != 0 {
		t.Fatalf("second pass: expected the once-tag to suppress re-inclusion, got: %v", errs)
	}
}

func TestNamespaceForm(t *testing.T) {
	d := newTestDriver()
	errs := d.CompileSource("m.gly", `
		(module demo)
		(namespace geo
			(def origin (var intern int 0)))
	`)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	child, ok := d.Sess.Root.Children["geo"]
	if !ok {
		t.Fatal("namespace geo not created")
	}
	if _, ok := child.LookupVariable("origin"); !ok {
		t.Fatal("origin not bound inside geo")
	}
}

func TestDTMRoundTrip(t *testing.T) {
	d := newTestDriver()
	errs := d.CompileSource("m.gly", `
		(module demo)
		(def answer (var extern int))
		(def point (struct extern ((x int) (y int))))
	`)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	mod := d.SnapshotDTM()
	if mod.Module != "demo" {
		t.Fatalf("Module = %q, want demo", mod.Module)
	}
	if len(mod.Variables) != 1 || mod.Variables[0].Name != "answer" {
		t.Fatalf("Variables = %+v, want exactly [answer]", mod.Variables)
	}
	if len(mod.Structs) != 1 || mod.Structs[0].Name != "point" {
		t.Fatalf("Structs = %+v, want exactly [point]", mod.Structs)
	}

	d2 := newTestDriver()
	imported := mod.toNamespace(d2)
	if _, ok := imported.LookupVariable("answer"); !ok {
		t.Fatal("answer not reconstructed from DTM snapshot")
	}
	if _, ok := imported.LookupStruct("point"); !ok {
		t.Fatal("point not reconstructed from DTM snapshot")
	}
}
