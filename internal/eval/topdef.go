package eval

import (
	"github.com/glyphlang/glyphc/internal/errors"
	"github.com/glyphlang/glyphc/internal/node"
	"github.com/glyphlang/glyphc/internal/types"
)

// DefFn, DefEnum, and DeclareStruct are the top-level-only entry points
// into the definition forms (spec §4.8, component 2.7) that the driver
// (component 2.10) calls directly against the root/current namespace, the
// same way `(def NAME (fn|enum|struct ...))` reached from inside a
// function body dispatches to the unexported defFn/defEnum/
// declareStructFromFieldList helpers via evaluateDef. Top-level `var`/
// `const` definitions are NOT exposed here: unlike a function-body local
// (which always gets stack storage via Alloca), a top-level variable needs
// global linkage and, for non-scalar initializers, the literal-
// construction-via-JIT protocol (spec §4.11) — both are driver concerns
// that belong in internal/driver, not in the evaluator.

// DefFn parses and compiles `(fn [LINKAGE] RETTYPE (PARAMS...) BODY...)`
// under name, exactly as reached from `(def NAME (fn ...))` inside a
// function body.
func (e *Evaluator) DefFn(name string, rest []*node.Node, span node.Span) *errors.CompileError {
	return e.defFn(name, rest, span)
}

// DefEnum parses and registers `(enum TYPE (MEMBER [VALUE])...)` under
// name.
func (e *Evaluator) DefEnum(name string, rest []*node.Node, span node.Span) *errors.CompileError {
	return e.defEnum(name, rest, span)
}

// DeclareStruct registers a named struct from a `(FIELD TYPE)...` field
// list, exactly as `(def NAME (struct ...))` does.
func (e *Evaluator) DeclareStruct(span node.Span, name string, fieldList *node.Node, mustInit, ctoOnly bool) (*types.Type, *errors.CompileError) {
	return e.declareStructFromFieldList(span, name, fieldList, mustInit, ctoOnly)
}
