// Package namespace implements the namespace tree (component 2.3) and its
// active/used-namespace stack facade, Context (component 2.4). Together
// these hold every named entity the evaluator can resolve: variables,
// functions (including macros and extern-C declarations), structs, and
// enums.
package namespace

import (
	"github.com/glyphlang/glyphc/internal/node"
	"github.com/glyphlang/glyphc/internal/types"
)

// Linkage mirrors the linkage keyword accepted by `def`. Variable linkage
// additionally distinguishes Auto (a function-local variable, not one
// placed in the module's namespace) from Intern; functions, structs, and
// enums never use Auto.
type Linkage int

const (
	LinkageIntern Linkage = iota
	LinkageExtern
	LinkageExternC
	LinkageAuto
	LinkageExternWeak
)

func (l Linkage) String() string {
	switch l {
	case LinkageExtern:
		return "extern"
	case LinkageExternC:
		return "extern-c"
	case LinkageAuto:
		return "auto"
	case LinkageExternWeak:
		return "extern-weak"
	default:
		return "intern"
	}
}

// ParseLinkage decodes one of the `def`/`var` linkage keywords: "intern",
// "extern", "extern-c", "auto", "extern-weak" (spelled "_extern-weak" in the
// grammar's var-linkage position, spec §6).
func ParseLinkage(text string) (Linkage, bool) {
	switch text {
	case "intern":
		return LinkageIntern, true
	case "extern":
		return LinkageExtern, true
	case "extern-c":
		return LinkageExternC, true
	case "auto":
		return LinkageAuto, true
	case "extern-weak", "_extern-weak":
		return LinkageExternWeak, true
	default:
		return 0, false
	}
}

// Variable is a bound name for storage of a given type, tracked with a
// monotonically increasing declaration Index within its namespace so the
// lifetime manager can order destructors and the goto-cross-declaration
// check can compare positions.
type Variable struct {
	Name    string
	Type    *types.Type
	Linkage Linkage
	Index   int
	Storage any // backend address handle (an ir.Value.Raw-compatible value), opaque here
	Const   bool
}

// Function is one overload-set member: a function or macro declaration or
// definition.
type Function struct {
	Name          string
	Type          *types.Type // Kind == types.Function
	IsMacro       bool
	IsDeclaration bool // true until a body has been compiled
	Linkage       Linkage
	MangledName   string // symbol name emitted to the backend (spec §4.3)
	Handle        any    // backend function handle
	JITAddr       uintptr
	// IsCTO marks a function compiled only to serve literal construction
	// via JIT (spec §4.11's temporary/wrapper functions); erase_macros_and_cto
	// drops these alongside macro bodies once their compile-time use is done.
	IsCTO bool
	// IsSetfFn marks a `setf-copy`/`setf-assign` override (spec §4.10,
	// §3's Function flags).
	IsSetfFn bool
	// IsDestructor marks a function named `destroy` for a given type.
	IsDestructor bool
	// AlwaysInline mirrors the `(attr inline)` function attribute.
	AlwaysInline bool

	// DeferredGotos and Labels are populated only while this function's
	// body is being compiled (spec §3: "two mutable collections used only
	// during body compilation"); the lifetime manager owns their contents.
	DeferredGotos []DeferredGoto
	Labels        map[string]LabelInfo
}

// DeferredGoto records one `goto LABEL` whose target was not yet known at
// the point of emission (spec §4.10): the block/namespace/declaration-index
// the goto was emitted in, so the label's eventual resolution can compute
// which destructors must run between them.
type DeferredGoto struct {
	Label     string
	Block     any
	Namespace *Namespace
	DeclIndex int
	Span      node.Span
}

// LabelInfo records a resolved `label NAME` target: the namespace it was
// declared in and the declaration index in effect at that point.
type LabelInfo struct {
	Namespace *Namespace
	DeclIndex int
	Block     any
}

// RealParams returns the parameter types a caller supplies, i.e. with the
// macro's implicit MContext* first parameter stripped.
func (f *Function) RealParams() []*types.Type {
	if !f.IsMacro || len(f.Type.Params) == 0 {
		return f.Type.Params
	}
	return f.Type.Params[1:]
}

// StructField is one member of a struct definition.
type StructField struct {
	Name string
	Type *types.Type
}

// Struct is a named aggregate type plus its field layout and must-init flag
// (spec §4.8: a struct marked must_init requires an explicit initializer or
// an `init` overload at every variable definition).
type Struct struct {
	Name     string
	Type     *types.Type // Kind == types.Struct
	Fields   []StructField
	MustInit bool
}

// EnumMember is one named integer constant of an Enum.
type EnumMember struct {
	Name  string
	Value int64
}

// Enum is a named set of integer constants sharing an underlying integer
// Type (spec §3: enum members must have integer type).
type Enum struct {
	Name    string
	Type    *types.Type
	Members []EnumMember
}

func (e *Enum) ValueOf(name string) (int64, bool) {
	for _, m := range e.Members {
		if m.Name == name {
			return m.Value, true
		}
	}
	return 0, false
}
