package eval

import (
	"github.com/glyphlang/glyphc/internal/errors"
	"github.com/glyphlang/glyphc/internal/namespace"
	"github.com/glyphlang/glyphc/internal/node"
	"github.com/glyphlang/glyphc/internal/types"
)

// MacroParamSpec is one declared macro parameter: its name, and the
// syntactic type used only at call sites for overload resolution (spec
// §4.9). The compiled body always binds the parameter as pointer-to-DNode
// in IR regardless of this type; a nil SyntacticType means the parameter
// was declared with no type annotation at all and resolves by matching
// pointer-to-DNode directly.
type MacroParamSpec struct {
	Name          string
	SyntacticType *types.Type
}

// DeclareMacro registers and compiles `(def NAME (macro LINKAGE (ARGS...)
// BODY...))` (spec components 2.7/2.9's macro-declaration variant of
// `def`, and 2.8's "compiled as a regular function returning
// pointer-to-DNode"). It is exported for internal/macro, which owns macro
// declaration parsing and invocation but reuses the evaluator's own
// function-body compilation so a macro body is built exactly the way any
// other function body is (spec §4.9: "the macro body is compiled as a
// regular function").
//
// Every parameter — including the implicit MContext* spec §4.9 describes
// — is represented as pointer-to-DNode in the compiled body; params holds
// only the user-declared parameters, DeclareMacro prepends the implicit
// context parameter itself. If variadic, the body's trailing parameter is
// not bound by name; it becomes the FuncState.VariadicBase the `get-dnodes`
// core form reads (see compileFunctionBodyVariadic).
//
// If the body fails to compile, DeclareMacro does not add the macro to the
// namespace, avoiding the partial definition spec §4.9 warns against.
func (e *Evaluator) DeclareMacro(name string, linkage namespace.Linkage, params []MacroParamSpec, variadic bool, body []*node.Node, span node.Span) (*namespace.Function, *errors.CompileError) {
	reg := e.Sess.Types
	dnodePtr := e.Sess.DNodePointerType

	syntacticParams := make([]*types.Type, 0, len(params)+2)
	irParamTypes := make([]*types.Type, 0, len(params)+2)
	paramNames := make([]string, 0, len(params)+2)

	syntacticParams = append(syntacticParams, dnodePtr)
	irParamTypes = append(irParamTypes, dnodePtr)
	paramNames = append(paramNames, "$mcontext")

	for _, p := range params {
		st := p.SyntacticType
		if st == nil {
			st = dnodePtr
		}
		syntacticParams = append(syntacticParams, st)
		irParamTypes = append(irParamTypes, dnodePtr)
		paramNames = append(paramNames, p.Name)
	}

	if variadic {
		syntacticParams = append(syntacticParams, reg.Basic(types.VarArgs))
		irParamTypes = append(irParamTypes, reg.Pointer(dnodePtr))
		paramNames = append(paramNames, "$dnodes")
	}

	fnType := reg.Function(dnodePtr, syntacticParams)
	handle := e.Sess.Builder.CreateFunction(name, dnodePtr, irParamTypes)
	fnEntity := &namespace.Function{Name: name, Type: fnType, Handle: handle, IsMacro: true, Linkage: linkage}

	entry := e.Sess.Builder.CreateBlock(handle, "entry")
	if err := e.compileFunctionBodyVariadic(fnEntity, handle, entry, paramNames, irParamTypes, body, variadic); err != nil {
		e.Sess.Builder.EraseFunction(handle)
		return nil, err
	}

	if addErr := e.Sess.Ctx.Current().AddFunction(span, name, fnEntity); addErr != nil {
		e.Sess.Builder.EraseFunction(handle)
		return nil, addErr
	}
	return fnEntity, nil
}
