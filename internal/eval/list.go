package eval

import (
	"strings"

	"github.com/glyphlang/glyphc/internal/errors"
	"github.com/glyphlang/glyphc/internal/ir"
	"github.com/glyphlang/glyphc/internal/node"
	"github.com/glyphlang/glyphc/internal/types"
)

// evaluateList implements spec §4.6's list-dispatch rule: the `core`
// escape, anonymous `fn` literals, core-macro sugar, core forms, enum and
// struct literals, array literals, and finally function/macro call
// resolution (with a computed-callee fallback for a list-headed call).
func (e *Evaluator) evaluateList(fs *FuncState, block ir.Block, n *node.Node, wantAddress bool, wantedType *types.Type) (*ParseResult, *errors.CompileError) {
	if len(n.Children) == 0 {
		return nil, errors.EmptyList(n.Span)
	}
	head := n.Children[0]
	args := n.Children[1:]

	if head.IsList() {
		return e.evaluateComputedCall(fs, block, n, head, args, wantAddress, wantedType)
	}
	if !head.IsToken() || head.TokenKind != node.TokenSymbol {
		return nil, errors.FirstListElementMustBeAtom(n.Span)
	}
	name := head.Text

	if name == "core" {
		if len(args) == 0 || !args[0].IsToken() || args[0].TokenKind != node.TokenSymbol || !coreForms[args[0].Text] {
			bad := ""
			if len(args) > 0 {
				bad = args[0].Text
			}
			return nil, errors.NoCoreFormNameInMacro(n.Span, bad)
		}
		return e.dispatchCoreForm(fs, block, args[0].Text, args[1:], n.Span, wantAddress, wantedType)
	}
	if coreForms[name] {
		return e.dispatchCoreForm(fs, block, name, args, n.Span, wantAddress, wantedType)
	}
	if coreMacroSugar[name] {
		expanded, err := e.expandSugar(name, n)
		if err != nil {
			return nil, err
		}
		return e.Evaluate(fs, block, expanded, wantAddress, wantedType)
	}
	if name == "fn" {
		return e.evaluateFnLiteral(fs, block, n, args)
	}
	if en, ok := e.Sess.Ctx.LookupEnum(name); ok && len(args) == 1 && args[0].IsToken() {
		val, ok := en.ValueOf(args[0].Text)
		if !ok {
			return nil, errors.FieldDoesNotExistInStruct(n.Span, args[0].Text, name)
		}
		return &ParseResult{Block: block, Type: en.Type, Value: e.Sess.Builder.ConstInt(en.Type, val), DoNotDestruct: true}, nil
	}
	if _, ok := e.Sess.Ctx.LookupStruct(name); ok {
		return e.evaluateStructLiteral(fs, block, n, name, args, wantAddress)
	}
	if name == "array" && wantedType != nil && wantedType.Kind == types.Array {
		return e.evaluateArrayLiteral(fs, block, n, args, wantedType, wantAddress)
	}

	return e.evaluateCall(fs, block, n, name, args, wantAddress, wantedType)
}

// evaluateComputedCall handles a list whose head is itself a list: the
// head is evaluated as an expression and must resolve to a pointer-to-
// function (rewritten as `funcall`) or a pointer-to-struct with an
// `apply` field (the struct pointer is prepended to the argument list and
// `apply` is invoked), per spec §4.6's final bullet.
func (e *Evaluator) evaluateComputedCall(fs *FuncState, block ir.Block, n, head *node.Node, args []*node.Node, wantAddress bool, wantedType *types.Type) (*ParseResult, *errors.CompileError) {
	headRes, err := e.Evaluate(fs, block, head, false, nil)
	if err != nil {
		return nil, err
	}
	if headRes.Type != nil && headRes.Type.Kind == types.Pointer && headRes.Type.Pointee != nil && headRes.Type.Pointee.Kind == types.Function {
		return e.callFunctionValue(fs, headRes.Block, n, headRes.Value, headRes.Type.Pointee, args, wantedType)
	}
	if headRes.Type != nil && headRes.Type.Kind == types.Pointer && headRes.Type.Pointee != nil && headRes.Type.Pointee.Kind == types.Struct {
		st, ok := e.Sess.Ctx.LookupStruct(headRes.Type.Pointee.StructName)
		if ok {
			for i, f := range st.Fields {
				if f.Name == "apply" && f.Type.Kind == types.Pointer && f.Type.Pointee.Kind == types.Function {
					applyAddr := e.Sess.Builder.GEP(headRes.Value, []int{i})
					applyPtr := e.Sess.Builder.Load(applyAddr)
					extendedArgs := append([]ir.Value{headRes.Value}, nil...)
					_ = extendedArgs
					return e.callFunctionValueWithLeading(fs, headRes.Block, n, applyPtr, f.Type.Pointee, headRes.Value, args, wantedType)
				}
			}
		}
	}
	return nil, errors.NotInScope(n.Span, "(computed callee)")
}

// expandSugar expands a core-macro-sugar form into the core-form syntax
// it stands for (spec §4.6): `setv` -> `setf` of a `#`-dereferenced
// target, `@$` -> `@` of `$`, `:@` -> `:` of `@`, `@:` -> `@` of `:`,
// `@:@` -> `@` of `:` of `@`.
func (e *Evaluator) expandSugar(name string, n *node.Node) (*node.Node, *errors.CompileError) {
	args := n.Children[1:]
	sym := func(text string) *node.Node { return node.NewToken(node.TokenSymbol, text, n.Span) }
	list := func(children ...*node.Node) *node.Node { return node.NewList(children, n.Span) }
	switch name {
	case "setv":
		if len(args) != 2 {
			return nil, errors.UnexpectedElementKind(n.Span, "(setv PTR VALUE)", "wrong arity")
		}
		return list(sym("setf"), list(sym("#"), args[0]), args[1]), nil
	case "@$":
		if len(args) != 2 {
			return nil, errors.UnexpectedElementKind(n.Span, "(@$ ARR IDX)", "wrong arity")
		}
		return list(sym("@"), list(sym("$"), args[0], args[1])), nil
	case ":@":
		if len(args) != 2 {
			return nil, errors.UnexpectedElementKind(n.Span, "(:@ PTR FIELD)", "wrong arity")
		}
		return list(sym(":"), list(sym("@"), args[0]), args[1]), nil
	case "@:":
		if len(args) != 2 {
			return nil, errors.UnexpectedElementKind(n.Span, "(@: STRUCT FIELD)", "wrong arity")
		}
		return list(sym("@"), list(sym(":"), args[0], args[1])), nil
	case "@:@":
		if len(args) != 2 {
			return nil, errors.UnexpectedElementKind(n.Span, "(@:@ PTR FIELD)", "wrong arity")
		}
		return list(sym("@"), list(sym(":"), list(sym("@"), args[0]), args[1])), nil
	default:
		return nil, errors.NoCoreFormNameInMacro(n.Span, name)
	}
}

func qualifiedNamespaceName(text string) []string {
	return strings.Split(text, ".")
}
