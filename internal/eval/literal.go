package eval

import (
	"github.com/glyphlang/glyphc/internal/errors"
	"github.com/glyphlang/glyphc/internal/ir"
	"github.com/glyphlang/glyphc/internal/namespace"
	"github.com/glyphlang/glyphc/internal/node"
	"github.com/glyphlang/glyphc/internal/types"
)

// evaluateFnLiteral compiles an anonymous `(fn RETTYPE (PARAMS...) BODY...)`
// expression into a fresh top-level function and yields a pointer to it,
// the function-value analogue of a `def`'d function.
func (e *Evaluator) evaluateFnLiteral(fs *FuncState, block ir.Block, n *node.Node, args []*node.Node) (*ParseResult, *errors.CompileError) {
	if len(args) < 2 {
		return nil, errors.UnexpectedElementKind(n.Span, "(fn RETTYPE (PARAMS...) BODY...)", "wrong arity")
	}
	retType, err := e.ParseType(args[0])
	if err != nil {
		return nil, err
	}
	if !args[1].IsList() {
		return nil, errors.UnexpectedElementKind(n.Span, "parameter list", "atom")
	}
	paramNames := make([]string, 0, len(args[1].Children))
	paramTypes := make([]*types.Type, 0, len(args[1].Children))
	for _, p := range args[1].Children {
		if !p.IsList() || len(p.Children) != 2 || !p.Children[0].IsToken() {
			return nil, errors.UnexpectedElementKind(n.Span, "(NAME TYPE)", "malformed parameter")
		}
		pt, perr := e.ParseType(p.Children[1])
		if perr != nil {
			return nil, perr
		}
		paramNames = append(paramNames, p.Children[0].Text)
		paramTypes = append(paramTypes, pt)
	}

	name := e.Sess.NextTempName("lambda")
	fnType := e.Sess.Types.Function(retType, paramTypes)
	handle := e.Sess.Builder.CreateFunction(name, retType, paramTypes)
	entry := e.Sess.Builder.CreateBlock(handle, "entry")

	fnEntity := &namespace.Function{Name: name, Type: fnType, Handle: handle}
	if err := e.Sess.Ctx.Current().AddFunction(n.Span, name, fnEntity); err != nil {
		return nil, err
	}

	if err := e.compileFunctionBody(fnEntity, handle, entry, paramNames, paramTypes, args[2:]); err != nil {
		return nil, err
	}

	fnPtrType := e.Sess.Types.Pointer(fnType)
	return &ParseResult{Block: block, Type: fnPtrType, Value: e.Sess.Builder.FunctionPointer(handle), DoNotDestruct: true}, nil
}

// evaluateStructLiteral builds an anonymous struct value in-place:
// `(StructName FIELD1 VALUE1 FIELD2 VALUE2 ...)`.
func (e *Evaluator) evaluateStructLiteral(fs *FuncState, block ir.Block, n *node.Node, structName string, args []*node.Node, wantAddress bool) (*ParseResult, *errors.CompileError) {
	st, ok := e.Sess.Ctx.LookupStruct(structName)
	if !ok {
		return nil, errors.TypeNotInScope(n.Span, structName)
	}
	if len(args)%2 != 0 {
		return nil, errors.UnexpectedElementKind(n.Span, "(NAME FIELD VALUE ...)", "odd field/value count")
	}
	addr := e.Sess.Builder.Alloca(st.Type, e.Sess.NextTempName("struct"))
	cur := block
	for i := 0; i < len(args); i += 2 {
		if !args[i].IsToken() {
			return nil, errors.UnexpectedElementKind(n.Span, "field name", "non-atom")
		}
		idx := -1
		for j, f := range st.Fields {
			if f.Name == args[i].Text {
				idx = j
				break
			}
		}
		if idx < 0 {
			return nil, errors.FieldDoesNotExistInStruct(n.Span, args[i].Text, structName)
		}
		val, err := e.Evaluate(fs, cur, args[i+1], false, st.Fields[idx].Type)
		if err != nil {
			return nil, err
		}
		fieldAddr := e.Sess.Builder.GEP(addr, []int{idx})
		e.Sess.Builder.Store(fieldAddr, val.Value)
		cur = val.Block
	}
	if wantAddress {
		return &ParseResult{Block: cur, Type: e.Sess.Types.Pointer(st.Type), Value: addr, DoNotDestruct: true}, nil
	}
	loaded := e.Sess.Builder.Load(addr)
	return &ParseResult{Block: cur, Type: st.Type, Value: loaded}, nil
}

// evaluateArrayLiteral builds an anonymous array value in-place:
// `(array E1 E2 ...)`, used wherever wantedType names an array type.
func (e *Evaluator) evaluateArrayLiteral(fs *FuncState, block ir.Block, n *node.Node, args []*node.Node, wantedType *types.Type, wantAddress bool) (*ParseResult, *errors.CompileError) {
	addr := e.Sess.Builder.Alloca(wantedType, e.Sess.NextTempName("arrlit"))
	cur := block
	for i, elemNode := range args {
		if i >= wantedType.Length {
			break
		}
		val, err := e.Evaluate(fs, cur, elemNode, false, wantedType.Elem)
		if err != nil {
			return nil, err
		}
		elemAddr := e.Sess.Builder.GEP(addr, []int{i})
		e.Sess.Builder.Store(elemAddr, val.Value)
		cur = val.Block
	}
	if wantAddress {
		return &ParseResult{Block: cur, Type: e.Sess.Types.Pointer(wantedType), Value: addr, DoNotDestruct: true}, nil
	}
	loaded := e.Sess.Builder.Load(addr)
	return &ParseResult{Block: cur, Type: wantedType, Value: loaded}, nil
}
