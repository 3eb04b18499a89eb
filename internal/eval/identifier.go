package eval

import (
	"github.com/glyphlang/glyphc/internal/errors"
	"github.com/glyphlang/glyphc/internal/ir"
	"github.com/glyphlang/glyphc/internal/node"
	"github.com/glyphlang/glyphc/internal/types"
)

// evaluateIdentifier implements spec §4.6's "any other identifier" rule:
// look up a variable and yield either its address (want_address) or its
// loaded value; array-typed variables always yield a pointer to their
// first element regardless of want_address, since an array value never
// exists as a bare SSA value in this language.
func (e *Evaluator) evaluateIdentifier(fs *FuncState, block ir.Block, n *node.Node, wantAddress bool) (*ParseResult, *errors.CompileError) {
	v, _, ok := e.Sess.Ctx.LookupVariable(n.Text)
	if !ok {
		return nil, errors.VariableNotInScope(n.Span, n.Text)
	}
	addr, ok := v.Storage.(ir.Value)
	if !ok {
		return nil, errors.New(errors.CategoryNaming, errors.KindVariableNotInScope, n.Span,
			"variable '%s' has no backing storage", n.Text)
	}
	if v.Type.Kind == types.Array {
		ptr := e.Sess.Builder.GEP(addr, []int{0})
		return &ParseResult{Block: block, Type: e.Sess.Types.Pointer(v.Type.Elem), Value: ptr, DoNotDestruct: true}, nil
	}
	if wantAddress {
		return &ParseResult{Block: block, Type: e.Sess.Types.Pointer(v.Type), Value: addr, DoNotDestruct: true}, nil
	}
	loaded := e.Sess.Builder.Load(addr)
	return &ParseResult{Block: block, Type: v.Type, Value: loaded}, nil
}
