package macro

import (
	"github.com/glyphlang/glyphc/internal/errors"
	"github.com/glyphlang/glyphc/internal/eval"
	"github.com/glyphlang/glyphc/internal/namespace"
	"github.com/glyphlang/glyphc/internal/node"
)

// Engine wires Evaluator.ExpandMacro and Evaluator.DeclareLocalMacro to
// this package's implementation, so a driver need only construct one of
// these and assign its methods to the evaluator's callback fields.
type Engine struct {
	Eval *eval.Evaluator
}

// New builds an Engine over e and wires its callbacks onto e. Calling this
// is how a driver connects the evaluator's macro-shaped holes (the
// ExpandMacro and DeclareLocalMacro callback fields) to a real
// implementation without internal/eval ever importing internal/macro.
func New(e *eval.Evaluator) *Engine {
	eng := &Engine{Eval: e}
	e.ExpandMacro = eng.Expand
	e.DeclareLocalMacro = eng.declareLocal
	return eng
}

func (eng *Engine) declareLocal(fs *eval.FuncState, name string, rest []*node.Node, span node.Span) *errors.CompileError {
	return Declare(eng.Eval, name, rest, span)
}

// Expand implements spec §4.9's `expand(call_node, macro)`: verify arity,
// marshal the call's syntactic arguments to DNodes, invoke the macro's
// JITted body through the FFI trampoline, convert the result back to a
// Node, stamp the call-site's macro span onto it, and free the invocation
// pool. A `(do X)` result is unwrapped to `X` directly (spec's property:
// "For every macro call that returns the literal (do X), the evaluator
// sees the same state as if the macro had returned X directly").
func (eng *Engine) Expand(fs *eval.FuncState, fn *namespace.Function, call *node.Node) (*node.Node, *errors.CompileError) {
	argNodes := call.Tail()

	params := fn.RealParams()
	variadic := fn.Type.IsVariadic()
	required := len(params)
	if variadic {
		required--
	}
	if (variadic && len(argNodes) < required) || (!variadic && len(argNodes) != required) {
		return nil, errors.MacroArityMismatch(call.Span, fn.Name, required, variadic, len(argNodes))
	}

	pool := NewPool()
	defer pool.Free()

	sess := eng.Eval.Sess
	fnAddr := fn.JITAddr
	if fnAddr == 0 {
		addr, jitErr := sess.Builder.JITCompile(fn.Handle)
		if jitErr != nil {
			return nil, errors.MacroExpansionFailed(call.Span, fn.Name, jitErr)
		}
		fn.JITAddr = addr
		fnAddr = addr
	}

	args := make([]uintptr, 0, required+2)
	args = append(args, pool.contextAddr())
	fixedArgs := argNodes
	if variadic {
		fixedArgs = argNodes[:required]
	}
	for _, an := range fixedArgs {
		args = append(args, nodeToDNode(pool, an).addr())
	}
	if variadic {
		extra := make([]*dNode, 0, len(argNodes)-required)
		for _, an := range argNodes[required:] {
			extra = append(extra, nodeToDNode(pool, an))
		}
		args = append(args, pool.allocArray(extra))
	}

	resultAddr, err := callNative(fnAddr, args)
	if err != nil {
		return nil, errors.MacroExpansionFailed(call.Span, fn.Name, err)
	}

	resultDNode := dNodeFromAddr(resultAddr)
	if resultDNode == nil {
		return nil, nil
	}
	expanded := dNodeToNode(resultDNode)
	node.StampMacroSpan(expanded, call.Span)

	if expanded.IsList() && len(expanded.Children) == 2 && expanded.Children[0].IsToken() && expanded.Children[0].Text == "do" {
		return expanded.Children[1], nil
	}
	return expanded, nil
}

// ParseOptionalMacroCall implements spec §4.9's `parseOptionalMacroCall`:
// n might be a direct form or a macro call. If n's head names a macro,
// expand it (recursing if the expansion is itself a macro call); otherwise
// return n unchanged. resolve looks up a macro by name and argument count
// without committing to any particular typed overload-resolution attempt —
// exactly the "when arguments cannot be typed, substitute pointer-to-DNode"
// fallback spec describes, applied unconditionally here since this helper
// runs before any typed evaluation of n is attempted.
func (eng *Engine) ParseOptionalMacroCall(fs *eval.FuncState, n *node.Node, resolve func(name string, arity int) (*namespace.Function, bool)) (*node.Node, *errors.CompileError) {
	for {
		if !n.IsList() || len(n.Children) == 0 {
			return n, nil
		}
		head := n.Children[0]
		if !head.IsToken() {
			return n, nil
		}
		fn, ok := resolve(head.Text, len(n.Children)-1)
		if !ok || !fn.IsMacro {
			return n, nil
		}
		expanded, err := eng.Expand(fs, fn, n)
		if err != nil {
			return nil, err
		}
		if expanded == nil {
			return nil, nil
		}
		n = expanded
	}
}
