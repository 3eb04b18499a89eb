package eval

import (
	"github.com/glyphlang/glyphc/internal/errors"
	"github.com/glyphlang/glyphc/internal/ir"
	"github.com/glyphlang/glyphc/internal/namespace"
	"github.com/glyphlang/glyphc/internal/node"
	"github.com/glyphlang/glyphc/internal/types"
)

// evaluateCall implements spec §4.7's function/macro call resolution:
// argument types are discovered by speculatively evaluating each argument
// node, candidates are resolved by the namespace tree's overload ladder,
// and — if resolution picks a macro — the speculative argument IR is
// rolled back (via the builder's instruction-count/truncate pair, the
// reporter's count/truncate pair, and the context's save/restore pair)
// before the macro engine re-evaluates the call's raw syntax.
func (e *Evaluator) evaluateCall(fs *FuncState, block ir.Block, call *node.Node, name string, argNodes []*node.Node, wantAddress bool, wantedType *types.Type) (*ParseResult, *errors.CompileError) {
	instrMark := e.Sess.Builder.InstructionCount(block)
	errMark := e.Sess.Reporter.Count()
	ctxMark := e.Sess.Ctx.Save()

	rollback := func() {
		e.Sess.Builder.Truncate(block, instrMark)
		e.Sess.Reporter.TruncateTo(errMark)
		e.Sess.Ctx.Restore(ctxMark)
	}

	argResults := make([]*ParseResult, len(argNodes))
	argTypes := make([]*types.Type, len(argNodes))
	cur := block
	for i, an := range argNodes {
		res, err := e.Evaluate(fs, cur, an, false, nil)
		if err != nil {
			rollback()
			return nil, err
		}
		argResults[i] = res
		argTypes[i] = res.Type
		cur = res.Block
	}

	fn, closest := e.Sess.Ctx.GetFunction(name, argTypes, nil)
	if fn == nil {
		fn, closest = e.Sess.Ctx.GetFunctionWithDNodeFallback(name, argTypes, nil, e.Sess.DNodePointerType)
	}
	if fn == nil {
		rollback()
		var ec *errors.ClosestMatch
		if closest != nil {
			ec = &errors.ClosestMatch{Name: name, Signature: closest.Function.Type.String()}
		}
		return nil, errors.OverloadedFunctionOrMacroNotInScope(call.Span, name, ec)
	}

	if fn.IsMacro {
		rollback()
		if e.ExpandMacro == nil {
			return nil, errors.New(errors.CategoryMacros, errors.KindNoCoreFormNameInMacro, call.Span,
				"macro '%s' cannot be expanded outside of a compilation driver", name)
		}
		expanded, err := e.ExpandMacro(fs, fn, call)
		if err != nil {
			return nil, err
		}
		return e.Evaluate(fs, block, expanded, wantAddress, wantedType)
	}

	params := fn.RealParams()
	variadic := fn.Type.IsVariadic()
	finalArgs := make([]ir.Value, len(argResults))
	for i, res := range argResults {
		var want *types.Type
		if i < len(params) && !(variadic && i == len(params)-1) {
			want = params[i]
		}
		finalArgs[i] = e.coerceArg(res, want, fn.Linkage)
	}

	calleeVal := e.Sess.Builder.FunctionPointer(fn.Handle)
	retVal := e.Sess.Builder.Call(calleeVal, finalArgs)
	result := &ParseResult{Block: cur, Type: fn.Type.ReturnType, Value: retVal}
	return e.maybeCopyWithSetf(fs, result), nil
}

// coerceArg applies spec §4.7's call-site argument conversions: step 6's
// varargs promotion for a slot past the fixed arity (want == nil), or step
// 5's extern-C integer/bool width cast for a fixed slot that overload
// resolution matched via matchesExternCPromotable rather than an exact
// CanBePassedFrom. An exact-match fixed slot needs no coercion.
func (e *Evaluator) coerceArg(res *ParseResult, want *types.Type, linkage namespace.Linkage) ir.Value {
	if want == nil {
		return e.promoteVarargsArg(res)
	}
	if linkage != namespace.LinkageExternC || res.Type == nil || res.Type.Equals(want) {
		return res.Value
	}
	return e.castExternCArg(res, want)
}

// integerByteSize gives each integer-ish kind's storage width in bytes,
// under the same LP64-style layout typeLayout uses, so coerceArg can tell
// a widening cast from a narrowing one the backend has no primitive for.
func integerByteSize(k types.BaseKind) int {
	switch k {
	case types.Bool, types.Char, types.Int8, types.UInt8:
		return 1
	case types.Int16, types.UInt16:
		return 2
	case types.Int32, types.UInt32:
		return 4
	case types.Int64, types.UInt64, types.Int, types.UInt, types.IntPtr, types.Size, types.PtrDiff:
		return 8
	case types.Int128, types.UInt128:
		return 16
	default:
		return 0
	}
}

// promoteVarargsArg implements spec §4.7 step 6, unconditionally of
// linkage: a float argument past the fixed arity promotes to double, and
// an integer or bool argument narrower than native int widens to native
// int, sign-extended if the source is signed and zero-extended otherwise.
func (e *Evaluator) promoteVarargsArg(res *ParseResult) ir.Value {
	if res.Type == nil {
		return res.Value
	}
	if res.Type.IsFloating() && res.Type.Kind != types.Double {
		return e.Sess.Builder.FloatExtend(res.Value, e.Sess.Types.Basic(types.Double))
	}
	if res.Type.IsInteger() && integerByteSize(res.Type.Kind) < integerByteSize(types.Int) {
		native := e.Sess.Types.Basic(types.Int)
		return e.Sess.Builder.IntExtend(res.Value, native, res.Type.IsSignedInteger())
	}
	return res.Value
}

// castExternCArg implements spec §4.7 step 5: an extern-C call whose
// argument and resolved parameter types are both integer- or bool-typed
// but differ in width casts the argument up to the parameter's width. A
// narrowing mismatch has no backend primitive, matching evaluateCast's
// int<->int limitation, so the value passes through unchanged.
func (e *Evaluator) castExternCArg(res *ParseResult, want *types.Type) ir.Value {
	if !res.Type.IsInteger() || !want.IsInteger() {
		return res.Value
	}
	if integerByteSize(want.Kind) <= integerByteSize(res.Type.Kind) {
		return res.Value
	}
	return e.Sess.Builder.IntExtend(res.Value, want, res.Type.IsSignedInteger())
}

// maybeCopyWithSetf implements spec §4.6's post-call copy-with-setf step:
// a struct-typed call result that isn't already exempt (do_not_copy_with_
// setf) and isn't produced inside the matching setf-copy override itself
// is passed through that override so user-defined copy semantics run
// before the value is used.
func (e *Evaluator) maybeCopyWithSetf(fs *FuncState, result *ParseResult) *ParseResult {
	if result.Type == nil || result.Type.Kind != types.Struct || result.DoNotCopyWithSetf || fs.InSetfFn {
		return result
	}
	copyFn, _ := e.Sess.Ctx.GetFunction("setf-copy", []*types.Type{e.Sess.Types.Pointer(result.Type), e.Sess.Types.Pointer(result.Type)}, boolPtr(false))
	if copyFn == nil {
		return result
	}
	tmp := e.Sess.Builder.Alloca(result.Type, e.Sess.NextTempName("copy"))
	src := e.Sess.Builder.Alloca(result.Type, e.Sess.NextTempName("copysrc"))
	e.Sess.Builder.Store(src, result.Value)
	fnPtr := e.Sess.Builder.FunctionPointer(copyFn.Handle)
	e.Sess.Builder.Call(fnPtr, []ir.Value{tmp, src})
	loaded := e.Sess.Builder.Load(tmp)
	result.Value = loaded
	result.FreshlyCopied = true
	return result
}

func boolPtr(b bool) *bool { return &b }

// callFunctionValue emits a call through an already-evaluated function
// pointer value (spec §4.6's computed-callee fallback and the `funcall`
// core form share this).
func (e *Evaluator) callFunctionValue(fs *FuncState, block ir.Block, call *node.Node, fnPtr ir.Value, fnType *types.Type, argNodes []*node.Node, wantedType *types.Type) (*ParseResult, *errors.CompileError) {
	args := make([]ir.Value, len(argNodes))
	cur := block
	for i, an := range argNodes {
		var want *types.Type
		if i < len(fnType.Params) {
			want = fnType.Params[i]
		}
		res, err := e.Evaluate(fs, cur, an, false, want)
		if err != nil {
			return nil, err
		}
		args[i] = res.Value
		cur = res.Block
	}
	retVal := e.Sess.Builder.Call(fnPtr, args)
	return &ParseResult{Block: cur, Type: fnType.ReturnType, Value: retVal}, nil
}

// callFunctionValueWithLeading is callFunctionValue plus a fixed leading
// argument (the struct pointer an `apply` field is invoked against).
func (e *Evaluator) callFunctionValueWithLeading(fs *FuncState, block ir.Block, call *node.Node, fnPtr ir.Value, fnType *types.Type, leading ir.Value, argNodes []*node.Node, wantedType *types.Type) (*ParseResult, *errors.CompileError) {
	args := []ir.Value{leading}
	cur := block
	for i, an := range argNodes {
		var want *types.Type
		if i+1 < len(fnType.Params) {
			want = fnType.Params[i+1]
		}
		res, err := e.Evaluate(fs, cur, an, false, want)
		if err != nil {
			return nil, err
		}
		args = append(args, res.Value)
		cur = res.Block
	}
	retVal := e.Sess.Builder.Call(fnPtr, args)
	return &ParseResult{Block: cur, Type: fnType.ReturnType, Value: retVal}, nil
}
