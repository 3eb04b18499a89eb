package driver

import (
	"github.com/glyphlang/glyphc/internal/errors"
	"github.com/glyphlang/glyphc/internal/ir"
	"github.com/glyphlang/glyphc/internal/namespace"
	"github.com/glyphlang/glyphc/internal/node"
	"github.com/glyphlang/glyphc/internal/reader"
	"github.com/glyphlang/glyphc/internal/types"
)

func boolPtr(b bool) *bool { return &b }

// processTopLevelVar implements module-scope `(def NAME (var LINKAGE TYPE
// [INIT]))` / `(def NAME (const LINKAGE TYPE INIT))` (spec §4.8, adapted
// to the extra LINKAGE slot the top-level grammar has and the local form
// does not): reject an initializer under extern linkage, infer TYPE from
// INIT when TYPE is `\`, reduce INIT to a compile-time constant (the
// literal fast path or, failing that, literal-construction-via-JIT, spec
// §4.11), and bind a real global into the current namespace.
func (d *Driver) processTopLevelVar(name string, rest []*node.Node, span node.Span, isConst bool) {
	if len(rest) < 2 {
		d.Sess.Reporter.Report(errors.UnexpectedElementKind(span, "(var LINKAGE TYPE [INIT])", "wrong arity"))
		return
	}
	if !rest[0].IsToken() {
		d.Sess.Reporter.Report(errors.FirstListElementMustBeAtom(span))
		return
	}
	linkage, ok := namespace.ParseLinkage(rest[0].Text)
	if !ok {
		d.Sess.Reporter.Report(errors.InvalidAttribute(span, rest[0].Text))
		return
	}

	implied := rest[1].IsToken() && rest[1].Text == "\\"
	var declType *types.Type
	var initNode *node.Node
	if implied {
		if len(rest) < 3 {
			d.Sess.Reporter.Report(errors.MustHaveInitialiserForImpliedType(span, name))
			return
		}
		initNode = rest[2]
	} else {
		t, err := d.Eval.ParseType(rest[1])
		if err != nil {
			d.Sess.Reporter.Report(err)
			return
		}
		declType = t
		if len(rest) > 2 {
			initNode = rest[2]
		}
	}

	if linkage == namespace.LinkageExtern && initNode != nil {
		d.Sess.Reporter.Report(errors.InvalidAttribute(span, "extern variable with initializer"))
		return
	}

	var initValue ir.Value
	if initNode != nil {
		v, err := d.reduceToConstant(name, declType, initNode, span)
		if err != nil {
			d.Sess.Reporter.Report(err)
			return
		}
		initValue = v
		if declType == nil {
			declType = v.Type
		}
	} else {
		if isConst {
			d.Sess.Reporter.Report(errors.MustHaveInitialiserForConstType(span, declType.String()))
			return
		}
		if st, isStruct := d.Sess.Ctx.LookupStruct(declType.StructName); isStruct && st.MustInit {
			initFn, _ := d.Sess.Ctx.GetFunction("init", []*types.Type{d.Sess.Types.Pointer(declType)}, boolPtr(false))
			if initFn == nil {
				d.Sess.Reporter.Report(errors.MustHaveInitialiserForType(span, declType.String()))
				return
			}
		}
		zero, zerr := d.zeroValueFor(declType, span)
		if zerr != nil {
			d.Sess.Reporter.Report(zerr)
			return
		}
		initValue = zero
	}

	finalType := declType
	if isConst {
		finalType = d.Sess.Types.ConstOf(declType)
	}
	storage := d.Sess.Builder.GlobalVariable(name, finalType, linkage == namespace.LinkageExtern, initValue)
	v := &namespace.Variable{Name: name, Type: finalType, Linkage: linkage, Storage: storage, Const: isConst}
	if err := d.activeNamespace().AddVariable(span, name, v); err != nil {
		d.Sess.Reporter.Report(err)
	}
}

// zeroValueFor produces a default compile-time value for a declared type
// with no initializer (a global gets a zero-initializer rather than the
// per-field/`init`-overload runtime default-construction spec §4.8
// describes for function-local storage). Aggregate types have no zero
// syntax in this representation and are rejected with the same error a
// missing initializer produces for a must-init struct.
func (d *Driver) zeroValueFor(t *types.Type, span node.Span) (ir.Value, *errors.CompileError) {
	switch {
	case t.IsInteger():
		return d.Sess.Builder.ConstInt(t, 0), nil
	case t.IsFloating():
		return d.Sess.Builder.ConstFloat(t, 0), nil
	case t.Kind == types.Bool:
		return d.Sess.Builder.ConstBool(false), nil
	default:
		return ir.Value{}, errors.MustHaveInitialiserForType(span, t.String())
	}
}

// reduceToConstant evaluates a top-level initializer to a compile-time
// constant ir.Value. Plain literal tokens (int/float/char/string/bool)
// are evaluated directly through the ordinary evaluator, which already
// produces a constant Value for each of those token kinds without
// touching any function-body state; anything else goes through
// literal-construction-via-JIT (spec §4.11).
func (d *Driver) reduceToConstant(name string, wantedType *types.Type, initNode *node.Node, span node.Span) (ir.Value, *errors.CompileError) {
	if isPlainLiteralToken(initNode) {
		res, err := d.Eval.Evaluate(nil, nil, initNode, false, wantedType)
		if err != nil {
			return ir.Value{}, err
		}
		return res.Value, nil
	}
	return d.constructViaJIT(name, wantedType, initNode, span)
}

// isPlainLiteralToken reports whether n is a literal the evaluator turns
// into a constant without reading any FuncState or surrounding block:
// an int/float/char/string token, or the `true`/`false` symbols.
func isPlainLiteralToken(n *node.Node) bool {
	if !n.IsToken() {
		return false
	}
	switch n.TokenKind {
	case node.TokenInt, node.TokenFloat, node.TokenChar, node.TokenString:
		return true
	case node.TokenSymbol:
		return n.Text == "true" || n.Text == "false"
	default:
		return false
	}
}

// constructViaJIT implements spec §4.11's literal-construction-via-JIT
// protocol for an initializer that is not a plain literal token (e.g. a
// struct or array literal, or any computed expression): it wraps the
// initializer in a temporary zero-argument function returning the
// declared type, JIT-compiles it, and — on the backends this module
// ships (irtest, llvmbuilder) — always receives an error back, since
// neither configures an actual JIT engine (that engine is an external
// collaborator per spec's purpose & scope). The temporary function is
// erased from the module either way, matching step 5 of the protocol.
//
// This implementation does not build the protocol's separate "wrapper"
// function that memcpys the result into a scratch buffer (step 2):
// component 2.5's IR builder capability set has no memcpy or raw-buffer
// primitive, and since JITCompile itself always fails on every backend
// this module ships, a wrapper adds a function with no observable effect
// on the outcome. See DESIGN.md.
func (d *Driver) constructViaJIT(name string, wantedType *types.Type, initNode *node.Node, span node.Span) (ir.Value, *errors.CompileError) {
	if wantedType == nil {
		return ir.Value{}, errors.MustHaveInitialiserForImpliedType(span, name)
	}
	tempName := d.nextJITName("lit")
	typeNode, terr := d.typeToNode(wantedType, span)
	if terr != nil {
		return ir.Value{}, errors.LiteralConstructionFailed(span, name, terr)
	}
	tempRest := []*node.Node{typeNode, node.NewList(nil, span), initNode}
	if err := d.Eval.DefFn(tempName, tempRest, span); err != nil {
		return ir.Value{}, err
	}

	fnEntity, _ := d.Sess.Ctx.GetFunction(tempName, []*types.Type{}, boolPtr(false))
	if fnEntity == nil {
		return ir.Value{}, errors.LiteralConstructionFailed(span, name, errReason("temporary function vanished"))
	}
	fnEntity.IsCTO = true

	addr, jitErr := d.Sess.Builder.JITCompile(fnEntity.Handle)
	defer func() {
		d.Sess.Builder.EraseFunction(fnEntity.Handle)
		fnEntity.Handle = nil
		fnEntity.JITAddr = 0
	}()
	if jitErr != nil {
		return ir.Value{}, errors.LiteralConstructionFailed(span, name, jitErr)
	}
	fnEntity.JITAddr = addr

	return d.decodeConstant(wantedType, addr, span, name)
}

// decodeConstant implements step 4 of spec §4.11 for the scalar base
// kinds; struct/array decoding would additionally need per-field offset
// computation and padding detection (*StructContainsPadding*) that this
// module's IR builder interface has no layout-introspection primitive
// for, so it is left unimplemented here — this path is unreachable as
// long as JITCompile keeps failing, which it always does on both shipped
// backends.
func (d *Driver) decodeConstant(t *types.Type, addr uintptr, span node.Span, name string) (ir.Value, *errors.CompileError) {
	switch {
	case t.IsInteger():
		return d.Sess.Builder.ConstInt(t, int64(addr)), nil
	case t.IsFloating():
		return d.Sess.Builder.ConstFloat(t, float64(addr)), nil
	case t.Kind == types.Bool:
		return d.Sess.Builder.ConstBool(addr != 0), nil
	default:
		return ir.Value{}, errors.LiteralConstructionFailed(span, name, errReason("aggregate constant decoding is not implemented"))
	}
}

// typeToNode renders t back to the `(...)` type-syntax node DefFn needs,
// by round-tripping its Type.String() text through the reference reader —
// the same trick parseTypeString uses for `.dtm` deserialization.
func (d *Driver) typeToNode(t *types.Type, span node.Span) (*node.Node, error) {
	forms, errs := reader.Parse("(" + t.String() + ")")
	if len(errs) > 0 || len(forms) == 0 || len(forms[0].Children) == 0 {
		return nil, errReason("cannot re-parse type " + t.String())
	}
	n := forms[0].Children[0]
	n.Span = span
	return n, nil
}

type errReason string

func (e errReason) Error() string { return string(e) }
