package eval

import (
	"github.com/glyphlang/glyphc/internal/errors"
	"github.com/glyphlang/glyphc/internal/ir"
	"github.com/glyphlang/glyphc/internal/lifetime"
	"github.com/glyphlang/glyphc/internal/namespace"
	"github.com/glyphlang/glyphc/internal/node"
	"github.com/glyphlang/glyphc/internal/types"
)

// evaluateDef implements the `def` core form (spec §4.8) reached from
// inside a function body: `(def NAME (var TYPE [INIT]))`, `(def NAME
// (const TYPE INIT))`, `(def NAME (struct (FIELD TYPE)...))`, `(def NAME
// (enum TYPE (MEMBER [VALUE])...))`, and `(def NAME (fn RETTYPE (PARAMS)
// BODY...))`. Top-level defs are driven the same way by the driver, which
// calls these same helpers directly against the root namespace.
func (e *Evaluator) evaluateDef(fs *FuncState, block ir.Block, args []*node.Node, span node.Span) (*ParseResult, *errors.CompileError) {
	if len(args) != 2 || !args[0].IsToken() || !args[1].IsList() || len(args[1].Children) == 0 {
		return nil, errors.UnexpectedElementKind(span, "(def NAME (KIND ...))", "wrong arity")
	}
	name := args[0].Text
	spec := args[1]
	kindNode := spec.Children[0]
	if !kindNode.IsToken() {
		return nil, errors.FirstListElementMustBeAtom(span)
	}
	rest := spec.Children[1:]
	reg := e.Sess.Types

	switch kindNode.Text {
	case "var":
		return e.defVar(fs, block, name, rest, span, false)
	case "const":
		return e.defVar(fs, block, name, rest, span, true)
	case "struct":
		fields := stripLeadingLinkage(rest)
		if len(fields) != 1 || !fields[0].IsList() {
			return nil, errors.UnexpectedElementKind(span, "(struct [LINKAGE] (FIELD TYPE)...)", "malformed struct body")
		}
		if _, err := e.declareStructFromFieldList(span, name, fields[0], false, false); err != nil {
			return nil, err
		}
		return &ParseResult{Block: block, Type: reg.Basic(types.Void), DoNotDestruct: true}, nil
	case "enum":
		if err := e.defEnum(name, stripLeadingLinkage(rest), span); err != nil {
			return nil, err
		}
		return &ParseResult{Block: block, Type: reg.Basic(types.Void), DoNotDestruct: true}, nil
	case "fn":
		if err := e.defFn(name, rest, span); err != nil {
			return nil, err
		}
		return &ParseResult{Block: block, Type: reg.Basic(types.Void), DoNotDestruct: true}, nil
	case "macro":
		if e.DeclareLocalMacro == nil {
			return nil, errors.New(errors.CategoryMacros, errors.KindNoCoreFormNameInMacro, span,
				"local macro definitions are not available outside of a compilation driver")
		}
		if err := e.DeclareLocalMacro(fs, name, rest, span); err != nil {
			return nil, err
		}
		return &ParseResult{Block: block, Type: reg.Basic(types.Void), DoNotDestruct: true}, nil
	default:
		return nil, errors.New(errors.CategoryParsing, errors.KindUnexpectedElementKind, span,
			"unrecognized def kind '%s'", kindNode.Text)
	}
}

// stripLeadingLinkage drops a leading linkage keyword token (`intern`,
// `extern`, `extern-c`, ...) from a struct or enum definition's body, if
// present (spec §6: "Enums and structs accept extern/intern", S3:
// `(struct intern ((a int) (b int)))`). Struct and Enum entities (spec §3)
// carry no Linkage field of their own yet, so the keyword is consumed here
// purely to keep the field/member list that follows it aligned; a driver
// that needs to track struct/enum export visibility does so itself from
// the raw keyword before calling DeclareStruct/DefEnum.
func stripLeadingLinkage(rest []*node.Node) []*node.Node {
	if len(rest) > 0 && rest[0].IsToken() {
		if _, ok := namespace.ParseLinkage(rest[0].Text); ok {
			return rest[1:]
		}
	}
	return rest
}

// defVar implements a local `var`/`const` definition: allocate storage,
// evaluate and store an optional initializer, and bind the name into the
// current namespace. An implied type (`\`) infers its type from the
// initializer; a const or a must-init struct declared with no
// initializer and no `init` overload is an error.
func (e *Evaluator) defVar(fs *FuncState, block ir.Block, name string, rest []*node.Node, span node.Span, isConst bool) (*ParseResult, *errors.CompileError) {
	if len(rest) == 0 {
		return nil, errors.UnexpectedElementKind(span, "(var TYPE [INIT])", "wrong arity")
	}
	reg := e.Sess.Types
	implied := rest[0].IsToken() && rest[0].Text == "\\"

	var declType *types.Type
	var initNode *node.Node
	if implied {
		if len(rest) < 2 {
			return nil, errors.MustHaveInitialiserForImpliedType(span, name)
		}
		initNode = rest[1]
	} else {
		t, err := e.ParseType(rest[0])
		if err != nil {
			return nil, err
		}
		declType = t
		if len(rest) > 1 {
			initNode = rest[1]
		}
	}

	cur := block
	var initRes *ParseResult
	if initNode != nil {
		res, err := e.Evaluate(fs, cur, initNode, false, declType)
		if err != nil {
			return nil, err
		}
		initRes = res
		cur = res.Block
		if declType == nil {
			declType = res.Type
		}
	} else {
		if isConst {
			return nil, errors.MustHaveInitialiserForConstType(span, declType.String())
		}
		st, isStruct := e.Sess.Ctx.LookupStruct(declType.StructName)
		if isStruct && st.MustInit {
			initFn, _ := e.Sess.Ctx.GetFunction("init", []*types.Type{reg.Pointer(declType)}, boolPtr(false))
			if initFn == nil {
				return nil, errors.MustHaveInitialiserForType(span, declType.String())
			}
		}
	}

	finalType := declType
	if isConst {
		finalType = reg.ConstOf(declType)
	}
	addr := e.Sess.Builder.Alloca(finalType, name)
	if initRes != nil {
		e.Sess.Builder.Store(addr, initRes.Value)
	}
	v := &namespace.Variable{Name: name, Type: finalType, Storage: addr, Const: isConst}
	if err := e.Sess.Ctx.Current().AddVariable(span, name, v); err != nil {
		return nil, err
	}
	return &ParseResult{Block: cur, Type: reg.Basic(types.Void), DoNotDestruct: true}, nil
}

// declareStructFromFieldList registers a named struct in the current
// namespace from a `(FIELD TYPE)...` field list, used both by `(def NAME
// (struct ...))` and the anonymous `(struct (...))` type-syntax form.
func (e *Evaluator) declareStructFromFieldList(span node.Span, name string, fieldList *node.Node, mustInit bool, ctoOnly bool) (*types.Type, *errors.CompileError) {
	reg := e.Sess.Types
	fields := make([]namespace.StructField, 0, len(fieldList.Children))
	for _, f := range fieldList.Children {
		if !f.IsList() || len(f.Children) != 2 || !f.Children[0].IsToken() {
			return nil, errors.UnexpectedElementKind(span, "(FIELD TYPE)", "malformed field")
		}
		ft, err := e.ParseType(f.Children[1])
		if err != nil {
			return nil, err
		}
		if ft.Kind == types.Void || (ft.Kind == types.Function) {
			return nil, errors.TypeNotAllowedInStruct(span, ft.String())
		}
		fields = append(fields, namespace.StructField{Name: f.Children[0].Text, Type: ft})
	}
	structType := reg.StructRef(name, e.Sess.Ctx.Current().Path())
	st := &namespace.Struct{Name: name, Type: structType, Fields: fields, MustInit: mustInit}
	if err := e.Sess.Ctx.Current().AddStruct(span, name, st); err != nil {
		return nil, err
	}
	return structType, nil
}

// defEnum implements `(def NAME (enum TYPE (MEMBER [VALUE])...))`: members
// without an explicit value take one more than the previous member's
// (starting at 0).
func (e *Evaluator) defEnum(name string, rest []*node.Node, span node.Span) *errors.CompileError {
	if len(rest) < 1 {
		return errors.UnexpectedElementKind(span, "(enum TYPE MEMBERS...)", "wrong arity")
	}
	underlying, err := e.ParseType(rest[0])
	if err != nil {
		return err
	}
	if !underlying.IsInteger() {
		return errors.EnumMustBeInteger(span, name)
	}
	members := make([]namespace.EnumMember, 0, len(rest)-1)
	next := int64(0)
	for _, m := range rest[1:] {
		var memberName string
		value := next
		if m.IsToken() {
			memberName = m.Text
		} else if m.IsList() && (len(m.Children) == 1 || (len(m.Children) == 2 && m.Children[1].IsToken())) && m.Children[0].IsToken() {
			memberName = m.Children[0].Text
			if len(m.Children) == 2 {
				v, verr := parseIntLiteral(m.Children[1])
				if verr != nil {
					return verr
				}
				value = int64(v)
			}
		} else {
			return errors.UnexpectedElementKind(span, "MEMBER or (MEMBER VALUE)", "malformed enum member")
		}
		members = append(members, namespace.EnumMember{Name: memberName, Value: value})
		next = value + 1
	}
	en := &namespace.Enum{Name: name, Type: underlying, Members: members}
	return e.Sess.Ctx.Current().AddEnum(span, name, en)
}

// defFn implements `(def NAME (fn [LINKAGE] RETTYPE (PARAMS...)
// BODY...))`: declare the function's signature, add it to the overload
// set, and compile its body. LINKAGE defaults to intern when omitted, the
// same default `stripLeadingLinkage`'s struct/enum callers use.
func (e *Evaluator) defFn(name string, rest []*node.Node, span node.Span) *errors.CompileError {
	linkage := namespace.LinkageIntern
	if len(rest) > 0 && rest[0].IsToken() {
		if lk, ok := namespace.ParseLinkage(rest[0].Text); ok {
			linkage = lk
			rest = rest[1:]
		}
	}
	if len(rest) < 2 || !rest[1].IsList() {
		return errors.UnexpectedElementKind(span, "(fn [LINKAGE] RETTYPE (PARAMS...) BODY...)", "wrong arity")
	}
	retType, err := e.ParseType(rest[0])
	if err != nil {
		return err
	}
	if retType.Kind == types.Array {
		return errors.ArrayReturnTypeForbidden(span)
	}
	paramNames := make([]string, 0, len(rest[1].Children))
	paramTypes := make([]*types.Type, 0, len(rest[1].Children))
	for _, p := range rest[1].Children {
		if !p.IsList() || len(p.Children) != 2 || !p.Children[0].IsToken() {
			return errors.UnexpectedElementKind(span, "(NAME TYPE)", "malformed parameter")
		}
		pt, perr := e.ParseType(p.Children[1])
		if perr != nil {
			return perr
		}
		paramNames = append(paramNames, p.Children[0].Text)
		paramTypes = append(paramTypes, pt)
	}

	fnType := e.Sess.Types.Function(retType, paramTypes)
	cur := e.Sess.Ctx.Current()
	mangled := namespace.FunctionNameToSymbol(name, linkage, cur.Path(), paramTypes)
	handle := e.Sess.Builder.CreateFunction(mangled, retType, paramTypes)
	isSetf, isDestructor := lifetime.ClassifyFunction(name)
	fnEntity := &namespace.Function{
		Name: name, Type: fnType, Handle: handle, Linkage: linkage,
		MangledName: mangled, IsSetfFn: isSetf, IsDestructor: isDestructor,
	}
	if addErr := cur.AddFunction(span, name, fnEntity); addErr != nil {
		return addErr
	}

	entry := e.Sess.Builder.CreateBlock(handle, "entry")
	return e.compileFunctionBody(fnEntity, handle, entry, paramNames, paramTypes, rest[2:])
}

// compileFunctionBody binds each parameter to its incoming value in a
// fresh body namespace, evaluates the body as a `do`, emits a scope-close
// plus implicit `return` if control reaches the end of the body, and pops
// back out.
func (e *Evaluator) compileFunctionBody(fnEntity *namespace.Function, handle ir.Function, entry ir.Block, paramNames []string, paramTypes []*types.Type, body []*node.Node) *errors.CompileError {
	return e.compileFunctionBodyVariadic(fnEntity, handle, entry, paramNames, paramTypes, body, false)
}

// compileFunctionBodyVariadic is compileFunctionBody with one extra
// capability the macro engine needs: when hasVariadicBase is true, the
// last entry in paramNames/paramTypes is not bound as an ordinary named
// variable but instead becomes the function's FuncState.VariadicBase (spec
// §4.9's trailing DNode-array argument, read back by the `get-dnodes` core
// form) — a macro declared with a trailing `...` has no name for that
// parameter to bind in the first place.
func (e *Evaluator) compileFunctionBodyVariadic(fnEntity *namespace.Function, handle ir.Function, entry ir.Block, paramNames []string, paramTypes []*types.Type, body []*node.Node, hasVariadicBase bool) *errors.CompileError {
	reg := e.Sess.Types
	builder := e.Sess.Builder
	builder.SetInsertPoint(entry)

	bodyNS := e.Sess.Ctx.ActivateAnonymousNamespace()
	fixedCount := len(paramNames)
	if hasVariadicBase {
		fixedCount--
	}
	for i := 0; i < fixedCount; i++ {
		pn := paramNames[i]
		addr := builder.Alloca(paramTypes[i], pn)
		builder.Store(addr, builder.Param(handle, i))
		v := &namespace.Variable{Name: pn, Type: paramTypes[i], Storage: addr}
		if err := bodyNS.AddVariable(node.Span{}, pn, v); err != nil {
			e.Sess.Ctx.DeactivateNamespace()
			return err
		}
	}

	fs := &FuncState{Fn: fnEntity, Handle: handle, InSetfFn: fnEntity.IsSetfFn, BodyNamespace: bodyNS}
	if hasVariadicBase {
		fs.VariadicBase = builder.Param(handle, fixedCount)
		fs.HasVariadicBase = true
	}
	result, err := e.evaluateSequence(fs, entry, body, false, fnEntity.Type.ReturnType)
	if err != nil {
		e.Sess.Ctx.DeactivateNamespace()
		return err
	}

	e.Lifetime.CloseScope(reg, bodyNS, result.Block)
	builder.SetInsertPoint(result.Block)
	if fnEntity.Type.ReturnType == nil || fnEntity.Type.ReturnType.Kind == types.Void {
		builder.RetVoid()
	} else if result.Value.Raw != nil {
		builder.Ret(result.Value)
	} else {
		builder.RetVoid()
	}
	fnEntity.IsDeclaration = false
	e.Sess.Ctx.DeactivateNamespace()
	return nil
}
