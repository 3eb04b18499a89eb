package namespace

import (
	"github.com/glyphlang/glyphc/internal/errors"
	"github.com/glyphlang/glyphc/internal/node"
	"github.com/glyphlang/glyphc/internal/types"
)

// Namespace is one node of the namespace tree (component 2.3): a scope that
// binds names to variables, overload sets of functions/macros, structs, and
// enums, with a parent link for qualified-name resolution and mangling.
type Namespace struct {
	Name     string
	Parent   *Namespace
	Children map[string]*Namespace

	functions map[string][]*Function
	variables map[string]*Variable
	structs   map[string]*Struct
	enums     map[string]*Enum

	nextVarIndex int
	anonSeq      int
}

// NewRoot creates the top-level (unnamed) namespace for a compilation unit.
func NewRoot() *Namespace {
	return newNamespace("", nil)
}

func newNamespace(name string, parent *Namespace) *Namespace {
	return &Namespace{
		Name:      name,
		Parent:    parent,
		Children:  make(map[string]*Namespace),
		functions: make(map[string][]*Function),
		variables: make(map[string]*Variable),
		structs:   make(map[string]*Struct),
		enums:     make(map[string]*Enum),
	}
}

// Child returns (creating if needed) a named child namespace.
func (ns *Namespace) Child(name string) *Namespace {
	if c, ok := ns.Children[name]; ok {
		return c
	}
	c := newNamespace(name, ns)
	ns.Children[name] = c
	return c
}

// AnonymousChild creates a uniquely-named child namespace, for
// Context.activate_anonymous_namespace.
func (ns *Namespace) AnonymousChild() *Namespace {
	ns.anonSeq++
	name := "$anon" + itoa(ns.anonSeq)
	return ns.Child(name)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

// Path returns the enclosing namespace names from root to parent (excluding
// the root's own empty name and this namespace itself), for use as a
// mangling namespace path.
func (ns *Namespace) Path() []string {
	var segs []string
	for p := ns.Parent; p != nil && p.Parent != nil; p = p.Parent {
		segs = append([]string{p.Name}, segs...)
	}
	return segs
}

func paramsEqual(a, b []*types.Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equals(b[i]) {
			return false
		}
	}
	return true
}

// AddFunction inserts fn into the overload set for name, per spec §4.3:
//   - an extant declaration with the same signature is replaced in place;
//   - an extant entry with the same signature and is_macro is a duplicate
//     (no-op if it is literally the same *Function, else a Redeclaration
//     error);
//   - a macro and a non-macro whose real (non-implicit-context) parameter
//     types match are mutually rejected.
func (ns *Namespace) AddFunction(span node.Span, name string, fn *Function) *errors.CompileError {
	existing := ns.functions[name]

	for _, o := range existing {
		if o.IsMacro == fn.IsMacro && paramsEqual(o.Type.Params, fn.Type.Params) {
			if o == fn {
				return nil
			}
			if o.IsDeclaration && !fn.IsDeclaration {
				*o = *fn
				return nil
			}
			kind := "function"
			if fn.IsMacro {
				kind = "macro"
			}
			return errors.Redeclaration(span, kind, name)
		}
	}

	for _, o := range existing {
		if o.IsMacro != fn.IsMacro && paramsEqual(o.RealParams(), fn.RealParams()) {
			if fn.IsMacro {
				return errors.MacroHasSameParamsAsFunction(span, name)
			}
			return errors.FunctionHasSameParamsAsMacro(span, name)
		}
	}

	ns.functions[name] = append(existing, fn)
	return nil
}

// AddVariable binds name to v in this namespace, failing if already bound.
// Indices are assigned 1-based (spec §3 invariant (a): "every named
// binding in a namespace has a stable index > 0") so that a goto recorded
// before any declaration in its namespace (DeclIndex == NextIndex() == 0)
// is always strictly less than the first variable's index, rather than
// tying with it.
func (ns *Namespace) AddVariable(span node.Span, name string, v *Variable) *errors.CompileError {
	if _, ok := ns.variables[name]; ok {
		return errors.RedefinitionOfVariable(span, name)
	}
	ns.nextVarIndex++
	v.Index = ns.nextVarIndex
	ns.variables[name] = v
	return nil
}

// AddStruct binds name to s in this namespace, failing if already bound.
func (ns *Namespace) AddStruct(span node.Span, name string, s *Struct) *errors.CompileError {
	if _, ok := ns.structs[name]; ok {
		return errors.Redeclaration(span, "struct", name)
	}
	ns.structs[name] = s
	return nil
}

// AddEnum binds name to e in this namespace, failing if already bound.
func (ns *Namespace) AddEnum(span node.Span, name string, e *Enum) *errors.CompileError {
	if _, ok := ns.enums[name]; ok {
		return errors.Redeclaration(span, "enum", name)
	}
	ns.enums[name] = e
	return nil
}

// LookupVariable returns the variable bound to name in this namespace only
// (Context handles walking the active/used-namespace stack).
func (ns *Namespace) LookupVariable(name string) (*Variable, bool) {
	v, ok := ns.variables[name]
	return v, ok
}

// LookupStruct returns the struct bound to name in this namespace only.
func (ns *Namespace) LookupStruct(name string) (*Struct, bool) {
	s, ok := ns.structs[name]
	return s, ok
}

// LookupEnum returns the enum bound to name in this namespace only.
func (ns *Namespace) LookupEnum(name string) (*Enum, bool) {
	e, ok := ns.enums[name]
	return e, ok
}

// Functions returns this namespace's own overload sets, keyed by name.
// The caller must not mutate the returned map or slices; it exists so the
// driver can walk a namespace's contents for `.dtm` serialization (spec
// §6) without this package exposing its storage representation directly.
func (ns *Namespace) Functions() map[string][]*Function { return ns.functions }

// Structs returns this namespace's own struct bindings, keyed by name.
func (ns *Namespace) Structs() map[string]*Struct { return ns.structs }

// Enums returns this namespace's own enum bindings, keyed by name.
func (ns *Namespace) Enums() map[string]*Enum { return ns.enums }

// Variables returns this namespace's own variable bindings, keyed by name.
func (ns *Namespace) Variables() map[string]*Variable { return ns.variables }

// ClosestMatch describes the best partial overload match found when
// resolution fails, for the OverloadedNotInScopeWithClosest error.
type ClosestMatch struct {
	Function   *Function
	PrefixLen  int
}

func matchesPrefix(params []*types.Type, args []*types.Type) int {
	n := len(params)
	if len(args) < n {
		n = len(args)
	}
	i := 0
	for i < n && types.CanBePassedFrom(params[i], args[i]) {
		i++
	}
	return i
}

func matchesExact(params []*types.Type, args []*types.Type) bool {
	if len(params) != len(args) {
		return false
	}
	for i := range params {
		if !types.CanBePassedFrom(params[i], args[i]) {
			return false
		}
	}
	return true
}

// matchesExternCPromotable reports whether every argument can reach the
// corresponding parameter either exactly or via spec §4.7 step 5's
// extern-C integer/bool auto-cast: same arity, and each mismatched slot is
// an integer-or-bool pair a width cast can bridge.
func matchesExternCPromotable(params []*types.Type, args []*types.Type) bool {
	if len(params) != len(args) {
		return false
	}
	for i := range params {
		if types.CanBePassedFrom(params[i], args[i]) {
			continue
		}
		if !params[i].IsInteger() || !args[i].IsInteger() {
			return false
		}
	}
	return true
}

// GetFunction implements spec §4.3's overload resolution.
//
// When argTypes is nil, it returns the most recently defined
// non-declaration candidate, preferring it over a declaration. Otherwise it
// resolves by priority: exact definition match, exact declaration match,
// best varargs match (most fixed arguments matched), an extern-C candidate
// reachable via spec §4.7 step 5's integer/bool width cast, else nil with
// the closest (longest-prefix) partial match recorded for diagnostics.
//
// wantMacro, when non-nil, restricts candidates to macros (true) or plain
// functions (false); nil considers both.
func (ns *Namespace) GetFunction(name string, argTypes []*types.Type, wantMacro *bool) (*Function, *ClosestMatch) {
	var candidates []*Function
	for _, f := range ns.functions[name] {
		if wantMacro == nil || f.IsMacro == *wantMacro {
			candidates = append(candidates, f)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	if argTypes == nil {
		for i := len(candidates) - 1; i >= 0; i-- {
			if !candidates[i].IsDeclaration {
				return candidates[i], nil
			}
		}
		return candidates[len(candidates)-1], nil
	}

	var bestExactDef, bestExactDecl, bestVarargs, bestExternCPromo *Function
	bestVarargsFixed := -1
	var closest *Function
	closestLen := -1

	for _, f := range candidates {
		params := f.RealParams()
		if matchesExact(params, argTypes) {
			if f.IsDeclaration {
				if bestExactDecl == nil {
					bestExactDecl = f
				}
			} else {
				bestExactDef = f
			}
			continue
		}
		if f.Type.IsVariadic() && len(params) > 0 {
			fixed := len(params) - 1
			if len(argTypes) >= fixed && matchesExact(params[:fixed], argTypes[:fixed]) {
				if fixed > bestVarargsFixed {
					bestVarargsFixed = fixed
					bestVarargs = f
				}
			}
			continue
		}
		if f.Linkage == LinkageExternC && matchesExternCPromotable(params, argTypes) {
			if bestExternCPromo == nil {
				bestExternCPromo = f
			}
			continue
		}
		if n := matchesPrefix(params, argTypes); n > closestLen {
			closestLen = n
			closest = f
		}
	}

	switch {
	case bestExactDef != nil:
		return bestExactDef, nil
	case bestExactDecl != nil:
		return bestExactDecl, nil
	case bestVarargs != nil:
		return bestVarargs, nil
	case bestExternCPromo != nil:
		return bestExternCPromo, nil
	case closest != nil:
		return nil, &ClosestMatch{Function: closest, PrefixLen: closestLen}
	default:
		return nil, nil
	}
}

// GetFunctionWithDNodeFallback implements the retry described in §4.3 and
// §4.9's parseOptionalMacroCall: when no candidate matches argTypes, the
// last argument not already dnodePointerType is replaced by it and
// resolution is retried, escalating one argument at a time until a match is
// found or every argument has been substituted. This is how a macro that
// accepts raw syntax for its trailing arguments gets discovered.
func (ns *Namespace) GetFunctionWithDNodeFallback(name string, argTypes []*types.Type, wantMacro *bool, dnodePointerType *types.Type) (*Function, *ClosestMatch) {
	if f, _ := ns.GetFunction(name, argTypes, wantMacro); f != nil {
		return f, nil
	}
	trial := append([]*types.Type(nil), argTypes...)
	for i := len(trial) - 1; i >= 0; i-- {
		if trial[i].Equals(dnodePointerType) {
			continue
		}
		trial[i] = dnodePointerType
		if f, _ := ns.GetFunction(name, trial, wantMacro); f != nil {
			return f, nil
		}
	}
	_, closest := ns.GetFunction(name, argTypes, wantMacro)
	return nil, closest
}

// Merge imports every externally-linked function, struct, enum, and
// variable from other into ns, skipping intern bindings; a duplicate name
// with a mismatched signature fails.
func (ns *Namespace) Merge(other *Namespace) *errors.CompileError {
	for name, fns := range other.functions {
		for _, f := range fns {
			if f.Linkage == LinkageIntern {
				continue
			}
			if err := ns.AddFunction(node.Span{}, name, f); err != nil {
				return err
			}
		}
	}
	for name, s := range other.structs {
		if existing, ok := ns.structs[name]; ok {
			if !existing.Type.Equals(s.Type) {
				return errors.Redeclaration(node.Span{}, "struct", name)
			}
			continue
		}
		ns.structs[name] = s
	}
	for name, e := range other.enums {
		if existing, ok := ns.enums[name]; ok {
			if !existing.Type.Equals(e.Type) {
				return errors.Redeclaration(node.Span{}, "enum", name)
			}
			continue
		}
		ns.enums[name] = e
	}
	for name, v := range other.variables {
		if v.Linkage == LinkageIntern {
			continue
		}
		if existing, ok := ns.variables[name]; ok {
			if !existing.Type.Equals(v.Type) {
				return errors.RedefinitionOfVariable(node.Span{}, name)
			}
			continue
		}
		ns.variables[name] = v
	}
	return nil
}

// EraseLLVMMacros drops the IR body handle of every macro in this
// namespace and its children, once the macro engine no longer needs to
// JIT-invoke them (e.g. after the final compilation stage).
func (ns *Namespace) EraseLLVMMacros() {
	ns.eraseWhere(func(f *Function) bool { return f.IsMacro })
}

// EraseMacrosAndCTO additionally drops compile-time-only functions (the
// temporaries and wrappers spec §4.11 builds for literal construction via
// JIT).
func (ns *Namespace) EraseMacrosAndCTO() {
	ns.eraseWhere(func(f *Function) bool { return f.IsMacro || f.IsCTO })
}

func (ns *Namespace) eraseWhere(pred func(*Function) bool) {
	for _, fns := range ns.functions {
		for _, f := range fns {
			if pred(f) {
				f.Handle = nil
				f.JITAddr = 0
			}
		}
	}
	for _, c := range ns.Children {
		c.eraseWhere(pred)
	}
}

// RegetPointers re-resolves every stored backend handle after a module
// re-link, by asking resolve for the backend entity behind each function's
// and variable's mangled symbol.
func (ns *Namespace) RegetPointers(resolve func(symbol string) (any, bool)) {
	path := ns.Path()
	for name, fns := range ns.functions {
		for _, f := range fns {
			sym := FunctionNameToSymbol(name, f.Linkage, path, f.Type.Params)
			if h, ok := resolve(sym); ok {
				f.Handle = h
			}
		}
	}
	for name, v := range ns.variables {
		sym := NameToSymbol(name, path)
		if h, ok := resolve(sym); ok {
			v.Storage = h
		}
	}
	for _, c := range ns.Children {
		c.RegetPointers(resolve)
	}
}

// RemoveUnneeded prunes this namespace's bindings down to wanted, recording
// into found which wanted names were actually present (used to prune
// imports after `merge` to only what a later compilation unit still needs).
func (ns *Namespace) RemoveUnneeded(wanted map[string]bool, found map[string]bool) {
	for name := range ns.functions {
		if wanted[name] {
			found[name] = true
		} else {
			delete(ns.functions, name)
		}
	}
	for name := range ns.variables {
		if wanted[name] {
			found[name] = true
		} else {
			delete(ns.variables, name)
		}
	}
	for name := range ns.structs {
		if wanted[name] {
			found[name] = true
		} else {
			delete(ns.structs, name)
		}
	}
	for name := range ns.enums {
		if wanted[name] {
			found[name] = true
		} else {
			delete(ns.enums, name)
		}
	}
}

// NextIndex returns the declaration index of the most recently added
// variable in this namespace (0 if none), i.e. the count of variables
// already bound here; the next variable added gets NextIndex()+1. The
// lifetime manager uses this to stamp a goto or
// label with "how many declarations have happened in this namespace so
// far" without adding a variable.
func (ns *Namespace) NextIndex() int { return ns.nextVarIndex }

// VariablesDescending returns this namespace's own variables (not its
// ancestors'), ordered by declaration index from highest to lowest —
// the order scope-close destructors must run in (spec §4.10, invariant
// (b)).
func (ns *Namespace) VariablesDescending() []*Variable {
	out := make([]*Variable, 0, len(ns.variables))
	for _, v := range ns.variables {
		out = append(out, v)
	}
	sortVariablesDescending(out)
	return out
}

// VariablesBetween returns this namespace's own variables whose
// declaration index is > lo and <= hi, used by the goto-crosses-declaration
// check (spec §4.10).
func (ns *Namespace) VariablesBetween(lo, hi int) []*Variable {
	var out []*Variable
	for _, v := range ns.variables {
		if v.Index > lo && v.Index <= hi {
			out = append(out, v)
		}
	}
	sortVariablesDescending(out)
	return out
}

func sortVariablesDescending(vs []*Variable) {
	for i := 1; i < len(vs); i++ {
		for j := i; j > 0 && vs[j].Index > vs[j-1].Index; j-- {
			vs[j], vs[j-1] = vs[j-1], vs[j]
		}
	}
}

// GetVarsBeforeIndex collects, from this namespace and its ancestors, every
// variable whose declaration index is <= i.
func (ns *Namespace) GetVarsBeforeIndex(i int, out *[]*Variable) {
	for n := ns; n != nil; n = n.Parent {
		for _, v := range n.variables {
			if v.Index <= i {
				*out = append(*out, v)
			}
		}
	}
}

// GetVarsAfterIndex collects, from this namespace and its ancestors, every
// variable whose declaration index is >= i.
func (ns *Namespace) GetVarsAfterIndex(i int, out *[]*Variable) {
	for n := ns; n != nil; n = n.Parent {
		for _, v := range n.variables {
			if v.Index >= i {
				*out = append(*out, v)
			}
		}
	}
}
