package types

import "sync"

// Registry interns Type descriptions so that equal descriptions always
// resolve to the same *Type pointer (invariant (e) in the data model:
// "a type returned from the registry compares equal to any structurally
// identical type previously or subsequently returned"). Identity
// (pointer) equality doubles as structural equality for interned types,
// which is what lets the evaluator and namespace tree use map keys and
// `==` interchangeably once a type has passed through the registry.
//
// A Registry is safe for concurrent use, though the compiler itself is
// single-threaded (see spec's concurrency model) — the lock exists so a
// Session can be shared across test goroutines without races.
type Registry struct {
	mu       sync.Mutex
	interned map[string]*Type
	basics   map[BaseKind]*Type
}

// NewRegistry creates a Registry with every basic type pre-interned.
func NewRegistry() *Registry {
	r := &Registry{
		interned: make(map[string]*Type),
		basics:   make(map[BaseKind]*Type),
	}
	for kind := range baseKindNames {
		switch kind {
		case Pointer, Array, Bitfield, Struct, Function:
			continue
		}
		r.basics[kind] = r.intern(&Type{Kind: kind})
	}
	return r
}

func (r *Registry) intern(t *Type) *Type {
	key := descriptor(t)
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.interned[key]; ok {
		return existing
	}
	r.interned[key] = t
	return t
}

// Basic returns the canonical instance of a basic (non-compound) kind.
func (r *Registry) Basic(kind BaseKind) *Type {
	if t, ok := r.basics[kind]; ok {
		return t
	}
	panic("types: Basic called with a compound kind " + kind.String())
}

// Pointer returns the canonical pointer-to-t type.
func (r *Registry) Pointer(t *Type) *Type {
	return r.intern(&Type{Kind: Pointer, Pointee: t})
}

// Array returns the canonical fixed-length array-of-t type. A length of 0
// is accepted by the registry (the "length inferred from elements" case is
// resolved by the definition form before the array type reaches here with
// its final length).
func (r *Registry) Array(t *Type, length int) *Type {
	return r.intern(&Type{Kind: Array, Elem: t, Length: length})
}

// Bitfield returns the canonical N-bit bitfield over the given integer
// base type.
func (r *Registry) Bitfield(base *Type, width int) *Type {
	return r.intern(&Type{Kind: Bitfield, Pointee: base, BitWidth: width})
}

// StructRef returns the canonical reference to a (possibly not-yet-
// completed, i.e. opaque) struct identified by name and its qualifying
// namespace path.
func (r *Registry) StructRef(name string, namespacePath []string) *Type {
	path := append([]string(nil), namespacePath...)
	return r.intern(&Type{Kind: Struct, StructName: name, StructNamespace: path})
}

// Function returns the canonical function type for the given return type
// and ordered parameter types.
func (r *Registry) Function(ret *Type, params []*Type) *Type {
	ps := append([]*Type(nil), params...)
	return r.intern(&Type{Kind: Function, ReturnType: ret, Params: ps})
}

// ConstOf returns the const-qualified version of t.
func (r *Registry) ConstOf(t *Type) *Type {
	if t == nil {
		return nil
	}
	if t.Const {
		return t
	}
	clone := *t
	clone.Const = true
	return r.intern(&clone)
}

// ReferenceOf returns the reference-qualified version of t, used for
// return-value-protocol and by-reference parameter passing.
func (r *Registry) ReferenceOf(t *Type) *Type {
	if t == nil {
		return nil
	}
	if t.Reference {
		return t
	}
	clone := *t
	clone.Reference = true
	return r.intern(&clone)
}

// CanBePassedFrom reports whether a value of type source may be passed to
// a parameter of type target, under the C-style value-passing rule: a
// constness mismatch is accepted only when target is non-const and source
// is const (never the reverse), and only the const qualifier is relaxed —
// every other structural aspect of the two types must still match exactly.
func CanBePassedFrom(target, source *Type) bool {
	if target == nil || source == nil {
		return target == source
	}
	if target.Equals(source) {
		return true
	}
	if !target.Const && source.Const {
		relaxed := *source
		relaxed.Const = target.Const
		return target.Equals(&relaxed)
	}
	return false
}
