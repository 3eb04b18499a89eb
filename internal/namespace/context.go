package namespace

import (
	"github.com/glyphlang/glyphc/internal/types"
)

// Context is the stack-based facade described in spec §4.4: an active
// namespace stack (the lexical nesting of scopes currently being compiled)
// plus a used-namespace stack (namespaces brought into unqualified lookup
// by `using-namespace`). Lookup walks the active stack innermost-first,
// then the used stack most-recently-used-first.
type Context struct {
	root   *Namespace
	active []*Namespace
	used   []*Namespace
}

// NewContext creates a Context whose active stack starts at root.
func NewContext(root *Namespace) *Context {
	return &Context{root: root, active: []*Namespace{root}}
}

// Current returns the innermost active namespace.
func (c *Context) Current() *Namespace {
	return c.active[len(c.active)-1]
}

// ActivateNamespace pushes an existing namespace (by name, created under
// the current one if absent) onto the active stack.
func (c *Context) ActivateNamespace(name string) *Namespace {
	child := c.Current().Child(name)
	c.active = append(c.active, child)
	return child
}

// ActivateAnonymousNamespace generates a unique child of the current
// namespace and pushes it, for scopes with no source-level name (e.g. a
// function body or an `if` branch).
func (c *Context) ActivateAnonymousNamespace() *Namespace {
	child := c.Current().AnonymousChild()
	c.active = append(c.active, child)
	return child
}

// DeactivateNamespace pops the innermost active namespace. It is a no-op
// (rather than a panic) at the root, since scope-close code paths run
// unconditionally at every nesting level including the outermost.
func (c *Context) DeactivateNamespace() {
	if len(c.active) > 1 {
		c.active = c.active[:len(c.active)-1]
	}
}

// UseNamespace pushes a namespace onto the used-namespace stack, bringing
// its bindings into unqualified lookup ahead of namespaces used earlier.
func (c *Context) UseNamespace(ns *Namespace) {
	c.used = append(c.used, ns)
}

// UnuseNamespace pops the most recently used namespace.
func (c *Context) UnuseNamespace() {
	if len(c.used) > 0 {
		c.used = c.used[:len(c.used)-1]
	}
}

// LookupVariable walks the active stack innermost-first, then the used
// stack most-recently-first.
func (c *Context) LookupVariable(name string) (*Variable, *Namespace, bool) {
	for i := len(c.active) - 1; i >= 0; i-- {
		if v, ok := c.active[i].LookupVariable(name); ok {
			return v, c.active[i], true
		}
	}
	for i := len(c.used) - 1; i >= 0; i-- {
		if v, ok := c.used[i].LookupVariable(name); ok {
			return v, c.used[i], true
		}
	}
	return nil, nil, false
}

// LookupStruct walks the same order as LookupVariable.
func (c *Context) LookupStruct(name string) (*Struct, bool) {
	for i := len(c.active) - 1; i >= 0; i-- {
		if s, ok := c.active[i].LookupStruct(name); ok {
			return s, true
		}
	}
	for i := len(c.used) - 1; i >= 0; i-- {
		if s, ok := c.used[i].LookupStruct(name); ok {
			return s, true
		}
	}
	return nil, false
}

// LookupEnum walks the same order as LookupVariable.
func (c *Context) LookupEnum(name string) (*Enum, bool) {
	for i := len(c.active) - 1; i >= 0; i-- {
		if e, ok := c.active[i].LookupEnum(name); ok {
			return e, true
		}
	}
	for i := len(c.used) - 1; i >= 0; i-- {
		if e, ok := c.used[i].LookupEnum(name); ok {
			return e, true
		}
	}
	return nil, false
}

// GetFunction searches the active stack innermost-first, then the used
// stack, returning the first namespace with any matching overload.
func (c *Context) GetFunction(name string, argTypes []*types.Type, wantMacro *bool) (*Function, *ClosestMatch) {
	var best *ClosestMatch
	for i := len(c.active) - 1; i >= 0; i-- {
		if f, closest := c.active[i].GetFunction(name, argTypes, wantMacro); f != nil {
			return f, nil
		} else if closest != nil && (best == nil || closest.PrefixLen > best.PrefixLen) {
			best = closest
		}
	}
	for i := len(c.used) - 1; i >= 0; i-- {
		if f, closest := c.used[i].GetFunction(name, argTypes, wantMacro); f != nil {
			return f, nil
		} else if closest != nil && (best == nil || closest.PrefixLen > best.PrefixLen) {
			best = closest
		}
	}
	return nil, best
}

// GetFunctionWithDNodeFallback searches the same stacks as GetFunction, but
// asks each namespace to retry via its own GetFunctionWithDNodeFallback
// (spec §4.3, §4.9) before moving to the next one.
func (c *Context) GetFunctionWithDNodeFallback(name string, argTypes []*types.Type, wantMacro *bool, dnodePointerType *types.Type) (*Function, *ClosestMatch) {
	var best *ClosestMatch
	for i := len(c.active) - 1; i >= 0; i-- {
		if f, closest := c.active[i].GetFunctionWithDNodeFallback(name, argTypes, wantMacro, dnodePointerType); f != nil {
			return f, nil
		} else if closest != nil && (best == nil || closest.PrefixLen > best.PrefixLen) {
			best = closest
		}
	}
	for i := len(c.used) - 1; i >= 0; i-- {
		if f, closest := c.used[i].GetFunctionWithDNodeFallback(name, argTypes, wantMacro, dnodePointerType); f != nil {
			return f, nil
		} else if closest != nil && (best == nil || closest.PrefixLen > best.PrefixLen) {
			best = closest
		}
	}
	return nil, best
}

// SavePoint snapshots the active/used stack depths, for rollback of
// speculative parsing (overload probing, macro-argument type discovery).
// It does not snapshot namespace contents: speculative evaluation is
// expected to only ever add bindings to namespaces it created itself
// (anonymous scopes pushed after the save point), which Restore discards
// wholesale by popping back to the recorded depths.
type SavePoint struct {
	activeDepth int
	usedDepth   int
}

// Save records the current stack depths.
func (c *Context) Save() SavePoint {
	return SavePoint{activeDepth: len(c.active), usedDepth: len(c.used)}
}

// Restore pops the active/used stacks back to a previously recorded depth.
func (c *Context) Restore(sp SavePoint) {
	if sp.activeDepth <= len(c.active) {
		c.active = c.active[:sp.activeDepth]
	}
	if sp.usedDepth <= len(c.used) {
		c.used = c.used[:sp.usedDepth]
	}
}
