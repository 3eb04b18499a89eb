// Package session holds the one piece of explicitly-shared mutable state
// the rest of the compiler threads through every call: the type registry,
// the namespace/context pair, the error reporter, the active IR builder,
// and the small counters and sets spec's Design Notes §9 calls out as
// "global mutable state in the source" (basic-type singletons, once-tag
// sets, imported-module lists, temp-name counters).
//
// Every compilation constructs a fresh Session; nothing here is a package
// level global, so tests can run a session each without interference.
package session

import (
	"fmt"

	"github.com/glyphlang/glyphc/internal/errors"
	"github.com/glyphlang/glyphc/internal/ir"
	"github.com/glyphlang/glyphc/internal/namespace"
	"github.com/glyphlang/glyphc/internal/types"
)

// Session is the compilation-unit-wide object threaded through the
// evaluator, the definition forms, the macro engine, and the lifetime
// manager.
type Session struct {
	Types    *types.Registry
	Root     *namespace.Namespace
	Ctx      *namespace.Context
	Reporter *errors.Reporter
	Builder  ir.Builder

	// ModuleName is the name of the module currently being compiled (spec
	// §6's `(module NAME ...)` form); it keys the string-literal cache so a
	// literal never aliases a global across modules (spec §5).
	ModuleName string
	// IsCTO marks the whole module compile-time-only (the `(attr cto)`
	// module attribute).
	IsCTO bool

	// OnceTags is the set of once-tags recorded by `(once TAG)` forms,
	// unioned across the whole transitive import graph (Open Question (c),
	// resolved in DESIGN.md: union across re-import chains).
	OnceTags map[string]bool
	// ImportedModules is the ordered list of module names imported so far,
	// used to avoid importing the same module twice and to populate the
	// `.dtm` import list spec §6 describes.
	ImportedModules []string

	stringCache map[string]ir.Value
	tempSeq     int

	// DNodePointerType is the canonical `pointer-to-DNode` type, used by
	// overload resolution's DNode-fallback retry (spec §4.3, §4.9) and by
	// macro parameter typing.
	DNodePointerType *types.Type
}

// New constructs a Session with a fresh namespace tree, type registry, and
// error reporter, wired to the given IR builder backend.
func New(builder ir.Builder) *Session {
	reg := types.NewRegistry()
	root := namespace.NewRoot()
	dnodeStruct := reg.StructRef("DNode", nil)
	return &Session{
		Types:            reg,
		Root:             root,
		Ctx:              namespace.NewContext(root),
		Reporter:         errors.NewReporter(),
		Builder:          builder,
		OnceTags:         make(map[string]bool),
		stringCache:      make(map[string]ir.Value),
		DNodePointerType: reg.Pointer(dnodeStruct),
	}
}

// NextTempName returns a fresh, session-unique temporary name, used for
// anonymous function literals, literal-construction-via-JIT scratch
// functions, and similar compiler-internal bindings.
func (s *Session) NextTempName(prefix string) string {
	s.tempSeq++
	return fmt.Sprintf("$%s%d", prefix, s.tempSeq)
}

// InternString returns the cached global for a string literal's contents
// within the current module, creating it on first use via the builder.
// The cache is keyed by ModuleName as well as contents so that re-entering
// a new module (a new Session.ModuleName) never reuses another module's
// private global (spec §5's "keyed by the current module" rule).
func (s *Session) InternString(contents string) ir.Value {
	key := s.ModuleName + "\x00" + contents
	if v, ok := s.stringCache[key]; ok {
		return v
	}
	name := s.NextTempName("str")
	v := s.Builder.GlobalString(name, contents)
	s.stringCache[key] = v
	return v
}

// RecordOnceTag marks tag as seen; HasOnceTag reports whether it already
// was. Forms whose once-tag has already been recorded are pruned from the
// namespace by the driver (spec §6's once-tag semantics).
func (s *Session) RecordOnceTag(tag string) { s.OnceTags[tag] = true }

// HasOnceTag reports whether tag has already been recorded, anywhere in the
// transitive import graph seen so far this session.
func (s *Session) HasOnceTag(tag string) bool { return s.OnceTags[tag] }

// RecordImport appends name to the imported-module list if not already
// present, returning false if it was already imported (a no-op re-import).
func (s *Session) RecordImport(name string) bool {
	for _, m := range s.ImportedModules {
		if m == name {
			return false
		}
	}
	s.ImportedModules = append(s.ImportedModules, name)
	return true
}
