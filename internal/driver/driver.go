// Package driver implements the top-level driver (component 2.10): the
// one piece of spec.md that owns process-wide state end to end. It wires
// a session.Session, an eval.Evaluator, and a macro.Engine together, walks
// a file's top-level forms (spec §6's file grammar), and is the only
// package that knows how to turn a `(def NAME (var ...))` at module scope
// into a global with real storage, how `.dtm` module files are produced
// and consumed, and how `import`/`include`/`once` resolve against a
// search path.
//
// Everything below this package (node, types, namespace, ir, eval, macro,
// lifetime) is reusable independently of any particular file format or
// CLI; the driver is where those reusable pieces become "a compiler you
// can point at a file".
package driver

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/glyphlang/glyphc/internal/errors"
	"github.com/glyphlang/glyphc/internal/eval"
	"github.com/glyphlang/glyphc/internal/ir"
	"github.com/glyphlang/glyphc/internal/macro"
	"github.com/glyphlang/glyphc/internal/namespace"
	"github.com/glyphlang/glyphc/internal/node"
	"github.com/glyphlang/glyphc/internal/reader"
	"github.com/glyphlang/glyphc/internal/session"
)

// Driver is the top-level compilation driver for one process: it holds
// the single Session (and therefore the single namespace tree, type
// registry, and IR module) that every compiled or imported module
// contributes to, per spec §5's "process-wide registries owned by the
// compilation driver".
type Driver struct {
	Sess *session.Session
	Eval *eval.Evaluator
	Macro *macro.Engine

	// SearchPaths are additional `-I` import directories consulted after
	// the current directory and before the install-time default (spec
	// §6's import resolution order).
	SearchPaths []string
	// DefaultModuleDir is the install-time default import directory, the
	// last place import resolution looks.
	DefaultModuleDir string

	// jitSeq names the temporary/wrapper functions the literal-
	// construction-via-JIT protocol creates (spec §4.11), distinct from
	// Session.NextTempName's counter so a driver restarted mid-module
	// cannot collide with a name the evaluator already minted.
	jitSeq int

	// suppressRestOfFile implements `(once TAG)`'s pruning half (spec
	// §6): once a once-tag already recorded elsewhere in the import graph
	// is seen again, every remaining top-level form in the current
	// CompileForms call is skipped. It is saved and restored around each
	// CompileForms invocation so a nested `include` is scoped to its own
	// file rather than leaking suppression into or out of its caller.
	suppressRestOfFile bool
}

// New constructs a Driver with a fresh Session over builder, wiring the
// evaluator's macro-shaped callback fields to a real macro.Engine exactly
// the way DESIGN.md's macro package doc says a driver must.
func New(builder ir.Builder) *Driver {
	sess := session.New(builder)
	e := eval.New(sess)
	eng := macro.New(e)
	return &Driver{Sess: sess, Eval: e, Macro: eng}
}

// CompileSource lexes, parses, and compiles src as a single file under
// displayName (used only for diagnostics — spec's driver is not itself
// responsible for naming the module; that comes from the source's own
// `(module NAME ...)` form). It returns the reporter's accumulated errors;
// a non-empty result does not mean compilation produced no IR for the
// forms that did succeed (spec §7: "errors are appended to a process-wide
// reporter... on failure the caller does not emit IR" for that one form
// only).
func (d *Driver) CompileSource(displayName, src string) []*errors.CompileError {
	forms, lexErrs := reader.Parse(src)
	for _, msg := range lexErrs {
		d.Sess.Reporter.Report(errors.LexicalError(node.Span{}, msg))
	}
	d.CompileForms(forms)
	return d.Sess.Reporter.Errors()
}

// CompileFile reads path and compiles it via CompileSource.
func (d *Driver) CompileFile(path string) []*errors.CompileError {
	data, err := os.ReadFile(path)
	if err != nil {
		d.Sess.Reporter.Report(errors.New(errors.CategoryLinkage, errors.KindCannotLinkModules, node.Span{},
			"cannot read %s: %v", path, err))
		return d.Sess.Reporter.Errors()
	}
	return d.CompileSource(filepath.Base(path), string(data))
}

// CompileForms processes every top-level form in source order (spec §5's
// ordering guarantee), handling and reporting errors per form rather than
// aborting the whole file on the first one — the reporter, not a returned
// error, is the record of what went wrong.
func (d *Driver) CompileForms(forms []*node.Node) {
	saved := d.suppressRestOfFile
	d.suppressRestOfFile = false
	for _, f := range forms {
		if d.suppressRestOfFile {
			break
		}
		d.processTopLevel(f)
	}
	d.suppressRestOfFile = saved
}

// resolveImportPath implements spec §6's import resolution order: current
// directory, then each `-I` search path, then the install-time default.
// name is the bare module name (no extension); the file looked for is
// name + ".gly".
func (d *Driver) resolveImportPath(name string) (string, bool) {
	candidate := name + ".gly"
	if _, err := os.Stat(candidate); err == nil {
		return candidate, true
	}
	for _, dir := range d.SearchPaths {
		p := filepath.Join(dir, candidate)
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	if d.DefaultModuleDir != "" {
		p := filepath.Join(d.DefaultModuleDir, candidate)
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	return "", false
}

// nextJITName mints a unique name for a literal-construction-via-JIT
// temporary/wrapper function (spec §4.11 steps 1-2), distinct from the
// evaluator's own NextTempName sequence.
func (d *Driver) nextJITName(prefix string) string {
	d.jitSeq++
	return fmt.Sprintf("$%s%d", prefix, d.jitSeq)
}

// activeNamespace is a small convenience wrapper so toplevel.go and
// literalinit.go read naturally: both only ever care about "the namespace
// a top-level def binds into right now", never the full active/used
// stack Context also tracks.
func (d *Driver) activeNamespace() *namespace.Namespace {
	return d.Sess.Ctx.Current()
}
