package driver

import (
	"regexp"

	"github.com/glyphlang/glyphc/internal/errors"
	"github.com/glyphlang/glyphc/internal/macro"
	"github.com/glyphlang/glyphc/internal/namespace"
	"github.com/glyphlang/glyphc/internal/node"
)

// moduleNamePattern is spec §6's module-name grammar.
var moduleNamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// processTopLevel dispatches one of spec §6's file-grammar forms:
// `(module NAME [attrs])`, `(import NAME [(form-list)])`,
// `(include "PATH")`, `(once TAG)`, `(namespace NAME FORMS…)`,
// `(using-namespace NAME FORMS…)`, `(def NAME (KIND …))`, `(do FORMS…)`.
// Anything else is reported and skipped — a single malformed top-level
// form never aborts the rest of the file (spec §5: forms are processed in
// source order, each form's own failure does not stop the next).
func (d *Driver) processTopLevel(n *node.Node) {
	if !n.IsList() || len(n.Children) == 0 {
		d.Sess.Reporter.Report(errors.EmptyList(n.Span))
		return
	}
	head := n.Children[0]
	if !head.IsToken() {
		d.Sess.Reporter.Report(errors.FirstListElementMustBeAtom(n.Span))
		return
	}
	rest := n.Tail()

	switch head.Text {
	case "module":
		d.processModule(rest, n.Span)
	case "import":
		d.processImport(rest, n.Span)
	case "include":
		d.processInclude(rest, n.Span)
	case "once":
		d.processOnce(rest, n.Span)
	case "namespace":
		d.processNamespace(rest, n.Span)
	case "using-namespace":
		d.processUsingNamespace(rest, n.Span)
	case "def":
		d.processDef(rest, n.Span)
	case "do":
		for _, child := range rest {
			d.processTopLevel(child)
		}
	default:
		d.Sess.Reporter.Report(errors.UnexpectedElementKind(n.Span, "a top-level form", head.Text))
	}
}

// processModule handles `(module NAME [(attr cto)])`.
func (d *Driver) processModule(rest []*node.Node, span node.Span) {
	if len(rest) == 0 || !rest[0].IsToken() {
		d.Sess.Reporter.Report(errors.UnexpectedElementKind(span, "(module NAME [attrs])", "missing module name"))
		return
	}
	name := rest[0].Text
	if !moduleNamePattern.MatchString(name) {
		d.Sess.Reporter.Report(errors.InvalidModuleName(span, name))
		return
	}
	d.Sess.ModuleName = name
	for _, attr := range rest[1:] {
		if attr.IsList() && len(attr.Children) == 2 && attr.Children[0].IsToken() && attr.Children[0].Text == "attr" && attr.Children[1].IsToken() {
			switch attr.Children[1].Text {
			case "cto":
				d.Sess.IsCTO = true
			default:
				d.Sess.Reporter.Report(errors.InvalidAttribute(span, attr.Children[1].Text))
			}
			continue
		}
		d.Sess.Reporter.Report(errors.UnexpectedElementKind(span, "(attr NAME)", "malformed module attribute"))
	}
}

// processImport handles `(import NAME [(form-list)])`: resolve NAME to a
// `.dtm` file along the search path (spec §6), load it, and merge its
// extern namespace contents into the root namespace. An optional
// form-list restricts the merge to only the names listed, failing
// *ModuleDoesNotProvideForms* for anything the target does not export.
func (d *Driver) processImport(rest []*node.Node, span node.Span) {
	if len(rest) == 0 || !rest[0].IsToken() {
		d.Sess.Reporter.Report(errors.UnexpectedElementKind(span, "(import NAME [(form-list)])", "missing module name"))
		return
	}
	name := rest[0].Text
	if !d.Sess.RecordImport(name) {
		return // already imported this session; no-op re-import
	}

	path, ok := d.resolveImportPath(dtmPathFor(name))
	if !ok {
		d.Sess.Reporter.Report(errors.CannotLinkModules(span, "cannot resolve import '"+name+"'"))
		return
	}
	mod, err := LoadDTM(path)
	if err != nil {
		d.Sess.Reporter.Report(errors.CannotLinkModules(span, err.Error()))
		return
	}
	for _, tag := range mod.OnceTags {
		d.Sess.RecordOnceTag(tag)
	}

	imported := mod.toNamespace(d)
	if len(rest) > 1 && rest[1].IsList() {
		var wanted []string
		for _, w := range rest[1].Children {
			if w.IsToken() {
				wanted = append(wanted, w.Text)
			}
		}
		missing := filterTo(imported, wanted)
		if len(missing) > 0 {
			d.Sess.Reporter.Report(errors.ModuleDoesNotProvideForms(span, name, missing))
			return
		}
	}
	if mergeErr := d.Sess.Root.Merge(imported); mergeErr != nil {
		d.Sess.Reporter.Report(mergeErr)
	}
}

// processInclude handles `(include "PATH")`: read and compile another
// Glyph source file inline, as if its forms appeared in place of the
// include form (textual inclusion, distinct from `import`'s compiled-
// module merge).
func (d *Driver) processInclude(rest []*node.Node, span node.Span) {
	if len(rest) != 1 || !rest[0].IsToken() {
		d.Sess.Reporter.Report(errors.UnexpectedElementKind(span, `(include "PATH")`, "wrong arity"))
		return
	}
	path := rest[0].Text
	if errs := d.CompileFile(path); len(errs) > 0 {
		// CompileFile already reported through the shared Reporter; the
		// caller inspects the reporter, not a return value (spec §7).
		_ = errs
	}
}

// processOnce handles `(once TAG)`: a textual include guard. If tag was
// already recorded anywhere in the transitive import/include graph seen
// so far this session (DESIGN.md's Open Question (c): union across
// re-import chains), every remaining top-level form in the file currently
// being processed is pruned; otherwise the tag is recorded so a later
// re-inclusion of the same file is pruned instead.
func (d *Driver) processOnce(rest []*node.Node, span node.Span) {
	if len(rest) != 1 || !rest[0].IsToken() {
		d.Sess.Reporter.Report(errors.UnexpectedElementKind(span, "(once TAG)", "wrong arity"))
		return
	}
	tag := rest[0].Text
	if d.Sess.HasOnceTag(tag) {
		d.suppressRestOfFile = true
		return
	}
	d.Sess.RecordOnceTag(tag)
}

// processNamespace handles `(namespace NAME FORMS…)`: activate (creating
// if absent) the named child of the current namespace, process every
// nested form against it, then deactivate.
func (d *Driver) processNamespace(rest []*node.Node, span node.Span) {
	if len(rest) == 0 || !rest[0].IsToken() {
		d.Sess.Reporter.Report(errors.UnexpectedElementKind(span, "(namespace NAME FORMS...)", "missing name"))
		return
	}
	d.Sess.Ctx.ActivateNamespace(rest[0].Text)
	for _, f := range rest[1:] {
		d.processTopLevel(f)
	}
	d.Sess.Ctx.DeactivateNamespace()
}

// processUsingNamespace handles `(using-namespace NAME FORMS…)`: bring
// NAME's bindings into unqualified lookup for the duration of FORMS.
func (d *Driver) processUsingNamespace(rest []*node.Node, span node.Span) {
	if len(rest) == 0 || !rest[0].IsToken() {
		d.Sess.Reporter.Report(errors.UnexpectedElementKind(span, "(using-namespace NAME FORMS...)", "missing name"))
		return
	}
	ns := d.Sess.Ctx.Current().Child(rest[0].Text)
	d.Sess.Ctx.UseNamespace(ns)
	for _, f := range rest[1:] {
		d.processTopLevel(f)
	}
	d.Sess.Ctx.UnuseNamespace()
}

// processDef handles `(def NAME (fn|var|const|struct|enum|macro ...))` at
// module scope. fn/struct/enum/macro delegate straight to the evaluator's
// exported top-level entry points (internal/eval/topdef.go); var/const are
// handled here directly because a module-scope variable needs global
// storage and linkage, which internal/eval's defVar (Alloca-only, for
// function locals) does not provide.
func (d *Driver) processDef(rest []*node.Node, span node.Span) {
	if len(rest) != 2 || !rest[0].IsToken() || !rest[1].IsList() || len(rest[1].Children) == 0 {
		d.Sess.Reporter.Report(errors.UnexpectedElementKind(span, "(def NAME (KIND ...))", "wrong arity"))
		return
	}
	name := rest[0].Text
	spec := rest[1]
	kindNode := spec.Children[0]
	if !kindNode.IsToken() {
		d.Sess.Reporter.Report(errors.FirstListElementMustBeAtom(span))
		return
	}
	kindRest := spec.Children[1:]

	switch kindNode.Text {
	case "var":
		d.processTopLevelVar(name, kindRest, span, false)
	case "const":
		d.processTopLevelVar(name, kindRest, span, true)
	case "fn":
		if err := d.Eval.DefFn(name, kindRest, span); err != nil {
			d.Sess.Reporter.Report(err)
		}
	case "struct":
		fields := kindRest
		linkage := namespace.LinkageIntern
		if len(fields) > 0 && fields[0].IsToken() {
			if lk, ok := namespace.ParseLinkage(fields[0].Text); ok {
				linkage = lk
				fields = fields[1:]
			}
		}
		if len(fields) != 1 || !fields[0].IsList() {
			d.Sess.Reporter.Report(errors.UnexpectedElementKind(span, "(struct [LINKAGE] (FIELD TYPE)...)", "malformed struct body"))
			return
		}
		mustInit := false
		if _, err := d.Eval.DeclareStruct(span, name, fields[0], mustInit, linkage == namespace.LinkageExternC); err != nil {
			d.Sess.Reporter.Report(err)
		}
	case "enum":
		enumRest := kindRest
		if len(enumRest) > 0 && enumRest[0].IsToken() {
			if _, ok := namespace.ParseLinkage(enumRest[0].Text); ok {
				enumRest = enumRest[1:]
			}
		}
		if err := d.Eval.DefEnum(name, enumRest, span); err != nil {
			d.Sess.Reporter.Report(err)
		}
	case "macro":
		if err := macro.Declare(d.Eval, name, kindRest, span); err != nil {
			d.Sess.Reporter.Report(err)
		}
	default:
		d.Sess.Reporter.Report(errors.New(errors.CategoryParsing, errors.KindUnexpectedElementKind, span,
			"unrecognized def kind '%s'", kindNode.Text))
	}
}
