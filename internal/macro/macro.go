package macro

import (
	"github.com/glyphlang/glyphc/internal/errors"
	"github.com/glyphlang/glyphc/internal/eval"
	"github.com/glyphlang/glyphc/internal/namespace"
	"github.com/glyphlang/glyphc/internal/node"
)

// linkageNames mirrors the linkage keyword spelling `def` already accepts
// for ordinary functions and variables (spec §4.9's LINKAGE slot in
// `(def NAME (macro LINKAGE (ARGS...) BODY...))`).
var linkageNames = map[string]namespace.Linkage{
	"intern": namespace.LinkageIntern, "extern": namespace.LinkageExtern, "extern-c": namespace.LinkageExternC,
}

// Declare implements the declaration half of spec §4.9: parse a macro's
// `(def NAME (macro LINKAGE (ARGS...) BODY...))` form and register it via
// eval.Evaluator.DeclareMacro. Used both by the driver (top-level macro
// defs) and by Evaluator.DeclareLocalMacro (macro defs nested in a
// function body).
func Declare(e *eval.Evaluator, name string, rest []*node.Node, span node.Span) *errors.CompileError {
	if len(rest) < 2 || !rest[1].IsList() {
		return errors.UnexpectedElementKind(span, "(macro LINKAGE (ARGS...) BODY...)", "wrong arity")
	}
	linkageNode := rest[0]
	if !linkageNode.IsToken() {
		return errors.FirstListElementMustBeAtom(span)
	}
	linkage, ok := linkageNames[linkageNode.Text]
	if !ok {
		return errors.InvalidAttribute(span, linkageNode.Text)
	}

	params, variadic, err := parseParamList(e, rest[1])
	if err != nil {
		return err
	}

	_, declErr := e.DeclareMacro(name, linkage, params, variadic, rest[2:], span)
	return declErr
}

// parseParamList parses a macro's `(ARGS...)` parameter list: `(void)` or
// an empty list means no user parameters; each remaining entry is either a
// bare symbol (untyped, resolves against pointer-to-DNode directly) or a
// `(NAME TYPE)` pair whose TYPE is only a syntactic hint for overload
// resolution (spec §4.9); a trailing `...` marks the macro variadic.
func parseParamList(e *eval.Evaluator, list *node.Node) ([]eval.MacroParamSpec, bool, *errors.CompileError) {
	children := list.Children
	if len(children) == 1 && children[0].IsToken() && children[0].Text == "void" {
		return nil, false, nil
	}
	var params []eval.MacroParamSpec
	variadic := false
	for i, c := range children {
		if c.IsToken() && c.Text == "..." {
			if i != len(children)-1 {
				return nil, false, errors.UnexpectedElementKind(list.Span, "... as the final parameter", "... in a non-final position")
			}
			variadic = true
			continue
		}
		if c.IsToken() {
			params = append(params, eval.MacroParamSpec{Name: c.Text})
			continue
		}
		if !c.IsList() || len(c.Children) != 2 || !c.Children[0].IsToken() {
			return nil, false, errors.UnexpectedElementKind(list.Span, "NAME or (NAME TYPE)", "malformed macro parameter")
		}
		t, err := e.ParseType(c.Children[1])
		if err != nil {
			return nil, false, err
		}
		params = append(params, eval.MacroParamSpec{Name: c.Children[0].Text, SyntacticType: t})
	}
	return params, variadic, nil
}
