// Package eval implements the form evaluator (component 2.6) and the
// definition forms (component 2.7): the recursive function that maps a
// node plus an expected type and "wanted address" flag to a typed IR
// value, and the `def`/`fn`/`struct`/`enum`/`var` forms that bind names
// into the namespace tree. The two components are one Go package because
// `def`'s initializer evaluation and the evaluator's own "def" core-form
// dispatch are mutually recursive; splitting them would only add an
// import cycle, not a real boundary.
//
// The macro engine (component 2.8) is a collaborator reached through the
// Evaluator.ExpandMacro callback rather than a direct import, so this
// package never depends on internal/macro — matching spec's Design Notes
// §9 "NeedMacroExpansion" outcome, expressed here as a callback the driver
// wires at construction time instead of as an enum variant threaded by
// hand through every caller.
package eval

import (
	"github.com/glyphlang/glyphc/internal/errors"
	"github.com/glyphlang/glyphc/internal/ir"
	"github.com/glyphlang/glyphc/internal/lifetime"
	"github.com/glyphlang/glyphc/internal/namespace"
	"github.com/glyphlang/glyphc/internal/node"
	"github.com/glyphlang/glyphc/internal/session"
	"github.com/glyphlang/glyphc/internal/types"
)

// ParseResult is the evaluator's output (spec §3): the block IR ended up
// in (forms like `if` can change it), the resulting type, the SSA value
// (or address, when a "get address" request was honored), an optional
// in-place return-value pointer, and the copy/destroy policy flags.
type ParseResult struct {
	Block ir.Block
	Type  *types.Type
	Value ir.Value

	// RetvalPtr/RetvalUsed implement the in-place return-value protocol:
	// when an expression (typically a function call returning a struct)
	// has already initialized storage that the caller can adopt directly
	// instead of copying, RetvalUsed is true and RetvalPtr names it.
	RetvalPtr  ir.Value
	RetvalUsed bool

	DoNotDestruct     bool
	DoNotCopyWithSetf bool
	FreshlyCopied     bool
}

// FuncState is the per-function-body compilation state threaded through
// Evaluate: which namespace.Function is being compiled (for goto/label
// bookkeeping owned by it), its backend handle, and whether the body being
// compiled is itself a `setf-*` override (which must not recursively
// invoke copy-with-setf on its own results, spec §4.6).
type FuncState struct {
	Fn       *namespace.Function
	Handle   ir.Function
	InSetfFn bool

	// BodyNamespace is the anonymous namespace activated for this
	// function's top-level body, the boundary `return` closes scopes up
	// to (inclusive).
	BodyNamespace *namespace.Namespace

	// VariadicBase, when HasVariadicBase is set, is the base pointer of
	// the trailing DNode arguments a macro body was invoked with; the
	// `get-dnodes` core form reads it.
	VariadicBase    ir.Value
	HasVariadicBase bool
}

// Evaluator is the form evaluator. It holds the session (type registry,
// namespace/context, reporter, IR builder) and the lifetime manager, plus
// two collaborator callbacks wired by the driver: ExpandMacro (component
// 2.8) and DeclareLocalMacro (for the rare `(def NAME (macro ...))` inside
// a function body — top-level macro defs are handled by the driver
// directly and never reach this callback).
type Evaluator struct {
	Sess     *session.Session
	Lifetime *lifetime.Manager

	ExpandMacro func(fs *FuncState, fn *namespace.Function, call *node.Node) (*node.Node, *errors.CompileError)

	// DeclareLocalMacro handles `(def NAME (macro ...))` reached from
	// inside a function body. Top-level macro defs never reach this
	// callback; the driver parses and registers those directly against
	// internal/macro without going through Evaluate at all.
	DeclareLocalMacro func(fs *FuncState, name string, rest []*node.Node, span node.Span) *errors.CompileError
}

// New constructs an Evaluator over sess, with a lifetime.Manager built
// from the session's context and builder.
func New(sess *session.Session) *Evaluator {
	return &Evaluator{Sess: sess, Lifetime: lifetime.New(sess.Ctx, sess.Builder)}
}

// coreForms is the set of names dispatched directly by the evaluator
// (spec §4.6) rather than through overload/macro resolution. A user macro
// with one of these names is never invoked: both the bare name and the
// `core`-prefixed form dispatch straight to the core form.
var coreForms = map[string]bool{
	"goto": true, "label": true, "return": true, "setf": true,
	"@": true, ":": true, "#": true, "$": true,
	"p=": true, "p+": true, "p-": true, "p<": true, "p>": true,
	"va-arg": true, "va-start": true, "va-end": true,
	"null": true, "nullptr": true, "get-dnodes": true,
	"def": true, "if": true, "do": true, "cast": true,
	"sizeof": true, "offsetof": true, "alignmentof": true,
	"funcall": true, "using-namespace": true, "new-scope": true,
	"array-of": true,
}

// coreMacroSugar maps a syntactic-sugar core macro name to the form it
// expands to inline (spec §4.6): `setv` -> `setf` with `#`, `@$` ->
// `@ ($ ...)`, `:@` -> `: (@ ...)`, `@:` -> `@ (: ...)`, `@:@` ->
// `@ (: (@ ...) ...)`.
var coreMacroSugar = map[string]bool{
	"setv": true, "@$": true, ":@": true, "@:": true, "@:@": true,
}

// Evaluate is the form evaluator's entry point (spec §4.6).
func (e *Evaluator) Evaluate(fs *FuncState, block ir.Block, n *node.Node, wantAddress bool, wantedType *types.Type) (*ParseResult, *errors.CompileError) {
	if n == nil {
		return nil, errors.New(errors.CategoryParsing, errors.KindEmptyList, node.Span{}, "cannot evaluate a nil node")
	}
	if n.IsToken() {
		return e.evaluateToken(fs, block, n, wantAddress, wantedType)
	}
	return e.evaluateList(fs, block, n, wantAddress, wantedType)
}

func (e *Evaluator) evaluateToken(fs *FuncState, block ir.Block, n *node.Node, wantAddress bool, wantedType *types.Type) (*ParseResult, *errors.CompileError) {
	reg := e.Sess.Types
	switch n.TokenKind {
	case node.TokenInt:
		return e.evaluateIntLiteral(block, n, wantedType)
	case node.TokenFloat:
		return e.evaluateFloatLiteral(block, n, wantedType)
	case node.TokenChar:
		return e.evaluateCharLiteral(block, n)
	case node.TokenString:
		return e.evaluateStringLiteral(block, n)
	case node.TokenSymbol:
		switch n.Text {
		case "true":
			return &ParseResult{Block: block, Type: reg.Basic(types.Bool), Value: e.Sess.Builder.ConstBool(true), DoNotDestruct: true}, nil
		case "false":
			return &ParseResult{Block: block, Type: reg.Basic(types.Bool), Value: e.Sess.Builder.ConstBool(false), DoNotDestruct: true}, nil
		default:
			return e.evaluateIdentifier(fs, block, n, wantAddress)
		}
	default:
		return nil, errors.UnexpectedElementKind(n.Span, "token", n.TokenKind.String())
	}
}
