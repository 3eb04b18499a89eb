// Package errors implements the compiler's error catalog and the
// process-wide Reporter described in spec §7. Every user-visible error
// carries a Category (spec's error-category table), a formatted message,
// and a source Span; the Reporter accumulates them so that speculative
// evaluation (overload probing, macro-argument discovery) can snapshot an
// error count and roll back to it on failure.
package errors

import (
	"fmt"
	"strings"

	"github.com/glyphlang/glyphc/internal/node"
)

// Category groups errors the way spec §7's table does.
type Category string

const (
	CategoryLexical       Category = "Lexical"
	CategoryParsing       Category = "Parsing"
	CategoryNaming        Category = "Naming"
	CategoryTyping        Category = "Typing"
	CategoryOverloading   Category = "Overloading"
	CategoryInitializaton Category = "Initialization"
	CategoryStructure     Category = "Structure"
	CategoryFlow          Category = "Flow"
	CategoryLinkage       Category = "Linkage"
	CategoryMacros        Category = "Macros"
)

// Kind names the specific error within a Category, for programmatic
// dispatch (e.g. distinguishing OverloadedFunctionOrMacroNotInScope from
// every other error, per spec §7's propagation policy).
type Kind string

const (
	KindNotInScope                          Kind = "NotInScope"
	KindVariableNotInScope                  Kind = "VariableNotInScope"
	KindRedefinitionOfVariable              Kind = "RedefinitionOfVariable"
	KindRedeclaration                       Kind = "Redeclaration"
	KindIncorrectType                       Kind = "IncorrectType"
	KindTypeNotInScope                      Kind = "TypeNotInScope"
	KindEnumMustBeInteger                   Kind = "EnumMustBeInteger"
	KindBitfieldMustHaveIntegerType         Kind = "BitfieldMustHaveIntegerType"
	KindArrayReturnTypeForbidden            Kind = "ArrayReturnTypeForbidden"
	KindOverloadedFunctionOrMacroNotInScope Kind = "OverloadedFunctionOrMacroNotInScope"
	KindOverloadedNotInScopeWithClosest     Kind = "OverloadedFunctionOrMacroNotInScopeWithClosest"
	KindMustHaveInitialiserForType          Kind = "MustHaveInitialiserForType"
	KindMustHaveInitialiserForConstType     Kind = "MustHaveInitialiserForConstType"
	KindMustHaveInitialiserForImpliedType   Kind = "MustHaveInitialiserForImpliedType"
	KindFieldDoesNotExistInStruct           Kind = "FieldDoesNotExistInStruct"
	KindTypeNotAllowedInStruct              Kind = "TypeNotAllowedInStruct"
	KindStructContainsPadding               Kind = "StructContainsPadding"
	KindNonNullPointerInGlobalStruct        Kind = "NonNullPointerInGlobalStructDeclaration"
	KindGotoWillCrossDeclaration            Kind = "GotoWillCrossDeclaration"
	KindLabelNotInScope                     Kind = "LabelNotInScope"
	KindCannotOnceLastOpenFile              Kind = "CannotOnceTheLastOpenFile"
	KindInvalidAttribute                    Kind = "InvalidAttribute"
	KindInvalidModuleName                   Kind = "InvalidModuleName"
	KindCannotLinkModules                   Kind = "CannotLinkModules"
	KindModuleDoesNotProvideForms           Kind = "ModuleDoesNotProvideForms"
	KindNoCoreFormNameInMacro               Kind = "NoCoreFormNameInMacro"
	KindCoreFormCannotBeOverridden          Kind = "ThisCoreFormCannotBeOverridden"
	KindDNodeHasNoString                    Kind = "DNodeHasNoString"
	KindFunctionHasSameParamsAsMacro        Kind = "FunctionHasSameParamsAsMacro"
	KindMacroHasSameParamsAsFunction        Kind = "MacroHasSameParamsAsFunction"
	KindFirstListElementMustBeAtom          Kind = "FirstListElementMustBeAtom"
	KindEmptyList                           Kind = "EmptyList"
	KindUnexpectedElementKind               Kind = "UnexpectedElementKind"
	KindInvalidIntegerLiteral               Kind = "InvalidIntegerLiteral"
	KindInvalidFloatLiteral                 Kind = "InvalidFloatLiteral"
	KindMacroExpansionFailed                Kind = "MacroExpansionFailed"
	KindMacroArityMismatch                  Kind = "MacroArityMismatch"
	KindLexicalError                        Kind = "LexicalError"
	KindLiteralConstructionFailed            Kind = "LiteralConstructionFailed"
)

// ClosestMatch records the best-effort overload candidate reported
// alongside KindOverloadedNotInScopeWithClosest.
type ClosestMatch struct {
	Name      string
	Signature string
}

// CompileError is a single compile error: category, kind, formatted
// message, the source span it applies to, and an optional closest-overload
// hint.
type CompileError struct {
	Category Category
	Kind     Kind
	Message  string
	Span     node.Span
	Closest  *ClosestMatch
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s error: %s",
		"", e.Span.Start.Line, e.Span.Start.Column, e.Category, e.Message)
}

// New constructs a CompileError for the given category/kind/span, formatting
// Message from format+args like fmt.Errorf.
func New(category Category, kind Kind, span node.Span, format string, args ...any) *CompileError {
	return &CompileError{Category: category, Kind: kind, Span: span, Message: fmt.Sprintf(format, args...)}
}

// NotInScope builds the Naming/NotInScope error.
func NotInScope(span node.Span, name string) *CompileError {
	return New(CategoryNaming, KindNotInScope, span, "'%s' is not in scope", name)
}

// VariableNotInScope builds the Naming/VariableNotInScope error.
func VariableNotInScope(span node.Span, name string) *CompileError {
	return New(CategoryNaming, KindVariableNotInScope, span, "variable '%s' is not in scope", name)
}

// RedefinitionOfVariable builds the Naming/RedefinitionOfVariable error.
func RedefinitionOfVariable(span node.Span, name string) *CompileError {
	return New(CategoryNaming, KindRedefinitionOfVariable, span, "redefinition of variable '%s'", name)
}

// Redeclaration builds a Naming/Redeclaration error for functions, macros,
// structs, or enums.
func Redeclaration(span node.Span, kind, name string) *CompileError {
	return New(CategoryNaming, KindRedeclaration, span, "redeclaration of %s '%s'", kind, name)
}

// FunctionHasSameParamsAsMacro is raised when a non-macro function would be
// added to an overload set whose implicit-first-argument-adjusted
// parameter types already match a macro.
func FunctionHasSameParamsAsMacro(span node.Span, name string) *CompileError {
	return New(CategoryNaming, KindFunctionHasSameParamsAsMacro, span,
		"function '%s' has the same parameter types as an existing macro", name)
}

// MacroHasSameParamsAsFunction is the symmetric error when adding a macro.
func MacroHasSameParamsAsFunction(span node.Span, name string) *CompileError {
	return New(CategoryNaming, KindMacroHasSameParamsAsFunction, span,
		"macro '%s' has the same parameter types as an existing function", name)
}

// MustHaveInitialiserForType builds the Initialization error for a
// must-init struct declared without an initializer and no init overload.
func MustHaveInitialiserForType(span node.Span, typeName string) *CompileError {
	return New(CategoryInitializaton, KindMustHaveInitialiserForType, span,
		"must have initialiser for type '%s'", typeName)
}

// MustHaveInitialiserForConstType builds the equivalent error for a const
// declaration with no initializer and no init overload.
func MustHaveInitialiserForConstType(span node.Span, typeName string) *CompileError {
	return New(CategoryInitializaton, KindMustHaveInitialiserForConstType, span,
		"must have initialiser for const type '%s'", typeName)
}

// GotoWillCrossDeclaration builds the Flow error pointing at the offending
// goto.
func GotoWillCrossDeclaration(span node.Span, label string) *CompileError {
	return New(CategoryFlow, KindGotoWillCrossDeclaration, span,
		"goto '%s' will cross a variable declaration", label)
}

// IncorrectType builds the Typing error raised when an expression's type
// does not match what the surrounding form requires.
func IncorrectType(span node.Span, want, got string) *CompileError {
	return New(CategoryTyping, KindIncorrectType, span, "incorrect type: want '%s', got '%s'", want, got)
}

// TypeNotInScope builds the Typing error for a type name that does not
// resolve to any basic type, struct, or enum.
func TypeNotInScope(span node.Span, name string) *CompileError {
	return New(CategoryTyping, KindTypeNotInScope, span, "type '%s' is not in scope", name)
}

// EnumMustBeInteger builds the Typing error for an enum declared over a
// non-integer underlying type.
func EnumMustBeInteger(span node.Span, name string) *CompileError {
	return New(CategoryTyping, KindEnumMustBeInteger, span, "enum '%s' must have an integer underlying type", name)
}

// BitfieldMustHaveIntegerType builds the Typing error for a bitfield whose
// base type is not an integer.
func BitfieldMustHaveIntegerType(span node.Span) *CompileError {
	return New(CategoryTyping, KindBitfieldMustHaveIntegerType, span, "bitfield must have an integer type")
}

// ArrayReturnTypeForbidden builds the Typing error for a function declared
// to return an array type by value.
func ArrayReturnTypeForbidden(span node.Span) *CompileError {
	return New(CategoryTyping, KindArrayReturnTypeForbidden, span, "a function may not return an array type")
}

// MustHaveInitialiserForImpliedType builds the Initialization error for a
// `\` (infer-from-initializer) declaration with no initializer.
func MustHaveInitialiserForImpliedType(span node.Span, name string) *CompileError {
	return New(CategoryInitializaton, KindMustHaveInitialiserForImpliedType, span,
		"variable '%s' with implied type must have an initialiser", name)
}

// FieldDoesNotExistInStruct builds the Structure error for a `:` (field
// select) or struct-literal reference to an unknown field.
func FieldDoesNotExistInStruct(span node.Span, field, structName string) *CompileError {
	return New(CategoryStructure, KindFieldDoesNotExistInStruct, span,
		"field '%s' does not exist in struct '%s'", field, structName)
}

// TypeNotAllowedInStruct builds the Structure error for a struct field
// whose declared type cannot legally appear inside a struct (e.g. void,
// function-by-value).
func TypeNotAllowedInStruct(span node.Span, typeName string) *CompileError {
	return New(CategoryStructure, KindTypeNotAllowedInStruct, span,
		"type '%s' is not allowed inside a struct", typeName)
}

// StructContainsPadding builds the Structure error raised by literal
// construction via JIT (spec §4.11) when a struct's layout has padding
// bytes that cannot be decoded back into a constant.
func StructContainsPadding(span node.Span, structName string) *CompileError {
	return New(CategoryStructure, KindStructContainsPadding, span,
		"struct '%s' contains padding and cannot be used as a global initializer", structName)
}

// NonNullPointerInGlobalStruct builds the Structure error for a global
// struct initializer whose decoded bytes contain a non-null pointer field.
func NonNullPointerInGlobalStruct(span node.Span, field string) *CompileError {
	return New(CategoryStructure, KindNonNullPointerInGlobalStruct, span,
		"field '%s' is a non-null pointer in a global struct declaration", field)
}

// LabelNotInScope builds the Flow error for a `goto` to an unknown label.
func LabelNotInScope(span node.Span, label string) *CompileError {
	return New(CategoryFlow, KindLabelNotInScope, span, "label '%s' is not in scope", label)
}

// CannotOnceLastOpenFile builds the Flow error for a `(once TAG)` form
// appearing outside of any currently-open file.
func CannotOnceLastOpenFile(span node.Span) *CompileError {
	return New(CategoryFlow, KindCannotOnceLastOpenFile, span, "cannot once the last open file")
}

// InvalidAttribute builds the Linkage error for an unrecognized `(attr ...)`.
func InvalidAttribute(span node.Span, name string) *CompileError {
	return New(CategoryLinkage, KindInvalidAttribute, span, "invalid attribute '%s'", name)
}

// InvalidModuleName builds the Linkage error for a module name that does
// not match `[A-Za-z0-9_.-]+`.
func InvalidModuleName(span node.Span, name string) *CompileError {
	return New(CategoryLinkage, KindInvalidModuleName, span, "invalid module name '%s'", name)
}

// CannotLinkModules builds the Linkage error for an IR-level link failure
// between two modules.
func CannotLinkModules(span node.Span, reason string) *CompileError {
	return New(CategoryLinkage, KindCannotLinkModules, span, "cannot link modules: %s", reason)
}

// ModuleDoesNotProvideForms builds the Linkage error for an `import` whose
// requested form list names something the target module does not export.
func ModuleDoesNotProvideForms(span node.Span, module string, names []string) *CompileError {
	return New(CategoryLinkage, KindModuleDoesNotProvideForms, span,
		"module '%s' does not provide: %s", module, strings.Join(names, ", "))
}

// NoCoreFormNameInMacro builds the Macros error for a `core` prefix applied
// to a name that is not a recognized core form.
func NoCoreFormNameInMacro(span node.Span, name string) *CompileError {
	return New(CategoryMacros, KindNoCoreFormNameInMacro, span, "'%s' is not a core form name", name)
}

// CoreFormCannotBeOverridden builds the Macros error for a user macro that
// attempts to shadow a core form without the `core` escape.
func CoreFormCannotBeOverridden(span node.Span, name string) *CompileError {
	return New(CategoryMacros, KindCoreFormCannotBeOverridden, span, "core form '%s' cannot be overridden", name)
}

// DNodeHasNoString builds the Macros error for a macro-side accessor that
// asks a list-kind DNode for its token text.
func DNodeHasNoString(span node.Span) *CompileError {
	return New(CategoryMacros, KindDNodeHasNoString, span, "dnode has no string")
}

// MacroExpansionFailed builds the Macros error for a macro whose body
// could not be JIT-compiled, or whose compiled body's FFI call failed.
func MacroExpansionFailed(span node.Span, name string, cause error) *CompileError {
	return New(CategoryMacros, KindMacroExpansionFailed, span, "macro '%s' expansion failed: %v", name, cause)
}

// MacroArityMismatch builds the Macros error for a macro call whose
// argument count does not satisfy the macro's declared arity.
func MacroArityMismatch(span node.Span, name string, want int, variadic bool, got int) *CompileError {
	if variadic {
		return New(CategoryMacros, KindMacroArityMismatch, span,
			"macro '%s' expects at least %d arguments, got %d", name, want, got)
	}
	return New(CategoryMacros, KindMacroArityMismatch, span,
		"macro '%s' expects exactly %d arguments, got %d", name, want, got)
}

// FirstListElementMustBeAtom builds the Parsing error for a list form whose
// head is itself a list (other forms, e.g. a computed-callee funcall,
// handle this case explicitly rather than going through this error).
func FirstListElementMustBeAtom(span node.Span) *CompileError {
	return New(CategoryParsing, KindFirstListElementMustBeAtom, span, "first list element must be an atom")
}

// EmptyList builds the Parsing error for `()` in a position requiring a
// form.
func EmptyList(span node.Span) *CompileError {
	return New(CategoryParsing, KindEmptyList, span, "unexpected empty list")
}

// UnexpectedElementKind builds the Parsing error for a token of a kind the
// surrounding form does not accept.
func UnexpectedElementKind(span node.Span, want, got string) *CompileError {
	return New(CategoryParsing, KindUnexpectedElementKind, span, "unexpected element kind: want %s, got %s", want, got)
}

// LexicalError wraps a raw message from the reference lexer/reader
// collaborator (spec §1 names both as external; this project's own
// reference implementation under internal/reader reports its own
// recoverable syntax errors as plain strings, which the driver converts
// to CompileErrors at this one boundary).
func LexicalError(span node.Span, msg string) *CompileError {
	return New(CategoryLexical, KindLexicalError, span, "%s", msg)
}

// LiteralConstructionFailed builds the Initialization error for a
// top-level `var`/`const` initializer that could not be reduced to a
// constant via the literal-construction-via-JIT protocol (spec §4.11): the
// initializer is not a plain literal token, so the driver built a
// temporary function to evaluate it and asked the backend to JIT-compile
// it, and that step failed (e.g. no JIT engine is configured).
func LiteralConstructionFailed(span node.Span, name string, cause error) *CompileError {
	return New(CategoryInitializaton, KindLiteralConstructionFailed, span,
		"cannot construct a compile-time constant for '%s': %v", name, cause)
}

// InvalidIntegerLiteral builds the Lexical error for a malformed integer
// token.
func InvalidIntegerLiteral(span node.Span, text string) *CompileError {
	return New(CategoryLexical, KindInvalidIntegerLiteral, span, "invalid integer literal '%s'", text)
}

// InvalidFloatLiteral builds the Lexical error for a malformed float token.
func InvalidFloatLiteral(span node.Span, text string) *CompileError {
	return New(CategoryLexical, KindInvalidFloatLiteral, span, "invalid float literal '%s'", text)
}

// OverloadedFunctionOrMacroNotInScope builds the Overloading error that
// signals "no candidate matched"; closest, if non-nil, attaches a
// best-partial-match hint and switches the Kind to the WithClosest variant.
func OverloadedFunctionOrMacroNotInScope(span node.Span, name string, closest *ClosestMatch) *CompileError {
	kind := KindOverloadedFunctionOrMacroNotInScope
	msg := fmt.Sprintf("no overload of '%s' matches the given arguments", name)
	if closest != nil {
		kind = KindOverloadedNotInScopeWithClosest
		msg = fmt.Sprintf("no overload of '%s' matches the given arguments; closest candidate: %s", name, closest.Signature)
	}
	e := New(CategoryOverloading, kind, span, "%s", msg)
	e.Closest = closest
	return e
}

// IsOverloadNotFound reports whether err is exactly the "try another
// resolution" signal described in spec §7 (either the plain or the
// WithClosest variant), as opposed to a user-visible error.
func IsOverloadNotFound(err error) bool {
	ce, ok := err.(*CompileError)
	if !ok {
		return false
	}
	return ce.Kind == KindOverloadedFunctionOrMacroNotInScope || ce.Kind == KindOverloadedNotInScopeWithClosest
}

// Reporter accumulates CompileErrors for a single compilation session. It
// supports the save-point/restore pattern used by speculative evaluation:
// a caller records Count() before a speculative path runs and calls
// TruncateTo(n) to discard any errors the speculative path produced,
// without disturbing errors recorded earlier.
type Reporter struct {
	errs []*CompileError
}

// NewReporter creates an empty Reporter.
func NewReporter() *Reporter { return &Reporter{} }

// Report appends an error.
func (r *Reporter) Report(err *CompileError) {
	r.errs = append(r.errs, err)
}

// Count returns the number of errors recorded so far.
func (r *Reporter) Count() int { return len(r.errs) }

// TruncateTo discards every error recorded after index n (n must be a
// value previously returned by Count on this Reporter).
func (r *Reporter) TruncateTo(n int) {
	if n < len(r.errs) {
		r.errs = r.errs[:n]
	}
}

// Errors returns every error recorded so far, in report order.
func (r *Reporter) Errors() []*CompileError {
	return append([]*CompileError(nil), r.errs...)
}

// HasErrors reports whether any error has been recorded.
func (r *Reporter) HasErrors() bool { return len(r.errs) > 0 }

// Format renders every recorded error with source context and a caret
// pointing at the error column, in the style of a single-file compiler
// diagnostic printer.
func (r *Reporter) Format(filename, source string) string {
	var b strings.Builder
	lines := strings.Split(source, "\n")
	for _, e := range r.errs {
		if filename != "" {
			fmt.Fprintf(&b, "Error in %s:%d:%d\n", filename, e.Span.Start.Line, e.Span.Start.Column)
		} else {
			fmt.Fprintf(&b, "Error at line %d:%d\n", e.Span.Start.Line, e.Span.Start.Column)
		}
		if e.Span.Start.Line >= 1 && e.Span.Start.Line <= len(lines) {
			srcLine := lines[e.Span.Start.Line-1]
			prefix := fmt.Sprintf("%4d | ", e.Span.Start.Line)
			b.WriteString(prefix)
			b.WriteString(srcLine)
			b.WriteString("\n")
			b.WriteString(strings.Repeat(" ", len(prefix)+e.Span.Start.Column-1))
			b.WriteString("^\n")
		}
		b.WriteString(e.Message)
		b.WriteString("\n\n")
	}
	return b.String()
}
