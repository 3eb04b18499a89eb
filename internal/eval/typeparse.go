package eval

import (
	"strconv"

	"github.com/glyphlang/glyphc/internal/errors"
	"github.com/glyphlang/glyphc/internal/node"
	"github.com/glyphlang/glyphc/internal/types"
)

// basicTypeNames maps the type-syntax symbol spellings (spec §6) to their
// base kind.
var basicTypeNames = map[string]types.BaseKind{
	"void": types.Void, "bool": types.Bool, "char": types.Char,
	"int8": types.Int8, "int16": types.Int16, "int32": types.Int32, "int64": types.Int64, "int128": types.Int128,
	"uint8": types.UInt8, "uint16": types.UInt16, "uint32": types.UInt32, "uint64": types.UInt64, "uint128": types.UInt128,
	"int": types.Int, "uint": types.UInt, "intptr": types.IntPtr, "size": types.Size, "ptrdiff": types.PtrDiff,
	"float": types.Float, "double": types.Double, "longdouble": types.LongDouble,
	"...": types.VarArgs,
}

// ParseType parses a type-syntax node (spec §6): a basic-name symbol,
// `(p T)`, `(array-of N T)`, `(bf T N)`, `(const T)`, `(fn T PARAMS)`, or
// `(struct NAME)`. An anonymous inline `(struct (members...))` expands to
// a fresh named struct, registered into the current namespace under a
// synthesized name.
func (e *Evaluator) ParseType(n *node.Node) (*types.Type, *errors.CompileError) {
	reg := e.Sess.Types
	if n.IsToken() {
		if n.TokenKind != node.TokenSymbol {
			return nil, errors.UnexpectedElementKind(n.Span, "type symbol", n.TokenKind.String())
		}
		if kind, ok := basicTypeNames[n.Text]; ok {
			return reg.Basic(kind), nil
		}
		if en, ok := e.Sess.Ctx.LookupEnum(n.Text); ok {
			return en.Type, nil
		}
		if st, ok := e.Sess.Ctx.LookupStruct(n.Text); ok {
			return st.Type, nil
		}
		return nil, errors.TypeNotInScope(n.Span, n.Text)
	}
	if len(n.Children) == 0 {
		return nil, errors.EmptyList(n.Span)
	}
	head := n.Children[0]
	if !head.IsToken() || head.TokenKind != node.TokenSymbol {
		return nil, errors.FirstListElementMustBeAtom(n.Span)
	}
	switch head.Text {
	case "p":
		if len(n.Children) != 2 {
			return nil, errors.UnexpectedElementKind(n.Span, "(p T)", "wrong arity")
		}
		pointee, err := e.ParseType(n.Children[1])
		if err != nil {
			return nil, err
		}
		return reg.Pointer(pointee), nil
	case "array-of":
		if len(n.Children) != 3 {
			return nil, errors.UnexpectedElementKind(n.Span, "(array-of N T)", "wrong arity")
		}
		length, lenErr := parseIntLiteral(n.Children[1])
		if lenErr != nil {
			return nil, lenErr
		}
		elem, err := e.ParseType(n.Children[2])
		if err != nil {
			return nil, err
		}
		return reg.Array(elem, length), nil
	case "bf":
		if len(n.Children) != 3 {
			return nil, errors.UnexpectedElementKind(n.Span, "(bf T N)", "wrong arity")
		}
		base, err := e.ParseType(n.Children[1])
		if err != nil {
			return nil, err
		}
		if !base.IsInteger() {
			return nil, errors.BitfieldMustHaveIntegerType(n.Span)
		}
		width, widthErr := parseIntLiteral(n.Children[2])
		if widthErr != nil {
			return nil, widthErr
		}
		return reg.Bitfield(base, width), nil
	case "const":
		if len(n.Children) != 2 {
			return nil, errors.UnexpectedElementKind(n.Span, "(const T)", "wrong arity")
		}
		t, err := e.ParseType(n.Children[1])
		if err != nil {
			return nil, err
		}
		return reg.ConstOf(t), nil
	case "fn":
		if len(n.Children) < 2 {
			return nil, errors.UnexpectedElementKind(n.Span, "(fn T PARAMS...)", "wrong arity")
		}
		ret, err := e.ParseType(n.Children[1])
		if err != nil {
			return nil, err
		}
		params := make([]*types.Type, 0, len(n.Children)-2)
		for _, p := range n.Children[2:] {
			pt, perr := e.ParseType(p)
			if perr != nil {
				return nil, perr
			}
			params = append(params, pt)
		}
		return reg.Function(ret, params), nil
	case "struct":
		if len(n.Children) != 2 {
			return nil, errors.UnexpectedElementKind(n.Span, "(struct NAME)", "wrong arity")
		}
		ref := n.Children[1]
		if ref.IsToken() {
			if st, ok := e.Sess.Ctx.LookupStruct(ref.Text); ok {
				return st.Type, nil
			}
			return reg.StructRef(ref.Text, e.Sess.Ctx.Current().Path()), nil
		}
		// Anonymous inline struct: `(struct (members...))` — expand to a
		// fresh named struct in the current namespace.
		name := e.Sess.NextTempName("anonstruct")
		return e.declareStructFromFieldList(n.Span, name, ref, false, false)
	default:
		return nil, errors.UnexpectedElementKind(n.Span, "type form", head.Text)
	}
}

func parseIntLiteral(n *node.Node) (int, *errors.CompileError) {
	if !n.IsToken() || n.TokenKind != node.TokenInt {
		return 0, errors.UnexpectedElementKind(n.Span, "integer literal", n.TokenKind.String())
	}
	v, err := strconv.Atoi(n.Text)
	if err != nil {
		return 0, errors.InvalidIntegerLiteral(n.Span, n.Text)
	}
	return v, nil
}
