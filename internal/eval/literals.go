package eval

import (
	"strconv"
	"strings"

	"github.com/glyphlang/glyphc/internal/errors"
	"github.com/glyphlang/glyphc/internal/ir"
	"github.com/glyphlang/glyphc/internal/node"
	"github.com/glyphlang/glyphc/internal/types"
)

// evaluateIntLiteral implements spec §4.6's integer-literal rule: when
// wantedType is an integer type, produce a constant of that width; else a
// native `int` constant.
func (e *Evaluator) evaluateIntLiteral(block ir.Block, n *node.Node, wantedType *types.Type) (*ParseResult, *errors.CompileError) {
	val, err := strconv.ParseInt(n.Text, 0, 64)
	if err != nil {
		return nil, errors.InvalidIntegerLiteral(n.Span, n.Text)
	}
	t := wantedType
	if t == nil || !t.IsInteger() {
		t = e.Sess.Types.Basic(types.Int)
	}
	return &ParseResult{Block: block, Type: t, Value: e.Sess.Builder.ConstInt(t, val), DoNotDestruct: true}, nil
}

// evaluateFloatLiteral implements the float-literal rule, preferring
// wantedType when it names a floating kind.
func (e *Evaluator) evaluateFloatLiteral(block ir.Block, n *node.Node, wantedType *types.Type) (*ParseResult, *errors.CompileError) {
	val, err := strconv.ParseFloat(n.Text, 64)
	if err != nil {
		return nil, errors.InvalidFloatLiteral(n.Span, n.Text)
	}
	t := wantedType
	if t == nil || !t.IsFloating() {
		t = e.Sess.Types.Basic(types.Double)
	}
	return &ParseResult{Block: block, Type: t, Value: e.Sess.Builder.ConstFloat(t, val), DoNotDestruct: true}, nil
}

// charLiteralNames maps the `#\NAME` spellings spec §4.6 names to their
// byte value.
var charLiteralNames = map[string]byte{
	"NULL": 0, "TAB": '\t', "SPACE": ' ', "NEWLINE": '\n', "CARRIAGE": '\r', "EOF": 0xFF,
}

// evaluateCharLiteral handles `#\NAME` and `#\x` tokens.
func (e *Evaluator) evaluateCharLiteral(block ir.Block, n *node.Node) (*ParseResult, *errors.CompileError) {
	body := strings.TrimPrefix(n.Text, "#\\")
	var v byte
	if b, ok := charLiteralNames[body]; ok {
		v = b
	} else if len(body) == 1 {
		v = body[0]
	} else {
		return nil, errors.InvalidIntegerLiteral(n.Span, n.Text)
	}
	t := e.Sess.Types.Basic(types.Char)
	return &ParseResult{Block: block, Type: t, Value: e.Sess.Builder.ConstInt(t, int64(v)), DoNotDestruct: true}, nil
}

// expandEscapes expands the `\n`-family escapes a string-literal token may
// contain, per spec §4.6.
func expandEscapes(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '0':
				b.WriteByte(0)
			case '\\':
				b.WriteByte('\\')
			case '"':
				b.WriteByte('"')
			default:
				b.WriteByte(s[i])
				b.WriteByte(s[i+1])
			}
			i++
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// evaluateStringLiteral allocates (or reuses, per the session's
// module-scoped cache) a private read-only global holding the expanded
// text and yields a pointer to its first element.
func (e *Evaluator) evaluateStringLiteral(block ir.Block, n *node.Node) (*ParseResult, *errors.CompileError) {
	v := e.Sess.InternString(expandEscapes(n.Text))
	return &ParseResult{Block: block, Type: v.Type, Value: v, DoNotDestruct: true, DoNotCopyWithSetf: true}, nil
}
