package namespace

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/glyphlang/glyphc/internal/types"
)

const manglePrefix = "_G"

// baseKindCodes is the single-character encoding table for §4.3's mangling
// scheme. It does not need to agree with any platform ABI — only with
// itself, so that Demangle can invert it.
var baseKindCodes = map[types.BaseKind]byte{
	types.Void:       'v',
	types.Bool:       'b',
	types.Char:       'c',
	types.Int8:       'g',
	types.Int16:      's',
	types.Int32:      'l',
	types.Int64:      'x',
	types.Int128:     'n',
	types.UInt8:      'h',
	types.UInt16:     'r',
	types.UInt32:     'm',
	types.UInt64:     'y',
	types.UInt128:    'o',
	types.Int:        'i',
	types.UInt:       'j',
	types.IntPtr:     'k',
	types.Size:       'z',
	types.PtrDiff:    'w',
	types.Float:      'f',
	types.Double:     'd',
	types.LongDouble: 'e',
	types.VarArgs:    '.',
}

var codeToBaseKind = func() map[byte]types.BaseKind {
	m := make(map[byte]types.BaseKind, len(baseKindCodes))
	for k, v := range baseKindCodes {
		m[v] = k
	}
	return m
}()

// escapeName replaces every non-alphanumeric byte with $<2-digit-hex>, so
// the length-prefixed scheme never has to worry about a name containing a
// digit run that would make the prefix ambiguous.
func escapeName(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' {
			b.WriteByte(c)
		} else {
			fmt.Fprintf(&b, "$%02x", c)
		}
	}
	return b.String()
}

func unescapeName(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '$' && i+2 < len(s) {
			if v, err := strconv.ParseUint(s[i+1:i+3], 16, 8); err == nil {
				b.WriteByte(byte(v))
				i += 2
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func lenPrefixed(s string) string {
	esc := escapeName(s)
	return fmt.Sprintf("%d%s", len(esc), esc)
}

// NameToSymbol mangles a plain name qualified by its enclosing namespace
// path, per spec §4.3: fixed prefix, each enclosing namespace as
// <len><name>, then the name's own <len><name>; the whole namespace run is
// wrapped in N...E when non-empty.
func NameToSymbol(name string, namespacePath []string) string {
	var b strings.Builder
	b.WriteString(manglePrefix)
	if len(namespacePath) > 0 {
		b.WriteString("N")
		for _, seg := range namespacePath {
			b.WriteString(lenPrefixed(seg))
		}
		b.WriteString(lenPrefixed(name))
		b.WriteString("E")
	} else {
		b.WriteString(lenPrefixed(name))
	}
	return b.String()
}

// typeCode renders one type's encoded form, per §4.3's table.
func typeCode(t *types.Type) string {
	if t == nil {
		return "v"
	}
	switch t.Kind {
	case types.Pointer:
		return "P" + typeCode(t.Pointee)
	case types.Array:
		return fmt.Sprintf("A%d%s", t.Length, typeCode(t.Elem))
	case types.Bitfield:
		return fmt.Sprintf("W%d%s", t.BitWidth, typeCode(t.Pointee))
	case types.Struct:
		if len(t.StructNamespace) > 0 {
			var b strings.Builder
			b.WriteString("ZN")
			for _, seg := range t.StructNamespace {
				b.WriteString(lenPrefixed(seg))
			}
			b.WriteString(lenPrefixed(t.StructName))
			b.WriteString("E")
			return b.String()
		}
		return "Z" + lenPrefixed(t.StructName)
	case types.Function:
		var b strings.Builder
		b.WriteString("F")
		b.WriteString(typeCode(t.ReturnType))
		for _, p := range t.Params {
			b.WriteString(typeCode(p))
		}
		b.WriteString("E")
		return b.String()
	default:
		if c, ok := baseKindCodes[t.Kind]; ok {
			return string(c)
		}
		return "v"
	}
}

// externCEncode implements the extern-C raw-name rule: '-' maps to "_2D_",
// everything else passes through unchanged.
func externCEncode(name string) string {
	return strings.ReplaceAll(name, "-", "_2D_")
}

// FunctionNameToSymbol mangles a function's full symbol, per §4.3:
// extern-C functions get their raw name with '-' escaped; everything else
// gets the mangled name followed by each parameter type's encoded form.
func FunctionNameToSymbol(name string, linkage Linkage, namespacePath []string, params []*types.Type) string {
	if linkage == LinkageExternC {
		return externCEncode(name)
	}
	var b strings.Builder
	b.WriteString(NameToSymbol(name, namespacePath))
	for _, p := range params {
		b.WriteString(typeCode(p))
	}
	return b.String()
}

// demangleScanner walks a mangled symbol left to right.
type demangleScanner struct {
	s   string
	pos int
}

func (d *demangleScanner) eof() bool { return d.pos >= len(d.s) }

func (d *demangleScanner) readByte() (byte, bool) {
	if d.eof() {
		return 0, false
	}
	c := d.s[d.pos]
	d.pos++
	return c, true
}

func (d *demangleScanner) peek() (byte, bool) {
	if d.eof() {
		return 0, false
	}
	return d.s[d.pos], true
}

// readLenPrefixed reads a <len><escaped-name> run and returns the
// unescaped name.
func (d *demangleScanner) readLenPrefixed() (string, bool) {
	start := d.pos
	for !d.eof() && d.s[d.pos] >= '0' && d.s[d.pos] <= '9' {
		d.pos++
	}
	if d.pos == start {
		return "", false
	}
	n, err := strconv.Atoi(d.s[start:d.pos])
	if err != nil || d.pos+n > len(d.s) {
		return "", false
	}
	raw := d.s[d.pos : d.pos+n]
	d.pos += n
	return unescapeName(raw), true
}

// Demangle inverts NameToSymbol, the §4.3.1 addition that makes the §8
// round-trip testable property checkable: it returns the plain name and
// the enclosing namespace path.
func Demangle(mangled string) (name string, namespacePath []string, ok bool) {
	d := &demangleScanner{s: mangled}
	if !strings.HasPrefix(d.s, manglePrefix) {
		return "", nil, false
	}
	d.pos = len(manglePrefix)
	c, has := d.peek()
	if !has {
		return "", nil, false
	}
	if c == 'N' {
		d.pos++
		var segs []string
		for {
			b, has := d.peek()
			if !has {
				return "", nil, false
			}
			if b == 'E' {
				d.pos++
				break
			}
			seg, ok := d.readLenPrefixed()
			if !ok {
				return "", nil, false
			}
			segs = append(segs, seg)
		}
		if len(segs) == 0 {
			return "", nil, false
		}
		name = segs[len(segs)-1]
		namespacePath = segs[:len(segs)-1]
		return name, namespacePath, true
	}
	n, ok := d.readLenPrefixed()
	if !ok {
		return "", nil, false
	}
	return n, nil, true
}
