// Package types implements the canonical type registry (component 2.2): a
// value-object Type description plus an interning Registry that guarantees
// pointer identity for structurally equal types.
package types

import (
	"fmt"
	"strings"
)

// BaseKind enumerates the base kinds a Type can have.
type BaseKind int

const (
	Void BaseKind = iota
	Bool
	Char
	Int8
	Int16
	Int32
	Int64
	Int128
	UInt8
	UInt16
	UInt32
	UInt64
	UInt128
	Int
	UInt
	IntPtr
	Size
	PtrDiff
	Float
	Double
	LongDouble
	VarArgs
	Function
	Pointer
	Array
	Bitfield
	Struct
)

var baseKindNames = map[BaseKind]string{
	Void: "void", Bool: "bool", Char: "char",
	Int8: "int8", Int16: "int16", Int32: "int32", Int64: "int64", Int128: "int128",
	UInt8: "uint8", UInt16: "uint16", UInt32: "uint32", UInt64: "uint64", UInt128: "uint128",
	Int: "int", UInt: "uint", IntPtr: "intptr", Size: "size", PtrDiff: "ptrdiff",
	Float: "float", Double: "double", LongDouble: "longdouble",
	VarArgs: "...", Function: "fn", Pointer: "ptr", Array: "array", Bitfield: "bitfield", Struct: "struct",
}

func (k BaseKind) String() string {
	if s, ok := baseKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("BaseKind(%d)", int(k))
}

// Type is a value object describing one canonical type. Compound kinds
// populate the field(s) relevant to that kind; the registry guarantees
// that two structurally equal descriptions resolve to the same *Type.
type Type struct {
	Kind BaseKind

	// Pointer
	Pointee *Type

	// Array
	Elem   *Type
	Length int // 0 means "inferred from initializer" at the def site, not a registry concern

	// Bitfield
	BitWidth int

	// Struct
	StructName      string
	StructNamespace []string

	// Function
	ReturnType *Type
	Params     []*Type

	Const       bool
	Reference   bool
	ReturnValue bool
}

// Equals reports structural equality, including constness. Use
// CanBePassedFrom for argument-compatibility comparisons that relax
// constness.
func (t *Type) Equals(other *Type) bool {
	if t == other {
		return true
	}
	if t == nil || other == nil {
		return false
	}
	return descriptor(t) == descriptor(other)
}

// IsInteger reports whether t is any integer base kind.
func (t *Type) IsInteger() bool {
	if t == nil {
		return false
	}
	switch t.Kind {
	case Int8, Int16, Int32, Int64, Int128, UInt8, UInt16, UInt32, UInt64, UInt128,
		Int, UInt, IntPtr, Size, PtrDiff, Bool, Char:
		return true
	default:
		return false
	}
}

// IsSignedInteger reports whether t is a signed integer base kind.
func (t *Type) IsSignedInteger() bool {
	if t == nil {
		return false
	}
	switch t.Kind {
	case Int8, Int16, Int32, Int64, Int128, Int, IntPtr, PtrDiff:
		return true
	default:
		return false
	}
}

// IsFloating reports whether t is a floating-point base kind.
func (t *Type) IsFloating() bool {
	return t != nil && (t.Kind == Float || t.Kind == Double || t.Kind == LongDouble)
}

// IsVarArgs reports whether t is the sentinel varargs type.
func (t *Type) IsVarArgs() bool {
	return t != nil && t.Kind == VarArgs
}

// RequiredArgCount returns the number of fixed (non-varargs) parameters of
// a function type. It panics if t is not a Function type, matching the
// registry's contract that callers only ask this of function types.
func (t *Type) RequiredArgCount() int {
	if t == nil || t.Kind != Function {
		panic("types: RequiredArgCount on non-function type")
	}
	n := len(t.Params)
	if n > 0 && t.Params[n-1].IsVarArgs() {
		return n - 1
	}
	return n
}

// IsVariadic reports whether a function type's final parameter is VarArgs.
func (t *Type) IsVariadic() bool {
	if t == nil || t.Kind != Function || len(t.Params) == 0 {
		return false
	}
	return t.Params[len(t.Params)-1].IsVarArgs()
}

// String renders a human-readable type name, used in error messages.
func (t *Type) String() string {
	if t == nil {
		return "<nil type>"
	}
	prefix := ""
	if t.Const {
		prefix = "const "
	}
	switch t.Kind {
	case Pointer:
		return prefix + "(p " + t.Pointee.String() + ")"
	case Array:
		return fmt.Sprintf("%s(array-of %d %s)", prefix, t.Length, t.Elem.String())
	case Bitfield:
		return fmt.Sprintf("%s(bf %s %d)", prefix, t.Pointee.String(), t.BitWidth)
	case Struct:
		if len(t.StructNamespace) > 0 {
			return prefix + "(struct " + strings.Join(t.StructNamespace, ".") + "." + t.StructName + ")"
		}
		return prefix + "(struct " + t.StructName + ")"
	case Function:
		parts := make([]string, len(t.Params))
		for i, p := range t.Params {
			parts[i] = p.String()
		}
		return fmt.Sprintf("%s(fn %s (%s))", prefix, t.ReturnType.String(), strings.Join(parts, " "))
	default:
		return prefix + t.Kind.String()
	}
}

// descriptor produces the canonical interning key for a type description.
// It intentionally ignores identity and only encodes structure, so that
// two independently constructed Type values with the same descriptor are
// considered the same type by the registry.
func descriptor(t *Type) string {
	if t == nil {
		return "<nil>"
	}
	var b strings.Builder
	if t.Const {
		b.WriteString("const:")
	}
	switch t.Kind {
	case Pointer:
		b.WriteString("P(")
		b.WriteString(descriptor(t.Pointee))
		b.WriteString(")")
	case Array:
		fmt.Fprintf(&b, "A(%d,%s)", t.Length, descriptor(t.Elem))
	case Bitfield:
		fmt.Fprintf(&b, "BF(%d,%s)", t.BitWidth, descriptor(t.Pointee))
	case Struct:
		b.WriteString("S(")
		b.WriteString(strings.Join(t.StructNamespace, "."))
		b.WriteString(".")
		b.WriteString(t.StructName)
		b.WriteString(")")
	case Function:
		b.WriteString("F(")
		b.WriteString(descriptor(t.ReturnType))
		b.WriteString(";")
		for i, p := range t.Params {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString(descriptor(p))
		}
		b.WriteString(")")
	default:
		b.WriteString(t.Kind.String())
	}
	return b.String()
}
