package eval

import (
	"github.com/glyphlang/glyphc/internal/namespace"
	"github.com/glyphlang/glyphc/internal/types"
)

// typeLayout computes a type's size and alignment in bytes under a plain
// LP64-style layout (8-byte pointers, natural alignment, no explicit
// packing). It backs sizeof/offsetof/alignmentof; the real DataLayout
// used by the LLVM backend is the authority at codegen time, but the
// evaluator needs these at compile time before any IR exists for a type.
func typeLayout(ctx *namespace.Context, t *types.Type) (size, align int) {
	if t == nil {
		return 0, 1
	}
	switch t.Kind {
	case types.Void:
		return 0, 1
	case types.Bool, types.Char, types.Int8, types.UInt8:
		return 1, 1
	case types.Int16, types.UInt16:
		return 2, 2
	case types.Int32, types.UInt32, types.Float:
		return 4, 4
	case types.Int64, types.UInt64, types.Double, types.Int, types.UInt,
		types.IntPtr, types.Size, types.PtrDiff, types.Pointer:
		return 8, 8
	case types.Int128, types.UInt128, types.LongDouble:
		return 16, 16
	case types.Bitfield:
		bs, ba := typeLayout(ctx, t.Pointee)
		return bs, ba
	case types.Array:
		es, ea := typeLayout(ctx, t.Elem)
		return es * t.Length, ea
	case types.Struct:
		st, ok := ctx.LookupStruct(t.StructName)
		if !ok {
			return 0, 1
		}
		offset, maxAlign := 0, 1
		for _, f := range st.Fields {
			fs, fa := typeLayout(ctx, f.Type)
			if fa > maxAlign {
				maxAlign = fa
			}
			if offset%fa != 0 {
				offset += fa - offset%fa
			}
			offset += fs
		}
		if offset%maxAlign != 0 {
			offset += maxAlign - offset%maxAlign
		}
		return offset, maxAlign
	default:
		return 8, 8
	}
}
