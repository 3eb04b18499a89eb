// Package irtest provides an in-memory ir.Builder good enough to drive the
// evaluator's and definition forms' unit tests without a real SSA backend.
// It does not generate machine code; it only records enough structure
// (instruction counts per block, constant folding of literals, a name
// registry for functions and globals) to make the evaluator's contracts
// independently testable.
package irtest

import (
	"fmt"

	"github.com/glyphlang/glyphc/internal/ir"
	"github.com/glyphlang/glyphc/internal/types"
)

type instr struct {
	op   string
	args []ir.Value
}

type fn struct {
	name   string
	ret    *types.Type
	params []*types.Type
	blocks []*blk
}

type blk struct {
	name  string
	instr []instr
}

// Builder is the in-memory ir.Builder implementation.
type Builder struct {
	funcs    []*fn
	globals  map[string]ir.Value
	strings  map[string]ir.Value
	cur      *blk
	curFn    *fn
	tempSeq  int
}

// New creates an empty Builder.
func New() *Builder {
	return &Builder{globals: map[string]ir.Value{}, strings: map[string]ir.Value{}}
}

func (b *Builder) CreateFunction(name string, ret *types.Type, params []*types.Type) ir.Function {
	f := &fn{name: name, ret: ret, params: append([]*types.Type(nil), params...)}
	b.funcs = append(b.funcs, f)
	return f
}

func (b *Builder) CreateBlock(fnHandle ir.Function, name string) ir.Block {
	f := fnHandle.(*fn)
	blk := &blk{name: name}
	f.blocks = append(f.blocks, blk)
	return blk
}

func (b *Builder) SetInsertPoint(blkHandle ir.Block) {
	b.cur = blkHandle.(*blk)
}

func (b *Builder) emit(op string, args ...ir.Value) {
	if b.cur == nil {
		panic("irtest: emit with no insert point set")
	}
	b.cur.instr = append(b.cur.instr, instr{op: op, args: args})
}

func (b *Builder) nextTemp() string {
	b.tempSeq++
	return fmt.Sprintf("%%t%d", b.tempSeq)
}

func (b *Builder) Param(fnHandle ir.Function, index int) ir.Value {
	f := fnHandle.(*fn)
	if index < 0 || index >= len(f.params) {
		return ir.Value{}
	}
	return ir.Value{Type: f.params[index], Raw: fmt.Sprintf("%%arg%d", index)}
}

func (b *Builder) Alloca(t *types.Type, name string) ir.Value {
	b.emit("alloca", ir.Value{Type: t, Raw: name})
	return ir.Value{Type: &types.Type{Kind: types.Pointer, Pointee: t}, Raw: b.nextTemp()}
}

func (b *Builder) Load(ptr ir.Value) ir.Value {
	b.emit("load", ptr)
	return ir.Value{Type: ptr.Type.Pointee, Raw: b.nextTemp()}
}

func (b *Builder) Store(ptr, val ir.Value) {
	b.emit("store", ptr, val)
}

func (b *Builder) GEP(ptr ir.Value, indices []int) ir.Value {
	b.emit("gep", ptr)
	return ir.Value{Type: ptr.Type, Raw: b.nextTemp()}
}

func (b *Builder) Call(fnVal ir.Value, args []ir.Value) ir.Value {
	b.emit("call", append([]ir.Value{fnVal}, args...)...)
	retType := fnVal.Type
	if retType != nil && retType.Kind == types.Function {
		retType = retType.ReturnType
	}
	return ir.Value{Type: retType, Raw: b.nextTemp()}
}

func (b *Builder) Br(target ir.Block)               { b.emit("br") }
func (b *Builder) CondBr(cond ir.Value, t, e ir.Block) { b.emit("condbr", cond) }
func (b *Builder) Ret(v ir.Value)                   { b.emit("ret", v) }
func (b *Builder) RetVoid()                         { b.emit("retvoid") }

func (b *Builder) BinaryOp(op ir.BinOp, a, b2 ir.Value) ir.Value {
	b.emit("binop", a, b2)
	if op == ir.BinICmpEQ || op == ir.BinICmpLT || op == ir.BinICmpGT {
		return ir.Value{Type: &types.Type{Kind: types.Bool}, Raw: b.nextTemp()}
	}
	return ir.Value{Type: a.Type, Raw: b.nextTemp()}
}

func (b *Builder) PtrToInt(v ir.Value, t *types.Type) ir.Value {
	b.emit("ptrtoint", v)
	return ir.Value{Type: t, Raw: b.nextTemp()}
}

func (b *Builder) IntExtend(v ir.Value, t *types.Type, signExtend bool) ir.Value {
	b.emit("intext", v)
	return ir.Value{Type: t, Raw: b.nextTemp()}
}

func (b *Builder) FloatExtend(v ir.Value, t *types.Type) ir.Value {
	b.emit("fpext", v)
	return ir.Value{Type: t, Raw: b.nextTemp()}
}

func (b *Builder) ConstInt(t *types.Type, val int64) ir.Value {
	return ir.Value{Type: t, Raw: val}
}

func (b *Builder) ConstFloat(t *types.Type, val float64) ir.Value {
	return ir.Value{Type: t, Raw: val}
}

func (b *Builder) ConstBool(val bool) ir.Value {
	return ir.Value{Type: &types.Type{Kind: types.Bool}, Raw: val}
}

func (b *Builder) GlobalString(name, contents string) ir.Value {
	if v, ok := b.strings[contents]; ok {
		return v
	}
	v := ir.Value{Type: &types.Type{Kind: types.Pointer, Pointee: &types.Type{Kind: types.Char}}, Raw: contents}
	b.strings[contents] = v
	return v
}

func (b *Builder) GlobalVariable(name string, t *types.Type, linkageExternal bool, initial ir.Value) ir.Value {
	v := ir.Value{Type: &types.Type{Kind: types.Pointer, Pointee: t}, Raw: name}
	b.globals[name] = v
	return v
}

func (b *Builder) FunctionPointer(fnHandle ir.Function) ir.Value {
	f := fnHandle.(*fn)
	return ir.Value{Type: &types.Type{Kind: types.Pointer, Pointee: &types.Type{Kind: types.Function, ReturnType: f.ret, Params: f.params}}, Raw: f.name}
}

func (b *Builder) JITCompile(fnHandle ir.Function) (uintptr, error) {
	return 0, fmt.Errorf("irtest: JIT compilation is not available in the in-memory test builder")
}

func (b *Builder) EraseFunction(fnHandle ir.Function) {
	f := fnHandle.(*fn)
	f.blocks = nil
}

func (b *Builder) LinkModule(other ir.Builder) error {
	o, ok := other.(*Builder)
	if !ok {
		return fmt.Errorf("irtest: cannot link a non-irtest module")
	}
	b.funcs = append(b.funcs, o.funcs...)
	return nil
}

func (b *Builder) EmitBitcode() ([]byte, error)  { return []byte(b.render()), nil }
func (b *Builder) EmitAssembly() (string, error) { return b.render(), nil }
func (b *Builder) EmitIR() (string, error)       { return b.render(), nil }

func (b *Builder) render() string {
	out := ""
	for _, f := range b.funcs {
		out += fmt.Sprintf("fn %s\n", f.name)
		for _, blk := range f.blocks {
			out += fmt.Sprintf("  block %s (%d instrs)\n", blk.name, len(blk.instr))
		}
	}
	return out
}

func (b *Builder) InstructionCount(blkHandle ir.Block) int {
	return len(blkHandle.(*blk).instr)
}

func (b *Builder) Truncate(blkHandle ir.Block, n int) {
	bl := blkHandle.(*blk)
	if n < len(bl.instr) {
		bl.instr = bl.instr[:n]
	}
}

var _ ir.Builder = (*Builder)(nil)
