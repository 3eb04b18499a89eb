// Package ir declares the thin typed interface the evaluator programs
// against (component 2.5). The actual SSA builder, codegen, and JIT
// backend are external collaborators per spec's purpose & scope — this
// package only fixes the capability set the core requires of them, plus
// the Value wrapper every producer returns.
//
// Two implementations live alongside this interface: internal/ir/llvmbuilder
// (a real adapter over github.com/llir/llvm, used by the driver) and
// internal/ir/irtest (an in-memory recorder used by unit tests that don't
// need real codegen).
package ir

import "github.com/glyphlang/glyphc/internal/types"

// Value is an SSA value (or the address of storage, when produced under a
// "get address" request) tagged with its Glyph type. Raw is the
// backend-specific representation (e.g. an *ir.Value from llir/llvm); core
// code never inspects it directly, only passes it back to the Builder.
type Value struct {
	Type *types.Type
	Raw  any
}

// BinOp enumerates the binary operations the pointer-arithmetic and
// pointer-comparison core forms (spec §4.6: p=, p+, p-, p<, p>) need from
// the backend. This supplements spec §4.5's named capability list, which
// enumerates everything else the evaluator needs but does not separately
// name a binary-instruction primitive; p+/p-/p</p>/p= have no other way to
// reach the backend's add/sub/icmp instructions.
type BinOp int

const (
	BinAdd BinOp = iota
	BinSub
	BinICmpEQ
	BinICmpLT
	BinICmpGT
)

// Function is an opaque handle to a backend function.
type Function any

// Block is an opaque handle to a backend basic block.
type Block any

// Builder is the capability set required from the SSA backend (spec §4.5).
// Every method either mutates backend state or produces a Value; nothing
// in this interface performs type checking or overload resolution — that
// stays in the evaluator.
type Builder interface {
	// CreateFunction declares a new function with the given signature and
	// returns its handle; the caller must still CreateBlock an entry block.
	CreateFunction(name string, ret *types.Type, params []*types.Type) Function
	// CreateBlock appends a new named basic block to fn.
	CreateBlock(fn Function, name string) Block
	// SetInsertPoint directs subsequent emission to the end of b.
	SetInsertPoint(b Block)

	// Param returns the SSA value of fn's index'th parameter. Needed by
	// function-body compilation to bind parameter names to their incoming
	// values; spec §4.5's capability list otherwise has no way to observe
	// a function's own parameters once CreateFunction has returned.
	Param(fn Function, index int) Value

	Alloca(t *types.Type, name string) Value
	Load(ptr Value) Value
	Store(ptr, val Value)
	// GEP indexes into ptr using a sequence of constant indices (field or
	// element offsets), producing a pointer to the addressed sub-object.
	GEP(ptr Value, indices []int) Value
	Call(fn Value, args []Value) Value

	Br(target Block)
	CondBr(cond Value, then, els Block)
	Ret(v Value)
	RetVoid()

	// BinaryOp computes a Add/Sub/ICmp* operation between two values of
	// the same backend representation (integers, or a pointer and an
	// integer for Add/Sub). The result type is Bool for the ICmp* ops and
	// a's type otherwise.
	BinaryOp(op BinOp, a, b Value) Value

	PtrToInt(v Value, t *types.Type) Value
	IntExtend(v Value, t *types.Type, signExtend bool) Value
	FloatExtend(v Value, t *types.Type) Value

	ConstInt(t *types.Type, val int64) Value
	ConstFloat(t *types.Type, val float64) Value
	ConstBool(val bool) Value
	// GlobalString allocates a private, read-only global array of char
	// holding contents and returns a pointer to its first element.
	GlobalString(name, contents string) Value
	// GlobalVariable declares a module-scope variable with a constant
	// initializer (used for top-level `def` with Intern/Extern linkage).
	GlobalVariable(name string, t *types.Type, linkageExternal bool, initial Value) Value

	FunctionPointer(fn Function) Value

	// JITCompile compiles fn (and anything it calls that is not already
	// native) and returns a callable native address. The actual JIT engine
	// is an external collaborator; this method is the core's only contract
	// with it.
	JITCompile(fn Function) (uintptr, error)
	// EraseFunction removes fn's IR body from the module, e.g. after a CTO
	// macro's compile-time uses are all done.
	EraseFunction(fn Function)
	// LinkModule merges another module's IR into this one.
	LinkModule(other Builder) error

	EmitBitcode() ([]byte, error)
	EmitAssembly() (string, error)
	EmitIR() (string, error)

	// InstructionCount and Truncate support the copy-before-mutate
	// speculative-evaluation pattern (spec §9): a caller records the
	// instruction count of every block it might roll back, then calls
	// Truncate to discard anything emitted after that count.
	InstructionCount(b Block) int
	Truncate(b Block, n int)
}
