// Package macro implements the compile-time macro engine (component 2.8):
// declaring a macro body as a regular function returning pointer-to-DNode,
// JIT-compiling it, and invoking it through an FFI trampoline to expand a
// macro call into a fresh Node subtree.
//
// This package depends on internal/eval (to compile a macro body the same
// way any other function body is compiled) but internal/eval never imports
// this package back; the evaluator reaches the macro engine only through
// the Evaluator.ExpandMacro callback field, which the driver wires at
// construction time. That keeps the two mutually-dependent concerns
// (evaluating a call that turns out to be a macro, compiling the macro's
// own body with the evaluator) from forming a Go import cycle.
package macro

import (
	"unsafe"

	"github.com/glyphlang/glyphc/internal/node"
)

// dnodeKind discriminates the two DNode shapes, mirroring node.Kind.
type dnodeKind int32

const (
	dnodeKindToken dnodeKind = iota
	dnodeKindList
)

// dNode is the on-wire AST node a JIT-compiled macro body reads and builds
// directly (spec §4.9): a discriminator, the token text as a length-
// prefixed byte pointer, a pointer to the first child (a list's contents
// are a Next-linked chain starting here), a pointer to the next sibling,
// and span bounds copied from node.Span's flattened (line, column, offset)
// triples.
//
// Every dNode lives in ordinary Go memory, pinned for the duration of one
// macro invocation by the Pool that allocated it; nothing here crosses
// into cgo. The macro body's own Glyph-side view of this layout is an
// ordinary struct type (`DNode`) declared once in the runtime prelude and
// shared with every compiled module, so the two sides agree on field
// order without either being able to see the other's source.
type dNode struct {
	kind     dnodeKind
	text     *byte
	textLen  int32
	children *dNode
	next     *dNode

	spanStartLine, spanStartCol, spanStartOff int64
	spanEndLine, spanEndCol, spanEndOff       int64
}

// Pool is the per-invocation arena spec §4.9 describes as part of
// MContext: every dNode built while marshaling a macro call's argument
// nodes is allocated from a Pool, and the whole Pool is dropped (made
// eligible for garbage collection) when the invocation returns, standing
// in for the native pool-allocator handle and its `pool-free` release.
type Pool struct {
	nodes     []*dNode
	bufs      [][]byte
	ptrArrays [][]*dNode
	ctx       *mcontext
}

// mcontext is the Go-side body of the opaque MContext* every macro
// receives as its implicit first argument (spec §4.9). This front-end has
// no JIT-side allocator wired to it (see DESIGN.md: pool_alloc-style
// in-body allocation is an external JIT-linking concern, same as
// JITCompile itself); mcontext exists so the ABI still passes a real,
// pinned address as the context argument rather than a placeholder.
type mcontext struct {
	poolSeq int64
}

// NewPool creates an empty invocation pool.
func NewPool() *Pool { return &Pool{} }

// Free releases every dNode and byte buffer this pool allocated. Go's
// garbage collector reclaims the memory; Free exists so call sites read
// the same as the native pool-alloc/pool-free pairing spec §4.9 describes,
// and so a future pinned-memory implementation has one place to add real
// deallocation.
func (p *Pool) Free() {
	p.nodes = nil
	p.bufs = nil
	p.ptrArrays = nil
	p.ctx = nil
}

// contextAddr returns the address of this pool's MContext, allocating it
// on first use.
func (p *Pool) contextAddr() uintptr {
	if p.ctx == nil {
		p.ctx = &mcontext{}
	}
	return uintptr(unsafe.Pointer(p.ctx))
}

// allocArray pins a slice of dNode pointers as a contiguous C-style array
// and returns its base address, used for a variadic macro's trailing
// DNode-pointer-array argument (spec §4.9's dynamic node arguments, read
// back in Glyph via the `get-dnodes` core form).
func (p *Pool) allocArray(nodes []*dNode) uintptr {
	if len(nodes) == 0 {
		return 0
	}
	arr := make([]*dNode, len(nodes))
	copy(arr, nodes)
	p.ptrArrays = append(p.ptrArrays, arr)
	return uintptr(unsafe.Pointer(&arr[0]))
}

func (p *Pool) alloc() *dNode {
	n := &dNode{}
	p.nodes = append(p.nodes, n)
	return n
}

func (p *Pool) allocText(s string) (*byte, int32) {
	buf := append([]byte(s), 0) // NUL-terminated, for the macro body's C-string reads
	p.bufs = append(p.bufs, buf)
	return &buf[0], int32(len(s))
}

// nodeToDNode converts a Node tree to a dNode tree allocated from p,
// preserving token text, token kind, list structure (via the children/next
// chain), and source spans (spec's fidelity property: "Node -> DNode ->
// Node preserves token text, token kind, list structure, and source
// spans").
func nodeToDNode(p *Pool, n *node.Node) *dNode {
	if n == nil {
		return nil
	}
	d := p.alloc()
	d.spanStartLine, d.spanStartCol, d.spanStartOff = int64(n.Span.Start.Line), int64(n.Span.Start.Column), int64(n.Span.Start.Offset)
	d.spanEndLine, d.spanEndCol, d.spanEndOff = int64(n.Span.End.Line), int64(n.Span.End.Column), int64(n.Span.End.Offset)

	if n.IsToken() {
		d.kind = dnodeKind(tokenKindWireValue(n.TokenKind))
		d.text, d.textLen = p.allocText(n.Text)
		return d
	}

	d.kind = dnodeKindList
	var head, tail *dNode
	for _, c := range n.Children {
		cd := nodeToDNode(p, c)
		if head == nil {
			head, tail = cd, cd
		} else {
			tail.next = cd
			tail = cd
		}
	}
	d.children = head
	return d
}

// tokenKindWireValue packs node.TokenKind into the dNode.kind field
// alongside dnodeKindList (1): token kinds are offset by two so 0 and 1
// never name a token kind and the macro body can tell token-vs-list apart
// with a single comparison before switching on the specific token kind.
func tokenKindWireValue(k node.TokenKind) int32 {
	return int32(k) + int32(dnodeKindList) + 1
}

func wireValueToTokenKind(v int32) (node.TokenKind, bool) {
	raw := v - int32(dnodeKindList) - 1
	if raw < 0 {
		return 0, false
	}
	return node.TokenKind(raw), true
}

// dNodeToNode converts a dNode tree produced by a macro back into a Node
// tree, cloning text out of pool memory so the result stays valid after
// the pool is freed.
func dNodeToNode(d *dNode) *node.Node {
	if d == nil {
		return nil
	}
	span := node.Span{
		Start: node.Position{Line: int(d.spanStartLine), Column: int(d.spanStartCol), Offset: int(d.spanStartOff)},
		End:   node.Position{Line: int(d.spanEndLine), Column: int(d.spanEndCol), Offset: int(d.spanEndOff)},
	}
	if tk, ok := wireValueToTokenKind(int32(d.kind)); ok {
		return node.NewToken(tk, dNodeText(d), span)
	}
	var children []*node.Node
	for c := d.children; c != nil; c = c.next {
		children = append(children, dNodeToNode(c))
	}
	return node.NewList(children, span)
}

// dNodeText copies a dNode's textLen bytes of text into a new Go string.
func dNodeText(d *dNode) string {
	if d.text == nil || d.textLen == 0 {
		return ""
	}
	return string(unsafe.Slice(d.text, int(d.textLen)))
}

// addr returns the dNode's address as the uintptr the FFI trampoline
// passes across to native code.
func (d *dNode) addr() uintptr {
	if d == nil {
		return 0
	}
	return uintptr(unsafe.Pointer(d))
}

func dNodeFromAddr(addr uintptr) *dNode {
	if addr == 0 {
		return nil
	}
	return (*dNode)(unsafe.Pointer(addr))
}
