// Package lifetime implements the lifetime manager (component 2.9): it
// inserts destructor calls on scope close and at function exit, validates
// `goto` against variables it would cross, and classifies `setf-*` and
// `destroy` overrides by name (spec §4.10).
package lifetime

import (
	"strings"

	"github.com/glyphlang/glyphc/internal/errors"
	"github.com/glyphlang/glyphc/internal/ir"
	"github.com/glyphlang/glyphc/internal/namespace"
	"github.com/glyphlang/glyphc/internal/node"
	"github.com/glyphlang/glyphc/internal/types"
)

// Manager ties the namespace tree's variable bookkeeping to IR emission of
// destructor calls. It holds no state of its own beyond its collaborators:
// every piece of per-function bookkeeping (deferred gotos, resolved
// labels) lives on namespace.Function per spec §3, so a Manager is cheap
// to construct per Session.
type Manager struct {
	Ctx     *namespace.Context
	Builder ir.Builder
}

// New constructs a Manager over the given context and IR builder.
func New(ctx *namespace.Context, builder ir.Builder) *Manager {
	return &Manager{Ctx: ctx, Builder: builder}
}

// ClassifyFunction reports whether a function named name is a setf
// override (a `setf-*` name; must return bool) or a destructor (exactly
// `destroy`), per spec §4.10's naming convention.
func ClassifyFunction(name string) (isSetf, isDestructor bool) {
	return strings.HasPrefix(name, "setf-"), name == "destroy"
}

// destroyFunction looks up `destroy(pointer-to-t)` in the active context,
// returning nil if no such overload exists.
func (m *Manager) destroyFunction(t *types.Type, reg *types.Registry) *namespace.Function {
	f, _ := m.Ctx.GetFunction("destroy", []*types.Type{reg.Pointer(t)}, boolPtr(false))
	return f
}

func boolPtr(b bool) *bool { return &b }

// destructVariable emits the destructor call sequence for one variable of
// type T: a direct `destroy(pointer-to-T)` call if one is in scope, else
// (for array types) a last-to-first per-element destructor loop.
func (m *Manager) destructVariable(reg *types.Registry, v *namespace.Variable) {
	storage, ok := v.Storage.(ir.Value)
	if !ok {
		return
	}
	m.destructValue(reg, v.Type, storage)
}

func (m *Manager) destructValue(reg *types.Registry, t *types.Type, addr ir.Value) {
	if f := m.destroyFunction(t, reg); f != nil {
		fnPtr := m.Builder.FunctionPointer(f.Handle)
		m.Builder.Call(fnPtr, []ir.Value{addr})
		return
	}
	if t.Kind == types.Array {
		for i := t.Length - 1; i >= 0; i-- {
			elemAddr := m.Builder.GEP(addr, []int{i})
			m.destructValue(reg, t.Elem, elemAddr)
		}
	}
}

// CloseScope destructs every variable declared directly in ns (not its
// ancestors), in reverse declaration order (invariant (b)), emitting calls
// into the current insert point of block. Call this at `new-scope` exit,
// function end, `if`-branch join, and `return`.
func (m *Manager) CloseScope(reg *types.Registry, ns *namespace.Namespace, block ir.Block) {
	m.Builder.SetInsertPoint(block)
	for _, v := range ns.VariablesDescending() {
		m.destructVariable(reg, v)
	}
}

// RecordGoto handles a `goto LABEL` emitted from namespace ns, currently
// positioned at fromBlock. If the label is already resolved (a backward
// goto) it validates and emits the jump immediately; otherwise it defers
// the goto until the label is resolved later in the same function body.
func (m *Manager) RecordGoto(fn *namespace.Function, ns *namespace.Namespace, label string, fromBlock ir.Block, span node.Span, reg *types.Registry) *errors.CompileError {
	g := namespace.DeferredGoto{Label: label, Block: fromBlock, Namespace: ns, DeclIndex: ns.NextIndex(), Span: span}
	if info, ok := fn.Labels[label]; ok {
		if err := m.validateAndEmit(reg, g, info, info.DeclIndex); err != nil {
			return err
		}
		if labelBlock, ok := info.Block.(ir.Block); ok {
			m.Builder.SetInsertPoint(fromBlock)
			m.Builder.Br(labelBlock)
		}
		return nil
	}
	fn.DeferredGotos = append(fn.DeferredGotos, g)
	return nil
}

// ResolveLabel records `label NAME`'s position (namespace ns, currently
// positioned at labelBlock) and resolves every deferred goto to it
// recorded so far, validating and emitting destructors/branches for each.
// It returns the first validation error encountered, if any; gotos that
// validated successfully are still resolved even if a later one fails.
func (m *Manager) ResolveLabel(fn *namespace.Function, ns *namespace.Namespace, label string, labelBlock ir.Block, reg *types.Registry) *errors.CompileError {
	if fn.Labels == nil {
		fn.Labels = make(map[string]namespace.LabelInfo)
	}
	info := namespace.LabelInfo{Namespace: ns, DeclIndex: ns.NextIndex(), Block: labelBlock}
	fn.Labels[label] = info

	var remaining []namespace.DeferredGoto
	var firstErr *errors.CompileError
	for _, g := range fn.DeferredGotos {
		if g.Label != label {
			remaining = append(remaining, g)
			continue
		}
		if err := m.validateAndEmit(reg, g, info, info.DeclIndex); err != nil && firstErr == nil {
			firstErr = err
		} else if err == nil {
			m.Builder.SetInsertPoint(g.Block)
			m.Builder.Br(labelBlock)
		}
	}
	fn.DeferredGotos = remaining
	return firstErr
}

// validateAndEmit implements spec §4.10's goto resolution rule: walk from
// the goto's namespace up toward the label's namespace, destructing
// variables in the scopes being exited; then, if the label's own namespace
// contains a variable declared strictly after the goto and at or before
// the label, fail GotoWillCrossDeclaration.
func (m *Manager) validateAndEmit(reg *types.Registry, g namespace.DeferredGoto, info namespace.LabelInfo, labelDeclIndex int) *errors.CompileError {
	if crossed := info.Namespace.VariablesBetween(g.DeclIndex, labelDeclIndex); len(crossed) > 0 {
		return errors.GotoWillCrossDeclaration(g.Span, g.Label)
	}

	if block, ok := g.Block.(ir.Block); ok {
		m.Builder.SetInsertPoint(block)
		for ns := g.Namespace; ns != nil && ns != info.Namespace; ns = ns.Parent {
			for _, v := range ns.VariablesDescending() {
				if v.Index > g.DeclIndex {
					m.destructVariable(reg, v)
				}
			}
		}
	}
	return nil
}
