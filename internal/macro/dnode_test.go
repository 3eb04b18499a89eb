package macro

import (
	"testing"

	"github.com/glyphlang/glyphc/internal/node"
)

func span(line int) node.Span {
	return node.Span{Start: node.Position{Line: line, Column: 1, Offset: line * 10}, End: node.Position{Line: line, Column: 2, Offset: line*10 + 1}}
}

func TestNodeToDNodeRoundTripsToken(t *testing.T) {
	n := node.NewToken(node.TokenInt, "42", span(1))
	p := NewPool()
	defer p.Free()

	d := nodeToDNode(p, n)
	back := dNodeToNode(d)

	if !back.IsToken() {
		t.Fatal("expected token node back")
	}
	if back.TokenKind != node.TokenInt {
		t.Errorf("TokenKind = %v, want TokenInt", back.TokenKind)
	}
	if back.Text != "42" {
		t.Errorf("Text = %q, want %q", back.Text, "42")
	}
	if back.Span.Start.Line != 1 {
		t.Errorf("Span.Start.Line = %d, want 1", back.Span.Start.Line)
	}
}

func TestNodeToDNodeRoundTripsList(t *testing.T) {
	n := node.NewList([]*node.Node{
		node.NewToken(node.TokenSymbol, "+", span(1)),
		node.NewToken(node.TokenInt, "1", span(1)),
		node.NewToken(node.TokenInt, "2", span(1)),
	}, span(1))
	p := NewPool()
	defer p.Free()

	back := dNodeToNode(nodeToDNode(p, n))
	if !back.IsList() {
		t.Fatal("expected list node back")
	}
	if len(back.Children) != 3 {
		t.Fatalf("len(Children) = %d, want 3", len(back.Children))
	}
	if back.Children[0].Text != "+" || back.Children[1].Text != "1" || back.Children[2].Text != "2" {
		t.Errorf("children text = %q %q %q, want +, 1, 2", back.Children[0].Text, back.Children[1].Text, back.Children[2].Text)
	}
}

func TestNodeToDNodeNilIsNil(t *testing.T) {
	p := NewPool()
	defer p.Free()
	if nodeToDNode(p, nil) != nil {
		t.Error("expected nil dNode for nil Node")
	}
	if dNodeToNode(nil) != nil {
		t.Error("expected nil Node for nil dNode")
	}
}

func TestPoolAllocArrayBaseAddrReadsBackFirstElement(t *testing.T) {
	p := NewPool()
	defer p.Free()

	a := nodeToDNode(p, node.NewToken(node.TokenSymbol, "a", span(1)))
	b := nodeToDNode(p, node.NewToken(node.TokenSymbol, "b", span(1)))
	base := p.allocArray([]*dNode{a, b})
	if base == 0 {
		t.Fatal("expected non-zero base address")
	}
	if base != a.addr() {
		t.Errorf("base address should equal the first element's address")
	}
}

func TestPoolAllocArrayEmptyReturnsZero(t *testing.T) {
	p := NewPool()
	defer p.Free()
	if p.allocArray(nil) != 0 {
		t.Error("expected zero address for an empty array")
	}
}
