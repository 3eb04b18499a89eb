package node

import "testing"

func sp(line int) Span {
	return Span{Start: Position{Line: line, Column: 1}, End: Position{Line: line, Column: 2}}
}

func TestNewTokenAndList(t *testing.T) {
	tok := NewToken(TokenInt, "42", sp(1))
	if !tok.IsToken() || tok.IsList() {
		t.Fatalf("expected token node, got kind=%v", tok.Kind)
	}
	if tok.Text != "42" {
		t.Errorf("Text = %q, want %q", tok.Text, "42")
	}

	list := NewList([]*Node{tok}, sp(1))
	if !list.IsList() || list.IsToken() {
		t.Fatalf("expected list node, got kind=%v", list.Kind)
	}
	if list.Head() != tok {
		t.Errorf("Head() = %v, want %v", list.Head(), tok)
	}
	if len(list.Tail()) != 0 {
		t.Errorf("Tail() = %v, want empty", list.Tail())
	}
}

func TestHeadTailEmptyAndToken(t *testing.T) {
	var nilNode *Node
	if nilNode.Head() != nil || nilNode.Tail() != nil {
		t.Error("nil node Head/Tail should be nil")
	}

	tok := NewToken(TokenSymbol, "x", sp(1))
	if tok.Head() != nil || tok.Tail() != nil {
		t.Error("token node Head/Tail should be nil")
	}

	empty := NewList(nil, sp(1))
	if empty.Head() != nil {
		t.Error("empty list Head() should be nil")
	}
}

func TestStampMacroSpanDoesNotOverwriteExisting(t *testing.T) {
	inner := NewToken(TokenSymbol, "x", sp(1))
	innerSpan := sp(2)
	inner.MacroSpan = &innerSpan

	outer := NewList([]*Node{inner, NewToken(TokenSymbol, "y", sp(3))}, sp(1))

	outerSpan := sp(5)
	StampMacroSpan(outer, outerSpan)

	if *outer.MacroSpan != outerSpan {
		t.Errorf("outer.MacroSpan = %v, want %v", *outer.MacroSpan, outerSpan)
	}
	if *inner.MacroSpan != innerSpan {
		t.Errorf("inner.MacroSpan was overwritten: got %v, want %v", *inner.MacroSpan, innerSpan)
	}
	yNode := outer.Children[1]
	if yNode.MacroSpan == nil || *yNode.MacroSpan != outerSpan {
		t.Errorf("sibling without prior span should be stamped with outer span")
	}
}

func TestStampMacroSpanRecursesIntoNestedLists(t *testing.T) {
	leaf := NewToken(TokenInt, "1", sp(1))
	nested := NewList([]*Node{leaf}, sp(1))
	root := NewList([]*Node{nested}, sp(1))

	span := sp(9)
	StampMacroSpan(root, span)

	if leaf.MacroSpan == nil || *leaf.MacroSpan != span {
		t.Errorf("leaf should be stamped through nested list, got %v", leaf.MacroSpan)
	}
}

func TestCloneIsIndependentOfChildrenSlice(t *testing.T) {
	a := NewToken(TokenSymbol, "a", sp(1))
	list := NewList([]*Node{a}, sp(1))
	clone := list.Clone()

	clone.Children[0] = NewToken(TokenSymbol, "b", sp(1))
	if list.Children[0] != a {
		t.Error("mutating clone's Children slice must not affect the original")
	}
}
