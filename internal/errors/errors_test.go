package errors

import (
	"strings"
	"testing"

	"github.com/glyphlang/glyphc/internal/node"
)

func span(line, col int) node.Span {
	return node.Span{Start: node.Position{Line: line, Column: col}, End: node.Position{Line: line, Column: col + 1}}
}

func TestReporterTruncateToRollsBackSpeculativeErrors(t *testing.T) {
	r := NewReporter()
	r.Report(NotInScope(span(1, 1), "a"))
	mark := r.Count()

	r.Report(NotInScope(span(2, 1), "b"))
	r.Report(NotInScope(span(3, 1), "c"))
	if r.Count() != 3 {
		t.Fatalf("Count() = %d, want 3", r.Count())
	}

	r.TruncateTo(mark)
	if r.Count() != 1 {
		t.Fatalf("after TruncateTo(%d), Count() = %d, want 1", mark, r.Count())
	}
	if r.Errors()[0].Message != NotInScope(span(1, 1), "a").Message {
		t.Error("TruncateTo must preserve errors recorded before the mark")
	}
}

func TestOverloadedFunctionOrMacroNotInScopeKindSwitchesWithClosest(t *testing.T) {
	plain := OverloadedFunctionOrMacroNotInScope(span(1, 1), "f", nil)
	if !IsOverloadNotFound(plain) {
		t.Error("plain not-found error should be recognized as overload-not-found")
	}
	if plain.Kind != KindOverloadedFunctionOrMacroNotInScope {
		t.Errorf("Kind = %v, want %v", plain.Kind, KindOverloadedFunctionOrMacroNotInScope)
	}

	withClosest := OverloadedFunctionOrMacroNotInScope(span(1, 1), "f", &ClosestMatch{Name: "f", Signature: "f(int)"})
	if !IsOverloadNotFound(withClosest) {
		t.Error("with-closest variant should still be recognized as overload-not-found")
	}
	if withClosest.Kind != KindOverloadedNotInScopeWithClosest {
		t.Errorf("Kind = %v, want %v", withClosest.Kind, KindOverloadedNotInScopeWithClosest)
	}
	if !strings.Contains(withClosest.Message, "f(int)") {
		t.Errorf("message should mention closest signature, got %q", withClosest.Message)
	}
}

func TestIsOverloadNotFoundRejectsOtherErrors(t *testing.T) {
	other := RedefinitionOfVariable(span(1, 1), "x")
	if IsOverloadNotFound(other) {
		t.Error("a RedefinitionOfVariable error must not be mistaken for overload-not-found")
	}
	if IsOverloadNotFound(nil) {
		t.Error("nil is not an overload-not-found error")
	}
}

func TestFormatIncludesSourceLineAndCaret(t *testing.T) {
	r := NewReporter()
	r.Report(VariableNotInScope(span(2, 3), "y"))
	out := r.Format("test.gly", "(def x 1)\n(+ y 1)\n")
	if !strings.Contains(out, "test.gly:2:3") {
		t.Errorf("expected file:line:col header, got:\n%s", out)
	}
	if !strings.Contains(out, "(+ y 1)") {
		t.Errorf("expected source line echoed, got:\n%s", out)
	}
	if !strings.Contains(out, "^") {
		t.Errorf("expected caret marker, got:\n%s", out)
	}
}
