package board

import "testing"

func TestHistoryNewIsEmpty(t *testing.T) {
	h := NewHistory[int](100)
	if h.CanUndo() || h.CanRedo() {
		t.Fatalf("expected empty history, got canUndo=%v canRedo=%v", h.CanUndo(), h.CanRedo())
	}
}

func TestHistoryPushEnablesUndo(t *testing.T) {
	h := NewHistory[int](100)
	h.Push(1)
	if !h.CanUndo() {
		t.Fatalf("expected canUndo after push")
	}
	if h.CanRedo() {
		t.Fatalf("expected canRedo false after push")
	}
}

func TestHistoryUndoReturnsPreviousState(t *testing.T) {
	h := NewHistory[int](100)
	h.Push(1)
	h.Push(2)

	got, ok := h.Undo(3)
	if !ok || got != 2 {
		t.Fatalf("expected undo to return 2, got %d (ok=%v)", got, ok)
	}
	if !h.CanUndo() || !h.CanRedo() {
		t.Fatalf("expected both undo and redo available, got canUndo=%v canRedo=%v", h.CanUndo(), h.CanRedo())
	}
}

func TestHistoryRedoReturnsNextState(t *testing.T) {
	// Distinct values prove correctness rather than coincidence.
	h := NewHistory[int](100)
	h.Push(10)
	h.Push(20)

	undone, ok := h.Undo(30)
	if !ok || undone != 20 {
		t.Fatalf("expected undo to return 20, got %d (ok=%v)", undone, ok)
	}
	redone, ok := h.Redo(20)
	if !ok || redone != 30 {
		t.Fatalf("expected redo to return 30, got %d (ok=%v)", redone, ok)
	}
	if !h.CanUndo() || h.CanRedo() {
		t.Fatalf("expected past=[10,20] future=[], got canUndo=%v canRedo=%v", h.CanUndo(), h.CanRedo())
	}
}

func TestHistoryPushClearsRedoStack(t *testing.T) {
	h := NewHistory[int](100)
	h.Push(1)
	if _, ok := h.Undo(2); !ok {
		t.Fatalf("expected undo to succeed")
	}
	if !h.CanRedo() {
		t.Fatalf("expected canRedo after undo")
	}
	h.Push(3)
	if h.CanRedo() {
		t.Fatalf("expected push to clear redo stack")
	}
}

func TestHistoryRespectsMaxDepth(t *testing.T) {
	h := NewHistory[int](3)
	h.Push(1)
	h.Push(2)
	h.Push(3)
	h.Push(4)

	// Only three entries remain; the oldest (1) was evicted.
	expect := []int{4, 3, 2}
	current := 5
	for _, want := range expect {
		got, ok := h.Undo(current)
		if !ok || got != want {
			t.Fatalf("expected undo to return %d, got %d (ok=%v)", want, got, ok)
		}
		current = got
	}
	if _, ok := h.Undo(current); ok {
		t.Fatalf("expected undo to be exhausted after maxDepth entries")
	}
}

func TestHistoryUndoOnEmptyReturnsFalse(t *testing.T) {
	h := NewHistory[int](100)
	if _, ok := h.Undo(1); ok {
		t.Fatalf("expected undo on empty history to report false")
	}
}

func TestHistoryRedoOnEmptyReturnsFalse(t *testing.T) {
	h := NewHistory[int](100)
	if _, ok := h.Redo(1); ok {
		t.Fatalf("expected redo on empty history to report false")
	}
}

func TestHistoryChainUndoRedo(t *testing.T) {
	h := NewHistory[string](100)
	h.Push("a")
	h.Push("b")
	h.Push("c")

	if got, _ := h.Undo("d"); got != "c" {
		t.Fatalf("expected first undo to return c, got %q", got)
	}
	if got, _ := h.Undo("c"); got != "b" {
		t.Fatalf("expected second undo to return b, got %q", got)
	}
	if got, _ := h.Redo("b"); got != "c" {
		t.Fatalf("expected redo to return c, got %q", got)
	}
	if got, _ := h.Redo("c"); got != "d" {
		t.Fatalf("expected redo to return d, got %q", got)
	}
	if h.CanRedo() {
		t.Fatalf("expected redo stack exhausted")
	}
}

func TestHistoryUndoAllThenRedoAll(t *testing.T) {
	h := NewHistory[int](100)
	h.Push(1)
	h.Push(2)

	if got, ok := h.Undo(3); !ok || got != 2 {
		t.Fatalf("undo: got %d (ok=%v)", got, ok)
	}
	if got, ok := h.Undo(2); !ok || got != 1 {
		t.Fatalf("undo: got %d (ok=%v)", got, ok)
	}
	if _, ok := h.Undo(1); ok {
		t.Fatalf("expected undo exhausted")
	}
	if got, ok := h.Redo(1); !ok || got != 2 {
		t.Fatalf("redo: got %d (ok=%v)", got, ok)
	}
	if got, ok := h.Redo(2); !ok || got != 3 {
		t.Fatalf("redo: got %d (ok=%v)", got, ok)
	}
	if _, ok := h.Redo(3); ok {
		t.Fatalf("expected redo exhausted")
	}
}

func TestHistoryMaxDepthZeroStoresNothing(t *testing.T) {
	h := NewHistory[int](0)
	h.Push(1)
	h.Push(2)
	if h.CanUndo() {
		t.Fatalf("expected zero-depth history to keep nothing")
	}
	if _, ok := h.Undo(3); ok {
		t.Fatalf("expected undo to fail with zero depth")
	}
}

func TestHistoryMaxDepthOneKeepsLatest(t *testing.T) {
	h := NewHistory[int](1)
	h.Push(1)
	h.Push(2)
	h.Push(3)
	if got, ok := h.Undo(4); !ok || got != 3 {
		t.Fatalf("expected only the latest push kept, got %d (ok=%v)", got, ok)
	}
	if _, ok := h.Undo(3); ok {
		t.Fatalf("expected single-entry history exhausted")
	}
}

func TestHistoryFutureGrowsOnRepeatedUndo(t *testing.T) {
	// The future stack is not trimmed by maxDepth.
	h := NewHistory[int](3)
	h.Push(1)
	h.Push(2)
	h.Push(3)

	h.Undo(4)
	h.Undo(3)
	h.Undo(2)

	if !h.CanRedo() {
		t.Fatalf("expected redo available")
	}
	if got, _ := h.Redo(1); got != 2 {
		t.Fatalf("redo: expected 2, got %d", got)
	}
	if got, _ := h.Redo(2); got != 3 {
		t.Fatalf("redo: expected 3, got %d", got)
	}
	if got, _ := h.Redo(3); got != 4 {
		t.Fatalf("redo: expected 4, got %d", got)
	}
}

func TestHistoryPushAfterPartialUndoClearsOnlyRedo(t *testing.T) {
	h := NewHistory[int](100)
	h.Push(1)
	h.Push(2)
	h.Push(3)

	h.Undo(4) // past=[1,2], future=[4]
	h.Push(5) // past=[1,2,5], future=[]

	if h.CanRedo() {
		t.Fatalf("expected redo cleared by push")
	}
	for _, want := range []int{5, 2, 1} {
		got, ok := h.Undo(want + 1)
		if !ok || got != want {
			t.Fatalf("expected undo to return %d, got %d (ok=%v)", want, got, ok)
		}
	}
	if _, ok := h.Undo(1); ok {
		t.Fatalf("expected undo exhausted")
	}
}

func TestHistoryScenarioD(t *testing.T) {
	// push(d0), push(d1): past=[d0,d1]. undo(d2): past=[d0], future=[d2],
	// returns d1. redo(d1): past=[d0,d1], future=[], returns d2.
	h := NewHistory[string](100)
	h.Push("d0")
	h.Push("d1")

	got, ok := h.Undo("d2")
	if !ok || got != "d1" {
		t.Fatalf("undo(d2): expected d1, got %q (ok=%v)", got, ok)
	}
	if !h.CanRedo() {
		t.Fatalf("expected canRedo after undo")
	}
	got, ok = h.Redo("d1")
	if !ok || got != "d2" {
		t.Fatalf("redo(d1): expected d2, got %q (ok=%v)", got, ok)
	}
	if h.CanRedo() {
		t.Fatalf("expected future empty after redo")
	}
	if got, _ := h.Undo("d2"); got != "d1" {
		t.Fatalf("expected past restored to [d0,d1], undo returned %q", got)
	}
}
