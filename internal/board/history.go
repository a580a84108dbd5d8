package board

// History is a bounded two-stack undo/redo history over snapshot values.
// Callers push independent copies of the pre-mutation state before
// applying a mutation; reloads triggered by external changes must never
// be pushed. The future stack is intentionally unbounded: it can never
// outgrow the past entries that produced it.
type History[T any] struct {
	past     []T
	future   []T
	maxDepth int
}

func NewHistory[T any](maxDepth int) *History[T] {
	if maxDepth < 0 {
		maxDepth = 0
	}
	return &History[T]{maxDepth: maxDepth}
}

// Push records a pre-mutation snapshot and invalidates any redo states.
func (h *History[T]) Push(state T) {
	h.future = h.future[:0]
	h.past = append(h.past, state)
	for len(h.past) > h.maxDepth {
		copy(h.past, h.past[1:])
		h.past = h.past[:len(h.past)-1]
	}
}

// Undo moves current onto the future stack and returns the most recent
// past state. Reports false when there is nothing to undo.
func (h *History[T]) Undo(current T) (T, bool) {
	var zero T
	if len(h.past) == 0 {
		return zero, false
	}
	previous := h.past[len(h.past)-1]
	h.past = h.past[:len(h.past)-1]
	h.future = append(h.future, current)
	return previous, true
}

// Redo moves current onto the past stack and returns the most recent
// future state. Reports false when there is nothing to redo.
func (h *History[T]) Redo(current T) (T, bool) {
	var zero T
	if len(h.future) == 0 {
		return zero, false
	}
	next := h.future[len(h.future)-1]
	h.future = h.future[:len(h.future)-1]
	h.past = append(h.past, current)
	return next, true
}

func (h *History[T]) CanUndo() bool {
	return len(h.past) > 0
}

func (h *History[T]) CanRedo() bool {
	return len(h.future) > 0
}
