package board

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

const (
	DefaultHistoryDepth  = 100
	archiveAppendTimeout = 5 * time.Second
)

// SaveOrigin tags what caused a persisted revision.
type SaveOrigin string

const (
	OriginMutation SaveOrigin = "mutation"
	OriginUndo     SaveOrigin = "undo"
	OriginRedo     SaveOrigin = "redo"
	OriginManual   SaveOrigin = "manual"
)

type EngineOptions struct {
	HistoryDepth int
	Archive      RevisionArchive
	Logger       Logger
}

// Engine is the synchronization coordinator: it exclusively owns the
// in-memory board and serializes user mutations, undo/redo, saves, and
// external reloads behind one mutex, so at most one save and one reload
// are ever in flight. The watcher goroutine never touches board content;
// it only delivers notifications that are applied here.
type Engine struct {
	mu        sync.Mutex
	board     Board
	history   *History[Board]
	selection map[string]struct{}

	store   *Store
	watcher *Watcher
	archive RevisionArchive
	logger  Logger

	subMu   sync.Mutex
	nextSub int
	subs    map[int]func(Board)
}

// NewEngine loads the initial board from the store. Load failures are
// recoverable: the engine logs once and starts with an empty board, per
// the error-handling policy.
func NewEngine(store *Store, watcher *Watcher, opts EngineOptions) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store is required", ErrInvalidInput)
	}
	depth := opts.HistoryDepth
	if depth <= 0 {
		depth = DefaultHistoryDepth
	}
	e := &Engine{
		history:   NewHistory[Board](depth),
		selection: map[string]struct{}{},
		store:     store,
		watcher:   watcher,
		archive:   opts.Archive,
		logger:    opts.Logger,
		subs:      map[int]func(Board){},
	}
	b, err := store.Load()
	if err != nil {
		e.logf("initial load failed, starting empty: %v", err)
	} else {
		e.board = b
	}
	return e, nil
}

// Start launches the watcher and the goroutine that applies its
// notifications. A watch setup failure degrades to manual save/load and
// is reported once, not returned as fatal.
func (e *Engine) Start(ctx context.Context) {
	if e.watcher == nil {
		return
	}
	if err := e.watcher.Start(ctx); err != nil {
		e.logf("change watcher disabled: %v", err)
		return
	}
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-e.watcher.Changes():
				e.reloadFromDisk()
			}
		}
	}()
}

// Board returns an independent copy of the current document.
func (e *Engine) Board() Board {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.board.Clone()
}

// Apply replaces the document with next as a user-initiated edit: the
// pre-mutation state is recorded for undo, then the result is persisted
// through the armed-save path. A failed save is returned but the
// in-memory edit is kept; the next successful save will include it.
func (e *Engine) Apply(next Board) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history.Push(e.board.Clone())
	e.board = next.Clone()
	return e.saveLocked(OriginMutation)
}

// Undo restores the previous snapshot, if any, and persists it so the
// undo is durable and suppresses the watcher like any other save.
func (e *Engine) Undo() (bool, error) {
	return e.step(OriginUndo)
}

// Redo restores the next snapshot, if any, symmetrically to Undo.
func (e *Engine) Redo() (bool, error) {
	return e.step(OriginRedo)
}

func (e *Engine) step(origin SaveOrigin) (bool, error) {
	e.mu.Lock()
	var (
		restored Board
		ok       bool
	)
	if origin == OriginUndo {
		restored, ok = e.history.Undo(e.board.Clone())
	} else {
		restored, ok = e.history.Redo(e.board.Clone())
	}
	if !ok {
		e.mu.Unlock()
		return false, nil
	}
	e.board = restored
	e.selection = map[string]struct{}{}
	err := e.saveLocked(origin)
	replaced := e.board.Clone()
	e.mu.Unlock()

	e.notifyReplaced(replaced)
	return true, err
}

// ForceSave persists the current in-memory board unconditionally.
func (e *Engine) ForceSave() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.saveLocked(OriginManual)
}

func (e *Engine) CanUndo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.CanUndo()
}

func (e *Engine) CanRedo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.CanRedo()
}

// Select replaces the current selection set. Selection is view-only
// transient state; it never persists and is cleared whenever the
// document is replaced wholesale.
func (e *Engine) Select(ids ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.selection = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		e.selection[id] = struct{}{}
	}
}

func (e *Engine) Selection() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := make([]string, 0, len(e.selection))
	for id := range e.selection {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Subscribe registers a callback fired with a copy of the new document
// after every wholesale replacement: external reloads and undo/redo
// alike. The returned func cancels the subscription.
func (e *Engine) Subscribe(fn func(Board)) func() {
	e.subMu.Lock()
	id := e.nextSub
	e.nextSub++
	e.subs[id] = fn
	e.subMu.Unlock()
	return func() {
		e.subMu.Lock()
		delete(e.subs, id)
		e.subMu.Unlock()
	}
}

// reloadFromDisk applies one external-change notification: replace the
// document, drop selection (the selected IDs may no longer exist), and
// leave history untouched so the reload can never be undone into.
func (e *Engine) reloadFromDisk() {
	e.mu.Lock()
	b, err := e.store.Load()
	if err != nil {
		e.mu.Unlock()
		e.logf("external reload failed, keeping current board: %v", err)
		return
	}
	e.board = b
	e.selection = map[string]struct{}{}
	replaced := e.board.Clone()
	e.mu.Unlock()

	e.notifyReplaced(replaced)
}

func (e *Engine) saveLocked(origin SaveOrigin) error {
	if err := e.store.Save(e.board); err != nil {
		e.logf("save failed (%s): %v", origin, err)
		return err
	}
	e.appendRevisionLocked(origin)
	return nil
}

func (e *Engine) appendRevisionLocked(origin SaveOrigin) {
	if e.archive == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), archiveAppendTimeout)
	defer cancel()
	if err := e.archive.Append(ctx, e.board.Clone(), origin); err != nil {
		e.logf("revision archive append failed: %v", err)
	}
}

func (e *Engine) notifyReplaced(b Board) {
	e.subMu.Lock()
	fns := make([]func(Board), 0, len(e.subs))
	for _, fn := range e.subs {
		fns = append(fns, fn)
	}
	e.subMu.Unlock()
	for _, fn := range fns {
		fn(b.Clone())
	}
}

func (e *Engine) logf(format string, args ...any) {
	if e.logger == nil {
		return
	}
	e.logger.Printf(format, args...)
}
