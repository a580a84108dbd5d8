package board

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Revision is one archived board save.
type Revision struct {
	Seq     int64      `json:"seq"`
	SavedAt time.Time  `json:"savedAt"`
	Origin  SaveOrigin `json:"origin"`
	Board   Board      `json:"board"`
}

// RevisionArchive records every successful save for inspection and
// recovery. Appends are best effort: the engine logs failures and moves
// on, since durability of the board file itself never depends on the
// archive.
type RevisionArchive interface {
	Append(ctx context.Context, b Board, origin SaveOrigin) error
	List(ctx context.Context, limit int) ([]Revision, error)
	Close() error
}

type MemoryArchive struct {
	mu        sync.Mutex
	nextSeq   int64
	revisions []Revision
	maxKept   int
}

func NewMemoryArchive(maxKept int) *MemoryArchive {
	if maxKept <= 0 {
		maxKept = 1000
	}
	return &MemoryArchive{maxKept: maxKept}
}

func (a *MemoryArchive) Append(ctx context.Context, b Board, origin SaveOrigin) error {
	_ = ctx
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nextSeq++
	a.revisions = append(a.revisions, Revision{
		Seq:     a.nextSeq,
		SavedAt: time.Now().UTC(),
		Origin:  origin,
		Board:   b.Clone(),
	})
	if len(a.revisions) > a.maxKept {
		a.revisions = append([]Revision(nil), a.revisions[len(a.revisions)-a.maxKept:]...)
	}
	return nil
}

// List returns the most recent revisions, newest first.
func (a *MemoryArchive) List(ctx context.Context, limit int) ([]Revision, error) {
	_ = ctx
	a.mu.Lock()
	defer a.mu.Unlock()
	if limit <= 0 || limit > len(a.revisions) {
		limit = len(a.revisions)
	}
	out := make([]Revision, 0, limit)
	for i := len(a.revisions) - 1; i >= len(a.revisions)-limit; i-- {
		rev := a.revisions[i]
		rev.Board = rev.Board.Clone()
		out = append(out, rev)
	}
	return out, nil
}

func (a *MemoryArchive) Close() error {
	return nil
}

func encodeRevisionBoard(b Board) (string, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
