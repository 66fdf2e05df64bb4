package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/serroba/textot/internal/ot"
)

// SnapshotPolicy decides when a document is due for a snapshot. It remembers
// the revision of each document's last snapshot, so a reloaded session keeps
// the cadence of the one before it.
type SnapshotPolicy struct {
	mu    sync.Mutex
	every int
	saved map[string]int
}

// NewSnapshotPolicy creates a policy that asks for a snapshot every `every`
// revisions. A non-positive interval never asks.
func NewSnapshotPolicy(every int) *SnapshotPolicy {
	return &SnapshotPolicy{
		every: every,
		saved: make(map[string]int),
	}
}

// Due reports whether docID at revision is due for a snapshot.
func (p *SnapshotPolicy) Due(docID string, revision int) bool {
	if p.every <= 0 {
		return false
	}

	return p.Pending(docID, revision) >= p.every
}

// Saved records a snapshot of docID at revision.
func (p *SnapshotPolicy) Saved(docID string, revision int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if revision > p.saved[docID] {
		p.saved[docID] = revision
	}
}

// Pending returns how many revisions up to revision no snapshot covers yet.
func (p *SnapshotPolicy) Pending(docID string, revision int) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return max(revision-p.saved[docID], 0)
}

// DocumentLoader rebuilds documents from the latest snapshot plus the
// operations logged after it.
type DocumentLoader struct {
	store Store
}

// NewDocumentLoader creates a new document loader.
func NewDocumentLoader(store Store) *DocumentLoader {
	return &DocumentLoader{store: store}
}

// LoadResult is a rebuilt document.
type LoadResult struct {
	Content          string
	Revision         int
	SnapshotRevision int
	IsNew            bool // no snapshot and no operations
}

// Load reconstructs the content of docID.
func (l *DocumentLoader) Load(ctx context.Context, docID string) (LoadResult, error) {
	var result LoadResult

	snapshot, err := l.store.LoadSnapshot(ctx, docID)

	switch {
	case errors.Is(err, ErrSnapshotNotFound):
	case err != nil:
		return LoadResult{}, err
	default:
		result.Content = snapshot.Content
		result.SnapshotRevision = snapshot.Revision
	}

	ops, err := l.store.LoadOperations(ctx, docID, result.SnapshotRevision)
	if err != nil {
		return LoadResult{}, err
	}

	result.Revision = result.SnapshotRevision
	result.IsNew = result.SnapshotRevision == 0 && len(ops) == 0

	for _, op := range ops {
		result.Content, err = ot.ApplyTo(result.Content, op.Operation)
		if err != nil {
			return LoadResult{}, fmt.Errorf("replay revision %d: %w", op.Revision, err)
		}

		result.Revision = op.Revision
	}

	return result, nil
}
