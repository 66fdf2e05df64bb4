package storage

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/serroba/textot/internal/ot"
)

type memoryDocument struct {
	snapshot   *Snapshot
	operations []ot.SequencedOperation // ascending revisions
}

// MemoryStore keeps everything in process memory.
// Useful for testing and single-process replays.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]*memoryDocument
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[string]*memoryDocument),
	}
}

// lookup returns the document or ErrDocumentNotFound. Callers hold m.mu.
func (m *MemoryStore) lookup(docID string) (*memoryDocument, error) {
	doc, ok := m.docs[docID]
	if !ok {
		return nil, ErrDocumentNotFound
	}

	return doc, nil
}

func (m *MemoryStore) CreateDocument(_ context.Context, docID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.docs[docID]; ok {
		return ErrDocumentExists
	}

	m.docs[docID] = &memoryDocument{}

	return nil
}

func (m *MemoryStore) DocumentExists(_ context.Context, docID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.docs[docID]

	return ok, nil
}

// SaveSnapshot stores the snapshot and drops the operations it covers.
func (m *MemoryStore) SaveSnapshot(_ context.Context, docID string, revision int, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, err := m.lookup(docID)
	if err != nil {
		return err
	}

	doc.snapshot = &Snapshot{
		DocID:     docID,
		Revision:  revision,
		Content:   content,
		CreatedAt: time.Now(),
	}

	doc.operations = slices.DeleteFunc(doc.operations, func(op ot.SequencedOperation) bool {
		return op.Revision <= revision
	})

	return nil
}

func (m *MemoryStore) LoadSnapshot(_ context.Context, docID string) (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, err := m.lookup(docID)
	if err != nil {
		return Snapshot{}, err
	}

	if doc.snapshot == nil {
		return Snapshot{}, ErrSnapshotNotFound
	}

	return *doc.snapshot, nil
}

func (m *MemoryStore) AppendOperation(_ context.Context, docID string, op ot.SequencedOperation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, err := m.lookup(docID)
	if err != nil {
		return err
	}

	doc.operations = append(doc.operations, op)

	return nil
}

func (m *MemoryStore) LoadOperations(_ context.Context, docID string, sinceRevision int) ([]ot.SequencedOperation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, err := m.lookup(docID)
	if err != nil {
		return nil, err
	}

	i := slices.IndexFunc(doc.operations, func(op ot.SequencedOperation) bool {
		return op.Revision > sinceRevision
	})
	if i < 0 {
		return nil, nil
	}

	return slices.Clone(doc.operations[i:]), nil
}

func (m *MemoryStore) LatestRevision(_ context.Context, docID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, err := m.lookup(docID)
	if err != nil {
		return 0, err
	}

	switch {
	case len(doc.operations) > 0:
		return doc.operations[len(doc.operations)-1].Revision, nil
	case doc.snapshot != nil:
		return doc.snapshot.Revision, nil
	default:
		return 0, nil
	}
}

var _ Store = (*MemoryStore)(nil)
