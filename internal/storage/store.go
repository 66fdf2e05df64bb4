package storage

import (
	"context"
	"errors"
	"time"

	"github.com/serroba/textot/internal/ot"
)

// Store errors. Every method other than CreateDocument and DocumentExists
// fails with ErrDocumentNotFound for an unknown document.
var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrDocumentExists   = errors.New("document already exists")
	ErrSnapshotNotFound = errors.New("snapshot not found")
)

// Snapshot is the full content of a document at one revision.
type Snapshot struct {
	DocID     string    `mapstructure:"doc_id"`
	Revision  int       `mapstructure:"revision"`
	Content   string    `mapstructure:"content"`
	CreatedAt time.Time `mapstructure:"created_at"`
}

// Store persists document snapshots and the sequenced operation log.
type Store interface {
	// CreateDocument fails with ErrDocumentExists for a known ID.
	CreateDocument(ctx context.Context, docID string) error
	DocumentExists(ctx context.Context, docID string) (bool, error)

	// SaveSnapshot replaces the snapshot of docID. Operations at or below
	// revision may be discarded.
	SaveSnapshot(ctx context.Context, docID string, revision int, content string) error

	// LoadSnapshot fails with ErrSnapshotNotFound if none was saved yet.
	LoadSnapshot(ctx context.Context, docID string) (Snapshot, error)

	AppendOperation(ctx context.Context, docID string, op ot.SequencedOperation) error

	// LoadOperations returns the logged operations with a revision above
	// sinceRevision, oldest first.
	LoadOperations(ctx context.Context, docID string, sinceRevision int) ([]ot.SequencedOperation, error)

	// LatestRevision is the revision of the last logged operation, or of the
	// snapshot when the log is empty.
	LatestRevision(ctx context.Context, docID string) (int, error)
}
