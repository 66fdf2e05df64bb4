package collab

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/serroba/textot/internal/acl"
	"github.com/serroba/textot/internal/ot"
	"github.com/serroba/textot/internal/storage"
)

// Common errors.
var (
	ErrSessionClosed = errors.New("session is closed")
	ErrUnknownSite   = acl.ErrUnknownSite
)

const defaultHistorySize = 100

// Session serializes the operations submitted for one document. Each
// operation is transformed against everything sequenced since the revision
// its author last saw, applied, logged, and turned into edit records.
type Session struct {
	docID string

	mu       sync.RWMutex
	document *ot.Document
	queue    *ot.Queue
	closed   bool

	perms          acl.Store
	checker        *acl.Checker
	store          storage.Store
	snapshotPolicy *storage.SnapshotPolicy
	mergeEdits     bool
	log            zerolog.Logger
}

// SessionConfig holds configuration for creating a session.
type SessionConfig struct {
	DocID          string
	Store          storage.Store
	ACL            acl.Store // in-memory when nil
	SnapshotPolicy *storage.SnapshotPolicy
	HistorySize    int
	MergeEdits     bool
	Logger         *zerolog.Logger
}

// NewSession creates a session. Call Load before submitting operations.
func NewSession(cfg SessionConfig) *Session {
	historySize := cfg.HistorySize
	if historySize == 0 {
		historySize = defaultHistorySize
	}

	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = cfg.Logger.With().Str("doc", cfg.DocID).Logger()
	}

	perms := cfg.ACL
	if perms == nil {
		perms = acl.NewMemoryStore()
	}

	return &Session{
		docID:          cfg.DocID,
		document:       ot.NewDocument(""),
		queue:          ot.NewQueue(historySize, log),
		perms:          perms,
		checker:        acl.NewChecker(perms),
		store:          cfg.Store,
		snapshotPolicy: cfg.SnapshotPolicy,
		mergeEdits:     cfg.MergeEdits,
		log:            log,
	}
}

// Load restores the document from storage.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}

	result, err := storage.NewDocumentLoader(s.store).Load(ctx, s.docID)
	if err != nil {
		return fmt.Errorf("load %s: %w", s.docID, err)
	}

	s.document = ot.NewDocument(result.Content)
	s.queue.Reset(result.Revision)

	if s.snapshotPolicy != nil {
		s.snapshotPolicy.Saved(s.docID, result.SnapshotRevision)
	}

	s.log.Info().Int("revision", result.Revision).Bool("new", result.IsNew).Msg("session loaded")

	return nil
}

// Join registers a participant with role and returns its site ID.
func (s *Session) Join(name string, role acl.Role) (string, error) {
	site := uuid.NewString()

	err := s.perms.Grant(acl.Permission{DocID: s.docID, Site: site, Name: name, Role: role})
	if err != nil {
		return "", fmt.Errorf("join %s: %w", name, err)
	}

	s.log.Debug().Str("site", site).Str("name", name).Stringer("role", role).Msg("site joined")

	return site, nil
}

// Leave forgets a site.
func (s *Session) Leave(site string) error {
	return s.perms.Revoke(s.docID, site)
}

// Evict removes site on behalf of by, which must be an owner.
func (s *Session) Evict(by, site string) error {
	owner, err := s.checker.RequirePermission(s.docID, by, acl.ActionEvict)
	if err != nil {
		return err
	}

	if err := s.perms.Revoke(s.docID, site); err != nil {
		return fmt.Errorf("%s: %w", site, err)
	}

	s.log.Info().Str("by", owner.Name).Str("site", site).Msg("site evicted")

	return nil
}

// Participants lists the sites registered on the document.
func (s *Session) Participants() ([]acl.Permission, error) {
	return s.perms.ListPermissions(s.docID)
}

// Result is the outcome of a submitted operation.
type Result struct {
	Revision  int
	Operation ot.Operation
	Edits     []ot.Edit
}

// Submit sequences op, generated by site against baseRevision.
func (s *Session) Submit(ctx context.Context, site string, op ot.Operation, baseRevision int) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Result{}, ErrSessionClosed
	}

	if _, err := s.checker.RequirePermission(s.docID, site, acl.ActionWrite); err != nil {
		return Result{}, err
	}

	transformed, err := s.queue.Transform(op, baseRevision)
	if err != nil {
		s.log.Warn().Err(err).Str("site", site).Int("base", baseRevision).Msg("operation rejected")

		return Result{}, err
	}

	content, err := ot.ApplyTo(s.document.Content(), transformed)
	if err != nil {
		s.log.Error().Err(err).Str("site", site).Stringer("op", transformed).Msg("transformed operation does not apply")

		return Result{}, err
	}

	// Nothing in memory moves until the store holds the revision.
	seqOp := ot.SequencedOperation{Operation: transformed, Revision: s.queue.Revision() + 1, Site: site}

	if err := s.store.AppendOperation(ctx, s.docID, seqOp); err != nil {
		return Result{}, fmt.Errorf("persist revision %d: %w", seqOp.Revision, err)
	}

	s.document = ot.NewDocument(content)
	s.queue.Push(transformed, site)

	s.maybeSnapshot(ctx, seqOp.Revision)

	return Result{
		Revision:  seqOp.Revision,
		Operation: transformed,
		Edits:     ot.ToEdits(transformed, site, s.docID, s.mergeEdits),
	}, nil
}

// maybeSnapshot writes a snapshot when the policy says one is due. A failed
// snapshot is logged and retried after the next operation.
func (s *Session) maybeSnapshot(ctx context.Context, revision int) {
	if s.snapshotPolicy == nil || !s.snapshotPolicy.Due(s.docID, revision) {
		return
	}

	if err := s.saveSnapshot(ctx); err != nil {
		s.log.Error().Err(err).Int("revision", revision).Msg("snapshot failed")
	}
}

func (s *Session) saveSnapshot(ctx context.Context) error {
	revision := s.queue.Revision()

	if err := s.store.SaveSnapshot(ctx, s.docID, revision, s.document.Content()); err != nil {
		return err
	}

	if s.snapshotPolicy != nil {
		s.snapshotPolicy.Saved(s.docID, revision)
	}

	s.log.Debug().Int("revision", revision).Msg("snapshot saved")

	return nil
}

// Cursor maps a cursor position site saw at baseRevision to the current
// document.
func (s *Session) Cursor(site string, pos ot.Position, baseRevision int) (ot.Position, error) {
	if _, err := s.checker.RequirePermission(s.docID, site, acl.ActionRead); err != nil {
		return ot.Position{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queue.TransformIndex(pos, baseRevision)
}

// Read returns the current content and revision as seen by site.
func (s *Session) Read(site string) (string, int, error) {
	if _, err := s.checker.RequirePermission(s.docID, site, acl.ActionRead); err != nil {
		return "", 0, err
	}

	return s.State()
}

// State returns the current content and revision without a permission check.
func (s *Session) State() (string, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return "", 0, ErrSessionClosed
	}

	return s.document.Content(), s.queue.Revision(), nil
}

// DocID returns the document ID for this session.
func (s *Session) DocID() string {
	return s.docID
}

// Revision returns the current revision number.
func (s *Session) Revision() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queue.Revision()
}

// Close saves a final snapshot and refuses further work. The session stays
// open if the snapshot fails, so Close can be retried. Later calls do nothing.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	if err := s.saveSnapshot(ctx); err != nil {
		return fmt.Errorf("final snapshot: %w", err)
	}

	s.closed = true

	return nil
}
