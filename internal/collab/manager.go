package collab

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/serroba/textot/internal/acl"
	"github.com/serroba/textot/internal/storage"
)

// Manager owns the open sessions, one per document. Every session it opens
// shares the manager's stores, snapshot policy and logger, so site grants
// outlive a session that is closed and reopened.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	template SessionConfig
	log      zerolog.Logger
}

// ManagerConfig holds configuration for creating a manager.
type ManagerConfig struct {
	Store          storage.Store
	ACL            acl.Store // in-memory when nil
	SnapshotPolicy *storage.SnapshotPolicy
	HistorySize    int
	MergeEdits     bool
	Logger         *zerolog.Logger
}

// NewManager creates a new session manager.
func NewManager(cfg ManagerConfig) *Manager {
	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = *cfg.Logger
	}

	perms := cfg.ACL
	if perms == nil {
		perms = acl.NewMemoryStore()
	}

	return &Manager{
		sessions: make(map[string]*Session),
		template: SessionConfig{
			Store:          cfg.Store,
			ACL:            perms,
			SnapshotPolicy: cfg.SnapshotPolicy,
			HistorySize:    cfg.HistorySize,
			MergeEdits:     cfg.MergeEdits,
			Logger:         cfg.Logger,
		},
		log: log,
	}
}

// GetOrCreateSession returns the session for docID, creating the document
// and loading it on first use.
func (m *Manager) GetOrCreateSession(ctx context.Context, docID string) (*Session, error) {
	if session := m.GetSession(docID); session != nil {
		return session, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if session, ok := m.sessions[docID]; ok {
		return session, nil
	}

	session, err := m.open(ctx, docID)
	if err != nil {
		return nil, err
	}

	m.sessions[docID] = session

	return session, nil
}

// open creates the stored document if needed and loads a session for it.
func (m *Manager) open(ctx context.Context, docID string) (*Session, error) {
	err := m.template.Store.CreateDocument(ctx, docID)
	if err != nil && !errors.Is(err, storage.ErrDocumentExists) {
		return nil, fmt.Errorf("create %s: %w", docID, err)
	}

	cfg := m.template
	cfg.DocID = docID

	session := NewSession(cfg)
	if err := session.Load(ctx); err != nil {
		return nil, err
	}

	m.log.Debug().Str("doc", docID).Msg("session opened")

	return session, nil
}

// GetSession returns an existing session or nil if not found.
func (m *Manager) GetSession(docID string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.sessions[docID]
}

// CloseSession closes the session for docID and forgets it. Closing an
// unknown document is not an error. A session whose final snapshot fails
// stays registered.
func (m *Manager) CloseSession(ctx context.Context, docID string) error {
	session := m.GetSession(docID)
	if session == nil {
		return nil
	}

	if err := m.close(ctx, session); err != nil {
		return err
	}

	m.forget(session)

	return nil
}

// CloseAll closes every session and returns the errors joined. Sessions that
// fail to close stay registered.
func (m *Manager) CloseAll(ctx context.Context) error {
	m.mu.RLock()
	sessions := slices.Collect(maps.Values(m.sessions))
	m.mu.RUnlock()

	var errs []error

	for _, session := range sessions {
		if err := m.close(ctx, session); err != nil {
			errs = append(errs, err)

			continue
		}

		m.forget(session)
	}

	return errors.Join(errs...)
}

func (m *Manager) forget(session *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sessions[session.DocID()] == session {
		delete(m.sessions, session.DocID())
	}
}

func (m *Manager) close(ctx context.Context, session *Session) error {
	if err := session.Close(ctx); err != nil {
		m.log.Error().Err(err).Str("doc", session.DocID()).Msg("session close failed")

		return fmt.Errorf("close %s: %w", session.DocID(), err)
	}

	m.log.Debug().Str("doc", session.DocID()).Msg("session closed")

	return nil
}

// SessionCount returns the number of active sessions.
func (m *Manager) SessionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.sessions)
}
