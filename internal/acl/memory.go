package acl

import (
	"cmp"
	"slices"
	"sync"
)

type siteKey struct {
	docID string
	site  string
}

// MemoryStore keeps permissions in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	perms map[siteKey]Permission
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		perms: make(map[siteKey]Permission),
	}
}

func (m *MemoryStore) Grant(p Permission) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.perms[siteKey{docID: p.DocID, site: p.Site}] = p

	return nil
}

func (m *MemoryStore) Revoke(docID, site string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := siteKey{docID: docID, site: site}
	if _, ok := m.perms[key]; !ok {
		return ErrUnknownSite
	}

	delete(m.perms, key)

	return nil
}

func (m *MemoryStore) GetPermission(docID, site string) (Permission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.perms[siteKey{docID: docID, site: site}]
	if !ok {
		return Permission{}, ErrUnknownSite
	}

	return p, nil
}

func (m *MemoryStore) ListPermissions(docID string) ([]Permission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []Permission

	for key, p := range m.perms {
		if key.docID == docID {
			result = append(result, p)
		}
	}

	slices.SortFunc(result, func(a, b Permission) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.Site, b.Site))
	})

	return result, nil
}

var _ Store = (*MemoryStore)(nil)
