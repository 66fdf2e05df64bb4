package acl_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serroba/textot/internal/acl"
)

func TestMemoryStore_Grant(t *testing.T) {
	t.Parallel()

	store := acl.NewMemoryStore()
	grant(t, store, "site1", acl.Editor)

	p, err := store.GetPermission("doc1", "site1")
	require.NoError(t, err)

	if p.Role != acl.Editor {
		t.Errorf("expected editor, got %s", p.Role)
	}
}

func TestMemoryStore_Grant_OverwritesExisting(t *testing.T) {
	t.Parallel()

	store := acl.NewMemoryStore()
	grant(t, store, "site1", acl.Viewer)
	grant(t, store, "site1", acl.Owner)

	p, err := store.GetPermission("doc1", "site1")
	require.NoError(t, err)

	if p.Role != acl.Owner {
		t.Errorf("expected owner after overwrite, got %s", p.Role)
	}
}

func TestMemoryStore_Revoke(t *testing.T) {
	t.Parallel()

	store := acl.NewMemoryStore()
	grant(t, store, "site1", acl.Editor)
	require.NoError(t, store.Revoke("doc1", "site1"))

	_, err := store.GetPermission("doc1", "site1")
	if !errors.Is(err, acl.ErrUnknownSite) {
		t.Errorf("expected ErrUnknownSite, got %v", err)
	}

	if err := store.Revoke("doc1", "site1"); !errors.Is(err, acl.ErrUnknownSite) {
		t.Errorf("expected ErrUnknownSite revoking twice, got %v", err)
	}
}

func TestMemoryStore_ListPermissions(t *testing.T) {
	t.Parallel()

	store := acl.NewMemoryStore()
	require.NoError(t, store.Grant(acl.Permission{DocID: "doc1", Site: "s2", Name: "bob", Role: acl.Editor}))
	require.NoError(t, store.Grant(acl.Permission{DocID: "doc1", Site: "s3", Name: "alice", Role: acl.Viewer}))
	require.NoError(t, store.Grant(acl.Permission{DocID: "doc1", Site: "s1", Name: "alice", Role: acl.Owner}))
	require.NoError(t, store.Grant(acl.Permission{DocID: "doc2", Site: "s4", Name: "carol", Role: acl.Owner}))

	perms, err := store.ListPermissions("doc1")
	require.NoError(t, err)
	require.Len(t, perms, 3)

	assert.Equal(t, "s1", perms[0].Site)
	assert.Equal(t, "s3", perms[1].Site)
	assert.Equal(t, "bob", perms[2].Name)

	empty, err := store.ListPermissions("doc3")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	store := acl.NewMemoryStore()

	var wg sync.WaitGroup

	for i := range 10 {
		wg.Add(1)

		go func(n int) {
			defer wg.Done()

			site := fmt.Sprintf("site%d", n)
			_ = store.Grant(acl.Permission{DocID: "doc1", Site: site, Name: site, Role: acl.Editor})
		}(i)
	}

	wg.Wait()

	perms, err := store.ListPermissions("doc1")
	require.NoError(t, err)

	if len(perms) != 10 {
		t.Errorf("expected 10 permissions, got %d", len(perms))
	}
}
