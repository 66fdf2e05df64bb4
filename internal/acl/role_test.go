package acl_test

import (
	"errors"
	"testing"

	"github.com/serroba/textot/internal/acl"
)

func TestRole_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		role     acl.Role
		expected string
	}{
		{acl.Viewer, "viewer"},
		{acl.Editor, "editor"},
		{acl.Owner, "owner"},
		{acl.Role(99), "unknown"},
		{acl.Role(-1), "unknown"},
	}

	for _, tt := range tests {
		if tt.role.String() != tt.expected {
			t.Errorf("expected %q, got %q", tt.expected, tt.role.String())
		}
	}
}

func TestParseRole(t *testing.T) {
	t.Parallel()

	for _, role := range []acl.Role{acl.Viewer, acl.Editor, acl.Owner} {
		got, err := acl.ParseRole(role.String())
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", role, err)
		}

		if got != role {
			t.Errorf("expected %s, got %s", role, got)
		}
	}

	if _, err := acl.ParseRole("admin"); !errors.Is(err, acl.ErrUnknownRole) {
		t.Errorf("expected ErrUnknownRole, got %v", err)
	}
}

func TestRole_Permissions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		role     acl.Role
		canRead  bool
		canWrite bool
		canEvict bool
	}{
		{acl.Viewer, true, false, false},
		{acl.Editor, true, true, false},
		{acl.Owner, true, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.role.String(), func(t *testing.T) {
			t.Parallel()

			if tt.role.CanRead() != tt.canRead {
				t.Errorf("CanRead: expected %v, got %v", tt.canRead, tt.role.CanRead())
			}

			if tt.role.CanWrite() != tt.canWrite {
				t.Errorf("CanWrite: expected %v, got %v", tt.canWrite, tt.role.CanWrite())
			}

			if tt.role.CanEvict() != tt.canEvict {
				t.Errorf("CanEvict: expected %v, got %v", tt.canEvict, tt.role.CanEvict())
			}
		})
	}
}
