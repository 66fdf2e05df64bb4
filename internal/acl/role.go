package acl

import "fmt"

// Role is a site's access level within one document session.
type Role int

const (
	// Viewer follows the document: reads content and maps cursors.
	Viewer Role = iota
	// Editor may also submit operations.
	Editor
	// Owner may also evict other sites.
	Owner
)

var roleNames = [...]string{
	Viewer: "viewer",
	Editor: "editor",
	Owner:  "owner",
}

func (r Role) String() string {
	if r < Viewer || r > Owner {
		return "unknown"
	}

	return roleNames[r]
}

// ParseRole returns the role called name.
func ParseRole(name string) (Role, error) {
	for r, n := range roleNames {
		if n == name {
			return Role(r), nil
		}
	}

	return 0, fmt.Errorf("%q: %w", name, ErrUnknownRole)
}

func (r Role) CanRead() bool {
	return r >= Viewer
}

func (r Role) CanWrite() bool {
	return r >= Editor
}

func (r Role) CanEvict() bool {
	return r >= Owner
}

// Permission is the role a site holds on a document.
type Permission struct {
	DocID string
	Site  string
	Name  string
	Role  Role
}
