package acl

import "errors"

var (
	ErrUnknownSite  = errors.New("unknown site")
	ErrAccessDenied = errors.New("access denied")
	ErrUnknownRole  = errors.New("unknown role")
)

// Store keeps the permissions of the sites taking part in each document.
type Store interface {
	// Grant replaces any permission the site already holds on the document.
	Grant(p Permission) error

	// Revoke fails with ErrUnknownSite when the site holds no permission.
	Revoke(docID, site string) error

	// GetPermission fails with ErrUnknownSite when the site holds no permission.
	GetPermission(docID, site string) (Permission, error)

	// ListPermissions returns the permissions on docID ordered by name, then site.
	ListPermissions(docID string) ([]Permission, error)
}
