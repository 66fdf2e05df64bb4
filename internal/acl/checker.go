package acl

import (
	"errors"
	"fmt"
)

// Action is something a site asks to do in a session.
type Action int

const (
	ActionRead Action = iota
	ActionWrite
	ActionEvict
)

func (a Action) String() string {
	switch a {
	case ActionRead:
		return "read"
	case ActionWrite:
		return "write"
	case ActionEvict:
		return "evict"
	default:
		return "unknown"
	}
}

// Checker answers permission questions from a Store.
type Checker struct {
	store Store
}

func NewChecker(store Store) *Checker {
	return &Checker{store: store}
}

// CanPerform reports whether site may perform action on docID. A site without
// a permission may do nothing.
func (c *Checker) CanPerform(docID, site string, action Action) (bool, error) {
	p, err := c.store.GetPermission(docID, site)
	if errors.Is(err, ErrUnknownSite) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return allows(p.Role, action), nil
}

// RequirePermission returns the site's permission if it allows action. An
// unregistered site gets ErrUnknownSite, an insufficient role ErrAccessDenied.
func (c *Checker) RequirePermission(docID, site string, action Action) (Permission, error) {
	p, err := c.store.GetPermission(docID, site)
	if err != nil {
		return Permission{}, fmt.Errorf("%s: %w", site, err)
	}

	if !allows(p.Role, action) {
		return Permission{}, fmt.Errorf("%s (%s) cannot %s: %w", p.Name, p.Role, action, ErrAccessDenied)
	}

	return p, nil
}

func allows(role Role, action Action) bool {
	switch action {
	case ActionRead:
		return role.CanRead()
	case ActionWrite:
		return role.CanWrite()
	case ActionEvict:
		return role.CanEvict()
	default:
		return false
	}
}
