package rbac

import (
	"errors"
	"fmt"
)

// ErrNotSeeded reports a checked (action, resource, condition) combination
// that has no seeded permission. This is a deployment defect, not an
// authorization outcome: callers must surface it, never treat it as deny.
var ErrNotSeeded = errors.New("rbac: permission not seeded")

// ErrUnknownCondition reports a condition tag outside the closed set.
var ErrUnknownCondition = errors.New("rbac: unknown condition")

// Grant keys the catalog.
type Grant struct {
	Action    Action
	Resource  Resource
	Condition Condition
}

// Catalog is the immutable-after-load index of seeded permissions, keyed
// by their (action, resource, condition) triple. It is built once from the
// store and passed by reference into the evaluator.
type Catalog struct {
	byGrant map[Grant]Permission
}

// NewCatalog indexes the given permissions. A duplicate triple means the
// seed produced two rows for the same grant and is rejected.
func NewCatalog(permissions []Permission) (*Catalog, error) {
	byGrant := make(map[Grant]Permission, len(permissions))
	for _, perm := range permissions {
		key := Grant{Action: perm.Action, Resource: perm.Resource, Condition: perm.Condition}
		if _, exists := byGrant[key]; exists {
			return nil, fmt.Errorf("rbac: duplicate permission %s/%s/%s", perm.Action, perm.Resource, perm.Condition)
		}
		byGrant[key] = perm
	}
	return &Catalog{byGrant: byGrant}, nil
}

// Lookup returns the seeded permission for a grant triple. A missing entry
// is a configuration error (ErrNotSeeded), not a deny.
func (c *Catalog) Lookup(action Action, resource Resource, condition Condition) (Permission, error) {
	perm, ok := c.byGrant[Grant{Action: action, Resource: resource, Condition: condition}]
	if !ok {
		return Permission{}, fmt.Errorf("%w: %s/%s/%s", ErrNotSeeded, action, resource, condition)
	}
	return perm, nil
}

// Covers reports whether any condition variant of (action, resource) is
// seeded. Routes guard combinations they expect to exist; a check against
// an uncovered pair indicates an incomplete catalog.
func (c *Catalog) Covers(action Action, resource Resource) bool {
	for key := range c.byGrant {
		if key.Action == action && key.Resource == resource {
			return true
		}
	}
	return false
}

// Len returns the number of seeded grants.
func (c *Catalog) Len() int {
	return len(c.byGrant)
}
