package rbac

// Test fixtures shared across the rbac package tests.

// draftPost stands in for a blog post in authorization tests.
type draftPost struct {
	id        int64
	authorID  int64
	published bool
}

func (p *draftPost) OwnerID() int64    { return p.authorID }
func (p *draftPost) IsPublished() bool { return p.published }

// grantRole builds a role holding the given grants.
func grantRole(name string, rank int, grants ...Grant) Role {
	role := Role{Name: name, Rank: rank}
	for _, grant := range grants {
		role.Permissions = append(role.Permissions, Permission{
			Name:      PermissionName(grant.Action, grant.Resource, grant.Condition),
			Action:    grant.Action,
			Resource:  grant.Resource,
			Condition: grant.Condition,
		})
	}
	return role
}

// seededEvaluator builds an evaluator over the full static catalog.
func seededEvaluator() *Evaluator {
	catalog, err := NewCatalog(SeedCatalogPermissions())
	if err != nil {
		panic(err)
	}
	return NewEvaluator(catalog)
}
