// Package rbac implements the role based authorization engine: the
// permission catalog, the condition evaluator and the per-request
// access guard used by every protected HTTP route.
package rbac

import "time"

// Action is the verb of a requested operation.
type Action string

// Closed set of actions recognised by the catalog.
const (
	ActionList        Action = "list"
	ActionCreate      Action = "create"
	ActionRead        Action = "read"
	ActionUpdate      Action = "update"
	ActionDelete      Action = "delete"
	ActionActivate    Action = "activate"
	ActionImpersonate Action = "impersonate"
	ActionAssign      Action = "assign"
	ActionRevoke      Action = "revoke"
	ActionCreateDraft Action = "create_draft"
	ActionReadDraft   Action = "read_draft"
	ActionUpdateDraft Action = "update_draft"
	ActionDeleteDraft Action = "delete_draft"
	ActionPublish     Action = "publish"
)

// Resource tags the entity type an action targets.
type Resource string

// Closed set of protected resource types.
const (
	ResourceUser        Resource = "user"
	ResourceRole        Resource = "role"
	ResourcePermission  Resource = "permission"
	ResourceBlogPost    Resource = "blog_post"
	ResourceBlogTag     Resource = "blog_tag"
	ResourceBlogComment Resource = "blog_comment"
)

// Condition gates whether a held permission applies to a specific item.
type Condition string

const (
	// CondAlways grants unconditionally once the role holds the permission.
	CondAlways Condition = "always"
	// CondOwner grants only when the item's owner reference equals the actor.
	CondOwner Condition = "owner"
	// CondSelf grants only when the item is the actor's own record.
	CondSelf Condition = "self"
	// CondSuperior grants only when the actor outranks the item, strictly.
	CondSuperior Condition = "superior"
	// CondSelfOrSuperior is the union of CondSelf and CondSuperior.
	CondSelfOrSuperior Condition = "self_or_superior"
)

// Role ranks used by the seed catalog. Publisher and editor share a rank
// on purpose: superior is strict, so same-rank roles are peers.
const (
	RankNone       = 0
	RankUser       = 10
	RankEditor     = 50
	RankPublisher  = 50
	RankAdmin      = 80
	RankSuperAdmin = 100
)

// Role names of the seed catalog.
const (
	RoleSuperAdmin = "super_admin"
	RoleAdmin      = "admin"
	RolePublisher  = "publisher"
	RoleEditor     = "editor"
	RoleUser       = "user"
)

// Permission represents an atomic grant: an action on a resource type,
// gated by a condition. The (action, resource, condition) triple is unique.
type Permission struct {
	ID          int64
	Name        string
	Action      Action
	Resource    Resource
	Condition   Condition
	Description string
	CreatedAt   time.Time
}

// Role groups permissions under a name and a rank.
type Role struct {
	ID          int64
	Name        string
	Description string
	Rank        int
	Permissions []Permission
	CreatedAt   time.Time
}

// User is the authorization view of an account: identity plus the fully
// loaded role graph. A nil *User is the anonymous actor.
type User struct {
	ID       int64
	Username string
	IsActive bool
	Roles    []Role
}

// HighestRank returns the maximum rank across the user's roles, or
// RankNone for a user without roles and for the anonymous actor.
func (u *User) HighestRank() int {
	if u == nil {
		return RankNone
	}
	highest := RankNone
	for _, role := range u.Roles {
		if role.Rank > highest {
			highest = role.Rank
		}
	}
	return highest
}

// Owned is implemented by entities that carry an owner reference,
// such as blog posts (author) and comments.
type Owned interface {
	OwnerID() int64
}

// Ranked is implemented by entities whose seniority can be compared
// against the actor. Only identity-typed entities bear a rank.
type Ranked interface {
	HighestRank() int
}

// Publishable is implemented by entities with a publication lifecycle.
// Reading an unpublished item is gated purely by this state for actors
// that do not hold the unconditional read_draft grant.
type Publishable interface {
	IsPublished() bool
}
