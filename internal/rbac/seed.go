package rbac

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/inkpress/inkpress/internal/platform/db"
)

type seedPermission struct {
	action      Action
	resource    Resource
	condition   Condition
	description string
}

type seedGrant struct {
	action    Action
	resource  Resource
	condition Condition
}

type seedRole struct {
	name        string
	description string
	rank        int
	// grants is nil for roles holding every seeded permission.
	grants []seedGrant
	all    bool
}

type seedUser struct {
	username string
	email    string
	role     string
}

// The static permission table. Every (action, resource, condition)
// combination checked by a route must appear here; the guard treats a
// missing row as a fatal configuration error.
var seedPermissions = []seedPermission{
	{ActionCreate, ResourcePermission, CondAlways, "Create permissions"},
	{ActionRead, ResourcePermission, CondAlways, "Read permissions"},
	{ActionUpdate, ResourcePermission, CondAlways, "Update permission data"},
	{ActionDelete, ResourcePermission, CondAlways, "Delete permissions"},
	{ActionList, ResourcePermission, CondAlways, "List permissions"},
	{ActionAssign, ResourcePermission, CondAlways, "Assign permissions"},
	{ActionRevoke, ResourcePermission, CondAlways, "Revoke permissions"},
	{ActionCreate, ResourceRole, CondAlways, "Create roles"},
	{ActionRead, ResourceRole, CondAlways, "Read roles"},
	{ActionUpdate, ResourceRole, CondAlways, "Update role data"},
	{ActionDelete, ResourceRole, CondAlways, "Delete roles"},
	{ActionList, ResourceRole, CondAlways, "List roles"},
	{ActionAssign, ResourceRole, CondAlways, "Assign roles"},
	{ActionRevoke, ResourceRole, CondAlways, "Revoke roles"},
	{ActionCreate, ResourceUser, CondAlways, "Create users"},
	{ActionRead, ResourceUser, CondAlways, "Read user data"},
	{ActionUpdate, ResourceUser, CondAlways, "Update user data"},
	{ActionDelete, ResourceUser, CondAlways, "Delete users"},
	{ActionList, ResourceUser, CondAlways, "List users"},
	{ActionImpersonate, ResourceUser, CondSuperior, "Impersonate inferior users"},
	{ActionActivate, ResourceUser, CondAlways, "Activate and deactivate users"},
	{ActionRead, ResourceUser, CondSelfOrSuperior, "Read inferior user data"},
	{ActionUpdate, ResourceUser, CondSelfOrSuperior, "Update inferior user data"},
	{ActionDelete, ResourceUser, CondSelfOrSuperior, "Delete inferior users"},
	{ActionRead, ResourceUser, CondSelf, "Read their own profile"},
	{ActionUpdate, ResourceUser, CondSelf, "Update their own profile"},
	{ActionDelete, ResourceUser, CondSelf, "Delete their own profile"},
	{ActionCreate, ResourceBlogTag, CondAlways, "Create blog tags"},
	{ActionUpdate, ResourceBlogTag, CondAlways, "Update blog tags"},
	{ActionDelete, ResourceBlogTag, CondAlways, "Delete blog tags"},
	{ActionCreate, ResourceBlogComment, CondAlways, "Comment on blog posts"},
	{ActionUpdate, ResourceBlogComment, CondAlways, "Update blog comments"},
	{ActionDelete, ResourceBlogComment, CondAlways, "Delete blog comments"},
	{ActionDelete, ResourceBlogComment, CondOwner, "Delete their own blog comments"},
	{ActionCreate, ResourceBlogPost, CondAlways, "Create blog posts"},
	{ActionCreateDraft, ResourceBlogPost, CondAlways, "Create blog post drafts"},
	{ActionReadDraft, ResourceBlogPost, CondAlways, "Read blog post drafts"},
	{ActionPublish, ResourceBlogPost, CondAlways, "Publish blog posts"},
	{ActionUpdate, ResourceBlogPost, CondAlways, "Update blog posts"},
	{ActionDelete, ResourceBlogPost, CondAlways, "Delete blog posts"},
	{ActionList, ResourceBlogPost, CondAlways, "List blog posts"},
}

var blogGrants = []seedGrant{
	{ActionCreateDraft, ResourceBlogPost, CondAlways},
	{ActionReadDraft, ResourceBlogPost, CondAlways},
	{ActionPublish, ResourceBlogPost, CondAlways},
	{ActionCreate, ResourceBlogPost, CondAlways},
	{ActionUpdate, ResourceBlogPost, CondAlways},
	{ActionDelete, ResourceBlogPost, CondAlways},
	{ActionCreate, ResourceBlogTag, CondAlways},
	{ActionUpdate, ResourceBlogTag, CondAlways},
	{ActionDelete, ResourceBlogTag, CondAlways},
}

var seedRoles = []seedRole{
	{
		name:        RoleSuperAdmin,
		description: "Ultimate system control - can do anything.",
		rank:        RankSuperAdmin,
		all:         true,
	},
	{
		name:        RoleAdmin,
		description: "User administration - manages users, roles, permissions and all blog content.",
		rank:        RankAdmin,
		grants: append([]seedGrant{
			{ActionCreate, ResourceUser, CondAlways},
			{ActionRead, ResourceUser, CondAlways},
			{ActionUpdate, ResourceUser, CondSelfOrSuperior},
			{ActionDelete, ResourceUser, CondSelfOrSuperior},
			{ActionList, ResourceUser, CondAlways},
			{ActionActivate, ResourceUser, CondAlways},
			{ActionImpersonate, ResourceUser, CondSuperior},
			{ActionCreate, ResourceRole, CondAlways},
			{ActionRead, ResourceRole, CondAlways},
			{ActionUpdate, ResourceRole, CondAlways},
			{ActionDelete, ResourceRole, CondAlways},
			{ActionList, ResourceRole, CondAlways},
			{ActionAssign, ResourceRole, CondAlways},
			{ActionRevoke, ResourceRole, CondAlways},
			{ActionCreate, ResourcePermission, CondAlways},
			{ActionRead, ResourcePermission, CondAlways},
			{ActionUpdate, ResourcePermission, CondAlways},
			{ActionDelete, ResourcePermission, CondAlways},
			{ActionList, ResourcePermission, CondAlways},
			{ActionAssign, ResourcePermission, CondAlways},
			{ActionRevoke, ResourcePermission, CondAlways},
			{ActionCreate, ResourceBlogComment, CondAlways},
			{ActionUpdate, ResourceBlogComment, CondAlways},
			{ActionDelete, ResourceBlogComment, CondAlways},
		}, blogGrants...),
	},
	{
		name:        RolePublisher,
		description: "Publisher - creates, edits and publishes blog posts.",
		rank:        RankPublisher,
		grants:      blogGrants,
	},
	{
		name:        RoleEditor,
		description: "Editor - creates, edits and publishes blog posts.",
		rank:        RankEditor,
		grants:      blogGrants,
	},
	{
		name:        RoleUser,
		description: "Normal user - manages their own profile and comments on blog posts.",
		rank:        RankUser,
		grants: []seedGrant{
			{ActionRead, ResourceUser, CondSelf},
			{ActionUpdate, ResourceUser, CondSelf},
			{ActionDelete, ResourceUser, CondSelf},
			{ActionCreate, ResourceBlogComment, CondAlways},
			{ActionDelete, ResourceBlogComment, CondOwner},
		},
	},
}

var seedUsers = []seedUser{
	{username: "super_admin", email: "super_admin@example.com", role: RoleSuperAdmin},
	{username: "admin", email: "admin@example.com", role: RoleAdmin},
	{username: "publisher", email: "publisher@example.com", role: RolePublisher},
	{username: "editor", email: "editor@example.com", role: RoleEditor},
	{username: "user", email: "user@example.com", role: RoleUser},
}

// Seeder populates the permission catalog, the role set and the default
// accounts. Running it again is a no-op: every insert is keyed on the
// natural unique constraint.
type Seeder struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewSeeder constructs a Seeder.
func NewSeeder(pool *pgxpool.Pool, logger *slog.Logger) *Seeder {
	return &Seeder{pool: pool, logger: logger}
}

// Run seeds permissions, roles and default users in one transaction.
func (s *Seeder) Run(ctx context.Context, defaultPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(defaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("rbac: hash default password: %w", err)
	}
	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		if err := s.seedPermissions(ctx, tx); err != nil {
			return err
		}
		if err := s.seedRoles(ctx, tx); err != nil {
			return err
		}
		return s.seedUsers(ctx, tx, string(hash))
	})
}

// PermissionName derives the unique permission name from its grant triple.
func PermissionName(action Action, resource Resource, condition Condition) string {
	return fmt.Sprintf("%s_%s_%s", action, resource, condition)
}

func (s *Seeder) seedPermissions(ctx context.Context, tx pgx.Tx) error {
	for _, perm := range seedPermissions {
		name := PermissionName(perm.action, perm.resource, perm.condition)
		_, err := tx.Exec(ctx,
			`INSERT INTO permissions (name, action, resource, condition, description)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (action, resource, condition) DO NOTHING`,
			name, perm.action, perm.resource, perm.condition, perm.description)
		if err != nil {
			return fmt.Errorf("rbac: seed permission %s: %w", name, err)
		}
	}
	return nil
}

func (s *Seeder) seedRoles(ctx context.Context, tx pgx.Tx) error {
	for _, role := range seedRoles {
		var roleID int64
		err := tx.QueryRow(ctx,
			`INSERT INTO roles (name, description, rank)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (name) DO UPDATE SET description = EXCLUDED.description, rank = EXCLUDED.rank
			 RETURNING id`,
			role.name, role.description, role.rank).Scan(&roleID)
		if err != nil {
			return fmt.Errorf("rbac: seed role %s: %w", role.name, err)
		}

		if role.all {
			_, err = tx.Exec(ctx,
				`INSERT INTO role_permissions (role_id, permission_id)
				 SELECT $1, id FROM permissions
				 ON CONFLICT DO NOTHING`, roleID)
			if err != nil {
				return fmt.Errorf("rbac: grant all to %s: %w", role.name, err)
			}
			continue
		}
		for _, grant := range role.grants {
			_, err = tx.Exec(ctx,
				`INSERT INTO role_permissions (role_id, permission_id)
				 SELECT $1, id FROM permissions
				 WHERE action = $2 AND resource = $3 AND condition = $4
				 ON CONFLICT DO NOTHING`,
				roleID, grant.action, grant.resource, grant.condition)
			if err != nil {
				return fmt.Errorf("rbac: grant %s/%s/%s to %s: %w",
					grant.action, grant.resource, grant.condition, role.name, err)
			}
		}
	}
	return nil
}

func (s *Seeder) seedUsers(ctx context.Context, tx pgx.Tx, passwordHash string) error {
	for _, user := range seedUsers {
		var userID int64
		err := tx.QueryRow(ctx,
			`INSERT INTO users (username, email, password_hash, is_active)
			 VALUES ($1, $2, $3, TRUE)
			 ON CONFLICT (username) DO UPDATE SET email = EXCLUDED.email
			 RETURNING id`,
			user.username, user.email, passwordHash).Scan(&userID)
		if err != nil {
			return fmt.Errorf("rbac: seed user %s: %w", user.username, err)
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO user_roles (user_id, role_id)
			 SELECT $1, id FROM roles WHERE name = $2
			 ON CONFLICT DO NOTHING`, userID, user.role)
		if err != nil {
			return fmt.Errorf("rbac: assign role %s: %w", user.role, err)
		}
		if s.logger != nil {
			s.logger.Info("seeded account", slog.String("username", user.username), slog.String("role", user.role))
		}
	}
	return nil
}

// SeedCatalogPermissions exposes the static permission table for catalog
// construction in environments without a database (tests, dry runs).
func SeedCatalogPermissions() []Permission {
	perms := make([]Permission, 0, len(seedPermissions))
	for i, perm := range seedPermissions {
		perms = append(perms, Permission{
			ID:          int64(i + 1),
			Name:        PermissionName(perm.action, perm.resource, perm.condition),
			Action:      perm.action,
			Resource:    perm.resource,
			Condition:   perm.condition,
			Description: perm.description,
		})
	}
	return perms
}
