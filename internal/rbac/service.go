package rbac

import "context"

// RepositoryPort defines the persistence the authorization layer needs.
type RepositoryPort interface {
	GetUserGraph(ctx context.Context, userID int64) (*User, error)
	ListPermissions(ctx context.Context) ([]Permission, error)
	ListRoles(ctx context.Context) ([]Role, error)
	ListRolePermissions(ctx context.Context, roleID int64) ([]Permission, error)
	GetRoleByName(ctx context.Context, name string) (Role, error)
	AttachPermission(ctx context.Context, roleID, permissionID int64) error
	DetachPermission(ctx context.Context, roleID, permissionID int64) error
	AssignRole(ctx context.Context, userID, roleID int64) error
	RevokeRole(ctx context.Context, userID, roleID int64) error
}

// Service exposes the administrative RBAC operations and the per-request
// identity graph loads. Mutations go straight to the store; the next
// GetUserGraph call observes them, so grants take effect without restarts.
type Service struct {
	repo RepositoryPort
}

// NewService constructs a Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ResolveActor loads the full authorization view of a user.
func (s *Service) ResolveActor(ctx context.Context, userID int64) (*User, error) {
	return s.repo.GetUserGraph(ctx, userID)
}

// LoadCatalog builds the permission catalog from the store. Called once at
// startup; a failure here means the deployment is unusable.
func (s *Service) LoadCatalog(ctx context.Context) (*Catalog, error) {
	perms, err := s.repo.ListPermissions(ctx)
	if err != nil {
		return nil, err
	}
	return NewCatalog(perms)
}

// GetRoleByName looks a role up by its unique name.
func (s *Service) GetRoleByName(ctx context.Context, name string) (Role, error) {
	return s.repo.GetRoleByName(ctx, name)
}

// ListRoles returns all roles.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.repo.ListRoles(ctx)
}

// ListPermissions returns all seeded permissions.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.repo.ListPermissions(ctx)
}

// ListRolePermissions returns the permissions currently held by a role.
func (s *Service) ListRolePermissions(ctx context.Context, roleID int64) ([]Permission, error) {
	return s.repo.ListRolePermissions(ctx, roleID)
}

// AttachPermission grants a permission to a role.
func (s *Service) AttachPermission(ctx context.Context, roleID, permissionID int64) error {
	return s.repo.AttachPermission(ctx, roleID, permissionID)
}

// DetachPermission revokes a permission from a role.
func (s *Service) DetachPermission(ctx context.Context, roleID, permissionID int64) error {
	return s.repo.DetachPermission(ctx, roleID, permissionID)
}

// AssignRole adds a role to a user.
func (s *Service) AssignRole(ctx context.Context, userID, roleID int64) error {
	return s.repo.AssignRole(ctx, userID, roleID)
}

// RevokeRole removes a role from a user.
func (s *Service) RevokeRole(ctx context.Context, userID, roleID int64) error {
	return s.repo.RevokeRole(ctx, userID, roleID)
}

var _ RepositoryPort = (*Repository)(nil)
