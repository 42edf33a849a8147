package users

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/inkpress/inkpress/internal/rbac"
	"github.com/inkpress/inkpress/internal/shared"
)

// RepositoryPort defines the persistence the account layer needs.
type RepositoryPort interface {
	List(ctx context.Context, q shared.ListQuery) ([]User, int, error)
	Get(ctx context.Context, id int64) (*User, error)
	Create(ctx context.Context, in CreateUserInput) (*User, error)
	Update(ctx context.Context, id int64, in UpdateUserInput) (*User, error)
	Delete(ctx context.Context, id int64) error
	SetActive(ctx context.Context, id int64, active bool) error
}

// RolesPort is the slice of the authorization service registration needs
// to grant the default role to new accounts.
type RolesPort interface {
	GetRoleByName(ctx context.Context, name string) (rbac.Role, error)
	AssignRole(ctx context.Context, userID, roleID int64) error
	RevokeRole(ctx context.Context, userID, roleID int64) error
}

// RegisterInput carries a registration request after transport decoding.
type RegisterInput struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Password  string
}

// Service implements account management.
type Service struct {
	repo  RepositoryPort
	roles RolesPort
}

func NewService(repo RepositoryPort, roles RolesPort) *Service {
	return &Service{repo: repo, roles: roles}
}

// Register creates an account and grants it the default role. Reserved
// usernames are rejected before touching the store.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	if IsReservedUsername(in.Username) {
		return nil, fmt.Errorf("%w: username %q is reserved", shared.ErrDuplicate, in.Username)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.repo.Create(ctx, CreateUserInput{
		Username:     in.Username,
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: string(hash),
	})
	if err != nil {
		return nil, err
	}

	role, err := s.roles.GetRoleByName(ctx, rbac.RoleUser)
	if err != nil {
		return nil, fmt.Errorf("default role lookup: %w", err)
	}
	if err := s.roles.AssignRole(ctx, u.ID, role.ID); err != nil {
		return nil, fmt.Errorf("assign default role: %w", err)
	}
	return u, nil
}

func (s *Service) List(ctx context.Context, q shared.ListQuery) ([]User, int, error) {
	return s.repo.List(ctx, q)
}

func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, in UpdateUserInput) (*User, error) {
	return s.repo.Update(ctx, id, in)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) SetActive(ctx context.Context, id int64, active bool) error {
	return s.repo.SetActive(ctx, id, active)
}

// AssignRole grants a role to an account.
func (s *Service) AssignRole(ctx context.Context, userID, roleID int64) error {
	if _, err := s.repo.Get(ctx, userID); err != nil {
		return err
	}
	return s.roles.AssignRole(ctx, userID, roleID)
}

// RevokeRole removes a role from an account.
func (s *Service) RevokeRole(ctx context.Context, userID, roleID int64) error {
	return s.roles.RevokeRole(ctx, userID, roleID)
}

var _ RepositoryPort = (*Repository)(nil)
