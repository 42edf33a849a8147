package auth

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/inkpress/inkpress/internal/shared"
)

// Service wraps authentication business rules: credential checks, token
// issuance and revocation.
type Service struct {
	repo     Repository
	tokens   *TokenIssuer
	denylist *Denylist
}

// NewService constructs a new Service.
func NewService(repo Repository, tokens *TokenIssuer, denylist *Denylist) *Service {
	return &Service{repo: repo, tokens: tokens, denylist: denylist}
}

// Authenticate validates username/password credentials. Unknown user,
// wrong password and a deactivated account are indistinguishable to the
// caller.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// IssueToken signs an access token for an authenticated user, stamps the
// login and records the session for auditing.
func (s *Service) IssueToken(ctx context.Context, user *User, ip, ua string) (string, error) {
	signed, claims, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", err
	}
	if err := s.repo.TouchLastLogin(ctx, user.ID); err != nil {
		return "", err
	}
	if err := s.repo.CreateSession(ctx, claims.ID, user.ID, claims.ExpiresAt.Time, ip, ua); err != nil {
		return "", err
	}
	return signed, nil
}

// RevokeToken denylists a token until its expiry and drops its session row.
func (s *Service) RevokeToken(ctx context.Context, claims *Claims) error {
	expiresAt := time.Now()
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	if err := s.denylist.Revoke(ctx, claims.ID, expiresAt); err != nil {
		return err
	}
	return s.repo.DeleteSession(ctx, claims.ID)
}

// IsRevoked reports whether the token has been revoked since issuance.
func (s *Service) IsRevoked(ctx context.Context, claims *Claims) (bool, error) {
	return s.denylist.IsRevoked(ctx, claims.ID)
}

// Parse validates a raw bearer token.
func (s *Service) Parse(signed string) (*Claims, error) {
	return s.tokens.Parse(signed)
}
