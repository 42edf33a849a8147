package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/inkpress/inkpress/internal/rbac"
)

// ActorResolver loads the authorization view of a user id: the account
// with roles and each role's permissions eagerly attached.
type ActorResolver interface {
	ResolveActor(ctx context.Context, userID int64) (*rbac.User, error)
}

type claimsContextKey struct{}

// ClaimsFromContext returns the token claims of the current request, nil
// for anonymous requests.
func ClaimsFromContext(ctx context.Context) *Claims {
	claims, _ := ctx.Value(claimsContextKey{}).(*Claims)
	return claims
}

// Authenticator resolves bearer credentials into an actor on the request
// context. Absent, malformed, expired and revoked tokens all collapse to
// the anonymous actor; distinguishing them is not the guard's business.
type Authenticator struct {
	Service  *Service
	Resolver ActorResolver
	Logger   *slog.Logger
}

// Middleware installs identity resolution on every request.
func (a Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if claims, actor := a.resolve(ctx, r); actor != nil {
			ctx = context.WithValue(ctx, claimsContextKey{}, claims)
			ctx = rbac.ContextWithActor(ctx, actor)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a Authenticator) resolve(ctx context.Context, r *http.Request) (*Claims, *rbac.User) {
	authorization := r.Header.Get("Authorization")
	if authorization == "" {
		return nil, nil
	}
	scheme, token, found := strings.Cut(authorization, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return nil, nil
	}

	claims, err := a.Service.Parse(token)
	if err != nil {
		return nil, nil
	}
	if revoked, err := a.Service.IsRevoked(ctx, claims); err != nil || revoked {
		if err != nil && a.Logger != nil {
			a.Logger.Warn("denylist lookup", slog.Any("error", err))
		}
		return nil, nil
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, nil
	}
	actor, err := a.Resolver.ResolveActor(ctx, userID)
	if err != nil {
		return nil, nil
	}
	if !actor.IsActive {
		return nil, nil
	}
	return claims, actor
}
