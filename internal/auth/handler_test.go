package auth_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/inkpress/inkpress/internal/auth"
	"github.com/inkpress/inkpress/internal/rbac"
	"github.com/inkpress/inkpress/internal/shared"
)

type stubRepo struct {
	user     *auth.User
	sessions map[string]int64
}

func (s *stubRepo) FindByUsername(ctx context.Context, username string) (*auth.User, error) {
	if s.user == nil || s.user.Username != username {
		return nil, shared.ErrNotFound
	}
	return s.user, nil
}

func (s *stubRepo) TouchLastLogin(ctx context.Context, userID int64) error { return nil }

func (s *stubRepo) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	if s.sessions == nil {
		s.sessions = make(map[string]int64)
	}
	s.sessions[id] = userID
	return nil
}

func (s *stubRepo) DeleteSession(ctx context.Context, id string) error {
	delete(s.sessions, id)
	return nil
}

type stubResolver struct {
	actor *rbac.User
}

func (s *stubResolver) ResolveActor(ctx context.Context, userID int64) (*rbac.User, error) {
	if s.actor == nil || s.actor.ID != userID {
		return nil, shared.ErrNotFound
	}
	return s.actor, nil
}

func newService(t *testing.T, repo auth.Repository) *auth.Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	denylist := auth.NewDenylist(client)
	tokens := auth.NewTokenIssuer("secret", time.Hour)
	return auth.NewService(repo, tokens, denylist)
}

func activeUser(t *testing.T, password string) *auth.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &auth.User{ID: 1, Username: "writer", Email: "writer@test.local", PasswordHash: string(hashed), IsActive: true}
}

func newChiForTest(h *auth.Handler) chi.Router {
	r := chi.NewRouter()
	r.Route("/v1/auth", h.MountRoutes)
	return r
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func postToken(handler *auth.Handler, username, password string) *httptest.ResponseRecorder {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	res := httptest.NewRecorder()
	newChiForTest(handler).ServeHTTP(res, req)
	return res
}

func TestIssueTokenSuccess(t *testing.T) {
	repo := &stubRepo{user: activeUser(t, "correctpass")}
	service := newService(t, repo)
	handler := auth.NewHandler(discardLogger(), service)

	res := postToken(handler, "writer", "correctpass")
	require.Equal(t, http.StatusOK, res.Code)
	require.Contains(t, res.Body.String(), `"token_type":"bearer"`)
	require.Len(t, repo.sessions, 1)
}

func TestIssueTokenInvalidCredentials(t *testing.T) {
	repo := &stubRepo{user: activeUser(t, "correctpass")}
	handler := auth.NewHandler(discardLogger(), newService(t, repo))

	res := postToken(handler, "writer", "wrongpass")
	require.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestIssueTokenInactiveAccount(t *testing.T) {
	user := activeUser(t, "correctpass")
	user.IsActive = false
	handler := auth.NewHandler(discardLogger(), newService(t, &stubRepo{user: user}))

	res := postToken(handler, "writer", "correctpass")
	require.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestMiddlewareResolvesActor(t *testing.T) {
	repo := &stubRepo{user: activeUser(t, "correctpass")}
	service := newService(t, repo)
	actor := &rbac.User{ID: 1, Username: "writer", IsActive: true}
	authn := auth.Authenticator{Service: service, Resolver: &stubResolver{actor: actor}}

	token, err := service.IssueToken(context.Background(), repo.user, "", "")
	require.NoError(t, err)

	var resolved *rbac.User
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resolved = rbac.ActorFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/users", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	authn.Middleware(next).ServeHTTP(httptest.NewRecorder(), req)
	require.NotNil(t, resolved)
	require.Equal(t, int64(1), resolved.ID)
}

func TestMiddlewareCollapsesBadTokensToAnonymous(t *testing.T) {
	repo := &stubRepo{user: activeUser(t, "correctpass")}
	service := newService(t, repo)
	authn := auth.Authenticator{Service: service, Resolver: &stubResolver{}}

	resolved := &rbac.User{ID: 99}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resolved = rbac.ActorFromContext(r.Context())
	})

	for _, header := range []string{
		"",
		"Bearer not-a-token",
		"Basic d3JpdGVyOnBhc3M=",
	} {
		req := httptest.NewRequest(http.MethodGet, "/v1/users", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		authn.Middleware(next).ServeHTTP(httptest.NewRecorder(), req)
		require.Nil(t, resolved)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	repo := &stubRepo{user: activeUser(t, "correctpass")}
	service := newService(t, repo)
	actor := &rbac.User{ID: 1, Username: "writer", IsActive: true}
	authn := auth.Authenticator{Service: service, Resolver: &stubResolver{actor: actor}}
	handler := auth.NewHandler(discardLogger(), service)

	token, err := service.IssueToken(context.Background(), repo.user, "", "")
	require.NoError(t, err)

	router := newChiForTest(handler)
	logoutReq := httptest.NewRequest(http.MethodPost, "/v1/auth/logout", nil)
	logoutReq.Header.Set("Authorization", "Bearer "+token)
	logoutRes := httptest.NewRecorder()
	authn.Middleware(router).ServeHTTP(logoutRes, logoutReq)
	require.Equal(t, http.StatusNoContent, logoutRes.Code)
	require.Empty(t, repo.sessions)

	// The same token no longer resolves an identity.
	var resolved *rbac.User
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resolved = rbac.ActorFromContext(r.Context())
	})
	req := httptest.NewRequest(http.MethodGet, "/v1/users", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	authn.Middleware(next).ServeHTTP(httptest.NewRecorder(), req)
	require.Nil(t, resolved)
}

func TestLogoutWithoutIdentity(t *testing.T) {
	handler := auth.NewHandler(discardLogger(), newService(t, &stubRepo{}))
	router := newChiForTest(handler)

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/logout", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	require.Equal(t, http.StatusUnauthorized, res.Code)
}
