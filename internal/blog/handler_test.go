package blog_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/inkpress/inkpress/internal/blog"
	"github.com/inkpress/inkpress/internal/rbac"
	"github.com/inkpress/inkpress/internal/shared"
)

type stubRepo struct {
	nextID   int64
	posts    map[int64]*blog.Post
	tags     map[int64]*blog.Tag
	comments map[int64]*blog.Comment
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		nextID:   1,
		posts:    map[int64]*blog.Post{},
		tags:     map[int64]*blog.Tag{},
		comments: map[int64]*blog.Comment{},
	}
}

func (s *stubRepo) id() int64 {
	id := s.nextID
	s.nextID++
	return id
}

func (s *stubRepo) ListPosts(_ context.Context, q shared.ListQuery, includeDrafts bool) ([]blog.Post, int, error) {
	var out []blog.Post
	for _, p := range s.posts {
		if !includeDrafts && p.Status != blog.StatusPublished {
			continue
		}
		if q.Search != "" && !strings.Contains(p.Title, q.Search) {
			continue
		}
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (s *stubRepo) GetPostBySlug(_ context.Context, slug string) (*blog.Post, error) {
	for _, p := range s.posts {
		if p.Slug == slug {
			copied := *p
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (s *stubRepo) CreatePost(_ context.Context, p *blog.Post, _ []int64) (*blog.Post, error) {
	for _, existing := range s.posts {
		if existing.Slug == p.Slug {
			return nil, shared.ErrDuplicate
		}
	}
	p.ID = s.id()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	copied := *p
	s.posts[p.ID] = &copied
	return p, nil
}

func (s *stubRepo) UpdatePost(_ context.Context, p *blog.Post, _ []int64) (*blog.Post, error) {
	if _, ok := s.posts[p.ID]; !ok {
		return nil, shared.ErrNotFound
	}
	p.UpdatedAt = time.Now()
	copied := *p
	s.posts[p.ID] = &copied
	return p, nil
}

func (s *stubRepo) DeletePost(_ context.Context, id int64) error {
	if _, ok := s.posts[id]; !ok {
		return shared.ErrNotFound
	}
	delete(s.posts, id)
	return nil
}

func (s *stubRepo) PublishPost(_ context.Context, id int64, at time.Time) error {
	p, ok := s.posts[id]
	if !ok {
		return shared.ErrNotFound
	}
	p.Status = blog.StatusPublished
	p.PublishedAt = &at
	return nil
}

func (s *stubRepo) PublishDue(_ context.Context, now time.Time) (int, error) {
	n := 0
	for _, p := range s.posts {
		if p.Status == blog.StatusReview && p.PublishedAt != nil && !p.PublishedAt.After(now) {
			p.Status = blog.StatusPublished
			n++
		}
	}
	return n, nil
}

func (s *stubRepo) EnsureTags(_ context.Context, names []string) ([]blog.Tag, error) {
	out := make([]blog.Tag, 0, len(names))
	for _, name := range names {
		slug := blog.Slugify(name)
		found := false
		for _, t := range s.tags {
			if t.Slug == slug {
				out = append(out, *t)
				found = true
				break
			}
		}
		if !found {
			t := &blog.Tag{ID: s.id(), Name: name, Slug: slug}
			s.tags[t.ID] = t
			out = append(out, *t)
		}
	}
	return out, nil
}

func (s *stubRepo) ListTags(_ context.Context) ([]blog.Tag, error) {
	var out []blog.Tag
	for _, t := range s.tags {
		out = append(out, *t)
	}
	return out, nil
}

func (s *stubRepo) GetTagBySlug(_ context.Context, slug string) (*blog.Tag, error) {
	for _, t := range s.tags {
		if t.Slug == slug {
			copied := *t
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (s *stubRepo) UpdateTag(_ context.Context, t *blog.Tag) error {
	if _, ok := s.tags[t.ID]; !ok {
		return shared.ErrNotFound
	}
	copied := *t
	s.tags[t.ID] = &copied
	return nil
}

func (s *stubRepo) DeleteTag(_ context.Context, id int64) error {
	if _, ok := s.tags[id]; !ok {
		return shared.ErrNotFound
	}
	delete(s.tags, id)
	return nil
}

func (s *stubRepo) ListComments(_ context.Context, postID int64) ([]blog.Comment, error) {
	var out []blog.Comment
	for _, c := range s.comments {
		if c.PostID == postID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *stubRepo) CreateComment(_ context.Context, c *blog.Comment) (*blog.Comment, error) {
	c.ID = s.id()
	c.CreatedAt = time.Now()
	copied := *c
	s.comments[c.ID] = &copied
	return c, nil
}

func (s *stubRepo) GetComment(_ context.Context, id int64) (*blog.Comment, error) {
	c, ok := s.comments[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (s *stubRepo) DeleteComment(_ context.Context, id int64) error {
	if _, ok := s.comments[id]; !ok {
		return shared.ErrNotFound
	}
	delete(s.comments, id)
	return nil
}

type fixture struct {
	repo    *stubRepo
	handler *blog.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	catalog, err := rbac.NewCatalog(rbac.SeedCatalogPermissions())
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	guard := rbac.Middleware{Guard: rbac.NewGuard(rbac.NewEvaluator(catalog)), Logger: logger}

	repo := newStubRepo()
	return &fixture{
		repo:    repo,
		handler: blog.NewHandler(logger, blog.NewService(repo), guard),
	}
}

func (f *fixture) router(actor *rbac.User) chi.Router {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(rbac.ContextWithActor(req.Context(), actor)))
		})
	})
	r.Route("/v1/blog", f.handler.MountRoutes)
	return r
}

func (f *fixture) seedPost(slug string, status blog.PublishingStatus, authorID int64) *blog.Post {
	p := &blog.Post{
		ID:       f.repo.id(),
		Title:    slug,
		Slug:     slug,
		Content:  "content",
		Status:   status,
		AuthorID: authorID,
	}
	if status == blog.StatusPublished {
		now := time.Now()
		p.PublishedAt = &now
	}
	f.repo.posts[p.ID] = p
	return p
}

func grants(pairs ...[3]string) []rbac.Grant {
	out := make([]rbac.Grant, 0, len(pairs))
	for _, pair := range pairs {
		out = append(out, rbac.Grant{
			Action:    rbac.Action(pair[0]),
			Resource:  rbac.Resource(pair[1]),
			Condition: rbac.Condition(pair[2]),
		})
	}
	return out
}

func actorWith(id int64, rank int, gs []rbac.Grant) *rbac.User {
	role := rbac.Role{Rank: rank}
	for _, g := range gs {
		role.Permissions = append(role.Permissions, rbac.Permission{
			Name:      rbac.PermissionName(g.Action, g.Resource, g.Condition),
			Action:    g.Action,
			Resource:  g.Resource,
			Condition: g.Condition,
		})
	}
	return &rbac.User{ID: id, Username: "actor", IsActive: true, Roles: []rbac.Role{role}}
}

func editorActor(id int64) *rbac.User {
	return actorWith(id, rbac.RankEditor, grants(
		[3]string{"create_draft", "blog_post", "always"},
		[3]string{"read_draft", "blog_post", "always"},
		[3]string{"publish", "blog_post", "always"},
		[3]string{"create", "blog_post", "always"},
		[3]string{"update", "blog_post", "always"},
		[3]string{"delete", "blog_post", "always"},
		[3]string{"create", "blog_tag", "always"},
		[3]string{"update", "blog_tag", "always"},
		[3]string{"delete", "blog_tag", "always"},
	))
}

func memberActor(id int64) *rbac.User {
	return actorWith(id, rbac.RankUser, grants(
		[3]string{"create", "blog_comment", "always"},
		[3]string{"delete", "blog_comment", "owner"},
	))
}

func do(t *testing.T, r chi.Router, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestListPostsVisibility(t *testing.T) {
	f := newFixture(t)
	f.seedPost("published-piece", blog.StatusPublished, 3)
	f.seedPost("secret-draft", blog.StatusDraft, 3)

	rec := do(t, f.router(nil), http.MethodGet, "/v1/blog/posts", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "published-piece")
	require.NotContains(t, rec.Body.String(), "secret-draft")

	rec = do(t, f.router(editorActor(3)), http.MethodGet, "/v1/blog/posts", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "secret-draft")
}

func TestGetPostDraftAccess(t *testing.T) {
	f := newFixture(t)
	f.seedPost("published-piece", blog.StatusPublished, 3)
	f.seedPost("secret-draft", blog.StatusDraft, 3)

	rec := do(t, f.router(nil), http.MethodGet, "/v1/blog/posts/published-piece", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, f.router(nil), http.MethodGet, "/v1/blog/posts/secret-draft", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, f.router(memberActor(7)), http.MethodGet, "/v1/blog/posts/secret-draft", "")
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, f.router(editorActor(3)), http.MethodGet, "/v1/blog/posts/secret-draft", "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCreatePostDefaultsToDraft(t *testing.T) {
	f := newFixture(t)
	body := `{"title":"Fresh Ideas","content":"body","tags":["go","testing"]}`

	rec := do(t, f.router(editorActor(3)), http.MethodPost, "/v1/blog/posts", body)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Contains(t, rec.Body.String(), `"slug":"fresh-ideas"`)
	require.Contains(t, rec.Body.String(), `"status":"draft"`)
	require.Contains(t, rec.Body.String(), `"go"`)
}

func TestCreatePostDenied(t *testing.T) {
	f := newFixture(t)
	body := `{"title":"Fresh Ideas","content":"body"}`

	rec := do(t, f.router(nil), http.MethodPost, "/v1/blog/posts", body)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, f.router(memberActor(7)), http.MethodPost, "/v1/blog/posts", body)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPublishPost(t *testing.T) {
	f := newFixture(t)
	f.seedPost("secret-draft", blog.StatusDraft, 3)

	rec := do(t, f.router(editorActor(3)), http.MethodPost, "/v1/blog/posts/secret-draft/publish", "")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"published"`)
	require.Contains(t, rec.Body.String(), `"published_at"`)
}

func TestCommentLifecycle(t *testing.T) {
	f := newFixture(t)
	f.seedPost("published-piece", blog.StatusPublished, 3)

	rec := do(t, f.router(nil), http.MethodPost, "/v1/blog/posts/published-piece/comments", `{"content":"nice"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, f.router(memberActor(7)), http.MethodPost, "/v1/blog/posts/published-piece/comments", `{"content":"nice"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var commentID int64
	for id := range f.repo.comments {
		commentID = id
	}

	// The author may remove their own comment, nobody else's.
	rec = do(t, f.router(memberActor(8)), http.MethodDelete, "/v1/blog/comments/1000", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, f.router(memberActor(8)), http.MethodDelete, deletePath(commentID), "")
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, f.router(memberActor(7)), http.MethodDelete, deletePath(commentID), "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Empty(t, f.repo.comments)
}

func deletePath(id int64) string {
	return "/v1/blog/comments/" + strconv.FormatInt(id, 10)
}

func TestTagAdministration(t *testing.T) {
	f := newFixture(t)

	rec := do(t, f.router(memberActor(7)), http.MethodPost, "/v1/blog/tags", `{"name":"Go"}`)
	require.Equal(t, http.StatusForbidden, rec.Code)

	editor := f.router(editorActor(3))
	rec = do(t, editor, http.MethodPost, "/v1/blog/tags", `{"name":"Golang Tips"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Contains(t, rec.Body.String(), `"slug":"golang-tips"`)

	rec = do(t, editor, http.MethodPut, "/v1/blog/tags/golang-tips", `{"name":"Go Tips"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"slug":"go-tips"`)

	rec = do(t, editor, http.MethodDelete, "/v1/blog/tags/go-tips", "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Empty(t, f.repo.tags)
}

func TestScheduledPublishing(t *testing.T) {
	f := newFixture(t)
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	due := f.seedPost("due-post", blog.StatusReview, 3)
	due.PublishedAt = &past
	early := f.seedPost("early-post", blog.StatusReview, 3)
	early.PublishedAt = &future

	n, err := blog.NewService(f.repo).PublishDue(context.Background())

	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, blog.StatusPublished, f.repo.posts[due.ID].Status)
	require.Equal(t, blog.StatusReview, f.repo.posts[early.ID].Status)
}
