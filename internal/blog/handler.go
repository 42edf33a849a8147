package blog

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/inkpress/inkpress/internal/platform/httpx"
	"github.com/inkpress/inkpress/internal/rbac"
	"github.com/inkpress/inkpress/internal/shared"
)

// Handler exposes the blog endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	guard     rbac.Middleware
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard rbac.Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		guard:     guard,
		validator: validator.New(),
	}
}

// MountRoutes registers blog routes. Mount under the blog prefix.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/posts", h.listPosts)
	r.With(h.guard.Require(rbac.ActionCreateDraft, rbac.ResourceBlogPost)).Post("/posts", h.createPost)

	r.With(h.guard.RequireObject(rbac.ActionReadDraft, rbac.ResourceBlogPost, h.loadPost)).Get("/posts/{slug}", h.getPost)
	r.With(h.guard.Require(rbac.ActionUpdate, rbac.ResourceBlogPost)).Put("/posts/{slug}", h.updatePost)
	r.With(h.guard.Require(rbac.ActionDelete, rbac.ResourceBlogPost)).Delete("/posts/{slug}", h.deletePost)
	r.With(h.guard.Require(rbac.ActionPublish, rbac.ResourceBlogPost)).Post("/posts/{slug}/publish", h.publishPost)

	r.With(h.guard.RequireObject(rbac.ActionReadDraft, rbac.ResourceBlogPost, h.loadPost)).Get("/posts/{slug}/comments", h.listComments)
	r.With(h.guard.Require(rbac.ActionCreate, rbac.ResourceBlogComment)).Post("/posts/{slug}/comments", h.createComment)
	r.With(h.guard.RequireObject(rbac.ActionDelete, rbac.ResourceBlogComment, h.loadComment)).Delete("/comments/{commentID}", h.deleteComment)

	r.Get("/tags", h.listTags)
	r.With(h.guard.Require(rbac.ActionCreate, rbac.ResourceBlogTag)).Post("/tags", h.createTag)
	r.With(h.guard.Require(rbac.ActionUpdate, rbac.ResourceBlogTag)).Put("/tags/{slug}", h.updateTag)
	r.With(h.guard.Require(rbac.ActionDelete, rbac.ResourceBlogTag)).Delete("/tags/{slug}", h.deleteTag)
}

func (h *Handler) loadPost(r *http.Request) (any, error) {
	return h.service.GetPost(r.Context(), chi.URLParam(r, "slug"))
}

func (h *Handler) loadComment(r *http.Request) (any, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "commentID"), 10, 64)
	if err != nil {
		return nil, httpx.ErrValidation
	}
	return h.service.GetComment(r.Context(), id)
}

type postRequest struct {
	Title       string           `json:"title" validate:"required,max=200"`
	Content     string           `json:"content" validate:"required"`
	Status      PublishingStatus `json:"status" validate:"omitempty,oneof=draft review published"`
	PublishedAt *time.Time       `json:"published_at"`
	Tags        []string         `json:"tags" validate:"max=10,dive,required,max=50"`
}

type tagRequest struct {
	Name string `json:"name" validate:"required,max=50"`
}

type commentRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
}

type tagResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type postResponse struct {
	ID          int64            `json:"id"`
	Title       string           `json:"title"`
	Slug        string           `json:"slug"`
	Content     string           `json:"content"`
	Status      PublishingStatus `json:"status"`
	AuthorID    int64            `json:"author_id"`
	PublishedAt *time.Time       `json:"published_at,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	Tags        []tagResponse    `json:"tags"`
}

type postListResponse struct {
	Items      []postResponse `json:"items"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	Total      int            `json:"total"`
	TotalPages int            `json:"total_pages"`
	Next       string         `json:"next,omitempty"`
	Previous   string         `json:"previous,omitempty"`
}

type commentResponse struct {
	ID        int64     `json:"id"`
	PostID    int64     `json:"post_id"`
	AuthorID  int64     `json:"author_id"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func toPostResponse(p *Post) postResponse {
	out := postResponse{
		ID:          p.ID,
		Title:       p.Title,
		Slug:        p.Slug,
		Content:     p.Content,
		Status:      p.Status,
		AuthorID:    p.AuthorID,
		PublishedAt: p.PublishedAt,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		Tags:        make([]tagResponse, 0, len(p.Tags)),
	}
	for _, t := range p.Tags {
		out.Tags = append(out.Tags, tagResponse(t))
	}
	return out
}

// listPosts is public. Actors allowed to read drafts see every post;
// everybody else sees the published set only.
func (h *Handler) listPosts(w http.ResponseWriter, r *http.Request) {
	actor := rbac.ActorFromContext(r.Context())
	decision, err := h.guard.Guard.Authorize(actor, rbac.ActionReadDraft, rbac.ResourceBlogPost, nil)
	if err != nil {
		h.logger.Error("draft visibility check", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	query := shared.ParseListQuery(r.URL.Query(), "created_at", "published_at", "title")
	posts, total, err := h.service.ListPosts(r.Context(), query, decision.Allowed())
	if err != nil {
		h.logger.Error("list posts", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	page := shared.NewPagination(query.Page, query.PageSize, total)
	out := postListResponse{
		Items:      make([]postResponse, 0, len(posts)),
		Page:       page.Page,
		PageSize:   page.PageSize,
		Total:      page.Total,
		TotalPages: page.TotalPages,
		Next:       page.NextLink(r.URL.Path, query.Encode()),
		Previous:   page.PreviousLink(r.URL.Path, query.Encode()),
	}
	for i := range posts {
		out.Items = append(out.Items, toPostResponse(&posts[i]))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) getPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.service.GetPost(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPostResponse(post))
}

func (h *Handler) createPost(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodePost(w, r)
	if !ok {
		return
	}
	actor := rbac.ActorFromContext(r.Context())

	post, err := h.service.CreatePost(r.Context(), actor.ID, PostInput{
		Title:       req.Title,
		Content:     req.Content,
		Status:      req.Status,
		PublishedAt: req.PublishedAt,
		Tags:        req.Tags,
	})
	if err != nil {
		h.respondPostError(w, "create post", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toPostResponse(post))
}

func (h *Handler) updatePost(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodePost(w, r)
	if !ok {
		return
	}

	post, err := h.service.UpdatePost(r.Context(), chi.URLParam(r, "slug"), PostInput{
		Title:       req.Title,
		Content:     req.Content,
		Status:      req.Status,
		PublishedAt: req.PublishedAt,
		Tags:        req.Tags,
	})
	if err != nil {
		h.respondPostError(w, "update post", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPostResponse(post))
}

func (h *Handler) deletePost(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeletePost(r.Context(), chi.URLParam(r, "slug")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) publishPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.service.PublishPost(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.respondPostError(w, "publish post", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPostResponse(post))
}

func (h *Handler) listComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.service.ListComments(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]commentResponse, 0, len(comments))
	for _, c := range comments {
		out = append(out, commentResponse{
			ID:        c.ID,
			PostID:    c.PostID,
			AuthorID:  c.AuthorID,
			Author:    c.Author,
			Content:   c.Content,
			CreatedAt: c.CreatedAt,
		})
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) createComment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	actor := rbac.ActorFromContext(r.Context())

	comment, err := h.service.CreateComment(r.Context(), chi.URLParam(r, "slug"), actor.ID, req.Content)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, commentResponse{
		ID:        comment.ID,
		PostID:    comment.PostID,
		AuthorID:  comment.AuthorID,
		Author:    comment.Author,
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt,
	})
}

func (h *Handler) deleteComment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "commentID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "comment id must be numeric")
		return
	}
	if err := h.service.DeleteComment(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) listTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.service.ListTags(r.Context())
	if err != nil {
		h.logger.Error("list tags", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]tagResponse, 0, len(tags))
	for _, t := range tags {
		out = append(out, tagResponse(t))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) createTag(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeTag(w, r)
	if !ok {
		return
	}
	tag, err := h.service.CreateTag(r.Context(), req.Name)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, tagResponse(*tag))
}

func (h *Handler) updateTag(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeTag(w, r)
	if !ok {
		return
	}
	tag, err := h.service.UpdateTag(r.Context(), chi.URLParam(r, "slug"), req.Name)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tagResponse(*tag))
}

func (h *Handler) deleteTag(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteTag(r.Context(), chi.URLParam(r, "slug")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) decodePost(w http.ResponseWriter, r *http.Request) (postRequest, bool) {
	var req postRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return req, false
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return req, false
	}
	return req, true
}

func (h *Handler) decodeTag(w http.ResponseWriter, r *http.Request) (tagRequest, bool) {
	var req tagRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return req, false
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return req, false
	}
	return req, true
}

func (h *Handler) respondPostError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, ErrInvalidStatus) {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	h.logger.Error(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}
