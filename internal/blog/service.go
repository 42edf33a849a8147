package blog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/inkpress/inkpress/internal/shared"
)

// RepositoryPort defines the persistence the blog layer needs.
type RepositoryPort interface {
	ListPosts(ctx context.Context, q shared.ListQuery, includeDrafts bool) ([]Post, int, error)
	GetPostBySlug(ctx context.Context, slug string) (*Post, error)
	CreatePost(ctx context.Context, p *Post, tagIDs []int64) (*Post, error)
	UpdatePost(ctx context.Context, p *Post, tagIDs []int64) (*Post, error)
	DeletePost(ctx context.Context, id int64) error
	PublishPost(ctx context.Context, id int64, at time.Time) error
	PublishDue(ctx context.Context, now time.Time) (int, error)

	EnsureTags(ctx context.Context, names []string) ([]Tag, error)
	ListTags(ctx context.Context) ([]Tag, error)
	GetTagBySlug(ctx context.Context, slug string) (*Tag, error)
	UpdateTag(ctx context.Context, t *Tag) error
	DeleteTag(ctx context.Context, id int64) error

	ListComments(ctx context.Context, postID int64) ([]Comment, error)
	CreateComment(ctx context.Context, c *Comment) (*Comment, error)
	GetComment(ctx context.Context, id int64) (*Comment, error)
	DeleteComment(ctx context.Context, id int64) error
}

// PostInput carries a post create or update after transport decoding.
type PostInput struct {
	Title       string
	Content     string
	Status      PublishingStatus
	PublishedAt *time.Time
	Tags        []string
}

// Service implements the blog operations.
type Service struct {
	repo RepositoryPort
	now  func() time.Time
}

func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) ListPosts(ctx context.Context, q shared.ListQuery, includeDrafts bool) ([]Post, int, error) {
	return s.repo.ListPosts(ctx, q, includeDrafts)
}

func (s *Service) GetPost(ctx context.Context, slug string) (*Post, error) {
	return s.repo.GetPostBySlug(ctx, slug)
}

// CreatePost stores a new post for the author. A slug collision is
// retried once with a random suffix so distinct posts may share a title.
func (s *Service) CreatePost(ctx context.Context, authorID int64, in PostInput) (*Post, error) {
	if in.Status == "" {
		in.Status = StatusDraft
	}
	if !ValidStatus(in.Status) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, in.Status)
	}
	tags, err := s.repo.EnsureTags(ctx, in.Tags)
	if err != nil {
		return nil, err
	}

	post := &Post{
		Title:       in.Title,
		Slug:        Slugify(in.Title),
		Content:     in.Content,
		Status:      in.Status,
		AuthorID:    authorID,
		PublishedAt: in.PublishedAt,
		Tags:        tags,
	}
	if post.Status == StatusPublished && post.PublishedAt == nil {
		now := s.now()
		post.PublishedAt = &now
	}

	created, err := s.repo.CreatePost(ctx, post, tagIDs(tags))
	if errors.Is(err, shared.ErrDuplicate) {
		post.Slug = post.Slug + "-" + uuid.NewString()[:8]
		return s.repo.CreatePost(ctx, post, tagIDs(tags))
	}
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdatePost rewrites a post. The slug follows the title.
func (s *Service) UpdatePost(ctx context.Context, slug string, in PostInput) (*Post, error) {
	post, err := s.repo.GetPostBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if in.Status != "" && !ValidStatus(in.Status) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, in.Status)
	}

	tags, err := s.repo.EnsureTags(ctx, in.Tags)
	if err != nil {
		return nil, err
	}

	post.Title = in.Title
	post.Slug = Slugify(in.Title)
	post.Content = in.Content
	if in.Status != "" {
		post.Status = in.Status
	}
	if in.PublishedAt != nil {
		post.PublishedAt = in.PublishedAt
	}
	post.Tags = tags

	return s.repo.UpdatePost(ctx, post, tagIDs(tags))
}

func (s *Service) DeletePost(ctx context.Context, slug string) error {
	post, err := s.repo.GetPostBySlug(ctx, slug)
	if err != nil {
		return err
	}
	return s.repo.DeletePost(ctx, post.ID)
}

// PublishPost makes a post publicly visible immediately.
func (s *Service) PublishPost(ctx context.Context, slug string) (*Post, error) {
	post, err := s.repo.GetPostBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	at := s.now()
	if err := s.repo.PublishPost(ctx, post.ID, at); err != nil {
		return nil, err
	}
	post.Status = StatusPublished
	post.PublishedAt = &at
	return post, nil
}

// PublishDue promotes review posts whose scheduled time has passed.
func (s *Service) PublishDue(ctx context.Context) (int, error) {
	return s.repo.PublishDue(ctx, s.now())
}

func (s *Service) ListTags(ctx context.Context) ([]Tag, error) {
	return s.repo.ListTags(ctx)
}

func (s *Service) CreateTag(ctx context.Context, name string) (*Tag, error) {
	tags, err := s.repo.EnsureTags(ctx, []string{name})
	if err != nil {
		return nil, err
	}
	return &tags[0], nil
}

func (s *Service) UpdateTag(ctx context.Context, slug, name string) (*Tag, error) {
	t, err := s.repo.GetTagBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	t.Name = name
	t.Slug = Slugify(name)
	if err := s.repo.UpdateTag(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) DeleteTag(ctx context.Context, slug string) error {
	t, err := s.repo.GetTagBySlug(ctx, slug)
	if err != nil {
		return err
	}
	return s.repo.DeleteTag(ctx, t.ID)
}

func (s *Service) ListComments(ctx context.Context, postSlug string) ([]Comment, error) {
	post, err := s.repo.GetPostBySlug(ctx, postSlug)
	if err != nil {
		return nil, err
	}
	return s.repo.ListComments(ctx, post.ID)
}

func (s *Service) CreateComment(ctx context.Context, postSlug string, authorID int64, content string) (*Comment, error) {
	post, err := s.repo.GetPostBySlug(ctx, postSlug)
	if err != nil {
		return nil, err
	}
	return s.repo.CreateComment(ctx, &Comment{PostID: post.ID, AuthorID: authorID, Content: content})
}

func (s *Service) GetComment(ctx context.Context, id int64) (*Comment, error) {
	return s.repo.GetComment(ctx, id)
}

func (s *Service) DeleteComment(ctx context.Context, id int64) error {
	return s.repo.DeleteComment(ctx, id)
}

func tagIDs(tags []Tag) []int64 {
	ids := make([]int64, 0, len(tags))
	for _, t := range tags {
		ids = append(ids, t.ID)
	}
	return ids
}

var _ RepositoryPort = (*Repository)(nil)
