package blog

import (
	"errors"
	"time"
)

// ErrInvalidStatus reports a publishing status outside the known set.
var ErrInvalidStatus = errors.New("blog: invalid publishing status")

// PublishingStatus is the lifecycle state of a post.
type PublishingStatus string

const (
	StatusDraft     PublishingStatus = "draft"
	StatusReview    PublishingStatus = "review"
	StatusPublished PublishingStatus = "published"
)

// ValidStatus reports whether s is one of the known lifecycle states.
func ValidStatus(s PublishingStatus) bool {
	switch s {
	case StatusDraft, StatusReview, StatusPublished:
		return true
	}
	return false
}

// Post is a blog article. Unpublished posts are visible only to actors
// holding the draft-reading permission.
type Post struct {
	ID          int64
	Title       string
	Slug        string
	Content     string
	Status      PublishingStatus
	AuthorID    int64
	PublishedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Tags        []Tag
}

// OwnerID identifies the author for ownership checks.
func (p *Post) OwnerID() int64 { return p.AuthorID }

// IsPublished reports whether the post is publicly visible.
func (p *Post) IsPublished() bool { return p.Status == StatusPublished }

// Tag labels posts. Tags are shared across posts and addressed by slug.
type Tag struct {
	ID   int64
	Name string
	Slug string
}

// Comment is a reader comment on a post.
type Comment struct {
	ID        int64
	PostID    int64
	AuthorID  int64
	Author    string
	Content   string
	CreatedAt time.Time
}

// OwnerID identifies the comment author for ownership checks.
func (c *Comment) OwnerID() int64 { return c.AuthorID }
