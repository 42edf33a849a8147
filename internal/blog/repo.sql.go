package blog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inkpress/inkpress/internal/platform/db"
	"github.com/inkpress/inkpress/internal/shared"
)

// Repository persists posts, tags and comments in Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const postColumns = `p.id, p.title, p.slug, p.content, p.status, p.author_id, p.published_at, p.created_at, p.updated_at`

var postSortColumns = map[string]string{
	"created_at":   "p.created_at",
	"published_at": "p.published_at",
	"title":        "p.title",
}

// ListPosts returns a page of posts with their tags. Unless drafts are
// requested the listing covers published posts only.
func (r *Repository) ListPosts(ctx context.Context, q shared.ListQuery, includeDrafts bool) ([]Post, int, error) {
	conds := []string{}
	args := []any{}
	if !includeDrafts {
		conds = append(conds, "p.status = 'published'")
	}
	if q.Search != "" {
		args = append(args, "%"+q.Search+"%")
		conds = append(conds, fmt.Sprintf("p.title ILIKE $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT count(*) FROM blog_posts p"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}

	order := "p.created_at DESC"
	if col, ok := postSortColumns[strings.TrimPrefix(q.Sort, "-")]; ok {
		order = col
		if strings.HasPrefix(q.Sort, "-") {
			order += " DESC"
		}
	}

	sql := fmt.Sprintf("SELECT %s FROM blog_posts p%s ORDER BY %s LIMIT $%d OFFSET $%d",
		postColumns, where, order, len(args)+1, len(args)+2)
	args = append(args, q.PageSize, q.Offset())

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var posts []Post
	var ids []int64
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, 0, err
		}
		posts = append(posts, p)
		ids = append(ids, p.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if err := r.attachTags(ctx, posts, ids); err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (r *Repository) GetPostBySlug(ctx context.Context, slug string) (*Post, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+postColumns+" FROM blog_posts p WHERE p.slug = $1", slug)
	p, err := scanPost(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post %q: %w", slug, err)
	}
	posts := []Post{p}
	if err := r.attachTags(ctx, posts, []int64{p.ID}); err != nil {
		return nil, err
	}
	return &posts[0], nil
}

// CreatePost inserts a post and links its tags in one transaction.
func (r *Repository) CreatePost(ctx context.Context, p *Post, tagIDs []int64) (*Post, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			INSERT INTO blog_posts (title, slug, content, status, author_id, published_at, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, now(), now())
			RETURNING id, created_at, updated_at`,
			p.Title, p.Slug, p.Content, p.Status, p.AuthorID, p.PublishedAt)
		if err := row.Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return err
		}
		return linkTags(ctx, tx, p.ID, tagIDs)
	})
	if db.IsUniqueViolation(err) {
		return nil, shared.ErrDuplicate
	}
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return p, nil
}

// UpdatePost rewrites the mutable fields and replaces the tag links.
func (r *Repository) UpdatePost(ctx context.Context, p *Post, tagIDs []int64) (*Post, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			UPDATE blog_posts
			SET title = $2, slug = $3, content = $4, status = $5, published_at = $6, updated_at = now()
			WHERE id = $1
			RETURNING updated_at`,
			p.ID, p.Title, p.Slug, p.Content, p.Status, p.PublishedAt)
		if err := row.Scan(&p.UpdatedAt); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return shared.ErrNotFound
			}
			return err
		}
		if _, err := tx.Exec(ctx, "DELETE FROM blog_post_tags WHERE post_id = $1", p.ID); err != nil {
			return err
		}
		return linkTags(ctx, tx, p.ID, tagIDs)
	})
	if db.IsUniqueViolation(err) {
		return nil, shared.ErrDuplicate
	}
	if err != nil {
		return nil, fmt.Errorf("update post %d: %w", p.ID, err)
	}
	return p, nil
}

func (r *Repository) DeletePost(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "DELETE FROM blog_post_tags WHERE post_id = $1", id); err != nil {
			return fmt.Errorf("delete post tags: %w", err)
		}
		if _, err := tx.Exec(ctx, "DELETE FROM blog_comments WHERE post_id = $1", id); err != nil {
			return fmt.Errorf("delete post comments: %w", err)
		}
		tag, err := tx.Exec(ctx, "DELETE FROM blog_posts WHERE id = $1", id)
		if err != nil {
			return fmt.Errorf("delete post %d: %w", id, err)
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// PublishPost flips a post to published and stamps the publication time.
func (r *Repository) PublishPost(ctx context.Context, id int64, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE blog_posts SET status = 'published', published_at = $2, updated_at = now()
		WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("publish post %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// PublishDue promotes review posts whose scheduled publication time has
// passed. Returns the number of posts published.
func (r *Repository) PublishDue(ctx context.Context, now time.Time) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE blog_posts SET status = 'published', updated_at = now()
		WHERE status = 'review' AND published_at IS NOT NULL AND published_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("publish due posts: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// EnsureTags upserts tags by name and returns them in input order.
func (r *Repository) EnsureTags(ctx context.Context, names []string) ([]Tag, error) {
	out := make([]Tag, 0, len(names))
	for _, name := range names {
		row := r.pool.QueryRow(ctx, `
			INSERT INTO blog_tags (name, slug) VALUES ($1, $2)
			ON CONFLICT (slug) DO UPDATE SET name = blog_tags.name
			RETURNING id, name, slug`,
			name, Slugify(name))
		var t Tag
		if err := row.Scan(&t.ID, &t.Name, &t.Slug); err != nil {
			return nil, fmt.Errorf("ensure tag %q: %w", name, err)
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *Repository) ListTags(ctx context.Context) ([]Tag, error) {
	rows, err := r.pool.Query(ctx, "SELECT id, name, slug FROM blog_tags ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	var out []Tag
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repository) GetTagBySlug(ctx context.Context, slug string) (*Tag, error) {
	var t Tag
	err := r.pool.QueryRow(ctx, "SELECT id, name, slug FROM blog_tags WHERE slug = $1", slug).
		Scan(&t.ID, &t.Name, &t.Slug)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get tag %q: %w", slug, err)
	}
	return &t, nil
}

func (r *Repository) UpdateTag(ctx context.Context, t *Tag) error {
	tag, err := r.pool.Exec(ctx, "UPDATE blog_tags SET name = $2, slug = $3 WHERE id = $1", t.ID, t.Name, t.Slug)
	if db.IsUniqueViolation(err) {
		return shared.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("update tag %d: %w", t.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteTag(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "DELETE FROM blog_post_tags WHERE tag_id = $1", id); err != nil {
			return fmt.Errorf("unlink tag: %w", err)
		}
		tag, err := tx.Exec(ctx, "DELETE FROM blog_tags WHERE id = $1", id)
		if err != nil {
			return fmt.Errorf("delete tag %d: %w", id, err)
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

func (r *Repository) ListComments(ctx context.Context, postID int64) ([]Comment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.post_id, c.author_id, u.username, c.content, c.created_at
		FROM blog_comments c JOIN users u ON u.id = c.author_id
		WHERE c.post_id = $1
		ORDER BY c.created_at`, postID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var out []Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Author, &c.Content, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) CreateComment(ctx context.Context, c *Comment) (*Comment, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO blog_comments (post_id, author_id, content, created_at)
		VALUES ($1, $2, $3, now())
		RETURNING id, created_at`,
		c.PostID, c.AuthorID, c.Content)
	if err := row.Scan(&c.ID, &c.CreatedAt); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return c, nil
}

func (r *Repository) GetComment(ctx context.Context, id int64) (*Comment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT c.id, c.post_id, c.author_id, u.username, c.content, c.created_at
		FROM blog_comments c JOIN users u ON u.id = c.author_id
		WHERE c.id = $1`, id)
	var c Comment
	err := row.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Author, &c.Content, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get comment %d: %w", id, err)
	}
	return &c, nil
}

func (r *Repository) DeleteComment(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM blog_comments WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete comment %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func linkTags(ctx context.Context, tx pgx.Tx, postID int64, tagIDs []int64) error {
	for _, tagID := range tagIDs {
		if _, err := tx.Exec(ctx,
			"INSERT INTO blog_post_tags (post_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
			postID, tagID); err != nil {
			return fmt.Errorf("link tag %d: %w", tagID, err)
		}
	}
	return nil
}

// attachTags loads the tags for the given posts in one query.
func (r *Repository) attachTags(ctx context.Context, posts []Post, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT pt.post_id, t.id, t.name, t.slug
		FROM blog_post_tags pt JOIN blog_tags t ON t.id = pt.tag_id
		WHERE pt.post_id = ANY($1)
		ORDER BY t.name`, ids)
	if err != nil {
		return fmt.Errorf("load post tags: %w", err)
	}
	defer rows.Close()

	byPost := make(map[int64][]Tag, len(ids))
	for rows.Next() {
		var postID int64
		var t Tag
		if err := rows.Scan(&postID, &t.ID, &t.Name, &t.Slug); err != nil {
			return err
		}
		byPost[postID] = append(byPost[postID], t)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for i := range posts {
		posts[i].Tags = byPost[posts[i].ID]
	}
	return nil
}

func scanPost(row pgx.Row) (Post, error) {
	var p Post
	err := row.Scan(&p.ID, &p.Title, &p.Slug, &p.Content, &p.Status, &p.AuthorID, &p.PublishedAt, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}
