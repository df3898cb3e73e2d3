// internal/database/post_repository.go
package database

import (
	"context"

	"yatube/internal/models"
	"yatube/internal/utils"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

// PostFilter narrows a post listing. Zero fields do not filter.
type PostFilter struct {
	AuthorID   uuid.UUID
	GroupID    uuid.UUID
	FollowerID uuid.UUID // Only posts by authors this user follows
}

func (f PostFilter) apply(b sq.SelectBuilder) sq.SelectBuilder {
	if f.AuthorID != uuid.Nil {
		b = b.Where(sq.Eq{"p.author_id": f.AuthorID})
	}
	if f.GroupID != uuid.Nil {
		b = b.Where(sq.Eq{"p.group_id": f.GroupID})
	}
	if f.FollowerID != uuid.Nil {
		b = b.Where(sq.Expr("p.author_id IN (SELECT f.author_id FROM follows f WHERE f.user_id = ?)", f.FollowerID))
	}
	return b
}

// PostRepository persists posts.
type PostRepository struct {
	db *DB
}

func NewPostRepository(db *DB) *PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) selectPosts() sq.SelectBuilder {
	return r.db.builder.
		Select(
			"p.id", "p.text", "p.created_at", "p.author_id", "p.group_id", "p.image",
			"u.username AS author_username",
			"u.first_name AS author_first_name",
			"u.last_name AS author_last_name",
			"g.title AS group_title",
			"g.slug AS group_slug",
			"(SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id) AS comment_count",
		).
		From("posts p").
		Join("users u ON u.id = p.author_id").
		LeftJoin("post_groups g ON g.id = p.group_id")
}

// Create inserts a post. CreatedAt is stamped here when unset and never changes afterwards.
func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	if post.ID == uuid.Nil {
		post.ID = uuid.New()
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = now()
	}

	query, args, err := r.db.builder.
		Insert("posts").
		Columns("id", "text", "created_at", "author_id", "group_id", "image").
		Values(post.ID, post.Text, post.CreatedAt, post.AuthorID, post.GroupID, post.Image).
		ToSql()
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to build post insert", err)
	}
	if _, err := r.db.X.ExecContext(ctx, query, args...); err != nil {
		return translateInsertError(err, "create post")
	}
	return nil
}

// Update writes the editable fields of a post. Author and creation time are not editable.
func (r *PostRepository) Update(ctx context.Context, post *models.Post) error {
	query, args, err := r.db.builder.
		Update("posts").
		Set("text", post.Text).
		Set("group_id", post.GroupID).
		Set("image", post.Image).
		Where(sq.Eq{"id": post.ID}).
		ToSql()
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to build post update", err)
	}
	result, err := r.db.X.ExecContext(ctx, query, args...)
	if err != nil {
		return translateWriteError(err, "update post")
	}
	if rowsAffected, _ := result.RowsAffected(); rowsAffected == 0 {
		return utils.NewNotFoundError("post")
	}
	return nil
}

// Delete removes a post; its comments go with it.
func (r *PostRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := r.db.X.Rebind(`DELETE FROM posts WHERE id = ?`)
	result, err := r.db.X.ExecContext(ctx, query, id)
	if err != nil {
		return translateWriteError(err, "delete post")
	}
	if rowsAffected, _ := result.RowsAffected(); rowsAffected == 0 {
		return utils.NewNotFoundError("post")
	}
	return nil
}

// GetByID fetches a post with its author and group columns joined.
func (r *PostRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	query, args, err := r.selectPosts().Where(sq.Eq{"p.id": id}).ToSql()
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to build post query", err)
	}
	var post models.Post
	if err := r.db.X.GetContext(ctx, &post, query, args...); err != nil {
		return nil, translateGetError(err, "post")
	}
	return &post, nil
}

// List returns posts matching the filter, newest first.
func (r *PostRepository) List(ctx context.Context, filter PostFilter, limit, offset int) ([]*models.Post, error) {
	builder := filter.apply(r.selectPosts()).
		OrderBy("p.created_at DESC", "p.id DESC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit)).Offset(uint64(offset))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to build post listing", err)
	}
	posts := []*models.Post{}
	if err := r.db.X.SelectContext(ctx, &posts, query, args...); err != nil {
		return nil, translateGetError(err, "posts")
	}
	return posts, nil
}

// Count returns the number of posts matching the filter.
func (r *PostRepository) Count(ctx context.Context, filter PostFilter) (int, error) {
	n, err := r.db.count(ctx, filter.apply(r.db.builder.Select("COUNT(*)").From("posts p")))
	if err != nil {
		return 0, translateGetError(err, "post count")
	}
	return n, nil
}
