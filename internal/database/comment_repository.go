// internal/database/comment_repository.go
package database

import (
	"context"

	"yatube/internal/models"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

// CommentRepository persists comments on posts.
type CommentRepository struct {
	db *DB
}

func NewCommentRepository(db *DB) *CommentRepository {
	return &CommentRepository{db: db}
}

// Create inserts a comment. A missing post or author yields a NOT_FOUND error.
func (r *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if comment.ID == uuid.Nil {
		comment.ID = uuid.New()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = now()
	}

	query := r.db.X.Rebind(`
		INSERT INTO comments (id, text, author_id, post_id, created_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	_, err := r.db.X.ExecContext(ctx, query,
		comment.ID,
		comment.Text,
		comment.AuthorID,
		comment.PostID,
		comment.CreatedAt,
	)
	if err != nil {
		return translateInsertError(err, "create comment")
	}
	return nil
}

// ListByPost returns the comments of a post in the order they were written.
func (r *CommentRepository) ListByPost(ctx context.Context, postID uuid.UUID) ([]*models.Comment, error) {
	query, args, err := r.db.builder.
		Select("c.id", "c.text", "c.author_id", "u.username AS author_username", "c.post_id", "c.created_at").
		From("comments c").
		Join("users u ON u.id = c.author_id").
		Where(sq.Eq{"c.post_id": postID}).
		OrderBy("c.created_at", "c.id").
		ToSql()
	if err != nil {
		return nil, translateGetError(err, "comments")
	}

	comments := []*models.Comment{}
	if err := r.db.X.SelectContext(ctx, &comments, query, args...); err != nil {
		return nil, translateGetError(err, "comments")
	}
	return comments, nil
}

// CountByPost returns the number of comments on a post.
func (r *CommentRepository) CountByPost(ctx context.Context, postID uuid.UUID) (int, error) {
	n, err := r.db.count(ctx, r.db.builder.Select("COUNT(*)").From("comments").Where(sq.Eq{"post_id": postID}))
	if err != nil {
		return 0, translateGetError(err, "comment count")
	}
	return n, nil
}
