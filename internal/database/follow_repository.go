// internal/database/follow_repository.go
package database

import (
	"context"

	"yatube/internal/models"
	"yatube/internal/utils"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

// FollowRepository persists follow edges. The (user_id, author_id) pair is unique and
// self-follows are rejected by a check constraint.
type FollowRepository struct {
	db *DB
}

func NewFollowRepository(db *DB) *FollowRepository {
	return &FollowRepository{db: db}
}

// Create inserts an edge. An existing edge for the pair yields a DUPLICATE error, a self-follow
// an INVALID_INPUT error and an unknown user or author a NOT_FOUND error.
func (r *FollowRepository) Create(ctx context.Context, follow *models.Follow) error {
	if follow.ID == uuid.Nil {
		follow.ID = uuid.New()
	}
	if follow.CreatedAt.IsZero() {
		follow.CreatedAt = now()
	}

	query := r.db.X.Rebind(`
		INSERT INTO follows (id, user_id, author_id, created_at)
		VALUES (?, ?, ?, ?)
	`)
	_, err := r.db.X.ExecContext(ctx, query, follow.ID, follow.UserID, follow.AuthorID, follow.CreatedAt)
	if err != nil {
		return translateInsertError(err, "create follow")
	}
	return nil
}

// Exists reports whether userID follows authorID.
func (r *FollowRepository) Exists(ctx context.Context, userID, authorID uuid.UUID) (bool, error) {
	n, err := r.db.count(ctx, r.db.builder.
		Select("COUNT(*)").
		From("follows").
		Where(sq.Eq{"user_id": userID, "author_id": authorID}))
	if err != nil {
		return false, translateGetError(err, "follow")
	}
	return n > 0, nil
}

// Delete removes the edge for exactly this pair and reports whether one existed.
func (r *FollowRepository) Delete(ctx context.Context, userID, authorID uuid.UUID) (bool, error) {
	query := r.db.X.Rebind(`DELETE FROM follows WHERE user_id = ? AND author_id = ?`)
	result, err := r.db.X.ExecContext(ctx, query, userID, authorID)
	if err != nil {
		return false, translateWriteError(err, "delete follow")
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, utils.NewAppError(utils.ErrDatabase, "failed to get rows affected after delete", err)
	}
	return rowsAffected > 0, nil
}

// CountFollowers returns how many users follow authorID.
func (r *FollowRepository) CountFollowers(ctx context.Context, authorID uuid.UUID) (int, error) {
	n, err := r.db.count(ctx, r.db.builder.Select("COUNT(*)").From("follows").Where(sq.Eq{"author_id": authorID}))
	if err != nil {
		return 0, translateGetError(err, "follower count")
	}
	return n, nil
}

// CountFollowing returns how many authors userID follows.
func (r *FollowRepository) CountFollowing(ctx context.Context, userID uuid.UUID) (int, error) {
	n, err := r.db.count(ctx, r.db.builder.Select("COUNT(*)").From("follows").Where(sq.Eq{"user_id": userID}))
	if err != nil {
		return 0, translateGetError(err, "following count")
	}
	return n, nil
}

// Count returns the total number of edges.
func (r *FollowRepository) Count(ctx context.Context) (int, error) {
	n, err := r.db.count(ctx, r.db.builder.Select("COUNT(*)").From("follows"))
	if err != nil {
		return 0, translateGetError(err, "follow count")
	}
	return n, nil
}
