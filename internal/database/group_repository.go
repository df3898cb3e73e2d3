// internal/database/group_repository.go
package database

import (
	"context"

	"yatube/internal/models"
	"yatube/internal/utils"

	"github.com/google/uuid"
)

const groupColumns = `id, title, slug, description, created_at`

// GroupRepository persists post groups.
type GroupRepository struct {
	db *DB
}

func NewGroupRepository(db *DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// Create inserts a group. A taken slug yields a DUPLICATE error.
func (r *GroupRepository) Create(ctx context.Context, group *models.Group) error {
	if group.ID == uuid.Nil {
		group.ID = uuid.New()
	}
	if group.CreatedAt.IsZero() {
		group.CreatedAt = now()
	}

	query := r.db.X.Rebind(`
		INSERT INTO post_groups (id, title, slug, description, created_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	_, err := r.db.X.ExecContext(ctx, query, group.ID, group.Title, group.Slug, group.Description, group.CreatedAt)
	if err != nil {
		return translateInsertError(err, "create group")
	}
	return nil
}

// GetBySlug fetches a group by its slug.
func (r *GroupRepository) GetBySlug(ctx context.Context, slug string) (*models.Group, error) {
	var group models.Group
	query := r.db.X.Rebind(`SELECT ` + groupColumns + ` FROM post_groups WHERE slug = ?`)
	if err := r.db.X.GetContext(ctx, &group, query, slug); err != nil {
		return nil, translateGetError(err, "group")
	}
	return &group, nil
}

// GetByID fetches a group by its ID.
func (r *GroupRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Group, error) {
	var group models.Group
	query := r.db.X.Rebind(`SELECT ` + groupColumns + ` FROM post_groups WHERE id = ?`)
	if err := r.db.X.GetContext(ctx, &group, query, id); err != nil {
		return nil, translateGetError(err, "group")
	}
	return &group, nil
}

// List returns every group ordered by title.
func (r *GroupRepository) List(ctx context.Context) ([]*models.Group, error) {
	groups := []*models.Group{}
	if err := r.db.X.SelectContext(ctx, &groups, `SELECT `+groupColumns+` FROM post_groups ORDER BY title`); err != nil {
		return nil, translateGetError(err, "groups")
	}
	return groups, nil
}

// Delete removes a group. The posts foreign key restricts deletion, so a group that still has
// posts yields a PROTECTED error and is left in place.
func (r *GroupRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := r.db.X.Rebind(`DELETE FROM post_groups WHERE id = ?`)
	result, err := r.db.X.ExecContext(ctx, query, id)
	if err != nil {
		return translateWriteError(err, "delete group")
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to get rows affected after delete", err)
	}
	if rowsAffected == 0 {
		return utils.NewNotFoundError("group")
	}
	return nil
}
