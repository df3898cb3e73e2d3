// internal/database/user_repository.go
package database

import (
	"context"

	"yatube/internal/models"

	"github.com/google/uuid"
)

const userColumns = `id, username, first_name, last_name, password_hash, created_at`

// UserRepository persists accounts.
type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user. A taken username yields a DUPLICATE error.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now()
	}

	query := r.db.X.Rebind(`
		INSERT INTO users (id, username, first_name, last_name, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	_, err := r.db.X.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.FirstName,
		user.LastName,
		user.HashedPassword,
		user.CreatedAt,
	)
	if err != nil {
		return translateInsertError(err, "create user")
	}
	return nil
}

// GetByID fetches a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	query := r.db.X.Rebind(`SELECT ` + userColumns + ` FROM users WHERE id = ?`)
	if err := r.db.X.GetContext(ctx, &user, query, id); err != nil {
		return nil, translateGetError(err, "user")
	}
	return &user, nil
}

// GetByUsername fetches a user by their unique username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	query := r.db.X.Rebind(`SELECT ` + userColumns + ` FROM users WHERE username = ?`)
	if err := r.db.X.GetContext(ctx, &user, query, username); err != nil {
		return nil, translateGetError(err, "user")
	}
	return &user, nil
}

// Count returns the number of users.
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	n, err := r.db.count(ctx, r.db.builder.Select("COUNT(*)").From("users"))
	if err != nil {
		return 0, translateGetError(err, "user count")
	}
	return n, nil
}
