// Package testutil provides a migrated SQLite database and fixture helpers for tests.
package testutil

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"yatube/internal/config"
	"yatube/internal/database"
	"yatube/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// NewDB opens a fresh SQLite database under t.TempDir() with all migrations applied.
// The database is closed when the test finishes.
func NewDB(t testing.TB) *database.DB {
	t.Helper()

	dsn := config.SQLiteDSN(filepath.Join(t.TempDir(), "yatube_test.db"))
	db, err := database.Open(context.Background(), database.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Migrate())
	return db
}

// Repos bundles the repositories over one database.
type Repos struct {
	Users    *database.UserRepository
	Groups   *database.GroupRepository
	Posts    *database.PostRepository
	Comments *database.CommentRepository
	Follows  *database.FollowRepository
}

func NewRepos(db *database.DB) *Repos {
	return &Repos{
		Users:    database.NewUserRepository(db),
		Groups:   database.NewGroupRepository(db),
		Posts:    database.NewPostRepository(db),
		Comments: database.NewCommentRepository(db),
		Follows:  database.NewFollowRepository(db),
	}
}

// CreateUser inserts a user with an unusable password hash.
func (r *Repos) CreateUser(t testing.TB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username:       username,
		FirstName:      username,
		HashedPassword: "!",
	}
	require.NoError(t, r.Users.Create(context.Background(), user))
	return user
}

// CreateGroup inserts a group whose title and slug derive from slug.
func (r *Repos) CreateGroup(t testing.TB, slug string) *models.Group {
	t.Helper()
	group := &models.Group{
		Title:       "Group " + slug,
		Slug:        slug,
		Description: "Test group " + slug,
	}
	require.NoError(t, r.Groups.Create(context.Background(), group))
	return group
}

// CreatePost inserts a post by author, optionally in group. Posts created in a row get strictly
// increasing timestamps so listings have a deterministic order.
func (r *Repos) CreatePost(t testing.TB, author *models.User, group *models.Group, text string) *models.Post {
	t.Helper()
	post := &models.Post{
		Text:      text,
		AuthorID:  author.ID,
		CreatedAt: nextTimestamp(),
	}
	if group != nil {
		post.GroupID = uuid.NullUUID{UUID: group.ID, Valid: true}
	}
	require.NoError(t, r.Posts.Create(context.Background(), post))
	return post
}

var (
	epoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	ticks atomic.Int64
)

func nextTimestamp() time.Time {
	return epoch.Add(time.Duration(ticks.Add(1)) * time.Second)
}
