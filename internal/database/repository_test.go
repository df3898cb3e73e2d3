package database_test

import (
	"context"
	"testing"

	"yatube/internal/database"
	"yatube/internal/models"
	"yatube/internal/testutil"
	"yatube/internal/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repos := testutil.NewRepos(testutil.NewDB(t))

	alice := repos.CreateUser(t, "alice")

	got, err := repos.Users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	got, err = repos.Users.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	err = repos.Users.Create(ctx, &models.User{Username: "alice", HashedPassword: "!"})
	assert.True(t, utils.IsErrorCode(err, utils.ErrDuplicate), "duplicate username: %v", err)

	_, err = repos.Users.GetByUsername(ctx, "nobody")
	assert.True(t, utils.IsErrorCode(err, utils.ErrNotFound))

	n, err := repos.Users.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestGroupDeleteIsProtectedWhilePostsExist(t *testing.T) {
	ctx := context.Background()
	repos := testutil.NewRepos(testutil.NewDB(t))

	author := repos.CreateUser(t, "author")
	group := repos.CreateGroup(t, "cats")
	post := repos.CreatePost(t, author, group, "Cats are great")

	err := repos.Groups.Delete(ctx, group.ID)
	assert.True(t, utils.IsErrorCode(err, utils.ErrProtected), "expected PROTECTED, got %v", err)

	// Both the group and the post survive
	_, err = repos.Groups.GetBySlug(ctx, "cats")
	require.NoError(t, err)
	stored, err := repos.Posts.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, group.ID, stored.GroupID.UUID)

	require.NoError(t, repos.Posts.Delete(ctx, post.ID))
	require.NoError(t, repos.Groups.Delete(ctx, group.ID))

	err = repos.Groups.Delete(ctx, group.ID)
	assert.True(t, utils.IsErrorCode(err, utils.ErrNotFound))
}

func TestGroupSlugIsUnique(t *testing.T) {
	repos := testutil.NewRepos(testutil.NewDB(t))
	repos.CreateGroup(t, "dogs")

	err := repos.Groups.Create(context.Background(), &models.Group{Title: "Other", Slug: "dogs"})
	assert.True(t, utils.IsErrorCode(err, utils.ErrDuplicate))
}

func TestPostRepositoryGetJoinsAuthorGroupAndComments(t *testing.T) {
	ctx := context.Background()
	repos := testutil.NewRepos(testutil.NewDB(t))

	bob := repos.CreateUser(t, "bob")
	group := repos.CreateGroup(t, "news")
	post := repos.CreatePost(t, bob, group, "Breaking news today")
	require.NoError(t, repos.Comments.Create(ctx, &models.Comment{Text: "first", AuthorID: bob.ID, PostID: post.ID}))

	got, err := repos.Posts.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Breaking news today", got.Text)
	assert.Equal(t, "bob", got.AuthorUsername)
	assert.Equal(t, "news", got.GroupSlug.String)
	assert.Equal(t, "Group news", got.GroupTitle.String)
	assert.Equal(t, 1, got.CommentCount)
	assert.True(t, got.CreatedAt.Equal(post.CreatedAt))

	_, err = repos.Posts.GetByID(ctx, uuid.New())
	assert.True(t, utils.IsErrorCode(err, utils.ErrNotFound))
}

func TestPostRepositoryRejectsEmptyTextAndUnknownAuthor(t *testing.T) {
	ctx := context.Background()
	repos := testutil.NewRepos(testutil.NewDB(t))
	bob := repos.CreateUser(t, "bob")

	err := repos.Posts.Create(ctx, &models.Post{Text: "   ", AuthorID: bob.ID})
	assert.True(t, utils.IsErrorCode(err, utils.ErrInvalidInput), "got %v", err)

	err = repos.Posts.Create(ctx, &models.Post{Text: "orphan", AuthorID: uuid.New()})
	assert.True(t, utils.IsErrorCode(err, utils.ErrNotFound), "got %v", err)

	n, err := repos.Posts.Count(ctx, database.PostFilter{})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPostRepositoryUpdateKeepsAuthorAndTimestamp(t *testing.T) {
	ctx := context.Background()
	repos := testutil.NewRepos(testutil.NewDB(t))
	bob := repos.CreateUser(t, "bob")
	post := repos.CreatePost(t, bob, nil, "draft")

	edited := *post
	edited.Text = "final"
	edited.Image = "posts/x.png"
	require.NoError(t, repos.Posts.Update(ctx, &edited))

	got, err := repos.Posts.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "final", got.Text)
	assert.Equal(t, "posts/x.png", got.Image)
	assert.Equal(t, bob.ID, got.AuthorID)
	assert.True(t, got.CreatedAt.Equal(post.CreatedAt))
	assert.False(t, got.HasGroup())
}

func TestPostRepositoryListFilters(t *testing.T) {
	ctx := context.Background()
	repos := testutil.NewRepos(testutil.NewDB(t))

	alice := repos.CreateUser(t, "alice")
	bob := repos.CreateUser(t, "bob")
	carol := repos.CreateUser(t, "carol")
	group := repos.CreateGroup(t, "travel")

	repos.CreatePost(t, bob, group, "bob 1")
	repos.CreatePost(t, carol, nil, "carol 1")
	repos.CreatePost(t, bob, nil, "bob 2")
	require.NoError(t, repos.Follows.Create(ctx, &models.Follow{UserID: alice.ID, AuthorID: bob.ID}))

	texts := func(filter database.PostFilter) []string {
		posts, err := repos.Posts.List(ctx, filter, 0, 0)
		require.NoError(t, err)
		out := make([]string, 0, len(posts))
		for _, p := range posts {
			out = append(out, p.Text)
		}
		return out
	}

	assert.Equal(t, []string{"bob 2", "carol 1", "bob 1"}, texts(database.PostFilter{}))
	assert.Equal(t, []string{"bob 2", "bob 1"}, texts(database.PostFilter{AuthorID: bob.ID}))
	assert.Equal(t, []string{"bob 1"}, texts(database.PostFilter{GroupID: group.ID}))
	assert.Equal(t, []string{"bob 2", "bob 1"}, texts(database.PostFilter{FollowerID: alice.ID}))
	assert.Empty(t, texts(database.PostFilter{FollowerID: carol.ID}))

	page, err := repos.Posts.List(ctx, database.PostFilter{}, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "bob 1", page[0].Text)

	n, err := repos.Posts.Count(ctx, database.PostFilter{FollowerID: alice.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestDeletingPostRemovesComments(t *testing.T) {
	ctx := context.Background()
	repos := testutil.NewRepos(testutil.NewDB(t))
	bob := repos.CreateUser(t, "bob")
	post := repos.CreatePost(t, bob, nil, "hello")

	require.NoError(t, repos.Comments.Create(ctx, &models.Comment{Text: "one", AuthorID: bob.ID, PostID: post.ID}))
	require.NoError(t, repos.Comments.Create(ctx, &models.Comment{Text: "two", AuthorID: bob.ID, PostID: post.ID}))

	comments, err := repos.Comments.ListByPost(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "bob", comments[0].AuthorUsername)

	require.NoError(t, repos.Posts.Delete(ctx, post.ID))

	n, err := repos.Comments.CountByPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestFollowRepositoryConstraints(t *testing.T) {
	ctx := context.Background()
	repos := testutil.NewRepos(testutil.NewDB(t))
	alice := repos.CreateUser(t, "alice")
	bob := repos.CreateUser(t, "bob")

	require.NoError(t, repos.Follows.Create(ctx, &models.Follow{UserID: alice.ID, AuthorID: bob.ID}))

	err := repos.Follows.Create(ctx, &models.Follow{UserID: alice.ID, AuthorID: bob.ID})
	assert.True(t, utils.IsErrorCode(err, utils.ErrDuplicate), "got %v", err)

	err = repos.Follows.Create(ctx, &models.Follow{UserID: alice.ID, AuthorID: alice.ID})
	assert.True(t, utils.IsErrorCode(err, utils.ErrInvalidInput), "got %v", err)

	exists, err := repos.Follows.Exists(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repos.Follows.Exists(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	followers, err := repos.Follows.CountFollowers(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, followers)
}

func TestFollowDeleteIsScopedToPair(t *testing.T) {
	ctx := context.Background()
	repos := testutil.NewRepos(testutil.NewDB(t))
	alice := repos.CreateUser(t, "alice")
	bob := repos.CreateUser(t, "bob")
	carol := repos.CreateUser(t, "carol")

	require.NoError(t, repos.Follows.Create(ctx, &models.Follow{UserID: alice.ID, AuthorID: bob.ID}))
	require.NoError(t, repos.Follows.Create(ctx, &models.Follow{UserID: carol.ID, AuthorID: bob.ID}))

	removed, err := repos.Follows.Delete(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repos.Follows.Delete(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	exists, err := repos.Follows.Exists(ctx, carol.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, exists, "other followers keep their edge")
}

func TestRollbackAndMigrateAgain(t *testing.T) {
	db := testutil.NewDB(t)
	require.NoError(t, db.Rollback())
	require.NoError(t, db.Migrate())

	repos := testutil.NewRepos(db)
	repos.CreateUser(t, "fresh")
}
