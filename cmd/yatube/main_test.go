package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"yatube/internal/config"
	"yatube/internal/database"
	"yatube/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupEnv(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cli.db")
	t.Setenv("DB_TYPE", "sqlite3")
	t.Setenv("SQLITE_PATH", path)
	t.Setenv("MEDIA_BACKEND", "fs")
	t.Setenv("MEDIA_ROOT", filepath.Join(t.TempDir(), "media"))
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("CACHE_TTL", "")
	return path
}

func openTestDB(t *testing.T, path string) *database.DB {
	t.Helper()
	db, err := database.Open(context.Background(), database.DriverSQLite, config.SQLiteDSN(path))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestGroupCreateAndDelete(t *testing.T) {
	path := setupEnv(t)
	ctx := context.Background()
	var out bytes.Buffer

	err := run(ctx, []string{"group", "create", "-title", "Cats", "-slug", "cats", "-description", "All about cats"}, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), `created group "Cats"`)

	db := openTestDB(t, path)
	group, err := database.NewGroupRepository(db).GetBySlug(ctx, "cats")
	require.NoError(t, err)
	assert.Equal(t, "All about cats", group.Description)

	err = run(ctx, []string{"group", "create", "-title", "Cats again", "-slug", "cats"}, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "slug")

	out.Reset()
	require.NoError(t, run(ctx, []string{"group", "delete", "-slug", "cats"}, &out))
	assert.Contains(t, out.String(), `deleted group "cats"`)

	_, err = database.NewGroupRepository(db).GetBySlug(ctx, "cats")
	assert.Error(t, err)
}

func TestGroupDeleteRefusedWhilePostsExist(t *testing.T) {
	path := setupEnv(t)
	ctx := context.Background()
	var out bytes.Buffer

	require.NoError(t, run(ctx, []string{"group", "create", "-title", "Dogs", "-slug", "dogs"}, &out))

	db := openTestDB(t, path)
	repos := testutil.NewRepos(db)
	group, err := repos.Groups.GetBySlug(ctx, "dogs")
	require.NoError(t, err)
	author := repos.CreateUser(t, "leo")
	repos.CreatePost(t, author, group, "a post about dogs")

	err = run(ctx, []string{"group", "delete", "-slug", "dogs"}, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "still has posts")
}

func TestGroupCommandValidation(t *testing.T) {
	setupEnv(t)
	ctx := context.Background()
	var out bytes.Buffer

	err := run(ctx, []string{"group", "create", "-title", "Bad", "-slug", "Not A Slug"}, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "slug")

	assert.Error(t, run(ctx, []string{"group", "delete"}, &out))
	assert.Error(t, run(ctx, []string{"group", "rename"}, &out))
	assert.Error(t, run(ctx, []string{"group"}, &out))
}

func TestMigrateUpAndDown(t *testing.T) {
	path := setupEnv(t)
	ctx := context.Background()
	var out bytes.Buffer

	require.NoError(t, run(ctx, []string{"migrate"}, &out))
	require.NoError(t, run(ctx, []string{"migrate", "up"}, &out))

	db := openTestDB(t, path)
	_, err := database.NewUserRepository(db).Count(ctx)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	require.NoError(t, run(ctx, []string{"migrate", "down"}, &out))
	db = openTestDB(t, path)
	_, err = database.NewUserRepository(db).Count(ctx)
	assert.Error(t, err)

	assert.Error(t, run(ctx, []string{"migrate", "sideways"}, &out))
}

func TestUnknownCommand(t *testing.T) {
	setupEnv(t)
	var out bytes.Buffer

	err := run(context.Background(), []string{"frobnicate"}, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")

	require.NoError(t, run(context.Background(), []string{"help"}, &out))
	assert.Contains(t, out.String(), "usage: yatube")
}
