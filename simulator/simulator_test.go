package simulator

import (
	"context"
	"testing"

	"yatube/internal/database"
	"yatube/internal/engine"
	"yatube/internal/testutil"
	"yatube/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallConfig() Config {
	return Config{
		NumUsers:        6,
		NumGroups:       2,
		PostsPerUser:    2,
		FollowsPerUser:  3,
		CommentsPerPost: 1,
		ZipfS:           1.5,
		Workers:         3,
		Seed:            42,
	}
}

func TestRunSeedsDatabase(t *testing.T) {
	db := testutil.NewDB(t)
	eng := engine.NewEngine(engine.NewStores(db), nil, utils.NewMetricsCollector())
	ctx := context.Background()

	summary, err := New(smallConfig(), eng).Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 6, summary.Users)
	assert.Equal(t, 2, summary.Groups)
	assert.Equal(t, 12, summary.Posts)
	assert.Zero(t, summary.Failures)
	assert.Equal(t, 6*3, summary.Follows+summary.DuplicateFollows+summary.SelfFollows)

	stats, err := eng.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, summary.Users, stats.Users)
	assert.Equal(t, summary.Posts, stats.Posts)
	assert.Equal(t, summary.Follows, stats.Follows)

	comments := 0
	posts, err := database.NewPostRepository(db).List(ctx, database.PostFilter{}, 0, 0)
	require.NoError(t, err)
	for _, post := range posts {
		comments += post.CommentCount
	}
	assert.Equal(t, summary.Comments, comments)

	user, err := eng.Authenticate(ctx, "user_0", Password)
	require.NoError(t, err)
	assert.Equal(t, "user_0", user.Username)
}

func TestRunReusesExistingAccountsAndGroups(t *testing.T) {
	db := testutil.NewDB(t)
	eng := engine.NewEngine(engine.NewStores(db), nil, utils.NewMetricsCollector())
	ctx := context.Background()

	_, err := New(smallConfig(), eng).Run(ctx)
	require.NoError(t, err)

	summary, err := New(smallConfig(), eng).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, summary.Users)
	assert.Equal(t, 2, summary.Groups)
	assert.Zero(t, summary.Follows)

	stats, err := eng.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, stats.Users)
	assert.Equal(t, 24, stats.Posts)
}

func TestConfigValidation(t *testing.T) {
	cfg := smallConfig()
	cfg.NumUsers = 1
	_, err := New(cfg, nil).Run(context.Background())
	assert.Error(t, err)

	cfg = smallConfig()
	cfg.ZipfS = 1
	_, err = New(cfg, nil).Run(context.Background())
	assert.Error(t, err)

	cfg = smallConfig()
	cfg.Workers = 0
	_, err = New(cfg, nil).Run(context.Background())
	assert.Error(t, err)
}

func TestSentenceIsDeterministicForSeed(t *testing.T) {
	a := New(smallConfig(), nil)
	b := New(smallConfig(), nil)
	assert.Equal(t, a.sentence(3, 6), b.sentence(3, 6))
}
