package engine

import (
	"context"
	"log/slog"

	"yatube/internal/database"
	"yatube/internal/models"
	"yatube/internal/pagination"
	"yatube/internal/utils"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// FollowOutcome reports what a follow or unfollow request did.
type FollowOutcome int

const (
	FollowCreated FollowOutcome = iota
	FollowExists
	FollowForbidden
	FollowRemoved
	FollowMissing
)

func (o FollowOutcome) String() string {
	switch o {
	case FollowCreated:
		return "created"
	case FollowExists:
		return "exists"
	case FollowForbidden:
		return "forbidden"
	case FollowRemoved:
		return "removed"
	case FollowMissing:
		return "missing"
	default:
		return "unknown"
	}
}

// Follow makes userID follow authorID. Following yourself yields FollowForbidden and following
// an author twice yields FollowExists; neither is an error. Unknown users are NOT_FOUND errors.
func (e *Engine) Follow(ctx context.Context, userID, authorID uuid.UUID) (outcome FollowOutcome, err error) {
	ctx, op := e.begin(ctx, "follow",
		attribute.String("user.id", userID.String()),
		attribute.String("author.id", authorID.String()))
	defer op.end(ctx, &err)

	if userID == uuid.Nil || authorID == uuid.Nil {
		return 0, utils.NewNotFoundError("user")
	}
	if userID == authorID {
		slog.Debug("engine: self-follow declined", "user", userID)
		return FollowForbidden, nil
	}

	exists, err := e.follows.Exists(ctx, userID, authorID)
	if err != nil {
		return 0, err
	}
	if exists {
		return FollowExists, nil
	}

	err = e.follows.Create(ctx, &models.Follow{UserID: userID, AuthorID: authorID, CreatedAt: e.now()})
	if utils.IsErrorCode(err, utils.ErrDuplicate) {
		// Lost a race with a concurrent follow of the same pair
		return FollowExists, nil
	}
	if err != nil {
		return 0, err
	}
	return FollowCreated, nil
}

// Unfollow removes the edge userID -> authorID. Other users' edges to the author are untouched.
func (e *Engine) Unfollow(ctx context.Context, userID, authorID uuid.UUID) (outcome FollowOutcome, err error) {
	ctx, op := e.begin(ctx, "unfollow",
		attribute.String("user.id", userID.String()),
		attribute.String("author.id", authorID.String()))
	defer op.end(ctx, &err)

	if err := e.requireUsers(ctx, userID, authorID); err != nil {
		return 0, err
	}
	removed, err := e.follows.Delete(ctx, userID, authorID)
	if err != nil {
		return 0, err
	}
	if !removed {
		return FollowMissing, nil
	}
	return FollowRemoved, nil
}

// IsFollowing reports whether userID follows authorID.
func (e *Engine) IsFollowing(ctx context.Context, userID, authorID uuid.UUID) (bool, error) {
	if userID == uuid.Nil || authorID == uuid.Nil || userID == authorID {
		return false, nil
	}
	return e.follows.Exists(ctx, userID, authorID)
}

// FeedFor returns one page of posts by the authors userID follows, newest first.
func (e *Engine) FeedFor(ctx context.Context, userID uuid.UUID, page string) (result pagination.Page[*models.Post], err error) {
	ctx, op := e.begin(ctx, "feed", attribute.String("user.id", userID.String()))
	defer op.end(ctx, &err)

	if err := e.requireUsers(ctx, userID); err != nil {
		return result, err
	}
	return e.listPosts(ctx, database.PostFilter{FollowerID: userID}, page)
}

// requireUsers fails with NOT_FOUND unless every id names a stored user.
func (e *Engine) requireUsers(ctx context.Context, ids ...uuid.UUID) error {
	for _, id := range ids {
		if id == uuid.Nil {
			return utils.NewNotFoundError("user")
		}
		if _, err := e.users.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
