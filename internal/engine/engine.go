// internal/engine/engine.go
package engine

import (
	"context"
	"time"

	"yatube/internal/database"
	"yatube/internal/media"
	"yatube/internal/models"
	"yatube/internal/utils"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "yatube/engine"

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Count(ctx context.Context) (int, error)
}

type GroupStore interface {
	Create(ctx context.Context, group *models.Group) error
	GetBySlug(ctx context.Context, slug string) (*models.Group, error)
	List(ctx context.Context) ([]*models.Group, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type PostStore interface {
	Create(ctx context.Context, post *models.Post) error
	Update(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Post, error)
	List(ctx context.Context, filter database.PostFilter, limit, offset int) ([]*models.Post, error)
	Count(ctx context.Context, filter database.PostFilter) (int, error)
}

type CommentStore interface {
	Create(ctx context.Context, comment *models.Comment) error
	ListByPost(ctx context.Context, postID uuid.UUID) ([]*models.Comment, error)
}

type FollowStore interface {
	Create(ctx context.Context, follow *models.Follow) error
	Exists(ctx context.Context, userID, authorID uuid.UUID) (bool, error)
	Delete(ctx context.Context, userID, authorID uuid.UUID) (bool, error)
	CountFollowers(ctx context.Context, authorID uuid.UUID) (int, error)
	CountFollowing(ctx context.Context, userID uuid.UUID) (int, error)
	Count(ctx context.Context) (int, error)
}

// Stores groups the persistence dependencies of the engine.
type Stores struct {
	Users    UserStore
	Groups   GroupStore
	Posts    PostStore
	Comments CommentStore
	Follows  FollowStore
}

// NewStores wires the SQL repositories over one database.
func NewStores(db *database.DB) Stores {
	return Stores{
		Users:    database.NewUserRepository(db),
		Groups:   database.NewGroupRepository(db),
		Posts:    database.NewPostRepository(db),
		Comments: database.NewCommentRepository(db),
		Follows:  database.NewFollowRepository(db),
	}
}

// Engine implements the blog's business operations: follows and feeds, the post and comment
// write path, groups and accounts.
type Engine struct {
	users    UserStore
	groups   GroupStore
	posts    PostStore
	comments CommentStore
	follows  FollowStore
	media    media.Store
	metrics  *utils.MetricsCollector
	tracer   trace.Tracer

	// Overridable in tests
	now        func() time.Time
	bcryptCost int
}

func NewEngine(stores Stores, mediaStore media.Store, metrics *utils.MetricsCollector) *Engine {
	return &Engine{
		users:      stores.Users,
		groups:     stores.Groups,
		posts:      stores.Posts,
		comments:   stores.Comments,
		follows:    stores.Follows,
		media:      mediaStore,
		metrics:    metrics,
		tracer:     otel.Tracer(tracerName),
		now:        func() time.Time { return time.Now().UTC() },
		bcryptCost: defaultBcryptCost,
	}
}

type operation struct {
	e     *Engine
	name  string
	span  trace.Span
	start time.Time
}

// begin opens a span for an engine operation. end records its latency and outcome.
func (e *Engine) begin(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, *operation) {
	ctx, span := e.tracer.Start(ctx, "engine."+name, trace.WithAttributes(attrs...))
	return ctx, &operation{e: e, name: name, span: span, start: time.Now()}
}

func (op *operation) end(ctx context.Context, err *error) {
	if err != nil && *err != nil && !utils.IsErrorCode(*err, utils.ErrNotFound) {
		op.span.RecordError(*err)
		op.span.SetStatus(codes.Error, (*err).Error())
	}
	op.span.End()
	op.e.metrics.AddOperationLatency(ctx, op.name, time.Since(op.start))
}

// Stats are the record counts reported by the health endpoint.
type Stats struct {
	Users   int `json:"users"`
	Posts   int `json:"posts"`
	Follows int `json:"follows"`
}

func (e *Engine) Stats(ctx context.Context) (stats Stats, err error) {
	ctx, op := e.begin(ctx, "stats")
	defer op.end(ctx, &err)

	if stats.Users, err = e.users.Count(ctx); err != nil {
		return Stats{}, err
	}
	if stats.Posts, err = e.posts.Count(ctx, database.PostFilter{}); err != nil {
		return Stats{}, err
	}
	if stats.Follows, err = e.follows.Count(ctx); err != nil {
		return Stats{}, err
	}
	return stats, nil
}
