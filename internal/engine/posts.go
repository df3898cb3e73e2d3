package engine

import (
	"context"
	"log/slog"

	"yatube/internal/database"
	"yatube/internal/forms"
	"yatube/internal/media"
	"yatube/internal/models"
	"yatube/internal/pagination"
	"yatube/internal/utils"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// EditOutcome reports whether an edit was applied.
type EditOutcome int

const (
	EditApplied EditOutcome = iota
	EditForbidden
)

func (o EditOutcome) String() string {
	if o == EditApplied {
		return "applied"
	}
	return "forbidden"
}

const invalidGroupMessage = "Select a valid choice. That choice is not one of the available choices."

func (e *Engine) listPosts(ctx context.Context, filter database.PostFilter, page string) (pagination.Page[*models.Post], error) {
	return pagination.Query(ctx, page,
		func(ctx context.Context) (int, error) {
			return e.posts.Count(ctx, filter)
		},
		func(ctx context.Context, limit, offset int) ([]*models.Post, error) {
			return e.posts.List(ctx, filter, limit, offset)
		},
	)
}

// Index returns one page of all posts, newest first.
func (e *Engine) Index(ctx context.Context, page string) (result pagination.Page[*models.Post], err error) {
	ctx, op := e.begin(ctx, "index")
	defer op.end(ctx, &err)

	return e.listPosts(ctx, database.PostFilter{}, page)
}

// GroupPosts resolves a group by slug and returns one page of its posts.
func (e *Engine) GroupPosts(ctx context.Context, slug, page string) (group *models.Group, result pagination.Page[*models.Post], err error) {
	ctx, op := e.begin(ctx, "group_posts", attribute.String("group.slug", slug))
	defer op.end(ctx, &err)

	group, err = e.groups.GetBySlug(ctx, slug)
	if err != nil {
		return nil, result, err
	}
	result, err = e.listPosts(ctx, database.PostFilter{GroupID: group.ID}, page)
	return group, result, err
}

// Profile is an author's page as seen by a viewer.
type Profile struct {
	Author    *models.User
	Posts     pagination.Page[*models.Post]
	Followers int
	Following int
	// IsFollowing is whether the viewer follows the author; CanFollow is false for
	// anonymous viewers and for authors viewing their own profile.
	IsFollowing bool
	CanFollow   bool
}

// PostCount is the author's total number of posts.
func (p *Profile) PostCount() int {
	return p.Posts.Total
}

// ProfileOf loads the author's profile. viewer may be nil.
func (e *Engine) ProfileOf(ctx context.Context, username string, viewer *models.User, page string) (profile *Profile, err error) {
	ctx, op := e.begin(ctx, "profile", attribute.String("author.username", username))
	defer op.end(ctx, &err)

	author, err := e.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	profile = &Profile{Author: author}
	if profile.Posts, err = e.listPosts(ctx, database.PostFilter{AuthorID: author.ID}, page); err != nil {
		return nil, err
	}
	if profile.Followers, err = e.follows.CountFollowers(ctx, author.ID); err != nil {
		return nil, err
	}
	if profile.Following, err = e.follows.CountFollowing(ctx, author.ID); err != nil {
		return nil, err
	}
	if viewer != nil && viewer.ID != author.ID {
		profile.CanFollow = true
		if profile.IsFollowing, err = e.follows.Exists(ctx, viewer.ID, author.ID); err != nil {
			return nil, err
		}
	}
	return profile, nil
}

// UserByUsername resolves an author for the follow endpoints.
func (e *Engine) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	return e.users.GetByUsername(ctx, username)
}

// UserByID resolves the account behind a session.
func (e *Engine) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return e.users.GetByID(ctx, id)
}

// Post returns a single post.
func (e *Engine) Post(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	return e.posts.GetByID(ctx, id)
}

// PostDetail returns a post with its comments, oldest comment first.
func (e *Engine) PostDetail(ctx context.Context, id uuid.UUID) (post *models.Post, comments []*models.Comment, err error) {
	ctx, op := e.begin(ctx, "post_detail", attribute.String("post.id", id.String()))
	defer op.end(ctx, &err)

	post, err = e.posts.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	comments, err = e.comments.ListByPost(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return post, comments, nil
}

// Groups lists the groups a post can be filed under.
func (e *Engine) Groups(ctx context.Context) ([]*models.Group, error) {
	return e.groups.List(ctx)
}

// resolveGroup maps the form's group slug to a group reference, adding a field error for an
// unknown slug.
func (e *Engine) resolveGroup(ctx context.Context, slug string, errs forms.Errors) (uuid.NullUUID, error) {
	if slug == "" {
		return uuid.NullUUID{}, nil
	}
	group, err := e.groups.GetBySlug(ctx, slug)
	if utils.IsErrorCode(err, utils.ErrNotFound) {
		errs.Add("group", invalidGroupMessage)
		return uuid.NullUUID{}, nil
	}
	if err != nil {
		return uuid.NullUUID{}, err
	}
	return uuid.NullUUID{UUID: group.ID, Valid: true}, nil
}

// saveImage stores a validated upload and returns its media key.
func (e *Engine) saveImage(ctx context.Context, img *forms.Image) (string, error) {
	key := media.NewPostImageKey(img.Ext())
	if err := e.media.Save(ctx, key, img.Data); err != nil {
		return "", utils.NewAppError(utils.ErrDatabase, "failed to store image", err)
	}
	return key, nil
}

func (e *Engine) discardImage(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := e.media.Delete(ctx, key); err != nil {
		slog.Warn("engine: failed to delete image", "key", key, "error", err)
	}
}

// CreatePost validates the form and stores a new post by author. Invalid input returns field
// errors and stores nothing.
func (e *Engine) CreatePost(ctx context.Context, author *models.User, form *forms.PostForm) (post *models.Post, errs forms.Errors, err error) {
	ctx, op := e.begin(ctx, "create_post")
	defer op.end(ctx, &err)

	if author == nil {
		return nil, nil, utils.NewUnauthorizedError("login required")
	}

	errs = form.Validate()
	groupID, err := e.resolveGroup(ctx, form.Group, errs)
	if err != nil {
		return nil, nil, err
	}
	if !errs.Valid() {
		return nil, errs, nil
	}

	post = &models.Post{
		ID:        uuid.New(),
		Text:      form.Text,
		CreatedAt: e.now(),
		AuthorID:  author.ID,
		GroupID:   groupID,
	}
	if form.Image != nil {
		if post.Image, err = e.saveImage(ctx, form.Image); err != nil {
			return nil, nil, err
		}
	}

	if err := e.posts.Create(ctx, post); err != nil {
		e.discardImage(ctx, post.Image)
		return nil, nil, err
	}

	slog.Debug("engine: post created", "post", post.ID, "author", author.Username)
	stored, err := e.posts.GetByID(ctx, post.ID)
	if err != nil {
		return nil, nil, err
	}
	return stored, nil, nil
}

// EditPost applies the form to post when editor is its author. Anyone else gets EditForbidden
// and the stored post is left untouched. The author and creation time never change; an
// omitted image keeps the current one.
func (e *Engine) EditPost(ctx context.Context, post *models.Post, editor *models.User, form *forms.PostForm) (outcome EditOutcome, errs forms.Errors, err error) {
	ctx, op := e.begin(ctx, "edit_post", attribute.String("post.id", post.ID.String()))
	defer op.end(ctx, &err)

	if editor == nil || editor.ID != post.AuthorID {
		slog.Debug("engine: edit by non-author declined", "post", post.ID)
		return EditForbidden, nil, nil
	}

	errs = form.Validate()
	groupID, err := e.resolveGroup(ctx, form.Group, errs)
	if err != nil {
		return EditForbidden, nil, err
	}
	if !errs.Valid() {
		return EditApplied, errs, nil
	}

	updated := *post
	updated.Text = form.Text
	updated.GroupID = groupID
	if form.Image != nil {
		if updated.Image, err = e.saveImage(ctx, form.Image); err != nil {
			return EditApplied, nil, err
		}
	}

	if err := e.posts.Update(ctx, &updated); err != nil {
		if updated.Image != post.Image {
			e.discardImage(ctx, updated.Image)
		}
		return EditApplied, nil, err
	}
	if updated.Image != post.Image {
		e.discardImage(ctx, post.Image)
	}

	*post = updated
	return EditApplied, nil, nil
}

// AddComment validates the form and stores a comment by author on post.
func (e *Engine) AddComment(ctx context.Context, post *models.Post, author *models.User, form *forms.CommentForm) (comment *models.Comment, errs forms.Errors, err error) {
	ctx, op := e.begin(ctx, "add_comment", attribute.String("post.id", post.ID.String()))
	defer op.end(ctx, &err)

	if author == nil {
		return nil, nil, utils.NewUnauthorizedError("login required")
	}
	if errs = form.Validate(); !errs.Valid() {
		return nil, errs, nil
	}

	comment = &models.Comment{
		Text:           form.Text,
		AuthorID:       author.ID,
		AuthorUsername: author.Username,
		PostID:         post.ID,
		CreatedAt:      e.now(),
	}
	if err := e.comments.Create(ctx, comment); err != nil {
		return nil, nil, err
	}
	return comment, nil, nil
}

// CreateGroup validates the form and stores a group. A taken slug is a field error.
func (e *Engine) CreateGroup(ctx context.Context, form *forms.GroupForm) (group *models.Group, errs forms.Errors, err error) {
	ctx, op := e.begin(ctx, "create_group")
	defer op.end(ctx, &err)

	if errs = form.Validate(); !errs.Valid() {
		return nil, errs, nil
	}

	group = &models.Group{
		Title:       form.Title,
		Slug:        form.Slug,
		Description: form.Description,
		CreatedAt:   e.now(),
	}
	err = e.groups.Create(ctx, group)
	if utils.IsErrorCode(err, utils.ErrDuplicate) {
		errs.Add("slug", "Group with this slug already exists.")
		return nil, errs, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return group, nil, nil
}

// DeleteGroup removes the group with the given slug. It fails with a PROTECTED error while
// any post is filed under the group.
func (e *Engine) DeleteGroup(ctx context.Context, slug string) (err error) {
	ctx, op := e.begin(ctx, "delete_group", attribute.String("group.slug", slug))
	defer op.end(ctx, &err)

	group, err := e.groups.GetBySlug(ctx, slug)
	if err != nil {
		return err
	}
	return e.groups.Delete(ctx, group.ID)
}
