package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

const postPreviewLength = 15

type Post struct {
	ID        uuid.UUID     `json:"id" db:"id"`
	Text      string        `json:"text" db:"text"`
	CreatedAt time.Time     `json:"createdAt" db:"created_at"`
	AuthorID  uuid.UUID     `json:"authorId" db:"author_id"`
	GroupID   uuid.NullUUID `json:"groupId" db:"group_id"`
	Image     string        `json:"image" db:"image"` // Media key, empty when the post has no image

	// Joined columns, read-only
	AuthorUsername  string         `json:"authorUsername" db:"author_username"`
	AuthorFirstName string         `json:"authorFirstName" db:"author_first_name"`
	AuthorLastName  string         `json:"authorLastName" db:"author_last_name"`
	GroupTitle      sql.NullString `json:"-" db:"group_title"`
	GroupSlug       sql.NullString `json:"-" db:"group_slug"`
	CommentCount    int            `json:"commentCount" db:"comment_count"`
}

// Author returns the joined author columns as a User value.
func (p *Post) Author() *User {
	return &User{
		ID:        p.AuthorID,
		Username:  p.AuthorUsername,
		FirstName: p.AuthorFirstName,
		LastName:  p.AuthorLastName,
	}
}

// HasGroup reports whether the post is filed under a group.
func (p *Post) HasGroup() bool {
	return p.GroupID.Valid
}

func (p *Post) String() string {
	runes := []rune(p.Text)
	if len(runes) > postPreviewLength {
		return string(runes[:postPreviewLength])
	}
	return p.Text
}
