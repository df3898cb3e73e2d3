package models

import (
	"time"

	"github.com/google/uuid"
)

type Comment struct {
	ID             uuid.UUID `json:"id" db:"id"`
	Text           string    `json:"text" db:"text"`
	AuthorID       uuid.UUID `json:"authorId" db:"author_id"`
	AuthorUsername string    `json:"authorUsername" db:"author_username"`
	PostID         uuid.UUID `json:"postId" db:"post_id"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
}
