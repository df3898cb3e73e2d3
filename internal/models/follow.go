package models

import (
	"time"

	"github.com/google/uuid"
)

// Follow is the edge "UserID follows AuthorID".
type Follow struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"userId" db:"user_id"`
	AuthorID  uuid.UUID `json:"authorId" db:"author_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
