package models

import (
	"time"

	"github.com/google/uuid"
)

// Group is a named category posts may be filed under.
type Group struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Slug        string    `json:"slug" db:"slug"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

func (g *Group) String() string {
	return g.Title
}
