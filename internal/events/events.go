package events

import "time"

const (
	RecipeCreated  = "recipe.created"
	RecipeUpdated  = "recipe.updated"
	RecipeDeleted  = "recipe.deleted"
	RecipeReviewed = "recipe.reviewed"
	BlogCreated    = "blog.created"
	BlogUpdated    = "blog.updated"
	BlogDeleted    = "blog.deleted"
)

type Event struct {
	Type    string    `json:"type"`
	Slug    string    `json:"slug"`
	OldSlug string    `json:"oldSlug,omitempty"` // set on rename
	Actor   string    `json:"actor,omitempty"`
	At      time.Time `json:"at"`
}

// Publisher receives content change events after a mutation succeeds.
type Publisher interface {
	Publish(Event)
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(Event) {}
