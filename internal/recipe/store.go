package recipe

import (
	"context"

	"recipehub/pkg/models"
)

// Store persists the recipe collection. Implementations live in
// internal/storage. Rename must replace oldSlug with r.Slug in a single
// atomic step: either both the removal and the insert are durable or neither is.
type Store interface {
	LoadAll(ctx context.Context) ([]models.Recipe, error)
	Put(ctx context.Context, r models.Recipe) error
	Rename(ctx context.Context, oldSlug string, r models.Recipe) error
	Delete(ctx context.Context, slug string) error
}
