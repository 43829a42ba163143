package task

import (
	"context"
	"time"
)

// Repository is the store port for the task table. Update and Delete are
// atomic compare-and-act operations conditioned on the composite
// (owner, id) key: a missing item and an item owned by someone else are
// both reported as not found.
type Repository interface {
	Create(ctx context.Context, t *Task) error
	ListByOwner(ctx context.Context, owner string) ([]*Task, error)
	Update(ctx context.Context, owner, id string, changes Changes, updatedAt time.Time) (*Task, error)
	Delete(ctx context.Context, owner, id string) (*Task, error)
}
