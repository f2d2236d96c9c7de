// Package repo defines the generic Repository interface and list options.
package repo

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no entity has the requested id.
var ErrNotFound = errors.New("repo: not found")

// Repository is a generic keyed store. Upsert creates or overwrites by id;
// Prune removes entities inside scope whose ids are not in keep.
type Repository[T any, ID comparable] interface {
	Get(ctx context.Context, id ID) (T, error)
	List(ctx context.Context, opts ListOpts) ([]T, error)
	Upsert(ctx context.Context, items ...T) error
	Delete(ctx context.Context, id ID) error
	Prune(ctx context.Context, scope map[string]any, keep []ID) (int, error)
}

// ListOpts controls pagination and filtering for List operations.
type ListOpts struct {
	Offset int
	Limit  int
	Filter map[string]any
}
