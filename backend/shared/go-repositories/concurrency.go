package repositories

import (
	"context"
	"fmt"

	"github.com/shiftly/mono-repo/backend/shared/go-utils"
)

/*
EntityWithVersion:

* `comparable`  → lets us use `==` to compare two values of type T
* the three concurrency methods
*/
type EntityWithVersion interface {
	comparable
	GetID() string
	GetRowVersion() int64
	SetRowVersion(int64)
}

// UpdateIfVersionFunc writes entity only if the stored row still carries
// expectedVersion, returning the number of rows affected (0 or 1).
type UpdateIfVersionFunc[T EntityWithVersion] func(
	ctx context.Context,
	entity T,
	expectedVersion int64,
) (int64, error)

type GetByIDFunc[T EntityWithVersion] func(
	ctx context.Context,
	id string,
) (T, error)

/*
WithRetry runs a read‑mutate‑update loop with optimistic locking.

mutate sees a fresh copy on every attempt, so business checks made inside it
are re-evaluated against whatever the winning writer left behind. The entity
returned on success carries the bumped row version.
*/
func WithRetry[T EntityWithVersion](
	ctx context.Context,
	maxRetries int,
	id string,
	getByID GetByIDFunc[T],
	updateIfVersion UpdateIfVersionFunc[T],
	mutate func(T) error,
) (T, error) {
	var zero T
	for attempt := 0; attempt < maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		current, err := getByID(ctx, id)
		if err != nil {
			return zero, err
		}

		// zero value of T (nil for pointers)
		if current == zero {
			return zero, ErrNotFound
		}

		oldVersion := current.GetRowVersion()

		if err := mutate(current); err != nil {
			return zero, err
		}

		affected, err := updateIfVersion(ctx, current, oldVersion)
		if err != nil {
			return zero, err
		}
		if affected == 1 {
			current.SetRowVersion(oldVersion + 1)
			return current, nil
		}
		// someone else updated first – retry
	}
	return zero, fmt.Errorf("too much contention updating %q: %w", id, utils.ErrRowVersionConflict)
}
