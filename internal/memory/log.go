package memory

import "slices"

// Ring keeps the most recent items, newest first, up to a fixed limit.
// It is not safe for concurrent use; Manager serializes access.
type Ring[T any] struct {
	limit int
	items []T
}

// NewRing returns an empty ring holding at most limit items.
func NewRing[T any](limit int) *Ring[T] {
	return &Ring[T]{limit: max(limit, 1)}
}

// Push adds v as the newest item, dropping the oldest past the limit.
func (r *Ring[T]) Push(v T) {
	r.items = slices.Insert(r.items, 0, v)
	if len(r.items) > r.limit {
		clear(r.items[r.limit:])
		r.items = r.items[:r.limit]
	}
}

// Items returns a copy, newest first.
func (r *Ring[T]) Items() []T { return slices.Clone(r.items) }

// Len returns the number of items held.
func (r *Ring[T]) Len() int { return len(r.items) }

// Reset drops every item.
func (r *Ring[T]) Reset() { r.items = nil }
