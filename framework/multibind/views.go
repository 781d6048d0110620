package multibind

import (
	"context"
	"iter"
	"slices"
)

// Sequence is a read-only ordered list of resolved elements.
type Sequence[T any] interface {
	Len() int
	At(i int) T
	All() iter.Seq2[int, T]
	Values() iter.Seq[T]
	// Slice returns a copy of the elements.
	Slice() []T
}

type sequence[T any] struct {
	items []T
}

// NewSequence wraps a copy of items.
func NewSequence[T any](items []T) Sequence[T] {
	return sequence[T]{items: slices.Clone(items)}
}

func (s sequence[T]) Len() int               { return len(s.items) }
func (s sequence[T]) At(i int) T             { return s.items[i] }
func (s sequence[T]) All() iter.Seq2[int, T] { return slices.All(s.items) }
func (s sequence[T]) Values() iter.Seq[T]    { return slices.Values(s.items) }
func (s sequence[T]) Slice() []T             { return slices.Clone(s.items) }

// Views serves the two request shapes of one ordered list: the exact
// []T and the read-only Sequence[T]. Both go through the same Engine.
type Views[T any] struct {
	engine *Engine[T]
}

// NewViews returns the views of e.
func NewViews[T any](e *Engine[T]) *Views[T] {
	return &Views[T]{engine: e}
}

// Engine returns the backing engine.
func (v *Views[T]) Engine() *Engine[T] { return v.engine }

// List returns the exact list.
func (v *Views[T]) List(ctx context.Context) ([]T, error) {
	return v.engine.Materialize(ctx)
}

// Sequence returns the read-only view.
func (v *Views[T]) Sequence(ctx context.Context) (Sequence[T], error) {
	items, err := v.engine.Materialize(ctx)
	if err != nil {
		return nil, err
	}
	return sequence[T]{items: items}, nil
}

// Both returns the two views of a single materialization.
func (v *Views[T]) Both(ctx context.Context) ([]T, Sequence[T], error) {
	items, err := v.engine.Materialize(ctx)
	if err != nil {
		return nil, nil, err
	}
	return items, NewSequence(items), nil
}
