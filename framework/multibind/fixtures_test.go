package multibind_test

import (
	"context"
	"fmt"
	"reflect"

	"github.com/km-arc/go-laravel/framework/multibind"
)

type Shape interface {
	Name() string
}

type Circle struct {
	multibind.Ordered `order:"1"`
}

func (Circle) Name() string { return "circle" }

type Square struct{}

func (Square) Name() string { return "square" }

// SquareProvider carries the priority for the squares it builds.
type SquareProvider struct {
	multibind.Ordered `order:"2"`
}

type AbstractRectangle struct {
	multibind.Ordered `order:"-1000"`
	width, height     int
}

type RectangleImpl struct {
	AbstractRectangle
}

func (r RectangleImpl) Name() string {
	return fmt.Sprintf("rectangle[width=%d, height=%d]", r.width, r.height)
}

type Triangle struct{}

func (Triangle) Name() string { return "triangle" }

func typeOf[T any]() reflect.Type { return reflect.TypeFor[T]() }

func constant[T any](v T) multibind.Resolver[T] {
	return func(context.Context) (T, error) { return v, nil }
}

func names(shapes []Shape) []string {
	out := make([]string, len(shapes))
	for i, s := range shapes {
		out[i] = s.Name()
	}
	return out
}

// shapeSet registers the five shapes in the order used throughout the tests.
func shapeSet() *multibind.ContributorSet[Shape] {
	set := multibind.NewContributorSet[Shape]()
	mustAdd(set, "circle", typeOf[Circle](), constant[Shape](Circle{}))
	mustAdd(set, "square-provider-type", typeOf[SquareProvider](), constant[Shape](Square{}))
	mustAdd(set, "square-provider-instance", typeOf[*SquareProvider](), constant[Shape](Square{}))
	mustAdd(set, "rectangle", typeOf[RectangleImpl](), func(context.Context) (Shape, error) {
		return RectangleImpl{AbstractRectangle{width: 114, height: 514}}, nil
	})
	mustAdd(set, "triangle", typeOf[Triangle](), constant[Shape](Triangle{}))
	return set
}

func mustAdd[T any](set *multibind.ContributorSet[T], source string, t reflect.Type, r multibind.Resolver[T]) {
	if _, err := set.Add(source, t, r); err != nil {
		panic(err)
	}
}

// arrayType returns a distinct type per n, for tests that need many
// independently declared implementation types.
func arrayType(n int) reflect.Type {
	return reflect.ArrayOf(n, reflect.TypeFor[byte]())
}
