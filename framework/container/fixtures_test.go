package container_test

import (
	"context"
	"fmt"

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

type SquareProvider struct {
	multibind.Ordered `order:"2"`
}

func (*SquareProvider) Get(context.Context) (Shape, error) { return Square{}, nil }

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

type badlyOrdered struct {
	multibind.Ordered `order:"soon"`
}

func (badlyOrdered) Name() string { return "bad" }

func names[S interface{ Name() string }](shapes []S) []string {
	out := make([]string, len(shapes))
	for i, s := range shapes {
		out[i] = s.Name()
	}
	return out
}
