// Package shapes is a demo module that contributes to one ordered list
// from several registration styles.
package shapes

import (
	"context"
	"fmt"
	"net/http"

	"github.com/km-arc/go-laravel/framework/container"
	gohttp "github.com/km-arc/go-laravel/framework/http"
	"github.com/km-arc/go-laravel/framework/multibind"
	"github.com/km-arc/go-laravel/framework/routing"
)

// Shape is the list element.
type Shape interface {
	Name() string
}

type Circle struct {
	multibind.Ordered `order:"1"`
}

func (Circle) Name() string { return "circle" }

type Square struct{}

func (Square) Name() string { return "square" }

// SquareProvider builds a Square on every request. Its own order tag
// places the squares.
type SquareProvider struct {
	multibind.Ordered `order:"2"`
}

func (*SquareProvider) Get(context.Context) (Shape, error) { return Square{}, nil }

// AbstractRectangle carries the order of every rectangle embedding it.
type AbstractRectangle struct {
	multibind.Ordered `order:"-1000"`
	Width, Height     int
}

type Rectangle struct {
	AbstractRectangle
}

func (r Rectangle) Name() string {
	return fmt.Sprintf("rectangle[width=%d, height=%d]", r.Width, r.Height)
}

// Triangle has no order and sorts last.
type Triangle struct{}

func (Triangle) Name() string { return "triangle" }

// ServiceProvider registers the demo shapes. The resolved order is
// rectangle, circle, square, square, triangle.
type ServiceProvider struct {
	container.BaseProvider
}

func (p *ServiceProvider) Register(app *container.Container) {
	app.Bind("shapes.square-provider", func(*container.Container) any { return &SquareProvider{} })
	app.Bind("shapes.rectangle", func(*container.Container) any {
		return Rectangle{AbstractRectangle{Width: 114, Height: 514}}
	})

	list := container.NewListBinder[Shape](app)
	must(list.AddInstance(Circle{}))
	must(list.AddProviderBinding("shapes.square-provider", (*SquareProvider)(nil)))
	must(list.AddProvider(&SquareProvider{}))
	must(list.AddBinding("shapes.rectangle", Rectangle{}))
	must(list.AddFactory(Triangle{}, func(context.Context, *container.Container) (Shape, error) {
		return Triangle{}, nil
	}))
}

func (p *ServiceProvider) Boot(app *container.Container) {
	if !app.Bound("router") {
		return
	}
	router := container.Resolve[*routing.Router](app, "router")
	router.Get("/shapes", Handler(app))
}

// Handler serves the shape names in resolution order.
//
//	GET /shapes  →  {"data": {"request_id": "...", "shapes": ["rectangle[...]", ...]}}
func Handler(app *container.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, res := gohttp.NewRequest(r), gohttp.NewResponse(w)
		seq, err := container.ResolveSequence[Shape](req.Context(), app)
		if err != nil {
			res.Failure(err)
			return
		}
		names := make([]string, 0, seq.Len())
		for s := range seq.Values() {
			names = append(names, s.Name())
		}
		res.Success(map[string]any{"request_id": req.RequestID(), "shapes": names})
	}
}

// Names resolves the list outside any request.
func Names(ctx context.Context, app *container.Container) ([]string, error) {
	list, err := container.ResolveList[Shape](ctx, app)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(list))
	for i, s := range list {
		names[i] = s.Name()
	}
	return names, nil
}

// must panics on registration errors, which only happen when the provider
// is registered after Boot.
func must(err error) {
	if err != nil {
		panic(err)
	}
}
