package container

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"runtime"
	"sync"

	"github.com/km-arc/go-laravel/framework/multibind"
)

// Provider produces list elements of type T. Its own type carries the
// priority of what it provides.
type Provider[T any] interface {
	Get(ctx context.Context) (T, error)
}

// ListBinder registers contributions to the ordered list of T. Every call
// to NewListBinder for the same T returns the same binder, so independent
// providers can contribute to one list.
//
//	shapes := container.NewListBinder[Shape](app)
//	shapes.AddInstance(Circle{})
//	shapes.AddBinding("rectangle", (*Rectangle)(nil))
//	shapes.AddProvider(&SquareProvider{})
//
// Once the container is finalized the list resolves under two keys:
// ListKey[T]() yields []T and SequenceKey[T]() yields multibind.Sequence[T].
type ListBinder[T any] struct {
	c      *Container
	set    *multibind.ContributorSet[T]
	engine *multibind.Engine[T]
	views  *multibind.Views[T]

	mu        sync.Mutex
	instances []contribution
	abstracts []contribution
}

type contribution struct {
	source string
	value  any
}

// listBinding is the type-erased view of a ListBinder held by the container.
type listBinding interface {
	finalize() error
	describe() (ListDescription, error)
}

// ListDescription summarizes one ordered list for diagnostics.
type ListDescription struct {
	Element          string
	ListKey          string
	SequenceKey      string
	PermitDuplicates bool
	Order            []multibind.Entry
}

// ListKey is the abstract under which the []T list is bound.
func ListKey[T any]() string {
	return "[]" + typeString(reflect.TypeFor[T]())
}

// SequenceKey is the abstract under which the read-only view is bound.
func SequenceKey[T any]() string {
	return "multibind.Sequence[" + typeString(reflect.TypeFor[T]()) + "]"
}

// NewListBinder returns the list binder for T, creating it and binding
// both list keys on first use.
func NewListBinder[T any](c *Container) *ListBinder[T] {
	key := ListKey[T]()

	c.mu.Lock()
	if existing, ok := c.lists[key]; ok {
		c.mu.Unlock()
		return existing.(*ListBinder[T])
	}
	set := multibind.NewContributorSet[T]()
	opts := append([]multibind.EngineOption{
		multibind.WithName(typeString(reflect.TypeFor[T]())),
		multibind.WithLogger(c.log.With().Str("component", "multibind").Logger()),
	}, c.engineOpts...)
	engine := multibind.NewEngine(set, c.priorities, opts...)
	lb := &ListBinder[T]{
		c:      c,
		set:    set,
		engine: engine,
		views:  multibind.NewViews(engine),
	}
	c.lists[key] = lb
	c.listOrder = append(c.listOrder, key)
	if c.finalized {
		// Too late to contribute; the list stays empty.
		set.Finalize()
	}
	c.mu.Unlock()

	c.BindContext(key, func(ctx context.Context, _ *Container) (any, error) {
		return lb.views.List(ctx)
	})
	c.BindContext(SequenceKey[T](), func(ctx context.Context, _ *Container) (any, error) {
		return lb.views.Sequence(ctx)
	})
	return lb
}

// Views returns the list views backing both keys.
func (lb *ListBinder[T]) Views() *multibind.Views[T] { return lb.views }

// PermitDuplicates allows the same contribution to be registered twice.
func (lb *ListBinder[T]) PermitDuplicates() *ListBinder[T] {
	lb.set.PermitDuplicates()
	return lb
}

// AddInstance contributes a pre-built value. Its dynamic type supplies
// the priority.
func (lb *ListBinder[T]) AddInstance(v T) error {
	src := source("instance")
	impl := reflect.TypeOf(any(v))
	if err := lb.add(src, impl, func(context.Context) (T, error) { return v, nil }); err != nil {
		return err
	}
	if impl != nil && reflect.ValueOf(any(v)).Comparable() {
		lb.mu.Lock()
		lb.instances = append(lb.instances, contribution{source: src, value: any(v)})
		lb.mu.Unlock()
	}
	return nil
}

// AddProvider contributes the value returned by p.Get on every request.
// The provider's type supplies the priority.
func (lb *ListBinder[T]) AddProvider(p Provider[T]) error {
	if p == nil {
		return fmt.Errorf("container: nil provider for list of %s", reflect.TypeFor[T]())
	}
	return lb.add(source("provider instance"), reflect.TypeOf(p), p.Get)
}

// AddProviderBinding contributes through a Provider[T] resolved from the
// container under abstract. impl is a typed nil naming the provider type,
// e.g. (*SquareProvider)(nil).
func (lb *ListBinder[T]) AddProviderBinding(abstract string, impl any) error {
	return lb.add(source("provider binding "+abstract), implType(impl), func(ctx context.Context) (T, error) {
		var zero T
		p, err := ResolveContext[Provider[T]](ctx, lb.c, abstract)
		if err != nil {
			return zero, err
		}
		if p == nil {
			return zero, fmt.Errorf("%w: [%s] resolved to nil provider", ErrTypeMismatch, abstract)
		}
		return p.Get(ctx)
	})
}

// AddBinding contributes whatever the container resolves for abstract.
// impl is a typed nil naming the implementation type, e.g. (*Circle)(nil);
// nil falls back to the element type.
func (lb *ListBinder[T]) AddBinding(abstract string, impl any) error {
	src := source("binding " + abstract)
	if err := lb.add(src, implType(impl), func(ctx context.Context) (T, error) {
		return ResolveContext[T](ctx, lb.c, abstract)
	}); err != nil {
		return err
	}
	lb.mu.Lock()
	lb.abstracts = append(lb.abstracts, contribution{source: src, value: lb.c.canonicalRead(abstract)})
	lb.mu.Unlock()
	return nil
}

// AddFactory contributes the value built by f on every request.
func (lb *ListBinder[T]) AddFactory(impl any, f func(ctx context.Context, c *Container) (T, error)) error {
	if f == nil {
		return fmt.Errorf("container: nil factory for list of %s", reflect.TypeFor[T]())
	}
	return lb.add(source("factory"), implType(impl), func(ctx context.Context) (T, error) {
		return f(ctx, lb.c)
	})
}

func (lb *ListBinder[T]) add(src string, impl reflect.Type, r multibind.Resolver[T]) error {
	if _, err := lb.set.Add(src, impl, r); err != nil {
		return fmt.Errorf("container: %s: %w", src, err)
	}
	return nil
}

// finalize freezes the set and reports malformed priorities and, unless
// duplicates are permitted, repeated contributions.
func (lb *ListBinder[T]) finalize() error {
	lb.set.Finalize()
	contributors, err := lb.set.Contributors()
	if err != nil {
		return err
	}
	var errs []error
	for _, c := range contributors {
		if err := lb.c.priorities.Validate(c.Type); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c.Source, err))
		}
	}

	permit, _ := lb.set.PermitsDuplicates()
	if !permit {
		lb.mu.Lock()
		errs = append(errs, duplicates(lb.instances)...)
		errs = append(errs, duplicates(lb.abstracts)...)
		lb.mu.Unlock()
	}
	return errors.Join(errs...)
}

func (lb *ListBinder[T]) describe() (ListDescription, error) {
	order, err := lb.engine.Order()
	if err != nil {
		return ListDescription{}, err
	}
	permit, err := lb.set.PermitsDuplicates()
	if err != nil {
		return ListDescription{}, err
	}
	return ListDescription{
		Element:          lb.engine.Name(),
		ListKey:          ListKey[T](),
		SequenceKey:      SequenceKey[T](),
		PermitDuplicates: permit,
		Order:            order,
	}, nil
}

func duplicates(seen []contribution) []error {
	var errs []error
	for i := range seen {
		for j := range i {
			if seen[i].value == seen[j].value {
				errs = append(errs, fmt.Errorf("%w: %v at %s already bound at %s",
					ErrDuplicateBinding, seen[i].value, seen[i].source, seen[j].source))
				break
			}
		}
	}
	return errs
}

// ListBindings describes every ordered list in creation order. It fails
// before the container is finalized.
func (c *Container) ListBindings() ([]ListDescription, error) {
	c.mu.RLock()
	lists := make([]listBinding, 0, len(c.listOrder))
	for _, key := range c.listOrder {
		lists = append(lists, c.lists[key])
	}
	c.mu.RUnlock()

	out := make([]ListDescription, 0, len(lists))
	for _, lb := range lists {
		d, err := lb.describe()
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// ResolveList resolves the ordered []T list.
func ResolveList[T any](ctx context.Context, c *Container) ([]T, error) {
	return ResolveContext[[]T](ctx, c, ListKey[T]())
}

// ResolveSequence resolves the read-only view of the ordered list of T.
func ResolveSequence[T any](ctx context.Context, c *Container) (multibind.Sequence[T], error) {
	return ResolveContext[multibind.Sequence[T]](ctx, c, SequenceKey[T]())
}

func implType(impl any) reflect.Type {
	if impl == nil {
		return nil
	}
	if t, ok := impl.(reflect.Type); ok {
		return t
	}
	return reflect.TypeOf(impl)
}

// source names the user code that called a ListBinder method.
func source(kind string) string {
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		return kind
	}
	return fmt.Sprintf("%s:%d (%s)", filepath.Base(file), line, kind)
}
