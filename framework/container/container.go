package container

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/km-arc/go-laravel/framework/multibind"
)

var (
	// ErrNotBound is returned when an abstract has no binding.
	ErrNotBound = errors.New("container: no binding registered")

	// ErrCircularDependency is returned when an abstract depends on itself.
	ErrCircularDependency = errors.New("container: circular dependency")

	// ErrTypeMismatch is returned when a resolved value has the wrong type.
	ErrTypeMismatch = errors.New("container: resolved value has unexpected type")

	// ErrDuplicateBinding is returned at finalization when a list that does
	// not permit duplicates received the same contribution twice.
	ErrDuplicateBinding = errors.New("container: duplicate list binding")
)

// ── Binding types ─────────────────────────────────────────────────────────────

// Factory is a function that builds a concrete value from the container.
type Factory func(c *Container) any

// ContextFactory builds a value for the request carried by ctx.
type ContextFactory func(ctx context.Context, c *Container) (any, error)

type binding struct {
	factory   ContextFactory
	singleton bool
}

// singletonCell serializes construction of one shared instance. A failed
// construction is not cached; the next request tries again.
type singletonCell struct {
	mu    sync.Mutex
	done  bool
	value any
}

// extender wraps an already-resolved instance with decorator logic.
type extender func(instance any, c *Container) any

// ── Container ─────────────────────────────────────────────────────────────────

// Container is the IoC container. It mirrors Laravel's Illuminate\Container\Container.
//
// It supports:
//   - Bind / Singleton / Instance / Alias, plus context-aware variants
//   - Make / MakeContext / Resolve (generic)
//   - Tags (unordered groups of abstractions)
//   - Ordered list multibindings (see ListBinder)
//   - Extend (decorate resolved instances)
//   - Contextual binding (when A needs B, give it C)
//
// A Container is safe for concurrent use. Resolution state that depends on
// the caller (the build stack used by contextual bindings) travels in the
// context, not in the container.
type Container struct {
	mu sync.RWMutex

	bindings   map[string]*binding
	instances  map[string]any
	singletons map[string]*singletonCell
	aliases    map[string]string
	extenders  map[string][]extender
	tags       map[string][]string

	// contextual: when[concrete][abstract] = factory
	contextual map[string]map[string]ContextFactory

	afterResolving []func(string, any)

	// list element key → binder, in creation order
	lists        map[string]listBinding
	listOrder    []string
	finalized    bool
	finalizeOnce sync.Once
	finalizeErr  error

	priorities *multibind.PriorityResolver
	engineOpts []multibind.EngineOption
	log        zerolog.Logger
}

// Option configures a Container.
type Option func(*Container)

// WithLogger sets the container logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Container) { c.log = l }
}

// WithPriorities shares a priority resolver across every list binder.
func WithPriorities(r *multibind.PriorityResolver) Option {
	return func(c *Container) { c.priorities = r }
}

// WithEngineOptions passes options (tracer, recorder) to every list engine.
func WithEngineOptions(opts ...multibind.EngineOption) Option {
	return func(c *Container) { c.engineOpts = append(c.engineOpts, opts...) }
}

// New creates an empty container.
func New(opts ...Option) *Container {
	c := &Container{
		bindings:   make(map[string]*binding),
		instances:  make(map[string]any),
		singletons: make(map[string]*singletonCell),
		aliases:    make(map[string]string),
		extenders:  make(map[string][]extender),
		tags:       make(map[string][]string),
		contextual: make(map[string]map[string]ContextFactory),
		lists:      make(map[string]listBinding),
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.priorities == nil {
		c.priorities = multibind.NewPriorityResolver()
	}
	// Bind the container to itself, like Laravel's $app->instance()
	c.Instance("container", c)
	return c
}

// Priorities returns the resolver shared by the container's list binders.
func (c *Container) Priorities() *multibind.PriorityResolver { return c.priorities }

// Logger returns the container logger.
func (c *Container) Logger() zerolog.Logger { return c.log }

// ── Registration ──────────────────────────────────────────────────────────────

// Bind registers a transient (new instance each Make) factory.
//
//	// Laravel: $app->bind(UserRepository::class, fn($app) => new EloquentUserRepository($app))
//	c.Bind("UserRepository", func(c *container.Container) any {
//	    return &EloquentUserRepository{DB: Resolve[*gorm.DB](c, "db")}
//	})
func (c *Container) Bind(abstract string, factory Factory) {
	c.BindContext(abstract, lift(factory))
}

// Singleton registers a factory whose result is cached after first resolution.
func (c *Container) Singleton(abstract string, factory Factory) {
	c.SingletonContext(abstract, lift(factory))
}

// BindContext registers a transient factory that receives the request
// context and may fail.
func (c *Container) BindContext(abstract string, factory ContextFactory) {
	c.register(abstract, factory, false)
}

// SingletonContext is the context-aware variant of Singleton.
func (c *Container) SingletonContext(abstract string, factory ContextFactory) {
	c.register(abstract, factory, true)
}

// Instance registers a pre-built value as a singleton.
//
//	// Laravel: $app->instance(Config::class, $config)
//	c.Instance("config", myConfig)
func (c *Container) Instance(abstract string, instance any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := c.canonical(abstract)
	delete(c.bindings, key)
	delete(c.singletons, key)
	c.instances[key] = instance
}

func (c *Container) register(abstract string, factory ContextFactory, singleton bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := c.canonical(abstract)

	// Drop any cached instance so it is rebuilt with the new factory.
	delete(c.instances, key)
	delete(c.singletons, key)
	c.bindings[key] = &binding{factory: factory, singleton: singleton}
}

func lift(f Factory) ContextFactory {
	return func(_ context.Context, c *Container) (any, error) { return f(c), nil }
}

// Alias registers an alternative name for an abstract.
//
//	// Laravel: $app->alias(Cache::class, 'cache')
//	c.Alias("cache", "cacheManager")
func (c *Container) Alias(abstract, alias string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if abstract == alias {
		panic(fmt.Sprintf("container: [%s] is aliased to itself", abstract))
	}
	c.aliases[alias] = c.canonical(abstract)
}

// ── Contextual Binding ────────────────────────────────────────────────────────

// When starts a contextual binding chain.
//
//	c.When("PhotoController").Needs("Filesystem").Give(func(c *container.Container) any {
//	    return filesystem.NewS3(...)
//	})
func (c *Container) When(concrete string) *ContextualBuilder {
	return &ContextualBuilder{container: c, concrete: concrete}
}

func (c *Container) getContextual(concrete, abstract string) ContextFactory {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.contextual[concrete][abstract]
}

// ── Extend ────────────────────────────────────────────────────────────────────

// Extend decorates the resolved instance of an abstract. A singleton that
// was already built is decorated in place.
//
//	// Laravel: $app->extend(Logger::class, fn($logger, $app) => new TimestampLogger($logger))
func (c *Container) Extend(abstract string, fn func(instance any, c *Container) any) {
	c.mu.Lock()
	key := c.canonical(abstract)
	c.extenders[key] = append(c.extenders[key], fn)
	inst, isInstance := c.instances[key]
	cell := c.singletons[key]
	c.mu.Unlock()

	if isInstance {
		extended := fn(inst, c)
		c.mu.Lock()
		c.instances[key] = extended
		c.mu.Unlock()
	}
	if cell != nil {
		cell.mu.Lock()
		if cell.done {
			cell.value = fn(cell.value, c)
		}
		cell.mu.Unlock()
	}
}

// ── Tags ──────────────────────────────────────────────────────────────────────

// Tag associates multiple abstracts under a named group. Tagged values
// come back in tagging order; use a ListBinder for priority ordering.
//
//	// Laravel: $app->tag([CpuReport::class, MemoryReport::class], 'reports')
func (c *Container) Tag(abstracts []string, tag string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tags[tag] = append(c.tags[tag], abstracts...)
}

// Tagged resolves all abstracts registered under a tag.
func (c *Container) Tagged(ctx context.Context, tag string) ([]any, error) {
	c.mu.RLock()
	abstracts := slices.Clone(c.tags[tag])
	c.mu.RUnlock()

	result := make([]any, 0, len(abstracts))
	for _, abs := range abstracts {
		v, err := c.MakeContext(ctx, abs)
		if err != nil {
			return nil, fmt.Errorf("container: tag [%s]: %w", tag, err)
		}
		result = append(result, v)
	}
	return result, nil
}

// ── Resolution ────────────────────────────────────────────────────────────────

type buildStackKey struct{}

func buildStack(ctx context.Context) []string {
	s, _ := ctx.Value(buildStackKey{}).([]string)
	return s
}

// Make resolves an abstract and panics on failure.
//
//	// Laravel: $app->make(UserRepository::class)
//	repo := c.Make("UserRepository")
func (c *Container) Make(abstract string) any {
	v, err := c.MakeContext(context.Background(), abstract)
	if err != nil {
		panic(err.Error())
	}
	return v
}

// MakeContext resolves an abstract for the request carried by ctx.
func (c *Container) MakeContext(ctx context.Context, abstract string) (any, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	key := c.canonicalRead(abstract)
	stack := buildStack(ctx)

	// Contextual binding for the abstract currently being built wins over
	// shared instances.
	var contextual ContextFactory
	if len(stack) > 0 {
		contextual = c.getContextual(stack[len(stack)-1], abstract)
	}

	if contextual == nil {
		c.mu.RLock()
		inst, ok := c.instances[key]
		c.mu.RUnlock()
		if ok {
			return inst, nil
		}
	}

	if slices.Contains(stack, key) {
		return nil, fmt.Errorf("%w: %v -> %s", ErrCircularDependency, stack, key)
	}
	if contextual != nil {
		return c.build(ctx, key, contextual)
	}

	c.mu.RLock()
	b, ok := c.bindings[key]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w for [%s]", ErrNotBound, abstract)
	}

	if !b.singleton {
		return c.build(ctx, key, b.factory)
	}
	return c.buildSingleton(ctx, key, b.factory)
}

func (c *Container) buildSingleton(ctx context.Context, key string, f ContextFactory) (any, error) {
	c.mu.Lock()
	cell, ok := c.singletons[key]
	if !ok {
		cell = &singletonCell{}
		c.singletons[key] = cell
	}
	c.mu.Unlock()

	cell.mu.Lock()
	defer cell.mu.Unlock()
	if cell.done {
		return cell.value, nil
	}
	v, err := c.build(ctx, key, f)
	if err != nil {
		return nil, err
	}
	cell.value, cell.done = v, true
	return v, nil
}

// build runs a factory with key pushed onto the build stack.
func (c *Container) build(ctx context.Context, key string, f ContextFactory) (any, error) {
	stack := append(slices.Clone(buildStack(ctx)), key)
	instance, err := f(context.WithValue(ctx, buildStackKey{}, stack), c)
	if err != nil {
		return nil, fmt.Errorf("container: building [%s]: %w", key, err)
	}

	c.mu.RLock()
	exts := slices.Clone(c.extenders[key])
	cbs := slices.Clone(c.afterResolving)
	c.mu.RUnlock()

	for _, ext := range exts {
		instance = ext(instance, c)
	}
	for _, cb := range cbs {
		cb(key, instance)
	}
	return instance, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// Bound returns true if an abstract has been registered.
func (c *Container) Bound(abstract string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	key := c.canonical(abstract)
	_, hasBinding := c.bindings[key]
	_, hasInstance := c.instances[key]
	return hasBinding || hasInstance
}

// Resolved returns true if the abstract holds a shared instance.
func (c *Container) Resolved(abstract string) bool {
	c.mu.RLock()
	key := c.canonical(abstract)
	_, isInstance := c.instances[key]
	cell := c.singletons[key]
	c.mu.RUnlock()
	if isInstance {
		return true
	}
	if cell == nil {
		return false
	}
	cell.mu.Lock()
	defer cell.mu.Unlock()
	return cell.done
}

// Forget removes all registrations for an abstract (binding + instance).
func (c *Container) Forget(abstract string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := c.canonical(abstract)
	delete(c.bindings, key)
	delete(c.instances, key)
	delete(c.singletons, key)
}

// Bindings returns the registered abstract keys in sorted order.
func (c *Container) Bindings() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.bindings)+len(c.instances))
	for k := range c.bindings {
		out = append(out, k)
	}
	for k := range c.instances {
		if _, already := c.bindings[k]; !already {
			out = append(out, k)
		}
	}
	slices.Sort(out)
	return out
}

// AfterResolving registers a callback fired after any abstract is built.
//
//	// Laravel: $app->afterResolving(fn($object, $app) => ...)
func (c *Container) AfterResolving(cb func(abstract string, instance any)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.afterResolving = append(c.afterResolving, cb)
}

// canonical resolves an alias to its canonical key (caller holds mu).
func (c *Container) canonical(abstract string) string {
	if target, ok := c.aliases[abstract]; ok {
		return target
	}
	return abstract
}

func (c *Container) canonicalRead(abstract string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.canonical(abstract)
}

// ── Finalization ──────────────────────────────────────────────────────────────

// Finalize ends configuration: every list binder is frozen and validated.
// It is called by ProviderRegistry.Boot. Later calls return the result of
// the first one.
func (c *Container) Finalize() error {
	c.finalizeOnce.Do(func() {
		c.mu.Lock()
		c.finalized = true
		lists := make([]listBinding, 0, len(c.listOrder))
		for _, key := range c.listOrder {
			lists = append(lists, c.lists[key])
		}
		c.mu.Unlock()

		var errs []error
		for _, lb := range lists {
			if err := lb.finalize(); err != nil {
				errs = append(errs, err)
			}
		}
		c.finalizeErr = errors.Join(errs...)
		if c.finalizeErr != nil {
			c.log.Error().Err(c.finalizeErr).Msg("container finalization failed")
			return
		}
		c.log.Debug().Int("lists", len(lists)).Msg("container finalized")
	})
	return c.finalizeErr
}

// Finalized reports whether Finalize has run.
func (c *Container) Finalized() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.finalized
}

// ── Reflect helpers ───────────────────────────────────────────────────────────

// TypeKey returns the package-qualified type name of v, useful as a stable
// abstract key when working with interfaces.
//
//	key := container.TypeKey((*UserRepository)(nil))  // "main.UserRepository"
func TypeKey(v any) string {
	t := reflect.TypeOf(v)
	if t == nil {
		return "<nil>"
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return typeString(t)
}

func typeString(t reflect.Type) string {
	if t.Name() != "" && t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name()
	}
	return t.String()
}

// ── Generics helper ───────────────────────────────────────────────────────────

// Resolve is a generic helper that calls Make and type-asserts the result.
//
//	db := container.Resolve[*gorm.DB](c, "db")
func Resolve[T any](c *Container, abstract string) T {
	instance := c.Make(abstract)
	typed, ok := instance.(T)
	if !ok {
		panic(fmt.Sprintf("container: Resolve[%T]: [%s] resolved to %T", *new(T), abstract, instance))
	}
	return typed
}

// MustResolve is like Resolve but returns (T, bool) instead of panicking
// on a type mismatch.
func MustResolve[T any](c *Container, abstract string) (T, bool) {
	instance := c.Make(abstract)
	typed, ok := instance.(T)
	return typed, ok
}

// ResolveContext resolves abstract for ctx and asserts its type.
func ResolveContext[T any](ctx context.Context, c *Container, abstract string) (T, error) {
	var zero T
	instance, err := c.MakeContext(ctx, abstract)
	if err != nil {
		return zero, err
	}
	if instance == nil {
		return zero, nil
	}
	typed, ok := instance.(T)
	if !ok {
		return zero, fmt.Errorf("%w: [%s] resolved to %T, want %s", ErrTypeMismatch, abstract, instance, reflect.TypeFor[T]())
	}
	return typed, nil
}
