package container

import (
	"context"
	"fmt"
	"sync"
)

// ── ServiceProvider interface ─────────────────────────────────────────────────

// ServiceProvider mirrors Laravel's Illuminate\Support\ServiceProvider.
//
// Register binds services and list contributions. Boot runs after every
// provider is registered and the container is finalized, so it may resolve
// anything, including ordered lists.
//
//	type ShapeServiceProvider struct{ container.BaseProvider }
//
//	func (p *ShapeServiceProvider) Register(app *container.Container) {
//	    shapes := container.NewListBinder[Shape](app)
//	    shapes.AddInstance(Circle{})
//	}
type ServiceProvider interface {
	// Register binds services into the container.
	// Do NOT resolve other bindings here; use Boot() for that.
	Register(app *Container)

	// Boot is called after all providers are registered.
	Boot(app *Container)

	// Provides returns the abstract keys a deferred provider registers.
	Provides() []string

	// IsDeferred returns true if this provider should be loaded lazily,
	// only when one of its Provides() abstracts is first resolved.
	// Deferred providers cannot contribute to ordered lists: their
	// Register runs after the lists are frozen.
	IsDeferred() bool
}

// ── BaseProvider ──────────────────────────────────────────────────────────────

// BaseProvider is an embeddable struct that provides no-op implementations
// of Boot(), Provides(), and IsDeferred().
type BaseProvider struct{}

func (p *BaseProvider) Boot(_ *Container)  {}
func (p *BaseProvider) Provides() []string { return nil }
func (p *BaseProvider) IsDeferred() bool   { return false }

// ── ProviderRegistry ──────────────────────────────────────────────────────────

// ProviderRegistry manages registration and booting of ServiceProviders,
// including deferred (lazy) providers.
type ProviderRegistry struct {
	app        *Container
	mu         sync.Mutex
	eager      []ServiceProvider
	deferred   map[string]*deferredProvider
	booted     bool
	registered map[ServiceProvider]bool
}

type deferredProvider struct {
	provider ServiceProvider
	once     sync.Once
}

// NewProviderRegistry creates a registry bound to app.
func NewProviderRegistry(app *Container) *ProviderRegistry {
	return &ProviderRegistry{
		app:        app,
		deferred:   make(map[string]*deferredProvider),
		registered: make(map[ServiceProvider]bool),
	}
}

// Register adds a provider and calls its Register() method (unless deferred).
// A provider registered after Boot is booted immediately.
func (r *ProviderRegistry) Register(provider ServiceProvider) {
	r.mu.Lock()
	if r.registered[provider] {
		r.mu.Unlock()
		return
	}
	r.registered[provider] = true

	if provider.IsDeferred() {
		d := &deferredProvider{provider: provider}
		for _, abstract := range provider.Provides() {
			r.deferred[abstract] = d
		}
		r.mu.Unlock()
		r.interceptDeferred(d)
		return
	}

	r.eager = append(r.eager, provider)
	booted := r.booted
	r.mu.Unlock()

	provider.Register(r.app)
	if booted {
		provider.Boot(r.app)
	}
	r.app.log.Debug().Type("provider", provider).Bool("late", booted).Msg("provider registered")
}

// interceptDeferred binds each deferred abstract to a loader. The first
// resolution registers (and, after Boot, boots) the provider for real,
// which replaces the loader binding.
func (r *ProviderRegistry) interceptDeferred(d *deferredProvider) {
	for _, abstract := range d.provider.Provides() {
		abs := abstract
		var loader *binding
		r.app.BindContext(abs, func(ctx context.Context, c *Container) (any, error) {
			d.once.Do(func() {
				d.provider.Register(c)
				r.mu.Lock()
				for _, a := range d.provider.Provides() {
					delete(r.deferred, a)
				}
				booted := r.booted
				r.mu.Unlock()
				if booted {
					d.provider.Boot(c)
				}
			})
			c.mu.RLock()
			current := c.bindings[c.canonical(abs)]
			c.mu.RUnlock()
			if current == loader {
				return nil, fmt.Errorf("%w for [%s]: deferred provider %T did not bind it", ErrNotBound, abs, d.provider)
			}
			return c.MakeContext(unwind(ctx), abs)
		})
		r.app.mu.RLock()
		loader = r.app.bindings[r.app.canonical(abs)]
		r.app.mu.RUnlock()
	}
}

// unwind drops the innermost build stack entry, so a loader can resolve
// the abstract it was standing in for.
func unwind(ctx context.Context) context.Context {
	stack := buildStack(ctx)
	if len(stack) == 0 {
		return ctx
	}
	return context.WithValue(ctx, buildStackKey{}, stack[:len(stack)-1])
}

// Boot finalizes the container and calls Boot() on all eager providers.
// It returns the finalization error, if any, without booting providers.
//
//	// Laravel: $app->boot()
func (r *ProviderRegistry) Boot() error {
	r.mu.Lock()
	if r.booted {
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()

	if err := r.app.Finalize(); err != nil {
		return err
	}

	r.mu.Lock()
	r.booted = true
	providers := append([]ServiceProvider(nil), r.eager...)
	r.mu.Unlock()

	for _, provider := range providers {
		provider.Boot(r.app)
	}
	return nil
}

// Booted returns true if Boot() has completed.
func (r *ProviderRegistry) Booted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.booted
}

// Providers returns all registered eager providers.
func (r *ProviderRegistry) Providers() []ServiceProvider {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ServiceProvider(nil), r.eager...)
}

// Deferred returns the abstracts whose provider has not been loaded yet.
func (r *ProviderRegistry) Deferred() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.deferred))
	for abs := range r.deferred {
		out = append(out, abs)
	}
	return out
}
