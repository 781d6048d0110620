package container

import "context"

// ContextualBuilder implements the fluent contextual binding API.
//
//	// Laravel: $app->when(PhotoController::class)->needs(Filesystem::class)->give(...)
//	c.When("PhotoController").Needs("Filesystem").Give(func(c *container.Container) any {
//	    return filesystem.NewS3(...)
//	})
type ContextualBuilder struct {
	container *Container
	concrete  string
	needs     string
}

// Needs specifies which abstract the concrete type depends on.
func (b *ContextualBuilder) Needs(abstract string) *ContextualBuilder {
	b.needs = abstract
	return b
}

// Give provides the factory used when the concrete type resolves the
// abstract named by Needs.
func (b *ContextualBuilder) Give(factory Factory) {
	b.GiveContext(lift(factory))
}

// GiveContext is the context-aware variant of Give.
func (b *ContextualBuilder) GiveContext(factory ContextFactory) {
	c := b.container
	c.mu.Lock()
	defer c.mu.Unlock()

	concrete := c.canonical(b.concrete)
	if _, ok := c.contextual[concrete]; !ok {
		c.contextual[concrete] = make(map[string]ContextFactory)
	}
	c.contextual[concrete][b.needs] = factory
}

// GiveValue is a shorthand for Give when the value is pre-built.
//
//	c.When("PhotoController").Needs("storagePath").GiveValue("/tmp/photos")
func (b *ContextualBuilder) GiveValue(value any) {
	b.GiveContext(func(context.Context, *Container) (any, error) { return value, nil })
}
