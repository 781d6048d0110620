package multibind

import (
	"context"
	"sync"
)

type scopeKey struct{}

// scope memoizes materializations for a single request.
type scope struct {
	id      string
	mu      sync.Mutex
	entries map[any]*scopeEntry
}

type scopeEntry struct {
	once  sync.Once
	value any
	err   error
}

// WithRequestScope returns a context that shares list materializations
// across every lookup made with it. id labels the request in diagnostics.
// A context that already carries a scope is returned unchanged.
func WithRequestScope(ctx context.Context, id string) context.Context {
	if scopeFrom(ctx) != nil {
		return ctx
	}
	return context.WithValue(ctx, scopeKey{}, &scope{id: id, entries: make(map[any]*scopeEntry)})
}

// RequestID returns the id of the request scope carried by ctx.
func RequestID(ctx context.Context) (string, bool) {
	s := scopeFrom(ctx)
	if s == nil {
		return "", false
	}
	return s.id, true
}

func scopeFrom(ctx context.Context) *scope {
	if ctx == nil {
		return nil
	}
	s, _ := ctx.Value(scopeKey{}).(*scope)
	return s
}

// load runs fn once per key for the lifetime of the scope.
func (s *scope) load(key any, fn func() (any, error)) (any, error) {
	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		e = &scopeEntry{}
		s.entries[key] = e
	}
	s.mu.Unlock()

	e.once.Do(func() { e.value, e.err = fn() })
	return e.value, e.err
}
