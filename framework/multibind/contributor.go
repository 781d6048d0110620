package multibind

import (
	"context"
	"errors"
	"reflect"
	"slices"
	"sync"
)

// Resolver yields one contributed value for the request carried by ctx.
type Resolver[T any] func(ctx context.Context) (T, error)

// Contributor is one registered producer of a list element.
type Contributor[T any] struct {
	// Source identifies where the contribution was registered.
	Source string
	// Type is the implementation type whose priority governs ordering.
	Type reflect.Type
	// Resolve produces the value.
	Resolve Resolver[T]
	// Index is the registration index, unique and increasing within a set.
	Index int
}

// ContributorSet collects the contributors of one list during
// configuration. Finalize freezes it; afterwards it can be read but no
// longer extended.
type ContributorSet[T any] struct {
	mu               sync.RWMutex
	element          reflect.Type
	contributors     []Contributor[T]
	permitDuplicates bool
	finalized        bool
}

// NewContributorSet returns an open set for elements of type T.
func NewContributorSet[T any]() *ContributorSet[T] {
	return &ContributorSet[T]{element: reflect.TypeFor[T]()}
}

// ElementType returns the reflect.Type of T.
func (s *ContributorSet[T]) ElementType() reflect.Type { return s.element }

// Add registers a contributor and returns its registration index.
func (s *ContributorSet[T]) Add(source string, implType reflect.Type, resolve Resolver[T]) (int, error) {
	if resolve == nil {
		return 0, errors.New("multibind: contributor " + source + " has a nil resolver")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finalized {
		return 0, ErrFinalized
	}
	if implType == nil {
		implType = s.element
	}
	idx := len(s.contributors)
	s.contributors = append(s.contributors, Contributor[T]{
		Source:  source,
		Type:    implType,
		Resolve: resolve,
		Index:   idx,
	})
	return idx, nil
}

// PermitDuplicates records that the list accepts duplicate values. It has
// no effect once the set is finalized.
func (s *ContributorSet[T]) PermitDuplicates() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.finalized {
		s.permitDuplicates = true
	}
}

// Finalize freezes the set. Calling it again is a no-op.
func (s *ContributorSet[T]) Finalize() {
	s.mu.Lock()
	s.finalized = true
	s.mu.Unlock()
}

// Finalized reports whether Finalize has been called.
func (s *ContributorSet[T]) Finalized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.finalized
}

// Len returns the number of contributors registered so far.
func (s *ContributorSet[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.contributors)
}

// Contributors returns the contributors in registration order. It fails
// with a ConfigurationStateError until the set is finalized.
func (s *ContributorSet[T]) Contributors() ([]Contributor[T], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.finalized {
		return nil, &ConfigurationStateError{Element: s.element, Op: "read contributors"}
	}
	return slices.Clone(s.contributors), nil
}

// PermitsDuplicates returns the duplicate policy of a finalized set.
func (s *ContributorSet[T]) PermitsDuplicates() (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.finalized {
		return false, &ConfigurationStateError{Element: s.element, Op: "read duplicate policy"}
	}
	return s.permitDuplicates, nil
}
