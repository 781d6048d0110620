package multibind

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrConfigurationState is returned when a contributor set is queried
	// before the container finished configuration.
	ErrConfigurationState = errors.New("multibind: contributor set is not finalized")

	// ErrFinalized is returned when a contribution is added to a frozen set.
	ErrFinalized = errors.New("multibind: contributor set is already finalized")

	// ErrNullElement marks a contributor that resolved to a nil value.
	ErrNullElement = errors.New("multibind: null element")

	// ErrInvalidPriority marks an order tag that is not an integer.
	ErrInvalidPriority = errors.New("multibind: invalid order tag")
)

// ConfigurationStateError reports an operation attempted in the wrong
// configuration phase.
type ConfigurationStateError struct {
	Element reflect.Type
	Op      string
}

func (e *ConfigurationStateError) Error() string {
	return fmt.Sprintf("multibind: %s on list of %s before configuration completed", e.Op, typeName(e.Element))
}

func (e *ConfigurationStateError) Unwrap() error { return ErrConfigurationState }

// NullElementError is returned when a contributor yields a nil value.
// Position is the contributor's index in the resolution order.
type NullElementError struct {
	Element  reflect.Type
	Source   string
	Position int
}

func (e *NullElementError) Error() string {
	return fmt.Sprintf("multibind: list of %s failed due to null element at position %d bound at: %s",
		typeName(e.Element), e.Position, e.Source)
}

func (e *NullElementError) Unwrap() error { return ErrNullElement }

// ResolverFailure wraps an error returned by a contributor's resolver.
// Unwrap yields the resolver's error unchanged.
type ResolverFailure struct {
	Element  reflect.Type
	Source   string
	Position int
	Err      error
}

func (e *ResolverFailure) Error() string {
	return fmt.Sprintf("multibind: list of %s: contributor at position %d bound at %s failed: %v",
		typeName(e.Element), e.Position, e.Source, e.Err)
}

func (e *ResolverFailure) Unwrap() error { return e.Err }

// PriorityTagError reports a malformed `order` struct tag.
type PriorityTagError struct {
	Type reflect.Type
	Tag  string
}

func (e *PriorityTagError) Error() string {
	return fmt.Sprintf("multibind: order tag %q on %s is not an integer", e.Tag, typeName(e.Type))
}

func (e *PriorityTagError) Unwrap() error { return ErrInvalidPriority }

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
