// Package multibind orders list multibindings by priority.
//
// Independent modules each contribute one value of a shared element type.
// The package collects the contributions in a ContributorSet, sorts them
// once by the priority declared on each contribution's implementation type
// (ties keep registration order) and materializes a fresh list per request.
//
// # Declaring priorities
//
//	type Circle struct {
//	    multibind.Ordered `order:"1"`
//	}
//
//	// RectangleImpl inherits -1000 from the type it embeds.
//	type AbstractRectangle struct {
//	    multibind.Ordered `order:"-1000"`
//	}
//	type RectangleImpl struct{ AbstractRectangle }
//
// Types without a marker, or with a marker that has no value, sort last.
// Types that cannot embed the marker are declared explicitly:
//
//	priorities := multibind.NewPriorityResolver()
//	multibind.Declare[*bytes.Buffer](priorities, 10)
//
// # Lifecycle
//
//  1. set := multibind.NewContributorSet[Shape]()
//  2. set.Add(source, implType, resolver) for every contribution
//  3. set.Finalize()
//  4. views := multibind.NewViews(multibind.NewEngine(set, priorities))
//  5. views.List(ctx) / views.Sequence(ctx) on every request
//
// Reading a set before Finalize fails with ErrConfigurationState. A nil
// element fails the request with a NullElementError naming the source
// and position of the contributor. Resolver errors are wrapped in a
// ResolverFailure that unwraps to the original error.
//
// The container package wires all of this behind ListBinder.
package multibind
