package container_test

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-laravel/framework/container"
	"github.com/km-arc/go-laravel/framework/multibind"
)

// shapesContainer registers the shape list the way separate modules would.
func shapesContainer(t *testing.T) *container.Container {
	t.Helper()
	c := container.New()
	c.Bind("square.provider", func(*container.Container) any { return &SquareProvider{} })
	c.Bind("rectangle", func(*container.Container) any {
		return RectangleImpl{AbstractRectangle{width: 114, height: 514}}
	})

	shapes := container.NewListBinder[Shape](c)
	require.NoError(t, shapes.AddInstance(Circle{}))
	require.NoError(t, shapes.AddProviderBinding("square.provider", (*SquareProvider)(nil)))
	require.NoError(t, shapes.AddProvider(&SquareProvider{}))
	require.NoError(t, shapes.AddBinding("rectangle", RectangleImpl{}))
	require.NoError(t, shapes.AddFactory(Triangle{}, func(context.Context, *container.Container) (Shape, error) {
		return Triangle{}, nil
	}))
	require.NoError(t, c.Finalize())
	return c
}

func TestListBinder_ShapesInPriorityOrder(t *testing.T) {
	c := shapesContainer(t)

	shapes, err := container.ResolveList[Shape](context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"rectangle[width=114, height=514]",
		"circle",
		"square",
		"square",
		"triangle",
	}, names(shapes))
}

func TestListBinder_BothKeysAgree(t *testing.T) {
	c := shapesContainer(t)

	list, err := c.MakeContext(context.Background(), container.ListKey[Shape]())
	require.NoError(t, err)
	seq, err := c.MakeContext(context.Background(), container.SequenceKey[Shape]())
	require.NoError(t, err)

	typed, ok := seq.(multibind.Sequence[Shape])
	require.True(t, ok)
	assert.Equal(t, list, typed.Slice())
	assert.Equal(t, 5, typed.Len())
}

func TestListBinder_SameBinderPerElementType(t *testing.T) {
	c := container.New()
	a := container.NewListBinder[Shape](c)
	b := container.NewListBinder[Shape](c)
	assert.Same(t, a, b)
	assert.Same(t, a.Views(), b.Views())
}

func TestListBinder_KeysNameTheElementType(t *testing.T) {
	assert.Equal(t, "[]github.com/km-arc/go-laravel/framework/container_test.Shape", container.ListKey[Shape]())
	assert.Equal(t, "multibind.Sequence[string]", container.SequenceKey[string]())
}

func TestListBinder_ResolveBeforeFinalizeFails(t *testing.T) {
	c := container.New()
	require.NoError(t, container.NewListBinder[Shape](c).AddInstance(Circle{}))

	_, err := container.ResolveList[Shape](context.Background(), c)
	assert.ErrorIs(t, err, multibind.ErrConfigurationState)

	_, err = c.ListBindings()
	assert.ErrorIs(t, err, multibind.ErrConfigurationState)
}

func TestListBinder_AddAfterFinalizeFails(t *testing.T) {
	c := container.New()
	shapes := container.NewListBinder[Shape](c)
	require.NoError(t, c.Finalize())

	err := shapes.AddInstance(Circle{})
	assert.ErrorIs(t, err, multibind.ErrFinalized)
}

func TestListBinder_EmptyListAfterFinalize(t *testing.T) {
	c := container.New()
	container.NewListBinder[Shape](c)
	require.NoError(t, c.Finalize())

	shapes, err := container.ResolveList[Shape](context.Background(), c)
	require.NoError(t, err)
	assert.Empty(t, shapes)
}

func TestListBinder_DuplicateInstancesRejected(t *testing.T) {
	c := container.New()
	shapes := container.NewListBinder[Shape](c)
	require.NoError(t, shapes.AddInstance(Circle{}))
	require.NoError(t, shapes.AddInstance(Circle{}))

	err := c.Finalize()
	require.ErrorIs(t, err, container.ErrDuplicateBinding)
	assert.Contains(t, err.Error(), "multibinder_test.go")
}

func TestListBinder_DuplicateBindingsRejectedThroughAliases(t *testing.T) {
	c := container.New()
	c.Bind("circle", func(*container.Container) any { return Circle{} })
	c.Alias("circle", "round")
	shapes := container.NewListBinder[Shape](c)
	require.NoError(t, shapes.AddBinding("circle", Circle{}))
	require.NoError(t, shapes.AddBinding("round", Circle{}))

	assert.ErrorIs(t, c.Finalize(), container.ErrDuplicateBinding)
}

func TestListBinder_PermitDuplicates(t *testing.T) {
	c := container.New()
	shapes := container.NewListBinder[Shape](c).PermitDuplicates()
	require.NoError(t, shapes.AddInstance(Circle{}))
	require.NoError(t, shapes.AddInstance(Circle{}))
	require.NoError(t, c.Finalize())

	list, err := container.ResolveList[Shape](context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, []string{"circle", "circle"}, names(list))
}

func TestListBinder_MalformedTagFailsFinalize(t *testing.T) {
	c := container.New()
	require.NoError(t, container.NewListBinder[Shape](c).AddInstance(badlyOrdered{}))

	err := c.Finalize()
	assert.ErrorIs(t, err, multibind.ErrInvalidPriority)
}

func TestListBinder_NilContributionsRejected(t *testing.T) {
	c := container.New()
	shapes := container.NewListBinder[Shape](c)

	assert.Error(t, shapes.AddProvider(nil))
	assert.Error(t, shapes.AddFactory(nil, nil))
}

func TestListBinder_NullElementNamesItsSource(t *testing.T) {
	c := container.New()
	c.Instance("nothing", nil)
	shapes := container.NewListBinder[Shape](c)
	require.NoError(t, shapes.AddInstance(Circle{}))
	require.NoError(t, shapes.AddBinding("nothing", nil))
	require.NoError(t, c.Finalize())

	_, err := container.ResolveList[Shape](context.Background(), c)
	var nullErr *multibind.NullElementError
	require.ErrorAs(t, err, &nullErr)
	assert.Equal(t, 1, nullErr.Position)
	assert.True(t, strings.HasSuffix(nullErr.Source, "(binding nothing)"), nullErr.Source)
}

func TestListBinder_BindingOfWrongTypeFails(t *testing.T) {
	c := container.New()
	c.Instance("number", 7)
	require.NoError(t, container.NewListBinder[Shape](c).AddBinding("number", nil))
	require.NoError(t, c.Finalize())

	_, err := container.ResolveList[Shape](context.Background(), c)
	assert.ErrorIs(t, err, container.ErrTypeMismatch)
}

func TestListBinder_ProviderBindingOfWrongTypeFails(t *testing.T) {
	c := container.New()
	c.Instance("not.a.provider", "string")
	require.NoError(t, container.NewListBinder[Shape](c).AddProviderBinding("not.a.provider", (*SquareProvider)(nil)))
	require.NoError(t, c.Finalize())

	_, err := container.ResolveList[Shape](context.Background(), c)
	assert.ErrorIs(t, err, container.ErrTypeMismatch)
}

func TestListBinder_FactoryErrorPropagates(t *testing.T) {
	c := container.New()
	boom := errors.New("boom")
	require.NoError(t, container.NewListBinder[Shape](c).AddFactory(nil, func(context.Context, *container.Container) (Shape, error) {
		return nil, boom
	}))
	require.NoError(t, c.Finalize())

	_, err := container.ResolveSequence[Shape](context.Background(), c)
	assert.ErrorIs(t, err, boom)
	var failure *multibind.ResolverFailure
	assert.ErrorAs(t, err, &failure)
}

func TestListBinder_RequestScopeSharesOneMaterialization(t *testing.T) {
	c := container.New()
	calls := 0
	require.NoError(t, container.NewListBinder[Shape](c).AddFactory(Circle{}, func(context.Context, *container.Container) (Shape, error) {
		calls++
		return Circle{}, nil
	}))
	require.NoError(t, c.Finalize())

	ctx := multibind.WithRequestScope(context.Background(), "req-1")
	list, err := container.ResolveList[Shape](ctx, c)
	require.NoError(t, err)
	seq, err := container.ResolveSequence[Shape](ctx, c)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, list, seq.Slice())

	_, err = container.ResolveList[Shape](context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "unscoped lookups materialize again")
}

func TestListBinder_ResolvedListIsCallerOwned(t *testing.T) {
	c := shapesContainer(t)
	ctx := context.Background()

	first, err := container.ResolveList[Shape](ctx, c)
	require.NoError(t, err)
	first[0] = Triangle{}

	second, err := container.ResolveList[Shape](ctx, c)
	require.NoError(t, err)
	assert.Equal(t, "rectangle[width=114, height=514]", second[0].Name())
}

func TestListBinder_DeclaredPriorityForForeignType(t *testing.T) {
	c := container.New()
	require.NoError(t, multibind.Declare[Triangle](c.Priorities(), -1))
	shapes := container.NewListBinder[Shape](c)
	require.NoError(t, shapes.AddInstance(Circle{}))
	require.NoError(t, shapes.AddInstance(Triangle{}))
	require.NoError(t, c.Finalize())

	list, err := container.ResolveList[Shape](context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, []string{"triangle", "circle"}, names(list))
}

func TestListBindings_DescribesOrder(t *testing.T) {
	c := shapesContainer(t)
	container.NewListBinder[string](c)

	lists, err := c.ListBindings()
	require.NoError(t, err)
	require.Len(t, lists, 2)

	shapes := lists[0]
	assert.Equal(t, container.ListKey[Shape](), shapes.ListKey)
	assert.Equal(t, container.SequenceKey[Shape](), shapes.SequenceKey)
	assert.False(t, shapes.PermitDuplicates)
	require.Len(t, shapes.Order, 5)

	priorities := make([]int, len(shapes.Order))
	for i, e := range shapes.Order {
		priorities[i] = e.Priority
	}
	assert.Equal(t, []int{-1000, 1, 2, 2, multibind.Unordered}, priorities)
	assert.True(t, slices.IsSortedFunc(shapes.Order, func(a, b multibind.Entry) int { return a.Position - b.Position }))

	assert.Equal(t, "string", lists[1].Element)
	assert.Empty(t, lists[1].Order)
}
