package multibind_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-laravel/framework/multibind"
)

func TestContributorSet_RegistrationIndexIncreases(t *testing.T) {
	set := multibind.NewContributorSet[Shape]()

	for want, src := range []string{"a", "b", "c"} {
		idx, err := set.Add(src, typeOf[Circle](), constant[Shape](Circle{}))
		require.NoError(t, err)
		assert.Equal(t, want, idx)
	}
	assert.Equal(t, 3, set.Len())

	set.Finalize()
	contributors, err := set.Contributors()
	require.NoError(t, err)
	for i, c := range contributors {
		assert.Equal(t, i, c.Index)
	}
	assert.Equal(t, "b", contributors[1].Source)
}

func TestContributorSet_QueryBeforeFinalizeFails(t *testing.T) {
	set := multibind.NewContributorSet[Shape]()
	mustAdd(set, "circle", typeOf[Circle](), constant[Shape](Circle{}))

	_, err := set.Contributors()
	assert.True(t, errors.Is(err, multibind.ErrConfigurationState))

	_, err = set.PermitsDuplicates()
	assert.True(t, errors.Is(err, multibind.ErrConfigurationState))
	assert.False(t, set.Finalized())
}

func TestContributorSet_AddAfterFinalizeFails(t *testing.T) {
	set := multibind.NewContributorSet[Shape]()
	set.Finalize()
	set.Finalize()

	_, err := set.Add("late", typeOf[Circle](), constant[Shape](Circle{}))
	assert.ErrorIs(t, err, multibind.ErrFinalized)
	assert.True(t, set.Finalized())
	assert.Zero(t, set.Len())
}

func TestContributorSet_NilResolverRejected(t *testing.T) {
	set := multibind.NewContributorSet[Shape]()
	_, err := set.Add("nil", typeOf[Circle](), nil)
	assert.Error(t, err)
}

func TestContributorSet_DefaultImplementationTypeIsElement(t *testing.T) {
	set := multibind.NewContributorSet[Shape]()
	mustAdd(set, "untyped", nil, constant[Shape](Circle{}))
	set.Finalize()

	contributors, err := set.Contributors()
	require.NoError(t, err)
	assert.Equal(t, typeOf[Shape](), contributors[0].Type)
}

func TestContributorSet_PermitDuplicates(t *testing.T) {
	set := multibind.NewContributorSet[Shape]()
	set.PermitDuplicates()
	set.Finalize()

	permit, err := set.PermitsDuplicates()
	require.NoError(t, err)
	assert.True(t, permit)

	frozen := multibind.NewContributorSet[Shape]()
	frozen.Finalize()
	frozen.PermitDuplicates()
	permit, err = frozen.PermitsDuplicates()
	require.NoError(t, err)
	assert.False(t, permit, "policy cannot change after finalization")
}

func TestContributorSet_ContributorsIsACopy(t *testing.T) {
	set := finalized(shapeSet())

	first, err := set.Contributors()
	require.NoError(t, err)
	first[0].Source = "mutated"

	second, err := set.Contributors()
	require.NoError(t, err)
	assert.Equal(t, "circle", second[0].Source)
}
