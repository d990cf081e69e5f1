package geneset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goenrich/domain/core"
)

func testIndex() map[core.GeneID]int {
	return map[core.GeneID]int{"g1": 0, "g2": 1, "g3": 2, "g4": 3, "g5": 4}
}

func TestNormalize_DefaultsName(t *testing.T) {
	coll := Normalize(GeneSet{Indices: []int{0, 1}})

	require.Len(t, coll, 1)
	assert.Equal(t, core.SetName("set1"), coll[0].Name)
}

func TestNormalize_KeepsExistingName(t *testing.T) {
	coll := Normalize(GeneSet{Name: "pathway", Indices: []int{0}})

	assert.Equal(t, core.SetName("pathway"), coll[0].Name)
}

func TestFromMap_SortsByName(t *testing.T) {
	coll := FromMap(map[string][]string{
		"zeta":  {"g1"},
		"alpha": {"g2", "g3"},
		"mid":   {"g4"},
	})

	require.Len(t, coll, 3)
	assert.Equal(t, core.SetName("alpha"), coll[0].Name)
	assert.Equal(t, core.SetName("mid"), coll[1].Name)
	assert.Equal(t, core.SetName("zeta"), coll[2].Name)
	assert.Equal(t, []core.GeneID{"g2", "g3"}, coll[0].GeneIDs)
}

func TestResolve_ByIdentifiers(t *testing.T) {
	set := GeneSet{Name: "s", GeneIDs: []core.GeneID{"g4", "g2", "g2"}}

	r, err := set.Resolve(testIndex(), 5)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, r.Indices)
}

func TestResolve_UnmatchedIdentifiersDropSilently(t *testing.T) {
	set := GeneSet{Name: "s", GeneIDs: []core.GeneID{"g1", "missing", "g5"}}

	r, err := set.Resolve(testIndex(), 5)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 4}, r.Indices)
	assert.Equal(t, 2, r.Size())
}

func TestResolve_IndicesWinOverIdentifiers(t *testing.T) {
	set := GeneSet{Name: "s", Indices: []int{2, 0, 2}, GeneIDs: []core.GeneID{"g5"}}

	r, err := set.Resolve(testIndex(), 5)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, r.Indices)
}

func TestResolve_IndexOutOfRange(t *testing.T) {
	for _, bad := range []int{-1, 5} {
		set := GeneSet{Name: "s", Indices: []int{0, bad}}

		_, err := set.Resolve(testIndex(), 5)
		assert.ErrorIs(t, err, core.ErrSetOutOfRange, "index %d", bad)
	}
}

func TestResolveAll_FiltersBelowMinSize(t *testing.T) {
	coll := Collection{
		{Name: "big", GeneIDs: []core.GeneID{"g1", "g2", "g3"}},
		{Name: "small", GeneIDs: []core.GeneID{"g4"}},
	}

	resolved, err := coll.ResolveAll(testIndex(), 5, 2)
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.Equal(t, core.SetName("big"), resolved[0].Name)
}

func TestResolveAll_EmptyCollection(t *testing.T) {
	_, err := Collection{}.ResolveAll(testIndex(), 5, 1)

	assert.ErrorIs(t, err, core.ErrEmptyCollection)
	assert.True(t, core.IsPreconditionError(err))
}

func TestResolveAll_PropagatesResolveError(t *testing.T) {
	coll := Collection{{Name: "bad", Indices: []int{99}}}

	_, err := coll.ResolveAll(testIndex(), 5, 1)
	assert.ErrorIs(t, err, core.ErrSetOutOfRange)
}

func TestResolveAll_AllFilteredReturnsEmptyNotError(t *testing.T) {
	coll := Collection{{Name: "tiny", GeneIDs: []core.GeneID{"g1"}}}

	resolved, err := coll.ResolveAll(testIndex(), 5, 10)
	require.NoError(t, err)
	assert.Empty(t, resolved)
}
