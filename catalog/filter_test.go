package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leafPaths(n *Node) []string {
	var paths []string
	walk(n, nil, func(crumbs []string, _ *Paper) {
		paths = append(paths, EncodePath(crumbs))
	})
	return paths
}

func TestFilterEmptyPreferencesDisablesFiltering(t *testing.T) {
	cat := loadFixture(t)

	assert.Same(t, cat.Root, cat.FilterBySubjects(nil))
	assert.Same(t, cat.Root, cat.FilterBySubjects([]string{}))
}

func TestFilterKeepsOnlyMatchingSubjects(t *testing.T) {
	cat := loadFixture(t)

	view := cat.FilterBySubjects([]string{"ial-mathematics"})
	paths := leafPaths(view)

	assert.Contains(t, paths, "IAL/Mathematics/2022/May-June/P1")
	assert.Contains(t, paths, "IAL/Mathematics/2021/May-June/P1")
	for _, p := range paths {
		assert.NotContains(t, p, "Further Mathematics", "exact alias match must not pull in other subjects")
		assert.NotContains(t, p, "IGCSE/", "board prefix must gate the preference")
	}
}

func TestFilterBoardPrefixGatesPreference(t *testing.T) {
	cat := loadFixture(t)

	// "Mathematics A" only exists under IGCSE; an IAL-scoped preference
	// for it keeps nothing.
	view := cat.FilterBySubjects([]string{"ial-mathematics"})
	assert.Nil(t, view.Child("IGCSE"))

	view = cat.FilterBySubjects([]string{"igcse-mathematics"})
	igcse := view.Child("IGCSE")
	require.NotNil(t, igcse)
	assert.NotNil(t, igcse.Child("Mathematics A"))
	assert.Nil(t, view.Child("IAL"), "IAL board has no kept subject and is dropped")
}

func TestFilterAliasTableIsExact(t *testing.T) {
	cat := loadFixture(t)

	// "further-mathematics" maps to the Further Mathematics names only.
	view := cat.FilterBySubjects([]string{"ial-further-mathematics"})
	ial := view.Child("IAL")
	require.NotNil(t, ial)
	assert.NotNil(t, ial.Child("Further Mathematics"))
	assert.Nil(t, ial.Child("Mathematics"))

	// An unknown slug matches nothing, even with overlapping substrings.
	view = cat.FilterBySubjects([]string{"ial-math"})
	assert.Empty(t, view.Children)
}

func TestFilterPreservesLeafSetWithAllSubjects(t *testing.T) {
	cat := loadFixture(t)

	view := cat.FilterBySubjects([]string{
		"ial-mathematics", "ial-further-mathematics", "ial-physics", "igcse-mathematics",
	})
	assert.ElementsMatch(t, leafPaths(cat.Root), leafPaths(view))
}
