package errz

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSuggestClosestFirst(t *testing.T) {
	candidates := []string{"counter", "count", "cont", "total"}
	require.Equal(t, []string{"count", "cont", "counter"}, Suggest("counts", candidates))
}

func TestSuggestShortNamesNeedNearExactMatch(t *testing.T) {
	require.Equal(t, []string{"x"}, Suggest("xs", []string{"x", "ab"}))
	require.Empty(t, Suggest("ab", []string{"xyz"}))
}

func TestSuggestSkipsExactMatch(t *testing.T) {
	require.Empty(t, Suggest("name", []string{"name"}))
}

func TestSuggestEmptyInputs(t *testing.T) {
	require.Empty(t, Suggest("", []string{"a"}))
	require.Empty(t, Suggest("a", nil))
}

func TestEditDistance(t *testing.T) {
	require.Equal(t, 0, editDistance("same", "same"))
	require.Equal(t, 1, editDistance("count", "counts"))
	require.Equal(t, 3, editDistance("kitten", "sitting"))
	require.Equal(t, 4, editDistance("", "abcd"))
}
