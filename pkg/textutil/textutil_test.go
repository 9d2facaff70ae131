package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMatchName(t *testing.T) {
	require.True(t, MatchName("Unlock Hint 1", []string{"hint"}))
	require.True(t, MatchName(" Complete  Solution", []string{"complete"}))
	require.False(t, MatchName("Discussion", []string{"hint", "approach"}))
}

func TestClosest(t *testing.T) {
	languages := []string{"C++", "Java", "Python"}

	match, ok := Closest("java", languages, 0.8)
	require.True(t, ok)
	require.Equal(t, "Java", match)

	match, ok = Closest("Python 3", languages, 0.8)
	require.True(t, ok)
	require.Equal(t, "Python", match)

	_, ok = Closest("Haskell", languages, 0.8)
	require.False(t, ok)
}
