package ignore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDedupesPreservingOrder(t *testing.T) {
	set := New([]string{"a", "b", "a", "", "c", "b"})
	assert.Equal(t, []string{"a", "b", "c"}, set.Patterns())
}

func TestMatchesNameLiteralAndGlob(t *testing.T) {
	set := New([]string{"node_modules", "*.tmp"})

	assert.True(t, set.MatchesName("node_modules"))
	assert.True(t, set.MatchesName("scratch.tmp"))
	assert.False(t, set.MatchesName("node_modules2"))
	assert.False(t, set.MatchesName("scratch.txt"))
}

func TestMatchesNameNilSet(t *testing.T) {
	var set *Set
	assert.False(t, set.MatchesName("anything"))
}

func TestMatchesPathSeparatorPattern(t *testing.T) {
	set := New([]string{"src/generated"})

	assert.True(t, set.MatchesPath("/repo/src/generated/schema.go"))
	assert.False(t, set.MatchesPath("/repo/src/handwritten/schema.go"))
}

func TestMatchesPathFallsBackToLeafRule(t *testing.T) {
	set := New([]string{".git"})
	assert.True(t, set.MatchesPath("/repo/.git"))
}

func TestDefaultPatternsCoverSpecList(t *testing.T) {
	patterns := DefaultPatterns()
	require.Len(t, patterns, 13)
	assert.Contains(t, patterns, "node_modules")
	assert.Contains(t, patterns, ".DS_Store")
	assert.Contains(t, patterns, "Thumbs.db")
}
