package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olehluchkiv/bugtree/internal/bug"
)

func TestPatternsSortedAndUnique(t *testing.T) {
	patterns := Patterns()
	require.Len(t, patterns, len(registry))
	for i := 1; i < len(patterns); i++ {
		assert.Less(t, patterns[i-1].Name(), patterns[i].Name())
	}
}

func TestPatternsHaveCategoryAndPriority(t *testing.T) {
	for _, p := range Patterns() {
		assert.NotEmpty(t, p.Category, p.Name())
		assert.Contains(t, []bug.Priority{bug.High, bug.Normal, bug.Low}, p.Priority, p.Name())
		assert.NotEmpty(t, p.ShortDescription(), p.Name())
		assert.NotContains(t, p.ShortDescription(), "\n", p.Name())
	}
}

func TestLookup(t *testing.T) {
	p, ok := Lookup("printf")
	require.True(t, ok)
	assert.Equal(t, bug.Correctness, p.Category)

	_, ok = Lookup("findbugs")
	assert.False(t, ok)
}

func TestSelect(t *testing.T) {
	all, err := Select(nil)
	require.NoError(t, err)
	assert.Len(t, all, len(registry))

	some, err := Select([]string{"shift", " assign", "shift"})
	require.NoError(t, err)
	require.Len(t, some, 2)
	assert.Equal(t, "shift", some[0].Name())
	assert.Equal(t, "assign", some[1].Name())

	_, err = Select([]string{"assign", "bogus"})
	require.Error(t, err)
}

func TestFilter(t *testing.T) {
	bugs := []bug.Bug{
		{PkgPath: "example.com/m/a", File: "a/a.go", Priority: bug.High},
		{PkgPath: "example.com/m/a", File: "a/a_test.go", Priority: bug.High},
		{PkgPath: "example.com/m/b", File: "b/b.go", Priority: bug.Low},
	}

	assert.Len(t, Filter(bugs, Options{}), 2)
	assert.Len(t, Filter(bugs, Options{Scope: Scope{IncludeTests: true}}), 3)
	assert.Len(t, Filter(bugs, Options{Filter: "example.com/m/b"}), 1)

	got := Filter(bugs, Options{MinPriority: bug.Normal})
	require.Len(t, got, 1)
	assert.Equal(t, "a/a.go", got[0].File)
}
