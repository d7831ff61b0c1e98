package policies

import (
	"strings"
	"testing"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"depresolve/internal/types"
)

func naiveCompare(a string, b string) int {
	return strings.Compare(a, b)
}

func TestLatestVersionSelectsHighest(t *testing.T) {
	strategy, err := NewConflictStrategy(types.ConflictLatestVersion, naiveCompare)
	require.NoError(t, err)

	idx := strategy.Select([]Candidate{
		{Node: 1, Version: "1.0", Depth: 1, Order: 1},
		{Node: 2, Version: "2.0", Depth: 3, Order: 4},
		{Node: 3, Version: "1.5", Depth: 2, Order: 2},
	})
	assert.Equal(t, 1, idx)
}

func TestLatestVersionIsDefault(t *testing.T) {
	strategy, err := NewConflictStrategy("", naiveCompare)
	require.NoError(t, err)
	assert.Equal(t, types.ConflictLatestVersion, strategy.Name())
}

func TestFirstDeclaredPrefersShallowThenOrder(t *testing.T) {
	strategy, err := NewConflictStrategy(types.ConflictFirstDeclared, naiveCompare)
	require.NoError(t, err)

	idx := strategy.Select([]Candidate{
		{Node: 1, Version: "3.0", Depth: 2, Order: 1},
		{Node: 2, Version: "1.0", Depth: 1, Order: 5},
		{Node: 3, Version: "2.0", Depth: 1, Order: 3},
	})
	assert.Equal(t, 2, idx)
}

func TestStrictNeverChoosesAmongMany(t *testing.T) {
	strategy, err := NewConflictStrategy(types.ConflictStrict, naiveCompare)
	require.NoError(t, err)

	assert.Equal(t, -1, strategy.Select([]Candidate{{Version: "1"}, {Version: "2"}}))
	assert.Equal(t, 0, strategy.Select([]Candidate{{Version: "1"}}))
}

func TestUnknownStrategy(t *testing.T) {
	_, err := NewConflictStrategy("newest", naiveCompare)
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
}

func TestOverrideSet(t *testing.T) {
	now := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	set, err := NewOverrideSet([]types.ResolutionDirective{
		{Dependency: "org.lib:core", Action: "force", Value: "2.1", Reason: "cve", Owner: "team-a", ExpiresAt: "2026-01-01"},
		{Dependency: "org.legacy:old", Action: "BLOCK", Reason: "banned", Owner: "team-b"},
	}, now)
	require.NoError(t, err)

	forced, ok := set.Forced(module("org.lib", "core"))
	require.True(t, ok)
	assert.Equal(t, "2.1", forced.Value)

	_, ok = set.Blocked(module("org.legacy", "old"))
	assert.True(t, ok)
	_, ok = set.Forced(module("org.legacy", "old"))
	assert.False(t, ok)

	require.Len(t, set.Expired(), 1)
	assert.Equal(t, "org.lib:core", set.Expired()[0].Dependency)

	want := []types.ResolutionRecord{
		{Dependency: "org.legacy:old", Action: "BLOCK", Reason: "banned", Owner: "team-b"},
		{Dependency: "org.lib:core", Action: "force", Value: "2.1", Reason: "cve", Owner: "team-a", ExpiresAt: "2026-01-01"},
	}
	if diff := cmp.Diff(want, set.Records()); diff != "" {
		t.Fatalf("unexpected records (-want +got):\n%s", diff)
	}
}

func TestOverrideSetRejectsInvalidDirectives(t *testing.T) {
	tests := []struct {
		name      string
		directive types.ResolutionDirective
	}{
		{"force without value", types.ResolutionDirective{Dependency: "a:b", Action: "force"}},
		{"unknown action", types.ResolutionDirective{Dependency: "a:b", Action: "relax"}},
		{"glob dependency", types.ResolutionDirective{Dependency: "a:*", Action: "block"}},
		{"missing name", types.ResolutionDirective{Dependency: "a", Action: "block"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewOverrideSet([]types.ResolutionDirective{tt.directive}, time.Now())
			require.Error(t, err)
			assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
		})
	}
}

func TestOverrideSetRejectsDuplicates(t *testing.T) {
	_, err := NewOverrideSet([]types.ResolutionDirective{
		{Dependency: "a:b", Action: "force", Value: "1"},
		{Dependency: "a:b", Action: "block"},
	}, time.Now())
	require.Error(t, err)
}
