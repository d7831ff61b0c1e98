package core

import (
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"depresolve/internal/types"
)

func TestChildScopes(t *testing.T) {
	set := types.NewScopeSet
	tests := []struct {
		name         string
		parent       types.ScopeSet
		transitivity types.Transitivity
		declared     types.ScopeSet
		want         types.ScopeSet
	}{
		{name: "compile inherits", parent: set(types.ScopeCompile, types.ScopeTest), transitivity: types.TransitivityAll, declared: set(types.ScopeCompile), want: set(types.ScopeCompile, types.ScopeTest)},
		{name: "runtime maps compile", parent: set(types.ScopeCompile), transitivity: types.TransitivityAll, declared: set(types.ScopeRuntime), want: set(types.ScopeRuntime)},
		{name: "runtime keeps test", parent: set(types.ScopeTest), transitivity: types.TransitivityAll, declared: set(types.ScopeRuntime), want: set(types.ScopeTest)},
		{name: "test needs test parent", parent: set(types.ScopeCompile), transitivity: types.TransitivityAll, declared: set(types.ScopeTest), want: 0},
		{name: "test under test", parent: set(types.ScopeTest), transitivity: types.TransitivityAll, declared: set(types.ScopeTest), want: set(types.ScopeTest)},
		{name: "provided under compile", parent: set(types.ScopeCompile), transitivity: types.TransitivityAll, declared: set(types.ScopeProvided), want: set(types.ScopeProvided)},
		{name: "provided under runtime", parent: set(types.ScopeRuntime), transitivity: types.TransitivityAll, declared: set(types.ScopeProvided), want: 0},
		{name: "runtime transitivity promotes compile", parent: set(types.ScopeCompile), transitivity: types.TransitivityRuntime, declared: set(types.ScopeCompile), want: set(types.ScopeRuntime)},
		{name: "compile transitivity drops runtime", parent: set(types.ScopeCompile), transitivity: types.TransitivityCompile, declared: set(types.ScopeRuntime), want: 0},
		{name: "none drops everything", parent: set(types.ScopeCompile), transitivity: types.TransitivityNone, declared: set(types.ScopeCompile), want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want.String(), childScopes(tt.parent, tt.transitivity, tt.declared).String())
		})
	}
}

func TestNodeTransitions(t *testing.T) {
	g := newResolvedGraph("app")
	id := g.addNode(types.GraphNode{Kind: types.NodeKindModule, Module: types.ModuleID{Group: "g", Name: "a"}, Version: "1.0", State: types.NodeCreated})

	require.NoError(t, g.transition(id, types.NodeExpanding))
	require.NoError(t, g.transition(id, types.NodeExpanded))
	require.NoError(t, g.transition(id, types.NodeRetained))

	err := g.transition(id, types.NodeEvicted)
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeInternal, errbuilder.CodeOf(err))

	other := g.addNode(types.GraphNode{Kind: types.NodeKindModule, Module: types.ModuleID{Group: "g", Name: "b"}, Version: "1.0", State: types.NodeCreated})
	require.Error(t, g.transition(other, types.NodeRetained))
}

func TestAddEdgeMergesScopes(t *testing.T) {
	g := newResolvedGraph("app")
	child := g.addNode(types.GraphNode{Kind: types.NodeKindModule, Module: types.ModuleID{Group: "g", Name: "a"}, Version: "1.0"})

	first, created := g.addEdge(g.Root, child, types.NewScopeSet(types.ScopeCompile), types.TransitivityAll, "1.0", false)
	require.True(t, created)
	second, created := g.addEdge(g.Root, child, types.NewScopeSet(types.ScopeTest), types.TransitivityAll, "1.0", false)
	require.False(t, created)
	assert.Equal(t, first, second)
	assert.Equal(t, "compile,test", g.Edges[first].Scopes.String())

	_, created = g.addEdge(g.Root, child, types.NewScopeSet(types.ScopeCompile), types.TransitivityNone, "1.0", false)
	assert.True(t, created)
	assert.Len(t, g.Children(g.Root), 2)
}

func TestGraphLookups(t *testing.T) {
	g := newResolvedGraph("app")
	module := types.ModuleID{Group: "g", Name: "a"}
	id := g.addNode(types.GraphNode{Kind: types.NodeKindModule, Module: module, Version: "1.0"})

	got, ok := g.Lookup(module, "1.0")
	require.True(t, ok)
	assert.Equal(t, id, got)
	_, ok = g.Lookup(module, "2.0")
	assert.False(t, ok)
	_, ok = g.Node(types.NoNode)
	assert.False(t, ok)
	assert.Equal(t, []string{"g:a"}, g.Modules())
	assert.Equal(t, "app", g.Nodes[g.Root].Label())
}

func TestGraphNodeActive(t *testing.T) {
	tests := []struct {
		state types.NodeState
		want  bool
	}{
		{state: types.NodeRetained, want: true},
		{state: types.NodeEvicted, want: false},
		{state: types.NodeConflicted, want: false},
		{state: types.NodeUnresolved, want: false},
		{state: types.NodeExpanded, want: false},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			node := types.GraphNode{Kind: types.NodeKindModule, State: tt.state}
			assert.Equal(t, tt.want, node.Active())
		})
	}
}
