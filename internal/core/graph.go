package core

import (
	"fmt"
	"sort"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"depresolve/internal/types"
)

// ResolvedGraph is the arena produced by one resolution. Nodes and Edges are
// addressed by index; after Resolve returns the graph is never mutated and
// may be shared between goroutines.
type ResolvedGraph struct {
	Root  types.NodeID
	Nodes []types.GraphNode
	Edges []types.Edge

	index      map[string]types.NodeID
	byModule   map[string][]types.NodeID
	edgeIndex  map[edgeKey]int
	classpaths map[types.ScopeTag][]string
	replaced   map[types.NodeID]types.NodeID
	dynamic    bool
}

type edgeKey struct {
	from         types.NodeID
	to           types.NodeID
	transitivity types.Transitivity
}

func newResolvedGraph(project string) *ResolvedGraph {
	g := &ResolvedGraph{
		index:     map[string]types.NodeID{},
		byModule:  map[string][]types.NodeID{},
		edgeIndex: map[edgeKey]int{},
	}
	g.Root = g.addNode(types.GraphNode{
		Kind:   types.NodeKindRoot,
		Module: types.ModuleID{Name: project},
		State:  types.NodeExpanded,
	})
	return g
}

func nodeKey(module types.ModuleID, version string) string {
	return module.String() + "@" + version
}

func (g *ResolvedGraph) addNode(node types.GraphNode) types.NodeID {
	id := types.NodeID(len(g.Nodes))
	node.ID = id
	node.Order = len(g.Nodes)
	g.Nodes = append(g.Nodes, node)
	if node.Kind == types.NodeKindModule {
		g.index[nodeKey(node.Module, node.Version)] = id
		key := node.Module.Key()
		g.byModule[key] = append(g.byModule[key], id)
	}
	return id
}

// addEdge links from and to, merging scopes into an existing edge with the
// same transitivity. It returns the edge index and whether it was new.
func (g *ResolvedGraph) addEdge(from types.NodeID, to types.NodeID, scopes types.ScopeSet, transitivity types.Transitivity, requested string, redirect bool) (int, bool) {
	key := edgeKey{from: from, to: to, transitivity: transitivity}
	if idx, ok := g.edgeIndex[key]; ok {
		g.Edges[idx].Scopes = g.Edges[idx].Scopes.Union(scopes)
		return idx, false
	}
	idx := len(g.Edges)
	g.Edges = append(g.Edges, types.Edge{
		From:         from,
		To:           to,
		Scopes:       scopes,
		Transitivity: transitivity,
		Requested:    requested,
		Order:        idx,
		Redirect:     redirect,
	})
	g.edgeIndex[key] = idx
	g.Nodes[from].Out = append(g.Nodes[from].Out, idx)
	g.Nodes[to].In = append(g.Nodes[to].In, idx)
	return idx, true
}

// HasDynamicVersions reports whether the graph depends on repository
// state that may change: a version selected from the repository's version
// list, or a snapshot version whose metadata can be republished.
func (g *ResolvedGraph) HasDynamicVersions() bool {
	if g.dynamic {
		return true
	}
	for _, node := range g.Nodes {
		if node.Kind == types.NodeKindModule && IsSnapshotVersion(node.Version) {
			return true
		}
	}
	return false
}

// Node returns the node with the given id.
func (g *ResolvedGraph) Node(id types.NodeID) (types.GraphNode, bool) {
	if id < 0 || int(id) >= len(g.Nodes) {
		return types.GraphNode{}, false
	}
	return g.Nodes[id], true
}

// Lookup finds the node of an exact (module, version) pair.
func (g *ResolvedGraph) Lookup(module types.ModuleID, version string) (types.NodeID, bool) {
	id, ok := g.index[nodeKey(module, version)]
	return id, ok
}

// NodesFor lists every node of a module ("group:name"), in reach order.
func (g *ResolvedGraph) NodesFor(moduleKey string) []types.NodeID {
	return append([]types.NodeID(nil), g.byModule[moduleKey]...)
}

// Modules returns the sorted "group:name" keys present in the graph.
func (g *ResolvedGraph) Modules() []string {
	keys := make([]string, 0, len(g.byModule))
	for key := range g.byModule {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Retained returns the retained node of a module, if any.
func (g *ResolvedGraph) Retained(moduleKey string) (types.GraphNode, bool) {
	for _, id := range g.byModule[moduleKey] {
		if g.Nodes[id].State == types.NodeRetained {
			return g.Nodes[id], true
		}
	}
	return types.GraphNode{}, false
}

// Replacement returns the retained node that took over from an evicted
// version, if any.
func (g *ResolvedGraph) Replacement(id types.NodeID) (types.NodeID, bool) {
	to, ok := g.replaced[id]
	return to, ok
}

// Children returns the edges leaving id in declaration order.
func (g *ResolvedGraph) Children(id types.NodeID) []types.Edge {
	node, ok := g.Node(id)
	if !ok {
		return nil
	}
	out := make([]types.Edge, 0, len(node.Out))
	for _, idx := range node.Out {
		out = append(out, g.Edges[idx])
	}
	return out
}

// Classpath returns a precomputed classpath for a single scope. Scopes
// other than the four standard tags yield nil; use GetClasspath for
// combined filters.
func (g *ResolvedGraph) Classpath(scope types.ScopeTag) []string {
	return append([]string(nil), g.classpaths[scope]...)
}

func (g *ResolvedGraph) precomputeClasspaths() {
	g.classpaths = make(map[types.ScopeTag][]string, len(types.AllScopes))
	for _, tag := range types.AllScopes {
		g.classpaths[tag] = materialize(g, types.NewScopeSet(tag))
	}
}

var allowedTransitions = map[types.NodeState][]types.NodeState{
	types.NodeCreated:   {types.NodeExpanding},
	types.NodeExpanding: {types.NodeExpanded, types.NodeUnresolved},
	types.NodeExpanded:  {types.NodeRetained, types.NodeEvicted, types.NodeConflicted},
}

// transition moves a node to the next lifecycle state.
func (g *ResolvedGraph) transition(id types.NodeID, to types.NodeState) error {
	from := g.Nodes[id].State
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			g.Nodes[id].State = to
			return nil
		}
	}
	return errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg(fmt.Sprintf("illegal node transition %s -> %s for %s", from, to, g.Nodes[id].Label()))
}
