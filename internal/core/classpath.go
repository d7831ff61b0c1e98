package core

import (
	"depresolve/internal/types"
)

// GetClasspath materializes the classpath for the union of the given
// scopes. The four single-scope classpaths are precomputed; use
// ResolvedGraph.Classpath for those.
func GetClasspath(g *ResolvedGraph, scopes ...types.ScopeTag) []string {
	filter := types.NewScopeSet(scopes...)
	if len(scopes) == 1 && g.classpaths != nil {
		if cached, ok := g.classpaths[scopes[0]]; ok {
			return append([]string(nil), cached...)
		}
	}
	return materialize(g, filter)
}

// ClasspathEntries returns the classpath with the node each path came from
// and the scope an IDE should label it with.
func ClasspathEntries(g *ResolvedGraph, scopes ...types.ScopeTag) []types.ClasspathEntry {
	filter := types.NewScopeSet(scopes...)
	var entries []types.ClasspathEntry
	walkClasspath(g, filter, func(node types.GraphNode, path string) {
		entry := types.ClasspathEntry{
			Path:     path,
			IDEScope: ideScope(node.Scopes),
		}
		if node.Kind == types.NodeKindModule {
			entry.Module = node.Module.String()
			entry.Version = node.Version
		} else if node.File != nil {
			entry.Module = node.File.Label()
		}
		entries = append(entries, entry)
	})
	return entries
}

func materialize(g *ResolvedGraph, filter types.ScopeSet) []string {
	var paths []string
	walkClasspath(g, filter, func(_ types.GraphNode, path string) {
		paths = append(paths, path)
	})
	return paths
}

// walkClasspath visits retained nodes in pre-order, following edges in
// declaration order, and emits each artifact path the first time it is
// seen on a node visible under filter. An edge to an evicted version is
// followed to the version that replaced it.
func walkClasspath(g *ResolvedGraph, filter types.ScopeSet, emit func(node types.GraphNode, path string)) {
	visited := map[types.NodeID]bool{}
	included := map[string]bool{}
	var visit func(id types.NodeID)
	visit = func(id types.NodeID) {
		if visited[id] {
			return
		}
		visited[id] = true
		node := g.Nodes[id]
		if node.Kind != types.NodeKindRoot {
			if !node.Active() {
				if replacement, ok := g.Replacement(id); ok {
					visit(replacement)
				}
				return
			}
			if node.Scopes.Visibility().Intersects(filter) {
				for _, artifact := range node.Artifacts {
					if included[artifact.Path] {
						continue
					}
					included[artifact.Path] = true
					emit(node, artifact.Path)
				}
			}
		}
		for _, idx := range node.Out {
			visit(g.Edges[idx].To)
		}
	}
	visit(g.Root)
}

// ideScope picks the label an IDE shows for a dependency present under
// several scopes.
func ideScope(scopes types.ScopeSet) types.ScopeTag {
	for _, tag := range []types.ScopeTag{types.ScopeCompile, types.ScopeProvided, types.ScopeRuntime, types.ScopeTest} {
		if scopes.Has(tag) {
			return tag
		}
	}
	return types.ScopeCompile
}
