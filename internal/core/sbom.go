package core

import (
	"sort"

	"depresolve/internal/types"
)

// BillOfMaterials lists the retained modules of g sorted by module and
// version. Dependencies on an evicted version point at its replacement.
func BillOfMaterials(g *ResolvedGraph) []types.SBOMComponent {
	direct := map[types.NodeID]bool{}
	for _, target := range retainedTargets(g, g.Root) {
		direct[target] = true
	}
	var components []types.SBOMComponent
	for _, node := range g.Nodes {
		if node.Kind != types.NodeKindModule || node.State != types.NodeRetained {
			continue
		}
		component := types.SBOMComponent{
			Module:  node.Module.String(),
			Version: node.Version,
			Scopes:  node.Scopes.Strings(),
			Direct:  direct[node.ID],
		}
		for _, artifact := range node.Artifacts {
			component.Artifacts = append(component.Artifacts, artifact.Path)
		}
		for _, target := range retainedTargets(g, node.ID) {
			to := g.Nodes[target]
			component.DependsOn = append(component.DependsOn, to.Module.String()+":"+to.Version)
		}
		sort.Strings(component.DependsOn)
		components = append(components, component)
	}
	sort.Slice(components, func(i, j int) bool {
		if components[i].Module != components[j].Module {
			return components[i].Module < components[j].Module
		}
		return CompareVersions(types.VersionSchemeMaven, components[i].Version, components[j].Version) < 0
	})
	return components
}

// retainedTargets follows the edges of id, replacing evicted versions, and
// returns the distinct retained module nodes reached.
func retainedTargets(g *ResolvedGraph, id types.NodeID) []types.NodeID {
	var out []types.NodeID
	seen := map[types.NodeID]bool{}
	for _, idx := range g.Nodes[id].Out {
		to := g.Edges[idx].To
		if replacement, ok := g.Replacement(to); ok {
			to = replacement
		}
		node := g.Nodes[to]
		if node.Kind != types.NodeKindModule || node.State != types.NodeRetained || seen[to] || to == id {
			continue
		}
		seen[to] = true
		out = append(out, to)
	}
	return out
}
