package core

import (
	"fmt"
	"strings"

	"depresolve/internal/types"
)

// GetTree returns the dependency hierarchy below the root. A node appearing
// more than once is expanded only at its first position; later positions
// are marked Repeated, which also keeps cycles finite.
func GetTree(g *ResolvedGraph) types.TreeNode {
	root := g.Nodes[g.Root]
	tree := types.TreeNode{
		Label: root.Label(),
		State: root.State,
	}
	expanded := map[types.NodeID]bool{g.Root: true}
	tree.Children = treeChildren(g, g.Root, expanded)
	return tree
}

func treeChildren(g *ResolvedGraph, id types.NodeID, expanded map[types.NodeID]bool) []types.TreeNode {
	var children []types.TreeNode
	for _, idx := range g.Nodes[id].Out {
		edge := g.Edges[idx]
		if edge.Redirect {
			continue
		}
		node := g.Nodes[edge.To]
		child := types.TreeNode{
			Label:     node.Label(),
			Requested: edge.Requested,
			Scopes:    edge.Scopes.Strings(),
			State:     node.State,
			EvictedBy: node.EvictedBy,
		}
		if node.Kind == types.NodeKindModule {
			child.Module = node.Module.String()
			child.Version = node.Version
		}
		if expanded[edge.To] {
			child.Repeated = len(node.Out) > 0
		} else {
			expanded[edge.To] = true
			child.Children = treeChildren(g, edge.To, expanded)
		}
		children = append(children, child)
	}
	return children
}

// RenderTree formats a tree as indented text, one node per line.
func RenderTree(tree types.TreeNode) string {
	var builder strings.Builder
	builder.WriteString(tree.Label)
	builder.WriteString("\n")
	renderChildren(&builder, tree.Children, "")
	return builder.String()
}

func renderChildren(builder *strings.Builder, children []types.TreeNode, prefix string) {
	for i, child := range children {
		last := i == len(children)-1
		connector, indent := "├── ", "│   "
		if last {
			connector, indent = "└── ", "    "
		}
		builder.WriteString(prefix)
		builder.WriteString(connector)
		builder.WriteString(TreeLine(child))
		builder.WriteString("\n")
		renderChildren(builder, child.Children, prefix+indent)
	}
}

// TreeLine is the single-line description of one tree node.
func TreeLine(node types.TreeNode) string {
	line := node.Label
	if node.Requested != "" && node.Requested != node.Version {
		line = fmt.Sprintf("%s (requested %s)", line, node.Requested)
	}
	if node.EvictedBy != "" {
		line = fmt.Sprintf("%s -> %s", line, node.EvictedBy)
	}
	if len(node.Scopes) > 0 {
		line = fmt.Sprintf("%s [%s]", line, strings.Join(node.Scopes, ","))
	}
	switch node.State {
	case types.NodeEvicted, types.NodeConflicted, types.NodeUnresolved:
		line = fmt.Sprintf("%s (%s)", line, node.State)
	}
	if node.Repeated {
		line += " (*)"
	}
	return line
}
