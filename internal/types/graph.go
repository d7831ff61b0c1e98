package types

// NodeID addresses a GraphNode inside a resolved graph's arena.
type NodeID int

const NoNode NodeID = -1

// Edge is one declared dependency between two nodes. Scopes are the
// effective scopes after propagation, not the child's raw declaration.
// Redirect edges are added by conflict resolution from a parent to the
// version that replaced the one it asked for.
type Edge struct {
	From         NodeID
	To           NodeID
	Scopes       ScopeSet
	Transitivity Transitivity
	Requested    string
	Order        int
	Redirect     bool
}

type GraphNode struct {
	ID        NodeID
	Kind      NodeKind
	Module    ModuleID
	Version   string
	File      *FileDependency
	State     NodeState
	Scopes    ScopeSet
	Depth     int
	Order     int
	In        []int
	Out       []int
	Artifacts []Artifact
	EvictedBy string
}

func (n GraphNode) Label() string {
	switch n.Kind {
	case NodeKindFiles:
		if n.File != nil {
			return n.File.Label()
		}
		return "files"
	case NodeKindRoot:
		if n.Module.Group == "" {
			return n.Module.Name
		}
		return n.Module.String()
	default:
		if n.Version == "" {
			return n.Module.String()
		}
		return n.Module.String() + ":" + n.Version
	}
}

// Active reports whether the node contributes artifacts downstream. Only
// retained nodes do; evicted, conflicted and unresolved nodes stay in the
// tree for reporting but add nothing to any classpath.
func (n GraphNode) Active() bool {
	return n.State == NodeRetained
}
