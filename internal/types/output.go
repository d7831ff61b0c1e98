package types

type ResolutionProblem struct {
	Coordinate string        `yaml:"coordinate"`
	Reason     ProblemReason `yaml:"reason"`
	Message    string        `yaml:"message,omitempty"`
}

// ResolutionRecord documents a decision taken during resolution: an
// eviction, a forced version, or a blocked module.
type ResolutionRecord struct {
	Dependency string `yaml:"dependency"`
	Action     string `yaml:"action"`
	Value      string `yaml:"value,omitempty"`
	Reason     string `yaml:"reason,omitempty"`
	Owner      string `yaml:"owner,omitempty"`
	ExpiresAt  string `yaml:"expires_at,omitempty"`
}

// TreeNode is one position in the dependency tree. State is the node's
// terminal state; consumers must treat conflicted like evicted, since
// neither contributes artifacts.
type TreeNode struct {
	Label     string     `yaml:"label"`
	Module    string     `yaml:"module,omitempty"`
	Version   string     `yaml:"version,omitempty"`
	Requested string     `yaml:"requested,omitempty"`
	Scopes    []string   `yaml:"scopes,omitempty"`
	State     NodeState  `yaml:"state"`
	EvictedBy string     `yaml:"evicted_by,omitempty"`
	Repeated  bool       `yaml:"repeated,omitempty"`
	Children  []TreeNode `yaml:"children,omitempty"`
}

type ResolutionReport struct {
	Project     string              `yaml:"project,omitempty"`
	Fingerprint string              `yaml:"fingerprint,omitempty"`
	Errors      []ResolutionProblem `yaml:"errors,omitempty"`
	Warnings    []ResolutionProblem `yaml:"warnings,omitempty"`
	Records     []ResolutionRecord  `yaml:"records,omitempty"`
	Tree        TreeNode            `yaml:"tree"`
}

func (r ResolutionReport) HasErrors() bool {
	return len(r.Errors) > 0
}

// ClasspathEntry is one materialized artifact with the node it came from.
type ClasspathEntry struct {
	Path     string
	Module   string
	Version  string
	IDEScope ScopeTag
}

// SBOMComponent is one retained module of a resolved graph with the
// retained modules it depends on, as "group:name:version" references.
type SBOMComponent struct {
	Module    string
	Version   string
	Scopes    []string
	Artifacts []string
	DependsOn []string
	Direct    bool
}

func (c SBOMComponent) Ref() string {
	return c.Module + ":" + c.Version
}
