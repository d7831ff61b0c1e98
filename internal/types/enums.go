package types

type ScopeTag string

const (
	ScopeCompile  ScopeTag = "compile"
	ScopeRuntime  ScopeTag = "runtime"
	ScopeTest     ScopeTag = "test"
	ScopeProvided ScopeTag = "provided"
)

// AllScopes lists scope tags in their canonical order.
var AllScopes = []ScopeTag{ScopeCompile, ScopeRuntime, ScopeTest, ScopeProvided}

type Transitivity string

const (
	TransitivityNone    Transitivity = "none"
	TransitivityCompile Transitivity = "compile"
	TransitivityRuntime Transitivity = "runtime"
	TransitivityAll     Transitivity = "all"
)

type ConflictStrategy string

const (
	ConflictLatestVersion ConflictStrategy = "latest_version"
	ConflictStrict        ConflictStrategy = "strict"
	ConflictFirstDeclared ConflictStrategy = "first_declared"
)

type VersionScheme string

const (
	VersionSchemeMaven  VersionScheme = "maven"
	VersionSchemeSemver VersionScheme = "semver"
	VersionSchemePep440 VersionScheme = "pep440"
	VersionSchemeDeb    VersionScheme = "deb"
)

// NodeState is a node's position in its lifecycle:
// created -> expanding -> expanded -> retained | evicted | conflicted, with
// unresolved reachable from expanding when the lookup fails. Conflicted is
// terminal and only used by the strict strategy for every version of a
// module that had more than one; no version of that module wins.
type NodeState string

const (
	NodeCreated    NodeState = "created"
	NodeExpanding  NodeState = "expanding"
	NodeExpanded   NodeState = "expanded"
	NodeUnresolved NodeState = "unresolved"
	NodeRetained   NodeState = "retained"
	NodeEvicted    NodeState = "evicted"
	NodeConflicted NodeState = "conflicted"
)

type ProblemReason string

const (
	ReasonNotFound              ProblemReason = "NOT_FOUND"
	ReasonConflict              ProblemReason = "CONFLICT"
	ReasonCycleDetected         ProblemReason = "CYCLE_DETECTED"
	ReasonRepositoryUnavailable ProblemReason = "REPOSITORY_UNAVAILABLE"
	ReasonOverrideExpired       ProblemReason = "OVERRIDE_EXPIRED"
)

type NodeKind string

const (
	NodeKindRoot   NodeKind = "root"
	NodeKindModule NodeKind = "module"
	NodeKindFiles  NodeKind = "files"
)
