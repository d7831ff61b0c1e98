package app

import (
	"time"

	"depresolve/internal/core"
	"depresolve/internal/types"
)

type ValidateRequest struct {
	ProjectPath string
}

type ValidateResult struct {
	ProjectName  string
	Dependencies int
	Overrides    int
	References   []string
}

// ResolveSettings are the resolution knobs shared by single-project and
// workspace runs. Empty values fall back to the project spec defaults and
// then to built-in defaults.
type ResolveSettings struct {
	RepoIndex        string
	RepoURL          string
	ConflictStrategy string
	VersionScheme    string
	FailOnError      *bool
	Scopes           []string
	LookupTimeout    time.Duration
}

type ResolveRequest struct {
	ProjectPath string
	OutputDir   string
	SBOM        bool
	ResolveSettings
}

type ResolveResult struct {
	ProjectName string
	Fingerprint string
	OutputDir   string
	SBOMPath    string
	Graph       *core.ResolvedGraph
	Report      types.ResolutionReport
	Hints       []string
}

type WorkspaceRequest struct {
	Roots     []string
	OutputDir string
	Workers   int
	SBOM      bool
	ResolveSettings
}

type WorkspaceResult struct {
	// Layers lists project names in resolution order; projects within one
	// layer were resolved concurrently.
	Layers   [][]string
	Projects []ResolveResult
}

type FingerprintRequest struct {
	ProjectPath string
	ResolveSettings
}

type FingerprintResult struct {
	ProjectName string
	Fingerprint string
	Repository  string
}

type RepoIndexRequest struct {
	DescriptorRoot string
	Output         string
	ID             string
	Workers        int
}

type RepoIndexResult struct {
	OutputPath  string
	ModuleCount int
	EntryCount  int
}

type InspectRequest struct {
	OutputDir string
}

type InspectResult struct {
	Project     string
	Fingerprint string
	Classpaths  map[types.ScopeTag][]string
	Errors      []types.ResolutionProblem
	Warnings    []types.ResolutionProblem
	Records     []types.ResolutionRecord
	Tree        types.TreeNode
}
