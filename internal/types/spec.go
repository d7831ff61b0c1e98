package types

type Metadata struct {
	Name        string   `yaml:"name"`
	Version     string   `yaml:"version"`
	Owners      []string `yaml:"owners,omitempty"`
	Description string   `yaml:"description,omitempty"`
}

// DependencyEntrySpec is one module dependency as written in a project
// spec, a repository index, or a module descriptor.
type DependencyEntrySpec struct {
	Module       string   `yaml:"module"`
	Scopes       []string `yaml:"scopes,omitempty"`
	Transitivity string   `yaml:"transitivity,omitempty"`
	Exclusions   []string `yaml:"exclusions,omitempty"`
}

type FileEntrySpec struct {
	Paths   []string `yaml:"paths,omitempty"`
	Project string   `yaml:"project,omitempty"`
	Scopes  []string `yaml:"scopes,omitempty"`
}

// ProjectEntrySpec keeps module and file dependencies in one ordered list
// so declaration order survives the YAML round trip.
type ProjectEntrySpec struct {
	DependencyEntrySpec `yaml:",inline"`
	Files               *FileEntrySpec `yaml:"files,omitempty"`
}

// ResolutionDirective pins or blocks a module for the whole graph.
type ResolutionDirective struct {
	Dependency string `yaml:"dependency"`
	Action     string `yaml:"action"`
	Value      string `yaml:"value,omitempty"`
	Reason     string `yaml:"reason"`
	Owner      string `yaml:"owner"`
	ExpiresAt  string `yaml:"expires_at,omitempty"`
}

// SpecDefaults provides per-project resolution defaults that CLI flags and
// configuration may override.
type SpecDefaults struct {
	ConflictStrategy string   `yaml:"conflict_strategy,omitempty"`
	FailOnError      *bool    `yaml:"fail_on_error,omitempty"`
	VersionScheme    string   `yaml:"version_scheme,omitempty"`
	RepoIndex        string   `yaml:"repo_index,omitempty"`
	RepoURL          string   `yaml:"repo_url,omitempty"`
	Output           string   `yaml:"output,omitempty"`
	Scopes           []string `yaml:"scopes,omitempty"`
}

type ProjectSpec struct {
	APIVersion   string                `yaml:"api_version"`
	Metadata     Metadata              `yaml:"metadata"`
	Defaults     SpecDefaults          `yaml:"defaults,omitempty"`
	Dependencies []ProjectEntrySpec    `yaml:"dependencies"`
	Exclusions   []string              `yaml:"exclusions,omitempty"`
	Resolutions  []ResolutionDirective `yaml:"resolutions,omitempty"`

	// Path is the file the project was loaded from; it is not serialized.
	Path string `yaml:"-"`
}
