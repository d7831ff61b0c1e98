package types

// ModuleMetadata is what a repository knows about one module version.
type ModuleMetadata struct {
	Dependencies      []Declaration
	Artifacts         []Artifact
	AvailableVersions []string
}

type Artifact struct {
	Classifier string
	Path       string
}

// RepoIndexFile is the on-disk YAML repository index. Modules are keyed by
// "group:name".
type RepoIndexFile struct {
	ID      string                          `yaml:"id,omitempty"`
	Modules map[string][]ModuleVersionEntry `yaml:"modules"`
}

type ModuleVersionEntry struct {
	Version      string                `yaml:"version"`
	Artifacts    []ArtifactEntry       `yaml:"artifacts,omitempty"`
	Dependencies []DependencyEntrySpec `yaml:"dependencies,omitempty"`
}

type ArtifactEntry struct {
	Classifier string `yaml:"classifier,omitempty"`
	Path       string `yaml:"path"`
}

// ModuleDescriptor is a single module.yaml as served by a descriptor
// repository (one file per module version).
type ModuleDescriptor struct {
	Module       string                `yaml:"module"`
	Version      string                `yaml:"version"`
	Artifacts    []ArtifactEntry       `yaml:"artifacts,omitempty"`
	Dependencies []DependencyEntrySpec `yaml:"dependencies,omitempty"`
}

// VersionList is the versions.yaml listing of a descriptor repository.
type VersionList struct {
	Module   string   `yaml:"module"`
	Versions []string `yaml:"versions"`
}
