package adapters

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"

	"depresolve/internal/core"
	"depresolve/internal/ports"
	"depresolve/internal/types"
)

// RepoIndexFileAdapter serves modules from a single YAML index file. The
// file is read once, on first use.
type RepoIndexFileAdapter struct {
	Path string

	once   sync.Once
	index  map[string]map[string]types.ModuleMetadata
	id     string
	err    error
	sorted map[string][]string
}

func NewRepoIndexFileAdapter(path string) *RepoIndexFileAdapter {
	return &RepoIndexFileAdapter{Path: path}
}

func (a *RepoIndexFileAdapter) ID() string {
	if err := a.load(); err == nil && a.id != "" {
		return a.id
	}
	return "index:" + a.Path
}

func (a *RepoIndexFileAdapter) ResolveMetadata(_ context.Context, coordinate types.ModuleCoordinate) (types.ModuleMetadata, error) {
	if err := a.load(); err != nil {
		return types.ModuleMetadata{}, err
	}
	versions, ok := a.index[coordinate.Module.Key()]
	if !ok {
		return types.ModuleMetadata{}, moduleNotFound(coordinate.Module.Key())
	}
	metadata, ok := versions[coordinate.Version]
	if !ok {
		return types.ModuleMetadata{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("version %s of %s not found", coordinate.Version, coordinate.Module.Key()))
	}
	metadata.AvailableVersions = a.sorted[coordinate.Module.Key()]
	return metadata, nil
}

func (a *RepoIndexFileAdapter) AvailableVersions(_ context.Context, module types.ModuleID) ([]string, error) {
	if err := a.load(); err != nil {
		return nil, err
	}
	versions, ok := a.sorted[module.Key()]
	if !ok {
		return nil, moduleNotFound(module.Key())
	}
	return append([]string(nil), versions...), nil
}

func (a *RepoIndexFileAdapter) load() error {
	a.once.Do(func() {
		data, err := os.ReadFile(a.Path)
		if err != nil {
			a.err = errbuilder.New().
				WithCode(errbuilder.CodeUnavailable).
				WithMsg("repo index file not readable").
				WithCause(err)
			return
		}
		var file types.RepoIndexFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			a.err = errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("invalid repo index format").
				WithCause(err)
			return
		}
		a.id = strings.TrimSpace(file.ID)
		a.index, a.sorted, a.err = compileIndex(file)
	})
	return a.err
}

func compileIndex(file types.RepoIndexFile) (map[string]map[string]types.ModuleMetadata, map[string][]string, error) {
	index := make(map[string]map[string]types.ModuleMetadata, len(file.Modules))
	sorted := make(map[string][]string, len(file.Modules))
	for key, entries := range file.Modules {
		module, err := core.ParseModuleID(key)
		if err != nil {
			return nil, nil, err
		}
		key = module.Key()
		versions := map[string]types.ModuleMetadata{}
		for _, entry := range entries {
			version := strings.TrimSpace(entry.Version)
			if version == "" {
				return nil, nil, errbuilder.New().
					WithCode(errbuilder.CodeInvalidArgument).
					WithMsg(fmt.Sprintf("repo index entry for %s has no version", key))
			}
			metadata, err := moduleMetadata(entry.Artifacts, entry.Dependencies)
			if err != nil {
				return nil, nil, err
			}
			versions[version] = metadata
			sorted[key] = append(sorted[key], version)
		}
		index[key] = versions
		sort.Slice(sorted[key], func(i, j int) bool {
			return core.CompareVersions(types.VersionSchemeMaven, sorted[key][i], sorted[key][j]) < 0
		})
	}
	return index, sorted, nil
}

// moduleMetadata converts the YAML form shared by index entries and
// module descriptors.
func moduleMetadata(artifacts []types.ArtifactEntry, deps []types.DependencyEntrySpec) (types.ModuleMetadata, error) {
	declarations, err := core.DeclarationsFromSpecs(deps)
	if err != nil {
		return types.ModuleMetadata{}, err
	}
	metadata := types.ModuleMetadata{Dependencies: declarations}
	for _, artifact := range artifacts {
		metadata.Artifacts = append(metadata.Artifacts, types.Artifact{
			Classifier: strings.TrimSpace(artifact.Classifier),
			Path:       strings.TrimSpace(artifact.Path),
		})
	}
	return metadata, nil
}

func moduleNotFound(key string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeNotFound).
		WithMsg(fmt.Sprintf("module %s not found", key))
}

var _ ports.RepositoryPort = (*RepoIndexFileAdapter)(nil)
