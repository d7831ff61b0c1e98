package adapters

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"depresolve/internal/core"
	"depresolve/internal/ports"
	"depresolve/internal/types"
)

const (
	DescriptorFileName      = "module.yaml"
	defaultIndexBuildWorker = 4
)

// RepoIndexBuilderAdapter compiles a tree of module.yaml descriptors into
// a single repository index.
type RepoIndexBuilderAdapter struct{}

type RepoIndexWriterAdapter struct{}

func NewRepoIndexBuilderAdapter() RepoIndexBuilderAdapter {
	return RepoIndexBuilderAdapter{}
}

func NewRepoIndexWriterAdapter() RepoIndexWriterAdapter {
	return RepoIndexWriterAdapter{}
}

func (a RepoIndexBuilderAdapter) Build(ctx context.Context, request ports.RepoIndexBuildRequest) (types.RepoIndexFile, error) {
	root := strings.TrimSpace(request.DescriptorRoot)
	if root == "" {
		return types.RepoIndexFile{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("descriptor root is required")
	}
	paths, err := findDescriptors(root)
	if err != nil {
		return types.RepoIndexFile{}, err
	}

	workers := request.Workers
	if workers <= 0 {
		workers = defaultIndexBuildWorker
	}
	descriptors := make([]types.ModuleDescriptor, len(paths))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i, path := range paths {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			descriptor, err := readDescriptor(path)
			if err != nil {
				return err
			}
			descriptors[i] = descriptor
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return types.RepoIndexFile{}, err
	}

	index, err := assembleIndex(descriptors)
	if err != nil {
		return types.RepoIndexFile{}, err
	}
	index.ID = strings.TrimSpace(request.ID)
	log.Ctx(ctx).Debug().Str("root", root).Int("descriptors", len(paths)).Int("modules", len(index.Modules)).Msg("repository index built")
	return index, nil
}

func (a RepoIndexWriterAdapter) Write(path string, index types.RepoIndexFile) error {
	if strings.TrimSpace(path) == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("output path is required")
	}
	data, err := yaml.Marshal(index)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to marshal repo index").
			WithCause(err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create repo index directory").
			WithCause(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write repo index").
			WithCause(err)
	}
	return nil
}

func findDescriptors(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == DescriptorFileName {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("failed to scan descriptor root").
			WithCause(err)
	}
	sort.Strings(paths)
	return paths, nil
}

func readDescriptor(path string) (types.ModuleDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.ModuleDescriptor{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to read descriptor").
			WithCause(err)
	}
	var descriptor types.ModuleDescriptor
	if err := yaml.Unmarshal(data, &descriptor); err != nil {
		return types.ModuleDescriptor{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid descriptor %s", path)).
			WithCause(err)
	}
	if strings.TrimSpace(descriptor.Module) == "" || strings.TrimSpace(descriptor.Version) == "" {
		return types.ModuleDescriptor{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("descriptor %s needs module and version", path))
	}
	if _, err := moduleMetadata(descriptor.Artifacts, descriptor.Dependencies); err != nil {
		return types.ModuleDescriptor{}, err
	}
	return descriptor, nil
}

// assembleIndex groups descriptors by module key with versions in
// ascending order. Two descriptors for one version are rejected.
func assembleIndex(descriptors []types.ModuleDescriptor) (types.RepoIndexFile, error) {
	modules := map[string][]types.ModuleVersionEntry{}
	seen := map[string]bool{}
	for _, descriptor := range descriptors {
		id, err := core.ParseModuleID(descriptor.Module)
		if err != nil {
			return types.RepoIndexFile{}, err
		}
		key := id.Key()
		version := strings.TrimSpace(descriptor.Version)
		if seen[key+":"+version] {
			return types.RepoIndexFile{}, errbuilder.New().
				WithCode(errbuilder.CodeAlreadyExists).
				WithMsg(fmt.Sprintf("duplicate descriptor for %s:%s", key, version))
		}
		seen[key+":"+version] = true
		modules[key] = append(modules[key], types.ModuleVersionEntry{
			Version:      version,
			Artifacts:    descriptor.Artifacts,
			Dependencies: descriptor.Dependencies,
		})
	}
	for key := range modules {
		entries := modules[key]
		sort.Slice(entries, func(i, j int) bool {
			return core.CompareVersions(types.VersionSchemeMaven, entries[i].Version, entries[j].Version) < 0
		})
	}
	return types.RepoIndexFile{Modules: modules}, nil
}

var (
	_ ports.RepoIndexBuilderPort = RepoIndexBuilderAdapter{}
	_ ports.RepoIndexWriterPort  = RepoIndexWriterAdapter{}
)
