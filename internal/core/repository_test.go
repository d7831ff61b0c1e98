package core

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/stretchr/testify/require"

	"depresolve/internal/types"
)

// memoryRepository is an in-memory repository keyed by "group:name".
type memoryRepository struct {
	mu          sync.Mutex
	id          string
	modules     map[string]map[string]types.ModuleMetadata
	unavailable map[string]bool
	block       bool
	calls       map[string]int
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		id:          "memory",
		modules:     map[string]map[string]types.ModuleMetadata{},
		unavailable: map[string]bool{},
		calls:       map[string]int{},
	}
}

// add registers module@version with one jar named after it and the given
// dependencies.
func (r *memoryRepository) add(key string, version string, deps ...types.Declaration) *memoryRepository {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.modules[key] == nil {
		r.modules[key] = map[string]types.ModuleMetadata{}
	}
	r.modules[key][version] = types.ModuleMetadata{
		Dependencies: deps,
		Artifacts:    []types.Artifact{{Path: jar(key, version)}},
	}
	return r
}

func (r *memoryRepository) ID() string {
	return r.id
}

func (r *memoryRepository) ResolveMetadata(ctx context.Context, coordinate types.ModuleCoordinate) (types.ModuleMetadata, error) {
	if err := r.wait(ctx); err != nil {
		return types.ModuleMetadata{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := coordinate.Module.Key()
	r.calls["metadata "+coordinate.String()]++
	if r.unavailable[key] {
		return types.ModuleMetadata{}, errbuilder.New().
			WithCode(errbuilder.CodeUnavailable).
			WithMsg("repository offline")
	}
	metadata, ok := r.modules[key][coordinate.Version]
	if !ok {
		return types.ModuleMetadata{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("%s not found", coordinate))
	}
	return metadata, nil
}

func (r *memoryRepository) AvailableVersions(ctx context.Context, module types.ModuleID) ([]string, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := module.Key()
	r.calls["versions "+key]++
	if r.unavailable[key] {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeUnavailable).
			WithMsg("repository offline")
	}
	var versions []string
	for version := range r.modules[key] {
		versions = append(versions, version)
	}
	sort.Strings(versions)
	return versions, nil
}

// wait blocks until ctx is done when the repository is set to hang.
func (r *memoryRepository) wait(ctx context.Context) error {
	if !r.block {
		return nil
	}
	<-ctx.Done()
	return ctx.Err()
}

func (r *memoryRepository) callCount(call string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[call]
}

type projectArtifacts map[string][]string

func (p projectArtifacts) RuntimeArtifacts(project string) ([]string, error) {
	paths, ok := p[project]
	if !ok {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("project not resolved: " + project)
	}
	return paths, nil
}

func jar(key string, version string) string {
	module, err := ParseModuleID(key)
	if err != nil {
		panic(err)
	}
	return fmt.Sprintf("%s-%s.jar", module.Name, version)
}

func dep(t *testing.T, coordinate string, scopes ...types.ScopeTag) types.Declaration {
	t.Helper()
	return depWith(t, coordinate, types.TransitivityAll, scopes...)
}

func depWith(t *testing.T, coordinate string, transitivity types.Transitivity, scopes ...types.ScopeTag) types.Declaration {
	t.Helper()
	parsed, err := ParseCoordinate(coordinate)
	require.NoError(t, err)
	return NewDeclaration(parsed, types.NewScopeSet(scopes...), transitivity)
}

func declarations(project string, decls ...types.Declaration) types.DeclarationSet {
	set := types.DeclarationSet{Project: project}
	for i := range decls {
		decl := decls[i]
		set.Entries = append(set.Entries, types.DependencyEntry{Module: &decl})
	}
	return set
}

func resolve(t *testing.T, repo *memoryRepository, set types.DeclarationSet, mutate ...func(*types.ResolveOptions)) (*ResolvedGraph, types.ResolutionReport, error) {
	t.Helper()
	options := types.DefaultResolveOptions()
	for _, fn := range mutate {
		fn(&options)
	}
	return NewResolverCore(repo).Resolve(t.Context(), set, options)
}

func nodeState(t *testing.T, g *ResolvedGraph, key string, version string) types.NodeState {
	t.Helper()
	module, err := ParseModuleID(key)
	require.NoError(t, err)
	id, ok := g.Lookup(module, version)
	require.True(t, ok, "node %s:%s missing", key, version)
	return g.Nodes[id].State
}

func reasons(problems []types.ResolutionProblem) []types.ProblemReason {
	var out []types.ProblemReason
	for _, problem := range problems {
		out = append(out, problem.Reason)
	}
	return out
}
