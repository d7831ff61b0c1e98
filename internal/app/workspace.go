package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ZanzyTHEbar/errbuilder-go"
	graphlib "github.com/dominikbraun/graph"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"depresolve/internal/adapters"
	"depresolve/internal/core"
	"depresolve/internal/types"
)

const defaultWorkspaceWorkers = 4

type workspaceProject struct {
	spec       types.ProjectSpec
	references []string
}

// ResolveAll resolves every project found under the workspace roots.
// Projects are resolved in layers: a project runs only after every project
// it references has registered its runtime classpath.
func (s Service) ResolveAll(ctx context.Context, req WorkspaceRequest) (WorkspaceResult, error) {
	roots := req.Roots
	if len(roots) == 0 {
		roots = []string{"."}
	}
	projects, err := s.loadWorkspace(roots)
	if err != nil {
		return WorkspaceResult{}, err
	}
	layers, err := workspaceLayers(projects)
	if err != nil {
		return WorkspaceResult{}, err
	}

	workers := req.Workers
	if workers <= 0 {
		workers = defaultWorkspaceWorkers
	}
	registry := adapters.NewProjectRegistry()
	repos := &repositorySet{service: s, repos: map[string]*adapters.CachingRepository{}}
	results := map[string]ResolveResult{}
	var mu sync.Mutex

	for depth, layer := range layers {
		log.Ctx(ctx).Debug().Int("layer", depth).Strs("projects", layer).Msg("resolving workspace layer")
		eg, layerCtx := errgroup.WithContext(ctx)
		eg.SetLimit(workers)
		for _, name := range layer {
			project := projects[name]
			eg.Go(func() error {
				settings := applySpecDefaults(req.ResolveSettings, project.spec.Defaults)
				repo, err := repos.open(settings)
				if err != nil {
					return err
				}
				result, err := s.resolveProject(layerCtx, project.spec, settings, repo, registry)
				if result.Graph == nil {
					return err
				}
				registry.Register(name, result.Graph.Classpath(types.ScopeRuntime))
				outputDir := projectOutputDir(req.OutputDir, name)
				if outputDir == "" {
					outputDir = project.spec.Defaults.Output
				}
				if writeErr := s.writeOutputs(&result, project.spec, outputDir, req.SBOM); writeErr != nil {
					return writeErr
				}
				mu.Lock()
				results[name] = result
				mu.Unlock()
				return err
			})
		}
		if err := eg.Wait(); err != nil {
			return WorkspaceResult{Layers: layers, Projects: orderedResults(layers, results)}, err
		}
	}
	return WorkspaceResult{Layers: layers, Projects: orderedResults(layers, results)}, nil
}

func (s Service) loadWorkspace(roots []string) (map[string]workspaceProject, error) {
	projects := map[string]workspaceProject{}
	sources := map[string]string{}
	for _, root := range roots {
		paths, err := s.Workspace.FindProjects(root)
		if err != nil {
			return nil, err
		}
		for _, path := range paths {
			spec, err := s.SpecLoader.LoadProject(path)
			if err != nil {
				return nil, err
			}
			name := spec.Metadata.Name
			if previous, ok := sources[name]; ok {
				if previous == spec.Path {
					continue
				}
				return nil, errbuilder.New().
					WithCode(errbuilder.CodeInvalidArgument).
					WithMsg(fmt.Sprintf("project %q is defined by both %s and %s", name, previous, spec.Path))
			}
			declarations, err := core.DeclarationsFromProject(spec)
			if err != nil {
				return nil, err
			}
			sources[name] = spec.Path
			projects[name] = workspaceProject{spec: spec, references: core.ProjectReferences(declarations)}
		}
	}
	if len(projects) == 0 {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("no %s found under %s", adapters.ProjectFileName, strings.Join(roots, ", ")))
	}
	return projects, nil
}

// workspaceLayers orders projects so that every project comes in a later
// layer than the projects it references. Names within a layer are sorted.
func workspaceLayers(projects map[string]workspaceProject) ([][]string, error) {
	g := graphlib.New(graphlib.StringHash, graphlib.Directed(), graphlib.PreventCycles())
	names := make([]string, 0, len(projects))
	for name := range projects {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := g.AddVertex(name); err != nil {
			return nil, err
		}
	}
	for _, name := range names {
		for _, ref := range projects[name].references {
			if _, ok := projects[ref]; !ok {
				return nil, errbuilder.New().
					WithCode(errbuilder.CodeNotFound).
					WithMsg(fmt.Sprintf("project %s references unknown project %s", name, ref))
			}
			err := g.AddEdge(ref, name)
			switch {
			case errors.Is(err, graphlib.ErrEdgeCreatesCycle):
				return nil, errbuilder.New().
					WithCode(errbuilder.CodeFailedPrecondition).
					WithMsg(fmt.Sprintf("project reference cycle through %s and %s", name, ref)).
					WithCause(err)
			case err != nil && !errors.Is(err, graphlib.ErrEdgeAlreadyExists):
				return nil, err
			}
		}
	}
	order, err := graphlib.StableTopologicalSort(g, func(a, b string) bool { return a < b })
	if err != nil {
		return nil, err
	}
	depth := map[string]int{}
	var layers [][]string
	for _, name := range order {
		level := 0
		for _, ref := range projects[name].references {
			if depth[ref]+1 > level {
				level = depth[ref] + 1
			}
		}
		depth[name] = level
		for len(layers) <= level {
			layers = append(layers, nil)
		}
		layers[level] = append(layers[level], name)
	}
	for _, layer := range layers {
		sort.Strings(layer)
	}
	return layers, nil
}

func orderedResults(layers [][]string, results map[string]ResolveResult) []ResolveResult {
	var ordered []ResolveResult
	for _, layer := range layers {
		for _, name := range layer {
			if result, ok := results[name]; ok {
				ordered = append(ordered, result)
			}
		}
	}
	return ordered
}

// repositorySet shares one cached repository between projects that use
// the same repository settings.
type repositorySet struct {
	service Service
	mu      sync.Mutex
	repos   map[string]*adapters.CachingRepository
}

func (r *repositorySet) open(settings ResolveSettings) (*adapters.CachingRepository, error) {
	key := strings.Join([]string{settings.RepoIndex, settings.RepoURL, settings.LookupTimeout.String()}, "|")
	r.mu.Lock()
	defer r.mu.Unlock()
	if repo, ok := r.repos[key]; ok {
		return repo, nil
	}
	repo, err := r.service.repository(settings)
	if err != nil {
		return nil, err
	}
	r.repos[key] = repo
	return repo, nil
}
