package core

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	graphlib "github.com/dominikbraun/graph"
	"github.com/rs/zerolog/log"

	"depresolve/internal/policies"
	"depresolve/internal/ports"
	"depresolve/internal/types"
)

// graphBuilder expands root declarations breadth first. A node is expanded
// (its metadata fetched) once; later arrivals only widen scopes and push
// the scope delta on to the node's children, so the loop terminates once no
// scope set can grow any further.
type graphBuilder struct {
	repo      ports.RepositoryPort
	projects  ports.ProjectArtifactsPort
	options   types.ResolveOptions
	versions  *versionCache
	overrides policies.OverrideSet
	global    policies.ExclusionPolicy

	graph    *ResolvedGraph
	nodes    map[types.NodeID]*builderNode
	queue    []arrival
	selected map[string]versionOutcome
	matchers map[string]policies.ExclusionPolicy
	problems problemLog
	lookups  int
	dynamic  int
}

type builderNode struct {
	deps       []types.Declaration
	exclusions []string
	propagated map[types.Transitivity]types.ScopeSet
}

type arrival struct {
	node         types.NodeID
	scopes       types.ScopeSet
	transitivity types.Transitivity
}

type versionOutcome struct {
	version string
	problem *types.ResolutionProblem
}

func newGraphBuilder(repo ports.RepositoryPort, projects ports.ProjectArtifactsPort, project string, options types.ResolveOptions, overrides policies.OverrideSet, global policies.ExclusionPolicy) *graphBuilder {
	return &graphBuilder{
		repo:      repo,
		projects:  projects,
		options:   options,
		versions:  newVersionCache(options.VersionScheme),
		overrides: overrides,
		global:    global,
		graph:     newResolvedGraph(project),
		nodes:     map[types.NodeID]*builderNode{},
		selected:  map[string]versionOutcome{},
		matchers:  map[string]policies.ExclusionPolicy{},
	}
}

// build runs the traversal. Only context cancellation and internal errors
// abort it; lookup failures are collected as problems.
func (b *graphBuilder) build(ctx context.Context, declarations types.DeclarationSet) error {
	root := b.graph.Root
	for _, entry := range declarations.Entries {
		switch {
		case entry.Module != nil:
			decl := *entry.Module
			if !b.rootSelected(decl.Scopes) {
				continue
			}
			if err := b.link(ctx, root, decl, decl.Scopes, nil); err != nil {
				return err
			}
		case entry.File != nil:
			if !b.rootSelected(entry.File.Scopes) {
				continue
			}
			if err := b.addFiles(*entry.File); err != nil {
				return err
			}
		}
	}

	if err := b.drain(ctx); err != nil {
		return err
	}

	b.graph.dynamic = b.dynamic > 0
	log.Ctx(ctx).Debug().
		Int("nodes", len(b.graph.Nodes)).
		Int("edges", len(b.graph.Edges)).
		Int("lookups", b.lookups).
		Msg("graph built")
	return nil
}

// drain processes queued arrivals until none are left.
func (b *graphBuilder) drain(ctx context.Context) error {
	for len(b.queue) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		next := b.queue[0]
		b.queue = b.queue[1:]
		if err := b.process(ctx, next); err != nil {
			return err
		}
	}
	return nil
}

func (b *graphBuilder) rootSelected(scopes types.ScopeSet) bool {
	return b.options.ScopeFilter.IsEmpty() || scopes.Intersects(b.options.ScopeFilter)
}

func (b *graphBuilder) addFiles(file types.FileDependency) error {
	copied := file
	copied.Paths = append([]string(nil), file.Paths...)
	id := b.graph.addNode(types.GraphNode{
		Kind:   types.NodeKindFiles,
		File:   &copied,
		State:  types.NodeCreated,
		Scopes: file.Scopes,
		Depth:  1,
	})
	b.graph.addEdge(b.graph.Root, id, file.Scopes, types.TransitivityNone, "", false)
	if err := b.graph.transition(id, types.NodeExpanding); err != nil {
		return err
	}

	paths := copied.Paths
	if copied.Project != "" {
		if b.projects == nil {
			b.problems.error(copied.Label(), types.ReasonNotFound, "no project artifacts registered")
			return b.graph.transition(id, types.NodeUnresolved)
		}
		artifacts, err := b.projects.RuntimeArtifacts(copied.Project)
		if err != nil {
			b.problems.error(copied.Label(), types.ReasonNotFound, errorText(err))
			return b.graph.transition(id, types.NodeUnresolved)
		}
		paths = artifacts
	}
	for _, path := range paths {
		b.graph.Nodes[id].Artifacts = append(b.graph.Nodes[id].Artifacts, types.Artifact{Path: path})
	}
	return b.graph.transition(id, types.NodeExpanded)
}

// link resolves decl as a child of parent and records the arrival.
// exclusions are the parent's accumulated path exclusions.
func (b *graphBuilder) link(ctx context.Context, parent types.NodeID, decl types.Declaration, scopes types.ScopeSet, exclusions []string) error {
	module := decl.Coordinate.Module
	if _, blocked := b.overrides.Blocked(module); blocked {
		log.Ctx(ctx).Debug().Str("module", module.String()).Msg("module blocked by override")
		return nil
	}
	if pattern, excluded := b.global.Match(module); excluded {
		log.Ctx(ctx).Debug().Str("module", module.String()).Str("pattern", pattern).Msg("module excluded globally")
		return nil
	}

	requested := decl.Coordinate.Version
	outcome, err := b.selectVersion(ctx, module, requested)
	if err != nil {
		return err
	}

	child, created := b.nodeFor(module, outcome.version, b.graph.Nodes[parent].Depth+1)
	if created {
		b.nodes[child] = &builderNode{
			exclusions: mergeExclusions(exclusions, decl.Exclusions),
			propagated: map[types.Transitivity]types.ScopeSet{},
		}
		if outcome.problem != nil {
			if err := b.graph.transition(child, types.NodeExpanding); err != nil {
				return err
			}
			if err := b.graph.transition(child, types.NodeUnresolved); err != nil {
				return err
			}
		}
	}
	b.graph.addEdge(parent, child, scopes, decl.Transitivity, requested, false)
	b.arrive(child, scopes, decl.Transitivity)
	return nil
}

func (b *graphBuilder) nodeFor(module types.ModuleID, version string, depth int) (types.NodeID, bool) {
	if id, ok := b.graph.Lookup(module, version); ok {
		if depth < b.graph.Nodes[id].Depth {
			b.graph.Nodes[id].Depth = depth
		}
		return id, false
	}
	id := b.graph.addNode(types.GraphNode{
		Kind:    types.NodeKindModule,
		Module:  module,
		Version: version,
		State:   types.NodeCreated,
		Depth:   depth,
	})
	return id, true
}

// arrive widens a node's scopes and queues the part of the arrival that
// has not been propagated with this transitivity yet.
func (b *graphBuilder) arrive(id types.NodeID, scopes types.ScopeSet, transitivity types.Transitivity) bool {
	b.graph.Nodes[id].Scopes = b.graph.Nodes[id].Scopes.Union(scopes)
	state := b.nodes[id]
	delta := scopes &^ state.propagated[transitivity]
	if delta.IsEmpty() {
		return false
	}
	state.propagated[transitivity] = state.propagated[transitivity].Union(delta)
	b.queue = append(b.queue, arrival{node: id, scopes: delta, transitivity: transitivity})
	return true
}

func (b *graphBuilder) process(ctx context.Context, next arrival) error {
	node := b.graph.Nodes[next.node]
	if node.State == types.NodeCreated {
		if err := b.expand(ctx, next.node); err != nil {
			return err
		}
		node = b.graph.Nodes[next.node]
	}
	if node.State != types.NodeExpanded {
		return nil
	}
	state := b.nodes[next.node]
	matcher, err := b.pathMatcher(state.exclusions)
	if err != nil {
		return err
	}
	for _, dep := range state.deps {
		scopes := childScopes(next.scopes, next.transitivity, dep.Scopes)
		if scopes.IsEmpty() {
			continue
		}
		if pattern, excluded := matcher.Match(dep.Coordinate.Module); excluded {
			log.Ctx(ctx).Debug().
				Str("module", dep.Coordinate.Module.String()).
				Str("parent", node.Label()).
				Str("pattern", pattern).
				Msg("branch excluded")
			continue
		}
		if err := b.link(ctx, next.node, dep, scopes, state.exclusions); err != nil {
			return err
		}
	}
	return nil
}

func (b *graphBuilder) expand(ctx context.Context, id types.NodeID) error {
	if err := b.graph.transition(id, types.NodeExpanding); err != nil {
		return err
	}
	node := b.graph.Nodes[id]
	coordinate := types.ModuleCoordinate{Module: node.Module, Version: node.Version}

	lookupCtx, cancel := b.lookupContext(ctx)
	metadata, err := b.repo.ResolveMetadata(lookupCtx, coordinate)
	cancel()
	b.lookups++
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		b.problems.error(coordinate.String(), lookupReason(err), errorText(err))
		return b.graph.transition(id, types.NodeUnresolved)
	}

	b.nodes[id].deps = metadata.Dependencies
	b.graph.Nodes[id].Artifacts = selectArtifacts(node.Module, metadata.Artifacts)
	return b.graph.transition(id, types.NodeExpanded)
}

func (b *graphBuilder) lookupContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.options.LookupTimeout > 0 {
		return context.WithTimeout(ctx, b.options.LookupTimeout)
	}
	return context.WithCancel(ctx)
}

// selectVersion turns a requested version into a concrete one. Results
// are memoized per builder so each dynamic request queries the
// repository once per resolution.
func (b *graphBuilder) selectVersion(ctx context.Context, module types.ModuleID, requested string) (versionOutcome, error) {
	if directive, forced := b.overrides.Forced(module); forced {
		return versionOutcome{version: strings.TrimSpace(directive.Value)}, nil
	}
	key := module.String() + "|" + requested
	if outcome, ok := b.selected[key]; ok {
		return outcome, nil
	}
	outcome, err := b.lookupVersion(ctx, module, requested)
	if err != nil {
		return versionOutcome{}, err
	}
	b.selected[key] = outcome
	return outcome, nil
}

func (b *graphBuilder) lookupVersion(ctx context.Context, module types.ModuleID, requested string) (versionOutcome, error) {
	coordinate := types.ModuleCoordinate{Module: module, Version: requested}
	unresolved := func(reason types.ProblemReason, message string) versionOutcome {
		problem := b.problems.error(coordinate.String(), reason, message)
		return versionOutcome{version: requested, problem: &problem}
	}

	selector, err := parseVersionSelector(requested, b.versions)
	if err != nil {
		return unresolved(types.ReasonNotFound, errorText(err)), nil
	}
	if !selector.dynamic() {
		return versionOutcome{version: strings.TrimSpace(requested)}, nil
	}

	lookupCtx, cancel := b.lookupContext(ctx)
	available, err := b.repo.AvailableVersions(lookupCtx, module)
	cancel()
	b.lookups++
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return versionOutcome{}, ctxErr
		}
		return unresolved(lookupReason(err), errorText(err)), nil
	}
	b.dynamic++
	version, err := selectVersion(module, requested, available, selector, b.versions)
	if err != nil {
		return unresolved(types.ReasonNotFound, errorText(err)), nil
	}
	log.Ctx(ctx).Debug().
		Str("module", module.String()).
		Str("requested", requested).
		Str("selected", version).
		Msg("dynamic version selected")
	return versionOutcome{version: version}, nil
}

func (b *graphBuilder) pathMatcher(exclusions []string) (policies.ExclusionPolicy, error) {
	key := strings.Join(exclusions, "\n")
	if matcher, ok := b.matchers[key]; ok {
		return matcher, nil
	}
	matcher, err := policies.NewExclusionPolicy(exclusions)
	if err != nil {
		return policies.ExclusionPolicy{}, err
	}
	b.matchers[key] = matcher
	return matcher, nil
}

// detectCycles records one warning per strongly connected component of
// declared edges, including self references. Vertices are keyed by id+1
// because the SCC walk treats the zero key as "no vertex".
func (b *graphBuilder) detectCycles() {
	vertexKey := func(id types.NodeID) int { return int(id) + 1 }
	g := graphlib.New(vertexKey, graphlib.Directed())
	for _, node := range b.graph.Nodes {
		_ = g.AddVertex(node.ID)
	}
	selfLoops := map[types.NodeID]bool{}
	for _, edge := range b.graph.Edges {
		if edge.Redirect {
			continue
		}
		if edge.From == edge.To {
			selfLoops[edge.From] = true
			continue
		}
		_ = g.AddEdge(vertexKey(edge.From), vertexKey(edge.To))
	}
	components, err := graphlib.StronglyConnectedComponents(g)
	if err != nil {
		return
	}
	var cycles [][]types.NodeID
	for _, component := range components {
		if len(component) == 0 {
			continue
		}
		ids := make([]types.NodeID, 0, len(component))
		for _, key := range component {
			ids = append(ids, types.NodeID(key-1))
		}
		if len(ids) > 1 || selfLoops[ids[0]] {
			slices.Sort(ids)
			cycles = append(cycles, ids)
		}
	}
	slices.SortFunc(cycles, func(a, c []types.NodeID) int { return int(a[0] - c[0]) })
	for _, cycle := range cycles {
		labels := make([]string, 0, len(cycle))
		for _, id := range cycle {
			labels = append(labels, b.graph.Nodes[id].Label())
		}
		b.problems.warn(labels[0], types.ReasonCycleDetected, "dependency cycle: "+strings.Join(labels, " -> "))
	}
}

// childScopes derives the scopes a dependency declared with declared
// receives when reached through an edge carrying parent scopes and the
// given transitivity.
func childScopes(parent types.ScopeSet, transitivity types.Transitivity, declared types.ScopeSet) types.ScopeSet {
	var out types.ScopeSet
	for _, tag := range declared.Tags() {
		if !propagates(transitivity, tag) {
			continue
		}
		switch tag {
		case types.ScopeCompile:
			out = out.Union(parent)
		case types.ScopeRuntime:
			mapped := parent &^ types.NewScopeSet(types.ScopeCompile)
			if parent.Has(types.ScopeCompile) {
				mapped = mapped.With(types.ScopeRuntime)
			}
			out = out.Union(mapped)
		case types.ScopeTest:
			out = out.Union(parent.Intersect(types.NewScopeSet(types.ScopeTest)))
		case types.ScopeProvided:
			out = out.Union(parent.Intersect(types.NewScopeSet(types.ScopeTest)))
			if parent.Intersects(types.NewScopeSet(types.ScopeCompile, types.ScopeProvided)) {
				out = out.With(types.ScopeProvided)
			}
		}
	}
	if transitivity == types.TransitivityRuntime && out.Has(types.ScopeCompile) {
		out = (out &^ types.NewScopeSet(types.ScopeCompile)).With(types.ScopeRuntime)
	}
	return out
}

func propagates(transitivity types.Transitivity, tag types.ScopeTag) bool {
	switch transitivity {
	case types.TransitivityNone:
		return false
	case types.TransitivityCompile:
		return tag == types.ScopeCompile
	case types.TransitivityRuntime:
		return tag == types.ScopeCompile || tag == types.ScopeRuntime
	default:
		return true
	}
}

func mergeExclusions(inherited []string, declared []string) []string {
	if len(declared) == 0 {
		return inherited
	}
	out := append([]string(nil), inherited...)
	for _, pattern := range declared {
		if !slices.Contains(out, pattern) {
			out = append(out, pattern)
		}
	}
	slices.Sort(out)
	return out
}

// selectArtifacts keeps the artifacts of the requested classifier; an
// unclassified module gets its unclassified artifacts.
func selectArtifacts(module types.ModuleID, artifacts []types.Artifact) []types.Artifact {
	var out []types.Artifact
	for _, artifact := range artifacts {
		if artifact.Classifier == module.Classifier {
			out = append(out, artifact)
		}
	}
	return out
}

func lookupReason(err error) types.ProblemReason {
	if errbuilder.CodeOf(err) == errbuilder.CodeNotFound {
		return types.ReasonNotFound
	}
	return types.ReasonRepositoryUnavailable
}

func errorText(err error) string {
	var builder *errbuilder.ErrBuilder
	if errors.As(err, &builder) && strings.TrimSpace(builder.Msg) != "" {
		return builder.Msg
	}
	return err.Error()
}

// problemLog accumulates problems in discovery order.
type problemLog struct {
	errors   []types.ResolutionProblem
	warnings []types.ResolutionProblem
}

func (l *problemLog) error(coordinate string, reason types.ProblemReason, message string) types.ResolutionProblem {
	problem := types.ResolutionProblem{Coordinate: coordinate, Reason: reason, Message: message}
	l.errors = append(l.errors, problem)
	return problem
}

func (l *problemLog) warn(coordinate string, reason types.ProblemReason, message string) {
	l.warnings = append(l.warnings, types.ResolutionProblem{Coordinate: coordinate, Reason: reason, Message: message})
}
