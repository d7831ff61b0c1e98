package core

import (
	"context"
	"fmt"
	"time"

	assert "github.com/ZanzyTHEbar/assert-lib"
	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"depresolve/internal/observability"
	"depresolve/internal/policies"
	"depresolve/internal/ports"
	"depresolve/internal/types"
)

// ResolverCore turns a declaration set into a resolved graph. It holds no
// per-call state, so one value may serve concurrent Resolve calls as long
// as its repository is safe for concurrent use.
type ResolverCore struct {
	Repository ports.RepositoryPort
	Projects   ports.ProjectArtifactsPort
	Metrics    *observability.Metrics
	Now        func() time.Time
}

func NewResolverCore(repository ports.RepositoryPort) ResolverCore {
	return ResolverCore{
		Repository: repository,
		Now:        time.Now,
	}
}

// Resolve builds the dependency graph, resolves version conflicts, and
// materializes the standard classpaths. Problems found along the way are
// collected in the report; with FailOnError set, any error-level problem
// also makes Resolve return an error next to the graph and report.
func (r ResolverCore) Resolve(ctx context.Context, declarations types.DeclarationSet, options types.ResolveOptions) (*ResolvedGraph, types.ResolutionReport, error) {
	if r.Repository == nil {
		return nil, types.ResolutionReport{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("resolver requires a repository")
	}
	options = normalizeOptions(options)
	started := time.Now()

	ctx, span := observability.StartSpan(ctx, "depresolve.resolve")
	span.SetAttributes(
		attribute.String("project", declarations.Project),
		attribute.String("repository", r.Repository.ID()),
		attribute.String("conflict_strategy", string(options.ConflictStrategy)),
		attribute.Int("declarations", len(declarations.Entries)),
	)

	graph, report, err := r.resolve(ctx, declarations, options)
	observability.EndSpan(span, err)

	status := "ok"
	if err != nil {
		status = "failed"
	}
	nodes, evictions := 0, 0
	if graph != nil {
		nodes = len(graph.Nodes)
	}
	for _, record := range report.Records {
		if record.Action == "evict" {
			evictions++
		}
	}
	r.Metrics.RecordResolution(status, time.Since(started), nodes, evictions)
	for _, problem := range report.Errors {
		r.Metrics.RecordProblem(string(problem.Reason), "error")
	}
	for _, problem := range report.Warnings {
		r.Metrics.RecordProblem(string(problem.Reason), "warning")
	}
	return graph, report, err
}

func (r ResolverCore) resolve(ctx context.Context, declarations types.DeclarationSet, options types.ResolveOptions) (*ResolvedGraph, types.ResolutionReport, error) {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	overrides, err := policies.NewOverrideSet(options.Overrides, now())
	if err != nil {
		return nil, types.ResolutionReport{}, err
	}
	global, err := policies.NewExclusionPolicy(options.Exclusions)
	if err != nil {
		return nil, types.ResolutionReport{}, err
	}
	for _, decl := range declarations.Declarations() {
		if _, err := policies.NewExclusionPolicy(decl.Exclusions); err != nil {
			return nil, types.ResolutionReport{}, err
		}
	}

	builder := newGraphBuilder(r.Repository, r.Projects, declarations.Project, options, overrides, global)
	strategy, err := policies.NewConflictStrategy(options.ConflictStrategy, builder.versions.compare)
	if err != nil {
		return nil, types.ResolutionReport{}, err
	}
	if err := builder.build(ctx, declarations); err != nil {
		return nil, types.ResolutionReport{}, err
	}
	evictions, conflicts, err := resolveConflicts(ctx, builder, strategy)
	if err != nil {
		return nil, types.ResolutionReport{}, err
	}
	builder.detectCycles()
	graph := builder.graph
	graph.precomputeClasspaths()

	fingerprint := Fingerprint(declarations.Project, declarations, options, r.Repository.ID())
	assert.NotEmpty(ctx, fingerprint, "fingerprint must be computed")

	report := types.ResolutionReport{
		Project:     declarations.Project,
		Fingerprint: fingerprint,
		Errors:      append(builder.problems.errors, conflicts...),
		Warnings:    builder.problems.warnings,
		Records:     append(overrides.Records(), evictions...),
		Tree:        GetTree(graph),
	}
	for _, directive := range overrides.Expired() {
		report.Warnings = append(report.Warnings, types.ResolutionProblem{
			Coordinate: directive.Dependency,
			Reason:     types.ReasonOverrideExpired,
			Message:    fmt.Sprintf("override %s expired at %s", directive.Action, directive.ExpiresAt),
		})
	}

	log.Ctx(ctx).Debug().
		Str("project", declarations.Project).
		Int("nodes", len(graph.Nodes)).
		Int("errors", len(report.Errors)).
		Int("warnings", len(report.Warnings)).
		Msg("resolution completed")

	if !options.FailOnError {
		report.Warnings = append(report.Errors, report.Warnings...)
		report.Errors = nil
		return graph, report, nil
	}
	if report.HasErrors() {
		return graph, report, problemError(report.Errors)
	}
	return graph, report, nil
}

func normalizeOptions(options types.ResolveOptions) types.ResolveOptions {
	if options.ConflictStrategy == "" {
		options.ConflictStrategy = types.ConflictLatestVersion
	}
	if options.VersionScheme == "" {
		options.VersionScheme = types.VersionSchemeMaven
	}
	return options
}

// problemError maps the first error-level problem to an error code.
func problemError(problems []types.ResolutionProblem) error {
	first := problems[0]
	code := errbuilder.CodeNotFound
	switch first.Reason {
	case types.ReasonConflict:
		code = errbuilder.CodeFailedPrecondition
	case types.ReasonRepositoryUnavailable:
		code = errbuilder.CodeUnavailable
	}
	message := fmt.Sprintf("resolution failed: %s %s", first.Reason, first.Coordinate)
	if len(problems) > 1 {
		message = fmt.Sprintf("%s (and %d more problems)", message, len(problems)-1)
	}
	return errbuilder.New().
		WithCode(code).
		WithMsg(message)
}
