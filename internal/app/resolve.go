package app

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"depresolve/internal/adapters"
	"depresolve/internal/core"
	"depresolve/internal/ports"
	"depresolve/internal/types"
)

func (s Service) Resolve(ctx context.Context, req ResolveRequest) (ResolveResult, error) {
	projectPath := strings.TrimSpace(req.ProjectPath)
	if projectPath == "" {
		projectPath = discoverProject()
	}
	if projectPath == "" {
		return ResolveResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("project spec path is required")
	}
	spec, err := s.SpecLoader.LoadProject(projectPath)
	if err != nil {
		return ResolveResult{}, err
	}
	hints := checkResolveDefaultsHints(req.ResolveSettings, req.OutputDir, spec.Defaults)
	settings := applySpecDefaults(req.ResolveSettings, spec.Defaults)
	repo, err := s.repository(settings)
	if err != nil {
		return ResolveResult{}, err
	}

	result, err := s.resolveProject(ctx, spec, settings, repo, nil)
	result.Hints = hints
	if result.Graph == nil {
		return result, err
	}
	outputDir := applyOutputDefault(req.OutputDir, spec.Defaults)
	if writeErr := s.writeOutputs(&result, spec, outputDir, req.SBOM); writeErr != nil {
		return result, writeErr
	}
	return result, err
}

// resolveProject resolves one loaded project against repo. The returned
// result carries the graph and report whenever resolution got that far,
// even when err reports error-level problems.
func (s Service) resolveProject(ctx context.Context, spec types.ProjectSpec, settings ResolveSettings, repo *adapters.CachingRepository, projects ports.ProjectArtifactsPort) (ResolveResult, error) {
	declarations, err := core.DeclarationsFromProject(spec)
	if err != nil {
		return ResolveResult{}, err
	}
	options, err := resolveOptions(spec, settings)
	if err != nil {
		return ResolveResult{}, err
	}

	resolver := core.NewResolverCore(repo.Session())
	resolver.Projects = projects
	resolver.Metrics = s.Metrics
	if s.Clock != nil {
		resolver.Now = s.Clock
	}
	ctx = log.Ctx(ctx).With().Str("project", declarations.Project).Logger().WithContext(ctx)

	var (
		graph  *core.ResolvedGraph
		report types.ResolutionReport
	)
	if s.Cache != nil {
		graph, report, err = s.Cache.Resolve(ctx, resolver, declarations, options)
	} else {
		graph, report, err = resolver.Resolve(ctx, declarations, options)
	}
	result := ResolveResult{
		ProjectName: declarations.Project,
		Fingerprint: report.Fingerprint,
		Graph:       graph,
		Report:      report,
	}
	for _, warning := range report.Warnings {
		log.Ctx(ctx).Warn().Str("coordinate", warning.Coordinate).Str("reason", string(warning.Reason)).Msg(warning.Message)
	}
	return result, err
}

func (s Service) writeOutputs(result *ResolveResult, spec types.ProjectSpec, outputDir string, sbom bool) error {
	outputDir = strings.TrimSpace(outputDir)
	if outputDir == "" {
		return nil
	}
	var output ports.OutputPort = adapters.NewOutputFileAdapter(outputDir)
	for _, scope := range types.AllScopes {
		if err := output.WriteClasspath(scope, result.Graph.Classpath(scope)); err != nil {
			return err
		}
	}
	if err := output.WriteResolutionReport(result.Report); err != nil {
		return err
	}
	if err := output.WriteDependencyTree(result.Report.Tree); err != nil {
		return err
	}
	result.OutputDir = outputDir
	if sbom && s.SBOMWriter != nil {
		path, err := s.SBOMWriter.WriteSBOM(outputDir, ports.SBOMDocument{
			Project:     result.ProjectName,
			Version:     spec.Metadata.Version,
			Fingerprint: result.Fingerprint,
			CreatedAt:   s.now().UTC().Format(time.RFC3339),
			Components:  core.BillOfMaterials(result.Graph),
		})
		if err != nil {
			return err
		}
		result.SBOMPath = path
	}
	return nil
}

func (s Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}

// Fingerprint computes the cache key of a project's resolution without
// contacting the repository.
func (s Service) Fingerprint(_ context.Context, req FingerprintRequest) (FingerprintResult, error) {
	projectPath := strings.TrimSpace(req.ProjectPath)
	if projectPath == "" {
		projectPath = discoverProject()
	}
	if projectPath == "" {
		return FingerprintResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("project spec path is required")
	}
	spec, err := s.SpecLoader.LoadProject(projectPath)
	if err != nil {
		return FingerprintResult{}, err
	}
	settings := applySpecDefaults(req.ResolveSettings, spec.Defaults)
	declarations, err := core.DeclarationsFromProject(spec)
	if err != nil {
		return FingerprintResult{}, err
	}
	options, err := resolveOptions(spec, settings)
	if err != nil {
		return FingerprintResult{}, err
	}
	repo, err := s.repository(settings)
	if err != nil {
		return FingerprintResult{}, err
	}
	return FingerprintResult{
		ProjectName: declarations.Project,
		Fingerprint: core.Fingerprint(declarations.Project, declarations, options, repo.ID()),
		Repository:  repo.ID(),
	}, nil
}

func projectOutputDir(root string, project string) string {
	if strings.TrimSpace(root) == "" {
		return ""
	}
	return filepath.Join(root, project)
}
