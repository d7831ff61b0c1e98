package app

import (
	"context"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"depresolve/internal/core"
	"depresolve/internal/policies"
)

// Validate loads a project spec and checks every declaration and policy
// without contacting a repository.
func (s Service) Validate(ctx context.Context, req ValidateRequest) (ValidateResult, error) {
	projectPath := strings.TrimSpace(req.ProjectPath)
	if projectPath == "" {
		projectPath = discoverProject()
	}
	if projectPath == "" {
		return ValidateResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("project spec path is required")
	}
	spec, err := s.SpecLoader.LoadProject(projectPath)
	if err != nil {
		return ValidateResult{}, err
	}
	declarations, err := core.DeclarationsFromProject(spec)
	if err != nil {
		return ValidateResult{}, err
	}
	if _, err := resolveOptions(spec, applySpecDefaults(ResolveSettings{}, spec.Defaults)); err != nil {
		return ValidateResult{}, err
	}
	if _, err := policies.NewExclusionPolicy(spec.Exclusions); err != nil {
		return ValidateResult{}, err
	}
	overrides, err := policies.NewOverrideSet(spec.Resolutions, s.now())
	if err != nil {
		return ValidateResult{}, err
	}
	for _, directive := range overrides.Expired() {
		log.Ctx(ctx).Warn().
			Str("dependency", directive.Dependency).
			Str("expires_at", directive.ExpiresAt).
			Msg("override has expired")
	}
	return ValidateResult{
		ProjectName:  declarations.Project,
		Dependencies: len(declarations.Entries),
		Overrides:    len(spec.Resolutions),
		References:   core.ProjectReferences(declarations),
	}, nil
}
