package ports

import (
	"context"

	"depresolve/internal/types"
)

// RepositoryPort is the repository collaborator. A missing module must be
// reported as an errbuilder CodeNotFound error and an unreachable backend
// as CodeUnavailable; every other error is treated as unavailable too.
type RepositoryPort interface {
	ID() string
	ResolveMetadata(ctx context.Context, coordinate types.ModuleCoordinate) (types.ModuleMetadata, error)
	AvailableVersions(ctx context.Context, module types.ModuleID) ([]string, error)
}

// ProjectArtifactsPort answers which runtime artifacts a sibling project
// has already materialized.
type ProjectArtifactsPort interface {
	RuntimeArtifacts(project string) ([]string, error)
}
