package app

import (
	"time"

	"depresolve/internal/adapters"
	"depresolve/internal/core"
	"depresolve/internal/observability"
	"depresolve/internal/ports"
)

type Service struct {
	SpecLoader      ports.ProjectSpecPort
	Workspace       ports.WorkspacePort
	OutputReader    ports.OutputReaderPort
	SBOMWriter      ports.SBOMPort
	RepoIndexBuild  ports.RepoIndexBuilderPort
	RepoIndexWriter ports.RepoIndexWriterPort
	// OpenRepository builds the repository for one run. Tests replace it
	// with an in-memory repository.
	OpenRepository func(settings ResolveSettings) (ports.RepositoryPort, error)
	Cache          *core.ResolutionCache
	Metrics        *observability.Metrics
	Clock          func() time.Time
}

func NewService() Service {
	cache, _ := core.NewResolutionCache(0, nil)
	return Service{
		SpecLoader:      adapters.NewSpecFileAdapter(),
		Workspace:       adapters.NewWorkspaceAdapter(),
		OutputReader:    adapters.NewOutputReaderAdapter(),
		SBOMWriter:      adapters.NewSBOMWriterAdapter(),
		RepoIndexBuild:  adapters.NewRepoIndexBuilderAdapter(),
		RepoIndexWriter: adapters.NewRepoIndexWriterAdapter(),
		Cache:           cache,
		Clock:           time.Now,
	}
}

// WithMetrics returns a copy of s recording into metrics.
func (s Service) WithMetrics(metrics *observability.Metrics) Service {
	s.Metrics = metrics
	if cache, err := core.NewResolutionCache(0, metrics); err == nil {
		s.Cache = cache
	}
	return s
}
