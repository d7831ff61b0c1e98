package app

import (
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"depresolve/internal/adapters"
	"depresolve/internal/ports"
)

// repository opens the configured repositories for one run: the index
// file first, then each HTTP base URL, behind one metadata cache.
func (s Service) repository(settings ResolveSettings) (*adapters.CachingRepository, error) {
	var next ports.RepositoryPort
	if s.OpenRepository != nil {
		repo, err := s.OpenRepository(settings)
		if err != nil {
			return nil, err
		}
		next = repo
	} else {
		var chain []ports.RepositoryPort
		if index := strings.TrimSpace(settings.RepoIndex); index != "" {
			chain = append(chain, adapters.NewRepoIndexFileAdapter(index))
		}
		for _, url := range strings.Split(settings.RepoURL, ",") {
			if url = strings.TrimSpace(url); url != "" {
				http := adapters.NewHTTPRepositoryAdapter(url, settings.LookupTimeout)
				http.Metrics = s.Metrics
				chain = append(chain, http)
			}
		}
		switch len(chain) {
		case 0:
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("a repository is required (repo index or repo url)")
		case 1:
			next = chain[0]
		default:
			next = adapters.NewRepositoryChain(chain...)
		}
	}
	return adapters.NewCachingRepository(next, 0, 0, s.Metrics).WithLookupTimeout(settings.LookupTimeout), nil
}
