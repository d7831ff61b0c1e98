package adapters

import (
	"context"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"depresolve/internal/ports"
	"depresolve/internal/types"
)

// RepositoryChain consults several repositories in order. Metadata comes
// from the first repository that has the version; version listings are
// merged across all of them.
type RepositoryChain struct {
	Repositories []ports.RepositoryPort
}

func NewRepositoryChain(repositories ...ports.RepositoryPort) *RepositoryChain {
	return &RepositoryChain{Repositories: repositories}
}

func (c *RepositoryChain) ID() string {
	ids := make([]string, 0, len(c.Repositories))
	for _, repository := range c.Repositories {
		ids = append(ids, repository.ID())
	}
	return strings.Join(ids, "+")
}

func (c *RepositoryChain) ResolveMetadata(ctx context.Context, coordinate types.ModuleCoordinate) (types.ModuleMetadata, error) {
	var unavailable error
	for _, repository := range c.Repositories {
		metadata, err := repository.ResolveMetadata(ctx, coordinate)
		if err == nil {
			return metadata, nil
		}
		if errbuilder.CodeOf(err) != errbuilder.CodeNotFound {
			log.Ctx(ctx).Debug().Str("repository", repository.ID()).Str("module", coordinate.String()).Err(err).Msg("repository lookup failed")
			if unavailable == nil {
				unavailable = err
			}
		}
	}
	if unavailable != nil {
		return types.ModuleMetadata{}, unavailable
	}
	return types.ModuleMetadata{}, moduleNotFound(coordinate.String())
}

// AvailableVersions returns the union of every repository's listing in
// first-seen order. A module missing everywhere is NotFound; it is
// Unavailable only when no repository could answer at all.
func (c *RepositoryChain) AvailableVersions(ctx context.Context, module types.ModuleID) ([]string, error) {
	var (
		versions    []string
		seen        = map[string]bool{}
		found       bool
		unavailable error
	)
	for _, repository := range c.Repositories {
		listed, err := repository.AvailableVersions(ctx, module)
		if err != nil {
			if errbuilder.CodeOf(err) != errbuilder.CodeNotFound && unavailable == nil {
				unavailable = err
			}
			continue
		}
		found = true
		for _, version := range listed {
			if !seen[version] {
				seen[version] = true
				versions = append(versions, version)
			}
		}
	}
	switch {
	case found:
		return versions, nil
	case unavailable != nil:
		return nil, unavailable
	default:
		return nil, moduleNotFound(module.Key())
	}
}

var _ ports.RepositoryPort = (*RepositoryChain)(nil)
