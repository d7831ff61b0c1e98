package core

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"depresolve/internal/observability"
	"depresolve/internal/types"
)

const defaultResolutionCacheSize = 128

// CachedResolution is a finished resolution shared between callers. The
// graph is read-only once Resolve has returned.
type CachedResolution struct {
	Graph  *ResolvedGraph
	Report types.ResolutionReport
}

// ResolutionCache memoizes resolutions by fingerprint. Identical requests
// in flight at the same time share one resolution. Results that selected a
// dynamic version, contain a snapshot, or consumed sibling project outputs
// are handed back but not kept, so the next call observes repository
// changes.
type ResolutionCache struct {
	results *lru.Cache[string, CachedResolution]
	group   singleflight.Group
	metrics *observability.Metrics
}

func NewResolutionCache(size int, metrics *observability.Metrics) (*ResolutionCache, error) {
	if size <= 0 {
		size = defaultResolutionCacheSize
	}
	results, err := lru.New[string, CachedResolution](size)
	if err != nil {
		return nil, err
	}
	return &ResolutionCache{results: results, metrics: metrics}, nil
}

// Resolve returns a cached resolution or runs resolver. Errors are never
// cached. A caller whose ctx ends while waiting gets ctx.Err(); the other
// callers sharing the resolution are unaffected.
func (c *ResolutionCache) Resolve(ctx context.Context, resolver ResolverCore, declarations types.DeclarationSet, options types.ResolveOptions) (*ResolvedGraph, types.ResolutionReport, error) {
	if resolver.Repository == nil {
		return resolver.Resolve(ctx, declarations, options)
	}
	options = normalizeOptions(options)
	key := Fingerprint(declarations.Project, declarations, options, resolver.Repository.ID())
	if cached, ok := c.results.Get(key); ok {
		c.metrics.RecordCacheHit("resolution")
		log.Ctx(ctx).Debug().Str("project", declarations.Project).Str("fingerprint", key).Msg("resolution cache hit")
		return cached.Graph, cached.Report, nil
	}
	c.metrics.RecordCacheMiss("resolution")

	if err := ctx.Err(); err != nil {
		return nil, types.ResolutionReport{}, err
	}
	// The shared resolution ignores the cancellation of the caller that
	// started it. Lookups stay bounded by the per-lookup timeout.
	shared := context.WithoutCancel(ctx)
	results := c.group.DoChan(key, func() (any, error) {
		graph, report, err := resolver.Resolve(shared, declarations, options)
		if err != nil {
			return CachedResolution{Graph: graph, Report: report}, err
		}
		result := CachedResolution{Graph: graph, Report: report}
		if !graph.HasDynamicVersions() && len(ProjectReferences(declarations)) == 0 {
			c.results.Add(key, result)
		}
		return result, nil
	})
	select {
	case outcome := <-results:
		result, _ := outcome.Val.(CachedResolution)
		return result.Graph, result.Report, outcome.Err
	case <-ctx.Done():
		return nil, types.ResolutionReport{}, ctx.Err()
	}
}

// Len reports how many resolutions are cached.
func (c *ResolutionCache) Len() int {
	return c.results.Len()
}

// Purge drops every cached resolution.
func (c *ResolutionCache) Purge() {
	c.results.Purge()
}
