package adapters

import (
	"context"
	"slices"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"depresolve/internal/core"
	"depresolve/internal/observability"
	"depresolve/internal/ports"
	"depresolve/internal/types"
)

const (
	defaultMetadataCacheSize   = 4096
	defaultMetadataCacheTTL    = time.Hour
	defaultSharedLookupTimeout = time.Minute
)

// CachingRepository keeps module metadata of a slower repository in memory.
// Metadata of a published version does not change, so it is shared across
// resolutions until the TTL expires. Version listings and snapshot
// metadata do change; they are only memoized within a Session.
type CachingRepository struct {
	next          ports.RepositoryPort
	metadata      *lru.LRU[string, types.ModuleMetadata]
	group         singleflight.Group
	metrics       *observability.Metrics
	lookupTimeout time.Duration
}

func NewCachingRepository(next ports.RepositoryPort, size int, ttl time.Duration, metrics *observability.Metrics) *CachingRepository {
	if size <= 0 {
		size = defaultMetadataCacheSize
	}
	if ttl <= 0 {
		ttl = defaultMetadataCacheTTL
	}
	return &CachingRepository{
		next:          next,
		metadata:      lru.NewLRU[string, types.ModuleMetadata](size, nil, ttl),
		metrics:       metrics,
		lookupTimeout: defaultSharedLookupTimeout,
	}
}

// WithLookupTimeout bounds every lookup shared between concurrent callers.
func (c *CachingRepository) WithLookupTimeout(timeout time.Duration) *CachingRepository {
	if timeout > 0 {
		c.lookupTimeout = timeout
	}
	return c
}

func (c *CachingRepository) ID() string {
	return c.next.ID()
}

// ResolveMetadata serves fixed versions from the cache. Snapshot versions
// always reach the wrapped repository.
func (c *CachingRepository) ResolveMetadata(ctx context.Context, coordinate types.ModuleCoordinate) (types.ModuleMetadata, error) {
	key := coordinate.String()
	snapshot := core.IsSnapshotVersion(coordinate.Version)
	if !snapshot {
		if metadata, ok := c.metadata.Get(key); ok {
			c.metrics.RecordCacheHit("metadata")
			return metadata, nil
		}
		c.metrics.RecordCacheMiss("metadata")
	}

	value, err, shared := c.share(ctx, "metadata "+key, func(ctx context.Context) (any, error) {
		metadata, err := c.next.ResolveMetadata(ctx, coordinate)
		if err != nil {
			return types.ModuleMetadata{}, err
		}
		if !snapshot {
			c.metadata.Add(key, metadata)
		}
		return metadata, nil
	})
	if shared {
		log.Ctx(ctx).Debug().Str("module", key).Msg("shared in-flight metadata lookup")
	}
	metadata, _ := value.(types.ModuleMetadata)
	return metadata, err
}

// AvailableVersions always asks the wrapped repository; concurrent identical
// calls are collapsed into one.
func (c *CachingRepository) AvailableVersions(ctx context.Context, module types.ModuleID) ([]string, error) {
	value, err, _ := c.share(ctx, "versions "+module.Key(), func(ctx context.Context) (any, error) {
		return c.next.AvailableVersions(ctx, module)
	})
	versions, _ := value.([]string)
	return slices.Clone(versions), err
}

// share runs fn once for all concurrent callers of key. The call is
// detached from the cancellation of whichever caller started it and is
// bounded by the repository's lookup timeout instead; each caller stops
// waiting as soon as its own ctx is done.
func (c *CachingRepository) share(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error, bool) {
	results := c.group.DoChan(key, func() (any, error) {
		detached, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.lookupTimeout)
		defer cancel()
		return fn(detached)
	})
	select {
	case result := <-results:
		return result.Val, result.Err, result.Shared
	case <-ctx.Done():
		return nil, ctx.Err(), false
	}
}

// Len reports how many metadata entries are cached.
func (c *CachingRepository) Len() int {
	return c.metadata.Len()
}

// Session returns a view that additionally remembers version listings for
// its lifetime. Use one session per resolution.
func (c *CachingRepository) Session() ports.RepositoryPort {
	return &repositorySession{
		CachingRepository: c,
		versions:          map[string][]string{},
		snapshots:         map[string]types.ModuleMetadata{},
	}
}

type repositorySession struct {
	*CachingRepository
	mu        sync.Mutex
	versions  map[string][]string
	snapshots map[string]types.ModuleMetadata
}

func (s *repositorySession) ResolveMetadata(ctx context.Context, coordinate types.ModuleCoordinate) (types.ModuleMetadata, error) {
	if !core.IsSnapshotVersion(coordinate.Version) {
		return s.CachingRepository.ResolveMetadata(ctx, coordinate)
	}
	key := coordinate.String()
	s.mu.Lock()
	cached, ok := s.snapshots[key]
	s.mu.Unlock()
	if ok {
		s.metrics.RecordCacheHit("snapshot")
		return cached, nil
	}
	s.metrics.RecordCacheMiss("snapshot")

	metadata, err := s.CachingRepository.ResolveMetadata(ctx, coordinate)
	if err != nil {
		return types.ModuleMetadata{}, err
	}
	s.mu.Lock()
	s.snapshots[key] = metadata
	s.mu.Unlock()
	return metadata, nil
}

func (s *repositorySession) AvailableVersions(ctx context.Context, module types.ModuleID) ([]string, error) {
	key := module.Key()
	s.mu.Lock()
	cached, ok := s.versions[key]
	s.mu.Unlock()
	if ok {
		s.metrics.RecordCacheHit("versions")
		return slices.Clone(cached), nil
	}
	s.metrics.RecordCacheMiss("versions")

	versions, err := s.CachingRepository.AvailableVersions(ctx, module)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.versions[key] = versions
	s.mu.Unlock()
	return slices.Clone(versions), nil
}

var (
	_ ports.RepositoryPort = (*CachingRepository)(nil)
	_ ports.RepositoryPort = (*repositorySession)(nil)
)
