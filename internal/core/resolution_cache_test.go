package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"depresolve/internal/observability"
	"depresolve/internal/types"
)

func TestResolutionCacheReusesFixedResolutions(t *testing.T) {
	repo := newMemoryRepository().add("g:a", "1.0")
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	cache, err := NewResolutionCache(4, metrics)
	require.NoError(t, err)
	resolver := NewResolverCore(repo)
	set := declarations("app", dep(t, "g:a:1.0"))

	first, _, err := cache.Resolve(t.Context(), resolver, set, types.DefaultResolveOptions())
	require.NoError(t, err)
	second, _, err := cache.Resolve(t.Context(), resolver, set, types.DefaultResolveOptions())
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, repo.callCount("metadata g:a:1.0"))
	assert.Equal(t, 1, cache.Len())
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.CacheHitsTotal.WithLabelValues("resolution")), 0)

	cache.Purge()
	assert.Equal(t, 0, cache.Len())
}

func TestResolutionCacheSkipsDynamicResolutions(t *testing.T) {
	repo := newMemoryRepository().add("g:a", "1.0")
	cache, err := NewResolutionCache(0, nil)
	require.NoError(t, err)
	resolver := NewResolverCore(repo)
	set := declarations("app", dep(t, "g:a:latest"))

	for range 2 {
		_, _, err := cache.Resolve(t.Context(), resolver, set, types.DefaultResolveOptions())
		require.NoError(t, err)
	}
	assert.Equal(t, 0, cache.Len())
	assert.Equal(t, 2, repo.callCount("versions g:a"))
}

func TestResolutionCacheDoesNotKeepFailures(t *testing.T) {
	repo := newMemoryRepository()
	cache, err := NewResolutionCache(4, nil)
	require.NoError(t, err)
	resolver := NewResolverCore(repo)
	set := declarations("app", dep(t, "g:missing:1.0"))

	_, report, err := cache.Resolve(t.Context(), resolver, set, types.DefaultResolveOptions())
	require.Error(t, err)
	assert.True(t, report.HasErrors())
	assert.Equal(t, 0, cache.Len())
}

func TestResolutionCacheConcurrentCallers(t *testing.T) {
	repo := newMemoryRepository().add("g:a", "1.0")
	cache, err := NewResolutionCache(4, nil)
	require.NoError(t, err)
	resolver := NewResolverCore(repo)
	set := declarations("app", dep(t, "g:a:1.0"))

	var wg sync.WaitGroup
	results := make([]*ResolvedGraph, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			graph, _, err := cache.Resolve(t.Context(), resolver, set, types.DefaultResolveOptions())
			assert.NoError(t, err)
			results[i] = graph
		}()
	}
	wg.Wait()

	for _, graph := range results {
		require.NotNil(t, graph)
		assert.Equal(t, []string{"a-1.0.jar"}, graph.Classpath(types.ScopeCompile))
	}
	assert.Equal(t, 1, cache.Len())
}

func TestResolutionCacheRefetchesSnapshots(t *testing.T) {
	tests := []struct {
		name     string
		repo     *memoryRepository
		declared string
		call     string
	}{
		{
			name:     "direct snapshot",
			repo:     newMemoryRepository().add("g:a", "1.0-SNAPSHOT"),
			declared: "g:a:1.0-SNAPSHOT",
			call:     "metadata g:a:1.0-SNAPSHOT",
		},
		{
			name: "transitive snapshot",
			repo: newMemoryRepository().
				add("g:a", "1.0", dep(t, "g:b:2.0-SNAPSHOT")).
				add("g:b", "2.0-SNAPSHOT"),
			declared: "g:a:1.0",
			call:     "metadata g:b:2.0-SNAPSHOT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache, err := NewResolutionCache(4, nil)
			require.NoError(t, err)
			resolver := NewResolverCore(tt.repo)
			set := declarations("app", dep(t, tt.declared))

			for range 2 {
				graph, _, err := cache.Resolve(t.Context(), resolver, set, types.DefaultResolveOptions())
				require.NoError(t, err)
				assert.True(t, graph.HasDynamicVersions())
			}
			assert.Equal(t, 0, cache.Len())
			assert.Equal(t, 2, tt.repo.callCount(tt.call))
		})
	}
}

// slowRepository delays metadata lookups and signals when the first one
// starts.
type slowRepository struct {
	*memoryRepository
	delay   time.Duration
	started chan struct{}
	once    sync.Once
}

func (r *slowRepository) ResolveMetadata(ctx context.Context, coordinate types.ModuleCoordinate) (types.ModuleMetadata, error) {
	r.once.Do(func() { close(r.started) })
	select {
	case <-time.After(r.delay):
	case <-ctx.Done():
		return types.ModuleMetadata{}, ctx.Err()
	}
	return r.memoryRepository.ResolveMetadata(ctx, coordinate)
}

func TestResolutionCacheCallerTimeoutDoesNotFailSharedResolution(t *testing.T) {
	memory := newMemoryRepository().add("g:a", "1.0")
	repo := &slowRepository{memoryRepository: memory, delay: 200 * time.Millisecond, started: make(chan struct{})}
	cache, err := NewResolutionCache(4, nil)
	require.NoError(t, err)
	resolver := NewResolverCore(repo)
	set := declarations("app", dep(t, "g:a:1.0"))

	short, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()
	first := make(chan error, 1)
	go func() {
		_, _, err := cache.Resolve(short, resolver, set, types.DefaultResolveOptions())
		first <- err
	}()
	<-repo.started

	graph, report, err := cache.Resolve(t.Context(), resolver, set, types.DefaultResolveOptions())
	require.NoError(t, err)
	assert.Empty(t, report.Errors)
	assert.Equal(t, []string{"a-1.0.jar"}, graph.Classpath(types.ScopeCompile))
	assert.ErrorIs(t, <-first, context.DeadlineExceeded)
	assert.Equal(t, 1, memory.callCount("metadata g:a:1.0"))
	assert.Equal(t, 1, cache.Len())
}
