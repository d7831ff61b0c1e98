package integration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"depresolve/internal/adapters"
	"depresolve/internal/core"
	"depresolve/internal/types"
)

// TestResolveIntegration wires the adapters and the resolver by hand the
// way the workspace command does: resolve a library project, register its
// runtime classpath, then resolve the project consuming it.
func TestResolveIntegration(t *testing.T) {
	root := repoRoot(t)
	specAdapter := adapters.NewSpecFileAdapter()
	repo := adapters.NewCachingRepository(adapters.NewRepoIndexFileAdapter(filepath.Join(root, "fixtures/repo-index.yaml")), 0, 0, nil)
	registry := adapters.NewProjectRegistry()

	paths, err := adapters.NewWorkspaceAdapter().FindProjects(filepath.Join(root, "fixtures/workspace"))
	require.NoError(t, err)
	require.Len(t, paths, 2)

	resolveProject := func(path string) *core.ResolvedGraph {
		spec, err := specAdapter.LoadProject(path)
		require.NoError(t, err)
		declarations, err := core.DeclarationsFromProject(spec)
		require.NoError(t, err)
		resolver := core.NewResolverCore(repo.Session())
		resolver.Projects = registry
		graph, report, err := resolver.Resolve(t.Context(), declarations, types.DefaultResolveOptions())
		require.NoError(t, err)
		require.Empty(t, report.Errors)
		return graph
	}

	library := resolveProject(filepath.Join(root, "fixtures/workspace/core/depresolve.yaml"))
	registry.Register("core", library.Classpath(types.ScopeRuntime))
	consumer := resolveProject(filepath.Join(root, "fixtures/workspace/app/depresolve.yaml"))

	want := []string{
		"repo/org/acme/log/1.1/log-1.1.jar",
		"repo/org/acme/json/1.0/json-1.0.jar",
		"repo/junit/junit/4.13/junit-4.13.jar",
		"repo/org/hamcrest/hamcrest-core/1.3/hamcrest-core-1.3.jar",
	}
	if diff := cmp.Diff(want, consumer.Classpath(types.ScopeTest)); diff != "" {
		t.Fatalf("unexpected test classpath (-want +got):\n%s", diff)
	}

	outDir := t.TempDir()
	output := adapters.NewOutputFileAdapter(outDir)
	require.NoError(t, output.WriteClasspath(types.ScopeTest, consumer.Classpath(types.ScopeTest)))
	read, err := adapters.NewOutputReaderAdapter().ReadClasspath(filepath.Join(outDir, adapters.ClasspathFileName(types.ScopeTest)))
	require.NoError(t, err)
	if diff := cmp.Diff(want, read); diff != "" {
		t.Fatalf("classpath file round trip (-want +got):\n%s", diff)
	}
}

func repoRoot(t *testing.T) string {
	dir, err := os.Getwd()
	require.NoError(t, err)
	return filepath.Clean(filepath.Join(dir, "..", ".."))
}
