package app

import (
	"path/filepath"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"depresolve/internal/adapters"
	"depresolve/internal/types"
)

func TestResolveAllWorkspace(t *testing.T) {
	service := testService()
	outDir := t.TempDir()

	result, err := service.ResolveAll(t.Context(), WorkspaceRequest{
		Roots:           []string{fixturePath(t, "workspace")},
		OutputDir:       outDir,
		Workers:         2,
		ResolveSettings: ResolveSettings{RepoIndex: fixturePath(t, "repo-index.yaml")},
	})
	require.NoError(t, err)

	if diff := cmp.Diff([][]string{{"core"}, {"app"}}, result.Layers); diff != "" {
		t.Fatalf("unexpected layers (-want +got):\n%s", diff)
	}
	require.Len(t, result.Projects, 2)
	assert.Equal(t, "core", result.Projects[0].ProjectName)
	assert.Equal(t, "app", result.Projects[1].ProjectName)

	want := []string{
		"repo/org/acme/log/1.1/log-1.1.jar",
		"repo/org/acme/json/1.0/json-1.0.jar",
	}
	if diff := cmp.Diff(want, result.Projects[1].Graph.Classpath(types.ScopeCompile)); diff != "" {
		t.Fatalf("unexpected app classpath (-want +got):\n%s", diff)
	}
	require.FileExists(t, filepath.Join(outDir, "core", adapters.ReportFileName))
	require.FileExists(t, filepath.Join(outDir, "app", adapters.ClasspathFileName(types.ScopeTest)))
}

func TestResolveAllSkipsDuplicateRoots(t *testing.T) {
	root := fixturePath(t, "workspace")
	result, err := testService().ResolveAll(t.Context(), WorkspaceRequest{
		Roots:           []string{root, root},
		ResolveSettings: ResolveSettings{RepoIndex: fixturePath(t, "repo-index.yaml")},
	})
	require.NoError(t, err)
	assert.Len(t, result.Projects, 2)
}

func TestResolveAllEmptyWorkspace(t *testing.T) {
	_, err := testService().ResolveAll(t.Context(), WorkspaceRequest{
		Roots:           []string{t.TempDir()},
		ResolveSettings: ResolveSettings{RepoIndex: fixturePath(t, "repo-index.yaml")},
	})
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeNotFound, errbuilder.CodeOf(err))
}

func TestWorkspaceLayers(t *testing.T) {
	tests := []struct {
		name     string
		projects map[string]workspaceProject
		want     [][]string
		code     errbuilder.ErrCode
	}{
		{
			name: "independent projects share a layer",
			projects: map[string]workspaceProject{
				"b": {},
				"a": {},
			},
			want: [][]string{{"a", "b"}},
		},
		{
			name: "diamond",
			projects: map[string]workspaceProject{
				"app":  {references: []string{"api", "impl"}},
				"impl": {references: []string{"api"}},
				"api":  {},
				"cli":  {references: []string{"api"}},
			},
			want: [][]string{{"api"}, {"cli", "impl"}, {"app"}},
		},
		{
			name: "cycle",
			projects: map[string]workspaceProject{
				"a": {references: []string{"b"}},
				"b": {references: []string{"a"}},
			},
			code: errbuilder.CodeFailedPrecondition,
		},
		{
			name: "unknown reference",
			projects: map[string]workspaceProject{
				"a": {references: []string{"ghost"}},
			},
			code: errbuilder.CodeNotFound,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			layers, err := workspaceLayers(tc.projects)
			if tc.want == nil {
				require.Error(t, err)
				assert.Equal(t, tc.code, errbuilder.CodeOf(err))
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(tc.want, layers); diff != "" {
				t.Fatalf("unexpected layers (-want +got):\n%s", diff)
			}
		})
	}
}
