package app

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"depresolve/internal/adapters"
	"depresolve/internal/ports"
	"depresolve/internal/types"
)

func testService() Service {
	service := NewService()
	service.Clock = func() time.Time { return time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC) }
	return service
}

func TestResolveSampleProject(t *testing.T) {
	service := testService()
	outDir := t.TempDir()

	result, err := service.Resolve(t.Context(), ResolveRequest{
		ProjectPath:     fixturePath(t, "project-sample.yaml"),
		OutputDir:       outDir,
		SBOM:            true,
		ResolveSettings: ResolveSettings{RepoIndex: fixturePath(t, "repo-index.yaml")},
	})
	require.NoError(t, err)
	assert.Equal(t, "shop", result.ProjectName)
	assert.NotEmpty(t, result.Fingerprint)
	assert.Equal(t, outDir, result.OutputDir)
	assert.Empty(t, result.Report.Errors)

	compile := []string{
		"repo/org/acme/web/2.1/web-2.1.jar",
		"repo/org/acme/core/1.3/core-1.3.jar",
		"repo/org/acme/log/1.1/log-1.1.jar",
		"repo/org/acme/json/1.4/json-1.4.jar",
		"repo/javax/servlet/servlet-api/3.1/servlet-api-3.1.jar",
	}
	if diff := cmp.Diff(compile, result.Graph.Classpath(types.ScopeCompile)); diff != "" {
		t.Fatalf("unexpected compile classpath (-want +got):\n%s", diff)
	}
	runtime := []string{
		"repo/org/acme/web/2.1/web-2.1.jar",
		"repo/org/acme/core/1.3/core-1.3.jar",
		"repo/org/acme/log/1.1/log-1.1.jar",
		"repo/org/acme/json/1.4/json-1.4.jar",
		"repo/com/h2database/h2/2.2/h2-2.2.jar",
	}
	if diff := cmp.Diff(runtime, result.Graph.Classpath(types.ScopeRuntime)); diff != "" {
		t.Fatalf("unexpected runtime classpath (-want +got):\n%s", diff)
	}

	for _, scope := range types.AllScopes {
		require.FileExists(t, filepath.Join(outDir, adapters.ClasspathFileName(scope)))
	}
	require.FileExists(t, filepath.Join(outDir, adapters.ReportFileName))
	require.FileExists(t, filepath.Join(outDir, adapters.TreeFileName))
	assert.Equal(t, filepath.Join(outDir, "shop.sbom.json"), result.SBOMPath)
	require.FileExists(t, result.SBOMPath)

	var forced bool
	for _, record := range result.Report.Records {
		if record.Dependency == "org.acme:log" && record.Action == "force" {
			forced = true
		}
	}
	assert.True(t, forced, "force override must be recorded")
}

func TestResolveStrictConflictStillWritesOutputs(t *testing.T) {
	service := testService()
	outDir := t.TempDir()

	result, err := service.Resolve(t.Context(), ResolveRequest{
		ProjectPath:     fixturePath(t, "project-strict.yaml"),
		OutputDir:       outDir,
		ResolveSettings: ResolveSettings{RepoIndex: fixturePath(t, "repo-index.yaml")},
	})
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeFailedPrecondition, errbuilder.CodeOf(err))
	require.NotEmpty(t, result.Report.Errors)
	assert.Equal(t, "org.acme:core", result.Report.Errors[0].Coordinate)
	assert.Equal(t, types.ReasonConflict, result.Report.Errors[0].Reason)
	require.FileExists(t, filepath.Join(outDir, adapters.ReportFileName))
}

func TestResolveStrictConflictWithoutFailOnError(t *testing.T) {
	service := testService()
	failOnError := false

	result, err := service.Resolve(t.Context(), ResolveRequest{
		ProjectPath: fixturePath(t, "project-strict.yaml"),
		ResolveSettings: ResolveSettings{
			RepoIndex:   fixturePath(t, "repo-index.yaml"),
			FailOnError: &failOnError,
		},
	})
	require.NoError(t, err)
	assert.Empty(t, result.Report.Errors)
	assert.NotEmpty(t, result.Report.Warnings)
	assert.Empty(t, result.OutputDir)
}

func TestResolveUsesInjectedRepository(t *testing.T) {
	service := testService()
	var opened []ResolveSettings
	index := adapters.NewRepoIndexFileAdapter(fixturePath(t, "repo-index.yaml"))
	service.OpenRepository = func(settings ResolveSettings) (ports.RepositoryPort, error) {
		opened = append(opened, settings)
		return index, nil
	}

	result, err := service.Resolve(t.Context(), ResolveRequest{
		ProjectPath:     fixturePath(t, "project-sample.yaml"),
		ResolveSettings: ResolveSettings{ConflictStrategy: "first_declared"},
	})
	require.NoError(t, err)
	require.Len(t, opened, 1)
	assert.Equal(t, "first_declared", opened[0].ConflictStrategy)
	assert.Equal(t, "fixtures/repo-index.yaml", opened[0].RepoIndex)
	assert.Equal(t, "shop", result.ProjectName)
}

func TestResolveHintsForRedundantFlags(t *testing.T) {
	service := testService()
	service.OpenRepository = func(ResolveSettings) (ports.RepositoryPort, error) {
		return adapters.NewRepoIndexFileAdapter(fixturePath(t, "repo-index.yaml")), nil
	}
	result, err := service.Resolve(t.Context(), ResolveRequest{
		ProjectPath:     fixturePath(t, "project-sample.yaml"),
		ResolveSettings: ResolveSettings{VersionScheme: "maven"},
	})
	require.NoError(t, err)
	require.Len(t, result.Hints, 1)
	assert.Contains(t, result.Hints[0], "--version-scheme")
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name string
		req  ResolveRequest
		code errbuilder.ErrCode
	}{
		{
			name: "missing project file",
			req:  ResolveRequest{ProjectPath: fixturePath(t, "absent.yaml")},
			code: errbuilder.CodeNotFound,
		},
		{
			name: "no repository configured",
			req:  ResolveRequest{ProjectPath: fixturePath(t, "project-strict.yaml")},
			code: errbuilder.CodeInvalidArgument,
		},
		{
			name: "unknown conflict strategy",
			req: ResolveRequest{
				ProjectPath: fixturePath(t, "project-sample.yaml"),
				ResolveSettings: ResolveSettings{
					RepoIndex:        fixturePath(t, "repo-index.yaml"),
					ConflictStrategy: "newest",
				},
			},
			code: errbuilder.CodeInvalidArgument,
		},
		{
			name: "missing repository index",
			req: ResolveRequest{
				ProjectPath:     fixturePath(t, "project-sample.yaml"),
				ResolveSettings: ResolveSettings{RepoIndex: fixturePath(t, "absent-index.yaml")},
			},
			code: errbuilder.CodeUnavailable,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := testService().Resolve(t.Context(), tc.req)
			require.Error(t, err)
			assert.Equal(t, tc.code, errbuilder.CodeOf(err))
		})
	}
}

func TestResolveRequiresProject(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := testService().Resolve(t.Context(), ResolveRequest{})
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
}

func TestFingerprintMatchesResolve(t *testing.T) {
	service := testService()
	settings := ResolveSettings{RepoIndex: fixturePath(t, "repo-index.yaml")}

	fingerprint, err := service.Fingerprint(t.Context(), FingerprintRequest{
		ProjectPath:     fixturePath(t, "project-sample.yaml"),
		ResolveSettings: settings,
	})
	require.NoError(t, err)
	assert.Equal(t, "shop", fingerprint.ProjectName)
	assert.Equal(t, "fixtures", fingerprint.Repository)

	resolved, err := service.Resolve(t.Context(), ResolveRequest{
		ProjectPath:     fixturePath(t, "project-sample.yaml"),
		ResolveSettings: settings,
	})
	require.NoError(t, err)
	assert.Equal(t, resolved.Fingerprint, fingerprint.Fingerprint)

	other, err := service.Fingerprint(t.Context(), FingerprintRequest{
		ProjectPath: fixturePath(t, "project-sample.yaml"),
		ResolveSettings: ResolveSettings{
			RepoIndex:        fixturePath(t, "repo-index.yaml"),
			ConflictStrategy: "strict",
		},
	})
	require.NoError(t, err)
	assert.NotEqual(t, fingerprint.Fingerprint, other.Fingerprint)
}
