package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"depresolve/internal/types"
)

func TestClasspathEntriesCarryIDEScope(t *testing.T) {
	repo := newMemoryRepository().
		add("g:a", "1.0").
		add("g:servlet", "3.1").
		add("g:junit", "4.13")

	graph, _, err := resolve(t, repo, declarations("app",
		dep(t, "g:a:1.0"),
		dep(t, "g:servlet:3.1", types.ScopeProvided, types.ScopeTest),
		dep(t, "g:junit:4.13", types.ScopeTest),
	))
	require.NoError(t, err)

	want := []types.ClasspathEntry{
		{Path: "a-1.0.jar", Module: "g:a", Version: "1.0", IDEScope: types.ScopeCompile},
		{Path: "servlet-3.1.jar", Module: "g:servlet", Version: "3.1", IDEScope: types.ScopeProvided},
		{Path: "junit-4.13.jar", Module: "g:junit", Version: "4.13", IDEScope: types.ScopeTest},
	}
	if diff := cmp.Diff(want, ClasspathEntries(graph, types.ScopeTest)); diff != "" {
		t.Fatalf("unexpected entries (-want +got):\n%s", diff)
	}
}

func TestClasspathSharedArtifactListedOnce(t *testing.T) {
	repo := newMemoryRepository().add("g:a", "1.0").add("g:b", "1.0")
	repo.modules["g:b"]["1.0"] = types.ModuleMetadata{Artifacts: []types.Artifact{{Path: "a-1.0.jar"}, {Path: "b-1.0.jar"}}}

	graph, _, err := resolve(t, repo, declarations("app", dep(t, "g:a:1.0"), dep(t, "g:b:1.0")))
	require.NoError(t, err)
	assert.Equal(t, []string{"a-1.0.jar", "b-1.0.jar"}, GetClasspath(graph, types.ScopeCompile))
}

func TestClasspathSelectsClassifier(t *testing.T) {
	repo := newMemoryRepository()
	repo.modules["g:a"] = map[string]types.ModuleMetadata{
		"1.0": {Artifacts: []types.Artifact{
			{Path: "a-1.0.jar"},
			{Classifier: "natives", Path: "a-1.0-natives.jar"},
		}},
	}

	graph, _, err := resolve(t, repo, declarations("app", dep(t, "g:a:natives:1.0")))
	require.NoError(t, err)
	assert.Equal(t, []string{"a-1.0-natives.jar"}, graph.Classpath(types.ScopeCompile))
}

func TestClasspathReturnsCopies(t *testing.T) {
	repo := newMemoryRepository().add("g:a", "1.0")
	graph, _, err := resolve(t, repo, declarations("app", dep(t, "g:a:1.0")))
	require.NoError(t, err)

	paths := graph.Classpath(types.ScopeCompile)
	paths[0] = "mutated"
	assert.Equal(t, []string{"a-1.0.jar"}, graph.Classpath(types.ScopeCompile))
}
