package app

import (
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateApp(t *testing.T) {
	service := testService()
	result, err := service.Validate(t.Context(), ValidateRequest{
		ProjectPath: fixturePath(t, "project-sample.yaml"),
	})
	require.NoError(t, err)
	assert.Equal(t, "shop", result.ProjectName)
	assert.Equal(t, 3, result.Dependencies)
	assert.Equal(t, 1, result.Overrides)
	assert.Empty(t, result.References)
}

func TestValidateReportsProjectReferences(t *testing.T) {
	result, err := testService().Validate(t.Context(), ValidateRequest{
		ProjectPath: fixturePath(t, "workspace", "app", "depresolve.yaml"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"core"}, result.References)
}

func TestValidateTextDependencies(t *testing.T) {
	result, err := testService().Validate(t.Context(), ValidateRequest{
		ProjectPath: fixturePath(t, "dependencies.txt"),
	})
	require.NoError(t, err)
	assert.Equal(t, "fixtures", result.ProjectName)
	assert.NotZero(t, result.Dependencies)
}

func TestValidateMissingProject(t *testing.T) {
	_, err := testService().Validate(t.Context(), ValidateRequest{
		ProjectPath: fixturePath(t, "absent.yaml"),
	})
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeNotFound, errbuilder.CodeOf(err))
}
