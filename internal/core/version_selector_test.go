package core

import (
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"depresolve/internal/types"
)

func TestSelectVersion(t *testing.T) {
	module := types.ModuleID{Group: "g", Name: "a"}
	tests := []struct {
		name      string
		scheme    types.VersionScheme
		requested string
		available []string
		want      string
	}{
		{name: "latest", requested: "latest", available: []string{"1.0", "2.0-SNAPSHOT"}, want: "2.0-SNAPSHOT"},
		{name: "plus", requested: "+", available: []string{"1.0", "1.1"}, want: "1.1"},
		{name: "release", requested: "RELEASE", available: []string{"1.0", "2.0-SNAPSHOT"}, want: "1.0"},
		{name: "prefix", requested: "1.2.+", available: []string{"1.2.1", "1.2.10", "1.3.0"}, want: "1.2.10"},
		{name: "closed range", requested: "[1.0,2.0]", available: []string{"1.0", "2.0", "2.1"}, want: "2.0"},
		{name: "open range", requested: "[1.0,2.0)", available: []string{"1.0", "1.5", "2.0"}, want: "1.5"},
		{name: "upper only", requested: "(,1.5]", available: []string{"1.0", "1.5", "1.6"}, want: "1.5"},
		{name: "exact range", requested: "[1.2]", available: []string{"1.1", "1.2", "1.3"}, want: "1.2"},
		{name: "union", requested: "[1.0,1.2),[1.3,1.4)", available: []string{"1.1", "1.2", "1.3", "1.5"}, want: "1.3"},
		{name: "semver caret", scheme: types.VersionSchemeSemver, requested: "^1.2.0", available: []string{"1.2.0", "1.9.1", "2.0.0"}, want: "1.9.1"},
		{name: "semver tilde", scheme: types.VersionSchemeSemver, requested: "~1.2.0", available: []string{"1.2.0", "1.2.9", "1.3.0"}, want: "1.2.9"},
		{name: "pep440", scheme: types.VersionSchemePep440, requested: ">=1.0,<2.0", available: []string{"0.9", "1.4", "2.0"}, want: "1.4"},
		{name: "deb", scheme: types.VersionSchemeDeb, requested: ">= 1.0, << 2.0", available: []string{"0.9", "1.5-1", "2.0"}, want: "1.5-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := newVersionCache(tt.scheme)
			selector, err := parseVersionSelector(tt.requested, cache)
			require.NoError(t, err)
			require.True(t, selector.dynamic())

			got, err := selectVersion(module, tt.requested, tt.available, selector, cache)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExactVersionIsNotDynamic(t *testing.T) {
	assert.False(t, IsDynamicVersion(types.VersionSchemeMaven, "1.0"))
	assert.False(t, IsDynamicVersion(types.VersionSchemeSemver, "1.2.3"))
	assert.True(t, IsDynamicVersion(types.VersionSchemeMaven, ""))
	assert.True(t, IsDynamicVersion(types.VersionSchemeMaven, "[1.0,)"))
	assert.True(t, IsDynamicVersion(types.VersionSchemeDeb, ">= 1.0"))
}

func TestSelectVersionNotFound(t *testing.T) {
	module := types.ModuleID{Group: "g", Name: "a"}
	cache := newVersionCache(types.VersionSchemeMaven)
	selector, err := parseVersionSelector("[3.0,)", cache)
	require.NoError(t, err)

	_, err = selectVersion(module, "[3.0,)", nil, selector, cache)
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeNotFound, errbuilder.CodeOf(err))

	_, err = selectVersion(module, "[3.0,)", []string{"1.0"}, selector, cache)
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeNotFound, errbuilder.CodeOf(err))
}

func TestParseVersionSelectorInvalid(t *testing.T) {
	tests := []struct {
		scheme    types.VersionScheme
		requested string
	}{
		{scheme: types.VersionSchemeMaven, requested: "[1.0,2.0"},
		{scheme: types.VersionSchemeMaven, requested: "(1.0)"},
		{scheme: types.VersionSchemeSemver, requested: ">=>1"},
		{scheme: types.VersionSchemeDeb, requested: ">= "},
	}
	for _, tt := range tests {
		t.Run(tt.requested, func(t *testing.T) {
			_, err := parseVersionSelector(tt.requested, newVersionCache(tt.scheme))
			require.Error(t, err)
			assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
		})
	}
}
