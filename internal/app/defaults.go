package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"depresolve/internal/adapters"
	"depresolve/internal/core"
	"depresolve/internal/types"
)

// applySpecDefaults fills empty settings from the project's defaults
// block. Explicit values always win.
func applySpecDefaults(settings ResolveSettings, defaults types.SpecDefaults) ResolveSettings {
	if strings.TrimSpace(settings.RepoIndex) == "" && strings.TrimSpace(settings.RepoURL) == "" {
		settings.RepoIndex = defaults.RepoIndex
		settings.RepoURL = defaults.RepoURL
	}
	if strings.TrimSpace(settings.ConflictStrategy) == "" {
		settings.ConflictStrategy = defaults.ConflictStrategy
	}
	if strings.TrimSpace(settings.VersionScheme) == "" {
		settings.VersionScheme = defaults.VersionScheme
	}
	if settings.FailOnError == nil {
		settings.FailOnError = defaults.FailOnError
	}
	if len(settings.Scopes) == 0 {
		settings.Scopes = defaults.Scopes
	}
	return settings
}

func applyOutputDefault(outputDir string, defaults types.SpecDefaults) string {
	if strings.TrimSpace(outputDir) != "" {
		return outputDir
	}
	return defaults.Output
}

// resolveOptions turns settings and the project's policy blocks into
// resolver options.
func resolveOptions(spec types.ProjectSpec, settings ResolveSettings) (types.ResolveOptions, error) {
	options := types.DefaultResolveOptions()
	if settings.FailOnError != nil {
		options.FailOnError = *settings.FailOnError
	}
	if value := strings.TrimSpace(settings.ConflictStrategy); value != "" {
		strategy := types.ConflictStrategy(strings.ToLower(value))
		switch strategy {
		case types.ConflictLatestVersion, types.ConflictStrict, types.ConflictFirstDeclared:
			options.ConflictStrategy = strategy
		default:
			return types.ResolveOptions{}, invalidSetting("conflict strategy", value)
		}
	}
	if value := strings.TrimSpace(settings.VersionScheme); value != "" {
		scheme := types.VersionScheme(strings.ToLower(value))
		switch scheme {
		case types.VersionSchemeMaven, types.VersionSchemeSemver, types.VersionSchemePep440, types.VersionSchemeDeb:
			options.VersionScheme = scheme
		default:
			return types.ResolveOptions{}, invalidSetting("version scheme", value)
		}
	}
	if len(settings.Scopes) > 0 {
		filter, err := core.ParseScopes(settings.Scopes)
		if err != nil {
			return types.ResolveOptions{}, err
		}
		options.ScopeFilter = filter
	}
	options.Overrides = spec.Resolutions
	options.Exclusions = spec.Exclusions
	options.LookupTimeout = settings.LookupTimeout
	return options, nil
}

func invalidSetting(name string, value string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(fmt.Sprintf("unknown %s %q", name, value))
}

// discoverProject returns the project file of the current directory, if
// there is one.
func discoverProject() string {
	if _, err := os.Stat(adapters.ProjectFileName); err == nil {
		return adapters.ProjectFileName
	}
	return ""
}
