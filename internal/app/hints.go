package app

import (
	"fmt"
	"strings"

	"depresolve/internal/types"
)

// defaultsHint pairs a flag name with a spec defaults key for hint messages.
type defaultsHint struct {
	FlagName    string
	DefaultsKey string
}

// checkResolveDefaultsHints returns hints for flags that repeat a value the
// project spec already provides.
func checkResolveDefaultsHints(settings ResolveSettings, outputDir string, defaults types.SpecDefaults) []string {
	checks := []struct {
		hint     defaultsHint
		provided string
		fallback string
	}{
		{hint: defaultsHint{"--repo-index", "defaults.repo_index"}, provided: settings.RepoIndex, fallback: defaults.RepoIndex},
		{hint: defaultsHint{"--repo-url", "defaults.repo_url"}, provided: settings.RepoURL, fallback: defaults.RepoURL},
		{hint: defaultsHint{"--conflict-strategy", "defaults.conflict_strategy"}, provided: settings.ConflictStrategy, fallback: defaults.ConflictStrategy},
		{hint: defaultsHint{"--version-scheme", "defaults.version_scheme"}, provided: settings.VersionScheme, fallback: defaults.VersionScheme},
		{hint: defaultsHint{"--output", "defaults.output"}, provided: outputDir, fallback: defaults.Output},
	}

	var hints []string
	for _, c := range checks {
		provided := strings.TrimSpace(c.provided)
		if provided != "" && provided == strings.TrimSpace(c.fallback) {
			hints = append(hints, fmt.Sprintf(
				"hint: %s is also set in the project spec (%s); you can omit the flag",
				c.hint.FlagName, c.hint.DefaultsKey,
			))
		}
	}
	return hints
}
