package cli

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"depresolve/internal/app"
)

// settingsFlags are the resolution flags shared by resolve, classpath,
// tree, fingerprint, and workspace.
type settingsFlags struct {
	RepoIndex        string
	RepoURL          string
	ConflictStrategy string
	VersionScheme    string
	FailOnError      bool
	Scopes           []string
	LookupTimeoutMs  int
}

func addSettingsFlags(cmd *cobra.Command, opts *settingsFlags) {
	cmd.Flags().StringVar(&opts.RepoIndex, "repo-index", "", "Repository index file")
	cmd.Flags().StringVar(&opts.RepoURL, "repo-url", "", "Descriptor repository base URL(s), comma separated")
	cmd.Flags().StringVar(&opts.ConflictStrategy, "conflict-strategy", "", "Conflict strategy: latest_version, strict, first_declared")
	cmd.Flags().StringVar(&opts.VersionScheme, "version-scheme", "", "Version scheme: maven, semver, pep440, deb")
	cmd.Flags().BoolVar(&opts.FailOnError, "fail-on-error", true, "Fail when resolution reports error-level problems")
	cmd.Flags().StringSliceVar(&opts.Scopes, "scope", nil, "Only resolve root declarations of these scopes")
	cmd.Flags().IntVar(&opts.LookupTimeoutMs, "lookup-timeout-ms", 0, "Per-lookup repository timeout in milliseconds (0 = none)")

	_ = viper.BindPFlag("repo_index", cmd.Flags().Lookup("repo-index"))
	_ = viper.BindPFlag("repo_url", cmd.Flags().Lookup("repo-url"))
	_ = viper.BindPFlag("conflict_strategy", cmd.Flags().Lookup("conflict-strategy"))
	_ = viper.BindPFlag("version_scheme", cmd.Flags().Lookup("version-scheme"))
	_ = viper.BindPFlag("fail_on_error", cmd.Flags().Lookup("fail-on-error"))
	_ = viper.BindPFlag("scope", cmd.Flags().Lookup("scope"))
	_ = viper.BindPFlag("lookup_timeout_ms", cmd.Flags().Lookup("lookup-timeout-ms"))
}

func resolveSettings(cmd *cobra.Command, opts settingsFlags) app.ResolveSettings {
	settings := app.ResolveSettings{
		RepoIndex:        resolveString(cmd, opts.RepoIndex, "repo_index", "repo-index"),
		RepoURL:          resolveString(cmd, opts.RepoURL, "repo_url", "repo-url"),
		ConflictStrategy: resolveString(cmd, opts.ConflictStrategy, "conflict_strategy", "conflict-strategy"),
		VersionScheme:    resolveString(cmd, opts.VersionScheme, "version_scheme", "version-scheme"),
		Scopes:           resolveStrings(cmd, opts.Scopes, "scope", "scope"),
		LookupTimeout:    time.Duration(resolveInt(cmd, opts.LookupTimeoutMs, "lookup_timeout_ms", "lookup-timeout-ms")) * time.Millisecond,
	}
	// Unset means the project spec decides.
	if flagChanged(cmd, "fail-on-error") || viper.IsSet("fail_on_error") {
		failOnError := resolveBool(cmd, opts.FailOnError, "fail_on_error", "fail-on-error")
		settings.FailOnError = &failOnError
	}
	return settings
}
