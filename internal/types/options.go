package types

import "time"

// ResolveOptions configures one resolution call. It is a value type; the
// resolver never mutates it.
type ResolveOptions struct {
	FailOnError      bool
	ConflictStrategy ConflictStrategy
	// ScopeFilter restricts which root declarations take part. Zero means
	// every declaration.
	ScopeFilter   ScopeSet
	VersionScheme VersionScheme
	Overrides     []ResolutionDirective
	Exclusions    []string
	LookupTimeout time.Duration
}

func DefaultResolveOptions() ResolveOptions {
	return ResolveOptions{
		FailOnError:      true,
		ConflictStrategy: ConflictLatestVersion,
		VersionScheme:    VersionSchemeMaven,
	}
}
