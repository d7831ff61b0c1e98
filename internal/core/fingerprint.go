package core

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"

	"depresolve/internal/types"
)

// Fingerprint identifies a resolution request: every declaration with its
// constraint, scopes, transitivity and exclusions, the options that change
// the result, and the repository identity. Declaration order is part of
// the fingerprint because it drives classpath order.
func Fingerprint(project string, declarations types.DeclarationSet, options types.ResolveOptions, repositoryID string) string {
	var builder strings.Builder
	line := func(fields ...string) {
		builder.WriteString(strings.Join(fields, "\t"))
		builder.WriteString("\n")
	}
	line("project", project)
	line("repository", repositoryID)
	line("strategy", string(options.ConflictStrategy))
	line("scheme", string(options.VersionScheme))
	line("scope_filter", options.ScopeFilter.String())
	line("fail_on_error", strconv.FormatBool(options.FailOnError))
	line("exclusions", strings.Join(sortedCopy(options.Exclusions), ","))

	overrides := append([]types.ResolutionDirective(nil), options.Overrides...)
	sort.SliceStable(overrides, func(i, j int) bool {
		return overrides[i].Dependency < overrides[j].Dependency
	})
	for _, directive := range overrides {
		line("override", directive.Dependency, strings.ToLower(directive.Action), directive.Value)
	}

	for _, entry := range declarations.Entries {
		switch {
		case entry.Module != nil:
			decl := entry.Module
			line("module",
				decl.Coordinate.String(),
				decl.Scopes.String(),
				string(decl.Transitivity),
				strings.Join(decl.Exclusions, ","))
		case entry.File != nil:
			file := entry.File
			line("files", file.Project, strings.Join(file.Paths, ","), file.Scopes.String())
		}
	}
	sum := sha256.Sum256([]byte(builder.String()))
	return hex.EncodeToString(sum[:])
}

func sortedCopy(values []string) []string {
	out := append([]string(nil), values...)
	sort.Strings(out)
	return out
}
