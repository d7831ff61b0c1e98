package core

import (
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"depresolve/internal/policies"
	"depresolve/internal/types"
)

// DeclarationsFromProject converts a project spec into the ordered
// declaration set the resolver consumes. Module and file entries keep
// their relative order.
func DeclarationsFromProject(spec types.ProjectSpec) (types.DeclarationSet, error) {
	set := types.DeclarationSet{Project: spec.Metadata.Name}
	for i, entry := range spec.Dependencies {
		hasModule := strings.TrimSpace(entry.Module) != ""
		switch {
		case hasModule && entry.Files != nil:
			return types.DeclarationSet{}, invalidEntry(spec, i, "declares both module and files")
		case hasModule:
			decl, err := DeclarationFromSpec(entry.DependencyEntrySpec)
			if err != nil {
				return types.DeclarationSet{}, err
			}
			for _, pattern := range decl.Exclusions {
				if err := policies.ValidateExclusion(pattern); err != nil {
					return types.DeclarationSet{}, err
				}
			}
			set.Entries = append(set.Entries, types.DependencyEntry{Module: &decl})
		case entry.Files != nil:
			file, err := fileFromSpec(*entry.Files)
			if err != nil {
				return types.DeclarationSet{}, invalidEntry(spec, i, errorText(err))
			}
			set.Entries = append(set.Entries, types.DependencyEntry{File: &file})
		default:
			return types.DeclarationSet{}, invalidEntry(spec, i, "declares neither module nor files")
		}
	}
	return set, nil
}

func fileFromSpec(spec types.FileEntrySpec) (types.FileDependency, error) {
	project := strings.TrimSpace(spec.Project)
	var paths []string
	for _, path := range spec.Paths {
		if trimmed := strings.TrimSpace(path); trimmed != "" {
			paths = append(paths, trimmed)
		}
	}
	if project == "" && len(paths) == 0 {
		return types.FileDependency{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("files entry needs paths or a project")
	}
	if project != "" && len(paths) > 0 {
		return types.FileDependency{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("files entry cannot mix paths and a project")
	}
	scopes, err := ParseScopes(spec.Scopes)
	if err != nil {
		return types.FileDependency{}, err
	}
	return types.FileDependency{Paths: paths, Project: project, Scopes: scopes}, nil
}

func invalidEntry(spec types.ProjectSpec, index int, reason string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(fmt.Sprintf("%s: dependency #%d %s", spec.Metadata.Name, index+1, reason))
}

// ProjectReferences lists the sibling projects a declaration set consumes
// through file dependencies, in declaration order.
func ProjectReferences(set types.DeclarationSet) []string {
	var out []string
	seen := map[string]bool{}
	for _, file := range set.Files() {
		if file.Project == "" || seen[file.Project] {
			continue
		}
		seen[file.Project] = true
		out = append(out, file.Project)
	}
	return out
}
