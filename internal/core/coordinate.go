package core

import (
	"fmt"
	"slices"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"depresolve/internal/types"
)

// ParseModuleID parses "group:name" or "group:name:classifier".
func ParseModuleID(raw string) (types.ModuleID, error) {
	parts := splitCoordinate(raw)
	switch len(parts) {
	case 2:
		return newModuleID(raw, parts[0], parts[1], "")
	case 3:
		return newModuleID(raw, parts[0], parts[1], parts[2])
	default:
		return types.ModuleID{}, invalidCoordinate(raw)
	}
}

// ParseCoordinate parses "group:name", "group:name:version", or
// "group:name:classifier:version". A missing version means latest.
func ParseCoordinate(raw string) (types.ModuleCoordinate, error) {
	parts := splitCoordinate(raw)
	var (
		module types.ModuleID
		err    error
		ver    string
	)
	switch len(parts) {
	case 2:
		module, err = newModuleID(raw, parts[0], parts[1], "")
	case 3:
		module, err = newModuleID(raw, parts[0], parts[1], "")
		ver = parts[2]
	case 4:
		module, err = newModuleID(raw, parts[0], parts[1], parts[2])
		ver = parts[3]
	default:
		return types.ModuleCoordinate{}, invalidCoordinate(raw)
	}
	if err != nil {
		return types.ModuleCoordinate{}, err
	}
	return types.ModuleCoordinate{Module: module, Version: ver}, nil
}

func splitCoordinate(raw string) []string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	parts := strings.Split(trimmed, ":")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func newModuleID(raw string, group string, name string, classifier string) (types.ModuleID, error) {
	if group == "" || name == "" {
		return types.ModuleID{}, invalidCoordinate(raw)
	}
	return types.ModuleID{Group: group, Name: name, Classifier: classifier}, nil
}

func invalidCoordinate(raw string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(fmt.Sprintf("invalid module coordinate: %q", raw))
}

// ParseScopes parses scope names. An empty list yields the default
// compile scope.
func ParseScopes(values []string) (types.ScopeSet, error) {
	if len(values) == 0 {
		return types.NewScopeSet(types.ScopeCompile), nil
	}
	var set types.ScopeSet
	for _, value := range values {
		tag, err := ParseScope(value)
		if err != nil {
			return 0, err
		}
		set = set.With(tag)
	}
	return set, nil
}

func ParseScope(value string) (types.ScopeTag, error) {
	tag := types.ScopeTag(strings.ToLower(strings.TrimSpace(value)))
	if slices.Contains(types.AllScopes, tag) {
		return tag, nil
	}
	return "", errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(fmt.Sprintf("unknown scope: %s", value))
}

// ParseTransitivity defaults to all when value is empty.
func ParseTransitivity(value string) (types.Transitivity, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", string(types.TransitivityAll):
		return types.TransitivityAll, nil
	case string(types.TransitivityNone):
		return types.TransitivityNone, nil
	case string(types.TransitivityCompile):
		return types.TransitivityCompile, nil
	case string(types.TransitivityRuntime):
		return types.TransitivityRuntime, nil
	default:
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("unknown transitivity: %s", value))
	}
}

// NewDeclaration builds an immutable declaration. The exclusion slice is
// copied, normalized, and sorted so equal declarations compare equal.
func NewDeclaration(coordinate types.ModuleCoordinate, scopes types.ScopeSet, transitivity types.Transitivity, exclusions ...string) types.Declaration {
	if scopes.IsEmpty() {
		scopes = types.NewScopeSet(types.ScopeCompile)
	}
	if transitivity == "" {
		transitivity = types.TransitivityAll
	}
	var normalized []string
	for _, exclusion := range exclusions {
		trimmed := strings.TrimSpace(exclusion)
		if trimmed == "" || slices.Contains(normalized, trimmed) {
			continue
		}
		normalized = append(normalized, trimmed)
	}
	slices.Sort(normalized)
	return types.Declaration{
		Coordinate:   coordinate,
		Scopes:       scopes,
		Transitivity: transitivity,
		Exclusions:   normalized,
	}
}

// DeclarationFromSpec converts the YAML form of a module dependency.
func DeclarationFromSpec(spec types.DependencyEntrySpec) (types.Declaration, error) {
	coordinate, err := ParseCoordinate(spec.Module)
	if err != nil {
		return types.Declaration{}, err
	}
	scopes, err := ParseScopes(spec.Scopes)
	if err != nil {
		return types.Declaration{}, err
	}
	transitivity, err := ParseTransitivity(spec.Transitivity)
	if err != nil {
		return types.Declaration{}, err
	}
	return NewDeclaration(coordinate, scopes, transitivity, spec.Exclusions...), nil
}

// DeclarationsFromSpecs converts a list of module dependencies, failing on
// the first invalid entry.
func DeclarationsFromSpecs(specs []types.DependencyEntrySpec) ([]types.Declaration, error) {
	out := make([]types.Declaration, 0, len(specs))
	for _, spec := range specs {
		decl, err := DeclarationFromSpec(spec)
		if err != nil {
			return nil, err
		}
		out = append(out, decl)
	}
	return out, nil
}
