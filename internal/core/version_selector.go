package core

import (
	"fmt"
	"strings"

	mm "github.com/Masterminds/semver/v3"
	"github.com/ZanzyTHEbar/errbuilder-go"
	pep440 "github.com/aquasecurity/go-pep440-version"

	"depresolve/internal/types"
)

// versionSelector decides which concrete versions satisfy a requested
// version string. Exact selectors never need the repository's version list.
type versionSelector interface {
	dynamic() bool
	accepts(version string) bool
}

type exactSelector struct{ version string }

func (exactSelector) dynamic() bool { return false }

func (s exactSelector) accepts(version string) bool { return version == s.version }

// latestSelector matches every version; release excludes snapshots.
type latestSelector struct{ releaseOnly bool }

func (latestSelector) dynamic() bool { return true }

func (s latestSelector) accepts(version string) bool {
	return !s.releaseOnly || !IsSnapshotVersion(version)
}

// prefixSelector implements "1.2.+" style requests.
type prefixSelector struct{ prefix string }

func (prefixSelector) dynamic() bool { return true }

func (s prefixSelector) accepts(version string) bool {
	return strings.HasPrefix(version, s.prefix)
}

type predicateSelector struct {
	match func(version string) bool
}

func (predicateSelector) dynamic() bool { return true }

func (s predicateSelector) accepts(version string) bool { return s.match(version) }

// IsDynamicVersion reports whether a requested version needs the list of
// available versions to be resolved.
func IsDynamicVersion(scheme types.VersionScheme, requested string) bool {
	selector, err := parseVersionSelector(requested, newVersionCache(scheme))
	return err == nil && selector.dynamic()
}

func parseVersionSelector(raw string, cache *versionCache) (versionSelector, error) {
	requested := strings.TrimSpace(raw)
	switch requested {
	case "", "+", "latest", "latest.integration", "LATEST":
		return latestSelector{}, nil
	case "latest.release", "RELEASE":
		return latestSelector{releaseOnly: true}, nil
	}
	if strings.HasSuffix(requested, "+") {
		return prefixSelector{prefix: strings.TrimSuffix(requested, "+")}, nil
	}
	if strings.HasPrefix(requested, "[") || strings.HasPrefix(requested, "(") {
		return parseMavenRange(requested, cache)
	}
	switch cache.scheme {
	case types.VersionSchemeSemver:
		if strings.ContainsAny(requested, "^~<>=*|, ") || strings.ContainsAny(requested, "xX") && strings.Contains(requested, ".") {
			constraint, err := mm.NewConstraint(requested)
			if err != nil {
				return nil, invalidVersionRequest(requested, err)
			}
			return predicateSelector{match: func(version string) bool {
				parsed, err := cache.semVersion(version)
				return err == nil && constraint.Check(parsed)
			}}, nil
		}
	case types.VersionSchemePep440:
		if strings.ContainsAny(requested, "<>=!~,") {
			specifiers, err := pep440.NewSpecifiers(requested)
			if err != nil {
				return nil, invalidVersionRequest(requested, err)
			}
			return predicateSelector{match: func(version string) bool {
				parsed, err := cache.pepVersion(version)
				return err == nil && specifiers.Check(parsed)
			}}, nil
		}
	case types.VersionSchemeDeb:
		if strings.ContainsAny(requested, "<>=") {
			return parseDebRelations(requested, cache)
		}
	}
	return exactSelector{version: requested}, nil
}

func invalidVersionRequest(requested string, cause error) error {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(fmt.Sprintf("invalid version request: %q", requested))
	if cause != nil {
		builder = builder.WithCause(cause)
	}
	return builder
}

type versionBound struct {
	version   string
	inclusive bool
}

type versionInterval struct {
	lower *versionBound
	upper *versionBound
}

// parseMavenRange parses one or more comma-joined intervals such as
// "[1.0,2.0)", "(,1.5]", "[1.2]", or "[1.0,1.2),[1.3,)".
func parseMavenRange(requested string, cache *versionCache) (versionSelector, error) {
	var intervals []versionInterval
	rest := strings.TrimSpace(requested)
	for rest != "" {
		if rest[0] != '[' && rest[0] != '(' {
			return nil, invalidVersionRequest(requested, nil)
		}
		end := strings.IndexAny(rest, "])")
		if end < 0 {
			return nil, invalidVersionRequest(requested, nil)
		}
		interval, err := parseInterval(rest[0], rest[1:end], rest[end], requested)
		if err != nil {
			return nil, err
		}
		intervals = append(intervals, interval)
		rest = strings.TrimSpace(rest[end+1:])
		rest = strings.TrimSpace(strings.TrimPrefix(rest, ","))
	}
	return predicateSelector{match: func(version string) bool {
		for _, interval := range intervals {
			if interval.contains(version, cache) {
				return true
			}
		}
		return false
	}}, nil
}

func parseInterval(open byte, body string, closing byte, requested string) (versionInterval, error) {
	lowerInclusive := open == '['
	upperInclusive := closing == ']'
	if !strings.Contains(body, ",") {
		version := strings.TrimSpace(body)
		if version == "" || !lowerInclusive || !upperInclusive {
			return versionInterval{}, invalidVersionRequest(requested, nil)
		}
		bound := &versionBound{version: version, inclusive: true}
		return versionInterval{lower: bound, upper: bound}, nil
	}
	lowerRaw, upperRaw, _ := strings.Cut(body, ",")
	var interval versionInterval
	if lower := strings.TrimSpace(lowerRaw); lower != "" {
		interval.lower = &versionBound{version: lower, inclusive: lowerInclusive}
	}
	if upper := strings.TrimSpace(upperRaw); upper != "" {
		interval.upper = &versionBound{version: upper, inclusive: upperInclusive}
	}
	return interval, nil
}

func (i versionInterval) contains(version string, cache *versionCache) bool {
	if i.lower != nil {
		cmp := cache.compare(version, i.lower.version)
		if cmp < 0 || (cmp == 0 && !i.lower.inclusive) {
			return false
		}
	}
	if i.upper != nil {
		cmp := cache.compare(version, i.upper.version)
		if cmp > 0 || (cmp == 0 && !i.upper.inclusive) {
			return false
		}
	}
	return true
}

// debRelationOps is ordered so longer operators are tried first.
var debRelationOps = []string{">=", "<=", ">>", "<<", "=", ">", "<"}

// parseDebRelations accepts comma-separated relations such as
// ">= 1.0, << 2.0".
func parseDebRelations(requested string, cache *versionCache) (versionSelector, error) {
	type relation struct {
		op      string
		version string
	}
	var relations []relation
	for _, part := range strings.Split(requested, ",") {
		part = strings.TrimSpace(part)
		matched := false
		for _, op := range debRelationOps {
			if strings.HasPrefix(part, op) {
				version := strings.TrimSpace(strings.TrimPrefix(part, op))
				if version == "" {
					return nil, invalidVersionRequest(requested, nil)
				}
				if _, err := cache.debVersion(version); err != nil {
					return nil, invalidVersionRequest(requested, err)
				}
				relations = append(relations, relation{op: op, version: version})
				matched = true
				break
			}
		}
		if !matched {
			return nil, invalidVersionRequest(requested, nil)
		}
	}
	return predicateSelector{match: func(version string) bool {
		for _, rel := range relations {
			cmp := cache.compare(version, rel.version)
			var ok bool
			switch rel.op {
			case ">=":
				ok = cmp >= 0
			case "<=":
				ok = cmp <= 0
			case ">>", ">":
				ok = cmp > 0
			case "<<", "<":
				ok = cmp < 0
			case "=":
				ok = cmp == 0
			}
			if !ok {
				return false
			}
		}
		return true
	}}, nil
}

// selectVersion picks the highest available version accepted by the
// selector.
func selectVersion(module types.ModuleID, requested string, available []string, selector versionSelector, cache *versionCache) (string, error) {
	if len(available) == 0 {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("no available versions for %s", module))
	}
	var candidates []string
	for _, version := range available {
		if selector.accepts(version) {
			candidates = append(candidates, version)
		}
	}
	if len(candidates) == 0 {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("no version of %s matches %q", module, requested))
	}
	return cache.max(candidates), nil
}
