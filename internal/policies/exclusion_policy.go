package policies

import (
	"fmt"
	"path"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"depresolve/internal/types"
)

// ExclusionPolicy matches modules against "group:name" glob patterns.
// Exact and trailing-star patterns are indexed; anything else falls back
// to path.Match on each segment.
type ExclusionPolicy struct {
	Patterns []string
	exact    map[string]int
	groups   map[string]int
	prefixes []prefixPattern
	globs    []globPattern
	anything int
}

type prefixPattern struct {
	group      string
	prefix     string
	index      int
	groupGlob  bool
	wholeGroup bool
}

type globPattern struct {
	group string
	name  string
	index int
}

type patternKind int

const (
	patternExact patternKind = iota
	patternPrefix
	patternWildcard
	patternGlob
)

// NewExclusionPolicy compiles the patterns. Invalid patterns are rejected
// with CodeInvalidArgument.
func NewExclusionPolicy(patterns []string) (ExclusionPolicy, error) {
	policy := ExclusionPolicy{anything: -1}
	for _, pattern := range patterns {
		if strings.TrimSpace(pattern) == "" {
			continue
		}
		if err := ValidateExclusion(pattern); err != nil {
			return ExclusionPolicy{}, err
		}
		policy.Patterns = append(policy.Patterns, strings.TrimSpace(pattern))
	}
	policy.compile()
	return policy, nil
}

// ValidateExclusion checks one "group:name" pattern.
func ValidateExclusion(pattern string) error {
	trimmed := strings.TrimSpace(pattern)
	if trimmed == "*" {
		return nil
	}
	parts := strings.Split(trimmed, ":")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid exclusion pattern: %q (want group:name)", pattern))
	}
	for _, part := range parts {
		if _, err := path.Match(part, ""); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("invalid exclusion pattern: %q", pattern)).
				WithCause(err)
		}
	}
	return nil
}

func (p ExclusionPolicy) IsEmpty() bool {
	return len(p.Patterns) == 0
}

// Excludes reports whether module matches any pattern.
func (p ExclusionPolicy) Excludes(module types.ModuleID) bool {
	_, ok := p.Match(module)
	return ok
}

// Match returns the first pattern (in declaration order) matching module.
func (p ExclusionPolicy) Match(module types.ModuleID) (string, bool) {
	best := -1
	if idx, ok := p.exact[module.Key()]; ok {
		best = minIndex(best, idx)
	}
	if idx, ok := p.groups[module.Group]; ok {
		best = minIndex(best, idx)
	}
	for _, entry := range p.prefixes {
		if entry.matches(module) {
			best = minIndex(best, entry.index)
		}
	}
	for _, entry := range p.globs {
		if globMatch(entry.group, module.Group) && globMatch(entry.name, module.Name) {
			best = minIndex(best, entry.index)
		}
	}
	if p.anything >= 0 {
		best = minIndex(best, p.anything)
	}
	if best < 0 {
		return "", false
	}
	return p.Patterns[best], true
}

func (e prefixPattern) matches(module types.ModuleID) bool {
	if e.wholeGroup {
		return strings.HasPrefix(module.Group, e.prefix)
	}
	if e.groupGlob {
		return globMatch(e.group, module.Group) && strings.HasPrefix(module.Name, e.prefix)
	}
	return module.Group == e.group && strings.HasPrefix(module.Name, e.prefix)
}

func (p *ExclusionPolicy) compile() {
	p.exact = map[string]int{}
	p.groups = map[string]int{}
	p.prefixes = nil
	p.globs = nil
	p.anything = -1
	for idx, pattern := range p.Patterns {
		if pattern == "*" || pattern == "*:*" {
			if p.anything < 0 {
				p.anything = idx
			}
			continue
		}
		group, name, _ := strings.Cut(pattern, ":")
		groupKind := parseSegment(group)
		nameKind := parseSegment(name)
		switch {
		case groupKind == patternExact && nameKind == patternExact:
			if _, ok := p.exact[pattern]; !ok {
				p.exact[pattern] = idx
			}
		case groupKind == patternExact && nameKind == patternWildcard:
			if _, ok := p.groups[group]; !ok {
				p.groups[group] = idx
			}
		case groupKind == patternPrefix && nameKind == patternWildcard:
			p.prefixes = append(p.prefixes, prefixPattern{prefix: strings.TrimSuffix(group, "*"), index: idx, wholeGroup: true})
		case nameKind == patternPrefix && groupKind != patternPrefix && groupKind != patternGlob:
			p.prefixes = append(p.prefixes, prefixPattern{
				group:     group,
				prefix:    strings.TrimSuffix(name, "*"),
				index:     idx,
				groupGlob: groupKind == patternWildcard,
			})
		default:
			p.globs = append(p.globs, globPattern{group: group, name: name, index: idx})
		}
	}
}

func parseSegment(value string) patternKind {
	if value == "*" {
		return patternWildcard
	}
	if !strings.ContainsAny(value, "*?[") {
		return patternExact
	}
	body := strings.TrimSuffix(value, "*")
	if body != value && !strings.ContainsAny(body, "*?[") {
		return patternPrefix
	}
	return patternGlob
}

func globMatch(pattern string, value string) bool {
	matched, err := path.Match(pattern, value)
	return err == nil && matched
}

func minIndex(current int, candidate int) int {
	if candidate < 0 {
		return current
	}
	if current < 0 || candidate < current {
		return candidate
	}
	return current
}
