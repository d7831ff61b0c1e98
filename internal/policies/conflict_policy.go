package policies

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"depresolve/internal/shared"
	"depresolve/internal/types"
)

const (
	ActionForce = "force"
	ActionBlock = "block"
)

// Candidate is one version of a module competing for the retained slot.
type Candidate struct {
	Node    types.NodeID
	Version string
	Depth   int
	Order   int
}

// ConflictStrategy picks which candidate survives. Select returns the
// index of the retained candidate, or -1 when no candidate may be chosen.
type ConflictStrategy interface {
	Name() types.ConflictStrategy
	Select(candidates []Candidate) int
}

// VersionComparator orders two version strings, returning -1, 0, or 1.
type VersionComparator func(a string, b string) int

func NewConflictStrategy(name types.ConflictStrategy, compare VersionComparator) (ConflictStrategy, error) {
	switch types.ConflictStrategy(strings.ToLower(string(name))) {
	case "", types.ConflictLatestVersion:
		if compare == nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("latest_version strategy requires a version comparator")
		}
		return latestVersion{compare: compare}, nil
	case types.ConflictStrict:
		return strictConflict{}, nil
	case types.ConflictFirstDeclared:
		return firstDeclared{}, nil
	default:
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("unknown conflict strategy: %s", name))
	}
}

type latestVersion struct {
	compare VersionComparator
}

func (latestVersion) Name() types.ConflictStrategy { return types.ConflictLatestVersion }

func (s latestVersion) Select(candidates []Candidate) int {
	best := -1
	for i, candidate := range candidates {
		if best < 0 {
			best = i
			continue
		}
		cmp := s.compare(candidate.Version, candidates[best].Version)
		if cmp > 0 || (cmp == 0 && candidate.Order < candidates[best].Order) {
			best = i
		}
	}
	return best
}

type strictConflict struct{}

func (strictConflict) Name() types.ConflictStrategy { return types.ConflictStrict }

func (strictConflict) Select(candidates []Candidate) int {
	if len(candidates) == 1 {
		return 0
	}
	return -1
}

type firstDeclared struct{}

func (firstDeclared) Name() types.ConflictStrategy { return types.ConflictFirstDeclared }

func (firstDeclared) Select(candidates []Candidate) int {
	best := -1
	for i, candidate := range candidates {
		if best < 0 {
			best = i
			continue
		}
		current := candidates[best]
		if candidate.Depth < current.Depth || (candidate.Depth == current.Depth && candidate.Order < current.Order) {
			best = i
		}
	}
	return best
}

// OverrideSet holds the force and block directives of one resolution,
// keyed by "group:name".
type OverrideSet struct {
	forced  map[string]types.ResolutionDirective
	blocked map[string]types.ResolutionDirective
	expired []types.ResolutionDirective
}

// NewOverrideSet validates directives. Directives whose expires_at lies
// before now are still applied but listed by Expired.
func NewOverrideSet(directives []types.ResolutionDirective, now time.Time) (OverrideSet, error) {
	set := OverrideSet{
		forced:  map[string]types.ResolutionDirective{},
		blocked: map[string]types.ResolutionDirective{},
	}
	for _, directive := range directives {
		key := strings.TrimSpace(directive.Dependency)
		if err := ValidateExclusion(key); err != nil || strings.ContainsAny(key, "*?[") {
			return OverrideSet{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("override dependency must be group:name: %q", directive.Dependency))
		}
		if _, dup := set.forced[key]; dup {
			return OverrideSet{}, duplicateOverride(key)
		}
		if _, dup := set.blocked[key]; dup {
			return OverrideSet{}, duplicateOverride(key)
		}
		switch strings.ToLower(strings.TrimSpace(directive.Action)) {
		case ActionForce:
			if strings.TrimSpace(directive.Value) == "" {
				return OverrideSet{}, errbuilder.New().
					WithCode(errbuilder.CodeInvalidArgument).
					WithMsg(fmt.Sprintf("force directive requires value: %s", key))
			}
			set.forced[key] = directive
		case ActionBlock:
			set.blocked[key] = directive
		default:
			return OverrideSet{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("unknown resolution action: %s", directive.Action))
		}
		if expiry := shared.ParseTimeFlexible(directive.ExpiresAt); !expiry.IsZero() && expiry.Before(now) {
			set.expired = append(set.expired, directive)
		}
	}
	return set, nil
}

func duplicateOverride(key string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(fmt.Sprintf("duplicate override for %s", key))
}

// Forced returns the pinned version for module, if any.
func (s OverrideSet) Forced(module types.ModuleID) (types.ResolutionDirective, bool) {
	directive, ok := s.forced[module.Key()]
	return directive, ok
}

func (s OverrideSet) Blocked(module types.ModuleID) (types.ResolutionDirective, bool) {
	directive, ok := s.blocked[module.Key()]
	return directive, ok
}

func (s OverrideSet) Expired() []types.ResolutionDirective {
	return s.expired
}

// Records lists every directive as a report record, sorted by dependency.
func (s OverrideSet) Records() []types.ResolutionRecord {
	records := make([]types.ResolutionRecord, 0, len(s.forced)+len(s.blocked))
	for _, directive := range s.forced {
		records = append(records, types.ResolutionRecord(directive))
	}
	for _, directive := range s.blocked {
		records = append(records, types.ResolutionRecord(directive))
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Dependency < records[j].Dependency
	})
	return records
}
