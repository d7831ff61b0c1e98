package types

import "strings"

// ScopeSet is a small bit set of ScopeTag values.
type ScopeSet uint8

const (
	scopeBitCompile ScopeSet = 1 << iota
	scopeBitRuntime
	scopeBitTest
	scopeBitProvided
)

func scopeBit(tag ScopeTag) ScopeSet {
	switch tag {
	case ScopeCompile:
		return scopeBitCompile
	case ScopeRuntime:
		return scopeBitRuntime
	case ScopeTest:
		return scopeBitTest
	case ScopeProvided:
		return scopeBitProvided
	default:
		return 0
	}
}

func NewScopeSet(tags ...ScopeTag) ScopeSet {
	var set ScopeSet
	for _, tag := range tags {
		set |= scopeBit(tag)
	}
	return set
}

func (s ScopeSet) Has(tag ScopeTag) bool {
	bit := scopeBit(tag)
	return bit != 0 && s&bit == bit
}

func (s ScopeSet) With(tag ScopeTag) ScopeSet {
	return s | scopeBit(tag)
}

func (s ScopeSet) Union(other ScopeSet) ScopeSet {
	return s | other
}

func (s ScopeSet) Intersect(other ScopeSet) ScopeSet {
	return s & other
}

func (s ScopeSet) Intersects(other ScopeSet) bool {
	return s&other != 0
}

func (s ScopeSet) IsEmpty() bool {
	return s == 0
}

// Contains reports whether every tag of other is in s.
func (s ScopeSet) Contains(other ScopeSet) bool {
	return s&other == other
}

// Visibility expands a declared scope set into the set of classpaths that
// see it: compile entries are visible on runtime and test, runtime entries
// on test, and provided entries on compile and test but never runtime.
func (s ScopeSet) Visibility() ScopeSet {
	var out ScopeSet
	if s.Has(ScopeCompile) {
		out |= scopeBitCompile | scopeBitRuntime | scopeBitTest
	}
	if s.Has(ScopeRuntime) {
		out |= scopeBitRuntime | scopeBitTest
	}
	if s.Has(ScopeTest) {
		out |= scopeBitTest
	}
	if s.Has(ScopeProvided) {
		out |= scopeBitProvided | scopeBitCompile | scopeBitTest
	}
	return out
}

func (s ScopeSet) Tags() []ScopeTag {
	var out []ScopeTag
	for _, tag := range AllScopes {
		if s.Has(tag) {
			out = append(out, tag)
		}
	}
	return out
}

func (s ScopeSet) Strings() []string {
	tags := s.Tags()
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		out = append(out, string(tag))
	}
	return out
}

func (s ScopeSet) String() string {
	return strings.Join(s.Strings(), ",")
}
