package core

import (
	"sort"
	"strings"

	mm "github.com/Masterminds/semver/v3"
	pep440 "github.com/aquasecurity/go-pep440-version"
	debversion "github.com/knqyf263/go-deb-version"

	"depresolve/internal/types"
)

// versionCache memoizes parsed version objects for one version scheme so
// that sorting candidate lists does not re-parse the same strings.
type versionCache struct {
	scheme types.VersionScheme
	maven  map[string]mavenVersion
	sem    map[string]*mm.Version
	pep    map[string]pep440.Version
	deb    map[string]debversion.Version
}

func newVersionCache(scheme types.VersionScheme) *versionCache {
	if scheme == "" {
		scheme = types.VersionSchemeMaven
	}
	return &versionCache{
		scheme: scheme,
		maven:  map[string]mavenVersion{},
		sem:    map[string]*mm.Version{},
		pep:    map[string]pep440.Version{},
		deb:    map[string]debversion.Version{},
	}
}

func (c *versionCache) mavenVersion(value string) mavenVersion {
	if parsed, ok := c.maven[value]; ok {
		return parsed
	}
	parsed := parseMavenVersion(value)
	c.maven[value] = parsed
	return parsed
}

func (c *versionCache) semVersion(value string) (*mm.Version, error) {
	if parsed, ok := c.sem[value]; ok {
		return parsed, nil
	}
	parsed, err := mm.NewVersion(value)
	if err != nil {
		return nil, err
	}
	c.sem[value] = parsed
	return parsed, nil
}

func (c *versionCache) pepVersion(value string) (pep440.Version, error) {
	if parsed, ok := c.pep[value]; ok {
		return parsed, nil
	}
	parsed, err := pep440.Parse(value)
	if err != nil {
		return pep440.Version{}, err
	}
	c.pep[value] = parsed
	return parsed, nil
}

func (c *versionCache) debVersion(value string) (debversion.Version, error) {
	if parsed, ok := c.deb[value]; ok {
		return parsed, nil
	}
	parsed, err := debversion.NewVersion(value)
	if err != nil {
		return debversion.Version{}, err
	}
	c.deb[value] = parsed
	return parsed, nil
}

// compare returns -1, 0, or 1. The order is total: versions the scheme
// cannot parse fall back to the maven comparator, and versions that still
// compare equal are ordered lexicographically by their raw string.
func (c *versionCache) compare(a string, b string) int {
	if a == b {
		return 0
	}
	result, ok := c.compareScheme(a, b)
	if !ok {
		result = compareMaven(c.mavenVersion(a), c.mavenVersion(b))
	}
	if result != 0 {
		return result
	}
	return strings.Compare(a, b)
}

func (c *versionCache) compareScheme(a string, b string) (int, bool) {
	switch c.scheme {
	case types.VersionSchemeSemver:
		v1, err := c.semVersion(a)
		if err != nil {
			return 0, false
		}
		v2, err := c.semVersion(b)
		if err != nil {
			return 0, false
		}
		return v1.Compare(v2), true
	case types.VersionSchemePep440:
		v1, err := c.pepVersion(a)
		if err != nil {
			return 0, false
		}
		v2, err := c.pepVersion(b)
		if err != nil {
			return 0, false
		}
		return v1.Compare(v2), true
	case types.VersionSchemeDeb:
		v1, err := c.debVersion(a)
		if err != nil {
			return 0, false
		}
		v2, err := c.debVersion(b)
		if err != nil {
			return 0, false
		}
		return v1.Compare(v2), true
	default:
		return 0, false
	}
}

// max returns the highest of the given versions.
func (c *versionCache) max(versions []string) string {
	best := ""
	for i, version := range versions {
		if i == 0 || c.compare(version, best) > 0 {
			best = version
		}
	}
	return best
}

// sortDescending orders versions from highest to lowest in place.
func (c *versionCache) sortDescending(versions []string) {
	sort.SliceStable(versions, func(i, j int) bool {
		return c.compare(versions[i], versions[j]) > 0
	})
}

// CompareVersions exposes the total version order of a scheme.
func CompareVersions(scheme types.VersionScheme, a string, b string) int {
	return newVersionCache(scheme).compare(a, b)
}

// mavenVersion is a tokenized version string. Numeric tokens keep their
// digits (without leading zeros) so arbitrarily long numbers compare
// correctly.
type mavenVersion struct {
	tokens []mavenToken
}

type mavenToken struct {
	numeric bool
	value   string
}

// Qualifier ranks; a missing token counts as a release.
var qualifierRanks = map[string]int{
	"alpha":     1,
	"a":         1,
	"beta":      2,
	"b":         2,
	"milestone": 3,
	"m":         3,
	"rc":        4,
	"cr":        4,
	"snapshot":  5,
	"":          6,
	"ga":        6,
	"final":     6,
	"release":   6,
	"sp":        7,
}

const unknownQualifierRank = 8

func parseMavenVersion(value string) mavenVersion {
	raw := strings.ToLower(strings.TrimSpace(value))
	var tokens []mavenToken
	var current strings.Builder
	currentNumeric := false
	flush := func() {
		if current.Len() == 0 {
			return
		}
		token := current.String()
		if currentNumeric {
			token = strings.TrimLeft(token, "0")
		}
		tokens = append(tokens, mavenToken{numeric: currentNumeric, value: token})
		current.Reset()
	}
	for _, r := range raw {
		switch {
		case r == '.' || r == '-' || r == '_' || r == '+':
			flush()
		case r >= '0' && r <= '9':
			if current.Len() > 0 && !currentNumeric {
				flush()
			}
			currentNumeric = true
			current.WriteRune(r)
		default:
			if current.Len() > 0 && currentNumeric {
				flush()
			}
			currentNumeric = false
			current.WriteRune(r)
		}
	}
	flush()
	return mavenVersion{tokens: tokens}
}

func compareMaven(a mavenVersion, b mavenVersion) int {
	length := len(a.tokens)
	if len(b.tokens) > length {
		length = len(b.tokens)
	}
	for i := 0; i < length; i++ {
		var left, right *mavenToken
		if i < len(a.tokens) {
			left = &a.tokens[i]
		}
		if i < len(b.tokens) {
			right = &b.tokens[i]
		}
		if result := compareMavenTokens(left, right); result != 0 {
			return result
		}
	}
	return 0
}

func compareMavenTokens(left *mavenToken, right *mavenToken) int {
	switch {
	case left == nil && right == nil:
		return 0
	case left == nil:
		return -compareMavenTokens(right, nil)
	case right == nil:
		if left.numeric {
			if left.value == "" {
				return 0
			}
			return 1
		}
		return compareInts(qualifierRank(left.value), qualifierRank(""))
	}
	switch {
	case left.numeric && right.numeric:
		return compareDigits(left.value, right.value)
	case left.numeric:
		return 1
	case right.numeric:
		return -1
	}
	leftRank := qualifierRank(left.value)
	rightRank := qualifierRank(right.value)
	if leftRank != rightRank {
		return compareInts(leftRank, rightRank)
	}
	return strings.Compare(left.value, right.value)
}

func qualifierRank(value string) int {
	if rank, ok := qualifierRanks[value]; ok {
		return rank
	}
	return unknownQualifierRank
}

func compareDigits(a string, b string) int {
	if len(a) != len(b) {
		return compareInts(len(a), len(b))
	}
	return strings.Compare(a, b)
}

func compareInts(a int, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// IsSnapshotVersion reports whether version names a mutable snapshot build.
func IsSnapshotVersion(version string) bool {
	return strings.Contains(strings.ToLower(version), "snapshot")
}
