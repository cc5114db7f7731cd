// Package version provides the cgt tool version and the compatibility rules
// used to compare it against the builder.version descriptor key.
package version

import (
	"cmp"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Current is the running tool version. Overridden at build time with
// -ldflags "-X github.com/agbgames/cgt/internal/version.Current=<ver>".
var Current = "1.4.0"

// SupportedEngineVersion is the newest CopperCube release the generated bundle targets.
const SupportedEngineVersion = "6.7"

// SemverRegex validates semantic version strings.
var SemverRegex = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)(-([a-zA-Z0-9]+(\.[a-zA-Z0-9]+)*))?(\+([a-zA-Z0-9]+(\.[a-zA-Z0-9]+)*))?$`)

// Semver represents a parsed semantic version.
type Semver struct {
	Major      int
	Minor      int
	Patch      int
	Prerelease string
	Build      string
}

// Validate checks if a version string is valid semver.
func Validate(version string) error {
	if !SemverRegex.MatchString(version) {
		return fmt.Errorf("invalid semver format: %q", version)
	}
	return nil
}

// Parse parses a semantic version string.
func Parse(version string) (*Semver, error) {
	match := SemverRegex.FindStringSubmatch(version)
	if match == nil {
		return nil, fmt.Errorf("invalid semver format: %q", version)
	}

	// The regex guarantees digit-only capture groups.
	major, _ := strconv.Atoi(match[1])
	minor, _ := strconv.Atoi(match[2])
	patch, _ := strconv.Atoi(match[3])

	return &Semver{
		Major:      major,
		Minor:      minor,
		Patch:      patch,
		Prerelease: match[5],
		Build:      match[8],
	}, nil
}

// String returns the semver string representation.
func (s *Semver) String() string {
	result := fmt.Sprintf("%d.%d.%d", s.Major, s.Minor, s.Patch)
	if s.Prerelease != "" {
		result += "-" + s.Prerelease
	}
	if s.Build != "" {
		result += "+" + s.Build
	}
	return result
}

// MajorPattern returns the "<major>.<minor>.*" pattern that accepts every
// patch release of s.
func (s *Semver) MajorPattern() string {
	return fmt.Sprintf("%d.%d.*", s.Major, s.Minor)
}

// Compare orders s against o: -1 if s < o, 0 if equal, 1 if s > o.
// Build metadata is ignored.
func (s *Semver) Compare(o *Semver) int {
	if c := cmp.Compare(s.Major, o.Major); c != 0 {
		return c
	}
	if c := cmp.Compare(s.Minor, o.Minor); c != 0 {
		return c
	}
	if c := cmp.Compare(s.Patch, o.Patch); c != 0 {
		return c
	}
	switch {
	case s.Prerelease == o.Prerelease:
		return 0
	case s.Prerelease == "":
		return 1
	case o.Prerelease == "":
		return -1
	}
	return comparePrerelease(s.Prerelease, o.Prerelease)
}

// Compare compares two semver strings.
func Compare(a, b string) (int, error) {
	va, err := Parse(a)
	if err != nil {
		return 0, err
	}
	vb, err := Parse(b)
	if err != nil {
		return 0, err
	}
	return va.Compare(vb), nil
}

func comparePrerelease(a, b string) int {
	partsA := strings.Split(a, ".")
	partsB := strings.Split(b, ".")
	for i := 0; i < min(len(partsA), len(partsB)); i++ {
		if c := compareIdentifier(partsA[i], partsB[i]); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(partsA), len(partsB))
}

// compareIdentifier: numeric identifiers sort numerically and below alphanumeric ones.
func compareIdentifier(a, b string) int {
	aNum, aIsNum := parseNumeric(a)
	bNum, bIsNum := parseNumeric(b)
	switch {
	case aIsNum && bIsNum:
		return cmp.Compare(aNum, bNum)
	case aIsNum:
		return -1
	case bIsNum:
		return 1
	}
	return strings.Compare(a, b)
}

// parseNumeric parses a non-negative integer without leading zeros.
func parseNumeric(s string) (int, bool) {
	if s == "" || (len(s) > 1 && s[0] == '0') {
		return 0, false
	}
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

// Matches reports whether version satisfies pattern.
//
// A pattern is either a full semver (exact match, build metadata ignored) or
// one to three dot-separated components where each component is a number or
// "*": "1.4" and "1.4.*" both accept any 1.4.x release, "1.*" any 1.x release.
func Matches(pattern, version string) (bool, error) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return false, fmt.Errorf("empty version pattern")
	}

	v, err := Parse(version)
	if err != nil {
		return false, err
	}

	if p, err := Parse(pattern); err == nil {
		return v.Compare(p) == 0, nil
	}

	parts := strings.Split(pattern, ".")
	if len(parts) > 3 {
		return false, fmt.Errorf("invalid version pattern %q: too many components", pattern)
	}

	actual := []int{v.Major, v.Minor, v.Patch}
	for i, part := range parts {
		if part == "*" {
			continue
		}
		n, ok := parseNumeric(part)
		if !ok {
			return false, fmt.Errorf("invalid version pattern %q: component %q is not a number or *", pattern, part)
		}
		if n != actual[i] {
			return false, nil
		}
	}
	return true, nil
}
