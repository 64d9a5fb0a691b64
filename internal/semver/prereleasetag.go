package semver

import (
	"fmt"
	"strconv"
	"strings"
)

// PreReleaseTag is the "-label.N" suffix of a version: an optional label and
// an optional iteration number. Like SemanticVersion, it is immutable.
type PreReleaseTag struct {
	Name   string
	Number *int64
}

// HasTag reports whether there is anything to render: a label, a number, or
// both. A zero-value PreReleaseTag means "this is a stable release."
func (t PreReleaseTag) HasTag() bool {
	return t.Name != "" || t.Number != nil
}

// WithName returns a copy of t carrying a different label.
func (t PreReleaseTag) WithName(name string) PreReleaseTag {
	return PreReleaseTag{Name: name, Number: t.Number}
}

// WithNumber returns a copy of t carrying a different iteration number.
func (t PreReleaseTag) WithNumber(n int64) PreReleaseTag {
	return PreReleaseTag{Name: t.Name, Number: &n}
}

func (t PreReleaseTag) number() int64 {
	if t.Number == nil {
		return 0
	}
	return *t.Number
}

// CompareTo ranks t against other. A stable release (no tag) always outranks
// any pre-release. Two pre-releases are compared case-insensitively by label
// first, then numerically by iteration.
func (t PreReleaseTag) CompareTo(other PreReleaseTag) int {
	switch {
	case !t.HasTag() && !other.HasTag():
		return 0
	case !t.HasTag():
		return 1
	case !other.HasTag():
		return -1
	}

	if byName := strings.Compare(strings.ToLower(t.Name), strings.ToLower(other.Name)); byName != 0 {
		return byName
	}

	a, b := t.number(), other.number()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// render assembles the tag from a name and a formatted number, using sep as
// the separator between them when both are present.
func (t PreReleaseTag) render(sep string, formatNumber func(int64) string) string {
	switch {
	case !t.HasTag():
		return ""
	case t.Number == nil:
		return t.Name
	case t.Name == "":
		return formatNumber(*t.Number)
	default:
		return t.Name + sep + formatNumber(*t.Number)
	}
}

// String is the SemVer-dotted rendering, e.g. "beta.4".
func (t PreReleaseTag) String() string {
	return t.render(".", func(n int64) string { return strconv.FormatInt(n, 10) })
}

// Legacy drops the dot separator, e.g. "beta4".
func (t PreReleaseTag) Legacy() string {
	return t.render("", func(n int64) string { return strconv.FormatInt(n, 10) })
}

// LegacyPadded is Legacy with the iteration number zero-padded to pad
// digits, e.g. "beta0004".
func (t PreReleaseTag) LegacyPadded(pad int) string {
	return t.render("", func(n int64) string { return fmt.Sprintf("%0*d", pad, n) })
}
