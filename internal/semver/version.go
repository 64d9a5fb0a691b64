package semver

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// versionPattern captures up to four dot-separated numeric components
// followed by an optional "-prerelease" suffix and an optional "+build"
// suffix. The fourth numeric group exists only to tolerate four-part
// version strings on input; it is never stored or emitted.
var versionPattern = regexp.MustCompile(
	`^(\d+)(?:\.(\d+))?(?:\.(\d+))?(?:\.(\d+))?(?:-([^+]*))?(?:\+(.*))?$`,
)

// SemanticVersion is an immutable Major.Minor.Patch triple plus an optional
// pre-release tag and build metadata block. Every method that "changes" a
// SemanticVersion returns a fresh value rather than mutating the receiver.
type SemanticVersion struct {
	Major         int64
	Minor         int64
	Patch         int64
	PreReleaseTag PreReleaseTag
	BuildMetaData BuildMetaData
}

// TryParse is the non-error-returning twin of Parse, for callers that only
// care whether parsing succeeded.
func TryParse(raw, tagPrefix string) (SemanticVersion, bool) {
	parsed, err := Parse(raw, tagPrefix)
	return parsed, err == nil
}

// Parse extracts a SemanticVersion out of raw. When tagPrefix is non-empty,
// raw must begin with a match for that regex (e.g. a tag prefix like "v")
// and the matched prefix is stripped before the numeric parse runs.
func Parse(raw, tagPrefix string) (SemanticVersion, error) {
	body := raw

	if tagPrefix != "" {
		stripped, ok, err := stripPrefix(raw, tagPrefix)
		if err != nil {
			return SemanticVersion{}, err
		}
		if !ok {
			return SemanticVersion{}, errors.New("version string does not match tag prefix: " + raw)
		}
		body = stripped
	}

	groups := versionPattern.FindStringSubmatch(body)
	if groups == nil {
		return SemanticVersion{}, errors.New("invalid version format: " + raw)
	}

	major, err := parseVersionInt("major", groups[1])
	if err != nil {
		return SemanticVersion{}, err
	}
	result := SemanticVersion{Major: major}

	if groups[2] != "" {
		if result.Minor, err = parseVersionInt("minor", groups[2]); err != nil {
			return SemanticVersion{}, err
		}
	}
	if groups[3] != "" {
		if result.Patch, err = parseVersionInt("patch", groups[3]); err != nil {
			return SemanticVersion{}, err
		}
	}
	// groups[4] is a fourth numeric component some tools emit; verso accepts
	// it on input for compatibility but has nowhere to keep it.

	if groups[5] != "" {
		result.PreReleaseTag = parsePreReleaseTag(groups[5])
	}

	if groups[6] != "" {
		if count, convErr := strconv.ParseInt(groups[6], 10, 64); convErr == nil {
			result.BuildMetaData = BuildMetaData{CommitsSinceTag: &count}
		}
	}

	return result, nil
}

func stripPrefix(raw, tagPrefix string) (string, bool, error) {
	re, err := regexp.Compile("^(?:" + tagPrefix + ")")
	if err != nil {
		return "", false, errors.New("invalid tag prefix regex: " + err.Error())
	}
	loc := re.FindStringIndex(raw)
	if loc == nil {
		return "", false, nil
	}
	return raw[loc[1]:], true, nil
}

func parseVersionInt(field, s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, errors.New("invalid " + field + " version: " + s)
	}
	return n, nil
}

// parsePreReleaseTag decodes strings like "beta.4", "beta", "4", or "alpha.1"
// into a name/number pair. A trailing ".N" segment is treated as the
// iteration number; a bare numeric string is a number with no name.
func parsePreReleaseTag(s string) PreReleaseTag {
	if s == "" {
		return PreReleaseTag{}
	}

	if dot := strings.LastIndexByte(s, '.'); dot >= 0 {
		name, numStr := s[:dot], s[dot+1:]
		if num, err := strconv.ParseInt(numStr, 10, 64); err == nil {
			return PreReleaseTag{Name: name, Number: &num}
		}
	}

	if num, err := strconv.ParseInt(s, 10, 64); err == nil {
		return PreReleaseTag{Number: &num}
	}

	return PreReleaseTag{Name: s}
}

// CompareTo orders two versions by Major, then Minor, then Patch, then
// pre-release precedence. Build metadata never participates, per SemVer.
func (v SemanticVersion) CompareTo(other SemanticVersion) int {
	for _, pair := range [][2]int64{
		{v.Major, other.Major},
		{v.Minor, other.Minor},
		{v.Patch, other.Patch},
	} {
		if cmp := compareInt64(pair[0], pair[1]); cmp != 0 {
			return cmp
		}
	}
	return v.PreReleaseTag.CompareTo(other.PreReleaseTag)
}

func compareInt64(a, b int64) int {
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	default:
		return 0
	}
}

// IncrementField bumps major, minor, or patch, zeroing every field below it
// and discarding any pre-release tag or build metadata. VersionFieldNone is
// a no-op that returns v unchanged.
func (v SemanticVersion) IncrementField(field VersionField) SemanticVersion {
	switch field {
	case VersionFieldMajor:
		return SemanticVersion{Major: v.Major + 1}
	case VersionFieldMinor:
		return SemanticVersion{Major: v.Major, Minor: v.Minor + 1}
	case VersionFieldPatch:
		return SemanticVersion{Major: v.Major, Minor: v.Minor, Patch: v.Patch + 1}
	default:
		return v
	}
}

// IncrementPreRelease bumps the pre-release iteration number by one. The
// version must already carry a numbered pre-release tag; callers are
// expected to have checked PreReleaseTag.Number != nil first.
func (v SemanticVersion) IncrementPreRelease() SemanticVersion {
	if v.PreReleaseTag.Number == nil {
		panic("cannot increment pre-release: no pre-release number set")
	}
	bumped := *v.PreReleaseTag.Number + 1
	next := v
	next.PreReleaseTag = PreReleaseTag{Name: v.PreReleaseTag.Name, Number: &bumped}
	return next
}

// WithPreReleaseTag swaps in a new pre-release tag, leaving every other
// field as-is.
func (v SemanticVersion) WithPreReleaseTag(tag PreReleaseTag) SemanticVersion {
	next := v
	next.PreReleaseTag = tag
	return next
}

// WithBuildMetaData swaps in new build metadata, leaving every other field
// as-is.
func (v SemanticVersion) WithBuildMetaData(meta BuildMetaData) SemanticVersion {
	next := v
	next.BuildMetaData = meta
	return next
}

func (v SemanticVersion) triplet() string {
	var b strings.Builder
	b.WriteString(strconv.FormatInt(v.Major, 10))
	b.WriteByte('.')
	b.WriteString(strconv.FormatInt(v.Minor, 10))
	b.WriteByte('.')
	b.WriteString(strconv.FormatInt(v.Patch, 10))
	return b.String()
}

// SemVer renders the canonical SemVer 2.0 string, e.g. "1.2.3" or
// "1.2.3-beta.4".
func (v SemanticVersion) SemVer() string {
	if tag := v.PreReleaseTag.String(); tag != "" {
		return v.triplet() + "-" + tag
	}
	return v.triplet()
}

// FullSemVer is SemVer with "+<build metadata>" appended when present,
// e.g. "1.2.3-beta.4+5".
func (v SemanticVersion) FullSemVer() string {
	if meta := v.BuildMetaData.String(); meta != "" {
		return v.SemVer() + "+" + meta
	}
	return v.SemVer()
}

// LegacySemVer renders the pre-release tag without its separating dot,
// e.g. "1.2.3-beta4" instead of "1.2.3-beta.4".
func (v SemanticVersion) LegacySemVer() string {
	if tag := v.PreReleaseTag.Legacy(); tag != "" {
		return v.triplet() + "-" + tag
	}
	return v.triplet()
}

// LegacySemVerPadded is LegacySemVer with the pre-release number zero-padded
// to pad digits, e.g. "1.2.3-beta0004".
func (v SemanticVersion) LegacySemVerPadded(pad int) string {
	if tag := v.PreReleaseTag.LegacyPadded(pad); tag != "" {
		return v.triplet() + "-" + tag
	}
	return v.triplet()
}

// InformationalVersion is SemVer with the full, human-readable build
// metadata block appended, e.g.
// "1.2.3-beta.4+5.Branch.main.Sha.abc1234".
func (v SemanticVersion) InformationalVersion() string {
	if meta := v.BuildMetaData.FullString(); meta != "" {
		return v.SemVer() + "+" + meta
	}
	return v.SemVer()
}
