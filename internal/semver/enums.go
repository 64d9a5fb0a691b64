// Package semver models the semantic-version value type together with the
// small enumerations (version field, increment strategy, versioning mode,
// commit message conventions) that the rest of verso configures against.
package semver

// VersionField names one of the three numeric components of a
// SemanticVersion, used as the return value of "what should we bump".
type VersionField int

const (
	VersionFieldNone VersionField = iota
	VersionFieldPatch
	VersionFieldMinor
	VersionFieldMajor
)

var versionFieldNames = [...]string{"None", "Patch", "Minor", "Major"}

func (f VersionField) String() string {
	return enumName(int(f), versionFieldNames[:])
}

// IncrementStrategy is the increment behavior configured for a branch:
// a fixed field, Inherit (defer to the parent config), or None.
type IncrementStrategy int

const (
	IncrementStrategyNone IncrementStrategy = iota
	IncrementStrategyMajor
	IncrementStrategyMinor
	IncrementStrategyPatch
	IncrementStrategyInherit
)

var incrementStrategyNames = [...]string{"None", "Major", "Minor", "Patch", "Inherit"}

func (s IncrementStrategy) String() string {
	return enumName(int(s), incrementStrategyNames[:])
}

// ToVersionField maps the strategy onto the field it implies. Inherit and
// None both carry no field of their own and map to VersionFieldNone; the
// caller is expected to fall back to whatever the surrounding context
// decides in that case.
func (s IncrementStrategy) ToVersionField() VersionField {
	switch s {
	case IncrementStrategyMajor:
		return VersionFieldMajor
	case IncrementStrategyMinor:
		return VersionFieldMinor
	case IncrementStrategyPatch:
		return VersionFieldPatch
	default:
		return VersionFieldNone
	}
}

// VersioningMode selects the top-level algorithm used to turn a commit
// graph into a version: the two branch-aware GitFlow-style modes, or
// Mainline's trunk-based counting.
type VersioningMode int

const (
	VersioningModeContinuousDelivery VersioningMode = iota
	VersioningModeContinuousDeployment
	VersioningModeMainline
)

var versioningModeNames = [...]string{"ContinuousDelivery", "ContinuousDeployment", "Mainline"}

func (m VersioningMode) String() string {
	return enumName(int(m), versioningModeNames[:])
}

// CommitMessageIncrementMode controls which commits are allowed to drive an
// increment via their message text.
type CommitMessageIncrementMode int

const (
	CommitMessageIncrementEnabled CommitMessageIncrementMode = iota
	CommitMessageIncrementDisabled
	CommitMessageIncrementMergeMessageOnly
)

var commitMessageIncrementModeNames = [...]string{"Enabled", "Disabled", "MergeMessageOnly"}

func (m CommitMessageIncrementMode) String() string {
	return enumName(int(m), commitMessageIncrementModeNames[:])
}

// CommitMessageConvention selects which textual convention(s) a commit
// message is scanned against when looking for an increment directive.
type CommitMessageConvention int

const (
	CommitMessageConventionConventionalCommits CommitMessageConvention = iota
	CommitMessageConventionBumpDirective
	CommitMessageConventionBoth
)

var commitMessageConventionNames = [...]string{"ConventionalCommits", "BumpDirective", "Both"}

func (c CommitMessageConvention) String() string {
	return enumName(int(c), commitMessageConventionNames[:])
}

// enumName is the shared bounds-checked lookup behind every String() method
// in this file; an out-of-range value (e.g. an unexported zero value cast
// from an int) renders as "Unknown" rather than panicking.
func enumName(i int, names []string) string {
	if i < 0 || i >= len(names) {
		return "Unknown"
	}
	return names[i]
}
