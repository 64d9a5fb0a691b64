// Package output turns a calculated version into the forms a caller
// actually consumes: JSON, key=value lines, a single named variable, the
// --explain trace, and the ContinuousDeployment promotion below.
package output

import (
	"github.com/versoci/verso/internal/semver"
)

// PromoteCommitsToPreRelease folds the commits-since-tag count into the
// pre-release number for ContinuousDeployment mode, so every commit on a
// deploy branch gets a distinct, ordered version instead of stacking on
// the same pre-release tag:
//
//	1.2.0+5 → 1.2.0-ci.5 (fallbackTag supplies "ci" when no tag name fits)
//
// Any other mode, or a version that already carries a numbered
// pre-release tag, is returned unchanged.
func PromoteCommitsToPreRelease(
	ver semver.SemanticVersion,
	mode semver.VersioningMode,
	fallbackTag string,
) semver.SemanticVersion {
	if mode != semver.VersioningModeContinuousDeployment {
		return ver
	}
	if ver.PreReleaseTag.HasTag() && ver.PreReleaseTag.Number != nil {
		return ver
	}

	var commitsSince int64
	if ver.BuildMetaData.CommitsSinceTag != nil {
		commitsSince = *ver.BuildMetaData.CommitsSinceTag
	}

	return ver.WithPreReleaseTag(semver.PreReleaseTag{
		Name:   preReleaseTagName(ver, fallbackTag),
		Number: &commitsSince,
	})
}

func preReleaseTagName(ver semver.SemanticVersion, fallbackTag string) string {
	if ver.PreReleaseTag.Name != "" {
		return ver.PreReleaseTag.Name
	}
	if fallbackTag != "" {
		return fallbackTag
	}
	return "ci"
}
