package output

import (
	"github.com/versoci/verso/internal/config"
	"github.com/versoci/verso/internal/semver"
)

// GetVariables produces the full named-variable set (FullSemVer, MajorMinorPatch,
// NuGetVersion, and the rest) for ver, after applying any mode-specific
// promotion the branch's effective configuration calls for.
func GetVariables(ver semver.SemanticVersion, ec config.EffectiveConfiguration) map[string]string {
	promoted := PromoteCommitsToPreRelease(ver, ec.BranchMode, ec.ContinuousDeploymentFallbackTag)
	return semver.ComputeFormatValues(promoted, semver.FormatConfig{
		Padding:             ec.LegacySemVerPadding,
		CommitDateFormat:    ec.CommitDateFormat,
		TagPreReleaseWeight: ec.TagPreReleaseWeight,
	})
}
