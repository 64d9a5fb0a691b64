package config

import "github.com/versoci/verso/internal/semver"

// BranchConfig holds per-branch configuration. All fields are pointers
// to support merge semantics: nil means "not set, inherit from parent".
type BranchConfig struct {
	Regex                                 *string                            `yaml:"regex"`
	Increment                             *semver.IncrementStrategy          `yaml:"increment"`
	Mode                                  *semver.VersioningMode             `yaml:"mode"`
	Tag                                   *string                            `yaml:"tag"`
	SourceBranches                        *[]string                          `yaml:"source-branches"`
	IsSourceBranchFor                     *[]string                          `yaml:"is-source-branch-for"`
	IsMainline                            *bool                              `yaml:"is-mainline"`
	IsReleaseBranch                       *bool                              `yaml:"is-release-branch"`
	TracksReleaseBranches                 *bool                              `yaml:"tracks-release-branches"`
	PreventIncrementOfMergedBranchVersion *bool                              `yaml:"prevent-increment-of-merged-branch-version"`
	TrackMergeTarget                      *bool                              `yaml:"track-merge-target"`
	TagNumberPattern                      *string                            `yaml:"tag-number-pattern"`
	CommitMessageIncrementing             *semver.CommitMessageIncrementMode `yaml:"commit-message-incrementing"`
	PreReleaseWeight                      *int                               `yaml:"pre-release-weight"`
	Priority                              *int                               `yaml:"priority"`
}

// MergeTo overlays bc's set fields onto target, leaving any field bc
// doesn't set untouched on target — the same per-field overlay semantics
// applyOverride uses for the root Config.
func (bc *BranchConfig) MergeTo(target *BranchConfig) {
	if bc == nil || target == nil {
		return
	}
	copyIfSet(&target.Regex, bc.Regex)
	copyIfSet(&target.Increment, bc.Increment)
	copyIfSet(&target.Mode, bc.Mode)
	copyIfSet(&target.Tag, bc.Tag)
	copyIfSet(&target.SourceBranches, bc.SourceBranches)
	copyIfSet(&target.IsSourceBranchFor, bc.IsSourceBranchFor)
	copyIfSet(&target.IsMainline, bc.IsMainline)
	copyIfSet(&target.IsReleaseBranch, bc.IsReleaseBranch)
	copyIfSet(&target.TracksReleaseBranches, bc.TracksReleaseBranches)
	copyIfSet(&target.PreventIncrementOfMergedBranchVersion, bc.PreventIncrementOfMergedBranchVersion)
	copyIfSet(&target.TrackMergeTarget, bc.TrackMergeTarget)
	copyIfSet(&target.TagNumberPattern, bc.TagNumberPattern)
	copyIfSet(&target.CommitMessageIncrementing, bc.CommitMessageIncrementing)
	copyIfSet(&target.PreReleaseWeight, bc.PreReleaseWeight)
	copyIfSet(&target.Priority, bc.Priority)
}
