package config

import (
	"time"

	"github.com/versoci/verso/internal/semver"
)

// EffectiveConfiguration is what the rest of the pipeline actually reads:
// every global and branch-specific setting resolved to a concrete value, so
// no calculator or strategy ever has to chase a pointer or apply a default
// itself.
type EffectiveConfiguration struct {
	Mode                             semver.VersioningMode
	TagPrefix                        string
	BaseVersion                      string
	NextVersion                      string
	Increment                        semver.IncrementStrategy
	ContinuousDeploymentFallbackTag  string
	CommitMessageIncrementing        semver.CommitMessageIncrementMode
	CommitMessageConvention          semver.CommitMessageConvention
	MajorVersionBumpMessage          string
	MinorVersionBumpMessage          string
	PatchVersionBumpMessage          string
	NoBumpMessage                    string
	CommitDateFormat                 string
	UpdateBuildNumber                bool
	TagPreReleaseWeight              int64
	LegacySemVerPadding              int
	BuildMetaDataPadding             int
	CommitsSinceVersionSourcePadding int
	MainlineIncrement                semver.MainlineIncrementMode

	BranchRegex                           string
	BranchIncrement                       semver.IncrementStrategy
	BranchMode                            semver.VersioningMode
	Tag                                   string
	SourceBranches                        []string
	IsMainline                            bool
	IsReleaseBranch                       bool
	TracksReleaseBranches                 bool
	PreventIncrementOfMergedBranchVersion bool
	TrackMergeTarget                      bool
	TagNumberPattern                      string
	BranchCommitMessageIncrementing       semver.CommitMessageIncrementMode
	PreReleaseWeight                      int
	Priority                              int

	IgnoreCommitsBefore *time.Time
	IgnoreSha           []string
	MergeMessageFormats map[string]string
}

// withDefault reads through a pointer field, substituting fallback when the
// pointer is nil. Every *T config field (strings, bools, ints, the semver
// enums) resolves through this one function instead of a hand-written
// deref-with-fallback per type.
func withDefault[T any](p *T, fallback T) T {
	if p != nil {
		return *p
	}
	return fallback
}

// NewEffectiveConfiguration resolves cfg's global settings, then layers
// branch's settings on top where branch overrides them. branch may be nil
// (e.g. for a commit not on any named branch), in which case only the
// global resolution applies.
func NewEffectiveConfiguration(cfg *Config, branch *BranchConfig) EffectiveConfiguration {
	ec := EffectiveConfiguration{
		Mode:                             withDefault(cfg.Mode, semver.VersioningModeContinuousDelivery),
		TagPrefix:                        withDefault(cfg.TagPrefix, "[vV]"),
		BaseVersion:                      withDefault(cfg.BaseVersion, "0.1.0"),
		NextVersion:                      withDefault(cfg.NextVersion, ""),
		Increment:                        withDefault(cfg.Increment, semver.IncrementStrategyInherit),
		ContinuousDeploymentFallbackTag:  withDefault(cfg.ContinuousDeploymentFallbackTag, "ci"),
		CommitMessageIncrementing:        withDefault(cfg.CommitMessageIncrementing, semver.CommitMessageIncrementEnabled),
		CommitMessageConvention:          withDefault(cfg.CommitMessageConvention, semver.CommitMessageConventionBoth),
		MajorVersionBumpMessage:          withDefault(cfg.MajorVersionBumpMessage, `\+semver:\s?(breaking|major)`),
		MinorVersionBumpMessage:          withDefault(cfg.MinorVersionBumpMessage, `\+semver:\s?(feature|minor)`),
		PatchVersionBumpMessage:          withDefault(cfg.PatchVersionBumpMessage, `\+semver:\s?(fix|patch)`),
		NoBumpMessage:                    withDefault(cfg.NoBumpMessage, `\+semver:\s?(none|skip)`),
		CommitDateFormat:                 withDefault(cfg.CommitDateFormat, "2006-01-02"),
		UpdateBuildNumber:                withDefault(cfg.UpdateBuildNumber, true),
		TagPreReleaseWeight:              withDefault(cfg.TagPreReleaseWeight, 60000),
		LegacySemVerPadding:              withDefault(cfg.LegacySemVerPadding, 4),
		BuildMetaDataPadding:             withDefault(cfg.BuildMetaDataPadding, 4),
		CommitsSinceVersionSourcePadding: withDefault(cfg.CommitsSinceVersionSourcePadding, 4),
		MainlineIncrement:                withDefault(cfg.MainlineIncrement, semver.MainlineIncrementAggregate),

		IgnoreCommitsBefore: cfg.Ignore.CommitsBefore,
		IgnoreSha:           cfg.Ignore.Sha,
		MergeMessageFormats: cfg.MergeMessageFormats,
	}

	if branch != nil {
		applyBranchOverrides(&ec, branch)
	}

	return ec
}

// applyBranchOverrides fills in the branch-specific half of ec, falling
// back to whatever the global resolution already produced for the fields
// that branches can inherit (Increment, Mode, CommitMessageIncrementing).
func applyBranchOverrides(ec *EffectiveConfiguration, branch *BranchConfig) {
	ec.BranchRegex = withDefault(branch.Regex, "")
	ec.BranchIncrement = withDefault(branch.Increment, ec.Increment)
	ec.BranchMode = withDefault(branch.Mode, ec.Mode)
	ec.Tag = withDefault(branch.Tag, "{BranchName}")
	if branch.SourceBranches != nil {
		ec.SourceBranches = *branch.SourceBranches
	}
	ec.IsMainline = withDefault(branch.IsMainline, false)
	ec.IsReleaseBranch = withDefault(branch.IsReleaseBranch, false)
	ec.TracksReleaseBranches = withDefault(branch.TracksReleaseBranches, false)
	ec.PreventIncrementOfMergedBranchVersion = withDefault(branch.PreventIncrementOfMergedBranchVersion, false)
	ec.TrackMergeTarget = withDefault(branch.TrackMergeTarget, false)
	ec.TagNumberPattern = withDefault(branch.TagNumberPattern, "")
	ec.BranchCommitMessageIncrementing = withDefault(branch.CommitMessageIncrementing, ec.CommitMessageIncrementing)
	ec.PreReleaseWeight = withDefault(branch.PreReleaseWeight, 0)
	ec.Priority = withDefault(branch.Priority, 0)
}
