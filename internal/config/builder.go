package config

import (
	"fmt"
	"regexp"

	"github.com/versoci/verso/internal/semver"
)

// Builder assembles a Config by layering zero or more partial overrides on
// top of the built-in defaults — the same shape as a YAML file parsed into
// a Config, a CLI flag override, and the library defaults all being
// "layers" that stack in the order Add is called.
type Builder struct {
	layers []*Config
}

func NewBuilder() *Builder {
	return &Builder{}
}

// Add stacks another override on top of whatever was added before. A later
// Add call wins over an earlier one for any field both set. A nil override
// is ignored so callers don't need to guard optional config sources.
func (b *Builder) Add(override *Config) *Builder {
	if override != nil {
		b.layers = append(b.layers, override)
	}
	return b
}

// Build flattens every layer onto the defaults, resolves per-branch
// inheritance, and validates the result.
func (b *Builder) Build() (*Config, error) {
	cfg := CreateDefaultConfiguration()

	for _, layer := range b.layers {
		applyOverride(cfg, layer)
	}

	resolveBranchInheritance(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyOverride copies every non-nil field of src into dst, and merges the
// map/slice-shaped fields (branches, merge message formats, ignore rules)
// rather than replacing them wholesale.
func applyOverride(dst, src *Config) {
	copyIfSet(&dst.Mode, src.Mode)
	copyIfSet(&dst.TagPrefix, src.TagPrefix)
	copyIfSet(&dst.BaseVersion, src.BaseVersion)
	copyIfSet(&dst.NextVersion, src.NextVersion)
	copyIfSet(&dst.Increment, src.Increment)
	copyIfSet(&dst.ContinuousDeploymentFallbackTag, src.ContinuousDeploymentFallbackTag)
	copyIfSet(&dst.CommitMessageIncrementing, src.CommitMessageIncrementing)
	copyIfSet(&dst.CommitMessageConvention, src.CommitMessageConvention)
	copyIfSet(&dst.MajorVersionBumpMessage, src.MajorVersionBumpMessage)
	copyIfSet(&dst.MinorVersionBumpMessage, src.MinorVersionBumpMessage)
	copyIfSet(&dst.PatchVersionBumpMessage, src.PatchVersionBumpMessage)
	copyIfSet(&dst.NoBumpMessage, src.NoBumpMessage)
	copyIfSet(&dst.CommitDateFormat, src.CommitDateFormat)
	copyIfSet(&dst.UpdateBuildNumber, src.UpdateBuildNumber)
	copyIfSet(&dst.TagPreReleaseWeight, src.TagPreReleaseWeight)
	copyIfSet(&dst.LegacySemVerPadding, src.LegacySemVerPadding)
	copyIfSet(&dst.BuildMetaDataPadding, src.BuildMetaDataPadding)
	copyIfSet(&dst.CommitsSinceVersionSourcePadding, src.CommitsSinceVersionSourcePadding)
	copyIfSet(&dst.MainlineIncrement, src.MainlineIncrement)

	mergeBranches(dst, src)
	mergeMessageFormats(dst, src)
	mergeIgnoreRules(dst, src)
}

// copyIfSet overwrites *dst with src when src is non-nil, leaving dst
// untouched otherwise. Generic over whatever pointer-to-value type a Config
// field uses (string, bool, semver enum, ...).
func copyIfSet[T any](dst **T, src *T) {
	if src != nil {
		*dst = src
	}
}

// mergeBranches combines src's per-branch overrides into dst, merging
// field-by-field for a branch both configs name and adopting wholesale any
// branch only src names.
func mergeBranches(dst, src *Config) {
	if src.Branches == nil {
		return
	}
	if dst.Branches == nil {
		dst.Branches = make(map[string]*BranchConfig)
	}
	for name, srcBranch := range src.Branches {
		if dstBranch, exists := dst.Branches[name]; exists {
			srcBranch.MergeTo(dstBranch)
		} else {
			dst.Branches[name] = srcBranch
		}
	}
}

func mergeMessageFormats(dst, src *Config) {
	if src.MergeMessageFormats == nil {
		return
	}
	if dst.MergeMessageFormats == nil {
		dst.MergeMessageFormats = make(map[string]string)
	}
	for k, v := range src.MergeMessageFormats {
		dst.MergeMessageFormats[k] = v
	}
}

func mergeIgnoreRules(dst, src *Config) {
	if src.Ignore.CommitsBefore != nil {
		dst.Ignore.CommitsBefore = src.Ignore.CommitsBefore
	}
	if src.Ignore.Sha != nil {
		dst.Ignore.Sha = src.Ignore.Sha
	}
}

// resolveBranchInheritance fills in whatever a branch left unset from the
// global config (with develop's well-known exception to Mode inheritance),
// then derives each branch's SourceBranches from any other branch that
// names it via IsSourceBranchFor.
func resolveBranchInheritance(cfg *Config) {
	for name, branch := range cfg.Branches {
		inheritIncrement(cfg, branch)
		inheritMode(cfg, name, branch)
		inheritCommitMessageIncrementing(cfg, branch)
	}
	for name, branch := range cfg.Branches {
		propagateSourceBranchLinks(cfg, name, branch)
	}
}

func inheritIncrement(cfg *Config, branch *BranchConfig) {
	if branch.Increment != nil || cfg.Increment == nil {
		return
	}
	inc := *cfg.Increment
	branch.Increment = &inc
}

// inheritMode applies the global Mode to a branch that doesn't set its own,
// except develop: develop runs ContinuousDeployment by default, even under
// a global ContinuousDelivery setting, unless the repository as a whole is
// in Mainline mode.
func inheritMode(cfg *Config, name string, branch *BranchConfig) {
	if branch.Mode != nil || cfg.Mode == nil {
		return
	}
	if name != "develop" {
		m := *cfg.Mode
		branch.Mode = &m
		return
	}
	m := semver.VersioningModeContinuousDeployment
	if *cfg.Mode == semver.VersioningModeMainline {
		m = semver.VersioningModeMainline
	}
	branch.Mode = &m
}

func inheritCommitMessageIncrementing(cfg *Config, branch *BranchConfig) {
	if branch.CommitMessageIncrementing != nil || cfg.CommitMessageIncrementing == nil {
		return
	}
	cmi := *cfg.CommitMessageIncrementing
	branch.CommitMessageIncrementing = &cmi
}

// propagateSourceBranchLinks makes is-source-branch-for bidirectional:
// when branch "release" declares is-source-branch-for: [main], main's
// SourceBranches gains "release" even though main never mentioned it.
func propagateSourceBranchLinks(cfg *Config, name string, branch *BranchConfig) {
	if branch.IsSourceBranchFor == nil {
		return
	}
	for _, targetName := range *branch.IsSourceBranchFor {
		target, ok := cfg.Branches[targetName]
		if !ok {
			continue
		}
		if target.SourceBranches == nil {
			empty := []string{}
			target.SourceBranches = &empty
		}
		if !sliceContains(*target.SourceBranches, name) {
			extended := append(*target.SourceBranches, name)
			target.SourceBranches = &extended
		}
	}
}

// validate rejects configurations whose regexes don't compile. Every
// failure is wrapped in ErrConfiguration so callers can distinguish fatal
// config problems from repository or history errors further down the
// pipeline.
func validate(cfg *Config) error {
	if cfg.TagPrefix != nil {
		if _, err := regexp.Compile(*cfg.TagPrefix); err != nil {
			return fmt.Errorf("%w: invalid tag-prefix regex %q: %w", ErrConfiguration, *cfg.TagPrefix, err)
		}
	}

	for name, branch := range cfg.Branches {
		if branch.Regex == nil {
			return fmt.Errorf("%w: branch %q missing regex", ErrConfiguration, name)
		}
		if _, err := regexp.Compile(*branch.Regex); err != nil {
			return fmt.Errorf("%w: branch %q has invalid regex %q: %w", ErrConfiguration, name, *branch.Regex, err)
		}
	}

	return nil
}

func sliceContains(ss []string, s string) bool {
	for _, item := range ss {
		if item == s {
			return true
		}
	}
	return false
}
