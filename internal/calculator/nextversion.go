package calculator

import (
	"fmt"

	"github.com/versoci/verso/internal/config"
	"github.com/versoci/verso/internal/context"
	"github.com/versoci/verso/internal/git"
	"github.com/versoci/verso/internal/semver"
	"github.com/versoci/verso/internal/strategy"
)

// VersionResult is the outcome of a full Calculate pass: the version itself,
// plus enough of the intermediate state (which base version won, how many
// commits since, the reasoning trail) for callers that want to explain
// themselves.
type VersionResult struct {
	Version              semver.SemanticVersion
	BaseVersion          strategy.BaseVersion
	BranchName           string
	CommitsSince         int64
	AllCandidates        []strategy.BaseVersion
	IncrementExplanation *IncrementExplanation
	PreReleaseSteps      []string
}

// NextVersionCalculator is the top-level entry point: given a repository
// position and effective configuration, it produces the one version that
// describes HEAD.
type NextVersionCalculator struct {
	store    *git.RepositoryStore
	base     *BaseVersionCalculator
	mainline *MainlineVersionCalculator
	incr     *IncrementStrategyFinder
}

func NewNextVersionCalculator(
	store *git.RepositoryStore,
	strategies []strategy.VersionStrategy,
) *NextVersionCalculator {
	incr := NewIncrementStrategyFinder(store)
	return &NextVersionCalculator{
		store:    store,
		base:     NewBaseVersionCalculator(store, strategies, incr),
		mainline: NewMainlineVersionCalculator(store, incr),
		incr:     incr,
	}
}

// Calculate runs the full pipeline: a tagged HEAD short-circuits everything
// else, otherwise a base version is chosen, incremented according to the
// configured mode, given a pre-release tag if the branch calls for one, and
// finally stamped with build metadata.
func (c *NextVersionCalculator) Calculate(
	ctx *context.GitVersionContext,
	ec config.EffectiveConfiguration,
	explain bool,
) (VersionResult, error) {
	if ctx.IsCurrentCommitTagged {
		return VersionResult{
			Version:    ctx.CurrentCommitTaggedVersion,
			BranchName: ctx.CurrentBranch.FriendlyName(),
		}, nil
	}

	baseResult, err := c.base.Calculate(ctx, ec, explain)
	if err != nil {
		return VersionResult{}, err
	}
	bv := baseResult.BaseVersion

	ver, incrExp, err := c.incremented(ctx, bv, ec, explain)
	if err != nil {
		return VersionResult{}, err
	}

	branchName := bv.BranchNameOverride
	if branchName == "" {
		branchName = ctx.CurrentBranch.FriendlyName()
	}

	ver, preReleaseSteps := c.withPreReleaseTag(ver, branchName, ec, explain)
	commitsSince := c.commitsSince(ctx, bv)
	ver = stampBuildMetadata(ver, ctx, bv, branchName, commitsSince)

	return VersionResult{
		Version:              ver,
		BaseVersion:          bv,
		BranchName:           branchName,
		CommitsSince:         commitsSince,
		AllCandidates:        baseResult.AllCandidates,
		IncrementExplanation: incrExp,
		PreReleaseSteps:      preReleaseSteps,
	}, nil
}

// incremented picks between the Mainline algorithm and the plain
// commit-message increment depending on the configured versioning mode.
func (c *NextVersionCalculator) incremented(
	ctx *context.GitVersionContext,
	bv strategy.BaseVersion,
	ec config.EffectiveConfiguration,
	explain bool,
) (semver.SemanticVersion, *IncrementExplanation, error) {
	if ec.BranchMode == semver.VersioningModeMainline {
		return c.mainline.FindMainlineModeVersion(ctx, bv, ec, explain)
	}

	result, err := c.incr.DetermineIncrementedFieldExplained(ctx, bv, ec, explain)
	if err != nil {
		return semver.SemanticVersion{}, nil, err
	}

	ver := bv.SemanticVersion
	if result.Field != semver.VersionFieldNone {
		ver = ver.IncrementField(result.Field)
	}
	return ver, result.Explanation, nil
}

// withPreReleaseTag labels the version with the branch's configured
// pre-release name and the next free iteration number for that
// major.minor.patch+label combination. Release and mainline branches never
// carry a tag: they are returned unlabelled whatever ec.Tag says.
func (c *NextVersionCalculator) withPreReleaseTag(
	ver semver.SemanticVersion,
	branchName string,
	ec config.EffectiveConfiguration,
	explain bool,
) (semver.SemanticVersion, []string) {
	if ec.Tag == "" || ec.IsReleaseBranch || ec.IsMainline {
		return ver, nil
	}

	tagName := config.GetBranchSpecificTag(branchName, ec.Tag)
	if tagName == "" {
		return ver, nil
	}

	var steps []string
	note := func(format string, args ...any) {
		if explain {
			steps = append(steps, fmt.Sprintf(format, args...))
		}
	}
	note("branch config tag=%q -> %q", ec.Tag, tagName)

	number := c.nextPreReleaseNumber(ver, tagName, ec.TagPrefix)
	note("%d.%d.%d-%s -> iteration %d", ver.Major, ver.Minor, ver.Patch, tagName, number)

	return ver.WithPreReleaseTag(semver.PreReleaseTag{Name: tagName, Number: &number}), steps
}

// nextPreReleaseNumber scans existing version tags for the same
// major.minor.patch and label and returns one past the highest iteration
// found, or 1 if there is no prior match.
func (c *NextVersionCalculator) nextPreReleaseNumber(ver semver.SemanticVersion, tagName, tagPrefix string) int64 {
	existing, err := c.store.GetValidVersionTags(tagPrefix, nil)
	if err != nil {
		return 1
	}

	next := int64(1)
	for _, vt := range existing {
		v := vt.Version
		if v.Major != ver.Major || v.Minor != ver.Minor || v.Patch != ver.Patch {
			continue
		}
		if v.PreReleaseTag.Name != tagName || v.PreReleaseTag.Number == nil {
			continue
		}
		if *v.PreReleaseTag.Number >= next {
			next = *v.PreReleaseTag.Number + 1
		}
	}
	return next
}

// commitsSince counts the commits strictly after bv's source commit, up to
// and including HEAD.
func (c *NextVersionCalculator) commitsSince(ctx *context.GitVersionContext, bv strategy.BaseVersion) int64 {
	var from git.Commit
	if bv.BaseVersionSource != nil {
		from = *bv.BaseVersionSource
	}

	commits, err := c.store.GetCommitLog(from, ctx.CurrentCommit)
	if err != nil {
		return 0
	}

	count := int64(len(commits))
	if bv.BaseVersionSource != nil {
		for _, co := range commits {
			if co.Sha == bv.BaseVersionSource.Sha {
				count--
				break
			}
		}
	}
	return count
}

// stampBuildMetadata attaches the traceability fields (sha, branch, commit
// date, distance from the version source) that never affect precedence.
func stampBuildMetadata(
	ver semver.SemanticVersion,
	ctx *context.GitVersionContext,
	bv strategy.BaseVersion,
	branchName string,
	commitsSince int64,
) semver.SemanticVersion {
	var versionSourceSha string
	if bv.BaseVersionSource != nil {
		versionSourceSha = bv.BaseVersionSource.Sha
	}

	return ver.WithBuildMetaData(semver.BuildMetaData{
		CommitsSinceTag:           &commitsSince,
		Branch:                    branchName,
		Sha:                       ctx.CurrentCommit.Sha,
		ShortSha:                  ctx.CurrentCommit.ShortSha(),
		VersionSourceSha:          versionSourceSha,
		CommitDate:                ctx.CurrentCommit.When,
		CommitsSinceVersionSource: commitsSince,
		UncommittedChanges:        int64(ctx.NumberOfUncommittedChanges),
	})
}
