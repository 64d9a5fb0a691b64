package calculator

import (
	"slices"

	"github.com/versoci/verso/internal/config"
	"github.com/versoci/verso/internal/context"
	"github.com/versoci/verso/internal/git"
	"github.com/versoci/verso/internal/semver"
	"github.com/versoci/verso/internal/strategy"
)

// MainlineVersionCalculator implements mainline-mode versioning, where every
// commit on the tracked branch is itself a release: there is no pre-release
// tag, only a steadily incrementing release number. ec.MainlineIncrement
// picks between two ways of turning the commits since the base version into
// that number:
//
//   - Aggregate (default): the single highest bump implied by all of those
//     commits is applied once, and the commit count is recorded as metadata.
//   - EachCommit: every commit applies its own bump in sequence, so a
//     feat-then-fix-then-feat history produces two minor bumps and a patch
//     bump rather than one aggregated minor bump.
type MainlineVersionCalculator struct {
	store     *git.RepositoryStore
	increment *IncrementStrategyFinder
}

func NewMainlineVersionCalculator(
	store *git.RepositoryStore,
	increment *IncrementStrategyFinder,
) *MainlineVersionCalculator {
	return &MainlineVersionCalculator{store: store, increment: increment}
}

func (m *MainlineVersionCalculator) FindMainlineModeVersion(
	ctx *context.GitVersionContext,
	bv strategy.BaseVersion,
	ec config.EffectiveConfiguration,
	explain bool,
) (semver.SemanticVersion, *IncrementExplanation, error) {
	if ec.MainlineIncrement == semver.MainlineIncrementEachCommit {
		return m.walkEachCommit(ctx, bv, ec, explain)
	}
	return m.applyAggregateBump(ctx, bv, ec, explain)
}

// floorField is the field branchIncrement.ToVersionField() falls back to
// when a branch is configured to increment but names no specific field.
const floorField = semver.VersionFieldPatch

// applyAggregateBump finds the largest field implied by the commits since
// bv's source and applies it a single time, recording how many commits were
// folded into that one bump.
func (m *MainlineVersionCalculator) applyAggregateBump(
	ctx *context.GitVersionContext,
	bv strategy.BaseVersion,
	ec config.EffectiveConfiguration,
	explain bool,
) (semver.SemanticVersion, *IncrementExplanation, error) {
	commits, count := m.commitRange(bv, ctx)

	var exp *IncrementExplanation
	if explain {
		exp = &IncrementExplanation{}
	}
	field := m.increment.branchDefault(bv, ec)
	if ec.CommitMessageIncrementing != semver.CommitMessageIncrementDisabled {
		field = m.increment.highestFieldAcross(commits, bv, ec, exp)
		field = capPreReleaseMajor(bv.SemanticVersion, field, exp)
		field = m.increment.applyBranchFloor(field, bv, ec, exp)
	}

	ver := bv.SemanticVersion
	switch {
	case field != semver.VersionFieldNone:
		ver = ver.IncrementField(field)
	case bv.ShouldIncrement:
		ver = ver.IncrementField(branchFloorOrPatch(ec))
	}

	return m.stamp(ver, ctx, count), exp, nil
}

// walkEachCommit replays the commits since bv's source oldest-first,
// applying one increment per commit rather than folding them into a single
// aggregate bump.
func (m *MainlineVersionCalculator) walkEachCommit(
	ctx *context.GitVersionContext,
	bv strategy.BaseVersion,
	ec config.EffectiveConfiguration,
	explain bool,
) (semver.SemanticVersion, *IncrementExplanation, error) {
	commits, count := m.commitRange(bv, ctx)

	var exp *IncrementExplanation
	if explain {
		exp = &IncrementExplanation{}
		exp.Addf("mainline EachCommit mode: walking %d commits", count)
	}

	floor := branchFloorOrPatch(ec)
	ver := bv.SemanticVersion

	oldestFirst := slices.Clone(commits)
	slices.Reverse(oldestFirst)

	for _, c := range oldestFirst {
		if bv.BaseVersionSource != nil && c.Sha == bv.BaseVersionSource.Sha {
			continue
		}

		field := capPreReleaseMajor(ver, m.increment.AnalyzeCommitIncrement(c, ec), nil)
		switch {
		case field != semver.VersionFieldNone:
			ver = ver.IncrementField(field)
		case bv.ShouldIncrement:
			ver = ver.IncrementField(floor)
		}

		exp.Addf("commit %s %q -> %s -> %s", c.ShortSha(), firstLineOf(c.Message), field, ver.SemVer())
	}

	exp.Addf("final mainline version: %s", ver.SemVer())
	return m.stamp(ver, ctx, count), exp, nil
}

func branchFloorOrPatch(ec config.EffectiveConfiguration) semver.VersionField {
	if field := ec.BranchIncrement.ToVersionField(); field != semver.VersionFieldNone {
		return field
	}
	return floorField
}

// commitRange returns the commits since bv's source commit (newest-first, as
// the store returns them) and their count, not counting the source commit
// itself.
func (m *MainlineVersionCalculator) commitRange(
	bv strategy.BaseVersion,
	ctx *context.GitVersionContext,
) ([]git.Commit, int64) {
	var from git.Commit
	if bv.BaseVersionSource != nil {
		from = *bv.BaseVersionSource
	}

	commits, err := m.store.GetMainlineCommitLog(from, ctx.CurrentCommit)
	if err != nil {
		return nil, 0
	}

	count := int64(len(commits))
	if bv.BaseVersionSource != nil {
		for _, c := range commits {
			if c.Sha == bv.BaseVersionSource.Sha {
				count--
				break
			}
		}
	}

	return commits, count
}

// stamp attaches the build metadata a mainline version carries: the source
// sha/branch and how many commits separate it from the version source. No
// pre-release fields are set, since mainline versions are always releases.
func (m *MainlineVersionCalculator) stamp(
	ver semver.SemanticVersion,
	ctx *context.GitVersionContext,
	count int64,
) semver.SemanticVersion {
	return ver.WithBuildMetaData(semver.BuildMetaData{
		CommitsSinceTag:           &count,
		Branch:                    ctx.CurrentBranch.FriendlyName(),
		Sha:                       ctx.CurrentCommit.Sha,
		ShortSha:                  ctx.CurrentCommit.ShortSha(),
		CommitsSinceVersionSource: count,
	})
}
