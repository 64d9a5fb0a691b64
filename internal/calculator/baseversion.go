package calculator

import (
	"fmt"
	"time"

	"github.com/versoci/verso/internal/config"
	"github.com/versoci/verso/internal/context"
	"github.com/versoci/verso/internal/git"
	"github.com/versoci/verso/internal/semver"
	"github.com/versoci/verso/internal/strategy"
)

// BaseVersionCalculator asks every configured strategy for its candidate
// base versions, discards the ones ignore-config excludes, and ranks what's
// left to find the single version the rest of the pipeline builds from.
type BaseVersionCalculator struct {
	store      *git.RepositoryStore
	strategies []strategy.VersionStrategy
	increment  *IncrementStrategyFinder
}

func NewBaseVersionCalculator(
	store *git.RepositoryStore,
	strategies []strategy.VersionStrategy,
	increment *IncrementStrategyFinder,
) *BaseVersionCalculator {
	return &BaseVersionCalculator{
		store:      store,
		strategies: strategies,
		increment:  increment,
	}
}

// BaseVersionResult is the winning base version plus every candidate that
// was considered, for callers (and explain mode) that want the full picture.
type BaseVersionResult struct {
	BaseVersion            strategy.BaseVersion
	EffectiveConfiguration config.EffectiveConfiguration
	AllCandidates          []strategy.BaseVersion
}

func (c *BaseVersionCalculator) Calculate(
	ctx *context.GitVersionContext,
	ec config.EffectiveConfiguration,
	explain bool,
) (BaseVersionResult, error) {
	all, err := c.gatherCandidates(ctx, ec, explain)
	if err != nil {
		return BaseVersionResult{}, err
	}
	if len(all) == 0 {
		return BaseVersionResult{}, fmt.Errorf("%w: no base versions produced by any strategy", git.ErrNoCommits)
	}

	eligible := excludeIgnored(all, ec)
	if len(eligible) == 0 {
		return BaseVersionResult{}, fmt.Errorf("%w: all base versions were filtered out by ignore config", git.ErrNoCommits)
	}

	return BaseVersionResult{
		BaseVersion:            c.rankAndPickWinner(ctx, eligible, ec),
		EffectiveConfiguration: ec,
		AllCandidates:          all,
	}, nil
}

// gatherCandidates asks each strategy in turn for its base versions,
// tagging a strategy failure with its own name so the caller can tell which
// one broke.
func (c *BaseVersionCalculator) gatherCandidates(
	ctx *context.GitVersionContext,
	ec config.EffectiveConfiguration,
	explain bool,
) ([]strategy.BaseVersion, error) {
	var all []strategy.BaseVersion
	for _, s := range c.strategies {
		produced, err := s.GetBaseVersions(ctx, ec, explain)
		if err != nil {
			return nil, fmt.Errorf("strategy %s: %w", s.Name(), err)
		}
		all = append(all, produced...)
	}
	return all, nil
}

// excludeIgnored drops candidates whose source commit is explicitly named
// in IgnoreSha, or predates IgnoreCommitsBefore. Candidates with no source
// commit (nothing to check) always pass through.
func excludeIgnored(candidates []strategy.BaseVersion, ec config.EffectiveConfiguration) []strategy.BaseVersion {
	if len(ec.IgnoreSha) == 0 && ec.IgnoreCommitsBefore == nil {
		return candidates
	}

	ignored := make(map[string]struct{}, len(ec.IgnoreSha))
	for _, sha := range ec.IgnoreSha {
		ignored[sha] = struct{}{}
	}

	kept := make([]strategy.BaseVersion, 0, len(candidates))
	for _, bv := range candidates {
		if isIgnoredSource(bv, ignored, ec.IgnoreCommitsBefore) {
			continue
		}
		kept = append(kept, bv)
	}
	return kept
}

func isIgnoredSource(bv strategy.BaseVersion, ignoredShas map[string]struct{}, before *time.Time) bool {
	if bv.BaseVersionSource == nil {
		return false
	}
	if _, hit := ignoredShas[bv.BaseVersionSource.Sha]; hit {
		return true
	}
	return before != nil && bv.BaseVersionSource.When.Before(*before)
}

// rankAndPickWinner picks the candidate whose effective version (what the
// version would be if its requested increment were already applied) sorts
// highest. A tie is broken in favor of the candidate with the older source
// commit, since more history behind a base version means a more trustworthy
// commit count ahead of it. The increment itself is NOT applied here; this
// is ranking only.
func (c *BaseVersionCalculator) rankAndPickWinner(
	ctx *context.GitVersionContext,
	candidates []strategy.BaseVersion,
	ec config.EffectiveConfiguration,
) strategy.BaseVersion {
	winner := candidates[0]
	winnerRank := c.previewIncrement(winner, ec)

	for _, bv := range candidates[1:] {
		rank := c.previewIncrement(bv, ec)

		switch cmp := rank.CompareTo(winnerRank); {
		case cmp > 0:
			winner, winnerRank = bv, rank
		case cmp == 0 && olderSource(bv, winner):
			winner, winnerRank = bv, rank
		}
	}

	return winner
}

func olderSource(a, b strategy.BaseVersion) bool {
	return a.BaseVersionSource != nil && b.BaseVersionSource != nil &&
		a.BaseVersionSource.When.Before(b.BaseVersionSource.When)
}

// previewIncrement returns what bv's version would become if its
// ShouldIncrement flag were honored right now, using the branch's default
// field. Pure lookahead for ranking purposes; the pipeline decides the real
// increment independently later.
func (c *BaseVersionCalculator) previewIncrement(bv strategy.BaseVersion, ec config.EffectiveConfiguration) semver.SemanticVersion {
	if !bv.ShouldIncrement {
		return bv.SemanticVersion
	}
	field := ec.BranchIncrement.ToVersionField()
	if field == semver.VersionFieldNone {
		field = semver.VersionFieldPatch
	}
	return bv.SemanticVersion.IncrementField(field)
}
