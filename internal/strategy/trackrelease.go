package strategy

import (
	"fmt"

	"github.com/versoci/verso/internal/config"
	"github.com/versoci/verso/internal/context"
	"github.com/versoci/verso/internal/git"
)

// TrackReleaseBranchesStrategy is for branches (typically "develop") whose
// version should follow whatever release branches exist, plus whatever has
// already shipped from the main branch. It produces two families of
// candidates: one per open release branch (remapped onto that branch's
// point of divergence) and one per tag reachable from the main branch.
type TrackReleaseBranchesStrategy struct {
	store          *git.RepositoryStore
	tagStrategy    *TaggedCommitStrategy
	branchStrategy *VersionInBranchNameStrategy
}

func NewTrackReleaseBranchesStrategy(store *git.RepositoryStore) *TrackReleaseBranchesStrategy {
	return &TrackReleaseBranchesStrategy{
		store:          store,
		tagStrategy:    NewTaggedCommitStrategy(store),
		branchStrategy: NewVersionInBranchNameStrategy(store),
	}
}

func (s *TrackReleaseBranchesStrategy) Name() string { return "TrackReleaseBranches" }

func (s *TrackReleaseBranchesStrategy) GetBaseVersions(
	ctx *context.GitVersionContext,
	ec config.EffectiveConfiguration,
	explain bool,
) ([]BaseVersion, error) {
	if !ec.TracksReleaseBranches {
		return nil, nil
	}

	fromReleaseBranches, err := s.fromOpenReleaseBranches(ctx, explain)
	if err != nil {
		return nil, fmt.Errorf("release branch versions: %w", err)
	}

	fromMainTags, err := s.fromMainBranchTags(ctx, ec, explain)
	if err != nil {
		return nil, fmt.Errorf("main tag versions: %w", err)
	}

	if explain {
		exp := NewExplanation(s.Name())
		exp.Addf("found %d release branch versions + %d main tag versions", len(fromReleaseBranches), len(fromMainTags))
	}

	combined := make([]BaseVersion, 0, len(fromReleaseBranches)+len(fromMainTags))
	combined = append(combined, fromReleaseBranches...)
	combined = append(combined, fromMainTags...)
	return combined, nil
}

// fromOpenReleaseBranches walks every branch matching the release-branch
// config, finds where it diverged from the branch under evaluation, and
// remaps its VersionInBranchName candidate onto that divergence point with
// ShouldIncrement forced on (commits on develop beyond the release branch
// still need to count).
func (s *TrackReleaseBranchesStrategy) fromOpenReleaseBranches(
	ctx *context.GitVersionContext,
	explain bool,
) ([]BaseVersion, error) {
	releaseBranchConfig := ctx.FullConfiguration.GetReleaseBranchConfig()
	if len(releaseBranchConfig) == 0 {
		return nil, nil
	}

	releaseBranches, err := s.store.GetReleaseBranches(releaseBranchConfig)
	if err != nil {
		return nil, err
	}

	var results []BaseVersion
	for _, rb := range releaseBranches {
		bv, ok, err := s.remapReleaseBranch(ctx, rb, explain)
		if err != nil || !ok {
			continue
		}
		results = append(results, bv...)
	}
	return results, nil
}

func (s *TrackReleaseBranchesStrategy) remapReleaseBranch(
	ctx *context.GitVersionContext,
	rb git.Branch,
	explain bool,
) ([]BaseVersion, bool, error) {
	mergeBase, found, err := s.store.FindMergeBase(rb, ctx.CurrentBranch)
	if err != nil || !found || mergeBase.Sha == ctx.CurrentCommit.Sha {
		return nil, false, err
	}

	releaseEC, err := ctx.GetEffectiveConfiguration(rb.FriendlyName())
	if err != nil {
		return nil, false, nil
	}

	branchVersions, err := s.branchStrategy.versionFromBranch(ctx, releaseEC, rb, explain)
	if err != nil {
		return nil, false, nil
	}

	remapped := make([]BaseVersion, 0, len(branchVersions))
	for _, bv := range branchVersions {
		mb := mergeBase
		remapped = append(remapped, BaseVersion{
			Source:            "Release branch exists -> " + bv.Source,
			ShouldIncrement:   true,
			SemanticVersion:   bv.SemanticVersion,
			BaseVersionSource: &mb,
			Explanation:       bv.Explanation,
		})
	}
	return remapped, true, nil
}

// fromMainBranchTags reuses TaggedCommitStrategy against whatever branch
// config.Branches.Main identifies, so develop's versioning also accounts
// for anything already tagged on main.
func (s *TrackReleaseBranchesStrategy) fromMainBranchTags(
	ctx *context.GitVersionContext,
	ec config.EffectiveConfiguration,
	explain bool,
) ([]BaseVersion, error) {
	mainBranch, found, err := s.store.FindMainBranch(ctx.FullConfiguration)
	if err != nil || !found {
		return nil, err
	}
	return s.tagStrategy.tagsReachableFrom(ctx, ec, mainBranch, nil, explain)
}
