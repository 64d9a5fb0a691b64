package strategy

import (
	"fmt"
	"time"

	"github.com/versoci/verso/internal/config"
	"github.com/versoci/verso/internal/context"
	"github.com/versoci/verso/internal/git"
)

// TaggedCommitStrategy treats every valid version tag reachable from a
// branch as a candidate base version. A tag sitting on HEAD itself is
// already the version (ShouldIncrement stays false); any other reachable
// tag is a starting point to increment from.
type TaggedCommitStrategy struct {
	store *git.RepositoryStore
}

func NewTaggedCommitStrategy(store *git.RepositoryStore) *TaggedCommitStrategy {
	return &TaggedCommitStrategy{store: store}
}

func (s *TaggedCommitStrategy) Name() string { return "TaggedCommit" }

func (s *TaggedCommitStrategy) GetBaseVersions(
	ctx *context.GitVersionContext,
	ec config.EffectiveConfiguration,
	explain bool,
) ([]BaseVersion, error) {
	return s.tagsReachableFrom(ctx, ec, ctx.CurrentBranch, &ctx.CurrentCommit.When, explain)
}

// tagsReachableFrom collects every valid version tag reachable from branch
// up to olderThan, pairs each with the commit it sits on, and reports it as
// a candidate. TrackReleaseBranchesStrategy reuses this for the main
// release branch's own tags.
//
// When one or more of the matched tags sit directly on the branch's current
// commit, only those are returned — a tag on HEAD is definitive and any
// older reachable tag would only confuse the ranking.
func (s *TaggedCommitStrategy) tagsReachableFrom(
	ctx *context.GitVersionContext,
	ec config.EffectiveConfiguration,
	branch git.Branch,
	olderThan *time.Time,
	explain bool,
) ([]BaseVersion, error) {
	if branch.Tip == nil {
		return nil, nil
	}

	versionTags, err := s.store.GetValidVersionTags(ec.TagPrefix, olderThan)
	if err != nil {
		return nil, fmt.Errorf("getting version tags: %w", err)
	}

	byCommitSha := groupTagsByCommit(versionTags)

	commits, err := s.store.GetCommitLog(git.Commit{}, *branch.Tip)
	if err != nil {
		return nil, fmt.Errorf("getting branch commits: %w", err)
	}

	var onHead, everywhere []BaseVersion
	for _, commit := range commits {
		for _, vt := range byCommitSha[commit.Sha] {
			bv := candidateFromTag(vt, ctx.CurrentCommit.Sha, explain)
			everywhere = append(everywhere, bv)
			if !bv.ShouldIncrement {
				onHead = append(onHead, bv)
			}
		}
	}

	if len(onHead) > 0 {
		return onHead, nil
	}
	return everywhere, nil
}

func groupTagsByCommit(tags []git.VersionTag) map[string][]git.VersionTag {
	byCommit := make(map[string][]git.VersionTag, len(tags))
	for _, vt := range tags {
		byCommit[vt.Commit.Sha] = append(byCommit[vt.Commit.Sha], vt)
	}
	return byCommit
}

func candidateFromTag(vt git.VersionTag, headSha string, explain bool) BaseVersion {
	shouldIncrement := vt.Commit.Sha != headSha

	var exp *Explanation
	if explain {
		exp = NewExplanation("TaggedCommit")
		exp.Addf("tag %s on commit %s -> %s, ShouldIncrement=%t",
			vt.Tag.Name.Friendly, vt.Commit.ShortSha(), vt.Version.SemVer(), shouldIncrement)
	}

	c := vt.Commit
	return BaseVersion{
		Source:            fmt.Sprintf("Git tag '%s'", vt.Tag.Name.Friendly),
		ShouldIncrement:   shouldIncrement,
		SemanticVersion:   vt.Version,
		BaseVersionSource: &c,
		Explanation:       exp,
	}
}
