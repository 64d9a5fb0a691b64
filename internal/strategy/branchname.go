package strategy

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/versoci/verso/internal/config"
	"github.com/versoci/verso/internal/context"
	"github.com/versoci/verso/internal/git"
	"github.com/versoci/verso/internal/semver"
)

// VersionInBranchNameStrategy reads a version straight out of a release
// branch's own name, e.g. "release/2.3.0" or "hotfix-1.4.2". Because the
// number is explicit, the version never needs incrementing on its own
// branch (ShouldIncrement is false) — any bump comes from commits layered
// on top of it.
type VersionInBranchNameStrategy struct {
	store *git.RepositoryStore
}

func NewVersionInBranchNameStrategy(store *git.RepositoryStore) *VersionInBranchNameStrategy {
	return &VersionInBranchNameStrategy{store: store}
}

func (s *VersionInBranchNameStrategy) Name() string { return "VersionInBranchName" }

func (s *VersionInBranchNameStrategy) GetBaseVersions(
	ctx *context.GitVersionContext,
	ec config.EffectiveConfiguration,
	explain bool,
) ([]BaseVersion, error) {
	return s.versionFromBranch(ctx, ec, ctx.CurrentBranch, explain)
}

// versionFromBranch pulls a candidate version out of branch's name. Shared
// with TrackReleaseBranchesStrategy, which calls it once per release
// branch rather than just the current one.
func (s *VersionInBranchNameStrategy) versionFromBranch(
	ctx *context.GitVersionContext,
	ec config.EffectiveConfiguration,
	branch git.Branch,
	explain bool,
) ([]BaseVersion, error) {
	var exp *Explanation
	if explain {
		exp = NewExplanation(s.Name())
	}

	branchName := branch.Name.WithoutRemote
	if !ctx.FullConfiguration.IsReleaseBranch(branchName) {
		exp.Addf("branch %q is not a release branch, skipping", branchName)
		return nil, nil
	}

	versionStr, ok := git.ExtractVersionFromBranch(branch.FriendlyName(), ec.TagPrefix)
	if !ok {
		exp.Addf("no version found in branch name %q", branch.FriendlyName())
		return nil, nil
	}

	ver, err := semver.Parse(versionStr, "")
	if err != nil {
		return nil, fmt.Errorf("parsing version from branch name %q: %w", versionStr, err)
	}

	sourceCommit, err := s.branchPointCommit(branch, ctx)
	if err != nil {
		return nil, err
	}

	override := computeBranchNameOverride(branch.FriendlyName(), versionStr)
	exp.Addf("branch %q -> version %s, override=%q", branch.FriendlyName(), ver.SemVer(), override)

	return []BaseVersion{{
		Source:             "Version in branch name",
		ShouldIncrement:    false,
		SemanticVersion:    ver,
		BaseVersionSource:  sourceCommit,
		BranchNameOverride: override,
		Explanation:        exp,
	}}, nil
}

// branchPointCommit finds the commit branch diverged from its parent, or
// nil if branch has no history of its own (e.g. it was just created).
func (s *VersionInBranchNameStrategy) branchPointCommit(branch git.Branch, ctx *context.GitVersionContext) (*git.Commit, error) {
	point, err := s.store.FindCommitBranchWasBranchedFrom(branch, ctx.FullConfiguration)
	if err != nil {
		return nil, fmt.Errorf("finding branch point: %w", err)
	}
	if point.Commit.IsEmpty() {
		return nil, nil
	}
	c := point.Commit
	return &c, nil
}

// computeBranchNameOverride strips the version segment (and a leading
// separator) from a release branch's friendly name, leaving whatever
// prefix the team uses, e.g. "release/2.3.0" -> "release".
func computeBranchNameOverride(branchName, version string) string {
	re := regexp.MustCompile(`[-/]` + regexp.QuoteMeta(version))
	stripped := re.ReplaceAllString(branchName, "")
	return strings.TrimRight(stripped, "/-")
}
