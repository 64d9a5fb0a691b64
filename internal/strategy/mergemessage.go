package strategy

import (
	"fmt"
	"strings"

	"github.com/versoci/verso/internal/config"
	"github.com/versoci/verso/internal/context"
	"github.com/versoci/verso/internal/git"
	"github.com/versoci/verso/internal/semver"
)

// maxMergeMessageResults caps how many candidates this strategy will
// return; beyond a handful of merges the ranking step in BaseVersionCalculator
// already has enough signal, and scanning further merge history just adds
// noise to explain-mode output.
const maxMergeMessageResults = 5

// MergeMessageStrategy mines the commit log for evidence that a release
// branch was merged in, either as a real merge commit (git's standard
// "Merge branch 'release/1.2.0'" message) or as a squash commit carrying
// the same information in a platform-specific format (GitHub/GitLab/
// Bitbucket/Azure DevOps squash templates, see git.ParseMergeMessage).
type MergeMessageStrategy struct {
	store *git.RepositoryStore
}

func NewMergeMessageStrategy(store *git.RepositoryStore) *MergeMessageStrategy {
	return &MergeMessageStrategy{store: store}
}

func (s *MergeMessageStrategy) Name() string { return "MergeMessage" }

func (s *MergeMessageStrategy) GetBaseVersions(
	ctx *context.GitVersionContext,
	ec config.EffectiveConfiguration,
	explain bool,
) ([]BaseVersion, error) {
	if ctx.CurrentBranch.Tip == nil {
		return nil, nil
	}

	commits, err := s.store.GetCommitLog(git.Commit{}, ctx.CurrentCommit)
	if err != nil {
		return nil, fmt.Errorf("getting commit log: %w", err)
	}

	var results []BaseVersion
	for _, commit := range commits {
		if len(results) >= maxMergeMessageResults {
			break
		}
		if bv, ok := s.candidateFromMerge(ctx, ec, commit, explain); ok {
			results = append(results, bv)
		}
	}
	for _, commit := range commits {
		if len(results) >= maxMergeMessageResults {
			break
		}
		if bv, ok := s.candidateFromSquash(ctx, ec, commit, explain); ok {
			results = append(results, bv)
		}
	}

	if explain {
		exp := NewExplanation(s.Name())
		exp.Addf("scanned %d commits, found %d merge message versions", len(commits), len(results))
	}
	return results, nil
}

// candidateFromMerge inspects a true merge commit (2+ parents), looking
// for git's own "Merge <branch> into <branch>" message naming a release
// branch.
func (s *MergeMessageStrategy) candidateFromMerge(
	ctx *context.GitVersionContext,
	ec config.EffectiveConfiguration,
	commit git.Commit,
	explain bool,
) (BaseVersion, bool) {
	if !commit.IsMerge() {
		return BaseVersion{}, false
	}

	mm := git.ParseMergeMessage(commit.Message, ec.MergeMessageFormats)
	branch, versionStr, ok := releaseVersionFromMergeMessage(ctx, ec, mm)
	if !ok {
		return BaseVersion{}, false
	}

	ver, err := semver.Parse(versionStr, "")
	if err != nil {
		return BaseVersion{}, false
	}

	return mergeCandidate(commit, ver, ec, explain, s.Name(),
		fmt.Sprintf("Merge message '%s'", strings.TrimSpace(firstLine(commit.Message))),
		fmt.Sprintf("commit %s: merge of %q (format: %s) -> %s", commit.ShortSha(), branch, mm.FormatName, ver.SemVer()),
	), true
}

// candidateFromSquash inspects a single-parent commit, looking for a
// squash-merge template naming a release branch, since squash merges never
// produce a real merge commit for candidateFromMerge to see.
func (s *MergeMessageStrategy) candidateFromSquash(
	ctx *context.GitVersionContext,
	ec config.EffectiveConfiguration,
	commit git.Commit,
	explain bool,
) (BaseVersion, bool) {
	if commit.IsMerge() {
		return BaseVersion{}, false
	}

	mm := git.ParseMergeMessage(commit.Message, nil)
	branch, versionStr, ok := releaseVersionFromMergeMessage(ctx, ec, mm)
	if !ok {
		return BaseVersion{}, false
	}

	ver, err := semver.Parse(versionStr, "")
	if err != nil {
		return BaseVersion{}, false
	}

	return mergeCandidate(commit, ver, ec, explain, s.Name(),
		fmt.Sprintf("Squash merge '%s'", strings.TrimSpace(firstLine(commit.Message))),
		fmt.Sprintf("squash commit %s: branch %q (format: %s) -> %s", commit.ShortSha(), branch, mm.FormatName, ver.SemVer()),
	), true
}

// releaseVersionFromMergeMessage extracts the merged branch name from mm
// and, if it both names a release branch and carries a version, returns
// that branch and version string.
func releaseVersionFromMergeMessage(
	ctx *context.GitVersionContext,
	ec config.EffectiveConfiguration,
	mm git.MergeMessage,
) (branch, versionStr string, ok bool) {
	if mm.IsEmpty() || mm.MergedBranch == "" {
		return "", "", false
	}
	branch = trimRemotePrefix(mm.MergedBranch)
	if branch == "" || !ctx.FullConfiguration.IsReleaseBranch(branch) {
		return "", "", false
	}
	versionStr, found := git.ExtractVersionFromBranch(branch, ec.TagPrefix)
	if !found {
		return "", "", false
	}
	return branch, versionStr, true
}

func mergeCandidate(
	commit git.Commit,
	ver semver.SemanticVersion,
	ec config.EffectiveConfiguration,
	explain bool,
	strategyName, source, detail string,
) BaseVersion {
	shouldIncrement := !ec.PreventIncrementOfMergedBranchVersion

	var exp *Explanation
	if explain {
		exp = NewExplanation(strategyName)
		exp.Addf("%s, ShouldIncrement=%t", detail, shouldIncrement)
	}

	c := commit
	return BaseVersion{
		Source:            source,
		ShouldIncrement:   shouldIncrement,
		SemanticVersion:   ver,
		BaseVersionSource: &c,
		Explanation:       exp,
	}
}

// trimRemotePrefix strips remote-tracking prefixes from a branch name so
// "origin/release/1.2.0" and "release/1.2.0" compare equal.
func trimRemotePrefix(name string) string {
	name = strings.TrimPrefix(name, "refs/remotes/")
	name = strings.TrimPrefix(name, "origin/")
	return name
}

// firstLine returns s up to (not including) its first newline.
func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}
