package git

import (
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/versoci/verso/internal/config"
	"github.com/versoci/verso/internal/semver"
)

// RepositoryStore layers semantic-version-aware queries (valid version tags,
// release branches, merge bases, fork points) on top of a raw Repository,
// which only knows about refs and commits. Every calculator and strategy in
// this module reads through a RepositoryStore rather than a bare
// Repository, so this is the one place git data gets interpreted as
// versioning data.
type RepositoryStore struct {
	repo Repository
}

// NewRepositoryStore wraps repo in a RepositoryStore.
func NewRepositoryStore(repo Repository) *RepositoryStore {
	return &RepositoryStore{repo: repo}
}

// --- Tag queries ---

// GetValidVersionTags returns every tag whose name parses as a semantic
// version under tagPrefix, resolved to its target commit. A non-nil
// olderThan drops tags on commits made after that time.
func (s *RepositoryStore) GetValidVersionTags(tagPrefix string, olderThan *time.Time, filters ...PathFilter) ([]VersionTag, error) {
	tags, err := s.repo.Tags(filters...)
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}

	var result []VersionTag
	for _, tag := range tags {
		vt, ok := s.versionTagAt(tag, tagPrefix, olderThan)
		if ok {
			result = append(result, vt)
		}
	}
	return result, nil
}

func (s *RepositoryStore) versionTagAt(tag Tag, tagPrefix string, olderThan *time.Time) (VersionTag, bool) {
	ver, ok := semver.TryParse(tag.Name.Friendly, tagPrefix)
	if !ok {
		return VersionTag{}, false
	}

	commitSha, err := s.repo.PeelTagToCommit(tag)
	if err != nil {
		return VersionTag{}, false
	}
	commit, err := s.repo.CommitFromSha(commitSha)
	if err != nil {
		return VersionTag{}, false
	}
	if olderThan != nil && commit.When.After(*olderThan) {
		return VersionTag{}, false
	}

	return VersionTag{Tag: tag, Version: ver, Commit: commit}, true
}

// GetVersionTagsOnBranch returns the semantic versions tagged on commits
// reachable from branch, sorted highest version first.
func (s *RepositoryStore) GetVersionTagsOnBranch(branch Branch, tagPrefix string, filters ...PathFilter) ([]semver.SemanticVersion, error) {
	versionTags, err := s.GetValidVersionTags(tagPrefix, nil, filters...)
	if err != nil {
		return nil, err
	}

	commits, err := s.repo.BranchCommits(branch, filters...)
	if err != nil {
		return nil, fmt.Errorf("getting branch commits: %w", err)
	}
	onBranch := commitShaSet(commits)

	var versions []semver.SemanticVersion
	for _, vt := range versionTags {
		if _, ok := onBranch[vt.Commit.Sha]; ok {
			versions = append(versions, vt.Version)
		}
	}

	sort.Slice(versions, func(i, j int) bool {
		return versions[i].CompareTo(versions[j]) > 0
	})
	return versions, nil
}

func commitShaSet(commits []Commit) map[string]struct{} {
	set := make(map[string]struct{}, len(commits))
	for _, c := range commits {
		set[c.Sha] = struct{}{}
	}
	return set
}

// GetCurrentCommitTaggedVersion returns the highest version tag pointing
// directly at commit, if any.
func (s *RepositoryStore) GetCurrentCommitTaggedVersion(commit Commit, tagPrefix string) (semver.SemanticVersion, bool, error) {
	versionTags, err := s.GetValidVersionTags(tagPrefix, nil)
	if err != nil {
		return semver.SemanticVersion{}, false, err
	}

	var best *semver.SemanticVersion
	for _, vt := range versionTags {
		if vt.Commit.Sha != commit.Sha {
			continue
		}
		if best == nil || vt.Version.CompareTo(*best) > 0 {
			v := vt.Version
			best = &v
		}
	}
	if best == nil {
		return semver.SemanticVersion{}, false, nil
	}
	return *best, true, nil
}

// --- Branch queries ---

// FindMainBranch returns the local branch matching the "main" entry's
// regex in cfg, if that entry is configured at all.
func (s *RepositoryStore) FindMainBranch(cfg *config.Config) (Branch, bool, error) {
	mainBC, ok := cfg.Branches["main"]
	if !ok || mainBC.Regex == nil {
		return Branch{}, false, nil
	}

	re, err := regexp.Compile(*mainBC.Regex)
	if err != nil {
		return Branch{}, false, fmt.Errorf("%w: invalid main branch regex %q: %w", config.ErrConfiguration, *mainBC.Regex, err)
	}

	branches, err := s.repo.Branches()
	if err != nil {
		return Branch{}, false, fmt.Errorf("listing branches: %w", err)
	}
	for _, b := range branches {
		if !b.IsRemote && re.MatchString(b.FriendlyName()) {
			return b, true, nil
		}
	}
	return Branch{}, false, nil
}

// GetReleaseBranches returns every local branch whose name matches one of
// releaseBranchConfig's regexes.
func (s *RepositoryStore) GetReleaseBranches(releaseBranchConfig map[string]*config.BranchConfig) ([]Branch, error) {
	branches, err := s.repo.Branches()
	if err != nil {
		return nil, fmt.Errorf("listing branches: %w", err)
	}

	patterns := compileBranchPatterns(releaseBranchConfig)

	var result []Branch
	for _, b := range branches {
		if b.IsRemote {
			continue
		}
		if matchesAny(b.FriendlyName(), patterns) {
			result = append(result, b)
		}
	}
	return result, nil
}

func compileBranchPatterns(branchConfig map[string]*config.BranchConfig) []*regexp.Regexp {
	var patterns []*regexp.Regexp
	for _, bc := range branchConfig {
		if bc.Regex == nil {
			continue
		}
		if re, err := regexp.Compile(*bc.Regex); err == nil {
			patterns = append(patterns, re)
		}
	}
	return patterns
}

func matchesAny(name string, patterns []*regexp.Regexp) bool {
	for _, re := range patterns {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

// GetBranchesContainingCommit returns every branch that contains commit.
func (s *RepositoryStore) GetBranchesContainingCommit(commit Commit) ([]Branch, error) {
	if commit.IsEmpty() {
		return nil, nil
	}
	return s.repo.BranchesContainingCommit(commit.Sha)
}

// GetBranchesForCommit returns local branches whose tip is exactly commit.
func (s *RepositoryStore) GetBranchesForCommit(commit Commit) ([]Branch, error) {
	branches, err := s.repo.Branches()
	if err != nil {
		return nil, fmt.Errorf("listing branches: %w", err)
	}

	var result []Branch
	for _, b := range branches {
		if !b.IsRemote && b.Tip != nil && b.Tip.Sha == commit.Sha {
			result = append(result, b)
		}
	}
	return result, nil
}

// GetTargetBranch resolves targetBranchName to a Branch, or HEAD when
// targetBranchName is empty.
func (s *RepositoryStore) GetTargetBranch(targetBranchName string) (Branch, error) {
	if targetBranchName == "" {
		return s.repo.Head()
	}

	branches, err := s.repo.Branches()
	if err != nil {
		return Branch{}, fmt.Errorf("listing branches: %w", err)
	}
	for _, b := range branches {
		if b.FriendlyName() == targetBranchName || b.Name.WithoutRemote == targetBranchName {
			return b, nil
		}
	}
	return Branch{}, fmt.Errorf("branch %q not found", targetBranchName)
}

// --- Commit queries ---

// GetCurrentCommit resolves commitID to a Commit, or falls back to
// branch's tip when commitID is empty.
func (s *RepositoryStore) GetCurrentCommit(branch Branch, commitID string) (Commit, error) {
	if commitID != "" {
		return s.repo.CommitFromSha(commitID)
	}
	if branch.Tip == nil {
		return Commit{}, fmt.Errorf("branch %q has no tip commit", branch.FriendlyName())
	}
	return *branch.Tip, nil
}

// GetBaseVersionSource returns the oldest commit reachable from tip, the
// root of history when nothing else pins a base version.
func (s *RepositoryStore) GetBaseVersionSource(tip Commit) (Commit, error) {
	commits, err := s.repo.CommitLog("", tip.Sha)
	if err != nil {
		return Commit{}, fmt.Errorf("getting commit log: %w", err)
	}
	if len(commits) == 0 {
		return tip, nil
	}
	return commits[len(commits)-1], nil
}

// GetCommitLog returns every commit between from and to, inclusive of to.
func (s *RepositoryStore) GetCommitLog(from, to Commit) ([]Commit, error) {
	return s.repo.CommitLog(from.Sha, to.Sha)
}

// GetMainlineCommitLog returns the first-parent-only path between from and
// to, the walk mainline-mode increment counting needs.
func (s *RepositoryStore) GetMainlineCommitLog(from, to Commit) ([]Commit, error) {
	return s.repo.MainlineCommitLog(from.Sha, to.Sha)
}

// GetMergeBaseCommits returns commits reachable from mergedHead but not
// from mergeBase — the commits a merge actually brought in.
func (s *RepositoryStore) GetMergeBaseCommits(mergedHead, mergeBase Commit) ([]Commit, error) {
	return s.repo.CommitLog(mergeBase.Sha, mergedHead.Sha)
}

// --- Merge base ---

// FindMergeBase returns the merge base commit of two branches' tips.
func (s *RepositoryStore) FindMergeBase(branch1, branch2 Branch) (Commit, bool, error) {
	if branch1.Tip == nil || branch2.Tip == nil {
		return Commit{}, false, nil
	}
	return s.FindMergeBaseFromCommits(*branch1.Tip, *branch2.Tip)
}

// FindMergeBaseFromCommits returns the merge base of commit1 and commit2.
func (s *RepositoryStore) FindMergeBaseFromCommits(commit1, commit2 Commit) (Commit, bool, error) {
	sha, err := s.repo.FindMergeBase(commit1.Sha, commit2.Sha)
	if err != nil {
		return Commit{}, false, fmt.Errorf("finding merge base: %w", err)
	}
	if sha == "" {
		return Commit{}, false, nil
	}

	commit, err := s.repo.CommitFromSha(sha)
	if err != nil {
		return Commit{}, false, fmt.Errorf("loading merge base commit: %w", err)
	}
	return commit, true, nil
}

// FindCommitBranchWasBranchedFrom finds the closest fork point between
// branch and any of its configured source branches, skipping
// excludedBranches and branch itself. "Closest" means the most recent
// merge-base commit across all matching source branches.
func (s *RepositoryStore) FindCommitBranchWasBranchedFrom(branch Branch, cfg *config.Config, excludedBranches ...Branch) (BranchCommit, error) {
	if branch.Tip == nil {
		return BranchCommit{}, nil
	}

	_, configName, err := cfg.GetBranchConfiguration(branch.FriendlyName())
	if err != nil {
		return BranchCommit{}, fmt.Errorf("getting branch configuration: %w", err)
	}

	bc := cfg.Branches[configName]
	if bc == nil || bc.SourceBranches == nil {
		return BranchCommit{}, nil
	}

	allBranches, err := s.repo.Branches()
	if err != nil {
		return BranchCommit{}, fmt.Errorf("listing branches: %w", err)
	}

	candidates := s.forkCandidates(branch, *bc.SourceBranches, cfg, allBranches, excludeSet(excludedBranches))
	best, found := latestByWhen(candidates)
	if !found {
		return BranchCommit{}, nil
	}
	return best, nil
}

func excludeSet(branches []Branch) map[string]struct{} {
	set := make(map[string]struct{}, len(branches))
	for _, b := range branches {
		set[b.FriendlyName()] = struct{}{}
	}
	return set
}

// forkCandidates finds, for each configured source-branch regex, every
// matching real branch's merge base with branch, returning one candidate
// BranchCommit per match.
func (s *RepositoryStore) forkCandidates(branch Branch, sourceNames []string, cfg *config.Config, allBranches []Branch, excluded map[string]struct{}) []BranchCommit {
	var candidates []BranchCommit
	for _, sourceName := range sourceNames {
		sourceBC := cfg.Branches[sourceName]
		if sourceBC == nil || sourceBC.Regex == nil {
			continue
		}
		re, err := regexp.Compile(*sourceBC.Regex)
		if err != nil {
			continue
		}

		for _, b := range allBranches {
			if b.IsRemote || b.Tip == nil {
				continue
			}
			if _, skip := excluded[b.FriendlyName()]; skip {
				continue
			}
			if b.FriendlyName() == branch.FriendlyName() {
				continue
			}
			if !re.MatchString(b.FriendlyName()) {
				continue
			}

			mb, err := s.repo.FindMergeBase(branch.Tip.Sha, b.Tip.Sha)
			if err != nil || mb == "" {
				continue
			}
			commit, err := s.repo.CommitFromSha(mb)
			if err != nil {
				continue
			}
			candidates = append(candidates, BranchCommit{Branch: b, Commit: commit})
		}
	}
	return candidates
}

func latestByWhen(candidates []BranchCommit) (BranchCommit, bool) {
	var best BranchCommit
	found := false
	for _, c := range candidates {
		if !found || c.Commit.When.After(best.Commit.When) {
			best = c
			found = true
		}
	}
	return best, found
}

// --- Utility ---

// IsCommitOnBranch reports whether commit is reachable from branch's tip.
func (s *RepositoryStore) IsCommitOnBranch(commit Commit, branch Branch) (bool, error) {
	if branch.Tip == nil || commit.IsEmpty() {
		return false, nil
	}

	commits, err := s.repo.CommitLog("", branch.Tip.Sha)
	if err != nil {
		return false, fmt.Errorf("getting commit log: %w", err)
	}
	for _, c := range commits {
		if c.Sha == commit.Sha {
			return true, nil
		}
	}
	return false, nil
}

// GetNumberOfUncommittedChanges reports the size of the working tree diff.
func (s *RepositoryStore) GetNumberOfUncommittedChanges() (int, error) {
	return s.repo.NumberOfUncommittedChanges()
}
